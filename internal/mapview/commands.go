package mapview

import (
	"encoding/json"

	"github.com/paulmach/orb"

	"carte-elus/internal/geo"
	"carte-elus/internal/join"
)

// Command 为渲染端需要按顺序执行的动作
type Command interface {
	CommandName() string
}

// LatLngBounds 采用渲染库的 [[南, 西], [北, 东]] 顺序
type LatLngBounds [2][2]float64

func boundsOf(b orb.Bound) LatLngBounds {
	return LatLngBounds{{b.Min.Lat(), b.Min.Lon()}, {b.Max.Lat(), b.Max.Lon()}}
}

// Init 为连接建立时下发的视图参数
type Init struct {
	MaxBounds LatLngBounds `json:"maxBounds"`
	MinZoom   float64      `json:"minZoom"`
	MaxZoom   float64      `json:"maxZoom"`
	ZoomSnap  float64      `json:"zoomSnap"`
	Center    [2]float64   `json:"center"`
	Zoom      float64      `json:"zoom"`
}

// LayerReady 通知渲染端某图层几何可从 URL 拉取
type LayerReady struct {
	Layer geo.Kind `json:"layer"`
	URL   string   `json:"url,omitempty"`
	Count int      `json:"count"`
}

type ShowLayer struct {
	Layer geo.Kind `json:"layer"`
}

type HideLayer struct {
	Layer geo.Kind `json:"layer"`
}

// SetStyle 设置单个要素样式
type SetStyle struct {
	Ref   Ref        `json:"ref"`
	Style join.Style `json:"style"`
}

// RestyleLayer 按要素下标整体替换一个图层的样式
type RestyleLayer struct {
	Layer  geo.Kind     `json:"layer"`
	Styles []join.Style `json:"styles"`
}

type BringToFront struct {
	Ref Ref `json:"ref"`
}

// FlyToBounds 平滑移动到包围盒；渲染端需把最终缩放限制在 [MinZoom, MaxZoom]
type FlyToBounds struct {
	Bounds  LatLngBounds `json:"bounds"`
	MinZoom float64      `json:"minZoom"`
	MaxZoom float64      `json:"maxZoom"`
}

type SetView struct {
	Center [2]float64 `json:"center"`
	Zoom   float64    `json:"zoom"`
}

type OpenPopup struct {
	Ref   Ref        `json:"ref"`
	Popup join.Popup `json:"popup"`
}

func (Init) CommandName() string         { return "init" }
func (LayerReady) CommandName() string   { return "layer_ready" }
func (ShowLayer) CommandName() string    { return "show_layer" }
func (HideLayer) CommandName() string    { return "hide_layer" }
func (SetStyle) CommandName() string     { return "set_style" }
func (RestyleLayer) CommandName() string { return "restyle_layer" }
func (BringToFront) CommandName() string { return "bring_to_front" }
func (FlyToBounds) CommandName() string  { return "fly_to_bounds" }
func (SetView) CommandName() string      { return "set_view" }
func (OpenPopup) CommandName() string    { return "open_popup" }

type envelope struct {
	Type string  `json:"type"`
	Data Command `json:"data"`
}

// EncodeCommand 序列化为 {"type": ..., "data": {...}}
func EncodeCommand(c Command) ([]byte, error) {
	return json.Marshal(envelope{Type: c.CommandName(), Data: c})
}
