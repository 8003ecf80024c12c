package mapview

import (
	"fmt"

	"carte-elus/internal/geo"
)

// Ref 标识某图层内的一个要素（图层 + 要素下标）
type Ref struct {
	Layer geo.Kind `json:"layer"`
	Index int      `json:"index"`
}

func (r Ref) String() string { return fmt.Sprintf("%s/%d", r.Layer, r.Index) }

// Event 为控制器的输入；所有事件经 Controller.Dispatch 按到达顺序处理
type Event interface {
	EventName() string
}

// Connected 在会话建立时派发一次；UserAgent 用于判断渲染引擎是否存在叠放缺陷
type Connected struct {
	UserAgent string
}

type ZoomChanged struct {
	Zoom float64
}

type FeatureClicked struct {
	Ref Ref
}

type FeatureHovered struct {
	Ref Ref
}

type FeatureUnhovered struct {
	Ref Ref
}

type HomePressed struct{}

// LayerLoaded 表示某个几何图层加载完成（可能晚于连接建立）
type LayerLoaded struct {
	Layer *geo.Layer
}

// TablesChanged 表示连接表快照已替换，需重新计算选区与市镇的缓存样式
type TablesChanged struct{}

func (Connected) EventName() string        { return "connected" }
func (ZoomChanged) EventName() string      { return "zoom_changed" }
func (FeatureClicked) EventName() string   { return "feature_clicked" }
func (FeatureHovered) EventName() string   { return "feature_hovered" }
func (FeatureUnhovered) EventName() string { return "feature_unhovered" }
func (HomePressed) EventName() string      { return "home_pressed" }
func (LayerLoaded) EventName() string      { return "layer_loaded" }
func (TablesChanged) EventName() string    { return "tables_changed" }
