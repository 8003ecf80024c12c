package mapview

import (
	"encoding/json"
	"fmt"
	"strings"

	"carte-elus/internal/geo"
)

// 文档注释：客户端上行消息
// 背景：渲染端只上报原始交互（缩放结束、点击、悬停进出、复位按钮），不参与状态判断。
// 约束：zoom 消息必须带 zoom 字段；要素类消息必须带 layer 与 index。
type clientMessage struct {
	Type  string    `json:"type"`
	Zoom  *float64  `json:"zoom,omitempty"`
	Layer *geo.Kind `json:"layer,omitempty"`
	Index *int      `json:"index,omitempty"`
}

// DecodeEvent 把客户端消息解析为事件；LayerLoaded/TablesChanged 仅由服务端产生，不接受上行
func DecodeEvent(b []byte) (Event, error) {
	var m clientMessage
	if err := json.Unmarshal(b, &m); err != nil {
		return nil, err
	}
	switch strings.ToLower(m.Type) {
	case "zoom", "zoomend":
		if m.Zoom == nil {
			return nil, fmt.Errorf("zoom message without zoom")
		}
		return ZoomChanged{Zoom: *m.Zoom}, nil
	case "home":
		return HomePressed{}, nil
	case "click", "hover", "unhover":
		if m.Layer == nil || m.Index == nil {
			return nil, fmt.Errorf("%s message without layer/index", m.Type)
		}
		ref := Ref{Layer: *m.Layer, Index: *m.Index}
		switch strings.ToLower(m.Type) {
		case "click":
			return FeatureClicked{Ref: ref}, nil
		case "hover":
			return FeatureHovered{Ref: ref}, nil
		}
		return FeatureUnhovered{Ref: ref}, nil
	}
	return nil, fmt.Errorf("unknown message type %q", m.Type)
}
