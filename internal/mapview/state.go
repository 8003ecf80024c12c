package mapview

import (
	"carte-elus/internal/geo"
	"carte-elus/internal/join"
)

type layerState struct {
	layer    *geo.Layer
	visible  bool
	original []join.Style
}

// 文档注释：单个地图会话的应用状态
// 背景：图层句柄、可见性、要素原始样式与当前高亮引用都集中在这里，由 Controller 独占修改。
// 约束：任一时刻至多一个图层可见；至多一个要素处于高亮；original 在图层加载时按要素下标缓存。
type State struct {
	zoom         float64
	target       geo.Kind
	layers       map[geo.Kind]*layerState
	highlighted  *Ref
	stackingBugs bool
}

func newState(zoom float64) *State {
	return &State{
		zoom:   zoom,
		target: geo.Region,
		layers: make(map[geo.Kind]*layerState, len(geo.Kinds)),
	}
}

func (s *State) Zoom() float64 { return s.zoom }

// Target 返回当前应显示的图层（可能尚未加载）
func (s *State) Target() geo.Kind { return s.target }

func (s *State) Loaded(k geo.Kind) bool {
	ls, ok := s.layers[k]
	return ok && ls.layer != nil
}

func (s *State) Visible(k geo.Kind) bool {
	ls, ok := s.layers[k]
	return ok && ls.visible
}

// VisibleLayers 按由粗到细返回当前可见图层
func (s *State) VisibleLayers() []geo.Kind {
	var out []geo.Kind
	for _, k := range geo.Kinds {
		if s.Visible(k) {
			out = append(out, k)
		}
	}
	return out
}

// Highlighted 返回当前高亮要素
func (s *State) Highlighted() (Ref, bool) {
	if s.highlighted == nil {
		return Ref{}, false
	}
	return *s.highlighted, true
}

// Original 返回要素缓存的原始样式
func (s *State) Original(ref Ref) (join.Style, bool) {
	ls, ok := s.layers[ref.Layer]
	if !ok || ref.Index < 0 || ref.Index >= len(ls.original) {
		return join.Style{}, false
	}
	return ls.original[ref.Index], true
}

func (s *State) feature(ref Ref) *geo.Feature {
	ls, ok := s.layers[ref.Layer]
	if !ok {
		return nil
	}
	return ls.layer.Feature(ref.Index)
}

func (s *State) layer(k geo.Kind) *layerState {
	ls, ok := s.layers[k]
	if !ok {
		ls = &layerState{}
		s.layers[k] = ls
	}
	return ls
}
