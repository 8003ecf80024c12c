// 包 mapview：地图会话的状态机（按缩放分带切换图层、点击下钻、悬停高亮）
package mapview

import (
	"carte-elus/internal/geo"
	"carte-elus/internal/join"
	"carte-elus/internal/logger"
	"carte-elus/internal/metrics"
)

// Options 为会话初始视图与图层开关
type Options struct {
	Center          [2]float64
	Zoom            float64
	MinZoom         float64
	MaxZoom         float64
	ZoomSnap        float64
	MaxBounds       LatLngBounds
	CommunesEnabled bool
	// LayerURL 返回渲染端拉取某图层几何的地址；为 nil 时 LayerReady 不带 URL
	LayerURL func(geo.Kind) string
}

// DefaultOptions 为法国本土视图
func DefaultOptions() Options {
	return Options{
		Center:          [2]float64{46.8, 2.5},
		Zoom:            6,
		MinZoom:         6,
		MaxZoom:         10,
		ZoomSnap:        0.5,
		MaxBounds:       LatLngBounds{{35, -12}, {58, 20}},
		CommunesEnabled: true,
	}
}

// 文档注释：地图会话控制器
// 背景：渲染端的缩放、点击、悬停与服务端的数据加载完成都转换为事件，经 Dispatch 单点处理，
// 返回渲染端需按序执行的命令；控制器本身不做 I/O，可脱离渲染引擎测试。
// 约束：非并发安全，同一会话的事件须串行派发（会话循环保证）。
type Controller struct {
	state    *State
	resolver *join.Resolver
	opts     Options
}

func NewController(resolver *join.Resolver, opts Options) *Controller {
	return &Controller{state: newState(opts.Zoom), resolver: resolver, opts: opts}
}

func (c *Controller) State() *State { return c.state }

// Dispatch 处理单个事件并返回命令序列
func (c *Controller) Dispatch(ev Event) []Command {
	switch e := ev.(type) {
	case Connected:
		c.state.stackingBugs = stackingBugs(e.UserAgent)
		return []Command{Init{
			MaxBounds: c.opts.MaxBounds,
			MinZoom:   c.opts.MinZoom,
			MaxZoom:   c.opts.MaxZoom,
			ZoomSnap:  c.opts.ZoomSnap,
			Center:    c.opts.Center,
			Zoom:      c.opts.Zoom,
		}}
	case ZoomChanged:
		c.state.zoom = e.Zoom
		return c.show(Band(e.Zoom, c.opts.CommunesEnabled), "zoom")
	case FeatureClicked:
		return c.click(e.Ref)
	case FeatureHovered:
		return c.hover(e.Ref)
	case FeatureUnhovered:
		return c.unhover(e.Ref)
	case HomePressed:
		c.state.zoom = c.opts.Zoom
		cmds := []Command{SetView{Center: c.opts.Center, Zoom: c.opts.Zoom}}
		cmds = append(cmds, c.show(geo.Region, "home")...)
		return append(cmds, c.clearHover()...)
	case LayerLoaded:
		return c.layerLoaded(e.Layer)
	case TablesChanged:
		return c.restyleJoined()
	}
	logger.L().Debug("mapview_event_ignored", "event", ev.EventName())
	return nil
}

// 文档注释：切换到目标图层
// 约束：先隐藏其余可见图层，再显示目标；已处于所需状态的图层不产生命令。
// 目标图层未加载时不显示任何图层，待 LayerLoaded 后补显示。
// 高亮要素所在图层被隐藏时一并复原高亮。
func (c *Controller) show(target geo.Kind, trigger string) []Command {
	c.state.target = target
	var cmds []Command
	hidHighlighted := false
	for _, k := range geo.Kinds {
		if k == target || !c.state.Visible(k) {
			continue
		}
		c.state.layers[k].visible = false
		cmds = append(cmds, HideLayer{Layer: k})
		if ref, ok := c.state.Highlighted(); ok && ref.Layer == k {
			hidHighlighted = true
		}
	}
	if c.state.Loaded(target) && !c.state.Visible(target) {
		c.state.layers[target].visible = true
		cmds = append(cmds, ShowLayer{Layer: target})
		metrics.LayerTransitionsTotal.WithLabelValues(trigger, target.String()).Inc()
		logger.L().Debug("layer_transition", "trigger", trigger, "layer", target.String(), "zoom", c.state.zoom)
	}
	if hidHighlighted {
		cmds = append(cmds, c.clearHover()...)
	}
	return cmds
}

func (c *Controller) click(ref Ref) []Command {
	if !c.state.Visible(ref.Layer) {
		return nil
	}
	f := c.state.feature(ref)
	if f == nil {
		return nil
	}
	switch ref.Layer {
	case geo.Region, geo.Department:
		finer, _ := ref.Layer.Finer()
		minZ, maxZ := flyZoomRange(ref.Layer)
		ls := c.state.layers[ref.Layer]
		cmds := []Command{
			RestyleLayer{Layer: ref.Layer, Styles: append([]join.Style(nil), ls.original...)},
			FlyToBounds{Bounds: boundsOf(f.Bound), MinZoom: minZ, MaxZoom: maxZ},
		}
		cmds = append(cmds, c.show(finer, "click")...)
		return append(cmds, c.clearHover()...)
	}
	return []Command{OpenPopup{Ref: ref, Popup: c.resolver.Popup(ref.Layer, f)}}
}

func (c *Controller) layerLoaded(l *geo.Layer) []Command {
	if l == nil {
		return nil
	}
	if l.Kind == geo.Commune && !c.opts.CommunesEnabled {
		return nil
	}
	var cmds []Command
	if ref, ok := c.state.Highlighted(); ok && ref.Layer == l.Kind {
		// 下标可能随新图层变化，旧引用直接作废
		c.state.highlighted = nil
	}
	ls := c.state.layer(l.Kind)
	ls.layer = l
	ls.original = c.styles(l)
	url := ""
	if c.opts.LayerURL != nil {
		url = c.opts.LayerURL(l.Kind)
	}
	cmds = append(cmds, LayerReady{Layer: l.Kind, URL: url, Count: l.Len()})
	if ls.visible {
		return append(cmds, RestyleLayer{Layer: l.Kind, Styles: append([]join.Style(nil), ls.original...)})
	}
	if l.Kind == c.state.target {
		return append(cmds, c.show(c.state.target, "load")...)
	}
	return cmds
}

// restyleJoined 在连接表更新后重算选区与市镇的缓存样式；当前高亮要素保持高亮
func (c *Controller) restyleJoined() []Command {
	var cmds []Command
	for _, k := range []geo.Kind{geo.Circonscription, geo.Commune} {
		if !c.state.Loaded(k) {
			continue
		}
		ls := c.state.layers[k]
		ls.original = c.styles(ls.layer)
		cmds = append(cmds, RestyleLayer{Layer: k, Styles: append([]join.Style(nil), ls.original...)})
		if ref, ok := c.state.Highlighted(); ok && ref.Layer == k {
			if st, found := c.state.Original(ref); found {
				cmds = append(cmds, SetStyle{Ref: ref, Style: Highlight(st)})
			}
		}
	}
	return cmds
}

func (c *Controller) styles(l *geo.Layer) []join.Style {
	out := make([]join.Style, l.Len())
	for i, f := range l.Features {
		out[i] = c.resolver.Style(l.Kind, f)
	}
	return out
}
