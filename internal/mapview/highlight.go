package mapview

import (
	"strings"

	"carte-elus/internal/join"
)

// 悬停高亮：加粗描边、降低填充不透明度，颜色保持要素自身的着色
const (
	highlightWeight      = 3
	highlightFillOpacity = 0.5
)

// Highlight 基于要素缓存的原始样式生成高亮样式
func Highlight(original join.Style) join.Style {
	s := original
	s.Weight = highlightWeight
	s.FillOpacity = highlightFillOpacity
	return s
}

// 文档注释：判断渲染引擎是否存在置顶（bringToFront）缺陷
// 背景：旧版 IE、EdgeHTML 与 Presto 内核的 Opera 在置顶后会丢失后续的鼠标事件，
// 这些引擎上只改样式不置顶。
func stackingBugs(userAgent string) bool {
	ua := userAgent
	switch {
	case strings.Contains(ua, "MSIE ") || strings.Contains(ua, "Trident/"):
		return true
	case strings.Contains(ua, "Edge/"):
		return true
	case strings.Contains(ua, "Presto/"):
		return true
	}
	return false
}

// clearHover 复原当前高亮要素并清空高亮引用
func (c *Controller) clearHover() []Command {
	ref, ok := c.state.Highlighted()
	if !ok {
		return nil
	}
	c.state.highlighted = nil
	st, found := c.state.Original(ref)
	if !found {
		return nil
	}
	return []Command{SetStyle{Ref: ref, Style: st}}
}

func (c *Controller) hover(ref Ref) []Command {
	if !c.state.Visible(ref.Layer) {
		return nil
	}
	original, ok := c.state.Original(ref)
	if !ok {
		return nil
	}
	if cur, has := c.state.Highlighted(); has && cur == ref {
		return nil
	}
	cmds := c.clearHover()
	cmds = append(cmds, SetStyle{Ref: ref, Style: Highlight(original)})
	if !c.state.stackingBugs {
		cmds = append(cmds, BringToFront{Ref: ref})
	}
	r := ref
	c.state.highlighted = &r
	return cmds
}

func (c *Controller) unhover(ref Ref) []Command {
	original, ok := c.state.Original(ref)
	if !ok {
		return nil
	}
	if cur, has := c.state.Highlighted(); has && cur == ref {
		c.state.highlighted = nil
	}
	return []Command{SetStyle{Ref: ref, Style: original}}
}
