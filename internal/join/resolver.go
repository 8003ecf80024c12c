// 包 join：要素与表格记录的连接，产出要素样式与信息浮层
package join

import (
	"carte-elus/internal/geo"
	"carte-elus/internal/metrics"
	"carte-elus/internal/tables"
)

// TableSource 提供当前已加载的表格快照；尚未加载时可返回 nil
type TableSource interface {
	Tables() *tables.Tables
}

// 文档注释：要素连接解析器
// 背景：每次调用都从 TableSource 读取最新快照，不缓存；表格晚于几何加载完成时，下一次交互即可得到正确结果。
// 约束：任何缺失（属性、表格、记录）都返回未命中，不 panic、不返回 error。
type Resolver struct {
	src         TableSource
	profileBase string
}

func NewResolver(src TableSource, profileBase string) *Resolver {
	return &Resolver{src: src, profileBase: profileBase}
}

func (r *Resolver) tables() *tables.Tables {
	if r == nil || r.src == nil {
		return nil
	}
	return r.src.Tables()
}

// Key 返回要素在对应表格中的连接键；无连接表的图层返回要素编码
func Key(kind geo.Kind, f *geo.Feature) string {
	if f == nil {
		return ""
	}
	switch kind {
	case geo.Circonscription:
		return f.Props.CircoKey()
	case geo.Commune:
		return f.Props.Commune
	}
	return f.Props.Code
}

// Deputy 解析选区要素对应的议员
func (r *Resolver) Deputy(f *geo.Feature) (tables.Deputy, bool) {
	key := Key(geo.Circonscription, f)
	if key == "" {
		metrics.JoinMissesTotal.WithLabelValues(geo.Circonscription.String()).Inc()
		return tables.Deputy{}, false
	}
	d, ok := r.tables().Deputy(key)
	if !ok {
		metrics.JoinMissesTotal.WithLabelValues(geo.Circonscription.String()).Inc()
	}
	return d, ok
}

// Mayor 解析市镇要素对应的市长（派别已合并）
func (r *Resolver) Mayor(f *geo.Feature) (tables.Mayor, bool) {
	key := Key(geo.Commune, f)
	if key == "" {
		metrics.JoinMissesTotal.WithLabelValues(geo.Commune.String()).Inc()
		return tables.Mayor{}, false
	}
	m, ok := r.tables().Mayor(key)
	if !ok {
		metrics.JoinMissesTotal.WithLabelValues(geo.Commune.String()).Inc()
	}
	return m, ok
}

// 文档注释：要素基础样式
// 背景：选区按议员党团着色，市镇按市长派别着色；无记录时为未分类色而非错误。
// 约束：返回值即要素的"原始样式"，高亮复原时使用创建时缓存的这份值。
func (r *Resolver) Style(kind geo.Kind, f *geo.Feature) Style {
	switch kind {
	case geo.Region:
		return regionStyle
	case geo.Department:
		return departmentStyle
	case geo.Circonscription:
		s := circoStyle
		if d, ok := r.Deputy(f); ok && d.GroupAbbrev != "" {
			s.FillColor = GroupColor(d.GroupAbbrev)
		}
		return s
	case geo.Commune:
		s := communeStyle
		if m, ok := r.Mayor(f); ok {
			s.FillColor = FamilyColor(m.Politics.Family)
		}
		return s
	}
	return regionStyle
}
