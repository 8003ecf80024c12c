package geo

import (
	"fmt"

	"github.com/paulmach/orb/geojson"

	"carte-elus/internal/normalize"
)

// 文档注释：要素属性的显式模式
// 背景：各来源 GeoJSON 的属性命名不统一（2012 版选区用 code_dpt/num_circ，其他导出用 dep/circo）；
// 在加载时按固定优先级读取一次并规范化，业务代码只访问这些字段。
// 约束：优先级见下方 *Keys 列表，首个存在且非空的键生效；缺失时字段为空串，连接按"无数据"处理。
type Props struct {
	Code    string `json:"code,omitempty"`
	Name    string `json:"name,omitempty"`
	Dept    string `json:"dept,omitempty"`
	Circo   string `json:"circo,omitempty"`
	Commune string `json:"commune,omitempty"`
}

var (
	deptKeys    = []string{"code_dpt", "dep", "code_dept", "departement", "code_departement"}
	circoKeys   = []string{"num_circ", "circo", "num_circo", "circonscription"}
	codeKeys    = []string{"code", "code_insee", "insee", "INSEE_COM", "id"}
	communeKeys = []string{"code_insee", "insee", "INSEE_COM", "code", "codgeo"}
	nameKeys    = []string{"nom", "name", "libelle", "nom_dpt", "nom_reg", "NOM_COM"}
)

// First 按优先级返回首个存在且非空的属性值
func First(p geojson.Properties, keys ...string) (any, bool) {
	for _, k := range keys {
		v, ok := p[k]
		if !ok || v == nil {
			continue
		}
		if s, isStr := v.(string); isStr && s == "" {
			continue
		}
		return v, true
	}
	return nil, false
}

func firstText(p geojson.Properties, keys ...string) string {
	v, ok := First(p, keys...)
	if !ok {
		return ""
	}
	switch x := v.(type) {
	case string:
		return x
	case float64:
		if x == float64(int64(x)) {
			return fmt.Sprintf("%d", int64(x))
		}
		return fmt.Sprintf("%g", x)
	}
	return fmt.Sprint(v)
}

// ReadProps 从原始属性构造规范化属性
func ReadProps(p geojson.Properties) Props {
	var out Props
	out.Code = firstText(p, codeKeys...)
	out.Name = firstText(p, nameKeys...)
	if v, ok := First(p, deptKeys...); ok {
		out.Dept = normalize.DeptCode(v)
	}
	if v, ok := First(p, circoKeys...); ok {
		out.Circo = normalize.CircoNumber(v)
	}
	if v, ok := First(p, communeKeys...); ok {
		out.Commune = normalize.CommuneCode(v)
	}
	return out
}

// CircoKey 返回选区连接键；省份或编号缺失时返回空串
func (p Props) CircoKey() string {
	if p.Dept == "" || p.Circo == "" {
		return ""
	}
	return p.Dept + "-" + p.Circo
}
