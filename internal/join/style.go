package join

import (
	"strings"

	"carte-elus/internal/normalize"
)

// 文档注释：面要素样式（与前端渲染库的路径样式字段一一对应）
type Style struct {
	Color       string  `json:"color"`
	Weight      float64 `json:"weight"`
	Opacity     float64 `json:"opacity"`
	FillColor   string  `json:"fillColor"`
	FillOpacity float64 `json:"fillOpacity"`
}

// UnclassifiedColor 用于无数据、未知派别与未分类市镇
const UnclassifiedColor = "#B0BEC5"

var (
	regionStyle     = Style{Color: "#3388ff", Weight: 2, Opacity: 0.7, FillColor: "#3388ff", FillOpacity: 0.2}
	departmentStyle = Style{Color: "#34a853", Weight: 2, Opacity: 0.7, FillColor: "#34a853", FillOpacity: 0.2}
	circoStyle      = Style{Color: "#333333", Weight: 1, Opacity: 0.7, FillColor: UnclassifiedColor, FillOpacity: 0.7}
	communeStyle    = Style{Color: "#555555", Weight: 0.5, Opacity: 0.6, FillColor: UnclassifiedColor, FillOpacity: 0.7}
)

var groupColors = map[string]string{
	"RN":   "#0055A4",
	"LFI":  "#D32F2F",
	"SOC":  "#F06292",
	"ECOS": "#4CAF50",
	"HOR":  "#FF9800",
	"DEM":  "#FFEB3B",
	"DR":   "#1A237E",
	"EPR":  "#6D4C41",
	"GDR":  "#C62828",
	"LIOT": "#8D6E63",
	"NI":   "#90A4AE",
	"UDR":  "#64B5F6",
}

// 派别大类以 Slug 形式为键，避免大小写与音调差异
var familyColors = map[string]string{
	"extreme-gauche": "#8E0000",
	"gauche":         "#E53935",
	"centre":         "#FFB300",
	"droite":         "#1E88E5",
	"extreme-droite": "#0D1B4C",
	"divers":         "#9E9E9E",
}

// GroupColor 返回议会党团颜色；"-NFP" 后缀忽略，未知或空党团为未分类色
func GroupColor(abbrev string) string {
	abbrev = strings.TrimSpace(strings.Replace(abbrev, "-NFP", "", 1))
	if c, ok := groupColors[abbrev]; ok {
		return c
	}
	return UnclassifiedColor
}

// FamilyColor 返回市镇派别大类颜色，"Non classé" 与未知大类为未分类色
func FamilyColor(family string) string {
	if c, ok := familyColors[normalize.Slug(family, normalize.SlugOptions{})]; ok {
		return c
	}
	return UnclassifiedColor
}
