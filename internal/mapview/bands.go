package mapview

import "carte-elus/internal/geo"

// 缩放分带边界（左开右闭）：z≤6 大区；6<z≤8 省；8<z≤9 选区；z>9 市镇（未启用时仍为选区）
const (
	RegionMaxZoom     = 6.0
	DepartmentMaxZoom = 8.0
	CircoMaxZoom      = 9.0
)

// 点击下钻时的视口缩放范围；最小值取目标分带内首个 0.5 吸附值，保证随后的 zoomend 落在同一分带
const (
	regionFlyMinZoom     = 6.5
	regionFlyMaxZoom     = 8.0
	departmentFlyMinZoom = 8.5
	departmentFlyMaxZoom = 9.0
)

// Band 返回缩放级别对应的目标图层
func Band(zoom float64, communes bool) geo.Kind {
	switch {
	case zoom <= RegionMaxZoom:
		return geo.Region
	case zoom <= DepartmentMaxZoom:
		return geo.Department
	case zoom <= CircoMaxZoom || !communes:
		return geo.Circonscription
	}
	return geo.Commune
}

func flyZoomRange(from geo.Kind) (min, max float64) {
	if from == geo.Region {
		return regionFlyMinZoom, regionFlyMaxZoom
	}
	return departmentFlyMinZoom, departmentFlyMaxZoom
}
