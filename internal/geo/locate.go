package geo

import (
	"time"

	geohash "github.com/TomiHiltunen/geohash-golang"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
)

// 文档注释：点落区查询（包围盒候选 → 平面点落区判定）
// 背景：用于"我在哪个选区"定位；坐标统一为 WGS84 经纬度。
// 约束：仅对构造时传入的图层有效；缓存键为 8 位 geohash（约 20 米），命中后仍校验要素包含该点。
type Locator struct {
	layer *Layer
	cache *LRU
}

const locateHashPrecision = 8

func NewLocator(layer *Layer, cacheSize int, ttl time.Duration) *Locator {
	return &Locator{layer: layer, cache: NewLRU(cacheSize, ttl)}
}

// Layer 返回定位器绑定的图层
func (l *Locator) Layer() *Layer { return l.layer }

// CellKey 返回坐标所在的缓存格（与进程内缓存同精度）
func CellKey(lat, lon float64) string {
	return geohash.EncodeWithPrecision(lat, lon, locateHashPrecision)
}

// Contains 判断要素几何是否包含该点（先比对包围盒）
func (f *Feature) Contains(lat, lon float64) bool {
	if f == nil {
		return false
	}
	pt := orb.Point{lon, lat}
	return f.Bound.Contains(pt) && contains(f.Geometry, pt)
}

// Locate 返回包含该点的要素；图层为空或点落在所有要素之外时返回 false
func (l *Locator) Locate(lat, lon float64) (*Feature, bool) {
	if l == nil || l.layer.Len() == 0 {
		return nil, false
	}
	key := CellKey(lat, lon)
	// 同一格可能跨越选区边界
	if idx, ok := l.cache.Get(key); ok {
		if f := l.layer.Feature(idx); f.Contains(lat, lon) {
			return f, true
		}
	}
	for _, f := range l.layer.Features {
		if f.Contains(lat, lon) {
			l.cache.Set(key, f.Index)
			return f, true
		}
	}
	return nil, false
}

func contains(g orb.Geometry, pt orb.Point) bool {
	switch x := g.(type) {
	case orb.Polygon:
		return planar.PolygonContains(x, pt)
	case orb.MultiPolygon:
		return planar.MultiPolygonContains(x, pt)
	}
	return false
}
