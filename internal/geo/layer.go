package geo

import (
	"context"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"carte-elus/internal/fetch"
	"carte-elus/internal/logger"
)

// 文档注释：单个面要素
// 约束：Index 为要素在图层内的下标，作为会话事件中的要素标识；Geometry 仅保留 Polygon/MultiPolygon。
type Feature struct {
	Index    int
	Geometry orb.Geometry
	Bound    orb.Bound
	Props    Props
	Raw      geojson.Properties
}

// Layer 为一个粒度的全部面要素；加载后只读
type Layer struct {
	Kind     Kind
	Source   string
	Features []*Feature
}

// Feature 按下标取要素，越界返回 nil
func (l *Layer) Feature(idx int) *Feature {
	if l == nil || idx < 0 || idx >= len(l.Features) {
		return nil
	}
	return l.Features[idx]
}

// Len 返回要素数量，nil 图层为 0
func (l *Layer) Len() int {
	if l == nil {
		return 0
	}
	return len(l.Features)
}

// Bound 返回整个图层的包围盒
func (l *Layer) Bound() orb.Bound {
	var b orb.Bound
	for i, f := range l.Features {
		if i == 0 {
			b = f.Bound
			continue
		}
		b = b.Union(f.Bound)
	}
	return b
}

// 文档注释：解析 GeoJSON FeatureCollection 为图层
// 背景：非面几何（点、线）与空几何直接忽略；属性按 ReadProps 的优先级规范化。
func ParseLayer(kind Kind, source string, data []byte) (*Layer, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, fetch.NewLoadError("parse", source, err)
	}
	l := &Layer{Kind: kind, Source: source}
	skipped := 0
	for _, f := range fc.Features {
		if f == nil || f.Geometry == nil {
			skipped++
			continue
		}
		switch f.Geometry.(type) {
		case orb.Polygon, orb.MultiPolygon:
		default:
			skipped++
			continue
		}
		l.Features = append(l.Features, &Feature{
			Index:    len(l.Features),
			Geometry: f.Geometry,
			Bound:    f.Geometry.Bound(),
			Props:    ReadProps(f.Properties),
			Raw:      f.Properties,
		})
	}
	if skipped > 0 {
		logger.L().Debug("layer_features_skipped", "kind", kind.String(), "skipped", skipped)
	}
	return l, nil
}

// LoadLayer 拉取并解析一个图层
func LoadLayer(ctx context.Context, kind Kind, src string) (*Layer, error) {
	b, err := fetch.ReadAll(ctx, src)
	if err != nil {
		return nil, err
	}
	return ParseLayer(kind, src, b)
}
