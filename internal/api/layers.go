package api

import (
	"net/http"
	"strconv"
	"sync"

	"github.com/paulmach/orb/geojson"

	"carte-elus/internal/geo"
	"carte-elus/internal/join"
	"carte-elus/internal/tables"
)

type encodedLayer struct {
	layer  *geo.Layer
	tables *tables.Tables
	body   []byte
}

// 文档注释：图层 GeoJSON 编码缓存
// 背景：市镇图层编码开销大；图层或表格快照变化（指针不同）时才重新编码。
type layerCache struct {
	mu      sync.Mutex
	entries map[geo.Kind]encodedLayer
}

func (c *layerCache) get(k geo.Kind, l *geo.Layer, t *tables.Tables) ([]byte, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[k]
	if !ok || e.layer != l || e.tables != t {
		return nil, false
	}
	return e.body, true
}

func (c *layerCache) put(k geo.Kind, l *geo.Layer, t *tables.Tables, body []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.entries == nil {
		c.entries = make(map[geo.Kind]encodedLayer)
	}
	c.entries[k] = encodedLayer{layer: l, tables: t, body: body}
}

// 文档注释：把图层编码为 GeoJSON FeatureCollection
// 约束：每个要素附加 idx（会话事件中的要素下标）、key（连接键）与 style（当前样式）；原始属性原样保留。
func EncodeLayer(l *geo.Layer, r *join.Resolver) ([]byte, error) {
	fc := geojson.NewFeatureCollection()
	for _, f := range l.Features {
		out := geojson.NewFeature(f.Geometry)
		props := make(geojson.Properties, len(f.Raw)+3)
		for k, v := range f.Raw {
			props[k] = v
		}
		props["idx"] = f.Index
		props["key"] = join.Key(l.Kind, f)
		props["style"] = r.Style(l.Kind, f)
		out.Properties = props
		fc.Append(out)
	}
	return fc.MarshalJSON()
}

func serveLayer(w http.ResponseWriter, r *http.Request, d Deps, lc *layerCache) {
	kind, err := geo.ParseKind(r.PathValue("kind"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	l := d.Data.Layer(kind)
	if l == nil {
		writeError(w, http.StatusNotFound, "layer not loaded")
		return
	}
	t := d.Data.Tables()
	body, ok := lc.get(kind, l, t)
	if !ok {
		body, err = EncodeLayer(l, d.Resolver)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err.Error())
			return
		}
		lc.put(kind, l, t, body)
	}
	w.Header().Set("content-type", "application/geo+json")
	w.Header().Set("cache-control", "no-cache")
	_, _ = w.Write(body)
}

func serveZone(w http.ResponseWriter, r *http.Request, d Deps) {
	kind, err := geo.ParseKind(r.PathValue("kind"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	idx, err := strconv.Atoi(r.PathValue("idx"))
	if err != nil {
		writeError(w, http.StatusBadRequest, "bad feature index")
		return
	}
	f := d.Data.Layer(kind).Feature(idx)
	if f == nil {
		writeError(w, http.StatusNotFound, "feature not found")
		return
	}
	writeJSON(w, http.StatusOK, d.Resolver.Popup(kind, f))
}
