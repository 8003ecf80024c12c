package api

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/redis/go-redis/v9"

	"carte-elus/internal/atlas"
	"carte-elus/internal/geo"
	"carte-elus/internal/join"
	"carte-elus/internal/tables"
)

const cellLat = 44.7

// 两个相邻选区，分界经线两侧紧邻的点落在同一 geohash 格内
func splitCircos(t *testing.T) (*geo.Layer, float64) {
	t.Helper()
	b := 4.3
	for geo.CellKey(cellLat, b-1e-6) != geo.CellKey(cellLat, b+1e-6) {
		b += 1e-5
	}
	zone := func(idx int, num string, poly orb.Polygon) *geo.Feature {
		raw := geojson.Properties{"code_dpt": "07", "num_circ": num}
		return &geo.Feature{Index: idx, Geometry: poly, Bound: poly.Bound(), Props: geo.ReadProps(raw), Raw: raw}
	}
	west := orb.Polygon{orb.Ring{{4.0, 44.5}, {b, 44.5}, {b, 45.0}, {4.0, 45.0}, {4.0, 44.5}}}
	east := orb.Polygon{orb.Ring{{b, 44.5}, {4.6, 44.5}, {4.6, 45.0}, {b, 45.0}, {b, 44.5}}}
	return &geo.Layer{Kind: geo.Circonscription, Features: []*geo.Feature{
		zone(0, "1", west),
		zone(1, "2", east),
	}}, b
}

func newRedisDeps(t *testing.T, ttl time.Duration) (Deps, *atlas.Atlas, *miniredis.Miniredis, float64) {
	t.Helper()
	mr := miniredis.RunT(t)
	rc := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rc.Close() })

	a := atlas.New(16, time.Minute)
	layer, b := splitCircos(t)
	a.SetLayer(layer)
	d := Deps{Data: a, Resolver: join.NewResolver(a, "https://datan.fr/deputes"), Redis: rc, CacheTTL: ttl}
	return d, a, mr, b
}

func TestLocateTablesLoadedAfterCachedLookup(t *testing.T) {
	d, a, mr, _ := newRedisDeps(t, 10*time.Minute)
	ctx := context.Background()
	key := "locate:" + geo.CellKey(cellLat, 4.1)

	res, err := Locate(ctx, d, cellLat, 4.1)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Found || res.Popup.Found || res.Popup.Fallback != join.NoCircoInfo {
		t.Fatalf("before deputies: %+v popup=%+v", res, res.Popup)
	}
	if got, err := mr.Get(key); err != nil || got != "0" {
		t.Fatalf("cached value = %q, %v; want feature index 0", got, err)
	}
	if ttl := mr.TTL(key); ttl != 10*time.Minute {
		t.Errorf("ttl = %v", ttl)
	}

	a.SetDeputies(map[string]tables.Deputy{
		"7-1": {DeptCode: "7", DeptName: "Ardèche", Circo: "1", FirstName: "Hervé", LastName: "Saulignac", GroupAbbrev: "SOC-NFP"},
	})
	res, err = Locate(ctx, d, cellLat, 4.1)
	if err != nil {
		t.Fatal(err)
	}
	if !res.Popup.Found || res.Popup.Title != "Hervé Saulignac" {
		t.Errorf("after deputies loaded: popup = %+v", res.Popup)
	}
}

func TestLocateSameCellDifferentCircos(t *testing.T) {
	d, _, _, b := newRedisDeps(t, time.Minute)
	ctx := context.Background()

	west, err := Locate(ctx, d, cellLat, b-1e-6)
	if err != nil {
		t.Fatal(err)
	}
	east, err := Locate(ctx, d, cellLat, b+1e-6)
	if err != nil {
		t.Fatal(err)
	}
	if west.Key != "7-1" || east.Key != "7-2" {
		t.Errorf("keys = %q, %q", west.Key, east.Key)
	}
	if east.Lat != cellLat || east.Lon != b+1e-6 {
		t.Errorf("coordinates echoed = %v,%v; want the request's", east.Lat, east.Lon)
	}
}

func TestLocateCacheEntries(t *testing.T) {
	d, _, mr, _ := newRedisDeps(t, 0)
	ctx := context.Background()

	// 落在所有选区之外：不写缓存
	res, err := Locate(ctx, d, 48.85, 2.35)
	if err != nil {
		t.Fatal(err)
	}
	if res.Found || mr.Exists("locate:"+geo.CellKey(48.85, 2.35)) {
		t.Errorf("miss was cached: %+v", res)
	}

	// 缓存值无效或越界时回退到几何计算
	key := "locate:" + geo.CellKey(cellLat, 4.5)
	for _, bad := range []string{"x", "9", "0"} {
		mr.Set(key, bad)
		res, err := Locate(ctx, d, cellLat, 4.5)
		if err != nil {
			t.Fatal(err)
		}
		if !res.Found || res.Key != "7-2" {
			t.Errorf("cached %q: %+v", bad, res)
		}
		if got, _ := mr.Get(key); got != "1" {
			t.Errorf("cached %q not rewritten: %q", bad, got)
		}
	}
	if ttl := mr.TTL(key); ttl != time.Hour {
		t.Errorf("default ttl = %v", ttl)
	}
}
