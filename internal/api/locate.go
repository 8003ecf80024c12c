package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"carte-elus/internal/geo"
	"carte-elus/internal/join"
	"carte-elus/internal/logger"
	"carte-elus/internal/metrics"
)

// 文档注释：定位结果
// 约束：Found=false 时 Popup 为空；Source 为 coords 或 ip；Lat/Lon 始终为本次请求的坐标。
type LocateResult struct {
	Lat    float64     `json:"lat"`
	Lon    float64     `json:"lon"`
	Source string      `json:"source"`
	Found  bool        `json:"found"`
	Index  int         `json:"index,omitempty"`
	Key    string      `json:"key,omitempty"`
	Popup  *join.Popup `json:"popup,omitempty"`
}

// 文档注释：坐标 → 所在选区与议员信息
// 背景：Redis 只缓存 geohash 格 → 要素下标，命中后仍校验要素包含该点；弹窗每次按当前表格解析，
// 表格晚到或周期刷新后下一次请求即可看到新记录。
// 约束：未命中任何选区的结果不写缓存；Redis 不可用时直接计算。
// 返回：选区图层尚未加载时返回 error，调用方以 503 响应。
func Locate(ctx context.Context, d Deps, lat, lon float64) (*LocateResult, error) {
	begin := time.Now()
	defer func() { metrics.LocateDurationMs.Observe(float64(time.Since(begin).Milliseconds())) }()

	loc := d.Data.Locator()
	if loc == nil {
		return nil, errLayerNotLoaded
	}
	key := "locate:" + geo.CellKey(lat, lon)
	f, outcome := cachedFeature(ctx, d, loc.Layer(), key, lat, lon)
	if f == nil {
		var ok bool
		if f, ok = loc.Locate(lat, lon); ok {
			outcome = "found"
			if d.Redis != nil {
				ttl := d.CacheTTL
				if ttl <= 0 {
					ttl = time.Hour
				}
				_ = d.Redis.Set(ctx, key, strconv.Itoa(f.Index), ttl).Err()
			}
		} else {
			outcome = "outside"
		}
	}
	metrics.LocateRequestsTotal.WithLabelValues(outcome).Inc()

	out := &LocateResult{Lat: lat, Lon: lon}
	if f != nil {
		p := d.Resolver.Popup(geo.Circonscription, f)
		out.Found = true
		out.Index = f.Index
		out.Key = p.Key
		out.Popup = &p
	}
	logger.L().Debug("locate", "lat", lat, "lon", lon, "found", out.Found, "key", out.Key, "outcome", outcome)
	return out, nil
}

// cachedFeature 读取 Redis 中的要素下标；下标越界或要素不含该点时视为未命中
func cachedFeature(ctx context.Context, d Deps, layer *geo.Layer, key string, lat, lon float64) (*geo.Feature, string) {
	if d.Redis == nil {
		return nil, ""
	}
	s, err := d.Redis.Get(ctx, key).Result()
	if err != nil {
		return nil, ""
	}
	idx, err := strconv.Atoi(s)
	if err != nil {
		return nil, ""
	}
	f := layer.Feature(idx)
	if !f.Contains(lat, lon) {
		return nil, ""
	}
	return f, "cache_hit"
}

type locateError string

func (e locateError) Error() string { return string(e) }

const errLayerNotLoaded = locateError("circonscription layer not loaded")

func serveLocate(w http.ResponseWriter, r *http.Request, d Deps) {
	q := r.URL.Query()
	var lat, lon float64
	source := "coords"
	if q.Get("lat") != "" || q.Get("lon") != "" {
		var err1, err2 error
		lat, err1 = strconv.ParseFloat(q.Get("lat"), 64)
		lon, err2 = strconv.ParseFloat(q.Get("lon"), 64)
		if err1 != nil || err2 != nil || lat < -90 || lat > 90 || lon < -180 || lon > 180 {
			metrics.LocateRequestsTotal.WithLabelValues("bad_request").Inc()
			writeError(w, http.StatusBadRequest, "bad coordinates")
			return
		}
	} else {
		source = "ip"
		ip := getClientIP(r)
		var ok bool
		lat, lon, ok = d.IPLocator.Coordinates(ip)
		if !ok {
			metrics.LocateRequestsTotal.WithLabelValues("ip_unknown").Inc()
			writeError(w, http.StatusNotFound, "no location for client address")
			return
		}
	}
	res, err := Locate(r.Context(), d, lat, lon)
	if err != nil {
		metrics.LocateRequestsTotal.WithLabelValues("unavailable").Inc()
		writeError(w, http.StatusServiceUnavailable, err.Error())
		return
	}
	out := *res
	out.Source = source
	writeJSON(w, http.StatusOK, out)
}
