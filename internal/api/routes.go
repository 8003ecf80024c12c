// 包 api：集中注册 HTTP API 路由（图层几何、区域信息、定位、状态、地图会话）
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/redis/go-redis/v9"

	"carte-elus/internal/atlas"
	"carte-elus/internal/geo"
	"carte-elus/internal/join"
	"carte-elus/internal/tables"
)

// Data 为路由读取的数据持有者（*atlas.Atlas 实现）
type Data interface {
	Tables() *tables.Tables
	Layer(k geo.Kind) *geo.Layer
	Locator() *geo.Locator
	Status() atlas.Status
}

// Deps 为路由依赖；Redis、IPLocator、Session 均可为 nil
type Deps struct {
	Data      Data
	Resolver  *join.Resolver
	Redis     *redis.Client
	IPLocator *geo.IPLocator
	CacheTTL  time.Duration
	Session   http.Handler
}

// 构建并返回 API 路由：独立 ServeMux 便于在主入口挂载到 API_BASE 前缀
func BuildRoutes(d Deps) *http.ServeMux {
	mux := http.NewServeMux()
	lc := &layerCache{}
	mux.HandleFunc("GET /layers/{kind}", func(w http.ResponseWriter, r *http.Request) {
		serveLayer(w, r, d, lc)
	})
	mux.HandleFunc("GET /zones/{kind}/{idx}", func(w http.ResponseWriter, r *http.Request) {
		serveZone(w, r, d)
	})
	mux.HandleFunc("GET /locate", func(w http.ResponseWriter, r *http.Request) {
		serveLocate(w, r, d)
	})
	mux.HandleFunc("GET /status", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, d.Data.Status())
	})
	if d.Session != nil {
		mux.Handle("GET /ws", d.Session)
	}
	return mux
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("content-type", "application/json; charset=utf-8")
	w.Header().Set("cache-control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

type apiError struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, apiError{Error: msg})
}
