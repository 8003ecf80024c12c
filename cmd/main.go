// 程序入口：仅负责读取配置、初始化依赖并启动服务；API 注册在 internal/api 以便扩展
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"carte-elus/internal/api"
	"carte-elus/internal/atlas"
	"carte-elus/internal/config"
	"carte-elus/internal/geo"
	"carte-elus/internal/ingest"
	"carte-elus/internal/join"
	"carte-elus/internal/logger"
	"carte-elus/internal/mapview"
	"carte-elus/internal/metrics"
	"carte-elus/internal/middleware"
	"carte-elus/internal/migrate"
	"carte-elus/internal/session"
	"carte-elus/internal/store"
	"carte-elus/internal/utils"
)

// 由 -ldflags "-X main.commit=..." 注入
var commit = "dev"

// 点落区缓存条目数（按 geohash 去重后的坐标）
const locateCacheSize = 4096

func main() {
	cfg := config.Load()
	l := logger.Setup()
	l.Debug("log_init_ok")
	l.Debug("config_loaded", "api_base", cfg.APIBase, "ui", cfg.UIDist, "table_source", cfg.TableSource, "communes", cfg.CommunesEnabled())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a := atlas.New(locateCacheSize, cfg.LocateCacheTTL)

	// 背景：表格来源为数据库时，先确保表结构存在，空库时执行一次导入
	var tableStore atlas.TableStore
	var st *store.Store
	if cfg.TableSource == config.TableSourcePostgres {
		db, err := utils.OpenPostgres(cfg.Postgres)
		if err != nil {
			l.Error("db_open_error", "err", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.PingContext(ctx); err != nil {
			l.Error("db_ping_error", "err", err)
		} else {
			l.Info("db_ping_ok")
		}
		if err := migrate.EnsureSchema(ctx, db); err != nil {
			l.Error("schema_error", "err", err)
			os.Exit(1)
		}
		st = store.AttachDB(db)
		if err := ingest.EnsureInitialized(ctx, st, cfg.Sources); err != nil {
			l.Error("ingest_init_error", "err", err)
		}
		tableStore = st
	}

	rc := utils.OpenRedis(cfg.Redis)
	if rc == nil {
		l.Info("redis_disabled")
	} else if err := rc.Ping(ctx).Err(); err != nil {
		l.Error("redis_ping_error", "err", err)
		rc = nil
	} else {
		l.Info("redis_ping_ok")
		defer rc.Close()
	}

	ipl, err := geo.OpenIPLocator(cfg.GeoIPDB)
	if err != nil {
		l.Info("geoip_disabled", "path", cfg.GeoIPDB, "err", err)
	} else {
		l.Info("geoip_ready", "path", cfg.GeoIPDB)
		defer ipl.Close()
	}

	// 各数据源后台加载，完成顺序任意；会话在加载完成时收到通知
	a.Start(ctx, cfg.Sources, tableStore)
	ingest.StartWeekly(ctx, "tables", cfg.RefreshHour, func(ctx context.Context) error {
		if st != nil {
			if _, err := ingest.FetchAndImport(ctx, st, cfg.Sources); err != nil {
				return err
			}
		}
		return a.ReloadTables(ctx, cfg.Sources, tableStore)
	})

	resolver := join.NewResolver(a, cfg.ProfileBaseURL)
	opts := mapview.DefaultOptions()
	opts.CommunesEnabled = cfg.CommunesEnabled()
	opts.LayerURL = func(k geo.Kind) string { return cfg.APIBase + "/layers/" + k.String() }
	sess := session.NewHandler(a, func() *mapview.Controller { return mapview.NewController(resolver, opts) })

	apiMux := api.BuildRoutes(api.Deps{
		Data:      a,
		Resolver:  resolver,
		Redis:     rc,
		IPLocator: ipl,
		CacheTTL:  cfg.LocateCacheTTL,
		Session:   sess,
	})
	mux := http.NewServeMux()
	mux.Handle(cfg.APIBase+"/", http.StripPrefix(cfg.APIBase, apiMux))
	mux.Handle("/metrics", metrics.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok\n"))
	})
	// NOTE: 向前端暴露 API 基础路径，避免硬编码
	mux.HandleFunc("/config.js", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("content-type", "application/javascript; charset=utf-8")
		w.Header().Set("cache-control", "no-store")
		_, _ = w.Write([]byte("window.__API_BASE__='" + cfg.APIBase + "'\n"))
		_, _ = w.Write([]byte("window.__COMMIT_SHA__='" + commit + "'\n"))
	})
	mux.Handle("/", http.FileServer(http.Dir(cfg.UIDist)))

	s := &http.Server{Addr: cfg.Addr, Handler: buildHandler(l, mux, cfg.RateLimitQPS), ReadHeaderTimeout: 10 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		_ = s.Shutdown(shutdownCtx)
	}()

	if cfg.TLS.Enabled {
		if err := utils.EnsureSelfSignedCert(cfg.TLS.CertPath, cfg.TLS.KeyPath, "carte-elus.local"); err != nil {
			l.Error("tls_cert_error", "err", err)
			os.Exit(1)
		}
		l.Info("listening_tls", "addr", cfg.Addr, "cert", cfg.TLS.CertPath)
		err = s.ListenAndServeTLS(cfg.TLS.CertPath, cfg.TLS.KeyPath)
	} else {
		l.Info("listening", "addr", cfg.Addr)
		err = s.ListenAndServe()
	}
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		l.Error("listen_error", "err", err)
		os.Exit(1)
	}
	l.Info("shutdown")
}

// buildHandler 组装中间件链：访问日志在最外层，被限流拒绝的请求同样记录
func buildHandler(l *slog.Logger, mux http.Handler, qps int) http.Handler {
	return logger.AccessMiddleware(l)(middleware.RateLimit(qps)(mux))
}
