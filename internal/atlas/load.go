package atlas

import (
	"context"
	"io"
	"sync"
	"time"

	"carte-elus/internal/config"
	"carte-elus/internal/fetch"
	"carte-elus/internal/geo"
	"carte-elus/internal/logger"
	"carte-elus/internal/metrics"
	"carte-elus/internal/tables"
)

// TableStore 为数据库表格来源（*store.Store 实现）
type TableStore interface {
	LoadTables(ctx context.Context) (*tables.Tables, error)
}

// 文档注释：加载单个几何图层
// 约束：失败只记录日志、指标与状态，图层保持缺席（或保留上一次成功的版本），不重试。
func (a *Atlas) LoadLayer(ctx context.Context, k geo.Kind, src string) error {
	l := logger.L()
	start := time.Now()
	layer, err := geo.LoadLayer(ctx, k, src)
	metrics.LayerLoadDurationMs.WithLabelValues(k.String()).Observe(float64(time.Since(start).Milliseconds()))
	if err != nil {
		metrics.LayerLoadsTotal.WithLabelValues(k.String(), "error").Inc()
		l.Error("layer_load_error", "layer", k.String(), "src", src, "err", err)
		a.setLayerError(k, src, err)
		return err
	}
	metrics.LayerLoadsTotal.WithLabelValues(k.String(), "ok").Inc()
	l.Info("layer_load_ok", "layer", k.String(), "features", layer.Len(), "ms", time.Since(start).Milliseconds())
	a.SetLayer(layer)
	return nil
}

// 文档注释：从文件或 URL 加载一张表
// 约束：失败时该表保持为空（连接全部未命中），不影响其他表。
func loadTable[T any](ctx context.Context, a *Atlas, name, src string, load func(io.Reader, string) (T, tables.LoadStats, error), set func(T)) error {
	l := logger.L()
	rc, err := fetch.Open(ctx, src)
	if err != nil {
		return a.tableFailed(name, src, err)
	}
	defer rc.Close()
	v, st, err := load(rc, src)
	if err != nil {
		return a.tableFailed(name, src, err)
	}
	set(v)
	metrics.TableLoadsTotal.WithLabelValues(name, "ok").Inc()
	metrics.TableRows.WithLabelValues(name).Set(float64(st.Rows))
	metrics.TableRowsSkippedTotal.WithLabelValues(name).Add(float64(st.Skipped))
	a.setTableStatus(name, SourceStatus{Source: src, Loaded: true, Rows: st.Rows, Skipped: st.Skipped, LoadedAt: time.Now()})
	l.Info("table_load_ok", "table", name, "rows", st.Rows, "skipped", st.Skipped)
	return nil
}

func (a *Atlas) tableFailed(name, src string, err error) error {
	metrics.TableLoadsTotal.WithLabelValues(name, "error").Inc()
	logger.L().Error("table_load_error", "table", name, "src", src, "err", err)
	a.setTableStatus(name, SourceStatus{Source: src, Error: err.Error()})
	return err
}

// LoadDeputies / LoadMayors / LoadFamilies 各自独立加载一张 CSV 表
func (a *Atlas) LoadDeputies(ctx context.Context, src string) error {
	return loadTable(ctx, a, "deputes", src, tables.LoadDeputies, a.SetDeputies)
}

func (a *Atlas) LoadMayors(ctx context.Context, src string) error {
	return loadTable(ctx, a, "maires", src, tables.LoadMayors, a.SetMayors)
}

func (a *Atlas) LoadFamilies(ctx context.Context, src string) error {
	return loadTable(ctx, a, "familles_politiques", src, tables.LoadFamilies, a.SetFamilies)
}

// LoadFromStore 从数据库读取全部表格
func (a *Atlas) LoadFromStore(ctx context.Context, st TableStore) error {
	t, err := st.LoadTables(ctx)
	if err != nil {
		return a.tableFailed("postgres", "postgres", err)
	}
	a.SetTables(t)
	now := time.Now()
	a.setTableStatus("deputes", SourceStatus{Source: "postgres", Loaded: true, Rows: len(t.Deputies), LoadedAt: now})
	a.setTableStatus("maires", SourceStatus{Source: "postgres", Loaded: true, Rows: len(t.Mayors), LoadedAt: now})
	metrics.TableLoadsTotal.WithLabelValues("postgres", "ok").Inc()
	metrics.TableRows.WithLabelValues("deputes").Set(float64(len(t.Deputies)))
	metrics.TableRows.WithLabelValues("maires").Set(float64(len(t.Mayors)))
	logger.L().Info("table_load_ok", "table", "postgres", "deputes", len(t.Deputies), "maires", len(t.Mayors))
	return nil
}

// 文档注释：启动全部数据源的后台加载
// 背景：每个来源一个协程，互不等待；返回的 WaitGroup 供测试与导入工具等待全部完成。
// 约束：st 为 nil 时表格从文件加载；Communes 为空串时跳过市镇图层。
func (a *Atlas) Start(ctx context.Context, src config.Sources, st TableStore) *sync.WaitGroup {
	var wg sync.WaitGroup
	run := func(fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = fn()
		}()
	}
	layers := map[geo.Kind]string{
		geo.Region:          src.Regions,
		geo.Department:      src.Departements,
		geo.Circonscription: src.Circos,
		geo.Commune:         src.Communes,
	}
	for _, k := range geo.Kinds {
		k, s := k, layers[k]
		if s == "" {
			logger.L().Info("layer_disabled", "layer", k.String())
			continue
		}
		run(func() error { return a.LoadLayer(ctx, k, s) })
	}
	a.startTables(ctx, src, st, run)
	return &wg
}

// ReloadTables 重新加载表格（每周刷新调用），同步等待完成
func (a *Atlas) ReloadTables(ctx context.Context, src config.Sources, st TableStore) error {
	if st != nil {
		return a.LoadFromStore(ctx, st)
	}
	var wg sync.WaitGroup
	var mu sync.Mutex
	var firstErr error
	a.startTables(ctx, src, nil, func(fn func() error) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := fn(); err != nil {
				mu.Lock()
				if firstErr == nil {
					firstErr = err
				}
				mu.Unlock()
			}
		}()
	})
	wg.Wait()
	return firstErr
}

func (a *Atlas) startTables(ctx context.Context, src config.Sources, st TableStore, run func(func() error)) {
	if st != nil {
		run(func() error { return a.LoadFromStore(ctx, st) })
		return
	}
	run(func() error { return a.LoadDeputies(ctx, src.Deputes) })
	run(func() error { return a.LoadMayors(ctx, src.Maires) })
	run(func() error { return a.LoadFamilies(ctx, src.Familles) })
}
