package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	TableLoadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "carte_table_loads_total",
		Help: "Table load attempts by table and status",
	}, []string{"table", "status"})
	TableRows = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Name: "carte_table_rows",
		Help: "Rows currently loaded per table",
	}, []string{"table"})
	TableRowsSkippedTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "carte_table_rows_skipped_total",
		Help: "Malformed rows skipped while loading tables",
	}, []string{"table"})
	LayerLoadsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "carte_layer_loads_total",
		Help: "Geometry layer load attempts by layer and status",
	}, []string{"layer", "status"})
	LayerLoadDurationMs = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "carte_layer_load_duration_ms",
		Help:    "Geometry layer load duration in milliseconds",
		Buckets: []float64{10, 50, 100, 250, 500, 1000, 2500, 5000, 10000},
	}, []string{"layer"})
	JoinMissesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "carte_join_misses_total",
		Help: "Feature joins that found no record",
	}, []string{"layer"})
	LayerTransitionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "carte_layer_transitions_total",
		Help: "Visible layer changes by trigger and target layer",
	}, []string{"trigger", "layer"})
	SessionsActive = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "carte_sessions_active",
		Help: "Open map sessions",
	})
	SessionEventsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "carte_session_events_total",
		Help: "Map session events by type",
	}, []string{"event"})
	LocateRequestsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "carte_locate_requests_total",
		Help: "Locate requests by outcome",
	}, []string{"outcome"})
	LocateDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "carte_locate_duration_ms",
		Help:    "Locate request duration in milliseconds",
		Buckets: []float64{1, 5, 10, 20, 50, 100, 200, 500, 1000},
	})
)

func init() {
	prometheus.MustRegister(TableLoadsTotal)
	prometheus.MustRegister(TableRows)
	prometheus.MustRegister(TableRowsSkippedTotal)
	prometheus.MustRegister(LayerLoadsTotal)
	prometheus.MustRegister(LayerLoadDurationMs)
	prometheus.MustRegister(JoinMissesTotal)
	prometheus.MustRegister(LayerTransitionsTotal)
	prometheus.MustRegister(SessionsActive)
	prometheus.MustRegister(SessionEventsTotal)
	prometheus.MustRegister(LocateRequestsTotal)
	prometheus.MustRegister(LocateDurationMs)
}

// 文档注释：返回 Prometheus 指标处理器，挂载在 /metrics
func Handler() http.Handler { return promhttp.Handler() }
