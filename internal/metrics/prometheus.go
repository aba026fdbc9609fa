//go:build !noprom

package metrics

import (
	"fmt"
	"net/http"

	prom "github.com/prometheus/client_golang/prometheus"
	promhttp "github.com/prometheus/client_golang/prometheus/promhttp"
)

type promRecorder struct {
	storeTotal       *prom.CounterVec
	storeSeconds     *prom.HistogramVec
	toolTotal        *prom.CounterVec
	toolSeconds      *prom.HistogramVec
	recommendTotal   *prom.CounterVec
	recommendSeconds prom.Histogram
	embedCacheTotal  *prom.CounterVec
	stmtCacheTotal   *prom.CounterVec
	poolInUse        prom.Gauge
	poolIdle         prom.Gauge
}

func (p *promRecorder) IncStoreOpTotal(op string, success bool) {
	p.storeTotal.WithLabelValues(op, fmt.Sprintf("%t", success)).Inc()
}

func (p *promRecorder) ObserveStoreOpSeconds(op string, success bool, seconds float64) {
	p.storeSeconds.WithLabelValues(op, fmt.Sprintf("%t", success)).Observe(seconds)
}

func (p *promRecorder) IncToolTotal(tool string, success bool) {
	p.toolTotal.WithLabelValues(tool, fmt.Sprintf("%t", success)).Inc()
}

func (p *promRecorder) ObserveToolSeconds(tool string, success bool, seconds float64) {
	p.toolSeconds.WithLabelValues(tool, fmt.Sprintf("%t", success)).Observe(seconds)
}

func (p *promRecorder) IncRecommendTotal(outcome string) {
	p.recommendTotal.WithLabelValues(outcome).Inc()
}

func (p *promRecorder) ObserveRecommendSeconds(seconds float64) {
	p.recommendSeconds.Observe(seconds)
}

func (p *promRecorder) IncEmbedCache(hit bool) {
	p.embedCacheTotal.WithLabelValues(fmt.Sprintf("%t", hit)).Inc()
}

func (p *promRecorder) IncStmtCacheHit(kind string) {
	p.stmtCacheTotal.WithLabelValues(kind, "hit").Inc()
}

func (p *promRecorder) IncStmtCacheMiss(kind string) {
	p.stmtCacheTotal.WithLabelValues(kind, "miss").Inc()
}

func (p *promRecorder) ObservePoolStats(inUse, idle int) {
	p.poolInUse.Set(float64(inUse))
	p.poolIdle.Set(float64(idle))
}

func enablePrometheus(addr string) error {
	registry := prom.NewRegistry()
	p := &promRecorder{
		storeTotal: prom.NewCounterVec(prom.CounterOpts{
			Name: "graphstore_ops_total",
			Help: "Total number of graph store operations",
		}, []string{"op", "success"}),
		storeSeconds: prom.NewHistogramVec(prom.HistogramOpts{
			Name:    "graphstore_op_seconds",
			Help:    "Graph store operation duration in seconds",
			Buckets: prom.DefBuckets,
		}, []string{"op", "success"}),
		toolTotal: prom.NewCounterVec(prom.CounterOpts{
			Name: "tool_calls_total",
			Help: "Total number of tool handler calls",
		}, []string{"tool", "success"}),
		toolSeconds: prom.NewHistogramVec(prom.HistogramOpts{
			Name:    "tool_call_seconds",
			Help:    "Tool handler duration in seconds",
			Buckets: prom.DefBuckets,
		}, []string{"tool", "success"}),
		recommendTotal: prom.NewCounterVec(prom.CounterOpts{
			Name: "recommendations_total",
			Help: "Total number of recommendation requests by outcome",
		}, []string{"outcome"}),
		recommendSeconds: prom.NewHistogram(prom.HistogramOpts{
			Name:    "recommendation_seconds",
			Help:    "End-to-end recommendation duration in seconds",
			Buckets: prom.DefBuckets,
		}),
		embedCacheTotal: prom.NewCounterVec(prom.CounterOpts{
			Name: "embedding_cache_total",
			Help: "Embedding cache lookups by hit/miss",
		}, []string{"hit"}),
		stmtCacheTotal: prom.NewCounterVec(prom.CounterOpts{
			Name: "stmt_cache_total",
			Help: "Prepared statement cache lookups",
		}, []string{"kind", "result"}),
		poolInUse: prom.NewGauge(prom.GaugeOpts{
			Name: "db_pool_in_use",
			Help: "Database connections currently in use",
		}),
		poolIdle: prom.NewGauge(prom.GaugeOpts{
			Name: "db_pool_idle",
			Help: "Idle database connections",
		}),
	}

	registry.MustRegister(
		p.storeTotal, p.storeSeconds, p.toolTotal, p.toolSeconds,
		p.recommendTotal, p.recommendSeconds, p.embedCacheTotal,
		p.stmtCacheTotal, p.poolInUse, p.poolIdle,
	)
	SetRecorder(p)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	go func() { _ = http.ListenAndServe(addr, mux) }()
	return nil
}
