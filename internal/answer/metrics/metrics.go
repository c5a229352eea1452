// Package metrics 提供回答服务的 Prometheus 业务指标。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	namespace = "rag"
	subsystem = "answer"
)

// 请求结果标签。
const (
	OutcomeDisabled    = "disabled"
	OutcomeNoDocuments = "no_documents"
	OutcomeCacheHit    = "cache_hit"
	OutcomeGenerated   = "generated"
	OutcomeFallback    = "fallback"
)

// 缓存查询结果标签。
const (
	CacheHit   = "hit"
	CacheMiss  = "miss"
	CacheError = "error"
)

// Metrics 回答服务业务指标。方法对 nil 接收者安全。
type Metrics struct {
	registry *prometheus.Registry

	requests     *prometheus.CounterVec
	duration     prometheus.Histogram
	cacheLookups *prometheus.CounterVec
	evictions    *prometheus.CounterVec
	backendCalls *prometheus.CounterVec
	backendTime  *prometheus.HistogramVec
	panics       prometheus.Counter
	degradations *prometheus.CounterVec
	batchItems   prometheus.Counter
	batchInline  prometheus.Counter
}

// New 创建指标并注册到独立的 Registry，附带 Go 运行时与进程指标。
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	factory := promauto.With(reg)

	return &Metrics{
		registry: reg,
		requests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "requests_total",
			Help:      "Answer requests by outcome.",
		}, []string{"outcome"}),
		duration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "duration_seconds",
			Help:      "End-to-end answer latency.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 4, 10),
		}),
		cacheLookups: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "cache_lookups_total",
			Help:      "Answer cache lookups by result.",
		}, []string{"result"}),
		evictions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "cache_evictions_total",
			Help:      "Memory answer cache evictions by reason.",
		}, []string{"reason"}),
		backendCalls: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "backend_calls_total",
			Help:      "Generation backend invocations.",
		}, []string{"backend"}),
		backendTime: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "backend_duration_seconds",
			Help:      "Generation backend latency.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}, []string{"backend"}),
		panics: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "backend_panics_total",
			Help:      "Recovered panics raised by a generation backend.",
		}),
		degradations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "backend_degradations_total",
			Help:      "Backend selections that degraded to the stub backend.",
		}, []string{"requested"}),
		batchItems: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "batch_items_total",
			Help:      "Items answered through batch requests.",
		}),
		batchInline: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: subsystem,
			Name:      "batch_inline_total",
			Help:      "Batch items run on the request goroutine after the pool rejected them.",
		}),
	}
}

// Registry 返回指标注册表。
func (m *Metrics) Registry() *prometheus.Registry {
	if m == nil {
		return nil
	}
	return m.registry
}

// Handler 返回 /metrics 的 HTTP 处理器。
func (m *Metrics) Handler() http.Handler {
	if m == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// RecordRequest 记录一次回答请求。
func (m *Metrics) RecordRequest(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.requests.WithLabelValues(outcome).Inc()
	m.duration.Observe(d.Seconds())
}

// RecordCacheLookup 记录缓存查询结果。
func (m *Metrics) RecordCacheLookup(result string) {
	if m == nil {
		return
	}
	m.cacheLookups.WithLabelValues(result).Inc()
}

// RecordBackendCall 记录一次后端调用。
func (m *Metrics) RecordBackendCall(backend string, d time.Duration) {
	if m == nil {
		return
	}
	m.backendCalls.WithLabelValues(backend).Inc()
	m.backendTime.WithLabelValues(backend).Observe(d.Seconds())
}

// RecordBackendPanic 记录后端 panic。
func (m *Metrics) RecordBackendPanic() {
	if m == nil {
		return
	}
	m.panics.Inc()
}

// RecordDegradation 记录后端降级。
func (m *Metrics) RecordDegradation(requested string) {
	if m == nil {
		return
	}
	m.degradations.WithLabelValues(requested).Inc()
}

// RecordBatchItems 记录批量请求条目数。
func (m *Metrics) RecordBatchItems(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.batchItems.Add(float64(n))
}

// RecordCacheEviction 记录内存缓存淘汰。
func (m *Metrics) RecordCacheEviction(reason string) {
	if m == nil {
		return
	}
	m.evictions.WithLabelValues(reason).Inc()
}

// RecordBatchInline 记录被协程池拒绝、改在请求协程执行的条目数。
func (m *Metrics) RecordBatchInline(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.batchInline.Add(float64(n))
}
