package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetrics_Record(t *testing.T) {
	m := New()

	m.RecordRequest(OutcomeGenerated, 20*time.Millisecond)
	m.RecordRequest(OutcomeCacheHit, time.Millisecond)
	m.RecordRequest(OutcomeCacheHit, time.Millisecond)
	m.RecordCacheLookup(CacheMiss)
	m.RecordBackendCall("stub", time.Millisecond)
	m.RecordBackendPanic()
	m.RecordDegradation("deepseek")
	m.RecordBatchItems(3)
	m.RecordBatchInline(2)
	m.RecordBatchInline(0)
	m.RecordCacheEviction("capacity")

	assert.Equal(t, 1.0, testutil.ToFloat64(m.requests.WithLabelValues(OutcomeGenerated)))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.requests.WithLabelValues(OutcomeCacheHit)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.cacheLookups.WithLabelValues(CacheMiss)))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.backendCalls.WithLabelValues("stub")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.panics))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.degradations.WithLabelValues("deepseek")))
	assert.Equal(t, 3.0, testutil.ToFloat64(m.batchItems))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.batchInline))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.evictions.WithLabelValues("capacity")))
}

func TestMetrics_NilSafe(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.RecordRequest(OutcomeFallback, time.Second)
		m.RecordCacheLookup(CacheError)
		m.RecordBackendCall("stub", time.Second)
		m.RecordBackendPanic()
		m.RecordDegradation("openai")
		m.RecordBatchItems(1)
		m.RecordBatchInline(1)
		m.RecordCacheEviction("expired")
	})
	assert.Nil(t, m.Registry())
}

func TestMetrics_Handler(t *testing.T) {
	m := New()
	m.RecordRequest(OutcomeGenerated, time.Millisecond)

	w := httptest.NewRecorder()
	m.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, `rag_answer_requests_total{outcome="generated"} 1`))
	assert.Contains(t, body, "go_goroutines")
}
