package router

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"

	"github.com/kart-io/sentinel-rag/internal/answer/biz"
	"github.com/kart-io/sentinel-rag/internal/answer/handler"
	"github.com/kart-io/sentinel-rag/internal/answer/metrics"
	"github.com/kart-io/sentinel-rag/pkg/llm"
)

func TestRegister(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := metrics.New()
	orch := biz.NewOrchestrator(biz.DefaultConfig(), llm.Selection{}, biz.NewMemoryCache(time.Hour), biz.WithMetrics(m))

	engine := gin.New()
	Register(engine, handler.NewAnswerHandler(orch, nil, nil, 0), m.Handler())

	tests := []struct {
		method string
		path   string
		body   string
		want   int
	}{
		{http.MethodGet, "/healthz", "", http.StatusOK},
		{http.MethodGet, "/version", "", http.StatusOK},
		{http.MethodGet, "/v1/rag/stats", "", http.StatusOK},
		{http.MethodDelete, "/v1/rag/cache", "", http.StatusOK},
		{http.MethodPost, "/v1/rag/answer", `{"query":"q","results":[]}`, http.StatusOK},
		{http.MethodPost, "/v1/rag/answer/batch", `{"items":[{"query":"q","results":[]}]}`, http.StatusOK},
		{http.MethodGet, "/metrics", "", http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			req := httptest.NewRequest(tt.method, tt.path, strings.NewReader(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			engine.ServeHTTP(w, req)
			assert.Equal(t, tt.want, w.Code)
		})
	}
}

func TestRegister_MetricsExposeRequests(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := metrics.New()
	orch := biz.NewOrchestrator(biz.DefaultConfig(), llm.Selection{}, nil, biz.WithMetrics(m))

	engine := gin.New()
	Register(engine, handler.NewAnswerHandler(orch, nil, nil, 0), m.Handler())

	req := httptest.NewRequest(http.MethodPost, "/v1/rag/answer", strings.NewReader(`{"query":"q","results":[]}`))
	req.Header.Set("Content-Type", "application/json")
	engine.ServeHTTP(httptest.NewRecorder(), req)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, w.Body.String(), `outcome="no_documents"`)
}

func TestRegister_WithoutMetrics(t *testing.T) {
	gin.SetMode(gin.TestMode)
	orch := biz.NewOrchestrator(biz.DefaultConfig(), llm.Selection{}, nil)

	engine := gin.New()
	Register(engine, handler.NewAnswerHandler(orch, nil, nil, 0), nil)

	w := httptest.NewRecorder()
	engine.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
