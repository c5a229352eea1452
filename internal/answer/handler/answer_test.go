package handler

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/sentinel-rag/internal/answer/biz"
	"github.com/kart-io/sentinel-rag/pkg/llm"
	apierrors "github.com/kart-io/sentinel-rag/pkg/utils/errors"
	"github.com/kart-io/sentinel-rag/pkg/utils/json"
)

type staticBackend struct{}

func (staticBackend) Name() string { return "static" }

func (staticBackend) Generate(context.Context, string, float64) string { return "  生成的回答\n" }

type brokenCache struct{}

func (brokenCache) Name() string { return "broken" }
func (brokenCache) Lookup(context.Context, string) (string, bool, error) { return "", false, nil }
func (brokenCache) Store(context.Context, string, string) error { return nil }
func (brokenCache) Clear(context.Context) error { return fmt.Errorf("redis down") }
func (brokenCache) Len(context.Context) (int, error) { return 0, nil }

func newTestEngine(t *testing.T, cache biz.AnswerCache, maxItems int) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	sel := llm.Selection{
		Backend:   staticBackend{},
		Requested: "test",
		Kind:      llm.KindRemote,
		Outcome:   llm.OutcomeConstructed,
	}
	if cache == nil {
		cache = biz.NewMemoryCache(time.Hour)
	}
	orch := biz.NewOrchestrator(biz.DefaultConfig(), sel, cache)
	h := NewAnswerHandler(orch, nil, nil, maxItems)

	engine := gin.New()
	engine.POST("/answer", h.Answer)
	engine.POST("/answer/batch", h.AnswerBatch)
	engine.GET("/stats", h.Stats)
	engine.DELETE("/cache", h.ClearCache)
	engine.GET("/healthz", Healthz)
	engine.GET("/version", Version)
	return engine
}

func do(engine *gin.Engine, method, path, body string, header ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(header); i += 2 {
		req.Header.Set(header[i], header[i+1])
	}
	w := httptest.NewRecorder()
	engine.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Code      int             `json:"code"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	RequestID string          `json:"request_id"`
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) (envelope, T) {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))

	var data T
	if len(env.Data) > 0 {
		require.NoError(t, json.Unmarshal(env.Data, &data))
	}
	return env, data
}

func TestAnswer(t *testing.T) {
	engine := newTestEngine(t, nil, 0)
	body := `{"query":"什么是机器学习","results":[{"id":"a","score":0.9,"text":"机器学习简介"},["b",0.5,"深度学习"]]}`

	w := do(engine, http.MethodPost, "/answer", body)
	require.Equal(t, http.StatusOK, w.Code)
	resp, data := decode[AnswerResponse](t, w)
	assert.Equal(t, 0, resp.Code)
	assert.Equal(t, "生成的回答", data.Answer)
	assert.False(t, data.Cached)

	w = do(engine, http.MethodPost, "/answer", body)
	_, data = decode[AnswerResponse](t, w)
	assert.Equal(t, "生成的回答", data.Answer)
	assert.True(t, data.Cached)
}

func TestAnswer_MalformedTupleSkipped(t *testing.T) {
	engine := newTestEngine(t, nil, 0)
	body := `{"query":"q","results":[["a",0.9,"ok"],["b","0.5","bad"]]}`

	w := do(engine, http.MethodPost, "/answer", body)
	require.Equal(t, http.StatusOK, w.Code)
	_, data := decode[AnswerResponse](t, w)
	assert.Equal(t, "生成的回答", data.Answer)
}

func TestAnswer_NoDocuments(t *testing.T) {
	engine := newTestEngine(t, nil, 0)

	w := do(engine, http.MethodPost, "/answer", `{"query":"q","results":[]}`)
	require.Equal(t, http.StatusOK, w.Code)
	_, data := decode[AnswerResponse](t, w)
	assert.Equal(t, biz.MsgNoDocuments, data.Answer)
}

func TestAnswer_InvalidRequest(t *testing.T) {
	engine := newTestEngine(t, nil, 0)

	tests := []struct {
		name string
		body string
	}{
		{name: "malformed json", body: `{"query":`},
		{name: "blank query", body: `{"query":"   ","results":[]}`},
		{name: "negative top_k", body: `{"query":"q","results":[],"top_k":-1}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(engine, http.MethodPost, "/answer", tt.body)
			require.Equal(t, http.StatusBadRequest, w.Code)
			resp, _ := decode[json.RawMessage](t, w)
			assert.Equal(t, apierrors.ErrAnswerInvalidRequest.Code, resp.Code)
		})
	}
}

func TestAnswer_ValidationMessageLanguage(t *testing.T) {
	engine := newTestEngine(t, nil, 0)

	w := do(engine, http.MethodPost, "/answer", `{"query":"","results":[]}`, "Accept-Language", "zh-CN")
	require.Equal(t, http.StatusBadRequest, w.Code)
	resp, _ := decode[json.RawMessage](t, w)
	assert.Contains(t, resp.Message, "不能为空白")
}

func TestAnswerBatch(t *testing.T) {
	engine := newTestEngine(t, nil, 0)
	body := `{"items":[
		{"query":"q1","results":[{"id":"a","score":1,"text":"t"}]},
		{"query":"q2","results":[]}
	]}`

	w := do(engine, http.MethodPost, "/answer/batch", body)
	require.Equal(t, http.StatusOK, w.Code)
	_, data := decode[BatchResponse](t, w)
	assert.Equal(t, []string{"生成的回答", biz.MsgNoDocuments}, data.Answers)
}

func TestAnswerBatch_Limits(t *testing.T) {
	engine := newTestEngine(t, nil, 1)

	w := do(engine, http.MethodPost, "/answer/batch", `{"items":[{"query":"a","results":[]},{"query":"b","results":[]}]}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	resp, _ := decode[json.RawMessage](t, w)
	assert.Equal(t, apierrors.ErrAnswerBatchTooLarge.Code, resp.Code)

	w = do(engine, http.MethodPost, "/answer/batch", `{"items":[]}`)
	require.Equal(t, http.StatusBadRequest, w.Code)
	resp, _ = decode[json.RawMessage](t, w)
	assert.Equal(t, apierrors.ErrAnswerInvalidRequest.Code, resp.Code)
}

func TestStatsAndClearCache(t *testing.T) {
	engine := newTestEngine(t, nil, 0)
	do(engine, http.MethodPost, "/answer", `{"query":"q","results":[{"id":"a","score":1,"text":"t"}]}`)

	w := do(engine, http.MethodGet, "/stats", "")
	require.Equal(t, http.StatusOK, w.Code)
	_, stats := decode[biz.Stats](t, w)
	assert.True(t, stats.Enabled)
	assert.Equal(t, 1, stats.CacheSize)
	assert.Equal(t, "constructed", stats.Backend.Outcome)

	w = do(engine, http.MethodDelete, "/cache", "")
	require.Equal(t, http.StatusOK, w.Code)

	w = do(engine, http.MethodGet, "/stats", "")
	_, stats = decode[biz.Stats](t, w)
	assert.Equal(t, 0, stats.CacheSize)
}

func TestClearCache_Failure(t *testing.T) {
	engine := newTestEngine(t, brokenCache{}, 0)

	w := do(engine, http.MethodDelete, "/cache", "")
	resp, _ := decode[json.RawMessage](t, w)
	assert.Equal(t, apierrors.ErrAnswerCacheClearFailed.Code, resp.Code)
	assert.Equal(t, apierrors.ErrAnswerCacheClearFailed.HTTPStatus(), w.Code)
}

func TestHealthzAndVersion(t *testing.T) {
	engine := newTestEngine(t, nil, 0)

	w := do(engine, http.MethodGet, "/healthz", "")
	require.Equal(t, http.StatusOK, w.Code)
	_, data := decode[map[string]string](t, w)
	assert.Equal(t, "ok", data["status"])

	w = do(engine, http.MethodGet, "/version", "")
	assert.Equal(t, http.StatusOK, w.Code)
}
