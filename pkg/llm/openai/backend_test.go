package openai

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/sentinel-rag/pkg/llm"
	"github.com/kart-io/sentinel-rag/pkg/utils/httpclient"
	"github.com/kart-io/sentinel-rag/pkg/utils/json"
)

const testAPIKey = "test-key"

func newTestBackend(t *testing.T, handler http.HandlerFunc) *Backend {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	b, err := New(llm.Config{
		Model:     "deepseek-reasoner",
		MaxTokens: 500,
		BaseURL:   srv.URL + "/",
		APIKey:    testAPIKey,
		Timeout:   5 * time.Second,
	}, httpclient.WithBackoff(time.Millisecond))
	require.NoError(t, err)
	return b
}

func writeJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = io.WriteString(w, body)
}

func TestNew_MissingAPIKey(t *testing.T) {
	_, err := New(llm.Config{Model: "m"})
	assert.ErrorIs(t, err, llm.ErrMissingAPIKey)
}

func TestGenerate_RequestShape(t *testing.T) {
	b := newTestBackend(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer "+testAPIKey, r.Header.Get("Authorization"))

		var req chatRequest
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "deepseek-reasoner", req.Model)
		assert.Equal(t, 500, req.MaxTokens)
		assert.InDelta(t, 0.3, req.Temperature, 1e-9)
		assert.False(t, req.Stream)
		if assert.Len(t, req.Messages, 1) {
			assert.Equal(t, "user", req.Messages[0].Role)
			assert.Equal(t, "问题", req.Messages[0].Content)
		}

		writeJSON(w, `{"choices":[{"index":0,"message":{"role":"assistant","content":"答案"}}]}`)
	})

	assert.Equal(t, "答案", b.Generate(context.Background(), "问题", 0.3))
}

func TestGenerate_WithReasoning(t *testing.T) {
	b := newTestBackend(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, `{"choices":[{"message":{"content":"最终","reasoning_content":"思考"}}]}`)
	})

	assert.Equal(t, "推理过程:\n思考\n\n最终答案:\n最终", b.Generate(context.Background(), "q", 0.7))
}

func TestGenerate_EmptyReasoningIgnored(t *testing.T) {
	b := newTestBackend(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, `{"choices":[{"message":{"content":"最终","reasoning_content":""}}]}`)
	})

	assert.Equal(t, "最终", b.Generate(context.Background(), "q", 0.7))
}

func TestComplete_ReasoningAbsent(t *testing.T) {
	b := newTestBackend(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, `{"choices":[{"message":{"content":"最终"}}],"usage":{"total_tokens":12}}`)
	})

	c, err := b.Complete(context.Background(), "q", 0.7)
	require.NoError(t, err)
	assert.Nil(t, c.Reasoning)
	assert.Equal(t, "最终", c.Content)
	assert.Equal(t, 12, c.TotalTokens)
}

func TestGenerate_EmptyContent(t *testing.T) {
	b := newTestBackend(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, `{"choices":[{"message":{"content":null}}]}`)
	})

	assert.Equal(t, "DeepSeek API返回空内容", b.Generate(context.Background(), "q", 0.7))
}

func TestGenerate_NoChoices(t *testing.T) {
	b := newTestBackend(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, `{"choices":[]}`)
	})

	assert.Equal(t, "DeepSeek API返回空响应", b.Generate(context.Background(), "q", 0.7))
}

func TestGenerate_TransportFailure(t *testing.T) {
	b := newTestBackend(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = io.WriteString(w, "invalid key")
	})

	got := b.Generate(context.Background(), "q", 0.7)
	assert.Equal(t, "DeepSeek API调用失败: request failed with status code 401: invalid key", got)
}

func TestGenerate_DecodeFailure(t *testing.T) {
	b := newTestBackend(t, func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, `not json`)
	})

	assert.Contains(t, b.Generate(context.Background(), "q", 0.7), "DeepSeek API调用失败: ")
}

func TestSelect_RemoteRegistered(t *testing.T) {
	sel := llm.Select("deepseek", llm.Config{Model: "deepseek-reasoner", APIKey: testAPIKey})
	assert.Equal(t, llm.OutcomeConstructed, sel.Outcome)
	assert.Equal(t, llm.KindRemote, sel.Kind)

	sel = llm.Select("openai", llm.Config{Model: "gpt-4o-mini"})
	assert.True(t, sel.Degraded())
	assert.ErrorIs(t, sel.Reason, llm.ErrMissingAPIKey)
}
