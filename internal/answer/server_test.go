package answersvc

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/sentinel-rag/internal/model"
	"github.com/kart-io/sentinel-rag/pkg/infra/tracing"
	cacheopts "github.com/kart-io/sentinel-rag/pkg/options/cache"
	"github.com/kart-io/sentinel-rag/pkg/options/docstore"
	etcdopts "github.com/kart-io/sentinel-rag/pkg/options/etcd"
	llmopts "github.com/kart-io/sentinel-rag/pkg/options/llm"
	logopts "github.com/kart-io/sentinel-rag/pkg/options/logger"
	ragopts "github.com/kart-io/sentinel-rag/pkg/options/rag"
	httpopts "github.com/kart-io/sentinel-rag/pkg/options/server/http"
)

func testConfig(t *testing.T) *Config {
	t.Helper()
	t.Setenv("DEEPSEEK_API_KEY", "")

	httpOpts := httpopts.NewOptions()
	httpOpts.Addr = "127.0.0.1:0"
	httpOpts.AccessLog = false

	return &Config{
		HTTPOptions:     httpOpts,
		LogOptions:      logopts.NewOptions(),
		RAGOptions:      ragopts.NewOptions(),
		LLMOptions:      llmopts.NewOptions(),
		CacheOptions:    cacheopts.NewOptions(),
		DocStoreOptions: docstore.NewOptions(),
		TracingOptions:  tracing.NewOptions(),
		EtcdOptions:     etcdopts.NewOptions(),
		ShutdownTimeout: 5 * time.Second,
	}
}

func TestNewServer_DegradesWithoutAPIKey(t *testing.T) {
	cfg := testConfig(t)

	s, err := cfg.NewServer(context.Background())
	require.NoError(t, err)

	sel := s.Orchestrator().Selection()
	assert.True(t, sel.Degraded())
	assert.Equal(t, "deepseek", sel.Requested)

	docs := []model.RetrievedDocument{{ID: "a", Score: 0.9, Text: "机器学习"}}
	answer := s.Orchestrator().Answer(context.Background(), "什么是机器学习", docs, nil)
	assert.NotEmpty(t, answer)

	stats := s.Orchestrator().Stats(context.Background())
	assert.Equal(t, "deepseek", stats.LLMProvider)
	assert.Equal(t, "degraded_to_stub", stats.Backend.Outcome)
	assert.Equal(t, 1, stats.CacheSize)
}

func TestNewServer_RedisFallsBackToMemory(t *testing.T) {
	cfg := testConfig(t)
	cfg.CacheOptions.Backend = cacheopts.BackendRedis
	cfg.CacheOptions.Redis.Host = "127.0.0.1"
	cfg.CacheOptions.Redis.Port = 1
	cfg.CacheOptions.Redis.DialTimeout = 100 * time.Millisecond
	cfg.CacheOptions.Redis.MaxRetries = -1

	s, err := cfg.NewServer(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "memory", s.Orchestrator().Stats(context.Background()).CacheBackend)
}

func TestNewServer_InvalidDocStore(t *testing.T) {
	cfg := testConfig(t)
	cfg.DocStoreOptions.Type = docstore.TypeMemory
	cfg.DocStoreOptions.SeedFile = "/nonexistent/seed.json"

	_, err := cfg.NewServer(context.Background())
	assert.Error(t, err)
}

func TestServer_RunStopsOnCancel(t *testing.T) {
	cfg := testConfig(t)
	cfg.RAGOptions.Provider = "stub"

	s, err := cfg.NewServer(context.Background())
	require.NoError(t, err)
	assert.False(t, s.Orchestrator().Selection().Degraded())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	done := make(chan error, 1)
	go func() { done <- s.Run(ctx) }()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(10 * time.Second):
		t.Fatal("server did not stop")
	}
}
