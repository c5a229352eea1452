// Package answersvc provides the RAG answer service server implementation.
package answersvc

import (
	"context"
	"fmt"
	"time"

	"github.com/kart-io/logger"
	"go.opentelemetry.io/otel/attribute"

	"github.com/kart-io/sentinel-rag/internal/answer/biz"
	"github.com/kart-io/sentinel-rag/internal/answer/handler"
	"github.com/kart-io/sentinel-rag/internal/answer/metrics"
	"github.com/kart-io/sentinel-rag/internal/answer/router"
	"github.com/kart-io/sentinel-rag/internal/answer/store"
	"github.com/kart-io/sentinel-rag/pkg/component/redis"
	"github.com/kart-io/sentinel-rag/pkg/infra/app"
	etcddiscovery "github.com/kart-io/sentinel-rag/pkg/infra/discovery/etcd"
	"github.com/kart-io/sentinel-rag/pkg/infra/pool"
	"github.com/kart-io/sentinel-rag/pkg/infra/server"
	httpserver "github.com/kart-io/sentinel-rag/pkg/infra/server/http"
	"github.com/kart-io/sentinel-rag/pkg/infra/tracing"
	"github.com/kart-io/sentinel-rag/pkg/llm"
	// 注册远程生成后端
	_ "github.com/kart-io/sentinel-rag/pkg/llm/openai"
	cacheopts "github.com/kart-io/sentinel-rag/pkg/options/cache"
	"github.com/kart-io/sentinel-rag/pkg/options/docstore"
	etcdopts "github.com/kart-io/sentinel-rag/pkg/options/etcd"
	llmopts "github.com/kart-io/sentinel-rag/pkg/options/llm"
	logopts "github.com/kart-io/sentinel-rag/pkg/options/logger"
	ragopts "github.com/kart-io/sentinel-rag/pkg/options/rag"
	httpopts "github.com/kart-io/sentinel-rag/pkg/options/server/http"
	"github.com/kart-io/sentinel-rag/pkg/validator"
)

// Name is the name of the application.
const Name = "rag-answer"

// Config contains application-related configurations.
type Config struct {
	HTTPOptions     *httpopts.Options
	LogOptions      *logopts.Options
	RAGOptions      *ragopts.Options
	LLMOptions      *llmopts.Options
	CacheOptions    *cacheopts.Options
	DocStoreOptions *docstore.Options
	TracingOptions  *tracing.Options
	EtcdOptions     *etcdopts.Options
	ShutdownTimeout time.Duration
}

// Server represents the answer server.
type Server struct {
	srv          *server.Manager
	orchestrator *biz.Orchestrator
	closers      []func(context.Context)
}

// NewServer initializes and returns a new Server instance.
func (cfg *Config) NewServer(ctx context.Context) (*Server, error) {
	printBanner(cfg)
	s := &Server{}

	// 1. 初始化日志
	cfg.LogOptions.AddInitialField("service.name", Name)
	cfg.LogOptions.AddInitialField("service.version", app.GetVersion())
	if err := cfg.LogOptions.Init(); err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	logger.Info("Starting RAG answer service...")

	// 2. 初始化链路追踪
	if cfg.TracingOptions != nil && cfg.TracingOptions.Enabled {
		provider, err := tracing.NewProvider(ctx, cfg.TracingOptions, app.GetVersion(),
			attribute.String("rag.provider", cfg.RAGOptions.Provider),
			attribute.String("rag.model", cfg.RAGOptions.Model),
		)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize tracing: %w", err)
		}
		s.onClose(func(ctx context.Context) { _ = provider.Shutdown(ctx) })
		logger.Infow("Tracing initialized",
			"exporter", cfg.TracingOptions.Exporter,
			"endpoint", cfg.TracingOptions.Endpoint,
			"sample_ratio", cfg.TracingOptions.SampleRatio,
		)
	}

	m := metrics.New()

	// 3. 选择生成后端
	selection := llm.Select(cfg.RAGOptions.Provider, llm.Config{
		Model:      cfg.RAGOptions.Model,
		MaxTokens:  cfg.RAGOptions.MaxResponseTokens,
		BaseURL:    cfg.LLMOptions.BaseURL,
		APIKey:     cfg.LLMOptions.ResolveAPIKey(),
		Timeout:    cfg.LLMOptions.Timeout,
		MaxRetries: cfg.LLMOptions.MaxRetries,
	})
	if selection.Degraded() {
		logger.Warnw("generation backend degraded to stub",
			"requested", selection.Requested,
			"reason", selection.Reason.Error(),
		)
		m.RecordDegradation(selection.Requested)
	} else {
		logger.Infow("Generation backend initialized",
			"provider", selection.Requested,
			"backend", selection.Backend.Name(),
			"model", cfg.RAGOptions.Model,
		)
	}

	// 4. 初始化回答缓存
	answerCache := s.newAnswerCache(ctx, cfg.CacheOptions, m)

	// 5. 初始化文档存储
	var lookup biz.DocumentLookup
	docStore, err := store.New(ctx, cfg.DocStoreOptions)
	if err != nil {
		s.close(context.Background())
		return nil, fmt.Errorf("failed to initialize document store: %w", err)
	}
	if docStore != nil {
		lookup = docStore
		s.onClose(func(ctx context.Context) { _ = docStore.Close(ctx) })
		logger.Infow("Document store initialized", "type", docStore.Name())
	}

	// 6. 初始化 Biz 层
	s.orchestrator = biz.NewOrchestrator(
		biz.NewConfig(cfg.RAGOptions, cfg.CacheOptions),
		selection,
		answerCache,
		biz.WithMetrics(m),
		biz.WithContextBuilder(biz.NewContextBuilder(lookup)),
	)

	batchPool, err := pool.NewPool("rag-batch", &pool.Config{
		Capacity:       cfg.RAGOptions.BatchConcurrency,
		ExpiryDuration: 10 * time.Second,
		PanicHandler: func(p any) {
			logger.Errorw("batch worker panic", "panic", fmt.Sprintf("%v", p))
		},
	})
	if err != nil {
		logger.Warnw("failed to create batch pool, batch items run sequentially", "error", err.Error())
		batchPool = nil
	} else {
		s.onClose(func(context.Context) { batchPool.Release() })
	}
	batch := biz.NewBatchAnswerer(s.orchestrator, batchPool)
	logger.Infow("Answer service initialized",
		"enabled", cfg.RAGOptions.Enabled,
		"cache.enabled", cfg.CacheOptions.Enabled,
		"cache.backend", cfg.CacheOptions.Backend,
		"batch.concurrency", batchPool.Cap(),
	)

	// 7. 初始化 Handler 层
	answerHandler := handler.NewAnswerHandler(s.orchestrator, batch, validator.New(), cfg.RAGOptions.BatchMaxItems)

	// 8. 初始化服务器
	httpSrv := httpserver.NewServer(cfg.HTTPOptions)
	router.Register(httpSrv.Engine(), answerHandler, m.Handler())

	s.srv = server.NewManager(cfg.ShutdownTimeout)
	s.srv.AddServer(httpSrv)

	// 9. 服务注册，必须在 HTTP 服务之后启动
	if cfg.EtcdOptions != nil && cfg.EtcdOptions.Enabled {
		registrar, err := etcddiscovery.NewRegistrar(cfg.EtcdOptions, Name)
		if err != nil {
			s.close(context.Background())
			return nil, fmt.Errorf("failed to initialize etcd registrar: %w", err)
		}
		s.srv.AddServer(registrar)
	}

	logger.Info("RAG answer service is ready")
	return s, nil
}

// newAnswerCache 构造缓存后端。Redis 不可用时降级为内存缓存。
func (s *Server) newAnswerCache(ctx context.Context, opts *cacheopts.Options, m *metrics.Metrics) biz.AnswerCache {
	if !opts.Enabled {
		logger.Info("Answer cache is disabled")
		return nil
	}

	if opts.Backend == cacheopts.BackendRedis {
		client, err := redis.NewWithContext(ctx, opts.Redis)
		if err == nil {
			s.onClose(func(context.Context) { _ = client.Close() })
			logger.Infow("Redis answer cache initialized",
				"addr", opts.Redis.Addr(),
				"ttl", opts.TTL,
				"key_prefix", opts.KeyPrefix,
			)
			return biz.NewRedisCache(client.Client(), biz.RedisCacheConfig{
				TTL:       opts.TTL,
				KeyPrefix: opts.KeyPrefix,
			})
		}
		logger.Warnw("failed to connect to redis, falling back to memory cache", "error", err.Error())
	}

	logger.Infow("Memory answer cache initialized", "ttl", opts.TTL, "max_entries", opts.MaxEntries)
	return biz.NewMemoryCache(opts.TTL,
		biz.WithMaxEntries(opts.MaxEntries),
		biz.WithEvictionHook(m.RecordCacheEviction),
	)
}

// Orchestrator returns the answer orchestrator.
func (s *Server) Orchestrator() *biz.Orchestrator {
	return s.orchestrator
}

// Run starts the server and blocks until ctx is canceled or a termination
// signal arrives.
func (s *Server) Run(ctx context.Context) error {
	defer s.close(context.Background())
	return s.srv.Run(ctx)
}

func (s *Server) onClose(fn func(context.Context)) {
	s.closers = append(s.closers, fn)
}

// close 按初始化的逆序释放资源。
func (s *Server) close(ctx context.Context) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i](ctx)
	}
	s.closers = nil
}

func printBanner(cfg *Config) {
	fmt.Printf("Starting %s...\n", Name)
	fmt.Printf("  HTTP: %s\n", cfg.HTTPOptions.Addr)
	fmt.Printf("  Provider: %s (%s)\n", cfg.RAGOptions.Provider, cfg.RAGOptions.Model)
	fmt.Printf("  Cache: enabled=%t backend=%s\n", cfg.CacheOptions.Enabled, cfg.CacheOptions.Backend)
	fmt.Printf("  Document store: %s\n", cfg.DocStoreOptions.Type)
}
