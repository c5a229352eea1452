package biz

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/kart-io/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/kart-io/sentinel-rag/internal/answer/metrics"
	"github.com/kart-io/sentinel-rag/internal/model"
	"github.com/kart-io/sentinel-rag/pkg/infra/tracing"
	"github.com/kart-io/sentinel-rag/pkg/llm"
)

// 固定提示文本。
const (
	MsgDisabled    = "RAG功能已禁用"
	MsgNoDocuments = "未找到相关文档，无法生成回答。"

	msgPipelineError   = "RAG功能暂时不可用，请查看下方检索结果。错误信息: %v"
	msgGenerationError = "生成回答时出现错误: %v"
)

const tracerName = "github.com/kart-io/sentinel-rag/internal/answer/biz"

// Option 编排器选项。
type Option func(*Orchestrator)

// WithMetrics 设置指标收集器。
func WithMetrics(m *metrics.Metrics) Option {
	return func(o *Orchestrator) {
		o.metrics = m
	}
}

// WithContextBuilder 设置上下文构建器。
func WithContextBuilder(b *ContextBuilder) Option {
	return func(o *Orchestrator) {
		if b != nil {
			o.builder = b
		}
	}
}

// Orchestrator 串联缓存、上下文构建与生成后端。
type Orchestrator struct {
	config    Config
	selection llm.Selection
	cache     AnswerCache
	builder   *ContextBuilder
	metrics   *metrics.Metrics
	tracer    trace.Tracer
}

// NewOrchestrator 创建编排器。cache 为 nil 或配置关闭缓存时不缓存。
// selection.Backend 为 nil 时使用桩后端。
func NewOrchestrator(cfg Config, selection llm.Selection, cache AnswerCache, opts ...Option) *Orchestrator {
	if selection.Backend == nil {
		selection = llm.Select(string(llm.KindStub), llm.Config{})
	}
	if !cfg.CacheEnabled {
		cache = nil
	}

	o := &Orchestrator{
		config:    cfg,
		selection: selection,
		cache:     cache,
		builder:   NewContextBuilder(nil),
		tracer:    otel.Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// Config 返回配置副本。
func (o *Orchestrator) Config() Config {
	return o.config
}

// Selection 返回后端选择结果。
func (o *Orchestrator) Selection() llm.Selection {
	return o.selection
}

// Result 单次回答的结果。
type Result struct {
	Answer string
	Cached bool
}

// Answer 生成回答。该方法不会失败：任何错误都转换为描述性文本。
// topK 为 nil 时使用配置的 TopKDocs。
func (o *Orchestrator) Answer(ctx context.Context, query string, results []model.RetrievedDocument, topK *int) string {
	return o.AnswerDetailed(ctx, query, results, topK).Answer
}

// AnswerDetailed 与 Answer 相同，另外报告是否命中缓存。
func (o *Orchestrator) AnswerDetailed(ctx context.Context, query string, results []model.RetrievedDocument, topK *int) Result {
	start := time.Now()

	if !o.config.Enabled {
		o.metrics.RecordRequest(metrics.OutcomeDisabled, time.Since(start))
		return Result{Answer: MsgDisabled}
	}
	if len(results) == 0 {
		o.metrics.RecordRequest(metrics.OutcomeNoDocuments, time.Since(start))
		return Result{Answer: MsgNoDocuments}
	}

	ctx, span := o.tracer.Start(ctx, "rag.answer")
	defer span.End()

	res, err := o.run(ctx, query, results, topK)
	if err != nil {
		tracing.RecordError(ctx, err)
		logger.Global().WithCtx(ctx).Errorw("RAG处理失败", "error", err.Error())
		o.metrics.RecordRequest(metrics.OutcomeFallback, time.Since(start))
		return Result{Answer: fmt.Sprintf(msgPipelineError, err)}
	}

	outcome := metrics.OutcomeGenerated
	if res.Cached {
		outcome = metrics.OutcomeCacheHit
	}
	span.SetAttributes(attribute.Bool("rag.cache_hit", res.Cached))
	o.metrics.RecordRequest(outcome, time.Since(start))
	return res
}

// run 执行截断、缓存查询、上下文构建、生成与缓存写入。
// 流水线中的 panic 转换为错误。
func (o *Orchestrator) run(ctx context.Context, query string, results []model.RetrievedDocument, topK *int) (res Result, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("%v", r)
		}
	}()

	k := o.config.TopKDocs
	if topK != nil {
		k = *topK
	}
	docs := truncate(results, k)

	var fp string
	if o.cache != nil {
		fp = Fingerprint(query, docs)
		answer, ok, err := o.cache.Lookup(ctx, fp)
		if err != nil {
			o.metrics.RecordCacheLookup(metrics.CacheError)
			return Result{}, fmt.Errorf("cache lookup: %w", err)
		}
		// 缓存的空回答视为未命中
		if ok && answer != "" {
			o.metrics.RecordCacheLookup(metrics.CacheHit)
			return Result{Answer: answer, Cached: true}, nil
		}
		o.metrics.RecordCacheLookup(metrics.CacheMiss)
	}

	contextText := o.builder.Build(ctx, docs, o.config.MaxContextTokens)
	answer := o.generate(ctx, BuildPrompt(query, contextText))

	if o.cache != nil {
		if err := o.cache.Store(ctx, fp, answer); err != nil {
			return Result{}, fmt.Errorf("cache store: %w", err)
		}
	}
	return Result{Answer: answer}, nil
}

// generate 调用后端并去除首尾空白，后端 panic 转换为错误提示文本。
func (o *Orchestrator) generate(ctx context.Context, prompt string) (answer string) {
	backend := o.selection.Backend
	start := time.Now()
	defer func() {
		o.metrics.RecordBackendCall(backend.Name(), time.Since(start))
		if r := recover(); r != nil {
			o.metrics.RecordBackendPanic()
			logger.Global().WithCtx(ctx).Errorw("LLM生成失败", "backend", backend.Name(), "panic", fmt.Sprint(r))
			answer = fmt.Sprintf(msgGenerationError, r)
		}
	}()

	return strings.TrimSpace(backend.Generate(ctx, prompt, o.config.Temperature))
}

func truncate(results []model.RetrievedDocument, k int) []model.RetrievedDocument {
	if k < 0 {
		k = 0
	}
	if k < len(results) {
		return results[:k]
	}
	return results
}
