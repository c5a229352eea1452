package biz

import (
	"context"

	"github.com/kart-io/sentinel-rag/internal/model"
	"github.com/kart-io/sentinel-rag/pkg/infra/pool"
)

// BatchItem 批量回答中的一项。
type BatchItem struct {
	Query   string
	Results []model.RetrievedDocument
	TopK    *int
}

// BatchAnswerer 在协程池上并发回答多个请求，结果保持输入顺序。
type BatchAnswerer struct {
	orch *Orchestrator
	pool *pool.Pool
}

// NewBatchAnswerer 创建批量回答器。p 为 nil 时顺序执行。
func NewBatchAnswerer(orch *Orchestrator, p *pool.Pool) *BatchAnswerer {
	return &BatchAnswerer{orch: orch, pool: p}
}

// AnswerBatch 返回与 items 一一对应的回答。
func (b *BatchAnswerer) AnswerBatch(ctx context.Context, items []BatchItem) []string {
	answers := make([]string, len(items))
	b.orch.metrics.RecordBatchItems(len(items))

	inline := b.pool.ForEach(len(items), func(i int) {
		answers[i] = b.orch.Answer(ctx, items[i].Query, items[i].Results, items[i].TopK)
	})
	if b.pool != nil {
		b.orch.metrics.RecordBatchInline(inline)
	}
	return answers
}
