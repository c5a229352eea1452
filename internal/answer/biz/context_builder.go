package biz

import (
	"context"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/kart-io/logger"

	"github.com/kart-io/sentinel-rag/internal/model"
)

const (
	// charsPerToken 粗略估算：1 个 token 约等于 4 个字符。
	charsPerToken = 4
	// minTruncateTokens 截断块至少保留的 token 数。
	minTruncateTokens = 100
	// ellipsis 截断标记。
	ellipsis = "..."
)

// DocumentLookup 按 ID 获取文档完整内容。
// 文档不存在时返回 found=false。
type DocumentLookup interface {
	GetDocument(ctx context.Context, id string) (content string, found bool, err error)
}

// LookupFunc 函数形式的 DocumentLookup。
type LookupFunc func(ctx context.Context, id string) (string, bool, error)

// GetDocument 实现 DocumentLookup。
func (f LookupFunc) GetDocument(ctx context.Context, id string) (string, bool, error) {
	return f(ctx, id)
}

// ContextBuilder 在 token 预算内将检索结果组装为上下文文本。
type ContextBuilder struct {
	lookup DocumentLookup
}

// NewContextBuilder 创建上下文构建器，lookup 可为 nil。
func NewContextBuilder(lookup DocumentLookup) *ContextBuilder {
	return &ContextBuilder{lookup: lookup}
}

// EstimateTokens 按字符数估算 token 数。
func EstimateTokens(text string) int {
	return utf8.RuneCountInString(text) / charsPerToken
}

// Build 按输入顺序组装上下文，不重新排序。
// 第一个超出预算的文档在剩余预算大于 100 时截断加入，然后停止。
func (b *ContextBuilder) Build(ctx context.Context, docs []model.RetrievedDocument, budget int) string {
	parts := make([]string, 0, len(docs))
	used := 0

	for i, doc := range docs {
		if !doc.Valid() {
			logger.Debugw("skip malformed retrieved document", "position", i+1)
			continue
		}

		content := b.resolve(ctx, doc)
		estimated := EstimateTokens(content)

		if used+estimated <= budget {
			parts = append(parts, formatBlock(i+1, doc, content))
			used += estimated
			continue
		}

		remaining := budget - used
		if remaining > minTruncateTokens {
			parts = append(parts, formatBlock(i+1, doc, truncateRunes(content, remaining*charsPerToken)+ellipsis))
		}
		break
	}

	return strings.Join(parts, "\n")
}

// resolve 获取完整内容，查找失败时回退到文档自带文本。
func (b *ContextBuilder) resolve(ctx context.Context, doc model.RetrievedDocument) string {
	if b == nil || b.lookup == nil {
		return doc.Text
	}

	content, found, err := b.lookup.GetDocument(ctx, doc.ID)
	if err != nil {
		logger.Debugw("document lookup failed, using retrieved text", "doc_id", doc.ID, "error", err.Error())
		return doc.Text
	}
	if !found || content == "" {
		return doc.Text
	}
	return content
}

func formatBlock(position int, doc model.RetrievedDocument, content string) string {
	return fmt.Sprintf("文档%d (ID: %s, 相关度: %.4f):\n%s\n", position, doc.ID, doc.Score, content)
}

func truncateRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	count := 0
	for i := range s {
		if count == n {
			return s[:i]
		}
		count++
	}
	return s
}
