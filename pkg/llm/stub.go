package llm

import (
	"context"
	"strings"
)

const stubFallback = "基于检索到的相关文档，我可以为您提供相关信息。请查看下方的具体文档内容以获取详细信息。"

// stubRules 按顺序匹配，首个命中生效。
var stubRules = []struct {
	trigger string
	answer  string
}{
	{"人工智能", "基于检索到的文档，人工智能是计算机科学的一个分支，致力于创建能够执行通常需要人类智能的任务的系统。"},
	{"机器学习", "机器学习是人工智能的一个子集，它使计算机能够在没有明确编程的情况下学习和改进。"},
	{"深度学习", "深度学习是机器学习的一个分支，使用多层神经网络来模拟人脑的学习过程。"},
}

// Stub 本地确定性后端，用于开发、测试与降级。
type Stub struct{}

// NewStub 创建桩后端。
func NewStub() *Stub {
	return &Stub{}
}

// Name 返回后端名称。
func (s *Stub) Name() string {
	return string(KindStub)
}

// Generate 对提示词做大小写不敏感的关键词匹配，返回固定回答。
func (s *Stub) Generate(_ context.Context, prompt string, _ float64) string {
	lower := strings.ToLower(prompt)
	for _, r := range stubRules {
		if strings.Contains(lower, r.trigger) {
			return r.answer
		}
	}
	return stubFallback
}
