package llm

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStub_Generate(t *testing.T) {
	s := NewStub()
	ctx := context.Background()

	assert.Equal(t, "机器学习是人工智能的一个子集，它使计算机能够在没有明确编程的情况下学习和改进。",
		s.Generate(ctx, "什么是机器学习？", 0.7))
	assert.Equal(t, "深度学习是机器学习的一个分支，使用多层神经网络来模拟人脑的学习过程。",
		s.Generate(ctx, "深度学习", 0.7))
	assert.Equal(t, stubFallback, s.Generate(ctx, "hello", 0.7))

	// 人工智能 排在最前，同时包含多个关键词时优先命中
	assert.Equal(t, "基于检索到的文档，人工智能是计算机科学的一个分支，致力于创建能够执行通常需要人类智能的任务的系统。",
		s.Generate(ctx, "深度学习与人工智能", 0.7))
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		provider string
		kind     Kind
		label    string
		wantErr  bool
	}{
		{"stub", KindStub, "Stub", false},
		{"mock", KindStub, "Stub", false},
		{"DeepSeek", KindRemote, "DeepSeek", false},
		{"openai", KindRemote, "OpenAI", false},
		{"remote", KindRemote, "DeepSeek", false},
		{"anthropic", "", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.provider, func(t *testing.T) {
			kind, label, err := ParseKind(tt.provider)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.kind, kind)
			assert.Equal(t, tt.label, label)
		})
	}
}

func TestSelect_Stub(t *testing.T) {
	sel := Select("stub", Config{})
	assert.Equal(t, OutcomeConstructed, sel.Outcome)
	assert.Equal(t, KindStub, sel.Kind)
	assert.NoError(t, sel.Reason)
	assert.False(t, sel.Degraded())
}

func TestSelect_UnknownProviderDegrades(t *testing.T) {
	sel := Select("nope", Config{})
	assert.True(t, sel.Degraded())
	assert.Equal(t, "nope", sel.Requested)
	assert.Equal(t, KindStub, sel.Kind)
	require.NotNil(t, sel.Backend)
	assert.Error(t, sel.Reason)
}

func TestSelect_FactoryErrorDegrades(t *testing.T) {
	const kind Kind = "failing"
	RegisterBackend(kind, func(Config) (Backend, error) { return nil, ErrMissingAPIKey })
	vendors["failing"] = vendor{kind, "Failing"}
	defer delete(vendors, "failing")

	sel := Select("failing", Config{})
	assert.True(t, sel.Degraded())
	assert.True(t, errors.Is(sel.Reason, ErrMissingAPIKey))
	assert.Equal(t, stubFallback, sel.Backend.Generate(context.Background(), "x", 0))
}

type labelBackend struct{ label string }

func (b labelBackend) Generate(context.Context, string, float64) string { return b.label }
func (b labelBackend) Name() string { return "label" }

func TestSelect_FillsVendorLabel(t *testing.T) {
	const kind Kind = "labelled"
	RegisterBackend(kind, func(cfg Config) (Backend, error) { return labelBackend{cfg.Label}, nil })
	vendors["labelled"] = vendor{kind, "Labelled"}
	defer delete(vendors, "labelled")

	sel := Select("labelled", Config{})
	require.Equal(t, OutcomeConstructed, sel.Outcome)
	assert.Equal(t, "Labelled", sel.Backend.Generate(context.Background(), "", 0))

	sel = Select("labelled", Config{Label: "Custom"})
	assert.Equal(t, "Custom", sel.Backend.Generate(context.Background(), "", 0))
}
