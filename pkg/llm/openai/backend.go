// Package openai 实现 OpenAI 兼容的 chat completions 远程生成后端（DeepSeek、OpenAI 等）。
package openai

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/kart-io/logger"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/kart-io/sentinel-rag/pkg/llm"
	"github.com/kart-io/sentinel-rag/pkg/utils/httpclient"
	"github.com/kart-io/sentinel-rag/pkg/utils/json"
)

const (
	// DefaultBaseURL 默认 API 地址。
	DefaultBaseURL = "https://api.deepseek.com/v1"
	// DefaultLabel 默认供应商展示名。
	DefaultLabel = "DeepSeek"
)

func init() {
	llm.RegisterBackend(llm.KindRemote, func(cfg llm.Config) (llm.Backend, error) {
		return New(cfg)
	})
}

// chatRequest chat completions 请求体。
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
	Stream      bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// responseMessage 响应消息。ReasoningContent 仅推理模型返回。
type responseMessage struct {
	Role             string  `json:"role"`
	Content          *string `json:"content"`
	ReasoningContent *string `json:"reasoning_content,omitempty"`
}

// chatResponse chat completions 响应体。
type chatResponse struct {
	ID      string `json:"id"`
	Model   string `json:"model"`
	Choices []struct {
		Index        int             `json:"index"`
		Message      responseMessage `json:"message"`
		FinishReason string          `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int `json:"prompt_tokens"`
		CompletionTokens int `json:"completion_tokens"`
		TotalTokens      int `json:"total_tokens"`
	} `json:"usage"`
}

// Completion 解析后的首个候选结果。
type Completion struct {
	// Content 回答正文，可能为空。
	Content string
	// Reasoning 推理过程，未返回时为 nil。
	Reasoning *string
	// TotalTokens 本次调用消耗的 token 数。
	TotalTokens int
}

// ErrEmptyResponse 响应中没有任何候选结果。
var ErrEmptyResponse = errors.New("no choices in response")

// Backend OpenAI 兼容远程后端。
type Backend struct {
	cfg    llm.Config
	client *httpclient.Client
	tracer trace.Tracer
}

var _ llm.Backend = (*Backend)(nil)

// New 创建远程后端。凭据为空时返回 llm.ErrMissingAPIKey。
func New(cfg llm.Config, opts ...httpclient.Option) (*Backend, error) {
	if cfg.APIKey == "" {
		return nil, llm.ErrMissingAPIKey
	}
	if cfg.Model == "" {
		return nil, fmt.Errorf("model is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if cfg.Label == "" {
		cfg.Label = DefaultLabel
	}

	return &Backend{
		cfg:    cfg,
		client: httpclient.NewClient(cfg.Timeout, cfg.MaxRetries, opts...),
		tracer: otel.Tracer("github.com/kart-io/sentinel-rag/pkg/llm/openai"),
	}, nil
}

// Name 返回后端名称。
func (b *Backend) Name() string {
	return string(llm.KindRemote)
}

// Generate 调用远程 API 并渲染为回答文本，所有失败都转换为描述性文本。
func (b *Backend) Generate(ctx context.Context, prompt string, temperature float64) string {
	c, err := b.Complete(ctx, prompt, temperature)
	switch {
	case errors.Is(err, ErrEmptyResponse):
		return b.cfg.Label + " API返回空响应"
	case err != nil:
		logger.Global().WithCtx(ctx).Errorw("remote generation failed",
			"backend", b.cfg.Label,
			"model", b.cfg.Model,
			"error", err.Error(),
		)
		return fmt.Sprintf("%s API调用失败: %v", b.cfg.Label, err)
	}

	content := c.Content
	if content == "" {
		content = b.cfg.Label + " API返回空内容"
	}
	if c.Reasoning != nil && *c.Reasoning != "" {
		return fmt.Sprintf("推理过程:\n%s\n\n最终答案:\n%s", *c.Reasoning, content)
	}
	return content
}

// Complete 发送单条用户消息并返回首个候选结果。
func (b *Backend) Complete(ctx context.Context, prompt string, temperature float64) (*Completion, error) {
	ctx, span := b.tracer.Start(ctx, "llm.chat_completions",
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("llm.vendor", b.cfg.Label),
			attribute.String("llm.model", b.cfg.Model),
			attribute.Float64("llm.temperature", temperature),
		),
	)
	defer span.End()

	c, err := b.complete(ctx, prompt, temperature)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("llm.total_tokens", c.TotalTokens))
	return c, nil
}

func (b *Backend) complete(ctx context.Context, prompt string, temperature float64) (*Completion, error) {
	body, err := json.Marshal(chatRequest{
		Model:       b.cfg.Model,
		Messages:    []chatMessage{{Role: "user", Content: prompt}},
		Temperature: temperature,
		MaxTokens:   b.cfg.MaxTokens,
		Stream:      false,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.cfg.BaseURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	b.setHeaders(req)

	var resp chatResponse
	if err := b.client.DoJSON(req, &resp); err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, ErrEmptyResponse
	}

	msg := resp.Choices[0].Message
	c := &Completion{
		Reasoning:   msg.ReasoningContent,
		TotalTokens: resp.Usage.TotalTokens,
	}
	if msg.Content != nil {
		c.Content = *msg.Content
	}
	return c, nil
}

// setHeaders 设置请求头。
func (b *Backend) setHeaders(req *http.Request) {
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+b.cfg.APIKey)
}
