// Package llm 提供回答生成后端抽象：本地桩后端与 OpenAI 兼容远程后端。
package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// Backend 将提示词转换为回答文本。
//
// Generate 不返回错误：传输、协议与解码失败都在后端边界内转换为描述性文本。
type Backend interface {
	Generate(ctx context.Context, prompt string, temperature float64) string
	Name() string
}

// Kind 后端类型。
type Kind string

const (
	// KindStub 本地确定性桩后端。
	KindStub Kind = "stub"
	// KindRemote OpenAI 兼容远程后端。
	KindRemote Kind = "remote"
)

// Outcome 后端选择结果。
type Outcome string

const (
	// OutcomeConstructed 请求的后端构造成功。
	OutcomeConstructed Outcome = "constructed"
	// OutcomeDegradedToStub 请求的后端不可用，已降级为桩后端。
	OutcomeDegradedToStub Outcome = "degraded_to_stub"
)

// ErrMissingAPIKey 远程后端缺少凭据。
var ErrMissingAPIKey = errors.New("api key is not configured")

// Config 后端构造参数。
type Config struct {
	// Model 远程模型名称。
	Model string
	// MaxTokens 回答最大 token 数。
	MaxTokens int
	// BaseURL 远程 API 基础地址。
	BaseURL string
	// APIKey 远程 API 凭据。
	APIKey string
	// Timeout 单次请求超时。
	Timeout time.Duration
	// MaxRetries 最大重试次数。
	MaxRetries int
	// Label 供应商展示名，用于远程后端的错误文本。
	Label string
}

// Factory 后端工厂函数。
type Factory func(cfg Config) (Backend, error)

var (
	factoriesMu sync.RWMutex
	factories   = map[Kind]Factory{
		KindStub: func(Config) (Backend, error) { return NewStub(), nil },
	}
)

// RegisterBackend 注册后端工厂，重复注册覆盖旧值。
func RegisterBackend(kind Kind, factory Factory) {
	factoriesMu.Lock()
	defer factoriesMu.Unlock()
	factories[kind] = factory
}

// vendor 供应商别名。
type vendor struct {
	kind  Kind
	label string
}

var vendors = map[string]vendor{
	"stub":     {KindStub, "Stub"},
	"mock":     {KindStub, "Stub"},
	"remote":   {KindRemote, "DeepSeek"},
	"deepseek": {KindRemote, "DeepSeek"},
	"openai":   {KindRemote, "OpenAI"},
}

// ParseKind 解析供应商名称，返回后端类型与默认展示名。
func ParseKind(provider string) (Kind, string, error) {
	v, ok := vendors[strings.ToLower(strings.TrimSpace(provider))]
	if !ok {
		return "", "", fmt.Errorf("unknown llm provider %q", provider)
	}
	return v.kind, v.label, nil
}

// Selection 后端选择结果。
type Selection struct {
	// Backend 实际使用的后端，始终非空。
	Backend Backend
	// Requested 配置中请求的供应商名称。
	Requested string
	// Kind 实际使用的后端类型。
	Kind Kind
	// Outcome 构造成功或降级。
	Outcome Outcome
	// Reason 降级原因，构造成功时为 nil。
	Reason error
}

// Degraded 是否已降级为桩后端。
func (s Selection) Degraded() bool {
	return s.Outcome == OutcomeDegradedToStub
}

// Select 按供应商名称构造后端。未知供应商、缺少凭据或构造失败时降级为桩后端。
func Select(provider string, cfg Config) Selection {
	degrade := func(reason error) Selection {
		return Selection{
			Backend:   NewStub(),
			Requested: provider,
			Kind:      KindStub,
			Outcome:   OutcomeDegradedToStub,
			Reason:    reason,
		}
	}

	kind, label, err := ParseKind(provider)
	if err != nil {
		return degrade(err)
	}
	if cfg.Label == "" {
		cfg.Label = label
	}

	factoriesMu.RLock()
	factory, ok := factories[kind]
	factoriesMu.RUnlock()
	if !ok {
		return degrade(fmt.Errorf("no backend registered for kind %q", kind))
	}

	backend, err := factory(cfg)
	if err != nil {
		return degrade(fmt.Errorf("construct %s backend: %w", kind, err))
	}
	if backend == nil {
		return degrade(fmt.Errorf("construct %s backend: factory returned nil", kind))
	}

	return Selection{
		Backend:   backend,
		Requested: provider,
		Kind:      kind,
		Outcome:   OutcomeConstructed,
	}
}
