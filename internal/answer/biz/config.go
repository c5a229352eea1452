package biz

import (
	"time"

	cacheopts "github.com/kart-io/sentinel-rag/pkg/options/cache"
	ragopts "github.com/kart-io/sentinel-rag/pkg/options/rag"
)

// Config 回答流水线配置，构造后只读。
type Config struct {
	// Enabled 总开关，关闭时所有请求返回固定的禁用提示。
	Enabled bool
	// Provider 配置中请求的供应商名称。
	Provider string
	// ModelName 远程模型名称。
	ModelName string
	// MaxContextTokens 上下文 token 预算。
	MaxContextTokens int
	// TopKDocs 默认参与生成的文档数。
	TopKDocs int
	// Temperature 采样温度 (0-2)。
	Temperature float64
	// MaxResponseTokens 回答最大 token 数。
	MaxResponseTokens int
	// CacheEnabled 是否启用回答缓存。
	CacheEnabled bool
	// CacheTTL 缓存条目有效期。
	CacheTTL time.Duration
}

// DefaultConfig 返回默认配置。
func DefaultConfig() Config {
	return Config{
		Enabled:           true,
		Provider:          "deepseek",
		ModelName:         "deepseek-reasoner",
		MaxContextTokens:  3000,
		TopKDocs:          3,
		Temperature:       0.7,
		MaxResponseTokens: 500,
		CacheEnabled:      true,
		CacheTTL:          3600 * time.Second,
	}
}

// NewConfig 由选项构造配置。
func NewConfig(rag *ragopts.Options, cache *cacheopts.Options) Config {
	cfg := DefaultConfig()
	if rag != nil {
		cfg.Enabled = rag.Enabled
		cfg.Provider = rag.Provider
		cfg.ModelName = rag.Model
		cfg.MaxContextTokens = rag.MaxContextTokens
		cfg.TopKDocs = rag.TopKDocs
		cfg.Temperature = rag.Temperature
		cfg.MaxResponseTokens = rag.MaxResponseTokens
	}
	if cache != nil {
		cfg.CacheEnabled = cache.Enabled
		cfg.CacheTTL = cache.TTL
	}
	return cfg
}
