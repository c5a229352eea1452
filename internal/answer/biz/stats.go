package biz

import (
	"context"

	"github.com/kart-io/logger"
)

// Stats 只读运行状态快照。
type Stats struct {
	Enabled      bool         `json:"enabled"`
	LLMProvider  string       `json:"llm_provider"`
	ModelName    string       `json:"model_name"`
	CacheEnabled bool         `json:"cache_enabled"`
	CacheSize    int          `json:"cache_size"`
	CacheBackend string       `json:"cache_backend,omitempty"`
	Config       StatsConfig  `json:"config"`
	Backend      BackendStats `json:"backend"`
}

// StatsConfig 配置回显。
type StatsConfig struct {
	MaxContextTokens  int     `json:"max_context_tokens"`
	TopKDocs          int     `json:"top_k_docs"`
	Temperature       float64 `json:"temperature"`
	MaxResponseTokens int     `json:"max_response_tokens"`
}

// BackendStats 后端选择结果。
type BackendStats struct {
	Requested string `json:"requested"`
	Active    string `json:"active"`
	Outcome   string `json:"outcome"`
	Reason    string `json:"reason,omitempty"`
}

// Stats 返回运行状态快照。缓存大小获取失败时记为 0。
func (o *Orchestrator) Stats(ctx context.Context) Stats {
	s := Stats{
		Enabled:      o.config.Enabled,
		LLMProvider:  o.config.Provider,
		ModelName:    o.config.ModelName,
		CacheEnabled: o.config.CacheEnabled,
		Config: StatsConfig{
			MaxContextTokens:  o.config.MaxContextTokens,
			TopKDocs:          o.config.TopKDocs,
			Temperature:       o.config.Temperature,
			MaxResponseTokens: o.config.MaxResponseTokens,
		},
		Backend: BackendStats{
			Requested: o.selection.Requested,
			Active:    string(o.selection.Kind),
			Outcome:   string(o.selection.Outcome),
		},
	}
	if o.selection.Reason != nil {
		s.Backend.Reason = o.selection.Reason.Error()
	}

	if o.cache != nil {
		s.CacheBackend = o.cache.Name()
		n, err := o.cache.Len(ctx)
		if err != nil {
			logger.Warnw("failed to get answer cache size", "error", err.Error())
		} else {
			s.CacheSize = n
		}
	}
	return s
}

// ClearCache 清空回答缓存，未启用缓存时为空操作。
func (o *Orchestrator) ClearCache(ctx context.Context) error {
	if o.cache == nil {
		return nil
	}
	return o.cache.Clear(ctx)
}
