// Package cache provides answer cache configuration options.
package cache

import (
	"fmt"
	"time"

	"github.com/spf13/pflag"

	"github.com/kart-io/sentinel-rag/pkg/options"
	redisopts "github.com/kart-io/sentinel-rag/pkg/options/redis"
)

var _ options.IOptions = (*Options)(nil)

// 缓存后端类型。
const (
	BackendMemory = "memory"
	BackendRedis  = "redis"
)

// Options 回答缓存配置。
type Options struct {
	// Enabled 是否启用缓存。
	Enabled bool `json:"enabled" mapstructure:"enabled"`

	// TTL 缓存过期时间。
	TTL time.Duration `json:"ttl" mapstructure:"ttl"`

	// Backend 缓存后端：memory 或 redis。
	Backend string `json:"backend" mapstructure:"backend"`

	// MaxEntries 内存缓存最大条目数，0 表示不限制。
	MaxEntries int `json:"max-entries" mapstructure:"max-entries"`

	// KeyPrefix Redis 缓存键前缀。
	KeyPrefix string `json:"key-prefix" mapstructure:"key-prefix"`

	// Redis Redis 连接配置。
	Redis *redisopts.Options `json:"redis" mapstructure:"redis"`
}

// NewOptions 创建默认缓存配置。
func NewOptions() *Options {
	return &Options{
		Enabled:   true,
		TTL:       3600 * time.Second,
		Backend:   BackendMemory,
		KeyPrefix: "rag:answer:",
		Redis:     redisopts.NewOptions(),
	}
}

// AddFlags adds flags for cache options to the specified FlagSet.
func (o *Options) AddFlags(fs *pflag.FlagSet, prefixes ...string) {
	p := options.Join(prefixes...) + "cache."
	fs.BoolVar(&o.Enabled, p+"enabled", o.Enabled, "Enable the answer cache.")
	fs.DurationVar(&o.TTL, p+"ttl", o.TTL, "Answer cache entry lifetime.")
	fs.StringVar(&o.Backend, p+"backend", o.Backend, "Answer cache backend (memory, redis).")
	fs.IntVar(&o.MaxEntries, p+"max-entries", o.MaxEntries, "Maximum entries of the memory cache, least recently used evicted first. 0 means unbounded.")
	fs.StringVar(&o.KeyPrefix, p+"key-prefix", o.KeyPrefix, "Key prefix of the redis cache backend.")

	if o.Redis == nil {
		o.Redis = redisopts.NewOptions()
	}
	o.Redis.AddFlags(fs, options.Join(prefixes...)+"cache")
}

// Validate validates the cache options.
func (o *Options) Validate() []error {
	if o == nil {
		return nil
	}

	var errs []error
	if o.TTL <= 0 {
		errs = append(errs, fmt.Errorf("cache.ttl must be positive"))
	}
	if o.MaxEntries < 0 {
		errs = append(errs, fmt.Errorf("cache.max-entries must not be negative"))
	}

	switch o.Backend {
	case BackendMemory:
	case BackendRedis:
		if o.KeyPrefix == "" {
			errs = append(errs, fmt.Errorf("cache.key-prefix cannot be empty for the redis backend"))
		}
		if o.Enabled && o.Redis != nil {
			errs = append(errs, o.Redis.Validate()...)
		}
	default:
		errs = append(errs, fmt.Errorf("cache.backend must be one of memory, redis, got %q", o.Backend))
	}
	return errs
}

// Complete completes the cache options with defaults.
func (o *Options) Complete() error {
	if o.Backend == "" {
		o.Backend = BackendMemory
	}
	if o.Redis == nil {
		o.Redis = redisopts.NewOptions()
	}
	return o.Redis.Complete()
}
