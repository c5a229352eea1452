package biz

import (
	"context"
	"time"

	"github.com/kart-io/sentinel-rag/pkg/cache"
)

// AnswerCache 按指纹缓存生成的回答。
type AnswerCache interface {
	// Lookup 返回未过期的缓存回答，过期条目在读取时删除。
	Lookup(ctx context.Context, fingerprint string) (string, bool, error)
	// Store 写入或覆盖条目，创建时间为当前时间。
	Store(ctx context.Context, fingerprint, answer string) error
	// Clear 清空所有条目。
	Clear(ctx context.Context) error
	// Len 返回当前条目数。
	Len(ctx context.Context) (int, error)
	// Name 返回缓存后端名称。
	Name() string
}

// cacheEntry 缓存条目。
type cacheEntry struct {
	answer    string
	createdAt time.Time
}

// MemoryCacheOption 内存缓存选项。
type MemoryCacheOption func(*MemoryCache)

// WithClock 注入时钟，用于测试。
func WithClock(now func() time.Time) MemoryCacheOption {
	return func(c *MemoryCache) {
		c.now = now
	}
}

// WithMaxEntries 设置最大条目数，超出时淘汰最近最少使用的条目；0 表示不限制。
func WithMaxEntries(n int) MemoryCacheOption {
	return func(c *MemoryCache) {
		c.maxEntries = n
	}
}

// 淘汰原因。
const (
	EvictCapacity = "capacity"
	EvictExpired  = "expired"
)

// WithEvictionHook 在条目被淘汰时回调，参数为淘汰原因。
// 容量淘汰的回调在缓存锁内执行，不得回调缓存。
func WithEvictionHook(fn func(reason string)) MemoryCacheOption {
	return func(c *MemoryCache) {
		c.onEvict = fn
	}
}

// MemoryCache 进程内回答缓存，只在读取时按 TTL 惰性淘汰。
type MemoryCache struct {
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
	onEvict    func(reason string)
	store      *cache.MemoryCache[string, cacheEntry]
}

var _ AnswerCache = (*MemoryCache)(nil)

// NewMemoryCache 创建内存回答缓存。
func NewMemoryCache(ttl time.Duration, opts ...MemoryCacheOption) *MemoryCache {
	c := &MemoryCache{ttl: ttl, now: time.Now}
	for _, opt := range opts {
		opt(c)
	}
	storeOpts := []cache.Option[string, cacheEntry]{cache.WithCapacity[string, cacheEntry](c.maxEntries)}
	if c.onEvict != nil {
		storeOpts = append(storeOpts, cache.WithEvictCallback(func(string, cacheEntry) {
			c.onEvict(EvictCapacity)
		}))
	}
	c.store = cache.NewMemoryCache(storeOpts...)
	return c
}

// Name 返回缓存后端名称。
func (c *MemoryCache) Name() string {
	return "memory"
}

// Lookup 实现 AnswerCache。
func (c *MemoryCache) Lookup(_ context.Context, fingerprint string) (string, bool, error) {
	entry, ok := c.store.Get(fingerprint)
	if !ok {
		return "", false, nil
	}
	if c.now().Sub(entry.createdAt) >= c.ttl {
		// 只删除读到的那一条，避免误删并发写入的新条目
		removed := c.store.DelIf(fingerprint, func(e cacheEntry) bool {
			return e.createdAt.Equal(entry.createdAt)
		})
		if removed && c.onEvict != nil {
			c.onEvict(EvictExpired)
		}
		return "", false, nil
	}
	return entry.answer, true, nil
}

// Store 实现 AnswerCache。
func (c *MemoryCache) Store(_ context.Context, fingerprint, answer string) error {
	c.store.Set(fingerprint, cacheEntry{answer: answer, createdAt: c.now()})
	return nil
}

// Clear 实现 AnswerCache。
func (c *MemoryCache) Clear(_ context.Context) error {
	c.store.Clear()
	return nil
}

// Len 实现 AnswerCache。
func (c *MemoryCache) Len(_ context.Context) (int, error) {
	return c.store.Len(), nil
}
