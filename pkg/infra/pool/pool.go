package pool

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/kart-io/logger"
	"github.com/panjf2000/ants/v2"
)

// Config 协程池配置。
type Config struct {
	// Capacity 最大并发 goroutine 数
	Capacity int
	// ExpiryDuration 空闲 worker 回收时间
	ExpiryDuration time.Duration
	// Nonblocking 池满时立即拒绝而不是等待
	Nonblocking bool
	// PanicHandler 任务 panic 后的回调，默认记录错误日志
	PanicHandler func(any)
}

// Pool 基于 ants 的有界协程池。
type Pool struct {
	name string
	pool *ants.Pool
}

// NewPool 创建协程池。
func NewPool(name string, config *Config) (*Pool, error) {
	if config == nil {
		config = &Config{Capacity: 8, ExpiryDuration: 10 * time.Second}
	}
	if config.Capacity <= 0 {
		return nil, fmt.Errorf("pool %s: capacity must be positive, got %d", name, config.Capacity)
	}

	onPanic := config.PanicHandler
	if onPanic == nil {
		onPanic = func(r any) {
			logger.Errorw("Worker panic recovered", "pool", name, "panic", r)
		}
	}

	pool, err := ants.NewPool(config.Capacity,
		ants.WithExpiryDuration(config.ExpiryDuration),
		ants.WithNonblocking(config.Nonblocking),
		ants.WithPanicHandler(onPanic),
	)
	if err != nil {
		return nil, fmt.Errorf("创建 ants 池失败: %w", err)
	}

	logger.Infow("Worker pool created", "name", name, "capacity", config.Capacity)
	return &Pool{name: name, pool: pool}, nil
}

// Cap 返回池容量，nil 池为 0。
func (p *Pool) Cap() int {
	if p == nil {
		return 0
	}
	return p.pool.Cap()
}

func (p *Pool) submit(task func()) error {
	if err := p.pool.Submit(task); err != nil {
		switch {
		case errors.Is(err, ants.ErrPoolOverload):
			return ErrPoolOverload
		case errors.Is(err, ants.ErrPoolClosed):
			return ErrPoolClosed
		}
		return err
	}
	return nil
}

// ForEach 在池上执行 fn(0..n-1) 并等待全部完成。
// 提交被拒绝的下标在调用方协程中执行，保证每个下标都被处理一次。
// nil 池顺序执行。返回在调用方协程中执行的下标数。
func (p *Pool) ForEach(n int, fn func(i int)) int {
	if p == nil {
		for i := 0; i < n; i++ {
			fn(i)
		}
		return n
	}

	var wg sync.WaitGroup
	inline := 0
	for i := 0; i < n; i++ {
		wg.Add(1)
		task := func() {
			defer wg.Done()
			fn(i)
		}
		if err := p.submit(task); err != nil {
			logger.Warnw("pool rejected task, running inline", "pool", p.name, "index", i, "error", err.Error())
			inline++
			task()
		}
	}
	wg.Wait()
	return inline
}

// Release 关闭池，重复调用无副作用。
func (p *Pool) Release() {
	if p == nil || p.pool.IsClosed() {
		return
	}
	p.pool.Release()
	logger.Infow("Worker pool released", "name", p.name)
}
