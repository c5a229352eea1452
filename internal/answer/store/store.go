package store

import (
	"context"
	"fmt"
	"time"

	"github.com/kart-io/sentinel-rag/internal/answer/biz"
	"github.com/kart-io/sentinel-rag/pkg/options/docstore"
)

// Store 可关闭的文档查询实现。
type Store interface {
	biz.DocumentLookup
	// Name 返回存储类型名称。
	Name() string
	// Close 释放底层连接。
	Close(ctx context.Context) error
}

// New 根据配置创建文档存储。
// 类型为 none 时返回 nil，上下文构建器直接使用检索文本。
func New(ctx context.Context, opts *docstore.Options) (Store, error) {
	if opts == nil {
		return nil, nil
	}
	if errs := opts.Validate(); len(errs) > 0 {
		return nil, fmt.Errorf("invalid docstore options: %w", errs[0])
	}

	switch opts.Type {
	case docstore.TypeNone, "":
		return nil, nil
	case docstore.TypeMemory:
		return NewMemoryStoreFromFile(opts.SeedFile)
	case docstore.TypeMySQL, docstore.TypePostgres, docstore.TypeSQLite:
		return NewSQLStore(ctx, opts.Type, opts.SQL, opts.Timeout)
	case docstore.TypeMongoDB:
		return NewMongoStore(ctx, opts.Mongo, opts.Timeout)
	case docstore.TypeMilvus:
		return NewMilvusStore(ctx, opts.Milvus, opts.Timeout)
	default:
		return nil, fmt.Errorf("unsupported docstore type %q", opts.Type)
	}
}

// withTimeout 为单次查询附加超时，timeout 非正时不限制。
func withTimeout(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}
