package store

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/milvus-io/milvus/client/v2/column"
	"github.com/milvus-io/milvus/client/v2/milvusclient"

	"github.com/kart-io/sentinel-rag/pkg/options/docstore"
)

var _ Store = (*MilvusStore)(nil)

// MilvusStore 从 Milvus 集合中按主键读取文档内容。
type MilvusStore struct {
	client       *milvusclient.Client
	collection   string
	idField      string
	contentField string
	timeout      time.Duration
}

// NewMilvusStore 连接 Milvus 并加载集合。
func NewMilvusStore(ctx context.Context, opts *docstore.MilvusOptions, timeout time.Duration) (*MilvusStore, error) {
	if opts == nil {
		return nil, fmt.Errorf("milvus options cannot be nil")
	}

	connectCtx, cancel := withTimeout(ctx, timeout)
	defer cancel()

	client, err := milvusclient.New(connectCtx, &milvusclient.ClientConfig{
		Address:  opts.Address,
		Username: opts.Username,
		Password: opts.Password,
		DBName:   opts.Database,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to milvus: %w", err)
	}

	loadTask, err := client.LoadCollection(connectCtx, milvusclient.NewLoadCollectionOption(opts.Collection))
	if err != nil {
		_ = client.Close(context.Background())
		return nil, fmt.Errorf("failed to load collection: %w", err)
	}
	if err := loadTask.Await(connectCtx); err != nil {
		_ = client.Close(context.Background())
		return nil, fmt.Errorf("failed to wait for collection loading: %w", err)
	}

	return &MilvusStore{
		client:       client,
		collection:   opts.Collection,
		idField:      opts.IDField,
		contentField: opts.ContentField,
		timeout:      timeout,
	}, nil
}

// Name 实现 Store。
func (s *MilvusStore) Name() string {
	return "milvus"
}

// GetDocument 实现 biz.DocumentLookup。
func (s *MilvusStore) GetDocument(ctx context.Context, id string) (string, bool, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	rs, err := s.client.Query(ctx, milvusclient.NewQueryOption(s.collection).
		WithFilter(idFilter(s.idField, id)).
		WithOutputFields(s.contentField))
	if err != nil {
		return "", false, fmt.Errorf("query document %s: %w", id, err)
	}
	c := rs.GetColumn(s.contentField)
	if c == nil || c.Len() == 0 {
		return "", false, nil
	}
	col, ok := c.(*column.ColumnVarChar)
	if !ok {
		return "", false, fmt.Errorf("field %s of collection %s is not a varchar column", s.contentField, s.collection)
	}
	return col.Data()[0], true, nil
}

// Close 实现 Store。
func (s *MilvusStore) Close(ctx context.Context) error {
	return s.client.Close(ctx)
}

var filterEscaper = strings.NewReplacer(`\`, `\\`, `"`, `\"`)

// idFilter 构造主键等值过滤表达式，例如 id == "doc-1"。
func idFilter(field, id string) string {
	return fmt.Sprintf(`%s == "%s"`, field, filterEscaper.Replace(id))
}
