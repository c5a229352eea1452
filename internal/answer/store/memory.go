package store

import (
	"context"
	"fmt"
	"os"

	"github.com/kart-io/sentinel-rag/internal/model"
	"github.com/kart-io/sentinel-rag/pkg/cache"
	"github.com/kart-io/sentinel-rag/pkg/utils/json"
)

var _ Store = (*MemoryStore)(nil)

// MemoryStore 基于内存的文档存储，数据来自 JSON 种子文件。
type MemoryStore struct {
	docs *cache.MemoryCache[string, model.Document]
}

// NewMemoryStore 使用给定文档创建内存存储，ID 为空的文档被忽略。
func NewMemoryStore(docs ...model.Document) *MemoryStore {
	s := &MemoryStore{docs: cache.NewMemoryCache[string, model.Document]()}
	s.Put(docs...)
	return s
}

// NewMemoryStoreFromFile 从 JSON 数组文件加载文档。
func NewMemoryStoreFromFile(path string) (*MemoryStore, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}

	var docs []model.Document
	if err := json.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("decode seed file %s: %w", path, err)
	}
	return NewMemoryStore(docs...), nil
}

// Put 写入或覆盖文档。
func (s *MemoryStore) Put(docs ...model.Document) {
	valid := make([]model.Document, 0, len(docs))
	for _, d := range docs {
		if d.ID != "" {
			valid = append(valid, d)
		}
	}
	s.docs.Load(valid, func(d model.Document) string { return d.ID })
}

// Len 返回文档数量。
func (s *MemoryStore) Len() int {
	return s.docs.Len()
}

// Name 实现 Store。
func (s *MemoryStore) Name() string {
	return "memory"
}

// GetDocument 实现 biz.DocumentLookup。
func (s *MemoryStore) GetDocument(_ context.Context, id string) (string, bool, error) {
	doc, ok := s.docs.Get(id)
	if !ok {
		return "", false, nil
	}
	return doc.Content, true, nil
}

// Close 实现 Store。
func (s *MemoryStore) Close(context.Context) error {
	return nil
}
