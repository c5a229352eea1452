package store

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kart-io/sentinel-rag/internal/answer/biz"
	"github.com/kart-io/sentinel-rag/internal/model"
	"github.com/kart-io/sentinel-rag/pkg/options/docstore"
)

func TestMemoryStore_GetDocument(t *testing.T) {
	s := NewMemoryStore(
		model.Document{ID: "a", Content: "full a"},
		model.Document{ID: "", Content: "ignored"},
	)
	ctx := context.Background()

	content, found, err := s.GetDocument(ctx, "a")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "full a", content)

	_, found, err = s.GetDocument(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, 1, s.Len())
	assert.Equal(t, "memory", s.Name())
}

func TestNewMemoryStoreFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "seed.json")
	seed := `[{"id":"doc-1","content":"机器学习是人工智能的一个分支"},{"id":"doc-2","content":"深度学习"}]`
	require.NoError(t, os.WriteFile(path, []byte(seed), 0o600))

	s, err := NewMemoryStoreFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, 2, s.Len())

	content, found, err := s.GetDocument(context.Background(), "doc-1")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "机器学习是人工智能的一个分支", content)
}

func TestNewMemoryStoreFromFile_Errors(t *testing.T) {
	_, err := NewMemoryStoreFromFile(filepath.Join(t.TempDir(), "absent.json"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))
	_, err = NewMemoryStoreFromFile(path)
	assert.Error(t, err)
}

func newSQLiteStore(t *testing.T) *SQLStore {
	t.Helper()
	opts := docstore.NewOptions().SQL
	opts.DSN = filepath.Join(t.TempDir(), "docs.db")
	opts.AutoMigrate = true

	s, err := NewSQLStore(context.Background(), docstore.TypeSQLite, opts, 5*time.Second)
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	return s
}

func TestSQLStore_GetDocument(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx,
		model.Document{ID: "a", Title: "A", Content: "content a"},
		model.Document{ID: "b", Content: "content b"},
	))

	content, found, err := s.GetDocument(ctx, "a")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "content a", content)

	_, found, err = s.GetDocument(ctx, "zzz")
	require.NoError(t, err)
	assert.False(t, found)
	assert.Equal(t, docstore.TypeSQLite, s.Name())
}

func TestSQLStore_UpsertOverwrites(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()

	require.NoError(t, s.Upsert(ctx, model.Document{ID: "a", Content: "v1"}))
	require.NoError(t, s.Upsert(ctx, model.Document{ID: "a", Content: "v2"}))
	require.NoError(t, s.Upsert(ctx))

	content, found, err := s.GetDocument(ctx, "a")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, "v2", content)
}

func TestSQLStore_FeedsContextBuilder(t *testing.T) {
	s := newSQLiteStore(t)
	ctx := context.Background()
	require.NoError(t, s.Upsert(ctx, model.Document{ID: "a", Content: "完整内容"}))

	b := biz.NewContextBuilder(s)
	got := b.Build(ctx, []model.RetrievedDocument{{ID: "a", Score: 0.5, Text: "摘要"}}, 1000)
	assert.Contains(t, got, "完整内容")
	assert.NotContains(t, got, "摘要")
}

func TestNewSQLStore_UnknownDriver(t *testing.T) {
	_, err := NewSQLStore(context.Background(), "oracle", docstore.NewOptions().SQL, time.Second)
	assert.Error(t, err)

	_, err = NewSQLStore(context.Background(), docstore.TypeSQLite, nil, time.Second)
	assert.Error(t, err)
}

func TestNew(t *testing.T) {
	ctx := context.Background()

	t.Run("nil options", func(t *testing.T) {
		s, err := New(ctx, nil)
		require.NoError(t, err)
		assert.Nil(t, s)
	})

	t.Run("none", func(t *testing.T) {
		s, err := New(ctx, docstore.NewOptions())
		require.NoError(t, err)
		assert.Nil(t, s)
	})

	t.Run("memory requires seed file", func(t *testing.T) {
		opts := docstore.NewOptions()
		opts.Type = docstore.TypeMemory
		_, err := New(ctx, opts)
		assert.Error(t, err)
	})

	t.Run("unsupported type", func(t *testing.T) {
		opts := docstore.NewOptions()
		opts.Type = "cassandra"
		_, err := New(ctx, opts)
		assert.Error(t, err)
	})

	t.Run("sqlite", func(t *testing.T) {
		opts := docstore.NewOptions()
		opts.Type = docstore.TypeSQLite
		opts.SQL.DSN = filepath.Join(t.TempDir(), "factory.db")
		opts.SQL.AutoMigrate = true

		s, err := New(ctx, opts)
		require.NoError(t, err)
		require.NotNil(t, s)
		defer s.Close(ctx)
		assert.Equal(t, docstore.TypeSQLite, s.Name())
	})
}

func TestIDFilter(t *testing.T) {
	assert.Equal(t, `id == "doc-1"`, idFilter("id", "doc-1"))
	assert.Equal(t, `pk == "a\"b\\c"`, idFilter("pk", `a"b\c`))
}
