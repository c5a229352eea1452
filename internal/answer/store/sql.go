package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/kart-io/sentinel-rag/internal/model"
	"github.com/kart-io/sentinel-rag/pkg/options/docstore"
)

var _ Store = (*SQLStore)(nil)

// SQLStore 基于 GORM 的文档存储，支持 MySQL、PostgreSQL 与 SQLite。
type SQLStore struct {
	db      *gorm.DB
	driver  string
	timeout time.Duration
}

// NewSQLStore 打开数据库连接并校验连通性。
func NewSQLStore(ctx context.Context, driver string, opts *docstore.SQLOptions, timeout time.Duration) (*SQLStore, error) {
	if opts == nil {
		return nil, fmt.Errorf("sql options cannot be nil")
	}

	var dialector gorm.Dialector
	switch driver {
	case docstore.TypeMySQL:
		dialector = mysql.Open(opts.DSN)
	case docstore.TypePostgres:
		dialector = postgres.Open(opts.DSN)
	case docstore.TypeSQLite:
		dialector = sqlite.Open(opts.DSN)
	default:
		return nil, fmt.Errorf("unsupported sql driver %q", driver)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: NewGormLogger(gormlogger.Warn, opts.SlowThreshold),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", driver, err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get sql.DB: %w", err)
	}
	maxOpen := opts.MaxOpenConns
	if driver == docstore.TypeSQLite {
		// SQLite 只允许单写连接，内存库在多连接下也不共享数据。
		maxOpen = 1
	}
	if maxOpen > 0 {
		sqlDB.SetMaxOpenConns(maxOpen)
	}
	if opts.MaxIdleConns > 0 {
		sqlDB.SetMaxIdleConns(opts.MaxIdleConns)
	}
	if opts.ConnMaxLifetime > 0 {
		sqlDB.SetConnMaxLifetime(opts.ConnMaxLifetime)
	}

	pingCtx, cancel := withTimeout(ctx, timeout)
	defer cancel()
	if err := sqlDB.PingContext(pingCtx); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", driver, err)
	}

	s := &SQLStore{db: db, driver: driver, timeout: timeout}
	if opts.AutoMigrate {
		if err := db.WithContext(ctx).AutoMigrate(&model.Document{}); err != nil {
			_ = sqlDB.Close()
			return nil, fmt.Errorf("failed to migrate documents table: %w", err)
		}
	}
	return s, nil
}

// Name 实现 Store。
func (s *SQLStore) Name() string {
	return s.driver
}

// GetDocument 实现 biz.DocumentLookup。
func (s *SQLStore) GetDocument(ctx context.Context, id string) (string, bool, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	var doc model.Document
	err := s.db.WithContext(ctx).Select("id", "content").Where("id = ?", id).Take(&doc).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("query document %s: %w", id, err)
	}
	return doc.Content, true, nil
}

// Upsert 写入文档，主键冲突时覆盖。
func (s *SQLStore) Upsert(ctx context.Context, docs ...model.Document) error {
	if len(docs) == 0 {
		return nil
	}
	return s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(&docs).Error
}

// Close 实现 Store。
func (s *SQLStore) Close(context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}
