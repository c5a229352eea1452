package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	mongoopts "go.mongodb.org/mongo-driver/mongo/options"

	"github.com/kart-io/sentinel-rag/internal/model"
	"github.com/kart-io/sentinel-rag/pkg/options/docstore"
)

var _ Store = (*MongoStore)(nil)

// MongoStore 基于 MongoDB 的文档存储，文档以 _id 为主键。
type MongoStore struct {
	client  *mongo.Client
	coll    *mongo.Collection
	timeout time.Duration
}

// NewMongoStore 连接 MongoDB 并执行一次 Ping。
func NewMongoStore(ctx context.Context, opts *docstore.MongoOptions, timeout time.Duration) (*MongoStore, error) {
	if opts == nil {
		return nil, fmt.Errorf("mongodb options cannot be nil")
	}

	connectCtx, cancel := withTimeout(ctx, timeout)
	defer cancel()

	clientOpts := mongoopts.Client().ApplyURI(opts.URI)
	if timeout > 0 {
		clientOpts.SetConnectTimeout(timeout)
	}
	client, err := mongo.Connect(connectCtx, clientOpts)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to mongodb: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("failed to ping mongodb: %w", err)
	}

	return &MongoStore{
		client:  client,
		coll:    client.Database(opts.Database).Collection(opts.Collection),
		timeout: timeout,
	}, nil
}

// Name 实现 Store。
func (s *MongoStore) Name() string {
	return "mongodb"
}

// GetDocument 实现 biz.DocumentLookup。
func (s *MongoStore) GetDocument(ctx context.Context, id string) (string, bool, error) {
	ctx, cancel := withTimeout(ctx, s.timeout)
	defer cancel()

	var doc model.Document
	err := s.coll.FindOne(ctx, bson.M{"_id": id},
		mongoopts.FindOne().SetProjection(bson.M{"content": 1})).Decode(&doc)
	if errors.Is(err, mongo.ErrNoDocuments) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("find document %s: %w", id, err)
	}
	return doc.Content, true, nil
}

// Close 实现 Store。
func (s *MongoStore) Close(ctx context.Context) error {
	return s.client.Disconnect(ctx)
}
