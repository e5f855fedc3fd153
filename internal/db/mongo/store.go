package mongo

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
	"go.mongodb.org/mongo-driver/mongo/readpref"

	"github.com/arsomjin/kbnsearch/internal/db"
)

// Compile-time check: Store implements db.Store.
var _ db.Store = (*Store)(nil)

// Config holds connection parameters for a MongoDB store.
type Config struct {
	URI      string
	Database string
}

// Store implements db.Store via mongo-driver.
type Store struct {
	client *mongo.Client
	db     *mongo.Database
}

// NewStore connects to MongoDB and returns a document store.
func NewStore(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.URI == "" {
		return nil, fmt.Errorf("uri is required")
	}
	if cfg.Database == "" {
		return nil, fmt.Errorf("database is required")
	}

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.URI))
	if err != nil {
		return nil, fmt.Errorf("failed to connect: %w", err)
	}

	return &Store{client: client, db: client.Database(cfg.Database)}, nil
}

// Ping checks connectivity against the primary.
func (s *Store) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx, readpref.Primary()); err != nil {
		return &db.Error{Op: db.OpPing, Err: err}
	}
	return nil
}

// Close disconnects the client.
func (s *Store) Close(ctx context.Context) error {
	if err := s.client.Disconnect(ctx); err != nil {
		return fmt.Errorf("disconnect: %w", err)
	}
	return nil
}

// WaitForReady polls Ping until the store responds or timeout expires.
func (s *Store) WaitForReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for database: %w", ctx.Err())
		case <-ticker.C:
			if err := s.Ping(ctx); err == nil {
				return nil
			}
		}
	}
}

// Find executes a query and returns matching records.
func (s *Store) Find(ctx context.Context, q *db.Query) ([]db.Record, error) {
	if q.Collection == "" {
		return nil, db.ErrInvalidCollection
	}

	filter, err := buildFilter(q.Constraints)
	if err != nil {
		return nil, err
	}

	opts := options.Find()
	if q.Limit > 0 {
		opts.SetLimit(int64(q.Limit))
	}
	if q.OrderBy != "" {
		opts.SetSort(sortSpec(q.OrderBy, q.Desc))
	}

	cur, err := s.db.Collection(q.Collection).Find(ctx, filter, opts)
	if err != nil {
		return nil, &db.Error{Op: db.OpFind, Err: err}
	}
	defer func() { _ = cur.Close(ctx) }()

	var records []db.Record
	for cur.Next(ctx) {
		var doc map[string]any
		if err := cur.Decode(&doc); err != nil {
			return nil, &db.Error{Op: db.OpFind, Err: err}
		}
		records = append(records, toRecord(doc))
	}
	if err := cur.Err(); err != nil {
		return nil, &db.Error{Op: db.OpFind, Err: err}
	}

	return records, nil
}

// UpdateFields sets the given fields on one document by id.
func (s *Store) UpdateFields(ctx context.Context, collection, id string, fields map[string]any) error {
	if collection == "" {
		return db.ErrInvalidCollection
	}

	set := make(map[string]any, len(fields))
	for k, v := range fields {
		set[k] = v
	}

	res, err := s.db.Collection(collection).UpdateOne(ctx,
		map[string]any{"_id": id},
		map[string]any{"$set": set},
	)
	if err != nil {
		return &db.Error{Op: db.OpUpdateFields, Err: err}
	}
	if res.MatchedCount == 0 {
		return db.ErrNotFound
	}
	return nil
}
