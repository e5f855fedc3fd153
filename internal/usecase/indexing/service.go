// Package indexing maintains the persisted keyword arrays that back the
// keyword search strategy. Documents are indexed at save time; legacy
// documents that predate keyword indexing are picked up by reindexing.
package indexing

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/arsomjin/kbnsearch/internal/logger"
)

// Collection is the per-collection contract for keyword maintenance.
type Collection interface {
	Collection() string
	IndexKeywords(ctx context.Context, id string) ([]string, error)
	FindUnindexed(ctx context.Context, limit int) ([]string, error)
}

// DefaultBatchSize bounds one reindex pass.
const DefaultBatchSize = 200

// Service indexes documents across the registered collections.
type Service struct {
	collections map[string]Collection
	batchSize   int
}

// New creates an indexing service over the given collections.
func New(collections ...Collection) *Service {
	m := make(map[string]Collection, len(collections))
	for _, c := range collections {
		m[c.Collection()] = c
	}
	return &Service{collections: m, batchSize: DefaultBatchSize}
}

// Index recomputes and persists the keyword set for one document, returning
// the computed keywords.
func (s *Service) Index(ctx context.Context, collection, id string) ([]string, error) {
	c, ok := s.collections[collection]
	if !ok {
		return nil, fmt.Errorf("unknown collection %q", collection)
	}
	kws, err := c.IndexKeywords(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("index %s/%s: %w", collection, id, err)
	}
	return kws, nil
}

// ReindexMissing indexes one batch of documents that lack a keyword array
// and reports how many were indexed. Per-document failures are logged and
// skipped so one bad record never stalls the batch.
func (s *Service) ReindexMissing(ctx context.Context, collection string) (int, error) {
	c, ok := s.collections[collection]
	if !ok {
		return 0, fmt.Errorf("unknown collection %q", collection)
	}

	ids, err := c.FindUnindexed(ctx, s.batchSize)
	if err != nil {
		return 0, fmt.Errorf("find unindexed %s: %w", collection, err)
	}

	indexed := 0
	for _, id := range ids {
		if _, err := c.IndexKeywords(ctx, id); err != nil {
			logger.FromContext(ctx).Warn("reindex skipped document",
				zap.String("collection", collection),
				zap.String("id", id),
				zap.Error(err),
			)
			continue
		}
		indexed++
	}
	return indexed, nil
}

// Collections lists the registered collection names.
func (s *Service) Collections() []string {
	names := make([]string, 0, len(s.collections))
	for name := range s.collections {
		names = append(names, name)
	}
	return names
}
