// Package selector backs search-as-you-type option dropdowns. Each fetch is
// debounced upstream; this layer adds minimum-length gating, person-name
// fan-out, a short-TTL option cache, and stale-response sequencing so a slow
// earlier query can never overwrite a newer one's options.
package selector

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/arsomjin/kbnsearch/internal/domain/access"
	"github.com/arsomjin/kbnsearch/internal/domain/search/result"
	"github.com/arsomjin/kbnsearch/internal/domain/search/term"
	"github.com/arsomjin/kbnsearch/internal/logger"
	"github.com/arsomjin/kbnsearch/internal/metrics"
)

// ErrStale marks a fetch whose completion was superseded by a newer request
// on the same selector. Callers drop the response instead of rendering it.
var ErrStale = errors.New("selector: superseded by a newer request")

// Option is one selectable entry of a dropdown.
type Option struct {
	Label string `json:"label"`
	Value string `json:"value"`
}

// SearchFunc runs one sub-query against the search engine.
type SearchFunc func(ctx context.Context, term string, ac access.Context) []result.Result

// Cache is the consumer contract for the option cache.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	SetWithTTL(ctx context.Context, key string, value []byte, ttl time.Duration) error
}

// DefaultTTL keeps cached options fresh enough for typing bursts while
// absorbing repeated identical queries.
const DefaultTTL = 30 * time.Second

// Service resolves typed input into dropdown options for one selector kind.
type Service struct {
	kind      string
	search    SearchFunc
	cache     Cache
	minLength int
	ttl       time.Duration

	seq atomic.Uint64
}

// New creates a selector service. cache may be nil to disable option
// caching; ttl <= 0 falls back to DefaultTTL.
func New(kind string, search SearchFunc, cache Cache, minLength int, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &Service{
		kind:      kind,
		search:    search,
		cache:     cache,
		minLength: minLength,
		ttl:       ttl,
	}
}

// Fetch resolves input into options. Terms below the minimum length yield
// an empty list without querying. A fetch finishing after a newer one was
// issued returns ErrStale with no options.
func (s *Service) Fetch(ctx context.Context, input string, ac access.Context) ([]Option, error) {
	seq := s.seq.Add(1)

	t, ok := term.New(input, s.minLength)
	if !ok {
		return []Option{}, nil
	}

	key := s.cacheKey(t, ac)
	if opts, hit := s.fromCache(ctx, key); hit {
		if s.superseded(seq) {
			return nil, ErrStale
		}
		return opts, nil
	}

	opts := s.query(ctx, t, ac)

	if s.superseded(seq) {
		return nil, ErrStale
	}

	s.toCache(ctx, key, opts)
	return opts, nil
}

// query fans a person-name term out into one sub-query per token and unions
// the results; any other term runs as a single query.
func (s *Service) query(ctx context.Context, t term.Term, ac access.Context) []Option {
	queries := []string{t.Raw()}
	if t.LooksLikePersonName() {
		queries = t.Tokens()
	}

	seen := make(map[string]struct{})
	opts := make([]Option, 0, 16)
	for _, q := range queries {
		for _, r := range s.search(ctx, q, ac) {
			if _, dup := seen[r.ID]; dup {
				continue
			}
			seen[r.ID] = struct{}{}
			opts = append(opts, toOption(r))
		}
	}
	return opts
}

func (s *Service) superseded(seq uint64) bool {
	if s.seq.Load() == seq {
		return false
	}
	metrics.SelectorStaleTotal.Inc()
	return true
}

// cacheKey scopes cached options by selector kind, caller visibility, and
// the normalized term, so options never leak across access scopes.
func (s *Service) cacheKey(t term.Term, ac access.Context) string {
	return "opt:" + s.kind + ":" + ac.CacheKey() + ":" + t.Lower()
}

func (s *Service) fromCache(ctx context.Context, key string) ([]Option, bool) {
	if s.cache == nil {
		return nil, false
	}
	data, err := s.cache.Get(ctx, key)
	if err != nil {
		metrics.SelectorCacheTotal.WithLabelValues("miss").Inc()
		return nil, false
	}
	var opts []Option
	if err := json.Unmarshal(data, &opts); err != nil {
		metrics.SelectorCacheTotal.WithLabelValues("miss").Inc()
		return nil, false
	}
	metrics.SelectorCacheTotal.WithLabelValues("hit").Inc()
	return opts, true
}

func (s *Service) toCache(ctx context.Context, key string, opts []Option) {
	if s.cache == nil {
		return
	}
	data, err := json.Marshal(opts)
	if err != nil {
		return
	}
	if err := s.cache.SetWithTTL(ctx, key, data, s.ttl); err != nil {
		logger.FromContext(ctx).Debug("option cache write failed",
			zap.String("key", key),
			zap.Error(err),
		)
	}
}

// toOption renders one search result as a dropdown entry. The label pairs
// the document number with the customer name when both exist.
func toOption(r result.Result) Option {
	parts := make([]string, 0, 2)
	if r.DocumentNumber != "" {
		parts = append(parts, r.DocumentNumber)
	}
	if r.CustomerName != "" {
		parts = append(parts, r.CustomerName)
	}
	return Option{
		Label: strings.Join(parts, " "),
		Value: r.ID,
	}
}
