// Package kbnsearch embeds the dealership document search service in a Go
// program: multi-strategy search over accounting documents, sale bookings,
// and vehicle sales, with geographic access filtering and search-as-you-type
// option selectors, without running the HTTP server.
package kbnsearch

import (
	"context"
	"errors"
	"fmt"
	"time"

	cacheRedis "github.com/arsomjin/kbnsearch/internal/cache/redis"
	dbMongo "github.com/arsomjin/kbnsearch/internal/db/mongo"
	"github.com/arsomjin/kbnsearch/internal/domain/access"
	"github.com/arsomjin/kbnsearch/internal/domain/keyword"
	"github.com/arsomjin/kbnsearch/internal/domain/search/result"
	documentsrepo "github.com/arsomjin/kbnsearch/internal/repository/documents"
	indexinguc "github.com/arsomjin/kbnsearch/internal/usecase/indexing"
	searchuc "github.com/arsomjin/kbnsearch/internal/usecase/search"
	selectoruc "github.com/arsomjin/kbnsearch/internal/usecase/selector"
)

const defaultReadinessTimeout = 10 * time.Second

// Result is the canonical normalized search result.
type Result = result.Result

// AccessContext is a caller's geographic access profile.
type AccessContext = access.Context

// SelectorOption is one entry of a selector dropdown.
type SelectorOption = selectoruc.Option

// ErrStaleOptions marks a selector fetch superseded by a newer one.
var ErrStaleOptions = selectoruc.ErrStale

// NewAccess creates an access context from a caller's profile.
func NewAccess(unrestricted bool, provinces, branches []string) AccessContext {
	return access.New(unrestricted, provinces, branches)
}

// UnrestrictedAccess creates a full-visibility access context.
func UnrestrictedAccess() AccessContext {
	return access.Unrestricted()
}

// Client is the kbnsearch embedded entry point.
type Client struct {
	store     *dbMongo.Store
	cache     *cacheRedis.Cache
	searchSvc *searchuc.Service
	selectors map[string]*selectoruc.Service
	indexing  *indexinguc.Service
}

// New creates a kbnsearch Client and connects to the document store.
func New(opts ...Option) (*Client, error) {
	cfg := &clientConfig{
		readinessTimeout: defaultReadinessTimeout,
	}
	for _, o := range opts {
		o.apply(cfg)
	}

	if cfg.mongoURI == "" {
		return nil, errors.New("kbnsearch: mongo uri required (use WithMongo)")
	}

	ctx := context.Background()
	store, err := dbMongo.NewStore(ctx, dbMongo.Config{
		URI:      cfg.mongoURI,
		Database: cfg.mongoDatabase,
	})
	if err != nil {
		return nil, fmt.Errorf("kbnsearch: create store: %w", err)
	}
	if err := store.WaitForReady(ctx, cfg.readinessTimeout); err != nil {
		_ = store.Close(ctx)
		return nil, fmt.Errorf("kbnsearch: document store not ready: %w", err)
	}

	var cache *cacheRedis.Cache
	if len(cfg.cacheAddrs) > 0 {
		cache, err = cacheRedis.New(cacheRedis.Config{
			Addrs:    cfg.cacheAddrs,
			Username: cfg.cacheUsername,
			Password: cfg.cachePassword,
			DB:       cfg.cacheDB,
		})
		if err != nil {
			_ = store.Close(ctx)
			return nil, fmt.Errorf("kbnsearch: create option cache: %w", err)
		}
	}

	return wireClient(store, cache, cfg), nil
}

func wireClient(store *dbMongo.Store, cache *cacheRedis.Cache, cfg *clientConfig) *Client {
	accountingRepo := documentsrepo.NewAccounting(store)
	bookingsRepo := documentsrepo.NewBookings(store)
	salesRepo := documentsrepo.NewSales(store)

	searchSvc := searchuc.New(
		accountingRepo, bookingsRepo, salesRepo,
		searchuc.Limits{
			ResultCap:           cfg.limits.ResultCap,
			NamePrefixThreshold: cfg.limits.NamePrefixThreshold,
			RecentScanThreshold: cfg.limits.RecentScanThreshold,
			RecentFetchLimit:    cfg.limits.RecentFetchLimit,
			MinTermLength:       cfg.limits.MinTermLength,
			RecentWindow:        cfg.limits.RecentWindow,
		},
		cfg.denyUnscoped,
	)

	// Pass nil interface (not typed nil pointer!) if the cache is not configured.
	var selCache selectoruc.Cache
	if cache != nil {
		selCache = cache
	}
	minLen := cfg.limits.MinTermLength
	selectors := map[string]*selectoruc.Service{
		"accounting": selectoruc.New("accounting",
			func(ctx context.Context, term string, ac access.Context) []result.Result {
				return searchSvc.SearchAccounting(ctx, term, ac)
			}, selCache, minLen, cfg.optionTTL),
		"sale": selectoruc.New("sale",
			func(ctx context.Context, term string, ac access.Context) []result.Result {
				return searchSvc.SearchSale(ctx, term, "", ac)
			}, selCache, minLen, cfg.optionTTL),
	}

	return &Client{
		store:     store,
		cache:     cache,
		searchSvc: searchSvc,
		selectors: selectors,
		indexing:  indexinguc.New(accountingRepo, bookingsRepo, salesRepo),
	}
}

// SearchAccounting searches accounting documents. Failures degrade to an
// empty result list.
func (c *Client) SearchAccounting(ctx context.Context, term string, ac AccessContext) []Result {
	return c.searchSvc.SearchAccounting(ctx, term, ac)
}

// SearchSale searches sale bookings and vehicle sales, merged and sorted by
// date descending. category, when non-empty, constrains by sale type.
func (c *Client) SearchSale(ctx context.Context, term, category string, ac AccessContext) []Result {
	return c.searchSvc.SearchSale(ctx, term, category, ac)
}

// Options resolves typed input into dropdown options for the given selector
// kind ("accounting" or "sale"). Returns ErrStaleOptions when a newer fetch
// superseded this one.
func (c *Client) Options(ctx context.Context, kind, input string, ac AccessContext) ([]SelectorOption, error) {
	sel, ok := c.selectors[kind]
	if !ok {
		return nil, fmt.Errorf("kbnsearch: unknown selector kind %q", kind)
	}
	return sel.Fetch(ctx, input, ac)
}

// ComputeKeywords derives the keyword set for a record's fields, as
// persisted alongside documents at save time.
func ComputeKeywords(record map[string]any, fields []string) []string {
	return keyword.Compute(record, fields)
}

// IndexDocument recomputes and persists the keyword set for one document.
func (c *Client) IndexDocument(ctx context.Context, collection, id string) ([]string, error) {
	return c.indexing.Index(ctx, collection, id)
}

// Reindex indexes one batch of documents lacking a keyword array and
// reports how many were indexed.
func (c *Client) Reindex(ctx context.Context, collection string) (int, error) {
	return c.indexing.ReindexMissing(ctx, collection)
}

// Ping checks document store connectivity.
func (c *Client) Ping(ctx context.Context) error {
	if err := c.store.Ping(ctx); err != nil {
		return fmt.Errorf("ping: %w", err)
	}
	return nil
}

// Close releases all resources.
func (c *Client) Close(ctx context.Context) error {
	if c.cache != nil {
		c.cache.Close()
	}
	if c.store != nil {
		if err := c.store.Close(ctx); err != nil {
			return fmt.Errorf("close: %w", err)
		}
	}
	return nil
}
