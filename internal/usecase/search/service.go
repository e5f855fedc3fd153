// Package search runs the multi-strategy document search cascade: keyword
// index match, prefix ranges on document number and customer name, and a
// bounded recency scan for legacy records. Failures never propagate to the
// caller; every failure mode degrades to an empty result list.
package search

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/arsomjin/kbnsearch/internal/db"
	"github.com/arsomjin/kbnsearch/internal/domain/access"
	"github.com/arsomjin/kbnsearch/internal/domain/search/prefix"
	"github.com/arsomjin/kbnsearch/internal/domain/search/result"
	"github.com/arsomjin/kbnsearch/internal/domain/search/term"
	"github.com/arsomjin/kbnsearch/internal/logger"
	"github.com/arsomjin/kbnsearch/internal/metrics"
)

// Limits are the cascade's tuning parameters.
type Limits struct {
	// ResultCap bounds the final result list.
	ResultCap int
	// NamePrefixThreshold gates the customer-name prefix strategies: they
	// run only while fewer results have accumulated.
	NamePrefixThreshold int
	// RecentScanThreshold gates the recency scan the same way.
	RecentScanThreshold int
	// RecentFetchLimit bounds how many recent records the scan fetches.
	RecentFetchLimit int
	// MinTermLength short-circuits shorter terms to an empty result set
	// without touching the backend.
	MinTermLength int
	// RecentWindow is how far back the recency scan looks.
	RecentWindow time.Duration
}

// DefaultLimits returns the production cascade parameters.
func DefaultLimits() Limits {
	return Limits{
		ResultCap:           50,
		NamePrefixThreshold: 15,
		RecentScanThreshold: 5,
		RecentFetchLimit:    100,
		MinTermLength:       term.DefaultMinLength,
		RecentWindow:        90 * 24 * time.Hour,
	}
}

// saleTypeField carries the optional category filter of the sale search.
const saleTypeField = "saleType"

// Service orchestrates the strategy cascade over the three document
// collections.
type Service struct {
	accounting DocumentFinder
	bookings   DocumentFinder
	sales      DocumentFinder

	limits       Limits
	denyUnscoped bool
	now          func() time.Time
}

// New creates a search service. denyUnscoped controls the policy for
// restricted callers with no configured province or branch scope: false
// lets them see unfiltered results (legacy behavior, audited), true
// short-circuits their searches to empty.
func New(accounting, bookings, sales DocumentFinder, limits Limits, denyUnscoped bool) *Service {
	d := DefaultLimits()
	if limits.ResultCap <= 0 {
		limits.ResultCap = d.ResultCap
	}
	if limits.NamePrefixThreshold <= 0 {
		limits.NamePrefixThreshold = d.NamePrefixThreshold
	}
	if limits.RecentScanThreshold <= 0 {
		limits.RecentScanThreshold = d.RecentScanThreshold
	}
	if limits.RecentFetchLimit <= 0 {
		limits.RecentFetchLimit = d.RecentFetchLimit
	}
	if limits.MinTermLength <= 0 {
		limits.MinTermLength = d.MinTermLength
	}
	if limits.RecentWindow <= 0 {
		limits.RecentWindow = d.RecentWindow
	}
	return &Service{
		accounting:   accounting,
		bookings:     bookings,
		sales:        sales,
		limits:       limits,
		denyUnscoped: denyUnscoped,
		now:          time.Now,
	}
}

// SearchAccounting searches accounting documents. Results preserve
// strategy-arrival order and are capped; failures degrade to empty.
func (s *Service) SearchAccounting(
	ctx context.Context, rawTerm string, ac access.Context,
) (results []result.Result) {
	defer s.recoverToEmpty(ctx, &results)

	t, ok := term.New(rawTerm, s.limits.MinTermLength)
	if !ok {
		return []result.Result{}
	}
	geo, allowed := s.geoConstraints(ctx, ac)
	if !allowed {
		return []result.Result{}
	}

	metrics.SearchesTotal.WithLabelValues(string(result.TypeAccounting)).Inc()
	return s.runCascade(ctx, s.accounting, t, geo)
}

// SearchSale searches sale bookings and vehicle sales. The two collections
// are queried concurrently; merged results are deduplicated, sorted by date
// descending, and capped. category, when non-empty, constrains both
// collections by sale type.
func (s *Service) SearchSale(
	ctx context.Context, rawTerm, category string, ac access.Context,
) (results []result.Result) {
	defer s.recoverToEmpty(ctx, &results)

	t, ok := term.New(rawTerm, s.limits.MinTermLength)
	if !ok {
		return []result.Result{}
	}
	geo, allowed := s.geoConstraints(ctx, ac)
	if !allowed {
		return []result.Result{}
	}
	if category != "" {
		geo = append(geo, db.Eq(saleTypeField, category))
	}

	metrics.SearchesTotal.WithLabelValues(string(result.TypeSale)).Inc()

	var (
		wg     sync.WaitGroup
		booked []result.Result
		sold   []result.Result
	)
	wg.Add(2)
	go func() {
		defer wg.Done()
		defer s.recoverToEmpty(ctx, &booked)
		booked = s.runCascade(ctx, s.bookings, t, geo)
	}()
	go func() {
		defer wg.Done()
		defer s.recoverToEmpty(ctx, &sold)
		sold = s.runCascade(ctx, s.sales, t, geo)
	}()
	wg.Wait()

	merged := mergeByDateDesc(s.limits.ResultCap, booked, sold)
	return merged
}

// runCascade executes the four strategies in priority order against one
// collection, accumulating deduplicated results up to the cap.
func (s *Service) runCascade(
	ctx context.Context, docs DocumentFinder, t term.Term, base []db.Constraint,
) []result.Result {
	acc := newAccumulator(s.limits.ResultCap)

	rs, err := docs.FindByKeyword(ctx, t.Lower(), base, s.limits.ResultCap)
	s.collect(ctx, docs.Collection(), "keyword", acc, rs, err)

	// Document-number prefix runs unconditionally; keyword hits for a code
	// term are a subset of its prefix matches only for indexed records.
	lo, hi := prefix.Range(t.Upper())
	rs, err = docs.FindByNumberPrefix(ctx, lo, hi, base, s.limits.ResultCap)
	s.collect(ctx, docs.Collection(), "number_prefix", acc, rs, err)

	if acc.Len() < s.limits.NamePrefixThreshold {
		lo, hi = prefix.Range(t.Raw())
		rs, err = docs.FindByNamePrefix(ctx, lo, hi, false, base, s.limits.ResultCap)
		s.collect(ctx, docs.Collection(), "name_prefix", acc, rs, err)

		lo, hi = prefix.Range(t.Lower())
		rs, err = docs.FindByNamePrefix(ctx, lo, hi, true, base, s.limits.ResultCap)
		s.collect(ctx, docs.Collection(), "name_prefix_lower", acc, rs, err)
	}

	if acc.Len() < s.limits.RecentScanThreshold {
		since := s.now().Add(-s.limits.RecentWindow)
		rs, err = docs.FindRecentMatching(ctx, t.Lower(), since, base, s.limits.RecentFetchLimit)
		s.collect(ctx, docs.Collection(), "recent_scan", acc, rs, err)
	}

	return acc.Results()
}

// collect folds one strategy's outcome into the accumulator. A failed
// strategy contributes zero results; the error is logged with a code and
// counted so backend trouble stays visible despite the degrade-to-empty
// contract.
func (s *Service) collect(
	ctx context.Context, collection, strategy string,
	acc *accumulator, rs []result.Result, err error,
) {
	if err != nil {
		code := errorCode(err)
		logger.FromContext(ctx).Warn("search strategy failed",
			zap.String("collection", collection),
			zap.String("strategy", strategy),
			zap.String("code", code),
			zap.Error(err),
		)
		metrics.StrategyErrorsTotal.WithLabelValues(collection, strategy, code).Inc()
		return
	}
	added := acc.Add(rs...)
	if added > 0 {
		metrics.StrategyHitsTotal.WithLabelValues(collection, strategy).Add(float64(added))
	}
}

// geoConstraints derives the base constraints from the caller's access
// profile. The second return is false when the unscoped-deny policy blocks
// the search outright.
func (s *Service) geoConstraints(ctx context.Context, ac access.Context) ([]db.Constraint, bool) {
	switch ac.Scope() {
	case access.ScopeUnrestricted:
		return nil, true
	case access.ScopeProvince:
		return []db.Constraint{db.In("provinceId", ac.Provinces())}, true
	case access.ScopeBranch:
		return []db.Constraint{db.In("branchCode", ac.Branches())}, true
	}

	if s.denyUnscoped {
		metrics.UnscopedAccessTotal.WithLabelValues("deny").Inc()
		logger.FromContext(ctx).Warn("unscoped caller denied by policy")
		return nil, false
	}
	metrics.UnscopedAccessTotal.WithLabelValues("allow").Inc()
	logger.FromContext(ctx).Warn("unscoped caller sees unfiltered results")
	return nil, true
}

func (s *Service) recoverToEmpty(ctx context.Context, results *[]result.Result) {
	if r := recover(); r != nil {
		metrics.SearchPanicsTotal.Inc()
		logger.FromContext(ctx).Error("search degraded to empty results",
			zap.Any("panic", r),
		)
		*results = []result.Result{}
	}
}

// errorCode classifies a strategy error for logs and metrics labels.
func errorCode(err error) string {
	var dbErr *db.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, context.Canceled):
		return "canceled"
	case errors.Is(err, db.ErrUnsupportedOp):
		return "unsupported_op"
	case errors.As(err, &dbErr):
		return dbErr.Op
	default:
		return "backend"
	}
}
