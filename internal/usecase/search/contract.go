package search

import (
	"context"
	"time"

	"github.com/arsomjin/kbnsearch/internal/db"
	"github.com/arsomjin/kbnsearch/internal/domain/search/result"
)

// DocumentFinder is the per-collection storage contract the cascade runs
// against. Each method corresponds to one strategy; base constraints carry
// the caller's geographic scope and are conjoined with the strategy's own.
type DocumentFinder interface {
	Collection() string

	FindByKeyword(
		ctx context.Context, kw string, base []db.Constraint, limit int,
	) ([]result.Result, error)

	FindByNumberPrefix(
		ctx context.Context, lower, upper string, base []db.Constraint, limit int,
	) ([]result.Result, error)

	FindByNamePrefix(
		ctx context.Context, lower, upper string, lowered bool, base []db.Constraint, limit int,
	) ([]result.Result, error)

	FindRecentMatching(
		ctx context.Context, lowerTerm string, since time.Time, base []db.Constraint, limit int,
	) ([]result.Result, error)
}
