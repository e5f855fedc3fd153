package chi

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/arsomjin/kbnsearch/internal/db"
	"github.com/arsomjin/kbnsearch/internal/domain/access"
	"github.com/arsomjin/kbnsearch/internal/domain/search/result"
	healthuc "github.com/arsomjin/kbnsearch/internal/usecase/health"
	indexinguc "github.com/arsomjin/kbnsearch/internal/usecase/indexing"
	searchuc "github.com/arsomjin/kbnsearch/internal/usecase/search"
	selectoruc "github.com/arsomjin/kbnsearch/internal/usecase/selector"
)

// staticFinder serves fixed results from its keyword strategy.
type staticFinder struct {
	collection string
	results    []result.Result
}

func (f *staticFinder) Collection() string { return f.collection }

func (f *staticFinder) FindByKeyword(
	ctx context.Context, kw string, base []db.Constraint, limit int,
) ([]result.Result, error) {
	return f.results, nil
}

func (f *staticFinder) FindByNumberPrefix(
	ctx context.Context, lower, upper string, base []db.Constraint, limit int,
) ([]result.Result, error) {
	return nil, nil
}

func (f *staticFinder) FindByNamePrefix(
	ctx context.Context, lower, upper string, lowered bool, base []db.Constraint, limit int,
) ([]result.Result, error) {
	return nil, nil
}

func (f *staticFinder) FindRecentMatching(
	ctx context.Context, lowerTerm string, since time.Time, base []db.Constraint, limit int,
) ([]result.Result, error) {
	return nil, nil
}

// staticCollection implements the indexing contract.
type staticCollection struct {
	name     string
	indexErr error
}

func (c *staticCollection) Collection() string { return c.name }

func (c *staticCollection) IndexKeywords(ctx context.Context, id string) ([]string, error) {
	if c.indexErr != nil {
		return nil, c.indexErr
	}
	return []string{"kbn-001"}, nil
}

func (c *staticCollection) FindUnindexed(ctx context.Context, limit int) ([]string, error) {
	return []string{"a", "b"}, nil
}

type pinger struct {
	err error
}

func (p *pinger) Ping(ctx context.Context) error { return p.err }

// newTestServer assembles a Server over static fixtures.
func newTestServer(t *testing.T, accounting *staticFinder, incomes *staticCollection) *Server {
	t.Helper()
	if accounting == nil {
		accounting = &staticFinder{collection: "incomes"}
	}
	if incomes == nil {
		incomes = &staticCollection{name: "incomes"}
	}

	search := searchuc.New(
		accounting,
		&staticFinder{collection: "bookings"},
		&staticFinder{collection: "sales"},
		searchuc.DefaultLimits(),
		false,
	)
	customerSel := selectoruc.New("customer",
		func(ctx context.Context, term string, ac access.Context) []result.Result {
			return accounting.results
		}, nil, 2, 0)

	return NewServer(
		search,
		map[string]*selectoruc.Service{"customer": customerSel},
		indexinguc.New(incomes),
		healthuc.New(&pinger{}, nil),
		zap.NewNop(),
	)
}
