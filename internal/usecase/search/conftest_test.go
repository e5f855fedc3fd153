package search

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/arsomjin/kbnsearch/internal/db"
	"github.com/arsomjin/kbnsearch/internal/domain/search/result"
)

// mockFinder implements DocumentFinder for tests, counting calls per
// strategy and recording base constraints.
type mockFinder struct {
	collection string

	keywordFn func(ctx context.Context, kw string, base []db.Constraint, limit int) ([]result.Result, error)
	numberFn  func(ctx context.Context, lower, upper string, base []db.Constraint, limit int) ([]result.Result, error)
	nameFn    func(ctx context.Context, lower, upper string, lowered bool, base []db.Constraint, limit int) ([]result.Result, error)
	recentFn  func(ctx context.Context, lowerTerm string, since time.Time, base []db.Constraint, limit int) ([]result.Result, error)

	keywordCalls int
	numberCalls  int
	nameCalls    int
	recentCalls  int

	bases [][]db.Constraint
}

func (m *mockFinder) Collection() string { return m.collection }

func (m *mockFinder) FindByKeyword(
	ctx context.Context, kw string, base []db.Constraint, limit int,
) ([]result.Result, error) {
	m.keywordCalls++
	m.bases = append(m.bases, base)
	if m.keywordFn != nil {
		return m.keywordFn(ctx, kw, base, limit)
	}
	return nil, nil
}

func (m *mockFinder) FindByNumberPrefix(
	ctx context.Context, lower, upper string, base []db.Constraint, limit int,
) ([]result.Result, error) {
	m.numberCalls++
	m.bases = append(m.bases, base)
	if m.numberFn != nil {
		return m.numberFn(ctx, lower, upper, base, limit)
	}
	return nil, nil
}

func (m *mockFinder) FindByNamePrefix(
	ctx context.Context, lower, upper string, lowered bool, base []db.Constraint, limit int,
) ([]result.Result, error) {
	m.nameCalls++
	m.bases = append(m.bases, base)
	if m.nameFn != nil {
		return m.nameFn(ctx, lower, upper, lowered, base, limit)
	}
	return nil, nil
}

func (m *mockFinder) FindRecentMatching(
	ctx context.Context, lowerTerm string, since time.Time, base []db.Constraint, limit int,
) ([]result.Result, error) {
	m.recentCalls++
	m.bases = append(m.bases, base)
	if m.recentFn != nil {
		return m.recentFn(ctx, lowerTerm, since, base, limit)
	}
	return nil, nil
}

func (m *mockFinder) calls() int {
	return m.keywordCalls + m.numberCalls + m.nameCalls + m.recentCalls
}

func newTestService(t *testing.T) (*Service, *mockFinder, *mockFinder, *mockFinder) {
	t.Helper()
	acc := &mockFinder{collection: "incomes"}
	books := &mockFinder{collection: "bookings"}
	sales := &mockFinder{collection: "sales"}
	return New(acc, books, sales, DefaultLimits(), false), acc, books, sales
}

// makeResults produces n results with ids prefixed by p and descending dates.
func makeResults(p string, n int) []result.Result {
	rs := make([]result.Result, n)
	for i := range rs {
		rs[i] = result.Result{
			ID:   fmt.Sprintf("%s-%d", p, i),
			Date: int64(1000 - i),
		}
	}
	return rs
}
