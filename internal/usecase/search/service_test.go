package search

import (
	"context"
	"errors"
	"testing"

	"github.com/arsomjin/kbnsearch/internal/db"
	"github.com/arsomjin/kbnsearch/internal/domain/access"
	"github.com/arsomjin/kbnsearch/internal/domain/search/prefix"
	"github.com/arsomjin/kbnsearch/internal/domain/search/result"
)

func TestSearchAccounting_ShortTermShortCircuits(t *testing.T) {
	svc, acc, _, _ := newTestService(t)

	got := svc.SearchAccounting(context.Background(), "ก", access.Unrestricted())

	if len(got) != 0 {
		t.Errorf("got %d results, want 0", len(got))
	}
	if acc.calls() != 0 {
		t.Errorf("backend called %d times for a too-short term", acc.calls())
	}
}

func TestSearchAccounting_DedupKeepsFirstOccurrence(t *testing.T) {
	svc, acc, _, _ := newTestService(t)
	acc.keywordFn = func(ctx context.Context, kw string, base []db.Constraint, limit int) ([]result.Result, error) {
		return []result.Result{{ID: "a1", DocumentNumber: "from-keyword"}}, nil
	}
	acc.numberFn = func(ctx context.Context, lower, upper string, base []db.Constraint, limit int) ([]result.Result, error) {
		return []result.Result{
			{ID: "a1", DocumentNumber: "from-prefix"},
			{ID: "a2", DocumentNumber: "other"},
		}, nil
	}

	got := svc.SearchAccounting(context.Background(), "KBN", access.Unrestricted())

	if len(got) != 2 {
		t.Fatalf("got %d results, want 2", len(got))
	}
	if got[0].ID != "a1" || got[0].DocumentNumber != "from-keyword" {
		t.Errorf("got[0] = %+v, want the keyword strategy's version of a1", got[0])
	}
	if got[1].ID != "a2" {
		t.Errorf("got[1].ID = %q, want a2", got[1].ID)
	}
}

func TestSearchAccounting_CapsResults(t *testing.T) {
	svc, acc, _, _ := newTestService(t)
	acc.keywordFn = func(ctx context.Context, kw string, base []db.Constraint, limit int) ([]result.Result, error) {
		return makeResults("kw", 60), nil
	}

	got := svc.SearchAccounting(context.Background(), "KBN", access.Unrestricted())

	if len(got) != 50 {
		t.Errorf("got %d results, want cap 50", len(got))
	}
}

func TestSearchAccounting_ProvincePrecedesBranch(t *testing.T) {
	svc, acc, _, _ := newTestService(t)

	ac := access.New(false, []string{"nma"}, []string{"0450"})
	svc.SearchAccounting(context.Background(), "KBN", ac)

	if len(acc.bases) == 0 {
		t.Fatal("no backend call recorded")
	}
	base := acc.bases[0]
	if len(base) != 1 {
		t.Fatalf("base constraints = %d, want exactly 1 geo filter", len(base))
	}
	if base[0].Field != "provinceId" || base[0].Op != db.OpIn {
		t.Errorf("base[0] = %+v, want provinceId in-set", base[0])
	}
	for _, c := range base {
		if c.Field == "branchCode" {
			t.Error("branch filter applied alongside province filter")
		}
	}
}

func TestSearchAccounting_UnrestrictedBypassesGeoFilter(t *testing.T) {
	svc, acc, _, _ := newTestService(t)

	ac := access.New(true, []string{"nma"}, []string{"0450"})
	svc.SearchAccounting(context.Background(), "KBN", ac)

	if len(acc.bases) == 0 {
		t.Fatal("no backend call recorded")
	}
	if len(acc.bases[0]) != 0 {
		t.Errorf("base constraints = %v, want none for unrestricted caller", acc.bases[0])
	}
}

func TestSearchAccounting_UnscopedPolicy(t *testing.T) {
	t.Run("allow proceeds unfiltered", func(t *testing.T) {
		svc, acc, _, _ := newTestService(t)
		svc.SearchAccounting(context.Background(), "KBN", access.New(false, nil, nil))
		if acc.calls() == 0 {
			t.Fatal("expected backend calls under allow policy")
		}
		if len(acc.bases[0]) != 0 {
			t.Errorf("base constraints = %v, want none", acc.bases[0])
		}
	})

	t.Run("deny short-circuits to empty", func(t *testing.T) {
		acc := &mockFinder{collection: "incomes"}
		svc := New(acc, &mockFinder{}, &mockFinder{}, DefaultLimits(), true)
		got := svc.SearchAccounting(context.Background(), "KBN", access.New(false, nil, nil))
		if len(got) != 0 {
			t.Errorf("got %d results, want 0", len(got))
		}
		if acc.calls() != 0 {
			t.Errorf("backend called %d times under deny policy", acc.calls())
		}
	})
}

func TestSearchAccounting_NamePrefixGating(t *testing.T) {
	svc, acc, _, _ := newTestService(t)
	acc.keywordFn = func(ctx context.Context, kw string, base []db.Constraint, limit int) ([]result.Result, error) {
		return makeResults("kw", 15), nil
	}

	svc.SearchAccounting(context.Background(), "KBN", access.Unrestricted())

	if acc.numberCalls != 1 {
		t.Errorf("number prefix calls = %d, want 1 (unconditional)", acc.numberCalls)
	}
	if acc.nameCalls != 0 {
		t.Errorf("name prefix calls = %d, want 0 once 15 results accumulated", acc.nameCalls)
	}
	if acc.recentCalls != 0 {
		t.Errorf("recent scan calls = %d, want 0", acc.recentCalls)
	}
}

func TestSearchAccounting_RecentScanGating(t *testing.T) {
	svc, acc, _, _ := newTestService(t)
	acc.keywordFn = func(ctx context.Context, kw string, base []db.Constraint, limit int) ([]result.Result, error) {
		return makeResults("kw", 5), nil
	}

	svc.SearchAccounting(context.Background(), "KBN", access.Unrestricted())

	if acc.nameCalls != 2 {
		t.Errorf("name prefix calls = %d, want 2 (raw + lowered, below 15)", acc.nameCalls)
	}
	if acc.recentCalls != 0 {
		t.Errorf("recent scan calls = %d, want 0 once 5 results accumulated", acc.recentCalls)
	}
}

func TestSearchAccounting_RecentScanRunsWhenSparse(t *testing.T) {
	svc, acc, _, _ := newTestService(t)

	svc.SearchAccounting(context.Background(), "KBN", access.Unrestricted())

	if acc.recentCalls != 1 {
		t.Errorf("recent scan calls = %d, want 1 with no prior results", acc.recentCalls)
	}
}

func TestSearchAccounting_FailureIsolation(t *testing.T) {
	svc, acc, _, _ := newTestService(t)
	acc.keywordFn = func(ctx context.Context, kw string, base []db.Constraint, limit int) ([]result.Result, error) {
		return nil, errors.New("missing composite index")
	}
	acc.numberFn = func(ctx context.Context, lower, upper string, base []db.Constraint, limit int) ([]result.Result, error) {
		return []result.Result{{ID: "a1", DocumentNumber: "KBN-001"}}, nil
	}

	got := svc.SearchAccounting(context.Background(), "KBN", access.Unrestricted())

	if len(got) != 1 || got[0].ID != "a1" {
		t.Fatalf("got %v, want the prefix strategy's result despite keyword failure", got)
	}
}

func TestSearchAccounting_PanicDegradesToEmpty(t *testing.T) {
	svc, acc, _, _ := newTestService(t)
	acc.keywordFn = func(ctx context.Context, kw string, base []db.Constraint, limit int) ([]result.Result, error) {
		panic("malformed record")
	}

	got := svc.SearchAccounting(context.Background(), "KBN", access.Unrestricted())

	if got == nil || len(got) != 0 {
		t.Errorf("got %v, want empty non-nil result list", got)
	}
}

func TestSearchAccounting_NumberPrefixEndToEnd(t *testing.T) {
	svc, acc, _, _ := newTestService(t)
	acc.numberFn = func(ctx context.Context, lower, upper string, base []db.Constraint, limit int) ([]result.Result, error) {
		if lower != "KBN-ACC" {
			t.Errorf("lower bound = %q, want uppercased term", lower)
		}
		if upper != "KBN-ACC"+prefix.HighSentinel {
			t.Errorf("upper bound = %q, want sentinel-suffixed term", upper)
		}
		return []result.Result{{
			ID:             "a1",
			DocumentNumber: "KBN-ACC-INC-20240101-0001",
			CustomerName:   "สมชาย ใจดี",
		}}, nil
	}

	got := svc.SearchAccounting(context.Background(), "kbn-acc", access.Unrestricted())

	if len(got) != 1 {
		t.Fatalf("got %d results, want 1", len(got))
	}
	if got[0].DocumentNumber != "KBN-ACC-INC-20240101-0001" {
		t.Errorf("DocumentNumber = %q", got[0].DocumentNumber)
	}
	if got[0].CustomerName != "สมชาย ใจดี" {
		t.Errorf("CustomerName = %q", got[0].CustomerName)
	}
}

func TestSearchSale_MergesAndSortsByDateDesc(t *testing.T) {
	svc, _, books, sales := newTestService(t)
	books.keywordFn = func(ctx context.Context, kw string, base []db.Constraint, limit int) ([]result.Result, error) {
		return []result.Result{
			{ID: "b1", Date: 100, DocType: result.TypeBooking},
			{ID: "b2", Date: 300, DocType: result.TypeBooking},
		}, nil
	}
	sales.keywordFn = func(ctx context.Context, kw string, base []db.Constraint, limit int) ([]result.Result, error) {
		return []result.Result{
			{ID: "s1", Date: 200, DocType: result.TypeSale},
		}, nil
	}

	got := svc.SearchSale(context.Background(), "KBN", "", access.Unrestricted())

	if len(got) != 3 {
		t.Fatalf("got %d results, want 3", len(got))
	}
	want := []string{"b2", "s1", "b1"}
	for i, id := range want {
		if got[i].ID != id {
			t.Errorf("got[%d].ID = %q, want %q (date descending)", i, got[i].ID, id)
		}
	}
}

func TestSearchSale_QueriesBothCollections(t *testing.T) {
	svc, _, books, sales := newTestService(t)

	svc.SearchSale(context.Background(), "KBN", "", access.Unrestricted())

	if books.keywordCalls != 1 {
		t.Errorf("bookings keyword calls = %d, want 1", books.keywordCalls)
	}
	if sales.keywordCalls != 1 {
		t.Errorf("sales keyword calls = %d, want 1", sales.keywordCalls)
	}
}

func TestSearchSale_CategoryConstraint(t *testing.T) {
	svc, _, books, _ := newTestService(t)

	svc.SearchSale(context.Background(), "KBN", "cash", access.Unrestricted())

	if len(books.bases) == 0 {
		t.Fatal("no backend call recorded")
	}
	found := false
	for _, c := range books.bases[0] {
		if c.Field == saleTypeField && c.Op == db.OpEq && c.Value == "cash" {
			found = true
		}
	}
	if !found {
		t.Errorf("base constraints = %v, want saleType equality", books.bases[0])
	}
}

func TestSearchSale_CollectionFailureIsolated(t *testing.T) {
	svc, _, books, sales := newTestService(t)
	books.keywordFn = func(ctx context.Context, kw string, base []db.Constraint, limit int) ([]result.Result, error) {
		return nil, errors.New("backend down")
	}
	sales.keywordFn = func(ctx context.Context, kw string, base []db.Constraint, limit int) ([]result.Result, error) {
		return []result.Result{{ID: "s1", Date: 1}}, nil
	}

	got := svc.SearchSale(context.Background(), "KBN", "", access.Unrestricted())

	if len(got) != 1 || got[0].ID != "s1" {
		t.Fatalf("got %v, want the surviving collection's result", got)
	}
}
