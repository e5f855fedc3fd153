package documents

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/arsomjin/kbnsearch/internal/db"
)

func TestFindByKeyword_BuildsArrayContainsQuery(t *testing.T) {
	repo, ms := newTestRepo(t)
	base := []db.Constraint{db.In("provinceId", []string{"nakhon-ratchasima"})}

	_, err := repo.FindByKeyword(context.Background(), "kbn-001", base, 50)
	if err != nil {
		t.Fatalf("FindByKeyword: %v", err)
	}

	q := lastQuery(t, ms)
	if q.Collection != "incomes" {
		t.Errorf("collection = %q, want incomes", q.Collection)
	}
	if q.Limit != 50 {
		t.Errorf("limit = %d, want 50", q.Limit)
	}
	if _, ok := findConstraint(q, "keywords", db.OpArrayContains); !ok {
		t.Error("expected array-contains constraint on keywords")
	}
	if _, ok := findConstraint(q, "provinceId", db.OpIn); !ok {
		t.Error("expected base geo constraint to be carried")
	}
}

func TestFindByKeyword_DoesNotMutateBaseConstraints(t *testing.T) {
	repo, _ := newTestRepo(t)
	base := make([]db.Constraint, 1, 4)
	base[0] = db.In("branchCode", []string{"0450"})

	_, _ = repo.FindByKeyword(context.Background(), "a", base, 10)
	_, _ = repo.FindByNumberPrefix(context.Background(), "B", "B", base, 10)

	if len(base) != 1 {
		t.Fatalf("base constraints mutated, len = %d", len(base))
	}
	if base[0].Field != "branchCode" {
		t.Errorf("base[0].Field = %q, want branchCode", base[0].Field)
	}
}

func TestFindByNumberPrefix_RangeOnNumberField(t *testing.T) {
	repo, ms := newTestRepo(t)

	_, err := repo.FindByNumberPrefix(context.Background(), "KBN", "KBN", nil, 50)
	if err != nil {
		t.Fatalf("FindByNumberPrefix: %v", err)
	}

	q := lastQuery(t, ms)
	gte, ok := findConstraint(q, "incomeId", db.OpGte)
	if !ok {
		t.Fatal("expected gte constraint on incomeId")
	}
	if gte.Value != "KBN" {
		t.Errorf("gte value = %v, want KBN", gte.Value)
	}
	lte, ok := findConstraint(q, "incomeId", db.OpLte)
	if !ok {
		t.Fatal("expected lte constraint on incomeId")
	}
	if lte.Value != "KBN" {
		t.Errorf("lte value = %v, want sentinel-suffixed prefix", lte.Value)
	}
}

func TestFindByNamePrefix_SelectsVariantField(t *testing.T) {
	tests := []struct {
		name    string
		lowered bool
		field   string
	}{
		{"lowered variant", true, "customerName_lower"},
		{"raw case", false, "customerName"},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			repo, ms := newTestRepo(t)
			_, err := repo.FindByNamePrefix(context.Background(), "som", "som", tc.lowered, nil, 50)
			if err != nil {
				t.Fatalf("FindByNamePrefix: %v", err)
			}
			q := lastQuery(t, ms)
			if _, ok := findConstraint(q, tc.field, db.OpGte); !ok {
				t.Errorf("expected gte constraint on %s", tc.field)
			}
			if _, ok := findConstraint(q, tc.field, db.OpLte); !ok {
				t.Errorf("expected lte constraint on %s", tc.field)
			}
		})
	}
}

func TestFindRecentMatching_FiltersClientSide(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.findFn = func(ctx context.Context, q *db.Query) ([]db.Record, error) {
		return []db.Record{
			{ID: "a", Fields: map[string]any{
				"incomeId": "KBN-ACC-001", "customerName": "สมชาย ใจดี", "created": int64(1700000000000),
			}},
			{ID: "b", Fields: map[string]any{
				"incomeId": "OTH-999", "customerName": "อื่น ๆ", "created": int64(1700000001000),
			}},
		}, nil
	}

	since := time.UnixMilli(1690000000000)
	got, err := repo.FindRecentMatching(context.Background(), "สมชาย", since, nil, 100)
	if err != nil {
		t.Fatalf("FindRecentMatching: %v", err)
	}

	if len(got) != 1 {
		t.Fatalf("got %d results, want 1", len(got))
	}
	if got[0].ID != "a" {
		t.Errorf("result ID = %q, want a", got[0].ID)
	}

	q := lastQuery(t, ms)
	if q.OrderBy != "created" || !q.Desc {
		t.Errorf("query order = %q desc=%v, want created desc", q.OrderBy, q.Desc)
	}
	if q.Limit != 100 {
		t.Errorf("limit = %d, want 100", q.Limit)
	}
	gte, ok := findConstraint(q, "created", db.OpGte)
	if !ok {
		t.Fatal("expected gte constraint on created")
	}
	if gte.Value != since.UnixMilli() {
		t.Errorf("gte value = %v, want %d", gte.Value, since.UnixMilli())
	}
}

func TestFindRecentMatching_NormalizesResults(t *testing.T) {
	repo, ms := newTestRepo(t)
	repo.now = func() time.Time { return time.UnixMilli(1800000000000) }
	ms.findFn = func(ctx context.Context, q *db.Query) ([]db.Record, error) {
		return []db.Record{
			{ID: "a", Fields: map[string]any{
				"incomeId": "KBN-ACC-001",
				"total":    float64(1250.75),
			}},
		}, nil
	}

	got, err := repo.FindRecentMatching(context.Background(), "kbn", time.UnixMilli(0), nil, 100)
	if err != nil {
		t.Fatalf("FindRecentMatching: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d results, want 1", len(got))
	}
	if got[0].CustomerName != "ไม่ระบุ" {
		t.Errorf("CustomerName = %q, want placeholder", got[0].CustomerName)
	}
	if got[0].Amount != 1250.75 {
		t.Errorf("Amount = %v, want 1250.75", got[0].Amount)
	}
	if got[0].Date != 1800000000000 {
		t.Errorf("Date = %d, want injected now for missing date", got[0].Date)
	}
}

func TestIndexKeywords_PersistsComputedSet(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.findFn = func(ctx context.Context, q *db.Query) ([]db.Record, error) {
		return []db.Record{
			{ID: "doc-1", Fields: map[string]any{
				"incomeId":     "KBN-001",
				"customerName": "สมชาย ใจดี",
			}},
		}, nil
	}

	kws, err := repo.IndexKeywords(context.Background(), "doc-1")
	if err != nil {
		t.Fatalf("IndexKeywords: %v", err)
	}
	if len(kws) == 0 {
		t.Fatal("expected computed keywords")
	}

	if len(ms.updates) != 1 {
		t.Fatalf("expected 1 update, got %d", len(ms.updates))
	}
	upd := ms.updates[0]
	if upd.collection != "incomes" || upd.id != "doc-1" {
		t.Errorf("update target = %s/%s, want incomes/doc-1", upd.collection, upd.id)
	}
	persisted, ok := upd.fields["keywords"].([]string)
	if !ok {
		t.Fatalf("keywords field type = %T, want []string", upd.fields["keywords"])
	}
	if len(persisted) != len(kws) {
		t.Errorf("persisted %d keywords, returned %d", len(persisted), len(kws))
	}
}

func TestIndexKeywords_NotFound(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.findFn = func(ctx context.Context, q *db.Query) ([]db.Record, error) {
		return nil, nil
	}

	_, err := repo.IndexKeywords(context.Background(), "missing")
	if !errors.Is(err, db.ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
	if len(ms.updates) != 0 {
		t.Errorf("expected no update, got %d", len(ms.updates))
	}
}

func TestFindUnindexed_ReturnsIDs(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.findFn = func(ctx context.Context, q *db.Query) ([]db.Record, error) {
		return []db.Record{{ID: "x"}, {ID: "y"}}, nil
	}

	ids, err := repo.FindUnindexed(context.Background(), 200)
	if err != nil {
		t.Fatalf("FindUnindexed: %v", err)
	}
	if len(ids) != 2 || ids[0] != "x" || ids[1] != "y" {
		t.Errorf("ids = %v, want [x y]", ids)
	}

	q := lastQuery(t, ms)
	c, ok := findConstraint(q, "keywords", db.OpExists)
	if !ok {
		t.Fatal("expected exists constraint on keywords")
	}
	if c.Value != false {
		t.Errorf("exists value = %v, want false", c.Value)
	}
}

func TestFind_PropagatesStoreError(t *testing.T) {
	repo, ms := newTestRepo(t)
	ms.findFn = func(ctx context.Context, q *db.Query) ([]db.Record, error) {
		return nil, errors.New("socket closed")
	}

	if _, err := repo.FindByKeyword(context.Background(), "a", nil, 10); err == nil {
		t.Error("FindByKeyword: expected error")
	}
	if _, err := repo.FindRecentMatching(context.Background(), "a", time.Now(), nil, 10); err == nil {
		t.Error("FindRecentMatching: expected error")
	}
}

func TestWithCollection_Override(t *testing.T) {
	repo, ms := newTestRepo(t)
	repo.WithCollection("incomes_v2")

	if repo.Collection() != "incomes_v2" {
		t.Fatalf("Collection() = %q, want incomes_v2", repo.Collection())
	}

	_, _ = repo.FindByKeyword(context.Background(), "a", nil, 10)
	if q := lastQuery(t, ms); q.Collection != "incomes_v2" {
		t.Errorf("query collection = %q, want incomes_v2", q.Collection)
	}
}
