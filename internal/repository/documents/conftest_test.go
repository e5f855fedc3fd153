package documents

import (
	"context"
	"testing"

	"github.com/arsomjin/kbnsearch/internal/db"
)

// mockStore implements the consumer interface for tests.
type mockStore struct {
	findFn         func(ctx context.Context, q *db.Query) ([]db.Record, error)
	updateFieldsFn func(ctx context.Context, collection, id string, fields map[string]any) error

	queries []*db.Query
	updates []updateCall
}

type updateCall struct {
	collection string
	id         string
	fields     map[string]any
}

func (m *mockStore) Find(ctx context.Context, q *db.Query) ([]db.Record, error) {
	m.queries = append(m.queries, q)
	if m.findFn != nil {
		return m.findFn(ctx, q)
	}
	return nil, nil
}

func (m *mockStore) UpdateFields(ctx context.Context, collection, id string, fields map[string]any) error {
	m.updates = append(m.updates, updateCall{collection: collection, id: id, fields: fields})
	if m.updateFieldsFn != nil {
		return m.updateFieldsFn(ctx, collection, id, fields)
	}
	return nil
}

func newTestRepo(t *testing.T) (*Repo, *mockStore) {
	t.Helper()
	ms := &mockStore{}
	repo := NewAccounting(ms)
	return repo, ms
}

func lastQuery(t *testing.T, ms *mockStore) *db.Query {
	t.Helper()
	if len(ms.queries) == 0 {
		t.Fatal("expected at least one query")
	}
	return ms.queries[len(ms.queries)-1]
}

func findConstraint(q *db.Query, field string, op db.Op) (db.Constraint, bool) {
	for _, c := range q.Constraints {
		if c.Field == field && c.Op == op {
			return c, true
		}
	}
	return db.Constraint{}, false
}
