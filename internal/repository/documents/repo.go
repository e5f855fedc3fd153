package documents

import (
	"context"
	"fmt"
	"time"

	"github.com/arsomjin/kbnsearch/internal/db"
	"github.com/arsomjin/kbnsearch/internal/domain/keyword"
	"github.com/arsomjin/kbnsearch/internal/domain/search/result"
	"github.com/arsomjin/kbnsearch/internal/metrics"
	"github.com/arsomjin/kbnsearch/internal/repository/docschema"
)

// store is the consumer interface for document reads and keyword writes (ISP).
type store interface {
	Find(ctx context.Context, q *db.Query) ([]db.Record, error)
	UpdateFields(ctx context.Context, collection, id string, fields map[string]any) error
}

// Repo implements the search engine's document finder and the indexing
// service's keyword index for one source collection.
type Repo struct {
	store  store
	schema docschema.Schema
	now    func() time.Time
}

// NewAccounting creates the accounting-documents repository.
func NewAccounting(s store) *Repo {
	return &Repo{store: s, schema: accountingSchema, now: time.Now}
}

// NewBookings creates the sale-bookings repository.
func NewBookings(s store) *Repo {
	return &Repo{store: s, schema: bookingSchema, now: time.Now}
}

// NewSales creates the vehicle-sales repository.
func NewSales(s store) *Repo {
	return &Repo{store: s, schema: vehicleSaleSchema, now: time.Now}
}

// WithCollection overrides the backing collection name (config-driven).
func (r *Repo) WithCollection(name string) *Repo {
	if name != "" {
		r.schema.Collection = name
	}
	return r
}

// Collection returns the backing collection name.
func (r *Repo) Collection() string { return r.schema.Collection }

// FindByKeyword matches the persisted keyword array against one lowercase
// keyword.
func (r *Repo) FindByKeyword(
	ctx context.Context, kw string, base []db.Constraint, limit int,
) ([]result.Result, error) {
	recs, err := r.find(ctx, base, limit, db.ArrayContains(r.schema.KeywordsField, kw))
	if err != nil {
		return nil, fmt.Errorf("keyword lookup %s: %w", r.schema.Collection, err)
	}
	return r.normalizeAll(recs), nil
}

// FindByNumberPrefix range-scans the primary identifier field.
func (r *Repo) FindByNumberPrefix(
	ctx context.Context, lower, upper string, base []db.Constraint, limit int,
) ([]result.Result, error) {
	recs, err := r.find(ctx, base, limit,
		db.Gte(r.schema.NumberField, lower),
		db.Lte(r.schema.NumberField, upper),
	)
	if err != nil {
		return nil, fmt.Errorf("number prefix %s: %w", r.schema.Collection, err)
	}
	return r.normalizeAll(recs), nil
}

// FindByNamePrefix range-scans the customer-name field. lowered selects the
// lowercase-normalized variant field maintained at write time; legacy
// records may only match the raw-case field.
func (r *Repo) FindByNamePrefix(
	ctx context.Context, lower, upper string, lowered bool, base []db.Constraint, limit int,
) ([]result.Result, error) {
	field := r.schema.NameFields[0]
	if lowered {
		field = r.schema.LowerNameField
	}
	recs, err := r.find(ctx, base, limit,
		db.Gte(field, lower),
		db.Lte(field, upper),
	)
	if err != nil {
		return nil, fmt.Errorf("name prefix %s: %w", r.schema.Collection, err)
	}
	return r.normalizeAll(recs), nil
}

// FindRecentMatching fetches the most recent records created since the given
// time and keeps those whose scan fields contain the lowercase term. This
// serves legacy records that predate both the keyword index and the
// lowercase name variants.
func (r *Repo) FindRecentMatching(
	ctx context.Context, lowerTerm string, since time.Time, base []db.Constraint, limit int,
) ([]result.Result, error) {
	q := &db.Query{
		Collection:  r.schema.Collection,
		Constraints: append(cloneConstraints(base), db.Gte(r.schema.CreatedField, since.UnixMilli())),
		OrderBy:     r.schema.CreatedField,
		Desc:        true,
		Limit:       limit,
	}
	recs, err := r.store.Find(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("recent scan %s: %w", r.schema.Collection, err)
	}

	var matched []db.Record
	for _, rec := range recs {
		if r.schema.Matches(rec, lowerTerm) {
			matched = append(matched, rec)
		}
	}
	return r.normalizeAll(matched), nil
}

// IndexKeywords recomputes and persists the keyword set for one document,
// returning the computed keywords.
func (r *Repo) IndexKeywords(ctx context.Context, id string) ([]string, error) {
	recs, err := r.store.Find(ctx, &db.Query{
		Collection:  r.schema.Collection,
		Constraints: []db.Constraint{db.Eq("_id", id)},
		Limit:       1,
	})
	if err != nil {
		return nil, fmt.Errorf("load %s/%s: %w", r.schema.Collection, id, err)
	}
	if len(recs) == 0 {
		return nil, db.ErrNotFound
	}

	kws := keyword.Compute(recs[0].Fields, r.schema.KeywordFields)
	if err := r.store.UpdateFields(ctx, r.schema.Collection, id, map[string]any{
		r.schema.KeywordsField: kws,
	}); err != nil {
		return nil, fmt.Errorf("persist keywords %s/%s: %w", r.schema.Collection, id, err)
	}
	return kws, nil
}

// FindUnindexed returns ids of documents that still lack a keyword array.
func (r *Repo) FindUnindexed(ctx context.Context, limit int) ([]string, error) {
	recs, err := r.store.Find(ctx, &db.Query{
		Collection:  r.schema.Collection,
		Constraints: []db.Constraint{db.Exists(r.schema.KeywordsField, false)},
		OrderBy:     r.schema.CreatedField,
		Desc:        true,
		Limit:       limit,
	})
	if err != nil {
		return nil, fmt.Errorf("find unindexed %s: %w", r.schema.Collection, err)
	}

	ids := make([]string, 0, len(recs))
	for _, rec := range recs {
		ids = append(ids, rec.ID)
	}
	return ids, nil
}

func (r *Repo) find(
	ctx context.Context, base []db.Constraint, limit int, extra ...db.Constraint,
) ([]db.Record, error) {
	return r.store.Find(ctx, &db.Query{
		Collection:  r.schema.Collection,
		Constraints: append(cloneConstraints(base), extra...),
		Limit:       limit,
	})
}

func (r *Repo) normalizeAll(recs []db.Record) []result.Result {
	results := make([]result.Result, 0, len(recs))
	for _, rec := range recs {
		res, dateFallback := r.schema.Normalize(rec, r.now())
		if dateFallback {
			metrics.DateFallbacksTotal.WithLabelValues(r.schema.Collection).Inc()
		}
		results = append(results, res)
	}
	return results
}

// cloneConstraints copies the shared base constraints so per-strategy
// appends never alias the caller's slice.
func cloneConstraints(base []db.Constraint) []db.Constraint {
	out := make([]db.Constraint, len(base), len(base)+2)
	copy(out, base)
	return out
}
