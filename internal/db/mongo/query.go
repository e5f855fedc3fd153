package mongo

import (
	"fmt"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/arsomjin/kbnsearch/internal/db"
)

// buildFilter translates conjunctive constraints into a bson filter document.
//
// Equality against an array field matches array membership in MongoDB, so
// OpArrayContains maps to plain equality. Gte/Lte on the same field merge
// into one range document.
func buildFilter(constraints []db.Constraint) (bson.M, error) {
	filter := bson.M{}
	for _, c := range constraints {
		switch c.Op {
		case db.OpEq, db.OpArrayContains:
			filter[c.Field] = c.Value
		case db.OpIn:
			filter[c.Field] = bson.M{"$in": c.Value}
		case db.OpGte:
			mergeRange(filter, c.Field, "$gte", c.Value)
		case db.OpLte:
			mergeRange(filter, c.Field, "$lte", c.Value)
		case db.OpExists:
			filter[c.Field] = bson.M{"$exists": c.Value}
		default:
			return nil, fmt.Errorf("%w: %q on field %q", db.ErrUnsupportedOp, c.Op, c.Field)
		}
	}
	return filter, nil
}

// mergeRange adds a range operator to an existing range document on the field,
// or starts a new one.
func mergeRange(filter bson.M, field, op string, value any) {
	if m, ok := filter[field].(bson.M); ok {
		m[op] = value
		return
	}
	filter[field] = bson.M{op: value}
}

// sortSpec builds a single-key sort document.
func sortSpec(field string, desc bool) bson.D {
	dir := 1
	if desc {
		dir = -1
	}
	return bson.D{{Key: field, Value: dir}}
}

// toRecord converts a decoded bson document into a db.Record, extracting the
// document id and flattening driver-specific value types.
func toRecord(doc map[string]any) db.Record {
	var id string
	switch v := doc["_id"].(type) {
	case string:
		id = v
	case primitive.ObjectID:
		id = v.Hex()
	}
	delete(doc, "_id")

	fields := make(map[string]any, len(doc))
	for k, v := range doc {
		fields[k] = flattenValue(v)
	}
	return db.Record{ID: id, Fields: fields}
}

// flattenValue maps bson driver types onto plain Go values so the layers
// above never see primitive.* types.
func flattenValue(v any) any {
	switch t := v.(type) {
	case primitive.DateTime:
		return t.Time().UnixMilli()
	case primitive.A:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = flattenValue(e)
		}
		return out
	case primitive.M:
		out := make(map[string]any, len(t))
		for k, e := range t {
			out[k] = flattenValue(e)
		}
		return out
	case int32:
		return int64(t)
	default:
		return v
	}
}
