package db

import (
	"context"
	"time"
)

// Op is a query constraint operator.
type Op string

// Constraint operators supported by the document store.
const (
	OpEq            Op = "eq"
	OpIn            Op = "in"
	OpGte           Op = "gte"
	OpLte           Op = "lte"
	OpArrayContains Op = "array-contains"
	OpExists        Op = "exists"
)

// Constraint is a single (field, operator, value) clause.
// Constraints on one Query compose conjunctively (logical AND).
type Constraint struct {
	Field string
	Op    Op
	Value any
}

// Eq creates an equality constraint.
func Eq(field string, value any) Constraint {
	return Constraint{Field: field, Op: OpEq, Value: value}
}

// In creates a set-membership constraint.
func In(field string, values []string) Constraint {
	return Constraint{Field: field, Op: OpIn, Value: values}
}

// Gte creates an inclusive lower-bound constraint.
func Gte(field string, value any) Constraint {
	return Constraint{Field: field, Op: OpGte, Value: value}
}

// Lte creates an inclusive upper-bound constraint.
func Lte(field string, value any) Constraint {
	return Constraint{Field: field, Op: OpLte, Value: value}
}

// ArrayContains creates an array-membership constraint.
func ArrayContains(field string, value any) Constraint {
	return Constraint{Field: field, Op: OpArrayContains, Value: value}
}

// Exists creates a field-existence constraint.
func Exists(field string, exists bool) Constraint {
	return Constraint{Field: field, Op: OpExists, Value: exists}
}

// Query describes one read against a single collection.
//
// Range constraints on string fields rely on the store ordering strings
// byte-lexicographically; prefix emulation appends a high sentinel to the
// upper bound. This is part of the store contract, not an implementation
// detail of any one backend.
type Query struct {
	Collection  string
	Constraints []Constraint
	OrderBy     string
	Desc        bool
	Limit       int
}

// Record is one raw document returned by the store. The search layer treats
// it as read-only input; field names vary per collection.
type Record struct {
	ID     string
	Fields map[string]any
}

// Store is the document store contract consumed by the repositories.
type Store interface {
	Find(ctx context.Context, q *Query) ([]Record, error)
	UpdateFields(ctx context.Context, collection, id string, fields map[string]any) error
	Ping(ctx context.Context) error
	Close(ctx context.Context) error
	WaitForReady(ctx context.Context, timeout time.Duration) error
}
