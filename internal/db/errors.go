package db

import "errors"

// Sentinel errors for document store operations.
var (
	ErrNotFound          = errors.New("db: document not found")
	ErrUnsupportedOp     = errors.New("db: unsupported constraint operator")
	ErrInvalidCollection = errors.New("db: collection is required")
)

// Op constants map to store operation names for error context.
const (
	OpFind         = "find"
	OpUpdateFields = "update-fields"
	OpPing         = "ping"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
