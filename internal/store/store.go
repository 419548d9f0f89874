// Package store defines the persisted key-value store the search engine
// reads session state and raw content records from.
package store

import (
	"context"
	"errors"
)

// ErrNotFound signals a missing key.
var ErrNotFound = errors.New("store: key not found")

// Store is a JSON-blob key-value store. Implementations must treat
// values as opaque bytes.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	Close()
}

// Op constants map to backend command names for error context.
const (
	OpGet  = "GET"
	OpSet  = "SET"
	OpDel  = "DEL"
	OpPing = "PING"
)

// Error wraps an underlying error with the operation name for diagnostics.
type Error struct {
	Op  string
	Err error
}

func (e *Error) Error() string { return e.Op + ": " + e.Err.Error() }
func (e *Error) Unwrap() error { return e.Err }
