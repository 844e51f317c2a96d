// Package ledger defines the key-value collaborator the record store runs on.
//
// A Ledger offers single-key get, put and delete, and a per-key history of
// every version ever written. It offers nothing across keys: no multi-key
// transactions and no secondary indexes. Each individual Put or Delete is
// atomic; two calls are never atomic with each other.
//
// Every Put and Delete appends an Entry to the key's history. A Delete
// appends a tombstone (IsDelete true, empty Value). History is never
// rewritten.
package ledger

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrUnavailable marks failures of the backing store itself (connection,
// I/O, constraint errors). Callers test for it with errors.Is.
var ErrUnavailable = errors.New("ledger unavailable")

// Unavailable wraps err so that errors.Is(err, ErrUnavailable) holds while
// the original cause stays in the chain.
func Unavailable(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrUnavailable, err)
}

// Entry is one version in a key's history.
type Entry struct {
	TxID      string
	Seq       int64
	Timestamp time.Time
	Value     []byte
	IsDelete  bool
}

// HistoryIterator walks a key's history in the ledger's native order
// (oldest first for every implementation in this module). It is not
// restartable. Callers must Close it.
type HistoryIterator interface {
	Next() bool
	Entry() Entry
	Err() error
	Close() error
}

// Ledger is the key-value backend.
type Ledger interface {
	// Get returns the current value, or nil with no error when the key is absent.
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	HistoryOf(ctx context.Context, key string) (HistoryIterator, error)
}
