package ledger

import (
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// Clock supplies wall-clock time for entry timestamps.
type Clock interface {
	Now() time.Time
}

// SystemClock reads time.Now in UTC.
type SystemClock struct{}

// Now returns the current UTC time.
func (SystemClock) Now() time.Time { return time.Now().UTC() }

// TxIDGenerator produces transaction ids for history entries.
type TxIDGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 transaction ids.
//
// Thread-safety: stateless and safe for concurrent use.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// SeqClock is a monotonic logical clock for entry ordering.
// Safe for concurrent use.
type SeqClock struct {
	seq atomic.Int64
}

// NewSeqClockAt creates a clock whose next value is start+1.
func NewSeqClockAt(start int64) *SeqClock {
	c := &SeqClock{}
	c.seq.Store(start)
	return c
}

// Next returns the next sequence number.
func (c *SeqClock) Next() int64 {
	return c.seq.Add(1)
}

// Current returns the last issued sequence number.
func (c *SeqClock) Current() int64 {
	return c.seq.Load()
}

// Options carries the injectable parts shared by every ledger implementation.
type Options struct {
	Clock Clock
	TxIDs TxIDGenerator
}

// Option configures a ledger.
type Option func(*Options)

// WithClock overrides the entry timestamp source.
func WithClock(c Clock) Option {
	return func(o *Options) { o.Clock = c }
}

// WithTxIDs overrides the transaction id generator.
func WithTxIDs(g TxIDGenerator) Option {
	return func(o *Options) { o.TxIDs = g }
}

// ApplyOptions resolves opts over the defaults (system clock, UUIDv7 ids).
func ApplyOptions(opts ...Option) Options {
	o := Options{Clock: SystemClock{}, TxIDs: UUIDv7Generator{}}
	for _, opt := range opts {
		opt(&o)
	}
	return o
}
