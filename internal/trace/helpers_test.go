package trace

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/roach88/lotetrace/internal/ledger"
	"github.com/roach88/lotetrace/internal/testutil"
)

var errInjected = errors.New("injected ledger failure")

// faultyLedger wraps a ledger and fails selected calls.
type faultyLedger struct {
	ledger.Ledger

	mu sync.Mutex
	// failPutOn fails the Put whose 1-based index equals it. Zero disables.
	failPutOn int
	puts      int
	failGet   bool
	failHist  bool
}

func (f *faultyLedger) Get(ctx context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	fail := f.failGet
	f.mu.Unlock()
	if fail {
		return nil, ledger.Unavailable("faulty get", errInjected)
	}
	return f.Ledger.Get(ctx, key)
}

func (f *faultyLedger) Put(ctx context.Context, key string, value []byte) error {
	f.mu.Lock()
	f.puts++
	fail := f.failPutOn != 0 && f.puts == f.failPutOn
	f.mu.Unlock()
	if fail {
		return ledger.Unavailable("faulty put", errInjected)
	}
	return f.Ledger.Put(ctx, key, value)
}

func (f *faultyLedger) HistoryOf(ctx context.Context, key string) (ledger.HistoryIterator, error) {
	f.mu.Lock()
	fail := f.failHist
	f.mu.Unlock()
	if fail {
		return nil, ledger.Unavailable("faulty history", errInjected)
	}
	return f.Ledger.HistoryOf(ctx, key)
}

// countingObserver records relation events.
type countingObserver struct {
	mu       sync.Mutex
	sides    map[string]int
	partials int
}

func (o *countingObserver) RelationWrite(side string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.sides == nil {
		o.sides = map[string]int{}
	}
	o.sides[side]++
}

func (o *countingObserver) PartialRelationFailure() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.partials++
}

// newTestStore returns a Store over a fresh memory ledger with a
// deterministic clock.
func newTestStore(t *testing.T, opts ...Option) (*Store, *ledger.Memory) {
	t.Helper()
	mem := ledger.NewMemory(ledger.WithTxIDs(testutil.NewFixedTxIDGenerator()))
	opts = append([]Option{WithClock(testutil.NewDeterministicClock())}, opts...)
	return NewStore(mem, opts...), mem
}

// newFaultyStore is newTestStore behind a faultyLedger.
func newFaultyStore(t *testing.T, opts ...Option) (*Store, *faultyLedger) {
	t.Helper()
	f := &faultyLedger{Ledger: ledger.NewMemory()}
	opts = append([]Option{WithClock(testutil.NewDeterministicClock())}, opts...)
	return NewStore(f, opts...), f
}
