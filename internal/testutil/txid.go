package testutil

import (
	"fmt"
	"sync"
)

// FixedTxIDGenerator hands out transaction ids from a fixed list, then falls
// back to "tx-0001", "tx-0002", ... once the list runs out.
//
// This enables golden snapshot comparison of history output.
//
// Thread-safety: safe for concurrent use via internal mutex.
type FixedTxIDGenerator struct {
	mu  sync.Mutex
	ids []string
	n   int
}

// NewFixedTxIDGenerator creates a generator that returns ids in order.
func NewFixedTxIDGenerator(ids ...string) *FixedTxIDGenerator {
	return &FixedTxIDGenerator{ids: ids}
}

// Generate returns the next id.
//
// Implements ledger.TxIDGenerator interface.
func (g *FixedTxIDGenerator) Generate() string {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.n++
	if g.n <= len(g.ids) {
		return g.ids[g.n-1]
	}
	return fmt.Sprintf("tx-%04d", g.n)
}
