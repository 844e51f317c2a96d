// Package ledgertest holds the behavior every ledger.Ledger must show.
// Each implementation's tests call Run with a constructor.
package ledgertest

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/lotetrace/internal/ledger"
)

// Factory returns a fresh, empty ledger for one subtest.
type Factory func(t *testing.T) ledger.Ledger

// Run executes the conformance suite against ledgers built by newLedger.
func Run(t *testing.T, newLedger Factory) {
	t.Run("GetAbsent", func(t *testing.T) {
		l := newLedger(t)
		v, err := l.Get(context.Background(), "missing")
		require.NoError(t, err)
		assert.Nil(t, v)
	})

	t.Run("PutThenGet", func(t *testing.T) {
		l := newLedger(t)
		ctx := context.Background()
		require.NoError(t, l.Put(ctx, "k", []byte(`{"v":1}`)))

		v, err := l.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, `{"v":1}`, string(v))
	})

	t.Run("PutReplaces", func(t *testing.T) {
		l := newLedger(t)
		ctx := context.Background()
		require.NoError(t, l.Put(ctx, "k", []byte("a")))
		require.NoError(t, l.Put(ctx, "k", []byte("b")))

		v, err := l.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "b", string(v))
	})

	t.Run("DeleteRemovesCurrentValue", func(t *testing.T) {
		l := newLedger(t)
		ctx := context.Background()
		require.NoError(t, l.Put(ctx, "k", []byte("a")))
		require.NoError(t, l.Delete(ctx, "k"))

		v, err := l.Get(ctx, "k")
		require.NoError(t, err)
		assert.Nil(t, v)
	})

	t.Run("HistoryOldestFirstWithTombstone", func(t *testing.T) {
		l := newLedger(t)
		ctx := context.Background()
		require.NoError(t, l.Put(ctx, "k", []byte("a")))
		require.NoError(t, l.Put(ctx, "k", []byte("b")))
		require.NoError(t, l.Delete(ctx, "k"))
		require.NoError(t, l.Put(ctx, "k", []byte("c")))
		require.NoError(t, l.Put(ctx, "other", []byte("x")))

		entries := Collect(t, l, "k")
		require.Len(t, entries, 4)

		assert.Equal(t, "a", string(entries[0].Value))
		assert.Equal(t, "b", string(entries[1].Value))
		assert.True(t, entries[2].IsDelete)
		assert.Empty(t, entries[2].Value)
		assert.Equal(t, "c", string(entries[3].Value))

		seen := map[string]bool{}
		for i, e := range entries {
			assert.NotEmpty(t, e.TxID, "entry %d has no tx id", i)
			assert.False(t, seen[e.TxID], "tx id %s repeated", e.TxID)
			seen[e.TxID] = true
			assert.False(t, e.Timestamp.IsZero(), "entry %d has no timestamp", i)
			if i > 0 {
				assert.Greater(t, e.Seq, entries[i-1].Seq, "seq must increase")
			}
		}
	})

	t.Run("HistoryOfUnknownKeyIsEmpty", func(t *testing.T) {
		l := newLedger(t)
		assert.Empty(t, Collect(t, l, "never-written"))
	})

	t.Run("IteratorNotRestartable", func(t *testing.T) {
		l := newLedger(t)
		ctx := context.Background()
		require.NoError(t, l.Put(ctx, "k", []byte("a")))

		it, err := l.HistoryOf(ctx, "k")
		require.NoError(t, err)
		assert.True(t, it.Next())
		assert.False(t, it.Next())
		assert.False(t, it.Next())
		require.NoError(t, it.Err())
		require.NoError(t, it.Close())
	})

	t.Run("ValuesAreCopied", func(t *testing.T) {
		l := newLedger(t)
		ctx := context.Background()
		buf := []byte("abc")
		require.NoError(t, l.Put(ctx, "k", buf))
		buf[0] = 'z'

		v, err := l.Get(ctx, "k")
		require.NoError(t, err)
		assert.Equal(t, "abc", string(v))
	})
}

// Collect drains the history of key into a slice.
func Collect(t *testing.T, l ledger.Ledger, key string) []ledger.Entry {
	t.Helper()
	it, err := l.HistoryOf(context.Background(), key)
	require.NoError(t, err)
	defer it.Close()

	var entries []ledger.Entry
	for it.Next() {
		entries = append(entries, it.Entry())
	}
	require.NoError(t, it.Err())
	return entries
}
