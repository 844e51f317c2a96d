package trace

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/lotetrace/internal/record"
	"github.com/roach88/lotetrace/internal/testutil"
)

func TestHistory_CreateAndTwoUpdates(t *testing.T) {
	s, mem := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, "LOTE-001", "v1", "c1"))
	require.NoError(t, s.Update(ctx, "LOTE-001", "v2", "c2"))
	require.NoError(t, s.Update(ctx, "LOTE-001", "v3", "c3"))

	it, err := s.History(ctx, "LOTE-001")
	require.NoError(t, err)
	snaps, err := CollectHistory(it)
	require.NoError(t, err)
	require.Len(t, snaps, 3)

	assert.Equal(t, "v1", snaps[0].Record.Name)
	assert.Equal(t, "v2", snaps[1].Record.Name)
	assert.Equal(t, "v3", snaps[2].Record.Name)
	for i := 1; i < len(snaps); i++ {
		assert.True(t, snaps[i].Timestamp.After(snaps[i-1].Timestamp) || snaps[i].Timestamp.Equal(snaps[i-1].Timestamp))
		assert.Greater(t, snaps[i].Seq, snaps[i-1].Seq)
	}

	current, err := s.Read(ctx, "LOTE-001")
	require.NoError(t, err)
	assert.Equal(t, current, *snaps[2].Record)

	raw, err := mem.Get(ctx, "LOTE-001")
	require.NoError(t, err)
	assert.Equal(t, record.Digest(raw), snaps[2].Digest)
}

func TestHistory_IncludesAttachEvents(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, "LOTE-001", "Chocolate", "1806"))
	require.NoError(t, s.AttachInput(ctx, "LOTE-001", "LOTE-777", "Cacau", "1801"))

	it, err := s.History(ctx, "LOTE-777")
	require.NoError(t, err)
	snaps, err := CollectHistory(it)
	require.NoError(t, err)
	require.Len(t, snaps, 1)
	assert.Len(t, snaps[0].Record.UsedBy, 1)
}

func TestHistory_TombstoneAfterRecreate(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, "LOTE-001", "first", "c"))
	require.NoError(t, s.Delete(ctx, "LOTE-001"))

	_, err := s.History(ctx, "LOTE-001")
	assert.True(t, IsNotFound(err), "history requires a current value")

	require.NoError(t, s.Create(ctx, "LOTE-001", "second", "c"))

	it, err := s.History(ctx, "LOTE-001")
	require.NoError(t, err)
	snaps, err := CollectHistory(it)
	require.NoError(t, err)
	require.Len(t, snaps, 3)

	assert.False(t, snaps[0].IsDelete)
	assert.Equal(t, "first", snaps[0].Record.Name)

	assert.True(t, snaps[1].IsDelete)
	assert.Nil(t, snaps[1].Record)
	assert.Empty(t, snaps[1].Digest)

	assert.Equal(t, "second", snaps[2].Record.Name)
}

func TestHistory_LazyAndNotRestartable(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, "A", "n", "c"))
	require.NoError(t, s.Update(ctx, "A", "n2", "c"))

	it, err := s.History(ctx, "A")
	require.NoError(t, err)
	defer it.Close()

	require.True(t, it.Next())
	assert.Equal(t, "n", it.Snapshot().Record.Name)
	require.True(t, it.Next())
	assert.Equal(t, "n2", it.Snapshot().Record.Name)
	assert.False(t, it.Next())
	assert.False(t, it.Next())
	assert.NoError(t, it.Err())
}

func TestHistory_CorruptVersionStopsIteration(t *testing.T) {
	s, mem := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, "A", "n", "c"))
	require.NoError(t, mem.Put(ctx, "A", []byte("not json")))
	require.NoError(t, s.Ledger().Put(ctx, "A", mustEncode(t, record.New("A", "fixed", "c", testutil.DefaultEpoch))))

	it, err := s.History(ctx, "A")
	require.NoError(t, err)
	snaps, err := CollectHistory(it)
	assert.Nil(t, snaps)
	assert.ErrorIs(t, err, ErrCorruptRecord)
	assert.Equal(t, CodeCorruptRecord, CodeOf(err))
}

func TestHistory_BackendFailure(t *testing.T) {
	s, f := newFaultyStore(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, "A", "n", "c"))
	f.failHist = true

	_, err := s.History(ctx, "A")
	assert.ErrorIs(t, err, ErrBackendUnavailable)
}

func mustEncode(t *testing.T, r record.Record) []byte {
	t.Helper()
	data, err := record.Encode(r)
	require.NoError(t, err)
	return data
}
