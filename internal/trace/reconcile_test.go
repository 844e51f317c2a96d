package trace

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerify_CleanAfterAttach(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, "LOTE-001", "Chocolate", "1806"))
	require.NoError(t, s.AttachInput(ctx, "LOTE-001", "LOTE-777", "Cacau", "1801"))
	require.NoError(t, s.AttachInput(ctx, "LOTE-001", "LOTE-777", "Cacau", "1801"))

	for _, id := range []string{"LOTE-001", "LOTE-777"} {
		incs, err := s.Verify(ctx, id)
		require.NoError(t, err)
		assert.Empty(t, incs, id)
	}
}

func TestVerify_NotFound(t *testing.T) {
	s, _ := newTestStore(t)
	_, err := s.Verify(context.Background(), "ghost")
	assert.True(t, IsNotFound(err))

	_, err = s.Repair(context.Background(), "ghost")
	assert.True(t, IsNotFound(err))
}

func TestVerifyRepair_AfterCrashBetweenWrites(t *testing.T) {
	s, f := newFaultyStore(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, "LOTE-001", "Chocolate", "1806"))
	f.failPutOn = 3
	require.Error(t, s.AttachInput(ctx, "LOTE-001", "LOTE-777", "Cacau", "1801"))

	incs, err := s.Verify(ctx, "LOTE-001")
	require.NoError(t, err)
	require.Len(t, incs, 1)
	assert.Equal(t, MissingBackReference, incs[0].Kind)
	assert.Equal(t, "LOTE-001", incs[0].RecordID)
	assert.Equal(t, "LOTE-777", incs[0].Ref.ID)
	assert.Equal(t, 1, incs[0].Expected)
	assert.Equal(t, 0, incs[0].Actual)

	repaired, err := s.Repair(ctx, "LOTE-001")
	require.NoError(t, err)
	require.Len(t, repaired, 1)

	cacau, err := s.Read(ctx, "LOTE-777")
	require.NoError(t, err)
	assert.Equal(t, "Cacau", cacau.Name)
	require.Len(t, cacau.UsedBy, 1)
	assert.Equal(t, "LOTE-001", cacau.UsedBy[0].ID)

	incs, err = s.Verify(ctx, "LOTE-001")
	require.NoError(t, err)
	assert.Empty(t, incs)
}

func TestVerifyRepair_PartialCount(t *testing.T) {
	s, f := newFaultyStore(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, "A", "nameA", "codeA"))             // put 1
	require.NoError(t, s.AttachInput(ctx, "A", "B", "nameB", "codeB"))  // puts 2, 3
	f.failPutOn = 5                                                     // second attach: owner 4, input 5
	require.Error(t, s.AttachInput(ctx, "A", "B", "nameB", "codeB"))

	incs, err := s.Verify(ctx, "A")
	require.NoError(t, err)
	require.Len(t, incs, 1)
	assert.Equal(t, 2, incs[0].Expected)
	assert.Equal(t, 1, incs[0].Actual)

	_, err = s.Repair(ctx, "A")
	require.NoError(t, err)

	b, err := s.Read(ctx, "B")
	require.NoError(t, err)
	assert.Len(t, b.UsedBy, 2)
}

func TestVerify_MissingForwardReference(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, "A", "nameA", "codeA"))
	require.NoError(t, s.AttachInput(ctx, "A", "B", "nameB", "codeB"))

	// Rewrite A without its input, as if A had been recreated elsewhere.
	require.NoError(t, s.Delete(ctx, "A"))
	require.NoError(t, s.Create(ctx, "A", "nameA", "codeA"))

	incs, err := s.Verify(ctx, "B")
	require.NoError(t, err)
	require.Len(t, incs, 1)
	assert.Equal(t, MissingForwardReference, incs[0].Kind)
	assert.Equal(t, "A", incs[0].Ref.ID)

	repaired, err := s.Repair(ctx, "B")
	require.NoError(t, err)
	assert.Empty(t, repaired, "forward references are never fabricated")

	a, err := s.Read(ctx, "A")
	require.NoError(t, err)
	assert.Empty(t, a.Inputs)
}

func TestVerify_DanglingReference(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, "LOTE-001", "Chocolate", "1806"))
	require.NoError(t, s.AttachInput(ctx, "LOTE-001", "LOTE-777", "Cacau", "1801"))
	require.NoError(t, s.Delete(ctx, "LOTE-777"))

	incs, err := s.Verify(ctx, "LOTE-001")
	require.NoError(t, err)
	require.Len(t, incs, 1)
	assert.Equal(t, DanglingReference, incs[0].Kind)

	repaired, err := s.Repair(ctx, "LOTE-001")
	require.NoError(t, err)
	assert.Empty(t, repaired)

	ok, err := s.Exists(ctx, "LOTE-777")
	require.NoError(t, err)
	assert.False(t, ok, "repair never resurrects deleted records")
}

func TestVerify_SelfReference(t *testing.T) {
	s, _ := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Create(ctx, "A", "nameA", "codeA"))
	require.NoError(t, s.AttachInput(ctx, "A", "A", "nameA", "codeA"))

	incs, err := s.Verify(ctx, "A")
	require.NoError(t, err)
	assert.Empty(t, incs)
}
