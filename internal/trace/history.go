package trace

import (
	"context"
	"log/slog"
	"time"

	"github.com/roach88/lotetrace/internal/ledger"
	"github.com/roach88/lotetrace/internal/record"
)

// Snapshot is one version of a record as kept by the ledger.
type Snapshot struct {
	TxID      string    `json:"txId" yaml:"txId"`
	Seq       int64     `json:"seq" yaml:"seq"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	IsDelete  bool      `json:"isDelete" yaml:"isDelete"`

	// Digest is the content digest of the stored bytes. Empty for tombstones.
	Digest string `json:"digest,omitempty" yaml:"digest,omitempty"`

	// Record is nil for tombstones.
	Record *record.Record `json:"record,omitempty" yaml:"record,omitempty"`
}

// HistoryIterator yields a record's versions in the ledger's native order
// (oldest first for every ledger in this module). It decodes lazily and
// cannot be restarted. Callers must Close it.
type HistoryIterator struct {
	it      ledger.HistoryIterator
	id      string
	logger  *slog.Logger
	current Snapshot
	err     error
	done    bool
}

// History opens the version log of id. The id must currently hold a record;
// the log itself also contains versions from before any earlier delete.
func (s *Store) History(ctx context.Context, id string) (*HistoryIterator, error) {
	const op = "history"
	k, err := key(op, id)
	if err != nil {
		return nil, err
	}

	ok, err := s.exists(ctx, op, k)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, notFound(op, k)
	}

	it, err := s.ledger.HistoryOf(ctx, k)
	if err != nil {
		return nil, backendError(op, k, err)
	}
	return &HistoryIterator{it: it, id: k, logger: s.logger}, nil
}

// Next decodes the next version. It returns false at the end of the log or
// on the first failure; check Err afterwards.
func (h *HistoryIterator) Next() bool {
	if h.done {
		return false
	}
	if !h.it.Next() {
		h.done = true
		if err := h.it.Err(); err != nil {
			h.err = backendError("history", h.id, err)
		}
		return false
	}

	e := h.it.Entry()
	snap := Snapshot{
		TxID:      e.TxID,
		Seq:       e.Seq,
		Timestamp: e.Timestamp,
		IsDelete:  e.IsDelete,
	}
	if !e.IsDelete {
		rec, err := record.Decode(e.Value)
		if err != nil {
			h.err = corrupt("history", h.id, err)
			h.done = true
			return false
		}
		snap.Record = &rec
		snap.Digest = record.Digest(e.Value)
	}

	h.logger.Debug("history entry",
		"id", h.id,
		"tx_id", snap.TxID,
		"seq", snap.Seq,
		"is_delete", snap.IsDelete,
		"digest", snap.Digest,
	)
	h.current = snap
	return true
}

// Snapshot returns the version produced by the last successful Next.
func (h *HistoryIterator) Snapshot() Snapshot { return h.current }

// Err returns the failure that ended iteration, if any.
func (h *HistoryIterator) Err() error { return h.err }

// Close releases the underlying ledger iterator.
func (h *HistoryIterator) Close() error {
	h.done = true
	return h.it.Close()
}

// CollectHistory drains and closes it.
func CollectHistory(it *HistoryIterator) ([]Snapshot, error) {
	defer it.Close()

	snaps := []Snapshot{}
	for it.Next() {
		snaps = append(snaps, it.Snapshot())
	}
	if err := it.Err(); err != nil {
		return nil, err
	}
	return snaps, nil
}
