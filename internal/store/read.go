package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/roach88/lotetrace/internal/ledger"
)

// Get returns the current value of key, or nil when the key has none.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := s.db.QueryRowContext(ctx, `
		SELECT value FROM record_state WHERE key = ?
	`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, ledger.Unavailable("sqlite get", err)
	}
	if value == nil {
		value = []byte{}
	}
	return value, nil
}

// HistoryOf returns a lazy iterator over every version of key, oldest first.
// Rows are scanned as the caller advances; the iterator must be closed.
func (s *Store) HistoryOf(ctx context.Context, key string) (ledger.HistoryIterator, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT seq, tx_id, value, is_delete, recorded_at
		FROM record_versions
		WHERE key = ?
		ORDER BY seq ASC
	`, key)
	if err != nil {
		return nil, ledger.Unavailable("sqlite history", err)
	}
	return &rowsIterator{rows: rows}, nil
}

// rowsIterator adapts *sql.Rows to ledger.HistoryIterator.
type rowsIterator struct {
	rows    *sql.Rows
	current ledger.Entry
	err     error
	done    bool
}

func (it *rowsIterator) Next() bool {
	if it.done {
		return false
	}
	if !it.rows.Next() {
		it.done = true
		if err := it.rows.Err(); err != nil {
			it.err = ledger.Unavailable("sqlite history: iterate", err)
		}
		return false
	}

	entry, err := scanEntry(it.rows)
	if err != nil {
		it.err = err
		it.done = true
		return false
	}
	it.current = entry
	return true
}

func (it *rowsIterator) Entry() ledger.Entry { return it.current }

func (it *rowsIterator) Err() error { return it.err }

func (it *rowsIterator) Close() error {
	it.done = true
	return it.rows.Close()
}

func scanEntry(rows *sql.Rows) (ledger.Entry, error) {
	var (
		e          ledger.Entry
		isDelete   int
		recordedAt string
	)
	if err := rows.Scan(&e.Seq, &e.TxID, &e.Value, &isDelete, &recordedAt); err != nil {
		return ledger.Entry{}, ledger.Unavailable("sqlite history: scan", err)
	}
	ts, err := time.Parse(time.RFC3339Nano, recordedAt)
	if err != nil {
		return ledger.Entry{}, ledger.Unavailable("sqlite history",
			fmt.Errorf("parse recorded_at %q: %w", recordedAt, err))
	}
	e.Timestamp = ts.UTC()
	e.IsDelete = isDelete == 1
	if e.Value == nil {
		e.Value = []byte{}
	}
	return e, nil
}
