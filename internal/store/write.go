package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/roach88/lotetrace/internal/ledger"
)

// Put replaces the current value of key and appends a version row.
// Both writes commit in one transaction.
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	return s.write(ctx, "sqlite put", key, value, false)
}

// Delete removes the current value of key and appends a tombstone version.
// A tombstone is written even when the key holds no value.
func (s *Store) Delete(ctx context.Context, key string) error {
	return s.write(ctx, "sqlite delete", key, []byte{}, true)
}

func (s *Store) write(ctx context.Context, op, key string, value []byte, isDelete bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return ledger.Unavailable(op+": begin tx", err)
	}
	defer tx.Rollback() // No-op if committed

	result, err := tx.ExecContext(ctx, `
		INSERT INTO record_versions (key, tx_id, value, is_delete, recorded_at)
		VALUES (?, ?, ?, ?, ?)
	`,
		key,
		s.opts.TxIDs.Generate(),
		value,
		boolToInt(isDelete),
		s.opts.Clock.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return ledger.Unavailable(op+": insert version", err)
	}

	seq, err := result.LastInsertId()
	if err != nil {
		return ledger.Unavailable(op+": last insert id", err)
	}

	if isDelete {
		err = deleteState(ctx, tx, key)
	} else {
		err = upsertState(ctx, tx, key, value, seq)
	}
	if err != nil {
		return ledger.Unavailable(op+": state", err)
	}

	if err := tx.Commit(); err != nil {
		return ledger.Unavailable(op+": commit", err)
	}
	return nil
}

func upsertState(ctx context.Context, tx *sql.Tx, key string, value []byte, seq int64) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO record_state (key, value, seq)
		VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, seq = excluded.seq
	`, key, value, seq)
	return err
}

func deleteState(ctx context.Context, tx *sql.Tx, key string) error {
	_, err := tx.ExecContext(ctx, `DELETE FROM record_state WHERE key = ?`, key)
	return err
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
