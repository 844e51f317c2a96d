// Package pgledger implements ledger.Ledger on PostgreSQL through pgx.
//
// lotetrace_state holds the current value per key and lotetrace_versions the
// append-only history. Each Put or Delete writes both in one transaction.
package pgledger

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/roach88/lotetrace/internal/ledger"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS lotetrace_state (
    key TEXT PRIMARY KEY,
    value BYTEA NOT NULL,
    seq BIGINT NOT NULL
);

CREATE TABLE IF NOT EXISTS lotetrace_versions (
    seq BIGSERIAL PRIMARY KEY,
    key TEXT NOT NULL,
    tx_id TEXT NOT NULL UNIQUE,
    value BYTEA NOT NULL,
    is_delete BOOLEAN NOT NULL DEFAULT FALSE,
    recorded_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_lotetrace_versions_key_seq
    ON lotetrace_versions(key, seq);
`

var _ ledger.Ledger = (*Ledger)(nil)

// Ledger stores records in PostgreSQL.
type Ledger struct {
	pool *pgxpool.Pool
	opts ledger.Options
}

// PoolConfig tunes the connection pool.
type PoolConfig struct {
	DSN      string
	MaxConns int32
}

// NewPool parses cfg, connects and pings.
func NewPool(ctx context.Context, cfg PoolConfig) (*pgxpool.Pool, error) {
	poolConfig, err := pgxpool.ParseConfig(cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("parse DSN: %w", err)
	}
	if cfg.MaxConns > 0 {
		poolConfig.MaxConns = cfg.MaxConns
	}
	poolConfig.MaxConnLifetime = time.Hour
	poolConfig.MaxConnIdleTime = 30 * time.Minute
	poolConfig.HealthCheckPeriod = time.Minute

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, ledger.Unavailable("create pool", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, ledger.Unavailable("ping DB", err)
	}
	return pool, nil
}

// New creates the tables if missing and returns a ledger over pool.
// The caller owns the pool.
func New(ctx context.Context, pool *pgxpool.Pool, opts ...ledger.Option) (*Ledger, error) {
	if _, err := pool.Exec(ctx, schemaSQL); err != nil {
		return nil, ledger.Unavailable("apply schema", err)
	}
	return &Ledger{pool: pool, opts: ledger.ApplyOptions(opts...)}, nil
}

// Get returns the current value, or nil when the key has none.
func (l *Ledger) Get(ctx context.Context, key string) ([]byte, error) {
	var value []byte
	err := l.pool.QueryRow(ctx, `SELECT value FROM lotetrace_state WHERE key = $1`, key).Scan(&value)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, ledger.Unavailable("postgres get", err)
	}
	if value == nil {
		value = []byte{}
	}
	return value, nil
}

// Put sets the current value and appends a version.
func (l *Ledger) Put(ctx context.Context, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	return l.write(ctx, "postgres put", key, value, false)
}

// Delete removes the current value and appends a tombstone.
func (l *Ledger) Delete(ctx context.Context, key string) error {
	return l.write(ctx, "postgres delete", key, []byte{}, true)
}

func (l *Ledger) write(ctx context.Context, op, key string, value []byte, isDelete bool) error {
	err := pgx.BeginFunc(ctx, l.pool, func(tx pgx.Tx) error {
		var seq int64
		err := tx.QueryRow(ctx, `
			INSERT INTO lotetrace_versions (key, tx_id, value, is_delete, recorded_at)
			VALUES ($1, $2, $3, $4, $5)
			RETURNING seq`,
			key, l.opts.TxIDs.Generate(), value, isDelete, l.opts.Clock.Now().UTC(),
		).Scan(&seq)
		if err != nil {
			return fmt.Errorf("insert version: %w", err)
		}

		if isDelete {
			_, err = tx.Exec(ctx, `DELETE FROM lotetrace_state WHERE key = $1`, key)
		} else {
			_, err = tx.Exec(ctx, `
				INSERT INTO lotetrace_state (key, value, seq)
				VALUES ($1, $2, $3)
				ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, seq = EXCLUDED.seq`,
				key, value, seq)
		}
		if err != nil {
			return fmt.Errorf("state: %w", err)
		}
		return nil
	})
	if err != nil {
		return ledger.Unavailable(op, err)
	}
	return nil
}

// HistoryOf streams the key's versions, oldest first. The iterator holds a
// pooled connection until closed.
func (l *Ledger) HistoryOf(ctx context.Context, key string) (ledger.HistoryIterator, error) {
	rows, err := l.pool.Query(ctx, `
		SELECT seq, tx_id, value, is_delete, recorded_at
		FROM lotetrace_versions
		WHERE key = $1
		ORDER BY seq ASC`, key)
	if err != nil {
		return nil, ledger.Unavailable("postgres history", err)
	}
	return &rowsIterator{rows: rows}, nil
}

type rowsIterator struct {
	rows    pgx.Rows
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
			it.err = ledger.Unavailable("postgres history: iterate", err)
		}
		return false
	}

	var e ledger.Entry
	if err := it.rows.Scan(&e.Seq, &e.TxID, &e.Value, &e.IsDelete, &e.Timestamp); err != nil {
		it.err = ledger.Unavailable("postgres history: scan", err)
		it.done = true
		it.rows.Close()
		return false
	}
	e.Timestamp = e.Timestamp.UTC()
	if e.Value == nil {
		e.Value = []byte{}
	}
	it.current = e
	return true
}

func (it *rowsIterator) Entry() ledger.Entry { return it.current }

func (it *rowsIterator) Err() error { return it.err }

func (it *rowsIterator) Close() error {
	it.done = true
	it.rows.Close()
	return nil
}
