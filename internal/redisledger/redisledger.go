// Package redisledger implements ledger.Ledger on Redis.
//
// Keys used, for a prefix P and ledger key K:
//
//	P:state:K    current value (absent once deleted)
//	P:history:K  list of JSON-encoded versions, oldest first
//	P:seq        global version counter (INCR)
//
// Each Put or Delete runs its state write and history append in one
// MULTI/EXEC block.
package redisledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/roach88/lotetrace/internal/ledger"
)

// DefaultPrefix namespaces every key this ledger touches.
const DefaultPrefix = "lotetrace"

// historyPageSize is how many versions one LRANGE fetches.
const historyPageSize = 64

var _ ledger.Ledger = (*Ledger)(nil)

// Ledger stores records in Redis.
type Ledger struct {
	rdb    redis.UniversalClient
	prefix string
	logger *slog.Logger
	opts   ledger.Options
}

// Config selects the Redis keyspace and logger.
type Config struct {
	Prefix string
	Logger *slog.Logger
}

// New wraps an existing client. The caller owns the client's lifecycle.
func New(rdb redis.UniversalClient, cfg Config, opts ...ledger.Option) *Ledger {
	if cfg.Prefix == "" {
		cfg.Prefix = DefaultPrefix
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.New(slog.DiscardHandler)
	}
	return &Ledger{
		rdb:    rdb,
		prefix: cfg.Prefix,
		logger: cfg.Logger,
		opts:   ledger.ApplyOptions(opts...),
	}
}

// Dial connects to addr and verifies the connection with PING.
func Dial(ctx context.Context, opt *redis.Options, cfg Config, opts ...ledger.Option) (*Ledger, *redis.Client, error) {
	rdb := redis.NewClient(opt)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, nil, ledger.Unavailable("redis ping", err)
	}
	return New(rdb, cfg, opts...), rdb, nil
}

func (l *Ledger) stateKey(key string) string   { return fmt.Sprintf("%s:state:%s", l.prefix, key) }
func (l *Ledger) historyKey(key string) string { return fmt.Sprintf("%s:history:%s", l.prefix, key) }
func (l *Ledger) seqKey() string               { return l.prefix + ":seq" }

// version is the JSON shape of one history list element.
type version struct {
	TxID      string    `json:"txId"`
	Seq       int64     `json:"seq"`
	Timestamp time.Time `json:"timestamp"`
	Value     []byte    `json:"value"`
	IsDelete  bool      `json:"isDelete"`
}

// Get returns the current value, or nil when the key has none.
func (l *Ledger) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := l.rdb.Get(ctx, l.stateKey(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		l.logger.Debug("redis GET key not found", "key", key)
		return nil, nil
	}
	if err != nil {
		l.logger.Error("redis GET failed", "key", key, "error", err)
		return nil, ledger.Unavailable("redis get", err)
	}
	if val == nil {
		val = []byte{}
	}
	return val, nil
}

// Put sets the current value and appends a version.
func (l *Ledger) Put(ctx context.Context, key string, value []byte) error {
	if value == nil {
		value = []byte{}
	}
	return l.write(ctx, "redis put", key, value, false)
}

// Delete removes the current value and appends a tombstone.
func (l *Ledger) Delete(ctx context.Context, key string) error {
	return l.write(ctx, "redis delete", key, []byte{}, true)
}

func (l *Ledger) write(ctx context.Context, op, key string, value []byte, isDelete bool) error {
	seq, err := l.rdb.Incr(ctx, l.seqKey()).Result()
	if err != nil {
		l.logger.Error("redis INCR failed", "key", l.seqKey(), "error", err)
		return ledger.Unavailable(op+": seq", err)
	}

	encoded, err := json.Marshal(version{
		TxID:      l.opts.TxIDs.Generate(),
		Seq:       seq,
		Timestamp: l.opts.Clock.Now().UTC(),
		Value:     value,
		IsDelete:  isDelete,
	})
	if err != nil {
		return fmt.Errorf("%s: encode version: %w", op, err)
	}

	_, err = l.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if isDelete {
			pipe.Del(ctx, l.stateKey(key))
		} else {
			pipe.Set(ctx, l.stateKey(key), value, 0)
		}
		pipe.RPush(ctx, l.historyKey(key), encoded)
		return nil
	})
	if err != nil {
		l.logger.Error("redis MULTI failed", "op", op, "key", key, "error", err)
		return ledger.Unavailable(op, err)
	}

	l.logger.Debug("redis write", "op", op, "key", key, "seq", seq)
	return nil
}

// HistoryOf pages through the key's history list as the caller advances.
func (l *Ledger) HistoryOf(ctx context.Context, key string) (ledger.HistoryIterator, error) {
	return &pageIterator{ctx: ctx, l: l, key: l.historyKey(key)}, nil
}

type pageIterator struct {
	ctx     context.Context
	l       *Ledger
	key     string
	page    []string
	offset  int64
	pos     int
	current ledger.Entry
	err     error
	done    bool
}

func (it *pageIterator) Next() bool {
	if it.done {
		return false
	}
	if it.pos >= len(it.page) {
		if !it.fetch() {
			return false
		}
	}

	var v version
	if err := json.Unmarshal([]byte(it.page[it.pos]), &v); err != nil {
		it.err = ledger.Unavailable("redis history: decode", err)
		it.done = true
		return false
	}
	it.pos++

	if v.Value == nil {
		v.Value = []byte{}
	}
	it.current = ledger.Entry{
		TxID:      v.TxID,
		Seq:       v.Seq,
		Timestamp: v.Timestamp.UTC(),
		Value:     v.Value,
		IsDelete:  v.IsDelete,
	}
	return true
}

// fetch loads the next page. It reports false when the list is exhausted or
// the read failed.
func (it *pageIterator) fetch() bool {
	page, err := it.l.rdb.LRange(it.ctx, it.key, it.offset, it.offset+historyPageSize-1).Result()
	if err != nil {
		it.l.logger.Error("redis LRANGE failed", "key", it.key, "error", err)
		it.err = ledger.Unavailable("redis history", err)
		it.done = true
		return false
	}
	if len(page) == 0 {
		it.done = true
		return false
	}
	it.page = page
	it.pos = 0
	it.offset += int64(len(page))
	return true
}

func (it *pageIterator) Entry() ledger.Entry { return it.current }

func (it *pageIterator) Err() error { return it.err }

func (it *pageIterator) Close() error {
	it.done = true
	it.page = nil
	return nil
}
