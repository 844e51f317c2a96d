package redisledger

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/lotetrace/internal/ledger"
	"github.com/roach88/lotetrace/internal/ledger/ledgertest"
)

// newTestLedger connects to the Redis named by LOTETRACE_TEST_REDIS_ADDR and
// gives each test its own key prefix.
func newTestLedger(t *testing.T) *Ledger {
	t.Helper()
	addr := os.Getenv("LOTETRACE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("LOTETRACE_TEST_REDIS_ADDR not set")
	}

	ctx := context.Background()
	prefix := fmt.Sprintf("lotetrace-test-%d", time.Now().UnixNano())
	l, rdb, err := Dial(ctx, &redis.Options{Addr: addr}, Config{Prefix: prefix})
	require.NoError(t, err)

	t.Cleanup(func() {
		keys, _ := rdb.Keys(ctx, prefix+":*").Result()
		if len(keys) > 0 {
			rdb.Del(ctx, keys...)
		}
		rdb.Close()
	})
	return l
}

func TestRedisConformance(t *testing.T) {
	ledgertest.Run(t, func(t *testing.T) ledger.Ledger {
		return newTestLedger(t)
	})
}

func TestRedis_HistorySpansPages(t *testing.T) {
	l := newTestLedger(t)
	ctx := context.Background()

	const n = historyPageSize*2 + 3
	for i := 0; i < n; i++ {
		require.NoError(t, l.Put(ctx, "k", []byte(fmt.Sprintf("v%d", i))))
	}

	entries := ledgertest.Collect(t, l, "k")
	require.Len(t, entries, n)
	assert.Equal(t, "v0", string(entries[0].Value))
	assert.Equal(t, fmt.Sprintf("v%d", n-1), string(entries[n-1].Value))
}

func TestRedis_UnreachableIsUnavailable(t *testing.T) {
	rdb := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1",
		DialTimeout: 100 * time.Millisecond,
		MaxRetries:  -1,
	})
	defer rdb.Close()
	l := New(rdb, Config{})

	_, err := l.Get(context.Background(), "k")
	assert.ErrorIs(t, err, ledger.ErrUnavailable)

	err = l.Put(context.Background(), "k", []byte("v"))
	assert.ErrorIs(t, err, ledger.ErrUnavailable)

	it, err := l.HistoryOf(context.Background(), "k")
	require.NoError(t, err)
	assert.False(t, it.Next())
	assert.ErrorIs(t, it.Err(), ledger.ErrUnavailable)
	require.NoError(t, it.Close())
}

func TestKeyLayout(t *testing.T) {
	l := New(nil, Config{Prefix: "p"})
	assert.Equal(t, "p:state:LOTE-001", l.stateKey("LOTE-001"))
	assert.Equal(t, "p:history:LOTE-001", l.historyKey("LOTE-001"))
	assert.Equal(t, "p:seq", l.seqKey())
}

func TestDefaultPrefix(t *testing.T) {
	l := New(nil, Config{})
	assert.Equal(t, "lotetrace:seq", l.seqKey())
}
