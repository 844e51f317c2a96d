package ledger

import (
	"bytes"
	"context"
	"sync"
)

var _ Ledger = (*Memory)(nil)

// Memory is an in-process Ledger. It backs tests, the scenario harness and
// the "memory" backend of the CLI.
type Memory struct {
	mu      sync.Mutex
	state   map[string][]byte
	history map[string][]Entry
	seq     *SeqClock
	opts    Options
}

// NewMemory returns an empty in-memory ledger.
func NewMemory(opts ...Option) *Memory {
	return &Memory{
		state:   make(map[string][]byte),
		history: make(map[string][]Entry),
		seq:     NewSeqClockAt(0),
		opts:    ApplyOptions(opts...),
	}
}

// Get returns a copy of the current value or nil.
func (m *Memory) Get(_ context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.state[key]
	if !ok {
		return nil, nil
	}
	return bytes.Clone(v), nil
}

// Put replaces the current value and appends a version.
func (m *Memory) Put(_ context.Context, key string, value []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	v := bytes.Clone(value)
	m.state[key] = v
	m.appendLocked(key, v, false)
	return nil
}

// Delete removes the current value and appends a tombstone. Deleting an
// absent key still records the tombstone, matching a ledger that logs every
// write request.
func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.state, key)
	m.appendLocked(key, []byte{}, true)
	return nil
}

func (m *Memory) appendLocked(key string, value []byte, isDelete bool) {
	m.history[key] = append(m.history[key], Entry{
		TxID:      m.opts.TxIDs.Generate(),
		Seq:       m.seq.Next(),
		Timestamp: m.opts.Clock.Now().UTC(),
		Value:     value,
		IsDelete:  isDelete,
	})
}

// HistoryOf returns the versions written so far. Writes made after the call
// are not visible to the returned iterator.
func (m *Memory) HistoryOf(_ context.Context, key string) (HistoryIterator, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	entries := make([]Entry, len(m.history[key]))
	copy(entries, m.history[key])
	return NewSliceIterator(entries), nil
}

// Len returns the number of live keys.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.state)
}
