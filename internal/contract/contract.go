// Package contract is the invocable surface of the record store.
//
// Contract exposes one method per operation and Invoke, which dispatches by
// function name with positional string arguments the way a ledger
// transaction names a contract function. Every call is timed, counted and
// logged; none is retried.
package contract

import (
	"context"
	"log/slog"
	"strings"
	"time"

	"github.com/roach88/lotetrace/internal/metrics"
	"github.com/roach88/lotetrace/internal/record"
	"github.com/roach88/lotetrace/internal/trace"
)

// Contract binds transports to a trace.Store.
type Contract struct {
	store   *trace.Store
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// Option configures a Contract.
type Option func(*Contract)

// WithMetrics records every call on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Contract) { c.metrics = m }
}

// WithLogger sets the call logger.
func WithLogger(l *slog.Logger) Option {
	return func(c *Contract) {
		if l != nil {
			c.logger = l
		}
	}
}

// New returns a Contract over s.
func New(s *trace.Store, opts ...Option) *Contract {
	c := &Contract{
		store:  s,
		logger: slog.New(slog.DiscardHandler),
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.metrics == nil {
		c.metrics = metrics.Discard()
	}
	return c
}

// Store returns the underlying store.
func (c *Contract) Store() *trace.Store {
	return c.store
}

// observe times fn and records its outcome.
func (c *Contract) observe(op, id string, fn func() error) error {
	start := time.Now()
	err := fn()
	elapsed := time.Since(start)

	outcome := Outcome(err)
	c.metrics.Observe(op, outcome, elapsed)
	if err != nil {
		c.logger.Warn("operation failed", "op", op, "id", id, "outcome", outcome, "error", err)
	} else {
		c.logger.Debug("operation done", "op", op, "id", id, "elapsed", elapsed)
	}
	return err
}

// Outcome is the metrics label for err: "ok", the lower-cased error code,
// or "error" for errors without a code.
func Outcome(err error) string {
	if err == nil {
		return metrics.OutcomeOK
	}
	if code := trace.CodeOf(err); code != "" {
		return strings.ToLower(string(code))
	}
	return "error"
}

// Exists reports whether id holds a record.
func (c *Contract) Exists(ctx context.Context, id string) (bool, error) {
	var ok bool
	err := c.observe(FnExists, id, func() (err error) {
		ok, err = c.store.Exists(ctx, id)
		return err
	})
	return ok, err
}

// Create makes a record with no relations.
func (c *Contract) Create(ctx context.Context, id, name, classificationCode string) error {
	return c.observe(FnCreate, id, func() error {
		return c.store.Create(ctx, id, name, classificationCode)
	})
}

// Read returns the current record.
func (c *Contract) Read(ctx context.Context, id string) (record.Record, error) {
	var rec record.Record
	err := c.observe(FnRead, id, func() (err error) {
		rec, err = c.store.Read(ctx, id)
		return err
	})
	return rec, err
}

// Update renames a record and changes its code.
func (c *Contract) Update(ctx context.Context, id, name, classificationCode string) error {
	return c.observe(FnUpdate, id, func() error {
		return c.store.Update(ctx, id, name, classificationCode)
	})
}

// Delete removes the current record.
func (c *Contract) Delete(ctx context.Context, id string) error {
	return c.observe(FnDelete, id, func() error {
		return c.store.Delete(ctx, id)
	})
}

// AttachInput records inputID as consumed by ownerID.
func (c *Contract) AttachInput(ctx context.Context, ownerID, inputID, inputName, inputCode string) error {
	return c.observe(FnAttachInput, ownerID, func() error {
		return c.store.AttachInput(ctx, ownerID, inputID, inputName, inputCode)
	})
}

// History opens the version log of id. Only opening is timed; the caller
// drains and closes the iterator.
func (c *Contract) History(ctx context.Context, id string) (*trace.HistoryIterator, error) {
	var it *trace.HistoryIterator
	err := c.observe(FnHistory, id, func() (err error) {
		it, err = c.store.History(ctx, id)
		return err
	})
	return it, err
}

// Verify reports one-sided relations of id.
func (c *Contract) Verify(ctx context.Context, id string) ([]trace.Inconsistency, error) {
	var incs []trace.Inconsistency
	err := c.observe(FnVerify, id, func() (err error) {
		incs, err = c.store.Verify(ctx, id)
		return err
	})
	return incs, err
}

// Repair writes missing back references of id.
func (c *Contract) Repair(ctx context.Context, id string) ([]trace.Inconsistency, error) {
	var incs []trace.Inconsistency
	err := c.observe(FnRepair, id, func() (err error) {
		incs, err = c.store.Repair(ctx, id)
		return err
	})
	return incs, err
}
