package trace

import (
	"context"
	"log/slog"
	"time"


	"github.com/roach88/lotetrace/internal/ledger"
	"github.com/roach88/lotetrace/internal/record"
)

// RelationObserver is told about each relation write. metrics.Metrics
// implements it.
type RelationObserver interface {
	// RelationWrite records one successful write of a relation side:
	// SideOwner or SideCounterpart.
	RelationWrite(side string)

	// PartialRelationFailure records an owner write whose back reference
	// could not be written.
	PartialRelationFailure()
}

// Relation sides reported to RelationObserver.
const (
	SideOwner       = "owner"
	SideCounterpart = "counterpart"
)

type nopObserver struct{}

func (nopObserver) RelationWrite(string)    {}
func (nopObserver) PartialRelationFailure() {}

// Store runs record operations against a ledger. It holds no record state of
// its own; every call reads fresh values.
type Store struct {
	ledger   ledger.Ledger
	clock    ledger.Clock
	logger   *slog.Logger
	observer RelationObserver
}

// Option configures a Store.
type Option func(*Store)

// WithClock sets the source of createdOrUpdatedAt timestamps.
func WithClock(c ledger.Clock) Option {
	return func(s *Store) { s.clock = c }
}

// WithLogger sets the logger. Nil discards.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithRelationObserver receives relation write events.
func WithRelationObserver(o RelationObserver) Option {
	return func(s *Store) {
		if o != nil {
			s.observer = o
		}
	}
}

// NewStore returns a Store over l.
func NewStore(l ledger.Ledger, opts ...Option) *Store {
	s := &Store{
		ledger:   l,
		clock:    ledger.SystemClock{},
		logger:   slog.New(slog.DiscardHandler),
		observer: nopObserver{},
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ledger returns the backing ledger.
func (s *Store) Ledger() ledger.Ledger {
	return s.ledger
}

// key validates a record id. Ids are opaque: the key is the id as given.
func key(op, id string) (string, error) {
	if id == "" {
		return "", InvalidArgument(op, id, "id must not be empty")
	}
	return id, nil
}

// Exists reports whether id currently holds a non-empty value. The empty id
// never does.
func (s *Store) Exists(ctx context.Context, id string) (bool, error) {
	if id == "" {
		return false, nil
	}
	return s.exists(ctx, "exists", id)
}

func (s *Store) exists(ctx context.Context, op, k string) (bool, error) {
	v, err := s.ledger.Get(ctx, k)
	if err != nil {
		return false, backendError(op, k, err)
	}
	return len(v) > 0, nil
}

// load reads and decodes k. found is false when k holds no value.
func (s *Store) load(ctx context.Context, op, k string) (rec record.Record, found bool, err error) {
	v, err := s.ledger.Get(ctx, k)
	if err != nil {
		return record.Record{}, false, backendError(op, k, err)
	}
	if len(v) == 0 {
		return record.Record{}, false, nil
	}
	rec, err = record.Decode(v)
	if err != nil {
		s.logger.Error("stored record does not decode", "op", op, "id", k, "error", err)
		return record.Record{}, true, corrupt(op, k, err)
	}
	return rec, true, nil
}

// save encodes rec and writes it under its id.
func (s *Store) save(ctx context.Context, op string, rec record.Record) error {
	data, err := record.Encode(rec)
	if err != nil {
		return &Error{Code: CodeInvalidArgument, Op: op, ID: rec.ID, Err: err}
	}
	if err := s.ledger.Put(ctx, rec.ID, data); err != nil {
		return backendError(op, rec.ID, err)
	}
	return nil
}

func (s *Store) now() time.Time {
	return s.clock.Now().UTC()
}

// Create writes a new record with empty relation lists.
func (s *Store) Create(ctx context.Context, id, name, classificationCode string) error {
	const op = "create"
	k, err := key(op, id)
	if err != nil {
		return err
	}

	ok, err := s.exists(ctx, op, k)
	if err != nil {
		return err
	}
	if ok {
		return alreadyExists(op, k)
	}

	rec := record.New(k, name, classificationCode, s.now())
	if err := s.save(ctx, op, rec); err != nil {
		return err
	}
	s.logger.Info("record created", "op", op, "id", k)
	return nil
}

// Read returns the current record.
func (s *Store) Read(ctx context.Context, id string) (record.Record, error) {
	const op = "read"
	k, err := key(op, id)
	if err != nil {
		return record.Record{}, err
	}

	rec, found, err := s.load(ctx, op, k)
	if err != nil {
		return record.Record{}, err
	}
	if !found {
		return record.Record{}, notFound(op, k)
	}
	return rec, nil
}

// Update replaces name and classification code. Inputs and UsedBy are
// written back unchanged.
func (s *Store) Update(ctx context.Context, id, name, classificationCode string) error {
	const op = "update"
	k, err := key(op, id)
	if err != nil {
		return err
	}

	rec, found, err := s.load(ctx, op, k)
	if err != nil {
		return err
	}
	if !found {
		return notFound(op, k)
	}

	rec.Name = name
	rec.ClassificationCode = classificationCode
	rec.CreatedOrUpdatedAt = s.now()
	if err := s.save(ctx, op, rec); err != nil {
		return err
	}
	s.logger.Info("record updated", "op", op, "id", k)
	return nil
}

// Delete removes the current record. History is kept and records of other
// ids that reference this one are not touched.
func (s *Store) Delete(ctx context.Context, id string) error {
	const op = "delete"
	k, err := key(op, id)
	if err != nil {
		return err
	}

	ok, err := s.exists(ctx, op, k)
	if err != nil {
		return err
	}
	if !ok {
		return notFound(op, k)
	}

	if err := s.ledger.Delete(ctx, k); err != nil {
		return backendError(op, k, err)
	}
	s.logger.Info("record deleted", "op", op, "id", k)
	return nil
}
