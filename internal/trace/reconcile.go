package trace

import (
	"context"

	"github.com/roach88/lotetrace/internal/record"
)

// InconsistencyKind names a relation that is not mirrored on both records.
type InconsistencyKind string

const (
	// MissingBackReference: the record lists an input whose UsedBy holds
	// fewer references back than the record's Inputs hold to it. Also
	// reported when the input never existed.
	MissingBackReference InconsistencyKind = "MISSING_BACK_REFERENCE"

	// MissingForwardReference: the record lists a consumer in UsedBy whose
	// Inputs hold fewer references to the record.
	MissingForwardReference InconsistencyKind = "MISSING_FORWARD_REFERENCE"

	// DanglingReference: the counterpart existed once and has been deleted.
	DanglingReference InconsistencyKind = "DANGLING_REFERENCE"
)

// Inconsistency describes one one-sided relation found by Verify.
type Inconsistency struct {
	Kind InconsistencyKind `json:"kind" yaml:"kind"`

	// RecordID is the verified record.
	RecordID string `json:"recordId" yaml:"recordId"`

	// Ref is the first entry in the verified record that points at the
	// counterpart.
	Ref record.RelationRef `json:"ref" yaml:"ref"`

	// Expected is how many references the verified record holds to the
	// counterpart; Actual is how many the counterpart holds back.
	Expected int `json:"expected" yaml:"expected"`
	Actual   int `json:"actual" yaml:"actual"`
}

// Verify checks every relation of id against its counterpart. It only reads.
func (s *Store) Verify(ctx context.Context, id string) ([]Inconsistency, error) {
	const op = "verify"
	k, err := key(op, id)
	if err != nil {
		return nil, err
	}
	rec, err := s.mustLoad(ctx, op, k)
	if err != nil {
		return nil, err
	}
	return s.verify(ctx, op, rec)
}

// Repair runs Verify and writes the missing back references it finds,
// creating inputs that never existed. Forward references and dangling
// references are reported by Verify but never changed. Each written
// reference is one ledger write; Repair is not atomic.
//
// It returns the inconsistencies it repaired.
func (s *Store) Repair(ctx context.Context, id string) ([]Inconsistency, error) {
	const op = "repair"
	k, err := key(op, id)
	if err != nil {
		return nil, err
	}
	rec, err := s.mustLoad(ctx, op, k)
	if err != nil {
		return nil, err
	}
	found, err := s.verify(ctx, op, rec)
	if err != nil {
		return nil, err
	}

	repaired := []Inconsistency{}
	for _, inc := range found {
		if inc.Kind != MissingBackReference {
			continue
		}
		for i := inc.Actual; i < inc.Expected; i++ {
			if err := s.notifyUsedAsInput(ctx, op, inc.Ref.ID, inc.Ref.Name, inc.Ref.ClassificationCode, rec.Ref()); err != nil {
				return repaired, err
			}
		}
		repaired = append(repaired, inc)
		s.logger.Info("back reference repaired",
			"op", op,
			"owner_id", rec.ID,
			"input_id", inc.Ref.ID,
			"written", inc.Expected-inc.Actual,
		)
	}
	return repaired, nil
}

func (s *Store) mustLoad(ctx context.Context, op, k string) (record.Record, error) {
	rec, found, err := s.load(ctx, op, k)
	if err != nil {
		return record.Record{}, err
	}
	if !found {
		return record.Record{}, notFound(op, k)
	}
	return rec, nil
}

func (s *Store) verify(ctx context.Context, op string, rec record.Record) ([]Inconsistency, error) {
	out := []Inconsistency{}

	for _, ref := range firstRefs(rec.Inputs) {
		want := rec.CountInputs(ref.ID)
		inc, err := s.checkCounterpart(ctx, op, rec, ref, want, MissingBackReference,
			func(cp record.Record) int { return cp.CountUsedBy(rec.ID) })
		if err != nil {
			return nil, err
		}
		if inc != nil {
			out = append(out, *inc)
		}
	}

	for _, ref := range firstRefs(rec.UsedBy) {
		want := rec.CountUsedBy(ref.ID)
		inc, err := s.checkCounterpart(ctx, op, rec, ref, want, MissingForwardReference,
			func(cp record.Record) int { return cp.CountInputs(rec.ID) })
		if err != nil {
			return nil, err
		}
		if inc != nil {
			out = append(out, *inc)
		}
	}

	return out, nil
}

// checkCounterpart compares want against what the counterpart of ref holds
// back, as counted by have. kind is reported on a shortfall.
func (s *Store) checkCounterpart(
	ctx context.Context,
	op string,
	rec record.Record,
	ref record.RelationRef,
	want int,
	kind InconsistencyKind,
	have func(record.Record) int,
) (*Inconsistency, error) {
	inc := &Inconsistency{Kind: kind, RecordID: rec.ID, Ref: ref, Expected: want}

	var cp record.Record
	if ref.ID == rec.ID {
		cp = rec
	} else {
		loaded, found, err := s.load(ctx, op, ref.ID)
		if err != nil {
			return nil, err
		}
		if !found {
			deleted, err := s.everWritten(ctx, op, ref.ID)
			if err != nil {
				return nil, err
			}
			if deleted {
				inc.Kind = DanglingReference
			}
			return inc, nil
		}
		cp = loaded
	}

	inc.Actual = have(cp)
	if inc.Actual >= want {
		return nil, nil
	}
	return inc, nil
}

// everWritten reports whether k has any history, i.e. whether an absent
// record was deleted rather than never created.
func (s *Store) everWritten(ctx context.Context, op, k string) (bool, error) {
	it, err := s.ledger.HistoryOf(ctx, k)
	if err != nil {
		return false, backendError(op, k, err)
	}
	defer it.Close()

	if it.Next() {
		return true, nil
	}
	if err := it.Err(); err != nil {
		return false, backendError(op, k, err)
	}
	return false, nil
}

// firstRefs returns the first ref for each distinct id, in list order.
func firstRefs(refs []record.RelationRef) []record.RelationRef {
	seen := make(map[string]bool, len(refs))
	out := make([]record.RelationRef, 0, len(refs))
	for _, ref := range refs {
		if seen[ref.ID] {
			continue
		}
		seen[ref.ID] = true
		out = append(out, ref)
	}
	return out
}
