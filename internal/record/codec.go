package record

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrCorrupt is returned when stored bytes cannot be decoded into a Record.
var ErrCorrupt = errors.New("corrupt record")

// Encode serializes r to canonical JSON. Nil relation lists are written as
// empty arrays. Strings are stored byte for byte: ids are opaque keys and
// names are free text, so neither is Unicode-normalized.
func Encode(r Record) ([]byte, error) {
	obj := map[string]any{
		"id":                 r.ID,
		"createdOrUpdatedAt": r.CreatedOrUpdatedAt.UTC().Format(time.RFC3339Nano),
		"name":               r.Name,
		"classificationCode": r.ClassificationCode,
		"inputs":             refsToCanonical(r.Inputs),
		"usedBy":             refsToCanonical(r.UsedBy),
	}
	data, err := canonicalEncoder{}.marshal(obj)
	if err != nil {
		return nil, fmt.Errorf("encode record %q: %w", r.ID, err)
	}
	return data, nil
}

func refsToCanonical(refs []RelationRef) []any {
	out := make([]any, len(refs))
	for i, ref := range refs {
		out[i] = map[string]any{
			"id":                 ref.ID,
			"name":               ref.Name,
			"classificationCode": ref.ClassificationCode,
		}
	}
	return out
}

// Decode parses a stored value. Any failure wraps ErrCorrupt.
func Decode(data []byte) (Record, error) {
	if len(data) == 0 {
		return Record{}, fmt.Errorf("%w: empty value", ErrCorrupt)
	}
	if err := checkSchema(data); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}

	var w wireRecord
	if err := json.Unmarshal(data, &w); err != nil {
		return Record{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if w.Inputs == nil {
		return Record{}, fmt.Errorf("%w: inputs is required", ErrCorrupt)
	}
	if w.UsedBy == nil {
		return Record{}, fmt.Errorf("%w: usedBy is required", ErrCorrupt)
	}

	r := Record{
		ID:                 w.ID,
		CreatedOrUpdatedAt: w.CreatedOrUpdatedAt.UTC(),
		Name:               w.Name,
		ClassificationCode: w.ClassificationCode,
		Inputs:             *w.Inputs,
		UsedBy:             *w.UsedBy,
	}
	if r.Inputs == nil {
		r.Inputs = []RelationRef{}
	}
	if r.UsedBy == nil {
		r.UsedBy = []RelationRef{}
	}
	return r, nil
}

// wireRecord tells an absent or null relation list apart from an empty one.
type wireRecord struct {
	ID                 string         `json:"id"`
	CreatedOrUpdatedAt time.Time      `json:"createdOrUpdatedAt"`
	Name               string         `json:"name"`
	ClassificationCode string         `json:"classificationCode"`
	Inputs             *[]RelationRef `json:"inputs"`
	UsedBy             *[]RelationRef `json:"usedBy"`
}
