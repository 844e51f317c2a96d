package record

import "time"

// RelationRef is a denormalized snapshot of a counterpart record's identity.
type RelationRef struct {
	ID                 string `json:"id" yaml:"id"`
	Name               string `json:"name" yaml:"name"`
	ClassificationCode string `json:"classificationCode" yaml:"classificationCode"`
}

// Record is the current (or a historical) state of one product/lot.
type Record struct {
	ID                 string        `json:"id" yaml:"id"`
	CreatedOrUpdatedAt time.Time     `json:"createdOrUpdatedAt" yaml:"createdOrUpdatedAt"`
	Name               string        `json:"name" yaml:"name"`
	ClassificationCode string        `json:"classificationCode" yaml:"classificationCode"`
	Inputs             []RelationRef `json:"inputs" yaml:"inputs"`
	UsedBy             []RelationRef `json:"usedBy" yaml:"usedBy"`
}

// New returns a record with empty relation lists.
func New(id, name, classificationCode string, at time.Time) Record {
	return Record{
		ID:                 id,
		CreatedOrUpdatedAt: at.UTC(),
		Name:               name,
		ClassificationCode: classificationCode,
		Inputs:             []RelationRef{},
		UsedBy:             []RelationRef{},
	}
}

// Ref returns the record's identity as it would be embedded in a counterpart.
func (r Record) Ref() RelationRef {
	return RelationRef{ID: r.ID, Name: r.Name, ClassificationCode: r.ClassificationCode}
}

// Clone returns a copy whose relation slices do not alias r's.
func (r Record) Clone() Record {
	out := r
	out.Inputs = append(make([]RelationRef, 0, len(r.Inputs)+1), r.Inputs...)
	out.UsedBy = append(make([]RelationRef, 0, len(r.UsedBy)+1), r.UsedBy...)
	return out
}

// CountInputs returns how many Inputs entries reference id.
func (r Record) CountInputs(id string) int {
	return countRefs(r.Inputs, id)
}

// CountUsedBy returns how many UsedBy entries reference id.
func (r Record) CountUsedBy(id string) int {
	return countRefs(r.UsedBy, id)
}

func countRefs(refs []RelationRef, id string) int {
	n := 0
	for _, ref := range refs {
		if ref.ID == id {
			n++
		}
	}
	return n
}
