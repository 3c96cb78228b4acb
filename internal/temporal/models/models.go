// Package models defines the bitemporal primitives: half-open intervals,
// valid/recorded coordinates and immutable record revisions.
package models

import (
	"time"

	domain "cadastre/pkg/domain"
	dErrors "cadastre/pkg/domain-errors"
)

// Interval is a half-open time interval [From, To). A zero To means the
// interval is still open.
type Interval struct {
	From time.Time `json:"from"`
	To   time.Time `json:"to,omitempty"`
}

// Open reports whether the interval has no upper bound yet.
func (i Interval) Open() bool { return i.To.IsZero() }

// Contains reports whether t falls inside the interval.
func (i Interval) Contains(t time.Time) bool {
	if t.Before(i.From) {
		return false
	}
	return i.Open() || t.Before(i.To)
}

// Overlaps reports whether two intervals share at least one instant.
func (i Interval) Overlaps(o Interval) bool {
	if !i.Open() && !i.To.After(o.From) {
		return false
	}
	if !o.Open() && !o.To.After(i.From) {
		return false
	}
	return true
}

// Close returns a copy of the interval with its upper bound set to at.
func (i Interval) Close(at time.Time) Interval {
	return Interval{From: i.From, To: at}
}

// Validate enforces From < To for closed intervals.
func (i Interval) Validate() error {
	if i.From.IsZero() {
		return dErrors.New(dErrors.CodeBadRequest, "interval start is required")
	}
	if !i.Open() && !i.From.Before(i.To) {
		return dErrors.New(dErrors.CodeBadRequest, "interval start must precede its end")
	}
	return nil
}

// Coordinate pairs the two independent timelines of a revision: when the
// fact is true in the modeled world and when the system believed it.
type Coordinate struct {
	Valid    Interval `json:"valid"`
	Recorded Interval `json:"recorded"`
}

// InEffect reports whether the revision covers validTime and was the system's
// belief at recordedTime.
func (c Coordinate) InEffect(validTime, recordedTime time.Time) bool {
	return c.Valid.Contains(validTime) && c.Recorded.Contains(recordedTime)
}

// Current reports whether the recording interval is still open, i.e. the
// revision is part of the system's present belief.
func (c Coordinate) Current() bool { return c.Recorded.Open() }

// CascadePolicy states what happens to a referrer when its target is retired.
type CascadePolicy string

const (
	// PolicyCascade retires the referrer at the same valid time.
	PolicyCascade CascadePolicy = "cascade"
	// PolicyRestrict blocks the retirement while a live referrer exists.
	PolicyRestrict CascadePolicy = "restrict"
	// PolicySetNull clears the reference on the referrer instead.
	PolicySetNull CascadePolicy = "set_null"
)

// IsValid reports whether the policy is one of the known values.
func (p CascadePolicy) IsValid() bool {
	switch p {
	case PolicyCascade, PolicyRestrict, PolicySetNull:
		return true
	}
	return false
}

// Reference is a typed link from one entity revision to another entity
// identity. The target revision is resolved lazily at a valid-time instant;
// the link itself only pins the identity.
type Reference struct {
	Field  string          `json:"field"`
	Target domain.EntityID `json:"target"`
	Policy CascadePolicy   `json:"policy"`
}

// Fields is the opaque snapshot of an entity's own field values. The
// revision store copies it on append so callers cannot mutate history.
type Fields map[string]any

// Clone returns a shallow copy. Values are treated as immutable by
// convention; nested structures must not be mutated after append.
func (f Fields) Clone() Fields {
	if f == nil {
		return nil
	}
	out := make(Fields, len(f))
	for k, v := range f {
		out[k] = v
	}
	return out
}

// Revision is one immutable snapshot of an entity: its field values, its
// validated attribute document, its typed references and its temporal
// coordinate. Revisions are never edited or deleted, only superseded by
// closing their recording interval.
type Revision struct {
	ID         domain.RevisionID `json:"id"`
	Entity     domain.EntityID   `json:"entity"`
	Coordinate Coordinate        `json:"coordinate"`
	Fields     Fields            `json:"fields"`
	Attributes map[string]any    `json:"attributes,omitempty"`
	References []Reference       `json:"references,omitempty"`
}

// Reference returns the typed reference stored under field, if any.
func (r *Revision) Reference(field string) (Reference, bool) {
	for _, ref := range r.References {
		if ref.Field == field {
			return ref, true
		}
	}
	return Reference{}, false
}

// Clone copies the revision so store internals never alias caller memory.
func (r *Revision) Clone() *Revision {
	out := *r
	out.Fields = r.Fields.Clone()
	if r.Attributes != nil {
		attrs := make(map[string]any, len(r.Attributes))
		for k, v := range r.Attributes {
			attrs[k] = v
		}
		out.Attributes = attrs
	}
	if r.References != nil {
		out.References = append([]Reference(nil), r.References...)
	}
	return &out
}
