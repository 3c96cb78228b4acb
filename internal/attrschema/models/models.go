// Package models defines attribute-set scopes, field definitions and the
// resolved effective schema. Field definitions are themselves temporal
// records: they are encoded into revision field maps and ride the same
// bitemporal store as the business entities they describe.
package models

import (
	"fmt"
	"strings"

	temporal "cadastre/internal/temporal/models"
	domain "cadastre/pkg/domain"
	dErrors "cadastre/pkg/domain-errors"
)

// BaseType is the coarse value type of an attribute field. Codes follow the
// original choice table.
type BaseType string

const (
	BaseNumber  BaseType = "NO" // any numeric value
	BaseInteger BaseType = "IN" // numeric with no fractional part
	BaseDecimal BaseType = "FR" // number with fraction
	BaseText    BaseType = "TX" // string value
)

var baseTypeLabels = map[BaseType]string{
	BaseNumber:  "Number",
	BaseInteger: "Integer",
	BaseDecimal: "Number with fraction",
	BaseText:    "Text",
}

// IsValid reports whether the base type is part of the closed set.
func (b BaseType) IsValid() bool {
	_, ok := baseTypeLabels[b]
	return ok
}

// Label returns the display label.
func (b BaseType) Label() string { return baseTypeLabels[b] }

// Presence states whether a field is required, optional, or removed at a
// given scope. Delete entries at a specific scope remove a field_name
// inherited from a more general one.
type Presence string

const (
	PresenceRequired Presence = "R"
	PresenceOptional Presence = "O"
	PresenceDelete   Presence = "D"
)

// IsValid reports whether the presence code is known.
func (p Presence) IsValid() bool {
	switch p {
	case PresenceRequired, PresenceOptional, PresenceDelete:
		return true
	}
	return false
}

// Scope keys attribute-set ownership. Both pointers nil is the system-wide
// default scope; project nil with org set is an organization default; both
// set is a project-specific scope.
type Scope struct {
	Org     *domain.OrgID
	Project *domain.ProjectID
}

// SystemScope returns the system-wide default scope.
func SystemScope() Scope { return Scope{} }

// OrgScope returns an organization-wide default scope.
func OrgScope(org domain.OrgID) Scope { return Scope{Org: &org} }

// ProjectScope returns a project-specific scope.
func ProjectScope(org domain.OrgID, project domain.ProjectID) Scope {
	return Scope{Org: &org, Project: &project}
}

// Validate rejects a project scope with no owning organization: that shape
// would permit cross-organization leakage.
func (s Scope) Validate() error {
	if s.Project != nil && s.Org == nil {
		return dErrors.New(dErrors.CodeInvariantViolation, "project scope requires an organization")
	}
	return nil
}

// Key returns a stable string form usable as a map or cache key.
func (s Scope) Key() string {
	var b strings.Builder
	b.WriteString("sys")
	if s.Org != nil {
		b.WriteString("/" + s.Org.String())
	}
	if s.Project != nil {
		b.WriteString("/" + s.Project.String())
	}
	return b.String()
}

// FieldDefinition declares one permitted attribute field for a scope,
// object type and subtype. Subtype "" applies to all subtypes of the type.
type FieldDefinition struct {
	Scope      Scope
	ObjectType domain.ObjectType
	Subtype    string

	Index    int
	Name     string
	LongName string
	BaseType BaseType
	FullType string
	Presence Presence
}

// Validate enforces the definition invariants.
func (d FieldDefinition) Validate() error {
	if err := d.Scope.Validate(); err != nil {
		return err
	}
	if d.ObjectType.IsNil() {
		return dErrors.New(dErrors.CodeBadRequest, "object type is required")
	}
	if d.Name == "" {
		return dErrors.New(dErrors.CodeBadRequest, "field name is required")
	}
	if !d.BaseType.IsValid() {
		return dErrors.Newf(dErrors.CodeBadRequest, "unknown base type %q", d.BaseType)
	}
	if !d.Presence.IsValid() {
		return dErrors.Newf(dErrors.CodeBadRequest, "unknown presence %q", d.Presence)
	}
	return nil
}

// EncodeFields flattens the definition into a revision field map.
func (d FieldDefinition) EncodeFields() temporal.Fields {
	return temporal.Fields{
		"index":     d.Index,
		"name":      d.Name,
		"long_name": d.LongName,
		"base_type": string(d.BaseType),
		"full_type": d.FullType,
		"presence":  string(d.Presence),
	}
}

// DecodeDefinition reads a definition back out of a revision field map.
func DecodeDefinition(fields temporal.Fields) (FieldDefinition, error) {
	var d FieldDefinition
	name, ok := fields["name"].(string)
	if !ok || name == "" {
		return d, fmt.Errorf("definition revision missing field name")
	}
	d.Name = name
	d.LongName, _ = fields["long_name"].(string)
	if s, ok := fields["base_type"].(string); ok {
		d.BaseType = BaseType(s)
	}
	d.FullType, _ = fields["full_type"].(string)
	if s, ok := fields["presence"].(string); ok {
		d.Presence = Presence(s)
	}
	switch v := fields["index"].(type) {
	case int:
		d.Index = v
	case int64:
		d.Index = int(v)
	case float64:
		// JSON round-trips integers as float64.
		d.Index = int(v)
	}
	if !d.BaseType.IsValid() {
		return d, fmt.Errorf("definition %q has unknown base type %q", d.Name, d.BaseType)
	}
	if !d.Presence.IsValid() {
		return d, fmt.Errorf("definition %q has unknown presence %q", d.Name, d.Presence)
	}
	return d, nil
}

// SchemaField is one resolved entry of an effective schema.
type SchemaField struct {
	Name     string   `json:"name"`
	LongName string   `json:"long_name,omitempty"`
	BaseType BaseType `json:"base_type"`
	FullType string   `json:"full_type,omitempty"`
	Presence Presence `json:"presence"`
	Index    int      `json:"index"`
}

// Required reports whether a value for the field must be present.
func (f SchemaField) Required() bool { return f.Presence == PresenceRequired }

// EffectiveSchema is the resolved, ordered field list for one scope chain,
// subtype and temporal coordinate. It is recomputed on demand, never
// persisted.
type EffectiveSchema struct {
	Fields []SchemaField `json:"fields"`

	byName map[string]int
}

// NewEffectiveSchema builds a schema from an already-ordered field list.
func NewEffectiveSchema(fields []SchemaField) *EffectiveSchema {
	s := &EffectiveSchema{Fields: fields, byName: make(map[string]int, len(fields))}
	for i, f := range fields {
		s.byName[f.Name] = i
	}
	return s
}

// Field returns the schema entry for name, if present.
func (s *EffectiveSchema) Field(name string) (SchemaField, bool) {
	if s.byName == nil {
		s.reindex()
	}
	i, ok := s.byName[name]
	if !ok {
		return SchemaField{}, false
	}
	return s.Fields[i], true
}

// Len returns the number of permitted fields.
func (s *EffectiveSchema) Len() int { return len(s.Fields) }

// Clone copies the schema so cache internals never alias caller memory.
func (s *EffectiveSchema) Clone() *EffectiveSchema {
	if s == nil {
		return nil
	}
	return NewEffectiveSchema(append([]SchemaField(nil), s.Fields...))
}

// reindex rebuilds the name lookup, needed after JSON decoding.
func (s *EffectiveSchema) reindex() {
	s.byName = make(map[string]int, len(s.Fields))
	for i, f := range s.Fields {
		s.byName[f.Name] = i
	}
}
