// Package domain holds the shared identity primitives. Entity identifiers
// are opaque random UUIDs rather than sequential keys so records can be
// created offline and synchronized later without collisions.
package domain

import (
	"fmt"

	"github.com/google/uuid"
)

// EntityID identifies one logical entity across all of its revisions.
type EntityID uuid.UUID

// RevisionID identifies a single immutable revision of an entity.
type RevisionID uuid.UUID

// OrgID identifies an organization (a scope anchor, not a versioned entity).
type OrgID uuid.UUID

// ProjectID identifies a project within an organization.
type ProjectID uuid.UUID

// NewEntityID allocates a fresh random entity identity.
func NewEntityID() EntityID { return EntityID(uuid.New()) }

// NewRevisionID allocates a fresh random revision identity.
func NewRevisionID() RevisionID { return RevisionID(uuid.New()) }

// NewOrgID allocates a fresh random organization identity.
func NewOrgID() OrgID { return OrgID(uuid.New()) }

// NewProjectID allocates a fresh random project identity.
func NewProjectID() ProjectID { return ProjectID(uuid.New()) }

func (id EntityID) String() string   { return uuid.UUID(id).String() }
func (id RevisionID) String() string { return uuid.UUID(id).String() }
func (id OrgID) String() string      { return uuid.UUID(id).String() }
func (id ProjectID) String() string  { return uuid.UUID(id).String() }

func (id EntityID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id RevisionID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id OrgID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id ProjectID) IsNil() bool  { return uuid.UUID(id) == uuid.Nil }

// The ID types travel through JSON as canonical UUID strings.

func (id EntityID) MarshalText() ([]byte, error)   { return []byte(id.String()), nil }
func (id RevisionID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id OrgID) MarshalText() ([]byte, error)      { return []byte(id.String()), nil }
func (id ProjectID) MarshalText() ([]byte, error)  { return []byte(id.String()), nil }

func (id *EntityID) UnmarshalText(text []byte) error {
	parsed, err := ParseEntityID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *RevisionID) UnmarshalText(text []byte) error {
	parsed, err := ParseRevisionID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *OrgID) UnmarshalText(text []byte) error {
	parsed, err := ParseOrgID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *ProjectID) UnmarshalText(text []byte) error {
	parsed, err := ParseProjectID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ParseEntityID parses the canonical string form of an entity identity.
func ParseEntityID(s string) (EntityID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return EntityID{}, fmt.Errorf("parse entity id %q: %w", s, err)
	}
	return EntityID(u), nil
}

// ParseRevisionID parses the canonical string form of a revision identity.
func ParseRevisionID(s string) (RevisionID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return RevisionID{}, fmt.Errorf("parse revision id %q: %w", s, err)
	}
	return RevisionID(u), nil
}

// ParseOrgID parses the canonical string form of an organization identity.
func ParseOrgID(s string) (OrgID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return OrgID{}, fmt.Errorf("parse org id %q: %w", s, err)
	}
	return OrgID(u), nil
}

// ParseProjectID parses the canonical string form of a project identity.
func ParseProjectID(s string) (ProjectID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return ProjectID{}, fmt.Errorf("parse project id %q: %w", s, err)
	}
	return ProjectID(u), nil
}
