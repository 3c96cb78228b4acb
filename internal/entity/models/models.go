// Package models defines the land-tenure business entities. Each versioned
// entity encodes itself into the generic revision payload: typed core
// fields, exactly one attribute document, and the typed references that
// drive cascading invalidation.
package models

import (
	temporal "cadastre/internal/temporal/models"
	domain "cadastre/pkg/domain"
	dErrors "cadastre/pkg/domain-errors"
)

// ProjectRef anchors an entity to its owning project and, through it, the
// scope chain used for attribute-set resolution.
type ProjectRef struct {
	Org     domain.OrgID
	Project domain.ProjectID
}

// Validate rejects incomplete anchors.
func (p ProjectRef) Validate() error {
	if p.Org.IsNil() || p.Project.IsNil() {
		return dErrors.New(dErrors.CodeBadRequest, "organization and project are required")
	}
	return nil
}

// Descriptor is the shape every versioned entity reduces to before it is
// validated and recorded.
type Descriptor struct {
	ID         domain.EntityID
	Type       domain.ObjectType
	Subtype    string
	Project    ProjectRef
	Fields     temporal.Fields
	Attributes map[string]any
	References []temporal.Reference
}

// Party is a single party: an individual, corporation or group. The name is
// the full name for individuals and the conventional organisation name
// otherwise.
type Party struct {
	ID         domain.EntityID
	Project    ProjectRef
	Name       string
	Type       string // subtype code: IN, CO or GR
	Attributes map[string]any
}

// Descriptor reduces the party to its record form.
func (p Party) Descriptor() Descriptor {
	return Descriptor{
		ID:      p.ID,
		Type:    domain.ObjectParty,
		Subtype: p.Type,
		Project: p.Project,
		Fields: temporal.Fields{
			"name": p.Name,
		},
		Attributes: p.Attributes,
	}
}

// SpatialUnit is a single spatial unit: a parcel, building, boundary and so
// on. Geometry is out of this core's scope; spatial units carry an opaque
// geometry reference the GIS collaborator owns, which may be empty when only
// a textual description exists.
type SpatialUnit struct {
	ID          domain.EntityID
	Project     ProjectRef
	Type        string // subtype code: PA, CB, BU, ...
	GeometryRef string
	Attributes  map[string]any
}

// Descriptor reduces the spatial unit to its record form.
func (u SpatialUnit) Descriptor() Descriptor {
	return Descriptor{
		ID:      u.ID,
		Type:    domain.ObjectSpatialUnit,
		Subtype: u.Type,
		Project: u.Project,
		Fields: temporal.Fields{
			"geometry_ref": u.GeometryRef,
		},
		Attributes: u.Attributes,
	}
}

// PartyRelationship encodes a simple logical term between two parties, like
// "party1 is-spouse-of party2" or "party1 is-member-of party2". These
// relationships may form cycles; cascade traversal handles that.
type PartyRelationship struct {
	ID         domain.EntityID
	Project    ProjectRef
	Party1     domain.EntityID
	Party2     domain.EntityID
	Type       string // subtype code: S, C or M
	Attributes map[string]any
}

// Descriptor reduces the relationship to its record form. Both party links
// cascade: retiring either party retires the relationship.
func (r PartyRelationship) Descriptor() Descriptor {
	return Descriptor{
		ID:      r.ID,
		Type:    domain.ObjectPartyRelationship,
		Subtype: r.Type,
		Project: r.Project,
		References: []temporal.Reference{
			{Field: "party1", Target: r.Party1, Policy: temporal.PolicyCascade},
			{Field: "party2", Target: r.Party2, Policy: temporal.PolicyCascade},
		},
		Attributes: r.Attributes,
	}
}

// SpatialUnitRelationship encodes containment and split/merge terms between
// spatial units.
type SpatialUnitRelationship struct {
	ID         domain.EntityID
	Project    ProjectRef
	Unit1      domain.EntityID
	Unit2      domain.EntityID
	Type       string // subtype code: C, S or M
	Attributes map[string]any
}

// Descriptor reduces the relationship to its record form.
func (r SpatialUnitRelationship) Descriptor() Descriptor {
	return Descriptor{
		ID:      r.ID,
		Type:    domain.ObjectSpatialRelationship,
		Subtype: r.Type,
		Project: r.Project,
		References: []temporal.Reference{
			{Field: "su1", Target: r.Unit1, Policy: temporal.PolicyCascade},
			{Field: "su2", Target: r.Unit2, Policy: temporal.PolicyCascade},
		},
		Attributes: r.Attributes,
	}
}

// TenureRelationshipType names a kind of tenure term: freehold (right),
// occupancy (right), national park law (restriction), and so on. It is a
// versioned entity of its own so terminology changes stay auditable.
type TenureRelationshipType struct {
	ID          domain.EntityID
	Project     ProjectRef
	Category    string // RIGHT, RESTR or RESPO
	Name        string
	Description string
}

// Descriptor reduces the tenure type to its record form.
func (t TenureRelationshipType) Descriptor() Descriptor {
	return Descriptor{
		ID:      t.ID,
		Type:    domain.ObjectTenureRelationshipType,
		Subtype: t.Category,
		Project: t.Project,
		Fields: temporal.Fields{
			"name":        t.Name,
			"description": t.Description,
		},
	}
}

// TenureRelationship ties one party to one spatial unit under a tenure type.
type TenureRelationship struct {
	ID          domain.EntityID
	Project     ProjectRef
	Party       domain.EntityID
	SpatialUnit domain.EntityID
	TypeRef     domain.EntityID // TenureRelationshipType entity
	Attributes  map[string]any
}

// Descriptor reduces the tenure relationship to its record form. The party
// and spatial unit links cascade; the type link restricts so a tenure type
// in use cannot be retired out from under live relationships.
func (t TenureRelationship) Descriptor() Descriptor {
	return Descriptor{
		ID:      t.ID,
		Type:    domain.ObjectTenureRelationship,
		Project: t.Project,
		References: []temporal.Reference{
			{Field: "party", Target: t.Party, Policy: temporal.PolicyCascade},
			{Field: "spatial_unit", Target: t.SpatialUnit, Policy: temporal.PolicyCascade},
			{Field: "type", Target: t.TypeRef, Policy: temporal.PolicyRestrict},
		},
		Attributes: t.Attributes,
	}
}
