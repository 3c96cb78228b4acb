// Package registry is the object-type registry collaborator: the closed
// mapping from entity kinds to their stable tokens and subtype vocabularies.
// Attribute-set resolution keys on these tokens, so the tables here are
// compile-time constants with explicit display labels, never runtime state.
package registry

import (
	domain "cadastre/pkg/domain"
	dErrors "cadastre/pkg/domain-errors"
)

// Party subtypes.
const (
	PartyIndividual  = "IN"
	PartyCorporation = "CO"
	PartyGroup       = "GR"
)

// Spatial unit subtypes.
const (
	SpatialParcel            = "PA"
	SpatialCommunityBoundary = "CB"
	SpatialBuilding          = "BU"
	SpatialApartment         = "AP"
	SpatialProjectExtent     = "PX"
	SpatialRightOfWay        = "RW"
	SpatialUtilityCorridor   = "UC"
	SpatialNationalPark      = "NP"
	SpatialMiscellaneous     = "MI"
)

// Party relationship subtypes.
const (
	PartyRelSpouse = "S"
	PartyRelChild  = "C"
	PartyRelMember = "M"
)

// Spatial unit relationship subtypes.
const (
	SpatialRelContained = "C"
	SpatialRelSplit     = "S"
	SpatialRelMerge     = "M"
)

// Tenure relationship type categories.
const (
	TenureRight          = "RIGHT"
	TenureRestriction    = "RESTR"
	TenureResponsibility = "RESPO"
)

// subtypes maps each object type to its subtype display labels. Types absent
// from the table (resources, questionnaire artifacts) accept any subtype,
// including the empty one.
var subtypes = map[domain.ObjectType]map[string]string{
	domain.ObjectParty: {
		PartyIndividual:  "Individual",
		PartyCorporation: "Corporation",
		PartyGroup:       "Group",
	},
	domain.ObjectPartyRelationship: {
		PartyRelSpouse: "is-spouse-of",
		PartyRelChild:  "is-child-of",
		PartyRelMember: "is-member-of",
	},
	domain.ObjectSpatialUnit: {
		SpatialParcel:            "Parcel",
		SpatialCommunityBoundary: "Community boundary",
		SpatialBuilding:          "Building",
		SpatialApartment:         "Apartment",
		SpatialProjectExtent:     "Project extent",
		SpatialRightOfWay:        "Right-of-way",
		SpatialUtilityCorridor:   "Utility corridor",
		SpatialNationalPark:      "National park boundary",
		SpatialMiscellaneous:     "Miscellaneous",
	},
	domain.ObjectSpatialRelationship: {
		SpatialRelContained: "is-contained-in",
		SpatialRelSplit:     "is-split-of",
		SpatialRelMerge:     "is-merge-of",
	},
	domain.ObjectTenureRelationshipType: {
		TenureRight:          "Right",
		TenureRestriction:    "Restriction",
		TenureResponsibility: "Responsibility",
	},
}

// ValidateSubtype checks that sub is part of the type's vocabulary. The empty
// subtype is always valid: it addresses the subtype-generic attribute set.
func ValidateSubtype(t domain.ObjectType, sub string) error {
	if sub == "" {
		return nil
	}
	vocab, ok := subtypes[t]
	if !ok {
		return nil
	}
	if _, ok := vocab[sub]; !ok {
		return dErrors.Newf(dErrors.CodeBadRequest, "unknown subtype %q for %s", sub, t)
	}
	return nil
}

// SubtypeLabel returns the display label for a subtype, or the raw code when
// the type carries no vocabulary.
func SubtypeLabel(t domain.ObjectType, sub string) string {
	if vocab, ok := subtypes[t]; ok {
		if l, ok := vocab[sub]; ok {
			return l
		}
	}
	return sub
}

// Subtypes returns the subtype codes defined for a type, unordered.
func Subtypes(t domain.ObjectType) []string {
	vocab, ok := subtypes[t]
	if !ok {
		return nil
	}
	out := make([]string, 0, len(vocab))
	for code := range vocab {
		out = append(out, code)
	}
	return out
}
