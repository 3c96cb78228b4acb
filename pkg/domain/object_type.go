package domain

import (
	"fmt"
)

// ObjectType is the stable token identifying a domain entity kind. Attribute
// sets are keyed on it, and the resource polymorphic link is constrained to
// it. This is a domain primitive that enforces validity at parse time; never
// reflect on runtime types to obtain one.
type ObjectType string

// The closed set of referenceable entity kinds.
const (
	ObjectParty                  ObjectType = "party"
	ObjectPartyRelationship      ObjectType = "party_relationship"
	ObjectSpatialUnit            ObjectType = "spatial_unit"
	ObjectSpatialRelationship    ObjectType = "spatial_unit_relationship"
	ObjectTenureRelationship     ObjectType = "tenure_relationship"
	ObjectTenureRelationshipType ObjectType = "tenure_relationship_type"
	ObjectResource               ObjectType = "resource"
	ObjectOrganization           ObjectType = "organization"
	ObjectProject                ObjectType = "project"
	ObjectQuestionnaire          ObjectType = "questionnaire"
	ObjectQuestionSection        ObjectType = "question_section"
	ObjectQuestionGroup          ObjectType = "question_group"
	ObjectQuestion               ObjectType = "question"
	ObjectQuestionOption         ObjectType = "question_option"
	ObjectQuestionRespondent     ObjectType = "question_respondent"
	ObjectQuestionResponse       ObjectType = "question_response"
)

// objectLabels maps each type to its display label.
var objectLabels = map[ObjectType]string{
	ObjectParty:                  "Party",
	ObjectPartyRelationship:      "Party relationship",
	ObjectSpatialUnit:            "Spatial unit",
	ObjectSpatialRelationship:    "Spatial unit relationship",
	ObjectTenureRelationship:     "Tenure relationship",
	ObjectTenureRelationshipType: "Tenure relationship type",
	ObjectResource:               "Resource",
	ObjectOrganization:           "Organization",
	ObjectProject:                "Project",
	ObjectQuestionnaire:          "Questionnaire",
	ObjectQuestionSection:        "Question section",
	ObjectQuestionGroup:          "Question group",
	ObjectQuestion:               "Question",
	ObjectQuestionOption:         "Question option",
	ObjectQuestionRespondent:     "Question respondent",
	ObjectQuestionResponse:       "Question response",
}

// ParseObjectType validates and returns an ObjectType.
// Returns an error if the token is unknown.
func ParseObjectType(s string) (ObjectType, error) {
	t := ObjectType(s)
	if _, ok := objectLabels[t]; !ok {
		return "", fmt.Errorf("unknown object type: %s", s)
	}
	return t, nil
}

// String returns the stable token.
func (t ObjectType) String() string { return string(t) }

// Label returns the display label, or the raw token for unknown types.
func (t ObjectType) Label() string {
	if l, ok := objectLabels[t]; ok {
		return l
	}
	return string(t)
}

// IsNil returns true if the object type is empty.
func (t ObjectType) IsNil() bool { return t == "" }

// ReferenceableTypes returns the kinds a resource may link to, in stable order.
func ReferenceableTypes() []ObjectType {
	return []ObjectType{
		ObjectParty, ObjectPartyRelationship,
		ObjectSpatialUnit, ObjectSpatialRelationship,
		ObjectTenureRelationship, ObjectOrganization, ObjectProject,
		ObjectQuestionnaire, ObjectQuestion,
	}
}
