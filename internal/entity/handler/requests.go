package handler

import (
	"time"

	"cadastre/internal/entity/models"
	temporal "cadastre/internal/temporal/models"
	domain "cadastre/pkg/domain"
	dErrors "cadastre/pkg/domain-errors"
)

// scopeRequest is the common project anchor carried by every entity write.
type scopeRequest struct {
	OrgID     string `json:"org_id"`
	ProjectID string `json:"project_id"`
}

func (r scopeRequest) projectRef() (models.ProjectRef, error) {
	org, err := domain.ParseOrgID(r.OrgID)
	if err != nil {
		return models.ProjectRef{}, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid org_id")
	}
	project, err := domain.ParseProjectID(r.ProjectID)
	if err != nil {
		return models.ProjectRef{}, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid project_id")
	}
	return models.ProjectRef{Org: org, Project: project}, nil
}

// validityRequest carries the valid-time interval of a write.
type validityRequest struct {
	ValidFrom time.Time `json:"valid_from"`
	ValidTo   time.Time `json:"valid_to,omitempty"`
}

func (r validityRequest) interval() temporal.Interval {
	return temporal.Interval{From: r.ValidFrom, To: r.ValidTo}
}

type createPartyRequest struct {
	scopeRequest
	validityRequest
	Name       string         `json:"name"`
	Type       string         `json:"type"`
	Attributes map[string]any `json:"attributes"`
}

type createSpatialUnitRequest struct {
	scopeRequest
	validityRequest
	Type        string         `json:"type"`
	GeometryRef string         `json:"geometry_ref,omitempty"`
	Attributes  map[string]any `json:"attributes"`
}

type createRelationshipRequest struct {
	scopeRequest
	validityRequest
	First      string         `json:"first"`
	Second     string         `json:"second"`
	Type       string         `json:"type"`
	Attributes map[string]any `json:"attributes"`
}

type createTenureTypeRequest struct {
	scopeRequest
	validityRequest
	Category    string `json:"category"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

type createTenureRequest struct {
	scopeRequest
	validityRequest
	PartyID       string         `json:"party_id"`
	SpatialUnitID string         `json:"spatial_unit_id"`
	TypeID        string         `json:"type_id"`
	Attributes    map[string]any `json:"attributes"`
}

type createResourceRequest struct {
	scopeRequest
	validityRequest
	StorageKey string         `json:"storage_key"`
	MimeType   string         `json:"mime_type"`
	Type       string         `json:"type,omitempty"`
	LinkType   string         `json:"link_type"`
	LinkID     string         `json:"link_id"`
	Attributes map[string]any `json:"attributes"`
}

type createOrganizationRequest struct {
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	URLs        []string `json:"urls,omitempty"`
}

type createProjectRequest struct {
	OrgID       string `json:"org_id"`
	Name        string `json:"name"`
	Country     string `json:"country,omitempty"`
	Description string `json:"description,omitempty"`
}

type defineAttributeRequest struct {
	OrgID      string `json:"org_id,omitempty"`
	ProjectID  string `json:"project_id,omitempty"`
	ObjectType string `json:"object_type"`
	Subtype    string `json:"subtype,omitempty"`
	validityRequest
	Index    int    `json:"index"`
	Name     string `json:"name"`
	LongName string `json:"long_name,omitempty"`
	BaseType string `json:"base_type"`
	FullType string `json:"full_type,omitempty"`
	Presence string `json:"presence"`
}

type createQuestionnaireRequest struct {
	scopeRequest
	validityRequest
	Name     string `json:"name"`
	Label    string `json:"label,omitempty"`
	IDString string `json:"id_string"`
	FormID   int64  `json:"form_id"`
	Publish  bool   `json:"publish"`
}

type createQuestionSectionRequest struct {
	scopeRequest
	validityRequest
	QuestionnaireID string `json:"questionnaire_id"`
	Name            string `json:"name"`
	Label           string `json:"label,omitempty"`
	Publish         bool   `json:"publish"`
}

type createQuestionGroupRequest struct {
	scopeRequest
	validityRequest
	QuestionnaireID string `json:"questionnaire_id"`
	SectionID       string `json:"section_id"`
	ParentID        string `json:"parent_id,omitempty"`
	Name            string `json:"name"`
	Label           string `json:"label,omitempty"`
}

type createQuestionRequest struct {
	scopeRequest
	validityRequest
	QuestionnaireID string `json:"questionnaire_id"`
	SectionID       string `json:"section_id,omitempty"`
	GroupID         string `json:"group_id,omitempty"`
	Name            string `json:"name"`
	Label           string `json:"label,omitempty"`
	Type            string `json:"type"`
}

type createQuestionOptionRequest struct {
	scopeRequest
	validityRequest
	QuestionID string `json:"question_id"`
	Name       string `json:"name"`
	Label      string `json:"label,omitempty"`
}

type createQuestionRespondentRequest struct {
	scopeRequest
	validityRequest
	QuestionnaireID string `json:"questionnaire_id"`
	SubmissionID    string `json:"submission_id"`
}

type createQuestionResponseRequest struct {
	scopeRequest
	validityRequest
	RespondentID string `json:"respondent_id"`
	QuestionID   string `json:"question_id"`
	Answer       string `json:"answer"`
}

type correctEntityRequest struct {
	scopeRequest
	validityRequest
	ObjectType string         `json:"object_type"`
	Subtype    string         `json:"subtype,omitempty"`
	AsOfValid  time.Time      `json:"as_of_valid"`
	Fields     map[string]any `json:"fields"`
	Attributes map[string]any `json:"attributes"`
}

type retireEntityRequest struct {
	ValidAt time.Time `json:"valid_at"`
}

type createdResponse struct {
	ID       string `json:"id"`
	Revision string `json:"revision"`
}
