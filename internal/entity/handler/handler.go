// Package handler is the thin HTTP layer over the entity and schema
// services. It decodes requests, delegates, and translates domain errors to
// JSON envelopes; no business logic lives here.
package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	schemamodels "cadastre/internal/attrschema/models"
	schemaresolver "cadastre/internal/attrschema/resolver"
	"cadastre/internal/attrschema/validator"
	"cadastre/internal/entity/models"
	"cadastre/internal/entity/service"
	domain "cadastre/pkg/domain"
	dErrors "cadastre/pkg/domain-errors"
)

// Handler serves the entity and schema endpoints.
type Handler struct {
	entities *service.Service
	schemas  *schemaresolver.Resolver
	logger   *slog.Logger
}

// New constructs the handler.
func New(entities *service.Service, schemas *schemaresolver.Resolver, logger *slog.Logger) *Handler {
	return &Handler{entities: entities, schemas: schemas, logger: logger}
}

// Routes mounts all endpoints on a chi router.
func (h *Handler) Routes(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {
		r.Post("/organizations", h.createOrganization)
		r.Post("/projects", h.createProject)

		r.Post("/parties", h.createParty)
		r.Post("/spatial-units", h.createSpatialUnit)
		r.Post("/party-relationships", h.createPartyRelationship)
		r.Post("/spatial-relationships", h.createSpatialRelationship)
		r.Post("/tenure-types", h.createTenureType)
		r.Post("/tenure-relationships", h.createTenureRelationship)
		r.Post("/resources", h.createResource)
		r.Post("/questionnaires", h.createQuestionnaire)
		r.Post("/question-sections", h.createQuestionSection)
		r.Post("/question-groups", h.createQuestionGroup)
		r.Post("/questions", h.createQuestion)
		r.Post("/question-options", h.createQuestionOption)
		r.Post("/question-respondents", h.createQuestionRespondent)
		r.Post("/question-responses", h.createQuestionResponse)

		r.Get("/entities/{entityID}", h.getEntity)
		r.Get("/entities/{entityID}/references/{field}", h.resolveReference)
		r.Post("/entities/{entityID}/corrections", h.correctEntity)
		r.Post("/entities/{entityID}/retire", h.retireEntity)

		r.Post("/attribute-definitions", h.defineAttribute)
		r.Get("/schema", h.resolveSchema)
	})
}

func (h *Handler) createOrganization(w http.ResponseWriter, r *http.Request) {
	var req createOrganizationRequest
	if !decode(w, r, &req) {
		return
	}
	org, err := h.entities.CreateOrganization(r.Context(), req.Name, req.Description, req.URLs)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, org)
}

func (h *Handler) createProject(w http.ResponseWriter, r *http.Request) {
	var req createProjectRequest
	if !decode(w, r, &req) {
		return
	}
	org, err := domain.ParseOrgID(req.OrgID)
	if err != nil {
		h.writeError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid org_id"))
		return
	}
	project, err := h.entities.CreateProject(r.Context(), org, req.Name, req.Country, req.Description)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, project)
}

func (h *Handler) createParty(w http.ResponseWriter, r *http.Request) {
	var req createPartyRequest
	if !decode(w, r, &req) {
		return
	}
	ref, err := req.projectRef()
	if err != nil {
		h.writeError(w, err)
		return
	}
	id, rev, err := h.entities.CreateParty(r.Context(), models.Party{
		Project:    ref,
		Name:       req.Name,
		Type:       req.Type,
		Attributes: req.Attributes,
	}, req.interval())
	h.created(w, id, rev, err)
}

func (h *Handler) createSpatialUnit(w http.ResponseWriter, r *http.Request) {
	var req createSpatialUnitRequest
	if !decode(w, r, &req) {
		return
	}
	ref, err := req.projectRef()
	if err != nil {
		h.writeError(w, err)
		return
	}
	id, rev, err := h.entities.CreateSpatialUnit(r.Context(), models.SpatialUnit{
		Project:     ref,
		Type:        req.Type,
		GeometryRef: req.GeometryRef,
		Attributes:  req.Attributes,
	}, req.interval())
	h.created(w, id, rev, err)
}

func (h *Handler) createPartyRelationship(w http.ResponseWriter, r *http.Request) {
	req, ref, first, second, ok := h.decodeRelationship(w, r)
	if !ok {
		return
	}
	id, rev, err := h.entities.CreatePartyRelationship(r.Context(), models.PartyRelationship{
		Project:    ref,
		Party1:     first,
		Party2:     second,
		Type:       req.Type,
		Attributes: req.Attributes,
	}, req.interval())
	h.created(w, id, rev, err)
}

func (h *Handler) createSpatialRelationship(w http.ResponseWriter, r *http.Request) {
	req, ref, first, second, ok := h.decodeRelationship(w, r)
	if !ok {
		return
	}
	id, rev, err := h.entities.CreateSpatialUnitRelationship(r.Context(), models.SpatialUnitRelationship{
		Project:    ref,
		Unit1:      first,
		Unit2:      second,
		Type:       req.Type,
		Attributes: req.Attributes,
	}, req.interval())
	h.created(w, id, rev, err)
}

func (h *Handler) decodeRelationship(w http.ResponseWriter, r *http.Request) (createRelationshipRequest, models.ProjectRef, domain.EntityID, domain.EntityID, bool) {
	var req createRelationshipRequest
	if !decode(w, r, &req) {
		return req, models.ProjectRef{}, domain.EntityID{}, domain.EntityID{}, false
	}
	ref, err := req.projectRef()
	if err != nil {
		h.writeError(w, err)
		return req, ref, domain.EntityID{}, domain.EntityID{}, false
	}
	first, err := domain.ParseEntityID(req.First)
	if err != nil {
		h.writeError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid first entity id"))
		return req, ref, domain.EntityID{}, domain.EntityID{}, false
	}
	second, err := domain.ParseEntityID(req.Second)
	if err != nil {
		h.writeError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid second entity id"))
		return req, ref, domain.EntityID{}, domain.EntityID{}, false
	}
	return req, ref, first, second, true
}

func (h *Handler) createTenureType(w http.ResponseWriter, r *http.Request) {
	var req createTenureTypeRequest
	if !decode(w, r, &req) {
		return
	}
	ref, err := req.projectRef()
	if err != nil {
		h.writeError(w, err)
		return
	}
	id, rev, err := h.entities.CreateTenureRelationshipType(r.Context(), models.TenureRelationshipType{
		Project:     ref,
		Category:    req.Category,
		Name:        req.Name,
		Description: req.Description,
	}, req.interval())
	h.created(w, id, rev, err)
}

func (h *Handler) createTenureRelationship(w http.ResponseWriter, r *http.Request) {
	var req createTenureRequest
	if !decode(w, r, &req) {
		return
	}
	ref, err := req.projectRef()
	if err != nil {
		h.writeError(w, err)
		return
	}
	party, err := domain.ParseEntityID(req.PartyID)
	if err != nil {
		h.writeError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid party_id"))
		return
	}
	unit, err := domain.ParseEntityID(req.SpatialUnitID)
	if err != nil {
		h.writeError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid spatial_unit_id"))
		return
	}
	typeRef, err := domain.ParseEntityID(req.TypeID)
	if err != nil {
		h.writeError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid type_id"))
		return
	}
	id, rev, err := h.entities.CreateTenureRelationship(r.Context(), models.TenureRelationship{
		Project:     ref,
		Party:       party,
		SpatialUnit: unit,
		TypeRef:     typeRef,
		Attributes:  req.Attributes,
	}, req.interval())
	h.created(w, id, rev, err)
}

func (h *Handler) createResource(w http.ResponseWriter, r *http.Request) {
	var req createResourceRequest
	if !decode(w, r, &req) {
		return
	}
	ref, err := req.projectRef()
	if err != nil {
		h.writeError(w, err)
		return
	}
	linkType, err := domain.ParseObjectType(req.LinkType)
	if err != nil {
		h.writeError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid link_type"))
		return
	}
	linkID, err := domain.ParseEntityID(req.LinkID)
	if err != nil {
		h.writeError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid link_id"))
		return
	}
	id, rev, err := h.entities.CreateResource(r.Context(), models.Resource{
		Project:    ref,
		StorageKey: req.StorageKey,
		MimeType:   req.MimeType,
		Type:       req.Type,
		Link:       models.ResourceLink{Type: linkType, ID: linkID},
		Attributes: req.Attributes,
	}, req.interval())
	h.created(w, id, rev, err)
}

func (h *Handler) createQuestionnaire(w http.ResponseWriter, r *http.Request) {
	var req createQuestionnaireRequest
	if !decode(w, r, &req) {
		return
	}
	ref, err := req.projectRef()
	if err != nil {
		h.writeError(w, err)
		return
	}
	id, rev, err := h.entities.CreateQuestionnaire(r.Context(), models.Questionnaire{
		Project:  ref,
		Name:     req.Name,
		Label:    req.Label,
		IDString: req.IDString,
		FormID:   req.FormID,
		Publish:  req.Publish,
	}, req.interval())
	h.created(w, id, rev, err)
}

func (h *Handler) createQuestionSection(w http.ResponseWriter, r *http.Request) {
	var req createQuestionSectionRequest
	if !decode(w, r, &req) {
		return
	}
	ref, err := req.projectRef()
	if err != nil {
		h.writeError(w, err)
		return
	}
	questionnaire, err := domain.ParseEntityID(req.QuestionnaireID)
	if err != nil {
		h.writeError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid questionnaire_id"))
		return
	}
	id, rev, err := h.entities.CreateQuestionSection(r.Context(), models.QuestionSection{
		Project:       ref,
		Questionnaire: questionnaire,
		Name:          req.Name,
		Label:         req.Label,
		Publish:       req.Publish,
	}, req.interval())
	h.created(w, id, rev, err)
}

func (h *Handler) createQuestionGroup(w http.ResponseWriter, r *http.Request) {
	var req createQuestionGroupRequest
	if !decode(w, r, &req) {
		return
	}
	ref, err := req.projectRef()
	if err != nil {
		h.writeError(w, err)
		return
	}
	questionnaire, err := domain.ParseEntityID(req.QuestionnaireID)
	if err != nil {
		h.writeError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid questionnaire_id"))
		return
	}
	section, err := domain.ParseEntityID(req.SectionID)
	if err != nil {
		h.writeError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid section_id"))
		return
	}
	parent, err := optionalEntityID(req.ParentID)
	if err != nil {
		h.writeError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid parent_id"))
		return
	}
	id, rev, err := h.entities.CreateQuestionGroup(r.Context(), models.QuestionGroup{
		Project:       ref,
		Questionnaire: questionnaire,
		Section:       section,
		Parent:        parent,
		Name:          req.Name,
		Label:         req.Label,
	}, req.interval())
	h.created(w, id, rev, err)
}

func (h *Handler) createQuestion(w http.ResponseWriter, r *http.Request) {
	var req createQuestionRequest
	if !decode(w, r, &req) {
		return
	}
	ref, err := req.projectRef()
	if err != nil {
		h.writeError(w, err)
		return
	}
	questionnaire, err := domain.ParseEntityID(req.QuestionnaireID)
	if err != nil {
		h.writeError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid questionnaire_id"))
		return
	}
	section, err := optionalEntityID(req.SectionID)
	if err != nil {
		h.writeError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid section_id"))
		return
	}
	group, err := optionalEntityID(req.GroupID)
	if err != nil {
		h.writeError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid group_id"))
		return
	}
	id, rev, err := h.entities.CreateQuestion(r.Context(), models.Question{
		Project:       ref,
		Questionnaire: questionnaire,
		Section:       section,
		Group:         group,
		Name:          req.Name,
		Label:         req.Label,
		Type:          req.Type,
	}, req.interval())
	h.created(w, id, rev, err)
}

func (h *Handler) createQuestionOption(w http.ResponseWriter, r *http.Request) {
	var req createQuestionOptionRequest
	if !decode(w, r, &req) {
		return
	}
	ref, err := req.projectRef()
	if err != nil {
		h.writeError(w, err)
		return
	}
	question, err := domain.ParseEntityID(req.QuestionID)
	if err != nil {
		h.writeError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid question_id"))
		return
	}
	id, rev, err := h.entities.CreateQuestionOption(r.Context(), models.QuestionOption{
		Project:  ref,
		Question: question,
		Name:     req.Name,
		Label:    req.Label,
	}, req.interval())
	h.created(w, id, rev, err)
}

func (h *Handler) createQuestionRespondent(w http.ResponseWriter, r *http.Request) {
	var req createQuestionRespondentRequest
	if !decode(w, r, &req) {
		return
	}
	ref, err := req.projectRef()
	if err != nil {
		h.writeError(w, err)
		return
	}
	questionnaire, err := domain.ParseEntityID(req.QuestionnaireID)
	if err != nil {
		h.writeError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid questionnaire_id"))
		return
	}
	id, rev, err := h.entities.CreateQuestionRespondent(r.Context(), models.QuestionRespondent{
		Project:       ref,
		Questionnaire: questionnaire,
		SubmissionID:  req.SubmissionID,
	}, req.interval())
	h.created(w, id, rev, err)
}

func (h *Handler) createQuestionResponse(w http.ResponseWriter, r *http.Request) {
	var req createQuestionResponseRequest
	if !decode(w, r, &req) {
		return
	}
	ref, err := req.projectRef()
	if err != nil {
		h.writeError(w, err)
		return
	}
	respondent, err := domain.ParseEntityID(req.RespondentID)
	if err != nil {
		h.writeError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid respondent_id"))
		return
	}
	question, err := domain.ParseEntityID(req.QuestionID)
	if err != nil {
		h.writeError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid question_id"))
		return
	}
	id, rev, err := h.entities.CreateQuestionResponse(r.Context(), models.QuestionResponse{
		Project:    ref,
		Respondent: respondent,
		Question:   question,
		Answer:     req.Answer,
	}, req.interval())
	h.created(w, id, rev, err)
}

// optionalEntityID parses an entity id, treating the empty string as absent.
func optionalEntityID(raw string) (domain.EntityID, error) {
	if raw == "" {
		return domain.EntityID{}, nil
	}
	return domain.ParseEntityID(raw)
}

func (h *Handler) getEntity(w http.ResponseWriter, r *http.Request) {
	entity, err := domain.ParseEntityID(chi.URLParam(r, "entityID"))
	if err != nil {
		h.writeError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid entity id"))
		return
	}
	validAt, err := queryTime(r, "valid_at", time.Now())
	if err != nil {
		h.writeError(w, err)
		return
	}
	recordedAt, err := queryTime(r, "recorded_at", time.Time{})
	if err != nil {
		h.writeError(w, err)
		return
	}
	rev, err := h.entities.Get(r.Context(), entity, validAt, recordedAt)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, rev)
}

func (h *Handler) resolveReference(w http.ResponseWriter, r *http.Request) {
	entity, err := domain.ParseEntityID(chi.URLParam(r, "entityID"))
	if err != nil {
		h.writeError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid entity id"))
		return
	}
	validAt, err := queryTime(r, "valid_at", time.Now())
	if err != nil {
		h.writeError(w, err)
		return
	}
	target, err := h.entities.ResolveReference(r.Context(), entity, chi.URLParam(r, "field"), validAt)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if target == nil {
		// A dangling link is an answer, not an error.
		writeJSON(w, http.StatusOK, map[string]any{"target": nil})
		return
	}
	writeJSON(w, http.StatusOK, target)
}

func (h *Handler) correctEntity(w http.ResponseWriter, r *http.Request) {
	entity, err := domain.ParseEntityID(chi.URLParam(r, "entityID"))
	if err != nil {
		h.writeError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid entity id"))
		return
	}
	var req correctEntityRequest
	if !decode(w, r, &req) {
		return
	}
	ref, err := req.projectRef()
	if err != nil {
		h.writeError(w, err)
		return
	}
	objectType, err := domain.ParseObjectType(req.ObjectType)
	if err != nil {
		h.writeError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid object_type"))
		return
	}
	rev, err := h.entities.Correct(r.Context(), models.Descriptor{
		ID:         entity,
		Type:       objectType,
		Subtype:    req.Subtype,
		Project:    ref,
		Fields:     req.Fields,
		Attributes: req.Attributes,
	}, req.AsOfValid, req.interval())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, createdResponse{ID: entity.String(), Revision: rev.String()})
}

func (h *Handler) retireEntity(w http.ResponseWriter, r *http.Request) {
	entity, err := domain.ParseEntityID(chi.URLParam(r, "entityID"))
	if err != nil {
		h.writeError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid entity id"))
		return
	}
	var req retireEntityRequest
	if !decode(w, r, &req) {
		return
	}
	if err := h.entities.Retire(r.Context(), entity, req.ValidAt); err != nil {
		h.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) defineAttribute(w http.ResponseWriter, r *http.Request) {
	var req defineAttributeRequest
	if !decode(w, r, &req) {
		return
	}
	objectType, err := domain.ParseObjectType(req.ObjectType)
	if err != nil {
		h.writeError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid object_type"))
		return
	}
	scope, err := parseScope(req.OrgID, req.ProjectID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	entity, err := h.schemas.Define(r.Context(), schemamodels.FieldDefinition{
		Scope:      scope,
		ObjectType: objectType,
		Subtype:    req.Subtype,
		Index:      req.Index,
		Name:       req.Name,
		LongName:   req.LongName,
		BaseType:   schemamodels.BaseType(req.BaseType),
		FullType:   req.FullType,
		Presence:   schemamodels.Presence(req.Presence),
	}, req.interval())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]string{"id": entity.String()})
}

func (h *Handler) resolveSchema(w http.ResponseWriter, r *http.Request) {
	objectType, err := domain.ParseObjectType(r.URL.Query().Get("object_type"))
	if err != nil {
		h.writeError(w, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid object_type"))
		return
	}
	scope, err := parseScope(r.URL.Query().Get("org_id"), r.URL.Query().Get("project_id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	validAt, err := queryTime(r, "valid_at", time.Now())
	if err != nil {
		h.writeError(w, err)
		return
	}
	schema, err := h.schemas.Resolve(r.Context(), scope.Org, scope.Project, objectType, r.URL.Query().Get("subtype"), validAt)
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, schema)
}

func parseScope(orgRaw, projectRaw string) (schemamodels.Scope, error) {
	var scope schemamodels.Scope
	if orgRaw != "" {
		org, err := domain.ParseOrgID(orgRaw)
		if err != nil {
			return scope, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid org_id")
		}
		scope.Org = &org
	}
	if projectRaw != "" {
		project, err := domain.ParseProjectID(projectRaw)
		if err != nil {
			return scope, dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid project_id")
		}
		scope.Project = &project
	}
	return scope, scope.Validate()
}

func (h *Handler) created(w http.ResponseWriter, id domain.EntityID, rev domain.RevisionID, err error) {
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, createdResponse{ID: id.String(), Revision: rev.String()})
}

func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed request body"})
		return false
	}
	return true
}

func queryTime(r *http.Request, key string, fallback time.Time) (time.Time, error) {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return fallback, nil
	}
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, dErrors.Newf(dErrors.CodeBadRequest, "%s must be RFC 3339", key)
	}
	return t, nil
}

// writeError translates domain errors into JSON envelopes. Validation
// failures include the full accumulated issue list so the document can be
// corrected and resubmitted in one round trip.
func (h *Handler) writeError(w http.ResponseWriter, err error) {
	var vErr *validator.Error
	if errors.As(err, &vErr) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]any{
			"error":  string(dErrors.CodeValidation),
			"issues": vErr.Issues,
		})
		return
	}

	code := dErrors.CodeOf(err)
	status := http.StatusInternalServerError
	switch code {
	case dErrors.CodeBadRequest, dErrors.CodeInvariantViolation:
		status = http.StatusBadRequest
	case dErrors.CodeNotFound:
		status = http.StatusNotFound
	case dErrors.CodeConflict, dErrors.CodeIntegrityViolation:
		status = http.StatusConflict
	}
	if status == http.StatusInternalServerError && h.logger != nil {
		h.logger.Error("request failed", "error", err)
	}
	writeJSON(w, status, map[string]string{"error": string(code)})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
