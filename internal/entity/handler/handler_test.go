package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"

	schemamodels "cadastre/internal/attrschema/models"
	schemaresolver "cadastre/internal/attrschema/resolver"
	schemamemory "cadastre/internal/attrschema/store/memory"
	entityservice "cadastre/internal/entity/service"
	entitymemory "cadastre/internal/entity/store/memory"
	temporal "cadastre/internal/temporal/models"
	temporalsvc "cadastre/internal/temporal/service"
	temporalmemory "cadastre/internal/temporal/store/memory"
	domain "cadastre/pkg/domain"
)

type HandlerSuite struct {
	suite.Suite
	server    *httptest.Server
	orgID     string
	projectID string
	validFrom string
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	ctx := context.Background()

	revisions := temporalmemory.New()
	records, err := temporalsvc.New(revisions)
	s.Require().NoError(err)
	refs, err := temporalsvc.NewResolver(records, revisions, nil)
	s.Require().NoError(err)
	schemas, err := schemaresolver.New(records, schemamemory.New())
	s.Require().NoError(err)
	entities, err := entityservice.New(records, refs, schemas, entitymemory.New())
	s.Require().NoError(err)

	router := chi.NewRouter()
	New(entities, schemas, nil).Routes(router)
	s.server = httptest.NewServer(router)

	org, err := entities.CreateOrganization(ctx, "Test Org", "", nil)
	s.Require().NoError(err)
	project, err := entities.CreateProject(ctx, org.ID, "Test Project", "GH", "")
	s.Require().NoError(err)
	s.orgID = org.ID.String()
	s.projectID = project.ID.String()
	s.validFrom = "2020-01-01T00:00:00Z"

	// A required attribute so validation failures are observable over HTTP.
	_, err = schemas.Define(ctx, schemamodels.FieldDefinition{
		Scope:      schemamodels.OrgScope(org.ID),
		ObjectType: domain.ObjectParty,
		Name:       "dob",
		BaseType:   schemamodels.BaseText,
		Presence:   schemamodels.PresenceRequired,
	}, temporal.Interval{From: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)})
	s.Require().NoError(err)
}

func (s *HandlerSuite) TearDownTest() {
	s.server.Close()
}

func (s *HandlerSuite) post(path string, body map[string]any) (*http.Response, map[string]any) {
	payload, err := json.Marshal(body)
	s.Require().NoError(err)
	resp, err := http.Post(s.server.URL+path, "application/json", bytes.NewReader(payload))
	s.Require().NoError(err)
	return resp, s.decodeBody(resp)
}

func (s *HandlerSuite) get(path string) (*http.Response, map[string]any) {
	resp, err := http.Get(s.server.URL + path)
	s.Require().NoError(err)
	return resp, s.decodeBody(resp)
}

func (s *HandlerSuite) decodeBody(resp *http.Response) map[string]any {
	defer resp.Body.Close()
	var out map[string]any
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil
	}
	return out
}

func (s *HandlerSuite) createParty(name string) string {
	resp, body := s.post("/v1/parties", map[string]any{
		"org_id":     s.orgID,
		"project_id": s.projectID,
		"valid_from": s.validFrom,
		"name":       name,
		"type":       "IN",
		"attributes": map[string]any{"dob": "1980-01-01"},
	})
	s.Require().Equal(http.StatusCreated, resp.StatusCode)
	return body["id"].(string)
}

func (s *HandlerSuite) TestCreateParty() {
	s.Run("valid request returns 201 with ids", func() {
		resp, body := s.post("/v1/parties", map[string]any{
			"org_id":     s.orgID,
			"project_id": s.projectID,
			"valid_from": s.validFrom,
			"name":       "Efua Mensah",
			"type":       "IN",
			"attributes": map[string]any{"dob": "1972-05-09"},
		})
		s.Equal(http.StatusCreated, resp.StatusCode)
		s.NotEmpty(body["id"])
		s.NotEmpty(body["revision"])
	})

	s.Run("validation failure returns 422 with the issue list", func() {
		resp, body := s.post("/v1/parties", map[string]any{
			"org_id":     s.orgID,
			"project_id": s.projectID,
			"valid_from": s.validFrom,
			"name":       "Missing DOB",
			"type":       "IN",
		})
		s.Equal(http.StatusUnprocessableEntity, resp.StatusCode)
		s.Equal("validation", body["error"])
		s.NotEmpty(body["issues"])
	})

	s.Run("unknown project returns 404", func() {
		resp, _ := s.post("/v1/parties", map[string]any{
			"org_id":     s.orgID,
			"project_id": domain.NewProjectID().String(),
			"valid_from": s.validFrom,
			"name":       "Lost",
			"type":       "IN",
			"attributes": map[string]any{"dob": "1980-01-01"},
		})
		s.Equal(http.StatusNotFound, resp.StatusCode)
	})

	s.Run("malformed org id returns 400", func() {
		resp, _ := s.post("/v1/parties", map[string]any{
			"org_id":     "not-a-uuid",
			"project_id": s.projectID,
			"valid_from": s.validFrom,
			"name":       "Broken",
			"type":       "IN",
		})
		s.Equal(http.StatusBadRequest, resp.StatusCode)
	})
}

func (s *HandlerSuite) TestEntityLifecycle() {
	s.Run("created entity is readable at its coordinate", func() {
		id := s.createParty("Esi Badu")

		resp, body := s.get(fmt.Sprintf("/v1/entities/%s?valid_at=%s", id, s.validFrom))
		s.Equal(http.StatusOK, resp.StatusCode)
		fields := body["fields"].(map[string]any)
		s.Equal("Esi Badu", fields["name"])
	})

	s.Run("correction supersedes the readable revision", func() {
		id := s.createParty("Before Fix")

		resp, _ := s.post(fmt.Sprintf("/v1/entities/%s/corrections", id), map[string]any{
			"org_id":      s.orgID,
			"project_id":  s.projectID,
			"object_type": "party",
			"subtype":     "IN",
			"as_of_valid": s.validFrom,
			"fields":      map[string]any{"name": "After Fix"},
			"attributes":  map[string]any{"dob": "1980-01-01"},
		})
		s.Require().Equal(http.StatusOK, resp.StatusCode)

		resp, body := s.get(fmt.Sprintf("/v1/entities/%s?valid_at=%s", id, s.validFrom))
		s.Equal(http.StatusOK, resp.StatusCode)
		fields := body["fields"].(map[string]any)
		s.Equal("After Fix", fields["name"])
	})

	s.Run("retire returns 204 and hides the entity at later valid times", func() {
		id := s.createParty("Short Lived")

		payload, _ := json.Marshal(map[string]any{"valid_at": "2021-01-01T00:00:00Z"})
		resp, err := http.Post(s.server.URL+"/v1/entities/"+id+"/retire", "application/json", bytes.NewReader(payload))
		s.Require().NoError(err)
		resp.Body.Close()
		s.Equal(http.StatusNoContent, resp.StatusCode)

		resp, _ = s.get("/v1/entities/" + id + "?valid_at=2021-06-01T00:00:00Z")
		s.Equal(http.StatusNotFound, resp.StatusCode)
	})

	s.Run("unknown entity returns 404", func() {
		resp, _ := s.get("/v1/entities/" + domain.NewEntityID().String())
		s.Equal(http.StatusNotFound, resp.StatusCode)
	})
}

func (s *HandlerSuite) TestSchemaEndpoints() {
	s.Run("define then resolve returns the field", func() {
		resp, _ := s.post("/v1/attribute-definitions", map[string]any{
			"org_id":      s.orgID,
			"project_id":  s.projectID,
			"object_type": "party",
			"subtype":     "IN",
			"valid_from":  s.validFrom,
			"index":       1,
			"name":        "national_id",
			"base_type":   "TX",
			"presence":    "O",
		})
		s.Require().Equal(http.StatusCreated, resp.StatusCode)

		resp, body := s.get(fmt.Sprintf(
			"/v1/schema?org_id=%s&project_id=%s&object_type=party&subtype=IN&valid_at=%s",
			s.orgID, s.projectID, s.validFrom))
		s.Equal(http.StatusOK, resp.StatusCode)

		fields := body["fields"].([]any)
		found := false
		for _, f := range fields {
			if f.(map[string]any)["name"] == "national_id" {
				found = true
			}
		}
		s.True(found)
	})

	s.Run("invalid object type returns 400", func() {
		resp, _ := s.get("/v1/schema?object_type=starship")
		s.Equal(http.StatusBadRequest, resp.StatusCode)
	})
}

func (s *HandlerSuite) TestRelationships() {
	s.Run("tenure chain builds over HTTP", func() {
		party := s.createParty("Holder")

		resp, unitBody := s.post("/v1/spatial-units", map[string]any{
			"org_id":     s.orgID,
			"project_id": s.projectID,
			"valid_from": s.validFrom,
			"type":       "PA",
		})
		s.Require().Equal(http.StatusCreated, resp.StatusCode)

		resp, typeBody := s.post("/v1/tenure-types", map[string]any{
			"org_id":     s.orgID,
			"project_id": s.projectID,
			"valid_from": s.validFrom,
			"category":   "RIGHT",
			"name":       "freehold",
		})
		s.Require().Equal(http.StatusCreated, resp.StatusCode)

		resp, _ = s.post("/v1/tenure-relationships", map[string]any{
			"org_id":          s.orgID,
			"project_id":      s.projectID,
			"valid_from":      s.validFrom,
			"party_id":        party,
			"spatial_unit_id": unitBody["id"],
			"type_id":         typeBody["id"],
		})
		s.Equal(http.StatusCreated, resp.StatusCode)
	})

	s.Run("relationship to a missing party returns 404", func() {
		party := s.createParty("Alone")
		resp, _ := s.post("/v1/party-relationships", map[string]any{
			"org_id":     s.orgID,
			"project_id": s.projectID,
			"valid_from": s.validFrom,
			"first":      party,
			"second":     domain.NewEntityID().String(),
			"type":       "S",
		})
		s.Equal(http.StatusNotFound, resp.StatusCode)
	})
}

func (s *HandlerSuite) TestQuestionnaireRoutes() {
	scope := func(extra map[string]any) map[string]any {
		body := map[string]any{
			"org_id":     s.orgID,
			"project_id": s.projectID,
			"valid_from": s.validFrom,
		}
		for k, v := range extra {
			body[k] = v
		}
		return body
	}

	s.Run("form structure builds over HTTP", func() {
		resp, qBody := s.post("/v1/questionnaires", scope(map[string]any{
			"name":      "parcel_survey",
			"id_string": "parcel_survey_v2",
			"form_id":   3,
			"publish":   true,
		}))
		s.Require().Equal(http.StatusCreated, resp.StatusCode)

		resp, sectionBody := s.post("/v1/question-sections", scope(map[string]any{
			"questionnaire_id": qBody["id"],
			"name":             "boundaries",
			"publish":          true,
		}))
		s.Require().Equal(http.StatusCreated, resp.StatusCode)

		resp, groupBody := s.post("/v1/question-groups", scope(map[string]any{
			"questionnaire_id": qBody["id"],
			"section_id":       sectionBody["id"],
			"name":             "markers",
		}))
		s.Require().Equal(http.StatusCreated, resp.StatusCode)

		resp, questionBody := s.post("/v1/questions", scope(map[string]any{
			"questionnaire_id": qBody["id"],
			"section_id":       sectionBody["id"],
			"group_id":         groupBody["id"],
			"name":             "has_marker",
			"type":             "S1",
		}))
		s.Require().Equal(http.StatusCreated, resp.StatusCode)

		resp, _ = s.post("/v1/question-options", scope(map[string]any{
			"question_id": questionBody["id"],
			"name":        "yes",
			"label":       "Yes",
		}))
		s.Require().Equal(http.StatusCreated, resp.StatusCode)

		resp, respondentBody := s.post("/v1/question-respondents", scope(map[string]any{
			"questionnaire_id": qBody["id"],
			"submission_id":    "submission-0007",
		}))
		s.Require().Equal(http.StatusCreated, resp.StatusCode)

		resp, _ = s.post("/v1/question-responses", scope(map[string]any{
			"respondent_id": respondentBody["id"],
			"question_id":   questionBody["id"],
			"answer":        "yes",
		}))
		s.Equal(http.StatusCreated, resp.StatusCode)
	})

	s.Run("section under a missing questionnaire returns 404", func() {
		resp, _ := s.post("/v1/question-sections", scope(map[string]any{
			"questionnaire_id": domain.NewEntityID().String(),
			"name":             "nowhere",
		}))
		s.Equal(http.StatusNotFound, resp.StatusCode)
	})
}
