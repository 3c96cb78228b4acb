package service

import (
	"context"

	"cadastre/internal/entity/models"
	temporalmodels "cadastre/internal/temporal/models"
	domain "cadastre/pkg/domain"
	dErrors "cadastre/pkg/domain-errors"
)

// Typed create helpers. Each reduces its entity to the common descriptor and
// runs the shared write path; they exist so callers never assemble raw
// descriptors for the known kinds.

// CreateParty records a new party.
func (s *Service) CreateParty(ctx context.Context, p models.Party, valid temporalmodels.Interval) (domain.EntityID, domain.RevisionID, error) {
	return s.Create(ctx, p.Descriptor(), valid)
}

// CreateSpatialUnit records a new spatial unit.
func (s *Service) CreateSpatialUnit(ctx context.Context, u models.SpatialUnit, valid temporalmodels.Interval) (domain.EntityID, domain.RevisionID, error) {
	return s.Create(ctx, u.Descriptor(), valid)
}

// CreatePartyRelationship records a relationship between two parties.
func (s *Service) CreatePartyRelationship(ctx context.Context, r models.PartyRelationship, valid temporalmodels.Interval) (domain.EntityID, domain.RevisionID, error) {
	return s.Create(ctx, r.Descriptor(), valid)
}

// CreateSpatialUnitRelationship records a relationship between two spatial units.
func (s *Service) CreateSpatialUnitRelationship(ctx context.Context, r models.SpatialUnitRelationship, valid temporalmodels.Interval) (domain.EntityID, domain.RevisionID, error) {
	return s.Create(ctx, r.Descriptor(), valid)
}

// CreateTenureRelationshipType records a named tenure term kind.
func (s *Service) CreateTenureRelationshipType(ctx context.Context, t models.TenureRelationshipType, valid temporalmodels.Interval) (domain.EntityID, domain.RevisionID, error) {
	return s.Create(ctx, t.Descriptor(), valid)
}

// CreateTenureRelationship records a tenure term between a party and a
// spatial unit.
func (s *Service) CreateTenureRelationship(ctx context.Context, t models.TenureRelationship, valid temporalmodels.Interval) (domain.EntityID, domain.RevisionID, error) {
	return s.Create(ctx, t.Descriptor(), valid)
}

// CreateResource records an uploaded-file association. The polymorphic link
// is validated against the closed referenceable set before the shared write
// path runs. Directory-backed targets have no revisions, so their existence
// is checked against the directory here rather than by the reference check.
func (s *Service) CreateResource(ctx context.Context, r models.Resource, valid temporalmodels.Interval) (domain.EntityID, domain.RevisionID, error) {
	if err := r.Link.Validate(); err != nil {
		return domain.EntityID{}, domain.RevisionID{}, err
	}
	if r.Link.DirectoryBacked() {
		if err := s.checkDirectoryLink(ctx, r.Link); err != nil {
			return domain.EntityID{}, domain.RevisionID{}, err
		}
	}
	return s.Create(ctx, r.Descriptor(), valid)
}

// checkDirectoryLink verifies an organization or project link target exists.
func (s *Service) checkDirectoryLink(ctx context.Context, link models.ResourceLink) error {
	switch link.Type {
	case domain.ObjectOrganization:
		org, err := s.directory.Organization(ctx, domain.OrgID(link.ID))
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "load linked organization")
		}
		if org == nil {
			return dErrors.Newf(dErrors.CodeNotFound, "linked organization %s not found", link.ID)
		}
	case domain.ObjectProject:
		project, err := s.directory.Project(ctx, domain.ProjectID(link.ID))
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "load linked project")
		}
		if project == nil {
			return dErrors.Newf(dErrors.CodeNotFound, "linked project %s not found", link.ID)
		}
	}
	return nil
}

// CreateQuestionnaire records a form definition.
func (s *Service) CreateQuestionnaire(ctx context.Context, q models.Questionnaire, valid temporalmodels.Interval) (domain.EntityID, domain.RevisionID, error) {
	return s.Create(ctx, q.Descriptor(), valid)
}

// CreateQuestionSection records a section of a questionnaire.
func (s *Service) CreateQuestionSection(ctx context.Context, sec models.QuestionSection, valid temporalmodels.Interval) (domain.EntityID, domain.RevisionID, error) {
	return s.Create(ctx, sec.Descriptor(), valid)
}

// CreateQuestionGroup records a question group, optionally nested under a
// parent group.
func (s *Service) CreateQuestionGroup(ctx context.Context, g models.QuestionGroup, valid temporalmodels.Interval) (domain.EntityID, domain.RevisionID, error) {
	return s.Create(ctx, g.Descriptor(), valid)
}

// CreateQuestion records a form question under a questionnaire.
func (s *Service) CreateQuestion(ctx context.Context, q models.Question, valid temporalmodels.Interval) (domain.EntityID, domain.RevisionID, error) {
	return s.Create(ctx, q.Descriptor(), valid)
}

// CreateQuestionOption records one choice of a select-type question.
func (s *Service) CreateQuestionOption(ctx context.Context, o models.QuestionOption, valid temporalmodels.Interval) (domain.EntityID, domain.RevisionID, error) {
	return s.Create(ctx, o.Descriptor(), valid)
}

// CreateQuestionRespondent records one submission of a questionnaire.
func (s *Service) CreateQuestionRespondent(ctx context.Context, r models.QuestionRespondent, valid temporalmodels.Interval) (domain.EntityID, domain.RevisionID, error) {
	return s.Create(ctx, r.Descriptor(), valid)
}

// CreateQuestionResponse records one answer of a respondent.
func (s *Service) CreateQuestionResponse(ctx context.Context, r models.QuestionResponse, valid temporalmodels.Interval) (domain.EntityID, domain.RevisionID, error) {
	return s.Create(ctx, r.Descriptor(), valid)
}
