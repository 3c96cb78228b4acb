package service

import (
	"context"

	"cadastre/internal/entity/models"
	domain "cadastre/pkg/domain"
	dErrors "cadastre/pkg/domain-errors"
)

// CreateOrganization registers a new organization scope anchor.
func (s *Service) CreateOrganization(ctx context.Context, name, description string, urls []string) (*models.Organization, error) {
	org, err := models.NewOrganization(domain.NewOrgID(), name, s.clock())
	if err != nil {
		return nil, err
	}
	org.Description = description
	org.URLs = urls
	if err := s.directory.CreateOrganization(ctx, org); err != nil {
		return nil, err
	}
	return org, nil
}

// CreateProject registers a new project under an organization.
func (s *Service) CreateProject(ctx context.Context, org domain.OrgID, name, country, description string) (*models.Project, error) {
	owner, err := s.directory.Organization(ctx, org)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load organization")
	}
	if owner == nil {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "organization %s not found", org)
	}
	if owner.Archived {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "organization is archived")
	}

	project, err := models.NewProject(domain.NewProjectID(), org, name, s.clock())
	if err != nil {
		return nil, err
	}
	project.Country = country
	project.Description = description
	if err := s.directory.CreateProject(ctx, project); err != nil {
		return nil, err
	}
	return project, nil
}
