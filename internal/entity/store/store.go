// Package store defines the directory port: lookup of the non-versioned
// organization and project records that anchor entity scopes.
package store

import (
	"context"

	"cadastre/internal/entity/models"
	domain "cadastre/pkg/domain"
)

// Directory persists organizations and projects.
type Directory interface {
	// CreateOrganization inserts a new organization.
	CreateOrganization(ctx context.Context, org *models.Organization) error

	// CreateProject inserts a new project under its organization.
	CreateProject(ctx context.Context, project *models.Project) error

	// Organization returns an organization, or nil when unknown.
	Organization(ctx context.Context, id domain.OrgID) (*models.Organization, error)

	// Project returns a project, or nil when unknown.
	Project(ctx context.Context, id domain.ProjectID) (*models.Project, error)
}
