package models

import (
	"time"

	domain "cadastre/pkg/domain"
	dErrors "cadastre/pkg/domain-errors"
)

// Organizations and projects anchor scopes but need no version tracking of
// their own, so they are plain records rather than temporal entities.

// Organization is a tenant-level owner of projects and attribute defaults.
type Organization struct {
	ID          domain.OrgID `json:"id"`
	Name        string       `json:"name"`
	Description string       `json:"description,omitempty"`
	URLs        []string     `json:"urls,omitempty"`
	Archived    bool         `json:"archived"`
	CreatedAt   time.Time    `json:"created_at"`
}

// NewOrganization validates and constructs an organization.
func NewOrganization(id domain.OrgID, name string, now time.Time) (*Organization, error) {
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "organization name cannot be empty")
	}
	return &Organization{ID: id, Name: name, CreatedAt: now}, nil
}

// Project is the working unit all business entities belong to.
type Project struct {
	ID          domain.ProjectID `json:"id"`
	Org         domain.OrgID     `json:"org"`
	Name        string           `json:"name"`
	Country     string           `json:"country,omitempty"`
	Description string           `json:"description,omitempty"`
	Archived    bool             `json:"archived"`
	CreatedAt   time.Time        `json:"created_at"`
}

// NewProject validates and constructs a project under an organization.
func NewProject(id domain.ProjectID, org domain.OrgID, name string, now time.Time) (*Project, error) {
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "project name cannot be empty")
	}
	if org.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvariantViolation, "project requires an owning organization")
	}
	return &Project{ID: id, Org: org, Name: name, CreatedAt: now}, nil
}
