// Package memory provides the in-memory directory store.
package memory

import (
	"context"
	"sync"

	"cadastre/internal/entity/models"
	domain "cadastre/pkg/domain"
	dErrors "cadastre/pkg/domain-errors"
)

// Store keeps organizations and projects in process memory.
type Store struct {
	mu       sync.RWMutex
	orgs     map[domain.OrgID]*models.Organization
	projects map[domain.ProjectID]*models.Project
}

// New creates an empty directory.
func New() *Store {
	return &Store{
		orgs:     make(map[domain.OrgID]*models.Organization),
		projects: make(map[domain.ProjectID]*models.Project),
	}
}

func (s *Store) CreateOrganization(ctx context.Context, org *models.Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.orgs[org.ID]; exists {
		return dErrors.Newf(dErrors.CodeConflict, "organization %s already exists", org.ID)
	}
	cp := *org
	s.orgs[org.ID] = &cp
	return nil
}

func (s *Store) CreateProject(ctx context.Context, project *models.Project) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.projects[project.ID]; exists {
		return dErrors.Newf(dErrors.CodeConflict, "project %s already exists", project.ID)
	}
	if _, ok := s.orgs[project.Org]; !ok {
		return dErrors.Newf(dErrors.CodeNotFound, "organization %s not found", project.Org)
	}
	cp := *project
	s.projects[project.ID] = &cp
	return nil
}

func (s *Store) Organization(ctx context.Context, id domain.OrgID) (*models.Organization, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	org, ok := s.orgs[id]
	if !ok {
		return nil, nil
	}
	cp := *org
	return &cp, nil
}

func (s *Store) Project(ctx context.Context, id domain.ProjectID) (*models.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	project, ok := s.projects[id]
	if !ok {
		return nil, nil
	}
	cp := *project
	return &cp, nil
}
