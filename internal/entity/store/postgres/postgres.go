// Package postgres persists the organization/project directory in PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"cadastre/internal/entity/models"
	domain "cadastre/pkg/domain"
)

// Store persists directory records.
type Store struct {
	db *sql.DB
}

// New constructs a PostgreSQL-backed directory store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Schema is the DDL the store expects.
const Schema = `
CREATE TABLE IF NOT EXISTS organizations (
	id          UUID PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	urls        TEXT[] NOT NULL DEFAULT '{}',
	archived    BOOLEAN NOT NULL DEFAULT FALSE,
	created_at  TIMESTAMPTZ NOT NULL
);
CREATE TABLE IF NOT EXISTS projects (
	id          UUID PRIMARY KEY,
	org_id      UUID NOT NULL REFERENCES organizations (id),
	name        TEXT NOT NULL,
	country     TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	archived    BOOLEAN NOT NULL DEFAULT FALSE,
	created_at  TIMESTAMPTZ NOT NULL
);
`

func (s *Store) CreateOrganization(ctx context.Context, org *models.Organization) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO organizations (id, name, description, urls, archived, created_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`, org.ID.String(), org.Name, org.Description, pq.Array(org.URLs), org.Archived, org.CreatedAt)
	if err != nil {
		return fmt.Errorf("create organization: %w", err)
	}
	return nil
}

func (s *Store) CreateProject(ctx context.Context, project *models.Project) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (id, org_id, name, country, description, archived, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, project.ID.String(), project.Org.String(), project.Name, project.Country,
		project.Description, project.Archived, project.CreatedAt)
	if err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

func (s *Store) Organization(ctx context.Context, id domain.OrgID) (*models.Organization, error) {
	var (
		org   models.Organization
		idRaw string
		urls  []string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, name, description, urls, archived, created_at
		FROM organizations WHERE id = $1
	`, id.String()).Scan(&idRaw, &org.Name, &org.Description, pq.Array(&urls), &org.Archived, &org.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load organization: %w", err)
	}
	parsed, err := domain.ParseOrgID(idRaw)
	if err != nil {
		return nil, err
	}
	org.ID = parsed
	org.URLs = urls
	return &org, nil
}

func (s *Store) Project(ctx context.Context, id domain.ProjectID) (*models.Project, error) {
	var (
		project models.Project
		idRaw   string
		orgRaw  string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, org_id, name, country, description, archived, created_at
		FROM projects WHERE id = $1
	`, id.String()).Scan(&idRaw, &orgRaw, &project.Name, &project.Country,
		&project.Description, &project.Archived, &project.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load project: %w", err)
	}
	pid, err := domain.ParseProjectID(idRaw)
	if err != nil {
		return nil, err
	}
	oid, err := domain.ParseOrgID(orgRaw)
	if err != nil {
		return nil, err
	}
	project.ID = pid
	project.Org = oid
	return &project, nil
}
