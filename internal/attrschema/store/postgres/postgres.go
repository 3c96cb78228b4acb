// Package postgres persists the attribute-definition index in PostgreSQL.
package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"cadastre/internal/attrschema/models"
	domain "cadastre/pkg/domain"
)

// Store indexes definition entities in the attribute_definitions table.
type Store struct {
	db *sql.DB
}

// New constructs a PostgreSQL-backed definition index.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Schema is the DDL the store expects. Scope columns use the zero UUID for
// "unset" so the unique index covers the system scope too.
const Schema = `
CREATE TABLE IF NOT EXISTS attribute_definitions (
	org_id      UUID NOT NULL DEFAULT '00000000-0000-0000-0000-000000000000',
	project_id  UUID NOT NULL DEFAULT '00000000-0000-0000-0000-000000000000',
	object_type TEXT NOT NULL,
	subtype     TEXT NOT NULL DEFAULT '',
	entity_id   UUID NOT NULL,
	position    BIGSERIAL,
	PRIMARY KEY (org_id, project_id, object_type, subtype, entity_id)
);
CREATE INDEX IF NOT EXISTS attribute_definitions_key_idx
	ON attribute_definitions (org_id, project_id, object_type, subtype, position);
`

const zeroUUID = "00000000-0000-0000-0000-000000000000"

func scopeColumns(scope models.Scope) (org, project string) {
	org, project = zeroUUID, zeroUUID
	if scope.Org != nil {
		org = scope.Org.String()
	}
	if scope.Project != nil {
		project = scope.Project.String()
	}
	return org, project
}

func (s *Store) Register(ctx context.Context, scope models.Scope, objectType domain.ObjectType, subtype string, entity domain.EntityID) error {
	org, project := scopeColumns(scope)
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO attribute_definitions (org_id, project_id, object_type, subtype, entity_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT DO NOTHING
	`, org, project, objectType.String(), subtype, entity.String())
	if err != nil {
		return fmt.Errorf("register definition: %w", err)
	}
	return nil
}

func (s *Store) List(ctx context.Context, scope models.Scope, objectType domain.ObjectType, subtype string) ([]domain.EntityID, error) {
	org, project := scopeColumns(scope)
	rows, err := s.db.QueryContext(ctx, `
		SELECT entity_id FROM attribute_definitions
		WHERE org_id = $1 AND project_id = $2 AND object_type = $3 AND subtype = $4
		ORDER BY position
	`, org, project, objectType.String(), subtype)
	if err != nil {
		return nil, fmt.Errorf("list definitions: %w", err)
	}
	defer rows.Close()

	var out []domain.EntityID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan definition entity: %w", err)
		}
		id, err := domain.ParseEntityID(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, id)
	}
	return out, rows.Err()
}
