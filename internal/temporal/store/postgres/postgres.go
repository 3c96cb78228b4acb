// Package postgres persists record revisions in PostgreSQL. The table is
// append-only: inserts plus a single UPDATE that closes a recording
// interval. The pgx driver is registered via database/sql so the store only
// depends on the standard interface.
package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"

	"cadastre/internal/temporal/models"
	domain "cadastre/pkg/domain"
	dErrors "cadastre/pkg/domain-errors"
)

// Store persists revisions in the record_revisions table.
type Store struct {
	db *sql.DB
}

// New constructs a PostgreSQL-backed revision store.
func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Schema is the DDL the store expects. Applied by migrations in deployment;
// exported so integration tests can bootstrap a scratch database. The
// exclusion constraint enforces valid-interval uniqueness among a single
// entity's open-recording revisions at the database, so concurrent writers on
// separate instances cannot slip past the in-process lock.
const Schema = `
CREATE EXTENSION IF NOT EXISTS btree_gist;
CREATE TABLE IF NOT EXISTS record_revisions (
	id            UUID PRIMARY KEY,
	entity_id     UUID NOT NULL,
	valid_from    TIMESTAMPTZ NOT NULL,
	valid_to      TIMESTAMPTZ,
	recorded_from TIMESTAMPTZ NOT NULL,
	recorded_to   TIMESTAMPTZ,
	fields        JSONB NOT NULL DEFAULT '{}',
	attributes    JSONB,
	refs          JSONB NOT NULL DEFAULT '[]',
	ref_targets   UUID[] NOT NULL DEFAULT '{}',
	CONSTRAINT record_revisions_open_valid_excl EXCLUDE USING gist (
		entity_id WITH =,
		tstzrange(valid_from, valid_to) WITH &&
	) WHERE (recorded_to IS NULL)
);
CREATE INDEX IF NOT EXISTS record_revisions_entity_idx
	ON record_revisions (entity_id, valid_from);
CREATE INDEX IF NOT EXISTS record_revisions_targets_idx
	ON record_revisions USING GIN (ref_targets);
`

func (s *Store) Append(ctx context.Context, rev *models.Revision) error {
	if rev == nil {
		return dErrors.New(dErrors.CodeBadRequest, "revision is required")
	}

	fields, err := json.Marshal(rev.Fields)
	if err != nil {
		return fmt.Errorf("marshal fields: %w", err)
	}
	var attrs []byte
	if rev.Attributes != nil {
		if attrs, err = json.Marshal(rev.Attributes); err != nil {
			return fmt.Errorf("marshal attributes: %w", err)
		}
	}
	refs, err := json.Marshal(rev.References)
	if err != nil {
		return fmt.Errorf("marshal references: %w", err)
	}
	targets := make([]string, 0, len(rev.References))
	for _, ref := range rev.References {
		targets = append(targets, ref.Target.String())
	}

	query := `
		INSERT INTO record_revisions
			(id, entity_id, valid_from, valid_to, recorded_from, recorded_to, fields, attributes, refs, ref_targets)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err = s.db.ExecContext(ctx, query,
		rev.ID.String(), rev.Entity.String(),
		rev.Coordinate.Valid.From, nullTime(rev.Coordinate.Valid.To),
		rev.Coordinate.Recorded.From, nullTime(rev.Coordinate.Recorded.To),
		fields, attrs, refs, pq.Array(targets),
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) {
			switch pgErr.Code {
			case "23505":
				return dErrors.Newf(dErrors.CodeConflict, "revision %s already exists", rev.ID)
			case "23P01":
				return dErrors.Newf(dErrors.CodeConflict,
					"entity %s already has an open revision overlapping the valid interval", rev.Entity)
			}
		}
		return fmt.Errorf("append revision: %w", err)
	}
	return nil
}

func (s *Store) CloseRecording(ctx context.Context, id domain.RevisionID, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
		UPDATE record_revisions SET recorded_to = $2
		WHERE id = $1 AND recorded_to IS NULL
	`, id.String(), at)
	if err != nil {
		return fmt.Errorf("close recording: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("close recording: %w", err)
	}
	if n == 0 {
		return dErrors.Newf(dErrors.CodeNotFound, "no open revision %s", id)
	}
	return nil
}

const revisionColumns = `
	id, entity_id, valid_from, valid_to, recorded_from, recorded_to, fields, attributes, refs
`

func (s *Store) AsOf(ctx context.Context, entity domain.EntityID, validTime, recordedTime time.Time) (*models.Revision, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT `+revisionColumns+`
		FROM record_revisions
		WHERE entity_id = $1
		  AND valid_from <= $2 AND (valid_to IS NULL OR valid_to > $2)
		  AND recorded_from <= $3 AND (recorded_to IS NULL OR recorded_to > $3)
	`, entity.String(), validTime, recordedTime)
	rev, err := scanRevision(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("as-of lookup: %w", err)
	}
	return rev, nil
}

func (s *Store) OpenRevisions(ctx context.Context, entity domain.EntityID) ([]*models.Revision, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+revisionColumns+`
		FROM record_revisions
		WHERE entity_id = $1 AND recorded_to IS NULL
		ORDER BY valid_from
	`, entity.String())
	if err != nil {
		return nil, fmt.Errorf("open revisions: %w", err)
	}
	defer rows.Close()
	return collectRevisions(rows)
}

func (s *Store) Referrers(ctx context.Context, target domain.EntityID, validTime time.Time) ([]*models.Revision, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT `+revisionColumns+`
		FROM record_revisions
		WHERE $1 = ANY(ref_targets)
		  AND recorded_to IS NULL
		  AND valid_from <= $2 AND (valid_to IS NULL OR valid_to > $2)
	`, target.String(), validTime)
	if err != nil {
		return nil, fmt.Errorf("referrers lookup: %w", err)
	}
	defer rows.Close()
	return collectRevisions(rows)
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRevision(row scanner) (*models.Revision, error) {
	var (
		rev              models.Revision
		idStr, entityStr string
		validTo          sql.NullTime
		recordedTo       sql.NullTime
		fields           []byte
		attrs            []byte
		refs             []byte
	)
	err := row.Scan(&idStr, &entityStr,
		&rev.Coordinate.Valid.From, &validTo,
		&rev.Coordinate.Recorded.From, &recordedTo,
		&fields, &attrs, &refs)
	if err != nil {
		return nil, err
	}

	revID, err := domain.ParseRevisionID(idStr)
	if err != nil {
		return nil, err
	}
	rev.ID = revID
	entityID, err := domain.ParseEntityID(entityStr)
	if err != nil {
		return nil, err
	}
	rev.Entity = entityID
	if validTo.Valid {
		rev.Coordinate.Valid.To = validTo.Time
	}
	if recordedTo.Valid {
		rev.Coordinate.Recorded.To = recordedTo.Time
	}
	if err := json.Unmarshal(fields, &rev.Fields); err != nil {
		return nil, fmt.Errorf("unmarshal fields: %w", err)
	}
	if len(attrs) > 0 {
		if err := json.Unmarshal(attrs, &rev.Attributes); err != nil {
			return nil, fmt.Errorf("unmarshal attributes: %w", err)
		}
	}
	if err := json.Unmarshal(refs, &rev.References); err != nil {
		return nil, fmt.Errorf("unmarshal references: %w", err)
	}
	return &rev, nil
}

func collectRevisions(rows *sql.Rows) ([]*models.Revision, error) {
	var out []*models.Revision
	for rows.Next() {
		rev, err := scanRevision(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rev)
	}
	return out, rows.Err()
}

func nullTime(t time.Time) sql.NullTime {
	if t.IsZero() {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: t, Valid: true}
}
