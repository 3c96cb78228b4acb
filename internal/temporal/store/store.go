// Package store defines the persistence port for the bitemporal revision
// store. Implementations are append-only: revisions are inserted and their
// recording intervals closed, never edited or deleted.
package store

import (
	"context"
	"time"

	"cadastre/internal/temporal/models"
	domain "cadastre/pkg/domain"
)

// RevisionStore is the persistence collaborator for record revisions.
type RevisionStore interface {
	// Append inserts a new immutable revision.
	Append(ctx context.Context, rev *models.Revision) error

	// CloseRecording sets the recording upper bound of a revision.
	// It is the only permitted change to an existing revision.
	CloseRecording(ctx context.Context, id domain.RevisionID, at time.Time) error

	// AsOf returns the unique revision of entity whose valid interval
	// contains validTime and whose recording interval contains
	// recordedTime, or nil when none exists.
	AsOf(ctx context.Context, entity domain.EntityID, validTime, recordedTime time.Time) (*models.Revision, error)

	// OpenRevisions returns all revisions of entity whose recording
	// interval is still open, i.e. the system's present belief.
	OpenRevisions(ctx context.Context, entity domain.EntityID) ([]*models.Revision, error)

	// Referrers returns open-recording revisions of other entities that
	// hold a reference to target and whose valid interval contains
	// validTime.
	Referrers(ctx context.Context, target domain.EntityID, validTime time.Time) ([]*models.Revision, error)
}
