// Package memory provides the in-memory revision store. It is the reference
// implementation of the store contract and the test double for everything
// built on top of it; production deployments use the Postgres store.
package memory

import (
	"context"
	"sync"
	"time"

	"cadastre/internal/temporal/models"
	domain "cadastre/pkg/domain"
	dErrors "cadastre/pkg/domain-errors"
)

// Store keeps revisions per entity plus a reverse index from reference
// targets to referencing entities. Reads clone so callers never alias
// stored history.
type Store struct {
	mu        sync.RWMutex
	revisions map[domain.EntityID][]*models.Revision
	byID      map[domain.RevisionID]*models.Revision
	referrers map[domain.EntityID]map[domain.EntityID]struct{}
}

// New creates an empty in-memory revision store.
func New() *Store {
	return &Store{
		revisions: make(map[domain.EntityID][]*models.Revision),
		byID:      make(map[domain.RevisionID]*models.Revision),
		referrers: make(map[domain.EntityID]map[domain.EntityID]struct{}),
	}
}

func (s *Store) Append(ctx context.Context, rev *models.Revision) error {
	if rev == nil {
		return dErrors.New(dErrors.CodeBadRequest, "revision is required")
	}
	if rev.ID.IsNil() || rev.Entity.IsNil() {
		return dErrors.New(dErrors.CodeBadRequest, "revision and entity ids are required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.byID[rev.ID]; exists {
		return dErrors.Newf(dErrors.CodeConflict, "revision %s already recorded", rev.ID)
	}

	stored := rev.Clone()
	s.revisions[rev.Entity] = append(s.revisions[rev.Entity], stored)
	s.byID[rev.ID] = stored
	for _, ref := range stored.References {
		set := s.referrers[ref.Target]
		if set == nil {
			set = make(map[domain.EntityID]struct{})
			s.referrers[ref.Target] = set
		}
		set[rev.Entity] = struct{}{}
	}
	return nil
}

func (s *Store) CloseRecording(ctx context.Context, id domain.RevisionID, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rev, ok := s.byID[id]
	if !ok {
		return dErrors.Newf(dErrors.CodeNotFound, "revision %s not found", id)
	}
	if !rev.Coordinate.Recorded.Open() {
		return dErrors.Newf(dErrors.CodeConflict, "revision %s recording already closed", id)
	}
	rev.Coordinate.Recorded = rev.Coordinate.Recorded.Close(at)
	return nil
}

func (s *Store) AsOf(ctx context.Context, entity domain.EntityID, validTime, recordedTime time.Time) (*models.Revision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, rev := range s.revisions[entity] {
		if rev.Coordinate.InEffect(validTime, recordedTime) {
			return rev.Clone(), nil
		}
	}
	return nil, nil
}

func (s *Store) OpenRevisions(ctx context.Context, entity domain.EntityID) ([]*models.Revision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Revision
	for _, rev := range s.revisions[entity] {
		if rev.Coordinate.Current() {
			out = append(out, rev.Clone())
		}
	}
	return out, nil
}

func (s *Store) Referrers(ctx context.Context, target domain.EntityID, validTime time.Time) ([]*models.Revision, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []*models.Revision
	for entity := range s.referrers[target] {
		for _, rev := range s.revisions[entity] {
			if !rev.Coordinate.Current() || !rev.Coordinate.Valid.Contains(validTime) {
				continue
			}
			if _, ok := s.targetOf(rev, target); ok {
				out = append(out, rev.Clone())
			}
		}
	}
	return out, nil
}

func (s *Store) targetOf(rev *models.Revision, target domain.EntityID) (models.Reference, bool) {
	for _, ref := range rev.References {
		if ref.Target == target {
			return ref, true
		}
	}
	return models.Reference{}, false
}
