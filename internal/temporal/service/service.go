// Package service implements the bitemporal record operations: insert,
// correct, point-in-time reconstruction and retirement. All mutation for a
// single entity identity is serialized through an identity-keyed lock table;
// reads take no locks beyond the store's own.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"cadastre/internal/temporal/metrics"
	"cadastre/internal/temporal/models"
	"cadastre/internal/temporal/store"
	domain "cadastre/pkg/domain"
	dErrors "cadastre/pkg/domain-errors"
)

// Clock supplies the recording timeline. Injected for testability.
type Clock func() time.Time

// Service is the Temporal Coordinate & Record Store.
type Service struct {
	store   store.RevisionStore
	clock   Clock
	logger  *slog.Logger
	metrics *metrics.Metrics

	lockMu sync.Mutex
	locks  map[domain.EntityID]*sync.Mutex
}

// Option configures a Service.
type Option func(*Service)

// WithClock sets the clock function for testability.
func WithClock(clock Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

// WithMetrics sets the Prometheus instrumentation.
func WithMetrics(m *metrics.Metrics) Option {
	return func(s *Service) {
		s.metrics = m
	}
}

// New constructs the record service over a revision store.
func New(st store.RevisionStore, opts ...Option) (*Service, error) {
	if st == nil {
		return nil, fmt.Errorf("revision store is required")
	}
	svc := &Service{
		store: st,
		clock: time.Now,
		locks: make(map[domain.EntityID]*sync.Mutex),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// entityLock returns the mutex serializing mutations of one identity.
func (s *Service) entityLock(entity domain.EntityID) *sync.Mutex {
	s.lockMu.Lock()
	defer s.lockMu.Unlock()
	mu := s.locks[entity]
	if mu == nil {
		mu = &sync.Mutex{}
		s.locks[entity] = mu
	}
	return mu
}

// InsertRequest carries the payload for a first (or additional) revision.
type InsertRequest struct {
	Entity     domain.EntityID
	Valid      models.Interval
	Fields     models.Fields
	Attributes map[string]any
	References []models.Reference
}

// Insert appends a revision with an open recording interval. It fails with a
// conflict when another open-recording revision of the same entity covers an
// overlapping valid-time instant.
func (s *Service) Insert(ctx context.Context, req InsertRequest) (domain.RevisionID, error) {
	if req.Entity.IsNil() {
		return domain.RevisionID{}, dErrors.New(dErrors.CodeBadRequest, "entity id is required")
	}
	if err := req.Valid.Validate(); err != nil {
		return domain.RevisionID{}, err
	}
	for _, ref := range req.References {
		if !ref.Policy.IsValid() {
			return domain.RevisionID{}, dErrors.Newf(dErrors.CodeBadRequest, "reference %q has invalid cascade policy %q", ref.Field, ref.Policy)
		}
	}

	mu := s.entityLock(req.Entity)
	mu.Lock()
	defer mu.Unlock()

	open, err := s.store.OpenRevisions(ctx, req.Entity)
	if err != nil {
		return domain.RevisionID{}, dErrors.Wrap(err, dErrors.CodeInternal, "load open revisions")
	}
	for _, rev := range open {
		if rev.Coordinate.Valid.Overlaps(req.Valid) {
			s.metrics.ObserveConflict()
			return domain.RevisionID{}, dErrors.Newf(dErrors.CodeConflict,
				"entity %s already has an open revision overlapping the valid interval", req.Entity)
		}
	}

	rev := &models.Revision{
		ID:     domain.NewRevisionID(),
		Entity: req.Entity,
		Coordinate: models.Coordinate{
			Valid:    req.Valid,
			Recorded: models.Interval{From: s.clock()},
		},
		Fields:     req.Fields,
		Attributes: req.Attributes,
		References: req.References,
	}
	if err := s.store.Append(ctx, rev); err != nil {
		return domain.RevisionID{}, dErrors.Wrap(err, dErrors.CodeInternal, "append revision")
	}
	s.metrics.ObserveAppend("insert")
	s.log(ctx, "revision inserted", "entity", req.Entity.String(), "revision", rev.ID.String())
	return rev.ID, nil
}

// CorrectRequest carries a correction of the revision in effect at AsOfValid.
type CorrectRequest struct {
	Entity     domain.EntityID
	AsOfValid  time.Time
	Fields     models.Fields
	Attributes map[string]any
	References []models.Reference
	// NewValid replaces the valid interval; the zero value keeps the
	// superseded revision's interval.
	NewValid models.Interval
	// KeepReferences carries the superseded revision's references forward
	// when the correction does not touch them.
	KeepReferences bool
}

// Correct closes the recording interval of the revision in effect at
// AsOfValid and appends a replacement recorded from now. Valid time may be
// backdated or extended; recording time always moves forward. History of
// what was believed when is preserved permanently.
func (s *Service) Correct(ctx context.Context, req CorrectRequest) (domain.RevisionID, error) {
	if req.Entity.IsNil() {
		return domain.RevisionID{}, dErrors.New(dErrors.CodeBadRequest, "entity id is required")
	}

	mu := s.entityLock(req.Entity)
	mu.Lock()
	defer mu.Unlock()

	now := s.clock()
	current, err := s.store.AsOf(ctx, req.Entity, req.AsOfValid, now)
	if err != nil {
		return domain.RevisionID{}, dErrors.Wrap(err, dErrors.CodeInternal, "load current revision")
	}
	if current == nil {
		return domain.RevisionID{}, dErrors.Newf(dErrors.CodeNotFound,
			"entity %s has no revision in effect at %s", req.Entity, req.AsOfValid.Format(time.RFC3339))
	}

	valid := req.NewValid
	if valid.From.IsZero() {
		valid = current.Coordinate.Valid
	}
	if err := valid.Validate(); err != nil {
		return domain.RevisionID{}, err
	}

	refs := req.References
	if req.KeepReferences {
		refs = current.References
	}

	// A correction may extend or move the valid interval, so it is held to the
	// same exclusion rule as Insert against the entity's other open revisions.
	open, err := s.store.OpenRevisions(ctx, req.Entity)
	if err != nil {
		return domain.RevisionID{}, dErrors.Wrap(err, dErrors.CodeInternal, "load open revisions")
	}
	for _, other := range open {
		if other.ID == current.ID {
			continue
		}
		if other.Coordinate.Valid.Overlaps(valid) {
			s.metrics.ObserveConflict()
			return domain.RevisionID{}, dErrors.Newf(dErrors.CodeConflict,
				"entity %s already has an open revision overlapping the corrected valid interval", req.Entity)
		}
	}

	if err := s.store.CloseRecording(ctx, current.ID, now); err != nil {
		return domain.RevisionID{}, dErrors.Wrap(err, dErrors.CodeInternal, "close superseded revision")
	}
	rev := &models.Revision{
		ID:     domain.NewRevisionID(),
		Entity: req.Entity,
		Coordinate: models.Coordinate{
			Valid:    valid,
			Recorded: models.Interval{From: now},
		},
		Fields:     req.Fields,
		Attributes: req.Attributes,
		References: refs,
	}
	if err := s.store.Append(ctx, rev); err != nil {
		return domain.RevisionID{}, dErrors.Wrap(err, dErrors.CodeInternal, "append corrected revision")
	}
	s.metrics.ObserveAppend("correct")
	s.log(ctx, "revision corrected",
		"entity", req.Entity.String(),
		"superseded", current.ID.String(),
		"revision", rev.ID.String())
	return rev.ID, nil
}

// AsOf returns the unique revision in effect at validTime as believed at
// recordedTime. The zero recordedTime means "as believed now". For fixed
// arguments the answer never changes.
func (s *Service) AsOf(ctx context.Context, entity domain.EntityID, validTime, recordedTime time.Time) (*models.Revision, error) {
	if recordedTime.IsZero() {
		recordedTime = s.clock()
	}
	rev, err := s.store.AsOf(ctx, entity, validTime, recordedTime)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "as-of lookup")
	}
	if rev == nil {
		return nil, dErrors.Newf(dErrors.CodeNotFound,
			"entity %s has no revision at the requested coordinate", entity)
	}
	return rev, nil
}

// Retire closes the valid interval of the revision in effect at validTime,
// with no field changes. The entity is never deleted; its history stays
// reconstructable.
func (s *Service) Retire(ctx context.Context, entity domain.EntityID, validTime time.Time) (domain.RevisionID, error) {
	mu := s.entityLock(entity)
	mu.Lock()
	defer mu.Unlock()
	return s.retireLocked(ctx, entity, validTime)
}

// retireLocked performs the retirement while the entity lock is held. The
// cascade resolver calls this directly after acquiring locks itself.
func (s *Service) retireLocked(ctx context.Context, entity domain.EntityID, validTime time.Time) (domain.RevisionID, error) {
	now := s.clock()
	current, err := s.store.AsOf(ctx, entity, validTime, now)
	if err != nil {
		return domain.RevisionID{}, dErrors.Wrap(err, dErrors.CodeInternal, "load current revision")
	}
	if current == nil {
		return domain.RevisionID{}, dErrors.Newf(dErrors.CodeNotFound,
			"entity %s has no revision in effect at %s", entity, validTime.Format(time.RFC3339))
	}
	closed := current.Coordinate.Valid.Close(validTime)
	if err := closed.Validate(); err != nil {
		return domain.RevisionID{}, dErrors.Newf(dErrors.CodeBadRequest,
			"retire time %s does not fall after the revision's valid start", validTime.Format(time.RFC3339))
	}
	if err := s.store.CloseRecording(ctx, current.ID, now); err != nil {
		return domain.RevisionID{}, dErrors.Wrap(err, dErrors.CodeInternal, "close superseded revision")
	}
	rev := &models.Revision{
		ID:     domain.NewRevisionID(),
		Entity: entity,
		Coordinate: models.Coordinate{
			Valid:    closed,
			Recorded: models.Interval{From: now},
		},
		Fields:     current.Fields,
		Attributes: current.Attributes,
		References: current.References,
	}
	if err := s.store.Append(ctx, rev); err != nil {
		return domain.RevisionID{}, dErrors.Wrap(err, dErrors.CodeInternal, "append retirement revision")
	}
	s.metrics.ObserveAppend("retire")
	s.log(ctx, "entity retired", "entity", entity.String(), "revision", rev.ID.String())
	return rev.ID, nil
}

func (s *Service) log(ctx context.Context, msg string, args ...any) {
	if s.logger != nil {
		s.logger.InfoContext(ctx, msg, args...)
	}
}
