// Package service orchestrates writes to the business entities: effective
// schema resolution, attribute document validation, revision recording and
// reference re-checks, in that order. It contains no temporal or schema
// logic of its own.
package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"

	schemaresolver "cadastre/internal/attrschema/resolver"
	"cadastre/internal/attrschema/validator"
	"cadastre/internal/entity/models"
	"cadastre/internal/entity/store"
	"cadastre/internal/platform/audit"
	"cadastre/internal/registry"
	temporalmodels "cadastre/internal/temporal/models"
	temporalsvc "cadastre/internal/temporal/service"
	domain "cadastre/pkg/domain"
	dErrors "cadastre/pkg/domain-errors"
)

// Service is the domain entity layer.
type Service struct {
	records   *temporalsvc.Service
	refs      *temporalsvc.Resolver
	schemas   *schemaresolver.Resolver
	directory store.Directory

	publisher audit.Publisher
	logger    *slog.Logger
	tracer    trace.Tracer
	clock     temporalsvc.Clock
}

// Option configures a Service.
type Option func(*Service)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithAuditPublisher sets the audit event publisher.
func WithAuditPublisher(publisher audit.Publisher) Option {
	return func(s *Service) { s.publisher = publisher }
}

// WithClock sets the clock function for testability.
func WithClock(clock temporalsvc.Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.clock = clock
		}
	}
}

// New constructs the entity service.
func New(records *temporalsvc.Service, refs *temporalsvc.Resolver, schemas *schemaresolver.Resolver, directory store.Directory, opts ...Option) (*Service, error) {
	if records == nil {
		return nil, fmt.Errorf("record service is required")
	}
	if refs == nil {
		return nil, fmt.Errorf("reference resolver is required")
	}
	if schemas == nil {
		return nil, fmt.Errorf("schema resolver is required")
	}
	if directory == nil {
		return nil, fmt.Errorf("directory store is required")
	}
	svc := &Service{
		records:   records,
		refs:      refs,
		schemas:   schemas,
		directory: directory,
		tracer:    otel.Tracer("cadastre/entity"),
		clock:     time.Now,
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc, nil
}

// Create records the first revision of an entity: resolves the effective
// schema at the entity's own coordinate, validates and normalizes the
// attribute document, verifies every reference target is in effect at the
// same valid time, then appends the revision.
func (s *Service) Create(ctx context.Context, desc models.Descriptor, valid temporalmodels.Interval) (domain.EntityID, domain.RevisionID, error) {
	ctx, span := s.tracer.Start(ctx, "entity.Create",
		trace.WithAttributes(attribute.String("object_type", desc.Type.String())))
	defer span.End()

	if desc.ID.IsNil() {
		desc.ID = domain.NewEntityID()
	}
	if _, err := s.prepare(ctx, &desc, valid.From); err != nil {
		return domain.EntityID{}, domain.RevisionID{}, err
	}

	rev, err := s.records.Insert(ctx, temporalsvc.InsertRequest{
		Entity:     desc.ID,
		Valid:      valid,
		Fields:     desc.Fields,
		Attributes: desc.Attributes,
		References: desc.References,
	})
	if err != nil {
		return domain.EntityID{}, domain.RevisionID{}, err
	}

	s.emit(ctx, "entity_created", desc, rev)
	return desc.ID, rev, nil
}

// Correct supersedes the revision in effect at asOfValid with corrected
// facts. The attribute document is re-validated against the schema resolved
// at the corrected coordinate.
func (s *Service) Correct(ctx context.Context, desc models.Descriptor, asOfValid time.Time, newValid temporalmodels.Interval) (domain.RevisionID, error) {
	ctx, span := s.tracer.Start(ctx, "entity.Correct",
		trace.WithAttributes(attribute.String("object_type", desc.Type.String())))
	defer span.End()

	if desc.ID.IsNil() {
		return domain.RevisionID{}, dErrors.New(dErrors.CodeBadRequest, "entity id is required")
	}
	at := newValid.From
	if at.IsZero() {
		at = asOfValid
	}
	if _, err := s.prepare(ctx, &desc, at); err != nil {
		return domain.RevisionID{}, err
	}

	rev, err := s.records.Correct(ctx, temporalsvc.CorrectRequest{
		Entity:     desc.ID,
		AsOfValid:  asOfValid,
		Fields:     desc.Fields,
		Attributes: desc.Attributes,
		References: desc.References,
		NewValid:   newValid,
		// A correction that does not touch references carries the
		// superseded revision's links forward.
		KeepReferences: desc.References == nil,
	})
	if err != nil {
		return domain.RevisionID{}, err
	}

	s.emit(ctx, "entity_corrected", desc, rev)
	return rev, nil
}

// Retire retires the entity at validTime and cascades through its referrer
// graph per each reference's policy.
func (s *Service) Retire(ctx context.Context, entity domain.EntityID, validTime time.Time) error {
	ctx, span := s.tracer.Start(ctx, "entity.Retire")
	defer span.End()

	if err := s.refs.CascadeRetire(ctx, entity, validTime); err != nil {
		return err
	}
	audit.LogAudit(ctx, s.logger, s.publisher, audit.Event{
		Action:     "entity_retired",
		EntityID:   entity.String(),
		OccurredAt: s.clock(),
	})
	return nil
}

// Get reconstructs the entity revision in effect at validTime as believed at
// recordedTime (zero means now).
func (s *Service) Get(ctx context.Context, entity domain.EntityID, validTime, recordedTime time.Time) (*temporalmodels.Revision, error) {
	return s.records.AsOf(ctx, entity, validTime, recordedTime)
}

// ResolveReference resolves a typed reference field of an entity at a valid
// time. A nil revision with nil error means the reference is dangling.
func (s *Service) ResolveReference(ctx context.Context, entity domain.EntityID, field string, validTime time.Time) (*temporalmodels.Revision, error) {
	return s.refs.Resolve(ctx, entity, field, validTime)
}

// prepare runs the shared write-path checks: scope integrity, subtype
// vocabulary, schema resolution, document validation and reference target
// liveness. It rewrites desc.Attributes with the normalized document.
func (s *Service) prepare(ctx context.Context, desc *models.Descriptor, validTime time.Time) (*models.Project, error) {
	if err := desc.Project.Validate(); err != nil {
		return nil, err
	}
	if err := registry.ValidateSubtype(desc.Type, desc.Subtype); err != nil {
		return nil, err
	}

	project, err := s.directory.Project(ctx, desc.Project.Project)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load project")
	}
	if project == nil {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "project %s not found", desc.Project.Project)
	}
	if project.Org != desc.Project.Org {
		return nil, dErrors.New(dErrors.CodeInvariantViolation,
			"project does not belong to the given organization")
	}

	schema, err := s.schemas.Resolve(ctx, &desc.Project.Org, &desc.Project.Project, desc.Type, desc.Subtype, validTime)
	if err != nil {
		return nil, err
	}
	doc := desc.Attributes
	if doc == nil {
		doc = map[string]any{}
	}
	normalized, err := validator.Validate(schema, doc)
	if err != nil {
		return nil, err
	}
	desc.Attributes = normalized

	if err := s.checkReferences(ctx, desc.References, validTime); err != nil {
		return nil, err
	}
	return project, nil
}

// checkReferences verifies every reference target has a revision in effect
// at validTime. Targets are independent, so the lookups run concurrently.
func (s *Service) checkReferences(ctx context.Context, refs []temporalmodels.Reference, validTime time.Time) error {
	if len(refs) == 0 {
		return nil
	}
	g, ctx := errgroup.WithContext(ctx)
	for _, ref := range refs {
		g.Go(func() error {
			if ref.Target.IsNil() {
				return dErrors.Newf(dErrors.CodeBadRequest, "reference %q has no target", ref.Field)
			}
			_, err := s.records.AsOf(ctx, ref.Target, validTime, time.Time{})
			if dErrors.HasCode(err, dErrors.CodeNotFound) {
				return dErrors.Newf(dErrors.CodeNotFound,
					"reference %q target %s is not in effect at the entity's valid time", ref.Field, ref.Target)
			}
			return err
		})
	}
	return g.Wait()
}

func (s *Service) emit(ctx context.Context, action string, desc models.Descriptor, rev domain.RevisionID) {
	audit.LogAudit(ctx, s.logger, s.publisher, audit.Event{
		Action:     action,
		ObjectType: desc.Type.String(),
		EntityID:   desc.ID.String(),
		RevisionID: rev.String(),
		ProjectID:  desc.Project.Project.String(),
		OccurredAt: s.clock(),
	})
}
