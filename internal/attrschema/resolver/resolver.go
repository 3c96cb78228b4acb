// Package resolver computes effective attribute schemas: the ordered field
// list permitted for one owning scope chain, object subtype and valid-time
// instant. It also owns the definition write path so cache invalidation
// stays coherent with definition changes.
package resolver

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"time"

	"cadastre/internal/attrschema/models"
	"cadastre/internal/attrschema/store"
	"cadastre/internal/registry"
	temporal "cadastre/internal/temporal/models"
	temporalsvc "cadastre/internal/temporal/service"
	domain "cadastre/pkg/domain"
	dErrors "cadastre/pkg/domain-errors"
)

// Resolver resolves attribute schemas against the bitemporal definition
// history: every candidate definition is read through the record store at
// the requested valid time, so the answer reflects what the attribute set
// was, not just what it is.
type Resolver struct {
	records *temporalsvc.Service
	defs    store.DefinitionStore
	cache   Cache
	logger  *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithCache enables schema caching.
func WithCache(cache Cache) Option {
	return func(r *Resolver) {
		r.cache = cache
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(r *Resolver) {
		r.logger = logger
	}
}

// New constructs a schema resolver.
func New(records *temporalsvc.Service, defs store.DefinitionStore, opts ...Option) (*Resolver, error) {
	if records == nil {
		return nil, fmt.Errorf("record service is required")
	}
	if defs == nil {
		return nil, fmt.Errorf("definition store is required")
	}
	r := &Resolver{records: records, defs: defs}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Resolve computes the effective schema for the scope chain ending at
// (org, project), an object type/subtype and a valid-time instant. An empty
// chain yields an empty schema, which is valid: no attributes permitted.
func (r *Resolver) Resolve(ctx context.Context, org *domain.OrgID, project *domain.ProjectID, objectType domain.ObjectType, subtype string, validTime time.Time) (*models.EffectiveSchema, error) {
	target := models.Scope{Org: org, Project: project}
	if err := target.Validate(); err != nil {
		return nil, err
	}
	if err := registry.ValidateSubtype(objectType, subtype); err != nil {
		return nil, err
	}

	key := cacheKey(target, objectType, subtype, validTime)
	if r.cache != nil {
		if schema, ok := r.cache.Get(ctx, key); ok {
			return schema, nil
		}
	}

	// Scope chain from most general to most specific. Within each scope,
	// subtype-generic definitions layer under subtype-specific ones, so a
	// subtype-specific definition wins over its sibling regardless of index.
	effective := make(map[string]models.SchemaField)
	for _, scope := range chain(target) {
		layers := []string{""}
		if subtype != "" {
			layers = append(layers, subtype)
		}
		for _, layer := range layers {
			if err := r.applyLayer(ctx, effective, scope, objectType, layer, validTime); err != nil {
				return nil, err
			}
		}
	}

	fields := make([]models.SchemaField, 0, len(effective))
	for _, f := range effective {
		fields = append(fields, f)
	}
	sort.Slice(fields, func(i, j int) bool {
		if fields[i].Index != fields[j].Index {
			return fields[i].Index < fields[j].Index
		}
		return fields[i].Name < fields[j].Name
	})

	schema := models.NewEffectiveSchema(fields)
	if r.cache != nil {
		r.cache.Set(ctx, key, schema)
	}
	return schema, nil
}

// applyLayer folds one (scope, subtype) layer's definitions into the
// effective mapping. A later definition with the same field name replaces
// the earlier one; presence D removes the name entirely.
func (r *Resolver) applyLayer(ctx context.Context, effective map[string]models.SchemaField, scope models.Scope, objectType domain.ObjectType, subtype string, validTime time.Time) error {
	entities, err := r.defs.List(ctx, scope, objectType, subtype)
	if err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "list definition entities")
	}
	for _, entity := range entities {
		rev, err := r.records.AsOf(ctx, entity, validTime, time.Time{})
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			// Definition did not exist, or was retired, at this valid time.
			continue
		}
		if err != nil {
			return err
		}
		def, err := models.DecodeDefinition(rev.Fields)
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "decode definition revision")
		}
		if def.Presence == models.PresenceDelete {
			delete(effective, def.Name)
			continue
		}
		effective[def.Name] = models.SchemaField{
			Name:     def.Name,
			LongName: def.LongName,
			BaseType: def.BaseType,
			FullType: def.FullType,
			Presence: def.Presence,
			Index:    def.Index,
		}
	}
	return nil
}

// chain expands a target scope into its defaulting chain, most general first.
func chain(target models.Scope) []models.Scope {
	scopes := []models.Scope{models.SystemScope()}
	if target.Org != nil {
		scopes = append(scopes, models.OrgScope(*target.Org))
	}
	if target.Org != nil && target.Project != nil {
		scopes = append(scopes, models.ProjectScope(*target.Org, *target.Project))
	}
	return scopes
}

func cacheKey(scope models.Scope, objectType domain.ObjectType, subtype string, validTime time.Time) string {
	return fmt.Sprintf("%s|%s|%s|%d", scope.Key(), objectType, subtype, validTime.UnixNano())
}

// Define inserts a new attribute field definition valid from the given
// interval and registers it in the definition index. The schema cache is
// purged: the new definition may change answers for any valid time it
// covers.
func (r *Resolver) Define(ctx context.Context, def models.FieldDefinition, valid temporal.Interval) (domain.EntityID, error) {
	if err := def.Validate(); err != nil {
		return domain.EntityID{}, err
	}

	entity := domain.NewEntityID()
	_, err := r.records.Insert(ctx, temporalsvc.InsertRequest{
		Entity: entity,
		Valid:  valid,
		Fields: def.EncodeFields(),
	})
	if err != nil {
		return domain.EntityID{}, err
	}
	if err := r.defs.Register(ctx, def.Scope, def.ObjectType, def.Subtype, entity); err != nil {
		return domain.EntityID{}, dErrors.Wrap(err, dErrors.CodeInternal, "register definition")
	}
	r.purge(ctx)
	if r.logger != nil {
		r.logger.InfoContext(ctx, "attribute definition created",
			"entity", entity.String(),
			"scope", def.Scope.Key(),
			"object_type", def.ObjectType.String(),
			"field", def.Name)
	}
	return entity, nil
}

// CorrectDefinition supersedes the definition revision in effect at
// asOfValid. Historical resolutions already cached may change, so the cache
// is purged.
func (r *Resolver) CorrectDefinition(ctx context.Context, entity domain.EntityID, def models.FieldDefinition, asOfValid time.Time) (domain.RevisionID, error) {
	if err := def.Validate(); err != nil {
		return domain.RevisionID{}, err
	}
	rev, err := r.records.Correct(ctx, temporalsvc.CorrectRequest{
		Entity:    entity,
		AsOfValid: asOfValid,
		Fields:    def.EncodeFields(),
	})
	if err != nil {
		return domain.RevisionID{}, err
	}
	r.purge(ctx)
	return rev, nil
}

// RetireDefinition closes a definition's valid interval at the given time.
func (r *Resolver) RetireDefinition(ctx context.Context, entity domain.EntityID, validTime time.Time) (domain.RevisionID, error) {
	rev, err := r.records.Retire(ctx, entity, validTime)
	if err != nil {
		return domain.RevisionID{}, err
	}
	r.purge(ctx)
	return rev, nil
}

func (r *Resolver) purge(ctx context.Context) {
	if r.cache != nil {
		r.cache.Purge(ctx)
	}
}
