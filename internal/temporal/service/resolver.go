package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"cadastre/internal/temporal/models"
	"cadastre/internal/temporal/store"
	domain "cadastre/pkg/domain"
	dErrors "cadastre/pkg/domain-errors"
)

// Resolver resolves typed references between entities at a temporal
// coordinate and implements cascading invalidation when an entity is
// retired. Relationship graphs may contain cycles (mutual party
// relationships), so every traversal tracks a visited set.
type Resolver struct {
	records *Service
	store   store.RevisionStore
	logger  *slog.Logger
}

// NewResolver constructs a reference resolver over the record service and
// its backing store.
func NewResolver(records *Service, st store.RevisionStore, logger *slog.Logger) (*Resolver, error) {
	if records == nil {
		return nil, fmt.Errorf("record service is required")
	}
	if st == nil {
		return nil, fmt.Errorf("revision store is required")
	}
	return &Resolver{records: records, store: st, logger: logger}, nil
}

// Resolve looks up the reference stored under field on the referencing
// entity's current as-of revision, then resolves the target at the same
// valid time. A dangling target (no revision in effect) is reported as
// (nil, nil): callers decide whether that is fatal.
func (r *Resolver) Resolve(ctx context.Context, referencing domain.EntityID, field string, validTime time.Time) (*models.Revision, error) {
	source, err := r.records.AsOf(ctx, referencing, validTime, time.Time{})
	if err != nil {
		return nil, err
	}
	ref, ok := source.Reference(field)
	if !ok {
		return nil, dErrors.Newf(dErrors.CodeNotFound, "entity %s has no reference field %q", referencing, field)
	}
	if ref.Target.IsNil() {
		return nil, nil
	}
	target, err := r.records.AsOf(ctx, ref.Target, validTime, time.Time{})
	if dErrors.HasCode(err, dErrors.CodeNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return target, nil
}

// CascadeRetire retires entity at validTime and walks its referrer graph
// breadth-first, applying each reference's cascade policy. The traversal
// holds no cross-identity lock: discovery runs lock-free, then each affected
// entity is retired under its own lock with a liveness re-check (a referrer
// retired concurrently is skipped). A live restrict-policy referrer aborts
// the whole retirement before any mutation.
func (r *Resolver) CascadeRetire(ctx context.Context, entity domain.EntityID, validTime time.Time) error {
	// The root must be live; the not-found tolerance below is only for
	// referrers retired between discovery and mutation.
	if _, err := r.records.AsOf(ctx, entity, validTime, time.Time{}); err != nil {
		return err
	}

	retire, nullify, err := r.plan(ctx, entity, validTime)
	if err != nil {
		return err
	}

	for _, e := range retire {
		_, err := r.records.Retire(ctx, e, validTime)
		if dErrors.HasCode(err, dErrors.CodeNotFound) {
			// Already retired between discovery and mutation.
			continue
		}
		if err != nil {
			return err
		}
	}
	for _, e := range nullify {
		if err := r.clearReferences(ctx, e, retire, validTime); err != nil {
			return err
		}
	}

	r.records.metrics.ObserveCascade(len(retire))
	if r.logger != nil {
		r.logger.InfoContext(ctx, "cascade retire complete",
			"entity", entity.String(),
			"retired", len(retire),
			"cleared", len(nullify))
	}
	return nil
}

// plan discovers the transitive retire set and the referrers whose links
// must be cleared. It mutates nothing.
func (r *Resolver) plan(ctx context.Context, root domain.EntityID, validTime time.Time) (retire, nullify []domain.EntityID, err error) {
	visited := map[domain.EntityID]bool{root: true}
	clearSet := map[domain.EntityID]bool{}
	queue := []domain.EntityID{root}
	retire = append(retire, root)

	for len(queue) > 0 {
		current := queue[0]
		queue = queue[1:]

		referrers, err := r.store.Referrers(ctx, current, validTime)
		if err != nil {
			return nil, nil, dErrors.Wrap(err, dErrors.CodeInternal, "discover referrers")
		}
		for _, rev := range referrers {
			if visited[rev.Entity] {
				continue
			}
			policy := policyToward(rev, current)
			switch policy {
			case models.PolicyRestrict:
				return nil, nil, dErrors.Newf(dErrors.CodeIntegrityViolation,
					"entity %s is referenced by live entity %s with restrict policy", current, rev.Entity)
			case models.PolicyCascade:
				visited[rev.Entity] = true
				retire = append(retire, rev.Entity)
				queue = append(queue, rev.Entity)
			case models.PolicySetNull:
				clearSet[rev.Entity] = true
			}
		}
	}

	for e := range clearSet {
		if !visited[e] {
			nullify = append(nullify, e)
		}
	}
	return retire, nullify, nil
}

// clearReferences corrects entity so that references to retired targets are
// dropped, keeping all other fields intact.
func (r *Resolver) clearReferences(ctx context.Context, entity domain.EntityID, retired []domain.EntityID, validTime time.Time) error {
	gone := make(map[domain.EntityID]bool, len(retired))
	for _, e := range retired {
		gone[e] = true
	}

	current, err := r.records.AsOf(ctx, entity, validTime, time.Time{})
	if dErrors.HasCode(err, dErrors.CodeNotFound) {
		return nil
	}
	if err != nil {
		return err
	}

	kept := make([]models.Reference, 0, len(current.References))
	for _, ref := range current.References {
		if !gone[ref.Target] {
			kept = append(kept, ref)
		}
	}
	if len(kept) == len(current.References) {
		return nil
	}

	_, err = r.records.Correct(ctx, CorrectRequest{
		Entity:     entity,
		AsOfValid:  validTime,
		Fields:     current.Fields,
		Attributes: current.Attributes,
		References: kept,
	})
	if dErrors.HasCode(err, dErrors.CodeNotFound) {
		return nil
	}
	return err
}

// policyToward returns the strictest policy rev declares toward target.
// Restrict dominates cascade, cascade dominates set_null.
func policyToward(rev *models.Revision, target domain.EntityID) models.CascadePolicy {
	var policy models.CascadePolicy
	for _, ref := range rev.References {
		if ref.Target != target {
			continue
		}
		switch ref.Policy {
		case models.PolicyRestrict:
			return models.PolicyRestrict
		case models.PolicyCascade:
			policy = models.PolicyCascade
		case models.PolicySetNull:
			if policy == "" {
				policy = models.PolicySetNull
			}
		}
	}
	return policy
}
