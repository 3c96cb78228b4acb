// Package store defines the persistence port for attribute-field-definition
// lookup. Definitions live in the bitemporal revision store like any other
// entity; this index only maps (scope, object type, subtype) to the
// definition entity identities so the resolver can find its candidates.
package store

import (
	"context"

	"cadastre/internal/attrschema/models"
	domain "cadastre/pkg/domain"
)

// DefinitionStore indexes attribute definition entities by their owning key.
type DefinitionStore interface {
	// Register binds a definition entity to its scope key. Idempotent.
	Register(ctx context.Context, scope models.Scope, objectType domain.ObjectType, subtype string, entity domain.EntityID) error

	// List returns the definition entities registered under the exact key,
	// in registration order (the tie-break order for equal indexes).
	List(ctx context.Context, scope models.Scope, objectType domain.ObjectType, subtype string) ([]domain.EntityID, error)
}
