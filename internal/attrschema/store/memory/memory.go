// Package memory provides the in-memory definition index.
package memory

import (
	"context"
	"sync"

	"cadastre/internal/attrschema/models"
	domain "cadastre/pkg/domain"
)

// Store maps scope keys to registered definition entities, preserving
// registration order.
type Store struct {
	mu      sync.RWMutex
	entries map[string][]domain.EntityID
	seen    map[string]map[domain.EntityID]bool
}

// New creates an empty definition index.
func New() *Store {
	return &Store{
		entries: make(map[string][]domain.EntityID),
		seen:    make(map[string]map[domain.EntityID]bool),
	}
}

func key(scope models.Scope, objectType domain.ObjectType, subtype string) string {
	return scope.Key() + "|" + objectType.String() + "|" + subtype
}

func (s *Store) Register(ctx context.Context, scope models.Scope, objectType domain.ObjectType, subtype string, entity domain.EntityID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := key(scope, objectType, subtype)
	if s.seen[k] == nil {
		s.seen[k] = make(map[domain.EntityID]bool)
	}
	if s.seen[k][entity] {
		return nil
	}
	s.seen[k][entity] = true
	s.entries[k] = append(s.entries[k], entity)
	return nil
}

func (s *Store) List(ctx context.Context, scope models.Scope, objectType domain.ObjectType, subtype string) ([]domain.EntityID, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.EntityID(nil), s.entries[key(scope, objectType, subtype)]...), nil
}
