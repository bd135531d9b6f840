// Package memory provides the in-memory roster store used by unit tests and
// local runs.
package memory

import (
	"context"
	"sort"
	"sync"

	"northstar/internal/roster"
	id "northstar/pkg/domain"
	"northstar/pkg/platform/sentinel"
)

type entityKey struct {
	tenantID   id.TenantID
	entityType id.EntityType
	entityID   string
}

type InMemoryStore struct {
	mu       sync.RWMutex
	entities map[entityKey]roster.Entity
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{entities: make(map[entityKey]roster.Entity)}
}

// Clear drops all entities. Test helper.
func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entities = make(map[entityKey]roster.Entity)
}

func (s *InMemoryStore) Create(_ context.Context, entity *roster.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := entityKey{entity.TenantID, entity.Type, entity.ID}
	if _, exists := s.entities[key]; exists {
		return sentinel.ErrConflict
	}
	s.entities[key] = *entity
	return nil
}

func (s *InMemoryStore) Get(_ context.Context, tenantID id.TenantID, entityType id.EntityType, entityID string) (*roster.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	entity, exists := s.entities[entityKey{tenantID, entityType, entityID}]
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	return &entity, nil
}

func (s *InMemoryStore) Update(_ context.Context, entity *roster.Entity) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := entityKey{entity.TenantID, entity.Type, entity.ID}
	if _, exists := s.entities[key]; !exists {
		return sentinel.ErrNotFound
	}
	s.entities[key] = *entity
	return nil
}

func (s *InMemoryStore) Delete(_ context.Context, tenantID id.TenantID, entityType id.EntityType, entityID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := entityKey{tenantID, entityType, entityID}
	if _, exists := s.entities[key]; !exists {
		return sentinel.ErrNotFound
	}
	delete(s.entities, key)
	return nil
}

func (s *InMemoryStore) ListExited(_ context.Context, tenantID id.TenantID, entityType id.EntityType, afterID string, limit int) ([]roster.Entity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var matched []roster.Entity
	for key, entity := range s.entities {
		if key.tenantID != tenantID || key.entityType != entityType {
			continue
		}
		if entity.Active() || entity.ID <= afterID {
			continue
		}
		matched = append(matched, entity)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID < matched[j].ID })
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// Snapshot captures the current state for tx.MemoryRunner rollback.
func (s *InMemoryStore) Snapshot() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := make(map[entityKey]roster.Entity, len(s.entities))
	for key, entity := range s.entities {
		snap[key] = entity
	}
	return snap
}

// Restore rolls the store back to a snapshot taken by Snapshot.
func (s *InMemoryStore) Restore(snapshot any) {
	entities, ok := snapshot.(map[entityKey]roster.Entity)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entities = entities
}
