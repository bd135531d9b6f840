package memory

import (
	"context"
	"sync"

	"northstar/internal/legalhold"
	id "northstar/pkg/domain"
	"northstar/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu    sync.RWMutex
	holds map[id.HoldID]legalhold.Hold
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{holds: make(map[id.HoldID]legalhold.Hold)}
}

func (s *InMemoryStore) Create(_ context.Context, hold *legalhold.Hold) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.holds {
		if existing.IsActive() &&
			existing.TenantID == hold.TenantID &&
			existing.EntityType == hold.EntityType &&
			existing.EntityID == hold.EntityID &&
			existing.CaseNumber == hold.CaseNumber {
			return sentinel.ErrConflict
		}
	}
	s.holds[hold.ID] = *hold
	return nil
}

func (s *InMemoryStore) Find(_ context.Context, holdID id.HoldID) (*legalhold.Hold, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	hold, ok := s.holds[holdID]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &hold, nil
}

func (s *InMemoryStore) Release(_ context.Context, hold *legalhold.Hold) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.holds[hold.ID]
	if !ok {
		return sentinel.ErrNotFound
	}
	if !existing.IsActive() {
		return sentinel.ErrInvalidState
	}
	s.holds[hold.ID] = *hold
	return nil
}

func (s *InMemoryStore) HasActive(_ context.Context, tenantID id.TenantID, entityType id.EntityType, entityID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, hold := range s.holds {
		if hold.IsActive() &&
			hold.TenantID == tenantID &&
			hold.EntityType == entityType &&
			hold.EntityID == entityID {
			return true, nil
		}
	}
	return false, nil
}

// Snapshot captures the current state for tx.MemoryRunner rollback.
func (s *InMemoryStore) Snapshot() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := make(map[id.HoldID]legalhold.Hold, len(s.holds))
	for key, hold := range s.holds {
		snap[key] = hold
	}
	return snap
}

// Restore rolls the store back to a snapshot taken by Snapshot.
func (s *InMemoryStore) Restore(snapshot any) {
	holds, ok := snapshot.(map[id.HoldID]legalhold.Hold)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.holds = holds
}

func (s *InMemoryStore) ListActive(_ context.Context, tenantID id.TenantID) ([]legalhold.Hold, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []legalhold.Hold
	for _, hold := range s.holds {
		if hold.IsActive() && hold.TenantID == tenantID {
			out = append(out, hold)
		}
	}
	return out, nil
}
