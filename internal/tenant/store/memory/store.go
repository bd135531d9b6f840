// Package memory provides the in-memory tenant store used by unit tests and
// local runs.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"northstar/internal/tenant"
	id "northstar/pkg/domain"
	"northstar/pkg/platform/sentinel"
)

type InMemoryStore struct {
	mu      sync.RWMutex
	tenants map[id.TenantID]tenant.Tenant
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{tenants: make(map[id.TenantID]tenant.Tenant)}
}

// Clear drops all tenants. Test helper.
func (s *InMemoryStore) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tenants = make(map[id.TenantID]tenant.Tenant)
}

func (s *InMemoryStore) Create(_ context.Context, t *tenant.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.tenants {
		if strings.EqualFold(existing.Name, t.Name) {
			return sentinel.ErrConflict
		}
	}
	s.tenants[t.ID] = *t
	return nil
}

func (s *InMemoryStore) FindByID(_ context.Context, tenantID id.TenantID) (*tenant.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	t, exists := s.tenants[tenantID]
	if !exists {
		return nil, sentinel.ErrNotFound
	}
	return &t, nil
}

func (s *InMemoryStore) FindByName(_ context.Context, name string) (*tenant.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, t := range s.tenants {
		if strings.EqualFold(t.Name, name) {
			found := t
			return &found, nil
		}
	}
	return nil, sentinel.ErrNotFound
}

func (s *InMemoryStore) Update(_ context.Context, t *tenant.Tenant) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.tenants[t.ID]; !exists {
		return sentinel.ErrNotFound
	}
	s.tenants[t.ID] = *t
	return nil
}

func (s *InMemoryStore) List(_ context.Context) ([]tenant.Tenant, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]tenant.Tenant, 0, len(s.tenants))
	for _, t := range s.tenants {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

// Snapshot captures the current state for tx.MemoryRunner rollback.
func (s *InMemoryStore) Snapshot() any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := make(map[id.TenantID]tenant.Tenant, len(s.tenants))
	for key, t := range s.tenants {
		snap[key] = t
	}
	return snap
}

// Restore rolls the store back to a snapshot taken by Snapshot.
func (s *InMemoryStore) Restore(snapshot any) {
	tenants, ok := snapshot.(map[id.TenantID]tenant.Tenant)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tenants = tenants
}
