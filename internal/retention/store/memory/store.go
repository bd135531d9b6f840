package memory

import (
	"context"
	"sync"

	"northstar/internal/retention"
	id "northstar/pkg/domain"
	"northstar/pkg/platform/sentinel"
)

type policyKey struct {
	tenant     id.TenantID
	entityType id.EntityType
}

type InMemoryStore struct {
	mu       sync.RWMutex
	policies map[policyKey]retention.Policy
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{policies: make(map[policyKey]retention.Policy)}
}

func (s *InMemoryStore) Upsert(_ context.Context, policy *retention.Policy) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policies[policyKey{policy.TenantID, policy.EntityType}] = *policy
	return nil
}

func (s *InMemoryStore) Find(_ context.Context, tenantID id.TenantID, entityType id.EntityType) (*retention.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	policy, ok := s.policies[policyKey{tenantID, entityType}]
	if !ok {
		return nil, sentinel.ErrNotFound
	}
	return &policy, nil
}

func (s *InMemoryStore) ListByTenant(_ context.Context, tenantID id.TenantID) ([]retention.Policy, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []retention.Policy
	for key, policy := range s.policies {
		if key.tenant == tenantID {
			out = append(out, policy)
		}
	}
	return out, nil
}

// Snapshot captures the current state for tx.MemoryRunner rollback.
func (s *InMemoryStore) Snapshot() any {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := make(map[policyKey]retention.Policy, len(s.policies))
	for key, policy := range s.policies {
		snap[key] = policy
	}
	return snap
}

// Restore rolls the store back to a snapshot taken by Snapshot.
func (s *InMemoryStore) Restore(snapshot any) {
	policies, ok := snapshot.(map[policyKey]retention.Policy)
	if !ok {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.policies = policies
}
