package retention

import (
	"context"

	id "northstar/pkg/domain"
)

// Store persists retention policies. At most one active policy exists per
// (tenant, entity type); Upsert replaces any previous one.
type Store interface {
	Upsert(ctx context.Context, policy *Policy) error

	// Find returns the active policy, or sentinel.ErrNotFound.
	Find(ctx context.Context, tenantID id.TenantID, entityType id.EntityType) (*Policy, error)

	// ListByTenant returns every active policy for a tenant.
	ListByTenant(ctx context.Context, tenantID id.TenantID) ([]Policy, error)
}
