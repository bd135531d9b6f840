package tenant

import (
	"context"

	id "northstar/pkg/domain"
)

// Store is the persistence boundary for tenants.
type Store interface {
	// Create inserts a new tenant. Returns sentinel.ErrConflict when the
	// name is already taken (case-insensitive).
	Create(ctx context.Context, t *Tenant) error

	// FindByID returns one tenant, or sentinel.ErrNotFound.
	FindByID(ctx context.Context, tenantID id.TenantID) (*Tenant, error)

	// FindByName returns one tenant by case-insensitive name, or
	// sentinel.ErrNotFound.
	FindByName(ctx context.Context, name string) (*Tenant, error)

	// Update overwrites an existing tenant. Returns sentinel.ErrNotFound
	// when absent.
	Update(ctx context.Context, t *Tenant) error

	// List returns all tenants ordered by name.
	List(ctx context.Context) ([]Tenant, error)
}
