package roster

import (
	"context"

	id "northstar/pkg/domain"
)

// Store is the persistence boundary for roster entities.
type Store interface {
	// Create inserts a new entity. Returns sentinel.ErrConflict when the
	// (tenant, type, id) triple already exists.
	Create(ctx context.Context, entity *Entity) error

	// Get returns one entity, or sentinel.ErrNotFound.
	Get(ctx context.Context, tenantID id.TenantID, entityType id.EntityType, entityID string) (*Entity, error)

	// Update overwrites an existing entity. Returns sentinel.ErrNotFound
	// when the entity is absent.
	Update(ctx context.Context, entity *Entity) error

	// Delete removes the entity. Returns sentinel.ErrNotFound when absent.
	Delete(ctx context.Context, tenantID id.TenantID, entityType id.EntityType, entityID string) error

	// ListExited pages through exited entities of one type in ascending id
	// order, starting after afterID ("" for the first page).
	ListExited(ctx context.Context, tenantID id.TenantID, entityType id.EntityType, afterID string, limit int) ([]Entity, error)
}
