package legalhold

import (
	"context"

	id "northstar/pkg/domain"
)

// Store persists legal holds, indexed on (tenant, entity type, entity id)
// with an active-hold predicate.
type Store interface {
	// Create inserts a new hold. Returns sentinel.ErrConflict when an active
	// hold already exists for the same (entityType, entityId, caseNumber).
	Create(ctx context.Context, hold *Hold) error

	// Find returns a hold by id, or sentinel.ErrNotFound.
	Find(ctx context.Context, holdID id.HoldID) (*Hold, error)

	// Release stamps the release fields. Returns sentinel.ErrNotFound for an
	// unknown id and sentinel.ErrInvalidState when already released.
	Release(ctx context.Context, hold *Hold) error

	// HasActive reports whether any active hold exists for the entity.
	HasActive(ctx context.Context, tenantID id.TenantID, entityType id.EntityType, entityID string) (bool, error)

	// ListActive returns all active holds for a tenant.
	ListActive(ctx context.Context, tenantID id.TenantID) ([]Hold, error)
}
