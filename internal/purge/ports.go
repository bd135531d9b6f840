// Package purge orchestrates irreversible data removal: it reconciles
// retention expiry against active legal holds to build the eligible set, then
// deletes entities in bounded batches with each delete coupled atomically to
// its audit record.
package purge

import (
	"context"
	"time"

	"northstar/internal/audit"
	id "northstar/pkg/domain"
)

//go:generate mockgen -source=ports.go -destination=mocks/ports_mocks.go -package=mocks

// Candidate is one entity the repository offers for eligibility evaluation.
type Candidate struct {
	EntityID       string
	RetentionStart time.Time
}

// EntityRepository is the external data-access collaborator. The coordinator
// never touches domain tables directly.
type EntityRepository interface {
	// ListCandidates pages through entities of one type for a tenant in
	// ascending entity-id order, starting after afterID ("" for the first
	// page). Entities already purged do not reappear.
	ListCandidates(ctx context.Context, tenantID id.TenantID, entityType id.EntityType, afterID string, limit int) ([]Candidate, error)

	// Delete removes or anonymizes the entity. Returns sentinel.ErrNotFound
	// when the entity is already absent.
	Delete(ctx context.Context, tenantID id.TenantID, entityType id.EntityType, entityID string) error
}

// RetentionChecker is the slice of the retention engine the coordinator uses.
type RetentionChecker interface {
	IsExpired(ctx context.Context, tenantID id.TenantID, entityType id.EntityType, retentionStart time.Time) (bool, error)
}

// HoldChecker is the slice of the legal hold registry the coordinator uses.
type HoldChecker interface {
	HasActiveHold(ctx context.Context, tenantID id.TenantID, entityType id.EntityType, entityID string) (bool, error)
}

// Auditor is the audit chain append surface for purge outcomes.
type Auditor interface {
	Append(ctx context.Context, chain audit.Chain, draft audit.Draft) (*audit.Record, error)
}
