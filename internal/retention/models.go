// Package retention evaluates per-tenant, per-entity-type retention policies.
// The engine decides when data becomes purge-eligible; it never touches
// domain data itself.
package retention

import (
	"time"

	id "northstar/pkg/domain"
	dErrors "northstar/pkg/domain-errors"
)

// Policy is the single active retention rule for one (tenant, entity type)
// pair. Periods are whole days; education records are retained for years and
// purge eligibility is decided at day granularity.
type Policy struct {
	TenantID      id.TenantID
	EntityType    id.EntityType
	RetentionDays int
	GraceDays     int
	EffectiveAt   time.Time
	UpdatedAt     time.Time
	UpdatedBy     string
}

func (p *Policy) validate() error {
	if p.TenantID.IsNil() {
		return dErrors.New(dErrors.CodeInvalidInput, "tenant id is required")
	}
	if p.EntityType == "" {
		return dErrors.New(dErrors.CodeInvalidInput, "entity type is required")
	}
	if p.RetentionDays <= 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "retention period must be positive")
	}
	if p.GraceDays <= 0 {
		return dErrors.New(dErrors.CodeInvalidInput, "grace period must be positive")
	}
	return nil
}

// Expired reports whether an entity whose retention clock started at
// retentionStart is past retention plus grace at the given instant. The
// boundary is inclusive: at exactly start + retention + grace the entity is
// eligible.
func (p *Policy) Expired(retentionStart, now time.Time) bool {
	deadline := retentionStart.AddDate(0, 0, p.RetentionDays+p.GraceDays)
	return !now.Before(deadline)
}
