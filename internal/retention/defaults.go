package retention

import (
	"context"

	id "northstar/pkg/domain"
)

// defaultPolicies are the periods a new tenant starts with. Districts tune
// them afterwards through SetPolicy. No default covers audit records or
// legal holds; those never expire unless a tenant opts in explicitly.
var defaultPolicies = map[id.EntityType]struct {
	retentionDays int
	graceDays     int
}{
	id.EntityStudent:    {retentionDays: 2555, graceDays: 30},
	id.EntityStaff:      {retentionDays: 2555, graceDays: 30},
	id.EntityEnrollment: {retentionDays: 1825, graceDays: 30},
	id.EntitySchool:     {retentionDays: 3650, graceDays: 30},
}

// SeedDefaults installs the default policy set for a new tenant. Each policy
// write is audited on the tenant's chain like any other SetPolicy call.
func (e *Engine) SeedDefaults(ctx context.Context, tenantID id.TenantID) error {
	for _, entityType := range []id.EntityType{id.EntityStudent, id.EntityStaff, id.EntityEnrollment, id.EntitySchool} {
		periods := defaultPolicies[entityType]
		if _, err := e.SetPolicy(ctx, tenantID, entityType, periods.retentionDays, periods.graceDays); err != nil {
			return err
		}
	}
	return nil
}
