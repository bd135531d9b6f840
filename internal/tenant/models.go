// Package tenant manages district tenancy. Lifecycle transitions are audited
// on the platform chain because they are platform-operator actions, not
// actions inside any one tenant's trail.
package tenant

import (
	"time"

	id "northstar/pkg/domain"
	dErrors "northstar/pkg/domain-errors"
)

// Status is the tenant lifecycle state. Transitions: active <-> suspended.
type Status string

const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
)

// Tenant is one district organization.
//
// Invariants:
//   - Name is non-empty, unique platform-wide, at most 128 characters
//   - Status is active or suspended, nothing else
//   - CreatedAt is immutable after construction
//
// Suspension is enforced at the service boundary: a suspended tenant's data
// stays intact and auditable, but roster and compliance mutations are
// refused until reactivation.
type Tenant struct {
	ID        id.TenantID `json:"id"`
	Name      string      `json:"name"`
	Status    Status      `json:"status"`
	CreatedAt time.Time   `json:"created_at"`
	UpdatedAt time.Time   `json:"updated_at"`
}

func (t *Tenant) IsActive() bool {
	return t.Status == StatusActive
}

// Suspend transitions the tenant to suspended.
func (t *Tenant) Suspend(now time.Time) error {
	if t.Status == StatusSuspended {
		return dErrors.New(dErrors.CodeInvariantViolation, "tenant is already suspended")
	}
	t.Status = StatusSuspended
	t.UpdatedAt = now
	return nil
}

// Reactivate transitions the tenant back to active.
func (t *Tenant) Reactivate(now time.Time) error {
	if t.Status == StatusActive {
		return dErrors.New(dErrors.CodeInvariantViolation, "tenant is already active")
	}
	t.Status = StatusActive
	t.UpdatedAt = now
	return nil
}

func NewTenant(tenantID id.TenantID, name string, now time.Time) (*Tenant, error) {
	if name == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "tenant name cannot be empty")
	}
	if len(name) > 128 {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "tenant name must be 128 characters or less")
	}
	return &Tenant{
		ID:        tenantID,
		Name:      name,
		Status:    StatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}
