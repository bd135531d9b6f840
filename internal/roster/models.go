// Package roster holds the tenant-scoped roster entities the compliance
// machinery acts on: students, staff, enrollments, and schools. Entities are
// identified by their SIS identifier within a (tenant, type) pair.
package roster

import (
	"encoding/json"
	"time"

	id "northstar/pkg/domain"
	dErrors "northstar/pkg/domain-errors"
)

// Entity is one roster row. Attributes carries the SIS payload opaquely; the
// compliance service never interprets it.
type Entity struct {
	ID          string
	TenantID    id.TenantID
	Type        id.EntityType
	DisplayName string
	Attributes  json.RawMessage
	CreatedAt   time.Time
	UpdatedAt   time.Time

	// ExitedAt is the withdrawal or separation date. The retention clock
	// starts here; entities still active are never purge candidates.
	ExitedAt *time.Time
}

// Active reports whether the entity is still on the roster.
func (e *Entity) Active() bool {
	return e.ExitedAt == nil
}

// RetentionStart returns the instant the retention period begins counting
// from. Zero for active entities.
func (e *Entity) RetentionStart() time.Time {
	if e.ExitedAt == nil {
		return time.Time{}
	}
	return *e.ExitedAt
}

func (e *Entity) validate() error {
	switch {
	case e.ID == "":
		return dErrors.New(dErrors.CodeInvalidInput, "entity id is required")
	case e.TenantID.IsNil():
		return dErrors.New(dErrors.CodeInvalidInput, "tenant id is required")
	case !e.Type.Purgeable():
		return dErrors.New(dErrors.CodeInvalidInput, "entity type is not a roster type")
	case e.DisplayName == "":
		return dErrors.New(dErrors.CodeInvalidInput, "display name is required")
	}
	return nil
}
