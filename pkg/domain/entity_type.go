package domain

import dErrors "northstar/pkg/domain-errors"

// EntityType names a roster entity kind subject to auditing, retention, and
// purge. The audit record type is special: it is never purge-eligible unless a
// policy names it explicitly.
type EntityType string

const (
	EntityStudent     EntityType = "student"
	EntityStaff       EntityType = "staff"
	EntityEnrollment  EntityType = "enrollment"
	EntitySchool      EntityType = "school"
	EntityTenant      EntityType = "tenant"
	EntityAuditRecord EntityType = "audit_record"
	EntityPolicy      EntityType = "retention_policy"
	EntityLegalHold   EntityType = "legal_hold"
)

var knownEntityTypes = map[EntityType]struct{}{
	EntityStudent:     {},
	EntityStaff:       {},
	EntityEnrollment:  {},
	EntitySchool:      {},
	EntityTenant:      {},
	EntityAuditRecord: {},
	EntityPolicy:      {},
	EntityLegalHold:   {},
}

// ParseEntityType validates an entity type string.
func ParseEntityType(s string) (EntityType, error) {
	et := EntityType(s)
	if _, ok := knownEntityTypes[et]; !ok {
		return "", dErrors.New(dErrors.CodeInvalidInput, "unknown entity type: "+s)
	}
	return et, nil
}

// Purgeable reports whether the entity type may be targeted by a retention
// policy driven purge. Audit records are exempt by default.
func (e EntityType) Purgeable() bool {
	switch e {
	case EntityStudent, EntityStaff, EntityEnrollment, EntitySchool:
		return true
	}
	return false
}
