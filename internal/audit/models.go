// Package audit implements the tamper-evident audit chain: hash-linked,
// append-only records partitioned per tenant, plus a single platform chain
// for cross-tenant actions. Records are immutable values, fully computed at
// construction; nothing in this package mutates a record after it is built.
package audit

import (
	"encoding/json"
	"time"

	id "northstar/pkg/domain"
	dErrors "northstar/pkg/domain-errors"
)

// EventType names an audited action. Callers decide what constitutes a
// reportable event; these constants cover the actions this service emits
// itself plus the roster mutations the rest of the backend reports.
type EventType string

const (
	EventStudentCreated    EventType = "student_created"
	EventStudentUpdated    EventType = "student_updated"
	EventStudentDeleted    EventType = "student_deleted"
	EventStaffCreated      EventType = "staff_created"
	EventStaffUpdated      EventType = "staff_updated"
	EventStaffDeleted      EventType = "staff_deleted"
	EventEnrollmentCreated EventType = "enrollment_created"
	EventEnrollmentDropped EventType = "enrollment_dropped"
	EventSchoolCreated     EventType = "school_created"
	EventSchoolUpdated     EventType = "school_updated"
	EventSchoolDeleted     EventType = "school_deleted"

	// Compliance events emitted by this service.
	EventRetentionPolicySet EventType = "retention_policy_set"
	EventLegalHoldApplied   EventType = "legal_hold_applied"
	EventLegalHoldReleased  EventType = "legal_hold_released"
	EventDataPurged         EventType = "data_purged"
	EventPurgeFailed        EventType = "purge_failed"

	// Platform chain events.
	EventTenantCreated     EventType = "tenant_created"
	EventTenantSuspended   EventType = "tenant_suspended"
	EventTenantReactivated EventType = "tenant_reactivated"
)

// Chain identifies one hash chain: a tenant's chain, or the single platform
// chain when the tenant id is absent. Chains are verified independently;
// there is no cross-chain linkage.
type Chain struct {
	tenantID id.TenantID
}

// TenantChain returns the chain for a tenant.
func TenantChain(tenantID id.TenantID) Chain {
	return Chain{tenantID: tenantID}
}

// PlatformChain returns the tenant-less platform chain.
func PlatformChain() Chain {
	return Chain{}
}

// IsPlatform reports whether this is the platform chain.
func (c Chain) IsPlatform() bool { return c.tenantID.IsNil() }

// TenantID returns the owning tenant; zero value for the platform chain.
func (c Chain) TenantID() id.TenantID { return c.tenantID }

// Key returns the storage key for the chain. The platform chain uses a fixed
// key that can never collide with a tenant UUID.
func (c Chain) Key() string {
	if c.IsPlatform() {
		return "platform"
	}
	return c.tenantID.String()
}

// ChainFromKey rebuilds a Chain from its storage key.
func ChainFromKey(key string) (Chain, error) {
	if key == "platform" {
		return PlatformChain(), nil
	}
	tenantID, err := id.ParseTenantID(key)
	if err != nil {
		return Chain{}, err
	}
	return TenantChain(tenantID), nil
}

// Record is one immutable link in a chain. PrevHash is empty only for the
// genesis record (sequence 1).
type Record struct {
	ID            id.RecordID
	Chain         Chain
	Sequence      uint64
	EventType     EventType
	EntityType    id.EntityType
	EntityID      string
	ActorID       string
	Timestamp     time.Time
	Details       json.RawMessage
	CorrelationID string
	Hash          string
	PrevHash      string
}

// Draft carries the caller-supplied fields of a record before it is linked
// into a chain. Sequence, hashes, and id are assigned by the service.
type Draft struct {
	EventType     EventType
	EntityType    id.EntityType
	EntityID      string
	ActorID       string
	Timestamp     time.Time
	Details       json.RawMessage
	CorrelationID string
}

func (d Draft) validate() error {
	switch {
	case d.EventType == "":
		return dErrors.New(dErrors.CodeInvalidInput, "event type is required")
	case d.EntityType == "":
		return dErrors.New(dErrors.CodeInvalidInput, "entity type is required")
	case d.EntityID == "":
		return dErrors.New(dErrors.CodeInvalidInput, "entity id is required")
	case d.ActorID == "":
		return dErrors.New(dErrors.CodeInvalidInput, "actor id is required")
	}
	return nil
}

// Head is the current tip of a chain.
type Head struct {
	Sequence uint64
	Hash     string
}

// IntegrityReport is the diagnostic result of verifying a sequence range.
// A tamper finding is a result, never an error: verification is a read.
type IntegrityReport struct {
	Chain      Chain
	FromSeq    uint64
	ToSeq      uint64
	Checked    int
	Valid      bool
	Violations []uint64
}

// Filter narrows a chain query. Zero values match everything.
type Filter struct {
	EntityType id.EntityType
	EntityID   string
	ActorID    string
	From       time.Time
	To         time.Time
}

// Page bounds a query result.
type Page struct {
	Limit  int
	Offset int
}

const defaultPageLimit = 50

func (p Page) normalize() Page {
	if p.Limit <= 0 {
		p.Limit = defaultPageLimit
	}
	if p.Offset < 0 {
		p.Offset = 0
	}
	return p
}

// QueryResult is one page of matching records with the total match count.
type QueryResult struct {
	Records []Record
	Total   int
}
