// Package domain defines typed identifiers and primitives shared across
// modules. Typed UUIDs keep tenant, hold, and record ids from being mixed up
// at compile time; parsing enforces validity at trust boundaries.
package domain

import (
	"github.com/google/uuid"

	dErrors "northstar/pkg/domain-errors"
)

type (
	// TenantID identifies a district tenant. The zero value means the
	// platform scope (no tenant partition).
	TenantID uuid.UUID

	// RecordID identifies a single audit record.
	RecordID uuid.UUID

	// HoldID identifies a legal hold.
	HoldID uuid.UUID

	// CorrelationID groups audit records emitted by one logical batch,
	// e.g. a single purge run.
	CorrelationID uuid.UUID
)

// IsNil reports whether the tenant id is the zero UUID.
func (t TenantID) IsNil() bool { return uuid.UUID(t) == uuid.Nil }

// IsNil reports whether the hold id is the zero UUID.
func (h HoldID) IsNil() bool { return uuid.UUID(h) == uuid.Nil }

func (t TenantID) String() string { return uuid.UUID(t).String() }

func (r RecordID) String() string { return uuid.UUID(r).String() }

func (h HoldID) String() string { return uuid.UUID(h).String() }

func (c CorrelationID) String() string { return uuid.UUID(c).String() }

// NewTenantID returns a fresh random tenant id.
func NewTenantID() TenantID { return TenantID(uuid.New()) }

// NewRecordID returns a fresh random record id.
func NewRecordID() RecordID { return RecordID(uuid.New()) }

// NewHoldID returns a fresh random hold id.
func NewHoldID() HoldID { return HoldID(uuid.New()) }

// NewCorrelationID returns a fresh random correlation id.
func NewCorrelationID() CorrelationID { return CorrelationID(uuid.New()) }

func parseUUID(s, what string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" is not a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, what+" must not be the nil UUID")
	}
	return u, nil
}

// ParseTenantID validates and returns a TenantID.
func ParseTenantID(s string) (TenantID, error) {
	u, err := parseUUID(s, "tenant id")
	if err != nil {
		return TenantID{}, err
	}
	return TenantID(u), nil
}

// ParseHoldID validates and returns a HoldID.
func ParseHoldID(s string) (HoldID, error) {
	u, err := parseUUID(s, "hold id")
	if err != nil {
		return HoldID{}, err
	}
	return HoldID(u), nil
}

// ParseCorrelationID validates and returns a CorrelationID.
func ParseCorrelationID(s string) (CorrelationID, error) {
	u, err := parseUUID(s, "correlation id")
	if err != nil {
		return CorrelationID{}, err
	}
	return CorrelationID(u), nil
}
