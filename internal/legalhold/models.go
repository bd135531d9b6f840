// Package legalhold tracks holds that veto purge of specific entities
// regardless of retention expiry. Holds are the one mutable record in the
// compliance core: release stamps the released-by/at fields once, and nothing
// else ever changes.
package legalhold

import (
	"time"

	id "northstar/pkg/domain"
	dErrors "northstar/pkg/domain-errors"
)

// Hold is a legal hold on one entity for one case. An entity may carry holds
// from several distinct cases; it is purge-blocked while any remains active.
type Hold struct {
	ID          id.HoldID
	TenantID    id.TenantID
	EntityType  id.EntityType
	EntityID    string
	CaseNumber  string
	Reason      string
	AppliedBy   string
	AppliedAt   time.Time
	ReleasedBy  string
	ReleasedAt  *time.Time
	ReleaseNote string
}

// IsActive reports whether the hold still blocks purge.
func (h *Hold) IsActive() bool { return h.ReleasedAt == nil }

type applyRequest struct {
	TenantID   id.TenantID
	EntityType id.EntityType
	EntityID   string
	CaseNumber string
	Reason     string
	Actor      string
}

func (r applyRequest) validate() error {
	switch {
	case r.TenantID.IsNil():
		return dErrors.New(dErrors.CodeInvalidInput, "tenant id is required")
	case r.EntityType == "":
		return dErrors.New(dErrors.CodeInvalidInput, "entity type is required")
	case r.EntityID == "":
		return dErrors.New(dErrors.CodeInvalidInput, "entity id is required")
	case r.CaseNumber == "":
		return dErrors.New(dErrors.CodeInvalidInput, "case number is required")
	case r.Reason == "":
		return dErrors.New(dErrors.CodeInvalidInput, "reason is required")
	case r.Actor == "":
		return dErrors.New(dErrors.CodeInvalidInput, "actor is required")
	}
	return nil
}
