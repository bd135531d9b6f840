package legalhold

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"northstar/internal/audit"
	id "northstar/pkg/domain"
	dErrors "northstar/pkg/domain-errors"
	"northstar/pkg/platform/sentinel"
	txcontext "northstar/pkg/platform/tx"
	"northstar/pkg/requestcontext"
)

// Auditor is the audit chain append surface the registry needs.
type Auditor interface {
	Append(ctx context.Context, chain audit.Chain, draft audit.Draft) (*audit.Record, error)
}

// Registry owns legal hold lifecycle: apply, release, and the active-hold
// predicate the purge coordinator consults.
type Registry struct {
	store   Store
	auditor Auditor
	tx      txcontext.Runner
	logger  *slog.Logger
}

func NewRegistry(store Store, auditor Auditor, tx txcontext.Runner, logger *slog.Logger) *Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &Registry{store: store, auditor: auditor, tx: tx, logger: logger}
}

// Apply places a hold on an entity for a case. Duplicate suppression is
// scoped to the case: a second hold for the same (entityType, entityId,
// caseNumber) while one is active is a conflict, but a distinct case may
// place its own hold on the same entity.
func (r *Registry) Apply(ctx context.Context, tenantID id.TenantID, entityType id.EntityType, entityID, caseNumber, reason, actor string) (*Hold, error) {
	req := applyRequest{
		TenantID:   tenantID,
		EntityType: entityType,
		EntityID:   entityID,
		CaseNumber: caseNumber,
		Reason:     reason,
		Actor:      actor,
	}
	if err := req.validate(); err != nil {
		return nil, err
	}

	hold := &Hold{
		ID:         id.NewHoldID(),
		TenantID:   tenantID,
		EntityType: entityType,
		EntityID:   entityID,
		CaseNumber: caseNumber,
		Reason:     reason,
		AppliedBy:  actor,
		AppliedAt:  requestcontext.Now(ctx),
	}

	err := r.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := r.store.Create(txCtx, hold); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeConflict, "an active hold already exists for this entity and case")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create legal hold")
		}
		details, _ := json.Marshal(map[string]string{
			"hold_id":     hold.ID.String(),
			"case_number": caseNumber,
			"reason":      reason,
		})
		_, err := r.auditor.Append(txCtx, audit.TenantChain(tenantID), audit.Draft{
			EventType:  audit.EventLegalHoldApplied,
			EntityType: entityType,
			EntityID:   entityID,
			ActorID:    actor,
			Details:    details,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	r.logger.InfoContext(ctx, "legal hold applied",
		"tenant_id", tenantID.String(),
		"hold_id", hold.ID.String(),
		"entity_type", entityType,
		"entity_id", entityID,
		"case_number", caseNumber,
	)
	return hold, nil
}

// Release lifts a hold. Fails when the hold is unknown or already released.
func (r *Registry) Release(ctx context.Context, holdID id.HoldID, actor, reason string) (*Hold, error) {
	if actor == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "actor is required")
	}

	var released *Hold
	err := r.tx.RunInTx(ctx, func(txCtx context.Context) error {
		hold, err := r.store.Find(txCtx, holdID)
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "legal hold not found")
		}
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load legal hold")
		}
		if !hold.IsActive() {
			return dErrors.New(dErrors.CodeInvariantViolation, "legal hold is already released")
		}

		now := requestcontext.Now(txCtx)
		hold.ReleasedBy = actor
		hold.ReleasedAt = &now
		hold.ReleaseNote = reason
		if err := r.store.Release(txCtx, hold); err != nil {
			if errors.Is(err, sentinel.ErrInvalidState) {
				return dErrors.New(dErrors.CodeInvariantViolation, "legal hold is already released")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to release legal hold")
		}

		details, _ := json.Marshal(map[string]string{
			"hold_id":     hold.ID.String(),
			"case_number": hold.CaseNumber,
			"reason":      reason,
		})
		if _, err := r.auditor.Append(txCtx, audit.TenantChain(hold.TenantID), audit.Draft{
			EventType:  audit.EventLegalHoldReleased,
			EntityType: hold.EntityType,
			EntityID:   hold.EntityID,
			ActorID:    actor,
			Details:    details,
		}); err != nil {
			return err
		}
		released = hold
		return nil
	})
	if err != nil {
		return nil, err
	}

	r.logger.InfoContext(ctx, "legal hold released",
		"tenant_id", released.TenantID.String(),
		"hold_id", released.ID.String(),
		"case_number", released.CaseNumber,
	)
	return released, nil
}

// HasActiveHold reports whether any active hold blocks the entity.
func (r *Registry) HasActiveHold(ctx context.Context, tenantID id.TenantID, entityType id.EntityType, entityID string) (bool, error) {
	active, err := r.store.HasActive(ctx, tenantID, entityType, entityID)
	if err != nil {
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "failed to check active holds")
	}
	return active, nil
}

// ListActive returns the tenant's active holds.
func (r *Registry) ListActive(ctx context.Context, tenantID id.TenantID) ([]Hold, error) {
	holds, err := r.store.ListActive(ctx, tenantID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list active holds")
	}
	return holds, nil
}
