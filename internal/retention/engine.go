package retention

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"northstar/internal/audit"
	id "northstar/pkg/domain"
	dErrors "northstar/pkg/domain-errors"
	"northstar/pkg/platform/sentinel"
	txcontext "northstar/pkg/platform/tx"
	"northstar/pkg/requestcontext"
)

// Auditor is the audit chain append surface the engine needs. Policy edits
// are mutations, so they go through the chain like everything else.
type Auditor interface {
	Append(ctx context.Context, chain audit.Chain, draft audit.Draft) (*audit.Record, error)
}

// Engine owns retention policy lifecycle and expiry evaluation.
type Engine struct {
	store   Store
	auditor Auditor
	tx      txcontext.Runner
	logger  *slog.Logger
}

func NewEngine(store Store, auditor Auditor, tx txcontext.Runner, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{store: store, auditor: auditor, tx: tx, logger: logger}
}

// SetPolicy validates and upserts the single active policy for the pair, and
// appends the policy change to the tenant's audit chain in the same
// transaction. Both periods must be positive.
func (e *Engine) SetPolicy(ctx context.Context, tenantID id.TenantID, entityType id.EntityType, retentionDays, graceDays int) (*Policy, error) {
	now := requestcontext.Now(ctx)
	policy := &Policy{
		TenantID:      tenantID,
		EntityType:    entityType,
		RetentionDays: retentionDays,
		GraceDays:     graceDays,
		EffectiveAt:   now,
		UpdatedAt:     now,
		UpdatedBy:     requestcontext.ActorID(ctx),
	}
	if err := policy.validate(); err != nil {
		return nil, err
	}

	err := e.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := e.store.Upsert(txCtx, policy); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to upsert retention policy")
		}
		details, _ := json.Marshal(map[string]any{
			"entity_type":    entityType,
			"retention_days": retentionDays,
			"grace_days":     graceDays,
		})
		_, err := e.auditor.Append(txCtx, audit.TenantChain(tenantID), audit.Draft{
			EventType:  audit.EventRetentionPolicySet,
			EntityType: id.EntityPolicy,
			EntityID:   string(entityType),
			ActorID:    actorOrSystem(txCtx),
			Details:    details,
		})
		return err
	})
	if err != nil {
		return nil, err
	}

	e.logger.InfoContext(ctx, "retention policy set",
		"tenant_id", tenantID.String(),
		"entity_type", entityType,
		"retention_days", retentionDays,
		"grace_days", graceDays,
	)
	return policy, nil
}

// PolicyFor returns the active policy for the pair.
func (e *Engine) PolicyFor(ctx context.Context, tenantID id.TenantID, entityType id.EntityType) (*Policy, error) {
	policy, err := e.store.Find(ctx, tenantID, entityType)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "no retention policy for entity type")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load retention policy")
	}
	return policy, nil
}

// ListPolicies returns every active policy for the tenant.
func (e *Engine) ListPolicies(ctx context.Context, tenantID id.TenantID) ([]Policy, error) {
	policies, err := e.store.ListByTenant(ctx, tenantID)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list retention policies")
	}
	return policies, nil
}

// IsExpired reports whether an entity with the given retention start is past
// retention plus grace under the tenant's policy for the entity type.
func (e *Engine) IsExpired(ctx context.Context, tenantID id.TenantID, entityType id.EntityType, retentionStart time.Time) (bool, error) {
	policy, err := e.PolicyFor(ctx, tenantID, entityType)
	if err != nil {
		return false, err
	}
	return policy.Expired(retentionStart, requestcontext.Now(ctx)), nil
}

func actorOrSystem(ctx context.Context) string {
	if actor := requestcontext.ActorID(ctx); actor != "" {
		return actor
	}
	return "system"
}
