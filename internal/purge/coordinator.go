package purge

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"northstar/internal/audit"
	purgemetrics "northstar/internal/purge/metrics"
	id "northstar/pkg/domain"
	dErrors "northstar/pkg/domain-errors"
	"northstar/pkg/platform/sentinel"
	txcontext "northstar/pkg/platform/tx"
	"northstar/pkg/requestcontext"
)

// defaultBatchSize bounds per-batch memory for large entity populations.
const defaultBatchSize = 100

// Summary reports the outcome of one ExecutePurge call. Per-item failures
// are collected here rather than aborting the run; one bad record must not
// block a compliance-driven purge.
type Summary struct {
	CorrelationID      string
	PurgedCount        int
	AlreadyPurgedCount int
	FailedIDs          []string
}

// Coordinator reconciles the retention engine and the legal hold registry,
// drives deletes through the entity repository, and records every outcome on
// the tenant's audit chain.
type Coordinator struct {
	repo      EntityRepository
	retention RetentionChecker
	holds     HoldChecker
	auditor   Auditor
	tx        txcontext.Runner
	logger    *slog.Logger
	metrics   *purgemetrics.Metrics
	tracer    trace.Tracer
	batchSize int
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithBatchSize overrides the purge batch size.
func WithBatchSize(n int) Option {
	return func(c *Coordinator) {
		if n > 0 {
			c.batchSize = n
		}
	}
}

// WithMetrics sets the Prometheus metrics sink.
func WithMetrics(m *purgemetrics.Metrics) Option {
	return func(c *Coordinator) { c.metrics = m }
}

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *Coordinator) { c.logger = logger }
}

func NewCoordinator(repo EntityRepository, retention RetentionChecker, holds HoldChecker, auditor Auditor, tx txcontext.Runner, opts ...Option) *Coordinator {
	c := &Coordinator{
		repo:      repo,
		retention: retention,
		holds:     holds,
		auditor:   auditor,
		tx:        tx,
		logger:    slog.Default(),
		tracer:    otel.Tracer("northstar/purge"),
		batchSize: defaultBatchSize,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// IdentifyEligible returns a restartable iterator over purge-eligible entity
// ids: retention (plus grace) has expired and no active legal hold blocks
// the entity. Each call re-queries the stores, so a fresh iterator always
// reflects the latest policies, holds, and already-purged entities.
func (c *Coordinator) IdentifyEligible(ctx context.Context, tenantID id.TenantID, entityType id.EntityType) (*EligibleIterator, error) {
	if tenantID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "tenant id is required")
	}
	// Audit records never reach eligibility through the default policy set;
	// a tenant must name the audit entity type explicitly, and every other
	// non-roster type is refused outright.
	if !entityType.Purgeable() && entityType != id.EntityAuditRecord {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "entity type is not a purge target")
	}
	return &EligibleIterator{
		c:          c,
		tenantID:   tenantID,
		entityType: entityType,
		pageSize:   c.batchSize,
	}, nil
}

// errAlreadyPurged marks a delete that found nothing to remove. It aborts the
// per-item transaction (no audit record is written) without counting as a
// failure.
var errAlreadyPurged = errors.New("entity already purged")

// ExecutePurge deletes the given entities in bounded batches. Each entity's
// delete and its data_purged audit record commit atomically: if the append
// fails, the delete rolls back and no unaudited purge persists. Entities
// that are already absent count as already purged and produce no duplicate
// audit record. A hold applied since identification fails the item. The
// whole call shares one correlation id.
//
// Cancellation is honored between batches; completed batches stay committed
// and a resumed run re-identifies eligibility so nothing is purged twice.
func (c *Coordinator) ExecutePurge(ctx context.Context, tenantID id.TenantID, entityType id.EntityType, entityIDs []string, actor string) (*Summary, error) {
	if tenantID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "tenant id is required")
	}
	if actor == "" {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "actor is required")
	}

	ctx, span := c.tracer.Start(ctx, "purge.ExecutePurge",
		trace.WithAttributes(
			attribute.String("tenant_id", tenantID.String()),
			attribute.String("entity_type", string(entityType)),
			attribute.Int("requested", len(entityIDs)),
		))
	defer span.End()

	summary := &Summary{CorrelationID: id.NewCorrelationID().String()}
	chain := audit.TenantChain(tenantID)

	for start := 0; start < len(entityIDs); start += c.batchSize {
		if err := ctx.Err(); err != nil {
			// Prior batches are committed and auditable; the caller resumes
			// by re-running IdentifyEligible.
			return summary, dErrors.Wrap(err, dErrors.CodeTimeout, "purge cancelled between batches")
		}

		end := min(start+c.batchSize, len(entityIDs))
		for _, entityID := range entityIDs[start:end] {
			c.purgeOne(ctx, chain, tenantID, entityType, entityID, actor, summary)
		}
	}

	if c.metrics != nil {
		c.metrics.ObserveRun(summary.PurgedCount, summary.AlreadyPurgedCount, len(summary.FailedIDs))
	}
	c.logger.InfoContext(ctx, "purge run finished",
		"tenant_id", tenantID.String(),
		"entity_type", entityType,
		"correlation_id", summary.CorrelationID,
		"purged", summary.PurgedCount,
		"already_purged", summary.AlreadyPurgedCount,
		"failed", len(summary.FailedIDs),
	)
	return summary, nil
}

func (c *Coordinator) purgeOne(ctx context.Context, chain audit.Chain, tenantID id.TenantID, entityType id.EntityType, entityID, actor string, summary *Summary) {
	// Holds may have been applied since the eligible set was identified;
	// re-check so a fresh hold always wins over a stale identification.
	blocked, err := c.holds.HasActiveHold(ctx, tenantID, entityType, entityID)
	if err != nil {
		c.logger.ErrorContext(ctx, "purge hold check failed, item skipped",
			"tenant_id", tenantID.String(),
			"entity_type", entityType,
			"entity_id", entityID,
			"error", err,
		)
		summary.FailedIDs = append(summary.FailedIDs, entityID)
		return
	}
	if blocked {
		c.logger.WarnContext(ctx, "purge blocked by legal hold applied after identification",
			"tenant_id", tenantID.String(),
			"entity_type", entityType,
			"entity_id", entityID,
		)
		summary.FailedIDs = append(summary.FailedIDs, entityID)
		return
	}

	err = c.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := c.repo.Delete(txCtx, tenantID, entityType, entityID); err != nil {
			if errors.Is(err, sentinel.ErrNotFound) {
				return errAlreadyPurged
			}
			return err
		}
		details, _ := json.Marshal(map[string]string{
			"entity_type": string(entityType),
			"entity_id":   entityID,
		})
		_, err := c.auditor.Append(txCtx, chain, audit.Draft{
			EventType:     audit.EventDataPurged,
			EntityType:    entityType,
			EntityID:      entityID,
			ActorID:       actor,
			Timestamp:     requestcontext.Now(txCtx),
			Details:       details,
			CorrelationID: summary.CorrelationID,
		})
		return err
	})

	switch {
	case err == nil:
		summary.PurgedCount++
	case errors.Is(err, errAlreadyPurged):
		summary.AlreadyPurgedCount++
	default:
		c.logger.ErrorContext(ctx, "purge item failed, delete rolled back",
			"tenant_id", tenantID.String(),
			"entity_type", entityType,
			"entity_id", entityID,
			"error", err,
		)
		summary.FailedIDs = append(summary.FailedIDs, entityID)
	}
}
