package tenant

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"time"

	"northstar/internal/audit"
	tenantmetrics "northstar/internal/tenant/metrics"
	id "northstar/pkg/domain"
	dErrors "northstar/pkg/domain-errors"
	"northstar/pkg/platform/sentinel"
	txcontext "northstar/pkg/platform/tx"
	"northstar/pkg/requestcontext"
)

// Auditor is the audit chain append surface for tenant lifecycle events.
type Auditor interface {
	Append(ctx context.Context, chain audit.Chain, draft audit.Draft) (*audit.Record, error)
}

// PolicySeeder installs the default retention policy set for a new tenant.
type PolicySeeder interface {
	SeedDefaults(ctx context.Context, tenantID id.TenantID) error
}

// Service orchestrates tenant lifecycle. Creation seeds default retention
// policies; every transition lands on the platform audit chain in the same
// transaction as the store write.
type Service struct {
	store    Store
	auditor  Auditor
	policies PolicySeeder
	tx       txcontext.Runner
	metrics  *tenantmetrics.Metrics
	logger   *slog.Logger
}

// Option configures a Service.
type Option func(*Service)

func WithMetrics(m *tenantmetrics.Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

func NewService(store Store, auditor Auditor, policies PolicySeeder, tx txcontext.Runner, opts ...Option) *Service {
	s := &Service{
		store:    store,
		auditor:  auditor,
		policies: policies,
		tx:       tx,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create provisions a tenant: unique name, default retention policies, and a
// tenant_created record on the platform chain, all in one transaction.
func (s *Service) Create(ctx context.Context, name string) (*Tenant, error) {
	name = strings.TrimSpace(name)

	var created *Tenant
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		t, err := NewTenant(id.NewTenantID(), name, requestcontext.Now(txCtx))
		if err != nil {
			return err
		}
		if err := s.store.Create(txCtx, t); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeConflict, "tenant name must be unique")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create tenant")
		}
		if err := s.policies.SeedDefaults(txCtx, t.ID); err != nil {
			return err
		}
		if err := s.appendLifecycleEvent(txCtx, t, audit.EventTenantCreated); err != nil {
			return err
		}
		created = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.TenantsCreated.Inc()
	}
	s.logger.InfoContext(ctx, "tenant created", "tenant_id", created.ID.String(), "name", created.Name)
	return created, nil
}

// Get returns one tenant.
func (s *Service) Get(ctx context.Context, tenantID id.TenantID) (*Tenant, error) {
	if tenantID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "tenant id is required")
	}
	t, err := s.store.FindByID(ctx, tenantID)
	if err != nil {
		return nil, wrapStoreErr(err)
	}
	return t, nil
}

// List returns all tenants.
func (s *Service) List(ctx context.Context) ([]Tenant, error) {
	tenants, err := s.store.List(ctx)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list tenants")
	}
	return tenants, nil
}

// Suspend transitions the tenant to suspended and audits the transition on
// the platform chain.
func (s *Service) Suspend(ctx context.Context, tenantID id.TenantID) (*Tenant, error) {
	return s.transition(ctx, tenantID, audit.EventTenantSuspended, (*Tenant).Suspend)
}

// Reactivate transitions the tenant back to active and audits the transition
// on the platform chain.
func (s *Service) Reactivate(ctx context.Context, tenantID id.TenantID) (*Tenant, error) {
	return s.transition(ctx, tenantID, audit.EventTenantReactivated, (*Tenant).Reactivate)
}

// RequireActive returns the tenant only when it is active. Mutating services
// gate on this before touching a tenant's data.
func (s *Service) RequireActive(ctx context.Context, tenantID id.TenantID) (*Tenant, error) {
	t, err := s.Get(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if !t.IsActive() {
		return nil, dErrors.New(dErrors.CodeForbidden, "tenant is suspended")
	}
	return t, nil
}

func (s *Service) transition(ctx context.Context, tenantID id.TenantID, event audit.EventType, apply func(*Tenant, time.Time) error) (*Tenant, error) {
	if tenantID.IsNil() {
		return nil, dErrors.New(dErrors.CodeInvalidInput, "tenant id is required")
	}

	var updated *Tenant
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		t, err := s.store.FindByID(txCtx, tenantID)
		if err != nil {
			return wrapStoreErr(err)
		}
		if err := apply(t, requestcontext.Now(txCtx)); err != nil {
			return err
		}
		if err := s.store.Update(txCtx, t); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update tenant")
		}
		if err := s.appendLifecycleEvent(txCtx, t, event); err != nil {
			return err
		}
		updated = t
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.metrics != nil {
		s.metrics.StatusTransitions.WithLabelValues(string(updated.Status)).Inc()
	}
	s.logger.InfoContext(ctx, "tenant status changed",
		"tenant_id", updated.ID.String(),
		"status", updated.Status,
	)
	return updated, nil
}

func (s *Service) appendLifecycleEvent(ctx context.Context, t *Tenant, event audit.EventType) error {
	details, _ := json.Marshal(map[string]string{
		"name":   t.Name,
		"status": string(t.Status),
	})
	_, err := s.auditor.Append(ctx, audit.PlatformChain(), audit.Draft{
		EventType:  event,
		EntityType: id.EntityTenant,
		EntityID:   t.ID.String(),
		ActorID:    actorOrSystem(ctx),
		Details:    details,
	})
	return err
}

func wrapStoreErr(err error) error {
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "tenant not found")
	}
	return dErrors.Wrap(err, dErrors.CodeInternal, "tenant store failure")
}

func actorOrSystem(ctx context.Context) string {
	if actor := requestcontext.ActorID(ctx); actor != "" {
		return actor
	}
	return "system"
}
