package roster

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"

	"northstar/internal/audit"
	"northstar/internal/purge"
	id "northstar/pkg/domain"
	dErrors "northstar/pkg/domain-errors"
	"northstar/pkg/platform/sentinel"
	txcontext "northstar/pkg/platform/tx"
	"northstar/pkg/requestcontext"
)

// Auditor is the audit chain append surface for roster mutations.
type Auditor interface {
	Append(ctx context.Context, chain audit.Chain, draft audit.Draft) (*audit.Record, error)
}

// Service owns roster entity lifecycle. Every mutation commits atomically
// with its audit record. The service also feeds the purge coordinator:
// exited entities are its purge candidates, and its Delete is the purge
// delete hook.
type Service struct {
	store   Store
	auditor Auditor
	tx      txcontext.Runner
	logger  *slog.Logger
}

var _ purge.EntityRepository = (*Service)(nil)

func NewService(store Store, auditor Auditor, tx txcontext.Runner, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{store: store, auditor: auditor, tx: tx, logger: logger}
}

// Create inserts a roster entity and audits the creation.
func (s *Service) Create(ctx context.Context, entity *Entity) (*Entity, error) {
	if err := entity.validate(); err != nil {
		return nil, err
	}
	now := requestcontext.Now(ctx)
	entity.CreatedAt = now
	entity.UpdatedAt = now

	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		if err := s.store.Create(txCtx, entity); err != nil {
			if errors.Is(err, sentinel.ErrConflict) {
				return dErrors.New(dErrors.CodeConflict, "entity already exists")
			}
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to create entity")
		}
		return s.appendEvent(txCtx, entity, eventCreated)
	})
	if err != nil {
		return nil, err
	}

	s.logger.InfoContext(ctx, "roster entity created",
		"tenant_id", entity.TenantID.String(),
		"entity_type", entity.Type,
		"entity_id", entity.ID,
	)
	return entity, nil
}

// Get returns one entity.
func (s *Service) Get(ctx context.Context, tenantID id.TenantID, entityType id.EntityType, entityID string) (*Entity, error) {
	entity, err := s.store.Get(ctx, tenantID, entityType, entityID)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "entity not found")
	}
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to load entity")
	}
	return entity, nil
}

// MarkExited stamps the withdrawal or separation date, starting the entity's
// retention clock, and audits the change.
func (s *Service) MarkExited(ctx context.Context, tenantID id.TenantID, entityType id.EntityType, entityID string) (*Entity, error) {
	var updated *Entity
	err := s.tx.RunInTx(ctx, func(txCtx context.Context) error {
		entity, err := s.store.Get(txCtx, tenantID, entityType, entityID)
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "entity not found")
		}
		if err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to load entity")
		}
		if !entity.Active() {
			return dErrors.New(dErrors.CodeInvariantViolation, "entity already exited")
		}

		now := requestcontext.Now(txCtx)
		entity.ExitedAt = &now
		entity.UpdatedAt = now
		if err := s.store.Update(txCtx, entity); err != nil {
			return dErrors.Wrap(err, dErrors.CodeInternal, "failed to update entity")
		}
		updated = entity
		return s.appendEvent(txCtx, entity, eventUpdated)
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// ListCandidates exposes exited entities to the purge coordinator, oldest
// ids first.
func (s *Service) ListCandidates(ctx context.Context, tenantID id.TenantID, entityType id.EntityType, afterID string, limit int) ([]purge.Candidate, error) {
	entities, err := s.store.ListExited(ctx, tenantID, entityType, afterID, limit)
	if err != nil {
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "failed to list exited entities")
	}
	candidates := make([]purge.Candidate, 0, len(entities))
	for _, entity := range entities {
		candidates = append(candidates, purge.Candidate{
			EntityID:       entity.ID,
			RetentionStart: entity.RetentionStart(),
		})
	}
	return candidates, nil
}

// Delete removes the entity row without writing an audit record; the purge
// coordinator appends its own data_purged record inside the same
// transaction.
func (s *Service) Delete(ctx context.Context, tenantID id.TenantID, entityType id.EntityType, entityID string) error {
	return s.store.Delete(ctx, tenantID, entityType, entityID)
}

type entityEvent int

const (
	eventCreated entityEvent = iota
	eventUpdated
	eventDeleted
)

func (s *Service) appendEvent(ctx context.Context, entity *Entity, action entityEvent) error {
	details, _ := json.Marshal(map[string]string{
		"display_name": entity.DisplayName,
	})
	_, err := s.auditor.Append(ctx, audit.TenantChain(entity.TenantID), audit.Draft{
		EventType:  eventFor(entity.Type, action),
		EntityType: entity.Type,
		EntityID:   entity.ID,
		ActorID:    actorOrSystem(ctx),
		Details:    details,
	})
	return err
}

func eventFor(entityType id.EntityType, action entityEvent) audit.EventType {
	switch entityType {
	case id.EntityStudent:
		return [...]audit.EventType{audit.EventStudentCreated, audit.EventStudentUpdated, audit.EventStudentDeleted}[action]
	case id.EntityStaff:
		return [...]audit.EventType{audit.EventStaffCreated, audit.EventStaffUpdated, audit.EventStaffDeleted}[action]
	case id.EntityEnrollment:
		return [...]audit.EventType{audit.EventEnrollmentCreated, audit.EventEnrollmentDropped, audit.EventEnrollmentDropped}[action]
	default:
		return [...]audit.EventType{audit.EventSchoolCreated, audit.EventSchoolUpdated, audit.EventSchoolDeleted}[action]
	}
}

func actorOrSystem(ctx context.Context) string {
	if actor := requestcontext.ActorID(ctx); actor != "" {
		return actor
	}
	return "system"
}
