package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"northstar/internal/retention"
	id "northstar/pkg/domain"
	"northstar/pkg/platform/sentinel"
	txcontext "northstar/pkg/platform/tx"
)

// Store persists retention policies, unique-indexed on (tenant_id, entity_type).
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

func (s *Store) Upsert(ctx context.Context, policy *retention.Policy) error {
	query := `
		INSERT INTO retention_policies (
			tenant_id, entity_type, retention_days, grace_days,
			effective_at, updated_at, updated_by
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (tenant_id, entity_type) DO UPDATE SET
			retention_days = EXCLUDED.retention_days,
			grace_days = EXCLUDED.grace_days,
			updated_at = EXCLUDED.updated_at,
			updated_by = EXCLUDED.updated_by
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(policy.TenantID),
		string(policy.EntityType),
		policy.RetentionDays,
		policy.GraceDays,
		policy.EffectiveAt,
		policy.UpdatedAt,
		policy.UpdatedBy,
	)
	if err != nil {
		return fmt.Errorf("upsert retention policy: %w", err)
	}
	return nil
}

func (s *Store) Find(ctx context.Context, tenantID id.TenantID, entityType id.EntityType) (*retention.Policy, error) {
	query := `
		SELECT tenant_id, entity_type, retention_days, grace_days,
		       effective_at, updated_at, updated_by
		FROM retention_policies
		WHERE tenant_id = $1 AND entity_type = $2
	`
	row := s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(tenantID), string(entityType))
	policy, err := scanPolicy(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query retention policy: %w", err)
	}
	return policy, nil
}

func (s *Store) ListByTenant(ctx context.Context, tenantID id.TenantID) ([]retention.Policy, error) {
	query := `
		SELECT tenant_id, entity_type, retention_days, grace_days,
		       effective_at, updated_at, updated_by
		FROM retention_policies
		WHERE tenant_id = $1
		ORDER BY entity_type
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(tenantID))
	if err != nil {
		return nil, fmt.Errorf("query retention policies: %w", err)
	}
	defer rows.Close()

	var policies []retention.Policy
	for rows.Next() {
		policy, err := scanPolicy(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan retention policy: %w", err)
		}
		policies = append(policies, *policy)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate retention policies: %w", err)
	}
	return policies, nil
}

func scanPolicy(scan func(dest ...any) error) (*retention.Policy, error) {
	var (
		policy     retention.Policy
		tenantID   uuid.UUID
		entityType string
	)
	err := scan(
		&tenantID,
		&entityType,
		&policy.RetentionDays,
		&policy.GraceDays,
		&policy.EffectiveAt,
		&policy.UpdatedAt,
		&policy.UpdatedBy,
	)
	if err != nil {
		return nil, err
	}
	policy.TenantID = id.TenantID(tenantID)
	policy.EntityType = id.EntityType(entityType)
	return &policy, nil
}
