package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"northstar/internal/roster"
	id "northstar/pkg/domain"
	"northstar/pkg/platform/sentinel"
	txcontext "northstar/pkg/platform/tx"
)

// Store persists roster entities keyed by (tenant_id, entity_type, entity_id).
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

type dbExecutor interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

func (s *Store) execer(ctx context.Context) dbExecutor {
	if tx, ok := txcontext.From(ctx); ok {
		return tx
	}
	return s.db
}

const uniqueViolation = "23505"

func (s *Store) Create(ctx context.Context, entity *roster.Entity) error {
	query := `
		INSERT INTO roster_entities (
			tenant_id, entity_type, entity_id, display_name, attributes,
			created_at, updated_at, exited_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(entity.TenantID),
		string(entity.Type),
		entity.ID,
		entity.DisplayName,
		[]byte(entity.Attributes),
		entity.CreatedAt,
		entity.UpdatedAt,
		entity.ExitedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return fmt.Errorf("entity exists: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("insert roster entity: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, tenantID id.TenantID, entityType id.EntityType, entityID string) (*roster.Entity, error) {
	query := `
		SELECT tenant_id, entity_type, entity_id, display_name, attributes,
		       created_at, updated_at, exited_at
		FROM roster_entities
		WHERE tenant_id = $1 AND entity_type = $2 AND entity_id = $3
	`
	row := s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(tenantID), string(entityType), entityID)
	entity, err := scanEntity(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query roster entity: %w", err)
	}
	return entity, nil
}

func (s *Store) Update(ctx context.Context, entity *roster.Entity) error {
	query := `
		UPDATE roster_entities
		SET display_name = $4, attributes = $5, updated_at = $6, exited_at = $7
		WHERE tenant_id = $1 AND entity_type = $2 AND entity_id = $3
	`
	res, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(entity.TenantID),
		string(entity.Type),
		entity.ID,
		entity.DisplayName,
		[]byte(entity.Attributes),
		entity.UpdatedAt,
		entity.ExitedAt,
	)
	if err != nil {
		return fmt.Errorf("update roster entity: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update roster entity rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Store) Delete(ctx context.Context, tenantID id.TenantID, entityType id.EntityType, entityID string) error {
	query := `
		DELETE FROM roster_entities
		WHERE tenant_id = $1 AND entity_type = $2 AND entity_id = $3
	`
	res, err := s.execer(ctx).ExecContext(ctx, query, uuid.UUID(tenantID), string(entityType), entityID)
	if err != nil {
		return fmt.Errorf("delete roster entity: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete roster entity rows affected: %w", err)
	}
	if affected == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Store) ListExited(ctx context.Context, tenantID id.TenantID, entityType id.EntityType, afterID string, limit int) ([]roster.Entity, error) {
	query := `
		SELECT tenant_id, entity_type, entity_id, display_name, attributes,
		       created_at, updated_at, exited_at
		FROM roster_entities
		WHERE tenant_id = $1 AND entity_type = $2 AND entity_id > $3
		  AND exited_at IS NOT NULL
		ORDER BY entity_id ASC
		LIMIT $4
	`
	rows, err := s.execer(ctx).QueryContext(ctx, query, uuid.UUID(tenantID), string(entityType), afterID, limit)
	if err != nil {
		return nil, fmt.Errorf("query exited entities: %w", err)
	}
	defer rows.Close()

	var entities []roster.Entity
	for rows.Next() {
		entity, err := scanEntity(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan roster entity: %w", err)
		}
		entities = append(entities, *entity)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate roster entities: %w", err)
	}
	return entities, nil
}

func scanEntity(scan func(dest ...any) error) (*roster.Entity, error) {
	var (
		entity     roster.Entity
		tenantID   uuid.UUID
		entityType string
		attributes []byte
		exitedAt   sql.NullTime
	)
	err := scan(
		&tenantID,
		&entityType,
		&entity.ID,
		&entity.DisplayName,
		&attributes,
		&entity.CreatedAt,
		&entity.UpdatedAt,
		&exitedAt,
	)
	if err != nil {
		return nil, err
	}
	entity.TenantID = id.TenantID(tenantID)
	entity.Type = id.EntityType(entityType)
	entity.Attributes = attributes
	if exitedAt.Valid {
		t := exitedAt.Time
		entity.ExitedAt = &t
	}
	return &entity, nil
}
