package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"northstar/internal/legalhold"
	id "northstar/pkg/domain"
	"northstar/pkg/platform/sentinel"
	txcontext "northstar/pkg/platform/tx"
)

// Store persists legal holds. A partial unique index on
// (tenant_id, entity_type, entity_id, case_number) WHERE released_at IS NULL
// enforces duplicate suppression per case at the database level.
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

const uniqueViolation = "23505"

func (s *Store) Create(ctx context.Context, hold *legalhold.Hold) error {
	query := `
		INSERT INTO legal_holds (
			id, tenant_id, entity_type, entity_id, case_number, reason,
			applied_by, applied_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(hold.ID),
		uuid.UUID(hold.TenantID),
		string(hold.EntityType),
		hold.EntityID,
		hold.CaseNumber,
		hold.Reason,
		hold.AppliedBy,
		hold.AppliedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return fmt.Errorf("active hold exists for case: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("insert legal hold: %w", err)
	}
	return nil
}

func (s *Store) Find(ctx context.Context, holdID id.HoldID) (*legalhold.Hold, error) {
	query := `
		SELECT id, tenant_id, entity_type, entity_id, case_number, reason,
		       applied_by, applied_at, released_by, released_at, release_note
		FROM legal_holds
		WHERE id = $1
	`
	row := s.execer(ctx).QueryRowContext(ctx, query, uuid.UUID(holdID))
	hold, err := scanHold(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query legal hold: %w", err)
	}
	return hold, nil
}

func (s *Store) Release(ctx context.Context, hold *legalhold.Hold) error {
	query := `
		UPDATE legal_holds
		SET released_by = $2, released_at = $3, release_note = $4
		WHERE id = $1 AND released_at IS NULL
	`
	res, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(hold.ID),
		hold.ReleasedBy,
		hold.ReleasedAt,
		hold.ReleaseNote,
	)
	if err != nil {
		return fmt.Errorf("release legal hold: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("release legal hold rows affected: %w", err)
	}
	if affected == 0 {
		// Either unknown or already released; distinguish for the caller.
		if _, findErr := s.Find(ctx, hold.ID); errors.Is(findErr, sentinel.ErrNotFound) {
			return sentinel.ErrNotFound
		}
		return sentinel.ErrInvalidState
	}
	return nil
}

func (s *Store) HasActive(ctx context.Context, tenantID id.TenantID, entityType id.EntityType, entityID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM legal_holds
			WHERE tenant_id = $1 AND entity_type = $2 AND entity_id = $3
			  AND released_at IS NULL
		)
	`
	var active bool
	err := s.execer(ctx).QueryRowContext(ctx, query,
		uuid.UUID(tenantID), string(entityType), entityID,
	).Scan(&active)
	if err != nil {
		return false, fmt.Errorf("query active holds: %w", err)
	}
	return active, nil
}

func (s *Store) ListActive(ctx context.Context, tenantID id.TenantID) ([]legalhold.Hold, error) {
	query := `
		SELECT id, tenant_id, entity_type, entity_id, case_number, reason,
		       applied_by, applied_at, released_by, released_at, release_note
		FROM legal_holds
		WHERE tenant_id = $1 AND released_at IS NULL
		ORDER BY applied_at DESC
	`
	rows, err := s.db.QueryContext(ctx, query, uuid.UUID(tenantID))
	if err != nil {
		return nil, fmt.Errorf("query active holds: %w", err)
	}
	defer rows.Close()

	var holds []legalhold.Hold
	for rows.Next() {
		hold, err := scanHold(rows.Scan)
		if err != nil {
			return nil, fmt.Errorf("scan legal hold: %w", err)
		}
		holds = append(holds, *hold)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate legal holds: %w", err)
	}
	return holds, nil
}

func scanHold(scan func(dest ...any) error) (*legalhold.Hold, error) {
	var (
		hold        legalhold.Hold
		holdID      uuid.UUID
		tenantID    uuid.UUID
		entityType  string
		releasedBy  sql.NullString
		releasedAt  sql.NullTime
		releaseNote sql.NullString
	)
	err := scan(
		&holdID,
		&tenantID,
		&entityType,
		&hold.EntityID,
		&hold.CaseNumber,
		&hold.Reason,
		&hold.AppliedBy,
		&hold.AppliedAt,
		&releasedBy,
		&releasedAt,
		&releaseNote,
	)
	if err != nil {
		return nil, err
	}
	hold.ID = id.HoldID(holdID)
	hold.TenantID = id.TenantID(tenantID)
	hold.EntityType = id.EntityType(entityType)
	hold.ReleasedBy = releasedBy.String
	hold.ReleaseNote = releaseNote.String
	if releasedAt.Valid {
		t := releasedAt.Time
		hold.ReleasedAt = &t
	}
	return &hold, nil
}
