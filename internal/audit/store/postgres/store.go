// Package postgres implements the append-only audit store over PostgreSQL.
// The audit_records table is unique-indexed on (chain_id, sequence_number);
// a violated slot surfaces as sentinel.ErrConflict and drives the service's
// compare-and-swap retry. Rows are never updated or deleted.
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"northstar/internal/audit"
	id "northstar/pkg/domain"
	"northstar/pkg/platform/sentinel"
	txcontext "northstar/pkg/platform/tx"
)

// Store implements audit.Store over database/sql with the lib/pq driver.
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

// uniqueViolation is the PostgreSQL error code for a unique constraint hit.
const uniqueViolation = "23505"

func (s *Store) Append(ctx context.Context, rec *audit.Record) error {
	query := `
		INSERT INTO audit_records (
			id, chain_id, sequence_number, event_type, entity_type, entity_id,
			actor_id, occurred_at, details, correlation_id, record_hash, prev_hash
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err := s.execer(ctx).ExecContext(ctx, query,
		uuid.UUID(rec.ID),
		rec.Chain.Key(),
		rec.Sequence,
		string(rec.EventType),
		string(rec.EntityType),
		rec.EntityID,
		rec.ActorID,
		rec.Timestamp,
		[]byte(rec.Details),
		nullable(rec.CorrelationID),
		rec.Hash,
		nullable(rec.PrevHash),
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && string(pqErr.Code) == uniqueViolation {
			return fmt.Errorf("sequence slot taken: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("insert audit record: %w", err)
	}
	return nil
}

func (s *Store) Head(ctx context.Context, chain audit.Chain) (*audit.Head, error) {
	query := `
		SELECT sequence_number, record_hash
		FROM audit_records
		WHERE chain_id = $1
		ORDER BY sequence_number DESC
		LIMIT 1
	`
	var head audit.Head
	err := s.execer(ctx).QueryRowContext(ctx, query, chain.Key()).Scan(&head.Sequence, &head.Hash)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query chain head: %w", err)
	}
	return &head, nil
}

func (s *Store) Range(ctx context.Context, chain audit.Chain, fromSeq, toSeq uint64) ([]audit.Record, error) {
	query := `
		SELECT id, chain_id, sequence_number, event_type, entity_type, entity_id,
		       actor_id, occurred_at, details, correlation_id, record_hash, prev_hash
		FROM audit_records
		WHERE chain_id = $1 AND sequence_number BETWEEN $2 AND $3
		ORDER BY sequence_number ASC
	`
	rows, err := s.db.QueryContext(ctx, query, chain.Key(), fromSeq, toSeq)
	if err != nil {
		return nil, fmt.Errorf("query chain range: %w", err)
	}
	defer rows.Close()

	return scanRecords(rows)
}

func (s *Store) Query(ctx context.Context, chain audit.Chain, filter audit.Filter, page audit.Page) (*audit.QueryResult, error) {
	where := []string{"chain_id = $1"}
	args := []any{chain.Key()}

	appendClause := func(clause string, arg any) {
		args = append(args, arg)
		where = append(where, clause+"$"+strconv.Itoa(len(args)))
	}
	if filter.EntityType != "" {
		appendClause("entity_type = ", string(filter.EntityType))
	}
	if filter.EntityID != "" {
		appendClause("entity_id = ", filter.EntityID)
	}
	if filter.ActorID != "" {
		appendClause("actor_id = ", filter.ActorID)
	}
	if !filter.From.IsZero() {
		appendClause("occurred_at >= ", filter.From)
	}
	if !filter.To.IsZero() {
		appendClause("occurred_at <= ", filter.To)
	}
	cond := strings.Join(where, " AND ")

	var total int
	countQuery := "SELECT COUNT(*) FROM audit_records WHERE " + cond
	if err := s.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, fmt.Errorf("count audit records: %w", err)
	}

	args = append(args, page.Limit, page.Offset)
	query := fmt.Sprintf(`
		SELECT id, chain_id, sequence_number, event_type, entity_type, entity_id,
		       actor_id, occurred_at, details, correlation_id, record_hash, prev_hash
		FROM audit_records
		WHERE %s
		ORDER BY sequence_number DESC
		LIMIT $%d OFFSET $%d
	`, cond, len(args)-1, len(args))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query audit records: %w", err)
	}
	defer rows.Close()

	records, err := scanRecords(rows)
	if err != nil {
		return nil, err
	}
	return &audit.QueryResult{Records: records, Total: total}, nil
}

func scanRecords(rows *sql.Rows) ([]audit.Record, error) {
	var records []audit.Record
	for rows.Next() {
		var (
			rec           audit.Record
			recordID      uuid.UUID
			chainKey      string
			eventType     string
			entityType    string
			details       []byte
			correlationID sql.NullString
			prevHash      sql.NullString
		)
		err := rows.Scan(
			&recordID,
			&chainKey,
			&rec.Sequence,
			&eventType,
			&entityType,
			&rec.EntityID,
			&rec.ActorID,
			&rec.Timestamp,
			&details,
			&correlationID,
			&rec.Hash,
			&prevHash,
		)
		if err != nil {
			return nil, fmt.Errorf("scan audit record: %w", err)
		}

		chain, err := audit.ChainFromKey(chainKey)
		if err != nil {
			return nil, fmt.Errorf("rebuild chain from key %q: %w", chainKey, err)
		}
		rec.ID = id.RecordID(recordID)
		rec.Chain = chain
		rec.EventType = audit.EventType(eventType)
		rec.EntityType = id.EntityType(entityType)
		rec.Details = details
		rec.CorrelationID = correlationID.String
		rec.PrevHash = prevHash.String
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate audit records: %w", err)
	}
	return records, nil
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}
