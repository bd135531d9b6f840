//go:build integration

package containers

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/testcontainers/testcontainers-go"
	tcpostgres "github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

// schema is applied once when the container starts. Kept in lockstep with
// the postgres store packages.
const schema = `
CREATE TABLE IF NOT EXISTS tenants (
	id         UUID PRIMARY KEY,
	name       TEXT NOT NULL,
	status     TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS tenants_name_unique ON tenants (lower(name));

CREATE TABLE IF NOT EXISTS audit_records (
	id              UUID PRIMARY KEY,
	chain_id        TEXT NOT NULL,
	sequence_number BIGINT NOT NULL,
	event_type      TEXT NOT NULL,
	entity_type     TEXT NOT NULL,
	entity_id       TEXT NOT NULL,
	actor_id        TEXT NOT NULL,
	occurred_at     TIMESTAMPTZ NOT NULL,
	details         JSONB,
	correlation_id  TEXT,
	record_hash     TEXT NOT NULL,
	prev_hash       TEXT,
	UNIQUE (chain_id, sequence_number)
);
CREATE INDEX IF NOT EXISTS audit_records_entity
	ON audit_records (chain_id, entity_type, entity_id);

CREATE TABLE IF NOT EXISTS retention_policies (
	tenant_id      UUID NOT NULL,
	entity_type    TEXT NOT NULL,
	retention_days INT NOT NULL,
	grace_days     INT NOT NULL,
	effective_at   TIMESTAMPTZ NOT NULL,
	updated_at     TIMESTAMPTZ NOT NULL,
	updated_by     TEXT,
	PRIMARY KEY (tenant_id, entity_type)
);

CREATE TABLE IF NOT EXISTS legal_holds (
	id           UUID PRIMARY KEY,
	tenant_id    UUID NOT NULL,
	entity_type  TEXT NOT NULL,
	entity_id    TEXT NOT NULL,
	case_number  TEXT NOT NULL,
	reason       TEXT NOT NULL,
	applied_by   TEXT NOT NULL,
	applied_at   TIMESTAMPTZ NOT NULL,
	released_by  TEXT,
	released_at  TIMESTAMPTZ,
	release_note TEXT
);
CREATE UNIQUE INDEX IF NOT EXISTS legal_holds_active_case
	ON legal_holds (tenant_id, entity_type, entity_id, case_number)
	WHERE released_at IS NULL;
CREATE INDEX IF NOT EXISTS legal_holds_entity
	ON legal_holds (tenant_id, entity_type, entity_id)
	WHERE released_at IS NULL;

CREATE TABLE IF NOT EXISTS roster_entities (
	tenant_id    UUID NOT NULL,
	entity_type  TEXT NOT NULL,
	entity_id    TEXT NOT NULL,
	display_name TEXT NOT NULL,
	attributes   JSONB,
	created_at   TIMESTAMPTZ NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL,
	exited_at    TIMESTAMPTZ,
	PRIMARY KEY (tenant_id, entity_type, entity_id)
);
CREATE INDEX IF NOT EXISTS roster_entities_exited
	ON roster_entities (tenant_id, entity_type, entity_id)
	WHERE exited_at IS NOT NULL;
`

// PostgresContainer wraps a testcontainers Postgres instance with an open
// database handle and the schema applied.
type PostgresContainer struct {
	Container testcontainers.Container
	DSN       string
	DB        *sql.DB
}

// NewPostgresContainer starts a Postgres container and applies the schema.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("northstar_test"),
		tcpostgres.WithUsername("northstar"),
		tcpostgres.WithPassword("northstar"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(60*time.Second),
		),
	)
	if err != nil {
		t.Fatalf("failed to start postgres container: %v", err)
	}

	dsn, err := container.ConnectionString(ctx, "sslmode=disable")
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to get postgres connection string: %v", err)
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to open postgres: %v", err)
	}
	if err := db.PingContext(ctx); err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to ping postgres: %v", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to apply schema: %v", err)
	}

	return &PostgresContainer{Container: container, DSN: dsn, DB: db}
}

// TruncateTables empties the given tables between tests.
func (p *PostgresContainer) TruncateTables(ctx context.Context, tables ...string) error {
	if len(tables) == 0 {
		return nil
	}
	query := fmt.Sprintf("TRUNCATE TABLE %s CASCADE", strings.Join(tables, ", "))
	_, err := p.DB.ExecContext(ctx, query)
	return err
}
