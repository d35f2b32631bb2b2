//go:build integration

// Package containers provides shared test containers for integration suites.
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

// Schema mirrors the tables the postgres stores expect.
const Schema = `
CREATE TABLE IF NOT EXISTS specialties (
	id UUID PRIMARY KEY,
	name TEXT NOT NULL,
	start_year INT,
	cohort_count INT,
	created_at TIMESTAMPTZ NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS specialties_name_key ON specialties (LOWER(name));

CREATE TABLE IF NOT EXISTS cohorts (
	id UUID PRIMARY KEY,
	specialty_id UUID NOT NULL REFERENCES specialties (id),
	year INT NOT NULL,
	start_date TIMESTAMPTZ,
	end_date TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	UNIQUE (specialty_id, year)
);

CREATE TABLE IF NOT EXISTS catalog_entries (
	id UUID PRIMARY KEY,
	cohort_id UUID NOT NULL REFERENCES cohorts (id),
	name TEXT NOT NULL,
	category TEXT NOT NULL DEFAULT '',
	target_count INT NOT NULL CHECK (target_count >= 1),
	description TEXT NOT NULL DEFAULT '',
	position INT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL,
	UNIQUE (cohort_id, name, category)
);

CREATE TABLE IF NOT EXISTS scholars (
	id UUID PRIMARY KEY,
	user_id UUID NOT NULL,
	full_name TEXT NOT NULL,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS scholar_memberships (
	scholar_id UUID NOT NULL REFERENCES scholars (id),
	cohort_id UUID NOT NULL REFERENCES cohorts (id),
	specialty_id UUID NOT NULL REFERENCES specialties (id),
	joined_at TIMESTAMPTZ NOT NULL,
	UNIQUE (scholar_id, cohort_id)
);

CREATE TABLE IF NOT EXISTS submission_records (
	id UUID PRIMARY KEY,
	scholar_id UUID NOT NULL REFERENCES scholars (id),
	specialty_id UUID NOT NULL,
	cohort_id UUID NOT NULL,
	kind TEXT NOT NULL,
	status TEXT NOT NULL,
	title TEXT NOT NULL,
	record_date TIMESTAMPTZ NOT NULL,
	hours DOUBLE PRECISION NOT NULL DEFAULT 0,
	entry_id UUID,
	attachments TEXT[] NOT NULL DEFAULT '{}',
	comment TEXT NOT NULL DEFAULT '',
	verified_by UUID,
	verified_at TIMESTAMPTZ,
	created_at TIMESTAMPTZ NOT NULL
);

CREATE TABLE IF NOT EXISTS jefe_grants (
	user_id UUID NOT NULL,
	specialty_id UUID NOT NULL,
	granted_at TIMESTAMPTZ NOT NULL,
	UNIQUE (user_id, specialty_id)
);

CREATE TABLE IF NOT EXISTS doctor_grants (
	user_id UUID NOT NULL,
	specialty_id UUID NOT NULL,
	cohort_id UUID NOT NULL,
	granted_at TIMESTAMPTZ NOT NULL,
	UNIQUE (user_id, specialty_id, cohort_id)
);
`

// PostgresContainer wraps a testcontainers PostgreSQL instance with the
// schema applied.
type PostgresContainer struct {
	Container testcontainers.Container
	DB        *sql.DB
	DSN       string
}

// NewPostgresContainer starts a PostgreSQL container and applies the schema.
func NewPostgresContainer(t *testing.T) *PostgresContainer {
	t.Helper()

	ctx := context.Background()
	container, err := tcpostgres.Run(ctx, "postgres:16-alpine",
		tcpostgres.WithDatabase("resimed_test"),
		tcpostgres.WithUsername("resimed"),
		tcpostgres.WithPassword("resimed"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).WithStartupTimeout(60*time.Second)),
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
	if _, err := db.ExecContext(ctx, Schema); err != nil {
		_ = container.Terminate(ctx)
		t.Fatalf("failed to apply schema: %v", err)
	}

	t.Cleanup(func() {
		_ = db.Close()
		_ = container.Terminate(context.Background())
	})

	return &PostgresContainer{Container: container, DB: db, DSN: dsn}
}

// TruncateTables clears the given tables between tests.
func (p *PostgresContainer) TruncateTables(ctx context.Context, tables ...string) error {
	if len(tables) == 0 {
		return nil
	}
	_, err := p.DB.ExecContext(ctx,
		fmt.Sprintf("TRUNCATE TABLE %s CASCADE", strings.Join(tables, ", ")))
	return err
}
