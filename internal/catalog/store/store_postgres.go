package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"resimed/internal/catalog/models"
	id "resimed/pkg/domain"
	"resimed/pkg/platform/sentinel"
)

// PostgresStore persists procedure catalog entries in PostgreSQL.
//
// The catalog_entries table carries a unique index on
// (cohort_id, name, category), making check-plus-insert one atomic statement
// via ON CONFLICT DO NOTHING.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CreateIfAbsent(ctx context.Context, entry *models.Entry) (bool, error) {
	query := `
		INSERT INTO catalog_entries (id, cohort_id, name, category, target_count, description, position, created_at, updated_at)
		SELECT $1, $2, $3, $4, $5, $6,
			COALESCE((SELECT MAX(position) FROM catalog_entries WHERE cohort_id = $2), 0) + 1,
			$7, $7
		ON CONFLICT (cohort_id, name, category) DO NOTHING
	`
	res, err := s.db.ExecContext(ctx, query,
		entry.ID.String(),
		entry.CohortID.String(),
		entry.Name,
		entry.Category,
		entry.TargetCount,
		entry.Description,
		entry.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("create catalog entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("create catalog entry rows affected: %w", err)
	}
	return affected == 1, nil
}

func (s *PostgresStore) FindByID(ctx context.Context, entryID id.EntryID) (*models.Entry, error) {
	query := `
		SELECT id, cohort_id, name, category, target_count, description, position, created_at, updated_at
		FROM catalog_entries
		WHERE id = $1
	`
	entry, err := scanEntry(s.db.QueryRowContext(ctx, query, entryID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("catalog entry not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find catalog entry: %w", err)
	}
	return entry, nil
}

func (s *PostgresStore) Update(ctx context.Context, entry *models.Entry) error {
	query := `
		UPDATE catalog_entries
		SET name = $2, category = $3, target_count = $4, description = $5, updated_at = $6
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		entry.ID.String(),
		entry.Name,
		entry.Category,
		entry.TargetCount,
		entry.Description,
		entry.UpdatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return fmt.Errorf("equivalent entry exists: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("update catalog entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update catalog entry rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("catalog entry not found: %w", sentinel.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) Delete(ctx context.Context, entryID id.EntryID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM catalog_entries WHERE id = $1`, entryID.String())
	if err != nil {
		return fmt.Errorf("delete catalog entry: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete catalog entry rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("catalog entry not found: %w", sentinel.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) ListByCohort(ctx context.Context, cohortID id.CohortID) ([]*models.Entry, error) {
	query := `
		SELECT id, cohort_id, name, category, target_count, description, position, created_at, updated_at
		FROM catalog_entries
		WHERE cohort_id = $1
		ORDER BY position
	`
	rows, err := s.db.QueryContext(ctx, query, cohortID.String())
	if err != nil {
		return nil, fmt.Errorf("list catalog entries: %w", err)
	}
	defer rows.Close()

	var out []*models.Entry
	for rows.Next() {
		entry, err := scanEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("scan catalog entry: %w", err)
		}
		out = append(out, entry)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanEntry(row rowScanner) (*models.Entry, error) {
	var rawID, rawCohort string
	entry := &models.Entry{}
	err := row.Scan(&rawID, &rawCohort, &entry.Name, &entry.Category, &entry.TargetCount,
		&entry.Description, &entry.Position, &entry.CreatedAt, &entry.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if entry.ID, err = id.ParseEntryID(rawID); err != nil {
		return nil, err
	}
	if entry.CohortID, err = id.ParseCohortID(rawCohort); err != nil {
		return nil, err
	}
	return entry, nil
}
