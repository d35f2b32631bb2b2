package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"resimed/internal/cohort/models"
	id "resimed/pkg/domain"
	"resimed/pkg/platform/sentinel"
)

// PostgresStore persists specialties and cohorts in PostgreSQL. This store is
// pure I/O; date validation and lifecycle resolution belong to the models.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) CreateSpecialtyIfNameAvailable(ctx context.Context, specialty *models.Specialty) error {
	query := `
		INSERT INTO specialties (id, name, start_year, cohort_count, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`
	_, err := s.db.ExecContext(ctx, query,
		specialty.ID.String(),
		specialty.Name,
		specialty.StartYear,
		specialty.CohortCount,
		specialty.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("specialty name taken: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("create specialty: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindSpecialty(ctx context.Context, specialtyID id.SpecialtyID) (*models.Specialty, error) {
	query := `
		SELECT id, name, start_year, cohort_count, created_at
		FROM specialties
		WHERE id = $1
	`
	specialty, err := scanSpecialty(s.db.QueryRowContext(ctx, query, specialtyID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("specialty not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find specialty: %w", err)
	}
	return specialty, nil
}

func (s *PostgresStore) ListSpecialties(ctx context.Context) ([]*models.Specialty, error) {
	query := `
		SELECT id, name, start_year, cohort_count, created_at
		FROM specialties
		ORDER BY name
	`
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list specialties: %w", err)
	}
	defer rows.Close()

	var out []*models.Specialty
	for rows.Next() {
		specialty, err := scanSpecialty(rows)
		if err != nil {
			return nil, fmt.Errorf("scan specialty: %w", err)
		}
		out = append(out, specialty)
	}
	return out, rows.Err()
}

func (s *PostgresStore) CreateCohort(ctx context.Context, cohort *models.Cohort) error {
	query := `
		INSERT INTO cohorts (id, specialty_id, year, start_date, end_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		cohort.ID.String(),
		cohort.SpecialtyID.String(),
		cohort.Year,
		cohort.StartDate,
		cohort.EndDate,
		cohort.CreatedAt,
		cohort.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("cohort year taken for specialty: %w", sentinel.ErrConflict)
		}
		if isForeignKeyViolation(err) {
			return fmt.Errorf("specialty not found: %w", sentinel.ErrNotFound)
		}
		return fmt.Errorf("create cohort: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindCohort(ctx context.Context, cohortID id.CohortID) (*models.Cohort, error) {
	query := `
		SELECT id, specialty_id, year, start_date, end_date, created_at, updated_at
		FROM cohorts
		WHERE id = $1
	`
	cohort, err := scanCohort(s.db.QueryRowContext(ctx, query, cohortID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("cohort not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find cohort: %w", err)
	}
	return cohort, nil
}

func (s *PostgresStore) UpdateCohort(ctx context.Context, cohort *models.Cohort) error {
	query := `
		UPDATE cohorts
		SET start_date = $2, end_date = $3, updated_at = $4
		WHERE id = $1
	`
	res, err := s.db.ExecContext(ctx, query,
		cohort.ID.String(),
		cohort.StartDate,
		cohort.EndDate,
		cohort.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("update cohort: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update cohort rows affected: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("cohort not found: %w", sentinel.ErrNotFound)
	}
	return nil
}

func (s *PostgresStore) ListCohortsBySpecialty(ctx context.Context, specialtyID id.SpecialtyID) ([]*models.Cohort, error) {
	query := `
		SELECT id, specialty_id, year, start_date, end_date, created_at, updated_at
		FROM cohorts
		WHERE specialty_id = $1
		ORDER BY year
	`
	rows, err := s.db.QueryContext(ctx, query, specialtyID.String())
	if err != nil {
		return nil, fmt.Errorf("list cohorts: %w", err)
	}
	defer rows.Close()

	var out []*models.Cohort
	for rows.Next() {
		cohort, err := scanCohort(rows)
		if err != nil {
			return nil, fmt.Errorf("scan cohort: %w", err)
		}
		out = append(out, cohort)
	}
	return out, rows.Err()
}

func (s *PostgresStore) AllCohortIDs(ctx context.Context) ([]id.CohortID, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM cohorts`)
	if err != nil {
		return nil, fmt.Errorf("list cohort ids: %w", err)
	}
	defer rows.Close()
	return scanCohortIDs(rows)
}

func (s *PostgresStore) CohortIDsBySpecialty(ctx context.Context, specialtyID id.SpecialtyID) ([]id.CohortID, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM cohorts WHERE specialty_id = $1`, specialtyID.String())
	if err != nil {
		return nil, fmt.Errorf("list cohort ids by specialty: %w", err)
	}
	defer rows.Close()
	return scanCohortIDs(rows)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSpecialty(row rowScanner) (*models.Specialty, error) {
	var raw string
	specialty := &models.Specialty{}
	if err := row.Scan(&raw, &specialty.Name, &specialty.StartYear, &specialty.CohortCount, &specialty.CreatedAt); err != nil {
		return nil, err
	}
	specialtyID, err := id.ParseSpecialtyID(raw)
	if err != nil {
		return nil, err
	}
	specialty.ID = specialtyID
	return specialty, nil
}

func scanCohort(row rowScanner) (*models.Cohort, error) {
	var rawID, rawSpecialty string
	cohort := &models.Cohort{}
	if err := row.Scan(&rawID, &rawSpecialty, &cohort.Year, &cohort.StartDate, &cohort.EndDate, &cohort.CreatedAt, &cohort.UpdatedAt); err != nil {
		return nil, err
	}
	cohortID, err := id.ParseCohortID(rawID)
	if err != nil {
		return nil, err
	}
	specialtyID, err := id.ParseSpecialtyID(rawSpecialty)
	if err != nil {
		return nil, err
	}
	cohort.ID = cohortID
	cohort.SpecialtyID = specialtyID
	return cohort, nil
}

func scanCohortIDs(rows *sql.Rows) ([]id.CohortID, error) {
	var out []id.CohortID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan cohort id: %w", err)
		}
		cohortID, err := id.ParseCohortID(raw)
		if err != nil {
			return nil, fmt.Errorf("parse cohort id: %w", err)
		}
		out = append(out, cohortID)
	}
	return out, rows.Err()
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

func isForeignKeyViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23503"
}
