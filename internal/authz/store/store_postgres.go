package store

import (
	"context"
	"database/sql"
	"fmt"

	"resimed/internal/authz/models"
	id "resimed/pkg/domain"
)

// PostgresStore persists authorization grants in PostgreSQL. This store is
// pure I/O; scope evaluation belongs in the scoper.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) GrantJefe(ctx context.Context, userID id.UserID, specialtyID id.SpecialtyID) error {
	query := `
		INSERT INTO jefe_grants (user_id, specialty_id, granted_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id, specialty_id) DO NOTHING
	`
	if _, err := s.db.ExecContext(ctx, query, userID.String(), specialtyID.String()); err != nil {
		return fmt.Errorf("grant jefe: %w", err)
	}
	return nil
}

func (s *PostgresStore) RevokeJefe(ctx context.Context, userID id.UserID, specialtyID id.SpecialtyID) error {
	query := `DELETE FROM jefe_grants WHERE user_id = $1 AND specialty_id = $2`
	if _, err := s.db.ExecContext(ctx, query, userID.String(), specialtyID.String()); err != nil {
		return fmt.Errorf("revoke jefe: %w", err)
	}
	return nil
}

func (s *PostgresStore) JefeSpecialties(ctx context.Context, userID id.UserID) ([]id.SpecialtyID, error) {
	query := `SELECT specialty_id FROM jefe_grants WHERE user_id = $1`
	rows, err := s.db.QueryContext(ctx, query, userID.String())
	if err != nil {
		return nil, fmt.Errorf("list jefe specialties: %w", err)
	}
	defer rows.Close()

	var out []id.SpecialtyID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan jefe specialty: %w", err)
		}
		specialtyID, err := id.ParseSpecialtyID(raw)
		if err != nil {
			return nil, fmt.Errorf("parse jefe specialty: %w", err)
		}
		out = append(out, specialtyID)
	}
	return out, rows.Err()
}

func (s *PostgresStore) GrantDoctor(ctx context.Context, userID id.UserID, specialtyID id.SpecialtyID, cohortID id.CohortID) error {
	query := `
		INSERT INTO doctor_grants (user_id, specialty_id, cohort_id, granted_at)
		VALUES ($1, $2, $3, NOW())
		ON CONFLICT (user_id, specialty_id, cohort_id) DO NOTHING
	`
	if _, err := s.db.ExecContext(ctx, query, userID.String(), specialtyID.String(), cohortID.String()); err != nil {
		return fmt.Errorf("grant doctor: %w", err)
	}
	return nil
}

func (s *PostgresStore) RevokeDoctor(ctx context.Context, userID id.UserID, specialtyID id.SpecialtyID, cohortID id.CohortID) error {
	query := `DELETE FROM doctor_grants WHERE user_id = $1 AND specialty_id = $2 AND cohort_id = $3`
	if _, err := s.db.ExecContext(ctx, query, userID.String(), specialtyID.String(), cohortID.String()); err != nil {
		return fmt.Errorf("revoke doctor: %w", err)
	}
	return nil
}

func (s *PostgresStore) DoctorGrants(ctx context.Context, userID id.UserID) ([]*models.DoctorGrant, error) {
	query := `
		SELECT user_id, specialty_id, cohort_id, granted_at
		FROM doctor_grants
		WHERE user_id = $1
	`
	rows, err := s.db.QueryContext(ctx, query, userID.String())
	if err != nil {
		return nil, fmt.Errorf("list doctor grants: %w", err)
	}
	defer rows.Close()

	var out []*models.DoctorGrant
	for rows.Next() {
		var rawUser, rawSpecialty, rawCohort string
		grant := &models.DoctorGrant{}
		if err := rows.Scan(&rawUser, &rawSpecialty, &rawCohort, &grant.GrantedAt); err != nil {
			return nil, fmt.Errorf("scan doctor grant: %w", err)
		}
		if grant.UserID, err = id.ParseUserID(rawUser); err != nil {
			return nil, fmt.Errorf("parse doctor grant user: %w", err)
		}
		if grant.SpecialtyID, err = id.ParseSpecialtyID(rawSpecialty); err != nil {
			return nil, fmt.Errorf("parse doctor grant specialty: %w", err)
		}
		if grant.CohortID, err = id.ParseCohortID(rawCohort); err != nil {
			return nil, fmt.Errorf("parse doctor grant cohort: %w", err)
		}
		out = append(out, grant)
	}
	return out, rows.Err()
}
