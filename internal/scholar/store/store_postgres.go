package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"resimed/internal/scholar/models"
	id "resimed/pkg/domain"
	"resimed/pkg/platform/sentinel"
)

// PostgresStore persists scholar profiles and membership history in
// PostgreSQL. Membership rows are append-only.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, scholar *models.Scholar) error {
	query := `
		INSERT INTO scholars (id, user_id, full_name, created_at)
		VALUES ($1, $2, $3, $4)
	`
	_, err := s.db.ExecContext(ctx, query,
		scholar.ID.String(),
		scholar.UserID.String(),
		scholar.FullName,
		scholar.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create scholar: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, scholarID id.ScholarID) (*models.Scholar, error) {
	query := `
		SELECT id, user_id, full_name, created_at
		FROM scholars
		WHERE id = $1
	`
	var rawID, rawUser string
	scholar := &models.Scholar{}
	err := s.db.QueryRowContext(ctx, query, scholarID.String()).
		Scan(&rawID, &rawUser, &scholar.FullName, &scholar.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("scholar not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find scholar: %w", err)
	}
	if scholar.ID, err = id.ParseScholarID(rawID); err != nil {
		return nil, fmt.Errorf("parse scholar id: %w", err)
	}
	if scholar.UserID, err = id.ParseUserID(rawUser); err != nil {
		return nil, fmt.Errorf("parse scholar user id: %w", err)
	}
	return scholar, nil
}

func (s *PostgresStore) AppendMembership(ctx context.Context, membership models.Membership) error {
	query := `
		INSERT INTO scholar_memberships (scholar_id, cohort_id, specialty_id, joined_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (scholar_id, cohort_id) DO NOTHING
	`
	_, err := s.db.ExecContext(ctx, query,
		membership.ScholarID.String(),
		membership.CohortID.String(),
		membership.SpecialtyID.String(),
		membership.JoinedAt,
	)
	if err != nil {
		return fmt.Errorf("append membership: %w", err)
	}
	return nil
}

func (s *PostgresStore) Memberships(ctx context.Context, scholarID id.ScholarID) ([]models.Membership, error) {
	if _, err := s.FindByID(ctx, scholarID); err != nil {
		return nil, err
	}
	query := `
		SELECT scholar_id, cohort_id, specialty_id, joined_at
		FROM scholar_memberships
		WHERE scholar_id = $1
		ORDER BY joined_at
	`
	rows, err := s.db.QueryContext(ctx, query, scholarID.String())
	if err != nil {
		return nil, fmt.Errorf("list memberships: %w", err)
	}
	defer rows.Close()

	var out []models.Membership
	for rows.Next() {
		var rawScholar, rawCohort, rawSpecialty string
		m := models.Membership{}
		if err := rows.Scan(&rawScholar, &rawCohort, &rawSpecialty, &m.JoinedAt); err != nil {
			return nil, fmt.Errorf("scan membership: %w", err)
		}
		if m.ScholarID, err = id.ParseScholarID(rawScholar); err != nil {
			return nil, fmt.Errorf("parse membership scholar: %w", err)
		}
		if m.CohortID, err = id.ParseCohortID(rawCohort); err != nil {
			return nil, fmt.Errorf("parse membership cohort: %w", err)
		}
		if m.SpecialtyID, err = id.ParseSpecialtyID(rawSpecialty); err != nil {
			return nil, fmt.Errorf("parse membership specialty: %w", err)
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func (s *PostgresStore) AllScholarIDs(ctx context.Context) ([]id.ScholarID, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id FROM scholars`)
	if err != nil {
		return nil, fmt.Errorf("list scholars: %w", err)
	}
	defer rows.Close()

	var out []id.ScholarID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan scholar id: %w", err)
		}
		scholarID, err := id.ParseScholarID(raw)
		if err != nil {
			return nil, fmt.Errorf("parse scholar id: %w", err)
		}
		out = append(out, scholarID)
	}
	return out, rows.Err()
}

func (s *PostgresStore) ScholarIDsByCohort(ctx context.Context, cohortID id.CohortID) ([]id.ScholarID, error) {
	query := `SELECT DISTINCT scholar_id FROM scholar_memberships WHERE cohort_id = $1`
	rows, err := s.db.QueryContext(ctx, query, cohortID.String())
	if err != nil {
		return nil, fmt.Errorf("list scholars by cohort: %w", err)
	}
	defer rows.Close()

	var out []id.ScholarID
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan scholar id: %w", err)
		}
		scholarID, err := id.ParseScholarID(raw)
		if err != nil {
			return nil, fmt.Errorf("parse scholar id: %w", err)
		}
		out = append(out, scholarID)
	}
	return out, rows.Err()
}

func (s *PostgresStore) MembershipCohorts(ctx context.Context, scholarID id.ScholarID) ([]id.CohortID, error) {
	history, err := s.Memberships(ctx, scholarID)
	if err != nil {
		return nil, err
	}
	out := make([]id.CohortID, 0, len(history))
	for _, m := range history {
		out = append(out, m.CohortID)
	}
	return out, nil
}
