package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"resimed/internal/submission/models"
	id "resimed/pkg/domain"
	"resimed/pkg/platform/sentinel"
)

// PostgresStore persists submission records in PostgreSQL.
//
// Execute serializes concurrent verifications with SELECT ... FOR UPDATE:
// the row lock is held across both callbacks inside one transaction, so the
// losing attempt re-reads the already-terminal status during validation.
type PostgresStore struct {
	db *sql.DB
}

func NewPostgres(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Create(ctx context.Context, record *models.Record) error {
	query := `
		INSERT INTO submission_records
			(id, scholar_id, specialty_id, cohort_id, kind, status, title, record_date,
			 hours, entry_id, attachments, comment, verified_by, verified_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`
	_, err := s.db.ExecContext(ctx, query,
		record.ID.String(),
		record.ScholarID.String(),
		record.SpecialtyID.String(),
		record.CohortID.String(),
		string(record.Kind),
		string(record.Status),
		record.Title,
		record.Date,
		record.Hours,
		nullableID(record.EntryID.IsNil(), record.EntryID.String()),
		pq.Array(record.Attachments),
		record.Comment,
		nullableUser(record.VerifiedBy),
		record.VerifiedAt,
		record.CreatedAt,
	)
	if err != nil {
		var pqErr *pq.Error
		if errors.As(err, &pqErr) && pqErr.Code == "23505" {
			return fmt.Errorf("record already exists: %w", sentinel.ErrConflict)
		}
		return fmt.Errorf("create submission record: %w", err)
	}
	return nil
}

func (s *PostgresStore) FindByID(ctx context.Context, recordID id.RecordID) (*models.Record, error) {
	record, err := scanRecord(s.db.QueryRowContext(ctx, selectRecord+` WHERE id = $1`, recordID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("record not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("find submission record: %w", err)
	}
	return record, nil
}

// Execute loads the record under a row lock, runs validate then mutate, and
// writes the mutable fields back. The transaction rolls back when either
// callback fails, leaving the record untouched.
func (s *PostgresStore) Execute(ctx context.Context, recordID id.RecordID,
	validate func(*models.Record) error, mutate func(*models.Record) error) (*models.Record, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin verification tx: %w", err)
	}
	defer tx.Rollback()

	record, err := scanRecord(tx.QueryRowContext(ctx, selectRecord+` WHERE id = $1 FOR UPDATE`, recordID.String()))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("record not found: %w", sentinel.ErrNotFound)
		}
		return nil, fmt.Errorf("lock submission record: %w", err)
	}

	if err := validate(record); err != nil {
		return nil, err
	}
	if err := mutate(record); err != nil {
		return nil, err
	}

	query := `
		UPDATE submission_records
		SET status = $2, comment = $3, verified_by = $4, verified_at = $5
		WHERE id = $1
	`
	if _, err := tx.ExecContext(ctx, query,
		record.ID.String(),
		string(record.Status),
		record.Comment,
		nullableUser(record.VerifiedBy),
		record.VerifiedAt,
	); err != nil {
		return nil, fmt.Errorf("update submission record: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit verification tx: %w", err)
	}
	return record, nil
}

func (s *PostgresStore) ListByScholar(ctx context.Context, scholarID id.ScholarID, filter Filter) ([]*models.Record, error) {
	query := selectRecord + ` WHERE scholar_id = $1`
	args := []any{scholarID.String()}
	if filter.Kind != nil {
		args = append(args, string(*filter.Kind))
		query += fmt.Sprintf(` AND kind = $%d`, len(args))
	}
	if filter.Status != nil {
		args = append(args, string(*filter.Status))
		query += fmt.Sprintf(` AND status = $%d`, len(args))
	}
	if filter.CohortID != nil {
		args = append(args, filter.CohortID.String())
		query += fmt.Sprintf(` AND cohort_id = $%d`, len(args))
	}
	query += ` ORDER BY created_at, id`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list submission records: %w", err)
	}
	defer rows.Close()

	var out []*models.Record
	for rows.Next() {
		record, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scan submission record: %w", err)
		}
		out = append(out, record)
	}
	return out, rows.Err()
}

const selectRecord = `
	SELECT id, scholar_id, specialty_id, cohort_id, kind, status, title, record_date,
	       hours, entry_id, attachments, comment, verified_by, verified_at, created_at
	FROM submission_records
`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRecord(row rowScanner) (*models.Record, error) {
	var (
		rawID, rawScholar, rawSpecialty, rawCohort string
		rawKind, rawStatus                         string
		rawEntry, rawVerifier                      sql.NullString
		attachments                                pq.StringArray
	)
	record := &models.Record{}
	err := row.Scan(&rawID, &rawScholar, &rawSpecialty, &rawCohort, &rawKind, &rawStatus,
		&record.Title, &record.Date, &record.Hours, &rawEntry, &attachments,
		&record.Comment, &rawVerifier, &record.VerifiedAt, &record.CreatedAt)
	if err != nil {
		return nil, err
	}
	record.Attachments = attachments
	if record.ID, err = id.ParseRecordID(rawID); err != nil {
		return nil, err
	}
	if record.ScholarID, err = id.ParseScholarID(rawScholar); err != nil {
		return nil, err
	}
	if record.SpecialtyID, err = id.ParseSpecialtyID(rawSpecialty); err != nil {
		return nil, err
	}
	if record.CohortID, err = id.ParseCohortID(rawCohort); err != nil {
		return nil, err
	}
	if record.Kind, err = models.ParseKind(rawKind); err != nil {
		return nil, err
	}
	if record.Status, err = models.ParseStatus(rawStatus); err != nil {
		return nil, err
	}
	if rawEntry.Valid {
		if record.EntryID, err = id.ParseEntryID(rawEntry.String); err != nil {
			return nil, err
		}
	}
	if rawVerifier.Valid {
		verifier, err := id.ParseUserID(rawVerifier.String)
		if err != nil {
			return nil, err
		}
		record.VerifiedBy = &verifier
	}
	return record, nil
}

func nullableID(isNil bool, s string) any {
	if isNil {
		return nil
	}
	return s
}

func nullableUser(userID *id.UserID) any {
	if userID == nil {
		return nil
	}
	return userID.String()
}
