// Package domain holds the typed identifiers shared across modules.
//
// Every entity ID is a distinct UUID-backed type so the compiler rejects
// cross-entity mixups (passing a CohortID where a ScholarID is expected).
// Parse functions enforce the invariant that IDs are valid, non-nil UUIDs
// at trust boundaries; internal code constructs IDs from uuid.New() directly.
package domain

import (
	"github.com/google/uuid"

	dErrors "resimed/pkg/domain-errors"
)

type (
	// UserID identifies an authenticated account (any role).
	UserID uuid.UUID
	// ScholarID identifies a scholar (becado) profile.
	ScholarID uuid.UUID
	// SpecialtyID identifies a medical specialty.
	SpecialtyID uuid.UUID
	// CohortID identifies a yearly intake group within a specialty.
	CohortID uuid.UUID
	// EntryID identifies a procedure catalog entry.
	EntryID uuid.UUID
	// RecordID identifies a submitted record (academic, community or procedure).
	RecordID uuid.UUID
)

func parseUUID(s string) (uuid.UUID, error) {
	if s == "" {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id is required")
	}
	u, err := uuid.Parse(s)
	if err != nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must be a valid UUID")
	}
	if u == uuid.Nil {
		return uuid.Nil, dErrors.New(dErrors.CodeInvalidInput, "id must not be the nil UUID")
	}
	return u, nil
}

func ParseUserID(s string) (UserID, error) {
	u, err := parseUUID(s)
	return UserID(u), err
}

func ParseScholarID(s string) (ScholarID, error) {
	u, err := parseUUID(s)
	return ScholarID(u), err
}

func ParseSpecialtyID(s string) (SpecialtyID, error) {
	u, err := parseUUID(s)
	return SpecialtyID(u), err
}

func ParseCohortID(s string) (CohortID, error) {
	u, err := parseUUID(s)
	return CohortID(u), err
}

func ParseEntryID(s string) (EntryID, error) {
	u, err := parseUUID(s)
	return EntryID(u), err
}

func ParseRecordID(s string) (RecordID, error) {
	u, err := parseUUID(s)
	return RecordID(u), err
}

func (id UserID) String() string      { return uuid.UUID(id).String() }
func (id ScholarID) String() string   { return uuid.UUID(id).String() }
func (id SpecialtyID) String() string { return uuid.UUID(id).String() }
func (id CohortID) String() string    { return uuid.UUID(id).String() }
func (id EntryID) String() string     { return uuid.UUID(id).String() }
func (id RecordID) String() string    { return uuid.UUID(id).String() }

// The IDs cross the HTTP boundary as canonical UUID strings, so each type
// forwards text marshalling to uuid.UUID. Without these, encoding/json would
// render the underlying [16]byte as a number array.
func (id UserID) MarshalText() ([]byte, error)      { return uuid.UUID(id).MarshalText() }
func (id ScholarID) MarshalText() ([]byte, error)   { return uuid.UUID(id).MarshalText() }
func (id SpecialtyID) MarshalText() ([]byte, error) { return uuid.UUID(id).MarshalText() }
func (id CohortID) MarshalText() ([]byte, error)    { return uuid.UUID(id).MarshalText() }
func (id EntryID) MarshalText() ([]byte, error)     { return uuid.UUID(id).MarshalText() }
func (id RecordID) MarshalText() ([]byte, error)    { return uuid.UUID(id).MarshalText() }

func (id *UserID) UnmarshalText(b []byte) error      { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *ScholarID) UnmarshalText(b []byte) error   { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *SpecialtyID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *CohortID) UnmarshalText(b []byte) error    { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *EntryID) UnmarshalText(b []byte) error     { return (*uuid.UUID)(id).UnmarshalText(b) }
func (id *RecordID) UnmarshalText(b []byte) error    { return (*uuid.UUID)(id).UnmarshalText(b) }

func (id UserID) IsNil() bool      { return uuid.UUID(id) == uuid.Nil }
func (id ScholarID) IsNil() bool   { return uuid.UUID(id) == uuid.Nil }
func (id SpecialtyID) IsNil() bool { return uuid.UUID(id) == uuid.Nil }
func (id CohortID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
func (id EntryID) IsNil() bool     { return uuid.UUID(id) == uuid.Nil }
func (id RecordID) IsNil() bool    { return uuid.UUID(id) == uuid.Nil }
