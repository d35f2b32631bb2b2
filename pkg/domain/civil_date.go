package domain

import (
	"time"

	dErrors "resimed/pkg/domain-errors"
)

// CivilDate truncates a timestamp to its UTC calendar day. Cohort lifecycle
// comparisons operate at day granularity, so two instants on the same day
// always compare equal regardless of wall-clock time or zone offset.
func CivilDate(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SameDay reports whether two timestamps fall on the same UTC calendar day.
func SameDay(a, b time.Time) bool {
	return CivilDate(a).Equal(CivilDate(b))
}

// ParseDate parses an ISO-8601 calendar date (YYYY-MM-DD) at UTC midnight.
func ParseDate(raw string) (time.Time, error) {
	t, err := time.Parse("2006-01-02", raw)
	if err != nil {
		return time.Time{}, dErrors.Newf(dErrors.CodeInvalidInput, "invalid date %q, want YYYY-MM-DD", raw)
	}
	return t, nil
}
