package models

import (
	id "resimed/pkg/domain"
	dErrors "resimed/pkg/domain-errors"
)

// Role classifies an authenticated account.
//
// Invariants:
//   - admin_readonly passes every visibility check and fails every mutation
//     check; the split is read/write, not visibility.
//   - becado is never a verifier and is always scoped to self.
type Role string

const (
	RoleAdmin         Role = "admin"
	RoleAdminReadOnly Role = "admin_readonly"
	RoleJefe          Role = "jefe_especialidad"
	RoleDoctor        Role = "doctor"
	RoleScholar       Role = "becado"
)

var validRoles = map[Role]struct{}{
	RoleAdmin:         {},
	RoleAdminReadOnly: {},
	RoleJefe:          {},
	RoleDoctor:        {},
	RoleScholar:       {},
}

// ParseRole validates and returns a Role.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if _, ok := validRoles[r]; !ok {
		return "", dErrors.Newf(dErrors.CodeInvalidInput, "unknown role: %s", s)
	}
	return r, nil
}

// Actor is the authenticated identity evaluated by the scoper. ScholarID is
// set only for becado sessions.
type Actor struct {
	UserID    id.UserID
	Role      Role
	ScholarID id.ScholarID
}

// IsAdmin reports full-access administrators. Read-only admins are excluded;
// they share visibility but not mutation rights.
func (a Actor) IsAdmin() bool { return a.Role == RoleAdmin }

// HasAdminVisibility reports unrestricted visibility across specialties.
func (a Actor) HasAdminVisibility() bool {
	return a.Role == RoleAdmin || a.Role == RoleAdminReadOnly
}
