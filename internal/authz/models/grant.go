package models

import (
	"time"

	id "resimed/pkg/domain"
)

// JefeGrant associates a jefe de especialidad with one specialty. The
// relation is many-to-many: one jefe may administer several specialties and
// one specialty may have several jefes.
type JefeGrant struct {
	UserID      id.UserID
	SpecialtyID id.SpecialtyID
	GrantedAt   time.Time
}

// DoctorGrant associates a doctor with one cohort, scoped by specialty. The
// specialty disambiguates cohorts that share a year across specialties; a
// grant for a cohort under specialty A never implies the same cohort
// reinterpreted under specialty B.
type DoctorGrant struct {
	UserID      id.UserID
	SpecialtyID id.SpecialtyID
	CohortID    id.CohortID
	GrantedAt   time.Time
}
