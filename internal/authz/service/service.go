// Package service manages authorization grants. Changing grants is itself a
// privileged, audited action.
package service

import (
	"context"
	"log/slog"

	"resimed/internal/audit"
	"resimed/internal/authz/models"
	id "resimed/pkg/domain"
	dErrors "resimed/pkg/domain-errors"
)

// Store is the persistence boundary for grants. Grant and Revoke are
// idempotent: repeating either is a no-op success.
type Store interface {
	GrantJefe(ctx context.Context, userID id.UserID, specialtyID id.SpecialtyID) error
	RevokeJefe(ctx context.Context, userID id.UserID, specialtyID id.SpecialtyID) error
	JefeSpecialties(ctx context.Context, userID id.UserID) ([]id.SpecialtyID, error)
	GrantDoctor(ctx context.Context, userID id.UserID, specialtyID id.SpecialtyID, cohortID id.CohortID) error
	RevokeDoctor(ctx context.Context, userID id.UserID, specialtyID id.SpecialtyID, cohortID id.CohortID) error
	DoctorGrants(ctx context.Context, userID id.UserID) ([]*models.DoctorGrant, error)
}

type Service struct {
	store   Store
	auditor audit.Publisher
	logger  *slog.Logger
}

func New(store Store, auditor audit.Publisher, logger *slog.Logger) *Service {
	return &Service{store: store, auditor: auditor, logger: logger}
}

// GrantJefe associates a user with a specialty as jefe. Admin only.
func (s *Service) GrantJefe(ctx context.Context, actor models.Actor, userID id.UserID, specialtyID id.SpecialtyID) error {
	if !actor.IsAdmin() {
		return dErrors.New(dErrors.CodeForbidden, "only administrators may change grants")
	}
	if err := s.store.GrantJefe(ctx, userID, specialtyID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store grant")
	}
	s.emitChange(ctx, actor, "jefe_granted", userID, specialtyID.String())
	return nil
}

// RevokeJefe removes a jefe grant. Revoking a missing grant succeeds.
func (s *Service) RevokeJefe(ctx context.Context, actor models.Actor, userID id.UserID, specialtyID id.SpecialtyID) error {
	if !actor.IsAdmin() {
		return dErrors.New(dErrors.CodeForbidden, "only administrators may change grants")
	}
	if err := s.store.RevokeJefe(ctx, userID, specialtyID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke grant")
	}
	s.emitChange(ctx, actor, "jefe_revoked", userID, specialtyID.String())
	return nil
}

// GrantDoctor associates a doctor with one cohort under one specialty. The
// specialty disambiguates cohorts that share a year and is never inferred.
func (s *Service) GrantDoctor(ctx context.Context, actor models.Actor, userID id.UserID, specialtyID id.SpecialtyID, cohortID id.CohortID) error {
	if !actor.IsAdmin() {
		return dErrors.New(dErrors.CodeForbidden, "only administrators may change grants")
	}
	if err := s.store.GrantDoctor(ctx, userID, specialtyID, cohortID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to store grant")
	}
	s.emitChange(ctx, actor, "doctor_granted", userID, specialtyID.String()+"/"+cohortID.String())
	return nil
}

// RevokeDoctor removes a doctor grant. Revoking a missing grant succeeds.
func (s *Service) RevokeDoctor(ctx context.Context, actor models.Actor, userID id.UserID, specialtyID id.SpecialtyID, cohortID id.CohortID) error {
	if !actor.IsAdmin() {
		return dErrors.New(dErrors.CodeForbidden, "only administrators may change grants")
	}
	if err := s.store.RevokeDoctor(ctx, userID, specialtyID, cohortID); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "failed to revoke grant")
	}
	s.emitChange(ctx, actor, "doctor_revoked", userID, specialtyID.String()+"/"+cohortID.String())
	return nil
}

func (s *Service) emitChange(ctx context.Context, actor models.Actor, change string, subject id.UserID, scope string) {
	if err := s.auditor.Emit(ctx, audit.Event{
		Kind:    audit.KindGrantChanged,
		ActorID: actor.UserID,
		Detail: map[string]string{
			"change":  change,
			"subject": subject.String(),
			"scope":   scope,
		},
	}); err != nil {
		s.logger.WarnContext(ctx, "failed to emit grant audit event", "error", err)
	}
}
