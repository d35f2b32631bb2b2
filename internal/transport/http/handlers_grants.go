package httptransport

import (
	"net/http"

	id "resimed/pkg/domain"
	dErrors "resimed/pkg/domain-errors"
	"resimed/pkg/platform/httputil"
)

type grantRequest struct {
	UserID      string `json:"user_id"`
	SpecialtyID string `json:"specialty_id"`
	CohortID    string `json:"cohort_id,omitempty"`
}

func (r grantRequest) parse(needCohort bool) (id.UserID, id.SpecialtyID, id.CohortID, error) {
	userID, err := id.ParseUserID(r.UserID)
	if err != nil {
		return id.UserID{}, id.SpecialtyID{}, id.CohortID{}, err
	}
	specialtyID, err := id.ParseSpecialtyID(r.SpecialtyID)
	if err != nil {
		return id.UserID{}, id.SpecialtyID{}, id.CohortID{}, err
	}
	var cohortID id.CohortID
	if needCohort {
		if r.CohortID == "" {
			return id.UserID{}, id.SpecialtyID{}, id.CohortID{},
				dErrors.New(dErrors.CodeValidation, "doctor grants require a cohort_id")
		}
		if cohortID, err = id.ParseCohortID(r.CohortID); err != nil {
			return id.UserID{}, id.SpecialtyID{}, id.CohortID{}, err
		}
	}
	return userID, specialtyID, cohortID, nil
}

func (h *Handler) handleGrantJefe(w http.ResponseWriter, r *http.Request) {
	h.handleGrantChange(w, r, func(req grantRequest) error {
		actor, err := actorFrom(r.Context())
		if err != nil {
			return err
		}
		userID, specialtyID, _, err := req.parse(false)
		if err != nil {
			return err
		}
		return h.grants.GrantJefe(r.Context(), actor, userID, specialtyID)
	})
}

func (h *Handler) handleRevokeJefe(w http.ResponseWriter, r *http.Request) {
	h.handleGrantChange(w, r, func(req grantRequest) error {
		actor, err := actorFrom(r.Context())
		if err != nil {
			return err
		}
		userID, specialtyID, _, err := req.parse(false)
		if err != nil {
			return err
		}
		return h.grants.RevokeJefe(r.Context(), actor, userID, specialtyID)
	})
}

func (h *Handler) handleGrantDoctor(w http.ResponseWriter, r *http.Request) {
	h.handleGrantChange(w, r, func(req grantRequest) error {
		actor, err := actorFrom(r.Context())
		if err != nil {
			return err
		}
		userID, specialtyID, cohortID, err := req.parse(true)
		if err != nil {
			return err
		}
		return h.grants.GrantDoctor(r.Context(), actor, userID, specialtyID, cohortID)
	})
}

func (h *Handler) handleRevokeDoctor(w http.ResponseWriter, r *http.Request) {
	h.handleGrantChange(w, r, func(req grantRequest) error {
		actor, err := actorFrom(r.Context())
		if err != nil {
			return err
		}
		userID, specialtyID, cohortID, err := req.parse(true)
		if err != nil {
			return err
		}
		return h.grants.RevokeDoctor(r.Context(), actor, userID, specialtyID, cohortID)
	})
}

func (h *Handler) handleGrantChange(w http.ResponseWriter, r *http.Request, apply func(grantRequest) error) {
	req, ok := httputil.Decode[grantRequest](w, r)
	if !ok {
		return
	}
	if err := apply(req); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
