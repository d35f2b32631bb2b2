package httptransport

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	id "resimed/pkg/domain"
	dErrors "resimed/pkg/domain-errors"
	"resimed/pkg/platform/httputil"
)

func errUnauthenticated() error {
	return dErrors.New(dErrors.CodeUnauthorized, "authentication required")
}

type createSpecialtyRequest struct {
	Name        string `json:"name"`
	StartYear   *int   `json:"start_year,omitempty"`
	CohortCount *int   `json:"cohort_count,omitempty"`
}

type createCohortRequest struct {
	Year      int     `json:"year"`
	StartDate *string `json:"start_date,omitempty"`
	EndDate   *string `json:"end_date,omitempty"`
}

type updateCohortDatesRequest struct {
	StartDate *string `json:"start_date,omitempty"`
	EndDate   *string `json:"end_date,omitempty"`
}

func (h *Handler) handleCreateSpecialty(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, err := actorFrom(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.Decode[createSpecialtyRequest](w, r)
	if !ok {
		return
	}

	specialty, err := h.cohorts.CreateSpecialty(ctx, actor, req.Name, req.StartYear, req.CohortCount)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, specialty)
}

func (h *Handler) handleListSpecialties(w http.ResponseWriter, r *http.Request) {
	specialties, err := h.cohorts.ListSpecialties(r.Context())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, specialties)
}

func (h *Handler) handleCreateCohort(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, err := actorFrom(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	specialtyID, err := id.ParseSpecialtyID(chi.URLParam(r, "specialtyID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.Decode[createCohortRequest](w, r)
	if !ok {
		return
	}
	startDate, endDate, err := parseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	cohort, err := h.cohorts.CreateCohort(ctx, actor, specialtyID, req.Year, startDate, endDate)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, cohort)
}

func (h *Handler) handleListCohorts(w http.ResponseWriter, r *http.Request) {
	specialtyID, err := id.ParseSpecialtyID(chi.URLParam(r, "specialtyID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	views, err := h.cohorts.ListCohorts(r.Context(), specialtyID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, views)
}

func (h *Handler) handleGetCohort(w http.ResponseWriter, r *http.Request) {
	cohortID, err := id.ParseCohortID(chi.URLParam(r, "cohortID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	view, err := h.cohorts.GetCohort(r.Context(), cohortID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, view)
}

func (h *Handler) handleUpdateCohortDates(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, err := actorFrom(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	cohortID, err := id.ParseCohortID(chi.URLParam(r, "cohortID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.Decode[updateCohortDatesRequest](w, r)
	if !ok {
		return
	}
	startDate, endDate, err := parseDateRange(req.StartDate, req.EndDate)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	cohort, err := h.cohorts.UpdateCohortDates(ctx, actor, cohortID, startDate, endDate)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, cohort)
}

func (h *Handler) handleVisibleCohorts(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, err := actorFrom(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	visible, err := h.scope.VisibleCohorts(ctx, actor)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	cohortIDs := make([]string, 0, len(visible))
	for cohortID := range visible {
		cohortIDs = append(cohortIDs, cohortID.String())
	}
	httputil.WriteJSON(w, http.StatusOK, map[string][]string{"cohort_ids": cohortIDs})
}

func parseDateRange(startRaw, endRaw *string) (*time.Time, *time.Time, error) {
	var startDate, endDate *time.Time
	if startRaw != nil {
		t, err := id.ParseDate(*startRaw)
		if err != nil {
			return nil, nil, err
		}
		startDate = &t
	}
	if endRaw != nil {
		t, err := id.ParseDate(*endRaw)
		if err != nil {
			return nil, nil, err
		}
		endDate = &t
	}
	return startDate, endDate, nil
}
