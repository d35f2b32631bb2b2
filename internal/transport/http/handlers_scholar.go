package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	id "resimed/pkg/domain"
	"resimed/pkg/platform/httputil"
)

type registerScholarRequest struct {
	UserID   string `json:"user_id"`
	FullName string `json:"full_name"`
}

type enrollRequest struct {
	CohortID string `json:"cohort_id"`
}

func (h *Handler) handleRegisterScholar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, err := actorFrom(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.Decode[registerScholarRequest](w, r)
	if !ok {
		return
	}
	userID, err := id.ParseUserID(req.UserID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	scholar, err := h.scholars.Register(ctx, actor, userID, req.FullName)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, scholar)
}

func (h *Handler) handleGetScholar(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, err := actorFrom(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	scholarID, err := id.ParseScholarID(chi.URLParam(r, "scholarID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	scholar, err := h.scholars.Get(ctx, actor, scholarID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, scholar)
}

func (h *Handler) handleEnroll(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, err := actorFrom(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	scholarID, err := id.ParseScholarID(chi.URLParam(r, "scholarID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.Decode[enrollRequest](w, r)
	if !ok {
		return
	}
	cohortID, err := id.ParseCohortID(req.CohortID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	membership, err := h.scholars.Enroll(ctx, actor, scholarID, cohortID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, membership)
}

func (h *Handler) handleListMemberships(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, err := actorFrom(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	scholarID, err := id.ParseScholarID(chi.URLParam(r, "scholarID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	history, err := h.scholars.History(ctx, actor, scholarID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, history)
}
