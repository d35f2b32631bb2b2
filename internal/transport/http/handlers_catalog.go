package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	catalogservice "resimed/internal/catalog/service"
	id "resimed/pkg/domain"
	"resimed/pkg/platform/httputil"
)

type entryRequest struct {
	Name        string `json:"name"`
	Category    string `json:"category,omitempty"`
	TargetCount int    `json:"target_count"`
	Description string `json:"description,omitempty"`
}

func (r entryRequest) toInput() catalogservice.EntryInput {
	return catalogservice.EntryInput{
		Name:        r.Name,
		Category:    r.Category,
		TargetCount: r.TargetCount,
		Description: r.Description,
	}
}

type copyCatalogRequest struct {
	SourceCohortID string `json:"source_cohort_id"`
}

func (h *Handler) handleListCatalog(w http.ResponseWriter, r *http.Request) {
	cohortID, err := id.ParseCohortID(chi.URLParam(r, "cohortID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	entries, err := h.catalog.ListByCohort(r.Context(), cohortID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, entries)
}

func (h *Handler) handleCreateEntry(w http.ResponseWriter, r *http.Request) {
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
	req, ok := httputil.Decode[entryRequest](w, r)
	if !ok {
		return
	}

	entry, err := h.catalog.CreateEntry(ctx, actor, cohortID, req.toInput())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, entry)
}

func (h *Handler) handleUpdateEntry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, err := actorFrom(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	entryID, err := id.ParseEntryID(chi.URLParam(r, "entryID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.Decode[entryRequest](w, r)
	if !ok {
		return
	}

	entry, err := h.catalog.UpdateEntry(ctx, actor, entryID, req.toInput())
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, entry)
}

func (h *Handler) handleDeleteEntry(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, err := actorFrom(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	entryID, err := id.ParseEntryID(chi.URLParam(r, "entryID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if err := h.catalog.DeleteEntry(ctx, actor, entryID); err != nil {
		httputil.WriteError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) handleCopyCatalog(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, err := actorFrom(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	targetCohortID, err := id.ParseCohortID(chi.URLParam(r, "cohortID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.Decode[copyCatalogRequest](w, r)
	if !ok {
		return
	}
	sourceCohortID, err := id.ParseCohortID(req.SourceCohortID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	result, err := h.catalog.CopyCatalog(ctx, actor, sourceCohortID, targetCohortID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, result)
}
