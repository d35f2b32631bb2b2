package httptransport

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	submissionmodels "resimed/internal/submission/models"
	submissionservice "resimed/internal/submission/service"
	submissionstore "resimed/internal/submission/store"
	id "resimed/pkg/domain"
	"resimed/pkg/platform/httputil"
)

type submitRequest struct {
	Kind        string   `json:"kind"`
	Title       string   `json:"title"`
	Date        string   `json:"date"`
	Hours       float64  `json:"hours,omitempty"`
	EntryID     *string  `json:"entry_id,omitempty"`
	Attachments []string `json:"attachments,omitempty"`
}

type verifyRequest struct {
	Status  string `json:"status"`
	Comment string `json:"comment,omitempty"`
}

func (h *Handler) handleSubmit(w http.ResponseWriter, r *http.Request) {
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
	req, ok := httputil.Decode[submitRequest](w, r)
	if !ok {
		return
	}
	kind, err := submissionmodels.ParseKind(req.Kind)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	input := submissionservice.SubmitInput{
		Title:       req.Title,
		Date:        req.Date,
		Hours:       req.Hours,
		Attachments: req.Attachments,
	}
	if req.EntryID != nil {
		entryID, err := id.ParseEntryID(*req.EntryID)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		input.EntryID = &entryID
	}

	var record *submissionmodels.Record
	switch kind {
	case submissionmodels.KindAcademicActivity:
		record, err = h.submissions.SubmitAcademic(ctx, actor, scholarID, input)
	case submissionmodels.KindCommunityActivity:
		record, err = h.submissions.SubmitCommunity(ctx, actor, scholarID, input)
	case submissionmodels.KindProcedureRecord:
		record, err = h.submissions.SubmitProcedure(ctx, actor, scholarID, input)
	}
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusCreated, record)
}

func (h *Handler) handleListSubmissions(w http.ResponseWriter, r *http.Request) {
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

	filter := submissionstore.Filter{}
	if raw := r.URL.Query().Get("kind"); raw != "" {
		kind, err := submissionmodels.ParseKind(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		filter.Kind = &kind
	}
	if raw := r.URL.Query().Get("status"); raw != "" {
		status, err := submissionmodels.ParseStatus(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		filter.Status = &status
	}
	if raw := r.URL.Query().Get("cohort_id"); raw != "" {
		cohortID, err := id.ParseCohortID(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		filter.CohortID = &cohortID
	}

	records, err := h.submissions.ListByScholar(ctx, actor, scholarID, filter)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	if records == nil {
		records = []*submissionmodels.Record{}
	}
	httputil.WriteJSON(w, http.StatusOK, records)
}

func (h *Handler) handleGetRecord(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, err := actorFrom(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	recordID, err := id.ParseRecordID(chi.URLParam(r, "recordID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	record, err := h.submissions.GetRecord(ctx, actor, recordID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, record)
}

// handleVerify responds with the authoritative updated record so clients can
// refresh their state from the response rather than assuming success.
func (h *Handler) handleVerify(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	actor, err := actorFrom(ctx)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	recordID, err := id.ParseRecordID(chi.URLParam(r, "recordID"))
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	req, ok := httputil.Decode[verifyRequest](w, r)
	if !ok {
		return
	}
	target, err := submissionmodels.ParseStatus(req.Status)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}

	record, err := h.submissions.Verify(ctx, actor, recordID, target, req.Comment)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, record)
}

func (h *Handler) handleProgress(w http.ResponseWriter, r *http.Request) {
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

	var cohortID *id.CohortID
	if raw := r.URL.Query().Get("cohort_id"); raw != "" {
		parsed, err := id.ParseCohortID(raw)
		if err != nil {
			httputil.WriteError(w, err)
			return
		}
		cohortID = &parsed
	}

	report, err := h.progress.ComputeProgress(ctx, actor, scholarID, cohortID)
	if err != nil {
		httputil.WriteError(w, err)
		return
	}
	httputil.WriteJSON(w, http.StatusOK, report)
}
