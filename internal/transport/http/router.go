// Package httptransport is the thin HTTP layer. Handlers decode, delegate to
// domain services and encode; business rules never live here.
package httptransport

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	authzmodels "resimed/internal/authz/models"
	"resimed/internal/platform/middleware"
	"resimed/pkg/platform/httputil"
	"resimed/pkg/requestcontext"
)

// Handler bundles the domain services behind the HTTP surface.
type Handler struct {
	cohorts     CohortService
	catalog     CatalogService
	scholars    ScholarService
	submissions SubmissionService
	progress    ProgressService
	grants      GrantService
	scope       ScopeService
	logger      *slog.Logger
}

func NewHandler(cohorts CohortService, catalog CatalogService, scholars ScholarService,
	submissions SubmissionService, progress ProgressService, grants GrantService,
	scope ScopeService, logger *slog.Logger) *Handler {
	return &Handler{
		cohorts:     cohorts,
		catalog:     catalog,
		scholars:    scholars,
		submissions: submissions,
		progress:    progress,
		grants:      grants,
		scope:       scope,
		logger:      logger,
	}
}

// NewRouter wires the full route tree. Everything except health and metrics
// sits behind bearer authentication.
func NewRouter(h *Handler, validator middleware.JWTValidator, registry *prometheus.Registry, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		httputil.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(validator, logger))

		r.Post("/specialties", h.handleCreateSpecialty)
		r.Get("/specialties", h.handleListSpecialties)
		r.Post("/specialties/{specialtyID}/cohorts", h.handleCreateCohort)
		r.Get("/specialties/{specialtyID}/cohorts", h.handleListCohorts)
		r.Get("/cohorts/{cohortID}", h.handleGetCohort)
		r.Put("/cohorts/{cohortID}/dates", h.handleUpdateCohortDates)
		r.Get("/me/cohorts", h.handleVisibleCohorts)

		r.Get("/cohorts/{cohortID}/catalog", h.handleListCatalog)
		r.Post("/cohorts/{cohortID}/catalog", h.handleCreateEntry)
		r.Post("/cohorts/{cohortID}/catalog/copy", h.handleCopyCatalog)
		r.Put("/catalog/{entryID}", h.handleUpdateEntry)
		r.Delete("/catalog/{entryID}", h.handleDeleteEntry)

		r.Post("/scholars", h.handleRegisterScholar)
		r.Get("/scholars/{scholarID}", h.handleGetScholar)
		r.Post("/scholars/{scholarID}/enrollments", h.handleEnroll)
		r.Get("/scholars/{scholarID}/memberships", h.handleListMemberships)

		r.Post("/scholars/{scholarID}/submissions", h.handleSubmit)
		r.Get("/scholars/{scholarID}/submissions", h.handleListSubmissions)
		r.Get("/records/{recordID}", h.handleGetRecord)
		r.Post("/records/{recordID}/verify", h.handleVerify)

		r.Get("/scholars/{scholarID}/progress", h.handleProgress)

		r.Post("/grants/jefe", h.handleGrantJefe)
		r.Delete("/grants/jefe", h.handleRevokeJefe)
		r.Post("/grants/doctor", h.handleGrantDoctor)
		r.Delete("/grants/doctor", h.handleRevokeDoctor)
	})

	return r
}

// actorFrom rebuilds the authenticated actor from context values set by the
// auth middleware.
func actorFrom(ctx context.Context) (authzmodels.Actor, error) {
	userID := requestcontext.UserID(ctx)
	if userID.IsNil() {
		return authzmodels.Actor{}, errUnauthenticated()
	}
	role, err := authzmodels.ParseRole(requestcontext.Role(ctx))
	if err != nil {
		return authzmodels.Actor{}, err
	}
	return authzmodels.Actor{
		UserID:    userID,
		Role:      role,
		ScholarID: requestcontext.ScholarID(ctx),
	}, nil
}
