package httptransport

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	"resimed/internal/audit"
	"resimed/internal/authz/scoper"
	authzservice "resimed/internal/authz/service"
	authzstore "resimed/internal/authz/store"
	catalogmodels "resimed/internal/catalog/models"
	catalogservice "resimed/internal/catalog/service"
	catalogstore "resimed/internal/catalog/store"
	cohortservice "resimed/internal/cohort/service"
	cohortstore "resimed/internal/cohort/store"
	jwttoken "resimed/internal/jwt_token"
	"resimed/internal/platform/logger"
	progressmetrics "resimed/internal/progress/metrics"
	progressservice "resimed/internal/progress/service"
	scholarservice "resimed/internal/scholar/service"
	scholarstore "resimed/internal/scholar/store"
	submissionmetrics "resimed/internal/submission/metrics"
	submissionmodels "resimed/internal/submission/models"
	submissionservice "resimed/internal/submission/service"
	submissionstore "resimed/internal/submission/store"
	id "resimed/pkg/domain"
)

// RouterSuite drives the full stack over HTTP with in-memory stores: real
// services, real scoper, real JWT validation. Only Redis and Kafka are absent.
type RouterSuite struct {
	suite.Suite
	router http.Handler
	jwt    *jwttoken.JWTService
	grants *authzstore.InMemory
}

func TestRouterSuite(t *testing.T) {
	suite.Run(t, new(RouterSuite))
}

type submissionReader struct {
	store submissionservice.Store
}

func (r submissionReader) AllByScholar(ctx context.Context, scholarID id.ScholarID) ([]*submissionmodels.Record, error) {
	return r.store.ListByScholar(ctx, scholarID, submissionstore.Filter{})
}

type entryFinder struct {
	store catalogservice.Store
}

func (f entryFinder) FindEntry(ctx context.Context, entryID id.EntryID) (*catalogmodels.Entry, error) {
	return f.store.FindByID(ctx, entryID)
}

func (s *RouterSuite) SetupTest() {
	log := logger.New()
	registry := prometheus.NewRegistry()

	cohorts := cohortstore.NewInMemory()
	catalog := catalogstore.NewInMemory()
	scholars := scholarstore.NewInMemory()
	s.grants = authzstore.NewInMemory()
	submissions := submissionstore.NewInMemory()

	auditor := audit.NewChannelPublisher(64, log)
	scope := scoper.New(s.grants, cohorts, scholars)

	cohortSvc := cohortservice.New(cohorts, scope, log)
	catalogSvc := catalogservice.New(catalog, cohorts, scope, auditor, log)
	scholarSvc := scholarservice.New(scholars, cohorts, scope, log)
	grantSvc := authzservice.New(s.grants, auditor, log)
	progressSvc := progressservice.New(scholars, catalog, submissionReader{submissions},
		scope, nil, progressmetrics.New(registry), log)
	submissionSvc := submissionservice.New(submissions, scholars, entryFinder{catalog},
		scope, progressSvc, auditor, submissionmetrics.New(registry), log)

	s.jwt = jwttoken.NewJWTService("router-test-key", "resimed", "resimed-api")
	handler := NewHandler(cohortSvc, catalogSvc, scholarSvc, submissionSvc, progressSvc, grantSvc, scope, log)
	s.router = NewRouter(handler, s.jwt, registry, log)
}

func (s *RouterSuite) token(role string, scholarID string) string {
	token, err := s.jwt.GenerateAccessToken(uuid.New(), role, scholarID, time.Hour)
	s.Require().NoError(err)
	return token
}

func (s *RouterSuite) do(method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		s.Require().NoError(json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func (s *RouterSuite) decode(rec *httptest.ResponseRecorder, out any) {
	s.Require().NoError(json.NewDecoder(rec.Body).Decode(out))
}

func (s *RouterSuite) TestHealthAndAuthBoundary() {
	s.Equal(http.StatusOK, s.do(http.MethodGet, "/healthz", "", nil).Code)
	s.Equal(http.StatusOK, s.do(http.MethodGet, "/metrics", "", nil).Code)
	s.Equal(http.StatusUnauthorized, s.do(http.MethodGet, "/specialties", "", nil).Code)
	s.Equal(http.StatusUnauthorized, s.do(http.MethodGet, "/specialties", "not-a-token", nil).Code)
}

// The whole compliance flow over the wire: specialty, cohort, catalog,
// scholar, submission, verification, progress.
func (s *RouterSuite) TestComplianceFlow() {
	admin := s.token("admin", "")

	var specialty struct {
		ID string `json:"id"`
	}
	rec := s.do(http.MethodPost, "/specialties", admin, map[string]any{"name": "Cirugía General"})
	s.Require().Equal(http.StatusCreated, rec.Code)
	s.decode(rec, &specialty)

	var cohort struct {
		ID string `json:"id"`
	}
	rec = s.do(http.MethodPost, "/specialties/"+specialty.ID+"/cohorts", admin,
		map[string]any{"year": 2024, "start_date": "2024-03-01", "end_date": "2024-12-01"})
	s.Require().Equal(http.StatusCreated, rec.Code)
	s.decode(rec, &cohort)

	var entry struct {
		ID string `json:"id"`
	}
	rec = s.do(http.MethodPost, "/cohorts/"+cohort.ID+"/catalog", admin,
		map[string]any{"name": "apendicectomía", "category": "Cirugía", "target_count": 2})
	s.Require().Equal(http.StatusCreated, rec.Code)
	s.decode(rec, &entry)

	var scholar struct {
		ID string `json:"id"`
	}
	rec = s.do(http.MethodPost, "/scholars", admin,
		map[string]any{"user_id": uuid.NewString(), "full_name": "Ana Fuentes"})
	s.Require().Equal(http.StatusCreated, rec.Code)
	s.decode(rec, &scholar)

	rec = s.do(http.MethodPost, "/scholars/"+scholar.ID+"/enrollments", admin,
		map[string]any{"cohort_id": cohort.ID})
	s.Require().Equal(http.StatusCreated, rec.Code)

	becado := s.token("becado", scholar.ID)
	var record struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	rec = s.do(http.MethodPost, "/scholars/"+scholar.ID+"/submissions", becado, map[string]any{
		"kind": "procedure_record", "title": "apendicectomía", "date": "2024-06-15", "entry_id": entry.ID,
	})
	s.Require().Equal(http.StatusCreated, rec.Code)
	s.decode(rec, &record)
	s.Equal("pending", record.Status)

	// A doctor without a grant on this cohort may not verify.
	rec = s.do(http.MethodPost, "/records/"+record.ID+"/verify", s.token("doctor", ""),
		map[string]any{"status": "approved"})
	s.Equal(http.StatusForbidden, rec.Code)

	rec = s.do(http.MethodPost, "/records/"+record.ID+"/verify", admin,
		map[string]any{"status": "approved", "comment": "bien documentado"})
	s.Require().Equal(http.StatusOK, rec.Code)
	s.decode(rec, &record)
	s.Equal("approved", record.Status)

	// Second verification conflicts.
	rec = s.do(http.MethodPost, "/records/"+record.ID+"/verify", admin,
		map[string]any{"status": "rejected"})
	s.Equal(http.StatusConflict, rec.Code)

	var report struct {
		Categories []struct {
			Category string `json:"category"`
			Entries  []struct {
				ApprovedCount int  `json:"approved_count"`
				TargetCount   int  `json:"target_count"`
				Complete      bool `json:"complete"`
			} `json:"entries"`
		} `json:"procedure_progress"`
	}
	rec = s.do(http.MethodGet, "/scholars/"+scholar.ID+"/progress", becado, nil)
	s.Require().Equal(http.StatusOK, rec.Code)
	s.decode(rec, &report)
	s.Require().Len(report.Categories, 1)
	s.Require().Len(report.Categories[0].Entries, 1)
	s.Equal(1, report.Categories[0].Entries[0].ApprovedCount)
	s.Equal(2, report.Categories[0].Entries[0].TargetCount)
	s.False(report.Categories[0].Entries[0].Complete)
}

func (s *RouterSuite) TestGrantGatesVerification() {
	admin := s.token("admin", "")

	var specialty struct {
		ID string `json:"id"`
	}
	rec := s.do(http.MethodPost, "/specialties", admin, map[string]any{"name": "Pediatría"})
	s.Require().Equal(http.StatusCreated, rec.Code)
	s.decode(rec, &specialty)

	var cohort struct {
		ID string `json:"id"`
	}
	rec = s.do(http.MethodPost, "/specialties/"+specialty.ID+"/cohorts", admin, map[string]any{"year": 2024})
	s.Require().Equal(http.StatusCreated, rec.Code)
	s.decode(rec, &cohort)

	doctorUser := uuid.NewString()
	rec = s.do(http.MethodPost, "/grants/doctor", admin, map[string]any{
		"user_id": doctorUser, "specialty_id": specialty.ID, "cohort_id": cohort.ID,
	})
	s.Equal(http.StatusNoContent, rec.Code)

	// A non-admin may not manage grants.
	rec = s.do(http.MethodPost, "/grants/jefe", s.token("doctor", ""), map[string]any{
		"user_id": doctorUser, "specialty_id": specialty.ID,
	})
	s.Equal(http.StatusForbidden, rec.Code)

	// Doctor grants without a cohort are rejected before reaching the service.
	rec = s.do(http.MethodPost, "/grants/doctor", admin, map[string]any{
		"user_id": doctorUser, "specialty_id": specialty.ID,
	})
	s.Equal(http.StatusBadRequest, rec.Code)
}

func (s *RouterSuite) TestCrossSpecialtyCopyOverHTTP() {
	admin := s.token("admin", "")

	makeCohort := func(name string) (specialtyID, cohortID string) {
		var specialty, cohort struct {
			ID string `json:"id"`
		}
		rec := s.do(http.MethodPost, "/specialties", admin, map[string]any{"name": name})
		s.Require().Equal(http.StatusCreated, rec.Code)
		s.decode(rec, &specialty)
		rec = s.do(http.MethodPost, "/specialties/"+specialty.ID+"/cohorts", admin, map[string]any{"year": 2024})
		s.Require().Equal(http.StatusCreated, rec.Code)
		s.decode(rec, &cohort)
		return specialty.ID, cohort.ID
	}

	_, source := makeCohort("Cirugía General")
	_, foreign := makeCohort("Pediatría")

	rec := s.do(http.MethodPost, "/cohorts/"+source+"/catalog", admin,
		map[string]any{"name": "sutura", "target_count": 1})
	s.Require().Equal(http.StatusCreated, rec.Code)

	rec = s.do(http.MethodPost, "/cohorts/"+foreign+"/catalog/copy", admin,
		map[string]any{"source_cohort_id": source})
	s.Equal(http.StatusUnprocessableEntity, rec.Code)

	var body struct {
		Error string `json:"error"`
	}
	s.decode(rec, &body)
	s.Equal("cross_specialty_copy", body.Error)
}

func (s *RouterSuite) TestScholarCannotReachOthers() {
	admin := s.token("admin", "")

	var scholar struct {
		ID string `json:"id"`
	}
	rec := s.do(http.MethodPost, "/scholars", admin,
		map[string]any{"user_id": uuid.NewString(), "full_name": "Ana Fuentes"})
	s.Require().Equal(http.StatusCreated, rec.Code)
	s.decode(rec, &scholar)

	stranger := s.token("becado", uuid.NewString())
	s.Equal(http.StatusForbidden, s.do(http.MethodGet, "/scholars/"+scholar.ID, stranger, nil).Code)
	s.Equal(http.StatusForbidden, s.do(http.MethodGet, fmt.Sprintf("/scholars/%s/progress", scholar.ID), stranger, nil).Code)
}
