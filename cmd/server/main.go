// Command server wires the compliance engine behind its HTTP surface.
// Business logic lives in the internal service packages; main only builds
// dependencies and manages the process lifecycle.
package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

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
	"resimed/internal/platform/config"
	"resimed/internal/platform/httpserver"
	"resimed/internal/platform/logger"
	platformredis "resimed/internal/platform/redis"
	progresscache "resimed/internal/progress/cache"
	progressmetrics "resimed/internal/progress/metrics"
	progressservice "resimed/internal/progress/service"
	scholarservice "resimed/internal/scholar/service"
	scholarstore "resimed/internal/scholar/store"
	submissionmetrics "resimed/internal/submission/metrics"
	submissionmodels "resimed/internal/submission/models"
	submissionservice "resimed/internal/submission/service"
	submissionstore "resimed/internal/submission/store"
	httptransport "resimed/internal/transport/http"
	id "resimed/pkg/domain"
)

func main() {
	cfg := config.FromEnv()
	log := logger.New()

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector())
	registry.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	// Stores: PostgreSQL when configured, in-memory otherwise.
	var (
		cohortSt     cohortservice.Store
		catalogSt    catalogservice.Store
		scholarSt    scholarStore
		grantSt      authzservice.Store
		submissionSt submissionservice.Store
		cohortDir    scoper.CohortDirectory
		scholarDir   scoper.ScholarDirectory
	)
	if cfg.PostgresDSN != "" {
		db, err := sql.Open("postgres", cfg.PostgresDSN)
		if err != nil {
			log.Error("failed to open postgres", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		if err := db.Ping(); err != nil {
			log.Error("postgres unreachable", "error", err)
			os.Exit(1)
		}
		cohorts := cohortstore.NewPostgres(db)
		scholars := scholarstore.NewPostgres(db)
		cohortSt, catalogSt = cohorts, catalogstore.NewPostgres(db)
		scholarSt, grantSt = scholars, authzstore.NewPostgres(db)
		submissionSt = submissionstore.NewPostgres(db)
		cohortDir, scholarDir = cohorts, scholars
	} else {
		cohorts := cohortstore.NewInMemory()
		scholars := scholarstore.NewInMemory()
		cohortSt, catalogSt = cohorts, catalogstore.NewInMemory()
		scholarSt, grantSt = scholars, authzstore.NewInMemory()
		submissionSt = submissionstore.NewInMemory()
		cohortDir, scholarDir = cohorts, scholars
	}

	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		log.Error("failed to connect to redis", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
	} else {
		log.Info("redis not configured, progress reports are uncached")
	}

	// Audit pipeline: channel publisher feeding a store worker, mirrored to
	// Kafka when brokers are configured.
	auditStore := audit.NewInMemoryStore()
	channelPub := audit.NewChannelPublisher(1024, log)
	var auditor audit.Publisher = channelPub
	if len(cfg.KafkaBrokers) > 0 {
		kafkaPub, err := audit.NewKafkaPublisher(cfg.KafkaBrokers, cfg.AuditTopic, log)
		if err != nil {
			log.Error("failed to build kafka publisher", "error", err)
			os.Exit(1)
		}
		defer kafkaPub.Close()
		auditor = audit.Fanout{channelPub, kafkaPub}
	}

	scope := scoper.New(grantSt, cohortDir, scholarDir)

	cohortSvc := cohortservice.New(cohortSt, scope, log)
	catalogSvc := catalogservice.New(catalogSt, cohortSt, scope, auditor, log)
	scholarSvc := scholarservice.New(scholarSt, cohortSt, scope, log)
	grantSvc := authzservice.New(grantSt, auditor, log)

	progressSvc := progressservice.New(
		scholarSt,
		catalogSt,
		submissionReader{submissionSt},
		scope,
		progresscache.New(redisClient, config.ProgressCacheTTL),
		progressmetrics.New(registry),
		log,
	)

	submissionSvc := submissionservice.New(
		submissionSt,
		scholarSt,
		entryFinder{catalogSt},
		scope,
		progressSvc,
		auditor,
		submissionmetrics.New(registry),
		log,
	)

	jwtSvc := jwttoken.NewJWTService(cfg.JWTSigningKey, "resimed", "resimed-api")
	handler := httptransport.NewHandler(cohortSvc, catalogSvc, scholarSvc, submissionSvc, progressSvc, grantSvc, scope, log)
	router := httptransport.NewRouter(handler, jwtSvc, registry, log)
	srv := httpserver.New(cfg.Addr, router)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	group, ctx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return audit.NewWorker(auditStore, channelPub.Inbox(), log).Run(ctx)
	})
	group.Go(func() error {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

// scholarStore is the union of the scholar-facing store interfaces so one
// variable can serve the scholar, submission and progress services.
type scholarStore interface {
	scholarservice.Store
	scoper.ScholarDirectory
}

// submissionReader adapts the submission store to the progress aggregator,
// which always wants the scholar's full record set.
type submissionReader struct {
	store submissionservice.Store
}

func (r submissionReader) AllByScholar(ctx context.Context, scholarID id.ScholarID) ([]*submissionmodels.Record, error) {
	return r.store.ListByScholar(ctx, scholarID, submissionstore.Filter{})
}

// entryFinder adapts the catalog store's lookup to the submission service.
type entryFinder struct {
	store catalogservice.Store
}

func (f entryFinder) FindEntry(ctx context.Context, entryID id.EntryID) (*catalogmodels.Entry, error) {
	return f.store.FindByID(ctx, entryID)
}
