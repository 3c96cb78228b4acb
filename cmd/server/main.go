package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	schemaresolver "cadastre/internal/attrschema/resolver"
	schemastore "cadastre/internal/attrschema/store"
	schemamemory "cadastre/internal/attrschema/store/memory"
	schemapostgres "cadastre/internal/attrschema/store/postgres"
	"cadastre/internal/entity/handler"
	entityservice "cadastre/internal/entity/service"
	entitystore "cadastre/internal/entity/store"
	entitymemory "cadastre/internal/entity/store/memory"
	entitypostgres "cadastre/internal/entity/store/postgres"
	"cadastre/internal/platform/audit"
	"cadastre/internal/platform/config"
	"cadastre/internal/platform/httpserver"
	"cadastre/internal/platform/logger"
	"cadastre/internal/platform/metrics"
	"cadastre/internal/platform/middleware"
	"cadastre/internal/platform/postgres"
	platformredis "cadastre/internal/platform/redis"
	temporalmetrics "cadastre/internal/temporal/metrics"
	temporalservice "cadastre/internal/temporal/service"
	temporalstore "cadastre/internal/temporal/store"
	temporalmemory "cadastre/internal/temporal/store/memory"
	temporalpostgres "cadastre/internal/temporal/store/postgres"
)

// main wires dependencies and owns the server lifecycle. Everything here is
// assembly; behaviour lives in the internal packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New()
	ctx := context.Background()

	var (
		revisions   temporalstore.RevisionStore
		definitions schemastore.DefinitionStore
		directory   entitystore.Directory
	)
	if cfg.PostgresDSN != "" {
		db, err := postgres.Open(ctx, cfg.PostgresDSN)
		if err != nil {
			log.Error("postgres connect failed", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		revisions = temporalpostgres.New(db)
		definitions = schemapostgres.New(db)
		directory = entitypostgres.New(db)
		log.Info("using postgres stores")
	} else {
		revisions = temporalmemory.New()
		definitions = schemamemory.New()
		directory = entitymemory.New()
		log.Info("using in-memory stores")
	}

	records, err := temporalservice.New(revisions,
		temporalservice.WithLogger(log),
		temporalservice.WithMetrics(temporalmetrics.New()))
	if err != nil {
		log.Error("temporal service init failed", "error", err)
		os.Exit(1)
	}
	refs, err := temporalservice.NewResolver(records, revisions, log)
	if err != nil {
		log.Error("reference resolver init failed", "error", err)
		os.Exit(1)
	}

	schemaOpts := []schemaresolver.Option{schemaresolver.WithLogger(log)}
	redisClient, err := platformredis.New(cfg.Redis)
	if err != nil {
		log.Error("redis connect failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		schemaOpts = append(schemaOpts,
			schemaresolver.WithCache(schemaresolver.NewRedisCache(redisClient.Client, cfg.Redis.CacheTTL)))
		log.Info("schema cache backed by redis")
	}
	schemas, err := schemaresolver.New(records, definitions, schemaOpts...)
	if err != nil {
		log.Error("schema resolver init failed", "error", err)
		os.Exit(1)
	}

	entityOpts := []entityservice.Option{entityservice.WithLogger(log)}
	if len(cfg.Kafka.Brokers) > 0 {
		publisher, err := audit.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		if err != nil {
			log.Error("kafka connect failed", "error", err)
			os.Exit(1)
		}
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			publisher.Close(closeCtx)
		}()
		entityOpts = append(entityOpts, entityservice.WithAuditPublisher(publisher))
		log.Info("audit events published to kafka", "topic", cfg.Kafka.Topic)
	}
	entities, err := entityservice.New(records, refs, schemas, directory, entityOpts...)
	if err != nil {
		log.Error("entity service init failed", "error", err)
		os.Exit(1)
	}

	router := chi.NewRouter()
	router.Use(middleware.Instrument(log, metrics.New()))
	handler.New(entities, schemas, log).Routes(router)
	router.Handle("/metrics", promhttp.Handler())
	router.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	srv := httpserver.New(cfg.Addr, router)

	go func() {
		log.Info("server listening", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}
