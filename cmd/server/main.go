// Command server wires the compliance backend: audit chains, retention
// policies, legal holds, purge orchestration, and the roster they govern,
// exposed over HTTP.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"northstar/internal/audit"
	auditmetrics "northstar/internal/audit/metrics"
	auditpg "northstar/internal/audit/store/postgres"
	auditredis "northstar/internal/audit/store/redis"
	"northstar/internal/jwtauth"
	"northstar/internal/legalhold"
	legalholdpg "northstar/internal/legalhold/store/postgres"
	"northstar/internal/platform/config"
	"northstar/internal/platform/httpserver"
	"northstar/internal/platform/logger"
	platformmetrics "northstar/internal/platform/metrics"
	"northstar/internal/platform/postgres"
	platformredis "northstar/internal/platform/redis"
	"northstar/internal/purge"
	purgemetrics "northstar/internal/purge/metrics"
	"northstar/internal/retention"
	retentionpg "northstar/internal/retention/store/postgres"
	"northstar/internal/roster"
	rosterpg "northstar/internal/roster/store/postgres"
	"northstar/internal/tenant"
	tenantmetrics "northstar/internal/tenant/metrics"
	tenantpg "northstar/internal/tenant/store/postgres"
	httptransport "northstar/internal/transport/http"
	txcontext "northstar/pkg/platform/tx"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(1)
	}
	log := logger.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := postgres.Open(ctx, cfg.DB)
	if err != nil {
		log.Error("postgres connection failed", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	var auditStore audit.Store = auditpg.New(db)
	redisClient, err := platformredis.New(ctx, cfg.Redis)
	if err != nil {
		log.Error("redis connection failed", "error", err)
		os.Exit(1)
	}
	if redisClient != nil {
		defer redisClient.Close()
		auditStore = auditredis.NewHeadCache(auditStore, redisClient.Client)
		log.Info("audit head cache enabled")
	}

	runner := &txcontext.SQLRunner{DB: db}
	auditService := audit.NewService(auditStore,
		audit.WithLogger(log),
		audit.WithMetrics(auditmetrics.New(registry)),
	)
	retentionEngine := retention.NewEngine(retentionpg.New(db), auditService, runner, log)
	holdRegistry := legalhold.NewRegistry(legalholdpg.New(db), auditService, runner, log)
	rosterService := roster.NewService(rosterpg.New(db), auditService, runner, log)
	purgeCoordinator := purge.NewCoordinator(
		rosterService, retentionEngine, holdRegistry, auditService, runner,
		purge.WithBatchSize(cfg.Purge.BatchSize),
		purge.WithLogger(log),
		purge.WithMetrics(purgemetrics.New(registry)),
	)
	tenantService := tenant.NewService(
		tenantpg.New(db), auditService, retentionEngine, runner,
		tenant.WithLogger(log),
		tenant.WithMetrics(tenantmetrics.New(registry)),
	)

	jwtService := jwtauth.NewService(cfg.Auth.JWTSigningKey, "northstar", "northstar-api")
	router := httptransport.NewRouter(httptransport.Deps{
		Logger:    log,
		Validator: jwtauth.NewMiddlewareAdapter(jwtService),
		Registry:  registry,
		HTTP:      platformmetrics.NewHTTP(registry),
		Audit:     auditService,
		Retention: retentionEngine,
		Holds:     holdRegistry,
		Purge:     purgeCoordinator,
		Roster:    rosterService,
		Tenants:   tenantService,
	})

	srv := httpserver.New(cfg.Server.Addr, router)
	go func() {
		log.Info("server listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("server failed", "error", err)
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("graceful shutdown failed", "error", err)
		os.Exit(1)
	}
}
