package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"fincore/internal/audit"
	"fincore/internal/blob"
	"fincore/internal/client"
	"fincore/internal/ledger"
	"fincore/internal/onboarding"
	onboardinghandler "fincore/internal/onboarding/handler"
	"fincore/internal/payout"
	payouthandler "fincore/internal/payout/handler"
	"fincore/internal/platform/config"
	"fincore/internal/platform/dedup"
	"fincore/internal/platform/httpserver"
	"fincore/internal/platform/jwttoken"
	"fincore/internal/platform/logger"
	"fincore/internal/platform/metrics"
	"fincore/internal/platform/postgres"
	platformredis "fincore/internal/platform/redis"
	"fincore/internal/risk"
	httptransport "fincore/internal/transport/http"
	"fincore/internal/verification"
	verificationhandler "fincore/internal/verification/handler"
)

// main wires dependencies and owns the process lifecycle. Business logic
// lives in the internal feature packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.Env)

	if err := run(cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(cfg config.Config, log *slog.Logger) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	m := metrics.New()

	// Storage. Without DATABASE_URL everything runs on in-memory stores,
	// which is enough for local development.
	var (
		db           *postgres.DB
		sessionStore onboarding.Store
		clientStore  client.Store
		payoutStore  payout.Store
		ledgerStore  ledger.Store
		auditStore   audit.Store
		riskStore    risk.Store
	)
	if cfg.DatabaseURL != "" {
		var err error
		db, err = postgres.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			return err
		}
		defer db.Close()
		sessionStore = onboarding.NewPostgresStore(db)
		clientStore = client.NewPostgresStore(db)
		payoutStore = payout.NewPostgresStore(db)
		ledgerStore = ledger.NewPostgresStore(db)
		auditStore = audit.NewPostgresStore(db)
		riskStore = risk.NewPostgresStore(db)
	} else {
		log.Warn("DATABASE_URL not set, using in-memory stores")
		sessionStore = onboarding.NewInMemoryStore()
		clientStore = client.NewInMemoryStore()
		payoutStore = payout.NewInMemoryStore()
		ledgerStore = ledger.NewInMemoryStore()
		auditStore = audit.NewInMemoryStore()
		riskStore = risk.NewInMemoryStore()
	}

	redisClient, err := platformredis.New(cfg.RedisURL)
	if err != nil {
		return err
	}
	var (
		deduper   dedup.Deduper
		riskCache risk.Cache
	)
	if redisClient != nil {
		defer redisClient.Close()
		deduper = dedup.NewRedisDeduper(redisClient)
		riskCache = risk.NewRedisCache(redisClient)
	} else {
		log.Warn("REDIS_URL not set, using in-process webhook dedup")
		deduper = dedup.NewMemoryDeduper()
		riskCache = risk.NewMemoryCache()
	}

	var auditSink audit.Sink
	if len(cfg.KafkaBrokers) > 0 {
		kafkaSink, err := audit.NewKafkaSink(cfg.KafkaBrokers, cfg.AuditTopic, log)
		if err != nil {
			return err
		}
		defer kafkaSink.Close()
		auditSink = kafkaSink
	}
	auditor := audit.NewPublisher(auditStore, auditSink)

	provider := verification.NewHTTPProvider(cfg.VerificationBaseURL, cfg.VerificationAPIKey)
	verifier := verification.NewDispatcher(provider, blob.NewFileStore(cfg.BlobDir), log, m)

	onboardingSvc := onboarding.NewService(sessionStore, clientStore, verifier, auditor, log, m)
	payoutSvc := payout.NewDispatcher(payoutStore, ledgerStore,
		payout.NewHTTPRail(cfg.PayoutRailBaseURL, cfg.PayoutRailAPIKey), auditor, log, m)

	jwtService := jwttoken.NewService(cfg.JWTSigningKey, "fincore")

	deps := httptransport.Deps{
		Onboarding:   onboardinghandler.New(onboardingSvc, log, m),
		Payouts:      payouthandler.New(payoutSvc, log, m, jwtService),
		Verification: verificationhandler.New(clientStore, verifier, log, jwtService),

		VerificationWebhook: verification.NewWebhookHandler(
			clientStore, deduper, auditor, cfg.VerificationWebhookSecret, cfg.IsDev(), log, m),
		RiskWebhook: risk.NewWebhookHandler(
			riskStore, riskCache, deduper, auditor, cfg.RiskWebhookSecret, cfg.IsDev(),
			cfg.RiskAlertThreshold, log, m),

		Logger:  log,
		Metrics: m,
	}
	if db != nil {
		deps.Postgres = db
	}
	if redisClient != nil {
		deps.Redis = redisClient
	}

	srv := httpserver.New(cfg.Addr, httptransport.NewRouter(deps))

	sweeper := onboarding.NewSweeper(sessionStore, cfg.SessionExpiry, log)
	go func() {
		if err := sweeper.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error("session sweeper stopped", "error", err)
		}
	}()

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting fincore", "addr", cfg.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	select {
	case sig := <-quit:
		log.Info("shutting down", "signal", sig.String())
	case err := <-errCh:
		return err
	}

	cancel()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()
	return srv.Shutdown(shutdownCtx)
}
