// File: cmd/app/main.go
package main

import (
	"context"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"subscription-payments/internal/config"
	pg "subscription-payments/internal/infra/db/postgres"
	pgw "subscription-payments/internal/infra/gateway"
	"subscription-payments/internal/infra/logging"
	"subscription-payments/internal/infra/metrics"
	"subscription-payments/internal/infra/notify"
	red "subscription-payments/internal/infra/redis"
	"subscription-payments/internal/infra/sched"
	"subscription-payments/internal/infra/web"
	"subscription-payments/internal/infra/worker"
	"subscription-payments/internal/infra/ws"
	"subscription-payments/internal/usecase"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// ---- CLI flags ----
	cfgPath := flag.String("config", "config.yaml", "path to YAML config file")
	devMode := flag.Bool("dev", false, "enable developer mode (console logs, insecure cookies)")
	flag.Parse()

	cfg, err := config.LoadConfig(*cfgPath, *devMode)
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger := logging.New(cfg.Log, cfg.Runtime.Dev)
	if cfg.Runtime.Dev {
		logger.Warn().Msg("developer mode enabled")
	}

	metrics.MustRegister()

	// ---- Postgres ----
	pool, err := pg.NewPgxPool(ctx, cfg.Database.URL, 10)
	if err != nil {
		logger.Fatal().Err(err).Msg("postgres connect failed")
	}
	defer pool.Close()

	// ---- Redis ----
	redisClient, err := red.NewClient(ctx, &cfg.Redis)
	if err != nil {
		logger.Fatal().Err(err).Msg("redis connect failed")
	}
	defer func() { _ = redisClient.Close() }()

	csrfStore := red.NewCsrfStore(redisClient, cfg.Security.CsrfTTL)
	rateLimiter := red.NewRateLimiter(redisClient)

	// ---- Repositories ----
	tm := pg.NewTxManager(pool)
	payRepo := pg.NewPaymentRepo(pool)
	subRepo := pg.NewSubscriptionRepo(pool)

	// ---- Gateway ----
	gateway := pgw.NewPhonePeGateway(
		cfg.Gateway.MerchantID,
		cfg.Gateway.Salt,
		cfg.Gateway.SaltIndex,
		cfg.Gateway.CallbackURL,
		cfg.Gateway.Sandbox,
		cfg.Gateway.Timeout,
	)
	logger.Info().Str("gateway", gateway.Name()).Bool("sandbox", cfg.Gateway.Sandbox).Msg("payment gateway configured")

	// ---- Notification fan-out ----
	bus := notify.NewBus()
	defer bus.Close()
	hub := ws.NewHub(bus, logger)

	// ---- Use cases ----
	subUC := usecase.NewSubscriptionUseCase(subRepo, logger)
	reconcileUC := usecase.NewReconcileUseCase(payRepo, subUC, bus, tm, logger)
	paymentUC := usecase.NewPaymentUseCase(payRepo, subRepo, gateway, reconcileUC, tm, logger)

	// ---- HTTP server ----
	sessions := web.NewSessionManager(cfg.Security.SessionSecret, !cfg.Runtime.Dev, cfg.Security.SessionTTL)
	guard := web.NewCsrfGuard(sessions, csrfStore, logger)
	srv := web.NewServer(
		paymentUC,
		reconcileUC,
		sessions,
		guard,
		hub,
		rateLimiter,
		cfg.Gateway.Salt,
		cfg.Gateway.SaltIndex,
		cfg.RateLimit.PollPerMinute,
		logger,
	)
	httpServer := &http.Server{
		Addr:              web.ListenAddr(cfg.Server.Port),
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	// ---- Background workers ----
	pool2 := worker.NewPool(cfg.Reconciler.Workers, logger)
	pool2.Start(ctx)
	defer pool2.Stop()

	reconciler := sched.NewPaymentReconciler(
		reconcileUC, payRepo, gateway, pool2,
		cfg.Reconciler.Interval, cfg.Reconciler.StaleAfter, logger,
	)
	go reconciler.Start(ctx)

	expiry := sched.NewExpiryWorker(time.Hour, subUC, logger)
	go func() { _ = expiry.Run(ctx) }()

	go func() {
		logger.Info().Str("addr", httpServer.Addr).Msg("http server listening")
		if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	<-ctx.Done()
	logger.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown error")
	}
	logger.Info().Msg("bye")
}
