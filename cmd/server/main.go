package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/yourorg/assetlease/internal/featureflags"
	"github.com/yourorg/assetlease/internal/handler"
	"github.com/yourorg/assetlease/internal/infrastructure/logger"
	"github.com/yourorg/assetlease/internal/infrastructure/redis"
	"github.com/yourorg/assetlease/internal/observability/metrics"
	"github.com/yourorg/assetlease/internal/observability/tracing"
	"github.com/yourorg/assetlease/internal/reliability/circuitbreaker"
	"github.com/yourorg/assetlease/internal/repository"
	"github.com/yourorg/assetlease/internal/security/audit"
	"github.com/yourorg/assetlease/internal/security/middleware"
	"github.com/yourorg/assetlease/internal/security/ratelimit"
	"github.com/yourorg/assetlease/internal/service"
	"github.com/yourorg/assetlease/internal/worker"
	"github.com/yourorg/assetlease/pkg/cache"
	"github.com/yourorg/assetlease/pkg/config"
	"github.com/yourorg/assetlease/pkg/database"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg.LogLevel)
	log.Info("starting AssetLease server", slog.String("environment", cfg.Environment))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	shutdownTracing, err := tracing.Init(ctx, log, "assetlease", cfg.Environment)
	if err != nil {
		log.Error("failed to initialize tracing", slog.String("error", err.Error()))
		os.Exit(1)
	}

	pool, err := database.NewConnectionPool(ctx, &database.Config{
		Host:     cfg.Database.Host,
		Port:     cfg.Database.Port,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		Database: cfg.Database.Name,
		SSLMode:  cfg.Database.SSLMode,
	}, log)
	if err != nil {
		log.Error("failed to connect to database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer pool.Close()

	redisClient, err := redis.NewClient(cfg.RedisURL)
	if err != nil {
		log.Error("failed to connect to Redis", slog.String("error", err.Error()))
		os.Exit(1)
	}
	defer redisClient.Close()

	store := repository.NewPostgresStore(pool.GetDB(), log)
	locker := repository.NewRedisAssetLocker(redisClient, log, cfg.AssetLockTTL)

	bus := service.NewEventBus(log)
	listCache := cache.New()

	breaker := circuitbreaker.NewCircuitBreaker(5, 2, 30*time.Second)
	breaker.SetStateChangeCallback(func(from, to circuitbreaker.State) {
		log.Warn("store circuit breaker state changed",
			slog.String("from", from.String()),
			slog.String("to", to.String()),
		)
	})

	accountService := service.NewAccountService(store, log)
	assetService := service.NewAssetService(store, accountService, listCache, log)
	contractService := service.NewContractService(store, locker, accountService, bus, breaker, log, time.Now)
	paymentService := service.NewPaymentService(store, bus, log)
	damageService := service.NewDamageService(store, log, time.Now)

	assetHandler := handler.NewAssetHandler(assetService, log)
	contractHandler := handler.NewContractHandler(contractService, log)
	paymentHandler := handler.NewPaymentHandler(paymentService, log)
	accountHandler := handler.NewAccountHandler(accountService, log)
	damageHandler := handler.NewDamageHandler(damageService, log)
	healthHandler := handler.NewHealthHandler(pool, redisClient, log)

	rateLimiter := ratelimit.NewLimiter(cfg.RateLimitPerMinute, time.Minute)
	auditLogger := audit.NewLogger(log)

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/assets", assetHandler.Create)
	mux.HandleFunc("GET /api/assets", assetHandler.List)
	mux.HandleFunc("GET /api/assets/{id}", assetHandler.Get)
	mux.HandleFunc("DELETE /api/assets/{id}", assetHandler.Delete)

	mux.HandleFunc("POST /api/contracts", contractHandler.Create)
	mux.HandleFunc("GET /api/contracts", contractHandler.List)
	mux.HandleFunc("GET /api/contracts/{id}", contractHandler.Get)
	mux.HandleFunc("GET /api/contracts/{id}/summary", contractHandler.Summary)
	mux.HandleFunc("POST /api/contracts/{id}/cancel", contractHandler.Cancel)

	mux.HandleFunc("POST /api/contracts/{id}/payments", paymentHandler.Record)
	mux.HandleFunc("GET /api/contracts/{id}/payments", paymentHandler.List)
	mux.HandleFunc("GET /api/contracts/{id}/balance", paymentHandler.Balance)
	mux.HandleFunc("PUT /api/payments/{id}", paymentHandler.Update)
	mux.HandleFunc("DELETE /api/payments/{id}", paymentHandler.Delete)

	mux.HandleFunc("POST /api/accounts", accountHandler.Create)
	mux.HandleFunc("GET /api/accounts", accountHandler.List)
	mux.HandleFunc("GET /api/accounts/{id}", accountHandler.Get)

	mux.HandleFunc("POST /api/contracts/{id}/damages", damageHandler.Report)
	mux.HandleFunc("GET /api/contracts/{id}/damages", damageHandler.List)
	mux.HandleFunc("PUT /api/damages/{id}", damageHandler.Update)
	mux.HandleFunc("POST /api/damages/{id}/repaired", damageHandler.MarkRepaired)
	mux.HandleFunc("DELETE /api/damages/{id}", damageHandler.Delete)

	if featureflags.Enabled("event_feed") {
		eventsHandler := handler.NewEventsHandler(bus, log)
		mux.HandleFunc("GET /ws/events", eventsHandler.Feed)
		log.Info("event feed enabled at /ws/events")
	}

	mux.HandleFunc("GET /healthz", healthHandler.Healthz)
	mux.HandleFunc("GET /readyz", healthHandler.Readyz)
	mux.Handle("/metrics", promhttp.Handler())

	// Middleware chain: request ID -> CORS -> rate limit -> audit -> metrics.
	var root http.Handler = mux
	root = metrics.HTTPMetricsMiddleware(root)
	root = middleware.AuditMiddleware(auditLogger)(root)
	root = middleware.RateLimitMiddleware(rateLimiter, log)(root)
	root = middleware.CORSMiddleware(cfg.CORSAllowedOrigins)(root)
	root = middleware.RequestIDMiddleware(root)
	root = otelhttp.NewHandler(root, "assetlease")

	reconciler := worker.NewReconcileWorker(
		store,
		bus,
		log,
		time.Now,
		time.Duration(cfg.ReconcileIntervalMinutes)*time.Minute,
		assetService.InvalidateListings,
	)
	go reconciler.Start(ctx)

	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.ServerPort),
		Handler:      root,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	log.Info("server starting",
		slog.Int("port", cfg.ServerPort),
		slog.Int("rate_limit", cfg.RateLimitPerMinute),
		slog.String("rate_limit_window", "1m"),
	)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("server error", slog.String("error", err.Error()))
		}
	}()

	<-sigChan
	log.Info("shutdown signal received")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", slog.String("error", err.Error()))
	}

	cancel()
	rateLimiter.Stop()
	if err := shutdownTracing(shutdownCtx); err != nil {
		log.Error("tracing shutdown error", slog.String("error", err.Error()))
	}
	log.Info("server stopped")
}
