package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"roundreview/internal/auth"
	"roundreview/internal/capabilities"
	"roundreview/internal/config"
	"roundreview/internal/handler"
	"roundreview/internal/middleware"
	"roundreview/internal/service"
	"roundreview/internal/service/audit"
	serviceDocsys "roundreview/internal/service/docsystem"
	"roundreview/internal/service/policy"
	"roundreview/internal/service/sysprop"
	"roundreview/internal/service/webhook"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	cfg := config.Load()

	logger, closeLog, err := config.NewLogger(cfg)
	if err != nil {
		log.Fatalf("Failed to set up logging: %v", err)
	}
	defer func() { _ = closeLog() }()
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"version", cfg.Version,
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Storage
	var store *storage
	if cfg.DatabaseURL != "" {
		store, err = newPostgresStorage(ctx, cfg, logger)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
	} else {
		store = newMemoryStorage(logger)
	}
	defer store.close()

	if err := ensureSystemUser(ctx, store, cfg); err != nil {
		log.Fatalf("Failed to provision system user: %v", err)
	}
	if err := ensureAdmin(ctx, store, cfg, logger); err != nil {
		log.Fatalf("Failed to provision admin: %v", err)
	}

	// Policy
	capabilityRegistry, err := capabilities.NewRegistry()
	if err != nil {
		log.Fatalf("Failed to initialize capability registry: %v", err)
	}
	evaluator := policy.NewEvaluator(capabilityRegistry)
	logger.Info("capability registry initialized")

	// System properties
	props := sysprop.NewStore(store.properties, store.txManager, cfg.PropertyCacheTTL, cfg.SystemMaxUploadSizeMB, logger)
	if err := props.Seed(ctx); err != nil {
		log.Fatalf("Failed to seed system properties: %v", err)
	}

	facts := policy.NewFactLoader(store.projects, store.memberships, store.objects, store.reviews, store.users, props)
	auditLog := audit.NewLog(store.auditLogs, logger)

	// Webhooks
	dispatcher := webhook.NewDispatcher(webhook.Config{
		BaseDelay:     cfg.WebhookBaseDelay,
		Stagger:       cfg.WebhookStagger,
		Grace:         cfg.WebhookGrace,
		Timeout:       cfg.WebhookTimeout,
		MaxQueue:      cfg.WebhookMaxQueue,
		MaxConcurrent: cfg.WebhookMaxConcurrent,
	}, webhook.NewHTTPSender(cfg.UserAgent(), cfg.WebhookTimeout), props, cfg.SystemUserID, logger)
	dispatcher.Start(ctx)
	defer dispatcher.Stop()

	// Services
	projectService := serviceDocsys.NewProjectService(store.projects, store.memberships, store.txManager, evaluator, facts, auditLog, logger)
	objectService := serviceDocsys.NewObjectService(store.objects, store.memberships, evaluator, facts, auditLog, dispatcher, logger)
	reviewService := serviceDocsys.NewReviewService(store.reviews, evaluator, facts, auditLog, logger)
	adminService := service.NewAdminService(store.users, props, auditLog, evaluator, facts, logger)
	settingsService := service.NewSettingsService(store.users, webhook.NewVerifier(cfg.UserAgent()), auditLog, evaluator, facts, logger)

	// Authentication: API keys always, bearer tokens when a JWKS is configured
	var jwtVerifier auth.JWTVerifier
	if cfg.JWKSURL != "" {
		jwtVerifier, err = auth.NewJWTVerifier(ctx, cfg.JWKSURL, logger)
		if err != nil {
			log.Fatalf("Failed to create JWT verifier: %v", err)
		}
		defer jwtVerifier.Close()
	}
	authenticator := auth.NewAuthenticator(store.users, jwtVerifier, evaluator, props, logger)

	handlers := &handler.Handlers{
		Projects: handler.NewProjectHandler(projectService, logger),
		Objects:  handler.NewObjectHandler(objectService, logger),
		Reviews:  handler.NewReviewHandler(reviewService, logger),
		Admin:    handler.NewAdminHandler(adminService, dispatcher, evaluator, logger),
		Settings: handler.NewSettingsHandler(settingsService, logger),
	}
	logger.Info("services initialized")

	// Order: CORS → Recovery → Auth → Routes
	var h http.Handler = handler.NewRouter(handlers, middleware.Auth(authenticator, logger))
	h = middleware.Recovery(logger)(h)

	// CORS - Must be outermost to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization", auth.APIKeyHeader},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown requested")
	case err := <-errCh:
		logger.Error("server failed", "error", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", "error", err)
	}
	logger.Info("server stopped", "webhooks", dispatcher.Status())
}
