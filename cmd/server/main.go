package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/userflow/userflow/internal/authz"
	"github.com/userflow/userflow/internal/config"
	"github.com/userflow/userflow/internal/database"
	"github.com/userflow/userflow/internal/handler"
	"github.com/userflow/userflow/internal/identity"
	"github.com/userflow/userflow/internal/logger"
	"github.com/userflow/userflow/internal/middleware"
	"github.com/userflow/userflow/internal/repository"
	"github.com/userflow/userflow/internal/router"
	"github.com/userflow/userflow/internal/service"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log := logger.New(cfg.Log.Level, cfg.Log.Format)
	log.Info().Str("version", "0.1.0").Msg("starting UserFlow server")

	// Connect to PostgreSQL
	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer db.Close()
	log.Info().Msg("connected to PostgreSQL")

	// Connect to Redis
	rdb, err := database.NewRedis(cfg.Redis)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to Redis")
	}
	defer rdb.Close()
	log.Info().Msg("connected to Redis")

	// Initialize repositories
	profileRepo := repository.NewProfileRepository(db)
	sessionRepo := repository.NewSessionRepository(db)
	resetRepo := repository.NewResetTokenRepository(db)
	auditRepo := repository.NewAuditRepository(db)
	prefRepo := repository.NewPreferenceRepository(db)

	// The engine resolves roles live from storage on every admin check
	engine := authz.NewEngine(profileRepo)

	// Initialize the provider token verifier
	verifier, err := identity.NewVerifier(cfg.Identity)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize token verifier")
	}
	log.Info().Str("issuer", cfg.Identity.Issuer).Msg("token verifier initialized")

	// Initialize services
	auditSvc := service.NewAuditService(auditRepo, engine, log)
	profileSvc := service.NewProfileService(profileRepo, engine, auditSvc, log)
	sessionSvc := service.NewSessionService(sessionRepo, profileRepo, engine, auditSvc, rdb, cfg, log)
	resetSvc := service.NewResetService(resetRepo, profileRepo, sessionRepo, engine, auditSvc, cfg, log)
	preferenceSvc := service.NewPreferenceService(prefRepo, engine, log)
	provisioningSvc := service.NewProvisioningService(db, profileRepo, prefRepo, auditSvc, log)
	log.Info().Msg("services initialized")

	// Background expiry sweep (optional)
	reaperCtx, stopReaper := context.WithCancel(context.Background())
	defer stopReaper()
	if cfg.Reaper.Enabled {
		reaper := service.NewReaper(sessionRepo, resetRepo, cfg.Reaper, log)
		go reaper.Run(reaperCtx)
		log.Info().Dur("interval", cfg.Reaper.Interval).Msg("expiry reaper started")
	}

	// Initialize handlers
	h := handler.New(db, rdb, log, cfg, profileSvc, sessionSvc, resetSvc, auditSvc, preferenceSvc, provisioningSvc)

	// Initialize middleware
	mw := middleware.New(rdb, log, cfg)

	// Set up router
	r := router.New(h, mw, log, verifier, sessionSvc)

	// Create HTTP server
	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().Str("addr", addr).Msg("HTTP server listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("HTTP server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server...")
	stopReaper()

	// Graceful shutdown with timeout
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("server forced to shutdown")
	}

	log.Info().Msg("server stopped")
}
