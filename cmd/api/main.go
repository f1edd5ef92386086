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

	"github.com/joho/godotenv"

	"github.com/nutricare/server/internal/analysis"
	"github.com/nutricare/server/internal/auth"
	"github.com/nutricare/server/internal/config"
	"github.com/nutricare/server/internal/db"
	"github.com/nutricare/server/internal/dietplan"
	httphandler "github.com/nutricare/server/internal/http"
	"github.com/nutricare/server/internal/http/handlers"
	"github.com/nutricare/server/internal/logging"
	"github.com/nutricare/server/internal/mail"
	"github.com/nutricare/server/internal/profile"
	"github.com/nutricare/server/internal/repo"
)

func main() {
	// Load .env from CWD or server/ so it works from repo root or server/ (env vars override)
	_ = godotenv.Load(".env")
	_ = godotenv.Load("server/.env")

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logger := logging.New(cfg.LogLevel, cfg.DevMode)
	slog.SetDefault(logger)

	// Create context for startup operations
	ctx := context.Background()

	// Open database connection
	database, err := db.Open(ctx, cfg.DatabaseURL, logger)
	if err != nil {
		logger.Error("failed to open database", "error", err)
		os.Exit(1)
	}
	defer database.Close()

	// Run migrations
	if err := db.RunMigrations(ctx, database); err != nil {
		logger.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}

	// Initialize repositories
	accountRepo := repo.NewAccountRepo(database)
	profileRepo := repo.NewProfileRepo(database)
	dietPlanRepo := repo.NewDietPlanRepo(database)

	var mailer auth.Mailer
	if cfg.SMTP.Enabled() {
		mailer = mail.NewSMTPMailer(cfg.SMTP, logger)
	} else {
		logger.Warn("SMTP not configured, verification codes are written to the log")
		mailer = mail.NewLogMailer(logger)
	}

	// Initialize services
	jwtService := auth.NewJWTService(cfg.JWTSecret)
	authService := auth.NewAuthService(
		accountRepo, profileRepo,
		auth.NewOtpIssuer(cfg.OTPSalt),
		jwtService, mailer, logger,
	)
	profileService := profile.NewService(profileRepo, logger)
	if cfg.GeminiAPIKey == "" {
		logger.Warn("GEMINI_API_KEY is not set, diet plan analysis is unavailable")
	}
	gemini := analysis.NewGeminiClient(cfg.GeminiAPIKey, cfg.GeminiModelURL, logger)
	dietPlanService := dietplan.NewService(dietPlanRepo, profileService, gemini, logger)

	// Create router
	router := httphandler.NewRouter(httphandler.Handlers{
		Auth:     handlers.NewAuthHandler(authService, logger),
		Profile:  handlers.NewProfileHandler(profileService, logger),
		DietPlan: handlers.NewDietPlanHandler(dietPlanService, logger),
		Health:   handlers.NewHealthHandler(database),
	}, authService, httphandler.RouterOptions{
		AllowedOrigins: cfg.AllowedOrigins,
	})

	// Create HTTP server with timeouts. The write timeout must outlast a fully
	// retried analysis call.
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      gemini.MaxDuration() + 30*time.Second,
		IdleTimeout:       120 * time.Second,
	}

	// Start server in a goroutine
	go func() {
		logger.Info("server starting", "port", cfg.Port, "dev_mode", cfg.DevMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server forced to shutdown", "error", err)
		os.Exit(1)
	}

	logger.Info("server exited")
}
