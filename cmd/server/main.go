package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/AnshRaj112/leadcrm-backend/internal/config"
	"github.com/AnshRaj112/leadcrm-backend/internal/database"
	"github.com/AnshRaj112/leadcrm-backend/internal/middleware"
	"github.com/AnshRaj112/leadcrm-backend/internal/models"
	"github.com/AnshRaj112/leadcrm-backend/internal/repository"
	"github.com/AnshRaj112/leadcrm-backend/internal/routes"
	"github.com/AnshRaj112/leadcrm-backend/internal/services"
	"github.com/AnshRaj112/leadcrm-backend/pkg/utils"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

func run() error {
	// Load env
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found")
	}
	cfg := config.Load()
	setupLogger(cfg)

	if cfg.JWTSecret == "your-secret-key-change-in-production" {
		slog.Warn("JWT_SECRET not set, using the development default")
	}

	ctx := context.Background()

	// Connect to MongoDB
	mongo, err := database.Connect(ctx, cfg.MongoURI, cfg.MongoDatabase)
	if err != nil {
		return fmt.Errorf("connect mongodb: %w", err)
	}
	defer func() {
		if err := mongo.Disconnect(); err != nil {
			slog.Error("failed to disconnect mongodb", "error", err)
		}
	}()

	if err := mongo.EnsureIndexes(ctx); err != nil {
		slog.Warn("failed to ensure mongodb indexes", "error", err)
	} else {
		slog.Info("mongodb indexes ensured")
	}

	// Redis only backs the session cache; without it every request reads the user from MongoDB.
	var cache services.SessionCache
	if cfg.SessionCacheEnabled() {
		client, err := database.ConnectRedis(ctx, cfg.RedisURI)
		if err != nil {
			slog.Warn("redis unavailable, session cache disabled", "error", err)
		} else {
			defer database.DisconnectRedis(client)
			cache = services.NewRedisSessionCache(client, cfg.SessionCacheTTL)
			slog.Info("session cache enabled", "ttl", cfg.SessionCacheTTL)
		}
	}

	stores := routes.Stores{
		Users:            repository.NewMongoRecords[models.User](mongo.DB, models.CollectionUsers),
		Calls:            repository.NewMongoRecords[models.Call](mongo.DB, models.CollectionCalls),
		Visits:           repository.NewMongoRecords[models.Visit](mongo.DB, models.CollectionVisits),
		LoanRequests:     repository.NewMongoRecords[models.LoanRequest](mongo.DB, models.CollectionLoanRequests),
		WhatsappMessages: repository.NewMongoRecords[models.WhatsappMessage](mongo.DB, models.CollectionWhatsappMessages),
	}
	signer := utils.NewTokenSigner(cfg.JWTSecret, cfg.TokenTTL)
	handlers := routes.NewHandlers(routes.NewServices(stores, signer, cache))

	// Setup router
	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(chimw.RealIP)
	r.Use(middleware.RequestLogger)
	r.Use(chimw.Recoverer)
	r.Use(middleware.CORS(cfg.AllowedOrigins))

	// Production: SecurityHeaders → HostCheck
	if cfg.IsProduction() {
		r.Use(middleware.ProductionSecurity(cfg.AllowedHost)...)
		slog.Info("production security enabled", "allowed_host", cfg.AllowedHost)
	}

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("OK"))
	})
	routes.SetupRoutes(r, handlers)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	// Graceful shutdown on SIGINT/SIGTERM
	done := make(chan struct{})
	go func() {
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		<-sigChan

		slog.Info("shutting down gracefully")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("server forced to shutdown", "error", err)
		}
		close(done)
	}()

	slog.Info("lead-crm backend running", "port", cfg.Port, "env", cfg.Environment)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("http server error: %w", err)
	}

	<-done
	slog.Info("graceful shutdown complete")
	return nil
}

// setupLogger installs the process-wide slog logger: JSON in production, text otherwise.
func setupLogger(cfg *config.Config) {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	var handler slog.Handler = slog.NewTextHandler(os.Stdout, opts)
	if cfg.IsProduction() {
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}
	slog.SetDefault(slog.New(handler))
}
