package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"

	"articly/internal/config"
	"articly/internal/container"
	"articly/internal/handler"
	"articly/internal/middleware"
	"articly/internal/repository"
	"articly/internal/service"
	"articly/internal/service/auth"
	"articly/pkg/database"
	"articly/pkg/logger"
	redispkg "articly/pkg/redis"
)

// Resources holds all resources that need cleanup
type Resources struct {
	container *container.Container
	db        *database.PostgresDB
	tracker   service.ReadTracker
	scheduler *service.AggregationScheduler
	dedup     service.DedupCache
	server    *http.Server
	log       *logger.Logger
	mu        sync.Mutex
	closed    bool
}

// Cleanup gracefully closes all resources
func (r *Resources) Cleanup(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return nil
	}
	r.closed = true

	var errors []error

	r.log.Info("Starting graceful shutdown...")

	// Shutdown HTTP server first to stop accepting new requests
	if r.server != nil {
		r.log.Info("Shutting down HTTP server...")
		if err := r.server.Shutdown(ctx); err != nil {
			r.log.WithError(err).Error("Failed to shutdown HTTP server")
			errors = append(errors, fmt.Errorf("HTTP server shutdown: %w", err))
		} else {
			r.log.Info("HTTP server shutdown complete")
		}
	}

	// Stop the aggregation scheduler before the tracker so no new runs start
	if r.scheduler != nil {
		r.log.Info("Stopping aggregation scheduler...")
		if err := r.scheduler.Stop(ctx); err != nil {
			r.log.WithError(err).Error("Failed to stop aggregation scheduler")
			errors = append(errors, fmt.Errorf("aggregation scheduler shutdown: %w", err))
		} else {
			r.log.Info("Aggregation scheduler stopped successfully")
		}
	}

	// Stop the read tracker (drains queued tracking work)
	if r.tracker != nil {
		r.log.Info("Stopping read tracker...")
		if err := r.tracker.Stop(ctx); err != nil {
			r.log.WithError(err).Error("Failed to stop read tracker")
			errors = append(errors, fmt.Errorf("read tracker shutdown: %w", err))
		} else {
			r.log.Info("Read tracker stopped successfully")
		}
	}

	// Stop the dedup cache sweeper
	if r.dedup != nil {
		r.dedup.Stop()
	}

	// Close Redis connection with health check
	if redisClient := r.container.GetRedisClient(); redisClient != nil {
		r.log.Info("Closing Redis connection...")

		healthCtx, healthCancel := context.WithTimeout(ctx, 2*time.Second)
		if err := redisClient.Health(healthCtx); err != nil {
			r.log.WithError(err).Warn("Redis health check failed before closing")
		}
		healthCancel()

		if err := redisClient.Close(); err != nil {
			r.log.WithError(err).Error("Failed to close Redis connection")
			errors = append(errors, fmt.Errorf("Redis close: %w", err))
		} else {
			r.log.Info("Redis connection closed successfully")
		}
	}

	// Close database connection pool with health check
	if r.db != nil {
		r.log.Info("Closing database connection pool...")

		healthCtx, healthCancel := context.WithTimeout(ctx, 2*time.Second)
		if err := r.db.Health(healthCtx); err != nil {
			r.log.WithError(err).Warn("Database health check failed before closing")
		}
		healthCancel()

		r.db.Close()
		r.log.Info("Database connection pool closed successfully")
	}

	if len(errors) > 0 {
		r.log.WithField("error_count", len(errors)).Error("Cleanup completed with errors")
		return fmt.Errorf("cleanup completed with %d errors: %v", len(errors), errors)
	}

	r.log.Info("Graceful shutdown completed successfully")
	return nil
}

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	log, err := logger.New(cfg.LogLevel)
	if err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}

	log.WithFields(map[string]interface{}{
		"port":        cfg.Port,
		"log_level":   cfg.LogLevel,
		"environment": cfg.Environment,
	}).Info("Starting articly server")

	// Create dependency injection container
	container, err := container.New(cfg, log)
	if err != nil {
		log.WithError(err).Fatal("Failed to create container")
	}

	// Initialize database connection
	ctx := context.Background()
	db, err := database.NewPostgresDB(ctx, cfg.DatabaseURL)
	if err != nil {
		log.WithError(err).Fatal("Failed to connect to database")
	}

	// Initialize repositories
	repos := &repository.Repositories{
		User:       repository.NewUserRepository(db),
		Article:    repository.NewArticleRepository(db),
		ReadLog:    repository.NewReadLogRepository(db),
		DailyStats: repository.NewDailyStatsRepository(db),
	}

	// Read dedup falls back to the local cache when Redis is unavailable
	dedup := service.NewDedupCache(container.GetRedisClient(), log)
	keys := redispkg.NewKeyBuilder(cfg.Environment)
	tracker := service.NewReadTracker(repos.ReadLog, dedup, keys, log, cfg.DedupWindow, cfg.TrackQueue, cfg.TrackWorker)
	if err := tracker.Start(ctx); err != nil {
		log.WithError(err).Fatal("Failed to start read tracker")
	}

	// Initialize services
	services := &service.Services{
		Auth:      auth.NewService(repos.User, log, cfg.JWTSecret, cfg.JWTTTL),
		Articles:  service.NewArticleService(repos.Article, container.GetRedisClient(), log),
		Tracker:   tracker,
		Analytics: service.NewAnalyticsService(repos.ReadLog, repos.DailyStats, repos.Article, log),
	}

	runHour, runMinute, err := config.ParseRunAt(cfg.AggregationRunAt)
	if err != nil {
		log.WithError(err).Fatal("Invalid aggregation run time")
	}
	scheduler := service.NewAggregationScheduler(services.Analytics, log, runHour, runMinute)
	if err := scheduler.Start(ctx); err != nil {
		log.WithError(err).Fatal("Failed to start aggregation scheduler")
	}

	// Setup router
	router := setupRouter(container, services, scheduler)

	// Create HTTP server
	server := &http.Server{
		Addr:           ":" + cfg.Port,
		Handler:        router,
		ReadTimeout:    10 * time.Second,
		WriteTimeout:   60 * time.Second,
		IdleTimeout:    120 * time.Second,
		MaxHeaderBytes: 1 << 20, // 1MB max header size
	}

	// Create resources manager for cleanup
	resources := &Resources{
		container: container,
		db:        db,
		tracker:   tracker,
		scheduler: scheduler,
		dedup:     dedup,
		server:    server,
		log:       log,
	}

	// Setup graceful shutdown handling
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, os.Interrupt)

	defer func() {
		cleanupCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := resources.Cleanup(cleanupCtx); err != nil {
			log.WithError(err).Error("Cleanup completed with errors")
		}
	}()

	// Start server in a goroutine
	serverErrChan := make(chan error, 1)
	go func() {
		log.Info("Server starting on port " + cfg.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.WithError(err).Error("Server error occurred")
			serverErrChan <- err
		}
	}()

	// Wait for interrupt signal or server error
	select {
	case sig := <-quit:
		log.WithField("signal", sig.String()).Info("Received shutdown signal")
	case err := <-serverErrChan:
		log.WithError(err).Error("Server failed, initiating shutdown")
	}

	log.Info("Initiating graceful shutdown...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
	defer cancel()

	if err := resources.Cleanup(shutdownCtx); err != nil {
		log.WithError(err).Error("Graceful shutdown completed with errors")
		os.Exit(1)
	}

	log.Info("Application shutdown complete")
}

// setupRouter configures and returns the HTTP router
func setupRouter(container *container.Container, services *service.Services, scheduler *service.AggregationScheduler) *chi.Mux {
	cfg := container.GetConfig()
	log := container.GetLogger()

	// Create router
	r := chi.NewRouter()

	// Setup CORS middleware
	corsConfig := &middleware.CORSConfig{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "Content-Length", "Accept-Encoding", "Authorization"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           86400,
	}

	// Setup middlewares
	r.Use(middleware.CORS(corsConfig, log))
	r.Use(middleware.RequestID(log))
	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(chiMiddleware.Compress(5))
	r.Use(chiMiddleware.Timeout(60 * time.Second))

	// Create handlers
	healthHandler := handler.NewHealthHandler(container)
	authHandler := handler.NewAuthHandler(services.Auth, log)
	articleHandler := handler.NewArticleHandler(services.Articles, services.Tracker, log)
	analyticsHandler := handler.NewAnalyticsHandler(services.Analytics, scheduler, log)

	// Health check (no auth required)
	r.Get("/health", healthHandler.Check)

	// API routes
	r.Route("/api", func(r chi.Router) {
		authHandler.RegisterRoutes(r)
		articleHandler.RegisterRoutes(r, services.Auth)
		analyticsHandler.RegisterRoutes(r, services.Auth)
	})

	// 404 handler
	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"success":false,"error":{"type":"not_found","message":"Endpoint not found"}}`))
	})

	log.Info("Router configured successfully")
	return r
}
