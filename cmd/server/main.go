package main

import (
	"context"
	"database/sql"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/danielgtaylor/huma/v2/adapters/humachi"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/dendralab/dendra/internal/api"
	"github.com/dendralab/dendra/internal/atlas"
	"github.com/dendralab/dendra/internal/cache"
	"github.com/dendralab/dendra/internal/config"
	"github.com/dendralab/dendra/internal/processing"
	"github.com/dendralab/dendra/internal/repository"
	"github.com/dendralab/dendra/internal/repository/postgres"
	"github.com/dendralab/dendra/internal/storage"
	"github.com/dendralab/dendra/pkg/models"
)

func main() {
	// Configure zerolog for structured logging
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load configuration")
	}

	// Open the catalog database and bring the schema up to date
	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open database")
	}
	defer db.Close()

	if err := postgres.Migrate(context.Background(), db); err != nil {
		log.Fatal().Err(err).Msg("Failed to run migrations")
	}

	fileCache, err := cache.Open(cfg.Cache.Dir)
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to open file cache")
	}

	client := atlas.New(cfg.Atlas.BaseURL, cfg.Atlas.RPS, cfg.Atlas.PageSize)

	var store storage.BlobStore
	if cfg.AWS.MirrorEnabled {
		store, err = storage.NewS3Store(storage.S3Config{
			Bucket:    cfg.AWS.S3Bucket,
			Endpoint:  cfg.AWS.S3Endpoint,
			Region:    cfg.AWS.Region,
			AccessKey: cfg.AWS.AccessKeyID,
			SecretKey: cfg.AWS.SecretAccessKey,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to create blob store")
		}
	}

	cellRepo := postgres.NewPostgresCellRepository(db)
	featureRepo := postgres.NewPostgresFeatureRepository(db)
	jobRepo := postgres.NewPostgresSyncJobRepository(db)
	syncSvc := processing.NewSyncService(client, fileCache, store, cellRepo, featureRepo, jobRepo, cfg.Sync.Limit)

	// Create Chi router
	router := chi.NewRouter()

	// Middleware
	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(zerologLogger())
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.Server.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	// Create Huma API
	humaCfg := huma.DefaultConfig("Dendra API", "1.0.0")
	humaCfg.DocsPath = "/api/docs"
	humaAPI := humachi.New(router, humaCfg)

	// Register health endpoint
	huma.Register(humaAPI, huma.Operation{
		OperationID: "health",
		Method:      http.MethodGet,
		Path:        "/health",
		Summary:     "Health check",
		Description: "Returns the health status of the service",
	}, func(ctx context.Context, input *struct{}) (*models.HealthResponse, error) {
		resp := &models.HealthResponse{}
		resp.Body.Status = "healthy"
		resp.Body.Version = "1.0.0"
		resp.Body.Time = time.Now()
		return resp, nil
	})

	api.RegisterRoutes(router, humaAPI, cellRepo, featureRepo, jobRepo, client, fileCache, syncSvc)

	// Schedule background catalog syncs when configured
	if cfg.Sync.Schedule != "" {
		scheduler := cron.New()
		_, err := scheduler.AddFunc(cfg.Sync.Schedule, func() {
			runScheduledSync(jobRepo, syncSvc, cfg.Sync.Species, cfg.Sync.Limit)
		})
		if err != nil {
			log.Fatal().Err(err).Str("schedule", cfg.Sync.Schedule).Msg("Invalid sync schedule")
		}
		scheduler.Start()
		defer scheduler.Stop()
		log.Info().Str("schedule", cfg.Sync.Schedule).Str("species", cfg.Sync.Species).Msg("Scheduled catalog sync")
	}

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		log.Info().Str("port", cfg.Server.Port).Msg("Starting Dendra API server")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("Server failed to start")
		}
	}()

	// Wait for interrupt signal to gracefully shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info().Msg("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Fatal().Err(err).Msg("Server forced to shutdown")
	}

	log.Info().Msg("Server exited")
}

// runScheduledSync creates a sync job and processes it synchronously,
// skipping the tick when a job for the species is already in flight
func runScheduledSync(jobs repository.SyncJobRepository, svc processing.SyncService, species string, limit int) {
	ctx := context.Background()
	if active, err := jobs.GetActive(ctx, species); err == nil {
		log.Info().Str("jobID", active.ID).Str("species", species).Msg("Scheduled sync skipped, job already running")
		return
	}

	jobID := uuid.New()
	job := &models.SyncJob{
		ID:        jobID.String(),
		Species:   species,
		Limit:     limit,
		Status:    "pending",
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := jobs.Create(ctx, job); err != nil {
		log.Error().Err(err).Str("species", species).Msg("Failed to create scheduled sync job")
		return
	}

	log.Info().Str("jobID", jobID.String()).Str("species", species).Msg("Scheduled sync started")
	if err := svc.ProcessSync(ctx, jobID); err != nil {
		log.Error().Err(err).Str("jobID", jobID.String()).Msg("Scheduled sync failed")
	}
}

// zerologLogger returns a Chi middleware that logs HTTP requests using zerolog
func zerologLogger() func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			defer func() {
				log.Info().
					Str("method", r.Method).
					Str("path", r.URL.Path).
					Str("remote_ip", r.RemoteAddr).
					Int("status", ww.Status()).
					Dur("latency", time.Since(start)).
					Str("user_agent", r.UserAgent()).
					Msg("HTTP request")
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
