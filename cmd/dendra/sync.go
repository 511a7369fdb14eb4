package main

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/dendralab/dendra/internal/atlas"
	"github.com/dendralab/dendra/internal/processing"
	"github.com/dendralab/dendra/internal/repository/postgres"
	"github.com/dendralab/dendra/internal/storage"
	"github.com/dendralab/dendra/pkg/models"
)

func newSyncCmd() *cobra.Command {
	var (
		species string
		limit   int
		mirror  bool
	)

	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Sync the cell catalog from the upstream API",
		Long:  "Pulls specimens, precomputed ephys features, and reconstruction files for one species, then writes them to the local database and cache. Runs in the foreground.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSync(cmd, species, limit, mirror)
		},
	}

	cmd.Flags().StringVar(&species, "species", "", "donor species to sync (defaults to SYNC_SPECIES)")
	cmd.Flags().IntVar(&limit, "limit", 0, "max specimens to sync (defaults to SYNC_LIMIT)")
	cmd.Flags().BoolVar(&mirror, "mirror", false, "mirror downloaded files to the blob store")
	return cmd
}

func runSync(cmd *cobra.Command, species string, limit int, mirror bool) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if species == "" {
		species = cfg.Sync.Species
	}
	if limit <= 0 {
		limit = cfg.Sync.Limit
	}

	db, err := openDB(cfg)
	if err != nil {
		return err
	}
	defer db.Close()

	ctx := cmd.Context()
	if err := postgres.Migrate(ctx, db); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	fileCache, err := openCache(cfg)
	if err != nil {
		return err
	}

	var store storage.BlobStore
	if mirror || cfg.AWS.MirrorEnabled {
		store, err = storage.NewS3Store(storage.S3Config{
			Bucket:    cfg.AWS.S3Bucket,
			Endpoint:  cfg.AWS.S3Endpoint,
			Region:    cfg.AWS.Region,
			AccessKey: cfg.AWS.AccessKeyID,
			SecretKey: cfg.AWS.SecretAccessKey,
		})
		if err != nil {
			return fmt.Errorf("connect blob store: %w", err)
		}
	}

	client := atlas.New(cfg.Atlas.BaseURL, cfg.Atlas.RPS, cfg.Atlas.PageSize)
	cellRepo := postgres.NewPostgresCellRepository(db)
	featureRepo := postgres.NewPostgresFeatureRepository(db)
	jobRepo := postgres.NewPostgresSyncJobRepository(db)
	svc := processing.NewSyncService(client, fileCache, store, cellRepo, featureRepo, jobRepo, limit)

	// One sync per species at a time, same rule the API enforces.
	active, err := jobRepo.GetActive(ctx, species)
	if err == nil {
		return fmt.Errorf("a sync for %q is already running (job %s)", species, active.ID)
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("check active syncs: %w", err)
	}

	jobID := uuid.New()
	now := time.Now()
	job := &models.SyncJob{
		ID:        jobID.String(),
		Species:   species,
		Limit:     limit,
		Status:    "pending",
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := jobRepo.Create(ctx, job); err != nil {
		return fmt.Errorf("create sync job: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Syncing %q (job %s)\n", species, jobID)

	if err := svc.ProcessSync(ctx, jobID); err != nil {
		return fmt.Errorf("sync: %w", err)
	}

	// ProcessSync records upstream failures on the job instead of returning
	// them, so read the final state back.
	done, err := jobRepo.GetByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("read job state: %w", err)
	}
	if done.Status == "failed" {
		detail := "unknown error"
		if done.ErrorMsg != nil {
			detail = *done.ErrorMsg
		}
		return fmt.Errorf("sync failed: %s", detail)
	}

	fmt.Fprintf(out, "Synced %d/%d cells\n", done.CellsSynced, done.CellsTotal)
	return nil
}
