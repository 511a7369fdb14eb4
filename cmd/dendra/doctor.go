package main

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dendralab/dendra/internal/atlas"
	"github.com/dendralab/dendra/internal/cache"
	"github.com/dendralab/dendra/internal/config"
	"github.com/dendralab/dendra/internal/storage"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check prerequisites and configuration",
		Long:  "Runs diagnostic checks on Dendra prerequisites: config, cache directory, upstream API, database, and blob mirror.",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cmd)
		},
	}
}

type checkResult struct {
	name   string
	status string // "PASS", "FAIL", "WARN"
	detail string
}

func runDoctor(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "Dendra Doctor")
	fmt.Fprintln(out, "=============")

	var results []checkResult

	// 1. Config
	cfg, cfgResult := checkConfig()
	results = append(results, cfgResult)

	// 2. Cache directory
	if cfg != nil {
		results = append(results, checkCacheDir(cfg.Cache.Dir))
	} else {
		results = append(results, checkResult{"Cache dir", "FAIL", "skipped (no config)"})
	}

	// 3. Upstream API
	if cfg != nil {
		results = append(results, checkUpstream(cfg))
	} else {
		results = append(results, checkResult{"Upstream API", "FAIL", "skipped (no config)"})
	}

	// 4. Database
	if cfg != nil {
		results = append(results, checkDatabase(cfg.Database.URL))
	} else {
		results = append(results, checkResult{"Database", "FAIL", "skipped (no config)"})
	}

	// 5. Blob mirror
	if cfg != nil {
		results = append(results, checkMirror(cfg))
	} else {
		results = append(results, checkResult{"Blob mirror", "FAIL", "skipped (no config)"})
	}

	// Print results.
	passed, failed, warned := 0, 0, 0
	for _, r := range results {
		printCheckResult(out, r)
		switch r.status {
		case "PASS":
			passed++
		case "FAIL":
			failed++
		case "WARN":
			warned++
		}
	}

	fmt.Fprintf(out, "\n%d passed, %d failed, %d warning\n", passed, failed, warned)

	if failed > 0 {
		return fmt.Errorf("%d check(s) failed", failed)
	}
	return nil
}

func printCheckResult(out io.Writer, r checkResult) {
	fmt.Fprintf(out, "[%s] %s: %s\n", r.status, r.name, r.detail)
}

func checkConfig() (*config.Config, checkResult) {
	cfg, err := config.Load()
	if err != nil {
		return nil, checkResult{"Config", "FAIL", err.Error()}
	}
	return cfg, checkResult{"Config", "PASS", fmt.Sprintf("environment %s", cfg.Server.Env)}
}

func checkCacheDir(dir string) checkResult {
	if _, err := cache.Open(dir); err != nil {
		return checkResult{"Cache dir", "FAIL", fmt.Sprintf("%s: %v", dir, err)}
	}
	probe, err := os.CreateTemp(dir, ".doctor-*")
	if err != nil {
		return checkResult{"Cache dir", "FAIL", fmt.Sprintf("%s not writable: %v", dir, err)}
	}
	probe.Close()
	os.Remove(probe.Name())
	return checkResult{"Cache dir", "PASS", dir}
}

func checkUpstream(cfg *config.Config) checkResult {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client := atlas.New(cfg.Atlas.BaseURL, cfg.Atlas.RPS, cfg.Atlas.PageSize)
	specimens, err := client.ListSpecimens(ctx, cfg.Sync.Species, 1)
	if err != nil {
		return checkResult{"Upstream API", "FAIL", fmt.Sprintf("%s: %v", cfg.Atlas.BaseURL, err)}
	}
	if len(specimens) == 0 {
		return checkResult{"Upstream API", "WARN", fmt.Sprintf("reachable, no specimens for species %q", cfg.Sync.Species)}
	}
	return checkResult{"Upstream API", "PASS", fmt.Sprintf("%s reachable", cfg.Atlas.BaseURL)}
}

func checkDatabase(url string) checkResult {
	db, err := sql.Open("postgres", url)
	if err != nil {
		return checkResult{"Database", "FAIL", fmt.Sprintf("open: %v", err)}
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		return checkResult{"Database", "FAIL", fmt.Sprintf("ping failed: %v", err)}
	}

	var count int
	if err := db.QueryRow("SELECT COUNT(*) FROM cells").Scan(&count); err != nil {
		return checkResult{"Database", "WARN", fmt.Sprintf("reachable, schema not migrated: %v", err)}
	}
	return checkResult{"Database", "PASS", fmt.Sprintf("%d cells in catalog", count)}
}

func checkMirror(cfg *config.Config) checkResult {
	if !cfg.AWS.MirrorEnabled {
		return checkResult{"Blob mirror", "WARN", "skipped (mirroring disabled)"}
	}
	_, err := storage.NewS3Store(storage.S3Config{
		Bucket:    cfg.AWS.S3Bucket,
		Endpoint:  cfg.AWS.S3Endpoint,
		Region:    cfg.AWS.Region,
		AccessKey: cfg.AWS.AccessKeyID,
		SecretKey: cfg.AWS.SecretAccessKey,
	})
	if err != nil {
		return checkResult{"Blob mirror", "FAIL", fmt.Sprintf("bucket %s: %v", cfg.AWS.S3Bucket, err)}
	}
	return checkResult{"Blob mirror", "PASS", fmt.Sprintf("bucket %s configured", cfg.AWS.S3Bucket)}
}
