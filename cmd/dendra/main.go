package main

import (
	"database/sql"
	"fmt"
	"os"

	_ "github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/dendralab/dendra/internal/cache"
	"github.com/dendralab/dendra/internal/config"
)

// Version info set via ldflags at build time.
var (
	Version = "dev"
	Commit  = "none"
	Date    = "unknown"
)

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "dendra",
		Short: "Dendra cell catalog toolkit",
		Long:  "Dendra syncs neuronal electrophysiology data from the cell types atlas and explores it from the terminal.",
	}

	cmd.AddCommand(newVersionCmd())
	cmd.AddCommand(newDoctorCmd())
	cmd.AddCommand(newSyncCmd())
	cmd.AddCommand(newCellsCmd())
	cmd.AddCommand(newFeaturesCmd())
	cmd.AddCommand(newSweepsCmd())
	cmd.AddCommand(newMorphCmd())
	cmd.AddCommand(newCompareCmd())
	return cmd
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "dendra %s (commit: %s, built: %s)\n", Version, Commit, Date)
		},
	}
}

func execute(cmd *cobra.Command) int {
	if err := cmd.Execute(); err != nil {
		return 1
	}
	return 0
}

func main() {
	// Sync and download paths log through zerolog; keep it readable on a terminal.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	os.Exit(execute(newRootCmd()))
}

// loadConfig loads environment configuration for CLI commands.
func loadConfig() (*config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// openDB opens the catalog database and verifies the connection.
func openDB(cfg *config.Config) (*sql.DB, error) {
	db, err := sql.Open("postgres", cfg.Database.URL)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// openCache opens the local download cache from config.
func openCache(cfg *config.Config) (*cache.Cache, error) {
	c, err := cache.Open(cfg.Cache.Dir)
	if err != nil {
		return nil, fmt.Errorf("open cache %s: %w", cfg.Cache.Dir, err)
	}
	return c, nil
}
