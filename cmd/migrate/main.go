package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"airquality-dashboard/internal/config"
	"airquality-dashboard/pkg/database"
	"airquality-dashboard/pkg/logging"
	"airquality-dashboard/pkg/metrics"
)

const schemaMigration = "001_create_schema"

var migrationsDir string

var rootCmd = &cobra.Command{
	Use:          "migrate",
	Short:        "Apply or revert the air_quality_readings schema",
	SilenceUsage: true,
}

var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Create the schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigration(cmd, "up")
	},
}

var downCmd = &cobra.Command{
	Use:   "down",
	Short: "Drop the schema",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runMigration(cmd, "down")
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&migrationsDir, "dir", "migrations", "Directory containing the migration files")
	rootCmd.AddCommand(upCmd, downCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// migrationFile returns the script path for direction "up" or "down".
func migrationFile(dir, direction string) string {
	return filepath.Join(dir, fmt.Sprintf("%s.%s.sql", schemaMigration, direction))
}

func runMigration(cmd *cobra.Command, direction string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	path := migrationFile(migrationsDir, direction)
	content, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read migration file: %w", err)
	}

	ctx := context.Background()
	logger := logging.NewStructuredLogger("airquality-migrate", "1.0.0", logging.ParseLevel(cfg.Logging.Level))
	defer logger.Sync()

	db, err := database.NewPostgresDB(ctx, cfg.Database.PoolConfig(), logger, metrics.NewCollector("airquality_migrate", prometheus.NewRegistry()))
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	fmt.Fprintf(cmd.OutOrStdout(), "Running migration: %s\n", path)
	if err := db.ExecScript(ctx, filepath.Base(path), string(content)); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), "Migration completed successfully")
	return nil
}
