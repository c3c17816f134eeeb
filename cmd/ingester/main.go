package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"airquality-dashboard/internal/config"
	"airquality-dashboard/internal/repository"
	"airquality-dashboard/internal/services"
	"airquality-dashboard/pkg/database"
	"airquality-dashboard/pkg/logging"
	"airquality-dashboard/pkg/metrics"
)

const version = "1.0.0"

var (
	station   string
	batchSize int
)

var rootCmd = &cobra.Command{
	Use:   "ingester [file-or-directory...]",
	Short: "Load station CSV/XLSX files into the air_quality_readings table",
	Long: `Reads hourly station files through the dashboard loader and upserts them
into PostgreSQL. Directories contribute their *.csv and *.xlsx files. Without
arguments the configured dataset path is ingested.`,
	SilenceUsage: true,
	RunE:         runIngest,
}

func init() {
	rootCmd.Flags().StringVar(&station, "station", "", "Station name for files without a station column (default: derived from the file name)")
	rootCmd.Flags().IntVar(&batchSize, "batch-size", services.DefaultBatchSize, "Number of readings inserted per transaction")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runIngest(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if len(args) == 0 {
		args = []string{cfg.Dataset.Path}
	}

	logger := logging.NewStructuredLogger("airquality-ingester", version, logging.ParseLevel(cfg.Logging.Level))
	defer logger.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	logger.Info(ctx, "[INGESTER_START] Starting air quality ingestion", logging.Fields{
		"version":    version,
		"paths":      args,
		"station":    station,
		"batch_size": batchSize,
	})

	metricsCollector := metrics.NewCollector("airquality_ingester", prometheus.NewRegistry())

	db, err := database.NewPostgresDB(ctx, cfg.Database.PoolConfig(), logger, metricsCollector)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	repo := repository.NewReadingRepository(db, logger, metricsCollector)
	ingestion := services.NewIngestionService(repo, logger, metricsCollector)

	result, err := ingestion.IngestPaths(ctx, args, station, batchSize)
	if err != nil {
		logger.Error(ctx, "[INGESTION_ERROR] Ingestion failed", logging.Fields{}, err)
		return err
	}

	out := cmd.OutOrStdout()
	fmt.Fprintln(out, strings.Repeat("=", 80))
	fmt.Fprintln(out, "INGESTION COMPLETE")
	fmt.Fprintln(out, strings.Repeat("=", 80))
	fmt.Fprintf(out, "Total Files:        %d\n", result.TotalFiles)
	fmt.Fprintf(out, "Stations:           %s\n", strings.Join(result.Stations, ", "))
	fmt.Fprintf(out, "Total Records:      %d\n", result.TotalRecords)
	fmt.Fprintf(out, "Successful Records: %d\n", result.SuccessfulRecords)
	fmt.Fprintf(out, "Failed Records:     %d\n", result.FailedRecords)
	fmt.Fprintf(out, "Duration:           %v\n", result.Duration)
	if secs := result.Duration.Seconds(); secs > 0 {
		fmt.Fprintf(out, "Records/Second:     %.2f\n", float64(result.SuccessfulRecords)/secs)
	}

	if len(result.Errors) > 0 {
		fmt.Fprintf(out, "\nErrors (%d):\n", len(result.Errors))
		for i, errMsg := range result.Errors {
			if i == 10 {
				fmt.Fprintf(out, "  ... and %d more errors\n", len(result.Errors)-10)
				break
			}
			fmt.Fprintf(out, "  - %s\n", errMsg)
		}
	}

	if stored, err := repo.CountReadings(ctx, nil); err == nil {
		fmt.Fprintf(out, "Readings stored:    %d\n", stored)
	}

	logger.Info(ctx, "[INGESTER_COMPLETE] Ingestion completed", logging.Fields{
		"total_records":      result.TotalRecords,
		"successful_records": result.SuccessfulRecords,
		"failed_records":     result.FailedRecords,
		"duration_seconds":   result.Duration.Seconds(),
	})

	if len(result.Errors) == result.TotalFiles {
		return fmt.Errorf("no file could be ingested")
	}
	return nil
}
