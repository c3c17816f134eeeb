package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"airquality-dashboard/internal/config"
	"airquality-dashboard/internal/dataset"
	"airquality-dashboard/internal/handlers"
	"airquality-dashboard/internal/repository"
	"airquality-dashboard/internal/services"
	"airquality-dashboard/pkg/database"
	"airquality-dashboard/pkg/logging"
	"airquality-dashboard/pkg/metrics"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewStructuredLogger("airquality-dashboard", version, logging.ParseLevel(cfg.Logging.Level))
	defer logger.Sync()

	ctx := context.Background()
	logger.Info(ctx, "[STARTUP] Starting air quality dashboard", logging.Fields{
		"version":        version,
		"server_host":    cfg.Server.Host,
		"server_port":    cfg.Server.Port,
		"dataset_source": cfg.Dataset.Source,
		"dataset_path":   cfg.Dataset.Path,
	})

	metricsCollector := metrics.NewCollector("airquality_dashboard", prometheus.DefaultRegisterer)

	loader, closeLoader, err := newLoader(ctx, cfg, logger, metricsCollector)
	if err != nil {
		logger.Fatal(ctx, "[STARTUP_ERROR] Failed to initialize dataset source", logging.Fields{
			"dataset_source": cfg.Dataset.Source,
		}, err)
	}
	defer closeLoader()

	dashboard := services.NewDashboardService(loader, logger, metricsCollector)
	// Load before serving so every request sees the same table.
	dashboard.Load(ctx)

	router := mux.NewRouter()
	handlers.NewDashboardHandler(dashboard, logger, metricsCollector).RegisterRoutes(router)
	router.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	sigCtx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	g, gctx := errgroup.WithContext(sigCtx)

	g.Go(func() error {
		logger.Info(ctx, "[SERVER_START] HTTP server listening", logging.Fields{
			"address": server.Addr,
		})
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server failed: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		logger.Info(ctx, "[SHUTDOWN] Shutting down server...", logging.Fields{})

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		logger.Error(ctx, "[SERVER_ERROR] Server stopped with error", logging.Fields{}, err)
	}

	logger.Info(ctx, "[SHUTDOWN_COMPLETE] Server stopped", logging.Fields{})
}

// newLoader picks the dataset source. The returned close func releases any
// connection the loader holds.
func newLoader(ctx context.Context, cfg *config.Config, logger *logging.StructuredLogger, m *metrics.Collector) (dataset.Loader, func(), error) {
	if cfg.Dataset.Source != config.SourcePostgres {
		return dataset.NewFileLoader(cfg.Dataset.Path, cfg.Dataset.Sheet), func() {}, nil
	}

	db, err := database.NewPostgresDB(ctx, cfg.Database.PoolConfig(), logger, m)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	repo := repository.NewReadingRepository(db, logger, m)
	return repository.NewTableLoader(repo, cfg.Dataset.Station), func() { db.Close() }, nil
}
