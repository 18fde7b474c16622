package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"climate-platform/internal/config"
	"climate-platform/internal/dataset"
	"climate-platform/internal/engine"
	"climate-platform/internal/handlers"
	"climate-platform/internal/query"
	"climate-platform/pkg/logging"
	"climate-platform/pkg/metrics"
)

func main() {
	inputPath := flag.String("input", "", "Path to the observations CSV (overrides LOAD_INPUT_PATH)")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	if *inputPath != "" {
		cfg.Load.InputPath = *inputPath
	}

	logger := logging.NewStructuredLogger("climate-api", "1.0.0", logging.ParseLevel(cfg.Logging.Level))

	ctx := context.Background()
	logger.Info(ctx, "[STARTUP] Starting climate platform API server", logging.Fields{
		"version":     "1.0.0",
		"server_host": cfg.Server.Host,
		"server_port": cfg.Server.Port,
		"input_path":  cfg.Load.InputPath,
	})

	// Initialize metrics collector
	metricsCollector := metrics.NewCollector("climate_platform")

	// Load the dataset and build the first engine before serving.
	loader := dataset.NewLoader(logger, metricsCollector)
	eng, err := buildEngine(ctx, loader, cfg.Load.InputPath, logger, metricsCollector)
	if err != nil {
		logger.Fatal(ctx, "[STARTUP_ERROR] Failed to load dataset", logging.Fields{
			"input_path": cfg.Load.InputPath,
		}, err)
	}

	holder := engine.NewHolder(eng)
	facade := query.NewFacade(holder, logger, metricsCollector)
	handler := handlers.NewTemperatureHandler(facade, holder, logger, metricsCollector)

	// Setup router
	router := mux.NewRouter()
	handler.RegisterRoutes(router)
	router.HandleFunc("/api/docs/openapi.json", handlers.OpenAPISpec).Methods("GET")
	router.HandleFunc("/api/docs", handlers.SwaggerUI).Methods("GET")
	router.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info(ctx, "[SERVER_START] HTTP server listening", logging.Fields{
			"address": server.Addr,
		})

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(ctx, "[SERVER_ERROR] Server failed", logging.Fields{}, err)
		}
	}()

	// SIGHUP triggers a reload: a fresh engine is built off to the side and
	// swapped in atomically, or the old one keeps serving on failure.
	reload := make(chan os.Signal, 1)
	signal.Notify(reload, syscall.SIGHUP)
	go func() {
		for range reload {
			logger.Info(ctx, "[RELOAD] Reloading dataset", logging.Fields{
				"input_path": cfg.Load.InputPath,
			})

			fresh, err := buildEngine(ctx, loader, cfg.Load.InputPath, logger, metricsCollector)
			if err != nil {
				logger.Error(ctx, "[RELOAD_ERROR] Reload failed, keeping current dataset", logging.Fields{
					"input_path": cfg.Load.InputPath,
				}, err)
				continue
			}

			holder.Swap(fresh)
			logger.Info(ctx, "[RELOAD_COMPLETE] Dataset reloaded", logging.Fields{
				"observations": fresh.Size(),
			})
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info(ctx, "[SHUTDOWN] Shutting down server...", logging.Fields{})

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "[SHUTDOWN_ERROR] Server forced to shutdown", logging.Fields{}, err)
	}

	logger.Info(ctx, "[SHUTDOWN_COMPLETE] Server stopped", logging.Fields{})
}

// buildEngine runs the full pipeline for one input file and returns a ready
// engine.
func buildEngine(ctx context.Context, loader *dataset.Loader, path string, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) (*engine.Engine, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open input: %w", err)
	}
	defer file.Close()

	result, err := loader.LoadCSV(ctx, file)
	if err != nil {
		return nil, err
	}

	return engine.NewEngine(ctx, result.Observations, logger, metricsCollector), nil
}
