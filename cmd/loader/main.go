package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"climate-platform/internal/config"
	"climate-platform/internal/dataset"
	"climate-platform/internal/engine"
	"climate-platform/internal/repository"
	"climate-platform/pkg/database"
	"climate-platform/pkg/logging"
	"climate-platform/pkg/metrics"
)

func main() {
	// Parse command-line flags
	inputPath := flag.String("input", "", "Path to the observations CSV (overrides LOAD_INPUT_PATH)")
	batchSize := flag.Int("batch-size", 0, "Records per mirror-sync batch (overrides LOAD_BATCH_SIZE)")
	syncMirror := flag.Bool("sync", false, "Mirror the cleaned dataset to postgres after loading")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if *inputPath != "" {
		cfg.Load.InputPath = *inputPath
	}
	if *batchSize > 0 {
		cfg.Load.BatchSize = *batchSize
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	logger := logging.NewStructuredLogger("climate-loader", "1.0.0", logging.ParseLevel(cfg.Logging.Level))

	ctx := context.Background()
	logger.Info(ctx, "[LOADER_START] Starting dataset load", logging.Fields{
		"version":    "1.0.0",
		"input_path": cfg.Load.InputPath,
		"batch_size": cfg.Load.BatchSize,
		"sync":       *syncMirror,
	})

	// Initialize metrics collector
	metricsCollector := metrics.NewCollector("climate_loader")

	file, err := os.Open(cfg.Load.InputPath)
	if err != nil {
		logger.Fatal(ctx, "[LOADER_ERROR] Failed to open input", logging.Fields{
			"input_path": cfg.Load.InputPath,
		}, err)
	}
	defer file.Close()

	loader := dataset.NewLoader(logger, metricsCollector)
	result, err := loader.LoadCSV(ctx, file)
	if err != nil {
		logger.Fatal(ctx, "[LOADER_ERROR] Load failed", logging.Fields{
			"input_path": cfg.Load.InputPath,
		}, err)
	}

	eng := engine.NewEngine(ctx, result.Observations, logger, metricsCollector)
	summary := eng.Summarize()

	// Print results
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("LOAD COMPLETE")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Rows Read:           %d\n", result.RowsRead)
	fmt.Printf("Observations Loaded: %d\n", len(result.Observations))
	fmt.Printf("Rows Dropped:        %d\n", result.RowsDropped)
	fmt.Printf("Duration:            %v\n", result.Duration)
	fmt.Printf("Countries:           %d\n", summary.Countries)
	fmt.Printf("Country/Date Groups: %d\n", summary.CountryDateGroups)
	fmt.Printf("City/Date Groups:    %d\n", summary.CityDateGroups)
	fmt.Printf("Country/City Groups: %d\n", summary.CountryCityGroups)

	if len(result.Errors) > 0 {
		fmt.Printf("\nDropped row examples (%d dropped total):\n", result.RowsDropped)
		for _, errMsg := range result.Errors {
			fmt.Printf("  - %s\n", errMsg)
		}
	}

	// Mirror the cleaned dataset if requested
	if *syncMirror {
		fmt.Println("\n" + strings.Repeat("=", 80))
		fmt.Println("SYNCING MIRROR STORE")
		fmt.Println(strings.Repeat("=", 80))

		dbConfig := &database.Config{
			Host:            cfg.Database.Host,
			Port:            cfg.Database.Port,
			User:            cfg.Database.User,
			Password:        cfg.Database.Password,
			Database:        cfg.Database.Database,
			SSLMode:         cfg.Database.SSLMode,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		}

		db, err := database.NewPostgresDB(dbConfig, logger, metricsCollector)
		if err != nil {
			logger.Fatal(ctx, "[LOADER_ERROR] Failed to connect to mirror store", logging.Fields{}, err)
		}
		defer db.Close()

		repo := repository.NewTemperatureRepository(db, logger, metricsCollector)
		if err := repo.ReplaceAll(ctx, result.Observations, cfg.Load.BatchSize); err != nil {
			logger.Fatal(ctx, "[MIRROR_ERROR] Mirror sync failed", logging.Fields{}, err)
		}

		count, err := repo.Count(ctx)
		if err != nil {
			logger.Error(ctx, "[MIRROR_ERROR] Mirror count readback failed", logging.Fields{}, err)
		} else {
			fmt.Printf("Mirrored Rows: %d\n", count)
		}
	}

	logger.Info(ctx, "[LOADER_COMPLETE] Load completed successfully", logging.Fields{
		"rows_read":        result.RowsRead,
		"rows_loaded":      len(result.Observations),
		"rows_dropped":     result.RowsDropped,
		"duration_seconds": result.Duration.Seconds(),
	})
}
