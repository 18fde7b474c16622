package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"climate-platform/internal/models"
	"climate-platform/pkg/database"
	"climate-platform/pkg/logging"
	"climate-platform/pkg/metrics"
)

// TemperatureRepository mirrors the cleaned observation set to postgres for
// external consumers. The query path never reads from it; queries are served
// from the in-memory engine only.
type TemperatureRepository interface {
	// ReplaceAll swaps the mirrored dataset in one transaction: either the
	// new set fully replaces the old one or the old one stays untouched.
	ReplaceAll(ctx context.Context, observations []models.Observation, batchSize int) error

	// Count returns the number of mirrored observations.
	Count(ctx context.Context) (int, error)

	// CountryMean reads a per-country mean back from the mirror, for
	// spot-checking the in-memory engine against SQL aggregation.
	CountryMean(ctx context.Context, country string) (*models.AggregateResult, error)

	HealthCheck(ctx context.Context) error
}

// temperatureRepository implements TemperatureRepository
type temperatureRepository struct {
	db      *database.PostgresDB
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewTemperatureRepository creates a new temperature repository
func NewTemperatureRepository(db *database.PostgresDB, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) TemperatureRepository {
	return &temperatureRepository{
		db:      db,
		logger:  logger,
		metrics: metricsCollector,
	}
}

const insertObservation = `
	INSERT INTO city_temperatures (
		observation_date, country, city, latitude, longitude,
		average_temperature, average_temperature_uncertainty, month, year
	)
	VALUES (
		:observation_date, :country, :city, :latitude, :longitude,
		:average_temperature, :average_temperature_uncertainty, :month, :year
	)
`

// ReplaceAll truncates the mirror and bulk-inserts the full observation set
// inside a single transaction. An absent temperature is stored as SQL NULL,
// never as zero.
func (r *temperatureRepository) ReplaceAll(ctx context.Context, observations []models.Observation, batchSize int) error {
	startTime := time.Now()

	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, "TRUNCATE city_temperatures"); err != nil {
		r.metrics.RecordDBError("truncate_error")
		return fmt.Errorf("failed to truncate mirror: %w", err)
	}

	for start := 0; start < len(observations); start += batchSize {
		end := start + batchSize
		if end > len(observations) {
			end = len(observations)
		}
		batch := observations[start:end]

		if _, err := tx.NamedExecContext(ctx, insertObservation, batch); err != nil {
			r.metrics.RecordDBError("insert_error")
			return fmt.Errorf("failed to insert batch at offset %d: %w", start, err)
		}
		r.metrics.LoadBatchSize.Observe(float64(len(batch)))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit mirror replace: %w", err)
	}

	r.logger.Info(ctx, "[MIRROR_REPLACE] Mirror dataset replaced", logging.Fields{
		"observations": len(observations),
		"batch_size":   batchSize,
		"duration_ms":  time.Since(startTime).Milliseconds(),
	})

	return nil
}

// Count returns the number of mirrored observations
func (r *temperatureRepository) Count(ctx context.Context) (int, error) {
	var count int
	err := r.db.GetContext(ctx, "count_observations", &count,
		"SELECT COUNT(*) FROM city_temperatures")
	if err != nil {
		return 0, fmt.Errorf("failed to count observations: %w", err)
	}
	return count, nil
}

// CountryMean computes the per-country mean on the mirror side. AVG ignores
// NULL temperatures, matching the engine's absent-value semantics.
func (r *temperatureRepository) CountryMean(ctx context.Context, country string) (*models.AggregateResult, error) {
	query := `
		SELECT
			COUNT(average_temperature) AS count,
			AVG(average_temperature)   AS mean
		FROM city_temperatures
		WHERE country = $1
	`

	var row struct {
		Count int             `db:"count"`
		Mean  sql.NullFloat64 `db:"mean"`
	}

	err := r.db.GetContext(ctx, "country_mean", &row, query, country)
	if err != nil {
		return nil, fmt.Errorf("failed to compute country mean: %w", err)
	}

	if row.Count == 0 || !row.Mean.Valid {
		return nil, &models.NotFoundError{
			Resource: "country_mean",
			Key:      country,
		}
	}

	return &models.AggregateResult{
		Key:   country,
		Mean:  row.Mean.Float64,
		Count: row.Count,
	}, nil
}

// HealthCheck performs a repository health check
func (r *temperatureRepository) HealthCheck(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}
