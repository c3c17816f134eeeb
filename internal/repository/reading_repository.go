package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"airquality-dashboard/internal/dataset"
	"airquality-dashboard/internal/models"
	"airquality-dashboard/pkg/database"
	"airquality-dashboard/pkg/logging"
	"airquality-dashboard/pkg/metrics"
)

// ReadingRepository provides data access for air quality readings
type ReadingRepository interface {
	InsertReadingsBatch(ctx context.Context, readings []*models.Reading) error
	ListReadings(ctx context.Context, filter ReadingFilter) ([]*models.Reading, error)
	CountReadings(ctx context.Context, station *string) (int, error)
	GetReading(ctx context.Context, station string, observedAt time.Time) (*models.Reading, error)
	ListStations(ctx context.Context) ([]string, error)

	HealthCheck(ctx context.Context) error
}

// ReadingFilter defines filters for querying readings
type ReadingFilter struct {
	Station   *string
	StartTime *time.Time
	EndTime   *time.Time
	// Limit of 0 returns every matching reading.
	Limit  int
	Offset int
}

const readingColumns = `
	id, station, observed_at,
	pm25, pm10, so2, no2, co, o3,
	temp, pres, dewp, rain, wd, wspm,
	created_at`

// readingRepository implements ReadingRepository
type readingRepository struct {
	db      *database.PostgresDB
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewReadingRepository creates a new reading repository
func NewReadingRepository(db *database.PostgresDB, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) ReadingRepository {
	return &readingRepository{
		db:      db,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// InsertReadingsBatch upserts readings in a single transaction
func (r *readingRepository) InsertReadingsBatch(ctx context.Context, readings []*models.Reading) error {
	if len(readings) == 0 {
		return nil
	}

	timer := time.Now()
	defer func() {
		duration := time.Since(timer)
		r.metrics.IngestionBatchSize.Observe(float64(len(readings)))
		r.logger.Debug(ctx, "[REPO_BATCH_INSERT] Batch insert completed", logging.Fields{
			"count":       len(readings),
			"duration_ms": duration.Milliseconds(),
		})
	}()

	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO air_quality_readings (
			station, observed_at,
			pm25, pm10, so2, no2, co, o3,
			temp, pres, dewp, rain, wd, wspm,
			created_at
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (station, observed_at) DO UPDATE SET
			pm25 = EXCLUDED.pm25,
			pm10 = EXCLUDED.pm10,
			so2 = EXCLUDED.so2,
			no2 = EXCLUDED.no2,
			co = EXCLUDED.co,
			o3 = EXCLUDED.o3,
			temp = EXCLUDED.temp,
			pres = EXCLUDED.pres,
			dewp = EXCLUDED.dewp,
			rain = EXCLUDED.rain,
			wd = EXCLUDED.wd,
			wspm = EXCLUDED.wspm
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, rd := range readings {
		_, err := stmt.ExecContext(ctx,
			rd.Station,
			rd.ObservedAt,
			rd.PM25, rd.PM10, rd.SO2, rd.NO2, rd.CO, rd.O3,
			rd.Temperature, rd.Pressure, rd.DewPoint, rd.Rain,
			rd.WindDirection, rd.WindSpeed,
			rd.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to insert reading: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	r.metrics.IngestionRecordsTotal.Add(float64(len(readings)))

	return nil
}

// ListReadings retrieves readings ordered by observation time
func (r *readingRepository) ListReadings(ctx context.Context, filter ReadingFilter) ([]*models.Reading, error) {
	where, args := filter.where()
	query := "SELECT" + readingColumns + " FROM air_quality_readings" + where + " ORDER BY observed_at, station"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)+1, len(args)+2)
		args = append(args, filter.Limit, filter.Offset)
	}

	var readings []*models.Reading
	if err := r.db.SelectContext(ctx, "list_readings", &readings, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list readings: %w", err)
	}
	return readings, nil
}

// CountReadings counts readings, optionally for one station
func (r *readingRepository) CountReadings(ctx context.Context, station *string) (int, error) {
	where, args := ReadingFilter{Station: station}.where()

	var count int
	if err := r.db.GetContext(ctx, "count_readings", &count, "SELECT COUNT(*) FROM air_quality_readings"+where, args...); err != nil {
		return 0, fmt.Errorf("failed to count readings: %w", err)
	}
	return count, nil
}

// GetReading retrieves the reading of a station at one hour
func (r *readingRepository) GetReading(ctx context.Context, station string, observedAt time.Time) (*models.Reading, error) {
	query := "SELECT" + readingColumns + `
		FROM air_quality_readings
		WHERE station = $1 AND observed_at = $2
	`

	var reading models.Reading
	err := r.db.GetContext(ctx, "get_reading", &reading, query, station, observedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{
			Resource: "air_quality_reading",
			ID:       fmt.Sprintf("%s:%s", station, observedAt.Format(dataset.TimestampLayout)),
		}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get reading: %w", err)
	}
	return &reading, nil
}

// ListStations returns the distinct station names
func (r *readingRepository) ListStations(ctx context.Context) ([]string, error) {
	var stations []string
	err := r.db.SelectContext(ctx, "list_stations", &stations, `
		SELECT DISTINCT station
		FROM air_quality_readings
		ORDER BY station
	`)
	if err != nil {
		return nil, fmt.Errorf("failed to list stations: %w", err)
	}
	return stations, nil
}

// HealthCheck checks database connectivity
func (r *readingRepository) HealthCheck(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}

// where builds the WHERE clause and its positional arguments.
func (f ReadingFilter) where() (string, []interface{}) {
	clause := " WHERE 1=1"
	args := []interface{}{}

	if f.Station != nil {
		args = append(args, *f.Station)
		clause += fmt.Sprintf(" AND station = $%d", len(args))
	}
	if f.StartTime != nil {
		args = append(args, *f.StartTime)
		clause += fmt.Sprintf(" AND observed_at >= $%d", len(args))
	}
	if f.EndTime != nil {
		args = append(args, *f.EndTime)
		clause += fmt.Sprintf(" AND observed_at <= $%d", len(args))
	}
	return clause, args
}

// NotFoundError represents a resource not found error
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

func (e *NotFoundError) IsTransient() bool {
	return false
}
