package repository

import (
	"context"
	"fmt"

	"airquality-dashboard/internal/dataset"
	"airquality-dashboard/internal/models"
)

// TableLoader loads the dashboard table from stored readings. It implements
// dataset.Loader.
type TableLoader struct {
	repo    ReadingRepository
	station string
}

// NewTableLoader reads every reading, or only those of station when it is set.
func NewTableLoader(repo ReadingRepository, station string) *TableLoader {
	return &TableLoader{repo: repo, station: station}
}

// Source implements dataset.Loader.
func (l *TableLoader) Source() string {
	if l.station == "" {
		return "postgres:air_quality_readings"
	}
	return "postgres:air_quality_readings?station=" + l.station
}

// Load implements dataset.Loader.
func (l *TableLoader) Load(ctx context.Context) (*dataset.Table, error) {
	var filter ReadingFilter
	if l.station != "" {
		filter.Station = &l.station
	}

	readings, err := l.repo.ListReadings(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to load readings: %w", err)
	}
	if len(readings) == 0 {
		source := "air_quality_readings"
		if l.station != "" {
			source += " for station " + l.station
		}
		return nil, fmt.Errorf("%w: no rows in %s", dataset.ErrDatasetNotFound, source)
	}
	return models.ReadingsToTable(readings)
}
