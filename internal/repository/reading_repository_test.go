package repository

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airquality-dashboard/internal/dataset"
	"airquality-dashboard/internal/models"
)

type stubRepository struct {
	ReadingRepository
	readings []*models.Reading
	err      error
	filter   ReadingFilter
}

func (s *stubRepository) ListReadings(_ context.Context, filter ReadingFilter) ([]*models.Reading, error) {
	s.filter = filter
	return s.readings, s.err
}

func TestReadingFilter_Where(t *testing.T) {
	station := "Wanliu"
	start := time.Date(2013, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(24 * time.Hour)

	tests := []struct {
		name       string
		filter     ReadingFilter
		wantClause string
		wantArgs   int
	}{
		{name: "no filter", wantClause: " WHERE 1=1"},
		{
			name:       "station only",
			filter:     ReadingFilter{Station: &station},
			wantClause: " WHERE 1=1 AND station = $1",
			wantArgs:   1,
		},
		{
			name:       "all filters",
			filter:     ReadingFilter{Station: &station, StartTime: &start, EndTime: &end},
			wantClause: " WHERE 1=1 AND station = $1 AND observed_at >= $2 AND observed_at <= $3",
			wantArgs:   3,
		},
		{
			name:       "time window without station",
			filter:     ReadingFilter{StartTime: &start, EndTime: &end},
			wantClause: " WHERE 1=1 AND observed_at >= $1 AND observed_at <= $2",
			wantArgs:   2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			clause, args := tt.filter.where()
			assert.Equal(t, tt.wantClause, clause)
			assert.Len(t, args, tt.wantArgs)
		})
	}
}

func TestTableLoader(t *testing.T) {
	pm := 42.0
	stub := &stubRepository{readings: []*models.Reading{
		{Station: "Wanliu", ObservedAt: dataset.SyntheticStart, PM25: &pm},
		{Station: "Wanliu", ObservedAt: dataset.SyntheticStart.Add(time.Hour)},
	}}

	tbl, err := NewTableLoader(stub, "Wanliu").Load(context.Background())
	require.NoError(t, err)
	require.NotNil(t, stub.filter.Station)
	assert.Equal(t, "Wanliu", *stub.filter.Station)
	assert.Equal(t, 2, tbl.NumRows())

	col, ok := tbl.Column("PM2.5")
	require.True(t, ok)
	assert.Equal(t, 42.0, col.Float(0))
	assert.True(t, col.IsMissing(1))
}

func TestTableLoader_Errors(t *testing.T) {
	_, err := NewTableLoader(&stubRepository{}, "").Load(context.Background())
	assert.ErrorIs(t, err, dataset.ErrDatasetNotFound)

	boom := errors.New("connection refused")
	_, err = NewTableLoader(&stubRepository{err: boom}, "").Load(context.Background())
	assert.ErrorIs(t, err, boom)
	assert.NotErrorIs(t, err, dataset.ErrDatasetNotFound)
}

func TestNotFoundError(t *testing.T) {
	err := &NotFoundError{Resource: "air_quality_reading", ID: "Wanliu:2013-03-01 00:00:00"}
	assert.Equal(t, "air_quality_reading not found: Wanliu:2013-03-01 00:00:00", err.Error())
	assert.False(t, err.IsTransient())
}

func TestTableLoader_Source(t *testing.T) {
	assert.Equal(t, "postgres:air_quality_readings", NewTableLoader(&stubRepository{}, "").Source())
	assert.Equal(t, "postgres:air_quality_readings?station=Wanliu", NewTableLoader(&stubRepository{}, "Wanliu").Source())
}
