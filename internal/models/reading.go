package models

import (
	"fmt"
	"math"
	"time"

	"airquality-dashboard/internal/dataset"
)

// Reading is one hourly observation of a monitoring station.
// NULL measurements are represented as nil pointers.
type Reading struct {
	ID            int64     `json:"id" db:"id"`
	Station       string    `json:"station" db:"station"`
	ObservedAt    time.Time `json:"observed_at" db:"observed_at"`
	PM25          *float64  `json:"pm25,omitempty" db:"pm25"`
	PM10          *float64  `json:"pm10,omitempty" db:"pm10"`
	SO2           *float64  `json:"so2,omitempty" db:"so2"`
	NO2           *float64  `json:"no2,omitempty" db:"no2"`
	CO            *float64  `json:"co,omitempty" db:"co"`
	O3            *float64  `json:"o3,omitempty" db:"o3"`
	Temperature   *float64  `json:"temp,omitempty" db:"temp"`
	Pressure      *float64  `json:"pres,omitempty" db:"pres"`
	DewPoint      *float64  `json:"dewp,omitempty" db:"dewp"`
	Rain          *float64  `json:"rain,omitempty" db:"rain"`
	WindDirection *string   `json:"wd,omitempty" db:"wd"`
	WindSpeed     *float64  `json:"wspm,omitempty" db:"wspm"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
}

// Dataset column names of the station file layout.
const (
	ColumnStation       = "station"
	ColumnWindDirection = "wd"
	ColumnYear          = "year"
	ColumnMonth         = "month"
	ColumnDay           = "day"
	ColumnHour          = "hour"
)

type measurement struct {
	column string
	field  func(*Reading) **float64
}

// measurements maps dataset columns to Reading fields, in file order.
var measurements = []measurement{
	{"PM2.5", func(r *Reading) **float64 { return &r.PM25 }},
	{"PM10", func(r *Reading) **float64 { return &r.PM10 }},
	{"SO2", func(r *Reading) **float64 { return &r.SO2 }},
	{"NO2", func(r *Reading) **float64 { return &r.NO2 }},
	{"CO", func(r *Reading) **float64 { return &r.CO }},
	{"O3", func(r *Reading) **float64 { return &r.O3 }},
	{"TEMP", func(r *Reading) **float64 { return &r.Temperature }},
	{"PRES", func(r *Reading) **float64 { return &r.Pressure }},
	{"DEWP", func(r *Reading) **float64 { return &r.DewPoint }},
	{"RAIN", func(r *Reading) **float64 { return &r.Rain }},
	{"WSPM", func(r *Reading) **float64 { return &r.WindSpeed }},
}

// ReadingFromRow converts row i of a normalized table. The observation time
// comes from the year/month/day/hour columns when all are present, otherwise
// from the Date column. The station column wins over defaultStation.
func ReadingFromRow(t *dataset.Table, i int, defaultStation string) (*Reading, error) {
	if i < 0 || i >= t.NumRows() {
		return nil, &ValidationError{Field: "row", Value: fmt.Sprint(i), Message: "row index out of range"}
	}

	observedAt, err := observationTime(t, i)
	if err != nil {
		return nil, err
	}

	r := &Reading{
		Station:    defaultStation,
		ObservedAt: observedAt,
		CreatedAt:  time.Now().UTC(),
	}
	if col, ok := t.Column(ColumnStation); ok && !col.IsMissing(i) {
		r.Station = col.Text(i)
	}
	if r.Station == "" {
		return nil, &ValidationError{Field: ColumnStation, Message: "station is required"}
	}

	for _, m := range measurements {
		col, ok := t.Column(m.column)
		if !ok || col.Kind() != dataset.KindNumeric || col.IsMissing(i) {
			continue
		}
		v := col.Float(i)
		*m.field(r) = &v
	}
	if col, ok := t.Column(ColumnWindDirection); ok && !col.IsMissing(i) {
		wd := col.Text(i)
		r.WindDirection = &wd
	}
	return r, nil
}

func observationTime(t *dataset.Table, i int) (time.Time, error) {
	parts := make([]int, 0, 4)
	for _, name := range []string{ColumnYear, ColumnMonth, ColumnDay, ColumnHour} {
		col, ok := t.Column(name)
		if !ok || col.Kind() != dataset.KindNumeric || col.IsMissing(i) {
			break
		}
		parts = append(parts, int(math.Round(col.Float(i))))
	}
	if len(parts) == 4 {
		ts := time.Date(parts[0], time.Month(parts[1]), parts[2], parts[3], 0, 0, 0, time.UTC)
		if ts.Year() != parts[0] || int(ts.Month()) != parts[1] || ts.Day() != parts[2] || ts.Hour() != parts[3] {
			return time.Time{}, &ValidationError{
				Field:   "timestamp",
				Value:   fmt.Sprintf("%d-%d-%d %d:00", parts[0], parts[1], parts[2], parts[3]),
				Message: "invalid calendar date",
			}
		}
		return ts, nil
	}

	col, ok := t.Column(dataset.DateColumn)
	if !ok || col.Kind() != dataset.KindTime {
		return time.Time{}, &ValidationError{Field: dataset.DateColumn, Message: "no timestamp columns"}
	}
	ts, ok := col.Time(i)
	if !ok {
		return time.Time{}, &ValidationError{Field: dataset.DateColumn, Value: col.Format(i), Message: "missing timestamp"}
	}
	return ts, nil
}

// ReadingsToTable builds a dashboard table from stored readings. Columns
// follow the station file layout with Date last.
func ReadingsToTable(readings []*Reading) (*dataset.Table, error) {
	n := len(readings)
	cols := make([]*dataset.Column, 0, len(measurements)+3)

	for _, m := range measurements {
		values := make([]float64, n)
		for i, r := range readings {
			values[i] = math.NaN()
			if p := *m.field(r); p != nil {
				values[i] = *p
			}
		}
		cols = append(cols, dataset.NewNumericColumn(m.column, values))
	}

	wd := make([]string, n)
	wdValid := make([]bool, n)
	stations := make([]string, n)
	times := make([]time.Time, n)
	for i, r := range readings {
		if r.WindDirection != nil {
			wd[i], wdValid[i] = *r.WindDirection, true
		}
		stations[i] = r.Station
		times[i] = r.ObservedAt.UTC()
	}
	cols = append(cols,
		dataset.NewTextColumn(ColumnWindDirection, wd, wdValid),
		dataset.NewTextColumn(ColumnStation, stations, nil),
		dataset.NewTimeColumn(dataset.DateColumn, times, nil),
	)

	t, err := dataset.NewTable(cols...)
	if err != nil {
		return nil, fmt.Errorf("failed to build table from readings: %w", err)
	}
	return t, nil
}

// ValidationError represents a data validation error
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("%s: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("%s: %s (%s)", e.Field, e.Message, e.Value)
}

// IsTransient returns false as validation errors are permanent
func (e *ValidationError) IsTransient() bool {
	return false
}
