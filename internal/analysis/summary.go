// Package analysis holds the read-only computations behind the dashboard
// views. Every function takes a *dataset.Table and returns fresh values; none
// of them mutate their input.
package analysis

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"airquality-dashboard/internal/dataset"
)

// Pollutants is the fixed pollutant column set, in display order.
var Pollutants = []string{"PM2.5", "PM10", "SO2", "NO2", "CO", "O3"}

// PM25 is the pollutant aggregated by month.
const PM25 = "PM2.5"

// ColumnSummary mirrors a describe() row for one numeric column. Undefined
// statistics (no values, or a single value for std) are nil.
type ColumnSummary struct {
	Column string   `json:"column"`
	Count  int      `json:"count"`
	Mean   *float64 `json:"mean"`
	Std    *float64 `json:"std"`
	Min    *float64 `json:"min"`
	Q25    *float64 `json:"q25"`
	Q50    *float64 `json:"q50"`
	Q75    *float64 `json:"q75"`
	Max    *float64 `json:"max"`
}

// MissingCount is the number of missing cells of one column.
type MissingCount struct {
	Column  string `json:"column"`
	Missing int    `json:"missing"`
}

// Describe summarizes every numeric column in declared order.
func Describe(t *dataset.Table) []ColumnSummary {
	var out []ColumnSummary
	for _, col := range t.Columns() {
		if col.Kind() != dataset.KindNumeric {
			continue
		}
		out = append(out, summarize(col.Name(), col.Present()))
	}
	return out
}

func summarize(name string, values []float64) ColumnSummary {
	s := ColumnSummary{Column: name, Count: len(values)}
	if len(values) == 0 {
		return s
	}

	sorted := make([]float64, len(values))
	copy(sorted, values)
	sort.Float64s(sorted)

	mean, std := stat.MeanStdDev(sorted, nil)
	s.Mean = optional(mean)
	if len(sorted) > 1 {
		s.Std = optional(std)
	}
	s.Min = optional(sorted[0])
	s.Q25 = optional(Quantile(sorted, 0.25))
	s.Q50 = optional(Quantile(sorted, 0.5))
	s.Q75 = optional(Quantile(sorted, 0.75))
	s.Max = optional(sorted[len(sorted)-1])
	return s
}

// Quantile returns the p-quantile of sorted values with linear interpolation
// between the closest ranks ((n-1)p positioning).
func Quantile(sorted []float64, p float64) float64 {
	n := len(sorted)
	if n == 0 {
		return math.NaN()
	}
	if n == 1 {
		return sorted[0]
	}
	h := float64(n-1) * p
	lo := int(math.Floor(h))
	if lo >= n-1 {
		return sorted[n-1]
	}
	return sorted[lo] + (h-float64(lo))*(sorted[lo+1]-sorted[lo])
}

// MissingCounts counts missing cells for every column, numeric or not.
func MissingCounts(t *dataset.Table) []MissingCount {
	cols := t.Columns()
	out := make([]MissingCount, len(cols))
	for i, col := range cols {
		out[i] = MissingCount{Column: col.Name(), Missing: col.MissingCount()}
	}
	return out
}

func optional(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}
