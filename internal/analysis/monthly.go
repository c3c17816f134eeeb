package analysis

import (
	"math"

	"airquality-dashboard/internal/dataset"
)

// MonthColumn is the derived month-of-year column.
const MonthColumn = "Month"

// MonthlyMean is the average of a column over every reading in one calendar month.
type MonthlyMean struct {
	Month int     `json:"month"`
	Mean  float64 `json:"mean"`
	Count int     `json:"count"`
}

// WithMonth returns t with a numeric Month column (1-12) derived from timeColumn.
func WithMonth(t *dataset.Table, timeColumn string) (*dataset.Table, error) {
	col, ok := t.Column(timeColumn)
	if !ok {
		return nil, &dataset.ColumnError{Column: timeColumn, Reason: "not found"}
	}
	if col.Kind() != dataset.KindTime {
		return nil, &dataset.ColumnError{Column: timeColumn, Reason: "is not a timestamp column"}
	}

	months := make([]float64, col.Len())
	for i := range months {
		ts, ok := col.Time(i)
		if !ok {
			months[i] = math.NaN()
			continue
		}
		months[i] = float64(ts.Month())
	}
	return t.WithColumn(dataset.NewNumericColumn(MonthColumn, months))
}

// MonthlyMeans groups valueColumn by the month of timeColumn. Missing values
// are skipped; months without any present value are omitted. The result is
// ordered by month.
func MonthlyMeans(t *dataset.Table, valueColumn, timeColumn string) ([]MonthlyMean, error) {
	values, ok := t.Column(valueColumn)
	if !ok {
		return nil, &dataset.ColumnError{Column: valueColumn, Reason: "not found"}
	}
	if values.Kind() != dataset.KindNumeric {
		return nil, &dataset.ColumnError{Column: valueColumn, Reason: "is not numeric"}
	}

	withMonth, err := WithMonth(t, timeColumn)
	if err != nil {
		return nil, err
	}
	month, _ := withMonth.Column(MonthColumn)

	var sums [13]float64
	var counts [13]int
	for i := 0; i < t.NumRows(); i++ {
		if month.IsMissing(i) || values.IsMissing(i) {
			continue
		}
		m := int(month.Float(i))
		sums[m] += values.Float(i)
		counts[m]++
	}

	var out []MonthlyMean
	for m := 1; m <= 12; m++ {
		if counts[m] == 0 {
			continue
		}
		out = append(out, MonthlyMean{Month: m, Mean: sums[m] / float64(counts[m]), Count: counts[m]})
	}
	return out, nil
}
