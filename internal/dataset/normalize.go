package dataset

import (
	"time"
)

// DateColumn is the primary timestamp column guaranteed by Normalize.
const DateColumn = "Date"

// SyntheticStart is the first timestamp of a synthesized Date column.
var SyntheticStart = time.Date(2013, time.March, 1, 0, 0, 0, 0, time.UTC)

// NormalizeReport describes what Normalize had to do.
type NormalizeReport struct {
	// Synthesized is true when the table had no Date column.
	Synthesized bool
	// Unparsed counts Date cells that did not match TimestampLayout and became missing.
	Unparsed int
}

// Normalize returns a table whose Date column holds timestamps. When the
// column is absent it is appended as an hourly sequence starting at
// SyntheticStart; when present its text is parsed with TimestampLayout.
func Normalize(t *Table) (*Table, NormalizeReport, error) {
	var report NormalizeReport

	col, ok := t.Column(DateColumn)
	if !ok {
		report.Synthesized = true
		out, err := t.WithColumn(HourlySequence(DateColumn, SyntheticStart, t.NumRows()))
		return out, report, err
	}

	if col.Kind() == KindTime {
		return t, report, nil
	}

	times := make([]time.Time, col.Len())
	valid := make([]bool, col.Len())
	for i := range times {
		if col.IsMissing(i) {
			continue
		}
		ts, err := time.Parse(TimestampLayout, col.Text(i))
		if err != nil {
			report.Unparsed++
			continue
		}
		times[i] = ts
		valid[i] = true
	}

	out, err := t.WithColumn(NewTimeColumn(DateColumn, times, valid))
	return out, report, err
}

// HourlySequence builds n timestamps spaced one hour apart from start.
func HourlySequence(name string, start time.Time, n int) *Column {
	times := make([]time.Time, n)
	for i := range times {
		times[i] = start.Add(time.Duration(i) * time.Hour)
	}
	return NewTimeColumn(name, times, nil)
}
