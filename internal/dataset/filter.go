package dataset

import (
	"time"
)

// DateRange bounds rows by the calendar date of a timestamp column. Both ends
// are inclusive whole days.
type DateRange struct {
	Column string
	Start  time.Time
	End    time.Time
}

// truncateDay drops the clock part while keeping the location.
func truncateDay(ts time.Time) time.Time {
	y, m, d := ts.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, ts.Location())
}

// DefaultDateRange spans the observed dates of column.
func DefaultDateRange(t *Table, column string) (DateRange, error) {
	col, err := timeColumn(t, column)
	if err != nil {
		return DateRange{}, err
	}
	lo, hi, ok := col.TimeRange()
	if !ok {
		return DateRange{}, &ColumnError{Column: column, Reason: "has no timestamps"}
	}
	return DateRange{Column: column, Start: truncateDay(lo), End: truncateDay(hi)}, nil
}

// FilterByDateRange keeps rows whose timestamp falls on or between the range
// dates. Rows with a missing timestamp are dropped.
func FilterByDateRange(t *Table, r DateRange) (*Table, error) {
	col, err := timeColumn(t, r.Column)
	if err != nil {
		return nil, err
	}

	start := truncateDay(r.Start)
	endExclusive := truncateDay(r.End).AddDate(0, 0, 1)

	rows := make([]int, 0, t.NumRows())
	for i := 0; i < t.NumRows(); i++ {
		ts, ok := col.Time(i)
		if !ok {
			continue
		}
		if !ts.Before(start) && ts.Before(endExclusive) {
			rows = append(rows, i)
		}
	}
	return t.Subset(rows), nil
}

func timeColumn(t *Table, name string) (*Column, error) {
	col, ok := t.Column(name)
	if !ok {
		return nil, &ColumnError{Column: name, Reason: "not found"}
	}
	if col.Kind() != KindTime {
		return nil, &ColumnError{Column: name, Reason: "is not a timestamp column"}
	}
	return col, nil
}
