package dataset

import (
	"time"
)

// timestampLayouts are tried in order by ParseTimestamp.
var timestampLayouts = []string{
	TimestampLayout,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006/01/02 15:04:05",
	"2006/01/02",
}

// ParseTimestamp parses s with any of the accepted timestamp layouts.
func ParseTimestamp(s string) (time.Time, bool) {
	for _, layout := range timestampLayouts {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}

// ReparseTimes converts every text column whose present values all parse as
// timestamps into a timestamp column. Columns with any unparseable value, and
// non-text columns, are kept untouched.
func ReparseTimes(t *Table) *Table {
	out := t
	for _, col := range t.Columns() {
		if col.Kind() != KindText {
			continue
		}
		converted, ok := reparseColumn(col)
		if !ok {
			continue
		}
		next, err := out.WithColumn(converted)
		if err != nil {
			continue
		}
		out = next
	}
	return out
}

func reparseColumn(col *Column) (*Column, bool) {
	times := make([]time.Time, col.Len())
	valid := make([]bool, col.Len())
	present := 0
	for i := range times {
		if col.IsMissing(i) {
			continue
		}
		ts, ok := ParseTimestamp(col.Text(i))
		if !ok {
			return nil, false
		}
		times[i] = ts
		valid[i] = true
		present++
	}
	if present == 0 {
		return nil, false
	}
	return NewTimeColumn(col.Name(), times, valid), true
}
