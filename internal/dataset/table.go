package dataset

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// TimestampLayout is the display and primary parse layout for timestamps.
const TimestampLayout = "2006-01-02 15:04:05"

// Kind is the storage type of a column.
type Kind int

const (
	KindNumeric Kind = iota
	KindText
	KindTime
)

// String returns the kind name used in API payloads
func (k Kind) String() string {
	switch k {
	case KindNumeric:
		return "numeric"
	case KindText:
		return "text"
	case KindTime:
		return "timestamp"
	default:
		return "unknown"
	}
}

// Column is a named, typed, immutable sequence of values with a missing-value mask.
type Column struct {
	name  string
	kind  Kind
	nums  []float64
	texts []string
	times []time.Time
	valid []bool
}

// NewNumericColumn builds a numeric column. NaN entries are missing.
func NewNumericColumn(name string, values []float64) *Column {
	nums := make([]float64, len(values))
	valid := make([]bool, len(values))
	for i, v := range values {
		nums[i] = v
		valid[i] = !math.IsNaN(v)
	}
	return &Column{name: name, kind: KindNumeric, nums: nums, valid: valid}
}

// NewTextColumn builds a text column. A nil valid mask marks every value present.
func NewTextColumn(name string, values []string, valid []bool) *Column {
	return &Column{name: name, kind: KindText, texts: copyStrings(values), valid: maskOrAll(valid, len(values))}
}

// NewTimeColumn builds a timestamp column. A nil valid mask marks every value present.
func NewTimeColumn(name string, values []time.Time, valid []bool) *Column {
	times := make([]time.Time, len(values))
	copy(times, values)
	return &Column{name: name, kind: KindTime, times: times, valid: maskOrAll(valid, len(values))}
}

func maskOrAll(valid []bool, n int) []bool {
	out := make([]bool, n)
	if valid == nil {
		for i := range out {
			out[i] = true
		}
		return out
	}
	copy(out, valid)
	return out
}

func copyStrings(values []string) []string {
	out := make([]string, len(values))
	copy(out, values)
	return out
}

// Name returns the column name
func (c *Column) Name() string { return c.name }

// Kind returns the column storage kind
func (c *Column) Kind() Kind { return c.kind }

// Len returns the number of rows
func (c *Column) Len() int { return len(c.valid) }

// IsMissing reports whether row i holds no value
func (c *Column) IsMissing(i int) bool { return !c.valid[i] }

// MissingCount returns the number of missing rows
func (c *Column) MissingCount() int {
	n := 0
	for _, ok := range c.valid {
		if !ok {
			n++
		}
	}
	return n
}

// Float returns the numeric value at row i, or NaN when missing or not numeric.
func (c *Column) Float(i int) float64 {
	if c.kind != KindNumeric || !c.valid[i] {
		return math.NaN()
	}
	return c.nums[i]
}

// Time returns the timestamp at row i.
func (c *Column) Time(i int) (time.Time, bool) {
	if c.kind != KindTime || !c.valid[i] {
		return time.Time{}, false
	}
	return c.times[i], true
}

// Text returns the textual form of row i; missing values yield "".
func (c *Column) Text(i int) string {
	if !c.valid[i] {
		return ""
	}
	switch c.kind {
	case KindNumeric:
		return strconv.FormatFloat(c.nums[i], 'f', -1, 64)
	case KindTime:
		return c.times[i].Format(TimestampLayout)
	default:
		return c.texts[i]
	}
}

// Format renders row i for display, using the pandas-style NaN/NaT/None markers.
func (c *Column) Format(i int) string {
	if c.valid[i] {
		return c.Text(i)
	}
	switch c.kind {
	case KindNumeric:
		return "NaN"
	case KindTime:
		return "NaT"
	default:
		return "None"
	}
}

// Value returns a JSON friendly value for row i: nil, float64, string, or a formatted timestamp.
func (c *Column) Value(i int) interface{} {
	if !c.valid[i] {
		return nil
	}
	switch c.kind {
	case KindNumeric:
		return c.nums[i]
	case KindTime:
		return c.times[i].Format(TimestampLayout)
	default:
		return c.texts[i]
	}
}

// Floats returns a copy of the numeric values with NaN for missing rows.
func (c *Column) Floats() []float64 {
	out := make([]float64, c.Len())
	for i := range out {
		out[i] = c.Float(i)
	}
	return out
}

// Present returns the non-missing numeric values in row order.
func (c *Column) Present() []float64 {
	if c.kind != KindNumeric {
		return nil
	}
	out := make([]float64, 0, c.Len())
	for i, ok := range c.valid {
		if ok {
			out = append(out, c.nums[i])
		}
	}
	return out
}

// TimeRange returns the earliest and latest timestamps present.
func (c *Column) TimeRange() (time.Time, time.Time, bool) {
	var lo, hi time.Time
	found := false
	for i := range c.valid {
		ts, ok := c.Time(i)
		if !ok {
			continue
		}
		if !found || ts.Before(lo) {
			lo = ts
		}
		if !found || ts.After(hi) {
			hi = ts
		}
		found = true
	}
	return lo, hi, found
}

func (c *Column) subset(rows []int) *Column {
	out := &Column{name: c.name, kind: c.kind, valid: make([]bool, len(rows))}
	switch c.kind {
	case KindNumeric:
		out.nums = make([]float64, len(rows))
	case KindTime:
		out.times = make([]time.Time, len(rows))
	default:
		out.texts = make([]string, len(rows))
	}
	for j, i := range rows {
		out.valid[j] = c.valid[i]
		switch c.kind {
		case KindNumeric:
			out.nums[j] = c.nums[i]
		case KindTime:
			out.times[j] = c.times[i]
		default:
			out.texts[j] = c.texts[i]
		}
	}
	return out
}

// Table is an ordered set of equally long columns. Tables are never mutated
// after construction; every transformation returns a new Table.
type Table struct {
	columns []*Column
	index   map[string]int
	rows    int
}

// NewTable assembles columns in the given order.
func NewTable(columns ...*Column) (*Table, error) {
	t := &Table{index: make(map[string]int, len(columns))}
	for i, c := range columns {
		if c == nil {
			return nil, fmt.Errorf("column %d is nil", i)
		}
		if _, dup := t.index[c.name]; dup {
			return nil, &ColumnError{Column: c.name, Reason: "duplicate column name"}
		}
		if i == 0 {
			t.rows = c.Len()
		} else if c.Len() != t.rows {
			return nil, &ColumnError{
				Column: c.name,
				Reason: fmt.Sprintf("has %d rows, expected %d", c.Len(), t.rows),
			}
		}
		t.index[c.name] = i
		t.columns = append(t.columns, c)
	}
	return t, nil
}

// Empty returns a table with no rows and no columns.
func Empty() *Table {
	return &Table{index: map[string]int{}}
}

// NumRows returns the row count
func (t *Table) NumRows() int { return t.rows }

// NumColumns returns the column count
func (t *Table) NumColumns() int { return len(t.columns) }

// IsEmpty reports whether the table has no rows or no columns.
func (t *Table) IsEmpty() bool { return t.rows == 0 || len(t.columns) == 0 }

// Names returns the column names in declared order.
func (t *Table) Names() []string {
	names := make([]string, len(t.columns))
	for i, c := range t.columns {
		names[i] = c.name
	}
	return names
}

// Columns returns the columns in declared order.
func (t *Table) Columns() []*Column {
	out := make([]*Column, len(t.columns))
	copy(out, t.columns)
	return out
}

// Column looks a column up by name.
func (t *Table) Column(name string) (*Column, bool) {
	i, ok := t.index[name]
	if !ok {
		return nil, false
	}
	return t.columns[i], true
}

// ColumnsOfKind returns, in declared order, the names of the columns of kind k.
func (t *Table) ColumnsOfKind(k Kind) []string {
	var names []string
	for _, c := range t.columns {
		if c.kind == k {
			names = append(names, c.name)
		}
	}
	return names
}

// Row returns the JSON friendly values of row i in column order.
func (t *Table) Row(i int) []interface{} {
	row := make([]interface{}, len(t.columns))
	for j, c := range t.columns {
		row[j] = c.Value(i)
	}
	return row
}

// RowHasMissing reports whether any column is missing at row i.
func (t *Table) RowHasMissing(i int) bool {
	for _, c := range t.columns {
		if !c.valid[i] {
			return true
		}
	}
	return false
}

// Head returns the first n rows, or all rows when the table is shorter.
func (t *Table) Head(n int) *Table {
	if n > t.rows {
		n = t.rows
	}
	if n < 0 {
		n = 0
	}
	rows := make([]int, n)
	for i := range rows {
		rows[i] = i
	}
	return t.Subset(rows)
}

// Subset returns the given rows, in the given order.
func (t *Table) Subset(rows []int) *Table {
	out := &Table{
		columns: make([]*Column, len(t.columns)),
		index:   make(map[string]int, len(t.columns)),
		rows:    len(rows),
	}
	for j, c := range t.columns {
		out.columns[j] = c.subset(rows)
		out.index[c.name] = j
	}
	return out
}

// WithColumn returns a copy of the table where c replaces the column of the
// same name, or is appended when no such column exists.
func (t *Table) WithColumn(c *Column) (*Table, error) {
	if len(t.columns) > 0 && c.Len() != t.rows {
		return nil, &ColumnError{
			Column: c.name,
			Reason: fmt.Sprintf("has %d rows, expected %d", c.Len(), t.rows),
		}
	}
	cols := t.Columns()
	if i, ok := t.index[c.name]; ok {
		cols[i] = c
	} else {
		cols = append(cols, c)
	}
	return NewTable(cols...)
}
