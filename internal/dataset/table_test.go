package dataset

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleTable(t *testing.T) *Table {
	t.Helper()
	tbl, err := NewTable(
		NewNumericColumn("PM2.5", []float64{10, math.NaN(), 30, 40, 50, 60}),
		NewTextColumn("wd", []string{"N", "", "S", "E", "W", "NW"}, []bool{true, false, true, true, true, true}),
		NewTimeColumn("Date", []time.Time{
			SyntheticStart,
			SyntheticStart.Add(time.Hour),
			SyntheticStart.Add(2 * time.Hour),
			SyntheticStart.Add(3 * time.Hour),
			SyntheticStart.Add(4 * time.Hour),
			SyntheticStart.Add(5 * time.Hour),
		}, nil),
	)
	require.NoError(t, err)
	return tbl
}

func TestNewTable_Validation(t *testing.T) {
	_, err := NewTable(
		NewNumericColumn("a", []float64{1, 2}),
		NewNumericColumn("b", []float64{1}),
	)
	var colErr *ColumnError
	require.ErrorAs(t, err, &colErr)
	assert.Equal(t, "b", colErr.Column)
	assert.False(t, colErr.IsTransient())

	_, err = NewTable(
		NewNumericColumn("a", []float64{1}),
		NewNumericColumn("a", []float64{2}),
	)
	require.ErrorAs(t, err, &colErr)
}

func TestTable_Accessors(t *testing.T) {
	tbl := sampleTable(t)

	assert.Equal(t, 6, tbl.NumRows())
	assert.Equal(t, 3, tbl.NumColumns())
	assert.False(t, tbl.IsEmpty())
	assert.Equal(t, []string{"PM2.5", "wd", "Date"}, tbl.Names())
	assert.Equal(t, []string{"PM2.5"}, tbl.ColumnsOfKind(KindNumeric))
	assert.Equal(t, []string{"Date"}, tbl.ColumnsOfKind(KindTime))

	pm, ok := tbl.Column("PM2.5")
	require.True(t, ok)
	assert.True(t, pm.IsMissing(1))
	assert.Equal(t, 1, pm.MissingCount())
	assert.Equal(t, []float64{10, 30, 40, 50, 60}, pm.Present())
	assert.Equal(t, "NaN", pm.Format(1))
	assert.Nil(t, pm.Value(1))
	assert.Equal(t, 30.0, pm.Value(2))

	wd, _ := tbl.Column("wd")
	assert.Equal(t, "None", wd.Format(1))

	row := tbl.Row(0)
	assert.Equal(t, []interface{}{10.0, "N", "2013-03-01 00:00:00"}, row)
	assert.True(t, tbl.RowHasMissing(1))
	assert.False(t, tbl.RowHasMissing(0))
}

func TestTable_HeadAndSubset(t *testing.T) {
	tbl := sampleTable(t)

	head := tbl.Head(5)
	assert.Equal(t, 5, head.NumRows())
	pm, _ := head.Column("PM2.5")
	assert.Equal(t, 10.0, pm.Float(0))

	assert.Equal(t, 6, tbl.Head(100).NumRows())
	assert.Equal(t, 0, Empty().Head(5).NumRows())

	sub := tbl.Subset([]int{5, 0})
	pm, _ = sub.Column("PM2.5")
	assert.Equal(t, []float64{60, 10}, pm.Floats())

	// the source table is untouched
	orig, _ := tbl.Column("PM2.5")
	assert.Equal(t, 6, orig.Len())
}

func TestTable_WithColumn(t *testing.T) {
	tbl := sampleTable(t)

	replaced, err := tbl.WithColumn(NewNumericColumn("PM2.5", []float64{1, 2, 3, 4, 5, 6}))
	require.NoError(t, err)
	assert.Equal(t, tbl.Names(), replaced.Names())
	pm, _ := replaced.Column("PM2.5")
	assert.Equal(t, 0, pm.MissingCount())

	appended, err := tbl.WithColumn(NewNumericColumn("Month", []float64{3, 3, 3, 3, 3, 3}))
	require.NoError(t, err)
	assert.Equal(t, []string{"PM2.5", "wd", "Date", "Month"}, appended.Names())
	assert.Equal(t, 3, tbl.NumColumns())

	_, err = tbl.WithColumn(NewNumericColumn("bad", []float64{1}))
	assert.Error(t, err)
}

func TestEmpty(t *testing.T) {
	tbl := Empty()
	assert.True(t, tbl.IsEmpty())
	assert.Equal(t, 0, tbl.NumRows())
	assert.Empty(t, tbl.Names())
}
