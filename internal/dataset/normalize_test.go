package dataset

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalize_SynthesizesHourlyDates(t *testing.T) {
	for _, n := range []int{0, 1, 5, 48} {
		values := make([]float64, n)
		tbl, err := NewTable(NewNumericColumn("PM2.5", values))
		require.NoError(t, err)

		out, report, err := Normalize(tbl)
		require.NoError(t, err)
		assert.True(t, report.Synthesized)

		date, ok := out.Column(DateColumn)
		require.True(t, ok)
		require.Equal(t, KindTime, date.Kind())
		require.Equal(t, n, date.Len())

		for i := 0; i < n; i++ {
			ts, ok := date.Time(i)
			require.True(t, ok)
			assert.Equal(t, SyntheticStart.Add(time.Duration(i)*time.Hour), ts)
			if i > 0 {
				prev, _ := date.Time(i - 1)
				assert.True(t, ts.After(prev))
			}
		}

		// the input is left alone
		_, had := tbl.Column(DateColumn)
		assert.False(t, had)
	}
}

func TestNormalize_ParsesExistingDateColumn(t *testing.T) {
	tbl, err := ReadCSV(strings.NewReader("Date,PM2.5\n2014-05-01 13:00:00,4\nnot a date,5\n,6\n"))
	require.NoError(t, err)

	out, report, err := Normalize(tbl)
	require.NoError(t, err)
	assert.False(t, report.Synthesized)
	assert.Equal(t, 1, report.Unparsed)

	date, _ := out.Column(DateColumn)
	assert.Equal(t, KindTime, date.Kind())
	ts, ok := date.Time(0)
	require.True(t, ok)
	assert.Equal(t, time.Date(2014, 5, 1, 13, 0, 0, 0, time.UTC), ts)
	assert.True(t, date.IsMissing(1))
	assert.True(t, date.IsMissing(2))
	assert.Equal(t, []string{"Date", "PM2.5"}, out.Names())
}

func TestNormalize_KeepsTimestampColumn(t *testing.T) {
	tbl, err := NewTable(HourlySequence(DateColumn, SyntheticStart, 3))
	require.NoError(t, err)

	out, report, err := Normalize(tbl)
	require.NoError(t, err)
	assert.Same(t, tbl, out)
	assert.Zero(t, report)
}

func TestReparseTimes(t *testing.T) {
	tbl, err := ReadCSV(strings.NewReader(
		"when,label,mixed,PM2.5\n" +
			"2013-03-01,a,2013-03-01,1\n" +
			"2013-03-02 10:00:00,b,oops,2\n" +
			",c,2013-03-03,3\n"))
	require.NoError(t, err)

	out := ReparseTimes(tbl)
	when, _ := out.Column("when")
	assert.Equal(t, KindTime, when.Kind())
	assert.True(t, when.IsMissing(2))

	label, _ := out.Column("label")
	assert.Equal(t, KindText, label.Kind())

	mixed, _ := out.Column("mixed")
	assert.Equal(t, KindText, mixed.Kind())
	assert.Equal(t, "oops", mixed.Text(1))

	pm, _ := out.Column("PM2.5")
	assert.Equal(t, KindNumeric, pm.Kind())
	assert.Equal(t, tbl.Names(), out.Names())
}

func TestParseTimestamp(t *testing.T) {
	tests := []struct {
		in   string
		ok   bool
		want time.Time
	}{
		{"2013-03-01 04:00:00", true, time.Date(2013, 3, 1, 4, 0, 0, 0, time.UTC)},
		{"2013-03-01", true, time.Date(2013, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"2013/03/01", true, time.Date(2013, 3, 1, 0, 0, 0, 0, time.UTC)},
		{"2013-03-01T04:00:00Z", true, time.Date(2013, 3, 1, 4, 0, 0, 0, time.UTC)},
		{"March 1st", false, time.Time{}},
		{"12", false, time.Time{}},
	}
	for _, tt := range tests {
		got, ok := ParseTimestamp(tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
		if tt.ok {
			assert.True(t, tt.want.Equal(got), tt.in)
		}
	}
}

func TestFilterByDateRange(t *testing.T) {
	tbl, err := NewTable(
		HourlySequence(DateColumn, SyntheticStart, 72),
		NewNumericColumn("PM2.5", make([]float64, 72)),
	)
	require.NoError(t, err)

	def, err := DefaultDateRange(tbl, DateColumn)
	require.NoError(t, err)
	assert.Equal(t, SyntheticStart, def.Start)
	assert.Equal(t, time.Date(2013, 3, 3, 0, 0, 0, 0, time.UTC), def.End)

	all, err := FilterByDateRange(tbl, def)
	require.NoError(t, err)
	assert.Equal(t, 72, all.NumRows())

	oneDay, err := FilterByDateRange(tbl, DateRange{
		Column: DateColumn,
		Start:  time.Date(2013, 3, 2, 0, 0, 0, 0, time.UTC),
		End:    time.Date(2013, 3, 2, 0, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)
	assert.Equal(t, 24, oneDay.NumRows())
	first, _ := oneDay.Column(DateColumn)
	ts, _ := first.Time(0)
	assert.Equal(t, time.Date(2013, 3, 2, 0, 0, 0, 0, time.UTC), ts)

	inverted, err := FilterByDateRange(tbl, DateRange{Column: DateColumn, Start: def.End, End: def.Start})
	require.NoError(t, err)
	assert.Equal(t, 0, inverted.NumRows())
}

func TestFilterByDateRange_ColumnErrors(t *testing.T) {
	tbl, err := NewTable(NewNumericColumn("PM2.5", []float64{1}))
	require.NoError(t, err)

	var colErr *ColumnError
	_, err = FilterByDateRange(tbl, DateRange{Column: "Date"})
	require.ErrorAs(t, err, &colErr)

	_, err = FilterByDateRange(tbl, DateRange{Column: "PM2.5"})
	require.ErrorAs(t, err, &colErr)
	assert.Contains(t, colErr.Error(), "not a timestamp")
}
