package charts

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"airquality-dashboard/internal/analysis"
	"airquality-dashboard/internal/dataset"
)

var pngSignature = []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}

func f(v float64) *float64 { return &v }

func TestMonthlyBar(t *testing.T) {
	var buf bytes.Buffer
	err := MonthlyBar(&buf, []analysis.MonthlyMean{
		{Month: 3, Mean: 90.5, Count: 10},
		{Month: 4, Mean: 70.25, Count: 12},
	})
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngSignature))
}

func TestMonthlyBar_ZeroMeans(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, MonthlyBar(&buf, []analysis.MonthlyMean{{Month: 1, Mean: 0, Count: 1}}))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngSignature))
}

func TestHistogram(t *testing.T) {
	values := make([]float64, 200)
	for i := range values {
		values[i] = float64(i % 37)
	}
	tbl, err := dataset.NewTable(dataset.NewNumericColumn("TEMP", values))
	require.NoError(t, err)
	d, err := analysis.NewDistribution(tbl, "TEMP")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, Histogram(&buf, d))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngSignature))
}

func TestHeatmap(t *testing.T) {
	m := &analysis.CorrelationMatrix{
		Columns: []string{"PM2.5", "PM10", "SO2"},
		Values: [][]*float64{
			{f(1), f(0.88), nil},
			{f(0.88), f(1), f(-0.3)},
			{nil, f(-0.3), f(1)},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, Heatmap(&buf, m))
	assert.True(t, bytes.HasPrefix(buf.Bytes(), pngSignature))
}

func TestEmptyInputs(t *testing.T) {
	var buf bytes.Buffer
	assert.ErrorIs(t, MonthlyBar(&buf, nil), ErrNoData)
	assert.ErrorIs(t, Histogram(&buf, nil), ErrNoData)
	assert.ErrorIs(t, Histogram(&buf, &analysis.Distribution{Column: "x"}), ErrNoData)
	assert.ErrorIs(t, Heatmap(&buf, nil), ErrNoData)
	assert.ErrorIs(t, Heatmap(&buf, &analysis.CorrelationMatrix{}), ErrNoData)
	assert.Zero(t, buf.Len())
}

func TestCoolwarm(t *testing.T) {
	assert.Equal(t, coolLow, coolwarm(-1))
	assert.Equal(t, coolMid, coolwarm(0))
	assert.Equal(t, coolHigh, coolwarm(1))
	assert.Equal(t, coolHigh, coolwarm(3))
	assert.Equal(t, drawing.Color{R: 201, G: 113, B: 130, A: 255}, coolwarm(0.5))
}

func TestParseKind(t *testing.T) {
	for _, k := range Kinds {
		got, err := ParseKind(string(k))
		require.NoError(t, err)
		assert.Equal(t, k, got)
	}
	_, err := ParseKind("pie")
	assert.Error(t, err)
}

func TestMonthLabel(t *testing.T) {
	assert.Equal(t, "Jan", MonthLabel(1))
	assert.Equal(t, "Dec", MonthLabel(12))
	assert.Equal(t, "13", MonthLabel(13))
}
