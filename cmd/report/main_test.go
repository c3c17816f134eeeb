package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"airquality-dashboard/internal/dataset"
	"airquality-dashboard/internal/services"
	"airquality-dashboard/internal/views"
	"airquality-dashboard/pkg/logging"
	"airquality-dashboard/pkg/metrics"
)

const reportCSV = `No,PM2.5,PM10,SO2,NO2,CO,O3,wd,Date
1,10,20,3,40,500,60,NW,2013-03-01 00:00:00
2,NA,22,4,42,520,58,N,2013-03-01 01:00:00
3,30,35,5,45,600,50,NE,2013-04-02 00:00:00
4,50,60,8,55,700,40,E,2013-04-02 01:00:00
`

func newReportService(t *testing.T) *services.DashboardService {
	t.Helper()
	path := filepath.Join(t.TempDir(), "PRSA_Data_Wanliu_20130301-20170228.csv")
	require.NoError(t, os.WriteFile(path, []byte(reportCSV), 0o644))
	return services.NewDashboardService(
		dataset.NewFileLoader(path, ""),
		logging.NewNopLogger(),
		metrics.NewCollector("report_test", prometheus.NewRegistry()),
	)
}

func TestWriteReport(t *testing.T) {
	svc := newReportService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		view views.View
		in   views.Inputs
		want []string
	}{
		{
			name: "gathering preview",
			view: views.Gathering,
			want: []string{"GATHERING DATA", "Preview (4 rows)", "PM2.5", "NaN"},
		},
		{
			name: "assessing tables",
			view: views.Assessing,
			want: []string{"Summary", "Missing values", "count"},
		},
		{
			name: "visualization statistics",
			view: views.Visualization,
			want: []string{"Monthly mean PM2.5 (4 rows in range)", "Mar", "Apr", "Pollutant correlation"},
		},
		{
			name: "eda distribution",
			view: views.EDA,
			in:   views.Inputs{Column: "PM10"},
			want: []string{"Distribution of PM10 (4 values"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			payload, err := svc.Render(ctx, tt.view, tt.in)
			require.NoError(t, err)

			var buf bytes.Buffer
			writeReport(&buf, payload)
			for _, s := range tt.want {
				assert.Contains(t, buf.String(), s)
			}
		})
	}
}

func TestWriteCharts(t *testing.T) {
	svc := newReportService(t)
	dir := filepath.Join(t.TempDir(), "charts")

	written, err := writeCharts(context.Background(), svc, views.Inputs{}, dir)
	require.NoError(t, err)

	// No column selected, so only the visualization charts are drawn.
	assert.Equal(t, []string{
		filepath.Join(dir, "monthly-pm25.png"),
		filepath.Join(dir, "correlation.png"),
	}, written)
	_, err = os.Stat(filepath.Join(dir, "distribution.png"))
	assert.True(t, os.IsNotExist(err))

	for _, path := range written {
		data, err := os.ReadFile(path)
		require.NoError(t, err)
		assert.True(t, bytes.HasPrefix(data, []byte("\x89PNG")), path)
	}
}
