package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"airquality-dashboard/internal/charts"
	"airquality-dashboard/internal/dataset"
	"airquality-dashboard/internal/models"
	"airquality-dashboard/internal/repository"
	"airquality-dashboard/internal/views"
	"airquality-dashboard/pkg/logging"
	"airquality-dashboard/pkg/metrics"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

const stationCSV = `No,year,month,day,hour,PM2.5,PM10,SO2,NO2,CO,O3,TEMP,PRES,DEWP,RAIN,wd,WSPM,station
1,2013,3,1,0,9,9,6,17,200,62,0.3,1021.9,-19,0,WNW,2,Wanliu
2,2013,3,1,1,11,11,7,14,200,66,-0.1,1022.4,-19.3,0,WNW,4.4,Wanliu
3,2013,3,1,2,NA,8,NA,16,200,59,-0.6,1022.6,-19.7,0,NW,4.7,Wanliu
4,2013,4,1,3,30,12,8,20,300,50,-0.7,1023.5,-20.9,0,NW,2.6,Wanliu
`

type stubLoader struct {
	table *dataset.Table
	err   error
	calls int
}

func (l *stubLoader) Load(context.Context) (*dataset.Table, error) {
	l.calls++
	return l.table, l.err
}

func (l *stubLoader) Source() string { return "stub.csv" }

type recordingRepository struct {
	repository.ReadingRepository
	batches [][]*models.Reading
	err     error
}

func (r *recordingRepository) InsertReadingsBatch(_ context.Context, readings []*models.Reading) error {
	if r.err != nil {
		return r.err
	}
	r.batches = append(r.batches, append([]*models.Reading(nil), readings...))
	return nil
}

func newTestCollector() *metrics.Collector {
	return metrics.NewCollector("test", prometheus.NewRegistry())
}

func stationTable(t *testing.T) *dataset.Table {
	t.Helper()
	tbl, err := dataset.ReadCSV(strings.NewReader(stationCSV))
	require.NoError(t, err)
	return tbl
}

func TestDashboardService_LoadOnce(t *testing.T) {
	loader := &stubLoader{table: stationTable(t)}
	m := newTestCollector()
	svc := NewDashboardService(loader, logging.NewNopLogger(), m)

	first := svc.Load(context.Background())
	second := svc.Load(context.Background())

	assert.Equal(t, 1, loader.calls)
	assert.Same(t, first, second)
	assert.Equal(t, 4, first.NumRows())

	_, ok := first.Column(dataset.DateColumn)
	assert.True(t, ok, "normalization adds the Date column")
	assert.Empty(t, svc.Diagnostics(context.Background()))
	assert.Equal(t, 4.0, testutil.ToFloat64(m.DatasetRows))

	info := svc.Info(context.Background())
	assert.Equal(t, "stub.csv", info.Source)
	assert.True(t, info.Loaded)
	assert.Equal(t, 4, info.Rows)
}

func TestDashboardService_LoadFailures(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		wantText  string
		errorType string
	}{
		{
			name:      "missing file",
			err:       fmt.Errorf("%w: stub.csv", dataset.ErrDatasetNotFound),
			wantText:  "File not found: stub.csv. Please ensure the file exists in the specified directory.",
			errorType: "not_found",
		},
		{
			name:      "unreadable file",
			err:       errors.New("permission denied"),
			wantText:  "Failed to load stub.csv: permission denied",
			errorType: "read_error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestCollector()
			svc := NewDashboardService(&stubLoader{err: tt.err}, logging.NewNopLogger(), m)

			tbl := svc.Load(context.Background())
			assert.True(t, tbl.IsEmpty())
			assert.Equal(t, 1.0, testutil.ToFloat64(m.DatasetLoadErrors.WithLabelValues(tt.errorType)))

			for _, v := range views.All {
				payload, err := svc.Render(context.Background(), v, views.Inputs{})
				require.NoError(t, err, v.Label())
				require.NotEmpty(t, payload.Messages)
				assert.Equal(t, views.Message{Level: views.LevelError, Text: tt.wantText}, payload.Messages[0])
			}
		})
	}
}

func TestDashboardService_UnparsedDates(t *testing.T) {
	tbl, err := dataset.ReadCSV(strings.NewReader("Date,PM2.5\n2013-03-01 00:00:00,1\nyesterday,2\n"))
	require.NoError(t, err)

	svc := NewDashboardService(&stubLoader{table: tbl}, logging.NewNopLogger(), newTestCollector())
	diags := svc.Diagnostics(context.Background())
	require.Len(t, diags, 1)
	assert.Equal(t, views.LevelWarning, diags[0].Level)
	assert.Contains(t, diags[0].Text, "1 value(s)")
}

func TestDashboardService_Render(t *testing.T) {
	m := newTestCollector()
	svc := NewDashboardService(&stubLoader{table: stationTable(t)}, logging.NewNopLogger(), m)

	payload, err := svc.Render(context.Background(), views.Gathering, views.Inputs{})
	require.NoError(t, err)
	assert.Equal(t, 4, payload.Preview.Total)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ViewRendersTotal.WithLabelValues("gathering")))

	payload, err = svc.Render(context.Background(), views.EDA, views.Inputs{Column: "wd"})
	require.NoError(t, err)
	assert.True(t, payload.HasLevel(views.LevelWarning))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.ViewWarningsTotal.WithLabelValues("eda", "warning")))

	_, err = svc.Render(context.Background(), views.View(42), views.Inputs{})
	assert.ErrorIs(t, err, views.ErrUnknownView)
}

func TestDashboardService_Chart(t *testing.T) {
	svc := NewDashboardService(&stubLoader{table: stationTable(t)}, logging.NewNopLogger(), newTestCollector())
	png := []byte("\x89PNG\r\n\x1a\n")

	tests := []struct {
		name    string
		kind    charts.Kind
		in      views.Inputs
		wantErr error
	}{
		{name: "monthly", kind: charts.KindMonthlyPM25},
		{name: "correlation", kind: charts.KindCorrelation},
		{name: "distribution", kind: charts.KindDistribution, in: views.Inputs{Column: "PM10"}},
		{name: "distribution without column", kind: charts.KindDistribution, wantErr: charts.ErrNoData},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var buf bytes.Buffer
			err := svc.Chart(context.Background(), tt.kind, tt.in, &buf)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.True(t, bytes.HasPrefix(buf.Bytes(), png))
		})
	}
}

func TestDashboardService_ChartEmptyTable(t *testing.T) {
	svc := NewDashboardService(&stubLoader{err: dataset.ErrDatasetNotFound}, logging.NewNopLogger(), newTestCollector())
	for _, kind := range charts.Kinds {
		err := svc.Chart(context.Background(), kind, views.Inputs{Column: "PM2.5"}, &bytes.Buffer{})
		assert.ErrorIs(t, err, charts.ErrNoData, string(kind))
	}
}

func TestIngestionService_IngestTable(t *testing.T) {
	tbl, _, err := dataset.Normalize(stationTable(t))
	require.NoError(t, err)

	repo := &recordingRepository{}
	svc := NewIngestionService(repo, logging.NewNopLogger(), newTestCollector())

	result, err := svc.IngestTable(context.Background(), tbl, "Default", 3)
	require.NoError(t, err)

	assert.Equal(t, 4, result.TotalRecords)
	assert.Equal(t, 4, result.SuccessfulRecords)
	assert.Equal(t, 0, result.FailedRecords)
	require.Len(t, repo.batches, 2)
	assert.Len(t, repo.batches[0], 3)
	assert.Len(t, repo.batches[1], 1)

	third := repo.batches[0][2]
	assert.Equal(t, "Wanliu", third.Station)
	assert.Nil(t, third.PM25)
	require.NotNil(t, third.PM10)
	assert.Equal(t, 8.0, *third.PM10)
}

func TestIngestionService_InsertError(t *testing.T) {
	tbl, _, err := dataset.Normalize(stationTable(t))
	require.NoError(t, err)

	boom := errors.New("connection reset")
	svc := NewIngestionService(&recordingRepository{err: boom}, logging.NewNopLogger(), newTestCollector())

	_, err = svc.IngestTable(context.Background(), tbl, "", 10)
	assert.ErrorIs(t, err, boom)
}

func TestIngestionService_IngestPaths(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "PRSA_Data_Wanliu_20130301-20170228.csv"), []byte(stationCSV), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.csv"), []byte("year,month,day,hour,PM2.5\n2013,2,30,0,5\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o644))

	repo := &recordingRepository{}
	svc := NewIngestionService(repo, logging.NewNopLogger(), newTestCollector())

	result, err := svc.IngestPaths(context.Background(), []string{dir}, "", 0)
	require.NoError(t, err)

	assert.Equal(t, 2, result.TotalFiles)
	assert.Equal(t, 5, result.TotalRecords)
	assert.Equal(t, 4, result.SuccessfulRecords)
	assert.Equal(t, 1, result.FailedRecords)
	assert.Equal(t, []string{"Wanliu", "broken"}, result.Stations)
	assert.Empty(t, result.Errors)

	empty := filepath.Join(dir, "empty")
	require.NoError(t, os.Mkdir(empty, 0o755))
	_, err = svc.IngestPaths(context.Background(), []string{empty}, "", 0)
	assert.Error(t, err)
}

func TestStationFromPath(t *testing.T) {
	assert.Equal(t, "Wanliu", StationFromPath("/data/PRSA_Data_Wanliu_20130301-20170228.csv"))
	assert.Equal(t, "Aotizhongxin", StationFromPath("PRSA_Data_Aotizhongxin_20130301-20170228.xlsx"))
	assert.Equal(t, "beijing", StationFromPath("beijing.csv"))
}
