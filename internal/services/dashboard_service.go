package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"

	"airquality-dashboard/internal/charts"
	"airquality-dashboard/internal/dataset"
	"airquality-dashboard/internal/views"
	"airquality-dashboard/pkg/logging"
	"airquality-dashboard/pkg/metrics"
)

// DashboardService owns the table loaded at startup and renders views over it.
// The table is never modified after Load, so concurrent renders share it.
type DashboardService struct {
	loader  dataset.Loader
	logger  *logging.StructuredLogger
	metrics *metrics.Collector

	once        sync.Once
	table       *dataset.Table
	diagnostics []views.Message
}

// DatasetInfo describes the loaded table.
type DatasetInfo struct {
	Source  string   `json:"source"`
	Rows    int      `json:"rows"`
	Columns []string `json:"columns"`
	Loaded  bool     `json:"loaded"`
}

// NewDashboardService creates a new dashboard service
func NewDashboardService(loader dataset.Loader, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *DashboardService {
	return &DashboardService{
		loader:  loader,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// Load reads and normalizes the dataset on the first call and returns the
// cached table afterwards. A failed load yields an empty table and an error
// message that every rendered view carries.
func (s *DashboardService) Load(ctx context.Context) *dataset.Table {
	s.once.Do(func() {
		s.table, s.diagnostics = s.load(ctx)
		s.metrics.RecordDatasetShape(s.table.NumRows(), s.table.NumColumns())
	})
	return s.table
}

func (s *DashboardService) load(ctx context.Context) (*dataset.Table, []views.Message) {
	source := s.loader.Source()
	timer := s.metrics.NewTimer(s.metrics.DatasetLoadDuration)

	s.logger.Info(ctx, "[DATASET_LOAD] Loading dataset", logging.Fields{
		"source": source,
	})

	raw, err := s.loader.Load(ctx)
	if err != nil {
		s.logger.Error(ctx, "[DATASET_LOAD_ERROR] Failed to load dataset", logging.Fields{
			"source": source,
		}, err)
		if errors.Is(err, dataset.ErrDatasetNotFound) {
			s.metrics.RecordDatasetLoadError("not_found")
			return dataset.Empty(), []views.Message{{
				Level: views.LevelError,
				Text:  fmt.Sprintf("File not found: %s. Please ensure the file exists in the specified directory.", source),
			}}
		}
		s.metrics.RecordDatasetLoadError("read_error")
		return dataset.Empty(), []views.Message{{
			Level: views.LevelError,
			Text:  fmt.Sprintf("Failed to load %s: %v", source, err),
		}}
	}

	table, report, err := dataset.Normalize(raw)
	if err != nil {
		s.logger.Error(ctx, "[DATASET_NORMALIZE_ERROR] Failed to normalize dataset", logging.Fields{
			"source": source,
		}, err)
		s.metrics.RecordDatasetLoadError("normalize_error")
		return dataset.Empty(), []views.Message{{
			Level: views.LevelError,
			Text:  fmt.Sprintf("Failed to prepare %s: %v", source, err),
		}}
	}

	var msgs []views.Message
	if report.Unparsed > 0 {
		msgs = append(msgs, views.Message{
			Level: views.LevelWarning,
			Text: fmt.Sprintf("%d value(s) in column %q did not match %q and were treated as missing.",
				report.Unparsed, dataset.DateColumn, dataset.TimestampLayout),
		})
	}

	duration := timer.ObserveDuration()
	s.logger.Info(ctx, "[DATASET_LOADED] Dataset ready", logging.Fields{
		"source":         source,
		"rows":           table.NumRows(),
		"columns":        table.NumColumns(),
		"date_synthetic": report.Synthesized,
		"dates_unparsed": report.Unparsed,
		"duration_ms":    duration.Milliseconds(),
	})

	return table, msgs
}

// Table returns the loaded table, loading it first when needed.
func (s *DashboardService) Table(ctx context.Context) *dataset.Table {
	return s.Load(ctx)
}

// Diagnostics returns the messages produced while loading.
func (s *DashboardService) Diagnostics(ctx context.Context) []views.Message {
	s.Load(ctx)
	return append([]views.Message(nil), s.diagnostics...)
}

// Info describes the loaded dataset.
func (s *DashboardService) Info(ctx context.Context) DatasetInfo {
	t := s.Load(ctx)
	return DatasetInfo{
		Source:  s.loader.Source(),
		Rows:    t.NumRows(),
		Columns: t.Names(),
		Loaded:  !t.IsEmpty(),
	}
}

// Render runs one view over the table with the given widget inputs.
func (s *DashboardService) Render(ctx context.Context, v views.View, in views.Inputs) (*views.Payload, error) {
	t := s.Load(ctx)

	timer := s.metrics.NewTimer(s.metrics.ViewRenderDuration.WithLabelValues(v.Slug()))
	payload, err := views.Render(v, t, in)
	if err != nil {
		s.logger.Error(ctx, "[VIEW_RENDER_ERROR] View render failed", logging.Fields{
			"view": v.Slug(),
		}, err)
		return nil, fmt.Errorf("failed to render %s: %w", v.Slug(), err)
	}
	duration := timer.ObserveDuration()

	payload.Prepend(s.diagnostics...)
	s.metrics.RecordViewRender(v.Slug())
	for _, m := range payload.Messages {
		if m.Level != views.LevelInfo {
			s.metrics.RecordViewMessage(v.Slug(), string(m.Level))
		}
	}

	s.logger.Debug(ctx, "[VIEW_RENDER] View rendered", logging.Fields{
		"view":        v.Slug(),
		"messages":    len(payload.Messages),
		"duration_ms": duration.Milliseconds(),
	})

	return payload, nil
}

// Chart renders one chart as PNG into w. It returns charts.ErrNoData when the
// view that owns the chart has nothing to plot for these inputs.
func (s *DashboardService) Chart(ctx context.Context, kind charts.Kind, in views.Inputs, w io.Writer) error {
	owner := views.Visualization
	if kind == charts.KindDistribution {
		owner = views.EDA
	}

	payload, err := s.Render(ctx, owner, in)
	if err != nil {
		return err
	}

	timer := s.metrics.NewTimer(s.metrics.ChartRenderDuration.WithLabelValues(string(kind)))
	defer timer.ObserveDuration()

	switch kind {
	case charts.KindMonthlyPM25:
		if payload.Stopped || !payload.HasMonthlyChart() {
			return charts.ErrNoData
		}
		err = charts.MonthlyBar(w, payload.Monthly)
	case charts.KindCorrelation:
		if payload.Stopped || !payload.HasCorrelationChart() {
			return charts.ErrNoData
		}
		err = charts.Heatmap(w, payload.Correlation)
	case charts.KindDistribution:
		if !payload.HasDistributionChart() {
			return charts.ErrNoData
		}
		err = charts.Histogram(w, payload.Distribution)
	default:
		return fmt.Errorf("unknown chart kind %q", kind)
	}
	if err != nil && !errors.Is(err, charts.ErrNoData) {
		s.logger.Error(ctx, "[CHART_RENDER_ERROR] Chart render failed", logging.Fields{
			"chart": string(kind),
		}, err)
		return fmt.Errorf("failed to render %s chart: %w", kind, err)
	}
	return err
}
