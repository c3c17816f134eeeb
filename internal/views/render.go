package views

import (
	"errors"
	"fmt"

	"airquality-dashboard/internal/analysis"
	"airquality-dashboard/internal/dataset"
)

// Render builds the payload of view v over t. User-facing problems such as
// a missing column are reported as payload messages; the returned error is
// reserved for unknown views and internal failures.
func Render(v View, t *dataset.Table, in Inputs) (*Payload, error) {
	if t == nil {
		t = dataset.Empty()
	}
	switch v {
	case Gathering:
		return renderGathering(t), nil
	case Assessing:
		return renderAssessing(t), nil
	case Cleaning:
		return renderCleaning(t, in)
	case EDA:
		return renderEDA(t, in)
	case Visualization:
		return renderVisualization(t, in)
	default:
		return nil, fmt.Errorf("%w: %d", ErrUnknownView, int(v))
	}
}

func renderGathering(t *dataset.Table) *Payload {
	p := newPayload(Gathering)
	p.Preview = NewPreview(t, PreviewRows)
	return p
}

func renderAssessing(t *dataset.Table) *Payload {
	p := newPayload(Assessing)
	p.Summary = analysis.Describe(t)
	p.Missing = analysis.MissingCounts(t)
	if len(p.Summary) == 0 {
		p.AddMessage(LevelInfo, "No numeric columns to summarize.")
	}
	return p
}

func renderCleaning(t *dataset.Table, in Inputs) (*Payload, error) {
	p := newPayload(Cleaning)
	p.Controls.Cleaning = in.Cleaning.Key()

	cleaned, err := analysis.Clean(t, in.Cleaning)
	if err != nil {
		return nil, fmt.Errorf("failed to clean dataset: %w", err)
	}
	p.Preview = NewPreview(cleaned, PreviewRows)
	return p, nil
}

func renderEDA(t *dataset.Table, in Inputs) (*Payload, error) {
	p := newPayload(EDA)
	p.Controls.NumericColumns = t.ColumnsOfKind(dataset.KindNumeric)
	p.Controls.Column = in.Column

	if len(p.Controls.NumericColumns) == 0 {
		p.AddMessage(LevelWarning, "No numeric columns available.")
		return p, nil
	}
	if in.Column == "" {
		return p, nil
	}

	dist, err := analysis.NewDistribution(t, in.Column)
	var colErr *dataset.ColumnError
	switch {
	case errors.As(err, &colErr):
		p.AddMessage(LevelWarning, "Column %q is not a numeric column.", in.Column)
		return p, nil
	case err != nil:
		return nil, fmt.Errorf("failed to build distribution: %w", err)
	}

	p.Distribution = dist
	if dist.Count == 0 {
		p.AddMessage(LevelWarning, "Column %q has no values to plot.", in.Column)
	}
	return p, nil
}

func renderVisualization(t *dataset.Table, in Inputs) (*Payload, error) {
	p := newPayload(Visualization)
	if t.IsEmpty() {
		p.AddMessage(LevelError, "The dataset is empty. Please check the data source.")
		p.Stopped = true
		return p, nil
	}

	reparsed := dataset.ReparseTimes(t)
	filtered, err := applyDateFilter(p, reparsed, in)
	if err != nil {
		return nil, err
	}
	p.FilteredRows = filtered.NumRows()

	monthlyPM25(p, filtered)
	pollutantCorrelation(p, filtered)
	return p, nil
}

// applyDateFilter selects the filter column and bounds and returns the
// matching rows. Without any timestamp column the table passes through.
func applyDateFilter(p *Payload, t *dataset.Table, in Inputs) (*dataset.Table, error) {
	dateCols := t.ColumnsOfKind(dataset.KindTime)
	p.Controls.DateColumns = dateCols
	if len(dateCols) == 0 {
		p.AddMessage(LevelWarning, "No date columns available for filtering.")
		return t, nil
	}

	column := dateCols[0]
	for _, c := range dateCols {
		if c == in.DateColumn {
			column = c
		}
	}
	if in.DateColumn != "" && in.DateColumn != column {
		p.AddMessage(LevelWarning, "Column %q is not a date column; filtering by %q.", in.DateColumn, column)
	}
	p.Controls.DateColumn = column

	bounds, err := dataset.DefaultDateRange(t, column)
	var colErr *dataset.ColumnError
	if errors.As(err, &colErr) {
		p.AddMessage(LevelWarning, "Column %q has no dates; the date filter is not applied.", column)
		return t, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to compute date bounds: %w", err)
	}
	p.Controls.MinDate = bounds.Start.Format(DateLayout)
	p.Controls.MaxDate = bounds.End.Format(DateLayout)

	r := bounds
	if !in.Start.IsZero() {
		r.Start = in.Start
	}
	if !in.End.IsZero() {
		r.End = in.End
	}
	p.Controls.Start = r.Start.Format(DateLayout)
	p.Controls.End = r.End.Format(DateLayout)
	if r.Start.After(r.End) {
		p.AddMessage(LevelWarning, "Start date %s is after end date %s.", p.Controls.Start, p.Controls.End)
	}

	filtered, err := dataset.FilterByDateRange(t, r)
	if err != nil {
		return nil, fmt.Errorf("failed to filter by date: %w", err)
	}
	if filtered.NumRows() == 0 {
		p.AddMessage(LevelWarning, "No rows fall between %s and %s.", p.Controls.Start, p.Controls.End)
	}
	return filtered, nil
}

// monthlyPM25 averages PM2.5 by the month of the primary timestamp.
func monthlyPM25(p *Payload, t *dataset.Table) {
	if len(analysis.AvailableNumeric(t, []string{analysis.PM25})) == 0 {
		p.AddMessage(LevelWarning, "Column %q not found; monthly averages are unavailable.", analysis.PM25)
		p.Monthly = []analysis.MonthlyMean{}
		return
	}

	monthly, err := analysis.MonthlyMeans(t, analysis.PM25, dataset.DateColumn)
	if err != nil {
		p.AddMessage(LevelWarning, "Monthly averages are unavailable: %v.", err)
		p.Monthly = []analysis.MonthlyMean{}
		return
	}
	if monthly == nil {
		monthly = []analysis.MonthlyMean{}
	}
	p.Monthly = monthly
}

func pollutantCorrelation(p *Payload, t *dataset.Table) {
	available := analysis.AvailableNumeric(t, analysis.Pollutants)
	if len(available) < 2 {
		p.AddMessage(LevelWarning, "At least two pollutant columns are needed for the correlation heat map; found %d.", len(available))
		p.Correlation = &analysis.CorrelationMatrix{Columns: []string{}, Values: [][]*float64{}}
		return
	}

	m, err := analysis.Correlation(t, available)
	if err != nil {
		p.AddMessage(LevelWarning, "Correlation is unavailable: %v.", err)
		p.Correlation = &analysis.CorrelationMatrix{Columns: []string{}, Values: [][]*float64{}}
		return
	}
	if len(available) < len(analysis.Pollutants) {
		p.AddMessage(LevelInfo, "Correlation uses %d of %d pollutant columns.", len(available), len(analysis.Pollutants))
	}
	p.Correlation = m
}
