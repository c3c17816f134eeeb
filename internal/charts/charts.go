// Package charts renders dashboard figures as PNG images.
package charts

import (
	"errors"
	"fmt"
	"io"
	"math"
	"time"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"airquality-dashboard/internal/analysis"
)

const (
	Width  = 800
	Height = 480
)

// ErrNoData is returned when there is nothing to draw.
var ErrNoData = errors.New("no data to plot")

// Kind identifies a chart endpoint.
type Kind string

const (
	KindMonthlyPM25  Kind = "monthly-pm25"
	KindCorrelation  Kind = "correlation"
	KindDistribution Kind = "distribution"
)

// Kinds lists every chart kind.
var Kinds = []Kind{KindMonthlyPM25, KindCorrelation, KindDistribution}

// ParseKind resolves a chart name.
func ParseKind(s string) (Kind, error) {
	for _, k := range Kinds {
		if string(k) == s {
			return k, nil
		}
	}
	return "", fmt.Errorf("unknown chart %q", s)
}

var (
	barColor     = drawing.ColorFromHex("4c72b0")
	densityColor = drawing.ColorFromHex("c44e52")
)

// MonthLabel abbreviates month 1-12 as Jan-Dec.
func MonthLabel(month int) string {
	if month < 1 || month > 12 {
		return fmt.Sprint(month)
	}
	return time.Month(month).String()[:3]
}

// MonthlyBar draws one bar per month with the average PM2.5 concentration.
func MonthlyBar(w io.Writer, monthly []analysis.MonthlyMean) error {
	if len(monthly) == 0 {
		return ErrNoData
	}

	bars := make([]chart.Value, len(monthly))
	top := 0.0
	for i, m := range monthly {
		bars[i] = chart.Value{
			Label: MonthLabel(m.Month),
			Value: m.Mean,
			Style: chart.Style{FillColor: barColor, StrokeColor: barColor},
		}
		top = math.Max(top, m.Mean)
	}
	if top <= 0 {
		top = 1
	}

	graph := chart.BarChart{
		Title:    "Average PM2.5 Concentration by Month",
		Width:    Width,
		Height:   Height,
		BarWidth: 40,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16},
		},
		YAxis: chart.YAxis{
			Name:  "Average PM2.5 Concentration",
			Range: &chart.ContinuousRange{Min: 0, Max: top * 1.1},
		},
		Bars: bars,
	}
	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("failed to render monthly chart: %w", err)
	}
	return nil
}

// Histogram draws the bin counts of d with its density curve on top.
func Histogram(w io.Writer, d *analysis.Distribution) error {
	if d == nil || len(d.Bins) == 0 {
		return ErrNoData
	}

	xs := make([]float64, len(d.Bins))
	ys := make([]float64, len(d.Bins))
	top := 0.0
	for i, b := range d.Bins {
		xs[i] = (b.Lower + b.Upper) / 2
		ys[i] = float64(b.Count)
		top = math.Max(top, ys[i])
	}

	series := []chart.Series{
		chart.HistogramSeries{
			Name:  "Count",
			Style: chart.Style{FillColor: barColor.WithAlpha(180), StrokeColor: drawing.ColorWhite, StrokeWidth: 1},
			InnerSeries: chart.ContinuousSeries{
				XValues: xs,
				YValues: ys,
			},
		},
	}

	if len(d.Density) > 1 {
		dx := make([]float64, len(d.Density))
		dy := make([]float64, len(d.Density))
		for i, p := range d.Density {
			dx[i], dy[i] = p.X, p.Y
			top = math.Max(top, p.Y)
		}
		series = append(series, chart.ContinuousSeries{
			Name:    "Density",
			Style:   chart.Style{StrokeColor: densityColor, StrokeWidth: 2},
			XValues: dx,
			YValues: dy,
		})
	}
	if top <= 0 {
		top = 1
	}

	graph := chart.Chart{
		Title:  fmt.Sprintf("Distribution of %s", d.Column),
		Width:  Width,
		Height: Height,
		Background: chart.Style{
			Padding: chart.Box{Top: 40, Left: 16, Right: 16, Bottom: 16},
		},
		XAxis: chart.XAxis{
			Name:  d.Column,
			Range: &chart.ContinuousRange{Min: d.Bins[0].Lower, Max: d.Bins[len(d.Bins)-1].Upper},
		},
		YAxis: chart.YAxis{
			Name:  "Frequency",
			Range: &chart.ContinuousRange{Min: 0, Max: top * 1.1},
		},
		Series: series,
	}
	graph.Elements = []chart.Renderable{chart.Legend(&graph)}

	if err := graph.Render(chart.PNG, w); err != nil {
		return fmt.Errorf("failed to render histogram: %w", err)
	}
	return nil
}
