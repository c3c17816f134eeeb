package charts

import (
	"fmt"
	"io"
	"math"

	"github.com/wcharczuk/go-chart/v2"
	"github.com/wcharczuk/go-chart/v2/drawing"

	"airquality-dashboard/internal/analysis"
)

const heatmapTitle = "Correlation Heatmap of Pollutants"

// coolwarm anchors: -1, 0 and +1.
var (
	coolLow  = drawing.Color{R: 59, G: 76, B: 192, A: 255}
	coolMid  = drawing.Color{R: 221, G: 221, B: 221, A: 255}
	coolHigh = drawing.Color{R: 180, G: 4, B: 38, A: 255}
	noValue  = drawing.Color{R: 245, G: 245, B: 245, A: 255}
)

// Heatmap draws an annotated correlation matrix with a color bar.
func Heatmap(w io.Writer, m *analysis.CorrelationMatrix) error {
	if m.IsEmpty() {
		return ErrNoData
	}

	r, err := chart.PNG(Width, Height)
	if err != nil {
		return fmt.Errorf("failed to create renderer: %w", err)
	}
	font, err := chart.GetDefaultFont()
	if err != nil {
		return fmt.Errorf("failed to load font: %w", err)
	}
	r.SetDPI(chart.DefaultDPI)
	r.SetFont(font)

	fillRect(r, 0, 0, Width, Height, drawing.ColorWhite)

	const (
		top    = 50
		left   = 80
		bottom = 50
		barW   = 20
		barGap = 30
	)
	n := len(m.Columns)
	side := Height - top - bottom
	if maxSide := Width - left - barGap - barW - 60; side > maxSide {
		side = maxSide
	}
	cell := side / n

	r.SetFontColor(drawing.ColorBlack)
	r.SetFontSize(14)
	tb := r.MeasureText(heatmapTitle)
	r.Text(heatmapTitle, (Width-tb.Width())/2, top/2+tb.Height()/2)

	r.SetFontSize(10)
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			x0, y0 := left+j*cell, top+i*cell
			v, ok := m.At(i, j)
			fill := noValue
			label := "nan"
			if ok {
				fill = coolwarm(v)
				label = fmt.Sprintf("%.2f", v)
			}
			fillRect(r, x0, y0, x0+cell, y0+cell, fill)

			r.SetFontColor(drawing.ColorBlack)
			if ok && math.Abs(v) > 0.6 {
				r.SetFontColor(drawing.ColorWhite)
			}
			lb := r.MeasureText(label)
			r.Text(label, x0+(cell-lb.Width())/2, y0+(cell+lb.Height())/2)
		}
	}

	r.SetFontColor(drawing.ColorBlack)
	for i, name := range m.Columns {
		nb := r.MeasureText(name)
		r.Text(name, left-nb.Width()-8, top+i*cell+(cell+nb.Height())/2)
		r.Text(name, left+i*cell+(cell-nb.Width())/2, top+n*cell+nb.Height()+8)
	}

	drawColorBar(r, left+n*cell+barGap, top, barW, n*cell)

	if err := r.Save(w); err != nil {
		return fmt.Errorf("failed to encode heatmap: %w", err)
	}
	return nil
}

func drawColorBar(r chart.Renderer, x, y, width, height int) {
	const steps = 100
	for s := 0; s < steps; s++ {
		v := 1 - 2*float64(s)/float64(steps-1)
		y0 := y + s*height/steps
		y1 := y + (s+1)*height/steps
		fillRect(r, x, y0, x+width, y1, coolwarm(v))
	}
	r.SetFontColor(drawing.ColorBlack)
	for _, tick := range []float64{1, 0.5, 0, -0.5, -1} {
		label := fmt.Sprintf("%.1f", tick)
		tb := r.MeasureText(label)
		ty := y + int((1-tick)/2*float64(height))
		r.Text(label, x+width+6, ty+tb.Height()/2)
	}
}

func fillRect(r chart.Renderer, x0, y0, x1, y1 int, c drawing.Color) {
	r.SetFillColor(c)
	r.SetStrokeColor(c)
	r.SetStrokeWidth(0)
	r.MoveTo(x0, y0)
	r.LineTo(x1, y0)
	r.LineTo(x1, y1)
	r.LineTo(x0, y1)
	r.LineTo(x0, y0)
	r.Close()
	r.FillStroke()
}

// coolwarm maps v in [-1, 1] onto a diverging blue-grey-red scale.
func coolwarm(v float64) drawing.Color {
	v = math.Max(-1, math.Min(1, v))
	if v < 0 {
		return lerp(coolMid, coolLow, -v)
	}
	return lerp(coolMid, coolHigh, v)
}

func lerp(a, b drawing.Color, t float64) drawing.Color {
	mix := func(x, y uint8) uint8 {
		return uint8(math.Round(float64(x) + (float64(y)-float64(x))*t))
	}
	return drawing.Color{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: 255}
}
