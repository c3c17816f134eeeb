package analysis

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/gonum/stat/distuv"

	"airquality-dashboard/internal/dataset"
)

const (
	maxBins     = 200
	densityGrid = 200
)

// Bin is one histogram bar covering [Lower, Upper); the last bin also holds Upper.
type Bin struct {
	Lower float64 `json:"lower"`
	Upper float64 `json:"upper"`
	Count int     `json:"count"`
}

// DensityPoint is a point of the smoothed density curve, scaled to bin counts
// so it can be drawn over the histogram.
type DensityPoint struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Distribution is a histogram with a Gaussian kernel density overlay.
type Distribution struct {
	Column    string         `json:"column"`
	Count     int            `json:"count"`
	Bins      []Bin          `json:"bins"`
	Density   []DensityPoint `json:"density,omitempty"`
	Bandwidth float64        `json:"bandwidth,omitempty"`
}

// NewDistribution builds the histogram and density curve of a numeric column's present values.
func NewDistribution(t *dataset.Table, column string) (*Distribution, error) {
	col, ok := t.Column(column)
	if !ok {
		return nil, &dataset.ColumnError{Column: column, Reason: "not found"}
	}
	if col.Kind() != dataset.KindNumeric {
		return nil, &dataset.ColumnError{Column: column, Reason: "is not numeric"}
	}

	values := col.Present()
	sort.Float64s(values)

	d := &Distribution{Column: column, Count: len(values)}
	if len(values) == 0 {
		return d, nil
	}

	edges := binEdges(values)
	d.Bins = histogram(values, edges)

	if bw := scottBandwidth(values); bw > 0 {
		d.Bandwidth = bw
		d.Density = density(values, bw, edges[0], edges[len(edges)-1], edges[1]-edges[0])
	}
	return d, nil
}

// binEdges picks the smaller of the Sturges and Freedman-Diaconis bin widths.
func binEdges(sorted []float64) []float64 {
	n := float64(len(sorted))
	lo, hi := sorted[0], sorted[len(sorted)-1]
	if lo == hi {
		return []float64{lo - 0.5, hi + 0.5}
	}

	span := hi - lo
	width := span / (math.Log2(n) + 1)
	iqr := Quantile(sorted, 0.75) - Quantile(sorted, 0.25)
	if fd := 2 * iqr * math.Pow(n, -1.0/3.0); fd > 0 && fd < width {
		width = fd
	}

	bins := int(math.Ceil(span / width))
	if bins < 1 {
		bins = 1
	}
	if bins > maxBins {
		bins = maxBins
	}
	edges := floats.Span(make([]float64, bins+1), lo, hi)
	edges[bins] = hi
	return edges
}

func histogram(sorted, edges []float64) []Bin {
	dividers := make([]float64, len(edges))
	copy(dividers, edges)
	// stat.Histogram excludes the upper divider; nudge it so the maximum lands in the last bin.
	dividers[len(dividers)-1] = math.Nextafter(dividers[len(dividers)-1], math.Inf(1))

	counts := stat.Histogram(nil, dividers, sorted, nil)

	bins := make([]Bin, len(counts))
	for i, c := range counts {
		bins[i] = Bin{Lower: edges[i], Upper: edges[i+1], Count: int(c)}
	}
	return bins
}

// scottBandwidth is std * n^(-1/5), or 0 when no spread exists.
func scottBandwidth(values []float64) float64 {
	if len(values) < 2 {
		return 0
	}
	std := stat.StdDev(values, nil)
	if std == 0 || math.IsNaN(std) {
		return 0
	}
	return std * math.Pow(float64(len(values)), -0.2)
}

func density(values []float64, bandwidth, lo, hi, binWidth float64) []DensityPoint {
	kernel := distuv.Normal{Mu: 0, Sigma: bandwidth}
	xs := floats.Span(make([]float64, densityGrid), lo, hi)

	points := make([]DensityPoint, len(xs))
	for i, x := range xs {
		var sum float64
		for _, v := range values {
			sum += kernel.Prob(x - v)
		}
		// mean density times n * binWidth equals sum * binWidth
		points[i] = DensityPoint{X: x, Y: sum * binWidth}
	}
	return points
}
