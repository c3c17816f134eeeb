package analysis

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"airquality-dashboard/internal/dataset"
)

// CorrelationMatrix is a symmetric Pearson matrix; undefined entries are nil.
type CorrelationMatrix struct {
	Columns []string     `json:"columns"`
	Values  [][]*float64 `json:"values"`
}

// IsEmpty reports whether the matrix has no columns.
func (m *CorrelationMatrix) IsEmpty() bool {
	return m == nil || len(m.Columns) == 0
}

// At returns entry (i, j) and whether it is defined.
func (m *CorrelationMatrix) At(i, j int) (float64, bool) {
	v := m.Values[i][j]
	if v == nil {
		return 0, false
	}
	return *v, true
}

// AvailableNumeric returns, in the order given, the names that exist in t as numeric columns.
func AvailableNumeric(t *dataset.Table, names []string) []string {
	var out []string
	for _, name := range names {
		if col, ok := t.Column(name); ok && col.Kind() == dataset.KindNumeric {
			out = append(out, name)
		}
	}
	return out
}

// Correlation computes pairwise Pearson coefficients over the rows where both
// columns of a pair are present. Columns must exist and be numeric.
func Correlation(t *dataset.Table, columns []string) (*CorrelationMatrix, error) {
	cols := make([]*dataset.Column, len(columns))
	for i, name := range columns {
		col, ok := t.Column(name)
		if !ok {
			return nil, &dataset.ColumnError{Column: name, Reason: "not found"}
		}
		if col.Kind() != dataset.KindNumeric {
			return nil, &dataset.ColumnError{Column: name, Reason: "is not numeric"}
		}
		cols[i] = col
	}

	m := &CorrelationMatrix{
		Columns: append([]string(nil), columns...),
		Values:  make([][]*float64, len(cols)),
	}
	for i := range m.Values {
		m.Values[i] = make([]*float64, len(cols))
	}

	for i := range cols {
		if hasSpread(cols[i].Present()) {
			one := 1.0
			m.Values[i][i] = &one
		}
		for j := i + 1; j < len(cols); j++ {
			r, ok := pairwisePearson(cols[i], cols[j])
			if !ok {
				continue
			}
			ri, rj := r, r
			m.Values[i][j] = &ri
			m.Values[j][i] = &rj
		}
	}
	return m, nil
}

func pairwisePearson(a, b *dataset.Column) (float64, bool) {
	xs := make([]float64, 0, a.Len())
	ys := make([]float64, 0, a.Len())
	for i := 0; i < a.Len(); i++ {
		if a.IsMissing(i) || b.IsMissing(i) {
			continue
		}
		xs = append(xs, a.Float(i))
		ys = append(ys, b.Float(i))
	}
	if !hasSpread(xs) || !hasSpread(ys) {
		return 0, false
	}
	r := stat.Correlation(xs, ys, nil)
	if math.IsNaN(r) {
		return 0, false
	}
	return math.Max(-1, math.Min(1, r)), true
}

func hasSpread(values []float64) bool {
	if len(values) < 2 {
		return false
	}
	for _, v := range values[1:] {
		if v != values[0] {
			return true
		}
	}
	return false
}
