package analysis

import (
	"fmt"
	"math"
	"strings"

	"gonum.org/v1/gonum/stat"

	"airquality-dashboard/internal/dataset"
)

// CleaningChoice selects how missing values are handled by Clean.
type CleaningChoice int

const (
	DropRows CleaningChoice = iota
	FillMean
)

// CleaningChoices lists the choices in the order they are offered.
var CleaningChoices = []CleaningChoice{DropRows, FillMean}

// Key is the stable identifier used in query strings.
func (c CleaningChoice) Key() string {
	if c == FillMean {
		return "fill"
	}
	return "drop"
}

// Label is the text shown next to the radio button.
func (c CleaningChoice) Label() string {
	if c == FillMean {
		return "Fill missing values with mean"
	}
	return "Drop rows with missing values"
}

func (c CleaningChoice) String() string { return c.Key() }

// ParseCleaningChoice accepts a key or a label. The empty string selects DropRows.
func ParseCleaningChoice(s string) (CleaningChoice, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return DropRows, nil
	}
	for _, c := range CleaningChoices {
		if strings.EqualFold(s, c.Key()) || strings.EqualFold(s, c.Label()) {
			return c, nil
		}
	}
	return DropRows, fmt.Errorf("unknown cleaning choice %q", s)
}

// Clean returns a derived table according to choice.
func Clean(t *dataset.Table, choice CleaningChoice) (*dataset.Table, error) {
	switch choice {
	case DropRows:
		return DropMissingRows(t), nil
	case FillMean:
		return FillMissingWithMean(t)
	default:
		return nil, fmt.Errorf("unknown cleaning choice %d", choice)
	}
}

// DropMissingRows keeps, in order, the rows with no missing value in any column.
func DropMissingRows(t *dataset.Table) *dataset.Table {
	rows := make([]int, 0, t.NumRows())
	for i := 0; i < t.NumRows(); i++ {
		if !t.RowHasMissing(i) {
			rows = append(rows, i)
		}
	}
	return t.Subset(rows)
}

// FillMissingWithMean replaces missing numeric cells with the mean of the
// column's present values. Text and timestamp columns are kept as they are,
// as are numeric columns with no values at all.
func FillMissingWithMean(t *dataset.Table) (*dataset.Table, error) {
	out := t
	for _, col := range t.Columns() {
		if col.Kind() != dataset.KindNumeric || col.MissingCount() == 0 {
			continue
		}
		present := col.Present()
		if len(present) == 0 {
			continue
		}
		mean := stat.Mean(present, nil)

		filled := col.Floats()
		for i, v := range filled {
			if math.IsNaN(v) {
				filled[i] = mean
			}
		}

		next, err := out.WithColumn(dataset.NewNumericColumn(col.Name(), filled))
		if err != nil {
			return nil, fmt.Errorf("failed to fill column %q: %w", col.Name(), err)
		}
		out = next
	}
	return out, nil
}
