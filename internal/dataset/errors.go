package dataset

import (
	"errors"
	"fmt"
)

// ErrDatasetNotFound is returned by loaders when the source file does not exist.
var ErrDatasetNotFound = errors.New("dataset not found")

// ColumnError reports a column that is absent, duplicated or of the wrong kind.
type ColumnError struct {
	Column string
	Reason string
}

func (e *ColumnError) Error() string {
	return fmt.Sprintf("column %q: %s", e.Column, e.Reason)
}

// IsTransient returns false as column errors depend only on the data
func (e *ColumnError) IsTransient() bool {
	return false
}
