package dataset

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/xuri/excelize/v2"
)

// MissingTokens are the cell values read as missing.
var MissingTokens = []string{"", "NA", "N/A", "NaN", "nan", "NULL", "null", "<nil>"}

// Loader produces the dashboard table from some source.
type Loader interface {
	Load(ctx context.Context) (*Table, error)
	// Source names what is read, for diagnostics.
	Source() string
}

// FileLoader reads a CSV file, or an XLSX workbook when the path ends in .xlsx.
type FileLoader struct {
	Path  string
	Sheet string
}

// NewFileLoader creates a loader for the file at path. Sheet is only used for workbooks.
func NewFileLoader(path, sheet string) *FileLoader {
	return &FileLoader{Path: path, Sheet: sheet}
}

// Source returns the file path.
func (l *FileLoader) Source() string { return l.Path }

// Load reads and type-detects the file.
func (l *FileLoader) Load(ctx context.Context) (*Table, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if _, err := os.Stat(l.Path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrDatasetNotFound, l.Path)
		}
		return nil, fmt.Errorf("failed to stat dataset: %w", err)
	}

	if strings.EqualFold(filepath.Ext(l.Path), ".xlsx") {
		return ReadXLSX(l.Path, l.Sheet)
	}

	f, err := os.Open(l.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open dataset: %w", err)
	}
	defer f.Close()

	return ReadCSV(f)
}

// ReadCSV parses CSV content with a header row.
func ReadCSV(r io.Reader) (*Table, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("failed to parse csv: %w", err)
	}
	return FromRecords(records)
}

// ReadXLSX reads a worksheet; an empty sheet name selects the first sheet.
func ReadXLSX(path, sheet string) (*Table, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open xlsx file: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}

	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %q: %w", sheet, err)
	}
	return FromRecords(rows)
}

// FromRecords builds a table from a header row followed by data rows. Column
// kinds are detected per column: integers and floats become numeric, anything
// else stays text.
func FromRecords(records [][]string) (*Table, error) {
	if len(records) == 0 {
		return Empty(), nil
	}

	header := records[0]
	width := len(header)
	if width == 0 {
		return Empty(), nil
	}

	if len(records) == 1 {
		cols := make([]*Column, width)
		for i, name := range header {
			cols[i] = NewTextColumn(strings.TrimSpace(name), nil, nil)
		}
		return NewTable(cols...)
	}

	normalized := make([][]string, len(records))
	normalized[0] = make([]string, width)
	for i, name := range header {
		normalized[0][i] = strings.TrimSpace(name)
	}
	for i, rec := range records[1:] {
		row := make([]string, width)
		copy(row, rec)
		for j := range row {
			row[j] = strings.TrimSpace(row[j])
		}
		normalized[i+1] = row
	}

	df := dataframe.LoadRecords(normalized,
		dataframe.HasHeader(true),
		dataframe.DetectTypes(true),
		dataframe.NaNValues(MissingTokens),
	)
	if df.Err != nil {
		return nil, fmt.Errorf("failed to load records: %w", df.Err)
	}

	return FromDataFrame(df, normalized[0])
}

// FromDataFrame converts a gota frame into a Table, keeping the order given by
// names (the frame's own order when names is nil).
func FromDataFrame(df dataframe.DataFrame, names []string) (*Table, error) {
	if names == nil {
		names = df.Names()
	}
	frameNames := df.Names()
	if len(frameNames) != len(names) {
		return nil, fmt.Errorf("frame has %d columns, expected %d", len(frameNames), len(names))
	}

	cols := make([]*Column, 0, len(names))
	for i, name := range names {
		s := df.Col(frameNames[i])
		if s.Err != nil {
			return nil, fmt.Errorf("failed to read column %q: %w", name, s.Err)
		}
		cols = append(cols, columnFromSeries(name, s))
	}
	return NewTable(cols...)
}

func columnFromSeries(name string, s series.Series) *Column {
	switch s.Type() {
	case series.Float, series.Int:
		return NewNumericColumn(name, s.Float())
	default:
		nan := s.IsNaN()
		valid := make([]bool, len(nan))
		for i, missing := range nan {
			valid[i] = !missing
		}
		return NewTextColumn(name, s.Records(), valid)
	}
}
