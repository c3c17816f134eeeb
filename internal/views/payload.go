package views

import (
	"fmt"
	"time"

	"airquality-dashboard/internal/analysis"
	"airquality-dashboard/internal/dataset"
)

// DateLayout is the format of date picker values.
const DateLayout = "2006-01-02"

// PreviewRows is the number of rows shown by the table previews.
const PreviewRows = 5

// Level is the severity of a user-visible message.
type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Message is a user-visible diagnostic attached to a payload.
type Message struct {
	Level Level  `json:"level"`
	Text  string `json:"text"`
}

// Inputs are the widget values of one interaction.
type Inputs struct {
	Cleaning   analysis.CleaningChoice
	Column     string
	DateColumn string
	// Start and End are inclusive dates; zero values select the observed bounds.
	Start time.Time
	End   time.Time
}

// Preview is a rendered slice of a table.
type Preview struct {
	Columns []string        `json:"columns"`
	Rows    [][]interface{} `json:"rows"`
	// Cells holds the display text of Rows with NaN/NaT/None markers.
	Cells [][]string `json:"-"`
	Total int        `json:"total_rows"`
}

// Controls describes the widget state a view was rendered with and the
// options the widgets offer.
type Controls struct {
	Cleaning       string   `json:"cleaning,omitempty"`
	NumericColumns []string `json:"numeric_columns,omitempty"`
	Column         string   `json:"column,omitempty"`
	DateColumns    []string `json:"date_columns,omitempty"`
	DateColumn     string   `json:"date_column,omitempty"`
	Start          string   `json:"start,omitempty"`
	End            string   `json:"end,omitempty"`
	MinDate        string   `json:"min_date,omitempty"`
	MaxDate        string   `json:"max_date,omitempty"`
}

// Payload is everything a view presents for one interaction.
type Payload struct {
	View         View                        `json:"view"`
	Title        string                      `json:"title"`
	Messages     []Message                   `json:"messages"`
	Preview      *Preview                    `json:"preview,omitempty"`
	Summary      []analysis.ColumnSummary    `json:"summary,omitempty"`
	Missing      []analysis.MissingCount     `json:"missing,omitempty"`
	Distribution *analysis.Distribution      `json:"distribution,omitempty"`
	Monthly      []analysis.MonthlyMean      `json:"monthly,omitempty"`
	Correlation  *analysis.CorrelationMatrix `json:"correlation,omitempty"`
	FilteredRows int                         `json:"filtered_rows,omitempty"`
	Controls     Controls                    `json:"controls"`
	// Stopped is set when the view could not produce its charts.
	Stopped bool `json:"stopped,omitempty"`
}

func newPayload(v View) *Payload {
	return &Payload{View: v, Title: v.Label(), Messages: []Message{}}
}

// AddMessage appends a formatted message.
func (p *Payload) AddMessage(level Level, format string, args ...interface{}) {
	p.Messages = append(p.Messages, Message{Level: level, Text: fmt.Sprintf(format, args...)})
}

// Prepend puts messages in front of the payload's own.
func (p *Payload) Prepend(msgs ...Message) {
	if len(msgs) == 0 {
		return
	}
	p.Messages = append(append([]Message{}, msgs...), p.Messages...)
}

// HasLevel reports whether any message has the given level.
func (p *Payload) HasLevel(level Level) bool {
	for _, m := range p.Messages {
		if m.Level == level {
			return true
		}
	}
	return false
}

// HasMonthlyChart reports whether a monthly bar chart can be drawn.
func (p *Payload) HasMonthlyChart() bool { return len(p.Monthly) > 0 }

// HasCorrelationChart reports whether a heat map can be drawn.
func (p *Payload) HasCorrelationChart() bool { return !p.Correlation.IsEmpty() }

// HasDistributionChart reports whether a histogram can be drawn.
func (p *Payload) HasDistributionChart() bool {
	return p.Distribution != nil && len(p.Distribution.Bins) > 0
}

// NewPreview renders the first n rows of t.
func NewPreview(t *dataset.Table, n int) *Preview {
	head := t.Head(n)
	p := &Preview{
		Columns: head.Names(),
		Rows:    make([][]interface{}, head.NumRows()),
		Cells:   make([][]string, head.NumRows()),
		Total:   t.NumRows(),
	}
	cols := head.Columns()
	for i := 0; i < head.NumRows(); i++ {
		p.Rows[i] = head.Row(i)
		cells := make([]string, len(cols))
		for j, c := range cols {
			cells[j] = c.Format(i)
		}
		p.Cells[i] = cells
	}
	return p
}
