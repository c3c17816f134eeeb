package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"github.com/charmbracelet/lipgloss"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"airquality-dashboard/internal/charts"
	"airquality-dashboard/internal/config"
	"airquality-dashboard/internal/dataset"
	"airquality-dashboard/internal/handlers"
	"airquality-dashboard/internal/services"
	"airquality-dashboard/internal/views"
	"airquality-dashboard/pkg/logging"
	"airquality-dashboard/pkg/metrics"
)

var (
	dataPath   string
	sheet      string
	viewName   string
	cleaning   string
	column     string
	dateColumn string
	startDate  string
	endDate    string
	chartsDir  string
)

var rootCmd = &cobra.Command{
	Use:   "report",
	Short: "Render one dashboard view to the terminal",
	Long: `Loads the dataset the same way the dashboard does, renders the selected
view and prints its messages, tables and statistics. With --charts-dir the
view's charts are written as PNG files.`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runReport,
}

func init() {
	f := rootCmd.Flags()
	f.StringVar(&dataPath, "data", "", "Dataset file (default: AQ_DATASET_PATH)")
	f.StringVar(&sheet, "sheet", "", "Worksheet name for .xlsx files")
	f.StringVar(&viewName, "view", views.Default.Slug(), "View slug or menu label")
	f.StringVar(&cleaning, "cleaning", "", "Cleaning choice: drop or fill")
	f.StringVar(&column, "column", "", "Column for the distribution chart")
	f.StringVar(&dateColumn, "date-column", "", "Timestamp column used by the date filter")
	f.StringVar(&startDate, "start", "", "First day of the date filter (YYYY-MM-DD)")
	f.StringVar(&endDate, "end", "", "Last day of the date filter (YYYY-MM-DD)")
	f.StringVar(&chartsDir, "charts-dir", "", "Directory to write chart PNGs into")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func runReport(cmd *cobra.Command, args []string) error {
	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if dataPath == "" {
		dataPath = cfg.Dataset.Path
	}
	if sheet == "" {
		sheet = cfg.Dataset.Sheet
	}

	v, err := views.Parse(viewName)
	if err != nil {
		return err
	}
	in, err := handlers.ParseInputs(url.Values{
		"cleaning":    {cleaning},
		"column":      {column},
		"date_column": {dateColumn},
		"start":       {startDate},
		"end":         {endDate},
	})
	if err != nil {
		return err
	}

	ctx := context.Background()
	logger := logging.NewStructuredLogger("airquality-report", "1.0.0", logging.ParseLevel(cfg.Logging.Level))
	logger.SetOutput(cmd.ErrOrStderr())
	defer logger.Sync()

	dashboard := services.NewDashboardService(
		dataset.NewFileLoader(dataPath, sheet),
		logger,
		metrics.NewCollector("airquality_report", prometheus.NewRegistry()),
	)

	payload, err := dashboard.Render(ctx, v, in)
	if err != nil {
		return err
	}
	writeReport(cmd.OutOrStdout(), payload)

	if chartsDir == "" {
		return nil
	}
	written, err := writeCharts(ctx, dashboard, in, chartsDir)
	if err != nil {
		return err
	}
	for _, path := range written {
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
	}
	return nil
}

// writeCharts renders every chart the dashboard can draw for in. Charts with
// no data are skipped.
func writeCharts(ctx context.Context, dashboard *services.DashboardService, in views.Inputs, dir string) ([]string, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create charts directory: %w", err)
	}

	var written []string
	for _, kind := range charts.Kinds {
		path := filepath.Join(dir, string(kind)+".png")
		f, err := os.Create(path)
		if err != nil {
			return written, fmt.Errorf("failed to create %s: %w", path, err)
		}
		err = dashboard.Chart(ctx, kind, in, f)
		f.Close()
		if errors.Is(err, charts.ErrNoData) {
			os.Remove(path)
			continue
		}
		if err != nil {
			os.Remove(path)
			return written, fmt.Errorf("failed to render %s: %w", kind, err)
		}
		written = append(written, path)
	}
	return written, nil
}

func writeReport(w io.Writer, p *views.Payload) {
	r := lipgloss.NewRenderer(w)
	bold := r.NewStyle().Bold(true)
	levels := map[views.Level]lipgloss.Style{
		views.LevelInfo:    r.NewStyle().Foreground(lipgloss.Color("12")),
		views.LevelWarning: r.NewStyle().Foreground(lipgloss.Color("11")),
		views.LevelError:   r.NewStyle().Foreground(lipgloss.Color("9")).Bold(true),
	}

	fmt.Fprintln(w, strings.Repeat("=", 80))
	fmt.Fprintln(w, bold.Render(strings.ToUpper(p.Title)))
	fmt.Fprintln(w, strings.Repeat("=", 80))

	for _, m := range p.Messages {
		tag := levels[m.Level].Render("[" + strings.ToUpper(string(m.Level)) + "]")
		fmt.Fprintf(w, "%s %s\n", tag, m.Text)
	}

	if p.Preview != nil {
		section(w, bold, fmt.Sprintf("Preview (%d rows)", p.Preview.Total))
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, strings.Join(p.Preview.Columns, "\t"))
		for _, row := range p.Preview.Cells {
			fmt.Fprintln(tw, strings.Join(row, "\t"))
		}
		tw.Flush()
	}

	if len(p.Summary) > 0 {
		section(w, bold, "Summary")
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(tw, "column\tcount\tmean\tstd\tmin\t25%\t50%\t75%\tmax\t")
		for _, s := range p.Summary {
			fmt.Fprintf(tw, "%s\t%d\t%s\t%s\t%s\t%s\t%s\t%s\t%s\t\n",
				s.Column, s.Count, num(s.Mean), num(s.Std), num(s.Min),
				num(s.Q25), num(s.Q50), num(s.Q75), num(s.Max))
		}
		tw.Flush()
	}

	if len(p.Missing) > 0 {
		section(w, bold, "Missing values")
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, m := range p.Missing {
			fmt.Fprintf(tw, "%s\t%d\n", m.Column, m.Missing)
		}
		tw.Flush()
	}

	if d := p.Distribution; d != nil {
		section(w, bold, fmt.Sprintf("Distribution of %s (%d values, %d bins)", d.Column, d.Count, len(d.Bins)))
		for _, b := range d.Bins {
			fmt.Fprintf(w, "[%10.3f, %10.3f)  %d\n", b.Lower, b.Upper, b.Count)
		}
	}

	if len(p.Monthly) > 0 {
		section(w, bold, fmt.Sprintf("Monthly mean PM2.5 (%d rows in range)", p.FilteredRows))
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		for _, m := range p.Monthly {
			fmt.Fprintf(tw, "%s\t%.2f\t%d readings\n", charts.MonthLabel(m.Month), m.Mean, m.Count)
		}
		tw.Flush()
	}

	if c := p.Correlation; !c.IsEmpty() {
		section(w, bold, "Pollutant correlation")
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
		fmt.Fprintln(tw, "\t"+strings.Join(c.Columns, "\t")+"\t")
		for i, name := range c.Columns {
			cells := make([]string, len(c.Columns))
			for j := range c.Columns {
				cells[j] = num(c.Values[i][j])
			}
			fmt.Fprintln(tw, name+"\t"+strings.Join(cells, "\t")+"\t")
		}
		tw.Flush()
	}
}

func section(w io.Writer, style lipgloss.Style, title string) {
	fmt.Fprintln(w)
	fmt.Fprintln(w, style.Render(title))
	fmt.Fprintln(w, strings.Repeat("-", len(title)))
}

func num(v *float64) string {
	if v == nil {
		return "NaN"
	}
	return fmt.Sprintf("%.3f", *v)
}
