package handlers

import (
	"bytes"
	"html/template"
	"net/http"
	"strconv"

	"airquality-dashboard/internal/analysis"
	"airquality-dashboard/internal/charts"
	"airquality-dashboard/internal/views"
	"airquality-dashboard/pkg/logging"
)

type navItem struct {
	Slug   string
	Label  string
	Active bool
}

type choiceItem struct {
	Key     string
	Label   string
	Checked bool
}

type pageData struct {
	Nav      []navItem
	Payload  *views.Payload
	Cleaning []choiceItem
	Charts   map[string]string
}

var pageFuncs = template.FuncMap{
	"num": func(v *float64) string {
		if v == nil {
			return "NaN"
		}
		return strconv.FormatFloat(*v, 'f', 6, 64)
	},
	"cell": func(m *analysis.CorrelationMatrix, i, j int) string {
		if v, ok := m.At(i, j); ok {
			return strconv.FormatFloat(v, 'f', 2, 64)
		}
		return "nan"
	},
	"monthName": charts.MonthLabel,
}

var pageTemplate = template.Must(template.New("dashboard").Funcs(pageFuncs).Parse(`<!DOCTYPE html>
<html lang="en">
<head>
    <meta charset="UTF-8">
    <title>Data Analysis App</title>
    <style>
        body { margin: 0; font-family: sans-serif; display: flex; }
        nav { width: 260px; min-height: 100vh; background: #f0f2f6; padding: 1rem; box-sizing: border-box; }
        nav h2 { font-size: 1rem; }
        nav a { display: block; padding: .5rem; color: #31333f; text-decoration: none; border-radius: 4px; }
        nav a.active { background: #ff4b4b; color: #fff; }
        main { flex: 1; padding: 1rem 2rem; }
        table { border-collapse: collapse; margin: .5rem 0 1rem; font-size: .85rem; }
        th, td { border: 1px solid #ddd; padding: .25rem .5rem; text-align: right; }
        th { background: #fafafa; }
        .msg { padding: .5rem 1rem; margin: .5rem 0; border-radius: 4px; }
        .msg.error { background: #ffe2e2; }
        .msg.warning { background: #fff5d6; }
        .msg.info { background: #e1efff; }
        form { margin: .5rem 0 1rem; }
        img { max-width: 100%; }
    </style>
</head>
<body>
<nav>
    <h2>Fitur Analysis</h2>
    {{range .Nav}}<a href="/?view={{.Slug}}"{{if .Active}} class="active"{{end}}>{{.Label}}</a>
    {{end}}
</nav>
<main>
    <h1>Data Analysis App</h1>
    <h3>Features:</h3>
    <ul>
        <li><b>Gathering Data</b>: View dataset.</li>
        <li><b>Assessing Data</b>: Summary statistics and missing values.</li>
        <li><b>Cleaning Data</b>: Handle missing values.</li>
        <li><b>Exploratory Data Analysis (EDA)</b>: Visualize and explore relationships.</li>
        <li><b>Visualization &amp; Explanatory Analysis</b>: Interactive charts.</li>
    </ul>

    {{with .Payload}}
    <h2>{{.Title}}</h2>
    {{range .Messages}}<div class="msg {{.Level}}">{{.Text}}</div>
    {{end}}

    {{$slug := .View.Slug}}
    {{if eq $slug "cleaning"}}
    <form method="get" action="/">
        <input type="hidden" name="view" value="cleaning">
        <p>Choose how to handle missing values:</p>
        {{range $.Cleaning}}<label><input type="radio" name="cleaning" value="{{.Key}}"{{if .Checked}} checked{{end}} onchange="this.form.submit()"> {{.Label}}</label><br>
        {{end}}
    </form>
    <p>Cleaned Data Sample:</p>
    {{else if eq $slug "gathering"}}
    <p>Sample Data:</p>
    {{end}}

    {{with .Preview}}
    <table>
        <tr>{{range .Columns}}<th>{{.}}</th>{{end}}</tr>
        {{range .Cells}}<tr>{{range .}}<td>{{.}}</td>{{end}}</tr>
        {{end}}
    </table>
    <p>{{.Total}} rows</p>
    {{end}}

    {{if eq $slug "assessing"}}
    <p>Summary Statistics:</p>
    <table>
        <tr><th></th><th>count</th><th>mean</th><th>std</th><th>min</th><th>25%</th><th>50%</th><th>75%</th><th>max</th></tr>
        {{range .Summary}}<tr><th>{{.Column}}</th><td>{{.Count}}</td><td>{{num .Mean}}</td><td>{{num .Std}}</td><td>{{num .Min}}</td><td>{{num .Q25}}</td><td>{{num .Q50}}</td><td>{{num .Q75}}</td><td>{{num .Max}}</td></tr>
        {{end}}
    </table>
    <p>Missing Values:</p>
    <table>
        {{range .Missing}}<tr><th>{{.Column}}</th><td>{{.Missing}}</td></tr>
        {{end}}
    </table>
    {{end}}

    {{if eq $slug "eda"}}
    {{if .Controls.NumericColumns}}
    <form method="get" action="/">
        <input type="hidden" name="view" value="eda">
        <label>Select a numerical column:
            <select name="column" onchange="this.form.submit()">
                <option value=""></option>
                {{$col := .Controls.Column}}
                {{range .Controls.NumericColumns}}<option value="{{.}}"{{if eq . $col}} selected{{end}}>{{.}}</option>
                {{end}}
            </select>
        </label>
    </form>
    {{end}}
    {{if .HasDistributionChart}}
    <p>Distribution of {{.Distribution.Column}}:</p>
    <img src="{{index $.Charts "distribution"}}" alt="Distribution of {{.Distribution.Column}}">
    {{end}}
    {{end}}

    {{if eq $slug "visualization"}}
    {{if not .Stopped}}
    {{if .Controls.DateColumns}}
    <form method="get" action="/">
        <input type="hidden" name="view" value="visualization">
        <label>Pilih Kolom Tanggal:
            <select name="date_column">
                {{$dc := .Controls.DateColumn}}
                {{range .Controls.DateColumns}}<option value="{{.}}"{{if eq . $dc}} selected{{end}}>{{.}}</option>
                {{end}}
            </select>
        </label>
        <label>Start date <input type="date" name="start" value="{{.Controls.Start}}" min="{{.Controls.MinDate}}" max="{{.Controls.MaxDate}}"></label>
        <label>End date <input type="date" name="end" value="{{.Controls.End}}" min="{{.Controls.MinDate}}" max="{{.Controls.MaxDate}}"></label>
        <button type="submit">Apply</button>
    </form>
    <p>{{.FilteredRows}} rows selected</p>
    {{end}}

    <h3>How does PM2.5 concentration vary by month?</h3>
    {{if .HasMonthlyChart}}
    <img src="{{index $.Charts "monthly-pm25"}}" alt="Average PM2.5 Concentration by Month">
    <table>
        <tr><th>Month</th><th>Average PM2.5 Concentration</th></tr>
        {{range .Monthly}}<tr><th>{{monthName .Month}}</th><td>{{printf "%.2f" .Mean}}</td></tr>
        {{end}}
    </table>
    {{end}}

    <h3>What is the correlation between PM2.5 and other pollutants?</h3>
    {{if .HasCorrelationChart}}
    <img src="{{index $.Charts "correlation"}}" alt="Correlation Heatmap of Pollutants">
    {{$m := .Correlation}}
    <table>
        <tr><th></th>{{range .Correlation.Columns}}<th>{{.}}</th>{{end}}</tr>
        {{range $i, $name := .Correlation.Columns}}<tr><th>{{$name}}</th>{{range $j, $c := $m.Columns}}<td>{{cell $m $i $j}}</td>{{end}}</tr>
        {{end}}
    </table>
    {{end}}
    {{end}}
    {{end}}
    {{end}}
</main>
</body>
</html>`))

// Page handles GET /, rendering the selected view as HTML. The view is taken
// from the "view" query parameter and defaults to Gathering Data.
func (h *DashboardHandler) Page(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	q := r.URL.Query()

	v, err := views.Parse(q.Get(paramView))
	if err != nil {
		h.metrics.RecordAPIError("unknown_view", "/")
		h.sendError(w, err.Error(), http.StatusNotFound)
		return
	}

	in, err := ParseInputs(q)
	if err != nil {
		h.metrics.RecordAPIError("invalid_parameter", "/")
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	payload, err := h.service.Render(ctx, v, in)
	if err != nil {
		h.logger.Error(ctx, "[PAGE_RENDER_ERROR] Failed to render view", logging.Fields{
			"view": v.Slug(),
		}, err)
		h.metrics.RecordAPIError("internal_error", "/")
		h.sendError(w, "failed to render view", http.StatusInternalServerError)
		return
	}

	data := pageData{
		Payload: payload,
		Charts:  chartURLs(in),
	}
	for _, item := range views.All {
		data.Nav = append(data.Nav, navItem{Slug: item.Slug(), Label: item.Label(), Active: item == v})
	}
	for _, c := range analysis.CleaningChoices {
		data.Cleaning = append(data.Cleaning, choiceItem{Key: c.Key(), Label: c.Label(), Checked: c == in.Cleaning})
	}

	var buf bytes.Buffer
	if err := pageTemplate.Execute(&buf, data); err != nil {
		h.logger.Error(ctx, "[PAGE_TEMPLATE_ERROR] Failed to execute page template", logging.Fields{
			"view": v.Slug(),
		}, err)
		h.metrics.RecordAPIError("template_error", "/")
		h.sendError(w, "failed to render page", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// chartURLs builds the chart image links carrying the current widget state.
func chartURLs(in views.Inputs) map[string]string {
	query := EncodeInputs(in).Encode()
	urls := make(map[string]string, len(charts.Kinds))
	for _, k := range charts.Kinds {
		urls[string(k)] = "/charts/" + string(k) + ".png?" + query
	}
	return urls
}
