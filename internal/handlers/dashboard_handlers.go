package handlers

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"airquality-dashboard/internal/analysis"
	"airquality-dashboard/internal/charts"
	"airquality-dashboard/internal/services"
	"airquality-dashboard/internal/views"
	"airquality-dashboard/pkg/logging"
	"airquality-dashboard/pkg/metrics"
)

// Query parameters carrying widget state.
const (
	paramView       = "view"
	paramCleaning   = "cleaning"
	paramColumn     = "column"
	paramDateColumn = "date_column"
	paramStart      = "start"
	paramEnd        = "end"
)

// DashboardHandler serves the dashboard page, the view API and the charts
type DashboardHandler struct {
	service *services.DashboardService
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(
	service *services.DashboardService,
	logger *logging.StructuredLogger,
	metricsCollector *metrics.Collector,
) *DashboardHandler {
	return &DashboardHandler{
		service: service,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Code    int    `json:"code"`
}

// ViewSummary is one entry of the view list.
type ViewSummary struct {
	Slug    string `json:"slug"`
	Label   string `json:"label"`
	Default bool   `json:"default"`
}

// inputError reports a malformed query parameter.
type inputError struct {
	param string
	err   error
}

func (e *inputError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.param, e.err)
}

func (e *inputError) Unwrap() error { return e.err }

// ParseInputs reads widget state from query parameters. Dates use the
// YYYY-MM-DD layout of the date pickers.
func ParseInputs(q url.Values) (views.Inputs, error) {
	var in views.Inputs

	choice, err := analysis.ParseCleaningChoice(q.Get(paramCleaning))
	if err != nil {
		return in, &inputError{param: paramCleaning, err: err}
	}
	in.Cleaning = choice
	in.Column = q.Get(paramColumn)
	in.DateColumn = q.Get(paramDateColumn)

	for _, p := range []struct {
		name string
		dst  *time.Time
	}{
		{paramStart, &in.Start},
		{paramEnd, &in.End},
	} {
		raw := strings.TrimSpace(q.Get(p.name))
		if raw == "" {
			continue
		}
		ts, err := time.Parse(views.DateLayout, raw)
		if err != nil {
			return in, &inputError{param: p.name, err: err}
		}
		*p.dst = ts
	}
	return in, nil
}

// EncodeInputs is the inverse of ParseInputs; zero values are omitted.
func EncodeInputs(in views.Inputs) url.Values {
	q := url.Values{}
	q.Set(paramCleaning, in.Cleaning.Key())
	if in.Column != "" {
		q.Set(paramColumn, in.Column)
	}
	if in.DateColumn != "" {
		q.Set(paramDateColumn, in.DateColumn)
	}
	if !in.Start.IsZero() {
		q.Set(paramStart, in.Start.Format(views.DateLayout))
	}
	if !in.End.IsZero() {
		q.Set(paramEnd, in.End.Format(views.DateLayout))
	}
	return q
}

// ListViews handles GET /api/views
func (h *DashboardHandler) ListViews(w http.ResponseWriter, r *http.Request) {
	list := make([]ViewSummary, 0, len(views.All))
	for _, v := range views.All {
		list = append(list, ViewSummary{Slug: v.Slug(), Label: v.Label(), Default: v == views.Default})
	}
	h.sendJSON(w, map[string]interface{}{"views": list}, http.StatusOK)
}

// GetView handles GET /api/views/{view}
func (h *DashboardHandler) GetView(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	v, err := views.Parse(mux.Vars(r)["view"])
	if err != nil {
		h.metrics.RecordAPIError("unknown_view", "/api/views/{view}")
		h.sendError(w, err.Error(), http.StatusNotFound)
		return
	}

	in, err := ParseInputs(r.URL.Query())
	if err != nil {
		h.metrics.RecordAPIError("invalid_parameter", "/api/views/{view}")
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	payload, err := h.service.Render(ctx, v, in)
	if err != nil {
		h.logger.Error(ctx, "[API_GET_VIEW_ERROR] Failed to render view", logging.Fields{
			"view": v.Slug(),
		}, err)
		h.metrics.RecordAPIError("internal_error", "/api/views/{view}")
		h.sendError(w, "failed to render view", http.StatusInternalServerError)
		return
	}

	h.sendJSON(w, payload, http.StatusOK)
}

// GetChart handles GET /charts/{kind}.png
func (h *DashboardHandler) GetChart(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	kind, err := charts.ParseKind(mux.Vars(r)["kind"])
	if err != nil {
		h.metrics.RecordAPIError("unknown_chart", "/charts/{kind}.png")
		h.sendError(w, err.Error(), http.StatusNotFound)
		return
	}

	in, err := ParseInputs(r.URL.Query())
	if err != nil {
		h.metrics.RecordAPIError("invalid_parameter", "/charts/{kind}.png")
		h.sendError(w, err.Error(), http.StatusBadRequest)
		return
	}

	var buf bytes.Buffer
	err = h.service.Chart(ctx, kind, in, &buf)
	switch {
	case errors.Is(err, charts.ErrNoData):
		h.sendError(w, fmt.Sprintf("%s chart has no data for these inputs", kind), http.StatusNotFound)
		return
	case err != nil:
		h.logger.Error(ctx, "[API_GET_CHART_ERROR] Failed to render chart", logging.Fields{
			"chart": string(kind),
		}, err)
		h.metrics.RecordAPIError("internal_error", "/charts/{kind}.png")
		h.sendError(w, "failed to render chart", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(buf.Len()))
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	w.Write(buf.Bytes())
}

// GetDataset handles GET /api/dataset
func (h *DashboardHandler) GetDataset(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	h.sendJSON(w, map[string]interface{}{
		"dataset":     h.service.Info(ctx),
		"diagnostics": h.service.Diagnostics(ctx),
	}, http.StatusOK)
}

// HealthCheck handles GET /health
func (h *DashboardHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	info := h.service.Info(ctx)

	status := map[string]interface{}{
		"status":         "healthy",
		"dataset_loaded": info.Loaded,
		"dataset_rows":   info.Rows,
		"timestamp":      time.Now().UTC().Format(time.RFC3339),
	}

	h.logger.Debug(ctx, "[HEALTH_CHECK] Health check requested", logging.Fields{})
	h.sendJSON(w, status, http.StatusOK)
}

// sendJSON sends a JSON response
func (h *DashboardHandler) sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// sendError sends an error response
func (h *DashboardHandler) sendError(w http.ResponseWriter, message string, statusCode int) {
	response := ErrorResponse{
		Error:   http.StatusText(statusCode),
		Message: message,
		Code:    statusCode,
	}

	h.sendJSON(w, response, statusCode)
}

// RegisterRoutes registers the dashboard page, API and documentation routes
func (h *DashboardHandler) RegisterRoutes(router *mux.Router) {
	router.Use(RequestMiddleware(h.logger, h.metrics))

	router.HandleFunc("/", h.Page).Methods("GET")
	router.HandleFunc("/api/views", h.ListViews).Methods("GET")
	router.HandleFunc("/api/views/{view}", h.GetView).Methods("GET")
	router.HandleFunc("/api/dataset", h.GetDataset).Methods("GET")
	router.HandleFunc("/charts/{kind:[a-z0-9-]+}.png", h.GetChart).Methods("GET")
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
	router.HandleFunc("/api/docs/openapi.json", OpenAPISpec).Methods("GET")
	router.HandleFunc("/api/docs", SwaggerUI).Methods("GET")
}
