package handlers

import (
	"fmt"
	"log/slog"
	"net/http"
	"path"
	"strings"
	"time"

	"shopping-trends/internal/errors"
	"shopping-trends/internal/observability"
	"shopping-trends/internal/report"
	"shopping-trends/internal/services"
)

const cacheMaxAge = "public, max-age=300"

type APIHandlers struct {
	reports *services.Reports
	logger  *slog.Logger
}

func NewAPIHandlers(reports *services.Reports, logger *slog.Logger) *APIHandlers {
	return &APIHandlers{
		reports: reports,
		logger:  logger,
	}
}

// chartSummary is one entry of the chart listing.
type chartSummary struct {
	ID      string `json:"id"`
	Section string `json:"section"`
	Title   string `json:"title"`
	Kind    string `json:"kind"`
	SVG     string `json:"svg"`
	PNG     string `json:"png"`
}

func (h *APIHandlers) currentRun(w http.ResponseWriter, r *http.Request) (*services.Run, bool) {
	run := h.reports.Run()
	if run == nil {
		errors.WriteError(w, h.logger, errors.ServiceUnavailable("report not computed yet"),
			observability.GetRequestID(r.Context()))
		return nil, false
	}
	return run, true
}

func (h *APIHandlers) HandleCharts(w http.ResponseWriter, r *http.Request) {
	run, ok := h.currentRun(w, r)
	if !ok {
		return
	}

	data := make([]chartSummary, len(run.Charts))
	for i, c := range run.Charts {
		data[i] = chartSummary{
			ID:      c.ID,
			Section: c.Section,
			Title:   c.Title,
			Kind:    string(c.Kind),
			SVG:     "/charts/" + c.ID + ".svg",
			PNG:     "/charts/" + c.ID + ".png",
		}
	}

	errors.WriteSuccessWithHeaders(w, data, map[string]string{"Cache-Control": cacheMaxAge})
}

func (h *APIHandlers) HandleChart(w http.ResponseWriter, r *http.Request) {
	run, ok := h.currentRun(w, r)
	if !ok {
		return
	}

	id := r.PathValue("id")
	chart, result, ok := run.Chart(id)
	if !ok {
		errors.WriteError(w, h.logger, errors.NotFound(fmt.Sprintf("chart %q not found", id)),
			observability.GetRequestID(r.Context()))
		return
	}

	data := map[string]any{
		"chart":  chart,
		"result": result,
	}
	errors.WriteSuccessWithHeaders(w, data, map[string]string{"Cache-Control": cacheMaxAge})
}

func (h *APIHandlers) HandleInspection(w http.ResponseWriter, r *http.Request) {
	run, ok := h.currentRun(w, r)
	if !ok {
		return
	}
	errors.WriteSuccessWithHeaders(w, run.Inspection, map[string]string{"Cache-Control": cacheMaxAge})
}

// HandleArtifact serves /charts/{file} where file is "<id>.svg" or
// "<id>.png".
func (h *APIHandlers) HandleArtifact(w http.ResponseWriter, r *http.Request) {
	file := r.PathValue("file")
	format := strings.TrimPrefix(path.Ext(file), ".")
	id := strings.TrimSuffix(file, path.Ext(file))
	requestID := observability.GetRequestID(r.Context())

	if format != report.FormatSVG && format != report.FormatPNG {
		errors.WriteError(w, h.logger, errors.BadRequest(fmt.Sprintf("unsupported artifact format %q", format)), requestID)
		return
	}

	data, err := h.reports.Artifact(id, format)
	if err != nil {
		errors.WriteError(w, h.logger, err, requestID)
		return
	}

	w.Header().Set("Content-Type", report.ContentType(format))
	w.Header().Set("Cache-Control", cacheMaxAge)
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(data); err != nil {
		h.logger.Warn("write artifact", "file", file, "error", err)
	}
}

func (h *APIHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	status := "healthy"
	if h.reports.Run() == nil {
		status = "starting"
	}

	healthData := map[string]string{
		"status":    status,
		"timestamp": time.Now().Format(time.RFC3339),
		"version":   "1.0.0",
	}

	errors.WriteSuccess(w, healthData)
}

func (h *APIHandlers) HandleStats(w http.ResponseWriter, r *http.Request) {
	errors.WriteSuccess(w, h.reports.Stats())
}
