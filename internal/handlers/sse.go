package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/starfederation/datastar-go/datastar"

	"shopping-trends/internal/errors"
	"shopping-trends/internal/observability"
	"shopping-trends/internal/report"
	"shopping-trends/internal/services"
	"shopping-trends/internal/ui"
)

type SSEHandlers struct {
	reports *services.Reports
	logger  *slog.Logger
}

func NewSSEHandlers(reports *services.Reports, logger *slog.Logger) *SSEHandlers {
	return &SSEHandlers{
		reports: reports,
		logger:  logger,
	}
}

// renderFigure returns the figure element for one chart.
func (h *SSEHandlers) renderFigure(r *http.Request, chart report.Chart) (string, error) {
	svg, err := h.reports.Artifact(chart.ID, report.FormatSVG)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := ui.Figure(chart, svg).Render(r.Context(), &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// HandleChart patches one chart's figure and publishes its data as the
// chart_<id> signal.
func (h *SSEHandlers) HandleChart(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	run := h.reports.Run()
	if run == nil {
		errors.WriteError(w, h.logger, errors.ServiceUnavailable("report not computed yet"),
			observability.GetRequestID(r.Context()))
		return
	}
	chart, result, ok := run.Chart(id)
	if !ok {
		errors.WriteError(w, h.logger, errors.NotFound(fmt.Sprintf("chart %q not found", id)),
			observability.GetRequestID(r.Context()))
		return
	}

	sse := datastar.NewSSE(w, r)

	html, err := h.renderFigure(r, chart)
	if err != nil {
		h.logger.Error("render chart figure", "chart", id, "error", err)
		return
	}
	if err := sse.PatchElements(html); err != nil {
		h.logger.Warn("patch chart", "chart", id, "error", err)
		return
	}

	jsonData, err := json.Marshal(map[string]any{
		signalName(id): result,
	})
	if err != nil {
		h.logger.Error("marshal chart data", "chart", id, "error", err)
		return
	}
	if err := sse.PatchSignals(jsonData); err != nil {
		h.logger.Warn("patch chart signals", "chart", id, "error", err)
		return
	}

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

// HandleRefreshAll patches every chart figure in catalog order.
func (h *SSEHandlers) HandleRefreshAll(w http.ResponseWriter, r *http.Request) {
	run := h.reports.Run()
	if run == nil {
		errors.WriteError(w, h.logger, errors.ServiceUnavailable("report not computed yet"),
			observability.GetRequestID(r.Context()))
		return
	}

	sse := datastar.NewSSE(w, r)

	for _, chart := range run.Charts {
		if r.Context().Err() != nil {
			return
		}
		html, err := h.renderFigure(r, chart)
		if err != nil {
			h.logger.Error("render chart figure", "chart", chart.ID, "error", err)
			return
		}
		if err := sse.PatchElements(html); err != nil {
			h.logger.Warn("patch chart", "chart", chart.ID, "error", err)
			return
		}
	}

	allSignals, err := json.Marshal(map[string]any{
		"runId":    run.ID,
		"topItems": run.Report.TopItems,
	})
	if err != nil {
		h.logger.Error("marshal all signals data", "error", err)
		return
	}
	if err := sse.PatchSignals(allSignals); err != nil {
		h.logger.Warn("patch signals", "error", err)
		return
	}

	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
}

// signalName turns a chart id into a signal identifier.
func signalName(id string) string {
	return "chart_" + strings.ReplaceAll(id, "-", "_")
}
