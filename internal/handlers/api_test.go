package handlers

import (
	"context"
	"encoding/json"
	"image/png"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"shopping-trends/internal/config"
	"shopping-trends/internal/dataset"
	"shopping-trends/internal/models"
	"shopping-trends/internal/services"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError}))
}

func createTestReports(t *testing.T) *services.Reports {
	t.Helper()
	records := []models.Record{
		{Age: 55, Gender: "Male", Item: "Blouse", Category: "Clothing", Amount: 53, Location: "Kentucky", Size: "L", Color: "Gray", Season: "Winter", ReviewRating: 3.1, Subscription: "Yes", ShippingType: "Express", DiscountApplied: "Yes", PaymentMethod: "Venmo", Frequency: "Fortnightly"},
		{Age: 19, Gender: "Male", Item: "Sweater", Category: "Clothing", Amount: 64, Location: "Maine", Size: "L", Color: "Maroon", Season: "Winter", ReviewRating: 3.1, Subscription: "Yes", ShippingType: "Express", DiscountApplied: "Yes", PaymentMethod: "Cash", Frequency: "Fortnightly"},
		{Age: 50, Gender: "Female", Item: "Jeans", Category: "Clothing", Amount: 73, Location: "Massachusetts", Size: "S", Color: "Maroon", Season: "Spring", ReviewRating: 3.1, Subscription: "No", ShippingType: "Free Shipping", DiscountApplied: "No", PaymentMethod: "Credit Card", Frequency: "Weekly"},
	}

	cfg := config.Default().Report
	cfg.Width, cfg.Height = 480, 270
	reports := services.NewReports(cfg, testLogger())
	if err := reports.Compute(context.Background(), "test.csv", dataset.New(nil, records)); err != nil {
		t.Fatalf("Compute() failed: %v", err)
	}
	return reports
}

func decodeData(t *testing.T, body []byte) any {
	t.Helper()
	var response struct {
		Data    any  `json:"data"`
		Success bool `json:"success"`
	}
	if err := json.Unmarshal(body, &response); err != nil {
		t.Fatalf("failed to parse response JSON: %v", err)
	}
	if !response.Success {
		t.Error("expected success to be true")
	}
	return response.Data
}

func TestNewAPIHandlers(t *testing.T) {
	reports := createTestReports(t)
	handlers := NewAPIHandlers(reports, testLogger())

	if handlers == nil {
		t.Fatal("NewAPIHandlers() returned nil")
	}
	if handlers.reports != reports {
		t.Error("NewAPIHandlers() should set reports field")
	}
}

func TestAPIHandlers_HandleCharts(t *testing.T) {
	handlers := NewAPIHandlers(createTestReports(t), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/charts", nil)
	w := httptest.NewRecorder()
	handlers.HandleCharts(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	if cc := w.Header().Get("Cache-Control"); cc != cacheMaxAge {
		t.Errorf("expected cache-control %q, got %q", cacheMaxAge, cc)
	}

	charts, ok := decodeData(t, w.Body.Bytes()).([]any)
	if !ok {
		t.Fatal("expected data to be a list")
	}
	if len(charts) != 25 {
		t.Errorf("expected 25 charts, got %d", len(charts))
	}
	first := charts[0].(map[string]any)
	if first["id"] != "gender-distribution" {
		t.Errorf("expected first chart gender-distribution, got %v", first["id"])
	}
	if first["png"] != "/charts/gender-distribution.png" {
		t.Errorf("unexpected png link %v", first["png"])
	}
}

func TestAPIHandlers_HandleChart(t *testing.T) {
	handlers := NewAPIHandlers(createTestReports(t), testLogger())

	tests := []struct {
		id             string
		expectedStatus int
	}{
		{"purchase-by-gender", http.StatusOK},
		{"correlation", http.StatusOK},
		{"no-such-chart", http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/charts/"+tt.id, nil)
			req.SetPathValue("id", tt.id)
			w := httptest.NewRecorder()

			handlers.HandleChart(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Errorf("expected content-type application/json, got %q", ct)
			}
		})
	}
}

func TestAPIHandlers_HandleChart_SeriesValues(t *testing.T) {
	handlers := NewAPIHandlers(createTestReports(t), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/charts/purchase-by-gender", nil)
	req.SetPathValue("id", "purchase-by-gender")
	w := httptest.NewRecorder()
	handlers.HandleChart(w, req)

	body := w.Body.String()
	if !strings.Contains(body, `"keys":["Female","Male"]`) {
		t.Errorf("expected gender keys in body, got %s", body)
	}
	if !strings.Contains(body, `"values":[73,117]`) {
		t.Errorf("expected gender sums in body, got %s", body)
	}
}

func TestAPIHandlers_HandleInspection(t *testing.T) {
	handlers := NewAPIHandlers(createTestReports(t), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/api/inspection", nil)
	w := httptest.NewRecorder()
	handlers.HandleInspection(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	data := decodeData(t, w.Body.Bytes()).(map[string]any)
	if data["rows"] != float64(3) {
		t.Errorf("expected 3 rows, got %v", data["rows"])
	}
}

func TestAPIHandlers_HandleArtifact(t *testing.T) {
	handlers := NewAPIHandlers(createTestReports(t), testLogger())

	tests := []struct {
		file           string
		expectedStatus int
		contentType    string
	}{
		{"gender-distribution.svg", http.StatusOK, "image/svg+xml"},
		{"gender-distribution.png", http.StatusOK, "image/png"},
		{"gender-distribution.gif", http.StatusBadRequest, "application/json"},
		{"unknown.svg", http.StatusNotFound, "application/json"},
	}

	for _, tt := range tests {
		t.Run(tt.file, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/charts/"+tt.file, nil)
			req.SetPathValue("file", tt.file)
			w := httptest.NewRecorder()

			handlers.HandleArtifact(w, req)

			if w.Code != tt.expectedStatus {
				t.Errorf("expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if ct := w.Header().Get("Content-Type"); ct != tt.contentType {
				t.Errorf("expected content-type %q, got %q", tt.contentType, ct)
			}
		})
	}
}

func TestAPIHandlers_HandleArtifact_PNGSize(t *testing.T) {
	handlers := NewAPIHandlers(createTestReports(t), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/charts/correlation.png", nil)
	req.SetPathValue("file", "correlation.png")
	w := httptest.NewRecorder()
	handlers.HandleArtifact(w, req)

	img, err := png.Decode(w.Body)
	if err != nil {
		t.Fatalf("png.Decode() failed: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 480 || b.Dy() != 270 {
		t.Errorf("expected 480x270, got %dx%d", b.Dx(), b.Dy())
	}
}

func TestAPIHandlers_HandleHealth(t *testing.T) {
	handlers := NewAPIHandlers(createTestReports(t), testLogger())

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	handlers.HandleHealth(w, req)

	if w.Code != http.StatusOK {
		t.Errorf("expected status %d, got %d", http.StatusOK, w.Code)
	}
	data := decodeData(t, w.Body.Bytes()).(map[string]any)
	if data["status"] != "healthy" {
		t.Errorf("expected status healthy, got %v", data["status"])
	}
	if _, ok := data["timestamp"]; !ok {
		t.Error("expected timestamp field in health response")
	}
	if cc := w.Header().Get("Cache-Control"); cc != "" {
		t.Errorf("health endpoint should not be cached, got %q", cc)
	}
}

func TestAPIHandlers_HandleStats(t *testing.T) {
	reports := createTestReports(t)
	handlers := NewAPIHandlers(reports, testLogger())

	req := httptest.NewRequest(http.MethodGet, "/admin/stats", nil)
	w := httptest.NewRecorder()
	handlers.HandleStats(w, req)

	data := decodeData(t, w.Body.Bytes()).(map[string]any)
	if data["run_id"] != reports.Run().ID {
		t.Errorf("expected run_id %s, got %v", reports.Run().ID, data["run_id"])
	}
	if data["charts"] != float64(25) {
		t.Errorf("expected 25 charts, got %v", data["charts"])
	}
	if data["rows"] != float64(3) {
		t.Errorf("expected 3 rows, got %v", data["rows"])
	}
}

func TestAPIHandlers_NotComputed(t *testing.T) {
	handlers := NewAPIHandlers(services.NewReports(config.Default().Report, testLogger()), testLogger())

	for _, h := range []http.HandlerFunc{handlers.HandleCharts, handlers.HandleInspection, handlers.HandleChart} {
		req := httptest.NewRequest(http.MethodGet, "/api/charts", nil)
		w := httptest.NewRecorder()
		h(w, req)

		if w.Code != http.StatusServiceUnavailable {
			t.Errorf("expected status %d, got %d", http.StatusServiceUnavailable, w.Code)
		}
	}

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	handlers.HandleHealth(w, req)
	if !strings.Contains(w.Body.String(), "starting") {
		t.Error("expected health to report starting before the first run")
	}
}
