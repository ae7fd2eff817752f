// Package export writes a computed run to disk and, optionally, to S3.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"time"

	"golang.org/x/sync/errgroup"

	"shopping-trends/internal/config"
	"shopping-trends/internal/errors"
	"shopping-trends/internal/observability"
	"shopping-trends/internal/report"
	"shopping-trends/internal/services"
	"shopping-trends/internal/ui"
)

const (
	IndexFile    = "index.html"
	ManifestFile = "manifest.json"
)

type Artifact struct {
	ChartID string `json:"chart_id,omitempty"`
	Format  string `json:"format"`
	Path    string `json:"path"`
	Key     string `json:"key,omitempty"`
	Bytes   int    `json:"bytes"`
}

// Manifest lists everything one Write produced.
type Manifest struct {
	RunID     string        `json:"run_id"`
	OutputDir string        `json:"output_dir"`
	Artifacts []Artifact    `json:"artifacts"`
	Uploaded  int           `json:"uploaded"`
	Duration  time.Duration `json:"duration"`
}

type Sink struct {
	report   config.ReportConfig
	storage  config.StorageConfig
	uploader Uploader
	logger   *slog.Logger
}

// NewSink returns a sink for cfg. A nil uploader keeps artifacts local.
func NewSink(cfg *config.Config, uploader Uploader, logger *slog.Logger) *Sink {
	if logger == nil {
		logger = slog.Default()
	}
	return &Sink{
		report:   cfg.Report,
		storage:  cfg.Storage,
		uploader: uploader,
		logger:   logger,
	}
}

// Write renders every chart in every configured format, then writes the
// index page and the manifest. The first failure cancels the remaining
// work.
func (s *Sink) Write(ctx context.Context, run *services.Run) (Manifest, error) {
	start := time.Now()
	ctx, span := observability.StartSpan(ctx, "export")
	span.SetTag("run_id", run.ID)
	defer span.End(s.logger)

	manifest := Manifest{RunID: run.ID, OutputDir: s.report.OutputDir}

	if err := os.MkdirAll(s.report.OutputDir, 0o755); err != nil {
		span.SetError(err)
		return manifest, errors.ExportWrap(err, "create output directory")
	}

	artifacts := make([]Artifact, 0, len(run.Charts)*len(s.report.Formats))
	for _, c := range run.Charts {
		for _, format := range s.report.Formats {
			artifacts = append(artifacts, Artifact{
				ChartID: c.ID,
				Format:  format,
				Path:    filepath.Join(s.report.OutputDir, c.ID+"."+format),
			})
		}
	}
	encoded := make([][]byte, len(artifacts))

	workers := s.report.Workers
	if workers <= 0 {
		workers = 1
	}
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	for i := range artifacts {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			a := &artifacts[i]
			chart, _, _ := run.Chart(a.ChartID)

			data, err := report.Encode(chart, a.Format)
			if err != nil {
				return err
			}
			encoded[i] = data
			a.Bytes = len(data)

			key, err := s.store(gctx, run.ID, a.Path, a.Format, data)
			if err != nil {
				return err
			}
			a.Key = key
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		span.SetError(err)
		if errors.HasCode(err, errors.CodeRender) {
			return manifest, err
		}
		return manifest, errors.ExportWrap(err, "write chart artifacts")
	}

	charts := renderedCharts{run: run, data: make(map[string][]byte, len(artifacts))}
	for i, a := range artifacts {
		charts.data[a.ChartID+"."+a.Format] = encoded[i]
	}

	var page bytes.Buffer
	if err := ui.Index(run, charts).Render(ctx, &page); err != nil {
		span.SetError(err)
		return manifest, errors.ExportWrap(err, "render index page")
	}
	index := Artifact{Format: "html", Path: filepath.Join(s.report.OutputDir, IndexFile), Bytes: page.Len()}
	key, err := s.store(ctx, run.ID, index.Path, "html", page.Bytes())
	if err != nil {
		span.SetError(err)
		return manifest, errors.ExportWrap(err, "write index page")
	}
	index.Key = key
	artifacts = append(artifacts, index)

	manifest.Artifacts = artifacts
	for _, a := range artifacts {
		if a.Key != "" {
			manifest.Uploaded++
		}
	}
	manifest.Duration = time.Since(start)

	data, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return manifest, errors.ExportWrap(err, "encode manifest")
	}
	if _, err := s.store(ctx, run.ID, filepath.Join(s.report.OutputDir, ManifestFile), "json", data); err != nil {
		span.SetError(err)
		return manifest, errors.ExportWrap(err, "write manifest")
	}

	span.SetTag("artifacts", fmt.Sprint(len(manifest.Artifacts)))
	s.logger.Info("report exported",
		"run_id", run.ID,
		"output_dir", s.report.OutputDir,
		"artifacts", len(manifest.Artifacts),
		"uploaded", manifest.Uploaded,
		"duration", manifest.Duration)
	return manifest, nil
}

// store writes data to file and uploads it when an uploader is set. It
// returns the object key, or "" when nothing was uploaded.
func (s *Sink) store(ctx context.Context, runID, file, format string, data []byte) (string, error) {
	if err := os.WriteFile(file, data, 0o644); err != nil {
		return "", fmt.Errorf("write %s: %w", file, err)
	}
	if s.uploader == nil {
		return "", nil
	}

	key := path.Join(s.storage.S3Prefix, runID, filepath.Base(file))
	if err := s.uploader.Upload(ctx, key, contentType(format), data); err != nil {
		return "", err
	}
	s.logger.Debug("artifact uploaded", "key", key, "bytes", len(data))
	return key, nil
}

func contentType(format string) string {
	switch format {
	case "html":
		return "text/html; charset=utf-8"
	case "json":
		return "application/json"
	}
	return report.ContentType(format)
}

// renderedCharts serves the artifacts this run already encoded and
// renders anything else on demand.
type renderedCharts struct {
	run  *services.Run
	data map[string][]byte
}

func (r renderedCharts) Artifact(id, format string) ([]byte, error) {
	if data, ok := r.data[id+"."+format]; ok {
		return data, nil
	}
	chart, _, ok := r.run.Chart(id)
	if !ok {
		return nil, fmt.Errorf("chart %q not in run", id)
	}
	return report.Encode(chart, format)
}
