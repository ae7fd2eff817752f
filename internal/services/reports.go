package services

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"shopping-trends/internal/analysis"
	"shopping-trends/internal/config"
	"shopping-trends/internal/dataset"
	"shopping-trends/internal/errors"
	"shopping-trends/internal/observability"
	"shopping-trends/internal/report"
)

// Run is one completed report: the inspection, every aggregation result
// and the chart built from each. A Run is never modified once published.
type Run struct {
	ID         string             `json:"id"`
	Source     string             `json:"source"`
	CreatedAt  time.Time          `json:"created_at"`
	Inspection dataset.Inspection `json:"inspection"`
	Report     *analysis.Report   `json:"report"`
	Charts     []report.Chart     `json:"charts"`
	Duration   time.Duration      `json:"duration"`
}

// Chart returns the chart and result for id.
func (r *Run) Chart(id string) (report.Chart, *analysis.Result, bool) {
	for i, c := range r.Charts {
		if c.ID == id {
			return c, &r.Report.Results[i], true
		}
	}
	return report.Chart{}, nil, false
}

// Sections groups chart indexes by section, in catalog order.
func (r *Run) Sections() []Section {
	var sections []Section
	for i, c := range r.Charts {
		if n := len(sections); n > 0 && sections[n-1].Name == c.Section {
			sections[n-1].Charts = append(sections[n-1].Charts, i)
			continue
		}
		sections = append(sections, Section{Name: c.Section, Charts: []int{i}})
	}
	return sections
}

type Section struct {
	Name   string
	Charts []int
}

// Reports holds the current run and caches its rendered artifacts.
type Reports struct {
	mu        sync.RWMutex
	run       *Run
	artifacts map[string][]byte
	pipeline  *analysis.Pipeline
	cfg       config.ReportConfig

	rendered atomic.Int64
	logger   *slog.Logger
}

func NewReports(cfg config.ReportConfig, logger *slog.Logger) *Reports {
	if logger == nil {
		logger = slog.Default()
	}
	return &Reports{
		artifacts: make(map[string][]byte),
		pipeline:  analysis.NewPipeline(logger),
		cfg:       cfg,
		logger:    logger,
	}
}

// LoadFromCSV loads filename and computes a new run from it.
func (s *Reports) LoadFromCSV(ctx context.Context, filename string) error {
	start := time.Now()
	s.logger.Info("processing CSV file", "filename", filename)

	ctx, span := observability.StartSpan(ctx, "load")
	span.SetTag("file", filename)
	ds, err := dataset.Load(ctx, filename)
	if err != nil {
		span.SetError(err)
		span.End(s.logger)
		return err
	}
	span.End(s.logger)

	duration := time.Since(start)
	s.logger.Info("csv processing complete",
		"records", ds.Len(),
		"duration", duration,
		"rate", fmt.Sprintf("%.0f records/sec", float64(ds.Len())/duration.Seconds()))

	return s.Compute(ctx, filename, ds)
}

// Compute inspects ds, runs every aggregation and publishes the result as
// the current run.
func (s *Reports) Compute(ctx context.Context, source string, ds *dataset.Dataset) error {
	start := time.Now()

	inspection := dataset.Inspect(ds)
	s.logInspection(inspection)

	rep, err := s.pipeline.Run(ctx, ds)
	if err != nil {
		return err
	}

	run := &Run{
		ID:         uuid.NewString(),
		Source:     source,
		CreatedAt:  time.Now().UTC(),
		Inspection: inspection,
		Report:     rep,
		Charts:     report.Charts(rep.Results, s.cfg.Width, s.cfg.Height),
		Duration:   time.Since(start),
	}
	s.SetRun(run)

	s.logger.Info("report computed",
		"run_id", run.ID,
		"charts", len(run.Charts),
		"duration", run.Duration)
	return nil
}

func (s *Reports) logInspection(ins dataset.Inspection) {
	s.logger.Info("dataset inspection",
		"rows", ins.Rows,
		"columns", len(ins.Columns),
		"duplicates", ins.Duplicates)
	for _, n := range ins.Numeric {
		s.logger.Debug("numeric column",
			"column", n.Column,
			"mean", n.Mean,
			"std", n.Std,
			"min", n.Min,
			"median", n.P50,
			"max", n.Max)
	}
}

// SetRun replaces the current run and drops cached artifacts.
func (s *Reports) SetRun(run *Run) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.run = run
	s.artifacts = make(map[string][]byte)
}

// Run returns the current run, or nil before the first computation.
func (s *Reports) Run() *Run {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.run
}

// Artifact returns the chart id encoded as format, rendering it on first use.
func (s *Reports) Artifact(id, format string) ([]byte, error) {
	key := id + "." + format

	s.mu.RLock()
	run := s.run
	data, ok := s.artifacts[key]
	s.mu.RUnlock()
	if ok {
		return data, nil
	}

	if run == nil {
		return nil, errors.ServiceUnavailable("report not computed yet")
	}
	chart, _, ok := run.Chart(id)
	if !ok {
		return nil, errors.NotFound(fmt.Sprintf("chart %q not found", id))
	}

	data, err := report.Encode(chart, format)
	if err != nil {
		return nil, err
	}
	s.rendered.Add(1)

	s.mu.Lock()
	if s.run == run {
		s.artifacts[key] = data
	}
	s.mu.Unlock()
	return data, nil
}

func (s *Reports) Stats() map[string]any {
	s.mu.RLock()
	defer s.mu.RUnlock()

	stats := map[string]any{
		"rendered_artifacts": s.rendered.Load(),
		"cached_artifacts":   len(s.artifacts),
	}
	if s.run != nil {
		stats["run_id"] = s.run.ID
		stats["source"] = s.run.Source
		stats["rows"] = s.run.Report.Rows
		stats["charts"] = len(s.run.Charts)
		stats["top_items"] = s.run.Report.TopItems
		stats["computed_at"] = s.run.CreatedAt
		stats["compute_duration"] = s.run.Duration.String()
	}
	return stats
}
