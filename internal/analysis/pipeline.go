// Package analysis runs the fixed catalog of group-by aggregations over a
// loaded dataset.
package analysis

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"shopping-trends/internal/dataset"
	"shopping-trends/internal/errors"
	"shopping-trends/internal/observability"
)

// Result is the output of one Spec. Exactly one of Series and Matrix is set.
type Result struct {
	Spec   Spec    `json:"spec"`
	Series *Series `json:"series,omitempty"`
	Matrix *Matrix `json:"matrix,omitempty"`
}

// Context is the state shared by every aggregation of one run.
type Context struct {
	Dataset *dataset.Dataset
	// TopItems is computed once, before any spec runs, so every chart
	// restricted to it describes the same items.
	TopItems []string
}

// Report holds every result of a run in catalog order.
type Report struct {
	Rows     int      `json:"rows"`
	TopItems []string `json:"top_items"`
	Results  []Result `json:"results"`
}

// Find returns the result with the given spec ID.
func (r *Report) Find(id string) (*Result, bool) {
	for i := range r.Results {
		if r.Results[i].Spec.ID == id {
			return &r.Results[i], true
		}
	}
	return nil, false
}

type Pipeline struct {
	catalog []Spec
	logger  *slog.Logger
}

func NewPipeline(logger *slog.Logger) *Pipeline {
	return NewPipelineWithCatalog(Catalog(), logger)
}

func NewPipelineWithCatalog(catalog []Spec, logger *slog.Logger) *Pipeline {
	if logger == nil {
		logger = slog.Default()
	}
	return &Pipeline{catalog: catalog, logger: logger}
}

// Run executes every spec in order. The first failure aborts the run.
func (p *Pipeline) Run(ctx context.Context, ds *dataset.Dataset) (*Report, error) {
	if ds == nil || ds.Len() == 0 {
		return nil, errors.EmptyDataset("cannot aggregate an empty dataset")
	}

	ctx, span := observability.StartSpan(ctx, "pipeline")
	defer span.End(p.logger)

	pc := &Context{
		Dataset:  ds,
		TopItems: TopItemsByCount(ds, TopItemsN),
	}
	p.logger.Info("top items by purchase count", "items", strings.Join(pc.TopItems, ", "))

	report := &Report{
		Rows:     ds.Len(),
		TopItems: pc.TopItems,
		Results:  make([]Result, 0, len(p.catalog)),
	}

	for _, spec := range p.catalog {
		if err := ctx.Err(); err != nil {
			span.SetError(err)
			return nil, err
		}

		result, err := p.runSpec(ctx, pc, spec)
		if err != nil {
			span.SetError(err)
			return nil, err
		}
		report.Results = append(report.Results, result)
	}

	span.SetTag("specs", strconv.Itoa(len(report.Results)))
	return report, nil
}

func (p *Pipeline) runSpec(ctx context.Context, pc *Context, spec Spec) (Result, error) {
	_, span := observability.StartSpan(ctx, "aggregate")
	span.SetTag("spec", spec.ID)
	defer span.End(p.logger)

	result, err := Execute(pc, spec)
	if err != nil {
		span.SetError(err)
		code := errors.CodeOf(err)
		if code == "" {
			code = errors.CodeInternal
		}
		return Result{}, errors.Wrap(err, code, fmt.Sprintf("aggregation %s failed", spec.ID))
	}
	return result, nil
}

// Execute computes one spec against the shared context.
func Execute(pc *Context, spec Spec) (Result, error) {
	ds := pc.Dataset
	if ds == nil || ds.Len() == 0 {
		return Result{}, errors.EmptyDataset("cannot aggregate an empty dataset")
	}

	result := Result{Spec: spec}

	switch {
	case spec.Reduce == ReduceCorrelation:
		m := Correlation(ds, NumericColumns(ds))
		result.Matrix = &m

	case spec.Reduce == ReduceMode:
		if spec.ModeOf == "" {
			return Result{}, fmt.Errorf("spec %s: mode needs a column", spec.ID)
		}
		items := pc.TopItems
		if !spec.RestrictToTopItems {
			items = GroupCount(ds, spec.Keys[0]).Keys
		}
		s, err := ModeWithin(ds, items, spec.ModeOf)
		if err != nil {
			return Result{}, err
		}
		result.Series = &s

	case len(spec.Keys) == 1:
		s, err := GroupBy(ds, spec.Keys[0], spec.Reduce, spec.Value)
		if err != nil {
			return Result{}, err
		}
		if spec.Decimals > 0 {
			s = Round(s, spec.Decimals)
		}
		if spec.RestrictToTopItems {
			s = Reindex(s, pc.TopItems)
		}
		if spec.TopN > 0 {
			s = TopN(s, spec.TopN)
		}
		if spec.Ascending {
			s = SortAscending(s)
		}
		result.Series = &s

	case len(spec.Keys) == 2:
		m, err := GroupMatrix(ds, spec.Keys[0], spec.Keys[1], spec.Reduce, spec.Value)
		if err != nil {
			return Result{}, err
		}
		if spec.Decimals > 0 {
			m = RoundMatrix(m, spec.Decimals)
		}
		if spec.RestrictToTopItems {
			m = ReindexRows(m, pc.TopItems)
		}
		result.Matrix = &m

	default:
		return Result{}, fmt.Errorf("spec %s: expected one or two keys, got %d", spec.ID, len(spec.Keys))
	}

	return result, nil
}
