// Package ui holds the HTML components shared by the dashboard and the
// exported index page.
package ui

//go:generate templ generate

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/a-h/templ"

	"shopping-trends/internal/dataset"
	"shopping-trends/internal/report"
	"shopping-trends/internal/services"
)

const (
	DatastarScript = "https://cdn.jsdelivr.net/gh/starfederation/datastar@1.0.0-RC.5/bundles/datastar.js"

	maxDistinctShown = 20
)

// ChartSource supplies a rendered artifact for a chart.
type ChartSource interface {
	Artifact(id, format string) ([]byte, error)
}

// ChartElementID is the DOM id of the figure holding chart id.
func ChartElementID(id string) string {
	return "chart-" + id
}

type figureView struct {
	Chart report.Chart
	SVG   string
}

type sectionView struct {
	Name    string
	Figures []figureView
}

// pageView is everything page needs, resolved before rendering starts so
// that a missing artifact fails the whole page.
type pageView struct {
	Live     bool
	Run      *services.Run
	Created  string
	Records  string
	Sections []sectionView
}

// Dashboard is the interactive page. Every chart can be refreshed over
// SSE without reloading.
func Dashboard(run *services.Run, charts ChartSource) templ.Component {
	return pageFor(run, charts, true)
}

// Index is the static page written next to the exported artifacts.
func Index(run *services.Run, charts ChartSource) templ.Component {
	return pageFor(run, charts, false)
}

func pageFor(run *services.Run, charts ChartSource, live bool) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		v, err := newPageView(ctx, run, charts, live)
		if err != nil {
			return err
		}
		return page(v).Render(ctx, w)
	})
}

func newPageView(ctx context.Context, run *services.Run, charts ChartSource, live bool) (pageView, error) {
	v := pageView{Live: live, Run: run}
	if run == nil {
		return v, nil
	}
	v.Created = run.CreatedAt.Format("2006-01-02 15:04:05 MST")
	v.Records = strconv.Itoa(run.Report.Rows)

	for _, section := range run.Sections() {
		sv := sectionView{Name: section.Name}
		for _, i := range section.Charts {
			if err := ctx.Err(); err != nil {
				return v, err
			}
			chart := run.Charts[i]
			svg, err := charts.Artifact(chart.ID, report.FormatSVG)
			if err != nil {
				return v, fmt.Errorf("render %s: %w", chart.ID, err)
			}
			sv.Figures = append(sv.Figures, figureView{Chart: chart, SVG: string(svg)})
		}
		v.Sections = append(v.Sections, sv)
	}
	return v, nil
}

// Figure is one chart as a standalone element, used to patch the
// dashboard in place.
func Figure(chart report.Chart, svg []byte) templ.Component {
	return figure(chart, string(svg), true)
}

func refreshChart(id string) string {
	return "@get('/sse/charts/" + id + "')"
}

func inspectionSummary(ins dataset.Inspection) string {
	return fmt.Sprintf("%d rows, %d columns, %d duplicate rows.", ins.Rows, len(ins.Columns), ins.Duplicates)
}

func numericCells(n dataset.NumericSummary) []string {
	cells := []string{strconv.Itoa(n.Count)}
	for _, v := range []float64{n.Mean, n.Std, n.Min, n.P25, n.P50, n.P75, n.Max} {
		cells = append(cells, strconv.FormatFloat(v, 'f', 2, 64))
	}
	return cells
}

// distinctValues lists the first maxDistinctShown values and counts the
// rest.
func distinctValues(values []string) string {
	if len(values) <= maxDistinctShown {
		return strings.Join(values, ", ")
	}
	return fmt.Sprintf("%s (+%d more)", strings.Join(values[:maxDistinctShown], ", "), len(values)-maxDistinctShown)
}
