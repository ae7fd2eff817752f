package ui

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"shopping-trends/internal/config"
	"shopping-trends/internal/dataset"
	"shopping-trends/internal/report"
	"shopping-trends/internal/services"
)

const csvContent = `Customer ID,Age,Gender,Item Purchased,Category,Purchase Amount (USD),Location,Size,Color,Season,Review Rating,Subscription Status,Shipping Type,Discount Applied,Promo Code Used,Previous Purchases,Payment Method,Frequency of Purchases
1,55,Male,Blouse,Clothing,53,Kentucky,L,Gray,Winter,3.1,Yes,Express,Yes,Yes,14,Venmo,Fortnightly
2,19,Female,Sweater,Clothing,64,Maine,L,Maroon,Winter,3.1,No,Express,No,No,2,Cash,Fortnightly
3,50,Male,Jeans,Clothing,73,Massachusetts,S,Maroon,Spring,3.1,Yes,Free Shipping,Yes,Yes,23,Credit Card,Weekly
`

func computeRun(t *testing.T) (*services.Reports, *services.Run) {
	t.Helper()
	ds, err := dataset.Read(context.Background(), strings.NewReader(csvContent))
	require.NoError(t, err)

	cfg := config.Default().Report
	cfg.Width, cfg.Height = 480, 270
	reports := services.NewReports(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, reports.Compute(context.Background(), "test.csv", ds))
	return reports, reports.Run()
}

type failingSource struct{}

func (failingSource) Artifact(id, format string) ([]byte, error) {
	return nil, fmt.Errorf("no artifact for %s", id)
}

func TestDashboard(t *testing.T) {
	reports, run := computeRun(t)

	var buf bytes.Buffer
	require.NoError(t, Dashboard(run, reports).Render(context.Background(), &buf))
	html := buf.String()

	assert.Contains(t, html, DatastarScript)
	assert.Contains(t, html, run.ID)
	assert.Contains(t, html, "3 records")
	assert.Contains(t, html, "@get('/sse/refresh-all')")
	assert.Contains(t, html, "Shipping &amp; Payment")
	assert.Contains(t, html, "Data Inspection")
	assert.Contains(t, html, "<td>Purchase Amount (USD)</td>")

	for _, c := range run.Charts {
		assert.Contains(t, html, `id="`+ChartElementID(c.ID)+`"`)
		assert.Contains(t, html, `data-on-dblclick="@get(&#39;/sse/charts/`+c.ID+`&#39;)"`)
	}
	assert.Equal(t, len(run.Charts), strings.Count(html, "<svg"))
}

func TestIndex_IsStatic(t *testing.T) {
	reports, run := computeRun(t)

	var buf bytes.Buffer
	require.NoError(t, Index(run, reports).Render(context.Background(), &buf))
	html := buf.String()

	assert.NotContains(t, html, DatastarScript)
	assert.NotContains(t, html, "data-on-")
	assert.Equal(t, len(run.Charts), strings.Count(html, "<figure"))
}

func TestPage_NoRun(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Dashboard(nil, failingSource{}).Render(context.Background(), &buf))
	assert.Contains(t, buf.String(), "No report has been computed.")
}

func TestPage_ArtifactError(t *testing.T) {
	_, run := computeRun(t)

	err := Index(run, failingSource{}).Render(context.Background(), io.Discard)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "render "+run.Charts[0].ID)
}

func TestPage_Cancelled(t *testing.T) {
	reports, run := computeRun(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Index(run, reports).Render(ctx, io.Discard)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestFigure_EscapesTitle(t *testing.T) {
	chart := report.Chart{ID: "x", Title: `Sales <by> "Color"`}

	var buf bytes.Buffer
	require.NoError(t, Figure(chart, []byte("<svg></svg>")).Render(context.Background(), &buf))

	assert.Contains(t, buf.String(), `<figure id="chart-x" data-on-dblclick="@get(&#39;/sse/charts/x&#39;)"><svg></svg>`)
	assert.Contains(t, buf.String(), "Sales &lt;by&gt; &#34;Color&#34;")
}

func TestInspection_TruncatesDistinctValues(t *testing.T) {
	values := make([]string, maxDistinctShown+5)
	for i := range values {
		values[i] = fmt.Sprintf("v%02d", i)
	}
	ins := dataset.Inspection{Values: []dataset.ColumnValues{{Column: "Location", Distinct: values}}}

	var buf bytes.Buffer
	require.NoError(t, inspection(ins).Render(context.Background(), &buf))

	assert.Contains(t, buf.String(), "<td>Location</td>")
	assert.Contains(t, buf.String(), "v19 (+5 more)")
	assert.NotContains(t, buf.String(), "v20")
	assert.NotContains(t, buf.String(), "<th>mean</th>")
}

func TestDistinctValues(t *testing.T) {
	assert.Equal(t, "a, b", distinctValues([]string{"a", "b"}))
	assert.Empty(t, distinctValues(nil))
}
