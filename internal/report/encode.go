package report

import (
	"bytes"
	"fmt"

	"shopping-trends/internal/analysis"
	"shopping-trends/internal/errors"
)

const (
	FormatSVG = "svg"
	FormatPNG = "png"
)

// ContentType returns the MIME type for format.
func ContentType(format string) string {
	switch format {
	case FormatSVG:
		return "image/svg+xml"
	case FormatPNG:
		return "image/png"
	}
	return "application/octet-stream"
}

// Encode renders chart in the given format at the chart's size. SVG output
// starts at the <svg> element so it can be inlined into HTML.
func Encode(chart Chart, format string) ([]byte, error) {
	if format != FormatSVG && format != FormatPNG {
		return nil, errors.RenderWrap(fmt.Errorf("unknown format %q", format), "encode chart")
	}
	if chart.Width <= 0 || chart.Height <= 0 {
		chart.Width, chart.Height = DefaultWidth, DefaultHeight
	}

	p, err := newPlot(chart)
	if err != nil {
		return nil, errors.RenderWrap(err, fmt.Sprintf("render %s", chart.ID))
	}

	wt, err := p.WriterTo(pixels(chart.Width), pixels(chart.Height), format)
	if err != nil {
		return nil, errors.RenderWrap(err, fmt.Sprintf("encode %s as %s", chart.ID, format))
	}
	var buf bytes.Buffer
	if _, err := wt.WriteTo(&buf); err != nil {
		return nil, errors.RenderWrap(err, fmt.Sprintf("encode %s as %s", chart.ID, format))
	}

	data := buf.Bytes()
	if format == FormatSVG {
		if i := bytes.Index(data, []byte("<svg")); i > 0 {
			data = data[i:]
		}
	}
	return data, nil
}

// Charts builds the chart of every result, sized width by height.
func Charts(results []analysis.Result, width, height int) []Chart {
	charts := make([]Chart, len(results))
	for i, r := range results {
		charts[i] = BuildChart(r)
		if width > 0 && height > 0 {
			charts[i].Width, charts[i].Height = width, height
		}
	}
	return charts
}
