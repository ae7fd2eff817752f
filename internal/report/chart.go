// Package report turns aggregation results into charts and plots them to
// SVG or PNG with gonum/plot.
package report

import (
	"image/color"
	"math"
	"slices"
	"strconv"
	"strings"

	"shopping-trends/internal/analysis"
	"shopping-trends/internal/models"
)

const (
	DefaultWidth  = 960
	DefaultHeight = 540
)

// Palette is the fill order for series, slices and bars.
var Palette = []string{
	"#4c72b0", "#dd8452", "#55a868", "#c44e52", "#8172b3",
	"#937860", "#da8bc3", "#8c8c8c", "#ccb974", "#64b5cd",
}

// ChartSeries is one colored series. Present[i] is false where the
// aggregation had no value for Categories[i].
type ChartSeries struct {
	Name    string    `json:"name"`
	Values  []float64 `json:"values"`
	Present []bool    `json:"present"`
	Color   string    `json:"color"`
}

// Chart is the render model for one result. It carries no analytical
// logic: every number in it comes from the result as-is.
type Chart struct {
	ID      string             `json:"id"`
	Section string             `json:"section"`
	Title   string             `json:"title"`
	Kind    analysis.ChartKind `json:"kind"`
	XLabel  string             `json:"x_label,omitempty"`
	YLabel  string             `json:"y_label,omitempty"`

	Categories []string      `json:"categories"`
	Series     []ChartSeries `json:"series"`
	// Annotations label each category with a value other than its
	// height, such as an item's most common color.
	Annotations []string `json:"annotations,omitempty"`
	// Decimals fixes the value label precision when positive.
	Decimals int `json:"decimals,omitempty"`
	// Totals sums every series per category; Total sums everything.
	Totals []float64 `json:"totals,omitempty"`
	Total  float64   `json:"total"`

	Width  int `json:"width"`
	Height int `json:"height"`
}

// BuildChart maps a result to its chart.
func BuildChart(result analysis.Result) Chart {
	spec := result.Spec
	c := Chart{
		ID:      spec.ID,
		Section: spec.Section,
		Title:   spec.Title,
		Kind:    spec.Chart,
		XLabel:  spec.XLabel,
		YLabel:  spec.YLabel,
		Width:   DefaultWidth,
		Height:  DefaultHeight,
	}

	switch {
	case spec.Chart == analysis.ChartHeatmap:
		c.Decimals = 2
	case spec.Decimals > 0:
		c.Decimals = spec.Decimals
	}

	if c.XLabel == "" && len(spec.Keys) > 0 {
		c.XLabel = spec.Keys[0]
	}
	if c.YLabel == "" {
		c.YLabel = valueLabel(spec)
	}

	if s := result.Series; s != nil {
		c.Categories = append([]string(nil), s.Keys...)
		values := append([]float64(nil), s.Values...)
		present := make([]bool, len(values))
		for i := range present {
			present[i] = true
		}
		c.Series = []ChartSeries{{Name: c.YLabel, Values: values, Present: present, Color: Palette[0]}}
		c.Totals = append([]float64(nil), s.Values...)
		c.Total = s.Total()
		if len(s.Labels) > 0 {
			c.Annotations = append([]string(nil), s.Labels...)
		}
		return c
	}

	if m := result.Matrix; m != nil {
		c.Categories = append([]string(nil), m.Rows...)
		for j, col := range m.Cols {
			series := ChartSeries{
				Name:    col,
				Values:  make([]float64, len(m.Rows)),
				Present: make([]bool, len(m.Rows)),
				Color:   Palette[j%len(Palette)],
			}
			for i, row := range m.Rows {
				cell := m.At(row, col)
				series.Values[i] = cell.Value
				series.Present[i] = cell.OK
			}
			c.Series = append(c.Series, series)
		}
		c.Totals = make([]float64, len(m.Rows))
		for i := range m.Rows {
			c.Totals[i] = m.RowTotal(i)
			c.Total += c.Totals[i]
		}
	}

	return c
}

func valueLabel(spec analysis.Spec) string {
	switch spec.Reduce {
	case analysis.ReduceCount:
		return "Count"
	case analysis.ReduceMode:
		return "Purchases"
	case analysis.ReduceMean:
		return "Average " + spec.Value
	case analysis.ReduceSum:
		if spec.Value == models.ColAmount {
			return "Total Sales (USD)"
		}
		return "Total " + spec.Value
	}
	return ""
}

// empty reports whether there is nothing to draw.
func (c Chart) empty() bool {
	if len(c.Categories) == 0 {
		return true
	}
	for _, s := range c.Series {
		if slices.Contains(s.Present, true) {
			return false
		}
	}
	return true
}

// filled returns the series values with absent entries as zero.
func (s ChartSeries) filled() []float64 {
	out := make([]float64, len(s.Values))
	for i, v := range s.Values {
		if s.Present[i] {
			out[i] = v
		}
	}
	return out
}

// FormatValue renders v for a value label.
func (c Chart) FormatValue(v float64) string {
	if c.Decimals > 0 {
		return strconv.FormatFloat(v, 'f', c.Decimals, 64)
	}
	if v == math.Trunc(v) {
		return strconv.FormatFloat(v, 'f', 0, 64)
	}
	return strconv.FormatFloat(v, 'f', 2, 64)
}

// parseHex reads a #rrggbb color. Malformed input yields opaque black.
func parseHex(s string) color.RGBA {
	s = strings.TrimPrefix(s, "#")
	if len(s) != 6 {
		return color.RGBA{A: 0xff}
	}
	v, err := strconv.ParseUint(s, 16, 32)
	if err != nil {
		return color.RGBA{A: 0xff}
	}
	return color.RGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 0xff}
}

// lerp blends a toward b by t in [0,1].
func lerp(a, b color.RGBA, t float64) color.RGBA {
	mix := func(x, y uint8) uint8 {
		return uint8(float64(x) + (float64(y)-float64(x))*t + 0.5)
	}
	return color.RGBA{R: mix(a.R, b.R), G: mix(a.G, b.G), B: mix(a.B, b.B), A: 0xff}
}
