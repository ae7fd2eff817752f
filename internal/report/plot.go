package report

import (
	"fmt"
	"image/color"
	"math"
	"strconv"

	xfont "golang.org/x/image/font"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"shopping-trends/internal/analysis"
)

// dpi is the resolution charts are laid out at; Width and Height are
// pixels at this resolution.
const dpi = 96

// segmentShare is the smallest fraction of the tallest stack a segment
// needs before it gets its own label.
const segmentShare = 0.06

var (
	ink   = color.RGBA{R: 0x22, G: 0x22, B: 0x22, A: 0xff}
	muted = color.RGBA{R: 0x88, G: 0x88, B: 0x88, A: 0xff}
)

func pixels(n int) vg.Length {
	return vg.Length(n) * vg.Inch / dpi
}

// newPlot lays chart out as a gonum plot.
func newPlot(c Chart) (*plot.Plot, error) {
	p := plot.New()
	p.Title.Text = c.Title
	p.Title.TextStyle.Font.Size = vg.Points(14)
	p.Title.TextStyle.Font.Weight = xfont.WeightBold
	p.X.Label.Text = c.XLabel
	p.Y.Label.Text = c.YLabel
	p.Legend.Top = true

	if c.empty() {
		return p, noData(p)
	}

	var err error
	switch c.Kind {
	case analysis.ChartBar:
		err = addBars(p, c, false)
	case analysis.ChartBarLine:
		err = addBars(p, c, true)
	case analysis.ChartBarH:
		err = addBarsH(p, c)
	case analysis.ChartStacked:
		err = addStacked(p, c)
	case analysis.ChartGrouped:
		err = addGrouped(p, c)
	case analysis.ChartPie:
		err = addPie(p, c)
	case analysis.ChartScatter:
		err = addScatter(p, c)
	case analysis.ChartHeatmap:
		err = addHeatmap(p, c)
	default:
		return nil, fmt.Errorf("unsupported chart kind %q", c.Kind)
	}
	if err != nil {
		return nil, fmt.Errorf("%s chart: %w", c.Kind, err)
	}
	return p, nil
}

func noData(p *plot.Plot) error {
	p.HideAxes()
	p.X.Min, p.X.Max, p.Y.Min, p.Y.Max = -1, 1, -1, 1
	return addLabels(p, plotter.XYs{{}}, []string{"No data"}, vg.Point{}, func(s *text.Style) {
		s.XAlign, s.YAlign = text.XCenter, text.YCenter
		s.Font.Size = vg.Points(12)
		s.Color = muted
	})
}

// addLabels adds one label per point, shifted by offset. style, when
// set, adjusts every label.
func addLabels(p *plot.Plot, at plotter.XYs, labels []string, offset vg.Point, style func(*text.Style)) error {
	if len(at) == 0 {
		return nil
	}
	l, err := plotter.NewLabels(plotter.XYLabels{XYs: at, Labels: labels})
	if err != nil {
		return err
	}
	l.Offset = offset
	for i := range l.TextStyle {
		l.TextStyle[i].Font.Size = vg.Points(8)
		l.TextStyle[i].Color = ink
		if style != nil {
			style(&l.TextStyle[i])
		}
	}
	p.Add(l)
	return nil
}

func above(s *text.Style) {
	s.XAlign, s.YAlign = text.XCenter, text.YBottom
}

func inside(s *text.Style) {
	s.XAlign, s.YAlign = text.XCenter, text.YCenter
	s.Color = color.White
}

func bold(s *text.Style) {
	above(s)
	s.Font.Weight = xfont.WeightBold
}

// slot approximates the room one category gets along the category axis.
func slot(c Chart, horizontal bool) vg.Length {
	extent := pixels(c.Width) - vg.Points(90)
	if horizontal {
		extent = pixels(c.Height) - vg.Points(70)
	}
	extent = max(extent, vg.Points(40))
	return extent / vg.Length(len(c.Categories))
}

// categoryAxis names the x ticks after the categories, slanted when they
// would crowd each other.
func categoryAxis(p *plot.Plot, c Chart) {
	p.NominalX(c.Categories...)
	if len(c.Categories) > 5 {
		p.X.Tick.Label.Rotation = math.Pi / 6
		p.X.Tick.Label.XAlign = text.XRight
		p.X.Tick.Label.YAlign = text.YCenter
	}
}

func newBars(values []float64, width vg.Length, fill string) (*plotter.BarChart, error) {
	b, err := plotter.NewBarChart(plotter.Values(values), width)
	if err != nil {
		return nil, err
	}
	b.Color = parseHex(fill)
	b.LineStyle.Width = 0
	return b, nil
}

func addBars(p *plot.Plot, c Chart, line bool) error {
	s := c.Series[0]
	bars, err := newBars(s.filled(), slot(c, false)*0.7, s.Color)
	if err != nil {
		return err
	}
	p.Add(bars)
	categoryAxis(p, c)

	var at, notes plotter.XYs
	var labels, annotations []string
	for i, v := range s.Values {
		if !s.Present[i] {
			continue
		}
		pt := plotter.XY{X: float64(i), Y: v}
		at = append(at, pt)
		labels = append(labels, c.FormatValue(v))
		if i < len(c.Annotations) && c.Annotations[i] != "" {
			notes = append(notes, pt)
			annotations = append(annotations, c.Annotations[i])
		}
	}

	if line && len(at) > 0 {
		l, err := plotter.NewLine(at)
		if err != nil {
			return err
		}
		l.LineStyle.Width = vg.Points(2)
		l.LineStyle.Color = ink
		dots, err := plotter.NewScatter(at)
		if err != nil {
			return err
		}
		dots.GlyphStyle.Shape = draw.CircleGlyph{}
		dots.GlyphStyle.Radius = vg.Points(3)
		dots.GlyphStyle.Color = ink
		p.Add(l, dots)
	}

	if err := addLabels(p, at, labels, vg.Point{Y: vg.Points(2)}, above); err != nil {
		return err
	}
	return addLabels(p, notes, annotations, vg.Point{Y: vg.Points(13)}, bold)
}

// addBarsH draws one horizontal bar per category, the first at the
// bottom.
func addBarsH(p *plot.Plot, c Chart) error {
	s := c.Series[0]
	bars, err := newBars(s.filled(), slot(c, true)*0.7, s.Color)
	if err != nil {
		return err
	}
	bars.Horizontal = true
	p.Add(bars)
	p.NominalY(c.Categories...)
	p.X.Label.Text, p.Y.Label.Text = c.YLabel, c.XLabel

	var at plotter.XYs
	var labels []string
	for i, v := range s.Values {
		if s.Present[i] {
			at = append(at, plotter.XY{X: v, Y: float64(i)})
			labels = append(labels, c.FormatValue(v))
		}
	}
	return addLabels(p, at, labels, vg.Point{X: vg.Points(3)}, func(s *text.Style) {
		s.XAlign, s.YAlign = text.XLeft, text.YCenter
	})
}

// addStacked piles the series on each other per category, labels every
// segment that is tall enough and the total of each stack.
func addStacked(p *plot.Plot, c Chart) error {
	width := slot(c, false) * 0.7
	var below *plotter.BarChart
	for _, s := range c.Series {
		b, err := newBars(s.filled(), width, s.Color)
		if err != nil {
			return err
		}
		if below != nil {
			b.StackOn(below)
		}
		p.Add(b)
		p.Legend.Add(s.Name, b)
		below = b
	}
	categoryAxis(p, c)

	tallest := 0.0
	for _, t := range c.Totals {
		tallest = math.Max(tallest, t)
	}

	var at plotter.XYs
	var labels []string
	for i := range c.Categories {
		base := 0.0
		for _, s := range c.Series {
			if !s.Present[i] {
				continue
			}
			v := s.Values[i]
			if v > 0 && v >= tallest*segmentShare {
				at = append(at, plotter.XY{X: float64(i), Y: base + v/2})
				labels = append(labels, c.FormatValue(v))
			}
			base += v
		}
	}
	if err := addLabels(p, at, labels, vg.Point{}, inside); err != nil {
		return err
	}

	totals := make(plotter.XYs, len(c.Totals))
	totalLabels := make([]string, len(c.Totals))
	for i, t := range c.Totals {
		totals[i] = plotter.XY{X: float64(i), Y: t}
		totalLabels[i] = c.FormatValue(t)
	}
	return addLabels(p, totals, totalLabels, vg.Point{Y: vg.Points(2)}, bold)
}

// addGrouped places the series side by side within each category.
func addGrouped(p *plot.Plot, c Chart) error {
	n := vg.Length(len(c.Series))
	width := slot(c, false) * 0.8 / n
	for j, s := range c.Series {
		b, err := newBars(s.filled(), width*0.9, s.Color)
		if err != nil {
			return err
		}
		b.Offset = (vg.Length(j) - (n-1)/2) * width
		p.Add(b)
		p.Legend.Add(s.Name, b)

		var at plotter.XYs
		var labels []string
		for i, v := range s.Values {
			if s.Present[i] {
				at = append(at, plotter.XY{X: float64(i), Y: v})
				labels = append(labels, c.FormatValue(v))
			}
		}
		if err := addLabels(p, at, labels, vg.Point{X: b.Offset, Y: vg.Points(2)}, above); err != nil {
			return err
		}
	}
	categoryAxis(p, c)
	return nil
}

// addScatter plots each series against numeric categories, or against
// the category index when a category is not a number.
func addScatter(p *plot.Plot, c Chart) error {
	xs := make([]float64, len(c.Categories))
	numeric := true
	for i, cat := range c.Categories {
		v, err := strconv.ParseFloat(cat, 64)
		if err != nil {
			numeric = false
			break
		}
		xs[i] = v
	}
	if !numeric {
		for i := range xs {
			xs[i] = float64(i)
		}
		categoryAxis(p, c)
	}

	for _, s := range c.Series {
		var pts plotter.XYs
		for i, v := range s.Values {
			if s.Present[i] {
				pts = append(pts, plotter.XY{X: xs[i], Y: v})
			}
		}
		if len(pts) == 0 {
			continue
		}
		sc, err := plotter.NewScatter(pts)
		if err != nil {
			return err
		}
		sc.GlyphStyle.Shape = draw.CircleGlyph{}
		sc.GlyphStyle.Radius = vg.Points(3)
		sc.GlyphStyle.Color = parseHex(s.Color)
		p.Add(sc)
		p.Legend.Add(s.Name, sc)
	}
	return nil
}
