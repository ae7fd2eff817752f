package report

import (
	"image/color"
	"math"
	"slices"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
)

// heatSteps is the number of colors between r = -1 and r = 1.
const heatSteps = 21

var absent = color.RGBA{R: 0xdd, G: 0xdd, B: 0xdd, A: 0xff}

// grid exposes a chart as a gonum GridXYZ: one column per series, one row
// per category with the first category on top.
type grid struct {
	c Chart
}

func (g grid) Dims() (cols, rows int) {
	return len(g.c.Series), len(g.c.Categories)
}

func (g grid) row(r int) int {
	return len(g.c.Categories) - 1 - r
}

func (g grid) Z(col, row int) float64 {
	s := g.c.Series[col]
	i := g.row(row)
	if !s.Present[i] {
		return math.NaN()
	}
	return math.Max(-1, math.Min(1, s.Values[i]))
}

func (g grid) X(col int) float64 { return float64(col) }
func (g grid) Y(row int) float64 { return float64(row) }
func (g grid) Min() float64      { return -1 }
func (g grid) Max() float64      { return 1 }

// diverging runs from the first palette color through white to the
// fourth.
type diverging []color.Color

func (d diverging) Colors() []color.Color { return d }

func newDiverging(n int) diverging {
	negative := parseHex(Palette[0])
	positive := parseHex(Palette[3])
	white := color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}

	d := make(diverging, n)
	for i := range d {
		t := 2*float64(i)/float64(n-1) - 1
		if t < 0 {
			d[i] = lerp(white, negative, -t)
		} else {
			d[i] = lerp(white, positive, t)
		}
	}
	return d
}

// addHeatmap colors each cell by its coefficient and prints it; cells
// without a coefficient are grey and read "n/a".
func addHeatmap(p *plot.Plot, c Chart) error {
	g := grid{c: c}
	hm := plotter.NewHeatMap(g, newDiverging(heatSteps))
	hm.Min, hm.Max = -1, 1
	hm.NaN = absent
	p.Add(hm)

	names := make([]string, len(c.Series))
	for j, s := range c.Series {
		names[j] = s.Name
	}
	p.NominalX(names...)
	p.X.Tick.Label.Rotation = math.Pi / 6
	p.X.Tick.Label.XAlign = text.XRight
	p.X.Tick.Label.YAlign = text.YCenter
	rows := slices.Clone(c.Categories)
	slices.Reverse(rows)
	p.NominalY(rows...)
	p.X.Label.Text, p.Y.Label.Text = "", ""

	cols, n := g.Dims()
	var at plotter.XYs
	var labels []string
	var light []bool
	for col := range cols {
		for row := range n {
			at = append(at, plotter.XY{X: g.X(col), Y: g.Y(row)})
			v := g.Z(col, row)
			if math.IsNaN(v) {
				labels = append(labels, "n/a")
				light = append(light, false)
				continue
			}
			labels = append(labels, c.FormatValue(v))
			light = append(light, math.Abs(v) > 0.6)
		}
	}

	l, err := plotter.NewLabels(plotter.XYLabels{XYs: at, Labels: labels})
	if err != nil {
		return err
	}
	for i := range l.TextStyle {
		l.TextStyle[i].XAlign, l.TextStyle[i].YAlign = text.XCenter, text.YCenter
		l.TextStyle[i].Font.Size = vg.Points(9)
		l.TextStyle[i].Color = ink
		if light[i] {
			l.TextStyle[i].Color = color.White
		}
	}
	p.Add(l)
	return nil
}
