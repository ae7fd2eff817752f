package report

import (
	"image/color"
	"math"
	"strconv"

	xfont "golang.org/x/image/font"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/text"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
)

// pieShare is the part of the data area the pie takes; the legend sits in
// the rest.
const pieShare = 0.72

// pie draws its slices clockwise from twelve o'clock, each labelled with
// its share of the total.
type pie struct {
	values []float64
	colors []color.Color
	total  float64
}

func (pc pie) Plot(c draw.Canvas, p *plot.Plot) {
	w := (c.Max.X - c.Min.X) * pieShare
	h := c.Max.Y - c.Min.Y
	r := min(w, h) / 2 * 0.92
	center := vg.Point{X: c.Min.X + w/2, Y: c.Min.Y + h/2}

	sty := p.X.Tick.Label
	sty.Rotation = 0
	sty.XAlign, sty.YAlign = text.XCenter, text.YCenter
	sty.Color = color.White
	sty.Font.Weight = xfont.WeightBold

	start := math.Pi / 2
	for i, v := range pc.values {
		if v <= 0 {
			continue
		}
		sweep := v / pc.total * 2 * math.Pi

		var wedge vg.Path
		wedge.Move(center)
		wedge.Arc(center, r, start, -sweep)
		wedge.Close()
		c.SetColor(pc.colors[i])
		c.Fill(wedge)

		mid := start - sweep/2
		at := vg.Point{
			X: center.X + r*0.65*vg.Length(math.Cos(mid)),
			Y: center.Y + r*0.65*vg.Length(math.Sin(mid)),
		}
		c.FillText(sty, at, strconv.FormatFloat(v/pc.total*100, 'f', 1, 64)+"%")
		start -= sweep
	}
}

// swatch is a legend entry filled with one color.
type swatch struct {
	color color.Color
}

func (s swatch) Thumbnail(c *draw.Canvas) {
	c.FillPolygon(s.color, []vg.Point{
		c.Min,
		{X: c.Min.X, Y: c.Max.Y},
		c.Max,
		{X: c.Max.X, Y: c.Min.Y},
	})
}

// addPie draws the first series as a pie, one slice per category.
func addPie(p *plot.Plot, c Chart) error {
	s := c.Series[0]
	if c.Total <= 0 {
		return noData(p)
	}

	pc := pie{values: s.filled(), total: c.Total, colors: make([]color.Color, len(c.Categories))}
	for i, cat := range c.Categories {
		pc.colors[i] = parseHex(Palette[i%len(Palette)])
		p.Legend.Add(cat, swatch{color: pc.colors[i]})
	}

	p.HideAxes()
	p.X.Label.Text, p.Y.Label.Text = "", ""
	p.Add(pc)
	return nil
}
