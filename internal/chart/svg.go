// svg.go - Static chart export with gonum/plot
package chart

import (
	"fmt"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/plotutil"
	"gonum.org/v1/plot/vg"
)

// SVG export dimensions.
const (
	SVGWidth  = 10 * vg.Inch
	SVGHeight = 4 * vg.Inch
)

// WriteSVG draws every series into a static SVG image.
func (c *Chart) WriteSVG(w io.Writer) error {
	p := plot.New()
	p.Title.Text = c.Title
	p.X.Label.Text = "Time [s]"
	if c.CalendarTime {
		p.X.Label.Text = "Time (UTC)"
		p.X.Tick.Marker = plot.TimeTicks{Format: "2006-01-02\n15:04:05"}
	}
	p.X.Label.Padding = vg.Points(5)
	p.Y.Label.Text = "B [nT]"
	p.Y.Label.Padding = vg.Points(5)
	p.Legend.Top = true

	p.Add(plotter.NewGrid())

	for i, s := range c.Series {
		xys := c.points(s.Values)
		if len(xys) == 0 {
			continue
		}
		line, err := plotter.NewLine(xys)
		if err != nil {
			return fmt.Errorf("plotting %s: %w", s.Name, err)
		}
		line.Color = plotutil.Color(i)
		p.Add(line)
		p.Legend.Add(s.Name, line)
	}

	wt, err := p.WriterTo(SVGWidth, SVGHeight, "svg")
	if err != nil {
		return fmt.Errorf("creating svg canvas: %w", err)
	}
	if _, err := wt.WriteTo(w); err != nil {
		return fmt.Errorf("writing svg: %w", err)
	}
	return nil
}

// points keeps only finite samples; gonum rejects NaN coordinates.
func (c *Chart) points(values Samples) plotter.XYs {
	xys := make(plotter.XYs, 0, len(values))
	for i, v := range values {
		t := c.Time[i]
		if math.IsNaN(t) || math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		xys = append(xys, plotter.XY{X: t, Y: v})
	}
	return xys
}
