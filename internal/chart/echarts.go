// echarts.go - Interactive chart options rendered with go-echarts
package chart

import (
	"html/template"
	"math"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"
)

// AssetsHost serves the echarts script referenced by rendered pages.
const AssetsHost = "https://go-echarts.github.io/go-echarts-assets/assets/"

// ScriptURL is the echarts bundle loaded once per page.
const ScriptURL = AssetsHost + "echarts.min.js"

// Line builds a zoomable line chart with one series per column.
// Calendar charts use a time axis in milliseconds, raw charts use seconds.
func (c *Chart) Line(chartID string) *charts.Line {
	line := charts.NewLine()

	xType, xName := "value", "time [s]"
	if c.CalendarTime {
		xType, xName = "time", "time"
	}

	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{
			ChartID:         chartID,
			AssetsHost:      AssetsHost,
			BackgroundColor: "#ffffff",
			Width:           "100%",
			Height:          "500px",
			PageTitle:       c.Title,
		}),
		charts.WithTitleOpts(opts.Title{
			Title: c.Title,
		}),
		charts.WithDataZoomOpts(opts.DataZoom{
			Type:       "slider",
			Start:      0,
			End:        100,
			XAxisIndex: []int{0},
		}),
		charts.WithDataZoomOpts(opts.DataZoom{
			Type:       "inside",
			Start:      0,
			End:        100,
			XAxisIndex: []int{0},
		}),
		charts.WithLegendOpts(opts.Legend{
			Show:         opts.Bool(true),
			SelectedMode: "multiple",
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
			AxisPointer: &opts.AxisPointer{
				Type: "cross",
				Snap: opts.Bool(true),
			},
		}),
		charts.WithToolboxOpts(opts.Toolbox{
			Show: opts.Bool(true),
			Feature: &opts.ToolBoxFeature{
				SaveAsImage: &opts.ToolBoxFeatureSaveAsImage{
					Show:  opts.Bool(true),
					Type:  "png",
					Name:  "magnetic_field",
					Title: "Save as image",
				},
				Restore: &opts.ToolBoxFeatureRestore{
					Show:  opts.Bool(true),
					Title: "Reset",
				},
			},
		}),
		charts.WithXAxisOpts(opts.XAxis{
			Name:  xName,
			Type:  xType,
			Scale: opts.Bool(true),
			SplitLine: &opts.SplitLine{
				Show: opts.Bool(true),
			},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name:  "B [nT]",
			Type:  "value",
			Show:  opts.Bool(true),
			Scale: opts.Bool(true),
			SplitLine: &opts.SplitLine{
				Show: opts.Bool(true),
			},
		}),
	)

	for _, s := range c.Series {
		line.AddSeries(s.Name, c.lineData(s.Values), charts.WithLineChartOpts(opts.LineChart{
			ShowSymbol: opts.Bool(false),
		}))
	}
	return line
}

// lineData pairs each value with its x coordinate. Points without a timestamp are dropped.
func (c *Chart) lineData(values Samples) []opts.LineData {
	data := make([]opts.LineData, 0, len(values))
	for i, v := range values {
		t := c.Time[i]
		if math.IsNaN(t) {
			continue
		}
		x := t
		if c.CalendarTime {
			x = math.Round(t * 1000)
		}
		var y interface{} = v
		if math.IsNaN(v) || math.IsInf(v, 0) {
			y = nil
		}
		data = append(data, opts.LineData{Value: []interface{}{x, y}})
	}
	return data
}

// Options returns the echarts option object for embedding in a page script.
func (c *Chart) Options(chartID string) template.JS {
	line := c.Line(chartID)
	line.Validate()
	return template.JS(line.JSONNotEscaped())
}
