// Package chart turns measurement tables into plottable series and renders them.
package chart

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"

	"github.com/mms-viewer/backend/internal/models"
)

// FieldTitle is the title of magnetic field charts.
const FieldTitle = "Magnetic Field"

// Samples is a column of values. Non-finite values encode as JSON null.
type Samples []float64

// MarshalJSON writes NaN and infinities as null so gaps survive the round trip to the browser.
func (s Samples) MarshalJSON() ([]byte, error) {
	if s == nil {
		return []byte("null"), nil
	}
	buf := make([]byte, 0, len(s)*8+2)
	buf = append(buf, '[')
	for i, v := range s {
		if i > 0 {
			buf = append(buf, ',')
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			buf = append(buf, "null"...)
			continue
		}
		buf = strconv.AppendFloat(buf, v, 'g', -1, 64)
	}
	return append(buf, ']'), nil
}

// Series is one named line of a chart.
type Series struct {
	Name   string  `json:"name" msgpack:"name"`
	Values Samples `json:"values" msgpack:"values"`
}

// Chart is the plottable form of a measurement table.
// Time holds Unix seconds for every point shared by all series.
type Chart struct {
	Title        string   `json:"title" msgpack:"title"`
	CalendarTime bool     `json:"calendarTime" msgpack:"calendarTime"`
	Time         Samples  `json:"time" msgpack:"time"`
	Series       []Series `json:"series" msgpack:"series"`
	SourceRows   int      `json:"sourceRows" msgpack:"sourceRows"`
}

// Len returns the number of plotted points per series.
func (c *Chart) Len() int {
	return len(c.Time)
}

// JSON returns the chart encoded for the series endpoint.
func (c *Chart) JSON() ([]byte, error) {
	return json.Marshal(c)
}

// BuildChart decimates the table and arranges one series per column.
func BuildChart(table *models.MeasurementTable, approxNumPoints int) (*Chart, error) {
	plotted, err := Decimate(table, approxNumPoints)
	if err != nil {
		return nil, err
	}
	for i, row := range plotted.Rows {
		if len(row) != len(plotted.Columns) {
			return nil, fmt.Errorf("row %d has %d values, want %d", i, len(row), len(plotted.Columns))
		}
	}

	c := &Chart{
		Title:        FieldTitle,
		CalendarTime: plotted.CalendarIndex,
		Time:         append(Samples(nil), plotted.Index...),
		SourceRows:   table.Len(),
	}
	for _, name := range plotted.Columns {
		c.Series = append(c.Series, Series{Name: name, Values: plotted.Column(name)})
	}
	return c, nil
}
