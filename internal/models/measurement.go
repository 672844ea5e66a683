package models

import (
	"math"
	"time"
)

// FGMColumns are the labels of the magnetic field table columns.
var FGMColumns = []string{"bx", "by", "bz", "bt"}

// MeasurementTable is a time indexed table of vector measurements.
// Index holds seconds since the Unix epoch for every row.
type MeasurementTable struct {
	Index   []float64   `json:"index"`
	Columns []string    `json:"columns"`
	Rows    [][]float64 `json:"rows"`
	// CalendarIndex is set once the index should be presented as calendar time.
	CalendarIndex bool `json:"calendarIndex"`
}

// Len returns the number of rows.
func (t *MeasurementTable) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Index)
}

// Time returns the calendar time of row i.
func (t *MeasurementTable) Time(i int) time.Time {
	return SecondsToTime(t.Index[i])
}

// Column returns a copy of the named column, or nil when the label is unknown.
func (t *MeasurementTable) Column(name string) []float64 {
	col := -1
	for i, c := range t.Columns {
		if c == name {
			col = i
			break
		}
	}
	if col < 0 {
		return nil
	}
	out := make([]float64, len(t.Rows))
	for i, row := range t.Rows {
		out[i] = row[col]
	}
	return out
}

// SecondsToTime converts fractional Unix seconds to a UTC time.
func SecondsToTime(s float64) time.Time {
	sec, frac := math.Modf(s)
	return time.Unix(int64(sec), int64(math.Round(frac*1e9))).UTC()
}
