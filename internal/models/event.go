package models

import "time"

// Event is one dashboard panel: the queried range, the files it was built from
// and the measurements behind its chart.
type Event struct {
	ID         string            `json:"id"`
	Range      TimeRange         `json:"range"`
	Probe      int               `json:"probe"`
	Instrument Instrument        `json:"instrument"`
	DataRate   DataRate          `json:"dataRate"`
	Files      []FileRecord      `json:"files"`
	SourceFile string            `json:"sourceFile"`
	Table      *MeasurementTable `json:"-"`
	RowCount   int               `json:"rowCount"`
	CreatedAt  time.Time         `json:"createdAt"`
}
