package models

// Date layouts accepted by the archive query API.
const (
	DayLayout  = "2006-01-02"
	LongLayout = "2006-01-02-15-04-05"
)

// TimeRange is the textual start/end pair sent to the archive.
// Start is either DayLayout or LongLayout formatted, End is always LongLayout formatted.
type TimeRange struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// String renders the range as the event header label.
func (r TimeRange) String() string {
	return r.Start + " -> " + r.End
}
