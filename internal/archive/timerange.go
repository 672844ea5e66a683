package archive

import (
	"time"

	"github.com/mms-viewer/backend/internal/models"
)

// BuildRange converts two timestamps into the strings accepted by the archive.
//
// With exact set, both bounds are formatted as yyyy-mm-dd-hh-mm-ss.
// Otherwise the range covers the whole calendar day of start: the start is
// formatted as yyyy-mm-dd and the end is the last second of that day in the
// long layout. end is ignored in that mode.
func BuildRange(start, end time.Time, exact bool) models.TimeRange {
	if exact {
		return models.TimeRange{
			Start: start.Format(models.LongLayout),
			End:   end.Format(models.LongLayout),
		}
	}

	day := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, start.Location())
	last := day.AddDate(0, 0, 1).Add(-time.Second)
	return models.TimeRange{
		Start: day.Format(models.DayLayout),
		End:   last.Format(models.LongLayout),
	}
}

// ParseDay parses a yyyy-mm-dd date in UTC.
func ParseDay(s string) (time.Time, error) {
	return time.Parse(models.DayLayout, s)
}

// ParseLong parses a yyyy-mm-dd-hh-mm-ss timestamp in UTC.
func ParseLong(s string) (time.Time, error) {
	return time.Parse(models.LongLayout, s)
}
