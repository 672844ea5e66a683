package models

import (
	"strings"
	"time"
)

// ArchiveTimeLayout is the timestamp layout used in archive file listings.
const ArchiveTimeLayout = "2006-01-02T15:04:05"

// ArchiveTime decodes listing timestamps such as "2018-03-13T00:00:00".
type ArchiveTime struct {
	time.Time
}

// UnmarshalJSON parses the archive layout, falling back to RFC 3339.
func (t *ArchiveTime) UnmarshalJSON(b []byte) error {
	s := strings.Trim(string(b), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	parsed, err := time.Parse(ArchiveTimeLayout, s)
	if err != nil {
		parsed, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return err
		}
	}
	t.Time = parsed.UTC()
	return nil
}

// MarshalJSON writes the archive layout back out.
func (t ArchiveTime) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return []byte(`"` + t.UTC().Format(ArchiveTimeLayout) + `"`), nil
}

// FileRecord describes one science file returned by an archive search.
type FileRecord struct {
	FileName     string      `json:"file_name" msgpack:"file_name"`
	FileSize     int64       `json:"file_size" msgpack:"file_size"` // bytes
	Timetag      ArchiveTime `json:"timetag" msgpack:"-"`
	ModifiedDate ArchiveTime `json:"modified_date" msgpack:"-"`
}

// FileNames returns the names of the records in order.
func FileNames(files []FileRecord) []string {
	names := make([]string, len(files))
	for i, f := range files {
		names[i] = f.FileName
	}
	return names
}
