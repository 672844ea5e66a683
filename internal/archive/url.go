package archive

import (
	"strconv"

	"github.com/mms-viewer/backend/internal/models"
)

// Public science data center endpoints.
const (
	DefaultFileInfoURL = "https://lasp.colorado.edu/mms/sdc/public/files/api/v1/file_info/"
	DefaultDownloadURL = "https://lasp.colorado.edu/mms/sdc/public/files/api/v1/download/"
)

// SearchURL builds a file_info query. Values are substituted as-is; they are
// enumeration tokens, a probe number and formatted dates, none of which need escaping.
func SearchURL(base string, r models.TimeRange, probe int, inst models.Instrument, rate models.DataRate, level string) string {
	return base +
		"science?start_date=" + r.Start +
		"&end_date=" + r.End +
		"&sc_id=mms" + strconv.Itoa(probe) +
		"&instrument_id=" + string(inst) +
		"&data_rate_mode=" + string(rate) +
		"&data_level=" + level
}

// DownloadURL builds the download request for a named science file.
func DownloadURL(base, fileName string) string {
	return base + "science?file=" + fileName
}
