// handlers_files.go - Archive listing handlers
package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mms-viewer/backend/internal/archive"
	"github.com/mms-viewer/backend/internal/models"
)

// FileHandlerImpl implements the FileHandler interface
type FileHandlerImpl struct {
	archive FileSearcher
}

// NewFileHandler creates a new file handler
func NewFileHandler(a FileSearcher) FileHandler {
	return &FileHandlerImpl{archive: a}
}

// HandleSearchFiles returns the archive listing for a day or an exact range.
func (h *FileHandlerImpl) HandleSearchFiles(c echo.Context) error {
	q, err := bindQuery(c)
	if err != nil {
		return err
	}
	req, err := q.toEventRequest()
	if err != nil {
		return FromError(err)
	}

	r := archive.BuildRange(req.Start, req.End, req.Exact)
	files, err := h.archive.SearchFiles(c.Request().Context(), archive.SearchRequest{
		Range:      r,
		Instrument: req.Instrument,
		Probe:      req.Probe,
		DataRate:   req.DataRate,
	})
	if err != nil {
		return FromError(err)
	}
	if files == nil {
		files = []models.FileRecord{}
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"range": r,
		"files": files,
	})
}
