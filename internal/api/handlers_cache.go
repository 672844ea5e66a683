// handlers_cache.go - Local cache inspection
package api

import (
	"net/http"
	"strconv"

	"github.com/labstack/echo/v4"

	"github.com/mms-viewer/backend/internal/models"
	"github.com/mms-viewer/backend/internal/storage"
)

const defaultCacheListLimit = 100

// CacheHandlerImpl implements the CacheHandler interface
type CacheHandlerImpl struct {
	store storage.Store
}

// NewCacheHandler creates a new cache handler
func NewCacheHandler(store storage.Store) CacheHandler {
	return &CacheHandlerImpl{store: store}
}

// HandleListCache returns the cached science files, newest first.
func (h *CacheHandlerImpl) HandleListCache(c echo.Context) error {
	limit := defaultCacheListLimit
	if s := c.QueryParam("limit"); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return NewBadRequestError("limit must be a non-negative integer", err)
		}
		limit = n
	}

	files, err := h.store.List(limit)
	if err != nil {
		return NewInternalError("failed to list cache", err)
	}
	if files == nil {
		files = []*models.CachedFile{}
	}
	return c.JSON(http.StatusOK, files)
}

// HandleGetCachedFile streams one cached file back as an attachment.
func (h *CacheHandlerImpl) HandleGetCachedFile(c echo.Context) error {
	name := c.Param("name")
	file, err := h.store.Get(name)
	if err != nil {
		return NewNotFoundError("Cached file", name)
	}
	return c.Attachment(file.Path, file.Name)
}
