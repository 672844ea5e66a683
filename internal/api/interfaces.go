// interfaces.go - Handler interface definitions for clean separation of concerns
package api

import (
	"context"

	"github.com/labstack/echo/v4"

	"github.com/mms-viewer/backend/internal/archive"
	"github.com/mms-viewer/backend/internal/event"
	"github.com/mms-viewer/backend/internal/models"
	"github.com/mms-viewer/backend/internal/web"
)

// HealthHandler handles health check operations
type HealthHandler interface {
	HandleHealth(c echo.Context) error
}

// FileHandler handles archive listing operations
type FileHandler interface {
	HandleSearchFiles(c echo.Context) error
}

// EventHandler handles dashboard event operations
type EventHandler interface {
	HandleDashboard(c echo.Context) error
	HandleListEvents(c echo.Context) error
	HandleCreateEvent(c echo.Context) error
	HandleGetEvent(c echo.Context) error
	HandleDeleteEvent(c echo.Context) error
	HandleGetSeries(c echo.Context) error
	HandleGetSeriesMsgpack(c echo.Context) error
	HandleGetPlotSVG(c echo.Context) error
}

// CacheHandler handles local cache inspection
type CacheHandler interface {
	HandleListCache(c echo.Context) error
	HandleGetCachedFile(c echo.Context) error
}

// FileSearcher lists archive files. Satisfied by *archive.Client.
type FileSearcher interface {
	SearchFiles(ctx context.Context, req archive.SearchRequest) ([]models.FileRecord, error)
}

// EventManager defines the interface for event management
// This allows mocking in tests
type EventManager interface {
	Build(ctx context.Context, req event.Request) (*event.State, error)
	Get(id string) (*event.State, bool)
	List() []*event.State
	Delete(id string) bool
	Page() *web.Page
}
