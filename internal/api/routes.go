// routes.go - Route registration helpers
// This file provides a clean way to register all API routes
package api

import (
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/mms-viewer/backend/internal/storage"
)

// Dependencies holds all handler dependencies
type Dependencies struct {
	Store   storage.Store
	Archive FileSearcher
	Events  EventManager
	Logger  *zap.Logger
	Version string
}

// Handlers holds all handler instances
type Handlers struct {
	Health HealthHandler
	Files  FileHandler
	Events EventHandler
	Cache  CacheHandler
}

// NewHandlers creates all handler instances
func NewHandlers(deps *Dependencies) *Handlers {
	return &Handlers{
		Health: NewHealthHandler(deps.Version, deps.Events),
		Files:  NewFileHandler(deps.Archive),
		Events: NewEventHandler(deps.Events, deps.Logger),
		Cache:  NewCacheHandler(deps.Store),
	}
}

// RegisterRoutes registers all API routes with the Echo instance
func RegisterRoutes(e *echo.Echo, handlers *Handlers) {
	// Dashboard page
	e.GET("/", handlers.Events.HandleDashboard)

	// Health check
	e.GET("/api/health", handlers.Health.HandleHealth)

	// Archive listing
	e.GET("/api/files/search", handlers.Files.HandleSearchFiles)

	// Events
	eventGroup := e.Group("/api/events")
	eventGroup.GET("", handlers.Events.HandleListEvents)
	eventGroup.POST("", handlers.Events.HandleCreateEvent)
	eventGroup.GET("/:id", handlers.Events.HandleGetEvent)
	eventGroup.DELETE("/:id", handlers.Events.HandleDeleteEvent)
	eventGroup.GET("/:id/series", handlers.Events.HandleGetSeries)
	eventGroup.GET("/:id/series/msgpack", handlers.Events.HandleGetSeriesMsgpack)
	eventGroup.GET("/:id/plot.svg", handlers.Events.HandleGetPlotSVG)

	// Local cache
	e.GET("/api/cache", handlers.Cache.HandleListCache)
	e.GET("/api/cache/:name", handlers.Cache.HandleGetCachedFile)
}

// SetupMiddleware configures common middleware
func SetupMiddleware(e *echo.Echo) {
	e.HTTPErrorHandler = ErrorHandler
}
