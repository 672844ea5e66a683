// handlers_events.go - Dashboard event handlers
package api

import (
	"bytes"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/vmihailenco/msgpack/v5"
	"go.uber.org/zap"

	"github.com/mms-viewer/backend/internal/event"
	"github.com/mms-viewer/backend/internal/models"
)

// EventHandlerImpl implements the EventHandler interface
type EventHandlerImpl struct {
	events EventManager
	logger *zap.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler(events EventManager, logger *zap.Logger) EventHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EventHandlerImpl{events: events, logger: logger}
}

// eventResponse is the JSON summary of a built event.
type eventResponse struct {
	*models.Event
	Points       int  `json:"points"`
	CalendarTime bool `json:"calendarTime"`
}

func summarize(s *event.State) eventResponse {
	resp := eventResponse{Event: s.Event}
	if s.Chart != nil {
		resp.Points = s.Chart.Len()
		resp.CalendarTime = s.Chart.CalendarTime
	}
	return resp
}

func (h *EventHandlerImpl) lookup(c echo.Context) (*event.State, error) {
	id := c.Param("id")
	state, ok := h.events.Get(id)
	if !ok {
		return nil, NewNotFoundError("event", id)
	}
	return state, nil
}

// HandleDashboard renders every event as one HTML page.
func (h *EventHandlerImpl) HandleDashboard(c echo.Context) error {
	var buf bytes.Buffer
	if err := h.events.Page().Render(&buf); err != nil {
		return NewInternalError("failed to render dashboard", err)
	}
	return c.HTMLBlob(http.StatusOK, buf.Bytes())
}

// HandleListEvents returns the events in display order.
func (h *EventHandlerImpl) HandleListEvents(c echo.Context) error {
	states := h.events.List()
	out := make([]eventResponse, 0, len(states))
	for _, s := range states {
		out = append(out, summarize(s))
	}
	return c.JSON(http.StatusOK, out)
}

// HandleCreateEvent builds one more event and appends it to the dashboard.
func (h *EventHandlerImpl) HandleCreateEvent(c echo.Context) error {
	q, err := bindQuery(c)
	if err != nil {
		return err
	}
	req, err := q.toEventRequest()
	if err != nil {
		return FromError(err)
	}

	state, err := h.events.Build(c.Request().Context(), req)
	if err != nil {
		h.logger.Warn("event build failed", zap.Error(err))
		return FromError(err)
	}
	return c.JSON(http.StatusCreated, summarize(state))
}

// HandleGetEvent returns one event summary.
func (h *EventHandlerImpl) HandleGetEvent(c echo.Context) error {
	state, err := h.lookup(c)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, summarize(state))
}

// HandleDeleteEvent removes an event from the dashboard.
func (h *EventHandlerImpl) HandleDeleteEvent(c echo.Context) error {
	id := c.Param("id")
	if !h.events.Delete(id) {
		return NewNotFoundError("event", id)
	}
	return c.NoContent(http.StatusNoContent)
}

// HandleGetSeries returns the plotted series as JSON.
func (h *EventHandlerImpl) HandleGetSeries(c echo.Context) error {
	state, err := h.lookup(c)
	if err != nil {
		return err
	}
	data, err := state.Chart.JSON()
	if err != nil {
		return NewInternalError("failed to encode series", err)
	}
	return c.JSONBlob(http.StatusOK, data)
}

// HandleGetSeriesMsgpack returns the plotted series as MessagePack.
func (h *EventHandlerImpl) HandleGetSeriesMsgpack(c echo.Context) error {
	state, err := h.lookup(c)
	if err != nil {
		return err
	}
	data, err := msgpack.Marshal(state.Chart)
	if err != nil {
		return NewInternalError("failed to encode msgpack", err)
	}
	return c.Blob(http.StatusOK, "application/msgpack", data)
}

// HandleGetPlotSVG returns a static rendering of the chart.
func (h *EventHandlerImpl) HandleGetPlotSVG(c echo.Context) error {
	state, err := h.lookup(c)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := state.Chart.WriteSVG(&buf); err != nil {
		return NewInternalError("failed to render svg", err)
	}
	return c.Blob(http.StatusOK, "image/svg+xml", buf.Bytes())
}
