// params.go - Request parameter binding shared by search and event handlers
package api

import (
	"fmt"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mms-viewer/backend/internal/archive"
	"github.com/mms-viewer/backend/internal/event"
	"github.com/mms-viewer/backend/internal/models"
)

// queryRequest is bound from query parameters (GET) or a JSON body (POST).
type queryRequest struct {
	Day             string `json:"day" query:"day"`
	Start           string `json:"start" query:"start"`
	End             string `json:"end" query:"end"`
	Exact           bool   `json:"exact" query:"exact"`
	Probe           int    `json:"probe" query:"probe"`
	Instrument      string `json:"instrument" query:"instrument"`
	DataRate        string `json:"rate" query:"rate"`
	ApproxNumPoints int    `json:"points" query:"points"`
}

func bindQuery(c echo.Context) (*queryRequest, error) {
	var req queryRequest
	if err := c.Bind(&req); err != nil {
		return nil, NewBadRequestError("invalid request parameters", err)
	}
	return &req, nil
}

// parseTimestamp accepts yyyy-mm-dd or yyyy-mm-dd-hh-mm-ss.
func parseTimestamp(field, s string) (time.Time, error) {
	if t, err := archive.ParseLong(s); err == nil {
		return t, nil
	}
	t, err := archive.ParseDay(s)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s %q is neither %s nor %s",
			models.ErrConfiguration, field, s, models.DayLayout, models.LongLayout)
	}
	return t, nil
}

// toEventRequest validates the bound parameters. Configuration problems wrap models.ErrConfiguration.
func (q *queryRequest) toEventRequest() (event.Request, error) {
	var req event.Request

	switch {
	case q.Day != "":
		day, err := archive.ParseDay(q.Day)
		if err != nil {
			return req, fmt.Errorf("%w: day %q is not %s", models.ErrConfiguration, q.Day, models.DayLayout)
		}
		req.Start = day
	case q.Start != "":
		start, err := parseTimestamp("start", q.Start)
		if err != nil {
			return req, err
		}
		req.Start = start
		req.Exact = q.Exact
		if q.Exact {
			if q.End == "" {
				return req, fmt.Errorf("%w: end is required for exact ranges", models.ErrConfiguration)
			}
			end, err := parseTimestamp("end", q.End)
			if err != nil {
				return req, err
			}
			if end.Before(start) {
				return req, fmt.Errorf("%w: end precedes start", models.ErrConfiguration)
			}
			req.End = end
		}
	default:
		return req, fmt.Errorf("%w: day or start is required", models.ErrConfiguration)
	}

	inst, err := models.ParseInstrument(q.Instrument)
	if err != nil {
		return req, err
	}
	req.Instrument = inst

	if strings.TrimSpace(q.DataRate) != "" {
		rate, err := models.ParseDataRate(q.DataRate)
		if err != nil {
			return req, err
		}
		req.DataRate = rate
	}

	req.Probe = q.Probe
	req.ApproxNumPoints = q.ApproxNumPoints
	return req, nil
}
