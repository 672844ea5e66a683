package main

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mms-viewer/backend/internal/config"
	"github.com/mms-viewer/backend/internal/models"
)

func TestStartupRequest(t *testing.T) {
	req, err := startupRequest(config.DefaultConfig().Events.Startup[0], 5000)
	require.NoError(t, err)
	assert.Equal(t, time.Date(2018, 3, 13, 0, 0, 0, 0, time.UTC), req.Start)
	assert.Equal(t, models.InstrumentFGM, req.Instrument)
	assert.Equal(t, models.DataRateSurvey, req.DataRate)
	assert.Equal(t, 1, req.Probe)
	assert.Equal(t, 10000, req.ApproxNumPoints)

	req, err = startupRequest(config.EventConfig{
		Start:      "2018-03-13-10-00-00",
		End:        "2018-03-13-11-00-00",
		Exact:      true,
		Instrument: "fgm",
	}, 5000)
	require.NoError(t, err)
	assert.True(t, req.Exact)
	assert.Equal(t, time.Hour, req.End.Sub(req.Start))
	assert.Equal(t, 5000, req.ApproxNumPoints)

	for _, ec := range []config.EventConfig{
		{Instrument: "fgm"},
		{Day: "2018/03/13", Instrument: "fgm"},
		{Day: "2018-03-13", Instrument: "xyz"},
		{Day: "2018-03-13", Instrument: "fgm", DataRate: "slow"},
		{Start: "2018-03-13-10-00-00", Exact: true, Instrument: "fgm"},
	} {
		_, err := startupRequest(ec, 100)
		assert.True(t, errors.Is(err, models.ErrConfiguration), "%+v: %v", ec, err)
	}
}
