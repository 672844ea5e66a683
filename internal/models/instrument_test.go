package models

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestValidateCombination(t *testing.T) {
	tests := []struct {
		inst    Instrument
		rate    DataRate
		wantErr bool
	}{
		{InstrumentFGM, DataRateFast, true},
		{InstrumentFGM, DataRateSurvey, false},
		{InstrumentFPI, DataRateFast, false},
		{InstrumentFPI, DataRateSurvey, true},
	}

	for _, tt := range tests {
		t.Run(string(tt.inst)+"_"+string(tt.rate), func(t *testing.T) {
			err := ValidateCombination(tt.inst, tt.rate)
			if tt.wantErr {
				assert.Error(t, err)
				assert.True(t, errors.Is(err, ErrInvalidCombination))
				assert.True(t, errors.Is(err, ErrConfiguration))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateCombination_UnknownValues(t *testing.T) {
	err := ValidateCombination("scm", DataRateFast)
	assert.True(t, errors.Is(err, ErrConfiguration))
	assert.False(t, errors.Is(err, ErrInvalidCombination))

	err = ValidateCombination(InstrumentFGM, "brst")
	assert.True(t, errors.Is(err, ErrConfiguration))
}

func TestParseInstrument(t *testing.T) {
	inst, err := ParseInstrument("FGM")
	assert.NoError(t, err)
	assert.Equal(t, InstrumentFGM, inst)

	inst, err = ParseInstrument(" fpi ")
	assert.NoError(t, err)
	assert.Equal(t, InstrumentFPI, inst)

	_, err = ParseInstrument("edp")
	assert.True(t, errors.Is(err, ErrConfiguration))
}

func TestParseDataRate(t *testing.T) {
	for _, in := range []string{"SURVEY", "srvy", "Survey"} {
		rate, err := ParseDataRate(in)
		assert.NoError(t, err)
		assert.Equal(t, DataRateSurvey, rate)
	}

	rate, err := ParseDataRate("FAST")
	assert.NoError(t, err)
	assert.Equal(t, DataRateFast, rate)

	_, err = ParseDataRate("")
	assert.True(t, errors.Is(err, ErrConfiguration))
}

func TestValidateProbe(t *testing.T) {
	for p := MinProbe; p <= MaxProbe; p++ {
		assert.NoError(t, ValidateProbe(p))
	}
	assert.True(t, errors.Is(ValidateProbe(0), ErrConfiguration))
	assert.True(t, errors.Is(ValidateProbe(5), ErrConfiguration))
	assert.Equal(t, "mms3", SpacecraftID(3))
}
