// Package models holds the data types shared by the archive client, the
// loaders and the dashboard.
package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrConfiguration marks errors caused by an invalid request configuration.
// Such errors are raised before any network call is made.
var ErrConfiguration = errors.New("configuration error")

// ErrInvalidCombination is returned when an instrument cannot be queried at a data rate.
var ErrInvalidCombination = fmt.Errorf("%w: incompatible instrument and data rate", ErrConfiguration)

// Instrument identifies a science instrument on board each probe.
type Instrument string

const (
	InstrumentFGM Instrument = "fgm"
	InstrumentFPI Instrument = "fpi"
)

// DataRate is the sampling cadence mode of an instrument.
type DataRate string

const (
	DataRateFast   DataRate = "fast"
	DataRateSurvey DataRate = "srvy"
)

// DefaultDataLevel is the product level requested from the archive.
const DefaultDataLevel = "l2"

// Probe bounds for the four spacecraft of the mission.
const (
	MinProbe = 1
	MaxProbe = 4
)

var instruments = map[string]Instrument{
	"fgm": InstrumentFGM,
	"fpi": InstrumentFPI,
}

var dataRates = map[string]DataRate{
	"fast":   DataRateFast,
	"srvy":   DataRateSurvey,
	"survey": DataRateSurvey,
}

// deniedCombinations lists the data rates each instrument does not produce.
var deniedCombinations = map[Instrument][]DataRate{
	InstrumentFGM: {DataRateFast},
	InstrumentFPI: {DataRateSurvey},
}

// ParseInstrument accepts an instrument name in any case.
func ParseInstrument(s string) (Instrument, error) {
	if inst, ok := instruments[strings.ToLower(strings.TrimSpace(s))]; ok {
		return inst, nil
	}
	return "", fmt.Errorf("%w: unknown instrument %q", ErrConfiguration, s)
}

// ParseDataRate accepts "fast", "srvy" or "survey" in any case.
func ParseDataRate(s string) (DataRate, error) {
	if rate, ok := dataRates[strings.ToLower(strings.TrimSpace(s))]; ok {
		return rate, nil
	}
	return "", fmt.Errorf("%w: unknown data rate %q", ErrConfiguration, s)
}

// Valid reports whether the instrument is one of the known identifiers.
func (i Instrument) Valid() bool {
	_, ok := deniedCombinations[i]
	return ok
}

// Valid reports whether the data rate is one of the known modes.
func (r DataRate) Valid() bool {
	return r == DataRateFast || r == DataRateSurvey
}

// ValidateCombination fails when the instrument does not produce data at the given rate.
func ValidateCombination(inst Instrument, rate DataRate) error {
	if !inst.Valid() {
		return fmt.Errorf("%w: unknown instrument %q", ErrConfiguration, inst)
	}
	if !rate.Valid() {
		return fmt.Errorf("%w: unknown data rate %q", ErrConfiguration, rate)
	}
	for _, denied := range deniedCombinations[inst] {
		if denied == rate {
			return fmt.Errorf("%w: instrument %s with data rate %s", ErrInvalidCombination, inst, rate)
		}
	}
	return nil
}

// ValidateProbe fails when the probe number is outside 1..4.
func ValidateProbe(probe int) error {
	if probe < MinProbe || probe > MaxProbe {
		return fmt.Errorf("%w: probe must be between %d and %d, got %d", ErrConfiguration, MinProbe, MaxProbe, probe)
	}
	return nil
}

// SpacecraftID returns the archive identifier of a probe, e.g. "mms1".
func SpacecraftID(probe int) string {
	return fmt.Sprintf("mms%d", probe)
}
