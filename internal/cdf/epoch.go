package cdf

import (
	"fmt"
	"math"
	"time"
)

// Seconds between 0000-01-01T00:00:00 and the Unix epoch, as used by CDF_EPOCH.
const epochToUnixSeconds = 62167219200

// ttJ2000TAIUnixNanos is the Unix time of the TT2000 origin (2000-01-01T12:00:00 TT)
// expressed on a leap-second-free TAI scale, i.e. Unix time plus TAI-UTC (32s in 2000).
const ttJ2000TAIUnixNanos int64 = 946727967816000000

// TT2000 fill and pad markers
const (
	tt2000Fill int64 = math.MinInt64
	tt2000Pad  int64 = math.MinInt64 + 1
)

// epochFill is the CDF_EPOCH fill value.
const epochFill = -1e31

type leapSecond struct {
	unix   int64 // UTC date the offset takes effect, Unix seconds
	offset int64 // TAI-UTC in seconds from that date on
}

// leapSeconds is TAI-UTC since 1972.
var leapSeconds = func() []leapSecond {
	dates := []struct {
		y      int
		m      time.Month
		offset int64
	}{
		{1972, 1, 10}, {1972, 7, 11}, {1973, 1, 12}, {1974, 1, 13}, {1975, 1, 14},
		{1976, 1, 15}, {1977, 1, 16}, {1978, 1, 17}, {1979, 1, 18}, {1980, 1, 19},
		{1981, 7, 20}, {1982, 7, 21}, {1983, 7, 22}, {1985, 7, 23}, {1988, 1, 24},
		{1990, 1, 25}, {1991, 1, 26}, {1992, 7, 27}, {1993, 7, 28}, {1994, 7, 29},
		{1996, 1, 30}, {1997, 7, 31}, {1999, 1, 32}, {2006, 1, 33}, {2009, 1, 34},
		{2012, 7, 35}, {2015, 7, 36}, {2017, 1, 37},
	}
	out := make([]leapSecond, len(dates))
	for i, d := range dates {
		out[i] = leapSecond{
			unix:   time.Date(d.y, d.m, 1, 0, 0, 0, 0, time.UTC).Unix(),
			offset: d.offset,
		}
	}
	return out
}()

// TT2000ToUnixNano converts nanoseconds since J2000 (TT) to Unix nanoseconds.
func TT2000ToUnixNano(tt int64) int64 {
	tai := tt + ttJ2000TAIUnixNanos
	for i := len(leapSeconds) - 1; i >= 0; i-- {
		ls := leapSeconds[i]
		if tai-ls.offset*1e9 >= ls.unix*1e9 {
			return tai - ls.offset*1e9
		}
	}
	return tai - leapSeconds[0].offset*1e9
}

// UnixNanoToTT2000 is the inverse of TT2000ToUnixNano.
func UnixNanoToTT2000(unixNano int64) int64 {
	offset := leapSeconds[0].offset
	for i := len(leapSeconds) - 1; i >= 0; i-- {
		if unixNano >= leapSeconds[i].unix*1e9 {
			offset = leapSeconds[i].offset
			break
		}
	}
	return unixNano + offset*1e9 - ttJ2000TAIUnixNanos
}

// TimeToTT2000 converts a calendar time to a TT2000 value.
func TimeToTT2000(t time.Time) int64 {
	return UnixNanoToTT2000(t.UnixNano())
}

// EpochToUnix converts CDF_EPOCH milliseconds since year 0 to Unix seconds.
func EpochToUnix(ms float64) float64 {
	return ms/1000 - epochToUnixSeconds
}

// Epoch16ToUnix converts a CDF_EPOCH16 pair (seconds since year 0, picoseconds) to Unix seconds.
func Epoch16ToUnix(seconds, picoseconds float64) float64 {
	return seconds - epochToUnixSeconds + picoseconds*1e-12
}

// UnixSeconds converts an epoch variable to fractional Unix seconds, one value per record.
// Fill values become NaN.
func UnixSeconds(v *Variable) ([]float64, error) {
	switch v.Type {
	case TimeTT2000:
		raw, err := v.Int64s()
		if err != nil {
			return nil, err
		}
		out := make([]float64, len(raw))
		for i, tt := range raw {
			if tt == tt2000Fill || tt == tt2000Pad {
				out[i] = math.NaN()
				continue
			}
			ns := TT2000ToUnixNano(tt)
			out[i] = float64(ns/1e9) + float64(ns%1e9)/1e9
		}
		return out, nil
	case Epoch:
		raw, err := v.Float64s()
		if err != nil {
			return nil, err
		}
		out := make([]float64, len(raw))
		for i, ms := range raw {
			if ms <= epochFill {
				out[i] = math.NaN()
				continue
			}
			out[i] = EpochToUnix(ms)
		}
		return out, nil
	case Epoch16:
		raw, err := v.Float64s()
		if err != nil {
			return nil, err
		}
		out := make([]float64, len(raw)/2)
		for i := range out {
			if raw[2*i] <= epochFill {
				out[i] = math.NaN()
				continue
			}
			out[i] = Epoch16ToUnix(raw[2*i], raw[2*i+1])
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: %s is not an epoch variable (%s)", ErrUnsupported, v.Name, v.Type)
}
