package cdf

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestTT2000_KnownValues(t *testing.T) {
	// J2000 origin is 11:58:55.816 UTC
	assert.Equal(t, time.Date(2000, 1, 1, 11, 58, 55, 816000000, time.UTC).UnixNano(), TT2000ToUnixNano(0))

	// 37 leap seconds apply from 2017 on
	assert.Equal(t, int64(536500869184000000), TimeToTT2000(time.Date(2017, 1, 1, 0, 0, 0, 0, time.UTC)))
}

func TestTT2000_RoundTrip(t *testing.T) {
	times := []time.Time{
		time.Date(1995, 6, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2005, 12, 31, 23, 59, 59, 0, time.UTC),
		time.Date(2006, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2015, 10, 16, 13, 6, 0, 123456789, time.UTC),
		time.Date(2018, 3, 13, 0, 0, 0, 0, time.UTC),
		time.Date(2024, 2, 29, 12, 0, 0, 0, time.UTC),
	}
	for _, tm := range times {
		t.Run(tm.Format(time.RFC3339Nano), func(t *testing.T) {
			assert.Equal(t, tm.UnixNano(), TT2000ToUnixNano(TimeToTT2000(tm)))
		})
	}
}

func TestEpochConversions(t *testing.T) {
	unix := float64(time.Date(2018, 3, 13, 0, 0, 0, 0, time.UTC).Unix())

	assert.Equal(t, unix, EpochToUnix((unix+epochToUnixSeconds)*1000))
	assert.InDelta(t, unix+0.5, Epoch16ToUnix(unix+epochToUnixSeconds, 5e11), 1e-6)
}

func TestDataTypeSize(t *testing.T) {
	assert.Equal(t, 8, TimeTT2000.Size())
	assert.Equal(t, 16, Epoch16.Size())
	assert.Equal(t, 4, Float.Size())
	assert.Equal(t, 0, DataType(99).Size())
	assert.True(t, Epoch.IsTime())
	assert.False(t, Double.IsTime())
	assert.Equal(t, "CDF_TIME_TT2000", TimeTT2000.String())
}
