package cdf

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fgmFixture(t *testing.T, configure func(*Encoder)) ([]byte, []int64, []float32) {
	t.Helper()
	start := time.Date(2018, 3, 13, 0, 0, 0, 0, time.UTC)
	epochs := make([]int64, 5)
	b := make([]float32, 0, 20)
	for i := range epochs {
		epochs[i] = TimeToTT2000(start.Add(time.Duration(i) * 62500 * time.Microsecond))
		b = append(b, float32(i), float32(-i), float32(2*i), float32(10+i))
	}

	enc := NewEncoder()
	if configure != nil {
		configure(enc)
	}
	enc.AddTT2000("Epoch", epochs)
	require.NoError(t, enc.AddFloat32("mms1_fgm_b_gse_srvy_l2", []int{4}, b))
	require.NoError(t, enc.AddFloat64("mms1_fgm_flag_srvy_l2", nil, []float64{0, 0, 1, 0, 0}))

	data, err := enc.Bytes()
	require.NoError(t, err)
	return data, epochs, b
}

func TestParse_RoundTrip(t *testing.T) {
	tests := []struct {
		name      string
		configure func(*Encoder)
	}{
		{"little endian", nil},
		{"big endian", func(e *Encoder) { require.NoError(t, e.SetEncoding(EncodingNetwork)) }},
		{"compressed variables", func(e *Encoder) { e.CompressVariables(true) }},
		{"compressed file", func(e *Encoder) { e.CompressFile(true) }},
		{"compressed file and variables", func(e *Encoder) {
			e.CompressFile(true)
			e.CompressVariables(true)
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, epochs, b := fgmFixture(t, tt.configure)

			f, err := Parse(data)
			require.NoError(t, err)
			assert.Equal(t, int32(3), f.Version)
			assert.True(t, f.RowMajor)
			assert.Equal(t, []string{"Epoch", "mms1_fgm_b_gse_srvy_l2", "mms1_fgm_flag_srvy_l2"}, f.ZVariables())

			epoch, err := f.VarGet("Epoch")
			require.NoError(t, err)
			assert.Equal(t, TimeTT2000, epoch.Type)
			assert.Equal(t, 5, epoch.NumRecords)
			gotEpochs, err := epoch.Int64s()
			require.NoError(t, err)
			assert.Equal(t, epochs, gotEpochs)

			bvar, err := f.VarGet("mms1_fgm_b_gse_srvy_l2")
			require.NoError(t, err)
			assert.Equal(t, []int{4}, bvar.Dims)
			assert.Equal(t, 4, bvar.ValuesPerRecord())
			rows, err := bvar.Rows()
			require.NoError(t, err)
			require.Len(t, rows, 5)
			for i, row := range rows {
				for j := 0; j < 4; j++ {
					assert.Equal(t, float64(b[4*i+j]), row[j])
				}
			}

			flag, err := f.VarGet("mms1_fgm_flag_srvy_l2")
			require.NoError(t, err)
			vals, err := flag.Float64s()
			require.NoError(t, err)
			assert.Equal(t, []float64{0, 0, 1, 0, 0}, vals)
		})
	}
}

func TestOpenAndRead(t *testing.T) {
	data, _, _ := fgmFixture(t, nil)
	path := filepath.Join(t.TempDir(), "fixture.cdf")

	enc := NewEncoder()
	enc.AddTT2000("Epoch", []int64{1, 2, 3})
	require.NoError(t, enc.WriteFile(path))

	f, err := Open(path)
	require.NoError(t, err)
	assert.Equal(t, []string{"Epoch"}, f.ZVariables())

	f, err = Read(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Len(t, f.ZVariables(), 3)

	var buf bytes.Buffer
	n, err := enc.WriteTo(&buf)
	require.NoError(t, err)
	assert.Equal(t, int64(buf.Len()), n)
}

func TestParse_Errors(t *testing.T) {
	t.Run("not a cdf", func(t *testing.T) {
		_, err := Parse([]byte("PK\x03\x04 zip archive"))
		assert.True(t, errors.Is(err, ErrNotCDF))
	})

	t.Run("too short", func(t *testing.T) {
		_, err := Parse([]byte{0xCD, 0xF3})
		assert.True(t, errors.Is(err, ErrNotCDF))
	})

	t.Run("bad second magic", func(t *testing.T) {
		data, _, _ := fgmFixture(t, nil)
		data[7] = 0x00
		_, err := Parse(data)
		assert.True(t, errors.Is(err, ErrNotCDF))
	})

	t.Run("truncated", func(t *testing.T) {
		data, _, _ := fgmFixture(t, nil)
		_, err := Parse(data[:200])
		assert.True(t, errors.Is(err, ErrCorrupt))
	})

	t.Run("unknown variable", func(t *testing.T) {
		data, _, _ := fgmFixture(t, nil)
		f, err := Parse(data)
		require.NoError(t, err)
		_, err = f.VarGet("mms2_fgm_b_gse_srvy_l2")
		assert.True(t, errors.Is(err, ErrVariableNotFound))
	})
}

// zVDROffset locates the descriptor of the named variable in an uncompressed fixture.
func zVDROffset(t *testing.T, data []byte, name string) int {
	t.Helper()
	idx := bytes.Index(data, append([]byte(name), 0))
	require.Greater(t, idx, 84)
	return idx - 84
}

func TestParse_CorruptDescriptors(t *testing.T) {
	const bVar = "mms1_fgm_b_gse_srvy_l2"

	t.Run("negative dimension", func(t *testing.T) {
		data, _, _ := fgmFixture(t, nil)
		vdr := zVDROffset(t, data, bVar)
		binary.BigEndian.PutUint32(data[vdr+vdrFixedSize:], 0xFFFFFFFF)

		_, err := Parse(data)
		assert.True(t, errors.Is(err, ErrCorrupt), "got %v", err)
	})

	t.Run("zero dimension", func(t *testing.T) {
		data, _, _ := fgmFixture(t, nil)
		vdr := zVDROffset(t, data, bVar)
		binary.BigEndian.PutUint32(data[vdr+vdrFixedSize:], 0)

		_, err := Parse(data)
		assert.True(t, errors.Is(err, ErrCorrupt), "got %v", err)
	})

	t.Run("huge dimension", func(t *testing.T) {
		data, _, _ := fgmFixture(t, nil)
		vdr := zVDROffset(t, data, bVar)
		binary.BigEndian.PutUint32(data[vdr+vdrFixedSize:], 0x7FFFFFFF)

		f, err := Parse(data)
		require.NoError(t, err)
		assert.NotPanics(t, func() {
			_, err = f.VarGet(bVar)
		})
		assert.True(t, errors.Is(err, ErrCorrupt), "got %v", err)
	})

	t.Run("huge record count", func(t *testing.T) {
		data, _, _ := fgmFixture(t, nil)
		vdr := zVDROffset(t, data, bVar)
		binary.BigEndian.PutUint32(data[vdr+24:], 0x7FFFFFFE)

		f, err := Parse(data)
		require.NoError(t, err)
		assert.NotPanics(t, func() {
			_, err = f.VarGet(bVar)
		})
		assert.True(t, errors.Is(err, ErrCorrupt), "got %v", err)
	})
}

func TestVariable_Int64sRejectsFloats(t *testing.T) {
	data, _, _ := fgmFixture(t, nil)
	f, err := Parse(data)
	require.NoError(t, err)

	v, err := f.VarGet("mms1_fgm_b_gse_srvy_l2")
	require.NoError(t, err)
	_, err = v.Int64s()
	assert.True(t, errors.Is(err, ErrUnsupported))
}

func TestColumnToRowMajor(t *testing.T) {
	// one record of a 2x3 array stored column-major: a00 a10 a01 a11 a02 a12
	raw := []byte{0, 10, 1, 11, 2, 12}
	got := columnToRowMajor(raw, []int{2, 3}, 1, 1)
	assert.Equal(t, []byte{0, 1, 2, 10, 11, 12}, got)
}

func TestUnixSeconds(t *testing.T) {
	start := time.Date(2018, 3, 13, 0, 0, 0, 0, time.UTC)

	enc := NewEncoder()
	enc.AddTT2000("Epoch", []int64{TimeToTT2000(start), TimeToTT2000(start.Add(1500 * time.Millisecond)), tt2000Fill})
	enc.AddEpoch("EpochMs", []float64{(float64(start.Unix()) + epochToUnixSeconds) * 1000})
	require.NoError(t, enc.AddFloat64("values", nil, []float64{1}))
	data, err := enc.Bytes()
	require.NoError(t, err)

	f, err := Parse(data)
	require.NoError(t, err)

	tt, err := f.VarGet("Epoch")
	require.NoError(t, err)
	secs, err := UnixSeconds(tt)
	require.NoError(t, err)
	require.Len(t, secs, 3)
	assert.Equal(t, float64(start.Unix()), secs[0])
	assert.InDelta(t, float64(start.Unix())+1.5, secs[1], 1e-6)
	assert.True(t, math.IsNaN(secs[2]))

	ep, err := f.VarGet("EpochMs")
	require.NoError(t, err)
	secs, err = UnixSeconds(ep)
	require.NoError(t, err)
	assert.InDelta(t, float64(start.Unix()), secs[0], 1e-3)

	vals, err := f.VarGet("values")
	require.NoError(t, err)
	_, err = UnixSeconds(vals)
	assert.True(t, errors.Is(err, ErrUnsupported))
}

// testdata/fgm_l2_sample.cdf is laid out by hand rather than by Encoder:
// IBMPC encoding, four records, the field variable split over two VVRs
// behind a VXR with a spare entry, a non-varying scalar and a CDF_EPOCH copy
// of the time axis.
func TestOpen_SampleFile(t *testing.T) {
	f, err := Open(filepath.Join("testdata", "fgm_l2_sample.cdf"))
	require.NoError(t, err)

	assert.Equal(t, int32(3), f.Version)
	assert.Equal(t, int32(9), f.Release)
	assert.Equal(t, EncodingIBMPC, f.Encoding)
	assert.True(t, f.RowMajor)
	assert.Equal(t, []string{"Epoch", "mms1_fgm_b_gse_srvy_l2", "label_scale", "epoch_ms"}, f.ZVariables())

	epoch, err := f.VarGet("Epoch")
	require.NoError(t, err)
	assert.Equal(t, TimeTT2000, epoch.Type)
	raw, err := epoch.Int64s()
	require.NoError(t, err)
	assert.Equal(t, int64(574171269184000000), raw[0])

	secs, err := UnixSeconds(epoch)
	require.NoError(t, err)
	assert.Equal(t, []float64{1520899200, 1520899200.0625, 1520899200.125, 1520899200.1875}, secs)

	b, err := f.VarGet("mms1_fgm_b_gse_srvy_l2")
	require.NoError(t, err)
	assert.Equal(t, Real4, b.Type)
	assert.Equal(t, []int{4}, b.Dims)
	assert.Equal(t, 4, b.NumRecords)
	values, err := b.Float64s()
	require.NoError(t, err)
	assert.Equal(t, []float64{
		0, 0, 0, 10,
		1.5, -2, 0.25, 11,
		3, -4, 0.5, 12,
		4.5, -6, 0.75, 13,
	}, values)

	scale, err := f.VarGet("label_scale")
	require.NoError(t, err)
	assert.Equal(t, 1, scale.NumRecords)
	sv, err := scale.Float64s()
	require.NoError(t, err)
	assert.Equal(t, []float64{0.5}, sv)

	ms, err := f.VarGet("epoch_ms")
	require.NoError(t, err)
	assert.Equal(t, Epoch, ms.Type)
	msSecs, err := UnixSeconds(ms)
	require.NoError(t, err)
	assert.Equal(t, []float64{1520899200, 1520899201, 1520899202, 1520899203}, msSecs)
}
