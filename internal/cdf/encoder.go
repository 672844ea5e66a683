package cdf

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/klauspost/compress/gzip"
)

// Encoder writes zVariables into a single-file CDF v3. Each variable is
// stored as one index record pointing at one (optionally gzip compressed) value record.
type Encoder struct {
	encoding     Encoding
	order        binary.ByteOrder
	compressVars bool
	compressFile bool
	vars         []encVar
}

type encVar struct {
	name       string
	typ        DataType
	dims       []int
	numRecords int
	raw        []byte
}

// NewEncoder creates an encoder using little-endian (IBM PC) values.
func NewEncoder() *Encoder {
	return &Encoder{encoding: EncodingIBMPC, order: binary.LittleEndian}
}

// SetEncoding selects the value byte order by CDF encoding code.
func (e *Encoder) SetEncoding(enc Encoding) error {
	order, err := enc.byteOrder()
	if err != nil {
		return err
	}
	e.encoding = enc
	e.order = order
	return nil
}

// CompressVariables stores variable values as gzip compressed CVVRs.
func (e *Encoder) CompressVariables(on bool) { e.compressVars = on }

// CompressFile gzip compresses the whole file behind a CCR.
func (e *Encoder) CompressFile(on bool) { e.compressFile = on }

// AddTT2000 adds a scalar time variable, one value per record.
func (e *Encoder) AddTT2000(name string, values []int64) {
	raw := make([]byte, 8*len(values))
	for i, v := range values {
		e.order.PutUint64(raw[8*i:], uint64(v))
	}
	e.vars = append(e.vars, encVar{name: name, typ: TimeTT2000, numRecords: len(values), raw: raw})
}

// AddEpoch adds a scalar CDF_EPOCH variable.
func (e *Encoder) AddEpoch(name string, values []float64) {
	raw := make([]byte, 8*len(values))
	for i, v := range values {
		e.order.PutUint64(raw[8*i:], math.Float64bits(v))
	}
	e.vars = append(e.vars, encVar{name: name, typ: Epoch, numRecords: len(values), raw: raw})
}

// AddFloat64 adds a CDF_DOUBLE variable whose records have the given dimensions.
// values holds the records back to back in row-major order.
func (e *Encoder) AddFloat64(name string, dims []int, values []float64) error {
	n, err := recordCount(name, dims, len(values))
	if err != nil {
		return err
	}
	raw := make([]byte, 8*len(values))
	for i, v := range values {
		e.order.PutUint64(raw[8*i:], math.Float64bits(v))
	}
	e.vars = append(e.vars, encVar{name: name, typ: Double, dims: dims, numRecords: n, raw: raw})
	return nil
}

// AddFloat32 adds a CDF_FLOAT variable whose records have the given dimensions.
func (e *Encoder) AddFloat32(name string, dims []int, values []float32) error {
	n, err := recordCount(name, dims, len(values))
	if err != nil {
		return err
	}
	raw := make([]byte, 4*len(values))
	for i, v := range values {
		e.order.PutUint32(raw[4*i:], math.Float32bits(v))
	}
	e.vars = append(e.vars, encVar{name: name, typ: Float, dims: dims, numRecords: n, raw: raw})
	return nil
}

func recordCount(name string, dims []int, n int) (int, error) {
	per := 1
	for _, d := range dims {
		if d <= 0 {
			return 0, fmt.Errorf("variable %s: dimension size %d", name, d)
		}
		per *= d
	}
	if n%per != 0 {
		return 0, fmt.Errorf("variable %s: %d values do not fill records of %d", name, n, per)
	}
	return n / per, nil
}

// WriteFile writes the encoded file to path.
func (e *Encoder) WriteFile(path string) error {
	b, err := e.Bytes()
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}

// WriteTo writes the encoded file to w.
func (e *Encoder) WriteTo(w io.Writer) (int64, error) {
	b, err := e.Bytes()
	if err != nil {
		return 0, err
	}
	n, err := w.Write(b)
	return int64(n), err
}

// Bytes returns the encoded file.
func (e *Encoder) Bytes() ([]byte, error) {
	body, err := e.encode()
	if err != nil {
		return nil, err
	}
	if !e.compressFile {
		return body, nil
	}
	return compressWholeFile(body)
}

// layout of one variable's records
type varLayout struct {
	vdr, cpr, vxr, vvr int64
	values             []byte
}

func (e *Encoder) encode() ([]byte, error) {
	const gdrOffset = 8 + cdrSize
	offset := int64(gdrOffset + gdrFixedSize)

	layouts := make([]varLayout, len(e.vars))
	for i, v := range e.vars {
		l := varLayout{vdr: offset, cpr: -1, values: v.raw}
		offset += int64(vdrFixedSize + 8*len(v.dims))
		if e.compressVars {
			c, err := gzipBytes(v.raw)
			if err != nil {
				return nil, err
			}
			l.values = c
			l.cpr = offset
			offset += 28
		}
		l.vxr = offset
		offset += 28 + 16
		l.vvr = offset
		if e.compressVars {
			offset += 24 + int64(len(l.values))
		} else {
			offset += 12 + int64(len(l.values))
		}
		layouts[i] = l
	}

	buf := make([]byte, offset)
	be := binary.BigEndian
	be.PutUint32(buf[0:], MagicV3)
	be.PutUint32(buf[4:], MagicUncompressed)

	// CDR
	cdr := buf[8:]
	be.PutUint64(cdr[0:], cdrSize)
	be.PutUint32(cdr[8:], uint32(recordCDR))
	be.PutUint64(cdr[12:], gdrOffset)
	be.PutUint32(cdr[20:], 3) // version
	be.PutUint32(cdr[24:], 9) // release
	be.PutUint32(cdr[28:], uint32(e.encoding))
	be.PutUint32(cdr[32:], uint32(cdrRowMajor|1<<1)) // row major, single file
	be.PutUint32(cdr[44:], 0)
	be.PutUint32(cdr[48:], 3)
	putInt32(cdr[52:], -1)
	copy(cdr[56:56+nameSize], "Common Data Format (CDF)")

	// GDR
	gdr := buf[gdrOffset:]
	be.PutUint64(gdr[0:], gdrFixedSize)
	be.PutUint32(gdr[8:], uint32(recordGDR))
	var zvdrHead int64
	if len(layouts) > 0 {
		zvdrHead = layouts[0].vdr
	}
	be.PutUint64(gdr[20:], uint64(zvdrHead))
	be.PutUint64(gdr[36:], uint64(offset)) // eof
	putInt32(gdr[52:], -1)                 // rMaxRec
	be.PutUint32(gdr[60:], uint32(len(e.vars)))
	be.PutUint32(gdr[76:], 20170101)
	putInt32(gdr[80:], -1)

	for i, v := range e.vars {
		l := layouts[i]

		vdrSize := int64(vdrFixedSize + 8*len(v.dims))
		vdr := buf[l.vdr:]
		be.PutUint64(vdr[0:], uint64(vdrSize))
		be.PutUint32(vdr[8:], uint32(recordZVDR))
		if i+1 < len(layouts) {
			be.PutUint64(vdr[12:], uint64(layouts[i+1].vdr))
		}
		be.PutUint32(vdr[20:], uint32(v.typ))
		putInt32(vdr[24:], int32(v.numRecords-1))
		be.PutUint64(vdr[28:], uint64(l.vxr))
		be.PutUint64(vdr[36:], uint64(l.vxr))
		flags := vdrRecordVariance
		if e.compressVars {
			flags |= vdrCompressed
		}
		putInt32(vdr[44:], flags)
		putInt32(vdr[56:], -1)
		putInt32(vdr[60:], -1)
		be.PutUint32(vdr[64:], 1)
		be.PutUint32(vdr[68:], uint32(i))
		putInt64(vdr[72:], l.cpr)
		copy(vdr[84:84+nameSize], v.name)
		be.PutUint32(vdr[340:], uint32(len(v.dims)))
		for d, size := range v.dims {
			be.PutUint32(vdr[vdrFixedSize+4*d:], uint32(size))
			putInt32(vdr[vdrFixedSize+4*len(v.dims)+4*d:], -1)
		}

		if l.cpr >= 0 {
			putCPR(buf[l.cpr:])
		}

		vxr := buf[l.vxr:]
		be.PutUint64(vxr[0:], 28+16)
		be.PutUint32(vxr[8:], uint32(recordVXR))
		be.PutUint32(vxr[20:], 1)
		be.PutUint32(vxr[24:], 1)
		be.PutUint32(vxr[28:], 0)
		putInt32(vxr[32:], int32(v.numRecords-1))
		be.PutUint64(vxr[36:], uint64(l.vvr))

		vvr := buf[l.vvr:]
		if e.compressVars {
			be.PutUint64(vvr[0:], uint64(24+len(l.values)))
			be.PutUint32(vvr[8:], uint32(recordCVVR))
			be.PutUint64(vvr[16:], uint64(len(l.values)))
			copy(vvr[24:], l.values)
		} else {
			be.PutUint64(vvr[0:], uint64(12+len(l.values)))
			be.PutUint32(vvr[8:], uint32(recordVVR))
			copy(vvr[12:], l.values)
		}
	}

	return buf, nil
}

// compressWholeFile wraps an uncompressed file into CCR + CPR form.
func compressWholeFile(file []byte) ([]byte, error) {
	body := file[8:]
	c, err := gzipBytes(body)
	if err != nil {
		return nil, err
	}

	ccrSize := int64(32 + len(c))
	out := make([]byte, 8+ccrSize+28)
	be := binary.BigEndian
	be.PutUint32(out[0:], MagicV3)
	be.PutUint32(out[4:], MagicCompressed)

	ccr := out[8:]
	be.PutUint64(ccr[0:], uint64(ccrSize))
	be.PutUint32(ccr[8:], uint32(recordCCR))
	be.PutUint64(ccr[12:], uint64(8+ccrSize))
	be.PutUint64(ccr[20:], uint64(len(body)))
	copy(ccr[32:], c)

	putCPR(out[8+ccrSize:])
	return out, nil
}

func putCPR(b []byte) {
	be := binary.BigEndian
	be.PutUint64(b[0:], 28)
	be.PutUint32(b[8:], uint32(recordCPR))
	be.PutUint32(b[12:], uint32(compressionGzip))
	be.PutUint32(b[20:], 1)
	be.PutUint32(b[24:], 6)
}

func gzipBytes(b []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw, err := gzip.NewWriterLevel(&buf, 6)
	if err != nil {
		return nil, err
	}
	if _, err := zw.Write(b); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func putInt32(b []byte, v int32) { binary.BigEndian.PutUint32(b, uint32(v)) }
func putInt64(b []byte, v int64) { binary.BigEndian.PutUint64(b, uint64(v)) }
