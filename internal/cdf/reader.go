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

// File is a parsed CDF held in memory.
type File struct {
	Version  int32
	Release  int32
	Encoding Encoding
	RowMajor bool

	order     binary.ByteOrder
	data      []byte
	vars      []*varDesc
	varByName map[string]*varDesc
}

// varDesc is the decoded zVDR of one variable.
type varDesc struct {
	name      string
	num       int32
	dataType  DataType
	numElems  int32
	maxRec    int32
	vxrHead   int64
	flags     int32
	cprOffset int64
	dims      []int
	dimVarys  []bool
}

// Variable holds the values of one zVariable, records in order and
// each record in row-major order.
type Variable struct {
	Name       string
	Type       DataType
	NumElems   int
	Dims       []int // effective dimension sizes of one record
	NumRecords int

	order binary.ByteOrder
	raw   []byte
}

// Open reads and parses the file at path.
func Open(path string) (*File, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Read parses a CDF from r.
func Read(r io.Reader) (*File, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Parse decodes the descriptor records of an in-memory CDF.
func Parse(data []byte) (*File, error) {
	if len(data) < 8 || binary.BigEndian.Uint32(data[0:4]) != MagicV3 {
		return nil, ErrNotCDF
	}

	switch binary.BigEndian.Uint32(data[4:8]) {
	case MagicUncompressed:
	case MagicCompressed:
		inflated, err := inflateFile(data)
		if err != nil {
			return nil, err
		}
		data = inflated
	default:
		return nil, ErrNotCDF
	}

	f := &File{data: data, varByName: make(map[string]*varDesc)}
	gdrOffset, err := f.readCDR(8)
	if err != nil {
		return nil, err
	}
	zvdrHead, nzVars, err := f.readGDR(gdrOffset)
	if err != nil {
		return nil, err
	}

	offset := zvdrHead
	for i := int32(0); i < nzVars && offset != 0; i++ {
		vd, next, err := f.readZVDR(offset)
		if err != nil {
			return nil, err
		}
		f.vars = append(f.vars, vd)
		f.varByName[vd.name] = vd
		offset = next
	}

	return f, nil
}

// record returns the bytes of the internal record at offset after checking its type.
func (f *File) record(offset int64, want ...int32) ([]byte, int32, error) {
	if offset < 0 || offset+12 > int64(len(f.data)) {
		return nil, 0, fmt.Errorf("%w: record offset %d out of range", ErrCorrupt, offset)
	}
	size := int64(binary.BigEndian.Uint64(f.data[offset:]))
	if size < 12 || offset+size > int64(len(f.data)) {
		return nil, 0, fmt.Errorf("%w: record at %d has size %d", ErrCorrupt, offset, size)
	}
	rec := f.data[offset : offset+size]
	typ := int32(binary.BigEndian.Uint32(rec[8:]))
	for _, w := range want {
		if typ == w {
			return rec, typ, nil
		}
	}
	return nil, typ, fmt.Errorf("%w: record at %d has type %d, want %v", ErrCorrupt, offset, typ, want)
}

func (f *File) readCDR(offset int64) (int64, error) {
	rec, _, err := f.record(offset, recordCDR)
	if err != nil {
		return 0, err
	}
	if len(rec) < 40 {
		return 0, fmt.Errorf("%w: short CDR", ErrCorrupt)
	}
	gdr := int64(binary.BigEndian.Uint64(rec[12:]))
	f.Version = int32(binary.BigEndian.Uint32(rec[20:]))
	f.Release = int32(binary.BigEndian.Uint32(rec[24:]))
	f.Encoding = Encoding(binary.BigEndian.Uint32(rec[28:]))
	flags := int32(binary.BigEndian.Uint32(rec[32:]))
	f.RowMajor = flags&cdrRowMajor != 0

	order, err := f.Encoding.byteOrder()
	if err != nil {
		return 0, err
	}
	f.order = order
	return gdr, nil
}

func (f *File) readGDR(offset int64) (zvdrHead int64, nzVars int32, err error) {
	rec, _, err := f.record(offset, recordGDR)
	if err != nil {
		return 0, 0, err
	}
	if len(rec) < gdrFixedSize {
		return 0, 0, fmt.Errorf("%w: short GDR", ErrCorrupt)
	}
	zvdrHead = int64(binary.BigEndian.Uint64(rec[20:]))
	nzVars = int32(binary.BigEndian.Uint32(rec[60:]))
	return zvdrHead, nzVars, nil
}

func (f *File) readZVDR(offset int64) (*varDesc, int64, error) {
	rec, _, err := f.record(offset, recordZVDR)
	if err != nil {
		return nil, 0, err
	}
	if len(rec) < vdrFixedSize {
		return nil, 0, fmt.Errorf("%w: short zVDR at %d", ErrCorrupt, offset)
	}

	be := binary.BigEndian
	vd := &varDesc{
		dataType:  DataType(be.Uint32(rec[20:])),
		maxRec:    int32(be.Uint32(rec[24:])),
		vxrHead:   int64(be.Uint64(rec[28:])),
		flags:     int32(be.Uint32(rec[44:])),
		numElems:  int32(be.Uint32(rec[64:])),
		num:       int32(be.Uint32(rec[68:])),
		cprOffset: int64(be.Uint64(rec[72:])),
		name:      string(bytes.TrimRight(rec[84:84+nameSize], "\x00")),
	}
	next := int64(be.Uint64(rec[12:]))

	nDims := int(int32(be.Uint32(rec[340:])))
	if nDims < 0 || vdrFixedSize+8*nDims > len(rec) {
		return nil, 0, fmt.Errorf("%w: zVDR %q has %d dimensions", ErrCorrupt, vd.name, nDims)
	}
	vd.dims = make([]int, nDims)
	vd.dimVarys = make([]bool, nDims)
	for i := 0; i < nDims; i++ {
		vd.dims[i] = int(int32(be.Uint32(rec[vdrFixedSize+4*i:])))
		if vd.dims[i] < 1 {
			return nil, 0, fmt.Errorf("%w: zVDR %q dimension %d has size %d", ErrCorrupt, vd.name, i, vd.dims[i])
		}
		vd.dimVarys[i] = int32(be.Uint32(rec[vdrFixedSize+4*nDims+4*i:])) != 0
	}

	if vd.dataType.Size() == 0 {
		return nil, 0, fmt.Errorf("%w: zVariable %q has data type %d", ErrUnsupported, vd.name, int32(vd.dataType))
	}
	if vd.numElems < 1 {
		vd.numElems = 1
	}
	return vd, next, nil
}

// ZVariables returns the zVariable names in file order.
func (f *File) ZVariables() []string {
	names := make([]string, len(f.vars))
	for i, v := range f.vars {
		names[i] = v.name
	}
	return names
}

// VarGet reads every record of the named zVariable.
func (f *File) VarGet(name string) (*Variable, error) {
	vd, ok := f.varByName[name]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrVariableNotFound, name)
	}

	effDims := vd.effectiveDims()
	recBytes, err := boundedProduct(append([]int{vd.dataType.Size(), int(vd.numElems)}, effDims...))
	if err != nil {
		return nil, fmt.Errorf("%w: record size of %s: %v", ErrCorrupt, name, err)
	}

	numRecords := int(vd.maxRec) + 1
	if numRecords < 0 {
		numRecords = 0
	}
	if vd.flags&vdrRecordVariance == 0 && numRecords > 1 {
		numRecords = 1
	}
	if numRecords > maxVariableBytes/recBytes {
		return nil, fmt.Errorf("%w: %d records of %s exceed %d bytes", ErrCorrupt, numRecords, name, maxVariableBytes)
	}

	raw := make([]byte, numRecords*recBytes)
	if numRecords > 0 && recBytes > 0 {
		if err := f.readVXR(vd, vd.vxrHead, raw, recBytes, numRecords); err != nil {
			return nil, fmt.Errorf("reading %s: %w", name, err)
		}
	}

	if !f.RowMajor && len(effDims) > 1 {
		raw = columnToRowMajor(raw, effDims, vd.dataType.Size()*int(vd.numElems), numRecords)
	}

	return &Variable{
		Name:       vd.name,
		Type:       vd.dataType,
		NumElems:   int(vd.numElems),
		Dims:       effDims,
		NumRecords: numRecords,
		order:      f.order,
		raw:        raw,
	}, nil
}

// boundedProduct multiplies positive factors, failing once the result
// exceeds maxVariableBytes.
func boundedProduct(factors []int) (int, error) {
	n := 1
	for _, f := range factors {
		if f < 1 {
			return 0, fmt.Errorf("factor %d", f)
		}
		if n > maxVariableBytes/f {
			return 0, fmt.Errorf("exceeds %d bytes", maxVariableBytes)
		}
		n *= f
	}
	return n, nil
}

func (vd *varDesc) effectiveDims() []int {
	var out []int
	for i, d := range vd.dims {
		if vd.dimVarys[i] {
			out = append(out, d)
		}
	}
	return out
}

// readVXR walks an index record chain and copies every referenced record range into raw.
// Missing records are left zeroed.
func (f *File) readVXR(vd *varDesc, offset int64, raw []byte, recBytes, numRecords int) error {
	for offset != 0 {
		rec, _, err := f.record(offset, recordVXR)
		if err != nil {
			return err
		}
		be := binary.BigEndian
		if len(rec) < 28 {
			return fmt.Errorf("%w: short VXR at %d", ErrCorrupt, offset)
		}
		next := int64(be.Uint64(rec[12:]))
		nEntries := int(int32(be.Uint32(rec[20:])))
		nUsed := int(int32(be.Uint32(rec[24:])))
		if nEntries < 0 || nUsed < 0 || nUsed > nEntries || 28+16*nEntries > len(rec) {
			return fmt.Errorf("%w: VXR at %d has %d/%d entries", ErrCorrupt, offset, nUsed, nEntries)
		}

		for i := 0; i < nUsed; i++ {
			first := int(int32(be.Uint32(rec[28+4*i:])))
			last := int(int32(be.Uint32(rec[28+4*nEntries+4*i:])))
			target := int64(be.Uint64(rec[28+8*nEntries+8*i:]))
			if first < 0 || last < first {
				return fmt.Errorf("%w: VXR entry %d covers %d..%d", ErrCorrupt, i, first, last)
			}

			_, typ, err := f.record(target, recordVXR, recordVVR, recordCVVR)
			if err != nil {
				return err
			}
			switch typ {
			case recordVXR:
				if err := f.readVXR(vd, target, raw, recBytes, numRecords); err != nil {
					return err
				}
			case recordVVR, recordCVVR:
				values, err := f.recordValues(vd, target, typ)
				if err != nil {
					return err
				}
				copyRecords(raw, values, first, last, recBytes, numRecords)
			}
		}
		offset = next
	}
	return nil
}

// recordValues returns the value bytes of a VVR, inflating a CVVR.
func (f *File) recordValues(vd *varDesc, offset int64, typ int32) ([]byte, error) {
	rec, _, err := f.record(offset, typ)
	if err != nil {
		return nil, err
	}
	if typ == recordVVR {
		return rec[12:], nil
	}

	if len(rec) < 24 {
		return nil, fmt.Errorf("%w: short CVVR at %d", ErrCorrupt, offset)
	}
	cSize := int64(binary.BigEndian.Uint64(rec[16:]))
	if cSize < 0 || 24+cSize > int64(len(rec)) {
		return nil, fmt.Errorf("%w: CVVR at %d claims %d bytes", ErrCorrupt, offset, cSize)
	}
	if vd.flags&vdrCompressed == 0 {
		return nil, fmt.Errorf("%w: CVVR for uncompressed variable %s", ErrCorrupt, vd.name)
	}
	ctype, err := f.compressionType(vd.cprOffset)
	if err != nil {
		return nil, err
	}
	if ctype != compressionGzip {
		return nil, fmt.Errorf("%w: compression type %d for %s", ErrUnsupported, ctype, vd.name)
	}
	return gunzip(rec[24 : 24+cSize])
}

func (f *File) compressionType(cprOffset int64) (int32, error) {
	rec, _, err := f.record(cprOffset, recordCPR)
	if err != nil {
		return 0, err
	}
	if len(rec) < 16 {
		return 0, fmt.Errorf("%w: short CPR", ErrCorrupt)
	}
	return int32(binary.BigEndian.Uint32(rec[12:])), nil
}

func copyRecords(raw, values []byte, first, last, recBytes, numRecords int) {
	if first >= numRecords {
		return
	}
	if last >= numRecords {
		last = numRecords - 1
	}
	want := (last - first + 1) * recBytes
	if len(values) < want {
		want = len(values) - len(values)%recBytes
	}
	copy(raw[first*recBytes:], values[:want])
}

// inflateFile expands a whole-file compressed CDF into its uncompressed form.
func inflateFile(data []byte) ([]byte, error) {
	f := &File{data: data}
	ccr, _, err := f.record(8, recordCCR)
	if err != nil {
		return nil, err
	}
	if len(ccr) < 32 {
		return nil, fmt.Errorf("%w: short CCR", ErrCorrupt)
	}
	cprOffset := int64(binary.BigEndian.Uint64(ccr[12:]))
	uSize := int64(binary.BigEndian.Uint64(ccr[20:]))

	ctype, err := f.compressionType(cprOffset)
	if err != nil {
		return nil, err
	}
	if ctype != compressionGzip {
		return nil, fmt.Errorf("%w: file compression type %d", ErrUnsupported, ctype)
	}

	body, err := gunzip(ccr[32:])
	if err != nil {
		return nil, err
	}
	if int64(len(body)) != uSize {
		return nil, fmt.Errorf("%w: inflated %d bytes, CCR says %d", ErrCorrupt, len(body), uSize)
	}

	out := make([]byte, 8, 8+len(body))
	binary.BigEndian.PutUint32(out[0:], MagicV3)
	binary.BigEndian.PutUint32(out[4:], MagicUncompressed)
	return append(out, body...), nil
}

func gunzip(b []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(b))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	defer zr.Close()
	out, err := io.ReadAll(zr)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return out, nil
}

// columnToRowMajor reorders each record of a multi-dimensional variable.
func columnToRowMajor(raw []byte, dims []int, elemBytes, numRecords int) []byte {
	perRecord := 1
	for _, d := range dims {
		perRecord *= d
	}
	out := make([]byte, len(raw))
	idx := make([]int, len(dims))
	for r := 0; r < numRecords; r++ {
		base := r * perRecord * elemBytes
		for i := range idx {
			idx[i] = 0
		}
		for n := 0; n < perRecord; n++ {
			// n walks row-major order; compute the column-major source position
			src, stride := 0, 1
			for d := 0; d < len(dims); d++ {
				src += idx[d] * stride
				stride *= dims[d]
			}
			copy(out[base+n*elemBytes:base+(n+1)*elemBytes], raw[base+src*elemBytes:base+(src+1)*elemBytes])
			for d := len(dims) - 1; d >= 0; d-- {
				idx[d]++
				if idx[d] < dims[d] {
					break
				}
				idx[d] = 0
			}
		}
	}
	return out
}

// ValuesPerRecord returns the number of values in one record.
func (v *Variable) ValuesPerRecord() int {
	n := 1
	for _, d := range v.Dims {
		n *= d
	}
	return n
}

// Float64s decodes every value as float64, records in order.
// EPOCH16 elements yield two values each. Character types are rejected.
func (v *Variable) Float64s() ([]float64, error) {
	size := v.Type.Size()
	if v.Type == Char || v.Type == UChar {
		return nil, fmt.Errorf("%w: %s holds characters", ErrUnsupported, v.Name)
	}

	n := len(v.raw) / size
	if v.Type == Epoch16 {
		out := make([]float64, 2*n)
		for i := 0; i < n; i++ {
			out[2*i] = math.Float64frombits(v.order.Uint64(v.raw[i*16:]))
			out[2*i+1] = math.Float64frombits(v.order.Uint64(v.raw[i*16+8:]))
		}
		return out, nil
	}

	out := make([]float64, n)
	for i := 0; i < n; i++ {
		b := v.raw[i*size:]
		switch v.Type {
		case Int1:
			out[i] = float64(int8(b[0]))
		case UInt1, Byte:
			out[i] = float64(b[0])
		case Int2:
			out[i] = float64(int16(v.order.Uint16(b)))
		case UInt2:
			out[i] = float64(v.order.Uint16(b))
		case Int4:
			out[i] = float64(int32(v.order.Uint32(b)))
		case UInt4:
			out[i] = float64(v.order.Uint32(b))
		case Int8, TimeTT2000:
			out[i] = float64(int64(v.order.Uint64(b)))
		case Real4, Float:
			out[i] = float64(math.Float32frombits(v.order.Uint32(b)))
		case Real8, Double, Epoch:
			out[i] = math.Float64frombits(v.order.Uint64(b))
		}
	}
	return out, nil
}

// Int64s decodes integer and TT2000 values without loss of precision.
func (v *Variable) Int64s() ([]int64, error) {
	size := v.Type.Size()
	n := len(v.raw) / size
	out := make([]int64, n)
	for i := 0; i < n; i++ {
		b := v.raw[i*size:]
		switch v.Type {
		case Int1:
			out[i] = int64(int8(b[0]))
		case UInt1, Byte:
			out[i] = int64(b[0])
		case Int2:
			out[i] = int64(int16(v.order.Uint16(b)))
		case UInt2:
			out[i] = int64(v.order.Uint16(b))
		case Int4:
			out[i] = int64(int32(v.order.Uint32(b)))
		case UInt4:
			out[i] = int64(v.order.Uint32(b))
		case Int8, TimeTT2000:
			out[i] = int64(v.order.Uint64(b))
		default:
			return nil, fmt.Errorf("%w: %s is %s, not an integer type", ErrUnsupported, v.Name, v.Type)
		}
	}
	return out, nil
}

// Rows splits the float values into one slice per record.
func (v *Variable) Rows() ([][]float64, error) {
	values, err := v.Float64s()
	if err != nil {
		return nil, err
	}
	per := len(values)
	if v.NumRecords > 0 {
		per = len(values) / v.NumRecords
	}
	rows := make([][]float64, v.NumRecords)
	for i := range rows {
		rows[i] = values[i*per : (i+1)*per : (i+1)*per]
	}
	return rows, nil
}
