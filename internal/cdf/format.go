/*
Package cdf reads and writes the Common Data Format (version 3) container used
for mission science files.

A CDF file is a sequence of internal records addressed by absolute file offsets:

	[Magic]  8 bytes  0xCDF30001 followed by 0x0000FFFF (or 0xCCCC0001 when the whole file is compressed)
	[CDR]    CDF descriptor: data encoding, majority
	[GDR]    global descriptor: head of the zVariable descriptor chain
	[zVDR]*  one per zVariable: name, type, dimensions, head of its index tree
	[VXR]*   index records mapping record ranges to data records
	[VVR]*   raw variable values (CVVR when compressed per variable)

Descriptor fields are always big-endian. Variable values use the byte order
named by the CDR encoding. Only the parts needed to enumerate zVariables and
read their values are implemented; attributes and rVariables are skipped.
*/
package cdf

import (
	"encoding/binary"
	"errors"
	"fmt"
)

const (
	// Magic numbers at the start of every version 3 file
	MagicV3           uint32 = 0xCDF30001
	MagicUncompressed uint32 = 0x0000FFFF
	MagicCompressed   uint32 = 0xCCCC0001
)

// Internal record types
const (
	recordCDR  int32 = 1
	recordGDR  int32 = 2
	recordVXR  int32 = 6
	recordVVR  int32 = 7
	recordZVDR int32 = 8
	recordCCR  int32 = 10
	recordCPR  int32 = 11
	recordCVVR int32 = 13
)

// Compression types found in CPR records
const (
	compressionNone int32 = 0
	compressionGzip int32 = 5
)

// zVDR flag bits
const (
	vdrRecordVariance int32 = 1 << 0
	vdrPadValue       int32 = 1 << 1
	vdrCompressed     int32 = 1 << 2
)

// cdrRowMajor is the CDR flag bit for row majority.
const cdrRowMajor int32 = 1 << 0

// DataType is a CDF value type code.
type DataType int32

const (
	Int1       DataType = 1
	Int2       DataType = 2
	Int4       DataType = 4
	Int8       DataType = 8
	UInt1      DataType = 11
	UInt2      DataType = 12
	UInt4      DataType = 14
	Real4      DataType = 21
	Real8      DataType = 22
	Epoch      DataType = 31
	Epoch16    DataType = 32
	TimeTT2000 DataType = 33
	Byte       DataType = 41
	Float      DataType = 44
	Double     DataType = 45
	Char       DataType = 51
	UChar      DataType = 52
)

// Size returns the number of bytes of one element, or 0 for unknown types.
func (t DataType) Size() int {
	switch t {
	case Int1, UInt1, Byte, Char, UChar:
		return 1
	case Int2, UInt2:
		return 2
	case Int4, UInt4, Real4, Float:
		return 4
	case Int8, Real8, Double, Epoch, TimeTT2000:
		return 8
	case Epoch16:
		return 16
	}
	return 0
}

// IsTime reports whether values of this type are epochs.
func (t DataType) IsTime() bool {
	return t == Epoch || t == Epoch16 || t == TimeTT2000
}

func (t DataType) String() string {
	names := map[DataType]string{
		Int1: "CDF_INT1", Int2: "CDF_INT2", Int4: "CDF_INT4", Int8: "CDF_INT8",
		UInt1: "CDF_UINT1", UInt2: "CDF_UINT2", UInt4: "CDF_UINT4",
		Real4: "CDF_REAL4", Real8: "CDF_REAL8", Epoch: "CDF_EPOCH", Epoch16: "CDF_EPOCH16",
		TimeTT2000: "CDF_TIME_TT2000", Byte: "CDF_BYTE", Float: "CDF_FLOAT", Double: "CDF_DOUBLE",
		Char: "CDF_CHAR", UChar: "CDF_UCHAR",
	}
	if n, ok := names[t]; ok {
		return n
	}
	return fmt.Sprintf("CDF_TYPE(%d)", int32(t))
}

// Encoding is the CDR data encoding code.
type Encoding int32

const (
	EncodingNetwork   Encoding = 1
	EncodingSun       Encoding = 2
	EncodingVAX       Encoding = 3
	EncodingDEC       Encoding = 4
	EncodingSGi       Encoding = 5
	EncodingIBMPC     Encoding = 6
	EncodingIBMRS     Encoding = 7
	EncodingPPC       Encoding = 9
	EncodingHP        Encoding = 11
	EncodingNeXT      Encoding = 12
	EncodingAlphaOSF1 Encoding = 13
	EncodingARMLittle Encoding = 17
	EncodingARMBig    Encoding = 18
)

// byteOrder maps an encoding to the byte order of variable values.
// VAX and Alpha/VMS float layouts are not IEEE and are rejected.
func (e Encoding) byteOrder() (binary.ByteOrder, error) {
	switch e {
	case EncodingNetwork, EncodingSun, EncodingSGi, EncodingIBMRS, EncodingPPC,
		EncodingHP, EncodingNeXT, EncodingARMBig:
		return binary.BigEndian, nil
	case EncodingDEC, EncodingIBMPC, EncodingAlphaOSF1, EncodingARMLittle:
		return binary.LittleEndian, nil
	}
	return nil, fmt.Errorf("%w: data encoding %d", ErrUnsupported, int32(e))
}

var (
	// ErrNotCDF is returned when the magic numbers do not match a version 3 file.
	ErrNotCDF = errors.New("not a CDF v3 file")
	// ErrUnsupported is returned for valid files using features this reader lacks.
	ErrUnsupported = errors.New("unsupported CDF feature")
	// ErrCorrupt is returned when internal records are inconsistent.
	ErrCorrupt = errors.New("corrupt CDF file")
	// ErrVariableNotFound is returned when a zVariable name is unknown.
	ErrVariableNotFound = errors.New("zVariable not found")
)

// Fixed record sizes
const (
	cdrSize      = 312
	gdrFixedSize = 84
	vdrFixedSize = 344
	nameSize     = 256
)

// maxVariableBytes caps the decoded size of one variable.
const maxVariableBytes = 1 << 30
