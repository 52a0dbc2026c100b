package geotiff

import (
	"encoding/binary"
	"math"
)

// TIFF field type codes.
const (
	tByte     = 1
	tAscii    = 2
	tShort    = 3
	tLong     = 4
	tRational = 5
	tDouble   = 12
)

// value is the set of field value encodings a directory entry can carry.
// The TIFF specification fixes this set, so the interface is closed: only
// the variants in this file implement it.
type value interface {
	fieldType() uint16
	count() uint32
	// size is the encoded byte size, fieldType's element size times count.
	size() uint32
	// encode writes the encoded values into b. len(b) must be size().
	encode(enc binary.ByteOrder, b []byte)
}

type shortValue []uint16

func (v shortValue) fieldType() uint16 { return tShort }
func (v shortValue) count() uint32     { return uint32(len(v)) }
func (v shortValue) size() uint32      { return 2 * uint32(len(v)) }

func (v shortValue) encode(enc binary.ByteOrder, b []byte) {
	for i := range v {
		enc.PutUint16(b[2*i:], v[i])
	}
}

type longValue []uint32

func (v longValue) fieldType() uint16 { return tLong }
func (v longValue) count() uint32     { return uint32(len(v)) }
func (v longValue) size() uint32      { return 4 * uint32(len(v)) }

func (v longValue) encode(enc binary.ByteOrder, b []byte) {
	for i := range v {
		enc.PutUint32(b[4*i:], v[i])
	}
}

// shifted returns a copy of v with delta added to every element. Used to
// rebase relative strip offsets once the start of the strip region is known.
func (v longValue) shifted(delta uint32) longValue {
	s := make(longValue, len(v))
	for i := range v {
		s[i] = v[i] + delta
	}
	return s
}

type rational struct {
	num, den uint32
}

type rationalValue []rational

func (v rationalValue) fieldType() uint16 { return tRational }
func (v rationalValue) count() uint32     { return uint32(len(v)) }
func (v rationalValue) size() uint32      { return 8 * uint32(len(v)) }

func (v rationalValue) encode(enc binary.ByteOrder, b []byte) {
	for i := range v {
		enc.PutUint32(b[8*i:], v[i].num)
		enc.PutUint32(b[8*i+4:], v[i].den)
	}
}

type doubleValue []float64

func (v doubleValue) fieldType() uint16 { return tDouble }
func (v doubleValue) count() uint32     { return uint32(len(v)) }
func (v doubleValue) size() uint32      { return 8 * uint32(len(v)) }

func (v doubleValue) encode(enc binary.ByteOrder, b []byte) {
	for i := range v {
		enc.PutUint64(b[8*i:], math.Float64bits(v[i]))
	}
}

// asciiValue is encoded as the raw bytes of the string plus a trailing NUL.
type asciiValue string

func (v asciiValue) fieldType() uint16 { return tAscii }
func (v asciiValue) count() uint32     { return uint32(len(v)) + 1 }
func (v asciiValue) size() uint32      { return uint32(len(v)) + 1 }

func (v asciiValue) encode(enc binary.ByteOrder, b []byte) {
	copy(b, v)
	b[len(v)] = 0
}
