package geotiff

import (
	"errors"
	"fmt"
)

// DataType identifies the in-memory sample type of a band.
type DataType int

const (
	Int8 DataType = iota + 1
	Int16
	Int32
	UInt8
	UInt16
	UInt32
	Float32
	Float64
)

// ErrUnsupportedBandType is returned when none of an image's bands carry a
// known numeric type.
var ErrUnsupportedBandType = errors.New("unsupported band data type")

func (dt DataType) String() string {
	switch dt {
	case Int8:
		return "int8"
	case Int16:
		return "int16"
	case Int32:
		return "int32"
	case UInt8:
		return "uint8"
	case UInt16:
		return "uint16"
	case UInt32:
		return "uint32"
	case Float32:
		return "float32"
	case Float64:
		return "float64"
	}
	return fmt.Sprintf("DataType(%d)", int(dt))
}

// Size returns the element size in bytes, or 0 for an unknown type.
func (dt DataType) Size() int {
	switch dt {
	case Int8, UInt8:
		return 1
	case Int16, UInt16:
		return 2
	case Int32, UInt32, Float32:
		return 4
	case Float64:
		return 8
	}
	return 0
}

func (dt DataType) isSignedInt() bool {
	return dt == Int8 || dt == Int16 || dt == Int32
}

func (dt DataType) isUnsignedInt() bool {
	return dt == UInt8 || dt == UInt16 || dt == UInt32
}

func (dt DataType) isFloat() bool {
	return dt == Float32 || dt == Float64
}

// ParseDataType maps a type name as printed by DataType.String back to its
// DataType. Used by the CLI.
func ParseDataType(s string) (DataType, error) {
	for dt := Int8; dt <= Float64; dt++ {
		if dt.String() == s {
			return dt, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnsupportedBandType, s)
}

// resolveSampleType picks the single sample type used for every band of the
// written image. TIFF carries one BitsPerSample/SampleFormat set per
// directory, so mixed-type bands are widened to a common type:
//
//   - any 64-bit float band forces float64;
//   - any float band forces a float type, widened to float64 when an
//     integer band is wider than 16 bits (a float32 cannot hold the full
//     int32/uint32 range);
//   - unsigned-only images keep the widest unsigned type; when signed and
//     unsigned bands mix and the unsigned type is at least as wide, the
//     result is the signed type one size wider than it, or float64 when no
//     such signed type exists;
//   - otherwise the widest signed type wins.
//
// The result is independent of band order.
func resolveSampleType(bands []Band) (DataType, error) {
	var maxSigned, maxUnsigned, maxFloat DataType
	for _, b := range bands {
		dt := b.DataType
		switch {
		case dt.isSignedInt():
			if dt > maxSigned {
				maxSigned = dt
			}
		case dt.isUnsignedInt():
			if dt > maxUnsigned {
				maxUnsigned = dt
			}
		case dt.isFloat():
			if dt > maxFloat {
				maxFloat = dt
			}
		}
	}

	if maxFloat == Float64 {
		return Float64, nil
	}
	if maxFloat != 0 {
		if maxSigned > Int16 || maxUnsigned > UInt16 {
			return Float64, nil
		}
		return Float32, nil
	}
	if maxUnsigned != 0 {
		if maxSigned == 0 {
			return maxUnsigned, nil
		}
		if maxUnsigned.Size() >= maxSigned.Size() {
			switch maxUnsigned {
			case UInt8:
				return Int16, nil
			case UInt16:
				return Int32, nil
			default:
				return Float64, nil
			}
		}
	}
	if maxSigned != 0 {
		return maxSigned, nil
	}
	return 0, fmt.Errorf("%w: no integer or float band", ErrUnsupportedBandType)
}
