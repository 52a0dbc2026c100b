package geotiff

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolveSampleType(t *testing.T) {
	cases := []struct {
		name  string
		types []DataType
		want  DataType
	}{
		{"single unsigned", []DataType{UInt16}, UInt16},
		{"unsigned only widest", []DataType{UInt8, UInt32, UInt16}, UInt32},
		{"signed only widest", []DataType{Int8, Int16}, Int16},
		{"float64 wins", []DataType{Float64, Int32, UInt8}, Float64},
		{"float32 with narrow ints", []DataType{UInt8, Float32}, Float32},
		{"float32 with int16", []DataType{Int16, Float32}, Float32},
		{"float32 with int32 widens", []DataType{Int32, Float32}, Float64},
		{"float32 with uint32 widens", []DataType{UInt32, Float32}, Float64},
		{"uint8 with int8 widens to int16", []DataType{UInt8, Int8}, Int16},
		{"uint16 with int16 widens to int32", []DataType{UInt16, Int16}, Int32},
		{"uint32 with narrower signed widens to float64", []DataType{UInt32, Int16}, Float64},
		{"wider signed beats unsigned", []DataType{UInt8, Int32}, Int32},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := resolveSampleType(bandsOf(c.types))
			require.NoError(t, err)
			assert.Equal(t, c.want, got)

			// Band order must not matter.
			rev := make([]DataType, len(c.types))
			for i, dt := range c.types {
				rev[len(c.types)-1-i] = dt
			}
			gotRev, err := resolveSampleType(bandsOf(rev))
			require.NoError(t, err)
			assert.Equal(t, got, gotRev)
		})
	}
}

func TestResolveSampleTypeUnknown(t *testing.T) {
	_, err := resolveSampleType(bandsOf([]DataType{DataType(0)}))
	assert.ErrorIs(t, err, ErrUnsupportedBandType)
}

func TestDataTypeSize(t *testing.T) {
	sizes := map[DataType]int{
		Int8: 1, UInt8: 1,
		Int16: 2, UInt16: 2,
		Int32: 4, UInt32: 4, Float32: 4,
		Float64: 8,
	}
	for dt, want := range sizes {
		assert.Equal(t, want, dt.Size(), dt.String())
	}
	assert.Equal(t, 0, DataType(0).Size())
}

func TestParseDataType(t *testing.T) {
	for dt := Int8; dt <= Float64; dt++ {
		got, err := ParseDataType(dt.String())
		require.NoError(t, err)
		assert.Equal(t, dt, got)
	}
	_, err := ParseDataType("complex64")
	assert.ErrorIs(t, err, ErrUnsupportedBandType)
}

func bandsOf(types []DataType) []Band {
	bands := make([]Band, len(types))
	for i, dt := range types {
		bands[i] = Band{DataType: dt}
	}
	return bands
}
