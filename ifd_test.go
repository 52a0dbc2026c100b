package geotiff

import (
	"encoding/binary"
	"errors"
	"io"
	"testing"

	"github.com/orcaman/writerseeker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEntrySetOrdering(t *testing.T) {
	s := newEntrySet()
	for _, tag := range []uint16{tagSampleFormat, tagImageWidth, tagGeoKeyDirectory, tagCompression} {
		s.set(&entry{tag: tag, val: shortValue{1}})
	}
	var tags []uint16
	for _, e := range s.entries() {
		tags = append(tags, e.tag)
	}
	assert.Equal(t, []uint16{tagImageWidth, tagCompression, tagSampleFormat, tagGeoKeyDirectory}, tags)
}

func TestEntrySetReplace(t *testing.T) {
	s := newEntrySet()
	s.set(&entry{tag: tagCompression, val: shortValue{1}})
	s.set(&entry{tag: tagCompression, val: shortValue{5}})
	assert.Len(t, s.entries(), 1)
	e, err := s.get(tagCompression)
	require.NoError(t, err)
	assert.Equal(t, shortValue{5}, e.val)
}

func TestEntrySetGetMissing(t *testing.T) {
	s := newEntrySet()
	_, err := s.get(tagImageWidth)
	assert.ErrorIs(t, err, ErrTagNotFound)
}

func TestEntryReferenced(t *testing.T) {
	cases := []struct {
		val value
		ref bool
	}{
		{shortValue{1}, false},
		{shortValue{1, 2}, false},
		{shortValue{1, 2, 3}, true},
		{longValue{1}, false},
		{longValue{1, 2}, true},
		{rationalValue{{1, 1}}, true},
		{doubleValue{1.5}, true},
		{asciiValue("abc"), false},
		{asciiValue("abcd"), true},
	}
	for _, c := range cases {
		e := &entry{tag: 1, val: c.val}
		assert.Equal(t, c.ref, e.referenced(), "value %#v", c.val)
	}
}

func testImage(width, height int, types ...DataType) *Image {
	img := &Image{Width: width, Height: height}
	for _, dt := range types {
		img.Bands = append(img.Bands, Band{DataType: dt})
	}
	img.LoadStrip = func(b int, data []byte) error {
		for i := range data {
			data[i] = byte(b)
		}
		return nil
	}
	return img
}

func TestIFDSingleBandUint16(t *testing.T) {
	ifd, err := NewIFD(testImage(4, 4, UInt16))
	require.NoError(t, err)

	assert.Equal(t, UInt16, ifd.SampleType())
	assert.Equal(t, SampleFormatUInt, ifd.SampleFormat())

	bits, err := ifd.entries.get(tagBitsPerSample)
	require.NoError(t, err)
	assert.Equal(t, shortValue{16}, bits.val)

	counts, err := ifd.entries.get(tagStripByteCounts)
	require.NoError(t, err)
	assert.Equal(t, longValue{32}, counts.val)

	offsets, err := ifd.entries.get(tagStripOffsets)
	require.NoError(t, err)
	assert.Equal(t, longValue{0}, offsets.val)

	for _, tag := range []uint16{tagGeoKeyDirectory, tagGeoDoubleParams, tagGeoAsciiParams,
		tagModelPixelScale, tagModelTiepoint, tagModelTransformation} {
		_, err := ifd.entries.get(tag)
		assert.ErrorIs(t, err, ErrTagNotFound, "tag %d", tag)
	}

	// 14 fixed entries, x/y resolution rationals as the only referenced
	// values, one 32-byte strip.
	assert.Equal(t, uint32(2+14*12+4), ifd.DirectorySize())
	assert.Equal(t, uint32(16), ifd.ReferencedValuesSize())
	assert.Equal(t, uint32(32), ifd.StripsSize())
	assert.Equal(t, ifd.DirectorySize()+ifd.ReferencedValuesSize()+ifd.StripsSize(), ifd.Size())
}

func TestIFDCommitRebasesStrips(t *testing.T) {
	ifd, err := NewIFD(testImage(4, 4, UInt16))
	require.NoError(t, err)

	stripsStart, err := ifd.StripsStart(8)
	require.NoError(t, err)
	assert.Equal(t, int64(8)+int64(ifd.DirectorySize())+int64(ifd.ReferencedValuesSize()), stripsStart)

	ws := &writerseeker.WriterSeeker{}
	require.NoError(t, ifd.Write(ws, 8, 0))
	buf, err := io.ReadAll(ws.Reader())
	require.NoError(t, err)
	require.Len(t, buf, 8+int(ifd.DirectorySize()+ifd.ReferencedValuesSize()))

	enc := binary.LittleEndian
	numEntries := int(enc.Uint16(buf[8:10]))
	assert.Equal(t, 14, numEntries)

	// Relative strip offsets stay untouched on the IFD itself.
	offsets, err := ifd.entries.get(tagStripOffsets)
	require.NoError(t, err)
	assert.Equal(t, longValue{0}, offsets.val)

	// The serialized entry holds the rebased offset inline.
	found := false
	for i := 0; i < numEntries; i++ {
		rec := buf[10+12*i:]
		if enc.Uint16(rec[0:2]) == tagStripOffsets {
			assert.Equal(t, uint16(tLong), enc.Uint16(rec[2:4]))
			assert.Equal(t, uint32(1), enc.Uint32(rec[4:8]))
			assert.Equal(t, uint32(stripsStart), enc.Uint32(rec[8:12]))
			found = true
		}
	}
	assert.True(t, found, "no strip offsets record")
}

func TestIFDWriteIdempotent(t *testing.T) {
	img := testImage(3, 5, UInt8, Float32)
	img.Name = "scene"
	img.Geo = NewGeoMetadata()
	img.Geo.AddShortKey(KeyGTModelType, ModelTypeProjected)
	img.Geo.SetModelPixelScale(10, 10, 0)
	img.Geo.AddModelTiePoint(TiePoint{0, 0, 0, 500000, 4000000, 0})
	ifd, err := NewIFD(img)
	require.NoError(t, err)

	write := func() []byte {
		ws := &writerseeker.WriterSeeker{}
		require.NoError(t, ifd.Write(ws, 8, 0))
		buf, err := io.ReadAll(ws.Reader())
		require.NoError(t, err)
		return buf
	}
	first := write()
	second := write()
	assert.Equal(t, first, second)
}

func TestIFDNegativeOffset(t *testing.T) {
	ifd, err := NewIFD(testImage(2, 2, UInt8))
	require.NoError(t, err)
	err = ifd.Write(&writerseeker.WriterSeeker{}, -1, 0)
	var inv ErrInvalidArgument
	assert.True(t, errors.As(err, &inv), "got %v", err)
}

func TestNewIFDRejectsBadDescriptors(t *testing.T) {
	var inv ErrInvalidArgument
	_, err := NewIFD(&Image{Width: 0, Height: 4, Bands: []Band{{DataType: UInt8}}})
	assert.True(t, errors.As(err, &inv), "got %v", err)

	_, err = NewIFD(&Image{Width: 4, Height: 4})
	assert.True(t, errors.As(err, &inv), "got %v", err)

	_, err = NewIFD(&Image{Width: 4, Height: 4, Bands: []Band{{DataType: DataType(99)}}})
	assert.ErrorIs(t, err, ErrUnsupportedBandType)
}

func TestIFDMultiBandStripTable(t *testing.T) {
	ifd, err := NewIFD(testImage(2, 2, UInt8, UInt8, UInt8))
	require.NoError(t, err)

	counts, err := ifd.entries.get(tagStripByteCounts)
	require.NoError(t, err)
	assert.Equal(t, longValue{4, 4, 4}, counts.val)

	offsets, err := ifd.entries.get(tagStripOffsets)
	require.NoError(t, err)
	assert.Equal(t, longValue{0, 4, 8}, offsets.val)
	assert.Equal(t, uint32(12), ifd.StripsSize())
}
