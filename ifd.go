package geotiff

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"sort"
)

// TIFF tag ids used by the writer.
const (
	tagImageWidth                = 256
	tagImageLength               = 257
	tagBitsPerSample             = 258
	tagCompression               = 259
	tagPhotometricInterpretation = 262
	tagImageDescription          = 270
	tagStripOffsets              = 273
	tagSamplesPerPixel           = 277
	tagRowsPerStrip              = 278
	tagStripByteCounts           = 279
	tagXResolution               = 282
	tagYResolution               = 283
	tagPlanarConfiguration       = 284
	tagResolutionUnit            = 296
	tagSampleFormat              = 339
	tagModelPixelScale           = 33550
	tagModelTiepoint             = 33922
	tagModelTransformation       = 34264
	tagGeoKeyDirectory           = 34735
	tagGeoDoubleParams           = 34736
	tagGeoAsciiParams            = 34737
	tagMetadata                  = 65000
)

type SampleFormat uint16

const (
	SampleFormatUInt   SampleFormat = 1
	SampleFormatInt    SampleFormat = 2
	SampleFormatIEEEFP SampleFormat = 3
)

const (
	compressionNone             = 1
	photometricMinIsBlack       = 1
	planarConfigurationSeparate = 2
	resolutionUnitNone          = 1
)

const (
	bytesPerEntry         = 12
	bytesForEntryCount    = 2
	bytesForNextIFDOffset = 4
)

// ErrTagNotFound is returned when a tag is looked up that was never set.
var ErrTagNotFound = errors.New("tag not found")

// ErrInvalidArgument is returned for directory offsets or image descriptors
// the writer cannot work with.
type ErrInvalidArgument struct {
	msg string
}

func (err ErrInvalidArgument) Error() string {
	return err.msg
}

// entry is one 12-byte directory record: tag, field type, count and either
// the inlined values or an offset to them.
type entry struct {
	tag uint16
	val value
}

// referenced reports whether the entry's values exceed the 4-byte inline
// slot and must live in the out-of-line value region.
func (e *entry) referenced() bool {
	return e.val.size() > 4
}

// encodeRecord writes the 12-byte directory record into b. valueOffset is
// only consulted for referenced entries.
func (e *entry) encodeRecord(enc binary.ByteOrder, b []byte, valueOffset uint32) {
	enc.PutUint16(b[0:2], e.tag)
	enc.PutUint16(b[2:4], e.val.fieldType())
	enc.PutUint32(b[4:8], e.val.count())
	enc.PutUint32(b[8:12], 0)
	if e.referenced() {
		enc.PutUint32(b[8:12], valueOffset)
	} else {
		e.val.encode(enc, b[8:8+e.val.size()])
	}
}

// entrySet holds at most one entry per tag and iterates in ascending tag
// order, as the directory layout requires.
type entrySet struct {
	m map[uint16]*entry
}

func newEntrySet() *entrySet {
	return &entrySet{m: make(map[uint16]*entry)}
}

// set inserts the entry, replacing any previous entry with the same tag.
func (s *entrySet) set(e *entry) {
	s.m[e.tag] = e
}

func (s *entrySet) get(tag uint16) (*entry, error) {
	e, ok := s.m[tag]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrTagNotFound, tag)
	}
	return e, nil
}

func (s *entrySet) entries() []*entry {
	ret := make([]*entry, 0, len(s.m))
	for _, e := range s.m {
		ret = append(ret, e)
	}
	sort.Slice(ret, func(i, j int) bool {
		return ret[i].tag < ret[j].tag
	})
	return ret
}

// Band describes one band of the image to be written.
type Band struct {
	Name     string
	DataType DataType
}

// Image describes a single image to be written as one directory: its
// dimensions, bands, optional geo-referencing, an optional free-text
// metadata blob stored under a private ascii tag, and a hook supplying the
// pixel bytes of each band strip.
type Image struct {
	Width, Height int
	Name          string
	Bands         []Band
	Geo           *GeoMetadata
	Metadata      string

	// LoadStrip fills data with the pixel bytes of band b, row major, in
	// the directory's resolved sample type and little-endian order.
	// len(data) is the strip byte count of that band.
	LoadStrip func(b int, data []byte) error
}

// IFD assembles the directory entries for one image. It is built once from
// the image descriptor and is immutable afterwards; Write may be called any
// number of times and recomputes the byte layout from scratch each time.
// An IFD is not safe for concurrent use.
type IFD struct {
	entries    *entrySet
	sampleType DataType
}

// NewIFD populates the full entry set for img: dimensions, the sample
// layout derived from the common band type, the strip table with offsets
// relative to the start of the strip region, resolution defaults and the
// geo-referencing tags.
func NewIFD(img *Image) (*IFD, error) {
	if img.Width < 1 || img.Height < 1 {
		return nil, ErrInvalidArgument{fmt.Sprintf("image size %dx%d", img.Width, img.Height)}
	}
	if len(img.Bands) == 0 {
		return nil, ErrInvalidArgument{"image has no bands"}
	}
	st, err := resolveSampleType(img.Bands)
	if err != nil {
		return nil, err
	}
	ifd := &IFD{entries: newEntrySet(), sampleType: st}

	nbands := len(img.Bands)
	elemSize := uint32(st.Size())
	stripByteCount := uint32(img.Width) * uint32(img.Height) * elemSize

	bits := make(shortValue, nbands)
	formats := make(shortValue, nbands)
	counts := make(longValue, nbands)
	offsets := make(longValue, nbands)
	for i := 0; i < nbands; i++ {
		bits[i] = uint16(8 * elemSize)
		formats[i] = uint16(ifd.SampleFormat())
		counts[i] = stripByteCount
		offsets[i] = uint32(i) * stripByteCount
	}

	ifd.set(tagImageWidth, longValue{uint32(img.Width)})
	ifd.set(tagImageLength, longValue{uint32(img.Height)})
	ifd.set(tagBitsPerSample, bits)
	ifd.set(tagCompression, shortValue{compressionNone})
	ifd.set(tagPhotometricInterpretation, shortValue{photometricMinIsBlack})
	if img.Name != "" {
		ifd.set(tagImageDescription, asciiValue(img.Name))
	}
	ifd.set(tagSamplesPerPixel, shortValue{uint16(nbands)})
	ifd.set(tagStripOffsets, offsets)
	ifd.set(tagRowsPerStrip, longValue{uint32(img.Height)})
	ifd.set(tagStripByteCounts, counts)
	ifd.set(tagXResolution, rationalValue{{1, 1}})
	ifd.set(tagYResolution, rationalValue{{1, 1}})
	ifd.set(tagPlanarConfiguration, shortValue{planarConfigurationSeparate})
	ifd.set(tagResolutionUnit, shortValue{resolutionUnitNone})
	ifd.set(tagSampleFormat, formats)
	if img.Metadata != "" {
		ifd.set(tagMetadata, asciiValue(img.Metadata))
	}
	if img.Geo != nil {
		addGeoEntries(ifd, img.Geo)
	}
	return ifd, nil
}

func (ifd *IFD) set(tag uint16, v value) {
	ifd.entries.set(&entry{tag: tag, val: v})
}

// SampleType returns the common sample type resolved over all bands.
func (ifd *IFD) SampleType() DataType {
	return ifd.sampleType
}

// SampleFormat returns the TIFF sample format matching the resolved type.
func (ifd *IFD) SampleFormat() SampleFormat {
	switch {
	case ifd.sampleType.isUnsignedInt():
		return SampleFormatUInt
	case ifd.sampleType.isSignedInt():
		return SampleFormatInt
	default:
		return SampleFormatIEEEFP
	}
}

// DirectorySize is the byte size of the directory table: entry count,
// the 12-byte records and the next-directory pointer.
func (ifd *IFD) DirectorySize() uint32 {
	n := uint32(len(ifd.entries.entries()))
	return bytesForEntryCount + n*bytesPerEntry + bytesForNextIFDOffset
}

// ReferencedValuesSize is the byte size of the out-of-line value region.
func (ifd *IFD) ReferencedValuesSize() uint32 {
	size := uint32(0)
	for _, e := range ifd.entries.entries() {
		if e.referenced() {
			size += e.val.size()
		}
	}
	return size
}

// StripsSize is the byte size of the pixel strip region.
func (ifd *IFD) StripsSize() uint32 {
	e, err := ifd.entries.get(tagStripByteCounts)
	if err != nil {
		return 0
	}
	size := uint32(0)
	for _, c := range e.val.(longValue) {
		size += c
	}
	return size
}

// Size is the total byte size of the serialized image: directory table,
// out-of-line values and pixel strips. A sink of exactly this size starting
// at the directory offset never overflows.
func (ifd *IFD) Size() uint32 {
	return ifd.DirectorySize() + ifd.ReferencedValuesSize() + ifd.StripsSize()
}

// layout is the result of the commit phase: the absolute offset of every
// referenced entry's value block and the start of the strip region. It is
// derived from the entry set and a directory offset without mutating either,
// so committing twice yields identical output.
type layout struct {
	valueOffset map[uint16]uint32
	stripsStart uint32
}

func (ifd *IFD) commit(dirOffset int64) (*layout, error) {
	if dirOffset < 0 {
		return nil, ErrInvalidArgument{fmt.Sprintf("negative directory offset %d", dirOffset)}
	}
	lay := &layout{valueOffset: make(map[uint16]uint32)}
	cursor := uint32(dirOffset) + ifd.DirectorySize()
	for _, e := range ifd.entries.entries() {
		if e.referenced() {
			lay.valueOffset[e.tag] = cursor
			cursor += e.val.size()
		}
	}
	lay.stripsStart = cursor
	return lay, nil
}

// StripsStart returns the absolute offset of the pixel strip region when
// the directory is written at dirOffset.
func (ifd *IFD) StripsStart(dirOffset int64) (int64, error) {
	lay, err := ifd.commit(dirOffset)
	if err != nil {
		return 0, err
	}
	return int64(lay.stripsStart), nil
}

// Write serializes the directory table and the out-of-line value region at
// dirOffset. Strip offset values, relative while building, are rebased to
// the start of the strip region; the strip bytes themselves are not
// written here. nextDirOffset is stored in the trailing pointer slot, 0
// marking the final directory.
func (ifd *IFD) Write(ws io.WriteSeeker, dirOffset, nextDirOffset int64) error {
	lay, err := ifd.commit(dirOffset)
	if err != nil {
		return err
	}
	enc := binary.LittleEndian
	entries := ifd.entries.entries()
	dirSize := ifd.DirectorySize()
	buf := make([]byte, dirSize+ifd.ReferencedValuesSize())

	enc.PutUint16(buf[0:2], uint16(len(entries)))
	recPos := uint32(bytesForEntryCount)
	for _, e := range entries {
		rec := *e
		if e.tag == tagStripOffsets {
			rec.val = e.val.(longValue).shifted(lay.stripsStart)
		}
		rec.encodeRecord(enc, buf[recPos:recPos+bytesPerEntry], lay.valueOffset[e.tag])
		if rec.referenced() {
			pos := lay.valueOffset[e.tag] - uint32(dirOffset)
			rec.val.encode(enc, buf[pos:pos+rec.val.size()])
		}
		recPos += bytesPerEntry
	}
	// recPos now sits on the next-directory pointer slot.
	enc.PutUint32(buf[recPos:], uint32(nextDirOffset))

	if _, err := ws.Seek(dirOffset, io.SeekStart); err != nil {
		return fmt.Errorf("seek to %d: %w", dirOffset, err)
	}
	if _, err := ws.Write(buf); err != nil {
		return fmt.Errorf("write directory: %w", err)
	}
	return nil
}
