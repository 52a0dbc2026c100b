package geotiff

import (
	"fmt"
	"strings"

	"github.com/google/tiff"
)

// Info summarizes the first image file directory of a written file. Field
// types follow the encoding of each tag; absent tags stay zero.
type Info struct {
	ImageWidth                uint64    `tiff:"field,tag=256"`
	ImageLength               uint64    `tiff:"field,tag=257"`
	BitsPerSample             []uint16  `tiff:"field,tag=258"`
	Compression               uint16    `tiff:"field,tag=259"`
	PhotometricInterpretation uint16    `tiff:"field,tag=262"`
	ImageDescription          string    `tiff:"field,tag=270"`
	StripOffsets              []uint64  `tiff:"field,tag=273"`
	SamplesPerPixel           uint16    `tiff:"field,tag=277"`
	RowsPerStrip              uint64    `tiff:"field,tag=278"`
	StripByteCounts           []uint64  `tiff:"field,tag=279"`
	PlanarConfiguration       uint16    `tiff:"field,tag=284"`
	SampleFormat              []uint16  `tiff:"field,tag=339"`
	ModelPixelScaleTag        []float64 `tiff:"field,tag=33550"`
	ModelTiepointTag          []float64 `tiff:"field,tag=33922"`
	ModelTransformationTag    []float64 `tiff:"field,tag=34264"`
	GeoKeyDirectoryTag        []uint16  `tiff:"field,tag=34735"`
	GeoDoubleParamsTag        []float64 `tiff:"field,tag=34736"`
	GeoAsciiParamsTag         string    `tiff:"field,tag=34737"`
	Metadata                  string    `tiff:"field,tag=65000"`
}

// ReadInfo parses r as a TIFF file and summarizes its first directory.
func ReadInfo(r tiff.ReadAtReadSeeker) (*Info, error) {
	tif, err := tiff.Parse(r, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("parse tiff: %w", err)
	}
	ifds := tif.IFDs()
	if len(ifds) == 0 {
		return nil, fmt.Errorf("no image file directory")
	}
	info := &Info{}
	if err := tiff.UnmarshalIFD(ifds[0], info); err != nil {
		return nil, fmt.Errorf("unmarshal ifd: %w", err)
	}
	info.ImageDescription = strings.TrimRight(info.ImageDescription, "\x00")
	info.GeoAsciiParamsTag = strings.TrimRight(info.GeoAsciiParamsTag, "\x00")
	info.Metadata = strings.TrimRight(info.Metadata, "\x00")
	return info, nil
}

// Georeferenced reports whether the directory carries any GeoTIFF tags.
func (info *Info) Georeferenced() bool {
	return len(info.GeoKeyDirectoryTag) > 0 ||
		len(info.ModelTransformationTag) > 0 ||
		len(info.ModelPixelScaleTag) > 0 ||
		len(info.ModelTiepointTag) > 0
}

// Summary renders a human-readable multi-line description, one line per
// populated tag.
func (info *Info) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "size: %dx%d, %d band(s)\n", info.ImageWidth, info.ImageLength, info.SamplesPerPixel)
	fmt.Fprintf(&b, "bits per sample: %v, sample format: %v\n", info.BitsPerSample, info.SampleFormat)
	fmt.Fprintf(&b, "strips: offsets=%v counts=%v rows per strip=%d\n",
		info.StripOffsets, info.StripByteCounts, info.RowsPerStrip)
	if info.ImageDescription != "" {
		fmt.Fprintf(&b, "description: %s\n", info.ImageDescription)
	}
	if len(info.ModelTransformationTag) > 0 {
		fmt.Fprintf(&b, "model transformation: %v\n", info.ModelTransformationTag)
	}
	if len(info.ModelPixelScaleTag) > 0 {
		fmt.Fprintf(&b, "model pixel scale: %v\n", info.ModelPixelScaleTag)
	}
	if len(info.ModelTiepointTag) > 0 {
		fmt.Fprintf(&b, "model tie points: %v\n", info.ModelTiepointTag)
	}
	if len(info.GeoKeyDirectoryTag) > 0 {
		fmt.Fprintf(&b, "geo keys: %v\n", info.GeoKeyDirectoryTag)
	}
	if len(info.GeoDoubleParamsTag) > 0 {
		fmt.Fprintf(&b, "geo double params: %v\n", info.GeoDoubleParamsTag)
	}
	if info.GeoAsciiParamsTag != "" {
		fmt.Fprintf(&b, "geo ascii params: %s\n", info.GeoAsciiParamsTag)
	}
	if info.Metadata != "" {
		fmt.Fprintf(&b, "metadata: %s\n", info.Metadata)
	}
	return b.String()
}
