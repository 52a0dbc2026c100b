package geotiff

import "strings"

// A few well-known GeoKey ids, as of GeoTIFF 1.0 section 6.2.
const (
	KeyGTModelType      = 1024
	KeyGTRasterType     = 1025
	KeyGTCitation       = 1026
	KeyGeographicType   = 2048
	KeyGeogCitation     = 2049
	KeyGeogAngularUnits = 2054
	KeyProjectedCSType  = 3072
	KeyProjLinearUnits  = 3076
)

const (
	ModelTypeProjected  = 1
	ModelTypeGeographic = 2
	RasterPixelIsArea   = 1
)

// TiePoint ties a raster location (I, J, K) to a model location (X, Y, Z),
// in that order.
type TiePoint [6]float64

// geoKey is one 4-tuple of the GeoKey directory: key id, the tag holding
// the value (0 for an inline short), value count, and the inline value or
// an offset filled in during translation. Double and ascii payloads ride
// along until they are folded into the params blocks.
type geoKey struct {
	data    [4]int
	doubles []float64
	ascii   string
}

// GeoMetadata collects the geo-referencing of an image: an ordered GeoKey
// list plus the model transform, pixel scale and tie points. A nil
// GeoMetadata on an Image simply produces a non-georeferenced file.
type GeoMetadata struct {
	keys       []geoKey
	pixelScale []float64
	tiePoints  []TiePoint
	transform  []float64
}

// NewGeoMetadata returns a container whose key list starts with the
// mandatory directory header 4-tuple (version 1, revision 1.0, key count).
func NewGeoMetadata() *GeoMetadata {
	return &GeoMetadata{keys: []geoKey{{data: [4]int{1, 1, 0, 0}}}}
}

func (g *GeoMetadata) addKey(k geoKey) {
	g.keys = append(g.keys, k)
	g.keys[0].data[3]++
}

// AddShortKey adds a key whose value is a single short stored inline in
// the key directory.
func (g *GeoMetadata) AddShortKey(id, value int) {
	g.addKey(geoKey{data: [4]int{id, 0, 1, value}})
}

// AddDoubleKey adds a key whose values are stored in the double-params
// block.
func (g *GeoMetadata) AddDoubleKey(id int, values ...float64) {
	g.addKey(geoKey{data: [4]int{id, tagGeoDoubleParams, len(values), 0}, doubles: values})
}

// AddAsciiKey adds a key whose value is stored in the ascii-params block.
// The count covers the string plus its separator.
func (g *GeoMetadata) AddAsciiKey(id int, s string) {
	g.addKey(geoKey{data: [4]int{id, tagGeoAsciiParams, len(s) + 1, 0}, ascii: s})
}

// SetModelPixelScale sets the model pixel size in raster space. It is
// ignored when a non-zero model transformation is also set.
func (g *GeoMetadata) SetModelPixelScale(x, y, z float64) {
	g.pixelScale = []float64{x, y, z}
}

// AddModelTiePoint appends a raster-to-model tie point.
func (g *GeoMetadata) AddModelTiePoint(tp TiePoint) {
	g.tiePoints = append(g.tiePoints, tp)
}

// SetModelTransformation sets the 4x4 raster-to-model transformation
// matrix, 16 values in row-major order. A non-zero transformation takes
// precedence over pixel scale and tie points.
func (g *GeoMetadata) SetModelTransformation(m []float64) {
	g.transform = append([]float64(nil), m...)
}

// addGeoEntries translates g into directory entries: the flattened GeoKey
// directory with double indexes and ascii byte offsets resolved, the two
// params blocks when non-empty, and exactly one of the model transformation
// or the pixel scale plus tie points.
func addGeoEntries(ifd *IFD, g *GeoMetadata) {
	dir := make(shortValue, 0, 4*len(g.keys))
	var doubles doubleValue
	var asciiParts []string
	// Byte offset of the next string in the ascii-params block. Every
	// stored string occupies len+1 bytes, its '|' separator included.
	asciiLen := 0
	for _, k := range g.keys {
		data := k.data
		switch data[1] {
		case tagGeoDoubleParams:
			data[3] = len(doubles)
			doubles = append(doubles, k.doubles...)
		case tagGeoAsciiParams:
			data[3] = asciiLen
			asciiParts = append(asciiParts, k.ascii)
			asciiLen += len(k.ascii) + 1
		}
		for _, d := range data {
			dir = append(dir, uint16(d))
		}
	}
	ifd.set(tagGeoKeyDirectory, dir)
	if len(doubles) > 0 {
		ifd.set(tagGeoDoubleParams, doubles)
	}
	if len(asciiParts) > 0 {
		ifd.set(tagGeoAsciiParams, joinGeoAscii(asciiParts))
	}
	if !isZeroArray(g.transform) {
		ifd.set(tagModelTransformation, doubleValue(g.transform))
		return
	}
	if !isZeroArray(g.pixelScale) {
		ifd.set(tagModelPixelScale, doubleValue(g.pixelScale))
	}
	if len(g.tiePoints) > 0 {
		tp := make(doubleValue, 0, 6*len(g.tiePoints))
		for _, t := range g.tiePoints {
			tp = append(tp, t[:]...)
		}
		ifd.set(tagModelTiepoint, tp)
	}
}

// joinGeoAscii assembles the ascii-params block: each string followed by a
// '|' separator, the whole block NUL-terminated by the ascii encoding.
func joinGeoAscii(parts []string) asciiValue {
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(p)
		b.WriteByte('|')
	}
	return asciiValue(b.String())
}

func isZeroArray(a []float64) bool {
	for _, v := range a {
		if v != 0 {
			return false
		}
	}
	return true
}
