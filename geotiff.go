// Package geotiff writes single-image GeoTIFF files: a TIFF 6.0 image file
// directory with the GeoTIFF 1.0 geo-referencing tags, followed by
// uncompressed band-sequential pixel strips.
package geotiff

import (
	"encoding/binary"
	"fmt"
	"io"
)

const headerSize = 8

// Writer emits one image per call to WriteImage onto a seekable sink.
// Output is always little-endian. A Writer is not safe for concurrent use.
type Writer struct {
	ws  io.WriteSeeker
	enc binary.ByteOrder
}

func NewWriter(ws io.WriteSeeker) *Writer {
	return &Writer{ws: ws, enc: binary.LittleEndian}
}

func (w *Writer) writeHeader() error {
	buf := [headerSize]byte{}
	copy(buf[0:], []byte("II"))
	w.enc.PutUint16(buf[2:], 42)
	w.enc.PutUint32(buf[4:], headerSize)
	_, err := w.ws.Write(buf[:])
	return err
}

// WriteImage writes the complete file for img: header, directory,
// out-of-line values and the pixel strips pulled through img.LoadStrip.
// The sink is written from offset 0; any previous content is clobbered.
func (w *Writer) WriteImage(img *Image) error {
	ifd, err := NewIFD(img)
	if err != nil {
		return err
	}
	if img.LoadStrip == nil {
		return ErrInvalidArgument{"image has no LoadStrip hook"}
	}
	if _, err := w.ws.Seek(0, io.SeekStart); err != nil {
		return fmt.Errorf("seek to header: %w", err)
	}
	if err := w.writeHeader(); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	if err := ifd.Write(w.ws, headerSize, 0); err != nil {
		return fmt.Errorf("write ifd: %w", err)
	}

	stripsStart, err := ifd.StripsStart(headerSize)
	if err != nil {
		return err
	}
	if _, err := w.ws.Seek(stripsStart, io.SeekStart); err != nil {
		return fmt.Errorf("seek to strips at %d: %w", stripsStart, err)
	}
	stripSize := int(ifd.StripsSize()) / len(img.Bands)
	data := make([]byte, stripSize)
	for b := range img.Bands {
		if err := img.LoadStrip(b, data); err != nil {
			return fmt.Errorf("load strip %d: %w", b, err)
		}
		if _, err := w.ws.Write(data); err != nil {
			return fmt.Errorf("write strip %d: %w", b, err)
		}
	}
	return nil
}
