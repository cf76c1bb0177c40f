//go:build !purego && !js

package eremore

import (
	"errors"
	"fmt"

	"gocv.io/x/gocv"
)

// RasterBackend names the library used for raster file I/O.
const RasterBackend = "opencv"

// readRaster loads a single-channel 8 or 16-bit mosaic with OpenCV.
func readRaster(path string) (*Buffer, int, error) {
	src := gocv.IMRead(path, gocv.IMReadUnchanged)
	defer src.Close()
	if src.Empty() {
		return nil, 0, errors.New("could not load image")
	}

	if src.Channels() != 1 {
		return nil, 0, fmt.Errorf("%w: expected a single-channel mosaic, got %d channels", ErrShapeMismatch, src.Channels())
	}
	rows, cols := src.Rows(), src.Cols()
	b := NewBuffer(rows, cols, 1)
	data := b.Data()
	switch src.Type() {
	case gocv.MatTypeCV16UC1:
		px, err := src.DataPtrUint16()
		if err != nil {
			return nil, 0, err
		}
		for i := range data {
			data[i] = float64(px[i])
		}
		return b, 16, nil
	case gocv.MatTypeCV8UC1:
		px := src.ToBytes()
		for i := range data {
			data[i] = float64(px[i])
		}
		return b, 8, nil
	default:
		return nil, 0, fmt.Errorf("%w: OpenCV type %v", ErrUnsupportedFormat, src.Type())
	}
}

// writeRaster quantises b and writes it with OpenCV, which expects BGR order.
func writeRaster(path string, b *Buffer) error {
	if _, err := FormatFromPath(path); err != nil {
		return err
	}
	q := quantize(b)
	mt := gocv.MatTypeCV8UC1
	if b.Channels() == 3 {
		mt = gocv.MatTypeCV8UC3
		for i := 0; i < len(q); i += 3 {
			q[i], q[i+2] = q[i+2], q[i]
		}
	}
	m, err := gocv.NewMatFromBytes(b.Rows(), b.Cols(), mt, q)
	if err != nil {
		return err
	}
	defer m.Close()
	if !gocv.IMWrite(path, m) {
		return errors.New("OpenCV could not write the image")
	}
	return nil
}
