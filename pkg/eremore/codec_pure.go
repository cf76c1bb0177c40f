//go:build purego || js

package eremore

import "os"

// RasterBackend names the library used for raster file I/O.
const RasterBackend = "go"

func readRaster(path string) (*Buffer, int, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, 0, err
	}
	defer f.Close()
	return DecodeMosaic(f)
}

func writeRaster(path string, b *Buffer) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := EncodeImage(f, b, format); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
