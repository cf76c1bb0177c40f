package eremore

import (
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"path/filepath"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/tiff"
)

// Output formats understood by EncodeImage.
const (
	FormatPNG  = "png"
	FormatJPEG = "jpeg"
	FormatTIFF = "tiff"
	FormatBMP  = "bmp"
)

// JPEGQuality is the quality used for JPEG output.
const JPEGQuality = 95

var formatByExt = map[string]string{
	".png":  FormatPNG,
	".jpg":  FormatJPEG,
	".jpeg": FormatJPEG,
	".tif":  FormatTIFF,
	".tiff": FormatTIFF,
	".bmp":  FormatBMP,
}

// FormatFromPath picks the output format from a file extension.
func FormatFromPath(path string) (string, error) {
	ext := strings.ToLower(filepath.Ext(path))
	f, ok := formatByExt[ext]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedFormat, ext)
	}
	return f, nil
}

// ParseFormat normalises a format name such as "jpg" or "TIFF".
func ParseFormat(name string) (string, error) {
	return FormatFromPath("x." + strings.TrimPrefix(strings.ToLower(name), "."))
}

// quantize clips every sample to [0,255] and truncates it to 8 bits.
func quantize(b *Buffer) []uint8 {
	out := make([]uint8, b.Len())
	for i, v := range b.Data() {
		out[i] = uint8(clampFloat64(v, 0, 255))
	}
	return out
}

// ToGoImage converts a buffer into an 8-bit image.Gray or image.NRGBA.
func ToGoImage(b *Buffer) image.Image {
	q := quantize(b)
	rect := image.Rect(0, 0, b.Cols(), b.Rows())
	if b.Channels() == 1 {
		return &image.Gray{Pix: q, Stride: b.Cols(), Rect: rect}
	}
	img := image.NewNRGBA(rect)
	for i := 0; i < b.Rows()*b.Cols(); i++ {
		copy(img.Pix[i*4:], q[i*3:i*3+3])
		img.Pix[i*4+3] = 0xff
	}
	return img
}

// EncodeImage writes b as an 8-bit image in the given format.
func EncodeImage(w io.Writer, b *Buffer, format string) error {
	m := ToGoImage(b)
	switch format {
	case FormatPNG:
		return png.Encode(w, m)
	case FormatJPEG:
		return jpeg.Encode(w, m, &jpeg.Options{Quality: JPEGQuality})
	case FormatTIFF:
		return tiff.Encode(w, m, &tiff.Options{Compression: tiff.Deflate, Predictor: true})
	case FormatBMP:
		return bmp.Encode(w, m)
	default:
		return fmt.Errorf("%w: %q", ErrUnsupportedFormat, format)
	}
}

// MosaicFromGoImage converts a single-channel image into a mosaic buffer and
// reports its bit depth. Colour images are rejected.
func MosaicFromGoImage(m image.Image) (*Buffer, int, error) {
	bounds := m.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return nil, 0, fmt.Errorf("%w: empty image", ErrShapeMismatch)
	}
	b := NewBuffer(h, w, 1)
	data := b.Data()
	switch src := m.(type) {
	case *image.Gray16:
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				data[y*w+x] = float64(src.Gray16At(bounds.Min.X+x, bounds.Min.Y+y).Y)
			}
		}
		return b, 16, nil
	case *image.Gray:
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				data[y*w+x] = float64(src.GrayAt(bounds.Min.X+x, bounds.Min.Y+y).Y)
			}
		}
		return b, 8, nil
	}
	if m.ColorModel() == color.Gray16Model {
		for y := 0; y < h; y++ {
			for x := 0; x < w; x++ {
				g := color.Gray16Model.Convert(m.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.Gray16)
				data[y*w+x] = float64(g.Y)
			}
		}
		return b, 16, nil
	}
	return nil, 0, fmt.Errorf("%w: expected a single-channel mosaic, got %T", ErrShapeMismatch, m)
}

// DecodeMosaic decodes a PNG, JPEG, TIFF or BMP stream into a mosaic buffer.
func DecodeMosaic(r io.Reader) (*Buffer, int, error) {
	m, _, err := image.Decode(r)
	if err != nil {
		return nil, 0, err
	}
	return MosaicFromGoImage(m)
}
