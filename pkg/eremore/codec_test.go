package eremore

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/image/tiff"
)

func TestFormatFromPath(t *testing.T) {
	tests := []struct {
		path    string
		want    string
		wantErr bool
	}{
		{"out.png", FormatPNG, false},
		{"out.JPG", FormatJPEG, false},
		{"dir.v2/out.jpeg", FormatJPEG, false},
		{"out.tif", FormatTIFF, false},
		{"out.bmp", FormatBMP, false},
		{"out.webp", "", true},
		{"out", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			got, err := FormatFromPath(tt.path)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnsupportedFormat)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
	f, err := ParseFormat(".TIFF")
	require.NoError(t, err)
	assert.Equal(t, FormatTIFF, f)
}

func TestQuantizeClipsAndTruncates(t *testing.T) {
	b, err := NewBufferFrom(1, 2, 3, []float64{-3, 0, 0.99, 254.9, 255, 300})
	require.NoError(t, err)
	assert.Equal(t, []uint8{0, 0, 0, 254, 255, 255}, quantize(b))
}

func TestEncodePNGRoundTrip(t *testing.T) {
	b := rgbOf(3, 4, func(r, c, ch int) float64 { return float64(r*60 + c*15 + ch*3) })
	var buf bytes.Buffer
	require.NoError(t, EncodeImage(&buf, b, FormatPNG))

	m, err := png.Decode(&buf)
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 4, 3), m.Bounds())
	for r := 0; r < 3; r++ {
		for c := 0; c < 4; c++ {
			got := color.NRGBAModel.Convert(m.At(c, r)).(color.NRGBA)
			assert.Equal(t, uint8(b.At(r, c, Red)), got.R)
			assert.Equal(t, uint8(b.At(r, c, Green)), got.G)
			assert.Equal(t, uint8(b.At(r, c, Blue)), got.B)
			assert.Equal(t, uint8(255), got.A)
		}
	}
}

func TestEncodeGrayTIFFDecodesAsMosaic(t *testing.T) {
	b := mosaicOf(2, 5, func(r, c int) float64 { return float64(r*100 + c*7) })
	var buf bytes.Buffer
	require.NoError(t, EncodeImage(&buf, b, FormatTIFF))

	mosaic, depth, err := DecodeMosaic(&buf)
	require.NoError(t, err)
	assert.Equal(t, 8, depth)
	assert.True(t, b.Equal(mosaic))
}

func TestEncodeOtherFormats(t *testing.T) {
	b := rgbOf(8, 8, func(r, c, ch int) float64 { return float64(r * c * ch) })
	for _, f := range []string{FormatJPEG, FormatBMP} {
		var buf bytes.Buffer
		require.NoError(t, EncodeImage(&buf, b, f), f)
		_, name, err := image.DecodeConfig(&buf)
		require.NoError(t, err, f)
		assert.Equal(t, f, name)
	}
	assert.ErrorIs(t, EncodeImage(&bytes.Buffer{}, b, "gif"), ErrUnsupportedFormat)
}

func TestMosaicFromGoImage(t *testing.T) {
	g16 := image.NewGray16(image.Rect(0, 0, 3, 2))
	g16.SetGray16(2, 1, color.Gray16{Y: 16383})
	b, depth, err := MosaicFromGoImage(g16)
	require.NoError(t, err)
	assert.Equal(t, 16, depth)
	assert.Equal(t, 16383.0, b.At(1, 2, 0))

	var buf bytes.Buffer
	require.NoError(t, tiff.Encode(&buf, g16, nil))
	b, depth, err = DecodeMosaic(&buf)
	require.NoError(t, err)
	assert.Equal(t, 16, depth)
	assert.Equal(t, 16383.0, b.At(1, 2, 0))

	_, _, err = MosaicFromGoImage(image.NewNRGBA(image.Rect(0, 0, 2, 2)))
	assert.ErrorIs(t, err, ErrShapeMismatch)
}
