package eremore

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fitsCard(key, value string) string {
	return fmt.Sprintf("%-8s= %-70s", key, value)
}

// buildFits16 encodes pixels as an unsigned 16-bit primary HDU.
func buildFits16(t *testing.T, width, height int, pixels []uint16, extra ...string) []byte {
	t.Helper()
	cards := []string{
		fitsCard("SIMPLE", "T"),
		fitsCard("BITPIX", "16"),
		fitsCard("NAXIS", "2"),
		fitsCard("NAXIS1", fmt.Sprint(width)),
		fitsCard("NAXIS2", fmt.Sprint(height)),
		fitsCard("BZERO", "32768"),
		fitsCard("BSCALE", "1"),
	}
	cards = append(cards, extra...)
	cards = append(cards, fmt.Sprintf("%-80s", "END"))

	var buf bytes.Buffer
	for _, c := range cards {
		require.Len(t, c, fitsRecordSize)
		buf.WriteString(c)
	}
	if rem := buf.Len() % 2880; rem != 0 {
		buf.WriteString(strings.Repeat(" ", 2880-rem))
	}
	for _, p := range pixels {
		require.NoError(t, binary.Write(&buf, binary.BigEndian, int16(int32(p)-32768)))
	}
	if rem := buf.Len() % 2880; rem != 0 {
		buf.Write(make([]byte, 2880-rem))
	}
	return buf.Bytes()
}

func TestReadFitsFromBytes(t *testing.T) {
	pixels := []uint16{0, 1, 1000, 16383, 40000, 65535}
	data := buildFits16(t, 3, 2, pixels,
		fitsCard("INSTRUME", "'ZWO ASI2600MC'"),
		fitsCard("BAYERPAT", "'RGGB    '          / sensor layout"),
	)

	fits, err := ReadFitsFromBytes(data)
	require.NoError(t, err)
	assert.Equal(t, 3, fits.Width)
	assert.Equal(t, 2, fits.Height)
	assert.Equal(t, 16, fits.BitDepth)
	assert.Equal(t, pixels, fits.Pixels)
	assert.Equal(t, "ZWO ASI2600MC", fits.Header.CameraName())
	assert.Equal(t, "RGGB", fits.Header.BayerPattern())

	img, err := fits.ToImage("frame.fits")
	require.NoError(t, err)
	assert.Equal(t, 1, img.Pixels.Channels())
	assert.Equal(t, 40000.0, img.Pixels.At(1, 1, 0))
	assert.Equal(t, "RGGB", img.BayerPattern)
	assert.Equal(t, "frame.fits", img.Source)
}

func TestFitsBayerOffsets(t *testing.T) {
	tests := []struct {
		name  string
		cards []string
		want  string
	}{
		{"none", nil, ""},
		{"plain", []string{fitsCard("BAYERPAT", "'BGGR'")}, "BGGR"},
		{"x_offset", []string{fitsCard("BAYERPAT", "'RGGB'"), fitsCard("XBAYROFF", "1")}, "GRBG"},
		{"y_offset", []string{fitsCard("BAYERPAT", "'RGGB'"), fitsCard("YBAYROFF", "1")}, "GBRG"},
		{"both_offsets", []string{fitsCard("BAYERPAT", "'RGGB'"), fitsCard("XBAYROFF", "1"), fitsCard("YBAYROFF", "1")}, "BGGR"},
		{"even_offset", []string{fitsCard("BAYERPAT", "'GBRG'"), fitsCard("XBAYROFF", "2")}, "GBRG"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fits, err := ReadFitsFromBytes(buildFits16(t, 2, 2, make([]uint16, 4), tt.cards...))
			require.NoError(t, err)
			assert.Equal(t, tt.want, fits.Header.BayerPattern())
		})
	}
}

func TestReadFitsRejectsBadInput(t *testing.T) {
	_, err := ReadFitsFromBytes([]byte("SIMPLE  =  T"))
	assert.Error(t, err)

	cube := buildFits16(t, 2, 2, make([]uint16, 4))
	cube = bytes.Replace(cube, []byte(fitsCard("NAXIS", "2")), []byte(fitsCard("NAXIS", "3")), 1)
	_, err = ReadFitsFromBytes(cube)
	assert.ErrorIs(t, err, ErrShapeMismatch)

	double := buildFits16(t, 2, 2, make([]uint16, 4))
	double = bytes.Replace(double, []byte(fitsCard("BITPIX", "16")), []byte(fitsCard("BITPIX", "-64")), 1)
	_, err = ReadFitsFromBytes(double)
	assert.ErrorIs(t, err, ErrUnsupportedFormat)
}

func TestReadFitsHeaderOnly(t *testing.T) {
	path := filepath.Join(t.TempDir(), "light.fit")
	require.NoError(t, os.WriteFile(path, buildFits16(t, 4, 2, make([]uint16, 8), fitsCard("BITDEPTH", "14")), 0o644))

	fits, err := ReadFitsHeaderOnly(path)
	require.NoError(t, err)
	assert.Nil(t, fits.Pixels)
	assert.Equal(t, 4, fits.Width)
	assert.Equal(t, 14, fits.BitDepth)
}
