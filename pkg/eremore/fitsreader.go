package eremore

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
)

const (
	fitsRecordSize   = 80
	fitsRecordsBlock = 36
)

// FitsHeader holds parsed FITS header cards keyed by upper-case keyword.
type FitsHeader struct {
	Cards map[string]string
}

func NewFitsHeader() *FitsHeader {
	return &FitsHeader{Cards: make(map[string]string)}
}

func (h *FitsHeader) GetString(key string) string {
	return h.Cards[strings.ToUpper(key)]
}

func (h *FitsHeader) GetDouble(key string) (float64, bool) {
	v, ok := h.Cards[strings.ToUpper(key)]
	if !ok {
		return 0, false
	}
	d, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	if err != nil {
		return 0, false
	}
	return d, true
}

func (h *FitsHeader) GetInt(key string) (int, bool) {
	v, ok := h.Cards[strings.ToUpper(key)]
	if !ok {
		return 0, false
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	if err != nil {
		return 0, false
	}
	return i, true
}

func (h *FitsHeader) CameraName() string { return h.GetString("INSTRUME") }

// BayerPattern returns the CFA pattern declared by BAYERPAT, shifted by the
// XBAYROFF/YBAYROFF offsets when present. An empty string means the file
// does not declare one.
func (h *FitsHeader) BayerPattern() string {
	pat := strings.ToUpper(strings.TrimSpace(h.GetString("BAYERPAT")))
	if pat == "" {
		return ""
	}
	blue, err := ParseCFAOffset(pat)
	if err != nil {
		return pat
	}
	if x, ok := h.GetInt("XBAYROFF"); ok {
		blue.Col ^= x & 1
	}
	if y, ok := h.GetInt("YBAYROFF"); ok {
		blue.Row ^= y & 1
	}
	p, err := NewCFAPattern(blue)
	if err != nil {
		return pat
	}
	return p.BayerName()
}

// FitsImageData is the primary HDU of a FITS file.
type FitsImageData struct {
	Pixels   []uint16
	Width    int
	Height   int
	BitDepth int
	Header   *FitsHeader
}

// ToImage wraps the pixels as a single-channel mosaic.
func (f *FitsImageData) ToImage(source string) (*Image, error) {
	mosaic, err := MosaicFromUint16(f.Pixels, f.Width, f.Height)
	if err != nil {
		return nil, err
	}
	img := NewImage(mosaic)
	img.BitDepth = f.BitDepth
	img.Source = source
	img.BayerPattern = f.Header.BayerPattern()
	return img, nil
}

// ReadFits reads FITS headers and pixel data from a file.
func ReadFits(filePath string) (*FitsImageData, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("opening FITS file: %w", err)
	}
	defer f.Close()
	return readFitsFromReader(f, false)
}

// ReadFitsHeaderOnly reads the header without loading pixel data.
func ReadFitsHeaderOnly(filePath string) (*FitsImageData, error) {
	f, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("opening FITS file: %w", err)
	}
	defer f.Close()
	return readFitsFromReader(f, true)
}

// ReadFitsFromBytes reads FITS headers and pixel data from a byte slice.
func ReadFitsFromBytes(data []byte) (*FitsImageData, error) {
	return readFitsFromReader(bytes.NewReader(data), false)
}

func readFitsFromReader(r io.Reader, skipPixelData bool) (*FitsImageData, error) {
	var bitpix, naxis, width, height int
	bzero, bscale := 0.0, 1.0
	header := NewFitsHeader()
	card := make([]byte, fitsRecordSize)

	for done := false; !done; {
		for i := 0; i < fitsRecordsBlock; i++ {
			if _, err := io.ReadFull(r, card); err != nil {
				return nil, fmt.Errorf("reading FITS header card: %w", err)
			}
			record := string(card)
			keyword := strings.TrimSpace(record[:8])
			if keyword == "END" {
				if rest := fitsRecordsBlock - 1 - i; rest > 0 {
					if _, err := io.CopyN(io.Discard, r, int64(rest*fitsRecordSize)); err != nil {
						return nil, fmt.Errorf("skipping FITS header padding: %w", err)
					}
				}
				done = true
				break
			}
			if record[8] != '=' || record[9] != ' ' {
				continue
			}
			raw := strings.TrimSpace(strings.SplitN(record[10:], "/", 2)[0])
			if v := parseFitsValue(raw); keyword != "" && v != "" {
				header.Cards[strings.ToUpper(keyword)] = v
			}
			switch keyword {
			case "BITPIX":
				bitpix, _ = strconv.Atoi(raw)
			case "NAXIS":
				naxis, _ = strconv.Atoi(raw)
			case "NAXIS1":
				width, _ = strconv.Atoi(raw)
			case "NAXIS2":
				height, _ = strconv.Atoi(raw)
			case "BZERO":
				bzero, _ = strconv.ParseFloat(raw, 64)
			case "BSCALE":
				bscale, _ = strconv.ParseFloat(raw, 64)
			}
		}
	}

	if naxis != 2 || width <= 0 || height <= 0 {
		return nil, fmt.Errorf("%w: expected a 2-D mosaic, got NAXIS=%d, NAXIS1=%d, NAXIS2=%d",
			ErrShapeMismatch, naxis, width, height)
	}

	bitDepth := 16
	if bitpix == 8 {
		bitDepth = 8
	}
	if bd, ok := header.GetInt("BITDEPTH"); ok && bd > 0 && bd <= 16 {
		bitDepth = bd
	}
	data := &FitsImageData{Width: width, Height: height, BitDepth: bitDepth, Header: header}
	if skipPixelData {
		return data, nil
	}

	var sampleSize int
	var decode func(b []byte) float64
	switch bitpix {
	case 8:
		sampleSize = 1
		decode = func(b []byte) float64 { return float64(b[0]) }
	case 16:
		sampleSize = 2
		decode = func(b []byte) float64 { return float64(int16(binary.BigEndian.Uint16(b))) }
	case 32:
		sampleSize = 4
		decode = func(b []byte) float64 { return float64(int32(binary.BigEndian.Uint32(b))) }
	case -32:
		sampleSize = 4
		decode = func(b []byte) float64 { return float64(math.Float32frombits(binary.BigEndian.Uint32(b))) }
	default:
		return nil, fmt.Errorf("%w: BITPIX %d", ErrUnsupportedFormat, bitpix)
	}

	n := width * height
	raw := make([]byte, n*sampleSize)
	if _, err := io.ReadFull(r, raw); err != nil {
		return nil, fmt.Errorf("reading %d-bit pixel data: %w", bitpix, err)
	}
	data.Pixels = make([]uint16, n)
	for i := range data.Pixels {
		physical := decode(raw[i*sampleSize:])*bscale + bzero
		data.Pixels[i] = uint16(clampFloat64(physical, 0, math.MaxUint16))
	}
	return data, nil
}

func parseFitsValue(raw string) string {
	switch raw {
	case "":
		return ""
	case "T":
		return "True"
	case "F":
		return "False"
	}
	if strings.HasPrefix(raw, "'") {
		if end := strings.LastIndex(raw, "'"); end > 0 {
			return strings.TrimRight(raw[1:end], " ")
		}
		return strings.TrimLeft(strings.TrimRight(raw, " "), "'")
	}
	return raw
}
