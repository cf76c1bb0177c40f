package eremore

import (
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/sirupsen/logrus"
)

// Loader produces the initial image of a pipeline.
type Loader interface {
	Load(path string) (*Image, error)
}

var fitsExtensions = []string{".fits", ".fit", ".fts"}

// IsFitsPath reports whether path has a FITS extension.
func IsFitsPath(path string) bool {
	return slices.Contains(fitsExtensions, strings.ToLower(filepath.Ext(path)))
}

// FileLoader reads FITS files and single-channel raster mosaics.
type FileLoader struct {
	cameraWB []float64
	log      logrus.FieldLogger
}

// LoaderOption configures a FileLoader.
type LoaderOption func(*FileLoader)

// WithCameraWhiteBalance attaches as-shot multipliers to every loaded image.
// Neither FITS nor raster containers carry them.
func WithCameraWhiteBalance(wb []float64) LoaderOption {
	return func(l *FileLoader) { l.cameraWB = slices.Clone(wb) }
}

func WithLoaderLogger(log logrus.FieldLogger) LoaderOption {
	return func(l *FileLoader) { l.log = log }
}

func NewFileLoader(opts ...LoaderOption) *FileLoader {
	l := &FileLoader{}
	for _, opt := range opts {
		opt(l)
	}
	if l.log == nil {
		l.log = discardLogger()
	}
	return l
}

// Load decodes path into a mosaic image. Any failure wraps ErrDecode.
func (l *FileLoader) Load(path string) (*Image, error) {
	var img *Image
	err := measure(l.log, func() error {
		var err error
		img, err = l.load(path)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %w", ErrDecode, path, err)
	}
	if l.cameraWB != nil {
		img.CameraWhiteBalance = slices.Clone(l.cameraWB)
	}
	l.log.WithFields(logrus.Fields{
		"path":      path,
		"bit_depth": img.BitDepth,
		"bayer":     img.BayerPattern,
		"image":     img.String(),
	}).Info("Loaded raw image")
	return img, nil
}

func (l *FileLoader) load(path string) (*Image, error) {
	if IsFitsPath(path) {
		fits, err := ReadFits(path)
		if err != nil {
			return nil, err
		}
		return fits.ToImage(path)
	}
	mosaic, depth, err := readRaster(path)
	if err != nil {
		return nil, err
	}
	img := NewImage(mosaic)
	img.BitDepth = depth
	img.Source = path
	return img, nil
}
