package eremore

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// Image is the entity threaded through an Editor. Stages receive a private
// clone and return the image they produced.
type Image struct {
	Pixels *Buffer

	// CameraWhiteBalance holds the camera-reported channel multipliers, or nil.
	CameraWhiteBalance []float64

	// Loader metadata. Zero values mean unknown.
	BitDepth     int
	Source       string
	BayerPattern string
}

// NewImage wraps a buffer.
func NewImage(pixels *Buffer) *Image {
	return &Image{Pixels: pixels}
}

// Clone deep-copies pixels and multipliers.
func (img *Image) Clone() *Image {
	out := *img
	if img.Pixels != nil {
		out.Pixels = img.Pixels.Clone()
	}
	if img.CameraWhiteBalance != nil {
		out.CameraWhiteBalance = append([]float64(nil), img.CameraWhiteBalance...)
	}
	return &out
}

// withPixels returns a shallow copy of img carrying a new buffer.
func (img *Image) withPixels(b *Buffer) *Image {
	out := *img
	out.Pixels = b
	return &out
}

func (img *Image) String() string {
	if img.Pixels == nil {
		return "{empty}"
	}
	return fmt.Sprintf("{shape=(%d,%d,%d), camera_wb=%v}",
		img.Pixels.Rows(), img.Pixels.Cols(), img.Pixels.Channels(), img.CameraWhiteBalance)
}

// CameraScales returns the camera multipliers as white-balance scales. Missing
// or malformed multipliers degrade to (1,1,1) with a warning.
func (img *Image) CameraScales(log logrus.FieldLogger) [3]float64 {
	neutral := [3]float64{1, 1, 1}
	wb := img.CameraWhiteBalance
	if len(wb) != 3 {
		log.WithField("camera_wb", wb).Warn("No camera white balance could be read from the raw image, using neutral scales")
		return neutral
	}
	for _, m := range wb {
		if m <= 0 || math.IsNaN(m) || math.IsInf(m, 0) {
			log.WithField("camera_wb", wb).Warn("Camera white balance is not strictly positive, using neutral scales")
			return neutral
		}
	}
	return [3]float64{wb[0], wb[1], wb[2]}
}
