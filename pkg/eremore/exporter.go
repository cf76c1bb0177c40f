package eremore

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Exporter writes the final image of a pipeline as an 8-bit raster. Samples
// are clipped to [0,255] and truncated.
type Exporter struct {
	log logrus.FieldLogger
}

func NewExporter(log logrus.FieldLogger) *Exporter {
	if log == nil {
		log = discardLogger()
	}
	return &Exporter{log: log}
}

// Export writes img to path, picking the format from the extension. Any
// failure wraps ErrWrite.
func (e *Exporter) Export(img *Image, path string) error {
	if img == nil || img.Pixels == nil {
		return fmt.Errorf("%w: %s: empty image", ErrWrite, path)
	}
	if err := writeRaster(path, img.Pixels); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrWrite, path, err)
	}
	e.log.WithFields(logrus.Fields{
		"path":    path,
		"backend": RasterBackend,
		"image":   img.String(),
	}).Info("Exported image")
	return nil
}
