package eremore

import (
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
)

func mosaicOf(rows, cols int, f func(r, c int) float64) *Buffer {
	b := NewBuffer(rows, cols, 1)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			b.Set(r, c, 0, f(r, c))
		}
	}
	return b
}

func rgbOf(rows, cols int, f func(r, c, ch int) float64) *Buffer {
	b := NewBuffer(rows, cols, 3)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			for ch := 0; ch < 3; ch++ {
				b.Set(r, c, ch, f(r, c, ch))
			}
		}
	}
	return b
}

// newTestLogger returns a debug-level logger whose entries are captured by hook.
func newTestLogger(t *testing.T) (*logrus.Logger, *test.Hook) {
	t.Helper()
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	return log, hook
}
