package eremore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewBufferFrom(t *testing.T) {
	tests := []struct {
		name     string
		rows     int
		cols     int
		channels int
		n        int
		wantErr  bool
	}{
		{"mosaic", 2, 3, 1, 6, false},
		{"rgb", 2, 3, 3, 18, false},
		{"short_data", 2, 3, 3, 17, true},
		{"two_channels", 2, 3, 2, 12, true},
		{"zero_rows", 0, 3, 1, 0, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := NewBufferFrom(tt.rows, tt.cols, tt.channels, make([]float64, tt.n))
			if tt.wantErr {
				require.ErrorIs(t, err, ErrShapeMismatch)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.rows, b.Rows())
			assert.Equal(t, tt.cols, b.Cols())
			assert.Equal(t, tt.channels, b.Channels())
		})
	}
}

func TestNewBufferPanicsOnBadChannels(t *testing.T) {
	assert.Panics(t, func() { NewBuffer(2, 2, 4) })
	assert.Panics(t, func() { NewBuffer(-1, 2, 1) })
}

func TestBufferCloneIsDeep(t *testing.T) {
	b := rgbOf(2, 2, func(r, c, ch int) float64 { return float64(r*100 + c*10 + ch) })
	clone := b.Clone()
	require.True(t, b.Equal(clone))

	clone.Set(1, 1, Blue, -1)
	assert.Equal(t, 112.0, b.At(1, 1, Blue))
	assert.False(t, b.Equal(clone))
}

func TestBufferPlaneClipMinMax(t *testing.T) {
	b := rgbOf(1, 3, func(_, c, ch int) float64 { return float64(c*100 - 50 + ch) })
	assert.Equal(t, []float64{-49, 51, 151}, b.Plane(Green))

	lo, hi := b.MinMax()
	assert.Equal(t, -50.0, lo)
	assert.Equal(t, 152.0, hi)

	b.Clip(0, 100)
	lo, hi = b.MinMax()
	assert.Equal(t, 0.0, lo)
	assert.Equal(t, 100.0, hi)
}

func TestMosaicFromUint16(t *testing.T) {
	b, err := MosaicFromUint16([]uint16{1, 2, 3, 4, 5, 6}, 3, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, b.Rows())
	assert.Equal(t, 3, b.Cols())
	assert.Equal(t, 6.0, b.At(1, 2, 0))

	_, err = MosaicFromUint16([]uint16{1, 2, 3}, 2, 2)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestImageClone(t *testing.T) {
	img := NewImage(mosaicOf(2, 2, func(r, c int) float64 { return 1 }))
	img.CameraWhiteBalance = []float64{2, 1, 1.5}
	clone := img.Clone()

	clone.CameraWhiteBalance[0] = 9
	clone.Pixels.Set(0, 0, 0, 9)
	assert.Equal(t, 2.0, img.CameraWhiteBalance[0])
	assert.Equal(t, 1.0, img.Pixels.At(0, 0, 0))
}

func TestCameraScales(t *testing.T) {
	tests := []struct {
		name string
		wb   []float64
		want [3]float64
		warn bool
	}{
		{"valid", []float64{2, 1, 1.5}, [3]float64{2, 1, 1.5}, false},
		{"missing", nil, [3]float64{1, 1, 1}, true},
		{"four_values", []float64{2, 1, 1, 1}, [3]float64{1, 1, 1}, true},
		{"zero", []float64{2, 0, 1}, [3]float64{1, 1, 1}, true},
		{"negative", []float64{2, -1, 1}, [3]float64{1, 1, 1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, hook := newTestLogger(t)
			img := &Image{CameraWhiteBalance: tt.wb}
			assert.Equal(t, tt.want, img.CameraScales(log))
			if tt.warn {
				require.NotNil(t, hook.LastEntry())
				assert.Equal(t, "warning", hook.LastEntry().Level.String())
			} else {
				assert.Empty(t, hook.AllEntries())
			}
		})
	}
}
