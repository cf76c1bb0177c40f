package eremore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitBayerPreservesNativeSamples(t *testing.T) {
	for _, blue := range allBlueLocations {
		for _, size := range [][2]int{{4, 6}, {5, 3}} {
			p, err := NewCFAPattern(blue)
			require.NoError(t, err)
			rows, cols := size[0], size[1]
			mosaic := mosaicOf(rows, cols, func(r, c int) float64 { return float64(r*cols + c + 1) })

			out := SplitBayer(mosaic, p)
			require.Equal(t, 3, out.Channels())
			for r := 0; r < rows; r++ {
				for c := 0; c < cols; c++ {
					native := p.Channel(r, c)
					for ch := 0; ch < 3; ch++ {
						want := 0.0
						if ch == native {
							want = mosaic.At(r, c, 0)
						}
						assert.Equal(t, want, out.At(r, c, ch), "blue=%s (%d,%d) ch=%d", blue, r, c, ch)
					}
				}
			}
		}
	}
}

func TestReconstructionKeepsFlatFieldFlat(t *testing.T) {
	engines := map[string]DemosaicFunc{
		DemosaicCopy:   FillNearest,
		DemosaicLinear: InterpolateBilinear,
	}
	for name, fn := range engines {
		for _, blue := range allBlueLocations {
			for _, size := range [][2]int{{6, 6}, {5, 7}, {2, 2}} {
				p, err := NewCFAPattern(blue)
				require.NoError(t, err)
				mosaic := mosaicOf(size[0], size[1], func(int, int) float64 { return 7 })
				out := fn(mosaic, p)
				want := rgbOf(size[0], size[1], func(int, int, int) float64 { return 7 })
				assert.True(t, want.Equal(out), "%s blue=%s size=%v: %v", name, blue, size, out.Data())
			}
		}
	}
}

func TestInterpolateBilinearValues(t *testing.T) {
	p, err := NewCFAPattern(CFAOffset{0, 0})
	require.NoError(t, err)
	mosaic := mosaicOf(4, 4, func(r, c int) float64 { return float64(10*r + c) })
	out := InterpolateBilinear(mosaic, p)

	// Red sits at (1,1): only one diagonal neighbour of (0,0) is inside.
	assert.Equal(t, 11.0, out.At(0, 0, Red))
	assert.Equal(t, 12.0, out.At(1, 2, Red))
	assert.Equal(t, 21.0, out.At(2, 1, Red))
	assert.Equal(t, 5.5, out.At(0, 0, Green))
	assert.Equal(t, 11.0, out.At(1, 1, Blue))
	assert.Equal(t, 11.0, out.At(1, 1, Green))
	// Native green is never overwritten.
	assert.Equal(t, 1.0, out.At(0, 1, Green))
}

func TestFillNearestValues(t *testing.T) {
	p, err := NewCFAPattern(CFAOffset{1, 1})
	require.NoError(t, err)
	mosaic := mosaicOf(3, 3, func(r, c int) float64 { return float64(10*r + c) })
	out := FillNearest(mosaic, p)

	assert.Equal(t, 0.0, out.At(1, 1, Red))
	assert.Equal(t, 22.0, out.At(2, 2, Red))
	assert.Equal(t, 11.0, out.At(0, 0, Blue))
	// The trailing odd edge has no blue sample and borrows from the previous tile.
	assert.Equal(t, 11.0, out.At(2, 2, Blue))
	assert.Equal(t, 1.0, out.At(0, 0, Green))
	assert.Equal(t, 10.0, out.At(1, 1, Green))
}

func TestDemosaicerStage(t *testing.T) {
	d, err := NewDemosaicer("bayer_splitter", CFAOffset{1, 1})
	require.NoError(t, err)
	assert.Equal(t, DemosaicSplit, d.Engine())
	assert.Equal(t, []string{DemosaicSplit, DemosaicCopy, DemosaicLinear}, d.Engines())
	assert.Equal(t, DemosaicerName, d.Name())

	img := NewImage(mosaicOf(2, 2, func(r, c int) float64 { return float64(r*2 + c) }))
	out, err := d.Process(img)
	require.NoError(t, err)
	assert.Equal(t, 3, out.Pixels.Channels())
	assert.Equal(t, 3.0, out.Pixels.At(1, 1, Blue))

	_, err = d.Process(out)
	assert.ErrorIs(t, err, ErrShapeMismatch)

	assert.ErrorIs(t, d.SelectEngine("ahd"), ErrUnknownEngine)
	assert.Equal(t, DemosaicSplit, d.Engine())

	assert.ErrorIs(t, d.SetBlueLocation(CFAOffset{2, 2}), ErrInvalidCFAPattern)
	assert.Equal(t, "RGGB", d.Pattern().BayerName())

	_, err = NewDemosaicer("nearest", CFAOffset{1, 1})
	assert.ErrorIs(t, err, ErrUnknownEngine)
	_, err = NewDemosaicer(DemosaicLinear, CFAOffset{3, 0})
	assert.ErrorIs(t, err, ErrInvalidCFAPattern)
}
