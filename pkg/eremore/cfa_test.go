package eremore

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var allBlueLocations = []CFAOffset{{0, 0}, {0, 1}, {1, 0}, {1, 1}}

func TestCFAPatternTable(t *testing.T) {
	tests := []struct {
		blue  CFAOffset
		red   CFAOffset
		green [2]int
		name  string
	}{
		{CFAOffset{0, 0}, CFAOffset{1, 1}, [2]int{1, 0}, "BGGR"},
		{CFAOffset{0, 1}, CFAOffset{1, 0}, [2]int{0, 1}, "GBRG"},
		{CFAOffset{1, 0}, CFAOffset{0, 1}, [2]int{0, 1}, "GRBG"},
		{CFAOffset{1, 1}, CFAOffset{0, 0}, [2]int{1, 0}, "RGGB"},
	}
	for _, tt := range tests {
		t.Run(tt.blue.String(), func(t *testing.T) {
			p, err := NewCFAPattern(tt.blue)
			require.NoError(t, err)
			assert.Equal(t, tt.red, p.Red)
			assert.Equal(t, tt.green, p.GreenCol)
			assert.Equal(t, tt.name, p.BayerName())

			counts := map[int]int{}
			for r := 0; r < 2; r++ {
				for c := 0; c < 2; c++ {
					counts[p.Channel(r, c)]++
				}
				assert.Equal(t, Green, p.Channel(r, p.GreenCol[r]))
			}
			assert.Equal(t, map[int]int{Red: 1, Green: 2, Blue: 1}, counts)
		})
	}
}

func TestNewCFAPatternRejectsInvalidOffset(t *testing.T) {
	for _, o := range []CFAOffset{{2, 0}, {0, -1}, {1, 2}} {
		_, err := NewCFAPattern(o)
		assert.ErrorIs(t, err, ErrInvalidCFAPattern, o.String())
	}
}

func TestParseCFAOffset(t *testing.T) {
	tests := []struct {
		in      string
		want    CFAOffset
		wantErr bool
	}{
		{"00", CFAOffset{0, 0}, false},
		{"01", CFAOffset{0, 1}, false},
		{"10", CFAOffset{1, 0}, false},
		{" 11 ", CFAOffset{1, 1}, false},
		{"rggb", CFAOffset{1, 1}, false},
		{"BGGR", CFAOffset{0, 0}, false},
		{"GRBG", CFAOffset{1, 0}, false},
		{"GBRG", CFAOffset{0, 1}, false},
		{"12", CFAOffset{}, true},
		{"", CFAOffset{}, true},
		{"RGBG", CFAOffset{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCFAOffset(tt.in)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrInvalidCFAPattern)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestNativeIndex(t *testing.T) {
	tests := []struct {
		i, loc, n int
		want      int
	}{
		{0, 0, 4, 0},
		{1, 0, 4, 0},
		{2, 1, 4, 3},
		{3, 1, 4, 3},
		{4, 1, 5, 3},
		{4, 0, 5, 4},
		{0, 1, 1, -1},
		{0, 0, 1, 0},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, nativeIndex(tt.i, tt.loc, tt.n), "nativeIndex(%d, %d, %d)", tt.i, tt.loc, tt.n)
	}
}
