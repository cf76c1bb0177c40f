package eremore

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPercentile(t *testing.T) {
	values := []float64{4, 1, 3, 2}
	tests := []struct {
		q    float64
		want float64
	}{
		{0, 1},
		{25, 1.75},
		{50, 2.5},
		{100, 4},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, Percentile(values, tt.q), 1e-12, "q=%g", tt.q)
	}
	assert.Equal(t, []float64{4, 1, 3, 2}, values)
	assert.True(t, math.IsNaN(Percentile(nil, 50)))
}

func TestCalculateStatistics(t *testing.T) {
	b := rgbOf(1, 4, func(_, c, ch int) float64 { return float64((c + 1) * (ch + 1)) })
	stats := CalculateStatistics(b, StatAll)
	require.Len(t, stats, 3)

	assert.InDelta(t, 2.5, stats[Red].Mean, 1e-12)
	assert.InDelta(t, 2.5, stats[Red].Median, 1e-12)
	assert.InDelta(t, math.Sqrt(5.0/3), stats[Red].StdDev, 1e-12)
	assert.Equal(t, 3.0, stats[Blue].Min)
	assert.Equal(t, 12.0, stats[Blue].Max)

	assert.InDeltaSlice(t, []float64{2.5, 5, 7.5}, ChannelMeans(b), 1e-12)

	_, err := ChannelPercentiles(b, -1)
	assert.ErrorIs(t, err, ErrNumericDomain)
}

func TestHistogram(t *testing.T) {
	b := mosaicOf(1, 6, func(_, c int) float64 { return []float64{-5, 0, 63.9, 64, 255, 400}[c] })
	counts := Histogram(b, 0, 4, 0, 256)
	assert.Equal(t, []int{3, 1, 0, 2}, counts)
	assert.Equal(t, []int{0, 0}, Histogram(b, 0, 2, 10, 10))
}
