package eremore

import (
	"fmt"
	"math"
	"slices"

	"github.com/samber/lo"
)

// StatisticsFlags controls which channel statistics to compute.
type StatisticsFlags int

const (
	StatNone   StatisticsFlags = 0
	StatMean   StatisticsFlags = 1
	StatMedian StatisticsFlags = 2
	StatStdDev StatisticsFlags = 4
	StatMinMax StatisticsFlags = 8
	StatAll    StatisticsFlags = StatMean | StatMedian | StatStdDev | StatMinMax
)

// ChannelStatistics holds the statistics of one channel.
type ChannelStatistics struct {
	Mean   float64
	Median float64
	StdDev float64
	Min    float64
	Max    float64
}

func (s ChannelStatistics) String() string {
	return fmt.Sprintf("{Mean=%f, Median=%f, StdDev=%f, Min=%f, Max=%f}", s.Mean, s.Median, s.StdDev, s.Min, s.Max)
}

// CalculateStatistics computes the requested statistics for every channel of b.
func CalculateStatistics(b *Buffer, flags StatisticsFlags) []ChannelStatistics {
	result := make([]ChannelStatistics, b.Channels())
	for ch := range result {
		plane := b.Plane(ch)
		var s ChannelStatistics
		if flags&(StatMean|StatStdDev) != 0 {
			s.Mean = lo.Sum(plane) / float64(len(plane))
		}
		if flags&StatStdDev != 0 && len(plane) > 1 {
			var sse float64
			for _, v := range plane {
				d := v - s.Mean
				sse += d * d
			}
			s.StdDev = math.Sqrt(sse / float64(len(plane)-1))
		}
		if flags&(StatMedian|StatMinMax) != 0 {
			slices.Sort(plane)
			s.Median = percentileSorted(plane, 50)
			s.Min, s.Max = plane[0], plane[len(plane)-1]
		}
		result[ch] = s
	}
	return result
}

// ChannelMeans returns the arithmetic mean of each channel.
func ChannelMeans(b *Buffer) []float64 {
	return lo.Map(CalculateStatistics(b, StatMean), func(s ChannelStatistics, _ int) float64 {
		return s.Mean
	})
}

// ChannelPercentiles returns the q-th percentile (0..100) of each channel.
func ChannelPercentiles(b *Buffer, q float64) ([]float64, error) {
	if q < 0 || q > 100 || math.IsNaN(q) {
		return nil, fmt.Errorf("%w: percentile %g outside [0, 100]", ErrNumericDomain, q)
	}
	out := make([]float64, b.Channels())
	for ch := range out {
		plane := b.Plane(ch)
		slices.Sort(plane)
		out[ch] = percentileSorted(plane, q)
	}
	return out, nil
}

// Percentile returns the q-th percentile (0..100) of values using linear
// interpolation between closest ranks. values is not modified.
func Percentile(values []float64, q float64) float64 {
	if len(values) == 0 {
		return math.NaN()
	}
	sorted := slices.Clone(values)
	slices.Sort(sorted)
	return percentileSorted(sorted, q)
}

func percentileSorted(sorted []float64, q float64) float64 {
	pos := q / 100 * float64(len(sorted)-1)
	below := int(math.Floor(pos))
	above := int(math.Ceil(pos))
	if above >= len(sorted) {
		above = len(sorted) - 1
	}
	frac := pos - float64(below)
	return sorted[below] + (sorted[above]-sorted[below])*frac
}

// Histogram counts the samples of one channel into bins equal-width buckets
// spanning [low, high]. Samples outside the range land in the edge buckets.
func Histogram(b *Buffer, ch, bins int, low, high float64) []int {
	counts := make([]int, bins)
	if bins == 0 || high <= low {
		return counts
	}
	width := (high - low) / float64(bins)
	n := b.Rows() * b.Cols()
	data := b.Data()
	for i := 0; i < n; i++ {
		idx := int(math.Floor((data[i*b.Channels()+ch] - low) / width))
		if idx < 0 {
			idx = 0
		}
		if idx >= bins {
			idx = bins - 1
		}
		counts[idx]++
	}
	return counts
}
