package eremore

import (
	"fmt"
	"math"
)

// Channel indices of a three-channel buffer.
const (
	Red   = 0
	Green = 1
	Blue  = 2
)

// Buffer is a row-major sample array holding either a single-channel CFA mosaic
// or a three-channel RGB image. Channels are interleaved per pixel.
type Buffer struct {
	data     []float64
	rows     int
	cols     int
	channels int
}

// NewBuffer allocates a zeroed buffer. channels must be 1 or 3.
func NewBuffer(rows, cols, channels int) *Buffer {
	if rows <= 0 || cols <= 0 {
		panic(fmt.Sprintf("eremore: invalid buffer size %dx%d", rows, cols))
	}
	if channels != 1 && channels != 3 {
		panic(fmt.Sprintf("eremore: unsupported channel count %d", channels))
	}
	return &Buffer{
		data:     make([]float64, rows*cols*channels),
		rows:     rows,
		cols:     cols,
		channels: channels,
	}
}

// NewBufferFrom wraps data without copying it.
func NewBufferFrom(rows, cols, channels int, data []float64) (*Buffer, error) {
	if rows <= 0 || cols <= 0 {
		return nil, fmt.Errorf("%w: invalid buffer size %dx%d", ErrShapeMismatch, rows, cols)
	}
	if channels != 1 && channels != 3 {
		return nil, fmt.Errorf("%w: unsupported channel count %d", ErrShapeMismatch, channels)
	}
	if len(data) != rows*cols*channels {
		return nil, fmt.Errorf("%w: %d samples for a %dx%dx%d buffer", ErrShapeMismatch, len(data), rows, cols, channels)
	}
	return &Buffer{data: data, rows: rows, cols: cols, channels: channels}, nil
}

// MosaicFromUint16 converts raw sensor samples into a single-channel buffer.
func MosaicFromUint16(pixels []uint16, width, height int) (*Buffer, error) {
	if len(pixels) != width*height {
		return nil, fmt.Errorf("%w: %d samples for a %dx%d mosaic", ErrShapeMismatch, len(pixels), width, height)
	}
	b := NewBuffer(height, width, 1)
	for i, p := range pixels {
		b.data[i] = float64(p)
	}
	return b, nil
}

func (b *Buffer) Rows() int     { return b.rows }
func (b *Buffer) Cols() int     { return b.cols }
func (b *Buffer) Channels() int { return b.channels }
func (b *Buffer) Len() int      { return len(b.data) }

// Data returns the backing slice.
func (b *Buffer) Data() []float64 { return b.data }

func (b *Buffer) index(r, c, ch int) int {
	return (r*b.cols+c)*b.channels + ch
}

func (b *Buffer) At(r, c, ch int) float64 {
	return b.data[b.index(r, c, ch)]
}

func (b *Buffer) Set(r, c, ch int, v float64) {
	b.data[b.index(r, c, ch)] = v
}

func (b *Buffer) Clone() *Buffer {
	data := make([]float64, len(b.data))
	copy(data, b.data)
	return &Buffer{data: data, rows: b.rows, cols: b.cols, channels: b.channels}
}

// SameShape reports whether both buffers have identical dimensions.
func (b *Buffer) SameShape(o *Buffer) bool {
	return b.rows == o.rows && b.cols == o.cols && b.channels == o.channels
}

// Equal reports whether both buffers have the same shape and samples.
func (b *Buffer) Equal(o *Buffer) bool {
	if !b.SameShape(o) {
		return false
	}
	for i, v := range b.data {
		if v != o.data[i] {
			return false
		}
	}
	return true
}

// Plane copies one channel into a rows*cols slice.
func (b *Buffer) Plane(ch int) []float64 {
	n := b.rows * b.cols
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = b.data[i*b.channels+ch]
	}
	return out
}

// Apply replaces every sample with f(sample).
func (b *Buffer) Apply(f func(float64) float64) {
	for i, v := range b.data {
		b.data[i] = f(v)
	}
}

// Clip clamps every sample to [lo, hi].
func (b *Buffer) Clip(lo, hi float64) {
	for i, v := range b.data {
		b.data[i] = clampFloat64(v, lo, hi)
	}
}

// MinMax returns the smallest and largest sample.
func (b *Buffer) MinMax() (float64, float64) {
	lo, hi := math.Inf(1), math.Inf(-1)
	for _, v := range b.data {
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi
}

func (b *Buffer) String() string {
	return fmt.Sprintf("{shape=(%d,%d,%d)}", b.rows, b.cols, b.channels)
}

func clampFloat64(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
