package eremore

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/jpeg"
	"os"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

const (
	histogramBins    = 256
	histogramWidth   = 768
	histogramHeight  = 256
	histogramMargin  = 16
	histogramCaption = 24
)

var channelColors = []color.RGBA{
	{255, 80, 80, 255},
	{80, 220, 80, 255},
	{90, 140, 255, 255},
}

// RenderHistogram draws the per-channel histograms of img and writes them to
// outputPath as a JPEG.
func RenderHistogram(img *Image, outputPath string) error {
	m, err := renderHistogramImage(img)
	if err != nil {
		return err
	}
	f, err := os.Create(outputPath)
	if err != nil {
		return fmt.Errorf("create histogram file: %w", err)
	}
	defer f.Close()
	return jpeg.Encode(f, m, &jpeg.Options{Quality: 90})
}

// RenderHistogramBytes draws the per-channel histograms of img and returns
// them as JPEG bytes.
func RenderHistogramBytes(img *Image) ([]byte, error) {
	m, err := renderHistogramImage(img)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, m, &jpeg.Options{Quality: 90}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func renderHistogramImage(img *Image) (*image.RGBA, error) {
	if img == nil || img.Pixels == nil {
		return nil, errors.New("no image to draw a histogram for")
	}
	b := img.Pixels
	stats := CalculateStatistics(b, StatMean|StatMinMax)

	// 8-bit output is binned per level, anything wider spans its own maximum.
	high := 256.0
	for _, s := range stats {
		if s.Max >= high {
			high = s.Max + 1
		}
	}

	plotW, plotH := histogramWidth, histogramHeight
	captionH := histogramCaption * len(stats)
	totalW := plotW + 2*histogramMargin
	totalH := plotH + 2*histogramMargin + captionH
	out := image.NewRGBA(image.Rect(0, 0, totalW, totalH))
	draw.Draw(out, out.Bounds(), image.NewUniform(color.RGBA{0, 0, 0, 255}), image.Point{}, draw.Src)

	x0, y0 := histogramMargin, histogramMargin
	gridColor := color.RGBA{90, 90, 90, 255}
	for i := 0; i <= 4; i++ {
		x := x0 + i*plotW/4
		drawLine(out, x, y0, x, y0+plotH, gridColor)
		y := y0 + i*plotH/4
		drawLine(out, x0, y, x0+plotW, y, gridColor)
	}

	hists := make([][]int, len(stats))
	peak := 1
	for ch := range stats {
		hists[ch] = Histogram(b, ch, histogramBins, 0, high)
		for _, n := range hists[ch] {
			peak = max(peak, n)
		}
	}

	for ch, counts := range hists {
		c := channelColors[ch%len(channelColors)]
		if len(stats) == 1 {
			c = color.RGBA{220, 220, 220, 255}
		}
		px, py := -1, -1
		for i, n := range counts {
			x := x0 + i*plotW/histogramBins
			y := y0 + plotH - n*plotH/peak
			if px >= 0 {
				drawLine(out, px, py, x, y, c)
			}
			px, py = x, y
		}
	}

	face := basicfont.Face7x13
	names := []string{"R", "G", "B"}
	if len(stats) == 1 {
		names = []string{"L"}
	}
	for ch, s := range stats {
		line := fmt.Sprintf("%s  mean=%.2f  min=%.2f  max=%.2f", names[ch], s.Mean, s.Min, s.Max)
		y := y0 + plotH + histogramMargin + (ch+1)*histogramCaption - 8
		drawText(out, face, line, x0, y, color.RGBA{220, 220, 220, 255})
	}
	return out, nil
}

// drawText draws a string at (x, y) using the given font face.
func drawText(img *image.RGBA, face font.Face, s string, x, y int, c color.RGBA) {
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(c),
		Face: face,
		Dot:  fixed.P(x, y),
	}
	d.DrawString(s)
}

// drawLine draws a line between two points using Bresenham's algorithm.
func drawLine(img *image.RGBA, x0, y0, x1, y1 int, c color.RGBA) {
	dx := intAbs(x1 - x0)
	dy := -intAbs(y1 - y0)
	sx, sy := 1, 1
	if x0 > x1 {
		sx = -1
	}
	if y0 > y1 {
		sy = -1
	}
	err := dx + dy
	for {
		img.Set(x0, y0, c)
		if x0 == x1 && y0 == y1 {
			break
		}
		e2 := 2 * err
		if e2 >= dy {
			err += dy
			x0 += sx
		}
		if e2 <= dx {
			err += dx
			y0 += sy
		}
	}
}

func intAbs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
