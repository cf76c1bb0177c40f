package eremore

import (
	"fmt"

	"github.com/sirupsen/logrus"
)

// Demosaicer engine names.
const (
	DemosaicSplit  = "split"
	DemosaicCopy   = "copy"
	DemosaicLinear = "linear"
)

// DemosaicFunc reconstructs a three-channel image from a single-channel mosaic.
type DemosaicFunc func(mosaic *Buffer, p CFAPattern) *Buffer

// Demosaicer is the CFA reconstruction stage.
type Demosaicer struct {
	stageBase
	pattern CFAPattern
	engines *Registry[DemosaicFunc]
}

// NewDemosaicer builds a demosaicer with the given engine active.
func NewDemosaicer(engine string, blue CFAOffset, opts ...StageOption) (*Demosaicer, error) {
	pattern, err := NewCFAPattern(blue)
	if err != nil {
		return nil, err
	}
	d := &Demosaicer{
		stageBase: newStageBase(DemosaicerName, opts),
		pattern:   pattern,
		engines:   NewRegistry[DemosaicFunc]("Demosaicer"),
	}
	d.engines.Register(DemosaicSplit, SplitBayer)
	d.engines.Register(DemosaicCopy, FillNearest)
	d.engines.Register(DemosaicLinear, InterpolateBilinear)
	d.engines.RegisterAlias("bayer_splitter", DemosaicSplit)
	if err := d.engines.Select(engine); err != nil {
		return nil, err
	}
	return d, nil
}

// SelectEngine switches the active reconstruction algorithm.
func (d *Demosaicer) SelectEngine(name string) error { return d.engines.Select(name) }

// Engines lists the available reconstruction algorithms.
func (d *Demosaicer) Engines() []string { return d.engines.Names() }

func (d *Demosaicer) Engine() string {
	name, _, _ := d.engines.Active()
	return name
}

// SetBlueLocation changes the CFA layout. The pattern is left unchanged on error.
func (d *Demosaicer) SetBlueLocation(blue CFAOffset) error {
	pattern, err := NewCFAPattern(blue)
	if err != nil {
		return err
	}
	d.pattern = pattern
	return nil
}

func (d *Demosaicer) Pattern() CFAPattern { return d.pattern }

func (d *Demosaicer) Process(img *Image) (*Image, error) {
	name, fn, _ := d.engines.Active()
	log := d.logger(name)
	if img.Pixels.Channels() != 1 {
		return nil, fmt.Errorf("%w: demosaicing needs a single-channel mosaic, got %d channels",
			ErrShapeMismatch, img.Pixels.Channels())
	}
	log.WithFields(logrus.Fields{
		"blue_loc": d.pattern.Blue.String(),
		"pattern":  d.pattern.BayerName(),
		"image":    img.String(),
	}).Debug("Demosaicing")

	var out *Buffer
	_ = measure(log, func() error {
		out = fn(img.Pixels, d.pattern)
		return nil
	})
	return img.withPixels(out), nil
}

// SplitBayer moves every mosaic sample into its native channel and leaves the
// other two channels zero.
func SplitBayer(mosaic *Buffer, p CFAPattern) *Buffer {
	rows, cols := mosaic.Rows(), mosaic.Cols()
	out := NewBuffer(rows, cols, 3)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			out.Set(r, c, p.Channel(r, c), mosaic.At(r, c, 0))
		}
	}
	return out
}

// FillNearest replicates each sample into the missing positions of its 2x2
// tile. Red and blue are copied along the row and then the completed row is
// copied into the other row; green is copied along its row.
func FillNearest(mosaic *Buffer, p CFAPattern) *Buffer {
	rows, cols := mosaic.Rows(), mosaic.Cols()
	out := SplitBayer(mosaic, p)
	for _, cc := range [2]struct {
		loc CFAOffset
		ch  int
	}{{p.Red, Red}, {p.Blue, Blue}} {
		for r := 0; r < rows; r++ {
			nr := nativeIndex(r, cc.loc.Row, rows)
			for c := 0; c < cols; c++ {
				nc := nativeIndex(c, cc.loc.Col, cols)
				if nr < 0 || nc < 0 {
					continue
				}
				out.Set(r, c, cc.ch, mosaic.At(nr, nc, 0))
			}
		}
	}
	for r := 0; r < rows; r++ {
		gc := p.GreenCol[r%2]
		for c := 0; c < cols; c++ {
			if nc := nativeIndex(c, gc, cols); nc >= 0 {
				out.Set(r, c, Green, mosaic.At(r, nc, 0))
			}
		}
	}
	return out
}

var (
	tapsHorizontal = [][2]int{{0, -1}, {0, 1}}
	tapsVertical   = [][2]int{{-1, 0}, {1, 0}}
	tapsDiagonal   = [][2]int{{-1, -1}, {-1, 1}, {1, -1}, {1, 1}}
	tapsCross      = [][2]int{{-1, 0}, {0, -1}, {0, 1}, {1, 0}}
)

// InterpolateBilinear fills red and blue from their two horizontal, two
// vertical or four diagonal neighbours, and green from its four cross
// neighbours. Taps outside the image are dropped from the average.
func InterpolateBilinear(mosaic *Buffer, p CFAPattern) *Buffer {
	rows, cols := mosaic.Rows(), mosaic.Cols()
	out := SplitBayer(mosaic, p)
	for _, cc := range [2]struct {
		loc CFAOffset
		ch  int
	}{{p.Red, Red}, {p.Blue, Blue}} {
		for r := 0; r < rows; r++ {
			sameRow := r%2 == cc.loc.Row
			for c := 0; c < cols; c++ {
				sameCol := c%2 == cc.loc.Col
				var taps [][2]int
				switch {
				case sameRow && sameCol:
					continue
				case sameRow:
					taps = tapsHorizontal
				case sameCol:
					taps = tapsVertical
				default:
					taps = tapsDiagonal
				}
				out.Set(r, c, cc.ch, averageTaps(mosaic, r, c, taps))
			}
		}
	}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			if p.Channel(r, c) != Green {
				out.Set(r, c, Green, averageTaps(mosaic, r, c, tapsCross))
			}
		}
	}
	return out
}

func averageTaps(m *Buffer, r, c int, taps [][2]int) float64 {
	var sum float64
	var n int
	for _, t := range taps {
		rr, cc := r+t[0], c+t[1]
		if rr < 0 || rr >= m.Rows() || cc < 0 || cc >= m.Cols() {
			continue
		}
		sum += m.At(rr, cc, 0)
		n++
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}
