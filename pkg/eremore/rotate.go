package eremore

import "github.com/sirupsen/logrus"

// Rotator engine names.
const (
	RotateQuarterTurns = "90"
	RotateLeftName     = "left"
	RotateRightName    = "right"
)

// RotateK rotates b by k quarter turns counter-clockwise. Negative k turns
// clockwise. The channel axis is left untouched.
func RotateK(b *Buffer, k int) *Buffer {
	k = ((k % 4) + 4) % 4
	if k == 0 {
		return b.Clone()
	}
	rows, cols, chans := b.Rows(), b.Cols(), b.Channels()
	outRows, outCols := rows, cols
	if k%2 == 1 {
		outRows, outCols = cols, rows
	}
	out := NewBuffer(outRows, outCols, chans)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			var nr, nc int
			switch k {
			case 1:
				nr, nc = cols-1-c, r
			case 2:
				nr, nc = rows-1-r, cols-1-c
			case 3:
				nr, nc = c, rows-1-r
			}
			for ch := 0; ch < chans; ch++ {
				out.Set(nr, nc, ch, b.At(r, c, ch))
			}
		}
	}
	return out
}

// RotateLeft turns b a quarter counter-clockwise.
func RotateLeft(b *Buffer) *Buffer { return RotateK(b, 1) }

// RotateRight turns b a quarter clockwise.
func RotateRight(b *Buffer) *Buffer { return RotateK(b, 3) }

// rotation returns the number of counter-clockwise quarter turns to apply.
type rotation func(r *Rotator) int

// Rotator is the orientation stage.
type Rotator struct {
	stageBase
	engines *Registry[rotation]
	k       int
}

// NewRotator builds a rotator with the given engine active and k quarter turns
// for the "90" engine.
func NewRotator(engine string, k int, opts ...StageOption) (*Rotator, error) {
	r := &Rotator{
		stageBase: newStageBase(RotatorName, opts),
		engines:   NewRegistry[rotation]("Rotator"),
		k:         k,
	}
	r.engines.Register(RotateQuarterTurns, func(r *Rotator) int { return r.k })
	r.engines.Register(RotateLeftName, func(*Rotator) int { return 1 })
	r.engines.Register(RotateRightName, func(*Rotator) int { return 3 })
	if err := r.engines.Select(engine); err != nil {
		return nil, err
	}
	return r, nil
}

func (r *Rotator) SelectEngine(name string) error { return r.engines.Select(name) }
func (r *Rotator) Engines() []string              { return r.engines.Names() }

func (r *Rotator) Engine() string {
	name, _, _ := r.engines.Active()
	return name
}

func (r *Rotator) QuarterTurns() int     { return r.k }
func (r *Rotator) SetQuarterTurns(k int) { r.k = k }

func (r *Rotator) Process(img *Image) (*Image, error) {
	name, turns, _ := r.engines.Active()
	log := r.logger(name)
	k := turns(r)
	log.WithFields(logrus.Fields{
		"k":     k,
		"image": img.String(),
	}).Debug("Rotating")

	var out *Buffer
	_ = measure(log, func() error {
		out = RotateK(img.Pixels, k)
		return nil
	})
	return img.withPixels(out), nil
}
