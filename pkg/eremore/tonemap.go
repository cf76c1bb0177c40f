package eremore

import (
	"fmt"
	"math"

	"github.com/sirupsen/logrus"
)

// Tone mapper engine names.
const (
	ToneLinear = "linear"
	ToneLog    = "log"
	ToneGamma  = "gamma"
)

// DefaultInputMagnitude is the lookup table size for 14-bit sensors.
const DefaultInputMagnitude = 1 << 14

// Levels are the black and white points of a tone curve.
// InputBlackLevelCorrection is subtracted from every sample before clipping.
type Levels struct {
	InputBlackLevelCorrection float64
	InputBlack                float64
	InputWhite                float64
	OutputBlack               float64
	OutputWhite               float64
}

// DefaultLevels maps a 14-bit sensor range onto 8-bit output.
func DefaultLevels() Levels {
	return Levels{
		InputBlack:  0,
		InputWhite:  DefaultInputMagnitude - 1,
		OutputBlack: 0,
		OutputWhite: 255,
	}
}

func (l Levels) Validate() error {
	for _, v := range []float64{l.InputBlackLevelCorrection, l.InputBlack, l.InputWhite, l.OutputBlack, l.OutputWhite} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: non-finite level in %+v", ErrNumericDomain, l)
		}
	}
	if l.InputWhite <= l.InputBlack {
		return fmt.Errorf("%w: input white level %g must exceed input black level %g",
			ErrNumericDomain, l.InputWhite, l.InputBlack)
	}
	if l.OutputWhite < l.OutputBlack {
		return fmt.Errorf("%w: output white level %g is below output black level %g",
			ErrNumericDomain, l.OutputWhite, l.OutputBlack)
	}
	return nil
}

// ToneCurve maps a corrected, clipped input sample to the output range.
type ToneCurve func(v float64, l Levels, gamma float64) float64

func linearCurve(v float64, l Levels, _ float64) float64 {
	return (v-l.InputBlack)*(l.OutputWhite-l.OutputBlack)/(l.InputWhite-l.InputBlack) + l.OutputBlack
}

func logCurve(v float64, l Levels, _ float64) float64 {
	return math.Log(v-l.InputBlack+1)*(l.OutputWhite-l.OutputBlack)/math.Log(l.InputWhite-l.InputBlack+1) + l.OutputBlack
}

func gammaCurve(v float64, l Levels, gamma float64) float64 {
	n := (v - l.InputBlack) / (l.InputWhite - l.InputBlack)
	return math.Pow(n, gamma)*(l.OutputWhite-l.OutputBlack) + l.OutputBlack
}

type lutKey struct {
	engine    string
	levels    Levels
	gamma     float64
	magnitude int
}

// ToneMapper remaps sensor values onto a display range.
type ToneMapper struct {
	stageBase
	engines   *Registry[ToneCurve]
	levels    Levels
	gamma     float64
	magnitude int
	useLUT    bool

	lut    []float64
	lutFor lutKey
}

// NewToneMapper builds a tone mapper with the given engine active. Gamma
// defaults to 1 and the lookup table fast path is enabled.
func NewToneMapper(engine string, levels Levels, opts ...StageOption) (*ToneMapper, error) {
	if err := levels.Validate(); err != nil {
		return nil, err
	}
	t := &ToneMapper{
		stageBase: newStageBase(ToneMapperName, opts),
		engines:   NewRegistry[ToneCurve]("ToneMapper"),
		levels:    levels,
		gamma:     1,
		magnitude: DefaultInputMagnitude,
		useLUT:    true,
	}
	t.engines.Register(ToneLinear, linearCurve)
	t.engines.Register(ToneLog, logCurve)
	t.engines.Register(ToneGamma, gammaCurve)
	t.engines.RegisterAlias("gamma_correction", ToneGamma)
	if err := t.engines.Select(engine); err != nil {
		return nil, err
	}
	return t, nil
}

func (t *ToneMapper) SelectEngine(name string) error { return t.engines.Select(name) }
func (t *ToneMapper) Engines() []string              { return t.engines.Names() }

func (t *ToneMapper) Engine() string {
	name, _, _ := t.engines.Active()
	return name
}

func (t *ToneMapper) Levels() Levels      { return t.levels }
func (t *ToneMapper) Gamma() float64      { return t.gamma }
func (t *ToneMapper) InputMagnitude() int { return t.magnitude }

func (t *ToneMapper) SetLevels(l Levels) error {
	if err := l.Validate(); err != nil {
		return err
	}
	t.levels = l
	return nil
}

// SetGamma sets the exponent used by the gamma engine.
func (t *ToneMapper) SetGamma(gamma float64) error {
	if gamma <= 0 || math.IsNaN(gamma) || math.IsInf(gamma, 0) {
		return fmt.Errorf("%w: gamma must be positive and finite, got %g", ErrNumericDomain, gamma)
	}
	t.gamma = gamma
	return nil
}

// SetInputMagnitude sets the lookup table size, i.e. one past the largest raw value.
func (t *ToneMapper) SetInputMagnitude(n int) error {
	if n <= 0 || n > 1<<24 {
		return fmt.Errorf("%w: input magnitude %d out of range", ErrNumericDomain, n)
	}
	t.magnitude = n
	return nil
}

// SetLookupTable enables or disables the lookup table fast path.
func (t *ToneMapper) SetLookupTable(enabled bool) { t.useLUT = enabled }

// MapValue applies the full transform to one raw sample: black level
// correction, input clipping, the active curve and output clipping.
func (t *ToneMapper) MapValue(v float64) float64 {
	_, curve, _ := t.engines.Active()
	return t.mapValue(curve, v)
}

func (t *ToneMapper) mapValue(curve ToneCurve, v float64) float64 {
	l := t.levels
	v = clampFloat64(v-l.InputBlackLevelCorrection, l.InputBlack, l.InputWhite)
	return clampFloat64(curve(v, l, t.gamma), l.OutputBlack, l.OutputWhite)
}

// lookupTable returns the table for the current parameters, rebuilding it
// when any of them changed since the last build.
func (t *ToneMapper) lookupTable() []float64 {
	name, curve, _ := t.engines.Active()
	key := lutKey{engine: name, levels: t.levels, gamma: t.gamma, magnitude: t.magnitude}
	if t.lut != nil && t.lutFor == key {
		return t.lut
	}
	lut := make([]float64, t.magnitude)
	for i := range lut {
		lut[i] = t.mapValue(curve, float64(i))
	}
	t.lut, t.lutFor = lut, key
	return lut
}

// indexable reports whether every sample is an integer inside the table.
func indexable(b *Buffer, magnitude int) bool {
	limit := float64(magnitude)
	for _, v := range b.Data() {
		if v < 0 || v >= limit || v != math.Trunc(v) {
			return false
		}
	}
	return true
}

func (t *ToneMapper) Process(img *Image) (*Image, error) {
	name, curve, _ := t.engines.Active()
	log := t.logger(name)
	if err := t.levels.Validate(); err != nil {
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"input_black_level_correction": t.levels.InputBlackLevelCorrection,
		"input_black_level":            t.levels.InputBlack,
		"input_white_level":            t.levels.InputWhite,
		"output_black_level":           t.levels.OutputBlack,
		"output_white_level":           t.levels.OutputWhite,
		"gamma":                        t.gamma,
		"image":                        img.String(),
	}).Debug("Tone mapping")

	err := measure(log, func() error {
		data := img.Pixels.Data()
		if t.useLUT && indexable(img.Pixels, t.magnitude) {
			lut := t.lookupTable()
			for i, v := range data {
				data[i] = lut[int(v)]
			}
		} else {
			for i, v := range data {
				data[i] = t.mapValue(curve, v)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if len(img.CameraWhiteBalance) == 3 {
		for i, m := range img.CameraWhiteBalance {
			img.CameraWhiteBalance[i] = curve(m-t.levels.InputBlackLevelCorrection, t.levels, t.gamma)
		}
		log.WithField("camera_wb", img.CameraWhiteBalance).Debug("Tone mapped camera white balance")
	}
	return img, nil
}

// InverseLinear maps an output of the linear curve back to the raw input
// domain, undoing the black level correction as well. A zero output range
// collapses onto the input black level.
func InverseLinear(v float64, l Levels) float64 {
	out := l.OutputWhite - l.OutputBlack
	if out == 0 {
		return l.InputBlack + l.InputBlackLevelCorrection
	}
	return (v-l.OutputBlack)*(l.InputWhite-l.InputBlack)/out + l.InputBlack + l.InputBlackLevelCorrection
}
