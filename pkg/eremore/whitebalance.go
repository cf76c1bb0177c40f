package eremore

import (
	"fmt"
	"math"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

// White balancer engine names.
const (
	WhiteBalanceCamera     = "camera"
	WhiteBalanceWhitePatch = "white_patch"
	WhiteBalanceGrayWorld  = "gray_world"
	WhiteBalanceRGBScale   = "rgb_scale"
)

// DefaultPercentile is the white patch percentile used when none is configured.
const DefaultPercentile = 97

// unityTolerance absorbs the rounding left by normalising equal scales.
const unityTolerance = 1e-12

// ScaleEstimator computes the final, already normalised channel scales for img.
type ScaleEstimator func(w *WhiteBalancer, img *Image, log logrus.FieldLogger) ([3]float64, error)

// WhiteBalancer scales each channel so that the estimated illuminant becomes neutral.
type WhiteBalancer struct {
	stageBase
	engines    *Registry[ScaleEstimator]
	percentile float64
	scales     [3]float64
	normalize  bool
}

// NewWhiteBalancer builds a white balancer with the given engine active.
func NewWhiteBalancer(engine string, opts ...StageOption) (*WhiteBalancer, error) {
	w := &WhiteBalancer{
		stageBase:  newStageBase(WhiteBalancerName, opts),
		engines:    NewRegistry[ScaleEstimator]("WhiteBalancer"),
		percentile: DefaultPercentile,
		scales:     [3]float64{1, 1, 1},
	}
	w.engines.Register(WhiteBalanceCamera, cameraScales)
	w.engines.Register(WhiteBalanceWhitePatch, whitePatchScales)
	w.engines.Register(WhiteBalanceGrayWorld, grayWorldScales)
	w.engines.Register(WhiteBalanceRGBScale, fixedScales)
	if err := w.engines.Select(engine); err != nil {
		return nil, err
	}
	return w, nil
}

func (w *WhiteBalancer) SelectEngine(name string) error { return w.engines.Select(name) }
func (w *WhiteBalancer) Engines() []string              { return w.engines.Names() }

func (w *WhiteBalancer) Engine() string {
	name, _, _ := w.engines.Active()
	return name
}

func (w *WhiteBalancer) Percentile() float64 { return w.percentile }
func (w *WhiteBalancer) Scales() [3]float64  { return w.scales }
func (w *WhiteBalancer) Normalize() bool     { return w.normalize }

// SetPercentile sets the white patch percentile on a 0..100 scale.
func (w *WhiteBalancer) SetPercentile(p float64) error {
	if p < 0 || p > 100 || math.IsNaN(p) {
		return fmt.Errorf("%w: percentile %g outside [0, 100]", ErrNumericDomain, p)
	}
	w.percentile = p
	return nil
}

// SetScales sets the fixed scales used by the rgb_scale engine.
func (w *WhiteBalancer) SetScales(s [3]float64) error {
	if err := checkScales(s); err != nil {
		return err
	}
	w.scales = s
	return nil
}

// SetNormalize controls whether fixed scales are normalised to mean 1.
func (w *WhiteBalancer) SetNormalize(enabled bool) { w.normalize = enabled }

func (w *WhiteBalancer) Process(img *Image) (*Image, error) {
	name, estimate, _ := w.engines.Active()
	log := w.logger(name)
	if img.Pixels.Channels() != 3 {
		return nil, fmt.Errorf("%w: white balancing needs three channels, got %d",
			ErrShapeMismatch, img.Pixels.Channels())
	}

	var scales [3]float64
	err := measure(log, func() error {
		var err error
		if scales, err = estimate(w, img, log); err != nil {
			return err
		}
		log.WithFields(logrus.Fields{
			"scales": scales,
			"image":  img.String(),
		}).Debug("White balancing")
		ApplyChannelScales(img.Pixels, scales)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return img, nil
}

func cameraScales(_ *WhiteBalancer, img *Image, log logrus.FieldLogger) ([3]float64, error) {
	return NormalizeScales(img.CameraScales(log))
}

func whitePatchScales(w *WhiteBalancer, img *Image, _ logrus.FieldLogger) ([3]float64, error) {
	s, err := WhitePatchScales(img.Pixels, w.percentile)
	if err != nil {
		return s, err
	}
	return NormalizeScales(s)
}

func grayWorldScales(_ *WhiteBalancer, img *Image, _ logrus.FieldLogger) ([3]float64, error) {
	s, err := GrayWorldScales(img.Pixels)
	if err != nil {
		return s, err
	}
	return NormalizeScales(s)
}

func fixedScales(w *WhiteBalancer, _ *Image, _ logrus.FieldLogger) ([3]float64, error) {
	if w.normalize {
		return NormalizeScales(w.scales)
	}
	return w.scales, checkScales(w.scales)
}

// GrayWorldScales returns 1/mean for each channel.
func GrayWorldScales(b *Buffer) ([3]float64, error) {
	return reciprocalScales(ChannelMeans(b), "mean")
}

// WhitePatchScales returns 1/percentile for each channel, percentile on a 0..100 scale.
func WhitePatchScales(b *Buffer, percentile float64) ([3]float64, error) {
	values, err := ChannelPercentiles(b, percentile)
	if err != nil {
		return [3]float64{}, err
	}
	return reciprocalScales(values, "percentile")
}

func reciprocalScales(values []float64, what string) ([3]float64, error) {
	var s [3]float64
	if len(values) != 3 {
		return s, fmt.Errorf("%w: expected three channel %ss, got %d", ErrShapeMismatch, what, len(values))
	}
	for i, v := range values {
		if v == 0 {
			return s, fmt.Errorf("%w: channel %d has a zero %s", ErrNumericDomain, i, what)
		}
		s[i] = 1 / v
	}
	return s, checkScales(s)
}

// NormalizeScales rescales s so that its mean is 1.
func NormalizeScales(s [3]float64) ([3]float64, error) {
	if err := checkScales(s); err != nil {
		return s, err
	}
	sum := lo.Sum(s[:])
	if sum == 0 {
		return s, fmt.Errorf("%w: scales %v sum to zero", ErrNumericDomain, s)
	}
	for i := range s {
		s[i] = s[i] * 3 / sum
	}
	return s, nil
}

func checkScales(s [3]float64) error {
	ok := lo.EveryBy(s[:], func(v float64) bool {
		return v >= 0 && !math.IsNaN(v) && !math.IsInf(v, 0)
	})
	if !ok {
		return fmt.Errorf("%w: scales %v must be finite and non-negative", ErrNumericDomain, s)
	}
	return nil
}

// ApplyChannelScales multiplies each channel by its scale. Unit scales leave
// the buffer untouched.
func ApplyChannelScales(b *Buffer, s [3]float64) {
	unity := lo.EveryBy(s[:], func(v float64) bool { return math.Abs(v-1) <= unityTolerance })
	if unity {
		return
	}
	data := b.Data()
	for i := range data {
		data[i] *= s[i%3]
	}
}
