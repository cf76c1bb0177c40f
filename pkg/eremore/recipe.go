package eremore

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

/* Example recipe ...

demosaicer:
  engine: linear
  blue_loc: auto
tone_mapper:
  engine: gamma
  input_black_level_correction: 512
  input_white_level: 16383
  gamma: 0.45
white_balancer:
  engine: white_patch
  percentile: 99
rotator:
  engine: "90"
  k: 1
camera_white_balance: [2.1, 1.0, 1.4]

*/

// BlueLocAuto takes the CFA layout from the loaded image.
const BlueLocAuto = "auto"

type DemosaicerConfig struct {
	Engine  string `yaml:"engine"`
	BlueLoc string `yaml:"blue_loc"`
}

type ToneMapperConfig struct {
	Engine                    string  `yaml:"engine"`
	InputBlackLevelCorrection float64 `yaml:"input_black_level_correction"`
	InputBlackLevel           float64 `yaml:"input_black_level"`
	InputWhiteLevel           float64 `yaml:"input_white_level"`
	OutputBlackLevel          float64 `yaml:"output_black_level"`
	OutputWhiteLevel          float64 `yaml:"output_white_level"`
	Gamma                     float64 `yaml:"gamma"`
	InputMagnitude            int     `yaml:"input_magnitude"`
	LookupTable               bool    `yaml:"lookup_table"`
}

// Levels returns the configured black and white points.
func (c ToneMapperConfig) Levels() Levels {
	return Levels{
		InputBlackLevelCorrection: c.InputBlackLevelCorrection,
		InputBlack:                c.InputBlackLevel,
		InputWhite:                c.InputWhiteLevel,
		OutputBlack:               c.OutputBlackLevel,
		OutputWhite:               c.OutputWhiteLevel,
	}
}

type WhiteBalancerConfig struct {
	Engine     string    `yaml:"engine"`
	Percentile float64   `yaml:"percentile"`
	Scales     []float64 `yaml:"scales,flow"`
	Normalize  bool      `yaml:"normalize"`
}

type RotatorConfig struct {
	Engine string `yaml:"engine"`
	K      int    `yaml:"k"`
}

// Recipe describes a whole development: which stages run, with which engine
// and parameters. A section without an engine is left out of the pipeline.
type Recipe struct {
	Demosaicer         DemosaicerConfig    `yaml:"demosaicer"`
	ToneMapper         ToneMapperConfig    `yaml:"tone_mapper"`
	WhiteBalancer      WhiteBalancerConfig `yaml:"white_balancer"`
	Rotator            RotatorConfig       `yaml:"rotator"`
	CameraWhiteBalance []float64           `yaml:"camera_white_balance,flow,omitempty"`
}

// EmptyRecipe has default parameters and no stage enabled.
func EmptyRecipe() Recipe {
	l := DefaultLevels()
	return Recipe{
		Demosaicer: DemosaicerConfig{BlueLoc: "11"},
		ToneMapper: ToneMapperConfig{
			InputBlackLevelCorrection: l.InputBlackLevelCorrection,
			InputBlackLevel:           l.InputBlack,
			InputWhiteLevel:           l.InputWhite,
			OutputBlackLevel:          l.OutputBlack,
			OutputWhiteLevel:          l.OutputWhite,
			Gamma:                     1,
			InputMagnitude:            DefaultInputMagnitude,
			LookupTable:               true,
		},
		WhiteBalancer: WhiteBalancerConfig{
			Percentile: DefaultPercentile,
			Scales:     []float64{1, 1, 1},
		},
		Rotator: RotatorConfig{K: 1},
	}
}

// DefaultRecipe develops a 14-bit mosaic with bilinear demosaicing, a linear
// tone curve and gray world white balance.
func DefaultRecipe() Recipe {
	r := EmptyRecipe()
	r.Demosaicer.Engine = DemosaicLinear
	r.Demosaicer.BlueLoc = BlueLocAuto
	r.ToneMapper.Engine = ToneLinear
	r.WhiteBalancer.Engine = WhiteBalanceGrayWorld
	return r
}

// ParseRecipe decodes YAML over EmptyRecipe and validates the result.
func ParseRecipe(data []byte) (Recipe, error) {
	r := EmptyRecipe()
	if err := yaml.Unmarshal(data, &r); err != nil {
		return r, fmt.Errorf("parse recipe: %w", err)
	}
	return r, r.Validate()
}

// LoadRecipe reads and parses a recipe file.
func LoadRecipe(filename string) (Recipe, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return EmptyRecipe(), fmt.Errorf("read recipe %q: %w", filename, err)
	}
	r, err := ParseRecipe(data)
	if err != nil {
		return r, fmt.Errorf("recipe %q: %w", filename, err)
	}
	return r, nil
}

// Marshal encodes the recipe as YAML.
func (r Recipe) Marshal() ([]byte, error) {
	return yaml.Marshal(r)
}

// Validate builds every enabled stage once so that unknown engines, CFA
// offsets and out-of-domain levels fail before any pixel is processed.
func (r Recipe) Validate() error {
	if len(r.CameraWhiteBalance) != 0 && len(r.CameraWhiteBalance) != 3 {
		return fmt.Errorf("%w: camera_white_balance needs three values, got %d",
			ErrNumericDomain, len(r.CameraWhiteBalance))
	}
	_, err := r.Stages("", nil)
	return err
}

// LoaderOptions returns the loader options implied by the recipe.
func (r Recipe) LoaderOptions() []LoaderOption {
	if len(r.CameraWhiteBalance) == 0 {
		return nil
	}
	return []LoaderOption{WithCameraWhiteBalance(r.CameraWhiteBalance)}
}

// Stages builds the enabled stages in pipeline order: demosaic, tone map,
// white balance, rotate. bayerHint resolves blue_loc "auto"; when it is
// empty RGGB is assumed.
func (r Recipe) Stages(bayerHint string, log logrus.FieldLogger) ([]Stage, error) {
	if log == nil {
		log = discardLogger()
	}
	opts := []StageOption{WithStageLogger(log)}
	var stages []Stage

	if r.Demosaicer.Engine != "" {
		blue, err := r.blueLocation(bayerHint, log)
		if err != nil {
			return nil, err
		}
		d, err := NewDemosaicer(r.Demosaicer.Engine, blue, opts...)
		if err != nil {
			return nil, err
		}
		stages = append(stages, d)
	}

	if c := r.ToneMapper; c.Engine != "" {
		t, err := NewToneMapper(c.Engine, c.Levels(), opts...)
		if err != nil {
			return nil, err
		}
		if err := t.SetGamma(c.Gamma); err != nil {
			return nil, err
		}
		if err := t.SetInputMagnitude(c.InputMagnitude); err != nil {
			return nil, err
		}
		t.SetLookupTable(c.LookupTable)
		stages = append(stages, t)
	}

	if c := r.WhiteBalancer; c.Engine != "" {
		w, err := NewWhiteBalancer(c.Engine, opts...)
		if err != nil {
			return nil, err
		}
		if err := w.SetPercentile(c.Percentile); err != nil {
			return nil, err
		}
		if len(c.Scales) != 3 {
			return nil, fmt.Errorf("%w: white balancer scales need three values, got %d",
				ErrNumericDomain, len(c.Scales))
		}
		if err := w.SetScales([3]float64{c.Scales[0], c.Scales[1], c.Scales[2]}); err != nil {
			return nil, err
		}
		w.SetNormalize(c.Normalize)
		stages = append(stages, w)
	}

	if c := r.Rotator; c.Engine != "" {
		rot, err := NewRotator(c.Engine, c.K, opts...)
		if err != nil {
			return nil, err
		}
		stages = append(stages, rot)
	}
	return stages, nil
}

func (r Recipe) blueLocation(bayerHint string, log logrus.FieldLogger) (CFAOffset, error) {
	loc := strings.TrimSpace(r.Demosaicer.BlueLoc)
	if !strings.EqualFold(loc, BlueLocAuto) {
		return ParseCFAOffset(loc)
	}
	if bayerHint == "" {
		log.Debug("No Bayer pattern known for the image, assuming RGGB")
		return CFAOffset{1, 1}, nil
	}
	blue, err := ParseCFAOffset(bayerHint)
	if err != nil {
		log.WithField("bayer", bayerHint).Warn("Unrecognised Bayer pattern, assuming RGGB")
		return CFAOffset{1, 1}, nil
	}
	return blue, nil
}

// BuildEditor creates an Editor holding the recipe's stages, resolving
// blue_loc "auto" from input.
func (r Recipe) BuildEditor(input *Image, log logrus.FieldLogger) (*Editor, error) {
	if log == nil {
		log = discardLogger()
	}
	hint := ""
	if input != nil {
		hint = input.BayerPattern
	}
	stages, err := r.Stages(hint, log)
	if err != nil {
		return nil, err
	}
	e := NewEditor(WithEditorLogger(log))
	for _, s := range stages {
		if err := e.AddStage(s); err != nil {
			return nil, err
		}
	}
	return e, nil
}
