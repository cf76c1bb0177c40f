package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"eremore/pkg/eremore"
)

// noneEngine on an engine flag removes the stage from the recipe.
const noneEngine = "none"

// stageFlags mirror the recipe fields. A flag only overrides the recipe
// when it was given on the command line.
type stageFlags struct {
	demosaicer string
	blueLoc    string

	toneMapper                string
	inputBlackLevelCorrection float64
	inputBlackLevel           float64
	inputWhiteLevel           float64
	outputBlackLevel          float64
	outputWhiteLevel          float64
	gamma                     float64

	whiteBalancer string
	percentile    float64
	rgbScales     []float64
	normalize     bool

	rotator string
	k       int

	cameraWhiteBalance []float64
}

func (s *stageFlags) register(fs *pflag.FlagSet) {
	d := eremore.EmptyRecipe()
	fs.StringVar(&s.demosaicer, "demosaicer", "", engineHelp(eremore.DemosaicerName))
	fs.StringVar(&s.blueLoc, "blue-loc", d.Demosaicer.BlueLoc, `blue pixel offset in the 2x2 CFA tile ("00", "01", "10", "11") or "auto"`)

	fs.StringVar(&s.toneMapper, "tone-mapper", "", engineHelp(eremore.ToneMapperName))
	fs.Float64Var(&s.inputBlackLevelCorrection, "input-black-level-correction", d.ToneMapper.InputBlackLevelCorrection, "value subtracted from every raw sample")
	fs.Float64Var(&s.inputBlackLevel, "input-black-level", d.ToneMapper.InputBlackLevel, "raw level mapped to the output black level")
	fs.Float64Var(&s.inputWhiteLevel, "input-white-level", d.ToneMapper.InputWhiteLevel, "raw level mapped to the output white level")
	fs.Float64Var(&s.outputBlackLevel, "output-black-level", d.ToneMapper.OutputBlackLevel, "output black level")
	fs.Float64Var(&s.outputWhiteLevel, "output-white-level", d.ToneMapper.OutputWhiteLevel, "output white level")
	fs.Float64Var(&s.gamma, "gamma", d.ToneMapper.Gamma, "exponent of the gamma tone curve")

	fs.StringVar(&s.whiteBalancer, "white-balancer", "", engineHelp(eremore.WhiteBalancerName))
	fs.Float64Var(&s.percentile, "percentile", d.WhiteBalancer.Percentile, "white patch percentile in [0,100]")
	fs.Float64SliceVar(&s.rgbScales, "rgb-scales", d.WhiteBalancer.Scales, "fixed R,G,B scales for the rgb_scale engine")
	fs.BoolVar(&s.normalize, "normalize", d.WhiteBalancer.Normalize, "normalise fixed scales to a mean of one")

	fs.StringVar(&s.rotator, "rotator", "", engineHelp(eremore.RotatorName))
	fs.IntVar(&s.k, "k", d.Rotator.K, "quarter turns counter-clockwise for the 90 engine")

	fs.Float64SliceVar(&s.cameraWhiteBalance, "camera-white-balance", nil, "as-shot R,G,B multipliers for the camera engine")
}

func engineFlag(v string) string {
	if strings.EqualFold(v, noneEngine) {
		return ""
	}
	return v
}

// apply copies every flag that was set onto r.
func (s *stageFlags) apply(fs *pflag.FlagSet, r *eremore.Recipe) {
	set := func(name string, fn func()) {
		if fs.Changed(name) {
			fn()
		}
	}
	set("demosaicer", func() { r.Demosaicer.Engine = engineFlag(s.demosaicer) })
	set("blue-loc", func() { r.Demosaicer.BlueLoc = s.blueLoc })

	set("tone-mapper", func() { r.ToneMapper.Engine = engineFlag(s.toneMapper) })
	set("input-black-level-correction", func() { r.ToneMapper.InputBlackLevelCorrection = s.inputBlackLevelCorrection })
	set("input-black-level", func() { r.ToneMapper.InputBlackLevel = s.inputBlackLevel })
	set("input-white-level", func() { r.ToneMapper.InputWhiteLevel = s.inputWhiteLevel })
	set("output-black-level", func() { r.ToneMapper.OutputBlackLevel = s.outputBlackLevel })
	set("output-white-level", func() { r.ToneMapper.OutputWhiteLevel = s.outputWhiteLevel })
	set("gamma", func() { r.ToneMapper.Gamma = s.gamma })

	set("white-balancer", func() { r.WhiteBalancer.Engine = engineFlag(s.whiteBalancer) })
	set("percentile", func() { r.WhiteBalancer.Percentile = s.percentile })
	set("rgb-scales", func() { r.WhiteBalancer.Scales = s.rgbScales })
	set("normalize", func() { r.WhiteBalancer.Normalize = s.normalize })

	set("rotator", func() { r.Rotator.Engine = engineFlag(s.rotator) })
	set("k", func() { r.Rotator.K = s.k })

	set("camera-white-balance", func() { r.CameraWhiteBalance = s.cameraWhiteBalance })
}

// loadRecipe reads the recipe file, or starts from base when none is given,
// and validates it after the flag overrides.
func loadRecipe(path string, base eremore.Recipe, fs *pflag.FlagSet, s *stageFlags) (eremore.Recipe, error) {
	r := base
	if path != "" {
		var err error
		if r, err = eremore.LoadRecipe(path); err != nil {
			return r, err
		}
	}
	if s != nil {
		s.apply(fs, &r)
	}
	if err := r.Validate(); err != nil {
		return r, fmt.Errorf("invalid recipe: %w", err)
	}
	return r, nil
}

type developOptions struct {
	input      string
	output     string
	recipe     string
	histogram  string
	saveRecipe string
	sweepGamma []float64
	stages     stageFlags
}

func newDevelopCommand(g *globalOptions) *cobra.Command {
	o := &developOptions{}
	cmd := &cobra.Command{
		Use:   "develop",
		Short: "Develop one raw image",
		Long: `Develop one raw image through demosaicing, tone mapping, white balance and
rotation. Stages come from --recipe and any stage flag given on the command
line overrides the recipe value. Without --recipe only the stages whose engine
flag is given run.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runDevelop(g, o, cmd.Flags())
		},
	}
	fs := cmd.Flags()
	fs.StringVar(&o.input, "path-to-raw-image", "", "raw mosaic to develop (FITS or single-channel raster)")
	fs.StringVar(&o.output, "path-to-export-image", "", "where to write the developed image")
	fs.StringVar(&o.recipe, "recipe", "", "YAML recipe describing the stages")
	fs.StringVar(&o.histogram, "histogram", "", "also write a JPEG histogram of the developed image")
	fs.StringVar(&o.saveRecipe, "save-recipe", "", "write the effective recipe as YAML")
	fs.Float64SliceVar(&o.sweepGamma, "sweep-gamma", nil, "develop once per gamma value, re-running only the stages from the tone mapper on")
	o.stages.register(fs)
	_ = cmd.MarkFlagRequired("path-to-raw-image")
	_ = cmd.MarkFlagRequired("path-to-export-image")
	return cmd
}

func runDevelop(g *globalOptions, o *developOptions, fs *pflag.FlagSet) error {
	log, err := g.logger()
	if err != nil {
		return err
	}
	recipe, err := loadRecipe(o.recipe, eremore.EmptyRecipe(), fs, &o.stages)
	if err != nil {
		return err
	}
	if o.saveRecipe != "" {
		if err := writeRecipe(recipe, o.saveRecipe); err != nil {
			return err
		}
		log.WithField("path", o.saveRecipe).Info("Saved recipe")
	}

	input, editor, out, err := develop(recipe, o.input, log)
	if err != nil {
		return err
	}
	exporter := eremore.NewExporter(log)

	if len(o.sweepGamma) == 0 {
		if err := exporter.Export(out, o.output); err != nil {
			return err
		}
	} else {
		if out, err = sweepGamma(editor, input, exporter, o.output, o.sweepGamma, log); err != nil {
			return err
		}
	}

	if recipe.ToneMapper.Engine != "" {
		l := recipe.ToneMapper.Levels()
		log.WithFields(logrus.Fields{
			"output_white": l.OutputWhite,
			"raw_level":    eremore.InverseLinear(l.OutputWhite, l),
		}).Info("Raw level at the output white point")
	}

	if o.histogram != "" {
		if err := eremore.RenderHistogram(out, o.histogram); err != nil {
			return fmt.Errorf("histogram: %w", err)
		}
		log.WithField("path", o.histogram).Info("Saved histogram")
	}
	return nil
}

// develop loads path and runs the recipe over it once.
func develop(recipe eremore.Recipe, path string, log logrus.FieldLogger) (*eremore.Image, *eremore.Editor, *eremore.Image, error) {
	loader := eremore.NewFileLoader(append(recipe.LoaderOptions(), eremore.WithLoaderLogger(log))...)
	input, err := loader.Load(path)
	if err != nil {
		return nil, nil, nil, err
	}
	editor, err := recipe.BuildEditor(input, log)
	if err != nil {
		return nil, nil, nil, err
	}
	out, err := editor.Run(input)
	if err != nil {
		return nil, nil, nil, err
	}
	return input, editor, out, nil
}

// sweepGamma re-runs the editor once per gamma and exports each result next
// to output. It returns the last result.
func sweepGamma(editor *eremore.Editor, input *eremore.Image, exporter *eremore.Exporter,
	output string, gammas []float64, log logrus.FieldLogger) (*eremore.Image, error) {
	stage, err := editor.Stage(eremore.ToneMapperName)
	if err != nil {
		return nil, fmt.Errorf("gamma sweep needs a tone mapper: %w", err)
	}
	tm, ok := stage.(*eremore.ToneMapper)
	if !ok {
		return nil, fmt.Errorf("stage %q is not a tone mapper", eremore.ToneMapperName)
	}
	if tm.Engine() != eremore.ToneGamma {
		log.WithField("engine", tm.Engine()).Warn("Gamma only affects the gamma tone curve")
	}

	var out *eremore.Image
	for _, gamma := range gammas {
		if err := tm.SetGamma(gamma); err != nil {
			return nil, err
		}
		if err := editor.MarkDirty(eremore.ToneMapperName); err != nil {
			return nil, err
		}
		if out, err = editor.Run(input); err != nil {
			return nil, err
		}
		path := gammaPath(output, gamma)
		if err := exporter.Export(out, path); err != nil {
			return nil, err
		}
		log.WithFields(logrus.Fields{
			"gamma":    gamma,
			"executed": editor.LastExecuted(),
		}).Debug("Gamma sweep step")
	}
	return out, nil
}

// gammaPath inserts "_gamma<g>" before the extension of path.
func gammaPath(path string, gamma float64) string {
	ext := filepath.Ext(path)
	return strings.TrimSuffix(path, ext) + "_gamma" + strconv.FormatFloat(gamma, 'g', -1, 64) + ext
}

func writeRecipe(r eremore.Recipe, path string) error {
	data, err := r.Marshal()
	if err != nil {
		return fmt.Errorf("encode recipe: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write recipe: %w", err)
	}
	return nil
}
