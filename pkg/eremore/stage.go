package eremore

import "github.com/sirupsen/logrus"

// Stage is one unit of work in an Editor. Process receives a private copy of
// its input and returns the image it produced; it must not retain img.
type Stage interface {
	Name() string
	Process(img *Image) (*Image, error)
}

// Default stage names, used as Editor keys unless overridden.
const (
	DemosaicerName    = "demosaicer"
	ToneMapperName    = "tone_mapper"
	WhiteBalancerName = "white_balancer"
	RotatorName       = "rotator"
)

// StageOption configures the parts shared by every stage kind.
type StageOption func(*stageBase)

// WithStageName overrides the stage's default name.
func WithStageName(name string) StageOption {
	return func(s *stageBase) { s.name = name }
}

// WithStageLogger sets the logger diagnostics are written to.
func WithStageLogger(log logrus.FieldLogger) StageOption {
	return func(s *stageBase) { s.log = log }
}

type stageBase struct {
	name string
	log  logrus.FieldLogger
}

func newStageBase(defaultName string, opts []StageOption) stageBase {
	s := stageBase{name: defaultName}
	for _, opt := range opts {
		opt(&s)
	}
	if s.log == nil {
		s.log = discardLogger()
	}
	return s
}

func (s *stageBase) Name() string { return s.name }

func (s *stageBase) logger(engine string) logrus.FieldLogger {
	return s.log.WithFields(logrus.Fields{"stage": s.name, "engine": engine})
}

// StageEngines pairs a stage kind with the engines it can select.
type StageEngines struct {
	Stage   string
	Engines []string
}

// EngineCatalog lists the registered engines of every stage kind in
// pipeline order.
func EngineCatalog() []StageEngines {
	d, _ := NewDemosaicer(DemosaicSplit, CFAOffset{1, 1})
	t, _ := NewToneMapper(ToneLinear, DefaultLevels())
	w, _ := NewWhiteBalancer(WhiteBalanceRGBScale)
	r, _ := NewRotator(RotateQuarterTurns, 1)
	return []StageEngines{
		{Stage: d.Name(), Engines: d.Engines()},
		{Stage: t.Name(), Engines: t.Engines()},
		{Stage: w.Name(), Engines: w.Engines()},
		{Stage: r.Name(), Engines: r.Engines()},
	}
}
