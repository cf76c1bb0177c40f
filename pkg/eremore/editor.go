package eremore

import (
	"fmt"
	"time"

	"github.com/samber/lo"
	"github.com/sirupsen/logrus"
)

type editorEntry struct {
	name   string
	stage  Stage
	dirty  bool
	output *Image
}

// Editor runs an ordered chain of stages over one image and caches every
// stage's output, so that after a parameter change only the stages from the
// first dirty one onwards are recomputed.
//
// An Editor is not safe for concurrent use.
type Editor struct {
	log      logrus.FieldLogger
	entries  []*editorEntry
	index    map[string]int
	input    *Image
	executed []string
}

// EditorOption configures an Editor.
type EditorOption func(*Editor)

// WithEditorLogger sets the logger run diagnostics are written to.
func WithEditorLogger(log logrus.FieldLogger) EditorOption {
	return func(e *Editor) { e.log = log }
}

func NewEditor(opts ...EditorOption) *Editor {
	e := &Editor{index: make(map[string]int)}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = discardLogger()
	}
	return e
}

// AddStage appends s under its own name.
func (e *Editor) AddStage(s Stage) error {
	return e.AddStageAs(s.Name(), s)
}

// AddStageAs appends s under name. New stages start dirty.
func (e *Editor) AddStageAs(name string, s Stage) error {
	if _, ok := e.index[name]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateStage, name)
	}
	e.index[name] = len(e.entries)
	e.entries = append(e.entries, &editorEntry{name: name, stage: s, dirty: true})
	return nil
}

func (e *Editor) entry(name string) (*editorEntry, error) {
	i, ok := e.index[name]
	if !ok {
		return nil, fmt.Errorf("%w: %q (stages: %v)", ErrUnknownStage, name, e.Stages())
	}
	return e.entries[i], nil
}

// MarkDirty flags a stage for recomputation on the next Run. Every later
// stage is recomputed as well.
func (e *Editor) MarkDirty(name string) error {
	ent, err := e.entry(name)
	if err != nil {
		return err
	}
	ent.dirty = true
	return nil
}

func (e *Editor) MarkAllDirty() {
	for _, ent := range e.entries {
		ent.dirty = true
	}
}

// Dirty reports whether the named stage is flagged for recomputation.
func (e *Editor) Dirty(name string) (bool, error) {
	ent, err := e.entry(name)
	if err != nil {
		return false, err
	}
	return ent.dirty, nil
}

// Stages lists stage names in execution order.
func (e *Editor) Stages() []string {
	return lo.Map(e.entries, func(ent *editorEntry, _ int) string { return ent.name })
}

func (e *Editor) Stage(name string) (Stage, error) {
	ent, err := e.entry(name)
	if err != nil {
		return nil, err
	}
	return ent.stage, nil
}

// Output returns the cached output of a stage, or nil if it has not run yet.
func (e *Editor) Output(name string) (*Image, error) {
	ent, err := e.entry(name)
	if err != nil {
		return nil, err
	}
	return ent.output, nil
}

// LastExecuted names the stages the last Run executed, in order.
func (e *Editor) LastExecuted() []string {
	return append([]string(nil), e.executed...)
}

func (e *Editor) firstDirty() int {
	_, k, ok := lo.FindIndexOf(e.entries, func(ent *editorEntry) bool { return ent.dirty })
	if !ok {
		return -1
	}
	return k
}

// Run brings every stage up to date and returns the last stage's output. A
// different input than the previous Run invalidates every stage. The
// returned image is the Editor's cache and must not be modified; with no
// stages the input itself is returned.
//
// A failing stage aborts the run. It and every later stage stay dirty, so
// the next Run retries from there.
func (e *Editor) Run(input *Image) (*Image, error) {
	if input == nil || input.Pixels == nil {
		return nil, fmt.Errorf("%w: empty input image", ErrShapeMismatch)
	}
	if e.input != input {
		e.MarkAllDirty()
		e.input = input
	}
	e.executed = e.executed[:0]

	if len(e.entries) == 0 {
		return input, nil
	}
	k := e.firstDirty()
	if k < 0 {
		e.log.Debug("No stage is dirty, reusing cached output")
		return e.entries[len(e.entries)-1].output, nil
	}

	start := time.Now()
	prev := input
	if k > 0 {
		prev = e.entries[k-1].output
	}
	for i, ent := range e.entries[k:] {
		log := e.log.WithField("stage", ent.name)
		log.Debug("Running stage")
		var out *Image
		err := measure(log, func() error {
			var err error
			out, err = ent.stage.Process(prev.Clone())
			return err
		})
		if err != nil {
			for _, rest := range e.entries[k+i:] {
				rest.dirty = true
			}
			return nil, fmt.Errorf("stage %q: %w", ent.name, err)
		}
		ent.output = out
		ent.dirty = false
		e.executed = append(e.executed, ent.name)
		prev = out
	}
	e.log.WithFields(logrus.Fields{
		"executed": e.executed,
		"elapsed":  time.Since(start),
	}).Info("Pipeline run finished")
	return prev, nil
}
