// Package verify runs the model verification pipeline: load the model,
// check its structure, print its graph and compile an inference session.
package verify

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"time"

	"github.com/pkg/errors"
	"github.com/zerfoo/zverify/internal/onnx"
	"github.com/zerfoo/zverify/pkg/checker"
	"github.com/zerfoo/zverify/pkg/importer"
	"github.com/zerfoo/zverify/pkg/inspector"
	"github.com/zerfoo/zverify/pkg/modelerr"
	"github.com/zerfoo/zverify/pkg/session"
	"k8s.io/klog/v2"
)

// Confirmation is the last line written after every step succeeded.
const Confirmation = "ONNX Model loaded and verified successfully."

// Step identifies one stage of the pipeline.
type Step int

const (
	StepLoad Step = iota
	StepCheck
	StepPrint
	StepSession
)

func (s Step) String() string {
	switch s {
	case StepLoad:
		return "load"
	case StepCheck:
		return "check"
	case StepPrint:
		return "print"
	case StepSession:
		return "session"
	}
	return fmt.Sprintf("Step(%d)", int(s))
}

// Outcome is the result of one step.
type Outcome struct {
	Step    Step
	Err     error
	Elapsed time.Duration
}

// Options configure Run. The zero value runs the default runtime without
// warm-up and writes nothing but the graph and the confirmation.
type Options struct {
	// Runtime names the session runtime; empty means session.DefaultRuntime.
	Runtime string
	// Warmup runs the compiled session once on zero-filled inputs.
	Warmup bool
	// Summary adds the statistics tables after the graph.
	Summary bool
	// SkipTypes disables the type and shape consistency checks.
	SkipTypes bool
	// Progress, when set, receives a progress bar while the model is read.
	Progress io.Writer
}

// Run verifies the model at path, writing the graph rendering and the
// confirmation line to w. It stops at the first failing step and returns
// its error; the outcomes of every step attempted are returned either way.
func Run(ctx context.Context, w io.Writer, path string, opts Options) ([]Outcome, error) {
	name := opts.Runtime
	if name == "" {
		name = session.DefaultRuntime
	}
	rt, err := session.Lookup(name)
	if err != nil {
		return nil, modelerr.New(modelerr.KindSession, path, err)
	}

	p := &pipeline{ctx: ctx, w: w, path: path, opts: opts, rt: rt}
	steps := []struct {
		step Step
		run  func() error
	}{
		{StepLoad, p.load},
		{StepCheck, p.check},
		{StepPrint, p.print},
		{StepSession, p.session},
	}

	var outcomes []Outcome
	for _, s := range steps {
		if err := ctx.Err(); err != nil {
			return outcomes, errors.Wrapf(err, "verification interrupted before %s", s.step)
		}
		start := time.Now()
		err := s.run()
		outcome := Outcome{Step: s.step, Err: err, Elapsed: time.Since(start)}
		outcomes = append(outcomes, outcome)
		if err != nil {
			klog.V(1).Infof("Step %s failed after %s: %v", s.step, outcome.Elapsed, err)
			return outcomes, err
		}
		klog.V(1).Infof("Step %s done in %s", s.step, outcome.Elapsed)
	}

	if _, err := fmt.Fprintln(w, Confirmation); err != nil {
		return outcomes, modelerr.New(modelerr.KindIO, "", errors.Wrap(err, "failed to write confirmation"))
	}
	return outcomes, nil
}

type pipeline struct {
	ctx   context.Context
	w     io.Writer
	path  string
	opts  Options
	rt    session.Runtime
	model *onnx.ModelProto
}

func (p *pipeline) load() error {
	var opts []importer.Option
	if p.opts.Progress != nil {
		opts = append(opts, importer.WithProgress(p.opts.Progress))
	}
	model, err := importer.Load(p.path, opts...)
	if err != nil {
		return err
	}
	p.model = model
	return nil
}

func (p *pipeline) check() error {
	opts := []checker.Option{checker.WithBaseDir(filepath.Dir(p.path))}
	if p.opts.SkipTypes {
		opts = append(opts, checker.WithoutTypeCheck())
	}
	if err := checker.CheckModel(p.model, opts...); err != nil {
		return modelerr.New(modelerr.KindValidation, p.path, err)
	}
	return nil
}

func (p *pipeline) print() error {
	if err := inspector.PrintGraph(p.w, p.model.GetGraph()); err != nil {
		return modelerr.New(modelerr.KindIO, "", errors.Wrap(err, "failed to write graph"))
	}
	if p.opts.Summary {
		if err := inspector.Summary(p.w, p.model); err != nil {
			return modelerr.New(modelerr.KindIO, "", errors.Wrap(err, "failed to write summary"))
		}
	}
	return nil
}

func (p *pipeline) session() error {
	sess, err := session.Initialize(p.ctx, p.path, p.rt)
	if err != nil {
		return err
	}
	defer func() {
		if err := sess.Close(); err != nil {
			klog.Errorf("Failed to close %s session: %v", p.rt.Name(), err)
		}
	}()
	if !p.opts.Warmup {
		return nil
	}
	specs, err := session.WarmupSpecs(p.model.GetGraph())
	if err == nil {
		err = sess.Warmup(p.ctx, specs)
	}
	if err != nil {
		return modelerr.New(modelerr.KindSession, p.path, errors.Wrap(err, "warm-up run failed"))
	}
	return nil
}
