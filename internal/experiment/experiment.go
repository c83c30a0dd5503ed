// Package experiment wires named scenarios to an engine, records metrics
// while they run and collects what happened.
package experiment

import (
	"context"
	"fmt"

	"github.com/mistergarrison/simchem3d-sub001/internal/config"
	"github.com/mistergarrison/simchem3d-sub001/internal/content"
	"github.com/mistergarrison/simchem3d-sub001/internal/entity"
	"github.com/mistergarrison/simchem3d-sub001/internal/metrics"
	"github.com/mistergarrison/simchem3d-sub001/internal/sim"
)

// SampleEvery is the metric sampling period in frames.
const SampleEvery = 5

type Result struct {
	Scenario    string
	Seed        int64
	Frames      int
	Time        float64
	Names       []string
	Samples     []metrics.Sample
	Final       map[string]float64
	Events      []entity.Event
	Effects     []entity.Effect
	Discoveries []sim.Discovery
	Assembled   []string
	Counts      sim.Counts
}

type Experiment struct {
	cfg      *config.Config
	scenario Scenario
	engine   *sim.Engine
	recorder *metrics.Recorder
	result   *Result
}

// New builds the engine for a scenario and runs its setup.
func New(tables *content.Tables, cfg *config.Config, sc Scenario, opts ...sim.Option) (*Experiment, error) {
	x := &Experiment{
		cfg:      cfg,
		scenario: sc,
		result:   &Result{Scenario: sc.Name, Seed: cfg.Seed},
	}
	opts = append(opts, sim.WithObserver(sim.ObserverFunc(x.collect)))
	e, err := sim.New(tables, cfg, opts...)
	if err != nil {
		return nil, err
	}
	x.engine = e
	x.recorder = metrics.NewRecorder(func() []*entity.Atom { return e.Store().Live() }, SampleEvery, metrics.Standard()...)
	e.AddObserver(x.recorder)

	if sc.Setup != nil {
		if err := sc.Setup(e); err != nil {
			return nil, fmt.Errorf("scenario %s setup: %w", sc.Name, err)
		}
	}
	return x, nil
}

func (x *Experiment) Engine() *sim.Engine { return x.engine }

func (x *Experiment) Scenario() Scenario { return x.scenario }

func (x *Experiment) collect(r sim.Report) {
	res := x.result
	res.Frames = r.Frame
	res.Time = r.Time
	res.Events = append(res.Events, r.Events...)
	res.Effects = append(res.Effects, r.Effects...)
	if r.Discovery != nil {
		res.Discoveries = append(res.Discoveries, *r.Discovery)
	}
	for _, a := range r.Assembled {
		res.Assembled = append(res.Assembled, a.Molecule)
	}
	res.Counts = r.Counts
}

// Frames is the run length: the explicit value when positive, otherwise
// the scenario's own, otherwise the configured default.
func (x *Experiment) Frames(n int) int {
	switch {
	case n > 0:
		return n
	case x.scenario.Frames > 0:
		return x.scenario.Frames
	default:
		return x.cfg.Frames
	}
}

func (x *Experiment) Run(ctx context.Context, frames int) (*Result, error) {
	if err := x.engine.Run(ctx, x.Frames(frames), x.scenario.Intent); err != nil {
		return x.snapshot(), err
	}
	return x.snapshot(), nil
}

// Step advances one frame. The caller's intent is laid over the
// scenario's intent for that frame.
func (x *Experiment) Step(in sim.Intent) (sim.Report, error) {
	if x.scenario.Intent != nil {
		sc := x.scenario.Intent(x.engine.Frame() + 1)
		in.Spawns = append(sc.Spawns, in.Spawns...)
		if in.Assemble == nil {
			in.Assemble = sc.Assemble
		}
		if !in.Energy.Release {
			in.Energy = sc.Energy
		}
		if !in.Drag.Active {
			in.Drag = sc.Drag
		}
		if in.Version == 0 {
			in.Version = sc.Version
		}
	}
	return x.engine.Step(in)
}

// Result is a snapshot of everything collected so far.
func (x *Experiment) Result() *Result { return x.snapshot() }

func (x *Experiment) snapshot() *Result {
	res := *x.result
	res.Names = x.recorder.Names()
	res.Samples = x.recorder.Samples()
	res.Final = x.recorder.Final()
	return &res
}
