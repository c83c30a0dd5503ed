// Package sim runs the frame loop: one macro step of discrete reactions,
// then a fixed number of force/integration substeps, then bookkeeping.
package sim

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/mistergarrison/simchem3d-sub001/internal/assembly"
	"github.com/mistergarrison/simchem3d-sub001/internal/config"
	"github.com/mistergarrison/simchem3d-sub001/internal/content"
	"github.com/mistergarrison/simchem3d-sub001/internal/entity"
	"github.com/mistergarrison/simchem3d-sub001/internal/identify"
	"github.com/mistergarrison/simchem3d-sub001/internal/integrators"
	"github.com/mistergarrison/simchem3d-sub001/internal/physics"
	"github.com/mistergarrison/simchem3d-sub001/internal/reactions"
	"github.com/mistergarrison/simchem3d-sub001/internal/spawn"
	"github.com/mistergarrison/simchem3d-sub001/internal/topology"
)

type Engine struct {
	tables *content.Tables
	cfg    config.Physics
	world  config.World
	seed   int64
	rng    *rand.Rand
	log    *slog.Logger

	store      *entity.Store
	factory    *spawn.Factory
	reactions  *reactions.Engine
	solver     *physics.Solver
	integrator *integrators.Euler
	choreo     *assembly.Choreographer
	identifier *identify.Identifier
	viewport   Viewport

	frame     int
	time      float64
	version   uint64
	eventMark int
	labels    []Label

	seenElements  map[int]bool
	seenParticles map[string]bool
	seenMolecules map[string]bool
	onDiscovery   func(Discovery)
	observers     []Observer
}

type Option func(*Engine)

func WithLogger(log *slog.Logger) Option {
	return func(e *Engine) { e.log = log }
}

// WithSeed overrides the configured seed.
func WithSeed(seed int64) Option {
	return func(e *Engine) { e.seed = seed }
}

// WithDiscovery registers the callback fired when the periodic scan finds
// something new.
func WithDiscovery(fn func(Discovery)) Option {
	return func(e *Engine) { e.onDiscovery = fn }
}

func WithObserver(o Observer) Option {
	return func(e *Engine) { e.observers = append(e.observers, o) }
}

// WithViewport sizes the world from the viewport instead of the config.
func WithViewport(v Viewport) Option {
	return func(e *Engine) { e.viewport = v }
}

func New(tables *content.Tables, cfg *config.Config, opts ...Option) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	e := &Engine{
		tables:        tables,
		cfg:           cfg.Physics,
		world:         cfg.World,
		seed:          cfg.Seed,
		store:         entity.NewStore(),
		identifier:    identify.New(tables),
		seenElements:  make(map[int]bool),
		seenParticles: make(map[string]bool),
		seenMolecules: make(map[string]bool),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.log == nil {
		e.log = slog.New(slog.DiscardHandler)
	}
	if e.viewport != nil {
		e.world.Width, e.world.Height = e.viewport.WorldSize()
	}

	e.rng = rand.New(rand.NewSource(e.seed))
	e.factory = spawn.NewFactory(tables, e.rng)
	e.reactions = reactions.New(tables, e.cfg, e.rng, e.log.With("component", "reactions"))
	e.solver = physics.NewSolver(e.cfg, e.reactions, e.rng, e.log.With("component", "solver"))
	e.integrator = integrators.NewEuler(e.cfg, integrators.WorldBounds(e.world), e.rng, e.log.With("component", "integrator"))
	e.choreo = assembly.New(tables, e.cfg, e.factory, e.rng, e.log.With("component", "assembly"))
	return e, nil
}

func (e *Engine) Store() *entity.Store                   { return e.store }
func (e *Engine) Tables() *content.Tables                { return e.tables }
func (e *Engine) Physics() config.Physics                { return e.cfg }
func (e *Engine) Factory() *spawn.Factory                { return e.factory }
func (e *Engine) Choreographer() *assembly.Choreographer { return e.choreo }
func (e *Engine) Identifier() *identify.Identifier       { return e.identifier }
func (e *Engine) Bounds() integrators.Bounds             { return e.integrator.Bounds() }
func (e *Engine) Frame() int                             { return e.frame }
func (e *Engine) Time() float64                          { return e.time }
func (e *Engine) Seed() int64                            { return e.seed }
func (e *Engine) Viewport() Viewport                     { return e.viewport }

func (e *Engine) AddObserver(o Observer) { e.observers = append(e.observers, o) }

// Spawn places a single atom outside of any intent, for scenario setup.
func (e *Engine) Spawn(species string, pos, vel r3.Vec) (*entity.Atom, error) {
	return e.factory.Atom(e.store, species, pos, vel)
}

// Step advances one frame. A non-nil error is a *StepError describing the
// parts of the intent that could not be applied; the frame ran anyway.
func (e *Engine) Step(in Intent) (Report, error) {
	e.frame++
	e.store.SetClock(e.frame, e.time)
	rep := Report{Frame: e.frame}

	errs := e.macro(in, &rep)
	e.substeps(in, &rep)
	e.bookkeeping(&rep)

	rep.Time = e.time
	rep.Version = e.version
	for _, o := range e.observers {
		o.OnFrame(rep)
	}
	if len(errs) > 0 {
		return rep, &StepError{Frame: e.frame, Time: e.time, Wrapped: errors.Join(errs...)}
	}
	return rep, nil
}

func (e *Engine) macro(in Intent, rep *Report) []error {
	var errs []error
	if in.Version != 0 && in.Version < e.version {
		e.log.Debug("stale intent ignored", slog.Uint64("version", in.Version), slog.Uint64("current", e.version))
	} else {
		if in.Version > e.version {
			e.version = in.Version
		}
		for _, req := range in.Spawns {
			if _, err := e.factory.Atom(e.store, req.Species, req.Pos, req.Vel); err != nil {
				errs = append(errs, err)
			}
		}
		if in.Energy.Release && in.Energy.Value > 0 {
			if prod, ok := e.reactions.Produce(e.store, in.Energy.Value, in.Energy.At); ok {
				rep.Productions = append(rep.Productions, prod)
				e.label(prod.Particle, in.Energy.At)
			}
		}
		if req := in.Assemble; req != nil {
			var err error
			if len(req.IDs) > 0 {
				err = e.choreo.BeginSelection(e.store, req.Molecule, req.IDs)
			} else {
				err = e.choreo.BeginSpawn(req.Molecule, req.At)
			}
			if err != nil {
				errs = append(errs, err)
			}
		}
	}

	res, err := e.choreo.Update(e.store, e.time)
	if err != nil {
		errs = append(errs, err)
	}
	if res != nil {
		e.assembled(res, rep)
	}

	rep.Annealed = e.reactions.Anneal(e.store)
	if e.frame%e.cfg.HadronizationInterval == 0 {
		for _, h := range e.reactions.Hadronize(e.store) {
			rep.Hadrons = append(rep.Hadrons, h.ID)
		}
	}
	rep.Decays = e.reactions.Decay(e.store, e.time)
	return errs
}

func (e *Engine) substeps(in Intent, rep *Report) {
	dt := e.cfg.SubstepDt()
	var drag map[entity.ID]bool
	if in.Drag.Active {
		drag = make(map[entity.ID]bool, len(in.Drag.IDs))
		for _, id := range in.Drag.IDs {
			drag[id] = true
		}
	}

	for i := 0; i < e.cfg.Substeps; i++ {
		for _, a := range e.store.Atoms() {
			a.Force = r3.Vec{}
		}
		if in.Drag.Active {
			physics.ApplyDrag(e.store, in.Drag.IDs, in.Drag.Leader, in.Drag.Target, e.cfg)
		}
		e.choreo.ApplyForces(e.store)
		rep.Breaks = append(rep.Breaks, e.solver.Pass(e.store, drag)...)
		physics.ApplyVSEPR(e.store, e.cfg)
		physics.ApplyPlaneForce(topology.Analyze(e.store), e.cfg)

		e.time += dt
		res := e.integrator.Step(e.store, dt, e.time)
		rep.Recovered += res.Recovered
		rep.Escaped += res.Escaped
		for _, rel := range res.Released {
			if r, ok := e.choreo.Finalize(e.store, rel.Group); ok {
				e.assembled(r, rep)
			}
		}
	}
}

func (e *Engine) assembled(r *assembly.Result, rep *Report) {
	rep.Assembled = append(rep.Assembled, r)
	var center r3.Vec
	n := 0
	for _, id := range r.Atoms {
		if a, ok := e.store.Get(id); ok {
			center = r3.Add(center, a.Pos)
			n++
		}
	}
	if n > 0 {
		center = r3.Scale(1/float64(n), center)
	}
	name := r.Molecule
	if m, err := e.tables.Molecule(r.Molecule); err == nil && m.Name != "" {
		name = m.Name
	}
	e.label(name, center)
}

func (e *Engine) label(text string, at r3.Vec) {
	e.labels = append(e.labels, Label{Text: text, Pos: at, Life: e.cfg.LabelLife})
}

func (e *Engine) bookkeeping(rep *Report) {
	ft := e.cfg.FrameTime()

	e.store.AgeParticles(ft)
	rep.Effects = e.store.DrainEffects()
	for _, fx := range rep.Effects {
		e.store.Burst(fx, e.cfg.ParticleLife, e.rng)
	}

	kept := e.labels[:0]
	for _, l := range e.labels {
		l.Life -= ft
		if l.Life > 0 {
			kept = append(kept, l)
		}
	}
	e.labels = kept
	rep.Labels = append([]Label(nil), e.labels...)

	comps := topology.Analyze(e.store)
	if e.frame%e.cfg.DiscoveryInterval == 0 {
		if d := e.discover(comps); !d.Empty() {
			rep.Discovery = &d
			if e.onDiscovery != nil {
				e.onDiscovery(d)
			}
		}
	}

	rep.Events = append([]entity.Event(nil), e.store.EventsSince(e.eventMark)...)
	e.eventMark = len(e.store.Events())
	e.store.Sweep()

	rep.Counts = e.count(comps)
	rep.Phase = e.choreo.Phase()
}

// discover walks every component and reports elements, particles and
// molecules not seen before in this run.
func (e *Engine) discover(comps []*topology.Component) Discovery {
	d := Discovery{Frame: e.frame}
	for _, c := range comps {
		for _, a := range c.Atoms {
			if z := a.Z(); z > 0 {
				if !e.seenElements[z] {
					e.seenElements[z] = true
					d.Elements = append(d.Elements, z)
				}
				continue
			}
			if id := a.Species.ID(); !e.seenParticles[id] {
				e.seenParticles[id] = true
				d.Particles = append(d.Particles, id)
			}
		}
		if len(c.Atoms) < 2 {
			continue
		}
		if m, ok := e.identifier.Identify(c.Atoms); ok && !e.seenMolecules[m.ID] {
			e.seenMolecules[m.ID] = true
			d.Molecules = append(d.Molecules, m.ID)
			e.label(m.Name, c.Center)
		}
	}
	sort.Ints(d.Elements)
	sort.Strings(d.Particles)
	sort.Strings(d.Molecules)
	if !d.Empty() {
		e.log.Info("discovery",
			slog.Int("frame", e.frame),
			slog.Any("elements", d.Elements),
			slog.Any("particles", d.Particles),
			slog.Any("molecules", d.Molecules))
	}
	return d
}

func (e *Engine) count(comps []*topology.Component) Counts {
	var c Counts
	for _, comp := range comps {
		if len(comp.Atoms) > 1 {
			c.Molecules++
		}
		for _, a := range comp.Atoms {
			if !a.Alive() {
				continue
			}
			if a.Z() > 0 {
				c.Atoms++
			} else {
				c.Particles++
			}
			if a.Assembling {
				c.Assembling++
			}
		}
	}
	c.Effects = len(e.store.Particles())
	return c
}

// Run steps frames times, asking next for each frame's intent. A nil next
// runs with empty intents. It stops at the first step error or when ctx is
// done.
func (e *Engine) Run(ctx context.Context, frames int, next func(frame int) Intent) error {
	for i := 0; i < frames; i++ {
		select {
		case <-ctx.Done():
			return ctx.Err()
		default:
		}
		var in Intent
		if next != nil {
			in = next(e.frame + 1)
		}
		if _, err := e.Step(in); err != nil {
			return fmt.Errorf("run: %w", err)
		}
	}
	return nil
}

// RunUntil steps until done reports true or the frame limit is reached.
// It reports whether done was satisfied.
func (e *Engine) RunUntil(ctx context.Context, limit int, done func(Report) bool) (bool, error) {
	for i := 0; i < limit; i++ {
		if err := ctx.Err(); err != nil {
			return false, err
		}
		rep, err := e.Step(Intent{})
		if err != nil {
			return false, err
		}
		if done(rep) {
			return true, nil
		}
	}
	return false, nil
}
