// Package assembly turns a cloud of atoms into a named molecule: nearby
// molecules are cleared away, the atoms are compressed toward a point, then
// each is pinned onto its place in the canonical structure until the
// integrator lets the whole group go.
package assembly

import (
	"errors"
	"fmt"
	"log/slog"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/mistergarrison/simchem3d-sub001/internal/config"
	"github.com/mistergarrison/simchem3d-sub001/internal/content"
	"github.com/mistergarrison/simchem3d-sub001/internal/entity"
	"github.com/mistergarrison/simchem3d-sub001/internal/spawn"
	"github.com/mistergarrison/simchem3d-sub001/internal/topology"
)

var (
	ErrBusy              = errors.New("assembly: choreographer busy")
	ErrSelectionMismatch = errors.New("assembly: selection does not cover the molecule")
	ErrNoStructure       = errors.New("assembly: molecule has no canonical structure")
)

type Phase int

const (
	Idle Phase = iota
	Clearance
	Compression
	Assembly
)

func (p Phase) String() string {
	switch p {
	case Idle:
		return "idle"
	case Clearance:
		return "clearance"
	case Compression:
		return "compression"
	case Assembly:
		return "assembly"
	default:
		return "unknown"
	}
}

// Result describes a finished assembly.
type Result struct {
	Molecule string
	Atoms    []entity.ID
	Forced   bool
}

// Choreographer runs one assembly at a time. Update is called once per
// frame; ApplyForces once per substep.
type Choreographer struct {
	tables  *content.Tables
	cfg     config.Physics
	factory *spawn.Factory
	rng     *rand.Rand
	log     *slog.Logger

	phase  Phase
	frame  int
	total  int
	mol    *content.MoleculeDef
	center r3.Vec
	start  float64 // capture radius when compression began
	radius float64

	selected  []entity.ID
	assigned  []entity.ID // indexed like mol.Structure.Atoms
	group     int
	nextGroup int
}

func New(tables *content.Tables, cfg config.Physics, factory *spawn.Factory, rng *rand.Rand, log *slog.Logger) *Choreographer {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Choreographer{tables: tables, cfg: cfg, factory: factory, rng: rng, log: log}
}

func (c *Choreographer) Phase() Phase { return c.phase }

func (c *Choreographer) Busy() bool { return c.phase != Idle }

// Radius is the current capture radius; zero outside compression.
func (c *Choreographer) Radius() float64 {
	if c.phase != Compression {
		return 0
	}
	return c.radius
}

func (c *Choreographer) Center() r3.Vec { return c.center }

// Group is the assembly group id of the running assembly.
func (c *Choreographer) Group() int { return c.group }

func (c *Choreographer) molecule(id string) (*content.MoleculeDef, error) {
	if c.Busy() {
		return nil, fmt.Errorf("%w: %s in progress", ErrBusy, c.phase)
	}
	m, err := c.tables.Molecule(id)
	if err != nil {
		return nil, err
	}
	if m.Structure == nil || len(m.Structure.Atoms) == 0 {
		return nil, fmt.Errorf("%w: %q", ErrNoStructure, id)
	}
	return m, nil
}

// BeginSpawn starts a fresh assembly at a point: nearby molecules are
// cleared first, then the ingredient atoms are spawned.
func (c *Choreographer) BeginSpawn(moleculeID string, at r3.Vec) error {
	m, err := c.molecule(moleculeID)
	if err != nil {
		return err
	}
	c.reset(m, at)
	c.phase = Clearance
	c.log.Info("assembly started", slog.String("molecule", m.ID), slog.String("phase", c.phase.String()))
	return nil
}

// BeginSelection assembles existing atoms. The selection must hold at least
// the molecule's ingredients; extra atoms are left out.
func (c *Choreographer) BeginSelection(s *entity.Store, moleculeID string, ids []entity.ID) error {
	m, err := c.molecule(moleculeID)
	if err != nil {
		return err
	}

	need := make(map[int]int)
	for _, z := range m.Structure.Atoms {
		need[z]++
	}
	var chosen []*entity.Atom
	seen := make(map[entity.ID]bool)
	for _, id := range ids {
		a, ok := s.Get(id)
		if !ok || seen[id] || a.Assembling {
			continue
		}
		seen[id] = true
		if z := a.Z(); need[z] > 0 {
			need[z]--
			chosen = append(chosen, a)
		}
	}
	for z, n := range need {
		if n > 0 {
			return fmt.Errorf("%w: %q needs %d more of Z=%d", ErrSelectionMismatch, m.ID, n, z)
		}
	}

	var center r3.Vec
	for _, a := range chosen {
		center = r3.Add(center, a.Pos)
	}
	center = r3.Scale(1/float64(len(chosen)), center)

	c.reset(m, center)
	radius := c.cfg.MinCaptureRadius
	for _, a := range chosen {
		c.selected = append(c.selected, a.ID)
		radius = math.Max(radius, r3.Norm(r3.Sub(a.Pos, center)))
	}
	c.beginCompression(radius)
	c.log.Info("assembly started", slog.String("molecule", m.ID), slog.Int("atoms", len(chosen)))
	return nil
}

func (c *Choreographer) reset(m *content.MoleculeDef, at r3.Vec) {
	c.mol = m
	c.center = at
	c.frame, c.total = 0, 0
	c.selected, c.assigned = nil, nil
	c.group = 0
}

func (c *Choreographer) beginCompression(radius float64) {
	c.phase = Compression
	c.frame = 0
	c.start = radius
	c.radius = radius
}

// Update advances the state machine by one frame. It returns a result
// only when the frame budget forced an assembly to complete.
func (c *Choreographer) Update(s *entity.Store, now float64) (*Result, error) {
	if c.phase == Idle {
		return nil, nil
	}
	c.frame++
	c.total++

	switch c.phase {
	case Clearance:
		c.clear(s)
		if c.frame >= c.cfg.ClearanceFrames {
			atoms, err := c.factory.Cloud(s, spawn.Ingredients(c.mol), c.center, c.cfg.CloudRadius)
			if err != nil {
				c.phase = Idle
				return nil, fmt.Errorf("assembly %q: %w", c.mol.ID, err)
			}
			for _, a := range atoms {
				c.selected = append(c.selected, a.ID)
			}
			c.beginCompression(c.cfg.CloudRadius)
		}
	case Compression:
		c.hold(s)
		f := math.Min(1, float64(c.frame)/float64(max(c.cfg.CompressionFrames, 1)))
		floor := math.Min(c.start, c.cfg.MinCaptureRadius)
		c.radius = c.start + (floor-c.start)*f
		if c.frame >= c.cfg.CompressionFrames {
			if err := c.place(s, now); err != nil {
				c.phase = Idle
				return nil, err
			}
		}
	case Assembly:
		if c.total >= c.cfg.AssemblyMaxFrames {
			return c.force(s), nil
		}
	}
	return nil, nil
}

// clear pushes every molecule near the center outward as a rigid body.
func (c *Choreographer) clear(s *entity.Store) {
	step := c.cfg.ClearanceSpeed * c.cfg.FrameTime()
	for _, comp := range topology.Analyze(s) {
		delta := r3.Sub(comp.Center, c.center)
		d := r3.Norm(delta)
		if d > c.cfg.ClearanceRadius {
			continue
		}
		dir := r3.Vec{X: 1}
		if d > 1e-9 {
			dir = r3.Scale(1/d, delta)
		}
		shift := r3.Scale(step*(1-d/c.cfg.ClearanceRadius), dir)
		for _, a := range comp.Atoms {
			if a.Alive() && !a.Assembling {
				a.Pos = r3.Add(a.Pos, shift)
			}
		}
	}
}

func (c *Choreographer) hold(s *entity.Store) {
	for _, id := range c.selected {
		if a, ok := s.Get(id); ok && a.Cooldown < c.cfg.BondCooldown {
			a.Cooldown = c.cfg.BondCooldown
		}
	}
}

// ApplyForces adds the inward wall force of the capture radius. It is a
// no-op outside compression.
func (c *Choreographer) ApplyForces(s *entity.Store) {
	if c.phase != Compression {
		return
	}
	for _, id := range c.selected {
		a, ok := s.Get(id)
		if !ok {
			continue
		}
		delta := r3.Sub(a.Pos, c.center)
		d := r3.Norm(delta)
		if d <= c.radius || d < 1e-9 {
			continue
		}
		k := c.cfg.WallStiffness * math.Max(a.Mass, c.cfg.ZMassFloor) * (d - c.radius)
		a.Force = r3.Sub(a.Force, r3.Scale(k/d, delta))
	}
}

// place lays out the structure around the center, matches atoms to slots
// by element and hands them to the integrator.
func (c *Choreographer) place(s *entity.Store, now float64) error {
	layout, err := Layout(c.tables, c.mol.Structure, c.cfg)
	if err != nil {
		return fmt.Errorf("assembly %q: %w", c.mol.ID, err)
	}
	rot := r3.NewRotation(c.rng.Float64()*2*math.Pi, r3.Vec{Z: 1})

	var pool []*entity.Atom
	for _, id := range c.selected {
		if a, ok := s.Get(id); ok {
			pool = append(pool, a)
		}
	}

	c.nextGroup++
	c.group = c.nextGroup
	c.assigned = make([]entity.ID, len(layout))
	used := make(map[entity.ID]bool)
	for i, z := range c.mol.Structure.Atoms {
		target := r3.Add(c.center, rot.Rotate(layout[i]))
		target.Z = c.center.Z
		var best *entity.Atom
		bestD := math.Inf(1)
		for _, a := range pool {
			if used[a.ID] || a.Z() != z {
				continue
			}
			if d := r3.Norm2(r3.Sub(a.Pos, target)); d < bestD {
				best, bestD = a, d
			}
		}
		if best == nil {
			return fmt.Errorf("%w: lost an atom of Z=%d before assembly", ErrSelectionMismatch, z)
		}
		used[best.ID] = true
		c.assigned[i] = best.ID
		best.AssemblyTarget = target
	}

	for _, id := range c.assigned {
		a, _ := s.Get(id)
		for _, n := range a.Neighbors() {
			if b, ok := s.Get(n); ok {
				entity.Unlink(a, b)
				if !used[n] {
					topology.Redistribute(topology.Group(s, b))
				}
			}
		}
	}
	for _, id := range c.assigned {
		a, _ := s.Get(id)
		a.Assembling = true
		a.AssemblyGroup = c.group
		a.AssemblyStart = now
		a.Vel = r3.Vec{}
		a.Cooldown = 0
	}

	c.phase = Assembly
	c.frame = 0
	c.log.Debug("assembly placed", slog.String("molecule", c.mol.ID), slog.Int("group", c.group))
	return nil
}

// Finalize completes the assembly once the integrator has released its
// group. Releases for other groups are ignored.
func (c *Choreographer) Finalize(s *entity.Store, group int) (*Result, bool) {
	if c.phase != Assembly || group != c.group {
		return nil, false
	}
	return c.finish(s, false), true
}

// force completes an assembly that overran its frame budget.
func (c *Choreographer) force(s *entity.Store) *Result {
	for _, id := range c.assigned {
		if a, ok := s.Get(id); ok {
			a.Assembling = false
			a.Pos = a.AssemblyTarget
			a.Vel = r3.Vec{}
			a.Cooldown = c.cfg.ReleaseCooldown
		}
	}
	c.log.Warn("assembly frame budget exhausted", slog.String("molecule", c.mol.ID))
	return c.finish(s, true)
}

func (c *Choreographer) finish(s *entity.Store, forced bool) *Result {
	atoms := make([]*entity.Atom, len(c.assigned))
	for i, id := range c.assigned {
		atoms[i], _ = s.Get(id)
	}
	member := make(map[entity.ID]bool, len(c.assigned))
	for _, id := range c.assigned {
		member[id] = true
	}
	var group, outside []*entity.Atom
	for _, a := range atoms {
		if a == nil {
			continue
		}
		for _, n := range a.Neighbors() {
			if b, ok := s.Get(n); ok {
				entity.Unlink(a, b)
				if !member[n] {
					outside = append(outside, b)
				}
			}
		}
		group = append(group, a)
	}
	seen := make(map[entity.ID]bool)
	for _, b := range outside {
		if seen[b.ID] {
			continue
		}
		frag := topology.Group(s, b)
		for _, x := range frag {
			seen[x.ID] = true
		}
		topology.Redistribute(frag)
	}
	for _, b := range c.mol.Structure.Bonds {
		x, y := atoms[b[0]], atoms[b[1]]
		if x == nil || y == nil {
			continue
		}
		for k := 0; k < b[2]; k++ {
			entity.Link(x, y)
		}
	}
	topology.Redistribute(group)

	res := &Result{Molecule: c.mol.ID, Atoms: append([]entity.ID(nil), c.assigned...), Forced: forced}
	c.log.Info("assembly complete", slog.String("molecule", c.mol.ID), slog.Bool("forced", forced))
	c.phase = Idle
	c.selected, c.assigned = nil, nil
	return res
}
