// Package integrators advances atom state by one substep.
package integrators

import (
	"log/slog"
	"math"
	"math/rand"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/mistergarrison/simchem3d-sub001/internal/config"
	"github.com/mistergarrison/simchem3d-sub001/internal/entity"
)

const ReasonEscaped = "left world"

// Bounds is the axis-aligned world box.
type Bounds struct {
	Min, Max r3.Vec
}

// WorldBounds centers a box of the configured size on the origin.
func WorldBounds(w config.World) Bounds {
	half := r3.Vec{X: w.Width / 2, Y: w.Height / 2, Z: w.Depth / 2}
	return Bounds{Min: r3.Scale(-1, half), Max: half}
}

func (b Bounds) Center() r3.Vec {
	return r3.Scale(0.5, r3.Add(b.Min, b.Max))
}

func (b Bounds) Contains(p r3.Vec) bool {
	return p.X >= b.Min.X && p.X <= b.Max.X &&
		p.Y >= b.Min.Y && p.Y <= b.Max.Y &&
		p.Z >= b.Min.Z && p.Z <= b.Max.Z
}

// Release is an assembly group the integrator let go this substep.
type Release struct {
	Group   int
	Members []entity.ID
}

type StepResult struct {
	Recovered int
	Escaped   int
	Released  []Release
}

// Euler is a semi-implicit Euler integrator: velocity first, then position
// with the new velocity.
type Euler struct {
	cfg    config.Physics
	bounds Bounds
	rng    *rand.Rand
	log    *slog.Logger
}

func NewEuler(cfg config.Physics, bounds Bounds, rng *rand.Rand, log *slog.Logger) *Euler {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Euler{cfg: cfg, bounds: bounds, rng: rng, log: log}
}

func (e *Euler) Bounds() Bounds { return e.bounds }

// Step advances every live atom by dt. now is the simulation time at the
// end of the substep and drives the assembly hold timer.
func (e *Euler) Step(s *entity.Store, dt, now float64) StepResult {
	var res StepResult
	groups := make(map[int][]*entity.Atom)

	for _, a := range s.Atoms() {
		if !a.Alive() {
			continue
		}
		switch {
		case a.Massless():
			if e.ballistic(s, a, dt) {
				res.Escaped++
			}
			continue
		case a.Assembling:
			e.pin(a, dt)
			groups[a.AssemblyGroup] = append(groups[a.AssemblyGroup], a)
		default:
			if e.integrate(a, dt) {
				res.Recovered++
			}
		}
		if a.Cooldown > 0 {
			a.Cooldown = math.Max(0, a.Cooldown-dt)
		}
	}

	res.Released = e.release(s, groups, now)
	return res
}

func (e *Euler) ballistic(s *entity.Store, a *entity.Atom, dt float64) bool {
	dir := a.Vel
	if r3.Norm2(dir) == 0 {
		dir = r3.Vec{X: 1}
	}
	a.Vel = r3.Scale(e.cfg.BosonSpeed, r3.Unit(dir))
	a.Pos = r3.Add(a.Pos, r3.Scale(dt, a.Vel))
	if e.bounds.Contains(a.Pos) {
		return false
	}
	s.Remove(a.ID, ReasonEscaped)
	return true
}

// pin holds an assembling atom still while easing it onto its target.
func (e *Euler) pin(a *entity.Atom, dt float64) {
	a.Vel = r3.Vec{}
	k := math.Min(1, e.cfg.AssemblyEase*dt)
	a.Pos = r3.Add(a.Pos, r3.Scale(k, r3.Sub(a.AssemblyTarget, a.Pos)))
}

// integrate reports whether the atom had to be rescued from a non-finite
// state.
func (e *Euler) integrate(a *entity.Atom, dt float64) bool {
	if a.Mass > 0 {
		acc := r3.Scale(1/a.Mass, a.Force)
		if n := r3.Norm(acc); n > e.cfg.MaxAccel {
			acc = r3.Scale(e.cfg.MaxAccel/n, acc)
		}
		a.Vel = r3.Add(a.Vel, r3.Scale(dt, acc))
	}
	a.Vel = r3.Scale(1/(1+e.cfg.Drag*dt), a.Vel)
	if a.InCooldown() {
		a.Vel = r3.Scale(1/(1+e.cfg.CooldownDrag*dt), a.Vel)
	}
	a.Pos = r3.Add(a.Pos, r3.Scale(dt, a.Vel))

	if !finite(a.Pos) || !finite(a.Vel) {
		e.log.Warn("non-finite state recovered",
			slog.Uint64("id", uint64(a.ID)),
			slog.String("species", a.Species.ID()))
		a.Vel = r3.Vec{}
		a.Pos = e.bounds.Center()
		return true
	}
	e.reflect(a)
	return false
}

func (e *Euler) reflect(a *entity.Atom) {
	r := e.cfg.Restitution
	lo, hi := e.bounds.Min, e.bounds.Max
	if a.Pos.X < lo.X {
		a.Pos.X, a.Vel.X = lo.X, math.Abs(a.Vel.X)*r
	} else if a.Pos.X > hi.X {
		a.Pos.X, a.Vel.X = hi.X, -math.Abs(a.Vel.X)*r
	}
	if a.Pos.Y < lo.Y {
		a.Pos.Y, a.Vel.Y = lo.Y, math.Abs(a.Vel.Y)*r
	} else if a.Pos.Y > hi.Y {
		a.Pos.Y, a.Vel.Y = hi.Y, -math.Abs(a.Vel.Y)*r
	}
	if a.Pos.Z < lo.Z {
		a.Pos.Z, a.Vel.Z = lo.Z, math.Abs(a.Vel.Z)*r
	} else if a.Pos.Z > hi.Z {
		a.Pos.Z, a.Vel.Z = hi.Z, -math.Abs(a.Vel.Z)*r
	}
}

// release lets go of every group whose members have all been held for
// the minimum time. A group is never partially released.
func (e *Euler) release(s *entity.Store, groups map[int][]*entity.Atom, now float64) []Release {
	ids := make([]int, 0, len(groups))
	for g := range groups {
		ids = append(ids, g)
	}
	sort.Ints(ids)

	var out []Release
	for _, g := range ids {
		members := groups[g]
		ready := true
		for _, a := range members {
			if now-a.AssemblyStart < e.cfg.AssemblyHold {
				ready = false
				break
			}
		}
		if !ready {
			continue
		}

		theta := e.rng.Float64() * 2 * math.Pi
		kick := r3.Vec{X: e.cfg.ReleaseImpulse * math.Cos(theta), Y: e.cfg.ReleaseImpulse * math.Sin(theta)}
		rel := Release{Group: g}
		var center r3.Vec
		for _, a := range members {
			a.Assembling = false
			a.Pos = a.AssemblyTarget
			a.Vel = kick
			a.Cooldown = e.cfg.ReleaseCooldown
			center = r3.Add(center, a.Pos)
			rel.Members = append(rel.Members, a.ID)
		}
		center = r3.Scale(1/float64(len(members)), center)
		s.Emit(entity.Effect{Kind: entity.EffectFlash, Pos: center, Color: "#ffffff", Count: 16})
		out = append(out, rel)
	}
	return out
}

func finite(v r3.Vec) bool {
	for _, x := range []float64{v.X, v.Y, v.Z} {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return false
		}
	}
	return true
}
