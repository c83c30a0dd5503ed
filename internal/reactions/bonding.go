package reactions

import (
	"log/slog"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/mistergarrison/simchem3d-sub001/internal/entity"
	"github.com/mistergarrison/simchem3d-sub001/internal/physics"
	"github.com/mistergarrison/simchem3d-sub001/internal/topology"
)

// CanBond applies the formation rules without touching state. Gentle
// contacts need a free slot on both atoms; violent ones ignore valence
// unless the two atoms already belong to the same molecule.
func (e *Engine) CanBond(s *entity.Store, a, b *entity.Atom, relSpeed float64) bool {
	if a.Z() == 0 || b.Z() == 0 || a.Valence() == 0 || b.Valence() == 0 {
		return false
	}
	if a.InCooldown() || b.InCooldown() || a.Assembling || b.Assembling {
		return false
	}
	if a.BondOrder(b.ID) >= 3 {
		return false
	}
	open := a.OpenSlots() > 0 && b.OpenSlots() > 0
	switch {
	case relSpeed < e.cfg.GentleBondSpeed:
		return open
	case relSpeed > e.cfg.ForcedBondSpeed:
		if open {
			return true
		}
		return !sameMolecule(s, a, b)
	}
	return false
}

func sameMolecule(s *entity.Store, a, b *entity.Atom) bool {
	for _, m := range topology.Group(s, a) {
		if m.ID == b.ID {
			return true
		}
	}
	return false
}

// Bond forms a single bond between two touching atoms when the rules
// allow it.
func (e *Engine) Bond(s *entity.Store, a, b *entity.Atom, relSpeed float64) bool {
	if !e.CanBond(s, a, b, relSpeed) {
		return false
	}
	entity.Link(a, b)

	v := mergeVelocity(a, b)
	a.Vel, b.Vel = v, v

	// snap to the rest length around the pair's center of mass
	delta := r3.Sub(b.Pos, a.Pos)
	if d := r3.Norm(delta); d > 0 {
		m := a.Mass + b.Mass
		com := r3.Scale(1/m, r3.Add(r3.Scale(a.Mass, a.Pos), r3.Scale(b.Mass, b.Pos)))
		dir := r3.Scale(1/d, delta)
		rest := physics.RestLength(a, b, e.cfg)
		a.Pos = r3.Sub(com, r3.Scale(rest*b.Mass/m, dir))
		b.Pos = r3.Add(com, r3.Scale(rest*a.Mass/m, dir))
	}

	topology.Redistribute(topology.Group(s, a))
	a.Cooldown = e.cfg.BondCooldown
	b.Cooldown = e.cfg.BondCooldown

	e.log.Debug("bond formed",
		slog.String("a", a.Species.Symbol()),
		slog.String("b", b.Species.Symbol()),
		slog.Float64("speed", relSpeed))
	return true
}

// Anneal raises the order of existing bonds whose atoms both still have
// free slots. At most one step per bond per call.
func (e *Engine) Anneal(s *entity.Store) int {
	upgraded := 0
	for _, a := range s.Atoms() {
		if !a.Alive() || a.Z() == 0 || a.Assembling || a.InCooldown() {
			continue
		}
		for _, nid := range a.Neighbors() {
			if a.OpenSlots() == 0 {
				break
			}
			b, ok := s.Get(nid)
			if !ok || b.ID < a.ID || b.Assembling || b.InCooldown() || b.OpenSlots() == 0 {
				continue
			}
			if a.BondOrder(b.ID) >= 3 {
				continue
			}
			entity.Link(a, b)
			topology.Redistribute(topology.Group(s, a))
			upgraded++
		}
	}
	return upgraded
}
