package reactions

import (
	"log/slog"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/mistergarrison/simchem3d-sub001/internal/entity"
	"github.com/mistergarrison/simchem3d-sub001/internal/topology"
)

// Transmutation describes one decay event.
type Transmutation struct {
	ID        entity.ID
	From, To  string
	Mode      string
	Byproduct entity.ID
}

// DecayProbability is the chance that a nucleus with the given half-life
// decays within elapsed seconds.
func DecayProbability(elapsed, halfLife float64) float64 {
	if elapsed <= 0 || halfLife <= 0 {
		return 0
	}
	return 1 - math.Exp2(-elapsed/halfLife)
}

// Decay rolls every unstable nucleus once for the time since its last
// check.
func (e *Engine) Decay(s *entity.Store, now float64) []Transmutation {
	var out []Transmutation
	for _, a := range s.Atoms() {
		if !a.Alive() || a.Assembling {
			continue
		}
		n, ok := a.Nucleus()
		if !ok || !n.Isotope.Unstable() {
			continue
		}
		elapsed := now - a.LastDecayCheck
		a.LastDecayCheck = now
		if e.rng.Float64() >= DecayProbability(elapsed, n.Isotope.HalfLife.Seconds) {
			continue
		}
		if t, ok := e.transmute(s, a); ok {
			out = append(out, t)
		}
	}
	return out
}

func (e *Engine) transmute(s *entity.Store, a *entity.Atom) (Transmutation, bool) {
	n, _ := a.Nucleus()
	d := n.Isotope.Decay
	product, err := e.tables.Nucleus(d.Z, d.Mass)
	if err != nil {
		// tables are validated at load, so this is a programming error
		e.log.Error("decay product missing", slog.String("from", n.ID()), slog.Any("err", err))
		return Transmutation{}, false
	}

	neighbors := a.Neighbors()
	for _, nid := range neighbors {
		if b, ok := s.Get(nid); ok {
			entity.Unlink(a, b)
		}
	}
	for _, nid := range neighbors {
		if b, ok := s.Get(nid); ok {
			topology.Redistribute(topology.Group(s, b))
		}
	}

	t := Transmutation{ID: a.ID, From: n.ID(), Mode: d.Mode}
	s.Transmute(a, product, ReasonDecay)
	t.To = product.ID()

	var byproduct string
	switch d.Mode {
	case "beta-":
		byproduct = "electron"
		a.Charge++
	case "beta+":
		byproduct = "positron"
		a.Charge--
	case "alpha":
		byproduct = "He-4"
	}
	if sp := e.species(byproduct); sp != nil {
		dir := e.randomUnit()
		pos := r3.Add(a.Pos, r3.Scale(a.Radius+sp.Radius(), dir))
		vel := r3.Add(a.Vel, r3.Scale(e.cfg.DecayEjectSpeed, dir))
		b := s.Add(sp, pos, vel, ReasonDecay)
		b.Cooldown = e.cfg.ReleaseCooldown
		t.Byproduct = b.ID
	}
	a.Cooldown = e.cfg.BondCooldown

	s.Emit(entity.Effect{Kind: entity.EffectSpark, Pos: a.Pos, Color: product.Color(), Count: 10})
	e.log.Debug("decay", slog.String("from", t.From), slog.String("to", t.To), slog.String("mode", t.Mode))
	return t, true
}
