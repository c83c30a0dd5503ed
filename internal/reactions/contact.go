package reactions

import (
	"log/slog"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/mistergarrison/simchem3d-sub001/internal/entity"
	"github.com/mistergarrison/simchem3d-sub001/internal/topology"
)

// Contact runs annihilation, electron capture and neutron capture in that
// order and stops at the first rule that consumes an atom.
func (e *Engine) Contact(s *entity.Store, a, b *entity.Atom, dist float64) bool {
	if e.annihilate(s, a, b, dist) {
		return true
	}
	if e.captureElectron(s, a, b, dist) {
		return true
	}
	return e.captureNeutron(s, a, b, dist)
}

// Antiparticles reports whether a and b annihilate with each other.
func Antiparticles(a, b *entity.Atom) bool {
	anti := a.Species.Antiparticle()
	return anti != "" && anti == b.Species.ID()
}

func (e *Engine) annihilate(s *entity.Store, a, b *entity.Atom, dist float64) bool {
	if !Antiparticles(a, b) || a.InCooldown() || b.InCooldown() {
		return false
	}
	if dist > (a.Radius+b.Radius)*e.cfg.AnnihilationFactor {
		return false
	}

	mid := r3.Scale(0.5, r3.Add(a.Pos, b.Pos))
	s.Remove(a.ID, ReasonAnnihilation)
	s.Remove(b.ID, ReasonAnnihilation)
	s.Emit(entity.Effect{Kind: entity.EffectExplosion, Pos: mid, Color: "#ffffff", Count: 24})

	if photon := e.species("photon"); photon != nil {
		dir := e.randomUnit()
		v := r3.Scale(e.cfg.BosonSpeed, dir)
		s.Add(photon, mid, v, ReasonAnnihilation)
		s.Add(photon, mid, r3.Scale(-1, v), ReasonAnnihilation)
	}
	e.log.Debug("annihilation",
		slog.String("a", a.Species.ID()),
		slog.String("b", b.Species.ID()))
	return true
}

// captureElectron absorbs a free electron into a proton (forming hydrogen)
// or into a nucleus (forming an anion).
func (e *Engine) captureElectron(s *entity.Store, a, b *entity.Atom, dist float64) bool {
	electron, target := a, b
	if !isParticle(electron, "electron") {
		electron, target = b, a
	}
	if !isParticle(electron, "electron") || electron.InCooldown() || target.Assembling {
		return false
	}
	if dist > target.Radius+e.cfg.CaptureRadius {
		return false
	}

	switch {
	case isParticle(target, "proton"):
		h, err := e.tables.Nucleus(1, 1)
		if err != nil {
			return false
		}
		vel := mergeVelocity(target, electron)
		s.Remove(electron.ID, ReasonElectronCapture)
		s.Transmute(target, h, ReasonElectronCapture)
		target.Vel = vel
		target.Charge += electron.Charge
	case target.Z() > 0:
		if target.Charge+electron.Charge < -e.cfg.MaxIonCharge {
			return false
		}
		vel := mergeVelocity(target, electron)
		s.Remove(electron.ID, ReasonElectronCapture)
		target.Vel = vel
		target.Mass += electron.Mass
		target.Charge += electron.Charge
		topology.Redistribute(topology.Group(s, target))
	default:
		return false
	}
	s.Emit(entity.Effect{Kind: entity.EffectFlash, Pos: target.Pos, Color: electron.Species.Color(), Count: 6})
	return true
}

// captureNeutron absorbs a neutron into a nucleus whose next-heavier
// isotope exists, or binds it to a proton as deuterium.
func (e *Engine) captureNeutron(s *entity.Store, a, b *entity.Atom, dist float64) bool {
	neutron, target := a, b
	if !isParticle(neutron, "neutron") {
		neutron, target = b, a
	}
	if !isParticle(neutron, "neutron") || neutron.InCooldown() || target.Assembling {
		return false
	}
	if dist > target.Radius+e.cfg.CaptureRadius {
		return false
	}

	var z, mass int
	switch {
	case isParticle(target, "proton"):
		z, mass = 1, 2
	default:
		n, ok := target.Nucleus()
		if !ok {
			return false
		}
		z, mass = n.Z(), n.Isotope.Mass+1
	}
	product, err := e.tables.Nucleus(z, mass)
	if err != nil {
		return false
	}

	charge := target.Charge
	vel := mergeVelocity(target, neutron)
	s.Remove(neutron.ID, ReasonNeutronCapture)
	s.Transmute(target, product, ReasonNeutronCapture)
	target.Vel = vel
	target.Charge = charge
	s.Emit(entity.Effect{Kind: entity.EffectFlash, Pos: target.Pos, Color: "#aaaaaa", Count: 6})
	return true
}
