package reactions

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/mistergarrison/simchem3d-sub001/internal/content"
	"github.com/mistergarrison/simchem3d-sub001/internal/entity"
)

// Hadronize binds every isolated cluster of exactly three same-matter
// quarks whose flavors match a baryon recipe. Clusters are proximity
// components: quarks closer than the hadronization radius are linked.
func (e *Engine) Hadronize(s *entity.Store) []*entity.Atom {
	var quarks []*entity.Atom
	for _, a := range s.Atoms() {
		if a.Alive() && !a.Assembling && a.Kind() == content.KindQuark {
			quarks = append(quarks, a)
		}
	}
	if len(quarks) < 3 {
		return nil
	}

	var made []*entity.Atom
	r2 := e.cfg.HadronizationRadius * e.cfg.HadronizationRadius
	seen := make([]bool, len(quarks))
	for i := range quarks {
		if seen[i] {
			continue
		}
		seen[i] = true
		cluster := []int{i}
		for k := 0; k < len(cluster); k++ {
			q := quarks[cluster[k]]
			for j := range quarks {
				if seen[j] {
					continue
				}
				if r3.Norm2(r3.Sub(quarks[j].Pos, q.Pos)) < r2 {
					seen[j] = true
					cluster = append(cluster, j)
				}
			}
		}
		if len(cluster) != 3 {
			continue
		}
		members := []*entity.Atom{quarks[cluster[0]], quarks[cluster[1]], quarks[cluster[2]]}
		if h := e.bind(s, members); h != nil {
			made = append(made, h)
		}
	}
	return made
}

func (e *Engine) bind(s *entity.Store, members []*entity.Atom) *entity.Atom {
	ids := make([]string, len(members))
	anti := members[0].Species.(*content.Quark).Anti()
	for i, q := range members {
		if q.Species.(*content.Quark).Anti() != anti {
			return nil
		}
		ids[i] = q.Species.ID()
	}
	baryon, ok := e.tables.Baryon(ids)
	if !ok {
		return nil
	}

	var pos, momentum r3.Vec
	var mass float64
	for _, q := range members {
		pos = r3.Add(pos, q.Pos)
		momentum = r3.Add(momentum, r3.Scale(q.Mass, q.Vel))
		mass += q.Mass
	}
	pos = r3.Scale(1.0/3, pos)
	vel := r3.Scale(1/mass, momentum)

	for _, q := range members {
		s.Remove(q.ID, ReasonHadronization)
	}
	h := s.Add(baryon, pos, vel, ReasonHadronization)
	h.Cooldown = e.cfg.BondCooldown
	s.Emit(entity.Effect{Kind: entity.EffectFlash, Pos: pos, Color: baryon.Color(), Count: 12})
	return h
}
