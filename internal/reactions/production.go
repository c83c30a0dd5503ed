package reactions

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/mistergarrison/simchem3d-sub001/internal/content"
	"github.com/mistergarrison/simchem3d-sub001/internal/entity"
)

// MatchResonance picks the producible particle whose threshold lies
// closest to energy, accepting only thresholds within tolerance (a
// fraction of the threshold).
func MatchResonance(candidates []*content.ParticleDef, energy, tolerance float64) (*content.ParticleDef, bool) {
	var best *content.ParticleDef
	bestDist := math.Inf(1)
	for _, p := range candidates {
		if p.Threshold <= 0 {
			continue
		}
		dist := math.Abs(energy - p.Threshold)
		if dist > tolerance*p.Threshold {
			continue
		}
		if dist < bestDist {
			best, bestDist = p, dist
		}
	}
	return best, best != nil
}

// Production is the outcome of releasing energy.
type Production struct {
	Particle string
	Atoms    []entity.ID
	Speed    float64
}

// Produce converts an energy release at pos into matter. Energy that
// matches no threshold is dissipated as a flash and reported as ok=false.
func (e *Engine) Produce(s *entity.Store, energy float64, pos r3.Vec) (Production, bool) {
	def, ok := MatchResonance(e.tables.Producible(), energy, e.cfg.ResonanceTolerance)
	if !ok {
		s.Emit(entity.Effect{Kind: entity.EffectFlash, Pos: pos, Color: "#ffffaa", Count: 8})
		return Production{}, false
	}

	excess := math.Max(0, energy-def.Threshold)
	speed := e.cfg.PairSpeedBase + e.cfg.PairSpeedScale*math.Sqrt(excess)
	dir := e.randomUnit()
	prod := Production{Particle: def.ID, Speed: speed}

	sp := e.species(def.ID)
	if sp == nil {
		return Production{}, false
	}

	if sp.Kind() == content.KindHadron || def.Antiparticle == "" {
		a := s.Add(sp, pos, r3.Scale(speed, dir), ReasonPairProduction)
		a.Cooldown = e.cfg.ReleaseCooldown
		prod.Atoms = append(prod.Atoms, a.ID)
		return prod, true
	}

	anti := e.species(def.Antiparticle)
	if anti == nil {
		return Production{}, false
	}
	offset := r3.Scale(sp.Radius()+anti.Radius(), dir)
	a := s.Add(sp, r3.Add(pos, offset), r3.Scale(speed, dir), ReasonPairProduction)
	b := s.Add(anti, r3.Sub(pos, offset), r3.Scale(-speed, dir), ReasonPairProduction)
	a.Cooldown = e.cfg.ReleaseCooldown
	b.Cooldown = e.cfg.ReleaseCooldown
	prod.Atoms = append(prod.Atoms, a.ID, b.ID)
	s.Emit(entity.Effect{Kind: entity.EffectFlash, Pos: pos, Color: sp.Color(), Count: 10})
	return prod, true
}

func (p Production) String() string {
	return fmt.Sprintf("%s x%d at %.1f", p.Particle, len(p.Atoms), p.Speed)
}
