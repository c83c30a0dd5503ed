package entity

import (
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"
)

type EffectKind string

const (
	EffectExplosion EffectKind = "explosion"
	EffectFlash     EffectKind = "flash"
	EffectSpark     EffectKind = "spark"
)

// Effect is a request for a burst of visual particles.
type Effect struct {
	Kind  EffectKind
	Pos   r3.Vec
	Color string
	Count int
}

// Particle is purely visual and never touches atom state.
type Particle struct {
	Pos     r3.Vec
	Vel     r3.Vec
	Life    float64
	MaxLife float64
	Color   string
}

var effectSpeed = map[EffectKind]float64{
	EffectExplosion: 220,
	EffectFlash:     90,
	EffectSpark:     140,
}

// Burst materialises an effect as particles with random headings.
func (s *Store) Burst(e Effect, life float64, rng *rand.Rand) {
	speed := effectSpeed[e.Kind]
	for i := 0; i < e.Count; i++ {
		theta := rng.Float64() * 2 * math.Pi
		v := speed * (0.4 + 0.6*rng.Float64())
		s.particles = append(s.particles, &Particle{
			Pos:     e.Pos,
			Vel:     r3.Vec{X: v * math.Cos(theta), Y: v * math.Sin(theta)},
			Life:    life,
			MaxLife: life,
			Color:   e.Color,
		})
	}
}

// AgeParticles advances and expires particles.
func (s *Store) AgeParticles(dt float64) {
	kept := s.particles[:0]
	for _, p := range s.particles {
		p.Life -= dt
		if p.Life <= 0 {
			continue
		}
		p.Pos = r3.Add(p.Pos, r3.Scale(dt, p.Vel))
		kept = append(kept, p)
	}
	for i := len(kept); i < len(s.particles); i++ {
		s.particles[i] = nil
	}
	s.particles = kept
}

func (s *Store) Particles() []*Particle { return s.particles }
