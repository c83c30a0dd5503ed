package integrators

import (
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/mistergarrison/simchem3d-sub001/internal/config"
	"github.com/mistergarrison/simchem3d-sub001/internal/content"
	"github.com/mistergarrison/simchem3d-sub001/internal/entity"
)

func benchStore(n int) *entity.Store {
	tables := content.MustDefault()
	rng := rand.New(rand.NewSource(1))
	s := entity.NewStore()
	for i := 0; i < n; i++ {
		sp, _ := tables.Species([]string{"H", "C", "O", "electron"}[i%4])
		a := s.Add(sp, r3.Vec{X: rng.Float64()*800 - 400, Y: rng.Float64()*600 - 300}, r3.Vec{}, "bench")
		a.Force = r3.Vec{X: rng.NormFloat64() * 100, Y: rng.NormFloat64() * 100}
	}
	return s
}

func BenchmarkEuler100(b *testing.B) {
	benchmarkEuler(b, 100)
}

func BenchmarkEuler1000(b *testing.B) {
	benchmarkEuler(b, 1000)
}

func benchmarkEuler(b *testing.B, n int) {
	cfg := config.DefaultConfig()
	e := NewEuler(cfg.Physics, WorldBounds(cfg.World), rand.New(rand.NewSource(1)), nil)
	s := benchStore(n)
	dt := cfg.Physics.SubstepDt()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		e.Step(s, dt, float64(i)*dt)
	}
}
