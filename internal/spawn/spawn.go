// Package spawn places new atoms in the world.
package spawn

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/aquilax/go-perlin"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/mistergarrison/simchem3d-sub001/internal/content"
	"github.com/mistergarrison/simchem3d-sub001/internal/entity"
)

const (
	ReasonSpawn = "spawn"
	ReasonCloud = "assembly cloud"
)

// cloudFlattening squashes clouds toward the camera plane.
const cloudFlattening = 0.3

// Resolve turns a user-facing id into a species.
func Resolve(t *content.Tables, id string) (content.Species, error) {
	sp, err := t.Species(id)
	if err != nil {
		return nil, fmt.Errorf("spawn %q: %w", id, err)
	}
	return sp, nil
}

type Factory struct {
	tables *content.Tables
	rng    *rand.Rand
}

func NewFactory(t *content.Tables, rng *rand.Rand) *Factory {
	return &Factory{tables: t, rng: rng}
}

// Atom spawns a single atom.
func (f *Factory) Atom(s *entity.Store, id string, pos, vel r3.Vec) (*entity.Atom, error) {
	sp, err := Resolve(f.tables, id)
	if err != nil {
		return nil, err
	}
	return s.Add(sp, pos, vel, ReasonSpawn), nil
}

// Cloud spawns the primary isotope of every listed atomic number at random
// points of a flattened sphere.
func (f *Factory) Cloud(s *entity.Store, zs []int, center r3.Vec, radius float64) ([]*entity.Atom, error) {
	species := make([]content.Species, len(zs))
	for i, z := range zs {
		sp, err := f.tables.Nucleus(z, 0)
		if err != nil {
			return nil, fmt.Errorf("spawn cloud: %w", err)
		}
		species[i] = sp
	}
	out := make([]*entity.Atom, len(zs))
	for i, sp := range species {
		out[i] = s.Add(sp, r3.Add(center, f.inSphere(radius)), r3.Vec{}, ReasonCloud)
	}
	return out, nil
}

// Ingredients expands a molecule definition into its atomic numbers.
func Ingredients(m *content.MoleculeDef) []int {
	var zs []int
	for _, ing := range m.Ingredients {
		for i := 0; i < ing.Count; i++ {
			zs = append(zs, ing.Z)
		}
	}
	return zs
}

func (f *Factory) inSphere(radius float64) r3.Vec {
	for {
		v := r3.Vec{
			X: 2*f.rng.Float64() - 1,
			Y: 2*f.rng.Float64() - 1,
			Z: 2*f.rng.Float64() - 1,
		}
		if r3.Norm2(v) <= 1 {
			v.Z *= cloudFlattening
			return r3.Scale(radius, v)
		}
	}
}

// Field is a smooth density used to scatter atoms in organic clumps.
type Field struct {
	noise *perlin.Perlin
	scale float64
}

func NewField(seed int64, scale float64) *Field {
	return &Field{noise: perlin.NewPerlin(2, 2, 3, seed), scale: scale}
}

// Density maps a world point to [0,1].
func (fd *Field) Density(x, y float64) float64 {
	v := (fd.noise.Noise2D(x*fd.scale, y*fd.scale) + 1) / 2
	return math.Max(0, math.Min(1, v))
}

// Scatter spawns n atoms drawn round-robin from ids inside the box
// [lo,hi], placing them where the field is dense. Velocities are random
// with the given maximum speed.
func (f *Factory) Scatter(s *entity.Store, ids []string, n int, lo, hi r3.Vec, field *Field, speed float64) ([]*entity.Atom, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	species := make([]content.Species, len(ids))
	for i, id := range ids {
		sp, err := Resolve(f.tables, id)
		if err != nil {
			return nil, err
		}
		species[i] = sp
	}

	out := make([]*entity.Atom, 0, n)
	for i := 0; i < n; i++ {
		var pos r3.Vec
		for try := 0; try < 32; try++ {
			pos = r3.Vec{
				X: lo.X + f.rng.Float64()*(hi.X-lo.X),
				Y: lo.Y + f.rng.Float64()*(hi.Y-lo.Y),
			}
			if field == nil || f.rng.Float64() < field.Density(pos.X, pos.Y) {
				break
			}
		}
		theta := f.rng.Float64() * 2 * math.Pi
		v := speed * f.rng.Float64()
		vel := r3.Vec{X: v * math.Cos(theta), Y: v * math.Sin(theta)}
		out = append(out, s.Add(species[i%len(species)], pos, vel, ReasonSpawn))
	}
	return out, nil
}
