// Package reactions holds the rule modules that change what atoms are:
// annihilation, capture, bond formation and annealing, hadronization,
// radioactive decay and pair production.
//
// Contact rules run from inside the pairwise force pass through
// [Engine.Contact] and [Engine.Bond]; the discrete rules run once per
// frame from the simulation loop.
package reactions

import (
	"log/slog"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/mistergarrison/simchem3d-sub001/internal/config"
	"github.com/mistergarrison/simchem3d-sub001/internal/content"
	"github.com/mistergarrison/simchem3d-sub001/internal/entity"
)

// Removal reasons recorded in the event log.
const (
	ReasonAnnihilation    = "annihilation"
	ReasonElectronCapture = "electron capture"
	ReasonNeutronCapture  = "neutron capture"
	ReasonHadronization   = "hadronization"
	ReasonDecay           = "decay"
	ReasonPairProduction  = "pair production"
)

type Engine struct {
	tables *content.Tables
	cfg    config.Physics
	rng    *rand.Rand
	log    *slog.Logger
}

func New(tables *content.Tables, cfg config.Physics, rng *rand.Rand, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.New(slog.DiscardHandler)
	}
	return &Engine{tables: tables, cfg: cfg, rng: rng, log: log}
}

func (e *Engine) randomUnit() r3.Vec {
	theta := e.rng.Float64() * 2 * math.Pi
	return r3.Vec{X: math.Cos(theta), Y: math.Sin(theta)}
}

func (e *Engine) species(id string) content.Species {
	if id == "" {
		return nil
	}
	sp, err := e.tables.Species(id)
	if err != nil {
		e.log.Warn("species missing from tables", slog.String("id", id))
		return nil
	}
	return sp
}

// mergeVelocity gives both atoms the velocity of a perfectly inelastic
// collision.
func mergeVelocity(a, b *entity.Atom) r3.Vec {
	m := a.Mass + b.Mass
	if m == 0 {
		return r3.Scale(0.5, r3.Add(a.Vel, b.Vel))
	}
	return r3.Scale(1/m, r3.Add(r3.Scale(a.Mass, a.Vel), r3.Scale(b.Mass, b.Vel)))
}

func isParticle(a *entity.Atom, id string) bool {
	_, nucleus := a.Nucleus()
	return !nucleus && a.Species.ID() == id
}
