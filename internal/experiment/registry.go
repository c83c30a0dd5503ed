package experiment

import (
	"errors"
	"fmt"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/mistergarrison/simchem3d-sub001/internal/sim"
	"github.com/mistergarrison/simchem3d-sub001/internal/spawn"
)

var ErrUnknownScenario = errors.New("experiment: unknown scenario")

// Scenario is a named starting arrangement plus the intents that drive it.
type Scenario struct {
	Name        string
	Description string
	Frames      int
	Setup       func(e *sim.Engine) error
	// Intent, when set, supplies the intent for each frame.
	Intent func(frame int) sim.Intent
}

type Registry struct {
	scenarios map[string]Scenario
}

func NewRegistry() *Registry {
	r := &Registry{scenarios: make(map[string]Scenario)}

	r.Register(Scenario{
		Name:        "annihilation",
		Description: "an electron and a positron collide head on",
		Frames:      300,
		Setup: spawnAll(
			placement{"electron", r3.Vec{X: -30}, r3.Vec{X: 100}},
			placement{"positron", r3.Vec{X: 30}, r3.Vec{X: -100}},
		),
	})
	r.Register(Scenario{
		Name:        "hadronization",
		Description: "two up quarks and a down quark converge into a proton",
		Frames:      300,
		Setup: spawnAll(
			placement{"up", r3.Vec{X: -25, Y: -10}, r3.Vec{X: 40}},
			placement{"up", r3.Vec{X: 25, Y: -10}, r3.Vec{X: -40}},
			placement{"down", r3.Vec{Y: 25}, r3.Vec{Y: -40}},
		),
	})
	r.Register(Scenario{
		Name:        "water",
		Description: "two hydrogens bond to one oxygen",
		Frames:      600,
		Setup: spawnAll(
			placement{"O", r3.Vec{}, r3.Vec{}},
			placement{"H", r3.Vec{X: -60}, r3.Vec{X: 60}},
			placement{"H", r3.Vec{X: 130}, r3.Vec{X: -60}},
		),
	})
	r.Register(Scenario{
		Name:        "benzene",
		Description: "the choreographer assembles benzene from a fresh cloud",
		Frames:      300,
		Intent: func(frame int) sim.Intent {
			if frame != 1 {
				return sim.Intent{}
			}
			return sim.Intent{Version: 1, Assemble: &sim.AssembleRequest{Molecule: "benzene"}}
		},
	})
	r.Register(Scenario{
		Name:        "decay",
		Description: "a row of lithium-8 nuclei decaying through beryllium-8 into helium",
		Frames:      600,
		Setup: func(e *sim.Engine) error {
			for i := 0; i < 6; i++ {
				if _, err := e.Spawn("Li-8", r3.Vec{X: float64(i-3) * 120}, r3.Vec{}); err != nil {
					return err
				}
			}
			return nil
		},
	})
	r.Register(Scenario{
		Name:        "pair-production",
		Description: "energy released at the electron, up quark and proton thresholds",
		Frames:      300,
		Intent: releases(map[int]float64{
			10:  1.022,
			60:  4.32,
			120: 938.3,
		}),
	})
	r.Register(Scenario{
		Name:        "capture",
		Description: "a proton captures an electron and the hydrogen then captures a neutron",
		Frames:      600,
		Setup: spawnAll(
			placement{"proton", r3.Vec{X: -40}, r3.Vec{}},
			placement{"electron", r3.Vec{X: -120}, r3.Vec{X: 80}},
			placement{"neutron", r3.Vec{X: 200}, r3.Vec{X: -120}},
		),
	})
	r.Register(Scenario{
		Name:        "soup",
		Description: "a noise-shaped scatter of light elements with a few free electrons",
		Frames:      600,
		Setup: func(e *sim.Engine) error {
			b := e.Bounds()
			lo := r3.Scale(0.8, b.Min)
			hi := r3.Scale(0.8, b.Max)
			field := spawn.NewField(e.Seed(), 0.004)
			s := e.Store()
			if _, err := e.Factory().Scatter(s, []string{"H", "H", "H", "O", "C", "N"}, 90, lo, hi, field, 80); err != nil {
				return err
			}
			_, err := e.Factory().Scatter(s, []string{"electron"}, 8, lo, hi, field, 120)
			return err
		},
	})

	return r
}

func (r *Registry) Register(s Scenario) {
	r.scenarios[s.Name] = s
}

func (r *Registry) Get(name string) (Scenario, error) {
	s, ok := r.scenarios[name]
	if !ok {
		return Scenario{}, fmt.Errorf("%w: %q", ErrUnknownScenario, name)
	}
	return s, nil
}

func (r *Registry) List() []string {
	names := make([]string, 0, len(r.scenarios))
	for name := range r.scenarios {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

type placement struct {
	species  string
	pos, vel r3.Vec
}

func spawnAll(ps ...placement) func(*sim.Engine) error {
	return func(e *sim.Engine) error {
		for _, p := range ps {
			if _, err := e.Spawn(p.species, p.pos, p.vel); err != nil {
				return err
			}
		}
		return nil
	}
}

// releases fires the energy tool at the origin on the given frames.
func releases(at map[int]float64) func(int) sim.Intent {
	return func(frame int) sim.Intent {
		v, ok := at[frame]
		if !ok {
			return sim.Intent{}
		}
		return sim.Intent{Version: uint64(frame), Energy: sim.Energy{Value: v, Release: true}}
	}
}
