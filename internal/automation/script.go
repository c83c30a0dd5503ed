// Package automation loads scenarios described in YAML.
package automation

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"
	"gopkg.in/yaml.v3"

	"github.com/mistergarrison/simchem3d-sub001/internal/config"
	"github.com/mistergarrison/simchem3d-sub001/internal/content"
	"github.com/mistergarrison/simchem3d-sub001/internal/experiment"
	"github.com/mistergarrison/simchem3d-sub001/internal/sim"
)

var ErrInvalidScript = errors.New("automation: invalid script")

// Script is a scripted scenario: initial atoms plus per-frame actions.
type Script struct {
	Name        string             `yaml:"name"`
	Description string             `yaml:"description"`
	Frames      int                `yaml:"frames"`
	Preset      string             `yaml:"preset,omitempty"`
	Physics     map[string]float64 `yaml:"physics,omitempty"`
	Atoms       []Placement        `yaml:"atoms"`
	Steps       []Step             `yaml:"steps"`
}

type Placement struct {
	Species string     `yaml:"species"`
	Pos     [3]float64 `yaml:"pos"`
	Vel     [3]float64 `yaml:"vel"`
}

// Step is what happens on one frame. Frames count from 1.
type Step struct {
	Frame    int         `yaml:"frame"`
	Spawn    []Placement `yaml:"spawn,omitempty"`
	Energy   float64     `yaml:"energy,omitempty"`
	At       [3]float64  `yaml:"at,omitempty"`
	Assemble string      `yaml:"assemble,omitempty"`
}

func vec(v [3]float64) r3.Vec { return r3.Vec{X: v[0], Y: v[1], Z: v[2]} }

func LoadScript(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return ParseScript(data)
}

func ParseScript(data []byte) (*Script, error) {
	var s Script
	if err := yaml.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("automation: decode script: %w", err)
	}
	sort.SliceStable(s.Steps, func(i, j int) bool { return s.Steps[i].Frame < s.Steps[j].Frame })
	return &s, nil
}

// Validate checks every species and molecule against the tables and
// every step against the frame count.
func (s *Script) Validate(t *content.Tables) error {
	var errs []error
	if s.Name == "" {
		errs = append(errs, fmt.Errorf("%w: name is required", ErrInvalidScript))
	}
	if s.Frames <= 0 {
		errs = append(errs, fmt.Errorf("%w: frames must be positive, got %d", ErrInvalidScript, s.Frames))
	}
	if s.Preset != "" {
		if _, ok := config.GetPreset(s.Preset); !ok {
			errs = append(errs, fmt.Errorf("%w: unknown preset %q", ErrInvalidScript, s.Preset))
		}
	}
	if len(s.Physics) > 0 {
		if _, err := config.DefaultPhysics().With(s.Physics); err != nil {
			errs = append(errs, err)
		}
	}
	check := func(where string, ps []Placement) {
		for _, p := range ps {
			if _, err := t.Species(p.Species); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", where, err))
			}
		}
	}
	check("atoms", s.Atoms)
	for i, st := range s.Steps {
		where := fmt.Sprintf("step %d (frame %d)", i, st.Frame)
		if st.Frame < 1 || st.Frame > s.Frames {
			errs = append(errs, fmt.Errorf("%w: %s outside 1..%d", ErrInvalidScript, where, s.Frames))
		}
		if st.Energy < 0 {
			errs = append(errs, fmt.Errorf("%w: %s has negative energy", ErrInvalidScript, where))
		}
		check(where, st.Spawn)
		if st.Assemble != "" {
			if _, err := t.Molecule(st.Assemble); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", where, err))
			}
		}
	}
	return errors.Join(errs...)
}

// Apply layers the script's preset and physics overrides onto cfg.
func (s *Script) Apply(cfg *config.Config) error {
	if s.Preset != "" {
		p, ok := config.GetPreset(s.Preset)
		if !ok {
			return fmt.Errorf("%w: unknown preset %q", ErrInvalidScript, s.Preset)
		}
		cfg.Physics = p
	}
	if len(s.Physics) == 0 {
		return nil
	}
	p, err := cfg.Physics.With(s.Physics)
	if err != nil {
		return err
	}
	cfg.Physics = p
	return nil
}

// Scenario turns the script into a registry scenario.
func (s *Script) Scenario() experiment.Scenario {
	byFrame := make(map[int][]Step)
	for _, st := range s.Steps {
		byFrame[st.Frame] = append(byFrame[st.Frame], st)
	}
	return experiment.Scenario{
		Name:        s.Name,
		Description: s.Description,
		Frames:      s.Frames,
		Setup: func(e *sim.Engine) error {
			for _, p := range s.Atoms {
				if _, err := e.Spawn(p.Species, vec(p.Pos), vec(p.Vel)); err != nil {
					return err
				}
			}
			return nil
		},
		Intent: func(frame int) sim.Intent {
			steps, ok := byFrame[frame]
			if !ok {
				return sim.Intent{}
			}
			in := sim.Intent{Version: uint64(frame)}
			for _, st := range steps {
				for _, p := range st.Spawn {
					in.Spawns = append(in.Spawns, sim.SpawnRequest{Species: p.Species, Pos: vec(p.Pos), Vel: vec(p.Vel)})
				}
				if st.Energy > 0 {
					in.Energy = sim.Energy{Value: st.Energy, Release: true, At: vec(st.At)}
				}
				if st.Assemble != "" {
					in.Assemble = &sim.AssembleRequest{Molecule: st.Assemble, At: vec(st.At)}
				}
			}
			return in
		},
	}
}
