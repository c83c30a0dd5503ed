package content

import (
	_ "embed"
	"errors"
	"fmt"
	"math"
	"os"
	"sort"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

var (
	ErrUnknownSpecies  = errors.New("content: unknown species")
	ErrUnknownMolecule = errors.New("content: unknown molecule")
)

//go:embed data/tables.yaml
var defaultTables []byte

// HalfLife is either "stable" or a number of (rescaled) seconds.
type HalfLife struct {
	Stable  bool
	Seconds float64
}

func (h *HalfLife) UnmarshalYAML(n *yaml.Node) error {
	v := strings.TrimSpace(n.Value)
	if v == "" || strings.EqualFold(v, "stable") {
		*h = HalfLife{Stable: true}
		return nil
	}
	s, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("line %d: half_life %q: %w", n.Line, v, err)
	}
	*h = HalfLife{Seconds: s}
	return nil
}

func (h HalfLife) MarshalYAML() (any, error) {
	if h.Stable {
		return "stable", nil
	}
	return h.Seconds, nil
}

// Fraction accepts plain numbers and "p/q" literals such as "2/3".
type Fraction float64

func (f *Fraction) UnmarshalYAML(n *yaml.Node) error {
	v := strings.TrimSpace(n.Value)
	if num, den, ok := strings.Cut(v, "/"); ok {
		p, err := strconv.ParseFloat(strings.TrimSpace(num), 64)
		if err != nil {
			return fmt.Errorf("line %d: fraction %q: %w", n.Line, v, err)
		}
		q, err := strconv.ParseFloat(strings.TrimSpace(den), 64)
		if err != nil || q == 0 {
			return fmt.Errorf("line %d: fraction %q: bad denominator", n.Line, v)
		}
		*f = Fraction(p / q)
		return nil
	}
	x, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fmt.Errorf("line %d: number %q: %w", n.Line, v, err)
	}
	*f = Fraction(x)
	return nil
}

type Decay struct {
	Mode string `yaml:"mode"` // beta-, beta+, alpha
	Z    int    `yaml:"z"`
	Mass int    `yaml:"mass"`
}

type Isotope struct {
	Mass     int      `yaml:"mass"`
	HalfLife HalfLife `yaml:"half_life"`
	Decay    *Decay   `yaml:"decay,omitempty"`
}

func (i *Isotope) Unstable() bool { return !i.HalfLife.Stable && i.HalfLife.Seconds > 0 }

type Element struct {
	Z                 int        `yaml:"z"`
	Symbol            string     `yaml:"symbol"`
	Name              string     `yaml:"name"`
	Valence           int        `yaml:"valence"`
	ValenceElectrons  int        `yaml:"valence_electrons"`
	Electronegativity float64    `yaml:"electronegativity"`
	Radius            float64    `yaml:"radius"`
	Color             string     `yaml:"color"`
	Isotopes          []*Isotope `yaml:"isotopes"`
}

// Isotope returns the isotope with the given nucleon number.
func (e *Element) Isotope(mass int) (*Isotope, bool) {
	for _, iso := range e.Isotopes {
		if iso.Mass == mass {
			return iso, true
		}
	}
	return nil, false
}

// Primary is the first stable isotope, or the first listed one.
func (e *Element) Primary() *Isotope {
	for _, iso := range e.Isotopes {
		if !iso.Unstable() {
			return iso
		}
	}
	if len(e.Isotopes) > 0 {
		return e.Isotopes[0]
	}
	return nil
}

type ParticleDef struct {
	ID           string   `yaml:"id"`
	Symbol       string   `yaml:"symbol"`
	Name         string   `yaml:"name"`
	Kind         string   `yaml:"kind"`
	Mass         float64  `yaml:"mass"`
	Charge       Fraction `yaml:"charge"`
	Radius       float64  `yaml:"radius"`
	Color        string   `yaml:"color"`
	Antiparticle string   `yaml:"antiparticle,omitempty"`
	Anti         bool     `yaml:"anti,omitempty"`
	Massless     bool     `yaml:"massless,omitempty"`
	Quarks       []string `yaml:"quarks,omitempty"`
	// Threshold is the rest-mass energy that produces this particle from
	// an energy release. Zero means it cannot be produced that way.
	Threshold float64 `yaml:"threshold,omitempty"`

	kind Kind
}

type Ingredient struct {
	Z     int `yaml:"z"`
	Count int `yaml:"count"`
}

type Structure struct {
	Atoms []int    `yaml:"atoms"`
	Bonds [][3]int `yaml:"bonds"`
}

type MoleculeDef struct {
	ID          string       `yaml:"id"`
	Name        string       `yaml:"name"`
	Formula     string       `yaml:"formula"`
	Ingredients []Ingredient `yaml:"ingredients"`
	Structure   *Structure   `yaml:"structure,omitempty"`
}

// AtomCount is the total number of ingredient atoms.
func (m *MoleculeDef) AtomCount() int {
	n := 0
	for _, ing := range m.Ingredients {
		n += ing.Count
	}
	return n
}

type document struct {
	Elements  []*Element     `yaml:"elements"`
	Particles []*ParticleDef `yaml:"particles"`
	Molecules []*MoleculeDef `yaml:"molecules"`
}

// Tables is the read-only content the engine consumes.
type Tables struct {
	Elements  []*Element
	Particles []*ParticleDef
	Molecules []*MoleculeDef

	byZ       map[int]*Element
	bySymbol  map[string]*Element
	particles map[string]*ParticleDef
	molecules map[string]*MoleculeDef
	species   map[string]Species
}

// Parse decodes and validates a tables document. Validation failures come
// back as a single *ValidationError listing every issue.
func Parse(data []byte) (*Tables, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("content: decode tables: %w", err)
	}
	t := &Tables{
		Elements:  doc.Elements,
		Particles: doc.Particles,
		Molecules: doc.Molecules,
	}
	if err := t.index(); err != nil {
		return nil, err
	}
	if err := Validate(t); err != nil {
		return nil, err
	}
	return t, nil
}

func Load(path string) (*Tables, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(data)
}

// Default returns the embedded tables.
func Default() (*Tables, error) {
	return Parse(defaultTables)
}

// MustDefault is Default for tests and static setup.
func MustDefault() *Tables {
	t, err := Default()
	if err != nil {
		panic(err)
	}
	return t
}

func (t *Tables) index() error {
	t.byZ = make(map[int]*Element, len(t.Elements))
	t.bySymbol = make(map[string]*Element, len(t.Elements))
	t.particles = make(map[string]*ParticleDef, len(t.Particles))
	t.molecules = make(map[string]*MoleculeDef, len(t.Molecules))
	t.species = make(map[string]Species)

	verr := &ValidationError{}
	for _, e := range t.Elements {
		if _, dup := t.byZ[e.Z]; dup {
			verr.Add(fmt.Sprintf("duplicate element Z=%d", e.Z))
			continue
		}
		t.byZ[e.Z] = e
		t.bySymbol[e.Symbol] = e
	}
	for _, p := range t.Particles {
		k, err := parseKind(p.Kind)
		if err != nil {
			verr.Add(fmt.Sprintf("particle %q: %v", p.ID, err))
			continue
		}
		if _, dup := t.particles[p.ID]; dup {
			verr.Add("duplicate particle id: " + p.ID)
			continue
		}
		p.kind = k
		t.particles[p.ID] = p
		t.species[p.ID] = newParticleSpecies(p)
	}
	for _, m := range t.Molecules {
		if _, dup := t.molecules[m.ID]; dup {
			verr.Add("duplicate molecule id: " + m.ID)
			continue
		}
		t.molecules[m.ID] = m
	}
	if verr.HasIssues() {
		return verr
	}
	return nil
}

func (t *Tables) Element(z int) (*Element, bool) {
	e, ok := t.byZ[z]
	return e, ok
}

func (t *Tables) ElementBySymbol(sym string) (*Element, bool) {
	e, ok := t.bySymbol[sym]
	return e, ok
}

func (t *Tables) Particle(id string) (*ParticleDef, bool) {
	p, ok := t.particles[id]
	return p, ok
}

func (t *Tables) Molecule(id string) (*MoleculeDef, error) {
	m, ok := t.molecules[id]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownMolecule, id)
	}
	return m, nil
}

// Electronegativity of element z, zero when unknown.
func (t *Tables) Electronegativity(z int) float64 {
	if e, ok := t.byZ[z]; ok {
		return e.Electronegativity
	}
	return 0
}

// Species resolves an id: a particle id ("electron"), an element symbol
// ("C", primary isotope) or an isotope ("C-14").
func (t *Tables) Species(id string) (Species, error) {
	if s, ok := t.species[id]; ok {
		return s, nil
	}
	sym, massStr, hasMass := strings.Cut(id, "-")
	e, ok := t.bySymbol[sym]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownSpecies, id)
	}
	iso := e.Primary()
	if hasMass {
		mass, err := strconv.Atoi(massStr)
		if err != nil {
			return nil, fmt.Errorf("%w: %q", ErrUnknownSpecies, id)
		}
		var found bool
		if iso, found = e.Isotope(mass); !found {
			return nil, fmt.Errorf("%w: %q has no isotope %d", ErrUnknownSpecies, sym, mass)
		}
	}
	if iso == nil {
		return nil, fmt.Errorf("%w: %q has no isotopes", ErrUnknownSpecies, sym)
	}
	return &Nucleus{Element: e, Isotope: iso}, nil
}

// Nucleus resolves element z in isotope mass; mass 0 picks the primary.
func (t *Tables) Nucleus(z, mass int) (*Nucleus, error) {
	e, ok := t.byZ[z]
	if !ok {
		return nil, fmt.Errorf("%w: Z=%d", ErrUnknownSpecies, z)
	}
	iso := e.Primary()
	if mass != 0 {
		if iso, ok = e.Isotope(mass); !ok {
			return nil, fmt.Errorf("%w: %s-%d", ErrUnknownSpecies, e.Symbol, mass)
		}
	}
	return &Nucleus{Element: e, Isotope: iso}, nil
}

// Producible lists particles with a pair-production threshold, sorted by
// threshold.
func (t *Tables) Producible() []*ParticleDef {
	out := make([]*ParticleDef, 0)
	for _, p := range t.Particles {
		if p.Threshold > 0 {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Threshold < out[j].Threshold })
	return out
}

// Baryon finds the hadron whose quark recipe matches ids in any order.
func (t *Tables) Baryon(quarkIDs []string) (Species, bool) {
	if len(quarkIDs) != 3 {
		return nil, false
	}
	want := append([]string(nil), quarkIDs...)
	sort.Strings(want)
	for _, p := range t.Particles {
		if p.kind != KindHadron || len(p.Quarks) != 3 {
			continue
		}
		have := append([]string(nil), p.Quarks...)
		sort.Strings(have)
		if strings.Join(have, ",") == strings.Join(want, ",") {
			return t.species[p.ID], true
		}
	}
	return nil, false
}

// Integral reports whether a charge is an integer within float noise.
func Integral(q float64) bool {
	return math.Abs(q-math.Round(q)) < 1e-6
}
