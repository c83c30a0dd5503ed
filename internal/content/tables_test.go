package content

import (
	"errors"
	"math"
	"strings"
	"testing"
)

func TestDefaultTablesLoad(t *testing.T) {
	tables, err := Default()
	if err != nil {
		t.Fatalf("default tables invalid: %v", err)
	}
	if len(tables.Elements) == 0 || len(tables.Particles) == 0 || len(tables.Molecules) == 0 {
		t.Fatal("expected non-empty tables")
	}
	if _, err := tables.Molecule("benzene"); err != nil {
		t.Errorf("benzene missing: %v", err)
	}
}

func TestSpeciesResolution(t *testing.T) {
	tables := MustDefault()

	tests := []struct {
		id     string
		kind   Kind
		symbol string
		mass   float64
	}{
		{"H", KindNucleus, "H", 1},
		{"C-14", KindNucleus, "C", 14},
		{"O", KindNucleus, "O", 16},
		{"electron", KindLepton, "e⁻", 0.05},
		{"up", KindQuark, "u", 0.3},
		{"photon", KindBoson, "γ", 0},
		{"proton", KindHadron, "p⁺", 1},
	}

	for _, tt := range tests {
		t.Run(tt.id, func(t *testing.T) {
			s, err := tables.Species(tt.id)
			if err != nil {
				t.Fatalf("resolve %q: %v", tt.id, err)
			}
			if s.Kind() != tt.kind {
				t.Errorf("kind = %v, want %v", s.Kind(), tt.kind)
			}
			if s.Symbol() != tt.symbol {
				t.Errorf("symbol = %q, want %q", s.Symbol(), tt.symbol)
			}
			if s.Mass() != tt.mass {
				t.Errorf("mass = %v, want %v", s.Mass(), tt.mass)
			}
		})
	}
}

func TestSpeciesUnknown(t *testing.T) {
	tables := MustDefault()
	for _, id := range []string{"Xx", "C-99", "C-abc", "tachyon"} {
		if _, err := tables.Species(id); !errors.Is(err, ErrUnknownSpecies) {
			t.Errorf("Species(%q) err = %v, want ErrUnknownSpecies", id, err)
		}
	}
}

func TestQuarkFractionalCharge(t *testing.T) {
	tables := MustDefault()
	up, _ := tables.Species("up")
	down, _ := tables.Species("down")
	if math.Abs(up.Charge()-2.0/3.0) > 1e-12 {
		t.Errorf("up charge = %v", up.Charge())
	}
	if math.Abs(down.Charge()+1.0/3.0) > 1e-12 {
		t.Errorf("down charge = %v", down.Charge())
	}
	if q, ok := up.(*Quark); !ok || q.Anti() {
		t.Error("up should be a matter quark")
	}
}

func TestBaryonRecipe(t *testing.T) {
	tables := MustDefault()

	p, ok := tables.Baryon([]string{"down", "up", "up"})
	if !ok || p.ID() != "proton" {
		t.Fatalf("uud should make a proton, got %v", p)
	}
	n, ok := tables.Baryon([]string{"up", "down", "down"})
	if !ok || n.ID() != "neutron" {
		t.Fatalf("udd should make a neutron, got %v", n)
	}
	if _, ok := tables.Baryon([]string{"up", "up", "up"}); ok {
		t.Error("uuu is not in the table")
	}
	if _, ok := tables.Baryon([]string{"up", "down"}); ok {
		t.Error("two quarks never make a baryon")
	}
}

func TestProducibleSorted(t *testing.T) {
	prod := MustDefault().Producible()
	if len(prod) == 0 {
		t.Fatal("expected producible particles")
	}
	for i := 1; i < len(prod); i++ {
		if prod[i].Threshold < prod[i-1].Threshold {
			t.Errorf("thresholds not sorted at %d", i)
		}
	}
}

const brokenTables = `
elements:
  - z: 1
    symbol: "H"
    valence: 1
    radius: 10
    isotopes:
      - mass: 1
        half_life: stable
      - mass: 3
        half_life: 5
        decay: {mode: beta-, z: 2, mass: 3}
particles:
  - id: electron
    symbol: "e"
    kind: lepton
    mass: 0.05
    charge: -1
    radius: 5
    antiparticle: positron
molecules:
  - id: water
    formula: H2O
    ingredients: [{z: 8, count: 1}, {z: 1, count: 2}]
    structure:
      atoms: [1, 1]
      bonds: [[0, 1, 1]]
`

func TestValidationAggregatesIssues(t *testing.T) {
	_, err := Parse([]byte(brokenTables))
	if err == nil {
		t.Fatal("expected validation failure")
	}

	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected *ValidationError, got %T: %v", err, err)
	}

	wantFragments := []string{
		"decay target Z=2",
		"antiparticle \"positron\"",
		"ingredient Z=8",
		"stoichiometry mismatch for Z=8",
	}
	joined := strings.Join(verr.Issues, "\n")
	for _, frag := range wantFragments {
		if !strings.Contains(joined, frag) {
			t.Errorf("missing issue containing %q in:\n%s", frag, joined)
		}
	}
	if len(verr.Issues) < len(wantFragments) {
		t.Errorf("expected at least %d issues, got %d", len(wantFragments), len(verr.Issues))
	}
}

func TestHalfLifeParsing(t *testing.T) {
	tables := MustDefault()
	c, _ := tables.ElementBySymbol("C")
	c14, ok := c.Isotope(14)
	if !ok {
		t.Fatal("C-14 missing")
	}
	if !c14.Unstable() || c14.HalfLife.Seconds <= 0 {
		t.Errorf("C-14 should be unstable, got %+v", c14.HalfLife)
	}
	c12, _ := c.Isotope(12)
	if c12.Unstable() {
		t.Error("C-12 should be stable")
	}
	if c.Primary().Mass != 12 {
		t.Errorf("primary carbon isotope = %d", c.Primary().Mass)
	}
}
