package reactions

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/mistergarrison/simchem3d-sub001/internal/config"
	"github.com/mistergarrison/simchem3d-sub001/internal/content"
	"github.com/mistergarrison/simchem3d-sub001/internal/entity"
	"github.com/mistergarrison/simchem3d-sub001/internal/physics"
)

func newEngine() *Engine {
	return New(content.MustDefault(), config.DefaultPhysics(), rand.New(rand.NewSource(42)), nil)
}

func spawn(t *testing.T, s *entity.Store, id string, pos r3.Vec) *entity.Atom {
	t.Helper()
	sp, err := content.MustDefault().Species(id)
	if err != nil {
		t.Fatal(err)
	}
	return s.Add(sp, pos, r3.Vec{}, "test")
}

func count(s *entity.Store, id string) int {
	n := 0
	for _, a := range s.Live() {
		if a.Species.ID() == id {
			n++
		}
	}
	return n
}

func TestMatchResonanceTolerance(t *testing.T) {
	tables := content.MustDefault()
	prod := tables.Producible()
	tol := config.DefaultTolerance

	for _, p := range prod {
		t.Run(p.ID, func(t *testing.T) {
			got, ok := MatchResonance(prod, p.Threshold, tol)
			if !ok || got.ID != p.ID {
				t.Errorf("exact threshold %v should resonate with %s, got %v", p.Threshold, p.ID, got)
			}
			for _, f := range []float64{0.8, 1.2} {
				e := p.Threshold * f
				if m, ok := MatchResonance(prod, e, tol); ok && m.ID == p.ID {
					t.Errorf("energy %v (%.0f%%) should not resonate with %s", e, f*100, p.ID)
				}
			}
		})
	}
}

func TestMatchResonancePicksClosest(t *testing.T) {
	prod := content.MustDefault().Producible()
	got, ok := MatchResonance(prod, 939.5, config.DefaultTolerance)
	if !ok || got.ID != "neutron" {
		t.Errorf("939.5 should match the neutron, got %v", got)
	}
	if _, ok := MatchResonance(prod, 50, config.DefaultTolerance); ok {
		t.Error("50 sits far from every threshold")
	}
}

func TestAnnihilation(t *testing.T) {
	e := newEngine()
	s := entity.NewStore()
	a := spawn(t, s, "electron", r3.Vec{})
	b := spawn(t, s, "positron", r3.Vec{X: 8})

	if !e.Contact(s, a, b, 8) {
		t.Fatal("pair in range should annihilate")
	}
	if a.Alive() || b.Alive() {
		t.Error("both leptons should be gone")
	}
	effects := s.DrainEffects()
	if len(effects) != 1 || effects[0].Kind != entity.EffectExplosion {
		t.Errorf("expected one explosion, got %+v", effects)
	}
	if count(s, "photon") != 2 {
		t.Errorf("expected two photons, got %d", count(s, "photon"))
	}
	var net float64
	for _, x := range s.Live() {
		net += x.Charge
	}
	if net != 0 {
		t.Errorf("net charge after annihilation = %v", net)
	}
}

func TestAnnihilationRules(t *testing.T) {
	tests := []struct {
		name     string
		a, b     string
		dist     float64
		cooldown bool
	}{
		{"too far", "electron", "positron", 40, false},
		{"not a pair", "electron", "antimuon", 5, false},
		{"cooling down", "electron", "positron", 5, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := entity.NewStore()
			a := spawn(t, s, tt.a, r3.Vec{})
			b := spawn(t, s, tt.b, r3.Vec{X: tt.dist})
			if tt.cooldown {
				b.Cooldown = 1
			}
			if newEngine().annihilate(s, a, b, tt.dist) {
				t.Error("should not annihilate")
			}
		})
	}
}

func TestElectronCaptureByProton(t *testing.T) {
	e := newEngine()
	s := entity.NewStore()
	p := spawn(t, s, "proton", r3.Vec{})
	el := spawn(t, s, "electron", r3.Vec{X: 10})

	if !e.Contact(s, el, p, 10) {
		t.Fatal("electron should be captured")
	}
	if el.Alive() {
		t.Error("electron should be consumed")
	}
	if p.Species.ID() != "H-1" || p.Charge != 0 {
		t.Errorf("proton should become neutral hydrogen, got %s charge %v", p.Species.ID(), p.Charge)
	}
}

func TestElectronCaptureByNucleus(t *testing.T) {
	e := newEngine()
	s := entity.NewStore()
	o := spawn(t, s, "O", r3.Vec{})

	for i := 0; i < 3; i++ {
		el := spawn(t, s, "electron", r3.Vec{X: 10})
		e.Contact(s, o, el, 10)
	}
	if o.Charge != -config.DefaultPhysics().MaxIonCharge {
		t.Errorf("oxygen charge = %v, want capped at -%v", o.Charge, config.DefaultPhysics().MaxIonCharge)
	}
	if count(s, "electron") != 1 {
		t.Errorf("third electron should be refused, %d left", count(s, "electron"))
	}
	if math.Abs(o.Mass-16.1) > 1e-9 {
		t.Errorf("mass = %v, want 16.1", o.Mass)
	}
}

func TestNeutronCapture(t *testing.T) {
	tests := []struct {
		target string
		want   string
		charge float64
		ok     bool
	}{
		{"C", "C-13", 0, true},
		{"proton", "H-2", 1, true},
		{"H-3", "", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.target, func(t *testing.T) {
			e := newEngine()
			s := entity.NewStore()
			x := spawn(t, s, tt.target, r3.Vec{})
			n := spawn(t, s, "neutron", r3.Vec{X: 10})
			got := e.Contact(s, x, n, 10)
			if got != tt.ok {
				t.Fatalf("captured = %v, want %v", got, tt.ok)
			}
			if !tt.ok {
				return
			}
			if x.Species.ID() != tt.want || x.Charge != tt.charge {
				t.Errorf("got %s charge %v, want %s charge %v", x.Species.ID(), x.Charge, tt.want, tt.charge)
			}
			if n.Alive() {
				t.Error("neutron should be absorbed")
			}
		})
	}
}

func TestGentleBond(t *testing.T) {
	e := newEngine()
	p := config.DefaultPhysics()
	s := entity.NewStore()
	a := spawn(t, s, "H", r3.Vec{})
	b := spawn(t, s, "H", r3.Vec{X: 15})
	a.Vel = r3.Vec{X: 20}
	a.Charge = -1

	if !e.Bond(s, a, b, 20) {
		t.Fatal("slow contact with free slots should bond")
	}
	if a.BondOrder(b.ID) != 1 || b.BondOrder(a.ID) != 1 {
		t.Error("bond should be symmetric single")
	}
	if a.Vel != b.Vel {
		t.Error("velocities should merge")
	}
	if d := r3.Norm(r3.Sub(b.Pos, a.Pos)); math.Abs(d-physics.RestLength(a, b, p)) > 1e-9 {
		t.Errorf("separation %v not snapped to rest length", d)
	}
	if a.Charge+b.Charge != -1 {
		t.Error("charge not conserved across bond formation")
	}
	if !a.InCooldown() || !b.InCooldown() {
		t.Error("new bond should start a cooldown")
	}
}

func TestBondRules(t *testing.T) {
	p := config.DefaultPhysics()
	mid := (p.GentleBondSpeed + p.ForcedBondSpeed) / 2
	fast := p.ForcedBondSpeed * 1.5

	tests := []struct {
		name  string
		setup func(t *testing.T, s *entity.Store) (*entity.Atom, *entity.Atom)
		speed float64
		want  bool
	}{
		{"medium speed bounces", func(t *testing.T, s *entity.Store) (*entity.Atom, *entity.Atom) {
			return spawn(t, s, "H", r3.Vec{}), spawn(t, s, "H", r3.Vec{X: 15})
		}, mid, false},
		{"noble gas never bonds", func(t *testing.T, s *entity.Store) (*entity.Atom, *entity.Atom) {
			return spawn(t, s, "He", r3.Vec{}), spawn(t, s, "H", r3.Vec{X: 15})
		}, 10, false},
		{"particles never bond", func(t *testing.T, s *entity.Store) (*entity.Atom, *entity.Atom) {
			return spawn(t, s, "electron", r3.Vec{}), spawn(t, s, "H", r3.Vec{X: 15})
		}, 10, false},
		{"full valence blocks gentle bond", func(t *testing.T, s *entity.Store) (*entity.Atom, *entity.Atom) {
			a, b, c := spawn(t, s, "H", r3.Vec{}), spawn(t, s, "H", r3.Vec{X: 15}), spawn(t, s, "H", r3.Vec{X: 40})
			entity.Link(b, c)
			return a, b
		}, 10, false},
		{"forced bond ignores valence", func(t *testing.T, s *entity.Store) (*entity.Atom, *entity.Atom) {
			a, b, c := spawn(t, s, "H", r3.Vec{}), spawn(t, s, "H", r3.Vec{X: 15}), spawn(t, s, "H", r3.Vec{X: 40})
			entity.Link(b, c)
			return a, b
		}, fast, true},
		{"forced bond respects valence inside a molecule", func(t *testing.T, s *entity.Store) (*entity.Atom, *entity.Atom) {
			o, h1, h2 := spawn(t, s, "O", r3.Vec{}), spawn(t, s, "H", r3.Vec{X: 20}), spawn(t, s, "H", r3.Vec{Y: 20})
			entity.Link(o, h1)
			entity.Link(o, h2)
			return h1, h2
		}, fast, false},
		{"cooldown blocks", func(t *testing.T, s *entity.Store) (*entity.Atom, *entity.Atom) {
			a, b := spawn(t, s, "H", r3.Vec{}), spawn(t, s, "H", r3.Vec{X: 15})
			a.Cooldown = 0.1
			return a, b
		}, 10, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := entity.NewStore()
			a, b := tt.setup(t, s)
			if got := newEngine().Bond(s, a, b, tt.speed); got != tt.want {
				t.Errorf("Bond = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAnneal(t *testing.T) {
	e := newEngine()
	s := entity.NewStore()
	a := spawn(t, s, "O", r3.Vec{})
	b := spawn(t, s, "O", r3.Vec{X: 25})
	entity.Link(a, b)

	if n := e.Anneal(s); n != 1 {
		t.Fatalf("Anneal upgraded %d bonds, want 1", n)
	}
	if a.BondOrder(b.ID) != 2 {
		t.Errorf("O-O order = %d, want 2", a.BondOrder(b.ID))
	}
	if n := e.Anneal(s); n != 0 {
		t.Error("saturated O=O should not anneal further")
	}
}

func TestHadronize(t *testing.T) {
	tests := []struct {
		name   string
		quarks []string
		want   string
	}{
		{"proton", []string{"up", "up", "down"}, "proton"},
		{"neutron", []string{"down", "up", "down"}, "neutron"},
		{"antiproton", []string{"antiup", "antidown", "antiup"}, "antiproton"},
		{"no recipe", []string{"up", "up", "up"}, ""},
		{"mixed matter", []string{"up", "antiup", "down"}, ""},
		{"four quarks", []string{"up", "up", "down", "down"}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEngine()
			s := entity.NewStore()
			for i, q := range tt.quarks {
				a := spawn(t, s, q, r3.Vec{X: float64(i) * 8})
				a.Vel = r3.Vec{Y: 10}
			}
			made := e.Hadronize(s)
			if tt.want == "" {
				if len(made) != 0 {
					t.Errorf("unexpected hadron %s", made[0].Species.ID())
				}
				return
			}
			if len(made) != 1 || made[0].Species.ID() != tt.want {
				t.Fatalf("expected %s, got %v", tt.want, made)
			}
			if count(s, tt.quarks[0]) != 0 {
				t.Error("constituent quarks should be consumed")
			}
			if math.Abs(made[0].Vel.Y-10) > 1e-9 {
				t.Errorf("hadron velocity = %v, want the quarks' common velocity", made[0].Vel)
			}
		})
	}
}

func TestDecayProbability(t *testing.T) {
	if p := DecayProbability(1, 1); math.Abs(p-0.5) > 1e-12 {
		t.Errorf("one half-life should give 0.5, got %v", p)
	}
	if p := DecayProbability(0, 1); p != 0 {
		t.Error("no elapsed time, no decay")
	}
	if p := DecayProbability(100, 1); p < 0.999 {
		t.Errorf("many half-lives should be near certain, got %v", p)
	}
}

func TestDecayBetaMinus(t *testing.T) {
	e := newEngine()
	s := entity.NewStore()
	o := spawn(t, s, "O", r3.Vec{})
	tri := spawn(t, s, "H-3", r3.Vec{X: 20})
	entity.Link(o, tri)
	tri.LastDecayCheck = -1e6

	out := e.Decay(s, 0)
	if len(out) != 1 {
		t.Fatalf("expected a decay, got %d", len(out))
	}
	if out[0].ID != tri.ID || out[0].To != "He-3" || tri.Species.ID() != "He-3" {
		t.Errorf("unexpected transmutation %+v", out[0])
	}
	if len(tri.Bonds) != 0 || len(o.Bonds) != 0 {
		t.Error("decay should break the atom's bonds")
	}
	if tri.Charge != 1 {
		t.Errorf("beta- product charge = %v, want +1", tri.Charge)
	}
	var net float64
	for _, a := range s.Live() {
		net += a.Charge
	}
	if net != 0 {
		t.Errorf("net charge after decay = %v", net)
	}
	if count(s, "electron") != 1 {
		t.Error("beta- should eject an electron")
	}
}

func TestDecaySkipsStable(t *testing.T) {
	e := newEngine()
	s := entity.NewStore()
	c := spawn(t, s, "C", r3.Vec{})
	c.LastDecayCheck = -1e6
	if out := e.Decay(s, 0); len(out) != 0 {
		t.Error("stable isotopes never decay")
	}
}

func TestProduce(t *testing.T) {
	tests := []struct {
		energy float64
		want   []string
	}{
		{1.022, []string{"electron", "positron"}},
		{4.5, []string{"up", "antiup"}},
		{938.3, []string{"proton"}},
	}
	for _, tt := range tests {
		e := newEngine()
		s := entity.NewStore()
		prod, ok := e.Produce(s, tt.energy, r3.Vec{})
		if !ok {
			t.Fatalf("energy %v should produce matter", tt.energy)
		}
		if len(prod.Atoms) != len(tt.want) {
			t.Fatalf("energy %v produced %d atoms, want %d", tt.energy, len(prod.Atoms), len(tt.want))
		}
		for i, id := range prod.Atoms {
			a, _ := s.Get(id)
			if a.Species.ID() != tt.want[i] {
				t.Errorf("atom %d = %s, want %s", i, a.Species.ID(), tt.want[i])
			}
		}
		if len(prod.Atoms) == 2 {
			a, _ := s.Get(prod.Atoms[0])
			b, _ := s.Get(prod.Atoms[1])
			if r3.Norm(r3.Add(a.Vel, b.Vel)) > 1e-9 {
				t.Error("pair should fly apart with opposite momenta")
			}
		}
	}
}

func TestProduceMissDissipates(t *testing.T) {
	s := entity.NewStore()
	if _, ok := newEngine().Produce(s, 50, r3.Vec{}); ok {
		t.Fatal("off-resonance energy should not produce")
	}
	if s.Len() != 0 {
		t.Error("no atoms expected")
	}
	if len(s.DrainEffects()) != 1 {
		t.Error("dissipation should flash")
	}
}
