package integrators

import (
	"math"
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/mistergarrison/simchem3d-sub001/internal/config"
	"github.com/mistergarrison/simchem3d-sub001/internal/content"
	"github.com/mistergarrison/simchem3d-sub001/internal/entity"
)

func setup(t *testing.T) (*Euler, *entity.Store, config.Physics) {
	t.Helper()
	cfg := config.DefaultConfig()
	return NewEuler(cfg.Physics, WorldBounds(cfg.World), rand.New(rand.NewSource(3)), nil), entity.NewStore(), cfg.Physics
}

func add(t *testing.T, s *entity.Store, id string, pos, vel r3.Vec) *entity.Atom {
	t.Helper()
	sp, err := content.MustDefault().Species(id)
	if err != nil {
		t.Fatal(err)
	}
	return s.Add(sp, pos, vel, "test")
}

func TestEulerFreeFlight(t *testing.T) {
	e, s, p := setup(t)
	a := add(t, s, "C", r3.Vec{}, r3.Vec{X: 100})
	dt := p.SubstepDt()

	e.Step(s, dt, dt)

	wantV := 100 / (1 + p.Drag*dt)
	if math.Abs(a.Vel.X-wantV) > 1e-9 {
		t.Errorf("velocity = %v, want %v", a.Vel.X, wantV)
	}
	if math.Abs(a.Pos.X-wantV*dt) > 1e-9 {
		t.Errorf("position = %v, want %v", a.Pos.X, wantV*dt)
	}
}

func TestEulerClampsAcceleration(t *testing.T) {
	e, s, p := setup(t)
	a := add(t, s, "electron", r3.Vec{}, r3.Vec{})
	a.Force = r3.Vec{Y: 1e9}
	p.Drag = 0
	e.cfg.Drag = 0
	dt := p.SubstepDt()

	e.Step(s, dt, dt)

	if got := a.Vel.Y / dt; math.Abs(got-p.MaxAccel) > 1e-6 {
		t.Errorf("acceleration = %v, want clamp %v", got, p.MaxAccel)
	}
}

func TestEulerRecoversNaN(t *testing.T) {
	e, s, p := setup(t)
	a := add(t, s, "H", r3.Vec{X: 50}, r3.Vec{})
	a.Force = r3.Vec{X: math.NaN()}

	res := e.Step(s, p.SubstepDt(), 0)

	if res.Recovered != 1 {
		t.Errorf("recovered = %d, want 1", res.Recovered)
	}
	if a.Pos != e.Bounds().Center() || a.Vel != (r3.Vec{}) {
		t.Errorf("atom not reset: pos %v vel %v", a.Pos, a.Vel)
	}
}

func TestEulerReflectsAtBounds(t *testing.T) {
	e, s, p := setup(t)
	edge := e.Bounds().Max.X
	a := add(t, s, "C", r3.Vec{X: edge - 0.01}, r3.Vec{X: 300})

	e.Step(s, p.SubstepDt(), 0)

	if a.Pos.X > edge {
		t.Errorf("atom escaped to %v", a.Pos.X)
	}
	if a.Vel.X >= 0 {
		t.Errorf("velocity should reverse, got %v", a.Vel.X)
	}
}

func TestBosonFliesBallisticAndEscapes(t *testing.T) {
	e, s, p := setup(t)
	edge := e.Bounds().Max.X
	g := add(t, s, "photon", r3.Vec{X: edge - 1}, r3.Vec{X: 1})
	g.Force = r3.Vec{X: -1e6}

	res := e.Step(s, p.SubstepDt(), 0)

	if res.Escaped != 1 || g.Alive() {
		t.Error("photon leaving the world should be removed")
	}
	ev := s.Events()
	if last := ev[len(ev)-1]; last.Reason != ReasonEscaped {
		t.Errorf("removal reason = %q", last.Reason)
	}
}

func TestBosonSpeedFixed(t *testing.T) {
	e, s, p := setup(t)
	g := add(t, s, "photon", r3.Vec{}, r3.Vec{X: 1, Y: 1})
	e.Step(s, p.SubstepDt(), 0)
	if math.Abs(r3.Norm(g.Vel)-p.BosonSpeed) > 1e-9 {
		t.Errorf("boson speed = %v, want %v", r3.Norm(g.Vel), p.BosonSpeed)
	}
}

func TestCooldownDecays(t *testing.T) {
	e, s, p := setup(t)
	a := add(t, s, "H", r3.Vec{}, r3.Vec{})
	a.Cooldown = p.SubstepDt() * 1.5
	e.Step(s, p.SubstepDt(), 0)
	if !a.InCooldown() {
		t.Fatal("cooldown ended early")
	}
	e.Step(s, p.SubstepDt(), 0)
	if a.InCooldown() || a.Cooldown != 0 {
		t.Errorf("cooldown = %v, want 0", a.Cooldown)
	}
}

func TestAssemblyGroupReleasesTogether(t *testing.T) {
	e, s, p := setup(t)
	a := add(t, s, "C", r3.Vec{}, r3.Vec{X: 50})
	b := add(t, s, "H", r3.Vec{X: 40}, r3.Vec{})
	for i, x := range []*entity.Atom{a, b} {
		x.Assembling = true
		x.AssemblyGroup = 7
		x.AssemblyTarget = r3.Vec{X: float64(i) * 20}
		x.AssemblyStart = 0
	}
	b.AssemblyStart = 0.1
	dt := p.SubstepDt()

	res := e.Step(s, dt, p.AssemblyHold)
	if len(res.Released) != 0 {
		t.Fatal("group released before every member held long enough")
	}
	if a.Vel != (r3.Vec{}) || !a.Assembling {
		t.Error("assembling atoms should be pinned")
	}

	res = e.Step(s, dt, p.AssemblyHold+0.2)
	if len(res.Released) != 1 || len(res.Released[0].Members) != 2 {
		t.Fatalf("expected one release of two atoms, got %+v", res.Released)
	}
	if a.Assembling || b.Assembling {
		t.Error("every member should be released")
	}
	if a.Vel != b.Vel || r3.Norm(a.Vel) == 0 {
		t.Error("members should share a common ejection impulse")
	}
	if a.Cooldown != p.ReleaseCooldown {
		t.Errorf("cooldown = %v, want %v", a.Cooldown, p.ReleaseCooldown)
	}
	if a.Pos != a.AssemblyTarget {
		t.Error("released atoms should sit on their targets")
	}
}
