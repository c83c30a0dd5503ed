package entity

import (
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/mistergarrison/simchem3d-sub001/internal/content"
)

func species(t *testing.T, id string) content.Species {
	t.Helper()
	sp, err := content.MustDefault().Species(id)
	if err != nil {
		t.Fatal(err)
	}
	return sp
}

func TestStoreAddRemoveSweep(t *testing.T) {
	s := NewStore()
	h := species(t, "H")

	a := s.Add(h, r3.Vec{}, r3.Vec{}, "test")
	b := s.Add(h, r3.Vec{X: 10}, r3.Vec{}, "test")
	if a.ID == b.ID {
		t.Fatal("ids must be unique")
	}
	if s.Len() != 2 {
		t.Fatalf("Len = %d, want 2", s.Len())
	}

	Link(a, b)
	if !s.Remove(a.ID, "gone") {
		t.Fatal("remove should succeed")
	}
	if s.Remove(a.ID, "again") {
		t.Error("second remove should be a no-op")
	}
	if a.Alive() {
		t.Error("removed atom still alive")
	}
	if len(b.Bonds) != 0 {
		t.Errorf("neighbor kept dangling bond: %v", b.Bonds)
	}
	if _, ok := s.Get(a.ID); ok {
		t.Error("Get returned a removed atom")
	}
	if len(s.Atoms()) != 2 {
		t.Error("removed atom should stay in the backing slice until Sweep")
	}

	if n := s.Sweep(); n != 1 {
		t.Errorf("Sweep dropped %d, want 1", n)
	}
	if len(s.Atoms()) != 1 || s.Atoms()[0] != b {
		t.Error("sweep kept the wrong atoms")
	}

	c := s.Add(h, r3.Vec{}, r3.Vec{}, "test")
	if c.ID <= b.ID {
		t.Error("ids must never be reused")
	}
}

func TestEventLog(t *testing.T) {
	s := NewStore()
	s.SetClock(3, 0.05)
	a := s.Add(species(t, "electron"), r3.Vec{}, r3.Vec{}, "spawn")
	s.Remove(a.ID, "annihilation")

	ev := s.Events()
	if len(ev) != 2 {
		t.Fatalf("expected 2 events, got %d", len(ev))
	}
	if ev[0].Kind != EventCreated || ev[1].Kind != EventRemoved {
		t.Errorf("unexpected kinds: %v, %v", ev[0].Kind, ev[1].Kind)
	}
	if ev[1].Reason != "annihilation" || ev[1].Frame != 3 {
		t.Errorf("unexpected removal event: %+v", ev[1])
	}
	if got := s.EventsSince(1); len(got) != 1 {
		t.Errorf("EventsSince(1) = %d entries", len(got))
	}
	if got := s.EventsSince(5); got != nil {
		t.Error("EventsSince past the end should be empty")
	}
}

func TestBondOrderAndSlots(t *testing.T) {
	s := NewStore()
	c := s.Add(species(t, "C"), r3.Vec{}, r3.Vec{}, "test")
	o := s.Add(species(t, "O"), r3.Vec{X: 20}, r3.Vec{}, "test")

	Link(c, o)
	Link(c, o)

	if c.BondOrder(o.ID) != 2 || o.BondOrder(c.ID) != 2 {
		t.Errorf("bond order = %d/%d, want 2", c.BondOrder(o.ID), o.BondOrder(c.ID))
	}
	if c.OpenSlots() != 2 {
		t.Errorf("carbon open slots = %d, want 2", c.OpenSlots())
	}
	if o.OpenSlots() != 0 {
		t.Errorf("oxygen open slots = %d, want 0", o.OpenSlots())
	}
	if n := c.Neighbors(); len(n) != 1 || n[0] != o.ID {
		t.Errorf("neighbors = %v", n)
	}

	Unlink(c, o)
	if len(c.Bonds) != 0 || len(o.Bonds) != 0 {
		t.Error("unlink should clear both sides")
	}
}

func TestParticlesExpire(t *testing.T) {
	s := NewStore()
	rng := rand.New(rand.NewSource(1))
	s.Burst(Effect{Kind: EffectExplosion, Count: 8}, 0.5, rng)
	if len(s.Particles()) != 8 {
		t.Fatalf("expected 8 particles, got %d", len(s.Particles()))
	}
	s.AgeParticles(0.3)
	if len(s.Particles()) != 8 {
		t.Error("particles expired early")
	}
	s.AgeParticles(0.3)
	if len(s.Particles()) != 0 {
		t.Error("particles should be gone")
	}
}

func TestDrainEffects(t *testing.T) {
	s := NewStore()
	s.Emit(Effect{Kind: EffectFlash, Count: 3})
	if got := s.DrainEffects(); len(got) != 1 {
		t.Fatalf("expected 1 effect, got %d", len(got))
	}
	if got := s.DrainEffects(); len(got) != 0 {
		t.Error("drain should empty the queue")
	}
}
