package entity

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/mistergarrison/simchem3d-sub001/internal/content"
)

// ID is a stable atom handle. IDs are never reused within a store.
type ID uint64

// Atom is any physical body in the world: a nucleus, a lepton, a quark,
// a boson or a composite hadron.
type Atom struct {
	ID      ID
	Species content.Species

	Pos   r3.Vec
	Vel   r3.Vec
	Force r3.Vec

	// Bonds lists a neighbor once per unit of bond order.
	Bonds []ID

	Mass   float64
	Radius float64
	Charge float64

	Cooldown float64

	Assembling     bool
	AssemblyGroup  int
	AssemblyTarget r3.Vec
	AssemblyStart  float64

	LastDecayCheck float64

	alive bool
}

func (a *Atom) Alive() bool { return a != nil && a.alive }

func (a *Atom) Kind() content.Kind { return a.Species.Kind() }

// Nucleus returns the element descriptor when the atom is an atom proper.
func (a *Atom) Nucleus() (*content.Nucleus, bool) {
	n, ok := a.Species.(*content.Nucleus)
	return n, ok
}

// Z is the atomic number, or 0 for anything that is not a nucleus.
func (a *Atom) Z() int {
	if n, ok := a.Nucleus(); ok {
		return n.Z()
	}
	return 0
}

func (a *Atom) Massless() bool { return content.IsMasslessBoson(a.Species) }

func (a *Atom) InCooldown() bool { return a.Cooldown > 0 }

// BondOrder counts how many times other appears in the bond list.
func (a *Atom) BondOrder(other ID) int {
	n := 0
	for _, b := range a.Bonds {
		if b == other {
			n++
		}
	}
	return n
}

func (a *Atom) BondedTo(other ID) bool {
	for _, b := range a.Bonds {
		if b == other {
			return true
		}
	}
	return false
}

// Neighbors returns each bonded neighbor once, in first-bond order.
func (a *Atom) Neighbors() []ID {
	out := make([]ID, 0, len(a.Bonds))
	for _, b := range a.Bonds {
		dup := false
		for _, o := range out {
			if o == b {
				dup = true
				break
			}
		}
		if !dup {
			out = append(out, b)
		}
	}
	return out
}

// Valence is the element's bonding capacity; particles have none.
func (a *Atom) Valence() int {
	if n, ok := a.Nucleus(); ok {
		return n.Valence()
	}
	return 0
}

// OpenSlots is the unused bonding capacity.
func (a *Atom) OpenSlots() int {
	s := a.Valence() - len(a.Bonds)
	if s < 0 {
		return 0
	}
	return s
}

// Link adds one unit of bond order between a and b, keeping both lists
// symmetric.
func Link(a, b *Atom) {
	a.Bonds = append(a.Bonds, b.ID)
	b.Bonds = append(b.Bonds, a.ID)
}

// Unlink removes every bond entry between a and b.
func Unlink(a, b *Atom) {
	a.Bonds = without(a.Bonds, b.ID)
	b.Bonds = without(b.Bonds, a.ID)
}

func without(ids []ID, drop ID) []ID {
	out := ids[:0]
	for _, id := range ids {
		if id != drop {
			out = append(out, id)
		}
	}
	return out
}
