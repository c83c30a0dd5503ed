package identify

import (
	"math/rand"
	"testing"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/mistergarrison/simchem3d-sub001/internal/content"
	"github.com/mistergarrison/simchem3d-sub001/internal/entity"
)

// build instantiates a table structure as live atoms in the given order.
func build(t *testing.T, s *entity.Store, m *content.MoleculeDef, perm []int) []*entity.Atom {
	t.Helper()
	tables := content.MustDefault()
	atoms := make([]*entity.Atom, len(m.Structure.Atoms))
	for _, i := range perm {
		sp, err := tables.Nucleus(m.Structure.Atoms[i], 0)
		if err != nil {
			t.Fatal(err)
		}
		atoms[i] = s.Add(sp, r3.Vec{X: float64(i)}, r3.Vec{}, "test")
	}
	for _, b := range m.Structure.Bonds {
		for k := 0; k < b[2]; k++ {
			entity.Link(atoms[b[0]], atoms[b[1]])
		}
	}
	out := make([]*entity.Atom, len(perm))
	for k, i := range perm {
		out[k] = atoms[i]
	}
	return out
}

func TestIdentifyTableMolecules(t *testing.T) {
	tables := content.MustDefault()
	id := New(tables)

	for _, m := range tables.Molecules {
		if m.Structure == nil {
			continue
		}
		t.Run(m.ID, func(t *testing.T) {
			perm := make([]int, len(m.Structure.Atoms))
			for i := range perm {
				perm[i] = i
			}
			got, ok := id.Identify(build(t, entity.NewStore(), m, perm))
			if !ok {
				t.Fatalf("%s not identified", m.ID)
			}
			if got.ID != m.ID {
				t.Errorf("identified as %s", got.ID)
			}
		})
	}
}

func TestFingerprintPermutationInvariance(t *testing.T) {
	tables := content.MustDefault()
	rng := rand.New(rand.NewSource(7))

	for _, name := range []string{"benzene", "methanol", "hydrogen-cyanide", "ethylene"} {
		m, err := tables.Molecule(name)
		if err != nil {
			t.Fatal(err)
		}
		ref := FromStructure(m.Structure)
		for trial := 0; trial < 10; trial++ {
			perm := rng.Perm(len(m.Structure.Atoms))
			got := Of(build(t, entity.NewStore(), m, perm))
			if got != ref {
				t.Fatalf("%s trial %d: fingerprint differs\n got %v\nwant %v", name, trial, got, ref)
			}
		}
	}
}

func TestFingerprintDistinguishesBondOrder(t *testing.T) {
	a := FromStructure(&content.Structure{Atoms: []int{6, 8}, Bonds: [][3]int{{0, 1, 1}}})
	b := FromStructure(&content.Structure{Atoms: []int{6, 8}, Bonds: [][3]int{{0, 1, 2}}})
	if a == b {
		t.Error("single and double C-O bonds should differ")
	}
	if a.Formula != b.Formula {
		t.Error("formula should not depend on bonds")
	}
}

func TestIdentifyUnknown(t *testing.T) {
	s := entity.NewStore()
	tables := content.MustDefault()
	c, _ := tables.Species("C")
	a := s.Add(c, r3.Vec{}, r3.Vec{}, "test")
	b := s.Add(c, r3.Vec{X: 20}, r3.Vec{}, "test")
	entity.Link(a, b)

	if m, ok := New(tables).Identify([]*entity.Atom{a, b}); ok {
		t.Errorf("C-C should be unidentified, got %s", m.ID)
	}
	if _, ok := New(tables).Identify([]*entity.Atom{a}); ok {
		t.Error("a lone atom is never a molecule")
	}
}

func TestFingerprintMemoized(t *testing.T) {
	id := New(content.MustDefault())
	first, ok := id.Fingerprint("water")
	if !ok {
		t.Fatal("water fingerprint missing")
	}
	second, _ := id.Fingerprint("water")
	if first != second {
		t.Error("memoized fingerprint changed")
	}
}
