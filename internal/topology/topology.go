// Package topology partitions the bond graph into molecules.
package topology

import (
	"math"
	"sort"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/mistergarrison/simchem3d-sub001/internal/content"
	"github.com/mistergarrison/simchem3d-sub001/internal/entity"
)

// Component is one connected bond group.
type Component struct {
	Atoms    []*entity.Atom
	Center   r3.Vec // mass weighted
	Centroid r3.Vec // geometric
	Charge   float64
	Mass     float64
}

func (c *Component) Contains(id entity.ID) bool {
	for _, a := range c.Atoms {
		if a.ID == id {
			return true
		}
	}
	return false
}

// Analyze runs a BFS over every live atom. Components come back ordered by
// the store position of their first atom, so two runs over the same store
// agree exactly.
func Analyze(s *entity.Store) []*Component {
	seen := make(map[entity.ID]bool)
	var out []*Component
	for _, a := range s.Atoms() {
		if !a.Alive() || seen[a.ID] {
			continue
		}
		out = append(out, newComponent(bfs(s, a, seen)))
	}
	return out
}

// Group returns the connected group containing root.
func Group(s *entity.Store, root *entity.Atom) []*entity.Atom {
	return bfs(s, root, make(map[entity.ID]bool))
}

// Of wraps Group with aggregates.
func Of(s *entity.Store, root *entity.Atom) *Component {
	return newComponent(Group(s, root))
}

// Membership maps each atom to the index of its component.
func Membership(comps []*Component) map[entity.ID]int {
	m := make(map[entity.ID]int)
	for i, c := range comps {
		for _, a := range c.Atoms {
			m[a.ID] = i
		}
	}
	return m
}

func bfs(s *entity.Store, root *entity.Atom, seen map[entity.ID]bool) []*entity.Atom {
	seen[root.ID] = true
	group := []*entity.Atom{root}
	for i := 0; i < len(group); i++ {
		for _, nid := range group[i].Bonds {
			if seen[nid] {
				continue
			}
			n, ok := s.Get(nid)
			if !ok {
				continue
			}
			seen[nid] = true
			group = append(group, n)
		}
	}
	return group
}

func newComponent(atoms []*entity.Atom) *Component {
	c := &Component{Atoms: atoms}
	var weighted, plain r3.Vec
	for _, a := range atoms {
		weighted = r3.Add(weighted, r3.Scale(a.Mass, a.Pos))
		plain = r3.Add(plain, a.Pos)
		c.Mass += a.Mass
		c.Charge += a.Charge
	}
	n := float64(len(atoms))
	c.Centroid = r3.Scale(1/n, plain)
	if c.Mass > 0 {
		c.Center = r3.Scale(1/c.Mass, weighted)
	} else {
		c.Center = c.Centroid
	}
	return c
}

func electronegativity(a *entity.Atom) float64 {
	if n, ok := a.Nucleus(); ok {
		return n.Element.Electronegativity
	}
	return 0
}

// Redistribute spreads the group's integer net charge over its atoms:
// negative units go to the most electronegative atoms first, positive units
// to the least. The total is unchanged. Groups carrying a fractional total
// are left alone.
func Redistribute(group []*entity.Atom) {
	var total float64
	for _, a := range group {
		total += a.Charge
	}
	Assign(group, total)
}

// Assign sets the group's charges so that they sum to total, placing units
// by electronegativity.
func Assign(group []*entity.Atom, total float64) {
	if len(group) == 0 || !content.Integral(total) {
		return
	}
	if len(group) == 1 {
		group[0].Charge = total
		return
	}
	units := int(math.Round(total))

	order := append([]*entity.Atom(nil), group...)
	sort.SliceStable(order, func(i, j int) bool {
		ei, ej := electronegativity(order[i]), electronegativity(order[j])
		if ei != ej {
			if units < 0 {
				return ei > ej
			}
			return ei < ej
		}
		return order[i].ID < order[j].ID
	})

	for _, a := range group {
		a.Charge = 0
	}
	step := 1.0
	if units < 0 {
		step = -1
		units = -units
	}
	for i := 0; i < units; i++ {
		order[i%len(order)].Charge += step
	}
}

// Split divides a total charge between two fragments after a bond break.
// The fragment holding the more electronegative bond atom takes the floor
// of half, the other the remainder.
func Split(total float64, a, b *entity.Atom) (qa, qb float64) {
	if !content.Integral(total) {
		return total / 2, total / 2
	}
	t := math.Round(total)
	half := math.Floor(t / 2)
	if electronegativity(a) >= electronegativity(b) {
		return half, t - half
	}
	return t - half, half
}
