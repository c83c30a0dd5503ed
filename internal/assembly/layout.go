package assembly

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/mistergarrison/simchem3d-sub001/internal/config"
	"github.com/mistergarrison/simchem3d-sub001/internal/content"
	"github.com/mistergarrison/simchem3d-sub001/internal/physics"
)

const (
	relaxIterations = 400
	relaxRate       = 0.5
	angleRate       = 0.3
)

type layoutBond struct {
	i, j  int
	order int
	rest  float64
}

// Layout computes flat (z=0) target coordinates for a canonical structure,
// centered on the origin. Heavy atoms are seeded on a regular polygon,
// hydrogens fanned outward from their parent, then bond lengths and bond
// angles are relaxed iteratively.
func Layout(t *content.Tables, st *content.Structure, p config.Physics) ([]r3.Vec, error) {
	n := len(st.Atoms)
	radius := make([]float64, n)
	valence := make([]int, n)
	for i, z := range st.Atoms {
		e, ok := t.Element(z)
		if !ok {
			return nil, fmt.Errorf("layout: %w: Z=%d", content.ErrUnknownSpecies, z)
		}
		radius[i] = e.Radius
		valence[i] = e.ValenceElectrons
	}

	bonds := make([]layoutBond, len(st.Bonds))
	adj := make([][]int, n)
	order := make([]int, n)
	bonded := make(map[[2]int]bool, len(st.Bonds))
	for k, b := range st.Bonds {
		bonded[[2]int{min(b[0], b[1]), max(b[0], b[1])}] = true
		bonds[k] = layoutBond{i: b[0], j: b[1], order: b[2], rest: physics.BondLength(radius[b[0]], radius[b[1]], b[2], p)}
		adj[b[0]] = append(adj[b[0]], b[1])
		adj[b[1]] = append(adj[b[1]], b[0])
		order[b[0]] += b[2]
		order[b[1]] += b[2]
	}

	pos := seed(st.Atoms, adj, bonds)
	restOf := func(i, j int) float64 {
		for _, b := range bonds {
			if (b.i == i && b.j == j) || (b.i == j && b.j == i) {
				return b.rest
			}
		}
		return radius[i] + radius[j]
	}

	for iter := 0; iter < relaxIterations; iter++ {
		for _, b := range bonds {
			constrain(pos, b.i, b.j, b.rest, relaxRate, false)
		}
		for c, ns := range adj {
			switch {
			case len(ns) == 2:
				lone := (valence[c] - order[c]) / 2
				if lone < 0 {
					lone = 0
				}
				cos := physics.TargetCosine(2, lone, 0)
				d := lawOfCosines(restOf(c, ns[0]), restOf(c, ns[1]), cos)
				constrain(pos, ns[0], ns[1], d, angleRate, false)
			case len(ns) > 2:
				cos := math.Cos(2 * math.Pi / float64(len(ns)))
				for a := 0; a < len(ns); a++ {
					for b := a + 1; b < len(ns); b++ {
						d := lawOfCosines(restOf(c, ns[a]), restOf(c, ns[b]), cos)
						constrain(pos, ns[a], ns[b], d, angleRate, true)
					}
				}
			}
		}
		for i := 0; i < n; i++ {
			for j := i + 1; j < n; j++ {
				if bonded[[2]int{i, j}] {
					continue
				}
				constrain(pos, i, j, radius[i]+radius[j], relaxRate, true)
			}
		}
	}

	var center r3.Vec
	for _, v := range pos {
		center = r3.Add(center, v)
	}
	center = r3.Scale(1/float64(n), center)
	for i := range pos {
		pos[i] = r3.Sub(pos[i], center)
		pos[i].Z = 0
	}
	return pos, nil
}

func lawOfCosines(a, b, cos float64) float64 {
	return math.Sqrt(a*a + b*b - 2*a*b*cos)
}

// constrain moves i and j symmetrically toward separation want. With
// repelOnly it only ever pushes apart.
func constrain(pos []r3.Vec, i, j int, want, rate float64, repelOnly bool) {
	delta := r3.Sub(pos[j], pos[i])
	d := r3.Norm(delta)
	if d < 1e-9 {
		delta = r3.Vec{X: 1e-3 * float64(j-i), Y: 1e-3}
		d = r3.Norm(delta)
	}
	if repelOnly && d >= want {
		return
	}
	shift := r3.Scale(0.5*rate*(d-want)/d, delta)
	pos[i] = r3.Add(pos[i], shift)
	pos[j] = r3.Sub(pos[j], shift)
}

func seed(zs []int, adj [][]int, bonds []layoutBond) []r3.Vec {
	n := len(zs)
	pos := make([]r3.Vec, n)

	var heavy []int
	for i, z := range zs {
		if z > 1 {
			heavy = append(heavy, i)
		}
	}
	if len(heavy) == 0 {
		for i := range zs {
			heavy = append(heavy, i)
		}
	}
	isHeavy := make([]bool, n)
	for _, i := range heavy {
		isHeavy[i] = true
	}

	var side float64
	var count int
	for _, b := range bonds {
		if isHeavy[b.i] && isHeavy[b.j] {
			side += b.rest
			count++
		}
	}
	if count > 0 {
		side /= float64(count)
	}

	ring := 0.0
	if len(heavy) > 1 {
		ring = side / (2 * math.Sin(math.Pi/float64(len(heavy))))
	}
	for k, i := range heavy {
		theta := 2 * math.Pi * float64(k) / float64(len(heavy))
		pos[i] = r3.Vec{X: ring * math.Cos(theta), Y: ring * math.Sin(theta)}
	}

	for _, parent := range heavy {
		var kids []int
		for _, c := range adj[parent] {
			if !isHeavy[c] {
				kids = append(kids, c)
			}
		}
		base := math.Atan2(pos[parent].Y, pos[parent].X)
		spread := math.Pi / 3
		if r3.Norm(pos[parent]) < 1e-9 {
			base, spread = 0, 2*math.Pi/float64(max(len(kids), 1))
		}
		for k, c := range kids {
			theta := base + (float64(k)-float64(len(kids)-1)/2)*spread
			rest := 0.0
			for _, b := range bonds {
				if (b.i == parent && b.j == c) || (b.j == parent && b.i == c) {
					rest = b.rest
				}
			}
			pos[c] = r3.Add(pos[parent], r3.Vec{X: rest * math.Cos(theta), Y: rest * math.Sin(theta)})
		}
	}
	return pos
}
