// Package identify recognises bonded atom groups by structural fingerprint.
package identify

import (
	"fmt"
	"sort"
	"strings"

	"github.com/mistergarrison/simchem3d-sub001/internal/content"
	"github.com/mistergarrison/simchem3d-sub001/internal/entity"
)

// Fingerprint is a canonical, order independent description of a bonded
// structure.
type Fingerprint struct {
	Formula  string // "Z:count" sorted by Z
	Bonds    string // "Zlo-Zhi-order:count" sorted
	Spectrum string // per-atom neighbor signatures, sorted
}

func (f Fingerprint) String() string {
	return f.Formula + "|" + f.Bonds + "|" + f.Spectrum
}

// graph is the shared shape both live atoms and table structures reduce to.
type graph struct {
	z     []int
	order map[[2]int]int
}

func (g *graph) link(i, j, order int) {
	if i > j {
		i, j = j, i
	}
	g.order[[2]int{i, j}] += order
}

// Of fingerprints a set of live atoms. Bonds leaving the set are ignored.
func Of(atoms []*entity.Atom) Fingerprint {
	g := &graph{z: make([]int, len(atoms)), order: make(map[[2]int]int)}
	index := make(map[entity.ID]int, len(atoms))
	for i, a := range atoms {
		g.z[i] = a.Z()
		index[a.ID] = i
	}
	for i, a := range atoms {
		for _, nid := range a.Bonds {
			j, ok := index[nid]
			if !ok || j <= i {
				continue
			}
			g.link(i, j, 1)
		}
	}
	return g.fingerprint()
}

// FromStructure fingerprints a canonical table structure.
func FromStructure(s *content.Structure) Fingerprint {
	g := &graph{z: append([]int(nil), s.Atoms...), order: make(map[[2]int]int)}
	for _, b := range s.Bonds {
		g.link(b[0], b[1], b[2])
	}
	return g.fingerprint()
}

// FormulaOf is the first fingerprint component on its own.
func FormulaOf(zs []int) string {
	return (&graph{z: zs}).formula()
}

func (g *graph) formula() string {
	counts := make(map[int]int)
	for _, z := range g.z {
		counts[z]++
	}
	zs := make([]int, 0, len(counts))
	for z := range counts {
		zs = append(zs, z)
	}
	sort.Ints(zs)
	parts := make([]string, len(zs))
	for i, z := range zs {
		parts[i] = fmt.Sprintf("%d:%d", z, counts[z])
	}
	return strings.Join(parts, ",")
}

func (g *graph) fingerprint() Fingerprint {
	bondCounts := make(map[string]int)
	neighbors := make([][]int, len(g.z))
	for k, order := range g.order {
		i, j := k[0], k[1]
		lo, hi := g.z[i], g.z[j]
		if lo > hi {
			lo, hi = hi, lo
		}
		bondCounts[fmt.Sprintf("%d-%d-%d", lo, hi, order)]++
		for n := 0; n < order; n++ {
			neighbors[i] = append(neighbors[i], g.z[j])
			neighbors[j] = append(neighbors[j], g.z[i])
		}
	}

	bonds := make([]string, 0, len(bondCounts))
	for key, n := range bondCounts {
		bonds = append(bonds, fmt.Sprintf("%s:%d", key, n))
	}
	sort.Strings(bonds)

	spectrum := make([]string, len(g.z))
	for i, z := range g.z {
		ns := neighbors[i]
		sort.Ints(ns)
		sig := make([]string, len(ns))
		for k, n := range ns {
			sig[k] = fmt.Sprintf("%03d", n)
		}
		spectrum[i] = fmt.Sprintf("%03d[%s]", z, strings.Join(sig, " "))
	}
	sort.Strings(spectrum)

	return Fingerprint{
		Formula:  g.formula(),
		Bonds:    strings.Join(bonds, ","),
		Spectrum: strings.Join(spectrum, ";"),
	}
}
