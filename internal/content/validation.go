package content

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// ValidationError collects every data-integrity issue found in a table set.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "invalid tables: unknown validation error"
	}
	if len(e.Issues) == 1 {
		return e.Issues[0]
	}
	return fmt.Sprintf("table validation errors (%d):\n  - %s", len(e.Issues), strings.Join(e.Issues, "\n  - "))
}

func (e *ValidationError) Add(issue string) {
	e.Issues = append(e.Issues, issue)
}

func (e *ValidationError) HasIssues() bool {
	return len(e.Issues) > 0
}

var decayModes = map[string]bool{
	"beta-": true,
	"beta+": true,
	"alpha": true,
}

// Validate checks cross references between tables. It never stops at the
// first problem.
func Validate(t *Tables) error {
	err := &ValidationError{}

	for _, e := range t.Elements {
		prefix := fmt.Sprintf("element %s (Z=%d)", e.Symbol, e.Z)
		if e.Symbol == "" {
			err.Add(prefix + ": symbol is required")
		}
		if e.Radius <= 0 {
			err.Add(prefix + ": radius must be positive")
		}
		if len(e.Isotopes) == 0 {
			err.Add(prefix + ": at least one isotope is required")
		}
		for _, iso := range e.Isotopes {
			validateIsotope(t, prefix, iso, err)
		}
	}

	for _, p := range t.Particles {
		prefix := fmt.Sprintf("particle %q", p.ID)
		if p.Radius <= 0 {
			err.Add(prefix + ": radius must be positive")
		}
		if p.Antiparticle != "" {
			if _, ok := t.particles[p.Antiparticle]; !ok {
				err.Add(fmt.Sprintf("%s: antiparticle %q does not exist", prefix, p.Antiparticle))
			}
		}
		if p.kind == KindHadron {
			validateHadron(t, prefix, p, err)
		}
		if p.kind == KindBoson && !p.Massless && p.Mass <= 0 {
			err.Add(prefix + ": massive boson needs a positive mass")
		}
		if p.kind != KindBoson && p.Mass <= 0 {
			err.Add(prefix + ": mass must be positive")
		}
	}

	for _, m := range t.Molecules {
		validateMolecule(t, m, err)
	}

	if err.HasIssues() {
		return err
	}
	return nil
}

func validateIsotope(t *Tables, prefix string, iso *Isotope, err *ValidationError) {
	isoPrefix := fmt.Sprintf("%s isotope %d", prefix, iso.Mass)
	if iso.Mass <= 0 {
		err.Add(isoPrefix + ": mass must be positive")
	}
	if !iso.Unstable() {
		if iso.Decay != nil {
			err.Add(isoPrefix + ": stable isotope declares a decay")
		}
		return
	}
	if iso.Decay == nil {
		err.Add(isoPrefix + ": unstable isotope has no decay")
		return
	}
	if !decayModes[iso.Decay.Mode] {
		err.Add(fmt.Sprintf("%s: unknown decay mode %q", isoPrefix, iso.Decay.Mode))
	}
	target, ok := t.byZ[iso.Decay.Z]
	if !ok {
		err.Add(fmt.Sprintf("%s: decay target Z=%d is not in the element table", isoPrefix, iso.Decay.Z))
		return
	}
	if _, ok := target.Isotope(iso.Decay.Mass); !ok {
		err.Add(fmt.Sprintf("%s: decay target %s-%d is not a listed isotope", isoPrefix, target.Symbol, iso.Decay.Mass))
	}
}

func validateHadron(t *Tables, prefix string, p *ParticleDef, err *ValidationError) {
	if len(p.Quarks) == 0 {
		return
	}
	if len(p.Quarks) != 3 {
		err.Add(fmt.Sprintf("%s: baryon recipe needs 3 quarks, has %d", prefix, len(p.Quarks)))
	}
	var sum float64
	for _, q := range p.Quarks {
		qd, ok := t.particles[q]
		if !ok || qd.kind != KindQuark {
			err.Add(fmt.Sprintf("%s: constituent %q is not a quark", prefix, q))
			continue
		}
		sum += float64(qd.Charge)
	}
	if math.Abs(sum-float64(p.Charge)) > 1e-6 {
		err.Add(fmt.Sprintf("%s: quark charges sum to %.3f, hadron charge is %.3f", prefix, sum, float64(p.Charge)))
	}
}

func validateMolecule(t *Tables, m *MoleculeDef, err *ValidationError) {
	prefix := fmt.Sprintf("molecule %q", m.ID)
	want := make(map[int]int)
	for _, ing := range m.Ingredients {
		if _, ok := t.byZ[ing.Z]; !ok {
			err.Add(fmt.Sprintf("%s: ingredient Z=%d is not in the element table", prefix, ing.Z))
		}
		if ing.Count <= 0 {
			err.Add(fmt.Sprintf("%s: ingredient Z=%d has non-positive count", prefix, ing.Z))
		}
		want[ing.Z] += ing.Count
	}
	if m.Structure == nil {
		return
	}

	have := make(map[int]int)
	for _, z := range m.Structure.Atoms {
		have[z]++
	}
	zs := make([]int, 0, len(want)+len(have))
	for z := range want {
		zs = append(zs, z)
	}
	for z := range have {
		if _, ok := want[z]; !ok {
			zs = append(zs, z)
		}
	}
	sort.Ints(zs)
	for _, z := range zs {
		if want[z] != have[z] {
			err.Add(fmt.Sprintf("%s: stoichiometry mismatch for Z=%d: ingredients %d, structure %d", prefix, z, want[z], have[z]))
		}
	}

	n := len(m.Structure.Atoms)
	orders := make([]int, n)
	seen := make(map[[2]int]bool)
	for i, b := range m.Structure.Bonds {
		a, c, order := b[0], b[1], b[2]
		if a < 0 || a >= n || c < 0 || c >= n || a == c {
			err.Add(fmt.Sprintf("%s: bond %d has invalid atom indices %d-%d", prefix, i, a, c))
			continue
		}
		if order < 1 || order > 3 {
			err.Add(fmt.Sprintf("%s: bond %d has invalid order %d", prefix, i, order))
			continue
		}
		key := [2]int{min(a, c), max(a, c)}
		if seen[key] {
			err.Add(fmt.Sprintf("%s: bond %d duplicates %d-%d", prefix, i, a, c))
			continue
		}
		seen[key] = true
		orders[a] += order
		orders[c] += order
	}
	for i, z := range m.Structure.Atoms {
		e, ok := t.byZ[z]
		if !ok {
			continue
		}
		if orders[i] > e.Valence {
			err.Add(fmt.Sprintf("%s: atom %d (%s) has bond order %d above valence %d", prefix, i, e.Symbol, orders[i], e.Valence))
		}
	}
}
