package identify

import (
	"sync"

	"github.com/mistergarrison/simchem3d-sub001/internal/content"
	"github.com/mistergarrison/simchem3d-sub001/internal/entity"
)

// Identifier matches live groups against the molecule table. Table
// fingerprints are built on first use and kept for the life of the
// Identifier.
type Identifier struct {
	tables *content.Tables

	once      sync.Once
	byPrint   map[Fingerprint]*content.MoleculeDef
	byFormula map[string]*content.MoleculeDef
	prints    map[string]Fingerprint
}

func New(t *content.Tables) *Identifier {
	return &Identifier{tables: t}
}

func (id *Identifier) build() {
	id.byPrint = make(map[Fingerprint]*content.MoleculeDef)
	id.byFormula = make(map[string]*content.MoleculeDef)
	id.prints = make(map[string]Fingerprint)
	for _, m := range id.tables.Molecules {
		if m.Structure == nil {
			var zs []int
			for _, ing := range m.Ingredients {
				for i := 0; i < ing.Count; i++ {
					zs = append(zs, ing.Z)
				}
			}
			f := FormulaOf(zs)
			if _, dup := id.byFormula[f]; !dup {
				id.byFormula[f] = m
			}
			continue
		}
		fp := FromStructure(m.Structure)
		id.prints[m.ID] = fp
		if _, dup := id.byPrint[fp]; !dup {
			id.byPrint[fp] = m
		}
	}
}

// Fingerprint returns the memoized fingerprint of a table molecule.
func (id *Identifier) Fingerprint(moleculeID string) (Fingerprint, bool) {
	id.once.Do(id.build)
	fp, ok := id.prints[moleculeID]
	return fp, ok
}

// Identify looks a bonded group up. Single atoms and unknown structures
// report false.
func (id *Identifier) Identify(atoms []*entity.Atom) (*content.MoleculeDef, bool) {
	if len(atoms) < 2 {
		return nil, false
	}
	for _, a := range atoms {
		if a.Z() == 0 {
			return nil, false
		}
	}
	id.once.Do(id.build)
	fp := Of(atoms)
	if m, ok := id.byPrint[fp]; ok {
		return m, true
	}
	m, ok := id.byFormula[fp.Formula]
	return m, ok
}
