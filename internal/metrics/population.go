package metrics

import "github.com/mistergarrison/simchem3d-sub001/internal/entity"

// Population counts live atoms of any kind.
type Population struct {
	name  string
	count int
}

func NewPopulation() *Population {
	return &Population{name: "population"}
}

func (p *Population) Name() string { return p.name }

func (p *Population) Observe(atoms []*entity.Atom, t float64) {
	p.count = 0
	for _, a := range atoms {
		if a.Alive() {
			p.count++
		}
	}
}

func (p *Population) Value() float64 { return float64(p.count) }

func (p *Population) Reset() { p.count = 0 }

// Bonds counts bonds weighted by order.
type Bonds struct {
	name    string
	entries int
}

func NewBonds() *Bonds {
	return &Bonds{name: "bond_order"}
}

func (b *Bonds) Name() string { return b.name }

func (b *Bonds) Observe(atoms []*entity.Atom, t float64) {
	b.entries = 0
	for _, a := range atoms {
		if a.Alive() {
			b.entries += len(a.Bonds)
		}
	}
}

// Value halves the entry count since each bond is listed on both ends.
func (b *Bonds) Value() float64 { return float64(b.entries) / 2 }

func (b *Bonds) Reset() { b.entries = 0 }
