package content

import "fmt"

// Kind tags the closed set of species variants.
type Kind uint8

const (
	KindNucleus Kind = iota
	KindLepton
	KindQuark
	KindBoson
	KindHadron
)

func (k Kind) String() string {
	switch k {
	case KindNucleus:
		return "nucleus"
	case KindLepton:
		return "lepton"
	case KindQuark:
		return "quark"
	case KindBoson:
		return "boson"
	case KindHadron:
		return "hadron"
	default:
		return "unknown"
	}
}

func parseKind(s string) (Kind, error) {
	switch s {
	case "lepton":
		return KindLepton, nil
	case "quark":
		return KindQuark, nil
	case "boson":
		return KindBoson, nil
	case "hadron":
		return KindHadron, nil
	}
	return 0, fmt.Errorf("unknown particle kind %q", s)
}

// Species is what an atom is. The set of implementations is closed:
// *Lepton, *Quark, *Boson, *Hadron and *Nucleus.
type Species interface {
	ID() string
	Symbol() string
	Kind() Kind
	Mass() float64
	Charge() float64
	Radius() float64
	Color() string
	// Antiparticle returns the species id that annihilates with this one,
	// or "" when there is none.
	Antiparticle() string

	species()
}

type particleSpecies struct {
	def *ParticleDef
}

func (p particleSpecies) ID() string           { return p.def.ID }
func (p particleSpecies) Symbol() string       { return p.def.Symbol }
func (p particleSpecies) Mass() float64        { return p.def.Mass }
func (p particleSpecies) Charge() float64      { return float64(p.def.Charge) }
func (p particleSpecies) Radius() float64      { return p.def.Radius }
func (p particleSpecies) Color() string        { return p.def.Color }
func (p particleSpecies) Antiparticle() string { return p.def.Antiparticle }
func (p particleSpecies) Def() *ParticleDef    { return p.def }
func (particleSpecies) species()               {}

type Lepton struct{ particleSpecies }

func (*Lepton) Kind() Kind { return KindLepton }

type Quark struct{ particleSpecies }

func (*Quark) Kind() Kind { return KindQuark }

// Anti reports whether this is an antiquark.
func (q *Quark) Anti() bool { return q.def.Anti }

type Boson struct{ particleSpecies }

func (*Boson) Kind() Kind { return KindBoson }

func (b *Boson) Massless() bool { return b.def.Massless }

type Hadron struct{ particleSpecies }

func (*Hadron) Kind() Kind { return KindHadron }

// Quarks lists the constituent quark ids.
func (h *Hadron) Quarks() []string { return h.def.Quarks }

// Nucleus is an atom proper: an element in one of its isotopes.
type Nucleus struct {
	Element *Element
	Isotope *Isotope
}

func (n *Nucleus) ID() string            { return fmt.Sprintf("%s-%d", n.Element.Symbol, n.Isotope.Mass) }
func (n *Nucleus) Symbol() string        { return n.Element.Symbol }
func (*Nucleus) Kind() Kind              { return KindNucleus }
func (n *Nucleus) Mass() float64         { return float64(n.Isotope.Mass) }
func (*Nucleus) Charge() float64         { return 0 }
func (n *Nucleus) Radius() float64       { return n.Element.Radius }
func (n *Nucleus) Color() string         { return n.Element.Color }
func (*Nucleus) Antiparticle() string    { return "" }
func (n *Nucleus) Z() int                { return n.Element.Z }
func (n *Nucleus) Valence() int          { return n.Element.Valence }
func (n *Nucleus) ValenceElectrons() int { return n.Element.ValenceElectrons }
func (*Nucleus) species()                {}

// IsMasslessBoson reports whether s flies ballistically.
func IsMasslessBoson(s Species) bool {
	b, ok := s.(*Boson)
	return ok && b.Massless()
}

func newParticleSpecies(def *ParticleDef) Species {
	base := particleSpecies{def: def}
	switch def.kind {
	case KindLepton:
		return &Lepton{base}
	case KindQuark:
		return &Quark{base}
	case KindBoson:
		return &Boson{base}
	default:
		return &Hadron{base}
	}
}
