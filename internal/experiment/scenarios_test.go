package experiment_test

import (
	"context"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/mistergarrison/simchem3d-sub001/internal/config"
	"github.com/mistergarrison/simchem3d-sub001/internal/content"
	"github.com/mistergarrison/simchem3d-sub001/internal/entity"
	"github.com/mistergarrison/simchem3d-sub001/internal/experiment"
	"github.com/mistergarrison/simchem3d-sub001/internal/identify"
	"github.com/mistergarrison/simchem3d-sub001/internal/sim"
	"github.com/mistergarrison/simchem3d-sub001/internal/topology"
)

const shortLivedTables = `
elements:
  - z: 1
    symbol: "H"
    valence: 1
    valence_electrons: 1
    electronegativity: 2.2
    radius: 10
    isotopes:
      - mass: 1
        half_life: stable
      - mass: 3
        half_life: 0.05
        decay: {mode: beta-, z: 2, mass: 3}
  - z: 2
    symbol: "He"
    valence: 0
    valence_electrons: 2
    radius: 11
    isotopes:
      - mass: 4
        half_life: stable
      - mass: 3
        half_life: stable
particles:
  - id: electron
    symbol: "e-"
    kind: lepton
    mass: 0.05
    charge: -1
    radius: 5
    antiparticle: positron
  - id: positron
    symbol: "e+"
    kind: lepton
    mass: 0.05
    charge: 1
    radius: 5
    antiparticle: electron
    anti: true
`

func run(name string) (*experiment.Experiment, *experiment.Result) {
	GinkgoHelper()
	sc, err := experiment.NewRegistry().Get(name)
	Expect(err).NotTo(HaveOccurred())
	cfg := config.DefaultConfig()
	cfg.Seed = 42
	x, err := experiment.New(content.MustDefault(), cfg, sc)
	Expect(err).NotTo(HaveOccurred())
	res, err := x.Run(context.Background(), 0)
	Expect(err).NotTo(HaveOccurred())
	return x, res
}

func live(x *experiment.Experiment, keep func(*entity.Atom) bool) []*entity.Atom {
	var out []*entity.Atom
	for _, a := range x.Engine().Store().Live() {
		if keep(a) {
			out = append(out, a)
		}
	}
	return out
}

var _ = Describe("Scenarios", func() {
	Context("an electron meets a positron", func() {
		It("annihilates them with a single explosion", func() {
			x, res := run("annihilation")

			leptons := live(x, func(a *entity.Atom) bool { return a.Kind() == content.KindLepton })
			Expect(leptons).To(BeEmpty())

			explosions := 0
			for _, fx := range res.Effects {
				if fx.Kind == entity.EffectExplosion {
					explosions++
				}
			}
			Expect(explosions).To(Equal(1))
		})
	})

	Context("two up quarks and a down quark converge", func() {
		It("binds them into exactly one proton", func() {
			x, _ := run("hadronization")

			protons := live(x, func(a *entity.Atom) bool { return a.Species.Symbol() == "p⁺" })
			Expect(protons).To(HaveLen(1))
			quarks := live(x, func(a *entity.Atom) bool { return a.Kind() == content.KindQuark })
			Expect(quarks).To(BeEmpty())
		})
	})

	Context("an oxygen and two hydrogens on converging paths", func() {
		It("leaves the oxygen with two bond entries", func() {
			x, _ := run("water")

			oxygen := live(x, func(a *entity.Atom) bool { return a.Z() == 8 })
			Expect(oxygen).To(HaveLen(1))
			Expect(oxygen[0].Bonds).To(HaveLen(2))
		})
	})

	Context("assembling benzene", func() {
		It("builds the ring with one bond per hydrogen and a doubled ring bond per carbon", func() {
			x, res := run("benzene")
			Expect(res.Assembled).To(ContainElement("benzene"))
			Expect(x.Engine().Choreographer().Busy()).To(BeFalse())

			carbons := live(x, func(a *entity.Atom) bool { return a.Z() == 6 })
			Expect(carbons).To(HaveLen(6))
			for _, c := range carbons {
				Expect(c.Bonds).To(HaveLen(4))
			}

			comp := topology.Of(x.Engine().Store(), carbons[0])
			Expect(comp.Atoms).To(HaveLen(12))
			mol, ok := identify.New(x.Engine().Tables()).Identify(comp.Atoms)
			Expect(ok).To(BeTrue())
			Expect(mol.ID).To(Equal("benzene"))
		})
	})

	Context("an isotope with a 0.05 s half-life", func() {
		It("transmutes to its decay product within two seconds", func() {
			tables, err := content.Parse([]byte(shortLivedTables))
			Expect(err).NotTo(HaveOccurred())

			cfg := config.DefaultConfig()
			frames := int(2 / cfg.Physics.FrameTime())
			ids := make([]entity.ID, 8)
			en := sim.NewEnsemble(tables, cfg, len(ids), 100)
			engines, err := en.Run(context.Background(), func(ctx context.Context, e *sim.Engine) error {
				a, err := e.Spawn("H-3", r3.Vec{}, r3.Vec{})
				if err != nil {
					return err
				}
				a.LastDecayCheck = -1
				ids[e.Seed()-100] = a.ID
				return e.Run(ctx, frames, nil)
			})
			Expect(err).NotTo(HaveOccurred())

			for i, e := range engines {
				a, ok := e.Store().Get(ids[i])
				Expect(ok).To(BeTrue())
				Expect(a.Species.ID()).To(Equal("He-3"))
			}
		})
	})
})

var _ = Describe("Invariants in a busy soup", Ordered, func() {
	var x *experiment.Experiment
	var res *experiment.Result

	BeforeAll(func() {
		sc, err := experiment.NewRegistry().Get("soup")
		Expect(err).NotTo(HaveOccurred())
		cfg := config.DefaultConfig()
		cfg.Seed = 7
		x, err = experiment.New(content.MustDefault(), cfg, sc)
		Expect(err).NotTo(HaveOccurred())
		res, err = x.Run(context.Background(), 300)
		Expect(err).NotTo(HaveOccurred())
	})

	It("conserves net charge", func() {
		Expect(res.Final["charge_drift"]).To(BeNumerically("<", 1e-9))
	})

	It("keeps every bond symmetric", func() {
		s := x.Engine().Store()
		for _, a := range s.Live() {
			for _, id := range a.Neighbors() {
				b, ok := s.Get(id)
				Expect(ok).To(BeTrue(), "atom %d bonded to dead atom %d", a.ID, id)
				Expect(b.BondOrder(a.ID)).To(Equal(a.BondOrder(b.ID)))
			}
		}
	})

	It("gives the same components when analyzed twice", func() {
		s := x.Engine().Store()
		first := topology.Analyze(s)
		second := topology.Analyze(s)
		Expect(second).To(HaveLen(len(first)))
		for i := range first {
			Expect(second[i].Centroid).To(Equal(first[i].Centroid))
			Expect(len(second[i].Atoms)).To(Equal(len(first[i].Atoms)))
		}
	})

	It("samples the standard metrics", func() {
		Expect(res.Names).To(ContainElements("kinetic_energy", "population"))
		Expect(res.Samples).To(HaveLen(300 / experiment.SampleEvery))
	})
})
