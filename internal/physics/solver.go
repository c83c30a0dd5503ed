package physics

import (
	"log/slog"
	"math"
	"math/rand"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/mistergarrison/simchem3d-sub001/internal/config"
	"github.com/mistergarrison/simchem3d-sub001/internal/content"
	"github.com/mistergarrison/simchem3d-sub001/internal/entity"
	"github.com/mistergarrison/simchem3d-sub001/internal/topology"
)

const minSeparation = 1e-6

// Reactor is the set of contact reactions the pairwise pass triggers.
type Reactor interface {
	// Contact tries annihilation, electron capture and neutron capture in
	// that order. It reports whether either atom was consumed.
	Contact(s *entity.Store, a, b *entity.Atom, dist float64) bool
	// Bond tries to form a bond between two touching atoms.
	Bond(s *entity.Store, a, b *entity.Atom, relSpeed float64) bool
}

// Break records a bond that snapped from over-stretch.
type Break struct {
	A, B  entity.ID
	Order int
}

type Solver struct {
	cfg     config.Physics
	reactor Reactor
	rng     *rand.Rand
	log     *slog.Logger
}

func NewSolver(cfg config.Physics, reactor Reactor, rng *rand.Rand, log *slog.Logger) *Solver {
	return &Solver{cfg: cfg, reactor: reactor, rng: rng, log: log}
}

// Pass runs one pairwise sweep over the store. Atoms created during the
// pass are not visited; atoms removed during the pass are skipped from the
// moment they die.
func (s *Solver) Pass(store *entity.Store, drag map[entity.ID]bool) []Break {
	var breaks []Break
	atoms := store.Atoms()
	for i := 0; i < len(atoms); i++ {
		a := atoms[i]
		if !a.Alive() || a.Massless() {
			continue
		}
		for j := i + 1; j < len(atoms); j++ {
			if !a.Alive() {
				break
			}
			b := atoms[j]
			if !b.Alive() || b.Massless() {
				continue
			}
			if drag[a.ID] && drag[b.ID] {
				continue
			}
			if brk, ok := s.pair(store, a, b); ok {
				breaks = append(breaks, brk)
			}
		}
	}
	return breaks
}

func (s *Solver) pair(store *entity.Store, a, b *entity.Atom) (Break, bool) {
	order := a.BondOrder(b.ID)

	if a.Assembling || b.Assembling {
		same := a.Assembling && b.Assembling && a.AssemblyGroup == b.AssemblyGroup
		if !same || order == 0 {
			return Break{}, false
		}
	}

	delta := r3.Sub(b.Pos, a.Pos)
	d := r3.Norm(delta)
	var dir r3.Vec
	if d < minSeparation {
		dir = s.randomUnit()
		d = minSeparation
	} else {
		dir = r3.Scale(1/d, delta)
	}

	if order > 0 {
		return s.spring(store, a, b, order, dir, d)
	}

	s.electrostatic(a, b, dir, d)

	if s.reactor != nil && s.reactor.Contact(store, a, b, d) {
		return Break{}, false
	}

	contact := (a.Radius + b.Radius) * s.cfg.CollisionMargin
	if d < contact {
		push := s.cfg.HardCoreK * (contact - d)
		addForce(a, b, dir, -push)
		if s.reactor != nil {
			rel := r3.Norm(r3.Sub(b.Vel, a.Vel))
			s.reactor.Bond(store, a, b, rel)
		}
	}
	return Break{}, false
}

// addForce applies f along dir to b and the reaction to a. Positive f
// pulls the pair together.
func addForce(a, b *entity.Atom, dir r3.Vec, f float64) {
	a.Force = r3.Add(a.Force, r3.Scale(f, dir))
	b.Force = r3.Sub(b.Force, r3.Scale(f, dir))
}

func (s *Solver) electrostatic(a, b *entity.Atom, dir r3.Vec, d float64) {
	if d > s.cfg.CoulombRange && s.cfg.CoulombRange > 0 {
		return
	}
	if a.Charge != 0 && b.Charge != 0 {
		soft := s.cfg.Softening * s.cfg.Softening
		f := s.cfg.CoulombK * a.Charge * b.Charge / (d*d + soft)
		addForce(a, b, dir, -f)
	}
	if a.Kind() == content.KindQuark && b.Kind() == content.KindQuark && d < s.cfg.StrongRange {
		addForce(a, b, dir, s.cfg.StrongForce)
	}
}

func (s *Solver) spring(store *entity.Store, a, b *entity.Atom, order int, dir r3.Vec, d float64) (Break, bool) {
	rest := BondLength(a.Radius, b.Radius, order, s.cfg)

	if d > rest*s.cfg.BreakStretch && !a.InCooldown() && !b.InCooldown() && !a.Assembling {
		s.snap(store, a, b, order)
		return Break{A: a.ID, B: b.ID, Order: order}, true
	}

	fs := clamp(s.cfg.BondStiffness*(d-rest), s.cfg.MaxSpringForce)
	vrel := r3.Dot(r3.Sub(b.Vel, a.Vel), dir)
	fd := clamp(s.cfg.BondDamping*vrel, s.cfg.MaxDampingForce)
	addForce(a, b, dir, fs+fd)
	return Break{}, false
}

// snap removes the bond and resplits the group charge between the two
// fragments.
func (s *Solver) snap(store *entity.Store, a, b *entity.Atom, order int) {
	var total float64
	for _, m := range topology.Group(store, a) {
		total += m.Charge
	}
	entity.Unlink(a, b)

	ga := topology.Group(store, a)
	for _, m := range ga {
		if m.ID == b.ID {
			// still joined through a ring
			topology.Assign(ga, total)
			return
		}
	}
	gb := topology.Group(store, b)
	qa, qb := topology.Split(total, a, b)
	topology.Assign(ga, qa)
	topology.Assign(gb, qb)

	if s.log != nil {
		s.log.Debug("bond snapped",
			slog.Uint64("a", uint64(a.ID)),
			slog.Uint64("b", uint64(b.ID)),
			slog.Int("order", order))
	}
}

func (s *Solver) randomUnit() r3.Vec {
	theta := s.rng.Float64() * 2 * math.Pi
	return r3.Vec{X: math.Cos(theta), Y: math.Sin(theta)}
}
