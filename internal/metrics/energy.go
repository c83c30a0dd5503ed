package metrics

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/mistergarrison/simchem3d-sub001/internal/entity"
)

// Energy is the current kinetic energy of all massive atoms.
type Energy struct {
	name    string
	current float64
	buf     []float64
}

func NewEnergy() *Energy {
	return &Energy{name: "kinetic_energy"}
}

func (e *Energy) Name() string { return e.name }

func (e *Energy) Observe(atoms []*entity.Atom, t float64) {
	e.buf = e.buf[:0]
	for _, a := range atoms {
		if !a.Alive() || a.Massless() {
			continue
		}
		e.buf = append(e.buf, 0.5*a.Mass*r3.Norm2(a.Vel))
	}
	e.current = floats.Sum(e.buf)
}

func (e *Energy) Value() float64 { return e.current }

func (e *Energy) Reset() {
	e.current = 0
	e.buf = e.buf[:0]
}

// ChargeDrift is the largest deviation of the net charge from its first
// observed value. Every reaction conserves charge, so anything but zero
// points at a bug.
type ChargeDrift struct {
	name     string
	initial  float64
	maxDrift float64
	samples  int
}

func NewChargeDrift() *ChargeDrift {
	return &ChargeDrift{name: "charge_drift"}
}

func (c *ChargeDrift) Name() string { return c.name }

func (c *ChargeDrift) Observe(atoms []*entity.Atom, t float64) {
	q := NetCharge(atoms)
	if c.samples == 0 {
		c.initial = q
	}
	c.samples++
	if d := q - c.initial; d > c.maxDrift {
		c.maxDrift = d
	} else if -d > c.maxDrift {
		c.maxDrift = -d
	}
}

func (c *ChargeDrift) Value() float64 { return c.maxDrift }

func (c *ChargeDrift) Reset() {
	c.initial = 0
	c.maxDrift = 0
	c.samples = 0
}

func NetCharge(atoms []*entity.Atom) float64 {
	var q float64
	for _, a := range atoms {
		if a.Alive() {
			q += a.Charge
		}
	}
	return q
}
