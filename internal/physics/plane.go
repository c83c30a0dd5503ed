package physics

import (
	"math"

	"github.com/mistergarrison/simchem3d-sub001/internal/config"
	"github.com/mistergarrison/simchem3d-sub001/internal/topology"
)

// ApplyPlaneForce pulls each molecule's center back toward z=0. Every atom
// of a component gets the same acceleration, so the molecule moves as a
// whole and its shape is untouched.
func ApplyPlaneForce(comps []*topology.Component, p config.Physics) {
	for _, c := range comps {
		z := c.Center.Z
		if z == 0 {
			continue
		}
		accel := -p.ZSpring * z / math.Max(c.Mass, p.ZMassFloor)
		for _, a := range c.Atoms {
			if !a.Alive() || a.Massless() || a.Assembling {
				continue
			}
			a.Force.Z += accel * a.Mass
		}
	}
}
