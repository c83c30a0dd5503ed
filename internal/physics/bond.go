package physics

import (
	"math"

	"github.com/mistergarrison/simchem3d-sub001/internal/config"
	"github.com/mistergarrison/simchem3d-sub001/internal/entity"
)

// BondLength is the rest length of a bond of the given order between two
// bodies of radius ra and rb.
func BondLength(ra, rb float64, order int, p config.Physics) float64 {
	if order < 1 {
		order = 1
	}
	shrink := 1 - p.BondOrderShrink*float64(order-1)
	return (ra + rb) * p.BondLengthScale * shrink
}

// RestLength is BondLength for two atoms at their current bond order.
func RestLength(a, b *entity.Atom, p config.Physics) float64 {
	return BondLength(a.Radius, b.Radius, a.BondOrder(b.ID), p)
}

func clamp(v, limit float64) float64 {
	if limit <= 0 {
		return v
	}
	return math.Max(-limit, math.Min(limit, v))
}
