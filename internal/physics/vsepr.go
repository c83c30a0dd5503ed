package physics

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"

	"github.com/mistergarrison/simchem3d-sub001/internal/config"
	"github.com/mistergarrison/simchem3d-sub001/internal/entity"
)

var (
	cosLinear      = -1.0
	cosTrigonal    = math.Cos(120 * math.Pi / 180)
	cosBent3       = math.Cos(117 * math.Pi / 180)
	cosTetrahedral = math.Cos(109.5 * math.Pi / 180)
	cosPyramidal   = math.Cos(107 * math.Pi / 180)
	cosBent4       = math.Cos(104.5 * math.Pi / 180)
)

// LonePairs is the number of non-bonding electron pairs on a.
func LonePairs(a *entity.Atom) int {
	n, ok := a.Nucleus()
	if !ok {
		return 0
	}
	free := float64(n.ValenceElectrons()) - a.Charge - float64(len(a.Bonds))
	if free <= 0 {
		return 0
	}
	return int(math.Floor(free / 2))
}

// TargetCosine is the ideal cosine between two bonds of a center with the
// given number of bonded neighbors and lone pairs. current is only
// consulted for octahedral centers, where neighbors sit either 90° or 180°
// apart.
func TargetCosine(neighbors, lonePairs int, current float64) float64 {
	switch domains := neighbors + lonePairs; {
	case domains <= 2:
		return cosLinear
	case domains == 3:
		if lonePairs == 0 {
			return cosTrigonal
		}
		return cosBent3
	case domains == 4:
		switch lonePairs {
		case 0:
			return cosTetrahedral
		case 1:
			return cosPyramidal
		default:
			return cosBent4
		}
	default:
		if current < -0.7 {
			return cosLinear
		}
		return 0
	}
}

// ApplyVSEPR adds angular corrections for every center with two or more
// neighbors, then dihedral twists across bonds joining two lone-pair
// centers.
func ApplyVSEPR(store *entity.Store, p config.Physics) {
	for _, c := range store.Atoms() {
		if !c.Alive() || c.Assembling || len(c.Bonds) < 2 {
			continue
		}
		if _, ok := c.Nucleus(); !ok {
			continue
		}
		neighbors := live(store, c.Neighbors())
		if len(neighbors) < 2 {
			continue
		}
		k := p.VSEPRStrength
		if c.InCooldown() {
			k *= p.VSEPRCooldownScale
		}
		lone := LonePairs(c)
		for i := 0; i < len(neighbors); i++ {
			for j := i + 1; j < len(neighbors); j++ {
				angular(c, neighbors[i], neighbors[j], lone, len(neighbors), k)
			}
		}
	}
	applyDihedrals(store, p)
}

func live(store *entity.Store, ids []entity.ID) []*entity.Atom {
	out := make([]*entity.Atom, 0, len(ids))
	for _, id := range ids {
		if a, ok := store.Get(id); ok {
			out = append(out, a)
		}
	}
	return out
}

func angular(c, j, k *entity.Atom, lone, neighbors int, strength float64) {
	rj := r3.Sub(j.Pos, c.Pos)
	rk := r3.Sub(k.Pos, c.Pos)
	if r3.Norm2(rj) < minSeparation || r3.Norm2(rk) < minSeparation {
		return
	}
	u := r3.Unit(rj)
	w := r3.Unit(rk)
	cos := r3.Dot(u, w)
	target := TargetCosine(neighbors, lone, cos)
	e := cos - target

	fj := r3.Scale(-strength*e, r3.Sub(w, r3.Scale(cos, u)))
	fk := r3.Scale(-strength*e, r3.Sub(u, r3.Scale(cos, w)))
	j.Force = r3.Add(j.Force, fj)
	k.Force = r3.Add(k.Force, fk)
	c.Force = r3.Sub(c.Force, r3.Add(fj, fk))
}

// applyDihedrals twists chains C-A-B-D toward a 90° dihedral when A and B
// both carry lone pairs.
func applyDihedrals(store *entity.Store, p config.Physics) {
	if p.DihedralStrength == 0 {
		return
	}
	for _, a := range store.Atoms() {
		if !a.Alive() || a.Assembling || LonePairs(a) == 0 {
			continue
		}
		for _, b := range live(store, a.Neighbors()) {
			if b.ID < a.ID || b.Assembling || LonePairs(b) == 0 {
				continue
			}
			for _, c := range live(store, a.Neighbors()) {
				if c.ID == b.ID {
					continue
				}
				for _, d := range live(store, b.Neighbors()) {
					if d.ID == a.ID || d.ID == c.ID {
						continue
					}
					dihedral(c, a, b, d, p.DihedralStrength)
				}
			}
		}
	}
}

func dihedral(c, a, b, d *entity.Atom, k float64) {
	ab := r3.Sub(b.Pos, a.Pos)
	if r3.Norm2(ab) < minSeparation {
		return
	}
	axis := r3.Unit(ab)
	cp := perpendicular(r3.Sub(c.Pos, a.Pos), axis)
	dp := perpendicular(r3.Sub(d.Pos, b.Pos), axis)
	if r3.Norm2(cp) < minSeparation || r3.Norm2(dp) < minSeparation {
		return
	}

	sin := r3.Dot(axis, r3.Cross(cp, dp))
	cos := r3.Dot(cp, dp)
	phi := math.Atan2(sin, cos)
	sign := 1.0
	if math.Sin(phi) < 0 {
		sign = -1
	}
	f := k * math.Cos(phi) * sign

	tc := r3.Unit(r3.Cross(axis, cp))
	td := r3.Unit(r3.Cross(axis, dp))
	fc := r3.Scale(-f, tc)
	fd := r3.Scale(f, td)

	c.Force = r3.Add(c.Force, fc)
	d.Force = r3.Add(d.Force, fd)
	a.Force = r3.Sub(a.Force, fc)
	b.Force = r3.Sub(b.Force, fd)
}

func perpendicular(v, axis r3.Vec) r3.Vec {
	return r3.Sub(v, r3.Scale(r3.Dot(v, axis), axis))
}
