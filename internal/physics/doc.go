// Package physics computes the forces acting on atoms each substep.
//
// The pieces run in a fixed order inside a substep:
//
//   - [ApplyDrag]: springs pulling a manipulated group toward the pointer
//   - [Solver.Pass]: the O(n²) pairwise pass (bond springs, Coulomb,
//     confinement, hard-core contact) which also triggers contact reactions
//     through a [Reactor]
//   - [ApplyVSEPR]: bond-angle and dihedral corrections
//   - [ApplyPlaneForce]: the weak pull of every molecule back to z=0
//
// Forces accumulate in [entity.Atom.Force]; integration is done elsewhere.
package physics
