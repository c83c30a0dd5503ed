package physics

import (
	"gonum.org/v1/gonum/spatial/r3"

	"github.com/mistergarrison/simchem3d-sub001/internal/config"
	"github.com/mistergarrison/simchem3d-sub001/internal/entity"
)

// ApplyDrag pulls a manipulated group rigidly: every member gets the
// acceleration that brings the leader to target, plus velocity damping.
func ApplyDrag(store *entity.Store, ids []entity.ID, leader entity.ID, target r3.Vec, p config.Physics) {
	lead, ok := store.Get(leader)
	if !ok {
		return
	}
	pull := r3.Scale(p.DragStiffness, r3.Sub(target, lead.Pos))
	for _, id := range ids {
		a, ok := store.Get(id)
		if !ok || a.Massless() || a.Assembling {
			continue
		}
		accel := r3.Sub(pull, r3.Scale(p.DragDamping, a.Vel))
		a.Force = r3.Add(a.Force, r3.Scale(a.Mass, accel))
	}
}
