package session

import "github.com/sprite-ai/qcreview/internal/model"

// Assigner claims an unassigned vehicle for the actor on the first load of a
// session. The claim has no compare-and-set: when two reviewers open the same
// vehicle at once the last write wins on the server.
type Assigner struct {
	fired bool
}

// OnLoaded is called with every completed vehicle load. Only the first call
// can produce an assignment, and only when the vehicle has no reviewer.
func (a *Assigner) OnLoaded(d *model.VehicleDetail, actor string) (model.AssignInput, bool) {
	if a.fired || d == nil {
		return model.AssignInput{}, false
	}
	a.fired = true
	if d.Vehicle.Reviewer() != "" || actor == "" {
		return model.AssignInput{}, false
	}
	return model.AssignInput{VehicleID: d.Vehicle.ID, UserID: actor}, true
}
