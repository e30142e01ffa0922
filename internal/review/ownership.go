package review

import "github.com/sprite-ai/qcreview/internal/model"

// IsOwner reports whether userID holds the review of the vehicle. An
// unassigned vehicle has no owner, so nobody may mutate it until it is
// claimed.
func IsOwner(v model.Vehicle, userID string) bool {
	if userID == "" || v.ReviewerUserID == nil {
		return false
	}
	return *v.ReviewerUserID == userID
}
