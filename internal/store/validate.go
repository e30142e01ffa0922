// Package store contains the server-side implementations of the review
// backend: an in-memory store and a PostgreSQL store.
package store

import (
	"fmt"
	"sort"
	"strings"

	"github.com/sprite-ai/qcreview/internal/backend"
	"github.com/sprite-ai/qcreview/internal/catalog"
	"github.com/sprite-ai/qcreview/internal/model"
)

// ValidateQualityCheck rejects verdicts that break the review invariants.
func ValidateQualityCheck(in model.QualityCheckInput) error {
	if in.VehicleID == "" || in.VehicleImageID == "" {
		return fmt.Errorf("%w: vehicleId and vehicleImageId are required", backend.ErrInvalid)
	}
	for _, code := range in.Issues {
		if code == model.IssueQualityGood {
			return fmt.Errorf("%w: %s is not an issue", backend.ErrInvalid, code)
		}
		if !catalog.Known(code) {
			return fmt.Errorf("%w: unknown issue %q", backend.ErrInvalid, code)
		}
	}
	if in.IsQualityGood && len(in.Issues) > 0 {
		return fmt.Errorf("%w: quality good excludes issues", backend.ErrInvalid)
	}
	if want := model.DeriveStatus(in.IsQualityGood, in.Issues); in.Status != want {
		return fmt.Errorf("%w: status %q does not match verdict (want %q)", backend.ErrInvalid, in.Status, want)
	}
	return nil
}

// ValidateAssign checks an assignment write.
func ValidateAssign(in model.AssignInput) error {
	if in.VehicleID == "" || in.UserID == "" {
		return fmt.Errorf("%w: vehicleId and userId are required", backend.ErrInvalid)
	}
	return nil
}

// ValidateImageType checks a content type change.
func ValidateImageType(in model.ImageTypeInput) error {
	if in.VehicleID == "" || in.VehicleImageID == "" {
		return fmt.Errorf("%w: vehicleId and vehicleImageId are required", backend.ErrInvalid)
	}
	if !in.Type.Valid() {
		return fmt.Errorf("%w: unknown content type %q", backend.ErrInvalid, in.Type)
	}
	return nil
}

// matches reports whether a vehicle passes the list filter.
func matches(f model.VehicleFilter, v model.Vehicle) bool {
	if f.Status != "" && v.QualityCheckStatus != f.Status {
		return false
	}
	if f.ReviewerUserID != "" && v.Reviewer() != f.ReviewerUserID {
		return false
	}
	if f.VIN != "" && !strings.Contains(strings.ToUpper(v.VIN), strings.ToUpper(f.VIN)) {
		return false
	}
	return true
}

const defaultPageSize = 20

// paginate sorts rows newest first and cuts out the requested page.
func paginate(rows []model.VehicleSummary, f model.VehicleFilter) *model.VehiclePage {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i].Vehicle, rows[j].Vehicle
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.After(b.CreatedAt)
		}
		return a.ID < b.ID
	})

	size := f.PageSize
	if size <= 0 {
		size = defaultPageSize
	}
	index := max(f.PageIndex, 0)
	page := &model.VehiclePage{Count: len(rows), Items: []model.VehicleSummary{}}
	// Compare by division so huge page sizes or indexes cannot overflow.
	if len(rows) == 0 || index > (len(rows)-1)/size {
		return page
	}
	start := index * size
	end := start + min(size, len(rows)-start)
	page.Items = rows[start:end]
	return page
}
