// Package model defines the core data types shared across qcreview.
package model

import (
	"slices"
	"strings"
	"time"
)

// Position is the content category of an item. It selects the issue catalog.
type Position string

const (
	PositionExterior Position = "EXTERIOR"
	PositionInterior Position = "INTERIOR"
	PositionDetails  Position = "DETAILS"
	PositionVideo    Position = "VIDEO"
)

// Positions lists every known position in display order.
func Positions() []Position {
	return []Position{PositionExterior, PositionInterior, PositionDetails, PositionVideo}
}

// ParsePosition converts a wire value to a Position. Unknown values return false.
func ParsePosition(s string) (Position, bool) {
	p := Position(strings.ToUpper(strings.TrimSpace(s)))
	if slices.Contains(Positions(), p) {
		return p, true
	}
	return "", false
}

// Valid reports whether p is one of the four known positions.
func (p Position) Valid() bool {
	_, ok := ParsePosition(string(p))
	return ok
}

func (p Position) String() string {
	switch p {
	case PositionExterior:
		return "exterior"
	case PositionInterior:
		return "interior"
	case PositionDetails:
		return "details"
	case PositionVideo:
		return "video"
	default:
		return "unknown"
	}
}

// IssueCode identifies one quality issue.
type IssueCode string

const (
	IssueQualityGood IssueCode = "quality_good"

	// Exterior issues.
	IssueSunReflections         IssueCode = "sun_reflections"
	IssueAngle                  IssueCode = "angle"
	IssueBlurred                IssueCode = "blurred"
	IssuePlatePositioning       IssueCode = "plate_positioning"
	IssuePositioningPlatform360 IssueCode = "positioning_platform_360"
	IssueImageNotProcessed      IssueCode = "image_not_processed"
	IssueSegmentation           IssueCode = "segmentation"
	IssueExteriorLight          IssueCode = "exterior_light"
	IssueEmbarrassingObject     IssueCode = "embarrassing_object"
	IssueMode3In1               IssueCode = "mode_3_in_1"
	IssueWrongPosition          IssueCode = "wrong_position"

	// Interior issues.
	IssueSunReflexion            IssueCode = "sun_reflexion"
	IssuePhotographersReflection IssueCode = "photographers_reflection"
	IssueWrongAngle              IssueCode = "wrong_angle"
	IssueImageTooDark            IssueCode = "image_too_dark"

	// Protocol issues apply to every position.
	IssueIncorrectProtocolCi      IssueCode = "incorrect_protocol_ci"
	IssueTextInputSpecificProblem IssueCode = "text_input_specific_problem"
)

// VerdictStatus is the review outcome of an item (or, aggregated, of a vehicle).
type VerdictStatus string

const (
	StatusUnchecked         VerdictStatus = "UNCHECKED"
	StatusInProgress        VerdictStatus = "IN_PROGRESS"
	StatusChecked           VerdictStatus = "CHECKED"
	StatusCheckedWithErrors VerdictStatus = "CHECKED_WITH_ERRORS"
)

// ParseStatus converts a wire value to a VerdictStatus.
func ParseStatus(s string) (VerdictStatus, bool) {
	switch v := VerdictStatus(strings.ToUpper(strings.TrimSpace(s))); v {
	case StatusUnchecked, StatusInProgress, StatusChecked, StatusCheckedWithErrors:
		return v, true
	}
	return "", false
}

func (s VerdictStatus) String() string {
	switch s {
	case StatusUnchecked:
		return "unchecked"
	case StatusInProgress:
		return "in progress"
	case StatusChecked:
		return "checked"
	case StatusCheckedWithErrors:
		return "checked with errors"
	default:
		return "unknown"
	}
}

// DeriveStatus computes the status implied by a verdict. IN_PROGRESS is never
// derived here; it only exists on the server side.
func DeriveStatus(isQualityGood bool, issues []IssueCode) VerdictStatus {
	switch {
	case isQualityGood:
		return StatusChecked
	case len(issues) > 0:
		return StatusCheckedWithErrors
	default:
		return StatusUnchecked
	}
}

// QualityCheck is the persisted verdict of one content item.
type QualityCheck struct {
	IsQualityGood bool          `json:"isQualityGood" yaml:"isQualityGood"`
	Issues        []IssueCode   `json:"issues" yaml:"issues"`
	Comments      string        `json:"comments,omitempty" yaml:"comments,omitempty"`
	Status        VerdictStatus `json:"status,omitempty" yaml:"status,omitempty"`
}

// Equal reports whether two verdicts carry the same outcome. Issue order is
// not significant.
func (q *QualityCheck) Equal(o *QualityCheck) bool {
	if q == nil || o == nil {
		return q == o
	}
	if q.IsQualityGood != o.IsQualityGood || q.Comments != o.Comments {
		return false
	}
	a, b := sortedIssues(q.Issues), sortedIssues(o.Issues)
	return slices.Equal(a, b)
}

func sortedIssues(in []IssueCode) []IssueCode {
	out := slices.Clone(in)
	slices.Sort(out)
	return out
}

// ContentItem is one reviewable photo or video of a vehicle.
type ContentItem struct {
	ID           string        `json:"id" yaml:"id"`
	VehicleID    string        `json:"vehicleId" yaml:"vehicleId"`
	Position     Position      `json:"position" yaml:"position"`
	SortOrder    int           `json:"sortOrder" yaml:"sortOrder"`
	URI          string        `json:"uri,omitempty" yaml:"uri,omitempty"`
	QualityCheck *QualityCheck `json:"qualityCheck,omitempty" yaml:"qualityCheck,omitempty"`
}

// Status returns the item's persisted status, UNCHECKED when no verdict exists.
func (c ContentItem) Status() VerdictStatus {
	if c.QualityCheck == nil {
		return StatusUnchecked
	}
	return DeriveStatus(c.QualityCheck.IsQualityGood, c.QualityCheck.Issues)
}

// Vehicle holds the vehicle fields the review workflow reads or writes.
type Vehicle struct {
	ID                 string        `json:"id" yaml:"id"`
	VIN                string        `json:"vin" yaml:"vin"`
	Make               string        `json:"make,omitempty" yaml:"make,omitempty"`
	Model              string        `json:"model,omitempty" yaml:"model,omitempty"`
	ModelYear          int           `json:"modelYear,omitempty" yaml:"modelYear,omitempty"`
	CreatedAt          time.Time     `json:"createdAt" yaml:"createdAt"`
	ReviewerUserID     *string       `json:"reviewerUserId" yaml:"reviewerUserId,omitempty"`
	QualityCheckStatus VerdictStatus `json:"qualityCheckStatus" yaml:"-"`
}

// Reviewer returns the reviewer id, or "" when the vehicle is unassigned.
func (v Vehicle) Reviewer() string {
	if v.ReviewerUserID == nil {
		return ""
	}
	return *v.ReviewerUserID
}

// Title returns a short human description of the vehicle.
func (v Vehicle) Title() string {
	var parts []string
	for _, s := range []string{v.Make, v.Model} {
		if s != "" {
			parts = append(parts, s)
		}
	}
	if len(parts) == 0 {
		return v.VIN
	}
	return v.VIN + " (" + strings.Join(parts, " ") + ")"
}

// VehicleDetail is the result of the vehicle detail read.
type VehicleDetail struct {
	Vehicle      Vehicle       `json:"vehicle"`
	ContentItems []ContentItem `json:"contentItems"`
}

// Item returns the content item with the given id.
func (d *VehicleDetail) Item(id string) (ContentItem, bool) {
	for _, it := range d.ContentItems {
		if it.ID == id {
			return it, true
		}
	}
	return ContentItem{}, false
}

// AggregateStatus derives the vehicle-level status from its reviewer and items.
func AggregateStatus(v Vehicle, items []ContentItem) VerdictStatus {
	if v.Reviewer() == "" {
		return StatusUnchecked
	}
	if len(items) == 0 {
		return StatusInProgress
	}
	withErrors := false
	for _, it := range items {
		switch it.Status() {
		case StatusUnchecked:
			return StatusInProgress
		case StatusCheckedWithErrors:
			withErrors = true
		}
	}
	if withErrors {
		return StatusCheckedWithErrors
	}
	return StatusChecked
}

// QualityCheckInput is the payload of the save verdict write.
type QualityCheckInput struct {
	VehicleID      string        `json:"vehicleId"`
	VehicleImageID string        `json:"vehicleImageId"`
	IsQualityGood  bool          `json:"isQualityGood"`
	Issues         []IssueCode   `json:"issues"`
	Comment        string        `json:"comment"`
	Status         VerdictStatus `json:"status"`
}

// Verdict returns the verdict carried by the input.
func (in QualityCheckInput) Verdict() *QualityCheck {
	return &QualityCheck{
		IsQualityGood: in.IsQualityGood,
		Issues:        slices.Clone(in.Issues),
		Comments:      in.Comment,
		Status:        in.Status,
	}
}

// AssignInput is the payload of the reviewer assignment write.
type AssignInput struct {
	VehicleID string `json:"vehicleId"`
	UserID    string `json:"userId"`
}

// ImageTypeInput is the payload of the content type change write.
type ImageTypeInput struct {
	VehicleID      string   `json:"vehicleId"`
	VehicleImageID string   `json:"vehicleImageId"`
	Type           Position `json:"type"`
}

// VehicleFilter narrows the quality checker vehicle list.
type VehicleFilter struct {
	Status         VerdictStatus
	ReviewerUserID string
	VIN            string
	PageIndex      int
	PageSize       int
}

// VehicleSummary is one row of the quality checker vehicle list.
type VehicleSummary struct {
	Vehicle     Vehicle          `json:"vehicle"`
	ImageCounts map[Position]int `json:"imageCounts"`
	Checked     int              `json:"checked"`
	WithErrors  int              `json:"withErrors"`
	Unchecked   int              `json:"unchecked"`
}

// Summarize builds the list row for a vehicle detail.
func Summarize(d VehicleDetail) VehicleSummary {
	s := VehicleSummary{
		Vehicle:     d.Vehicle,
		ImageCounts: make(map[Position]int),
	}
	for _, it := range d.ContentItems {
		s.ImageCounts[it.Position]++
		switch it.Status() {
		case StatusChecked:
			s.Checked++
		case StatusCheckedWithErrors:
			s.WithErrors++
		default:
			s.Unchecked++
		}
	}
	return s
}

// VehiclePage is one page of the quality checker vehicle list.
type VehiclePage struct {
	Count int              `json:"count"`
	Items []VehicleSummary `json:"items"`
}
