// Package backend defines the boundary contracts the review workflow talks
// to, and an HTTP client implementing them.
package backend

import (
	"context"
	"errors"

	"github.com/sprite-ai/qcreview/internal/model"
)

var (
	// ErrNotFound reports a missing vehicle or content item.
	ErrNotFound = errors.New("not found")
	// ErrInvalid reports a write rejected by validation.
	ErrInvalid = errors.New("invalid request")
)

// Backend is the set of reads and writes the workflow depends on. Every
// write is expected to be followed by a GetVehicleDetail refetch.
type Backend interface {
	GetVehicleDetail(ctx context.Context, vehicleID string) (*model.VehicleDetail, error)
	SaveQualityCheck(ctx context.Context, in model.QualityCheckInput) error
	AssignQualityCheckUser(ctx context.Context, in model.AssignInput) error
	UpdateVehicleImageType(ctx context.Context, in model.ImageTypeInput) error
	ListQualityCheckerVehicles(ctx context.Context, f model.VehicleFilter) (*model.VehiclePage, error)
}
