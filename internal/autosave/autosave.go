// Package autosave turns review state transitions into remote verdict
// writes.
package autosave

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/sprite-ai/qcreview/internal/backend"
	"github.com/sprite-ai/qcreview/internal/model"
)

// Trigger is the user event that produced a write.
type Trigger int

const (
	// TriggerEdit is a checkbox toggle.
	TriggerEdit Trigger = iota
	// TriggerBlur is the notes field losing focus.
	TriggerBlur
)

func (t Trigger) String() string {
	if t == TriggerBlur {
		return "blur"
	}
	return "edit"
}

// Tracker remembers the last verdict captured for each item. It is not safe
// for concurrent use; it lives on the event loop with the session.
type Tracker struct {
	last map[string]*model.QualityCheck
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{last: make(map[string]*model.QualityCheck)}
}

// Seed records the server-known verdict of an item as its baseline.
func (t *Tracker) Seed(itemID string, qc *model.QualityCheck) {
	if qc == nil {
		qc = &model.QualityCheck{}
	}
	t.last[itemID] = qc
}

// Capture decides whether an event produces a write. Edits always do. A
// blur only does when the verdict differs from the last one captured or
// seeded for the item.
func (t *Tracker) Capture(trigger Trigger, in model.QualityCheckInput) (model.QualityCheckInput, bool) {
	v := in.Verdict()
	if trigger == TriggerBlur {
		if prev, ok := t.last[in.VehicleImageID]; ok && prev.Equal(v) {
			return in, false
		}
	}
	t.last[in.VehicleImageID] = v
	return in, true
}

// Notice is a user-facing notification about a write.
type Notice struct {
	Error   bool
	Message string
}

// Result is the outcome of one save.
type Result struct {
	Request model.QualityCheckInput
	// Detail is the refetched vehicle detail, nil if the save or the
	// refetch failed.
	Detail *model.VehicleDetail
	Err    error
	Notice Notice
}

// Persister performs verdict writes. It is safe for concurrent use.
type Persister struct {
	backend backend.Backend
	logger  *slog.Logger
}

// NewPersister creates a persister. A nil logger discards logs.
func NewPersister(b backend.Backend, logger *slog.Logger) *Persister {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Persister{backend: b, logger: logger}
}

// Save writes the verdict and refetches the vehicle detail. The last write
// wins; no version is checked. A failed write is only reported.
func (p *Persister) Save(ctx context.Context, in model.QualityCheckInput) Result {
	res := Result{Request: in}

	if err := p.backend.SaveQualityCheck(ctx, in); err != nil {
		p.logger.Warn("save quality check failed",
			"vehicle", in.VehicleID, "item", in.VehicleImageID, "err", err)
		res.Err = err
		res.Notice = Notice{Error: true, Message: fmt.Sprintf("Could not save verdict: %v", err)}
		return res
	}
	p.logger.Info("quality check saved",
		"vehicle", in.VehicleID, "item", in.VehicleImageID, "status", in.Status)

	res.Notice = Notice{Message: "Quality check saved"}
	res.Detail = p.refetch(ctx, in.VehicleID, &res)
	return res
}

func (p *Persister) refetch(ctx context.Context, vehicleID string, res *Result) *model.VehicleDetail {
	d, err := p.backend.GetVehicleDetail(ctx, vehicleID)
	if err != nil {
		p.logger.Warn("refetch after save failed", "vehicle", vehicleID, "err", err)
		res.Notice = Notice{Error: true, Message: fmt.Sprintf("Saved, but refresh failed: %v", err)}
		return nil
	}
	return d
}
