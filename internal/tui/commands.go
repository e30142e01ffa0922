package tui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/sprite-ai/qcreview/internal/autosave"
	"github.com/sprite-ai/qcreview/internal/backend"
	"github.com/sprite-ai/qcreview/internal/model"
)

// Messages delivered back to the event loop when a network call completes.
type (
	detailMsg struct {
		detail *model.VehicleDetail
		err    error
	}

	assignedMsg struct {
		detail     *model.VehicleDetail
		err        error
		refreshErr error
	}

	savedMsg struct {
		res autosave.Result
	}

	typeChangedMsg struct {
		in         model.ImageTypeInput
		detail     *model.VehicleDetail
		err        error
		refreshErr error
	}
)

func loadCmd(ctx context.Context, b backend.Backend, vehicleID string) tea.Cmd {
	return func() tea.Msg {
		d, err := b.GetVehicleDetail(ctx, vehicleID)
		return detailMsg{detail: d, err: err}
	}
}

func assignCmd(ctx context.Context, b backend.Backend, in model.AssignInput) tea.Cmd {
	return func() tea.Msg {
		if err := b.AssignQualityCheckUser(ctx, in); err != nil {
			return assignedMsg{err: err}
		}
		d, err := b.GetVehicleDetail(ctx, in.VehicleID)
		return assignedMsg{detail: d, refreshErr: err}
	}
}

func saveCmd(ctx context.Context, p *autosave.Persister, in model.QualityCheckInput) tea.Cmd {
	return func() tea.Msg {
		return savedMsg{res: p.Save(ctx, in)}
	}
}

func contentTypeCmd(ctx context.Context, b backend.Backend, in model.ImageTypeInput) tea.Cmd {
	return func() tea.Msg {
		if err := b.UpdateVehicleImageType(ctx, in); err != nil {
			return typeChangedMsg{in: in, err: err}
		}
		d, err := b.GetVehicleDetail(ctx, in.VehicleID)
		return typeChangedMsg{in: in, detail: d, refreshErr: err}
	}
}
