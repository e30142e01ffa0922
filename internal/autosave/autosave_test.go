package autosave

import (
	"context"
	"errors"
	"testing"

	"github.com/sprite-ai/qcreview/internal/model"
)

type fakeBackend struct {
	saves    []model.QualityCheckInput
	fetches  int
	saveErr  error
	fetchErr error
}

func (f *fakeBackend) GetVehicleDetail(ctx context.Context, id string) (*model.VehicleDetail, error) {
	f.fetches++
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	return &model.VehicleDetail{Vehicle: model.Vehicle{ID: id}}, nil
}

func (f *fakeBackend) SaveQualityCheck(ctx context.Context, in model.QualityCheckInput) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	f.saves = append(f.saves, in)
	return nil
}

func (f *fakeBackend) AssignQualityCheckUser(ctx context.Context, in model.AssignInput) error {
	return nil
}

func (f *fakeBackend) UpdateVehicleImageType(ctx context.Context, in model.ImageTypeInput) error {
	return nil
}

func (f *fakeBackend) ListQualityCheckerVehicles(ctx context.Context, flt model.VehicleFilter) (*model.VehiclePage, error) {
	return &model.VehiclePage{}, nil
}

func input(item, comment string, issues ...model.IssueCode) model.QualityCheckInput {
	if issues == nil {
		issues = []model.IssueCode{}
	}
	return model.QualityCheckInput{
		VehicleID:      "v1",
		VehicleImageID: item,
		Issues:         issues,
		Comment:        comment,
		Status:         model.DeriveStatus(false, issues),
	}
}

func TestTrackerEditAlwaysWrites(t *testing.T) {
	tr := NewTracker()
	tr.Seed("img1", nil)

	in := input("img1", "")
	if _, ok := tr.Capture(TriggerEdit, in); !ok {
		t.Error("edit must always produce a write")
	}
	if _, ok := tr.Capture(TriggerEdit, in); !ok {
		t.Error("repeated edit must still produce a write")
	}
}

func TestTrackerBlurDeduplicates(t *testing.T) {
	tr := NewTracker()
	tr.Seed("img1", &model.QualityCheck{Comments: "scratch"})

	if _, ok := tr.Capture(TriggerBlur, input("img1", "scratch")); ok {
		t.Error("blur with unchanged notes must not write")
	}
	if _, ok := tr.Capture(TriggerBlur, input("img1", "scratch on door")); !ok {
		t.Error("blur with changed notes must write")
	}
	if _, ok := tr.Capture(TriggerBlur, input("img1", "scratch on door")); ok {
		t.Error("second blur without changes must not write")
	}

	tr.Capture(TriggerEdit, input("img1", "dent", model.IssueAngle))
	if _, ok := tr.Capture(TriggerBlur, input("img1", "dent", model.IssueAngle)); ok {
		t.Error("blur right after an edit that captured the notes must not write")
	}
}

func TestTrackerBlurUnseededItemWrites(t *testing.T) {
	tr := NewTracker()
	if _, ok := tr.Capture(TriggerBlur, input("img9", "note")); !ok {
		t.Error("blur on an item without baseline must write")
	}
}

func TestPersisterSaveRefetches(t *testing.T) {
	fb := &fakeBackend{}
	p := NewPersister(fb, nil)

	res := p.Save(context.Background(), input("img1", "", model.IssueAngle))
	if res.Err != nil {
		t.Fatalf("unexpected error: %v", res.Err)
	}
	if len(fb.saves) != 1 || fb.fetches != 1 {
		t.Errorf("expected 1 save and 1 refetch, got %d/%d", len(fb.saves), fb.fetches)
	}
	if res.Detail == nil || res.Detail.Vehicle.ID != "v1" {
		t.Errorf("expected refetched detail, got %+v", res.Detail)
	}
	if res.Notice.Error || res.Notice.Message == "" {
		t.Errorf("expected success notice, got %+v", res.Notice)
	}
}

func TestPersisterSaveFailure(t *testing.T) {
	fb := &fakeBackend{saveErr: errors.New("network down")}
	p := NewPersister(fb, nil)

	res := p.Save(context.Background(), input("img1", ""))
	if res.Err == nil {
		t.Fatal("expected error")
	}
	if !res.Notice.Error {
		t.Error("expected error notice")
	}
	if fb.fetches != 0 {
		t.Error("failed save must not refetch")
	}
	if res.Detail != nil {
		t.Error("failed save must not return a detail")
	}
}

func TestPersisterRefetchFailure(t *testing.T) {
	fb := &fakeBackend{fetchErr: errors.New("timeout")}
	p := NewPersister(fb, nil)

	res := p.Save(context.Background(), input("img1", ""))
	if res.Err != nil {
		t.Errorf("save succeeded, Err must be nil: %v", res.Err)
	}
	if res.Detail != nil || !res.Notice.Error {
		t.Errorf("expected nil detail and error notice, got %+v", res)
	}
}
