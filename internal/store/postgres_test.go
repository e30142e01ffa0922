package store

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/sprite-ai/qcreview/internal/backend"
	"github.com/sprite-ai/qcreview/internal/model"
)

// Set QCREVIEW_TEST_DATABASE_URL to run these against a real database.
func testPostgres(t *testing.T) *PostgresStore {
	t.Helper()
	dsn := os.Getenv("QCREVIEW_TEST_DATABASE_URL")
	if dsn == "" {
		t.Skip("QCREVIEW_TEST_DATABASE_URL not set")
	}
	ctx := context.Background()
	pool, err := Connect(ctx, dsn)
	if err != nil {
		t.Fatalf("connect: %v", err)
	}
	t.Cleanup(pool.Close)
	if err := EnsureSchema(ctx, pool); err != nil {
		t.Fatal(err)
	}
	return NewPostgresStore(pool)
}

func TestPostgresRoundTrip(t *testing.T) {
	s := testPostgres(t)
	ctx := context.Background()

	vid := uuid.NewString()
	d := model.VehicleDetail{
		Vehicle: model.Vehicle{ID: vid, VIN: "PG" + vid[:8], CreatedAt: time.Now().UTC()},
		ContentItems: []model.ContentItem{
			{ID: uuid.NewString(), Position: model.PositionExterior, SortOrder: 1},
			{ID: uuid.NewString(), Position: model.PositionInterior, SortOrder: 2},
		},
	}
	if err := s.Put(ctx, d); err != nil {
		t.Fatal(err)
	}

	got, err := s.GetVehicleDetail(ctx, vid)
	if err != nil {
		t.Fatal(err)
	}
	if got.Vehicle.QualityCheckStatus != model.StatusUnchecked || len(got.ContentItems) != 2 {
		t.Fatalf("unexpected detail %+v", got)
	}

	if err := s.AssignQualityCheckUser(ctx, model.AssignInput{VehicleID: vid, UserID: "u1"}); err != nil {
		t.Fatal(err)
	}
	itemID := d.ContentItems[1].ID
	in := model.QualityCheckInput{
		VehicleID: vid, VehicleImageID: itemID,
		Issues: []model.IssueCode{model.IssueWrongAngle}, Comment: "tilted",
		Status: model.StatusCheckedWithErrors,
	}
	if err := s.SaveQualityCheck(ctx, in); err != nil {
		t.Fatal(err)
	}
	if err := s.UpdateVehicleImageType(ctx, model.ImageTypeInput{VehicleID: vid, VehicleImageID: itemID, Type: model.PositionDetails}); err != nil {
		t.Fatal(err)
	}

	got, err = s.GetVehicleDetail(ctx, vid)
	if err != nil {
		t.Fatal(err)
	}
	it, _ := got.Item(itemID)
	if it.Position != model.PositionDetails || it.QualityCheck == nil || it.QualityCheck.Comments != "tilted" {
		t.Errorf("unexpected item %+v", it)
	}
	if got.Vehicle.QualityCheckStatus != model.StatusInProgress {
		t.Errorf("expected IN_PROGRESS, got %s", got.Vehicle.QualityCheckStatus)
	}

	page, err := s.ListQualityCheckerVehicles(ctx, model.VehicleFilter{VIN: d.Vehicle.VIN})
	if err != nil {
		t.Fatal(err)
	}
	if page.Count != 1 || page.Items[0].WithErrors != 1 {
		t.Errorf("unexpected page %+v", page)
	}

	if _, err := s.GetVehicleDetail(ctx, uuid.NewString()); !errors.Is(err, backend.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPostgresItemIDsScopedToVehicle(t *testing.T) {
	s := testPostgres(t)
	ctx := context.Background()

	shared := "img-" + uuid.NewString()[:8]
	var ids []string
	for range 2 {
		vid := uuid.NewString()
		ids = append(ids, vid)
		d := model.VehicleDetail{
			Vehicle:      model.Vehicle{ID: vid, VIN: "PG" + vid[:8], CreatedAt: time.Now().UTC()},
			ContentItems: []model.ContentItem{{ID: shared, Position: model.PositionExterior, SortOrder: 1}},
		}
		if err := s.Put(ctx, d); err != nil {
			t.Fatalf("put %s: %v", vid, err)
		}
	}

	in := model.QualityCheckInput{VehicleID: ids[0], VehicleImageID: shared, IsQualityGood: true,
		Issues: []model.IssueCode{}, Status: model.StatusChecked}
	if err := s.SaveQualityCheck(ctx, in); err != nil {
		t.Fatal(err)
	}
	other, err := s.GetVehicleDetail(ctx, ids[1])
	if err != nil {
		t.Fatal(err)
	}
	if it, _ := other.Item(shared); it.QualityCheck != nil {
		t.Errorf("a save on one vehicle must not touch another, got %+v", it.QualityCheck)
	}
}

func TestPostgresReseedKeepsVerdicts(t *testing.T) {
	s := testPostgres(t)
	ctx := context.Background()

	vid := uuid.NewString()
	itemID := uuid.NewString()
	seed := []model.VehicleDetail{{
		Vehicle:      model.Vehicle{ID: vid, VIN: "PG" + vid[:8], CreatedAt: time.Now().UTC()},
		ContentItems: []model.ContentItem{{ID: itemID, Position: model.PositionExterior, SortOrder: 1}},
	}}
	if err := LoadInto(ctx, s, seed); err != nil {
		t.Fatal(err)
	}
	if err := s.AssignQualityCheckUser(ctx, model.AssignInput{VehicleID: vid, UserID: "u1"}); err != nil {
		t.Fatal(err)
	}
	in := model.QualityCheckInput{VehicleID: vid, VehicleImageID: itemID,
		Issues: []model.IssueCode{model.IssueBlurred}, Status: model.StatusCheckedWithErrors}
	if err := s.SaveQualityCheck(ctx, in); err != nil {
		t.Fatal(err)
	}

	if err := LoadInto(ctx, s, seed); err != nil {
		t.Fatal(err)
	}
	got, err := s.GetVehicleDetail(ctx, vid)
	if err != nil {
		t.Fatal(err)
	}
	if got.Vehicle.Reviewer() != "u1" {
		t.Errorf("re-seed must keep the reviewer, got %q", got.Vehicle.Reviewer())
	}
	if it, _ := got.Item(itemID); it.Status() != model.StatusCheckedWithErrors {
		t.Errorf("re-seed must keep the saved verdict, got %+v", it.QualityCheck)
	}
}
