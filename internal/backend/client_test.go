package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sprite-ai/qcreview/internal/model"
)

func newTestClient(t *testing.T, mux *http.ServeMux) *Client {
	t.Helper()
	ts := httptest.NewServer(mux)
	t.Cleanup(ts.Close)
	return NewClient(ts.URL+"/", 5*time.Second)
}

func TestClientGetVehicleDetail(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/vehicles/{id}", func(w http.ResponseWriter, r *http.Request) {
		if r.PathValue("id") != "v1" {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "vehicle not found"})
			return
		}
		json.NewEncoder(w).Encode(model.VehicleDetail{
			Vehicle:      model.Vehicle{ID: "v1", VIN: "WVW123"},
			ContentItems: []model.ContentItem{{ID: "img1", Position: model.PositionExterior}},
		})
	})
	c := newTestClient(t, mux)

	d, err := c.GetVehicleDetail(context.Background(), "v1")
	if err != nil {
		t.Fatalf("GetVehicleDetail: %v", err)
	}
	if d.Vehicle.VIN != "WVW123" || len(d.ContentItems) != 1 {
		t.Errorf("unexpected detail %+v", d)
	}

	_, err = c.GetVehicleDetail(context.Background(), "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestClientSaveQualityCheck(t *testing.T) {
	var got model.QualityCheckInput
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/quality-checks", func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode: %v", err)
		}
		if got.IsQualityGood && len(got.Issues) > 0 {
			w.WriteHeader(http.StatusBadRequest)
			json.NewEncoder(w).Encode(map[string]string{"error": "quality good excludes issues"})
			return
		}
		json.NewEncoder(w).Encode(map[string]bool{"ok": true})
	})
	c := newTestClient(t, mux)

	in := model.QualityCheckInput{
		VehicleID:      "v1",
		VehicleImageID: "img1",
		IsQualityGood:  true,
		Issues:         []model.IssueCode{},
		Status:         model.StatusChecked,
	}
	if err := c.SaveQualityCheck(context.Background(), in); err != nil {
		t.Fatalf("SaveQualityCheck: %v", err)
	}
	if got.VehicleImageID != "img1" || got.Status != model.StatusChecked {
		t.Errorf("server received %+v", got)
	}

	in.Issues = []model.IssueCode{model.IssueAngle}
	if err := c.SaveQualityCheck(context.Background(), in); !errors.Is(err, ErrInvalid) {
		t.Errorf("expected ErrInvalid, got %v", err)
	}
}

func TestClientListQueryParameters(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/vehicles", func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		if q.Get("status") != "IN_PROGRESS" || q.Get("reviewer") != "u1" || q.Get("size") != "5" {
			t.Errorf("unexpected query %q", r.URL.RawQuery)
		}
		json.NewEncoder(w).Encode(model.VehiclePage{Count: 1, Items: []model.VehicleSummary{{Vehicle: model.Vehicle{ID: "v1"}}}})
	})
	c := newTestClient(t, mux)

	page, err := c.ListQualityCheckerVehicles(context.Background(), model.VehicleFilter{
		Status:         model.StatusInProgress,
		ReviewerUserID: "u1",
		PageSize:       5,
	})
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if page.Count != 1 || page.Items[0].Vehicle.ID != "v1" {
		t.Errorf("unexpected page %+v", page)
	}
}

func TestClientServerError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/assignments", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})
	c := newTestClient(t, mux)

	err := c.AssignQualityCheckUser(context.Background(), model.AssignInput{VehicleID: "v1", UserID: "u1"})
	if err == nil {
		t.Fatal("expected error")
	}
	if errors.Is(err, ErrNotFound) || errors.Is(err, ErrInvalid) {
		t.Errorf("500 must not map to a sentinel: %v", err)
	}
}
