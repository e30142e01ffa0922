package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/sprite-ai/qcreview/internal/backend"
	"github.com/sprite-ai/qcreview/internal/events"
	"github.com/sprite-ai/qcreview/internal/model"
)

// --- Health ---

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// --- Vehicles ---

func (s *Server) handleListVehicles(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := model.VehicleFilter{
		ReviewerUserID: q.Get("reviewer"),
		VIN:            q.Get("vin"),
	}
	if v := q.Get("status"); v != "" {
		st, ok := model.ParseStatus(v)
		if !ok {
			writeError(w, http.StatusBadRequest, "unknown status: "+v)
			return
		}
		f.Status = st
	}
	var err error
	if f.PageIndex, err = intParam(q.Get("page")); err != nil {
		writeError(w, http.StatusBadRequest, "invalid page: "+err.Error())
		return
	}
	if f.PageSize, err = intParam(q.Get("size")); err != nil {
		writeError(w, http.StatusBadRequest, "invalid size: "+err.Error())
		return
	}

	page, err := s.backend.ListQualityCheckerVehicles(r.Context(), f)
	if err != nil {
		s.writeBackendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

func (s *Server) handleGetVehicle(w http.ResponseWriter, r *http.Request) {
	d, err := s.backend.GetVehicleDetail(r.Context(), r.PathValue("id"))
	if err != nil {
		s.writeBackendError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, d)
}

// --- Writes ---

type writeResult struct {
	OK        bool   `json:"ok"`
	VehicleID string `json:"vehicleId"`
}

func (s *Server) handleSaveQualityCheck(w http.ResponseWriter, r *http.Request) {
	var in model.QualityCheckInput
	if err := readJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	if err := s.backend.SaveQualityCheck(r.Context(), in); err != nil {
		s.writeBackendError(w, err)
		return
	}
	s.metrics.saves.WithLabelValues(string(in.Status)).Inc()
	s.publish(r.Context(), events.VehicleChanged{VehicleID: in.VehicleID, ItemID: in.VehicleImageID, Kind: events.KindQualityCheck})
	writeAck(w, in.VehicleID)
}

func (s *Server) handleAssign(w http.ResponseWriter, r *http.Request) {
	var in model.AssignInput
	if err := readJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	if err := s.backend.AssignQualityCheckUser(r.Context(), in); err != nil {
		s.writeBackendError(w, err)
		return
	}
	s.logger.Info("vehicle assigned", "vehicle", in.VehicleID, "user", in.UserID)
	s.publish(r.Context(), events.VehicleChanged{VehicleID: in.VehicleID, Kind: events.KindAssignment, UserID: in.UserID})
	writeAck(w, in.VehicleID)
}

func (s *Server) handleImageType(w http.ResponseWriter, r *http.Request) {
	var in model.ImageTypeInput
	if err := readJSON(r, &in); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request: "+err.Error())
		return
	}
	if err := s.backend.UpdateVehicleImageType(r.Context(), in); err != nil {
		s.writeBackendError(w, err)
		return
	}
	s.publish(r.Context(), events.VehicleChanged{VehicleID: in.VehicleID, ItemID: in.VehicleImageID, Kind: events.KindImageType})
	writeAck(w, in.VehicleID)
}

// writeAck acknowledges a write. Callers refetch the vehicle detail
// themselves.
func writeAck(w http.ResponseWriter, vehicleID string) {
	writeJSON(w, http.StatusOK, writeResult{OK: true, VehicleID: vehicleID})
}

func (s *Server) writeBackendError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, backend.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, backend.ErrInvalid):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		s.logger.Error("backend error", "err", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

func intParam(v string) (int, error) {
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, errors.New("must not be negative")
	}
	return n, nil
}
