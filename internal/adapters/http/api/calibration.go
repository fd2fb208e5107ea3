package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/okian/gearscan/internal/domain/model"
)

// CalibrationHandler forwards offsets to the running scenes.
type CalibrationHandler struct {
	deps Calibrator
}

// NewCalibrationHandler creates a new calibration handler.
func NewCalibrationHandler(deps Calibrator) *CalibrationHandler {
	return &CalibrationHandler{deps: deps}
}

type calibrationRequest struct {
	X *int `json:"x"`
	Y *int `json:"y"`
}

type calibrationResponse struct {
	Status string       `json:"status"`
	Offset model.Offset `json:"offset"`
}

// HandleCalibrate handles POST /calibration with body {"x":N,"y":M}.
func (h *CalibrationHandler) HandleCalibrate(w http.ResponseWriter, r *http.Request) {
	const op = "api.calibrate"
	if r.Method != http.MethodPost {
		http.NotFound(w, r)
		return
	}
	var req calibrationRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "bad_request", wrapKind(op, ErrBadRequest, err))
		return
	}
	if req.X == nil || req.Y == nil {
		writeError(w, http.StatusBadRequest, "bad_request",
			wrapKind(op, ErrBadRequest, errors.New("x and y are required")))
		return
	}
	offset := model.Offset{X: *req.X, Y: *req.Y}
	if err := h.deps.Calibrate(r.Context(), offset); err != nil {
		if errors.Is(err, ErrNotCalibrating) {
			writeError(w, http.StatusServiceUnavailable, "unavailable", wrap(op, err))
			return
		}
		writeError(w, http.StatusInternalServerError, "internal_error", wrap(op, err))
		return
	}
	writeJSON(w, http.StatusAccepted, calibrationResponse{Status: "accepted", Offset: offset})
}
