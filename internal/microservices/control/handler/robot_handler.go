package handler

import (
	"errors"
	"net/http"

	"robot-pick-system/internal/domain"
	"robot-pick-system/internal/microservices/control/service"
)

type RobotHandler struct {
	service service.RobotServiceInterface
}

func NewRobotHandler(s service.RobotServiceInterface) *RobotHandler {
	return &RobotHandler{service: s}
}

func (h *RobotHandler) Root(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, domain.RootResponse{Status: "Robot Control API is running", Mode: h.service.Mode()})
}

func (h *RobotHandler) Health(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (h *RobotHandler) Status(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.service.Snapshot())
}

// Pick blocks until the pick finishes. A busy robot answers 400 straight
// away with no state change.
func (h *RobotHandler) Pick(w http.ResponseWriter, r *http.Request) {
	var req domain.PickRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid_json", "Invalid JSON body")
		return
	}
	color, err := domain.ParseColor(req.Color)
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid_color", err.Error())
		return
	}

	res, err := h.service.Pick(r.Context(), color, req.OrderID)
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, res)
	case errors.Is(err, domain.ErrRobotBusy):
		writeProblem(w, http.StatusBadRequest, "robot_busy", "Robot is busy")
	case errors.Is(err, domain.ErrModelLoadFailed):
		writeProblem(w, http.StatusInternalServerError, "model_load_failed", err.Error())
	default:
		writeProblem(w, http.StatusInternalServerError, "pick_failed", err.Error())
	}
}

func (h *RobotHandler) Reset(w http.ResponseWriter, r *http.Request) {
	snap, err := h.service.Reset(r.Context())
	if errors.Is(err, domain.ErrRobotBusy) {
		writeProblem(w, http.StatusBadRequest, "robot_busy", "Robot is busy")
		return
	}
	if err != nil {
		writeProblem(w, http.StatusInternalServerError, "internal", err.Error())
		return
	}
	writeJSON(w, http.StatusOK, snap)
}
