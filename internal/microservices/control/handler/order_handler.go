package handler

import (
	"errors"
	"net/http"

	"robot-pick-system/internal/domain"
	"robot-pick-system/internal/microservices/control/service"
)

type OrderHandler struct {
	service service.RobotServiceInterface
}

func NewOrderHandler(s service.RobotServiceInterface) *OrderHandler {
	return &OrderHandler{service: s}
}

func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateOrderRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid_json", "Invalid JSON body")
		return
	}
	counts, err := req.Counts()
	if err != nil {
		writeProblem(w, http.StatusBadRequest, "invalid_order", err.Error())
		return
	}
	writeJSON(w, http.StatusCreated, h.service.CreateOrder(r.Context(), counts))
}

func (h *OrderHandler) ListOrders(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, h.service.ListOrders())
}

func (h *OrderHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	o, err := h.service.GetOrder(r.PathValue("order_id"))
	if err != nil {
		h.orderError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, o)
}

func (h *OrderHandler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	if err := h.service.DeleteOrder(r.Context(), r.PathValue("order_id")); err != nil {
		h.orderError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, domain.MessageResponse{Message: "Order deleted"})
}

func (h *OrderHandler) orderError(w http.ResponseWriter, err error) {
	if errors.Is(err, domain.ErrOrderNotFound) {
		writeProblem(w, http.StatusNotFound, "not_found", "Order not found")
		return
	}
	writeProblem(w, http.StatusInternalServerError, "internal", err.Error())
}
