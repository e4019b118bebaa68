package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/eadshop/ecommerce-services/internal/order"
	"github.com/go-chi/chi/v5"
	"github.com/gofrs/uuid"
)

// OrderHandler handles HTTP requests for orders.
type OrderHandler struct {
	svc order.Service
}

func NewOrderHandler(svc order.Service) *OrderHandler {
	return &OrderHandler{svc: svc}
}

type placeOrderRequest struct {
	UserID uuid.UUID       `json:"user_id"`
	Items  []order.RawItem `json:"items"`
}

// statusUpdateRequest is the full set of fields an administrative update may
// change. Unknown fields in the body are rejected outright rather than
// silently dropped.
type statusUpdateRequest struct {
	Status string `json:"status"`
}

// PlaceOrder handles the creation of a new order.
func (h *OrderHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	var req placeOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	o, err := h.svc.PlaceOrder(r.Context(), req.UserID, req.Items)
	if err != nil {
		respondWithError(w, mapOrderErrorToStatusCode(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusCreated, o)
}

// GetOrderByID handles retrieving an order by its ID.
func (h *OrderHandler) GetOrderByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	o, err := h.svc.GetOrderByID(r.Context(), id)
	if err != nil {
		respondWithError(w, mapOrderErrorToStatusCode(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, o)
}

// ListOrders returns all orders, newest first.
func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.svc.ListOrders(r.Context())
	if err != nil {
		respondWithError(w, mapOrderErrorToStatusCode(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, orders)
}

// GetUserOrders returns the order history for one user.
func (h *OrderHandler) GetUserOrders(w http.ResponseWriter, r *http.Request) {
	userID, ok := parseUUIDParam(w, r, "userId")
	if !ok {
		return
	}

	orders, err := h.svc.GetOrdersByUserID(r.Context(), userID)
	if err != nil {
		respondWithError(w, mapOrderErrorToStatusCode(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, orders)
}

// UpdateOrderStatus applies one lifecycle transition to an order.
func (h *OrderHandler) UpdateOrderStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	var req statusUpdateRequest
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	o, err := h.svc.UpdateOrderStatus(r.Context(), id, req.Status)
	if err != nil {
		respondWithError(w, mapOrderErrorToStatusCode(err), err.Error())
		return
	}

	respondWithJSON(w, http.StatusOK, o)
}

// DeleteOrder removes an order and its items.
func (h *OrderHandler) DeleteOrder(w http.ResponseWriter, r *http.Request) {
	id, ok := parseUUIDParam(w, r, "id")
	if !ok {
		return
	}

	if err := h.svc.DeleteOrder(r.Context(), id); err != nil {
		respondWithError(w, mapOrderErrorToStatusCode(err), err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func parseUUIDParam(w http.ResponseWriter, r *http.Request, name string) (uuid.UUID, bool) {
	raw := chi.URLParam(r, name)
	if raw == "" {
		respondWithError(w, http.StatusBadRequest, name+" is required")
		return uuid.Nil, false
	}
	id, err := uuid.FromString(raw)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid "+name)
		return uuid.Nil, false
	}
	return id, true
}

func mapOrderErrorToStatusCode(err error) int {
	var validationErr *order.ValidationError
	var transitionErr *order.InvalidTransitionError
	switch {
	case errors.As(err, &validationErr):
		return http.StatusBadRequest
	case errors.Is(err, order.ErrOrderNotFound):
		return http.StatusNotFound
	case errors.As(err, &transitionErr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, order.ErrVersionConflict), errors.Is(err, order.ErrDuplicateOrderNumber):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
