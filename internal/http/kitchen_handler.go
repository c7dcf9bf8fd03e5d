package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/fjod/go_cart/menu/internal/domain"
	"github.com/fjod/go_cart/menu/internal/kitchen"
	"github.com/go-chi/chi/v5"
)

// Kitchen is the in-process kitchen behind the /kitchen routes.
type Kitchen interface {
	SubmitOrder(ctx context.Context, req domain.CheckoutRequest) (domain.SubmissionResult, error)
	ListOrders(ctx context.Context, tableID string) ([]*domain.Order, error)
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	AdvanceStatus(ctx context.Context, id string, to domain.OrderStatus) (*domain.Order, error)
}

type KitchenHandler struct {
	kitchen Kitchen
	timeout time.Duration
}

func NewKitchenHandler(k Kitchen, timeout time.Duration) *KitchenHandler {
	return &KitchenHandler{kitchen: k, timeout: timeout}
}

// SubmitOrder is the endpoint kitchen.Client talks to. Rejections answer 422
// with the reason so the caller can show it.
func (h *KitchenHandler) SubmitOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r, h.timeout)
	defer cancel()

	var req domain.CheckoutRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = strings.TrimSpace(r.Header.Get("Idempotency-Key"))
	}

	res, err := h.kitchen.SubmitOrder(ctx, req)
	if err != nil {
		respondInternal(w, r, err)
		return
	}

	body := kitchen.SubmissionResponse{Accepted: res.Accepted, OrderID: res.OrderID, Reason: res.Reason}
	if !res.Accepted {
		respondJSON(w, r, http.StatusUnprocessableEntity, body)
		return
	}
	respondJSON(w, r, http.StatusCreated, body)
}

func (h *KitchenHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r, h.timeout)
	defer cancel()

	orders, err := h.kitchen.ListOrders(ctx, r.URL.Query().Get("table_id"))
	if err != nil {
		respondInternal(w, r, err)
		return
	}

	resp := OrdersResponse{Orders: make([]OrderResponse, 0, len(orders))}
	for _, o := range orders {
		resp.Orders = append(resp.Orders, toOrderResponse(o))
	}
	respondJSON(w, r, http.StatusOK, resp)
}

func (h *KitchenHandler) GetOrder(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r, h.timeout)
	defer cancel()

	order, err := h.kitchen.GetOrder(ctx, chi.URLParam(r, "order_id"))
	if err != nil {
		respondKitchenError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, toOrderResponse(order))
}

func (h *KitchenHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r, h.timeout)
	defer cancel()

	var req UpdateOrderStatusRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	status := domain.OrderStatus(strings.ToLower(strings.TrimSpace(req.Status)))
	if !status.Valid() {
		respondError(w, r, http.StatusBadRequest, "invalid_status", "status must be preparing, ready or delivered")
		return
	}

	order, err := h.kitchen.AdvanceStatus(ctx, chi.URLParam(r, "order_id"), status)
	if err != nil {
		respondKitchenError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, toOrderResponse(order))
}

func respondKitchenError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, kitchen.ErrOrderNotFound):
		respondError(w, r, http.StatusNotFound, "order_not_found", "order not found")
	case errors.Is(err, kitchen.ErrIllegalTransition):
		respondError(w, r, http.StatusConflict, "illegal_transition", err.Error())
	default:
		respondInternal(w, r, err)
	}
}
