package http

import (
	"net/http"

	"github.com/fjod/go_cart/menu/internal/service"
)

type CheckoutHandler struct {
	terminals TerminalProvider
}

func NewCheckoutHandler(terminals TerminalProvider) *CheckoutHandler {
	return &CheckoutHandler{terminals: terminals}
}

// Checkout submits the terminal's cart. The request timeout does not apply
// to the submission itself, which runs to completion on its own deadline.
func (h *CheckoutHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	var req CheckoutRequestDTO
	if r.ContentLength != 0 {
		if !decodeJSON(w, r, &req) {
			return
		}
	}

	term, ok := terminalFor(w, r, h.terminals)
	if !ok {
		return
	}

	res, err := term.Checkout.Checkout(r.Context(), service.CustomerInfo{
		Name:    req.CustomerName,
		TableID: req.TableID,
		Notes:   req.Notes,
	})
	if err != nil {
		respondServiceError(w, r, err)
		return
	}

	respondJSON(w, r, http.StatusCreated, CheckoutResponse{
		OrderID:   res.OrderID,
		TableID:   res.TableID,
		Total:     Money(res.Total),
		ItemCount: res.ItemCount,
		Status:    res.Status.String(),
	})
}

func (h *CheckoutHandler) Status(w http.ResponseWriter, r *http.Request) {
	term, ok := terminalFor(w, r, h.terminals)
	if !ok {
		return
	}
	respondJSON(w, r, http.StatusOK, CheckoutStatusResponse{
		TerminalID: term.ID,
		Status:     term.Checkout.Status().String(),
	})
}
