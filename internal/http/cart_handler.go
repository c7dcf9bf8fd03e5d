package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/fjod/go_cart/menu/internal/catalog"
	"github.com/fjod/go_cart/menu/internal/service"
	"github.com/go-chi/chi/v5"
)

const maxLineQuantity = service.DefaultLineQuantity

// TerminalProvider hands out the cart and checkout of a terminal.
type TerminalProvider interface {
	Get(ctx context.Context, id string) (*service.Terminal, error)
}

type CartHandler struct {
	terminals TerminalProvider
	catalog   ProductCatalog
	timeout   time.Duration
}

func NewCartHandler(terminals TerminalProvider, catalog ProductCatalog, timeout time.Duration) *CartHandler {
	return &CartHandler{
		terminals: terminals,
		catalog:   catalog,
		timeout:   timeout,
	}
}

func (h *CartHandler) GetCart(w http.ResponseWriter, r *http.Request) {
	term, ok := terminalFor(w, r, h.terminals)
	if !ok {
		return
	}
	respondJSON(w, r, http.StatusOK, toCartResponse(term.ID, term.Cart.Snapshot()))
}

func (h *CartHandler) Count(w http.ResponseWriter, r *http.Request) {
	term, ok := terminalFor(w, r, h.terminals)
	if !ok {
		return
	}
	respondJSON(w, r, http.StatusOK, map[string]int{"count": term.Cart.ItemCount()})
}

func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r, h.timeout)
	defer cancel()

	var req AddItemRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	req.ProductID = strings.TrimSpace(req.ProductID)
	if req.ProductID == "" {
		respondError(w, r, http.StatusBadRequest, "invalid_product_id", "product_id is required")
		return
	}
	if req.Quantity <= 0 || req.Quantity > maxLineQuantity {
		respondError(w, r, http.StatusBadRequest, "invalid_quantity", "quantity must be between 1 and 99")
		return
	}

	product, err := h.catalog.GetProduct(ctx, req.ProductID)
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			respondError(w, r, http.StatusNotFound, "product_not_found", "product not found")
			return
		}
		respondInternal(w, r, err)
		return
	}
	if !product.Available {
		respondError(w, r, http.StatusUnprocessableEntity, "product_unavailable", "product is not available")
		return
	}

	term, ok := terminalFor(w, r, h.terminals)
	if !ok {
		return
	}
	cart, err := term.Cart.TryAddItem(ctx, product, req.Quantity)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, toCartResponse(term.ID, cart))
}

func (h *CartHandler) UpdateQuantity(w http.ResponseWriter, r *http.Request) {
	productID := chi.URLParam(r, "product_id")

	var req UpdateQuantityRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Quantity > maxLineQuantity {
		respondError(w, r, http.StatusBadRequest, "invalid_quantity", "quantity must be at most 99")
		return
	}

	term, ok := terminalFor(w, r, h.terminals)
	if !ok {
		return
	}
	respondJSON(w, r, http.StatusOK, toCartResponse(term.ID, term.Cart.UpdateQuantity(r.Context(), productID, req.Quantity)))
}

func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	term, ok := terminalFor(w, r, h.terminals)
	if !ok {
		return
	}
	cart := term.Cart.RemoveItem(r.Context(), chi.URLParam(r, "product_id"))
	respondJSON(w, r, http.StatusOK, toCartResponse(term.ID, cart))
}

func (h *CartHandler) ClearCart(w http.ResponseWriter, r *http.Request) {
	term, ok := terminalFor(w, r, h.terminals)
	if !ok {
		return
	}
	respondJSON(w, r, http.StatusOK, toCartResponse(term.ID, term.Cart.Clear(r.Context())))
}

func (h *CartHandler) SetTable(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r, h.timeout)
	defer cancel()

	var req SetTableRequestDTO
	if !decodeJSON(w, r, &req) {
		return
	}
	tableID := strings.TrimSpace(req.TableID)
	if tableID == "" {
		respondServiceError(w, r, service.ErrInvalidTable)
		return
	}

	exists, err := h.catalog.TableExists(ctx, tableID)
	if err != nil {
		respondInternal(w, r, err)
		return
	}
	if !exists {
		respondServiceError(w, r, service.ErrUnknownTable)
		return
	}

	term, ok := terminalFor(w, r, h.terminals)
	if !ok {
		return
	}
	cart, err := term.Cart.SetTable(ctx, tableID)
	if err != nil {
		respondServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, toCartResponse(term.ID, cart))
}

func (h *CartHandler) ClearTable(w http.ResponseWriter, r *http.Request) {
	term, ok := terminalFor(w, r, h.terminals)
	if !ok {
		return
	}
	respondJSON(w, r, http.StatusOK, toCartResponse(term.ID, term.Cart.ClearTable(r.Context())))
}

func terminalFor(w http.ResponseWriter, r *http.Request, terminals TerminalProvider) (*service.Terminal, bool) {
	term, err := terminals.Get(r.Context(), strings.TrimSpace(r.Header.Get(TerminalHeader)))
	if err != nil {
		respondServiceError(w, r, err)
		return nil, false
	}
	return term, true
}

// respondServiceError maps cart and checkout errors to HTTP responses.
func respondServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var subErr *service.SubmissionError
	switch {
	case errors.Is(err, service.ErrInvalidTerminal):
		respondError(w, r, http.StatusBadRequest, "invalid_terminal", "terminal id must be 1-64 letters, digits, '-' or '_'")
	case errors.Is(err, service.ErrTooManyTerminals):
		respondError(w, r, http.StatusServiceUnavailable, "too_many_terminals", "no more terminals can be opened")
	case errors.Is(err, service.ErrQuantityLimit):
		respondError(w, r, http.StatusUnprocessableEntity, "invalid_quantity", "a line can hold at most 99 units")
	case errors.Is(err, service.ErrEmptyCart):
		respondError(w, r, http.StatusUnprocessableEntity, "empty_cart", service.ErrEmptyCart.Error())
	case errors.Is(err, service.ErrMissingTable):
		respondError(w, r, http.StatusUnprocessableEntity, "missing_table", service.ErrMissingTable.Error())
	case errors.Is(err, service.ErrUnknownTable):
		respondError(w, r, http.StatusUnprocessableEntity, "unknown_table", service.ErrUnknownTable.Error())
	case errors.Is(err, service.ErrInvalidTable):
		respondError(w, r, http.StatusUnprocessableEntity, "invalid_table", service.ErrInvalidTable.Error())
	case errors.Is(err, service.ErrCheckoutInProgress):
		respondError(w, r, http.StatusConflict, "checkout_in_progress", service.ErrCheckoutInProgress.Error())
	case errors.As(err, &subErr):
		respondError(w, r, http.StatusBadGateway, "submission_failed", subErr.Reason)
	default:
		respondInternal(w, r, err)
	}
}
