package http

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/fjod/go_cart/menu/internal/catalog"
	"github.com/fjod/go_cart/menu/internal/domain"
	"github.com/go-chi/chi/v5"
)

// ProductCatalog is the read side of the menu.
type ProductCatalog interface {
	ListProducts(ctx context.Context, category string) ([]domain.Product, error)
	GetProduct(ctx context.Context, id string) (domain.Product, error)
	ListTables(ctx context.Context) ([]domain.Table, error)
	TableExists(ctx context.Context, tableID string) (bool, error)
}

type CatalogHandler struct {
	catalog ProductCatalog
	timeout time.Duration
}

func NewCatalogHandler(catalog ProductCatalog, timeout time.Duration) *CatalogHandler {
	return &CatalogHandler{catalog: catalog, timeout: timeout}
}

func (h *CatalogHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r, h.timeout)
	defer cancel()

	products, err := h.catalog.ListProducts(ctx, strings.TrimSpace(r.URL.Query().Get("category")))
	if err != nil {
		respondInternal(w, r, err)
		return
	}

	resp := ProductsResponse{Products: make([]ProductResponse, 0, len(products))}
	for _, p := range products {
		resp.Products = append(resp.Products, toProductResponse(p))
	}
	respondJSON(w, r, http.StatusOK, resp)
}

func (h *CatalogHandler) GetProduct(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r, h.timeout)
	defer cancel()

	p, err := h.catalog.GetProduct(ctx, chi.URLParam(r, "product_id"))
	if err != nil {
		if errors.Is(err, catalog.ErrProductNotFound) {
			respondError(w, r, http.StatusNotFound, "product_not_found", "product not found")
			return
		}
		respondInternal(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, toProductResponse(p))
}

func (h *CatalogHandler) ListTables(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := withTimeout(r, h.timeout)
	defer cancel()

	tables, err := h.catalog.ListTables(ctx)
	if err != nil {
		respondInternal(w, r, err)
		return
	}

	resp := TablesResponse{Tables: make([]TableResponse, 0, len(tables))}
	for _, t := range tables {
		resp.Tables = append(resp.Tables, TableResponse{
			ID:       t.ID,
			Number:   t.Number,
			Capacity: t.Capacity,
			Status:   string(t.Status),
		})
	}
	respondJSON(w, r, http.StatusOK, resp)
}
