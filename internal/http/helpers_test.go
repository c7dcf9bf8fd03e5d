package http

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/fjod/go_cart/menu/internal/catalog"
	"github.com/fjod/go_cart/menu/internal/domain"
	"github.com/fjod/go_cart/menu/internal/identity"
	"github.com/fjod/go_cart/menu/internal/kitchen"
	"github.com/fjod/go_cart/menu/internal/kv"
	"github.com/fjod/go_cart/menu/internal/repository"
	"github.com/fjod/go_cart/menu/internal/service"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type stubCatalog struct {
	products map[string]domain.Product
	tables   []domain.Table
}

func newStubCatalog() *stubCatalog {
	price := decimal.RequireFromString
	return &stubCatalog{
		products: map[string]domain.Product{
			"1": {ID: "1", Name: "Hambúrguer Artesanal", Price: price("32.90"), Category: "Lanches", Available: true},
			"2": {ID: "2", Name: "Pizza Margherita", Price: price("45.00"), Category: "Pizzas", Available: true},
			"4": {ID: "4", Name: "Coca-Cola 350ml", Price: price("8.50"), Category: "Bebidas", Available: true},
			"9": {ID: "9", Name: "Petit Gâteau", Price: price("22.00"), Category: "Sobremesas", Available: false},
		},
		tables: []domain.Table{
			{ID: "1", Number: 1, Capacity: 4, Status: domain.TableStatusAvailable},
			{ID: "2", Number: 2, Capacity: 2, Status: domain.TableStatusOccupied},
		},
	}
}

func (s *stubCatalog) ListProducts(_ context.Context, category string) ([]domain.Product, error) {
	var out []domain.Product
	for _, id := range []string{"1", "2", "4", "9"} {
		p := s.products[id]
		if category == "" || p.Category == category {
			out = append(out, p)
		}
	}
	return out, nil
}

func (s *stubCatalog) GetProduct(_ context.Context, id string) (domain.Product, error) {
	p, ok := s.products[id]
	if !ok {
		return domain.Product{}, catalog.ErrProductNotFound
	}
	return p, nil
}

func (s *stubCatalog) ListTables(context.Context) ([]domain.Table, error) {
	return s.tables, nil
}

func (s *stubCatalog) TableExists(_ context.Context, id string) (bool, error) {
	for _, t := range s.tables {
		if t.ID == id {
			return true, nil
		}
	}
	return false, nil
}

type failingSubmitter struct{ err error }

func (f failingSubmitter) SubmitOrder(context.Context, domain.CheckoutRequest) (domain.SubmissionResult, error) {
	return domain.SubmissionResult{}, f.err
}

type testServer struct {
	handler http.Handler
	kitchen *kitchen.Service
	orders  *repository.MemoryOrders
}

// newTestServer wires a router with in-memory storage. A nil submitter sends
// orders to the local kitchen.
func newTestServer(t *testing.T, submitter service.OrderSubmitter) *testServer {
	t.Helper()

	orders := repository.NewMemoryOrders()
	k := kitchen.NewService(orders, nil)
	if submitter == nil {
		submitter = k
	}
	cat := newStubCatalog()

	hash, err := bcrypt.GenerateFromPassword([]byte("senha123"), bcrypt.MinCost)
	require.NoError(t, err)
	dir, err := identity.NewDirectory([]identity.Member{
		{ID: "u-1", Name: "Ana Garçom", Email: "garcom@demo.com", Role: identity.RoleWaiter, PasswordHash: string(hash)},
	}, time.Hour)
	require.NoError(t, err)

	reg := prometheus.NewRegistry()
	terminals := service.NewTerminals(service.TerminalConfig{
		Store:     kv.NewMemory(),
		Submitter: submitter,
		Checkout:  service.CheckoutOptions{SubmitTimeout: time.Second, Tables: cat},
		Metrics:   service.NewMetrics(reg),
	})

	return &testServer{
		handler: NewRouter(RouterConfig{
			Terminals:      terminals,
			Catalog:        cat,
			Kitchen:        k,
			Auth:           dir,
			Gatherer:       reg,
			RequestTimeout: 5 * time.Second,
		}),
		kitchen: k,
		orders:  orders,
	}
}

func (s *testServer) do(t *testing.T, method, path string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

// cartBody mirrors CartResponse for decoding.
type cartBody struct {
	TerminalID string `json:"terminal_id"`
	TableID    string `json:"table_id"`
	Items      []struct {
		ProductID string  `json:"product_id"`
		Name      string  `json:"name"`
		Price     float64 `json:"price"`
		Quantity  int     `json:"quantity"`
		Subtotal  float64 `json:"subtotal"`
	} `json:"items"`
	ItemCount int     `json:"item_count"`
	Total     float64 `json:"total"`
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}
