package service

import (
	"context"
	"errors"
	"sync"

	"github.com/fjod/go_cart/menu/internal/domain"
	"github.com/fjod/go_cart/menu/internal/kv"
	"github.com/shopspring/decimal"
)

var errStoreDown = errors.New("connection refused")

func product(id, name, price string) domain.Product {
	return domain.Product{ID: id, Name: name, Price: decimal.RequireFromString(price), Category: "Lanches", Available: true}
}

func burger() domain.Product { return product("1", "Hambúrguer Artesanal", "32.90") }
func pizza() domain.Product  { return product("2", "Pizza Margherita", "45.00") }
func soda() domain.Product   { return product("4", "Coca-Cola 350ml", "8.50") }

// recordingStore is a kv.Store that remembers every write.
type recordingStore struct {
	*kv.Memory
	mu     sync.Mutex
	writes [][]byte
}

func newRecordingStore() *recordingStore {
	return &recordingStore{Memory: kv.NewMemory()}
}

func (r *recordingStore) Put(ctx context.Context, ns string, value []byte) error {
	r.mu.Lock()
	r.writes = append(r.writes, append([]byte(nil), value...))
	r.mu.Unlock()
	return r.Memory.Put(ctx, ns, value)
}

func (r *recordingStore) writeCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.writes)
}

// brokenStore fails every call.
type brokenStore struct{}

func (brokenStore) Get(context.Context, string) ([]byte, error) { return nil, errStoreDown }
func (brokenStore) Put(context.Context, string, []byte) error   { return errStoreDown }

// mockSubmitter answers with a canned result and records the requests.
type mockSubmitter struct {
	mu       sync.Mutex
	requests []domain.CheckoutRequest
	result   domain.SubmissionResult
	err      error
}

func (m *mockSubmitter) SubmitOrder(_ context.Context, req domain.CheckoutRequest) (domain.SubmissionResult, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.requests = append(m.requests, req)
	return m.result, m.err
}

func (m *mockSubmitter) calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.requests)
}

func (m *mockSubmitter) last() domain.CheckoutRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests[len(m.requests)-1]
}

// blockingSubmitter holds every submission until release is closed.
type blockingSubmitter struct {
	started chan struct{}
	release chan struct{}
	result  domain.SubmissionResult
	err     error
	ctxErr  chan error
}

func newBlockingSubmitter(result domain.SubmissionResult) *blockingSubmitter {
	return &blockingSubmitter{
		started: make(chan struct{}, 1),
		release: make(chan struct{}),
		result:  result,
		ctxErr:  make(chan error, 1),
	}
}

func (b *blockingSubmitter) SubmitOrder(ctx context.Context, _ domain.CheckoutRequest) (domain.SubmissionResult, error) {
	b.started <- struct{}{}
	<-b.release
	b.ctxErr <- ctx.Err()
	return b.result, b.err
}

type stubTables struct {
	known map[string]bool
	err   error
}

func (s stubTables) TableExists(_ context.Context, id string) (bool, error) {
	return s.known[id], s.err
}
