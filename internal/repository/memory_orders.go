package repository

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/fjod/go_cart/menu/internal/domain"
)

// MemoryOrders is an OrderRepository for single-node deployments and tests.
type MemoryOrders struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
	byKey  map[string]string
}

func NewMemoryOrders() *MemoryOrders {
	return &MemoryOrders{
		orders: make(map[string]*domain.Order),
		byKey:  make(map[string]string),
	}
}

func (m *MemoryOrders) CreateOrder(_ context.Context, order *domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byKey[order.IdempotencyKey]; ok {
		return ErrDuplicateOrder
	}
	if _, ok := m.orders[order.ID]; ok {
		return ErrDuplicateOrder
	}
	m.orders[order.ID] = cloneOrder(order)
	m.byKey[order.IdempotencyKey] = order.ID
	return nil
}

func (m *MemoryOrders) GetOrderByID(_ context.Context, id string) (*domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	o, ok := m.orders[id]
	if !ok {
		return nil, ErrOrderNotFound
	}
	return cloneOrder(o), nil
}

func (m *MemoryOrders) GetOrderByIdempotencyKey(ctx context.Context, key string) (*domain.Order, error) {
	m.mu.RLock()
	id, ok := m.byKey[key]
	m.mu.RUnlock()
	if !ok {
		return nil, ErrOrderNotFound
	}
	return m.GetOrderByID(ctx, id)
}

func (m *MemoryOrders) ListOrders(_ context.Context, tableID string) ([]*domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]*domain.Order, 0, len(m.orders))
	for _, o := range m.orders {
		if tableID != "" && o.TableID != tableID {
			continue
		}
		out = append(out, cloneOrder(o))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, nil
}

func (m *MemoryOrders) UpdateOrderStatus(_ context.Context, id string, from, to domain.OrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	o, ok := m.orders[id]
	if !ok {
		return ErrOrderNotFound
	}
	if o.Status != from {
		return ErrStatusConflict
	}
	o.Status = to
	o.UpdatedAt = time.Now().UTC()
	return nil
}

func cloneOrder(o *domain.Order) *domain.Order {
	c := *o
	c.Items = append([]domain.OrderItem(nil), o.Items...)
	return &c
}
