package repository

import (
	"context"
	"errors"

	"github.com/fjod/go_cart/menu/internal/domain"
)

var (
	ErrOrderNotFound  = errors.New("order not found")
	ErrDuplicateOrder = errors.New("order with this idempotency key already exists")
	ErrStatusConflict = errors.New("order status changed concurrently")
)

// OrderRepository stores orders accepted by the kitchen.
type OrderRepository interface {
	CreateOrder(ctx context.Context, order *domain.Order) error
	GetOrderByID(ctx context.Context, id string) (*domain.Order, error)
	GetOrderByIdempotencyKey(ctx context.Context, key string) (*domain.Order, error)
	// ListOrders returns newest first. An empty tableID lists every table.
	ListOrders(ctx context.Context, tableID string) ([]*domain.Order, error)
	// UpdateOrderStatus moves an order from one status to another and fails
	// with ErrStatusConflict when the stored status is no longer from.
	UpdateOrderStatus(ctx context.Context, id string, from, to domain.OrderStatus) error
}

type Credentials struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
}
