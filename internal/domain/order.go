package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const DefaultCustomerName = "Guest"

type OrderStatus string

const (
	OrderStatusPreparing OrderStatus = "preparing"
	OrderStatusReady     OrderStatus = "ready"
	OrderStatusDelivered OrderStatus = "delivered"
)

var orderStatusRank = map[OrderStatus]int{
	OrderStatusPreparing: 0,
	OrderStatusReady:     1,
	OrderStatusDelivered: 2,
}

func (s OrderStatus) Valid() bool {
	_, ok := orderStatusRank[s]
	return ok
}

// CanAdvanceTo allows only the next step: preparing -> ready -> delivered.
func (s OrderStatus) CanAdvanceTo(next OrderStatus) bool {
	from, ok := orderStatusRank[s]
	if !ok {
		return false
	}
	to, ok := orderStatusRank[next]
	return ok && to == from+1
}

type OrderItem struct {
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	UnitPrice decimal.Decimal `json:"unit_price"`
	Quantity  int             `json:"quantity"`
}

// CheckoutRequest is the payload handed to the order-submission service.
type CheckoutRequest struct {
	IdempotencyKey string          `json:"idempotency_key"`
	TableID        string          `json:"table_id"`
	CustomerName   string          `json:"customer_name"`
	Items          []OrderItem     `json:"items"`
	Total          decimal.Decimal `json:"total"`
	Notes          string          `json:"notes,omitempty"`
	Status         OrderStatus     `json:"status"`
	RequestedAt    time.Time       `json:"requested_at"`
}

// ItemsTotal sums the item subtotals.
func (r CheckoutRequest) ItemsTotal() decimal.Decimal {
	total := decimal.Zero
	for _, it := range r.Items {
		total = total.Add(it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))))
	}
	return total
}

// SubmissionResult is the answer of the order-submission service.
type SubmissionResult struct {
	Accepted bool
	OrderID  string
	Reason   string
}

// Order is the kitchen-side record of an accepted checkout.
type Order struct {
	ID             string
	IdempotencyKey string
	TableID        string
	CustomerName   string
	Items          []OrderItem
	Total          decimal.Decimal
	Notes          string
	Status         OrderStatus
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
