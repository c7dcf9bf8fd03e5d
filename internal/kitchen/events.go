package kitchen

import "github.com/fjod/go_cart/menu/internal/domain"

const (
	DefaultTopic         = "kitchen-orders"
	EventTypeOrderPlaced = "OrderPlaced"
)

// OrderPlacedEvent is the message published for every submitted order.
type OrderPlacedEvent struct {
	OrderID string                 `json:"order_id"`
	Order   domain.CheckoutRequest `json:"order"`
}

// SubmissionResponse is the HTTP body returned for a submitted order.
type SubmissionResponse struct {
	Accepted bool   `json:"accepted"`
	OrderID  string `json:"order_id,omitempty"`
	Reason   string `json:"reason,omitempty"`
}
