package http

import (
	"time"

	"github.com/fjod/go_cart/menu/internal/domain"
	"github.com/shopspring/decimal"
)

// Money renders a decimal as a bare JSON number with two decimals.
type Money decimal.Decimal

func (m Money) MarshalJSON() ([]byte, error) {
	return []byte(decimal.Decimal(m).StringFixed(2)), nil
}

type CartLineResponse struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	Price     Money  `json:"price"`
	Image     string `json:"image,omitempty"`
	Category  string `json:"category,omitempty"`
	Quantity  int    `json:"quantity"`
	Subtotal  Money  `json:"subtotal"`
}

type CartResponse struct {
	TerminalID string             `json:"terminal_id"`
	TableID    string             `json:"table_id,omitempty"`
	Items      []CartLineResponse `json:"items"`
	ItemCount  int                `json:"item_count"`
	Total      Money              `json:"total"`
}

func toCartResponse(terminalID string, c domain.Cart) CartResponse {
	out := CartResponse{
		TerminalID: terminalID,
		TableID:    c.TableID,
		Items:      make([]CartLineResponse, 0, len(c.Lines)),
		ItemCount:  c.ItemCount(),
		Total:      Money(c.Total),
	}
	for _, l := range c.Lines {
		out.Items = append(out.Items, CartLineResponse{
			ProductID: l.ProductID,
			Name:      l.Name,
			Price:     Money(l.UnitPrice),
			Image:     l.Image,
			Category:  l.Category,
			Quantity:  l.Quantity,
			Subtotal:  Money(l.Subtotal()),
		})
	}
	return out
}

type ProductResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       Money  `json:"price"`
	Image       string `json:"image"`
	Category    string `json:"category"`
	Available   bool   `json:"available"`
}

type ProductsResponse struct {
	Products []ProductResponse `json:"products"`
}

func toProductResponse(p domain.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       Money(p.Price),
		Image:       p.Image,
		Category:    p.Category,
		Available:   p.Available,
	}
}

type TableResponse struct {
	ID       string `json:"id"`
	Number   int    `json:"number"`
	Capacity int    `json:"capacity"`
	Status   string `json:"status"`
}

type TablesResponse struct {
	Tables []TableResponse `json:"tables"`
}

type OrderItemResponse struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	UnitPrice Money  `json:"unit_price"`
	Quantity  int    `json:"quantity"`
}

type OrderResponse struct {
	ID           string              `json:"id"`
	TableID      string              `json:"table_id"`
	CustomerName string              `json:"customer_name"`
	Items        []OrderItemResponse `json:"items"`
	Total        Money               `json:"total"`
	Notes        string              `json:"notes,omitempty"`
	Status       string              `json:"status"`
	CreatedAt    time.Time           `json:"created_at"`
	UpdatedAt    time.Time           `json:"updated_at"`
}

type OrdersResponse struct {
	Orders []OrderResponse `json:"orders"`
}

func toOrderResponse(o *domain.Order) OrderResponse {
	out := OrderResponse{
		ID:           o.ID,
		TableID:      o.TableID,
		CustomerName: o.CustomerName,
		Items:        make([]OrderItemResponse, 0, len(o.Items)),
		Total:        Money(o.Total),
		Notes:        o.Notes,
		Status:       string(o.Status),
		CreatedAt:    o.CreatedAt,
		UpdatedAt:    o.UpdatedAt,
	}
	for _, it := range o.Items {
		out.Items = append(out.Items, OrderItemResponse{
			ProductID: it.ProductID,
			Name:      it.Name,
			UnitPrice: Money(it.UnitPrice),
			Quantity:  it.Quantity,
		})
	}
	return out
}

type AddItemRequestDTO struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type UpdateQuantityRequestDTO struct {
	Quantity int `json:"quantity"`
}

type SetTableRequestDTO struct {
	TableID string `json:"table_id"`
}

type CheckoutRequestDTO struct {
	CustomerName string `json:"customer_name"`
	TableID      string `json:"table_id"`
	Notes        string `json:"notes"`
}

type CheckoutResponse struct {
	OrderID   string `json:"order_id"`
	TableID   string `json:"table_id"`
	Total     Money  `json:"total"`
	ItemCount int    `json:"item_count"`
	Status    string `json:"status"`
}

type CheckoutStatusResponse struct {
	TerminalID string `json:"terminal_id"`
	Status     string `json:"status"`
}

type UpdateOrderStatusRequestDTO struct {
	Status string `json:"status"`
}

type LoginRequestDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ActorResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email"`
	Role  string `json:"role"`
}

type LoginResponse struct {
	Token     string        `json:"token"`
	ExpiresAt *time.Time    `json:"expires_at,omitempty"`
	Actor     ActorResponse `json:"actor"`
}

func (m *Money) UnmarshalJSON(data []byte) error {
	var d decimal.Decimal
	if err := d.UnmarshalJSON(data); err != nil {
		return err
	}
	*m = Money(d)
	return nil
}
