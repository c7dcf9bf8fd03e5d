package domain

import (
	"errors"
	"fmt"
	"math"

	"github.com/shopspring/decimal"
)

var ErrInvalidLine = errors.New("invalid cart line")

// CartLine is one product in the cart. ProductID is unique within a cart.
type CartLine struct {
	ProductID string
	Name      string
	UnitPrice decimal.Decimal
	Image     string
	Category  string
	Quantity  int
}

func (l CartLine) Subtotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is an immutable value. Every transition returns a new Cart with Total
// re-derived from Lines; the receiver is never modified.
type Cart struct {
	Lines   []CartLine
	Total   decimal.Decimal
	TableID string
}

func EmptyCart() Cart {
	return Cart{Total: decimal.Zero}
}

// WithItem adds quantity units of p, merging into an existing line.
// Non-positive quantities, products without an id and negative prices are
// ignored, as is a merge that would overflow the line quantity.
func (c Cart) WithItem(p Product, quantity int) (Cart, bool) {
	if quantity <= 0 || p.ID == "" || p.Price.IsNegative() {
		return c.clone(), false
	}

	next := c.clone()
	for i := range next.Lines {
		if next.Lines[i].ProductID == p.ID {
			if next.Lines[i].Quantity > math.MaxInt-quantity {
				return c.clone(), false
			}
			next.Lines[i].Quantity += quantity
			return next.recalculated(), true
		}
	}

	next.Lines = append(next.Lines, CartLine{
		ProductID: p.ID,
		Name:      p.Name,
		UnitPrice: p.Price,
		Image:     p.Image,
		Category:  p.Category,
		Quantity:  quantity,
	})
	return next.recalculated(), true
}

// WithoutItem removes the line for productID. Removing an absent id is a no-op.
func (c Cart) WithoutItem(productID string) (Cart, bool) {
	next := c.clone()
	for i := range next.Lines {
		if next.Lines[i].ProductID == productID {
			next.Lines = append(next.Lines[:i], next.Lines[i+1:]...)
			return next.recalculated(), true
		}
	}
	return next, false
}

// WithQuantity sets the quantity of an existing line; quantity <= 0 removes it.
func (c Cart) WithQuantity(productID string, quantity int) (Cart, bool) {
	if quantity <= 0 {
		return c.WithoutItem(productID)
	}

	next := c.clone()
	for i := range next.Lines {
		if next.Lines[i].ProductID == productID {
			if next.Lines[i].Quantity == quantity {
				return next, false
			}
			next.Lines[i].Quantity = quantity
			return next.recalculated(), true
		}
	}
	return next, false
}

// Emptied drops every line and keeps the table association.
func (c Cart) Emptied() Cart {
	return Cart{Total: decimal.Zero, TableID: c.TableID}
}

func (c Cart) WithTable(tableID string) Cart {
	next := c.clone()
	next.TableID = tableID
	return next
}

func (c Cart) WithoutTable() Cart {
	return c.WithTable("")
}

func (c Cart) ItemCount() int {
	n := 0
	for _, l := range c.Lines {
		n += l.Quantity
	}
	return n
}

func (c Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

func (c Cart) Line(productID string) (CartLine, bool) {
	for _, l := range c.Lines {
		if l.ProductID == productID {
			return l, true
		}
	}
	return CartLine{}, false
}

// Validate checks the line invariants. It is used on carts that did not come
// from transitions, such as restored snapshots.
func (c Cart) Validate() error {
	seen := make(map[string]struct{}, len(c.Lines))
	for i, l := range c.Lines {
		switch {
		case l.ProductID == "":
			return fmt.Errorf("%w: line %d has no product id", ErrInvalidLine, i)
		case l.Quantity < 1:
			return fmt.Errorf("%w: line %s has quantity %d", ErrInvalidLine, l.ProductID, l.Quantity)
		case l.UnitPrice.IsNegative():
			return fmt.Errorf("%w: line %s has negative price", ErrInvalidLine, l.ProductID)
		}
		if _, dup := seen[l.ProductID]; dup {
			return fmt.Errorf("%w: duplicate product %s", ErrInvalidLine, l.ProductID)
		}
		seen[l.ProductID] = struct{}{}
	}
	return nil
}

// Clone returns a copy that shares no memory with c.
func (c Cart) Clone() Cart {
	return c.clone()
}

// Recalculated returns a copy with Total derived from Lines.
func (c Cart) Recalculated() Cart {
	return c.clone().recalculated()
}

func (c Cart) recalculated() Cart {
	total := decimal.Zero
	for _, l := range c.Lines {
		total = total.Add(l.Subtotal())
	}
	c.Total = total
	return c
}

func (c Cart) clone() Cart {
	out := Cart{Total: c.Total, TableID: c.TableID}
	if len(c.Lines) > 0 {
		out.Lines = make([]CartLine, len(c.Lines))
		copy(out.Lines, c.Lines)
	}
	return out
}
