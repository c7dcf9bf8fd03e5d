package service

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fjod/go_cart/menu/internal/domain"
	"github.com/shopspring/decimal"
)

const snapshotVersion = 1

var errSnapshotVersion = errors.New("unsupported cart snapshot version")

type snapshotLine struct {
	ID       string      `json:"id"`
	Name     string      `json:"name"`
	Price    json.Number `json:"price"`
	Image    string      `json:"image,omitempty"`
	Category string      `json:"category,omitempty"`
	Quantity int         `json:"quantity"`
}

type snapshot struct {
	Version int            `json:"version"`
	Lines   []snapshotLine `json:"lines"`
	Total   json.Number    `json:"total"`
	TableID string         `json:"tableId,omitempty"`
}

func encodeSnapshot(c domain.Cart) ([]byte, error) {
	s := snapshot{
		Version: snapshotVersion,
		Lines:   make([]snapshotLine, 0, len(c.Lines)),
		Total:   json.Number(c.Total.String()),
		TableID: c.TableID,
	}
	for _, l := range c.Lines {
		s.Lines = append(s.Lines, snapshotLine{
			ID:       l.ProductID,
			Name:     l.Name,
			Price:    json.Number(l.UnitPrice.String()),
			Image:    l.Image,
			Category: l.Category,
			Quantity: l.Quantity,
		})
	}
	return json.Marshal(s)
}

// decodeSnapshot rebuilds a cart. The stored total is ignored and re-derived.
// Snapshots written before versioning carry version 0 and are accepted.
func decodeSnapshot(data []byte) (domain.Cart, error) {
	var s snapshot
	if err := json.Unmarshal(data, &s); err != nil {
		return domain.Cart{}, fmt.Errorf("unmarshal cart snapshot: %w", err)
	}
	if s.Version != 0 && s.Version != snapshotVersion {
		return domain.Cart{}, fmt.Errorf("%w: %d", errSnapshotVersion, s.Version)
	}

	c := domain.Cart{TableID: s.TableID}
	for _, l := range s.Lines {
		price, err := decimal.NewFromString(l.Price.String())
		if err != nil {
			return domain.Cart{}, fmt.Errorf("line %s price: %w", l.ID, err)
		}
		c.Lines = append(c.Lines, domain.CartLine{
			ProductID: l.ID,
			Name:      l.Name,
			UnitPrice: price,
			Image:     l.Image,
			Category:  l.Category,
			Quantity:  l.Quantity,
		})
	}
	if err := c.Validate(); err != nil {
		return domain.Cart{}, err
	}
	return c.Recalculated(), nil
}
