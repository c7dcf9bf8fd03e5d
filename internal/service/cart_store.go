package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fjod/go_cart/menu/internal/domain"
	"github.com/fjod/go_cart/menu/internal/kv"
	"github.com/fjod/go_cart/menu/pkg/logger"
	"go.uber.org/zap"
)

const persistTimeout = 2 * time.Second

// CartStore owns the cart of one ordering terminal. Mutations are applied in
// call order and every committed mutation is written to the kv.Store before
// the next one starts. Storage failures never reach the caller.
type CartStore struct {
	namespace string
	store     kv.Store
	log       *zap.Logger
	metrics   *Metrics
	// maxQuantity caps a single line. Zero means no cap.
	maxQuantity int

	mu   sync.Mutex
	cart domain.Cart
}

// NewCartStore restores the cart saved under namespace. A nil store keeps the
// cart in memory only.
func NewCartStore(ctx context.Context, namespace string, store kv.Store, log *zap.Logger, metrics *Metrics) *CartStore {
	s := &CartStore{
		namespace: namespace,
		store:     store,
		log:       logger.OrNop(log).With(zap.String("cart_namespace", namespace)),
		metrics:   metrics,
	}
	s.cart = s.restore(ctx)
	return s
}

// AddItem adds quantity units of p. An add that would take the line past the
// quantity cap is ignored.
func (s *CartStore) AddItem(ctx context.Context, p domain.Product, quantity int) domain.Cart {
	c, _ := s.TryAddItem(ctx, p, quantity)
	return c
}

// TryAddItem is AddItem reporting ErrQuantityLimit when the cap refused the add.
// The cap is checked and applied under the same lock.
func (s *CartStore) TryAddItem(ctx context.Context, p domain.Product, quantity int) (domain.Cart, error) {
	var err error
	c := s.apply(ctx, "add_item", func(c domain.Cart) (domain.Cart, bool) {
		if s.exceedsCap(c, p.ID, quantity) {
			err = ErrQuantityLimit
			return c, false
		}
		return c.WithItem(p, quantity)
	})
	return c, err
}

func (s *CartStore) RemoveItem(ctx context.Context, productID string) domain.Cart {
	return s.apply(ctx, "remove_item", func(c domain.Cart) (domain.Cart, bool) {
		return c.WithoutItem(productID)
	})
}

// UpdateQuantity sets the quantity of a line. Zero or less removes it.
func (s *CartStore) UpdateQuantity(ctx context.Context, productID string, quantity int) domain.Cart {
	return s.apply(ctx, "update_quantity", func(c domain.Cart) (domain.Cart, bool) {
		if s.maxQuantity > 0 && quantity > s.maxQuantity {
			return c, false
		}
		return c.WithQuantity(productID, quantity)
	})
}

// Clear empties the cart. The table association is kept.
func (s *CartStore) Clear(ctx context.Context) domain.Cart {
	return s.apply(ctx, "clear", func(c domain.Cart) (domain.Cart, bool) {
		return c.Emptied(), !c.IsEmpty()
	})
}

func (s *CartStore) SetTable(ctx context.Context, tableID string) (domain.Cart, error) {
	tableID = strings.TrimSpace(tableID)
	if tableID == "" {
		return s.Snapshot(), ErrInvalidTable
	}
	return s.apply(ctx, "set_table", func(c domain.Cart) (domain.Cart, bool) {
		return c.WithTable(tableID), c.TableID != tableID
	}), nil
}

func (s *CartStore) ClearTable(ctx context.Context) domain.Cart {
	return s.apply(ctx, "clear_table", func(c domain.Cart) (domain.Cart, bool) {
		return c.WithoutTable(), c.TableID != ""
	})
}

func (s *CartStore) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.ItemCount()
}

func (s *CartStore) Snapshot() domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Clone()
}

func (s *CartStore) apply(ctx context.Context, op string, transition func(domain.Cart) (domain.Cart, bool)) domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	next, changed := transition(s.cart)
	if !changed {
		return s.cart.Clone()
	}

	s.cart = next
	s.metrics.cartMutation(op)
	s.persist(ctx, op)
	return s.cart.Clone()
}

func (s *CartStore) exceedsCap(c domain.Cart, productID string, quantity int) bool {
	if s.maxQuantity <= 0 || quantity <= 0 {
		return false
	}
	current := 0
	if l, ok := c.Line(productID); ok {
		current = l.Quantity
	}
	return current > s.maxQuantity-quantity
}

// persist runs with s.mu held so writes reach the store in mutation order.
func (s *CartStore) persist(ctx context.Context, op string) {
	if s.store == nil {
		return
	}

	data, err := encodeSnapshot(s.cart)
	if err != nil {
		s.metrics.persistenceFailure("encode")
		s.log.Error("cart_snapshot_encode_failed", zap.String("operation", op), zap.Error(err))
		return
	}

	// the mutation is already committed, a cancelled request must not skip the write
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), persistTimeout)
	defer cancel()

	if err := s.store.Put(ctx, s.namespace, data); err != nil {
		s.metrics.persistenceFailure("put")
		s.log.Warn("cart_persist_failed",
			zap.String("operation", op),
			zap.Error(fmt.Errorf("%w: %w", ErrPersistenceUnavailable, err)))
	}
}

func (s *CartStore) restore(ctx context.Context) domain.Cart {
	if s.store == nil {
		return domain.EmptyCart()
	}

	ctx, cancel := context.WithTimeout(ctx, persistTimeout)
	defer cancel()

	data, err := s.store.Get(ctx, s.namespace)
	if errors.Is(err, kv.ErrNotFound) {
		return domain.EmptyCart()
	}
	if err != nil {
		s.metrics.persistenceFailure("get")
		s.log.Warn("cart_restore_failed", zap.Error(fmt.Errorf("%w: %w", ErrPersistenceUnavailable, err)))
		return domain.EmptyCart()
	}

	cart, err := decodeSnapshot(data)
	if err != nil {
		s.log.Warn("cart_snapshot_discarded", zap.Error(err))
		return domain.EmptyCart()
	}

	s.log.Debug("cart_restored", zap.Int("lines", len(cart.Lines)), zap.String("table_id", cart.TableID))
	return cart
}
