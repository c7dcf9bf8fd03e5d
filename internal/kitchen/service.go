// Package kitchen accepts orders composed at checkout and tracks their preparation.
package kitchen

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fjod/go_cart/menu/internal/domain"
	"github.com/fjod/go_cart/menu/internal/repository"
	"github.com/fjod/go_cart/menu/pkg/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

var (
	ErrOrderNotFound     = repository.ErrOrderNotFound
	ErrIllegalTransition = errors.New("illegal order status transition")
)

// Service is the in-process kitchen.
type Service struct {
	repo repository.OrderRepository
	log  *zap.Logger
	now  func() time.Time
}

func NewService(repo repository.OrderRepository, log *zap.Logger) *Service {
	return &Service{
		repo: repo,
		log:  logger.OrNop(log),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// SubmitOrder accepts req under a freshly generated order id.
func (s *Service) SubmitOrder(ctx context.Context, req domain.CheckoutRequest) (domain.SubmissionResult, error) {
	return s.Accept(ctx, uuid.NewString(), req)
}

// Accept stores req as order orderID. A request whose idempotency key was
// already accepted returns the existing order instead of a new one.
// Invalid requests are rejected with a reason, not an error.
func (s *Service) Accept(ctx context.Context, orderID string, req domain.CheckoutRequest) (domain.SubmissionResult, error) {
	if reason := validate(req); reason != "" {
		s.log.Info("order_rejected", zap.String("table_id", req.TableID), zap.String("reason", reason))
		return domain.SubmissionResult{Accepted: false, Reason: reason}, nil
	}

	if existing, err := s.repo.GetOrderByIdempotencyKey(ctx, req.IdempotencyKey); err == nil {
		return domain.SubmissionResult{Accepted: true, OrderID: existing.ID}, nil
	} else if !errors.Is(err, repository.ErrOrderNotFound) {
		return domain.SubmissionResult{}, fmt.Errorf("lookup order: %w", err)
	}

	now := s.now()
	order := &domain.Order{
		ID:             orderID,
		IdempotencyKey: req.IdempotencyKey,
		TableID:        req.TableID,
		CustomerName:   req.CustomerName,
		Items:          req.Items,
		Total:          req.Total,
		Notes:          req.Notes,
		Status:         domain.OrderStatusPreparing,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	if err := s.repo.CreateOrder(ctx, order); err != nil {
		if errors.Is(err, repository.ErrDuplicateOrder) {
			existing, getErr := s.repo.GetOrderByIdempotencyKey(ctx, req.IdempotencyKey)
			if getErr != nil {
				return domain.SubmissionResult{}, fmt.Errorf("lookup duplicate order: %w", getErr)
			}
			return domain.SubmissionResult{Accepted: true, OrderID: existing.ID}, nil
		}
		return domain.SubmissionResult{}, fmt.Errorf("create order: %w", err)
	}

	s.log.Info("order_accepted",
		zap.String("order_id", order.ID),
		zap.String("table_id", order.TableID),
		zap.Int("items", len(order.Items)),
		zap.String("total", order.Total.StringFixed(2)))
	return domain.SubmissionResult{Accepted: true, OrderID: order.ID}, nil
}

func (s *Service) ListOrders(ctx context.Context, tableID string) ([]*domain.Order, error) {
	return s.repo.ListOrders(ctx, strings.TrimSpace(tableID))
}

func (s *Service) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	return s.repo.GetOrderByID(ctx, id)
}

// AdvanceStatus moves an order one step along preparing -> ready -> delivered.
func (s *Service) AdvanceStatus(ctx context.Context, id string, to domain.OrderStatus) (*domain.Order, error) {
	order, err := s.repo.GetOrderByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !order.Status.CanAdvanceTo(to) {
		return nil, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, order.Status, to)
	}
	if err := s.repo.UpdateOrderStatus(ctx, id, order.Status, to); err != nil {
		if errors.Is(err, repository.ErrStatusConflict) {
			return nil, fmt.Errorf("%w: %s changed concurrently", ErrIllegalTransition, id)
		}
		return nil, err
	}

	s.log.Info("order_status_changed", zap.String("order_id", id), zap.String("status", string(to)))
	return s.repo.GetOrderByID(ctx, id)
}

func validate(req domain.CheckoutRequest) string {
	switch {
	case strings.TrimSpace(req.IdempotencyKey) == "":
		return "missing idempotency key"
	case strings.TrimSpace(req.TableID) == "":
		return "table is required"
	case len(req.Items) == 0:
		return "order has no items"
	}
	for _, it := range req.Items {
		if it.ProductID == "" || it.Quantity < 1 || it.UnitPrice.IsNegative() {
			return fmt.Sprintf("invalid item %q", it.ProductID)
		}
	}
	if !req.Total.Equal(req.ItemsTotal()) {
		return "order total does not match its items"
	}
	return ""
}
