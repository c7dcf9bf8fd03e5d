package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/fjod/go_cart/menu/internal/domain"
	"github.com/fjod/go_cart/menu/internal/identity"
	"github.com/fjod/go_cart/menu/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
)

const (
	tracerName           = "github.com/fjod/go_cart/menu/internal/service"
	defaultSubmitTimeout = 10 * time.Second

	reasonKitchenUnavailable = "the kitchen could not be reached, please try again"
	reasonOrderRejected      = "the kitchen rejected the order"
)

// OrderSubmitter accepts composed orders on behalf of the kitchen.
type OrderSubmitter interface {
	SubmitOrder(ctx context.Context, req domain.CheckoutRequest) (domain.SubmissionResult, error)
}

// TableDirectory confirms that a table exists before an order is sent to it.
type TableDirectory interface {
	TableExists(ctx context.Context, tableID string) (bool, error)
}

type CheckoutOptions struct {
	// SubmitTimeout bounds the wait on the submission service.
	SubmitTimeout time.Duration
	// ResetTableOnSuccess drops the table association after an accepted order.
	ResetTableOnSuccess bool
	// Tables is optional. Without it any non-blank table id is accepted.
	Tables TableDirectory
}

// CustomerInfo is what staff typed in the checkout form.
type CustomerInfo struct {
	Name    string
	TableID string
	Notes   string
}

type CheckoutResult struct {
	OrderID   string
	TableID   string
	Total     decimal.Decimal
	ItemCount int
	Status    domain.CheckoutStatus
}

// CheckoutService turns a terminal's cart into a kitchen order. At most one
// submission per terminal is in flight.
type CheckoutService struct {
	cart      *CartStore
	submitter OrderSubmitter
	opts      CheckoutOptions
	log       *zap.Logger
	metrics   *Metrics
	tracer    trace.Tracer
	newKey    func() string
	now       func() time.Time

	mu     sync.Mutex
	status domain.CheckoutStatus
}

func NewCheckoutService(cart *CartStore, submitter OrderSubmitter, opts CheckoutOptions, log *zap.Logger, metrics *Metrics) *CheckoutService {
	if opts.SubmitTimeout <= 0 {
		opts.SubmitTimeout = defaultSubmitTimeout
	}
	return &CheckoutService{
		cart:      cart,
		submitter: submitter,
		opts:      opts,
		log:       logger.OrNop(log),
		metrics:   metrics,
		tracer:    otel.Tracer(tracerName),
		newKey:    uuid.NewString,
		now:       time.Now,
		status:    domain.CheckoutStatusIdle,
	}
}

func (c *CheckoutService) Status() domain.CheckoutStatus {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

// Checkout validates the cart, submits it and clears it once the kitchen
// accepts. A rejected or failed submission leaves the cart untouched and
// returns a *SubmissionError. The submission is not cancelled when ctx is,
// so an order that reaches the kitchen always clears the cart.
func (c *CheckoutService) Checkout(ctx context.Context, info CustomerInfo) (*CheckoutResult, error) {
	log := logger.FromContext(ctx, c.log)

	tableID, err := c.validate(info)
	if err == nil {
		err = c.checkTable(ctx, log, tableID)
	}
	var cart domain.Cart
	if err == nil {
		cart, err = c.begin(tableID)
	}
	if err != nil {
		c.metrics.checkout(outcomeFor(err))
		log.Info("checkout_rejected", zap.String("reason", err.Error()), zap.String("table_id", tableID))
		return nil, err
	}
	req := c.compose(ctx, cart, tableID, info)
	log = log.With(zap.String("idempotency_key", req.IdempotencyKey), zap.String("table_id", tableID))

	res, err := c.submit(ctx, req)
	if err != nil {
		c.finish(domain.CheckoutStatusFailed)
		c.metrics.checkout(outcomeFor(err))
		log.Warn("checkout_failed", zap.Error(err))
		return nil, err
	}

	c.cart.Clear(ctx)
	if c.opts.ResetTableOnSuccess {
		c.cart.ClearTable(ctx)
	}
	c.finish(domain.CheckoutStatusSucceeded)
	c.metrics.checkout("success")
	log.Info("checkout_submitted",
		zap.String("order_id", res.OrderID),
		zap.String("total", req.Total.StringFixed(2)),
		zap.Int("items", cart.ItemCount()))

	return &CheckoutResult{
		OrderID:   res.OrderID,
		TableID:   tableID,
		Total:     req.Total,
		ItemCount: cart.ItemCount(),
		Status:    domain.CheckoutStatusSucceeded,
	}, nil
}

// validate runs the synchronous checks and resolves the table the order
// goes to. It does not change the state.
func (c *CheckoutService) validate(info CustomerInfo) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !domain.CanTransitionTo(c.status, domain.CheckoutStatusSubmitting) {
		return "", ErrCheckoutInProgress
	}

	cart := c.cart.Snapshot()
	if cart.IsEmpty() {
		return "", ErrEmptyCart
	}

	// a table typed in the form wins over the one bound to the cart
	tableID := strings.TrimSpace(info.TableID)
	if tableID == "" {
		tableID = cart.TableID
	}
	if tableID == "" {
		return "", ErrMissingTable
	}
	return tableID, nil
}

// begin enters Submitting and returns the cart being ordered. Another
// checkout or a clear may have happened since validate, so both are checked
// again under the lock.
func (c *CheckoutService) begin(tableID string) (domain.Cart, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if !domain.CanTransitionTo(c.status, domain.CheckoutStatusSubmitting) {
		return domain.Cart{}, ErrCheckoutInProgress
	}
	cart := c.cart.Snapshot()
	if cart.IsEmpty() {
		return domain.Cart{}, ErrEmptyCart
	}
	c.status = domain.CheckoutStatusSubmitting
	return cart, nil
}

func (c *CheckoutService) finish(to domain.CheckoutStatus) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if domain.CanTransitionTo(c.status, to) {
		c.status = to
	}
}

func (c *CheckoutService) checkTable(ctx context.Context, log *zap.Logger, tableID string) error {
	if c.opts.Tables == nil {
		return nil
	}
	ok, err := c.opts.Tables.TableExists(ctx, tableID)
	if err != nil {
		// the catalog being down must not stop orders
		log.Warn("table_lookup_failed", zap.String("table_id", tableID), zap.Error(err))
		return nil
	}
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTable, tableID)
	}
	return nil
}

func (c *CheckoutService) compose(ctx context.Context, cart domain.Cart, tableID string, info CustomerInfo) domain.CheckoutRequest {
	name := strings.TrimSpace(info.Name)
	if name == "" {
		if actor, ok := identity.ActorFromContext(ctx); ok {
			name = actor.DisplayName()
		}
	}
	if name == "" {
		name = domain.DefaultCustomerName
	}

	items := make([]domain.OrderItem, 0, len(cart.Lines))
	for _, l := range cart.Lines {
		items = append(items, domain.OrderItem{
			ProductID: l.ProductID,
			Name:      l.Name,
			UnitPrice: l.UnitPrice,
			Quantity:  l.Quantity,
		})
	}

	return domain.CheckoutRequest{
		IdempotencyKey: c.newKey(),
		TableID:        tableID,
		CustomerName:   name,
		Items:          items,
		Total:          cart.Total,
		Notes:          strings.TrimSpace(info.Notes),
		Status:         domain.OrderStatusPreparing,
		RequestedAt:    c.now().UTC(),
	}
}

func (c *CheckoutService) submit(ctx context.Context, req domain.CheckoutRequest) (_ domain.SubmissionResult, err error) {
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.opts.SubmitTimeout)
	defer cancel()

	ctx, span := c.tracer.Start(ctx, "Checkout.Submit", trace.WithAttributes(
		attribute.String("checkout.table_id", req.TableID),
		attribute.String("checkout.idempotency_key", req.IdempotencyKey),
		attribute.Int("checkout.lines", len(req.Items)),
	))
	start := time.Now()
	defer func() {
		c.metrics.observeSubmit(time.Since(start).Seconds())
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, "submission failed")
		} else {
			span.SetStatus(codes.Ok, "accepted")
		}
		span.End()
	}()

	res, err := c.submitter.SubmitOrder(ctx, req)
	if err != nil {
		return domain.SubmissionResult{}, &SubmissionError{Reason: reasonKitchenUnavailable, Err: err}
	}
	if !res.Accepted {
		reason := res.Reason
		if reason == "" {
			reason = reasonOrderRejected
		}
		return domain.SubmissionResult{}, &SubmissionError{Reason: reason}
	}
	return res, nil
}

func outcomeFor(err error) string {
	switch {
	case errors.Is(err, ErrEmptyCart):
		return "empty_cart"
	case errors.Is(err, ErrMissingTable):
		return "missing_table"
	case errors.Is(err, ErrUnknownTable):
		return "unknown_table"
	case errors.Is(err, ErrCheckoutInProgress):
		return "in_progress"
	default:
		return "submission_failed"
	}
}
