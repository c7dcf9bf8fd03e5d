package kitchen

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/fjod/go_cart/menu/internal/domain"
	"github.com/fjod/go_cart/menu/pkg/circuitbreaker"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
)

const ordersPath = "/api/v1/kitchen/orders"

var errRejected = errors.New("order rejected")

// Client submits orders to a kitchen running in another process.
type Client struct {
	baseURL string
	http    *http.Client
	breaker *circuitbreaker.Breaker[domain.SubmissionResult]
}

func NewClient(baseURL string, timeout time.Duration, log *zap.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http: &http.Client{
			Timeout:   timeout,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
		// rejections are answers, not failures
		breaker: circuitbreaker.New[domain.SubmissionResult](
			circuitbreaker.DefaultConfig("kitchen"), log,
			func(err error) bool { return errors.Is(err, errRejected) }),
	}
}

func (c *Client) SubmitOrder(ctx context.Context, req domain.CheckoutRequest) (domain.SubmissionResult, error) {
	res, err := c.breaker.Execute(func() (domain.SubmissionResult, error) {
		return c.post(ctx, req)
	})
	if errors.Is(err, errRejected) {
		return res, nil
	}
	return res, err
}

func (c *Client) post(ctx context.Context, req domain.CheckoutRequest) (domain.SubmissionResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return domain.SubmissionResult{}, fmt.Errorf("marshal order: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+ordersPath, bytes.NewReader(body))
	if err != nil {
		return domain.SubmissionResult{}, fmt.Errorf("build request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Idempotency-Key", req.IdempotencyKey)

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return domain.SubmissionResult{}, fmt.Errorf("post order: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusOK || resp.StatusCode == http.StatusCreated:
		var out SubmissionResponse
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			return domain.SubmissionResult{}, fmt.Errorf("decode response: %w", err)
		}
		return domain.SubmissionResult{Accepted: out.Accepted, OrderID: out.OrderID, Reason: out.Reason}, nil
	case resp.StatusCode == http.StatusUnprocessableEntity:
		var out SubmissionResponse
		_ = json.NewDecoder(resp.Body).Decode(&out)
		return domain.SubmissionResult{Accepted: false, Reason: out.Reason}, errRejected
	default:
		_, _ = io.Copy(io.Discard, resp.Body)
		return domain.SubmissionResult{}, fmt.Errorf("kitchen returned status %d", resp.StatusCode)
	}
}
