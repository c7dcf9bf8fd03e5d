package kitchen

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fjod/go_cart/menu/internal/domain"
	"github.com/fjod/go_cart/menu/pkg/circuitbreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_Accepted(t *testing.T) {
	var got domain.CheckoutRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, ordersPath, r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		assert.Equal(t, got.IdempotencyKey, r.Header.Get("Idempotency-Key"))
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(SubmissionResponse{Accepted: true, OrderID: "order-9"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", time.Second, nil)
	req := newRequest("5")

	res, err := c.SubmitOrder(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, res.Accepted)
	assert.Equal(t, "order-9", res.OrderID)
	assert.Equal(t, "5", got.TableID)
	assert.True(t, req.Total.Equal(got.Total))
}

func TestClient_RejectedIsNotAnError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(SubmissionResponse{Accepted: false, Reason: "kitchen closed"})
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, nil)
	for i := 0; i < 10; i++ {
		res, err := c.SubmitOrder(context.Background(), newRequest("5"))
		require.NoError(t, err)
		assert.False(t, res.Accepted)
		assert.Equal(t, "kitchen closed", res.Reason)
	}
	assert.Equal(t, "closed", c.breaker.State())
}

func TestClient_ServerErrorsOpenBreaker(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, time.Second, nil)
	for i := 0; i < 5; i++ {
		_, err := c.SubmitOrder(context.Background(), newRequest("5"))
		assert.ErrorContains(t, err, "status 500")
	}

	_, err := c.SubmitOrder(context.Background(), newRequest("5"))
	assert.ErrorIs(t, err, circuitbreaker.ErrOpen)
	assert.Equal(t, int32(5), calls.Load())
}

func TestClient_Unreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, time.Second, nil).SubmitOrder(context.Background(), newRequest("5"))
	assert.ErrorContains(t, err, "post order")
}
