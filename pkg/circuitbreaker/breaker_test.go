package circuitbreaker

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func TestBreaker_TripsAfterConsecutiveFailures(t *testing.T) {
	cfg := DefaultConfig("kitchen")
	cfg.ConsecutiveFailures = 2
	cfg.OpenTimeout = time.Minute
	b := New[int](cfg, nil, nil)

	for i := 0; i < 2; i++ {
		_, err := b.Execute(func() (int, error) { return 0, errBoom })
		require.ErrorIs(t, err, errBoom)
	}

	called := false
	_, err := b.Execute(func() (int, error) {
		called = true
		return 1, nil
	})
	assert.ErrorIs(t, err, ErrOpen)
	assert.False(t, called)
	assert.Equal(t, "open", b.State())
}

func TestBreaker_IgnoredErrorsDoNotTrip(t *testing.T) {
	errRejected := errors.New("rejected")
	cfg := DefaultConfig("kitchen")
	cfg.ConsecutiveFailures = 1
	b := New[string](cfg, nil, func(err error) bool { return errors.Is(err, errRejected) })

	for i := 0; i < 3; i++ {
		_, err := b.Execute(func() (string, error) { return "", errRejected })
		assert.ErrorIs(t, err, errRejected)
	}
	assert.Equal(t, "closed", b.State())
}

func TestBreaker_PassesResult(t *testing.T) {
	b := New[string](DefaultConfig("kitchen"), nil, nil)

	res, err := b.Execute(func() (string, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, "ok", res)
}
