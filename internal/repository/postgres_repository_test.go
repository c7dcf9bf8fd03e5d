package repository

import (
	"context"
	"testing"
	"time"

	"github.com/fjod/go_cart/menu/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupTestPostgres(t *testing.T) *PostgresOrders {
	if testing.Short() {
		t.Skip("skipping Postgres container test in short mode")
	}
	ctx := context.Background()

	pgContainer, err := postgres.Run(ctx,
		"postgres:16-alpine",
		postgres.WithDatabase("testdb"),
		postgres.WithUsername("testuser"),
		postgres.WithPassword("testpass"),
		testcontainers.WithWaitStrategy(
			wait.ForLog("database system is ready to accept connections").
				WithOccurrence(2).
				WithStartupTimeout(30*time.Second),
		),
	)
	require.NoError(t, err)
	t.Cleanup(func() {
		if err := pgContainer.Terminate(ctx); err != nil {
			t.Logf("failed to terminate container: %s", err)
		}
	})

	host, err := pgContainer.Host(ctx)
	require.NoError(t, err)

	port, err := pgContainer.MappedPort(ctx, "5432")
	require.NoError(t, err)

	repo, err := NewPostgresOrders(ctx, &Credentials{
		Host:     host,
		Port:     port.Int(),
		User:     "testuser",
		Password: "testpass",
		DBName:   "testdb",
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	require.NoError(t, repo.RunMigrations())
	return repo
}

func TestPostgresOrders_CreateOrder(t *testing.T) {
	repo := setupTestPostgres(t)
	ctx := context.Background()
	order := newTestOrder("3", time.Now().UTC().Truncate(time.Microsecond))

	require.NoError(t, repo.CreateOrder(ctx, order))

	fetched, err := repo.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, order.ID, fetched.ID)
	assert.Equal(t, order.IdempotencyKey, fetched.IdempotencyKey)
	assert.Equal(t, order.TableID, fetched.TableID)
	assert.True(t, order.Total.Equal(fetched.Total))
	assert.Equal(t, domain.OrderStatusPreparing, fetched.Status)
	require.Len(t, fetched.Items, 1)
	assert.Equal(t, "2", fetched.Items[0].ProductID)
	assert.True(t, order.Items[0].UnitPrice.Equal(fetched.Items[0].UnitPrice))
}

func TestPostgresOrders_DuplicateIdempotencyKey(t *testing.T) {
	repo := setupTestPostgres(t)
	ctx := context.Background()

	first := newTestOrder("3", time.Now())
	require.NoError(t, repo.CreateOrder(ctx, first))

	second := newTestOrder("3", time.Now())
	second.IdempotencyKey = first.IdempotencyKey
	assert.ErrorIs(t, repo.CreateOrder(ctx, second), ErrDuplicateOrder)

	byKey, err := repo.GetOrderByIdempotencyKey(ctx, first.IdempotencyKey)
	require.NoError(t, err)
	assert.Equal(t, first.ID, byKey.ID)
}

func TestPostgresOrders_GetOrderByID_NotFound(t *testing.T) {
	repo := setupTestPostgres(t)

	_, err := repo.GetOrderByID(context.Background(), "7d1c6f5e-2f51-4b49-a7d4-6c3f0f8a1b2c")
	assert.ErrorIs(t, err, ErrOrderNotFound)
}

func TestPostgresOrders_ListOrders(t *testing.T) {
	repo := setupTestPostgres(t)
	ctx := context.Background()
	base := time.Now().UTC()

	older := newTestOrder("1", base.Add(-time.Minute))
	newer := newTestOrder("1", base)
	other := newTestOrder("2", base.Add(-30*time.Second))
	for _, o := range []*domain.Order{older, newer, other} {
		require.NoError(t, repo.CreateOrder(ctx, o))
	}

	all, err := repo.ListOrders(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 3)
	assert.Equal(t, newer.ID, all[0].ID)

	table1, err := repo.ListOrders(ctx, "1")
	require.NoError(t, err)
	require.Len(t, table1, 2)
	assert.Equal(t, newer.ID, table1[0].ID)
	assert.Equal(t, older.ID, table1[1].ID)
}

func TestPostgresOrders_UpdateOrderStatus(t *testing.T) {
	repo := setupTestPostgres(t)
	ctx := context.Background()
	order := newTestOrder("5", time.Now())
	require.NoError(t, repo.CreateOrder(ctx, order))

	require.NoError(t, repo.UpdateOrderStatus(ctx, order.ID, domain.OrderStatusPreparing, domain.OrderStatusReady))
	assert.ErrorIs(t,
		repo.UpdateOrderStatus(ctx, order.ID, domain.OrderStatusPreparing, domain.OrderStatusReady),
		ErrStatusConflict)
	assert.ErrorIs(t,
		repo.UpdateOrderStatus(ctx, "7d1c6f5e-2f51-4b49-a7d4-6c3f0f8a1b2c", domain.OrderStatusReady, domain.OrderStatusDelivered),
		ErrOrderNotFound)

	fetched, err := repo.GetOrderByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.OrderStatusReady, fetched.Status)
}
