package domain

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func burger() Product {
	return Product{ID: "1", Name: "Hambúrguer Artesanal", Price: decimal.RequireFromString("32.90"), Category: "Lanches", Available: true}
}

func soda() Product {
	return Product{ID: "4", Name: "Coca-Cola 350ml", Price: decimal.RequireFromString("8.50"), Category: "Bebidas", Available: true}
}

func assertTotalConsistent(t *testing.T, c Cart) {
	t.Helper()
	expected := decimal.Zero
	for _, l := range c.Lines {
		assert.GreaterOrEqual(t, l.Quantity, 1)
		expected = expected.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	assert.True(t, expected.Equal(c.Total), "total %s, expected %s", c.Total, expected)
}

func TestCart_WithItem_MergesRepeatedAdds(t *testing.T) {
	c, changed := EmptyCart().WithItem(burger(), 2)
	require.True(t, changed)

	c, changed = c.WithItem(burger(), 1)
	require.True(t, changed)

	require.Len(t, c.Lines, 1)
	assert.Equal(t, 3, c.Lines[0].Quantity)
	assert.Equal(t, "98.7", c.Total.String())
	assertTotalConsistent(t, c)
}

func TestCart_WithItem_KeepsInsertionOrder(t *testing.T) {
	c, _ := EmptyCart().WithItem(soda(), 1)
	c, _ = c.WithItem(burger(), 1)
	c, _ = c.WithItem(soda(), 1)

	require.Len(t, c.Lines, 2)
	assert.Equal(t, "4", c.Lines[0].ProductID)
	assert.Equal(t, "1", c.Lines[1].ProductID)
	assert.Equal(t, 3, c.ItemCount())
	assertTotalConsistent(t, c)
}

func TestCart_WithItem_IgnoresOverflowingMerge(t *testing.T) {
	c, changed := EmptyCart().WithItem(soda(), math.MaxInt)
	require.True(t, changed)

	next, changed := c.WithItem(soda(), 1)

	assert.False(t, changed)
	require.Len(t, next.Lines, 1)
	assert.Equal(t, math.MaxInt, next.Lines[0].Quantity)
	assert.True(t, next.Total.Equal(c.Total))
	assert.False(t, next.Total.IsNegative())
	assertTotalConsistent(t, next)
}

func TestCart_WithItem_IgnoresInvalidInput(t *testing.T) {
	base, _ := EmptyCart().WithItem(burger(), 1)

	tests := []struct {
		name     string
		product  Product
		quantity int
	}{
		{"zero quantity", soda(), 0},
		{"negative quantity", soda(), -3},
		{"missing id", Product{Name: "ghost", Price: decimal.NewFromInt(1)}, 1},
		{"negative price", Product{ID: "9", Price: decimal.NewFromInt(-1)}, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, changed := base.WithItem(tt.product, tt.quantity)
			assert.False(t, changed)
			assert.Equal(t, base.Lines, c.Lines)
			assert.True(t, base.Total.Equal(c.Total))
		})
	}
}

func TestCart_TransitionsDoNotMutateReceiver(t *testing.T) {
	base, _ := EmptyCart().WithItem(burger(), 1)

	_, _ = base.WithItem(burger(), 5)
	_, _ = base.WithQuantity("1", 7)
	_, _ = base.WithoutItem("1")

	require.Len(t, base.Lines, 1)
	assert.Equal(t, 1, base.Lines[0].Quantity)
}

func TestCart_WithoutItem_Idempotent(t *testing.T) {
	c, _ := EmptyCart().WithItem(burger(), 1)
	c, _ = c.WithItem(soda(), 2)

	once, changed := c.WithoutItem("1")
	assert.True(t, changed)
	twice, changed := once.WithoutItem("1")
	assert.False(t, changed)

	assert.Equal(t, once.Lines, twice.Lines)
	assert.Equal(t, "17", twice.Total.String())
	assertTotalConsistent(t, twice)
}

func TestCart_WithQuantity(t *testing.T) {
	c, _ := EmptyCart().WithItem(burger(), 1)
	c, _ = c.WithItem(soda(), 1)

	updated, changed := c.WithQuantity("4", 4)
	require.True(t, changed)
	line, ok := updated.Line("4")
	require.True(t, ok)
	assert.Equal(t, 4, line.Quantity)
	assertTotalConsistent(t, updated)

	_, changed = c.WithQuantity("missing", 3)
	assert.False(t, changed)
}

func TestCart_WithQuantity_NonPositiveEqualsRemove(t *testing.T) {
	c, _ := EmptyCart().WithItem(burger(), 2)
	c, _ = c.WithItem(soda(), 1)

	removed, _ := c.WithoutItem("1")
	for _, q := range []int{0, -1} {
		updated, changed := c.WithQuantity("1", q)
		assert.True(t, changed)
		assert.Equal(t, removed.Lines, updated.Lines)
		assert.True(t, removed.Total.Equal(updated.Total))
	}
}

func TestCart_Emptied_KeepsTable(t *testing.T) {
	c, _ := EmptyCart().WithTable("5").WithItem(burger(), 3)

	e := c.Emptied()

	assert.True(t, e.IsEmpty())
	assert.True(t, e.Total.IsZero())
	assert.Equal(t, 0, e.ItemCount())
	assert.Equal(t, "5", e.TableID)
	assert.Empty(t, e.WithoutTable().TableID)
}

func TestCart_Validate(t *testing.T) {
	price := decimal.NewFromInt(1)
	tests := []struct {
		name  string
		lines []CartLine
		ok    bool
	}{
		{"empty", nil, true},
		{"valid", []CartLine{{ProductID: "1", UnitPrice: price, Quantity: 1}}, true},
		{"no id", []CartLine{{UnitPrice: price, Quantity: 1}}, false},
		{"zero quantity", []CartLine{{ProductID: "1", UnitPrice: price}}, false},
		{"negative price", []CartLine{{ProductID: "1", UnitPrice: price.Neg(), Quantity: 1}}, false},
		{"duplicate", []CartLine{
			{ProductID: "1", UnitPrice: price, Quantity: 1},
			{ProductID: "1", UnitPrice: price, Quantity: 2},
		}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Cart{Lines: tt.lines}.Validate()
			if tt.ok {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, ErrInvalidLine)
			}
		})
	}
}

func TestCart_Recalculated(t *testing.T) {
	c := Cart{Lines: []CartLine{{ProductID: "1", UnitPrice: decimal.RequireFromString("32.90"), Quantity: 3}}, Total: decimal.NewFromInt(1)}

	assert.Equal(t, "98.7", c.Recalculated().Total.String())
}
