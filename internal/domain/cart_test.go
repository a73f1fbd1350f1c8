package domain

import (
	"testing"

	"github.com/DRSN-tech/cart-sync/pkg/e"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func item(productID string, price string, qty, stock int) CartItem {
	return CartItem{
		ID: "item-" + productID,
		Product: ProductSnapshot{
			ID:           productID,
			Name:         "Product " + productID,
			Slug:         "product-" + productID,
			Price:        dec(price),
			CurrentPrice: dec(price),
			Stock:        stock,
		},
		Quantity: qty,
	}
}

func assertInvariants(t *testing.T, c *Cart) {
	t.Helper()

	total := 0
	sum := decimal.Zero
	for _, it := range c.Items {
		want := it.Product.CurrentPrice.Mul(decimal.NewFromInt(int64(it.Quantity)))
		assert.True(t, want.Equal(it.Subtotal), "item %s subtotal %s != %s", it.Product.ID, it.Subtotal, want)
		total += it.Quantity
		sum = sum.Add(it.Subtotal)
	}

	assert.Equal(t, total, c.TotalItems)
	assert.True(t, sum.Equal(c.Subtotal), "cart subtotal %s != %s", c.Subtotal, sum)
}

func TestNewCartRecalculates(t *testing.T) {
	c := NewCart("c1", []CartItem{
		item("p1", "100", 2, 10),
		item("p2", "19.99", 3, 10),
	})

	assertInvariants(t, c)
	assert.Equal(t, 5, c.TotalItems)
	assert.True(t, dec("259.97").Equal(c.Subtotal))
}

func TestRecalculateUsesEffectivePrice(t *testing.T) {
	sale := dec("80")

	t.Run("sale price when server price missing", func(t *testing.T) {
		it := item("p1", "100", 2, 5)
		it.Product.CurrentPrice = decimal.Zero
		it.Product.SalePrice = &sale

		c := NewCart("c1", []CartItem{it})
		assert.True(t, dec("160").Equal(c.Subtotal))
		assert.True(t, sale.Equal(c.Items[0].Product.CurrentPrice))
	})

	t.Run("server current price wins", func(t *testing.T) {
		it := item("p1", "100", 1, 5)
		it.Product.SalePrice = &sale
		it.Product.CurrentPrice = dec("90")

		c := NewCart("c1", []CartItem{it})
		assert.True(t, dec("90").Equal(c.Subtotal))
	})

	t.Run("regular price fallback", func(t *testing.T) {
		it := item("p1", "100", 1, 5)
		it.Product.CurrentPrice = decimal.Zero

		c := NewCart("c1", []CartItem{it})
		assert.True(t, dec("100").Equal(c.Subtotal))
	})
}

func TestRecalculateRoundsToCents(t *testing.T) {
	c := NewCart("c1", []CartItem{item("p1", "0.333", 3, 10)})
	assert.Equal(t, "1", c.Items[0].Subtotal.String())
	assert.True(t, dec("1.00").Equal(c.Subtotal))
}

func TestEmptyCart(t *testing.T) {
	c := NewCart("c1", nil)
	assert.Equal(t, 0, c.TotalItems)
	assert.True(t, c.Subtotal.IsZero())
}

func TestCloneIsDeep(t *testing.T) {
	sale := dec("5")
	it := item("p1", "10", 1, 5)
	it.Product.SalePrice = &sale
	orig := NewCart("c1", []CartItem{it})

	cp := orig.Clone()
	require.Equal(t, orig, cp)

	cp.Items[0].Quantity = 4
	*cp.Items[0].Product.SalePrice = dec("1")

	assert.Equal(t, 1, orig.Items[0].Quantity)
	assert.True(t, dec("5").Equal(*orig.Items[0].Product.SalePrice))

	var nilCart *Cart
	assert.Nil(t, nilCart.Clone())
}

func TestWithQuantityDoesNotMutateReceiver(t *testing.T) {
	orig := NewCart("c1", []CartItem{item("p1", "100", 1, 10), item("p2", "50", 2, 10)})
	before := orig.Clone()

	updated := orig.WithQuantity("p1", 3)

	assert.Equal(t, before, orig)
	assertInvariants(t, updated)
	assert.Equal(t, 5, updated.TotalItems)
	assert.True(t, dec("400").Equal(updated.Subtotal))
}

func TestWithout(t *testing.T) {
	orig := NewCart("c1", []CartItem{item("p1", "100", 1, 10), item("p2", "50", 2, 10)})

	c := orig.Without("p1")
	assertInvariants(t, c)
	assert.Equal(t, []string{"p2"}, c.ProductIDs())
	assert.True(t, dec("100").Equal(c.Subtotal))

	assert.Equal(t, []string{"p1", "p2"}, orig.ProductIDs())
}

func TestFindItem(t *testing.T) {
	c := NewCart("c1", []CartItem{item("p1", "100", 1, 10)})

	got, ok := c.FindItem("p1")
	require.True(t, ok)
	assert.Equal(t, "item-p1", got.ID)

	_, ok = c.FindItem("ghost")
	assert.False(t, ok)

	var nilCart *Cart
	_, ok = nilCart.FindItem("p1")
	assert.False(t, ok)
}

func TestValidateQuantity(t *testing.T) {
	assert.NoError(t, ValidateQuantity(1, 1))
	assert.ErrorIs(t, ValidateQuantity(0, 5), e.ErrInvalidQuantity)

	err := ValidateQuantity(10, 2)
	require.ErrorIs(t, err, e.ErrInsufficientStock)
	assert.Equal(t, "Only 2 items available", err.Error())
}
