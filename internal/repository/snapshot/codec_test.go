package snapshot

import (
	"testing"
	"time"

	"github.com/DRSN-tech/cart-sync/internal/domain"
	"github.com/DRSN-tech/cart-sync/pkg/e"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleCart() *domain.Cart {
	sale := decimal.RequireFromString("79.90")

	return domain.NewCart("cart-1", []domain.CartItem{
		{
			ID:       "i1",
			Quantity: 2,
			Product: domain.ProductSnapshot{
				ID: "p1", Name: "Mouse", Slug: "mouse",
				Price: decimal.RequireFromString("100"), CurrentPrice: decimal.RequireFromString("100"),
				Stock: 10,
			},
		},
		{
			ID:       "i2",
			Quantity: 1,
			Product: domain.ProductSnapshot{
				ID: "p3", Name: "Keyboard", Slug: "keyboard",
				Price: decimal.RequireFromString("99.90"), SalePrice: &sale, CurrentPrice: sale,
				Image: "/img/keyboard.png", Stock: 2,
			},
		},
	})
}

func TestEncodeDecode(t *testing.T) {
	cart := sampleCart()

	data, err := Encode(cart, time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"schema_version":1`)
	assert.Contains(t, string(data), `"saved_at":"2024-01-02T03:04:05Z"`)
	assert.NotContains(t, string(data), "total_items")

	restored, err := Decode(data)
	require.NoError(t, err)
	require.NotNil(t, restored)

	assert.Equal(t, cart.ID, restored.ID)
	assert.Equal(t, cart.ProductIDs(), restored.ProductIDs())
	assert.Equal(t, 3, restored.TotalItems)
	assert.True(t, decimal.RequireFromString("279.90").Equal(restored.Subtotal), restored.Subtotal.String())

	item, ok := restored.FindItem("p3")
	require.True(t, ok)
	require.NotNil(t, item.Product.SalePrice)
	assert.True(t, decimal.RequireFromString("79.90").Equal(*item.Product.SalePrice))
}

func TestEncodeAbsentCart(t *testing.T) {
	data, err := Encode(nil, time.Unix(0, 0))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"cart":null`)

	restored, err := Decode(data)
	require.NoError(t, err)
	assert.Nil(t, restored)
}

func TestDecodeRejectsUnknownVersion(t *testing.T) {
	_, err := Decode([]byte(`{"schema_version":2,"saved_at":"2024-01-01T00:00:00Z","cart":null}`))
	assert.ErrorIs(t, err, e.ErrUnsupportedSnapshot)

	_, err = Decode([]byte(`{"cart":{"id":"c"}}`))
	assert.ErrorIs(t, err, e.ErrUnsupportedSnapshot)
}

func TestDecodeGarbage(t *testing.T) {
	_, err := Decode([]byte("not json"))
	assert.Error(t, err)
	assert.NotErrorIs(t, err, e.ErrUnsupportedSnapshot)
}

func TestDecodeRecomputesTotals(t *testing.T) {
	data := []byte(`{
		"schema_version": 1,
		"saved_at": "2024-01-01T00:00:00Z",
		"cart": {"id": "c", "items": [
			{"id": "i1", "quantity": 4, "product": {"id": "p2", "price": "25.50", "current_price": "25.50", "stock": 5}}
		]}
	}`)

	cart, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, 4, cart.TotalItems)
	assert.True(t, decimal.RequireFromString("102").Equal(cart.Subtotal))
}
