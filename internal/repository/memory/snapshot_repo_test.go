package memory

import (
	"context"
	"testing"
	"time"

	"github.com/DRSN-tech/cart-sync/internal/domain"
	"github.com/DRSN-tech/cart-sync/pkg/clock"
	"github.com/DRSN-tech/cart-sync/pkg/e"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotRepo(t *testing.T) {
	ctx := context.Background()
	repo := NewSnapshotRepo(clock.NewFake(time.Unix(0, 0)))

	_, err := repo.Load(ctx)
	require.ErrorIs(t, err, e.ErrSnapshotNotFound)

	price := decimal.RequireFromString("10")
	cart := domain.NewCart("c1", []domain.CartItem{{
		ID:       "i1",
		Product:  domain.ProductSnapshot{ID: "p1", Price: price, CurrentPrice: price, Stock: 3},
		Quantity: 2,
	}})
	require.NoError(t, repo.Save(ctx, cart))

	loaded, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"p1"}, loaded.ProductIDs())
	assert.Equal(t, 2, loaded.TotalItems)

	// Изменение загруженной копии не влияет на сохранённую.
	loaded.Items[0].Quantity = 3
	again, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, again.Items[0].Quantity)

	require.NoError(t, repo.Save(ctx, nil))
	absent, err := repo.Load(ctx)
	require.NoError(t, err)
	assert.Nil(t, absent)
}
