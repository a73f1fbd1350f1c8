package memory

import (
	"context"
	"sync"

	"github.com/DRSN-tech/cart-sync/internal/domain"
	"github.com/DRSN-tech/cart-sync/internal/repository/snapshot"
	"github.com/DRSN-tech/cart-sync/pkg/clock"
	"github.com/DRSN-tech/cart-sync/pkg/e"
	"github.com/jimlawless/whereami"
)

// SnapshotRepo хранит сериализованный снимок корзины в памяти процесса.
// Проходит через тот же формат, что и внешние хранилища.
type SnapshotRepo struct {
	clock clock.Clock

	mu   sync.RWMutex
	data []byte
}

func NewSnapshotRepo(clock clock.Clock) *SnapshotRepo {
	return &SnapshotRepo{clock: clock}
}

func (r *SnapshotRepo) Save(_ context.Context, cart *domain.Cart) error {
	data, err := snapshot.Encode(cart, r.clock.Now())
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}

	r.mu.Lock()
	r.data = data
	r.mu.Unlock()

	return nil
}

func (r *SnapshotRepo) Load(_ context.Context) (*domain.Cart, error) {
	r.mu.RLock()
	data := r.data
	r.mu.RUnlock()

	if data == nil {
		return nil, e.ErrSnapshotNotFound
	}

	cart, err := snapshot.Decode(data)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return cart, nil
}
