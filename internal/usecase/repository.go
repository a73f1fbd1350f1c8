package usecase

import (
	"context"

	"github.com/DRSN-tech/cart-sync/internal/domain"
)

// SnapshotStore сохраняет корзину между перезапусками.
// Хранится только сама корзина: отметки pending и таймеры всегда начинаются пустыми.
type SnapshotStore interface {
	// Save сохраняет корзину; nil означает отсутствующую корзину.
	Save(ctx context.Context, cart *domain.Cart) error
	// Load возвращает сохранённую корзину или e.ErrSnapshotNotFound.
	Load(ctx context.Context) (*domain.Cart, error)
}
