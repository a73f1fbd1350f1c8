package usecase

import (
	"context"

	"github.com/DRSN-tech/cart-sync/internal/domain"
)

// CartService — удалённый сервис корзины, источник истины.
type CartService interface {
	GetCart(ctx context.Context) (*domain.Cart, error)
	AddItem(ctx context.Context, productID string, quantity int) (*domain.Cart, error)
	UpdateItem(ctx context.Context, itemID string, quantity int) error
	RemoveItem(ctx context.Context, itemID string) error
	ClearCart(ctx context.Context) error
}

// EventPublisher публикует события корзины. Ошибки публикации не влияют на состояние корзины.
type EventPublisher interface {
	Publish(ctx context.Context, event *CartEvent) error
}
