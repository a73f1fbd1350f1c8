package usecase

import "context"

// CartSyncUC — операции движка синхронизации корзины, доступные слою представления.
type CartSyncUC interface {
	AddToCart(ctx context.Context, productID string, quantity int) error
	UpdateQuantity(ctx context.Context, productID string, quantity int) error
	RemoveFromCart(ctx context.Context, productID string) error
	ClearCart(ctx context.Context) error
	FetchCart(ctx context.Context) error
	SyncCart(ctx context.Context) error
	ClearError()
	State() CartState
}
