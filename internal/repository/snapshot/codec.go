// Package snapshot — формат сохранения корзины, общий для всех хранилищ.
//
// Сохраняется только сама корзина: признаки ожидания, таймеры и ошибка эфемерны.
// Итоги (TotalItems, Subtotal) не хранятся и пересчитываются при чтении.
package snapshot

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/DRSN-tech/cart-sync/internal/domain"
	"github.com/DRSN-tech/cart-sync/pkg/e"
	"github.com/jimlawless/whereami"
)

// SchemaVersion — текущая версия формата.
const SchemaVersion = 1

// Encode сериализует корзину. nil сохраняется как отсутствующая корзина.
func Encode(cart *domain.Cart, savedAt time.Time) ([]byte, error) {
	data, err := json.Marshal(Envelope{
		SchemaVersion: SchemaVersion,
		SavedAt:       savedAt.UTC(),
		Cart:          ToModel(cart),
	})
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return data, nil
}

// Decode разбирает снимок. Неизвестная версия схемы даёт e.ErrUnsupportedSnapshot.
func Decode(data []byte) (*domain.Cart, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if env.SchemaVersion != SchemaVersion {
		return nil, e.Wrap(fmt.Sprintf("schema_version=%d", env.SchemaVersion), e.ErrUnsupportedSnapshot)
	}

	return ToDomain(env.Cart), nil
}

func ToModel(cart *domain.Cart) *CartModel {
	if cart == nil {
		return nil
	}

	items := make([]CartItemModel, 0, len(cart.Items))
	for _, it := range cart.Items {
		items = append(items, CartItemModel{
			ID: it.ID,
			Product: ProductModel{
				ID:           it.Product.ID,
				Name:         it.Product.Name,
				Slug:         it.Product.Slug,
				Price:        it.Product.Price,
				SalePrice:    it.Product.SalePrice,
				CurrentPrice: it.Product.CurrentPrice,
				Image:        it.Product.Image,
				Stock:        it.Product.Stock,
			},
			Quantity: it.Quantity,
		})
	}

	return &CartModel{ID: cart.ID, Items: items}
}

func ToDomain(model *CartModel) *domain.Cart {
	if model == nil {
		return nil
	}

	items := make([]domain.CartItem, 0, len(model.Items))
	for _, it := range model.Items {
		items = append(items, domain.CartItem{
			ID: it.ID,
			Product: domain.ProductSnapshot{
				ID:           it.Product.ID,
				Name:         it.Product.Name,
				Slug:         it.Product.Slug,
				Price:        it.Product.Price,
				SalePrice:    it.Product.SalePrice,
				CurrentPrice: it.Product.CurrentPrice,
				Image:        it.Product.Image,
				Stock:        it.Product.Stock,
			},
			Quantity: it.Quantity,
		})
	}

	return domain.NewCart(model.ID, items)
}
