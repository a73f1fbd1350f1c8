package cartservice

import (
	"github.com/DRSN-tech/cart-sync/internal/domain"
	"github.com/shopspring/decimal"
)

// Модели обмена с сервисом корзины.

type ProductDTO struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Slug         string           `json:"slug"`
	Price        decimal.Decimal  `json:"price"`
	SalePrice    *decimal.Decimal `json:"sale_price"`
	CurrentPrice decimal.Decimal  `json:"current_price"`
	Image        string           `json:"image"`
	Stock        int              `json:"stock"`
}

type CartItemDTO struct {
	ID       string          `json:"id"`
	Product  ProductDTO      `json:"product"`
	Quantity int             `json:"quantity"`
	Subtotal decimal.Decimal `json:"subtotal"`
}

type CartDTO struct {
	ID         string          `json:"id"`
	Items      []CartItemDTO   `json:"items"`
	TotalItems int             `json:"total_items"`
	Subtotal   decimal.Decimal `json:"subtotal"`
}

type AddItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type AddItemResponse struct {
	Cart CartDTO `json:"cart"`
}

type UpdateItemRequest struct {
	Quantity int `json:"quantity"`
}

// ErrorBody — тело ответа с ошибкой. Сервис может прислать сообщение в message или в error.
type ErrorBody struct {
	Message string `json:"message,omitempty"`
	Error   string `json:"error,omitempty"`
}

// ToDomainCart переводит ответ сервиса в доменную корзину. Производные поля пересчитываются локально.
func ToDomainCart(dto *CartDTO) *domain.Cart {
	if dto == nil {
		return nil
	}

	items := make([]domain.CartItem, 0, len(dto.Items))
	for _, it := range dto.Items {
		items = append(items, domain.CartItem{
			ID:       it.ID,
			Product:  toDomainProduct(it.Product),
			Quantity: it.Quantity,
		})
	}

	return domain.NewCart(dto.ID, items)
}

// FromDomainCart переводит доменную корзину в модель обмена.
func FromDomainCart(cart *domain.Cart) CartDTO {
	if cart == nil {
		return CartDTO{Items: []CartItemDTO{}, Subtotal: decimal.Zero}
	}

	items := make([]CartItemDTO, 0, len(cart.Items))
	for _, it := range cart.Items {
		items = append(items, CartItemDTO{
			ID:       it.ID,
			Product:  fromDomainProduct(it.Product),
			Quantity: it.Quantity,
			Subtotal: it.Subtotal,
		})
	}

	return CartDTO{
		ID:         cart.ID,
		Items:      items,
		TotalItems: cart.TotalItems,
		Subtotal:   cart.Subtotal,
	}
}

func toDomainProduct(p ProductDTO) domain.ProductSnapshot {
	return domain.ProductSnapshot{
		ID:           p.ID,
		Name:         p.Name,
		Slug:         p.Slug,
		Price:        p.Price,
		SalePrice:    p.SalePrice,
		CurrentPrice: p.CurrentPrice,
		Image:        p.Image,
		Stock:        p.Stock,
	}
}

func fromDomainProduct(p domain.ProductSnapshot) ProductDTO {
	return ProductDTO{
		ID:           p.ID,
		Name:         p.Name,
		Slug:         p.Slug,
		Price:        p.Price,
		SalePrice:    p.SalePrice,
		CurrentPrice: p.CurrentPrice,
		Image:        p.Image,
		Stock:        p.Stock,
	}
}
