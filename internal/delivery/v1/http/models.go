package http

import (
	"github.com/DRSN-tech/cart-sync/internal/domain"
	"github.com/DRSN-tech/cart-sync/internal/usecase"
)

type AddItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

type UpdateQuantityRequest struct {
	Quantity int `json:"quantity"`
}

type ProductResponse struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Slug         string  `json:"slug"`
	Price        string  `json:"price"`
	SalePrice    *string `json:"sale_price"`
	CurrentPrice string  `json:"current_price"`
	Image        string  `json:"image"`
	Stock        int     `json:"stock"`
}

type CartItemResponse struct {
	ID       string          `json:"id"`
	Product  ProductResponse `json:"product"`
	Quantity int             `json:"quantity"`
	Subtotal string          `json:"subtotal"`
	Pending  bool            `json:"pending"`
}

type CartResponse struct {
	ID         string             `json:"id"`
	Items      []CartItemResponse `json:"items"`
	TotalItems int                `json:"total_items"`
	Subtotal   string             `json:"subtotal"`
}

// CartStateResponse — состояние движка корзины для отображения.
type CartStateResponse struct {
	Cart    *CartResponse `json:"cart"`
	Loading bool          `json:"loading"`
	Error   string        `json:"error,omitempty"`
	Pending []string      `json:"pending"`
}

type HealthResponse struct {
	Status string `json:"status"`
	Ready  bool   `json:"ready"`
}

func toCartStateResponse(state usecase.CartState) *CartStateResponse {
	return &CartStateResponse{
		Cart:    toCartResponse(state.Cart, state),
		Loading: state.Loading,
		Error:   state.Error,
		Pending: state.Pending,
	}
}

func toCartResponse(cart *domain.Cart, state usecase.CartState) *CartResponse {
	if cart == nil {
		return nil
	}

	items := make([]CartItemResponse, 0, len(cart.Items))
	for _, it := range cart.Items {
		var sale *string
		if it.Product.SalePrice != nil {
			s := it.Product.SalePrice.StringFixed(2)
			sale = &s
		}

		items = append(items, CartItemResponse{
			ID: it.ID,
			Product: ProductResponse{
				ID:           it.Product.ID,
				Name:         it.Product.Name,
				Slug:         it.Product.Slug,
				Price:        it.Product.Price.StringFixed(2),
				SalePrice:    sale,
				CurrentPrice: it.Product.CurrentPrice.StringFixed(2),
				Image:        it.Product.Image,
				Stock:        it.Product.Stock,
			},
			Quantity: it.Quantity,
			Subtotal: it.Subtotal.StringFixed(2),
			Pending:  state.IsPending(it.Product.ID),
		})
	}

	return &CartResponse{
		ID:         cart.ID,
		Items:      items,
		TotalItems: cart.TotalItems,
		Subtotal:   cart.Subtotal.StringFixed(2),
	}
}
