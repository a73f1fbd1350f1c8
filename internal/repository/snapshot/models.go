package snapshot

import (
	"time"

	"github.com/shopspring/decimal"
)

// Envelope — сохраняемое представление корзины. Версия схемы проверяется при чтении.
type Envelope struct {
	SchemaVersion int        `json:"schema_version"`
	SavedAt       time.Time  `json:"saved_at"`
	Cart          *CartModel `json:"cart"`
}

type CartModel struct {
	ID    string          `json:"id"`
	Items []CartItemModel `json:"items"`
}

type CartItemModel struct {
	ID       string       `json:"id"`
	Product  ProductModel `json:"product"`
	Quantity int          `json:"quantity"`
}

type ProductModel struct {
	ID           string           `json:"id"`
	Name         string           `json:"name"`
	Slug         string           `json:"slug"`
	Price        decimal.Decimal  `json:"price"`
	SalePrice    *decimal.Decimal `json:"sale_price,omitempty"`
	CurrentPrice decimal.Decimal  `json:"current_price"`
	Image        string           `json:"image,omitempty"`
	Stock        int              `json:"stock"`
}
