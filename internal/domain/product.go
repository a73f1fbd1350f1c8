package domain

import "github.com/shopspring/decimal"

// ProductSnapshot — копия данных товара на момент добавления в корзину, а не живая ссылка на каталог.
type ProductSnapshot struct {
	ID           string
	Name         string
	Slug         string
	Price        decimal.Decimal  // обычная цена
	SalePrice    *decimal.Decimal // цена со скидкой, если есть
	CurrentPrice decimal.Decimal  // действующая цена, по ней считается подытог
	Image        string
	Stock        int // доступный остаток
}

// EffectivePrice возвращает цену, по которой считается строка корзины.
// Значение от сервера приоритетно; если его нет, берётся скидочная цена, затем обычная.
func (p ProductSnapshot) EffectivePrice() decimal.Decimal {
	if !p.CurrentPrice.IsZero() {
		return p.CurrentPrice
	}
	if p.SalePrice != nil && p.SalePrice.IsPositive() {
		return *p.SalePrice
	}

	return p.Price
}

func (p ProductSnapshot) clone() ProductSnapshot {
	out := p
	if p.SalePrice != nil {
		sale := *p.SalePrice
		out.SalePrice = &sale
	}

	return out
}
