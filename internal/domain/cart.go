package domain

import "github.com/shopspring/decimal"

// moneyPlaces — точность денежных сумм.
const moneyPlaces = 2

// CartItem — строка корзины.
type CartItem struct {
	ID       string
	Product  ProductSnapshot
	Quantity int
	Subtotal decimal.Decimal // CurrentPrice * Quantity
}

// Cart — корзина. TotalItems и Subtotal производные и пересчитываются Recalculate.
// Отсутствующая корзина представлена nil.
type Cart struct {
	ID         string
	Items      []CartItem
	TotalItems int
	Subtotal   decimal.Decimal
}

// NewCart собирает корзину из строк и сразу восстанавливает инварианты.
func NewCart(id string, items []CartItem) *Cart {
	c := &Cart{ID: id, Items: items}
	c.Recalculate()
	return c
}

// Recalculate пересчитывает подытоги строк и итоги корзины:
//
//	item.Subtotal = item.Product.CurrentPrice * item.Quantity
//	cart.Subtotal = Σ item.Subtotal
//	cart.TotalItems = Σ item.Quantity
func (c *Cart) Recalculate() {
	if c == nil {
		return
	}

	total := 0
	subtotal := decimal.Zero
	for i := range c.Items {
		item := &c.Items[i]
		item.Product.CurrentPrice = item.Product.EffectivePrice()
		item.Subtotal = item.Product.CurrentPrice.
			Mul(decimal.NewFromInt(int64(item.Quantity))).
			Round(moneyPlaces)

		total += item.Quantity
		subtotal = subtotal.Add(item.Subtotal)
	}

	c.TotalItems = total
	c.Subtotal = subtotal
}

// Clone возвращает глубокую копию корзины. nil остаётся nil.
func (c *Cart) Clone() *Cart {
	if c == nil {
		return nil
	}

	out := *c
	if c.Items != nil {
		out.Items = make([]CartItem, len(c.Items))
		for i, item := range c.Items {
			item.Product = item.Product.clone()
			out.Items[i] = item
		}
	}

	return &out
}

// FindItem ищет строку по ID товара.
func (c *Cart) FindItem(productID string) (CartItem, bool) {
	if c == nil {
		return CartItem{}, false
	}

	for _, item := range c.Items {
		if item.Product.ID == productID {
			return item, true
		}
	}

	return CartItem{}, false
}

// WithQuantity возвращает новую корзину, в которой у товара productID количество quantity.
// Проверка остатка — забота вызывающего кода.
func (c *Cart) WithQuantity(productID string, quantity int) *Cart {
	out := c.Clone()
	if out == nil {
		return nil
	}

	for i := range out.Items {
		if out.Items[i].Product.ID == productID {
			out.Items[i].Quantity = quantity
		}
	}
	out.Recalculate()

	return out
}

// Without возвращает новую корзину без строки товара productID.
func (c *Cart) Without(productID string) *Cart {
	out := c.Clone()
	if out == nil {
		return nil
	}

	items := make([]CartItem, 0, len(out.Items))
	for _, item := range out.Items {
		if item.Product.ID != productID {
			items = append(items, item)
		}
	}
	out.Items = items
	out.Recalculate()

	return out
}

// ProductIDs возвращает ID товаров в порядке строк.
func (c *Cart) ProductIDs() []string {
	if c == nil {
		return nil
	}

	ids := make([]string, 0, len(c.Items))
	for _, item := range c.Items {
		ids = append(ids, item.Product.ID)
	}

	return ids
}

// ValidateQuantity проверяет 1 ≤ quantity ≤ stock.
func ValidateQuantity(quantity, stock int) error {
	if quantity < 1 {
		return ErrQuantityTooLow
	}
	if quantity > stock {
		return &StockError{Available: stock}
	}

	return nil
}
