package domain

import (
	"fmt"

	"github.com/DRSN-tech/cart-sync/pkg/e"
)

// ErrQuantityTooLow — количество меньше единицы.
var ErrQuantityTooLow = e.ErrInvalidQuantity

// StockError — запрошено больше, чем есть на складе.
type StockError struct {
	Available int
}

// Error возвращает сообщение для пользователя.
func (s *StockError) Error() string {
	return fmt.Sprintf("Only %d items available", s.Available)
}

func (s *StockError) Unwrap() error {
	return e.ErrInsufficientStock
}
