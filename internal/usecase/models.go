package usecase

import (
	"time"

	"github.com/DRSN-tech/cart-sync/internal/domain"
)

// CartState — снимок состояния для слоя представления. Корзина — независимая копия.
type CartState struct {
	Cart    *domain.Cart
	Loading bool
	Error   string
	Pending []string // ID товаров с неподтверждённым изменением, по возрастанию
}

// IsPending сообщает, ожидает ли товар подтверждения сервером.
func (s CartState) IsPending(productID string) bool {
	for _, id := range s.Pending {
		if id == productID {
			return true
		}
	}
	return false
}

// EventType — тип события корзины.
type EventType string

const (
	EventItemAdded         EventType = "item_added"
	EventQuantityCommitted EventType = "quantity_committed"
	EventItemRemoved       EventType = "item_removed"
	EventCartCleared       EventType = "cart_cleared"
	EventRollback          EventType = "rollback"
)

// CartEvent — событие, подтверждённое (или откаченное) сервисом корзины.
type CartEvent struct {
	ID         string
	Type       EventType
	CartID     string
	ProductID  string
	Quantity   int
	Operation  string // для rollback: какая операция откатилась
	OccurredAt time.Time
}
