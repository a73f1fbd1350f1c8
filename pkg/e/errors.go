package e

import "fmt"

var (
	// Ошибки конфигурации
	ErrIncorrectEnvVariable = fmt.Errorf("incorrect environment variable")
	ErrUnknownStore         = fmt.Errorf("unknown snapshot store")

	// Внутренние ошибки с транзакциями
	ErrTransactionNotFound = fmt.Errorf("transaction not found")

	// Ошибки слоя сохранения корзины
	ErrSnapshotNotFound    = fmt.Errorf("cart snapshot not found")
	ErrUnsupportedSnapshot = fmt.Errorf("unsupported cart snapshot version")

	// Ошибки удалённого сервиса корзины
	ErrCartServiceFailed = fmt.Errorf("cart service request failed")

	// 400 Bad Request
	ErrStatusBadRequest = fmt.Errorf("bad request")
	ErrInvalidQuantity  = fmt.Errorf("quantity must be at least 1")
	ErrProductRequired  = fmt.Errorf("product id is required")

	// 404 Not Found
	ErrItemNotFound = fmt.Errorf("cart item not found")

	// 409 Conflict
	ErrInsufficientStock = fmt.Errorf("insufficient stock")

	// 500 Internal Server Error
	ErrInternalServerError = fmt.Errorf("internal server error")
)

// Wrap оборачивает ошибку
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}
