package e

import "fmt"

var (
	// Внутренние ошибки с транзакциями
	ErrTransactionNotFound = fmt.Errorf("transaction not found")

	// Ошибки конфигурации
	ErrIncorrectEnvVariable = fmt.Errorf("incorrect environment variable")
	ErrMissingEnvVariable   = fmt.Errorf("missing required environment variable")

	// 400 Bad Request
	ErrStatusBadRequest     = fmt.Errorf("bad request")
	ErrValidation           = fmt.Errorf("validation failed")
	ErrEmptyCart            = fmt.Errorf("cart is empty")
	ErrInvalidQuantity      = fmt.Errorf("quantity must be positive")
	ErrInvalidPrice         = fmt.Errorf("invalid price")
	ErrPricePrecision       = fmt.Errorf("price must have at most 2 decimal places")
	ErrInvalidStatus        = fmt.Errorf("invalid order status")
	ErrTrackingRequired     = fmt.Errorf("Tracking ID is required for shipping")
	ErrUnsupportedMethod    = fmt.Errorf("unsupported payment method")
	ErrUnsupportedMediaType = fmt.Errorf("unsupported media type")

	// Бизнес-правила (400)
	ErrInsufficientStock = fmt.Errorf("insufficient stock")
	ErrInvalidTransition = fmt.Errorf("invalid status transition")
	ErrOrderFinalized    = fmt.Errorf("Cannot update a completed or cancelled order")

	// 401 Unauthorized
	ErrInvalidSignature   = fmt.Errorf("invalid signature")
	ErrUnauthorized       = fmt.Errorf("unauthorized")
	ErrInvalidCredentials = fmt.Errorf("invalid credentials")

	// 404 Not Found
	ErrProductNotFound = fmt.Errorf("product not found")
	ErrOrderNotFound   = fmt.Errorf("order not found")

	// 409 Conflict
	ErrConcurrentUpdate = fmt.Errorf("order was modified concurrently")
	ErrSlugConflict     = fmt.Errorf("could not allocate unique slug")

	// 429 Too Many Requests
	ErrTooManyRequests = fmt.Errorf("Too many requests. Please wait.")

	// 502 Bad Gateway
	ErrGatewayUnavailable = fmt.Errorf("payment gateway unavailable")

	// 500 Internal Server Error
	ErrInternalServerError = fmt.Errorf("internal server error")
)

// Wrap оборачивает ошибку
func Wrap(msg string, err error) error {
	return fmt.Errorf("%s: %w", msg, err)
}
