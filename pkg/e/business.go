package e

import "fmt"

// InsufficientStockError сообщает, какому товару не хватило остатка.
type InsufficientStockError struct {
	ProductID   int64
	ProductName string
	Requested   int
	Available   int
}

func (i *InsufficientStockError) Error() string {
	if i.ProductName != "" {
		return fmt.Sprintf("Insufficient stock for %s", i.ProductName)
	}
	return fmt.Sprintf("Insufficient stock for product %d", i.ProductID)
}

// Is позволяет сравнивать через errors.Is(err, ErrInsufficientStock).
func (i *InsufficientStockError) Is(target error) bool {
	return target == ErrInsufficientStock
}

// TransitionError — недопустимый переход статуса заказа.
type TransitionError struct {
	From string
	To   string
}

func (t *TransitionError) Error() string {
	return fmt.Sprintf("cannot move order from %s to %s", t.From, t.To)
}

func (t *TransitionError) Is(target error) bool {
	return target == ErrInvalidTransition
}
