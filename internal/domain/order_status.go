package domain

import (
	"github.com/DRSN-tech/storefront/pkg/e"
)

// OrderStatus — закрытое множество статусов заказа.
type OrderStatus string

const (
	StatusPending    OrderStatus = "PENDING"     // ожидает онлайн-оплаты
	StatusCODPending OrderStatus = "COD_PENDING" // наложенный платёж, остаток уже списан
	StatusPaid       OrderStatus = "PAID"
	StatusConfirmed  OrderStatus = "CONFIRMED"
	StatusShipped    OrderStatus = "SHIPPED"
	StatusDelivered  OrderStatus = "DELIVERED"
	StatusCancelled  OrderStatus = "CANCELLED"

	// StatusUnknown — значение, которое не удалось распознать при чтении из хранилища.
	// Из него разрешена только отмена.
	StatusUnknown OrderStatus = "UNKNOWN"
)

// transitions — допустимые переходы. Терминальные статусы отсутствуют в таблице.
var transitions = map[OrderStatus][]OrderStatus{
	StatusPending:    {StatusConfirmed, StatusCancelled},
	StatusCODPending: {StatusConfirmed, StatusCancelled},
	StatusPaid:       {StatusConfirmed, StatusCancelled},
	StatusConfirmed:  {StatusShipped, StatusCancelled},
	StatusShipped:    {StatusDelivered},
	StatusUnknown:    {StatusCancelled},
}

// paymentProgress — порядок статусов для проверки "уже оплачен или дальше".
var paymentProgress = map[OrderStatus]int{
	StatusPending:   0,
	StatusPaid:      1,
	StatusConfirmed: 2,
	StatusShipped:   3,
	StatusDelivered: 4,
}

// ParseOrderStatus разбирает значение из хранилища. Нераспознанное значение
// превращается в StatusUnknown, а не в ошибку.
func ParseOrderStatus(s string) OrderStatus {
	switch st := OrderStatus(s); st {
	case StatusPending, StatusCODPending, StatusPaid, StatusConfirmed,
		StatusShipped, StatusDelivered, StatusCancelled:
		return st
	default:
		return StatusUnknown
	}
}

// ParseRequestedStatus разбирает статус, запрошенный оператором.
// PENDING и UNKNOWN запросить нельзя.
func ParseRequestedStatus(s string) (OrderStatus, error) {
	st := ParseOrderStatus(s)
	if st == StatusUnknown || st == StatusPending {
		return "", e.Wrap(s, e.ErrInvalidStatus)
	}
	return st, nil
}

func (s OrderStatus) String() string {
	return string(s)
}

func (s OrderStatus) IsTerminal() bool {
	return s == StatusDelivered || s == StatusCancelled
}

// IsPaidOrLater сообщает, что онлайн-оплата по заказу уже учтена.
func (s OrderStatus) IsPaidOrLater() bool {
	rank, ok := paymentProgress[s]
	return ok && rank >= paymentProgress[StatusPaid]
}

// CheckTransition проверяет переход s -> to.
// Переход в текущий статус не проверяется здесь: вызывающий обрабатывает его как no-op.
func (s OrderStatus) CheckTransition(to OrderStatus, trackingRef string) error {
	if s.IsTerminal() {
		return e.ErrOrderFinalized
	}

	allowed := false
	for _, next := range transitions[s] {
		if next == to {
			allowed = true
			break
		}
	}
	if !allowed {
		return &e.TransitionError{From: s.String(), To: to.String()}
	}

	if to == StatusShipped && trackingRef == "" {
		return e.ErrTrackingRequired
	}

	return nil
}
