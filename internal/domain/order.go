package domain

import "time"

// PaymentMethod — способ оплаты заказа.
type PaymentMethod string

const (
	PaymentOnline PaymentMethod = "ONLINE"
	PaymentCOD    PaymentMethod = "COD"
)

func (p PaymentMethod) Valid() bool {
	return p == PaymentOnline || p == PaymentCOD
}

// InitialStatus — статус, с которым создаётся заказ.
func (p PaymentMethod) InitialStatus() OrderStatus {
	if p == PaymentCOD {
		return StatusCODPending
	}
	return StatusPending
}

// Address — структурированный адрес доставки.
type Address struct {
	Line1   string `json:"line1"`
	City    string `json:"city"`
	State   string `json:"state"`
	Pincode string `json:"pincode"`
}

// CustomerSnapshot фиксирует данные покупателя на момент оформления.
// После создания заказа снимок не меняется.
type CustomerSnapshot struct {
	Name    string  `json:"name"`
	Phone   string  `json:"phone"`
	Email   string  `json:"email,omitempty"`
	Address Address `json:"address"`
}

// Order — заказ. Amount в минорных единицах.
type Order struct {
	ID            int64
	GatewayRef    string // внешний идентификатор заказа в платёжном шлюзе (или COD_<uuid>)
	Amount        int64
	Currency      string
	Status        OrderStatus
	PaymentMethod PaymentMethod
	Customer      CustomerSnapshot
	TrackingRef   *string
	ShippedAt     *time.Time
	DeliveredAt   *time.Time
	CreatedAt     time.Time
	Items         []OrderItem
}

// OrderItem — строка заказа с ценой, зафиксированной при покупке.
type OrderItem struct {
	ID              int64
	OrderID         int64
	ProductID       int64
	Quantity        int
	PriceAtPurchase int64

	// Заполняются только при чтении деталей заказа
	ProductName     string
	ProductImageURL string
}

func (i OrderItem) LineTotal() int64 {
	return i.PriceAtPurchase * int64(i.Quantity)
}

func NewOrder(gatewayRef string, amount int64, currency string, method PaymentMethod, customer CustomerSnapshot, items []OrderItem) *Order {
	return &Order{
		GatewayRef:    gatewayRef,
		Amount:        amount,
		Currency:      currency,
		Status:        method.InitialStatus(),
		PaymentMethod: method,
		Customer:      customer,
		Items:         items,
	}
}
