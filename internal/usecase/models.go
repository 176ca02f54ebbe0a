package usecase

import (
	"time"

	"github.com/DRSN-tech/storefront/internal/domain"
)

// CHECKOUT

// CheckoutReq — запрос на оформление заказа. Цены клиента не передаются.
type CheckoutReq struct {
	Lines         []domain.CartLine
	PaymentMethod domain.PaymentMethod
	Customer      domain.CustomerSnapshot
}

// CheckoutRes — результат оформления. Для ONLINE содержит параметры для виджета оплаты.
type CheckoutRes struct {
	OrderID       int64
	GatewayRef    string
	PaymentMethod domain.PaymentMethod
	Amount        int64
	Currency      string
	KeyID         string // публичный ключ шлюза, только для ONLINE
}

// CreateGatewayOrderReq — создание заказа на стороне шлюза.
type CreateGatewayOrderReq struct {
	Amount   int64
	Currency string
	Receipt  string
}

// GatewayOrder — заказ, созданный шлюзом.
type GatewayOrder struct {
	ID       string
	Amount   int64
	Currency string
}

// PAYMENT

// VerifyPaymentReq — подтверждение оплаты от клиента после виджета.
type VerifyPaymentReq struct {
	GatewayOrderID string
	PaymentID      string
	Signature      string
}

// WebhookReq — сырое тело вебхука и подпись из заголовка.
type WebhookReq struct {
	Body      []byte
	Signature string
}

// ReconcileResult — исход сверки оплаты.
type ReconcileResult string

const (
	ReconcileProcessed        ReconcileResult = "processed"
	ReconcileAlreadyProcessed ReconcileResult = "already_processed"
	ReconcileUnknownOrder     ReconcileResult = "unknown_order"
	ReconcileNotEligible      ReconcileResult = "not_eligible" // заказ не ждёт онлайн-оплаты
	ReconcileSkippedEvent     ReconcileResult = "skipped_event"
)

// PaymentSource — откуда пришло подтверждение оплаты.
type PaymentSource string

const (
	SourceWebhook PaymentSource = "webhook"
	SourceClient  PaymentSource = "client"
)

// ORDERS

// UpdateOrderStatusReq — запрос оператора на смену статуса.
type UpdateOrderStatusReq struct {
	OrderID     int64
	Status      string
	TrackingRef string
}

type UpdateOrderStatusRes struct {
	Changed bool
	Status  domain.OrderStatus
}

// UpdateStatusParams — параметры условного обновления статуса в хранилище.
type UpdateStatusParams struct {
	OrderID     int64
	From        domain.OrderStatus
	To          domain.OrderStatus
	TrackingRef *string
	At          time.Time
}

// CART

type ValidateCartReq struct {
	Lines []domain.CartLine
}

// ValidatedCartItem — позиция корзины с актуальной ценой и скорректированным количеством.
type ValidatedCartItem struct {
	ProductID int64
	Name      string
	ImageURL  string
	Quantity  int
	Price     int64
	LineTotal int64
}

type ValidateCartRes struct {
	Total    int64
	Items    []ValidatedCartItem
	Warnings []string
}

// PRODUCTS

// ProductReq — данные товара для создания и полного обновления.
type ProductReq struct {
	Name        string
	Description string
	Price       int64
	Stock       int
	ImageURL    string
	IsActive    bool
}

type SignUploadReq struct {
	FileName    string
	ContentType string
}

// PresignedUpload — подписанная ссылка для прямой загрузки изображения в хранилище.
type PresignedUpload struct {
	UploadURL string
	ObjectKey string
	PublicURL string
	ExpiresAt time.Time
}

// AUTH

type LoginReq struct {
	Password string
}

type LoginRes struct {
	Token     string
	ExpiresAt time.Time
}

type AdminClaims struct {
	Subject   string
	Role      string
	ExpiresAt time.Time
}

// NOTIFICATIONS

// OrderNotification — данные для письма о заказе покупателю и оператору.
type OrderNotification struct {
	OrderID      int64
	GatewayRef   string
	Customer     domain.CustomerSnapshot
	Amount       int64
	Currency     string
	PaymentLabel string
	Items        []NotificationItem
	// Shortfall заполняется, если при подтверждении оплаты остатка не хватило.
	Shortfall []StockShortfall
}

// StockShortfall — позиция оплаченного заказа, которую не удалось списать со склада.
type StockShortfall struct {
	ProductID int64
	Name      string
	Requested int
	Available int
}

type NotificationItem struct {
	ProductID       int64
	Name            string
	Quantity        int
	PriceAtPurchase int64
}

// OUTBOX

type OutboxStatus string

const (
	Pending    OutboxStatus = "pending"
	Processing OutboxStatus = "processing"
	Processed  OutboxStatus = "processed"
)

const EventOrderConfirmation = "order.confirmation"

// OutboxEvent — событие, ожидающее публикации в брокер.
type OutboxEvent struct {
	ID          int64
	EventID     string
	EventType   string
	AggregateID int64
	Payload     []byte
	Status      OutboxStatus
	Attempts    int
	CreatedAt   time.Time
	ProcessedAt *time.Time
}

type WriteRawMessageReq struct {
	Key     string
	Payload []byte
	Headers map[string]string
}

// MAPPERS

func NewCheckoutRes(order *domain.Order, keyID string) *CheckoutRes {
	return &CheckoutRes{
		OrderID:       order.ID,
		GatewayRef:    order.GatewayRef,
		PaymentMethod: order.PaymentMethod,
		Amount:        order.Amount,
		Currency:      order.Currency,
		KeyID:         keyID,
	}
}

func NewOrderNotification(order *domain.Order, label string) *OrderNotification {
	items := make([]NotificationItem, 0, len(order.Items))
	for _, it := range order.Items {
		items = append(items, NotificationItem{
			ProductID:       it.ProductID,
			Name:            it.ProductName,
			Quantity:        it.Quantity,
			PriceAtPurchase: it.PriceAtPurchase,
		})
	}

	return &OrderNotification{
		OrderID:      order.ID,
		GatewayRef:   order.GatewayRef,
		Customer:     order.Customer,
		Amount:       order.Amount,
		Currency:     order.Currency,
		PaymentLabel: label,
		Items:        items,
	}
}

func NewOutboxEvent(eventID, eventType string, aggregateID int64, payload []byte) *OutboxEvent {
	return &OutboxEvent{
		EventID:     eventID,
		EventType:   eventType,
		AggregateID: aggregateID,
		Payload:     payload,
		Status:      Pending,
	}
}

func NewWriteRawMessageReq(key string, payload []byte, headers map[string]string) *WriteRawMessageReq {
	return &WriteRawMessageReq{
		Key:     key,
		Payload: payload,
		Headers: headers,
	}
}
