package usecase

import "context"

// PaymentGateway — адаптер платёжного шлюза.
type PaymentGateway interface {
	CreateOrder(ctx context.Context, req *CreateGatewayOrderReq) (*GatewayOrder, error)
	VerifyPaymentSignature(orderID, paymentID, signature string) bool
	VerifyWebhookSignature(body []byte, signature string) bool
	KeyID() string
}

// Notifier отправляет подтверждение заказа. Ошибки не возвращаются вызывающему:
// уведомление не влияет на уже зафиксированный заказ.
type Notifier interface {
	SendOrderConfirmation(ctx context.Context, n *OrderNotification)
}

// RateLimiter разрешает не более одного действия на ключ за интервал.
type RateLimiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

type MessageProducer interface {
	WriteRawMessage(ctx context.Context, req *WriteRawMessageReq) error
}

// Metrics — бизнес-метрики, которые пишут юзкейсы.
type Metrics interface {
	OrderCreated(method string)
	PaymentReconciled(source, result string)
	StatusChanged(from, to string)
	StockShortfall(source string)
}
