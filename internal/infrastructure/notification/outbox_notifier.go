// Package notification ставит письма о заказах в outbox. Доставку выполняет почтовый сервис,
// читающий события из Kafka.
package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/DRSN-tech/storefront/internal/cfg"
	"github.com/DRSN-tech/storefront/internal/domain"
	"github.com/DRSN-tech/storefront/internal/usecase"
	"github.com/DRSN-tech/storefront/pkg/logger"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	TemplateAdmin    = "order_admin"
	TemplateCustomer = "order_customer"
)

// EmailMessage — событие для почтового сервиса.
type EmailMessage struct {
	To       string     `json:"to"`
	From     string     `json:"from"`
	Subject  string     `json:"subject"`
	Template string     `json:"template"`
	Order    OrderEmail `json:"order"`
}

type OrderEmail struct {
	OrderID       int64          `json:"order_id"`
	PaymentMethod string         `json:"payment_method"`
	CustomerName  string         `json:"customer_name"`
	CustomerEmail string         `json:"customer_email,omitempty"`
	CustomerPhone string         `json:"customer_phone"`
	Address       domain.Address `json:"address"`
	Currency      string         `json:"currency"`
	Total         string         `json:"total"`
	Items         []EmailItem    `json:"items"`
	// Только в письме оператору: позиции, которые не удалось списать со склада.
	StockShortfall []ShortfallItem `json:"stock_shortfall,omitempty"`
}

type ShortfallItem struct {
	Name      string `json:"name"`
	Requested int    `json:"requested"`
	Available int    `json:"available"`
}

type EmailItem struct {
	Name     string `json:"name"`
	Quantity int    `json:"quantity"`
	Price    string `json:"price"`
}

// OutboxNotifier реализует usecase.Notifier. Запись в outbox идёт в фоне, после фиксации заказа:
// ошибка уведомления логируется и не влияет на заказ.
type OutboxNotifier struct {
	repo   usecase.OutboxRepository
	cfg    *cfg.NotificationCfg
	logger logger.Logger
	wg     sync.WaitGroup
}

func NewOutboxNotifier(repo usecase.OutboxRepository, cfg *cfg.NotificationCfg, logger logger.Logger) *OutboxNotifier {
	return &OutboxNotifier{
		repo:   repo,
		cfg:    cfg,
		logger: logger,
	}
}

// SendOrderConfirmation ставит письмо оператору и, если указан email, покупателю.
func (n *OutboxNotifier) SendOrderConfirmation(ctx context.Context, notification *usecase.OrderNotification) {
	messages := n.buildMessages(notification)

	n.wg.Add(1)
	go func() {
		defer n.wg.Done()

		bgCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), n.cfg.Timeout)
		defer cancel()

		for _, msg := range messages {
			if err := n.enqueue(bgCtx, notification.OrderID, msg); err != nil {
				n.logger.Errorf(err, "failed to enqueue %s email for order %d", msg.Template, notification.OrderID)
				continue
			}
			n.logger.Infof("%s email queued for order %d", msg.Template, notification.OrderID)
		}
	}()
}

// Wait дожидается фоновых записей или отмены ctx.
func (n *OutboxNotifier) Wait(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		n.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (n *OutboxNotifier) enqueue(ctx context.Context, orderID int64, msg EmailMessage) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	_, err = n.repo.Create(ctx, usecase.NewOutboxEvent(uuid.NewString(), usecase.EventOrderConfirmation, orderID, payload))
	return err
}

func (n *OutboxNotifier) buildMessages(src *usecase.OrderNotification) []EmailMessage {
	total := FormatAmount(src.Amount)

	order := OrderEmail{
		OrderID:       src.OrderID,
		PaymentMethod: src.PaymentLabel,
		CustomerName:  src.Customer.Name,
		CustomerEmail: src.Customer.Email,
		CustomerPhone: src.Customer.Phone,
		Address:       src.Customer.Address,
		Currency:      src.Currency,
		Total:         total,
		Items:         make([]EmailItem, 0, len(src.Items)),
	}
	for _, it := range src.Items {
		order.Items = append(order.Items, EmailItem{
			Name:     it.Name,
			Quantity: it.Quantity,
			Price:    FormatAmount(it.PriceAtPurchase),
		})
	}

	adminOrder := order
	subject := fmt.Sprintf("[New Order] #%d - ₹%s", src.OrderID, decimal.New(src.Amount, -2).StringFixed(0))
	if len(src.Shortfall) > 0 {
		subject += " [STOCK SHORTFALL]"
		adminOrder.StockShortfall = make([]ShortfallItem, 0, len(src.Shortfall))
		for _, s := range src.Shortfall {
			adminOrder.StockShortfall = append(adminOrder.StockShortfall, ShortfallItem{
				Name:      s.Name,
				Requested: s.Requested,
				Available: s.Available,
			})
		}
	}

	messages := []EmailMessage{{
		To:       n.cfg.AdminEmail,
		From:     n.cfg.FromAddress,
		Subject:  subject,
		Template: TemplateAdmin,
		Order:    adminOrder,
	}}

	if src.Customer.Email != "" {
		messages = append(messages, EmailMessage{
			To:       src.Customer.Email,
			From:     n.cfg.FromAddress,
			Subject:  fmt.Sprintf("Order Placed! (#%d)", src.OrderID),
			Template: TemplateCustomer,
			Order:    order,
		})
	}

	return messages
}

// FormatAmount переводит минорные единицы в строку с двумя знаками: 30000 -> "300.00".
func FormatAmount(minor int64) string {
	return decimal.New(minor, -2).StringFixed(2)
}

var _ usecase.Notifier = (*OutboxNotifier)(nil)
