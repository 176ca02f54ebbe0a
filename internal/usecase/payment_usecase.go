package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/DRSN-tech/storefront/internal/domain"
	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/DRSN-tech/storefront/pkg/logger"
	"go.opentelemetry.io/otel/attribute"
)

const (
	eventPaymentCaptured = "payment.captured"

	labelWebhook  = "ONLINE (Razorpay)"
	labelVerified = "ONLINE (Razorpay Verified)"
)

// webhookPayload — минимальная часть тела вебхука, нужная для сверки.
type webhookPayload struct {
	Event   string `json:"event"`
	Payload struct {
		Payment struct {
			Entity struct {
				ID      string `json:"id"`
				OrderID string `json:"order_id"`
			} `json:"entity"`
		} `json:"payment"`
	} `json:"payload"`
}

// PaymentUseCase сверяет оплату: переводит заказ PENDING -> PAID и списывает остатки.
// Вебхук и клиентское подтверждение могут прийти одновременно, списание происходит ровно один раз.
type PaymentUseCase struct {
	tm          TxManager
	orderRepo   OrderRepository
	productRepo ProductRepository
	gateway     PaymentGateway
	notifier    Notifier
	metrics     Metrics
	logger      logger.Logger
}

func NewPaymentUC(
	tm TxManager,
	orderRepo OrderRepository,
	productRepo ProductRepository,
	gateway PaymentGateway,
	notifier Notifier,
	metrics Metrics,
	logger logger.Logger,
) *PaymentUseCase {
	return &PaymentUseCase{
		tm:          tm,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		gateway:     gateway,
		notifier:    notifier,
		metrics:     metrics,
		logger:      logger,
	}
}

// VerifyPayment обрабатывает подтверждение оплаты, присланное клиентом после виджета шлюза.
// Неизвестный заказ для клиента — ошибка ErrOrderNotFound.
func (p *PaymentUseCase) VerifyPayment(ctx context.Context, req *VerifyPaymentReq) (ReconcileResult, error) {
	const op = "PaymentUseCase.VerifyPayment"

	if req.GatewayOrderID == "" || req.PaymentID == "" || req.Signature == "" {
		return "", e.Wrap(op, e.ErrValidation)
	}

	if !p.gateway.VerifyPaymentSignature(req.GatewayOrderID, req.PaymentID, req.Signature) {
		p.logger.Warnf("%s: invalid payment signature, order_ref=%s", op, req.GatewayOrderID)
		return "", e.Wrap(op, e.ErrInvalidSignature)
	}

	res, err := p.reconcile(ctx, req.GatewayOrderID, SourceClient)
	if err != nil {
		return "", e.Wrap(op, err)
	}

	if res == ReconcileUnknownOrder {
		return res, e.Wrap(op, e.ErrOrderNotFound)
	}

	return res, nil
}

// HandleWebhook обрабатывает вебхук шлюза. Учитывается только payment.captured,
// прочие события подтверждаются без действий.
func (p *PaymentUseCase) HandleWebhook(ctx context.Context, req *WebhookReq) (ReconcileResult, error) {
	const op = "PaymentUseCase.HandleWebhook"

	if req.Signature == "" || !p.gateway.VerifyWebhookSignature(req.Body, req.Signature) {
		p.logger.Warnf("%s: invalid webhook signature", op)
		return "", e.Wrap(op, e.ErrInvalidSignature)
	}

	var payload webhookPayload
	if err := json.Unmarshal(req.Body, &payload); err != nil {
		return "", e.Wrap(op, errors.Join(e.ErrValidation, err))
	}

	if payload.Event != eventPaymentCaptured {
		p.logger.Debugf("%s: skipping event %q", op, payload.Event)
		p.metrics.PaymentReconciled(string(SourceWebhook), string(ReconcileSkippedEvent))
		return ReconcileSkippedEvent, nil
	}

	orderRef := payload.Payload.Payment.Entity.OrderID
	if orderRef == "" {
		return "", e.Wrap(op, e.ErrValidation)
	}

	res, err := p.reconcile(ctx, orderRef, SourceWebhook)
	if err != nil {
		return "", e.Wrap(op, err)
	}

	return res, nil
}

// reconcile идемпотентно отмечает заказ оплаченным.
// Строка заказа блокируется на время транзакции, поэтому из двух конкурентных вызовов
// переход выполняет только первый, а второй видит PAID и ничего не меняет.
func (p *PaymentUseCase) reconcile(ctx context.Context, orderRef string, source PaymentSource) (res ReconcileResult, err error) {
	const op = "PaymentUseCase.reconcile"

	ctx, span := startSpan(ctx, op,
		attribute.String("order_ref", orderRef),
		attribute.String("source", string(source)),
	)
	defer func() {
		span.SetAttributes(attribute.String("result", string(res)))
		endSpan(span, err)
	}()

	var (
		order     *domain.Order
		result    ReconcileResult
		shortfall []StockShortfall
	)
	err = p.tm.Do(ctx, func(ctx context.Context) error {
		var err error
		order, err = p.orderRepo.GetByGatewayRefForUpdate(ctx, orderRef)
		if err != nil {
			if errors.Is(err, e.ErrOrderNotFound) {
				result = ReconcileUnknownOrder
				return nil
			}
			return err
		}

		if order.Status.IsPaidOrLater() {
			result = ReconcileAlreadyProcessed
			return nil
		}
		if order.Status != domain.StatusPending {
			result = ReconcileNotEligible
			return nil
		}

		if err := p.orderRepo.UpdateStatus(ctx, &UpdateStatusParams{
			OrderID: order.ID,
			From:    domain.StatusPending,
			To:      domain.StatusPaid,
			At:      time.Now(),
		}); err != nil {
			return err
		}

		// оплата уже списана шлюзом: нехватка остатка не отменяет перевод в PAID
		shortfall, err = p.deductPaidItems(ctx, order.Items)
		if err != nil {
			return err
		}

		order.Status = domain.StatusPaid
		result = ReconcileProcessed
		return nil
	})
	if err != nil {
		// заказ остаётся PENDING, шлюз повторит вебхук позже
		p.logger.Errorf(err, "%s: payment reconciliation failed, order_ref=%s source=%s", op, orderRef, source)
		p.metrics.PaymentReconciled(string(source), "error")
		return "", err
	}

	p.metrics.PaymentReconciled(string(source), string(result))

	switch result {
	case ReconcileProcessed:
		p.logger.Infof("order %d marked as PAID, order_ref=%s source=%s", order.ID, orderRef, source)
		label := labelWebhook
		if source == SourceClient {
			label = labelVerified
		}
		notification := NewOrderNotification(order, label)
		if len(shortfall) > 0 {
			p.metrics.StockShortfall(string(source))
			p.logger.Errorf(&e.InsufficientStockError{
				ProductID:   shortfall[0].ProductID,
				ProductName: shortfall[0].Name,
				Requested:   shortfall[0].Requested,
				Available:   shortfall[0].Available,
			}, "order %d is PAID but %d line(s) could not be deducted from stock, order_ref=%s", order.ID, len(shortfall), orderRef)
			notification.Shortfall = shortfall
		}
		p.notifier.SendOrderConfirmation(ctx, notification)
	case ReconcileAlreadyProcessed:
		p.logger.Infof("order_ref=%s already processed, ignoring duplicate from %s", orderRef, source)
	case ReconcileUnknownOrder:
		p.logger.Warnf("order_ref=%s not found locally, source=%s", orderRef, source)
	case ReconcileNotEligible:
		p.logger.Warnf("order %d in status %s does not await payment, order_ref=%s source=%s", order.ID, order.Status, orderRef, source)
	}

	return result, nil
}

// deductPaidItems списывает позиции оплаченного заказа тем же условным декрементом, что и checkout.
// Позиция, на которую остатка не хватило, не списывается и возвращается в списке нехватки.
func (p *PaymentUseCase) deductPaidItems(ctx context.Context, items []domain.OrderItem) ([]StockShortfall, error) {
	var shortfall []StockShortfall
	for _, it := range items {
		ok, err := p.productRepo.DecrementStock(ctx, it.ProductID, it.Quantity)
		if err != nil {
			return nil, err
		}
		if ok {
			continue
		}

		miss := StockShortfall{ProductID: it.ProductID, Name: it.ProductName, Requested: it.Quantity}
		product, err := p.productRepo.GetByID(ctx, it.ProductID)
		switch {
		case err == nil:
			miss.Available = product.Stock
			if miss.Name == "" {
				miss.Name = product.Name
			}
		case !errors.Is(err, e.ErrProductNotFound):
			return nil, err
		}
		shortfall = append(shortfall, miss)
	}

	return shortfall, nil
}
