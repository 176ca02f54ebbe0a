package usecase

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/DRSN-tech/storefront/internal/domain"
	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/DRSN-tech/storefront/pkg/logger"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
)

const codRefPrefix = "COD_"

// CheckoutUseCase оформляет заказ: сверяет цены и остатки, создаёт заказ и резервирует товар.
type CheckoutUseCase struct {
	tm          TxManager
	productRepo ProductRepository
	orderRepo   OrderRepository
	gateway     PaymentGateway
	notifier    Notifier
	metrics     Metrics
	currency    string
	logger      logger.Logger
	now         func() time.Time
}

func NewCheckoutUC(
	tm TxManager,
	productRepo ProductRepository,
	orderRepo OrderRepository,
	gateway PaymentGateway,
	notifier Notifier,
	metrics Metrics,
	currency string,
	logger logger.Logger,
) *CheckoutUseCase {
	return &CheckoutUseCase{
		tm:          tm,
		productRepo: productRepo,
		orderRepo:   orderRepo,
		gateway:     gateway,
		notifier:    notifier,
		metrics:     metrics,
		currency:    currency,
		logger:      logger,
		now:         time.Now,
	}
}

// Checkout проверяет корзину по живым ценам и остаткам и создаёт заказ в одной транзакции.
// Для COD остаток списывается сразу, для ONLINE заказ создаётся в шлюзе, а остаток
// списывается только после подтверждения оплаты.
func (c *CheckoutUseCase) Checkout(ctx context.Context, req *CheckoutReq) (res *CheckoutRes, err error) {
	const op = "CheckoutUseCase.Checkout"

	ctx, span := startSpan(ctx, op, attribute.String("payment_method", string(req.PaymentMethod)))
	defer func() { endSpan(span, err) }()

	if err := validateCheckout(req); err != nil {
		return nil, e.Wrap(op, err)
	}
	lines := domain.MergeLines(req.Lines)

	var order *domain.Order
	err = c.tm.Do(ctx, func(ctx context.Context) error {
		products, err := c.productRepo.GetByIDs(ctx, domain.ProductIDs(lines))
		if err != nil {
			return err
		}

		items, amount, err := priceLines(lines, products)
		if err != nil {
			return err
		}

		ref, err := c.externalRef(ctx, req.PaymentMethod, amount)
		if err != nil {
			return err
		}

		order, err = c.orderRepo.Create(ctx, domain.NewOrder(ref, amount, c.currency, req.PaymentMethod, req.Customer, items))
		if err != nil {
			return err
		}
		// имена товаров нужны для уведомления, хранилище их не возвращает
		order.Items = items

		if req.PaymentMethod == domain.PaymentCOD {
			return reserveStock(ctx, c.productRepo, items)
		}

		return nil
	})
	if err != nil {
		c.logger.Warnf("%s: checkout rejected, method=%s: %v", op, req.PaymentMethod, err)
		return nil, e.Wrap(op, err)
	}

	c.metrics.OrderCreated(string(order.PaymentMethod))
	c.logger.Infof("order created: id=%d ref=%s method=%s amount=%d", order.ID, order.GatewayRef, order.PaymentMethod, order.Amount)

	if order.PaymentMethod == domain.PaymentCOD {
		c.notifier.SendOrderConfirmation(ctx, NewOrderNotification(order, string(domain.PaymentCOD)))
		return NewCheckoutRes(order, ""), nil
	}

	return NewCheckoutRes(order, c.gateway.KeyID()), nil
}

// externalRef выдаёт внешний идентификатор заказа: токен COD_ или id заказа в шлюзе.
func (c *CheckoutUseCase) externalRef(ctx context.Context, method domain.PaymentMethod, amount int64) (string, error) {
	if method == domain.PaymentCOD {
		return codRefPrefix + uuid.NewString(), nil
	}

	gwOrder, err := c.gateway.CreateOrder(ctx, &CreateGatewayOrderReq{
		Amount:   amount,
		Currency: c.currency,
		Receipt:  "receipt_" + strconv.FormatInt(c.now().UnixMilli(), 10),
	})
	if err != nil {
		if errors.Is(err, e.ErrGatewayUnavailable) {
			return "", err
		}
		return "", fmt.Errorf("%w: %w", e.ErrGatewayUnavailable, err)
	}

	return gwOrder.ID, nil
}

func validateCheckout(req *CheckoutReq) error {
	if !req.PaymentMethod.Valid() {
		return e.ErrUnsupportedMethod
	}
	if len(req.Lines) == 0 {
		return e.ErrEmptyCart
	}
	for _, l := range req.Lines {
		if l.Quantity <= 0 {
			return e.Wrap(fmt.Sprintf("product %d", l.ProductID), e.ErrInvalidQuantity)
		}
	}
	return nil
}

// priceLines строит позиции заказа по ценам из хранилища и проверяет остатки.
func priceLines(lines []domain.CartLine, products []domain.Product) ([]domain.OrderItem, int64, error) {
	byID := make(map[int64]domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	var amount int64
	items := make([]domain.OrderItem, 0, len(lines))
	for _, l := range lines {
		p, ok := byID[l.ProductID]
		if !ok || !p.IsActive {
			return nil, 0, e.Wrap(fmt.Sprintf("product %d", l.ProductID), e.ErrProductNotFound)
		}
		if l.Quantity > p.Stock {
			return nil, 0, &e.InsufficientStockError{
				ProductID:   p.ID,
				ProductName: p.Name,
				Requested:   l.Quantity,
				Available:   p.Stock,
			}
		}

		item := domain.OrderItem{
			ProductID:       p.ID,
			Quantity:        l.Quantity,
			PriceAtPurchase: p.Price,
			ProductName:     p.Name,
			ProductImageURL: p.ImageURL,
		}
		amount += item.LineTotal()
		items = append(items, item)
	}

	return items, amount, nil
}

// reserveStock списывает остатки по позициям. Если остатка не хватает, возвращается
// InsufficientStockError, и транзакция откатывается целиком.
func reserveStock(ctx context.Context, repo ProductRepository, items []domain.OrderItem) error {
	for _, it := range items {
		ok, err := repo.DecrementStock(ctx, it.ProductID, it.Quantity)
		if err != nil {
			return err
		}
		if !ok {
			return &e.InsufficientStockError{
				ProductID:   it.ProductID,
				ProductName: it.ProductName,
				Requested:   it.Quantity,
			}
		}
	}
	return nil
}
