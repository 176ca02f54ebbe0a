package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/DRSN-tech/storefront/internal/domain"
	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/DRSN-tech/storefront/pkg/logger"
	"go.opentelemetry.io/otel/attribute"
)

// OrderUseCase — операции оператора над заказами.
type OrderUseCase struct {
	tm        TxManager
	orderRepo OrderRepository
	metrics   Metrics
	logger    logger.Logger
	now       func() time.Time
}

func NewOrderUC(tm TxManager, orderRepo OrderRepository, metrics Metrics, logger logger.Logger) *OrderUseCase {
	return &OrderUseCase{
		tm:        tm,
		orderRepo: orderRepo,
		metrics:   metrics,
		logger:    logger,
		now:       time.Now,
	}
}

// UpdateStatus переводит заказ в запрошенный статус по таблице переходов.
// Текущий статус перечитывается под блокировкой строки. Запрос текущего статуса — успешный no-op.
// Отмена не возвращает товар на склад.
func (o *OrderUseCase) UpdateStatus(ctx context.Context, req *UpdateOrderStatusReq) (res *UpdateOrderStatusRes, err error) {
	const op = "OrderUseCase.UpdateStatus"

	ctx, span := startSpan(ctx, op,
		attribute.Int64("order_id", req.OrderID),
		attribute.String("status", req.Status),
	)
	defer func() { endSpan(span, err) }()

	to, err := domain.ParseRequestedStatus(req.Status)
	if err != nil {
		return nil, e.Wrap(op, err)
	}
	tracking := strings.TrimSpace(req.TrackingRef)

	var from domain.OrderStatus
	res = &UpdateOrderStatusRes{Status: to}
	err = o.tm.Do(ctx, func(ctx context.Context) error {
		order, err := o.orderRepo.GetByIDForUpdate(ctx, req.OrderID)
		if err != nil {
			return err
		}
		from = order.Status

		if from == to {
			return nil
		}

		if err := from.CheckTransition(to, tracking); err != nil {
			return err
		}

		params := &UpdateStatusParams{
			OrderID: order.ID,
			From:    from,
			To:      to,
			At:      o.now(),
		}
		if to == domain.StatusShipped {
			params.TrackingRef = &tracking
		}

		if err := o.orderRepo.UpdateStatus(ctx, params); err != nil {
			return err
		}

		res.Changed = true
		return nil
	})
	if err != nil {
		o.logger.Warnf("%s: order %d: %s -> %s rejected: %v", op, req.OrderID, from, to, err)
		return nil, e.Wrap(op, err)
	}

	if res.Changed {
		o.metrics.StatusChanged(from.String(), to.String())
		o.logger.Infof("order %d status changed: %s -> %s", req.OrderID, from, to)
	}

	return res, nil
}

// GetOrder возвращает заказ с позициями.
func (o *OrderUseCase) GetOrder(ctx context.Context, id int64) (*domain.Order, error) {
	const op = "OrderUseCase.GetOrder"

	order, err := o.orderRepo.GetByID(ctx, id)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return order, nil
}

// ListOrders возвращает заказы, новые первыми.
func (o *OrderUseCase) ListOrders(ctx context.Context) ([]domain.Order, error) {
	const op = "OrderUseCase.ListOrders"

	orders, err := o.orderRepo.List(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return orders, nil
}
