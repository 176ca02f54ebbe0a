package pgdb

import (
	"context"
	"errors"
	"fmt"

	"github.com/DRSN-tech/storefront/internal/domain"
	"github.com/DRSN-tech/storefront/internal/repository/pgdb/converter"
	"github.com/DRSN-tech/storefront/internal/usecase"
	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/DRSN-tech/storefront/pkg/tr"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jimlawless/whereami"
)

const (
	orderColumns = `o.id, o.razorpay_order_id, o.amount, o.currency, o.status, o.payment_method,
		o.customer_details, o.tracking_id, o.shipped_at, o.delivered_at, o.created_at`

	constraintGatewayRef = "orders_razorpay_order_id_key"
)

// knownStatuses — статусы, которые распознаёт domain.ParseOrderStatus.
// Всё остальное в колонке status считается устаревшим значением (domain.StatusUnknown).
var knownStatuses = []string{
	domain.StatusPending.String(),
	domain.StatusCODPending.String(),
	domain.StatusPaid.String(),
	domain.StatusConfirmed.String(),
	domain.StatusShipped.String(),
	domain.StatusDelivered.String(),
	domain.StatusCancelled.String(),
}

// OrderRepo реализует репозиторий заказов поверх PostgreSQL.
type OrderRepo struct {
	pool *pgxpool.Pool
	conv converter.OrderConverter
}

func NewOrderRepo(pool *pgxpool.Pool, conv converter.OrderConverter) *OrderRepo {
	return &OrderRepo{
		pool: pool,
		conv: conv,
	}
}

// Create вставляет заказ и его позиции. Должен вызываться внутри транзакции.
func (o *OrderRepo) Create(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	tx, err := tr.TxFromCtx(ctx)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	model, err := o.conv.ToModel(order)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	query := `
		INSERT INTO orders (razorpay_order_id, amount, currency, status, payment_method, customer_details)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at;
	`

	if err := tx.QueryRow(ctx, query,
		model.GatewayRef,
		model.Amount,
		model.Currency,
		model.Status,
		model.PaymentMethod,
		model.CustomerDetails,
	).Scan(&model.ID, &model.CreatedAt); err != nil {
		if duplicateOn(err, constraintGatewayRef) {
			return nil, fmt.Errorf("%s: order with reference %s already exists: %w", whereami.WhereAmI(), model.GatewayRef, e.ErrConcurrentUpdate)
		}
		return nil, fmt.Errorf("%s: failed to insert order: %w", whereami.WhereAmI(), err)
	}

	items := make([]converter.OrderItemModel, 0, len(order.Items))
	for _, it := range order.Items {
		item := converter.OrderItemModel{
			OrderID:         model.ID,
			ProductID:       it.ProductID,
			Quantity:        it.Quantity,
			PriceAtPurchase: it.PriceAtPurchase,
		}
		if it.ProductName != "" {
			name, image := it.ProductName, it.ProductImageURL
			item.ProductName, item.ProductImageURL = &name, &image
		}

		if err := tx.QueryRow(ctx,
			`INSERT INTO order_items (order_id, product_id, quantity, price_at_purchase) VALUES ($1, $2, $3, $4) RETURNING id`,
			item.OrderID, item.ProductID, item.Quantity, item.PriceAtPurchase,
		).Scan(&item.ID); err != nil {
			return nil, fmt.Errorf("%s: failed to insert order item: %w", whereami.WhereAmI(), err)
		}
		items = append(items, item)
	}

	created, err := o.conv.ToEntity(model, items)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return created, nil
}

func (o *OrderRepo) GetByID(ctx context.Context, id int64) (*domain.Order, error) {
	return o.getOne(ctx, `SELECT `+orderColumns+` FROM orders o WHERE o.id = $1`, id)
}

// GetByIDForUpdate читает заказ и блокирует его строку до конца транзакции.
func (o *OrderRepo) GetByIDForUpdate(ctx context.Context, id int64) (*domain.Order, error) {
	if _, err := tr.TxFromCtx(ctx); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return o.getOne(ctx, `SELECT `+orderColumns+` FROM orders o WHERE o.id = $1 FOR UPDATE OF o`, id)
}

// GetByGatewayRefForUpdate читает заказ по внешнему идентификатору и блокирует его строку.
// Конкурентная сверка той же оплаты ждёт здесь до фиксации первой транзакции.
func (o *OrderRepo) GetByGatewayRefForUpdate(ctx context.Context, ref string) (*domain.Order, error) {
	if _, err := tr.TxFromCtx(ctx); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return o.getOne(ctx, `SELECT `+orderColumns+` FROM orders o WHERE o.razorpay_order_id = $1 FOR UPDATE OF o`, ref)
}

// List возвращает заказы с позициями, новые первыми.
func (o *OrderRepo) List(ctx context.Context) ([]domain.Order, error) {
	db := tr.TxOrDB(ctx, o.pool)

	rows, err := db.Query(ctx, `SELECT `+orderColumns+` FROM orders o ORDER BY o.created_at DESC, o.id DESC`)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	models := make([]converter.OrderModel, 0)
	for rows.Next() {
		model, err := scanOrder(rows)
		if err != nil {
			rows.Close()
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		models = append(models, *model)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	ids := make([]int64, 0, len(models))
	for _, m := range models {
		ids = append(ids, m.ID)
	}

	itemsByOrder, err := o.loadItems(ctx, db, ids)
	if err != nil {
		return nil, err
	}

	orders := make([]domain.Order, 0, len(models))
	for i := range models {
		order, err := o.conv.ToEntity(&models[i], itemsByOrder[models[i].ID])
		if err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		orders = append(orders, *order)
	}

	return orders, nil
}

// UpdateStatus — условный переход: строка меняется, только если текущий статус равен req.From.
// Для domain.StatusUnknown условие — статус вне списка известных.
func (o *OrderRepo) UpdateStatus(ctx context.Context, req *usecase.UpdateStatusParams) error {
	var (
		cond string
		arg  any
	)
	if req.From == domain.StatusUnknown {
		cond, arg = `status <> ALL($5)`, knownStatuses
	} else {
		cond, arg = `status = $5`, req.From.String()
	}

	query := `
		UPDATE orders
		SET status = $2,
			tracking_id  = CASE WHEN $2 = 'SHIPPED' THEN $3 ELSE tracking_id END,
			shipped_at   = CASE WHEN $2 = 'SHIPPED' THEN $4 ELSE shipped_at END,
			delivered_at = CASE WHEN $2 = 'DELIVERED' THEN $4 ELSE delivered_at END
		WHERE id = $1 AND ` + cond

	tag, err := tr.TxOrDB(ctx, o.pool).Exec(ctx, query, req.OrderID, req.To.String(), req.TrackingRef, req.At, arg)
	if err != nil {
		return e.Wrap(whereami.WhereAmI(), err)
	}
	if tag.RowsAffected() == 0 {
		return fmt.Errorf("%s: order %d is no longer %s: %w", whereami.WhereAmI(), req.OrderID, req.From, e.ErrConcurrentUpdate)
	}

	return nil
}

func (o *OrderRepo) getOne(ctx context.Context, query string, arg any) (*domain.Order, error) {
	db := tr.TxOrDB(ctx, o.pool)

	model, err := scanOrder(db.QueryRow(ctx, query, arg))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, e.Wrap(whereami.WhereAmI(), e.ErrOrderNotFound)
		}
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	items, err := o.loadItems(ctx, db, []int64{model.ID})
	if err != nil {
		return nil, err
	}

	order, err := o.conv.ToEntity(model, items[model.ID])
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return order, nil
}

// loadItems читает позиции заказов вместе с текущими названием и изображением товара.
func (o *OrderRepo) loadItems(ctx context.Context, db tr.Querier, orderIDs []int64) (map[int64][]converter.OrderItemModel, error) {
	res := make(map[int64][]converter.OrderItemModel, len(orderIDs))
	if len(orderIDs) == 0 {
		return res, nil
	}

	query := `
		SELECT oi.id, oi.order_id, oi.product_id, oi.quantity, oi.price_at_purchase, p.name, p.image_url
		FROM order_items oi
		LEFT JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = ANY($1)
		ORDER BY oi.order_id, oi.id
	`

	rows, err := db.Query(ctx, query, orderIDs)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer rows.Close()

	for rows.Next() {
		var item converter.OrderItemModel
		if err := rows.Scan(
			&item.ID,
			&item.OrderID,
			&item.ProductID,
			&item.Quantity,
			&item.PriceAtPurchase,
			&item.ProductName,
			&item.ProductImageURL,
		); err != nil {
			return nil, e.Wrap(whereami.WhereAmI(), err)
		}
		res[item.OrderID] = append(res[item.OrderID], item)
	}

	if err := rows.Err(); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	return res, nil
}

func scanOrder(row pgx.Row) (*converter.OrderModel, error) {
	var model converter.OrderModel
	if err := row.Scan(
		&model.ID,
		&model.GatewayRef,
		&model.Amount,
		&model.Currency,
		&model.Status,
		&model.PaymentMethod,
		&model.CustomerDetails,
		&model.TrackingID,
		&model.ShippedAt,
		&model.DeliveredAt,
		&model.CreatedAt,
	); err != nil {
		return nil, err
	}

	return &model, nil
}
