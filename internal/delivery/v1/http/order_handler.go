package http

import (
	"net/http"

	"github.com/DRSN-tech/storefront/internal/usecase"
	"github.com/DRSN-tech/storefront/pkg/logger"
	"github.com/go-playground/validator/v10"
)

type OrderHandler struct {
	orderUsecase usecase.OrderUC
	validate     *validator.Validate
	logger       logger.Logger
}

func NewOrderHandler(orderUsecase usecase.OrderUC, validate *validator.Validate, logger logger.Logger) *OrderHandler {
	return &OrderHandler{orderUsecase: orderUsecase, validate: validate, logger: logger}
}

// listOrders
//
//	@Summary	Список заказов
//	@Tags		admin
//	@Produce	json
//	@Security	AdminToken
//	@Success	200	{object}	OrderListResponse	"Заказы, новые первыми"
//	@Failure	401	{object}	ErrorResponse
//	@Router		/admin/orders [get]
func (o *OrderHandler) listOrders(w http.ResponseWriter, r *http.Request) {
	const op = "OrderHandler.listOrders"

	orders, err := o.orderUsecase.ListOrders(r.Context())
	if err != nil {
		respondError(w, r, o.logger, op, err)
		return
	}

	out := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, newOrderResponse(&orders[i]))
	}

	WriteSuccess(w, http.StatusOK, &OrderListResponse{Success: true, Orders: out})
}

// getOrder
//
//	@Summary	Детали заказа
//	@Tags		admin
//	@Produce	json
//	@Security	AdminToken
//	@Param		id	path		int	true	"ID заказа"
//	@Success	200	{object}	OrderEnvelope
//	@Failure	400	{object}	ErrorResponse
//	@Failure	404	{object}	ErrorResponse
//	@Router		/admin/orders/{id} [get]
func (o *OrderHandler) getOrder(w http.ResponseWriter, r *http.Request) {
	const op = "OrderHandler.getOrder"

	id, err := idParam(r)
	if err != nil {
		respondError(w, r, o.logger, op, err)
		return
	}

	order, err := o.orderUsecase.GetOrder(r.Context(), id)
	if err != nil {
		respondError(w, r, o.logger, op, err)
		return
	}

	WriteSuccess(w, http.StatusOK, &OrderEnvelope{Success: true, Order: newOrderResponse(order)})
}

// updateStatus
//
//	@Summary		Смена статуса заказа
//	@Description	Переводит заказ по допустимому переходу. Для SHIPPED обязателен tracking_id.
//	@Description	Запрос текущего статуса ничего не меняет.
//	@Tags			admin
//	@Accept			json
//	@Produce		json
//	@Security		AdminToken
//	@Param			id		path		int							true	"ID заказа"
//	@Param			request	body		UpdateOrderStatusRequest	true	"Новый статус"
//	@Success		200		{object}	UpdateOrderStatusResponse
//	@Failure		400		{object}	ErrorResponse	"Недопустимый переход"
//	@Failure		404		{object}	ErrorResponse
//	@Failure		409		{object}	ErrorResponse	"Заказ изменён параллельно"
//	@Router			/admin/orders/{id} [patch]
func (o *OrderHandler) updateStatus(w http.ResponseWriter, r *http.Request) {
	const op = "OrderHandler.updateStatus"

	id, err := idParam(r)
	if err != nil {
		respondError(w, r, o.logger, op, err)
		return
	}

	var req UpdateOrderStatusRequest
	if err := decodeJSON(w, r, o.validate, &req); err != nil {
		respondError(w, r, o.logger, op, err)
		return
	}

	res, err := o.orderUsecase.UpdateStatus(r.Context(), &usecase.UpdateOrderStatusReq{
		OrderID:     id,
		Status:      req.Status,
		TrackingRef: req.TrackingID,
	})
	if err != nil {
		respondError(w, r, o.logger, op, err)
		return
	}

	resp := &UpdateOrderStatusResponse{Success: true, Status: res.Status.String()}
	if !res.Changed {
		resp.Message = "Status unchanged"
	}

	WriteSuccess(w, http.StatusOK, resp)
}
