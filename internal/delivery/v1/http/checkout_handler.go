package http

import (
	"net/http"

	"github.com/DRSN-tech/storefront/internal/domain"
	"github.com/DRSN-tech/storefront/internal/usecase"
	"github.com/DRSN-tech/storefront/pkg/logger"
	"github.com/go-playground/validator/v10"
)

type CheckoutHandler struct {
	checkoutUsecase usecase.CheckoutUC
	cartUsecase     usecase.CartUC
	validate        *validator.Validate
	logger          logger.Logger
}

func NewCheckoutHandler(checkoutUsecase usecase.CheckoutUC, cartUsecase usecase.CartUC, validate *validator.Validate, logger logger.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		checkoutUsecase: checkoutUsecase,
		cartUsecase:     cartUsecase,
		validate:        validate,
		logger:          logger,
	}
}

// checkout
//
//	@Summary		Оформление заказа
//	@Description	Пересчитывает корзину по актуальным ценам и остаткам и создаёт заказ.
//	@Description	Для COD остаток списывается сразу, для ONLINE возвращаются параметры виджета оплаты.
//	@Tags			checkout
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CheckoutRequest			true	"Корзина, способ оплаты и данные покупателя"
//	@Success		200		{object}	OnlineCheckoutResponse	"ONLINE: заказ ожидает оплаты. Для COD тело CODCheckoutResponse"
//	@Failure		400		{object}	ErrorResponse			"Ошибка валидации или нехватка остатка"
//	@Failure		404		{object}	ErrorResponse			"Товар не найден"
//	@Failure		429		{object}	ErrorResponse			"Слишком частые запросы"
//	@Failure		502		{object}	ErrorResponse			"Платёжный шлюз недоступен"
//	@Router			/checkout [post]
func (c *CheckoutHandler) checkout(w http.ResponseWriter, r *http.Request) {
	const op = "CheckoutHandler.checkout"

	var req CheckoutRequest
	if err := decodeJSON(w, r, c.validate, &req); err != nil {
		respondError(w, r, c.logger, op, err)
		return
	}

	res, err := c.checkoutUsecase.Checkout(r.Context(), req.toUsecase())
	if err != nil {
		respondError(w, r, c.logger, op, err)
		return
	}

	logger.FromContext(r.Context(), c.logger).Infof("order %d created, method=%s ref=%s", res.OrderID, res.PaymentMethod, res.GatewayRef)

	if res.PaymentMethod == domain.PaymentCOD {
		WriteSuccess(w, http.StatusOK, &CODCheckoutResponse{
			Success:       true,
			PaymentMethod: string(domain.PaymentCOD),
			OrderID:       res.GatewayRef,
		})
		return
	}

	WriteSuccess(w, http.StatusOK, &OnlineCheckoutResponse{
		OrderID:       res.GatewayRef,
		Amount:        res.Amount,
		Currency:      res.Currency,
		Key:           res.KeyID,
		PaymentMethod: string(domain.PaymentOnline),
	})
}

// validateCart
//
//	@Summary		Проверка корзины
//	@Description	Подставляет актуальные цены, урезает количество до остатка с предупреждением.
//	@Description	Неизвестные и снятые с продажи товары отбрасываются.
//	@Tags			cart
//	@Accept			json
//	@Produce		json
//	@Param			request	body		CartValidateRequest	true	"Позиции корзины"
//	@Success		200		{object}	CartResponse
//	@Failure		400		{object}	ErrorResponse
//	@Router			/cart/validate [post]
func (c *CheckoutHandler) validateCart(w http.ResponseWriter, r *http.Request) {
	const op = "CheckoutHandler.validateCart"

	var req CartValidateRequest
	if err := decodeJSON(w, r, c.validate, &req); err != nil {
		respondError(w, r, c.logger, op, err)
		return
	}

	res, err := c.cartUsecase.ValidateCart(r.Context(), &usecase.ValidateCartReq{Lines: toCartLines(req.Items)})
	if err != nil {
		respondError(w, r, c.logger, op, err)
		return
	}

	WriteSuccess(w, http.StatusOK, newCartResponse(res))
}
