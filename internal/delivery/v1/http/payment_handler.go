package http

import (
	"errors"
	"io"
	"net/http"

	"github.com/DRSN-tech/storefront/internal/usecase"
	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/DRSN-tech/storefront/pkg/logger"
	"github.com/go-playground/validator/v10"
)

const (
	headerWebhookSignature = "X-Razorpay-Signature"
	maxWebhookBodySize     = 1 << 20
)

type PaymentHandler struct {
	paymentUsecase usecase.PaymentUC
	validate       *validator.Validate
	logger         logger.Logger
}

func NewPaymentHandler(paymentUsecase usecase.PaymentUC, validate *validator.Validate, logger logger.Logger) *PaymentHandler {
	return &PaymentHandler{paymentUsecase: paymentUsecase, validate: validate, logger: logger}
}

// verify
//
//	@Summary		Подтверждение оплаты клиентом
//	@Description	Проверяет подпись, присланную виджетом оплаты, и отмечает заказ оплаченным.
//	@Description	Повторное подтверждение уже оплаченного заказа не меняет его.
//	@Tags			checkout
//	@Accept			json
//	@Produce		json
//	@Param			request	body		VerifyPaymentRequest	true	"Ответ виджета оплаты"
//	@Success		200		{object}	SuccessResponse
//	@Failure		400		{object}	ErrorResponse	"Ошибка валидации или нехватка остатка"
//	@Failure		401		{object}	ErrorResponse	"Неверная подпись"
//	@Failure		404		{object}	ErrorResponse	"Заказ не найден"
//	@Failure		409		{object}	SuccessResponse	"Заказ не ожидает оплаты"
//	@Router			/checkout/verify [post]
func (p *PaymentHandler) verify(w http.ResponseWriter, r *http.Request) {
	const op = "PaymentHandler.verify"

	var req VerifyPaymentRequest
	if err := decodeJSON(w, r, p.validate, &req); err != nil {
		respondError(w, r, p.logger, op, err)
		return
	}

	res, err := p.paymentUsecase.VerifyPayment(r.Context(), &usecase.VerifyPaymentReq{
		GatewayOrderID: req.OrderID,
		PaymentID:      req.PaymentID,
		Signature:      req.Signature,
	})
	if err != nil {
		respondError(w, r, p.logger, op, err)
		return
	}

	switch res {
	case usecase.ReconcileNotEligible:
		logger.FromContext(r.Context(), p.logger).Warnf("%s: order %s is not awaiting payment", op, req.OrderID)
		WriteSuccess(w, http.StatusConflict, &SuccessResponse{Success: false, Message: "Order is not awaiting payment"})
	default:
		WriteSuccess(w, http.StatusOK, &SuccessResponse{Success: true, Message: "Payment verified"})
	}
}

// webhook
//
//	@Summary		Вебхук платёжного шлюза
//	@Description	Принимает события шлюза. Учитывается только payment.captured, остальные подтверждаются без действий.
//	@Description	Повторная доставка и неизвестные заказы подтверждаются ответом "ignored", чтобы шлюз не повторял доставку.
//	@Tags			webhooks
//	@Accept			json
//	@Produce		json
//	@Param			X-Razorpay-Signature	header		string	true	"HMAC-SHA256 тела запроса"
//	@Success		200						{object}	StatusResponse
//	@Failure		400						{object}	ErrorResponse	"Некорректное тело"
//	@Failure		401						{object}	ErrorResponse	"Неверная подпись"
//	@Failure		500						{object}	ErrorResponse	"Сбой обработки, шлюз повторит доставку"
//	@Router			/webhooks/payment [post]
func (p *PaymentHandler) webhook(w http.ResponseWriter, r *http.Request) {
	const op = "PaymentHandler.webhook"

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBodySize))
	if err != nil {
		respondError(w, r, p.logger, op, errors.Join(e.ErrValidation, err))
		return
	}

	res, err := p.paymentUsecase.HandleWebhook(r.Context(), &usecase.WebhookReq{
		Body:      body,
		Signature: r.Header.Get(headerWebhookSignature),
	})
	if err != nil {
		respondError(w, r, p.logger, op, err)
		return
	}

	switch res {
	case usecase.ReconcileProcessed, usecase.ReconcileSkippedEvent:
		WriteSuccess(w, http.StatusOK, &StatusResponse{Status: "ok"})
	default:
		logger.FromContext(r.Context(), p.logger).Infof("%s: event ignored (%s)", op, res)
		WriteSuccess(w, http.StatusOK, &StatusResponse{Status: "ignored"})
	}
}
