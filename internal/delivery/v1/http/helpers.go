package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"reflect"
	"strconv"
	"strings"

	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/DRSN-tech/storefront/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/jimlawless/whereami"
	"github.com/shopspring/decimal"
)

const maxJSONBodySize = 1 << 20

// ErrorResponse — тело ответа с ошибкой.
type ErrorResponse struct {
	Error string `json:"error"`
}

func NewErrorResponse(message string) *ErrorResponse {
	return &ErrorResponse{Error: message}
}

// ToHTTPResponse сопоставляет ошибку с кодом ответа и безопасным для клиента сообщением.
func ToHTTPResponse(err error) (int, string) {
	var (
		stockErr      *e.InsufficientStockError
		transitionErr *e.TransitionError
	)

	switch {
	case errors.As(err, &stockErr):
		return http.StatusBadRequest, stockErr.Error()
	case errors.As(err, &transitionErr):
		return http.StatusBadRequest, fmt.Sprintf("Invalid transition from %s to %s", transitionErr.From, transitionErr.To)
	case errors.Is(err, e.ErrOrderFinalized):
		return http.StatusBadRequest, e.ErrOrderFinalized.Error()
	case errors.Is(err, e.ErrTrackingRequired):
		return http.StatusBadRequest, e.ErrTrackingRequired.Error()
	case errors.Is(err, e.ErrEmptyCart):
		return http.StatusBadRequest, "Cart is empty"
	case errors.Is(err, e.ErrInvalidQuantity):
		return http.StatusBadRequest, e.ErrInvalidQuantity.Error()
	case errors.Is(err, e.ErrInvalidStatus):
		return http.StatusBadRequest, "Invalid status value"
	case errors.Is(err, e.ErrUnsupportedMethod):
		return http.StatusBadRequest, e.ErrUnsupportedMethod.Error()
	case errors.Is(err, e.ErrUnsupportedMediaType):
		return http.StatusBadRequest, e.ErrUnsupportedMediaType.Error()
	case errors.Is(err, e.ErrInvalidPrice):
		return http.StatusBadRequest, e.ErrInvalidPrice.Error()
	case errors.Is(err, e.ErrPricePrecision):
		return http.StatusBadRequest, e.ErrPricePrecision.Error()
	case errors.Is(err, e.ErrValidation), errors.Is(err, e.ErrStatusBadRequest):
		return http.StatusBadRequest, validationMessage(err)
	case errors.Is(err, e.ErrInvalidSignature):
		return http.StatusUnauthorized, "Invalid signature"
	case errors.Is(err, e.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid password"
	case errors.Is(err, e.ErrUnauthorized):
		return http.StatusUnauthorized, "Unauthorized"
	case errors.Is(err, e.ErrProductNotFound):
		return http.StatusNotFound, "Product not found"
	case errors.Is(err, e.ErrOrderNotFound):
		return http.StatusNotFound, "Order not found"
	case errors.Is(err, e.ErrConcurrentUpdate):
		return http.StatusConflict, e.ErrConcurrentUpdate.Error()
	case errors.Is(err, e.ErrSlugConflict):
		return http.StatusConflict, e.ErrSlugConflict.Error()
	case errors.Is(err, e.ErrTooManyRequests):
		return http.StatusTooManyRequests, e.ErrTooManyRequests.Error()
	case errors.Is(err, e.ErrGatewayUnavailable):
		return http.StatusBadGateway, "Payment gateway unavailable"
	default:
		return http.StatusInternalServerError, "Server error"
	}
}

// NewValidator создаёт валидатор, который называет поля по их json-именам.
func NewValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name, _, _ := strings.Cut(f.Tag.Get("json"), ",")
		if name == "-" {
			return ""
		}
		return name
	})
	return v
}

// validationMessage собирает сообщения об ошибках полей. Если их нет, отдаётся общий текст.
func validationMessage(err error) string {
	var fieldErrs validator.ValidationErrors
	if errors.As(err, &fieldErrs) {
		msgs := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			msgs = append(msgs, fieldMessage(fe))
		}
		return strings.Join(msgs, "; ")
	}

	var joined interface{ Unwrap() []error }
	if errors.As(err, &joined) {
		var msgs []string
		for _, inner := range joined.Unwrap() {
			if inner == e.ErrValidation {
				continue
			}
			msgs = append(msgs, inner.Error())
		}
		if len(msgs) > 0 {
			return strings.Join(msgs, "; ")
		}
	}

	return "Invalid request"
}

func fieldMessage(fe validator.FieldError) string {
	field := fe.Namespace()
	if i := strings.Index(field, "."); i >= 0 {
		field = field[i+1:]
	}

	switch fe.Tag() {
	case "required":
		return field + " is required"
	case "min":
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", field, fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", field, fe.Param())
	case "email":
		return field + " must be a valid email"
	default:
		return field + " is invalid"
	}
}

func WriteError(w http.ResponseWriter, err error) {
	code, msg := ToHTTPResponse(err)
	WriteSuccess(w, code, NewErrorResponse(msg))
}

func WriteSuccess(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

// decodeJSON читает тело запроса в dst и валидирует его тегами validate.
func decodeJSON(w http.ResponseWriter, r *http.Request, v *validator.Validate, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxJSONBodySize)

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return e.Wrap(whereami.WhereAmI(), errors.Join(e.ErrValidation, errors.New("request body is empty")))
		}
		return e.Wrap(whereami.WhereAmI(), errors.Join(e.ErrValidation, errors.New("malformed JSON")))
	}

	if err := v.Struct(dst); err != nil {
		return e.Wrap(whereami.WhereAmI(), errors.Join(e.ErrValidation, err))
	}

	return nil
}

// idParam разбирает числовой идентификатор из пути.
func idParam(r *http.Request) (int64, error) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, e.Wrap(whereami.WhereAmI(), errors.Join(e.ErrValidation, errors.New("Invalid ID")))
	}
	return id, nil
}

// parsePriceToMinor переводит цену в рупиях ("599.99" или "600") в пайсы.
// Возвращает ошибку, если:
// - формат некорректен
// - больше двух знаков после запятой
// - значение не положительное
// - значение превышает разумный предел
func parsePriceToMinor(s string) (int64, error) {
	if strings.TrimSpace(s) == "" {
		return 0, e.ErrInvalidPrice
	}

	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return 0, e.ErrInvalidPrice
	}

	if !d.IsPositive() {
		return 0, e.ErrInvalidPrice
	}

	maxPrice := decimal.NewFromInt(10_000_000) // 1 crore рупий
	if d.GreaterThan(maxPrice) {
		return 0, e.ErrInvalidPrice
	}

	if d.Exponent() < -2 && !d.Equal(d.Round(2)) {
		return 0, e.ErrPricePrecision
	}

	return d.Shift(2).Round(0).IntPart(), nil
}

// formatMinor выводит сумму в минорных единицах как "300.50".
func formatMinor(minor int64) string {
	return decimal.New(minor, -2).StringFixed(2)
}

// respondError пишет ошибку в лог запроса и отдаёт её клиенту.
// Клиентские ошибки логируются как warn, серверные как error.
func respondError(w http.ResponseWriter, r *http.Request, log logger.Logger, op string, err error) {
	code, _ := ToHTTPResponse(err)
	reqLog := logger.FromContext(r.Context(), log)
	if code >= http.StatusInternalServerError {
		reqLog.Errorf(err, "%s: %d", op, code)
	} else {
		reqLog.Warnf("%s: %d %v", op, code, err)
	}
	WriteError(w, err)
}
