package http

import (
	"context"
	"net/http"
	"time"

	"github.com/DRSN-tech/storefront/internal/usecase"
	"github.com/DRSN-tech/storefront/pkg/logger"
	"github.com/go-playground/validator/v10"
)

type AuthHandler struct {
	authUsecase usecase.AuthUC
	validate    *validator.Validate
	logger      logger.Logger
	now         func() time.Time
}

func NewAuthHandler(authUsecase usecase.AuthUC, validate *validator.Validate, logger logger.Logger) *AuthHandler {
	return &AuthHandler{authUsecase: authUsecase, validate: validate, logger: logger, now: time.Now}
}

// login
//
//	@Summary		Вход оператора
//	@Description	Проверяет пароль и выдаёт токен. Токен также ставится в HttpOnly cookie admin_session.
//	@Tags			admin
//	@Accept			json
//	@Produce		json
//	@Param			request	body		LoginRequest	true	"Пароль"
//	@Success		200		{object}	LoginResponse
//	@Failure		400		{object}	ErrorResponse
//	@Failure		401		{object}	ErrorResponse
//	@Router			/admin/login [post]
func (a *AuthHandler) login(w http.ResponseWriter, r *http.Request) {
	const op = "AuthHandler.login"

	var req LoginRequest
	if err := decodeJSON(w, r, a.validate, &req); err != nil {
		respondError(w, r, a.logger, op, err)
		return
	}

	res, err := a.authUsecase.Login(r.Context(), &usecase.LoginReq{Password: req.Password})
	if err != nil {
		respondError(w, r, a.logger, op, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     adminSessionCookie,
		Value:    res.Token,
		Path:     "/",
		Expires:  res.ExpiresAt,
		MaxAge:   int(res.ExpiresAt.Sub(a.now()).Seconds()),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteStrictMode,
	})

	WriteSuccess(w, http.StatusOK, &LoginResponse{Success: true, Token: res.Token, ExpiresAt: res.ExpiresAt})
}

// logout
//
//	@Summary	Выход оператора
//	@Tags		admin
//	@Produce	json
//	@Success	200	{object}	SuccessResponse
//	@Router		/admin/logout [post]
func (a *AuthHandler) logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     adminSessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
	})

	WriteSuccess(w, http.StatusOK, &SuccessResponse{Success: true})
}

// Pinger проверяет доступность хранилища.
type Pinger interface {
	Ping(ctx context.Context) error
}

// healthz
//
//	@Summary	Проверка живости
//	@Tags		system
//	@Produce	json
//	@Success	200	{object}	StatusResponse
//	@Failure	503	{object}	ErrorResponse
//	@Router		/healthz [get]
func healthz(db Pinger, log logger.Logger) http.HandlerFunc {
	const timeout = 2 * time.Second

	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()

		if err := db.Ping(ctx); err != nil {
			logger.FromContext(r.Context(), log).Errorf(err, "healthz: store unavailable")
			WriteSuccess(w, http.StatusServiceUnavailable, NewErrorResponse("store unavailable"))
			return
		}

		WriteSuccess(w, http.StatusOK, &StatusResponse{Status: "ok"})
	}
}
