package http

import (
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/DRSN-tech/storefront/internal/usecase"
	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/DRSN-tech/storefront/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
)

const (
	headerRequestID     = "X-Request-ID"
	headerForwardedFor  = "X-Forwarded-For"
	adminSessionCookie  = "admin_session"
	unmatchedRouteLabel = "unmatched"
)

var tracer = otel.Tracer("storefront/http")

// HTTPMetrics — метрики транспортного слоя.
type HTTPMetrics interface {
	ObserveHTTP(method, route string, status int, took time.Duration)
	CheckoutThrottled()
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (w *statusRecorder) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

// Observability извлекает W3C trace context, открывает серверный спан, выдаёт X-Request-ID,
// кладёт логгер запроса в контекст, пишет access log и HTTP-метрики.
// Метка route берётся из шаблона chi, чтобы не раздувать кардинальность.
func Observability(base logger.Logger, m HTTPMetrics) func(http.Handler) http.Handler {
	prop := otel.GetTextMapPropagator()

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ctx := prop.Extract(r.Context(), propagation.HeaderCarrier(r.Header))

			ctx, span := tracer.Start(ctx, "HTTP "+r.Method, trace.WithSpanKind(trace.SpanKindServer))
			defer span.End()

			rid := r.Header.Get(headerRequestID)
			if rid == "" {
				rid = uuid.NewString()
			}
			w.Header().Set(headerRequestID, rid)

			fields := []any{"request_id", rid}
			if sc := span.SpanContext(); sc.IsValid() {
				fields = append(fields, "trace_id", sc.TraceID().String(), "span_id", sc.SpanID().String())
			}
			reqLogger := base.With(fields...)
			ctx = logger.ToContext(ctx, reqLogger)

			rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r.WithContext(ctx))

			route := routePattern(r)
			took := time.Since(start)

			span.SetName(r.Method + " " + route)
			span.SetAttributes(
				attribute.String("http.method", r.Method),
				attribute.String("http.route", route),
				attribute.Int("http.status_code", rec.status),
			)
			if rec.status >= http.StatusInternalServerError {
				span.SetStatus(codes.Error, http.StatusText(rec.status))
			}

			m.ObserveHTTP(r.Method, route, rec.status, took)
			reqLogger.Infof("%s %s -> %d (%s)", r.Method, r.URL.Path, rec.status, took)
		})
	}
}

// routePattern возвращает шаблон маршрута chi. Контекст маршрутизации создаётся
// роутером до middleware, поэтому после обработки шаблон уже заполнен.
func routePattern(r *http.Request) string {
	if rctx := chi.RouteContext(r.Context()); rctx != nil {
		if p := rctx.RoutePattern(); p != "" {
			return p
		}
	}
	return unmatchedRouteLabel
}

// BlockBadBots отклоняет запросы от ботов из стоп-листа.
func BlockBadBots(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if strings.Contains(r.UserAgent(), "BadBot") {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// AdminOnly пропускает запрос только с действующим токеном оператора:
// из cookie admin_session или заголовка Authorization: Bearer.
func AdminOnly(auth usecase.AuthUC, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				if c, err := r.Cookie(adminSessionCookie); err == nil {
					token = c.Value
				}
			}

			if token == "" {
				WriteError(w, e.ErrUnauthorized)
				return
			}

			if _, err := auth.ParseToken(token); err != nil {
				logger.FromContext(r.Context(), log).Warnf("admin auth rejected: %v", err)
				WriteError(w, err)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

func bearerToken(r *http.Request) string {
	raw := strings.TrimSpace(r.Header.Get("Authorization"))
	parts := strings.SplitN(raw, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// Throttle ограничивает частоту запросов с одного IP. Ошибка хранилища лимитов
// не блокирует покупателя.
func Throttle(limiter usecase.RateLimiter, m HTTPMetrics, log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ip := clientIP(r)

			allowed, err := limiter.Allow(r.Context(), ip)
			if err != nil {
				logger.FromContext(r.Context(), log).Warnf("throttle check failed for %s: %v", ip, err)
				allowed = true
			}

			if !allowed {
				m.CheckoutThrottled()
				logger.FromContext(r.Context(), log).Warnf("checkout throttled for %s", ip)
				WriteError(w, e.ErrTooManyRequests)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// clientIP берёт первый адрес из X-Forwarded-For, иначе адрес соединения.
func clientIP(r *http.Request) string {
	if fwd := r.Header.Get(headerForwardedFor); fwd != "" {
		first, _, _ := strings.Cut(fwd, ",")
		if ip := strings.TrimSpace(first); ip != "" {
			return ip
		}
	}

	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
