package http

import (
	"net/http"

	_ "github.com/DRSN-tech/storefront/docs" // Импорт сгенерированных файлов
	"github.com/DRSN-tech/storefront/internal/usecase"
	"github.com/DRSN-tech/storefront/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

// Deps — зависимости HTTP-слоя.
type Deps struct {
	CheckoutUC usecase.CheckoutUC
	PaymentUC  usecase.PaymentUC
	OrderUC    usecase.OrderUC
	CartUC     usecase.CartUC
	ProductUC  usecase.ProductUC
	AuthUC     usecase.AuthUC

	Throttle usecase.RateLimiter
	Metrics  HTTPMetrics
	Gatherer prometheus.Gatherer
	DB       Pinger
}

type Router struct {
	router     *chi.Mux
	logger     logger.Logger
	swaggerURL string
	validate   *validator.Validate
}

func NewRouter(router *chi.Mux, swaggerURL string, logger logger.Logger) *Router {
	return &Router{router: router, logger: logger, swaggerURL: swaggerURL, validate: NewValidator()}
}

func (r *Router) Init(d *Deps) {
	r.router.Use(Observability(r.logger, d.Metrics), BlockBadBots)

	r.router.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL(r.swaggerURL), // ссылка на JSON
	))
	r.router.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))
	r.router.Get("/healthz", healthz(d.DB, r.logger))

	r.router.Route("/api/v1", func(v1 chi.Router) {
		prHandler := NewProductHandler(d.ProductUC, r.validate, r.logger)
		coHandler := NewCheckoutHandler(d.CheckoutUC, d.CartUC, r.validate, r.logger)
		payHandler := NewPaymentHandler(d.PaymentUC, r.validate, r.logger)
		orHandler := NewOrderHandler(d.OrderUC, r.validate, r.logger)
		authHandler := NewAuthHandler(d.AuthUC, r.validate, r.logger)

		registerStorefrontRoutes(v1, prHandler, coHandler, payHandler, Throttle(d.Throttle, d.Metrics, r.logger))

		v1.Route("/admin", func(admin chi.Router) {
			admin.Post("/login", authHandler.login)
			admin.Post("/logout", authHandler.logout)

			admin.Group(func(protected chi.Router) {
				protected.Use(AdminOnly(d.AuthUC, r.logger))
				registerAdminRoutes(protected, prHandler, orHandler)
			})
		})
	})
}

func registerStorefrontRoutes(router chi.Router, prHandler *ProductHandler, coHandler *CheckoutHandler,
	payHandler *PaymentHandler, throttle func(http.Handler) http.Handler,
) {
	router.Get("/products", prHandler.listCatalog)
	router.Post("/cart/validate", coHandler.validateCart)

	router.Route("/checkout", func(co chi.Router) {
		co.With(throttle).Post("/", coHandler.checkout)
		co.Post("/verify", payHandler.verify)
	})

	router.Post("/webhooks/payment", payHandler.webhook)
}

func registerAdminRoutes(router chi.Router, prHandler *ProductHandler, orHandler *OrderHandler) {
	router.Route("/orders", func(or chi.Router) {
		or.Get("/", orHandler.listOrders)
		or.Get("/{id}", orHandler.getOrder)
		or.Patch("/{id}", orHandler.updateStatus)
	})

	router.Route("/products", func(pr chi.Router) {
		pr.Get("/", prHandler.listProducts)
		pr.Post("/", prHandler.createProduct)
		pr.Get("/{id}", prHandler.getProduct)
		pr.Put("/{id}", prHandler.updateProduct)
		pr.Patch("/{id}/toggle", prHandler.toggleProduct)
	})

	router.Post("/upload/sign", prHandler.signUpload)
}
