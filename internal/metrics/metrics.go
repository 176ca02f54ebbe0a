// Package metrics — Prometheus-метрики магазина.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "storefront"

// Metrics реализует usecase.Metrics и метрики HTTP-слоя.
type Metrics struct {
	ordersCreated     *prometheus.CounterVec
	paymentsReconcile *prometheus.CounterVec
	statusChanges     *prometheus.CounterVec
	stockShortfall    *prometheus.CounterVec
	throttled         prometheus.Counter
	httpRequests      *prometheus.CounterVec
	httpDuration      *prometheus.HistogramVec
}

// New создаёт и регистрирует коллекторы в reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		ordersCreated: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "orders", Name: "created_total",
			Help: "Orders created by checkout, by payment method.",
		}, []string{"method"}),
		paymentsReconcile: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "payments", Name: "reconciled_total",
			Help: "Payment reconciliation outcomes, by source and result.",
		}, []string{"source", "result"}),
		statusChanges: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "orders", Name: "status_changes_total",
			Help: "Operator order status transitions.",
		}, []string{"from", "to"}),
		stockShortfall: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "payments", Name: "stock_shortfall_total",
			Help: "Paid orders whose items could not be fully deducted from stock, by source.",
		}, []string{"source"}),
		throttled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "checkout", Name: "throttled_total",
			Help: "Checkout requests rejected by the per-client throttle.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Subsystem: "http", Name: "requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Subsystem: "http", Name: "request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
	}

	reg.MustRegister(
		m.ordersCreated,
		m.paymentsReconcile,
		m.statusChanges,
		m.stockShortfall,
		m.throttled,
		m.httpRequests,
		m.httpDuration,
	)

	return m
}

func (m *Metrics) OrderCreated(method string) {
	m.ordersCreated.WithLabelValues(method).Inc()
}

func (m *Metrics) PaymentReconciled(source, result string) {
	m.paymentsReconcile.WithLabelValues(source, result).Inc()
}

func (m *Metrics) StatusChanged(from, to string) {
	m.statusChanges.WithLabelValues(from, to).Inc()
}

func (m *Metrics) StockShortfall(source string) {
	m.stockShortfall.WithLabelValues(source).Inc()
}

func (m *Metrics) CheckoutThrottled() {
	m.throttled.Inc()
}

// ObserveHTTP учитывает запрос. route — шаблон маршрута chi, а не фактический путь.
func (m *Metrics) ObserveHTTP(method, route string, status int, took time.Duration) {
	code := strconv.Itoa(status)
	m.httpRequests.WithLabelValues(method, route, code).Inc()
	m.httpDuration.WithLabelValues(method, route, code).Observe(took.Seconds())
}
