package http

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DRSN-tech/storefront/internal/domain"
	"github.com/DRSN-tech/storefront/internal/metrics"
	"github.com/DRSN-tech/storefront/internal/repository/memory"
	"github.com/DRSN-tech/storefront/internal/usecase"
	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/DRSN-tech/storefront/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
)

const testAdminPassword = "ghee-admin"

type fakeCheckoutUC struct {
	fn  func(req *usecase.CheckoutReq) (*usecase.CheckoutRes, error)
	got *usecase.CheckoutReq
}

func (f *fakeCheckoutUC) Checkout(_ context.Context, req *usecase.CheckoutReq) (*usecase.CheckoutRes, error) {
	f.got = req
	return f.fn(req)
}

type fakePaymentUC struct {
	verify  func(req *usecase.VerifyPaymentReq) (usecase.ReconcileResult, error)
	webhook func(req *usecase.WebhookReq) (usecase.ReconcileResult, error)
}

func (f *fakePaymentUC) VerifyPayment(_ context.Context, req *usecase.VerifyPaymentReq) (usecase.ReconcileResult, error) {
	return f.verify(req)
}

func (f *fakePaymentUC) HandleWebhook(_ context.Context, req *usecase.WebhookReq) (usecase.ReconcileResult, error) {
	return f.webhook(req)
}

type fakeOrderUC struct {
	update func(req *usecase.UpdateOrderStatusReq) (*usecase.UpdateOrderStatusRes, error)
	orders []domain.Order
}

func (f *fakeOrderUC) UpdateStatus(_ context.Context, req *usecase.UpdateOrderStatusReq) (*usecase.UpdateOrderStatusRes, error) {
	return f.update(req)
}

func (f *fakeOrderUC) GetOrder(_ context.Context, id int64) (*domain.Order, error) {
	for i := range f.orders {
		if f.orders[i].ID == id {
			return &f.orders[i], nil
		}
	}
	return nil, errOrderNotFound
}

func (f *fakeOrderUC) ListOrders(context.Context) ([]domain.Order, error) {
	return f.orders, nil
}

type fakeCartUC struct {
	fn func(req *usecase.ValidateCartReq) (*usecase.ValidateCartRes, error)
}

func (f *fakeCartUC) ValidateCart(_ context.Context, req *usecase.ValidateCartReq) (*usecase.ValidateCartRes, error) {
	return f.fn(req)
}

type fakeProductUC struct {
	catalog []domain.Product
	created *usecase.ProductReq
	toggled map[int64]bool
}

func (f *fakeProductUC) ListCatalog(context.Context) ([]domain.Product, error) {
	return f.catalog, nil
}

func (f *fakeProductUC) ListProducts(context.Context) ([]domain.Product, error) {
	return f.catalog, nil
}

func (f *fakeProductUC) GetProduct(_ context.Context, id int64) (*domain.Product, error) {
	for i := range f.catalog {
		if f.catalog[i].ID == id {
			return &f.catalog[i], nil
		}
	}
	return nil, errProductNotFound
}

func (f *fakeProductUC) CreateProduct(_ context.Context, req *usecase.ProductReq) (*domain.Product, error) {
	f.created = req
	return &domain.Product{ID: 99, Slug: domain.Slugify(req.Name), Name: req.Name, Price: req.Price, Stock: req.Stock, ImageURL: req.ImageURL, IsActive: req.IsActive}, nil
}

func (f *fakeProductUC) UpdateProduct(ctx context.Context, id int64, req *usecase.ProductReq) (*domain.Product, error) {
	p, err := f.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}
	p.Name, p.Price = req.Name, req.Price
	return p, nil
}

func (f *fakeProductUC) SetProductActive(_ context.Context, id int64, active bool) error {
	if f.toggled == nil {
		f.toggled = map[int64]bool{}
	}
	f.toggled[id] = active
	return nil
}

func (f *fakeProductUC) SignImageUpload(_ context.Context, req *usecase.SignUploadReq) (*usecase.PresignedUpload, error) {
	if _, err := domain.ImageExtension(req.ContentType); err != nil {
		return nil, err
	}
	return &usecase.PresignedUpload{UploadURL: "http://minio/upload", ObjectKey: "products/a.png", PublicURL: "http://minio/products/a.png"}, nil
}

type fakePinger struct{ err error }

func (f fakePinger) Ping(context.Context) error { return f.err }

var (
	errOrderNotFound   = e.Wrap("fakeOrderUC.GetOrder", e.ErrOrderNotFound)
	errProductNotFound = e.Wrap("fakeProductUC.GetProduct", e.ErrProductNotFound)
)

type harness struct {
	handler  http.Handler
	checkout *fakeCheckoutUC
	payment  *fakePaymentUC
	orders   *fakeOrderUC
	cart     *fakeCartUC
	products *fakeProductUC
	auth     *usecase.AuthUseCase
	registry *prometheus.Registry
	db       *fakePinger
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	sum := sha256.Sum256([]byte(testAdminPassword))
	h := &harness{
		checkout: &fakeCheckoutUC{},
		payment:  &fakePaymentUC{},
		orders:   &fakeOrderUC{},
		cart:     &fakeCartUC{},
		products: &fakeProductUC{},
		auth:     usecase.NewAuthUC(hex.EncodeToString(sum[:]), "test-secret", time.Hour, logger.NewNop()),
		registry: prometheus.NewRegistry(),
		db:       &fakePinger{},
	}

	router := NewRouter(chi.NewRouter(), "http://localhost/swagger/doc.json", logger.NewNop())
	router.Init(&Deps{
		CheckoutUC: h.checkout,
		PaymentUC:  h.payment,
		OrderUC:    h.orders,
		CartUC:     h.cart,
		ProductUC:  h.products,
		AuthUC:     h.auth,
		Throttle:   memory.NewRateLimiter(time.Minute),
		Metrics:    metrics.New(h.registry),
		Gatherer:   h.registry,
		DB:         h.db,
	})
	h.handler = router.router

	return h
}

func (h *harness) do(method, path, body string, headers ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}

	rec := httptest.NewRecorder()
	h.handler.ServeHTTP(rec, req)
	return rec
}

func (h *harness) adminToken(t *testing.T) string {
	t.Helper()

	res, err := h.auth.Login(context.Background(), &usecase.LoginReq{Password: testAdminPassword})
	require.NoError(t, err)
	return res.Token
}
