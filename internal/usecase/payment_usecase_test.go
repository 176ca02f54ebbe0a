package usecase

import (
	"context"
	"sync"
	"testing"

	"github.com/DRSN-tech/storefront/internal/domain"
	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/DRSN-tech/storefront/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type paymentFixture struct {
	store    *memStore
	gateway  *fakeGateway
	notifier *fakeNotifier
	metrics  *shortfallMetrics
	uc       *PaymentUseCase
}

func newPaymentFixture(products ...domain.Product) *paymentFixture {
	store := newMemStore(products...)
	gw := &fakeGateway{paymentOK: true, webhookOK: true}
	n := &fakeNotifier{}
	m := &shortfallMetrics{}
	uc := NewPaymentUC(
		&fakeTxManager{s: store},
		&fakeOrderRepo{s: store},
		&fakeProductRepo{s: store},
		gw,
		n,
		m,
		logger.NewNop(),
	)
	return &paymentFixture{store: store, gateway: gw, notifier: n, metrics: m, uc: uc}
}

func (f *paymentFixture) seedOrder(ref string, status domain.OrderStatus, items ...domain.OrderItem) int64 {
	var amount int64
	for _, it := range items {
		amount += it.LineTotal()
	}
	return f.store.putOrder(domain.Order{
		GatewayRef:    ref,
		Amount:        amount,
		Currency:      "INR",
		Status:        status,
		PaymentMethod: domain.PaymentOnline,
		Customer:      testCustomer(),
		Items:         items,
	})
}

func capturedBody(orderRef string) []byte {
	return []byte(`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_1","order_id":"` + orderRef + `"}}}}`)
}

func TestHandleWebhook_MarksPaidAndDecrementsOnce(t *testing.T) {
	f := newPaymentFixture(ghee(1, 50000, 10))
	id := f.seedOrder("order_A", domain.StatusPending, domain.OrderItem{ProductID: 1, Quantity: 2, PriceAtPurchase: 50000, ProductName: "Ghee B"})

	res, err := f.uc.HandleWebhook(context.Background(), &WebhookReq{Body: capturedBody("order_A"), Signature: "sig"})
	require.NoError(t, err)
	assert.Equal(t, ReconcileProcessed, res)
	assert.Equal(t, domain.StatusPaid, f.store.order(id).Status)
	assert.Equal(t, 8, f.store.stock(1))
	require.Equal(t, 1, f.notifier.count())
	assert.Equal(t, "ONLINE (Razorpay)", f.notifier.sent[0].PaymentLabel)

	// повторная доставка того же события
	res, err = f.uc.HandleWebhook(context.Background(), &WebhookReq{Body: capturedBody("order_A"), Signature: "sig"})
	require.NoError(t, err)
	assert.Equal(t, ReconcileAlreadyProcessed, res)
	assert.Equal(t, 8, f.store.stock(1))
	assert.Equal(t, 1, f.notifier.count())
}

// Вебхук и клиентское подтверждение приходят одновременно.
func TestReconcile_ConcurrentWebhookAndVerifyConverge(t *testing.T) {
	for i := 0; i < 20; i++ {
		f := newPaymentFixture(ghee(1, 50000, 10))
		id := f.seedOrder("order_RACE", domain.StatusPending, domain.OrderItem{ProductID: 1, Quantity: 3, PriceAtPurchase: 50000})

		var (
			wg      sync.WaitGroup
			results [2]ReconcileResult
			errs    [2]error
		)
		wg.Add(2)
		go func() {
			defer wg.Done()
			results[0], errs[0] = f.uc.HandleWebhook(context.Background(), &WebhookReq{Body: capturedBody("order_RACE"), Signature: "sig"})
		}()
		go func() {
			defer wg.Done()
			results[1], errs[1] = f.uc.VerifyPayment(context.Background(), &VerifyPaymentReq{
				GatewayOrderID: "order_RACE",
				PaymentID:      "pay_1",
				Signature:      "sig",
			})
		}()
		wg.Wait()

		require.NoError(t, errs[0])
		require.NoError(t, errs[1])
		assert.ElementsMatch(t, []ReconcileResult{ReconcileProcessed, ReconcileAlreadyProcessed}, results[:])
		assert.Equal(t, 7, f.store.stock(1))
		assert.Equal(t, 1, f.notifier.count())
		assert.Equal(t, domain.StatusPaid, f.store.order(id).Status)
	}
}

func TestVerifyPayment_Label(t *testing.T) {
	f := newPaymentFixture(ghee(1, 100, 5))
	f.seedOrder("order_V", domain.StatusPending, domain.OrderItem{ProductID: 1, Quantity: 1, PriceAtPurchase: 100})

	res, err := f.uc.VerifyPayment(context.Background(), &VerifyPaymentReq{GatewayOrderID: "order_V", PaymentID: "pay_9", Signature: "sig"})
	require.NoError(t, err)
	assert.Equal(t, ReconcileProcessed, res)
	require.Equal(t, 1, f.notifier.count())
	assert.Equal(t, "ONLINE (Razorpay Verified)", f.notifier.sent[0].PaymentLabel)
}

func TestVerifyPayment_InvalidSignature(t *testing.T) {
	f := newPaymentFixture(ghee(1, 100, 5))
	id := f.seedOrder("order_S", domain.StatusPending, domain.OrderItem{ProductID: 1, Quantity: 1, PriceAtPurchase: 100})
	f.gateway.paymentOK = false

	_, err := f.uc.VerifyPayment(context.Background(), &VerifyPaymentReq{GatewayOrderID: "order_S", PaymentID: "pay", Signature: "forged"})
	require.ErrorIs(t, err, e.ErrInvalidSignature)
	assert.Equal(t, domain.StatusPending, f.store.order(id).Status)
	assert.Equal(t, 5, f.store.stock(1))
}

func TestVerifyPayment_UnknownOrder(t *testing.T) {
	f := newPaymentFixture()

	res, err := f.uc.VerifyPayment(context.Background(), &VerifyPaymentReq{GatewayOrderID: "order_X", PaymentID: "pay", Signature: "sig"})
	require.ErrorIs(t, err, e.ErrOrderNotFound)
	assert.Equal(t, ReconcileUnknownOrder, res)
}

func TestHandleWebhook_UnknownOrderIsNoop(t *testing.T) {
	f := newPaymentFixture()

	res, err := f.uc.HandleWebhook(context.Background(), &WebhookReq{Body: capturedBody("order_FOREIGN"), Signature: "sig"})
	require.NoError(t, err)
	assert.Equal(t, ReconcileUnknownOrder, res)
	assert.Zero(t, f.notifier.count())
}

func TestHandleWebhook_InvalidSignature(t *testing.T) {
	f := newPaymentFixture(ghee(1, 100, 5))
	id := f.seedOrder("order_A", domain.StatusPending, domain.OrderItem{ProductID: 1, Quantity: 1, PriceAtPurchase: 100})
	f.gateway.webhookOK = false

	_, err := f.uc.HandleWebhook(context.Background(), &WebhookReq{Body: capturedBody("order_A"), Signature: "bad"})
	require.ErrorIs(t, err, e.ErrInvalidSignature)

	_, err = f.uc.HandleWebhook(context.Background(), &WebhookReq{Body: capturedBody("order_A")})
	require.ErrorIs(t, err, e.ErrInvalidSignature)

	assert.Equal(t, domain.StatusPending, f.store.order(id).Status)
}

func TestHandleWebhook_OtherEventsSkipped(t *testing.T) {
	f := newPaymentFixture(ghee(1, 100, 5))
	id := f.seedOrder("order_A", domain.StatusPending, domain.OrderItem{ProductID: 1, Quantity: 1, PriceAtPurchase: 100})

	body := []byte(`{"event":"payment.failed","payload":{"payment":{"entity":{"order_id":"order_A"}}}}`)
	res, err := f.uc.HandleWebhook(context.Background(), &WebhookReq{Body: body, Signature: "sig"})
	require.NoError(t, err)
	assert.Equal(t, ReconcileSkippedEvent, res)
	assert.Equal(t, domain.StatusPending, f.store.order(id).Status)
}

func TestHandleWebhook_MalformedBody(t *testing.T) {
	f := newPaymentFixture()

	_, err := f.uc.HandleWebhook(context.Background(), &WebhookReq{Body: []byte("{not json"), Signature: "sig"})
	require.ErrorIs(t, err, e.ErrValidation)
}

func TestReconcile_CancelledOrderNotEligible(t *testing.T) {
	f := newPaymentFixture(ghee(1, 100, 5))
	id := f.seedOrder("order_C", domain.StatusCancelled, domain.OrderItem{ProductID: 1, Quantity: 1, PriceAtPurchase: 100})

	res, err := f.uc.HandleWebhook(context.Background(), &WebhookReq{Body: capturedBody("order_C"), Signature: "sig"})
	require.NoError(t, err)
	assert.Equal(t, ReconcileNotEligible, res)
	assert.Equal(t, domain.StatusCancelled, f.store.order(id).Status)
	assert.Equal(t, 5, f.store.stock(1))
	assert.Zero(t, f.notifier.count())
}

func TestReconcile_StockShortfallStillMarksPaid(t *testing.T) {
	f := newPaymentFixture(ghee(1, 100, 1), ghee(2, 100, 5))
	id := f.seedOrder("order_SHORT", domain.StatusPending,
		domain.OrderItem{ProductID: 2, Quantity: 2, PriceAtPurchase: 100},
		domain.OrderItem{ProductID: 1, Quantity: 3, PriceAtPurchase: 100},
	)

	// шлюз повторяет доставку, пока не получит 2xx
	for range 3 {
		res, err := f.uc.HandleWebhook(context.Background(), &WebhookReq{Body: capturedBody("order_SHORT"), Signature: "sig"})
		require.NoError(t, err)
		assert.Contains(t, []ReconcileResult{ReconcileProcessed, ReconcileAlreadyProcessed}, res)
	}

	res, err := f.uc.VerifyPayment(context.Background(), &VerifyPaymentReq{GatewayOrderID: "order_SHORT", PaymentID: "pay_1", Signature: "sig"})
	require.NoError(t, err)
	assert.Equal(t, ReconcileAlreadyProcessed, res)

	assert.Equal(t, domain.StatusPaid, f.store.order(id).Status)
	assert.Equal(t, 3, f.store.stock(2))
	assert.Equal(t, 1, f.store.stock(1), "a short line is not deducted")

	require.Equal(t, 1, f.notifier.count())
	assert.Equal(t, []StockShortfall{{ProductID: 1, Name: "Ghee B", Requested: 3, Available: 1}}, f.notifier.sent[0].Shortfall)
	assert.Equal(t, []string{string(SourceWebhook)}, f.metrics.sources)
}

func TestReconcile_NoShortfallLeavesNotificationClean(t *testing.T) {
	f := newPaymentFixture(ghee(1, 100, 5))
	f.seedOrder("order_OK", domain.StatusPending, domain.OrderItem{ProductID: 1, Quantity: 5, PriceAtPurchase: 100})

	res, err := f.uc.HandleWebhook(context.Background(), &WebhookReq{Body: capturedBody("order_OK"), Signature: "sig"})
	require.NoError(t, err)
	assert.Equal(t, ReconcileProcessed, res)
	assert.Equal(t, 0, f.store.stock(1))

	require.Equal(t, 1, f.notifier.count())
	assert.Empty(t, f.notifier.sent[0].Shortfall)
	assert.Empty(t, f.metrics.sources)
}
