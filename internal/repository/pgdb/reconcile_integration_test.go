package pgdb

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/DRSN-tech/storefront/internal/cfg"
	"github.com/DRSN-tech/storefront/internal/domain"
	"github.com/DRSN-tech/storefront/internal/infrastructure/notification"
	"github.com/DRSN-tech/storefront/internal/metrics"
	"github.com/DRSN-tech/storefront/internal/usecase"
	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/DRSN-tech/storefront/pkg/logger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// acceptingGateway принимает любые подписи. Создание заказа в шлюзе здесь не используется.
type acceptingGateway struct{}

func (acceptingGateway) CreateOrder(context.Context, *usecase.CreateGatewayOrderReq) (*usecase.GatewayOrder, error) {
	return nil, errors.New("not used")
}
func (acceptingGateway) VerifyPaymentSignature(_, _, _ string) bool   { return true }
func (acceptingGateway) VerifyWebhookSignature(_ []byte, _ string) bool { return true }
func (acceptingGateway) KeyID() string                                 { return "rzp_test_key" }

func (s *store) outboxRows(t *testing.T, orderID int64) int {
	t.Helper()

	var n int
	require.NoError(t, s.pool.QueryRow(context.Background(),
		`SELECT count(*) FROM outbox_events WHERE aggregate_id = $1`, orderID).Scan(&n))
	return n
}

// race запускает обе функции одновременно и возвращает их ошибки.
func race(first, second func() error) (error, error) {
	var (
		wg   sync.WaitGroup
		errs [2]error
	)
	start := make(chan struct{})
	for i, fn := range []func() error{first, second} {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			errs[i] = fn()
		}()
	}
	close(start)
	wg.Wait()

	return errs[0], errs[1]
}

func TestPaymentUseCase_WebhookAndVerifyRaceOnRealLocks(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	notifier := notification.NewOutboxNotifier(s.outbox,
		&cfg.NotificationCfg{AdminEmail: "admin@shop.test", FromAddress: "orders@shop.test", Timeout: 5 * time.Second},
		logger.NewNop())
	uc := usecase.NewPaymentUC(s.tm, s.orders, s.products, acceptingGateway{}, notifier,
		metrics.New(prometheus.NewRegistry()), logger.NewNop())

	const rounds = 5
	p := s.product(t, "Ghee", 15000, rounds*2)

	for i := range rounds {
		ref := fmt.Sprintf("order_RACE_%d", i)
		order := s.pendingOrder(t, ref, p, 2)
		body := []byte(`{"event":"payment.captured","payload":{"payment":{"entity":{"id":"pay_` + ref + `","order_id":"` + ref + `"}}}}`)

		var webhookRes, verifyRes usecase.ReconcileResult
		webhookErr, verifyErr := race(
			func() (err error) {
				webhookRes, err = uc.HandleWebhook(ctx, &usecase.WebhookReq{Body: body, Signature: "sig"})
				return err
			},
			func() (err error) {
				verifyRes, err = uc.VerifyPayment(ctx, &usecase.VerifyPaymentReq{GatewayOrderID: ref, PaymentID: "pay_" + ref, Signature: "sig"})
				return err
			},
		)
		require.NoError(t, webhookErr)
		require.NoError(t, verifyErr)
		require.NoError(t, notifier.Wait(ctx))

		assert.ElementsMatch(t,
			[]usecase.ReconcileResult{usecase.ReconcileProcessed, usecase.ReconcileAlreadyProcessed},
			[]usecase.ReconcileResult{webhookRes, verifyRes}, "round %d", i)

		got, err := s.orders.GetByID(ctx, order.ID)
		require.NoError(t, err)
		assert.Equal(t, domain.StatusPaid, got.Status)
		// у покупателя нет email: одно письмо оператору
		assert.Equal(t, 1, s.outboxRows(t, order.ID), "round %d", i)
	}

	got, err := s.products.GetByID(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, got.Stock, "each order deducted exactly once")
}

func TestOrderUseCase_ConcurrentStatusUpdatesSerialize(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()
	uc := usecase.NewOrderUC(s.tm, s.orders, metrics.New(prometheus.NewRegistry()), logger.NewNop())
	p := s.product(t, "Ghee", 15000, 10)

	for i := range 5 {
		order := s.pendingOrder(t, fmt.Sprintf("order_STATUS_%d", i), p, 1)
		_, err := s.pool.Exec(ctx, `UPDATE orders SET status = 'CONFIRMED' WHERE id = $1`, order.ID)
		require.NoError(t, err)

		shipErr, cancelErr := race(
			func() error {
				_, err := uc.UpdateStatus(ctx, &usecase.UpdateOrderStatusReq{OrderID: order.ID, Status: "SHIPPED", TrackingRef: "DTDC1"})
				return err
			},
			func() error {
				_, err := uc.UpdateStatus(ctx, &usecase.UpdateOrderStatusReq{OrderID: order.ID, Status: "CANCELLED"})
				return err
			},
		)

		got, err := s.orders.GetByID(ctx, order.ID)
		require.NoError(t, err)

		// SHIPPED -> CANCELLED не разрешён, CANCELLED терминален: побеждает ровно один
		switch {
		case shipErr == nil:
			require.Error(t, cancelErr, "round %d", i)
			assert.ErrorIs(t, cancelErr, e.ErrInvalidTransition)
			assert.Equal(t, domain.StatusShipped, got.Status)
			require.NotNil(t, got.TrackingRef)
			assert.Equal(t, "DTDC1", *got.TrackingRef)
		case cancelErr == nil:
			assert.ErrorIs(t, shipErr, e.ErrOrderFinalized, "round %d", i)
			assert.Equal(t, domain.StatusCancelled, got.Status)
			assert.Nil(t, got.TrackingRef)
		default:
			t.Fatalf("round %d: both updates failed: ship=%v cancel=%v", i, shipErr, cancelErr)
		}
	}
}
