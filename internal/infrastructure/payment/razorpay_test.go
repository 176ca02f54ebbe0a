package payment

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DRSN-tech/storefront/internal/cfg"
	"github.com/DRSN-tech/storefront/internal/usecase"
	"github.com/DRSN-tech/storefront/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCfg(baseURL string) *cfg.PaymentCfg {
	return &cfg.PaymentCfg{
		KeyID:         "rzp_test_key",
		KeySecret:     "key-secret",
		WebhookSecret: "hook-secret",
		Currency:      "INR",
		BaseURL:       baseURL,
		Timeout:       time.Second,
	}
}

func TestCreateOrder(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v1/orders", r.URL.Path)

		user, pass, ok := r.BasicAuth()
		assert.True(t, ok)
		assert.Equal(t, "rzp_test_key", user)
		assert.Equal(t, "key-secret", pass)

		var body createOrderReq
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, int64(30000), body.Amount)
		assert.Equal(t, "receipt_1", body.Receipt)

		_ = json.NewEncoder(w).Encode(orderRes{ID: "order_ABC", Amount: body.Amount, Currency: body.Currency, Status: "created"})
	}))
	defer srv.Close()

	g := NewGateway(testCfg(srv.URL), logger.NewNop())
	order, err := g.CreateOrder(context.Background(), &usecase.CreateGatewayOrderReq{Amount: 30000, Currency: "INR", Receipt: "receipt_1"})
	require.NoError(t, err)
	assert.Equal(t, "order_ABC", order.ID)
	assert.Equal(t, int64(30000), order.Amount)
}

func TestCreateOrder_GatewayError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"code":"BAD_REQUEST_ERROR","description":"Authentication failed"}}`))
	}))
	defer srv.Close()

	g := NewGateway(testCfg(srv.URL), logger.NewNop())
	_, err := g.CreateOrder(context.Background(), &usecase.CreateGatewayOrderReq{Amount: 100, Currency: "INR"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Authentication failed")
}

func TestVerifyPaymentSignature(t *testing.T) {
	g := NewGateway(testCfg(""), logger.NewNop())
	valid := hex.EncodeToString(Sign([]byte("order_1|pay_1"), "key-secret"))

	assert.True(t, g.VerifyPaymentSignature("order_1", "pay_1", valid))
	assert.False(t, g.VerifyPaymentSignature("order_1", "pay_2", valid))
	assert.False(t, g.VerifyPaymentSignature("order_1", "pay_1", "zz-not-hex"))
	assert.False(t, g.VerifyPaymentSignature("order_1", "pay_1", ""))
}

func TestVerifyWebhookSignature(t *testing.T) {
	g := NewGateway(testCfg(""), logger.NewNop())
	body := []byte(`{"event":"payment.captured"}`)
	valid := hex.EncodeToString(Sign(body, "hook-secret"))

	assert.True(t, g.VerifyWebhookSignature(body, valid))
	assert.False(t, g.VerifyWebhookSignature([]byte(`{"event":"payment.failed"}`), valid))
	assert.False(t, g.VerifyWebhookSignature(body, hex.EncodeToString(Sign(body, "key-secret"))))
}
