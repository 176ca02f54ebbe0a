// Package payment — адаптер платёжного шлюза Razorpay.
package payment

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/DRSN-tech/storefront/internal/cfg"
	"github.com/DRSN-tech/storefront/internal/usecase"
	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/DRSN-tech/storefront/pkg/logger"
	"github.com/jimlawless/whereami"
)

const ordersPath = "/v1/orders"

type createOrderReq struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Receipt  string `json:"receipt"`
}

type orderRes struct {
	ID       string `json:"id"`
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
	Status   string `json:"status"`
}

type errorRes struct {
	Error struct {
		Code        string `json:"code"`
		Description string `json:"description"`
	} `json:"error"`
}

// Gateway создаёт заказы в Razorpay и проверяет HMAC-подписи платежей и вебхуков.
type Gateway struct {
	client *http.Client
	cfg    *cfg.PaymentCfg
	logger logger.Logger
}

func NewGateway(cfg *cfg.PaymentCfg, logger logger.Logger) *Gateway {
	return &Gateway{
		client: &http.Client{Timeout: cfg.Timeout},
		cfg:    cfg,
		logger: logger,
	}
}

func (g *Gateway) KeyID() string {
	return g.cfg.KeyID
}

// CreateOrder создаёт заказ на стороне шлюза (POST /v1/orders, basic auth key_id:key_secret).
func (g *Gateway) CreateOrder(ctx context.Context, req *usecase.CreateGatewayOrderReq) (*usecase.GatewayOrder, error) {
	body, err := json.Marshal(createOrderReq{
		Amount:   req.Amount,
		Currency: req.Currency,
		Receipt:  req.Receipt,
	})
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, strings.TrimRight(g.cfg.BaseURL, "/")+ordersPath, bytes.NewReader(body))
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	httpReq.SetBasicAuth(g.cfg.KeyID, g.cfg.KeySecret)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}

	if resp.StatusCode != http.StatusOK {
		var apiErr errorRes
		_ = json.Unmarshal(raw, &apiErr)
		g.logger.Warnf("razorpay order creation failed: status=%d code=%s", resp.StatusCode, apiErr.Error.Code)
		return nil, fmt.Errorf("%s: razorpay responded %d: %s", whereami.WhereAmI(), resp.StatusCode, apiErr.Error.Description)
	}

	var order orderRes
	if err := json.Unmarshal(raw, &order); err != nil {
		return nil, e.Wrap(whereami.WhereAmI(), err)
	}
	if order.ID == "" {
		return nil, fmt.Errorf("%s: razorpay returned order without id", whereami.WhereAmI())
	}

	return &usecase.GatewayOrder{
		ID:       order.ID,
		Amount:   order.Amount,
		Currency: order.Currency,
	}, nil
}

// VerifyPaymentSignature проверяет подпись из виджета: hex(HMAC-SHA256(order_id|payment_id, key_secret)).
func (g *Gateway) VerifyPaymentSignature(orderID, paymentID, signature string) bool {
	return validSignature([]byte(orderID+"|"+paymentID), g.cfg.KeySecret, signature)
}

// VerifyWebhookSignature проверяет заголовок X-Razorpay-Signature: hex(HMAC-SHA256(body, webhook_secret)).
func (g *Gateway) VerifyWebhookSignature(body []byte, signature string) bool {
	return validSignature(body, g.cfg.WebhookSecret, signature)
}

func validSignature(message []byte, secret, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}

	got, err := hex.DecodeString(signature)
	if err != nil {
		return false
	}

	return hmac.Equal(got, Sign(message, secret))
}

// Sign считает HMAC-SHA256 сообщения.
func Sign(message []byte, secret string) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(message)
	return mac.Sum(nil)
}
