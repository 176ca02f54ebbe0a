package http

import (
	"time"

	"github.com/DRSN-tech/storefront/internal/domain"
	"github.com/DRSN-tech/storefront/internal/usecase"
)

// REQUESTS

type cartLineDTO struct {
	ID       int64 `json:"id" validate:"required,gt=0"`
	Quantity int   `json:"quantity" validate:"required,gt=0"`
}

type addressDTO struct {
	Line1   string `json:"line1" validate:"required"`
	City    string `json:"city" validate:"required"`
	State   string `json:"state" validate:"required"`
	Pincode string `json:"pincode" validate:"required,min=5"`
}

type customerDTO struct {
	Name    string     `json:"name" validate:"required"`
	Phone   string     `json:"phone" validate:"required,min=10"`
	Email   string     `json:"email" validate:"omitempty,email"`
	Address addressDTO `json:"address"`
}

type CheckoutRequest struct {
	Items         []cartLineDTO `json:"items" validate:"required,min=1,dive"`
	PaymentMethod string        `json:"paymentMethod" validate:"required,oneof=ONLINE COD"`
	Customer      customerDTO   `json:"customer"`
}

type CartValidateRequest struct {
	Items []cartLineDTO `json:"items" validate:"dive"`
}

type VerifyPaymentRequest struct {
	OrderID   string `json:"razorpay_order_id" validate:"required"`
	PaymentID string `json:"razorpay_payment_id" validate:"required"`
	Signature string `json:"razorpay_signature" validate:"required"`
}

type LoginRequest struct {
	Password string `json:"password" validate:"required"`
}

type UpdateOrderStatusRequest struct {
	Status     string `json:"status" validate:"required"`
	TrackingID string `json:"tracking_id"`
}

// ProductRequest — цена передаётся строкой в рупиях, например "599.99".
type ProductRequest struct {
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	Price       string `json:"price" validate:"required"`
	Stock       *int   `json:"stock" validate:"required,min=0"`
	ImageURL    string `json:"image_url" validate:"required,url"`
	IsActive    *bool  `json:"is_active"`
}

type ToggleProductRequest struct {
	IsActive *bool `json:"is_active" validate:"required"`
}

type SignUploadRequest struct {
	FileName    string `json:"file_name" validate:"required"`
	ContentType string `json:"content_type" validate:"required"`
}

func toCartLines(items []cartLineDTO) []domain.CartLine {
	lines := make([]domain.CartLine, 0, len(items))
	for _, it := range items {
		lines = append(lines, domain.CartLine{ProductID: it.ID, Quantity: it.Quantity})
	}
	return lines
}

func (c *CheckoutRequest) toUsecase() *usecase.CheckoutReq {
	return &usecase.CheckoutReq{
		Lines:         toCartLines(c.Items),
		PaymentMethod: domain.PaymentMethod(c.PaymentMethod),
		Customer: domain.CustomerSnapshot{
			Name:  c.Customer.Name,
			Phone: c.Customer.Phone,
			Email: c.Customer.Email,
			Address: domain.Address{
				Line1:   c.Customer.Address.Line1,
				City:    c.Customer.Address.City,
				State:   c.Customer.Address.State,
				Pincode: c.Customer.Address.Pincode,
			},
		},
	}
}

func (p *ProductRequest) toUsecase() (*usecase.ProductReq, error) {
	price, err := parsePriceToMinor(p.Price)
	if err != nil {
		return nil, err
	}

	active := true
	if p.IsActive != nil {
		active = *p.IsActive
	}

	return &usecase.ProductReq{
		Name:        p.Name,
		Description: p.Description,
		Price:       price,
		Stock:       *p.Stock,
		ImageURL:    p.ImageURL,
		IsActive:    active,
	}, nil
}

// RESPONSES

type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

type StatusResponse struct {
	Status string `json:"status"`
}

type OnlineCheckoutResponse struct {
	OrderID       string `json:"orderId"`
	Amount        int64  `json:"amount"`
	Currency      string `json:"currency"`
	Key           string `json:"key"`
	PaymentMethod string `json:"paymentMethod"`
}

type CODCheckoutResponse struct {
	Success       bool   `json:"success"`
	PaymentMethod string `json:"paymentMethod"`
	OrderID       string `json:"orderId"`
}

type CartItemResponse struct {
	ID        int64  `json:"id"`
	Name      string `json:"name"`
	ImageURL  string `json:"image_url"`
	Quantity  int    `json:"quantity"`
	Price     int64  `json:"price"`
	LineTotal int64  `json:"lineTotal"`
}

type CartResponse struct {
	Total    int64              `json:"total"`
	Items    []CartItemResponse `json:"items"`
	Warnings []string           `json:"warnings"`
}

type ProductResponse struct {
	ID          int64     `json:"id"`
	Slug        string    `json:"slug"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Price       int64     `json:"price"`
	Stock       int       `json:"stock"`
	ImageURL    string    `json:"image_url"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

type ProductListResponse struct {
	Success  bool              `json:"success"`
	Products []ProductResponse `json:"products"`
}

type ProductEnvelope struct {
	Success bool            `json:"success"`
	Product ProductResponse `json:"product"`
}

type OrderItemResponse struct {
	ProductID       int64  `json:"product_id"`
	ProductName     string `json:"product_name"`
	ImageURL        string `json:"image_url"`
	Quantity        int    `json:"quantity"`
	PriceAtPurchase int64  `json:"price_at_purchase"`
}

type OrderResponse struct {
	ID              int64                   `json:"id"`
	RazorpayOrderID string                  `json:"razorpay_order_id"`
	Amount          int64                   `json:"amount"`
	AmountDisplay   string                  `json:"amount_display"`
	Currency        string                  `json:"currency"`
	Status          string                  `json:"status"`
	PaymentMethod   string                  `json:"payment_method"`
	CustomerDetails domain.CustomerSnapshot `json:"customer_details"`
	TrackingID      *string                 `json:"tracking_id"`
	ShippedAt       *time.Time              `json:"shipped_at"`
	DeliveredAt     *time.Time              `json:"delivered_at"`
	CreatedAt       time.Time               `json:"created_at"`
	Items           []OrderItemResponse     `json:"items,omitempty"`
}

type OrderListResponse struct {
	Success bool            `json:"success"`
	Orders  []OrderResponse `json:"orders"`
}

type OrderEnvelope struct {
	Success bool          `json:"success"`
	Order   OrderResponse `json:"order"`
}

type UpdateOrderStatusResponse struct {
	Success bool   `json:"success"`
	Status  string `json:"status"`
	Message string `json:"message,omitempty"`
}

type LoginResponse struct {
	Success   bool      `json:"success"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

type SignUploadResponse struct {
	UploadURL string    `json:"upload_url"`
	ObjectKey string    `json:"object_key"`
	PublicURL string    `json:"public_url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// MAPPERS

func newCartResponse(res *usecase.ValidateCartRes) *CartResponse {
	items := make([]CartItemResponse, 0, len(res.Items))
	for _, it := range res.Items {
		items = append(items, CartItemResponse{
			ID:        it.ProductID,
			Name:      it.Name,
			ImageURL:  it.ImageURL,
			Quantity:  it.Quantity,
			Price:     it.Price,
			LineTotal: it.LineTotal,
		})
	}

	warnings := res.Warnings
	if warnings == nil {
		warnings = []string{}
	}

	return &CartResponse{Total: res.Total, Items: items, Warnings: warnings}
}

func newProductResponse(p *domain.Product) ProductResponse {
	return ProductResponse{
		ID:          p.ID,
		Slug:        p.Slug,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		Stock:       p.Stock,
		ImageURL:    p.ImageURL,
		IsActive:    p.IsActive,
		CreatedAt:   p.CreatedAt,
	}
}

func newProductListResponse(products []domain.Product) *ProductListResponse {
	out := make([]ProductResponse, 0, len(products))
	for i := range products {
		out = append(out, newProductResponse(&products[i]))
	}
	return &ProductListResponse{Success: true, Products: out}
}

func newOrderResponse(o *domain.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItemResponse{
			ProductID:       it.ProductID,
			ProductName:     it.ProductName,
			ImageURL:        it.ProductImageURL,
			Quantity:        it.Quantity,
			PriceAtPurchase: it.PriceAtPurchase,
		})
	}

	return OrderResponse{
		ID:              o.ID,
		RazorpayOrderID: o.GatewayRef,
		Amount:          o.Amount,
		AmountDisplay:   formatMinor(o.Amount),
		Currency:        o.Currency,
		Status:          o.Status.String(),
		PaymentMethod:   string(o.PaymentMethod),
		CustomerDetails: o.Customer,
		TrackingID:      o.TrackingRef,
		ShippedAt:       o.ShippedAt,
		DeliveredAt:     o.DeliveredAt,
		CreatedAt:       o.CreatedAt,
		Items:           items,
	}
}
