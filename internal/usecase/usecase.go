package usecase

import (
	"context"

	"github.com/DRSN-tech/storefront/internal/domain"
)

type CheckoutUC interface {
	Checkout(ctx context.Context, req *CheckoutReq) (*CheckoutRes, error)
}

type PaymentUC interface {
	VerifyPayment(ctx context.Context, req *VerifyPaymentReq) (ReconcileResult, error)
	HandleWebhook(ctx context.Context, req *WebhookReq) (ReconcileResult, error)
}

type OrderUC interface {
	UpdateStatus(ctx context.Context, req *UpdateOrderStatusReq) (*UpdateOrderStatusRes, error)
	GetOrder(ctx context.Context, id int64) (*domain.Order, error)
	ListOrders(ctx context.Context) ([]domain.Order, error)
}

type CartUC interface {
	ValidateCart(ctx context.Context, req *ValidateCartReq) (*ValidateCartRes, error)
}

type ProductUC interface {
	ListCatalog(ctx context.Context) ([]domain.Product, error)
	ListProducts(ctx context.Context) ([]domain.Product, error)
	GetProduct(ctx context.Context, id int64) (*domain.Product, error)
	CreateProduct(ctx context.Context, req *ProductReq) (*domain.Product, error)
	UpdateProduct(ctx context.Context, id int64, req *ProductReq) (*domain.Product, error)
	SetProductActive(ctx context.Context, id int64, active bool) error
	SignImageUpload(ctx context.Context, req *SignUploadReq) (*PresignedUpload, error)
}

type AuthUC interface {
	Login(ctx context.Context, req *LoginReq) (*LoginRes, error)
	ParseToken(token string) (*AdminClaims, error)
}
