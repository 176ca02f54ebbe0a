package usecase

import (
	"context"
	"time"

	"github.com/DRSN-tech/storefront/internal/domain"
)

// TxManager выполняет fn в одной транзакции хранилища.
// Ошибка fn приводит к откату всех изменений.
type TxManager interface {
	Do(ctx context.Context, fn func(ctx context.Context) error) error
}

// ProductRepository — хранилище товаров и их остатков.
type ProductRepository interface {
	GetByIDs(ctx context.Context, ids []int64) ([]domain.Product, error)
	GetByID(ctx context.Context, id int64) (*domain.Product, error)
	ListActive(ctx context.Context) ([]domain.Product, error)
	ListAll(ctx context.Context) ([]domain.Product, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	Create(ctx context.Context, product *domain.Product) (*domain.Product, error)
	Update(ctx context.Context, product *domain.Product) (*domain.Product, error)
	SetActive(ctx context.Context, id int64, active bool) error
	// DecrementStock уменьшает остаток только если его хватает.
	// Возвращает false, если остатка недостаточно.
	DecrementStock(ctx context.Context, productID int64, qty int) (bool, error)
}

// OrderRepository — хранилище заказов и их позиций.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) (*domain.Order, error)
	GetByID(ctx context.Context, id int64) (*domain.Order, error)
	// GetByIDForUpdate и GetByGatewayRefForUpdate блокируют строку заказа до конца транзакции.
	GetByIDForUpdate(ctx context.Context, id int64) (*domain.Order, error)
	GetByGatewayRefForUpdate(ctx context.Context, ref string) (*domain.Order, error)
	List(ctx context.Context) ([]domain.Order, error)
	// UpdateStatus применяет переход только если текущий статус равен req.From.
	UpdateStatus(ctx context.Context, req *UpdateStatusParams) error
}

// OutboxRepository — таблица исходящих событий.
type OutboxRepository interface {
	Create(ctx context.Context, event *OutboxEvent) (*OutboxEvent, error)
	GetAndMarkAsProcessing(ctx context.Context, limit int) ([]*OutboxEvent, error)
	MarkAsProcessed(ctx context.Context, id int64) error
	ReturnToPending(ctx context.Context, id int64, lastErr string) error
	ReleaseStale(ctx context.Context, olderThan time.Duration) (int64, error)
}

// CatalogCache кэширует публичный каталог. Цены для оформления заказа из кэша не берутся.
type CatalogCache interface {
	GetActive(ctx context.Context) ([]domain.Product, bool, error)
	SetActive(ctx context.Context, products []domain.Product) error
	Invalidate(ctx context.Context) error
}

// ImageRepository выдаёт подписанные ссылки на загрузку изображений товаров.
type ImageRepository interface {
	PresignUpload(ctx context.Context, objectKey string) (*PresignedUpload, error)
}
