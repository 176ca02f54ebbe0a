package usecase

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/DRSN-tech/storefront/internal/domain"
	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/DRSN-tech/storefront/pkg/logger"
	"github.com/google/uuid"
	"golang.org/x/sync/singleflight"
)

const (
	maxSlugAttempts = 100
	catalogKey      = "catalog"
)

// ProductUseCase реализует каталог для покупателей и управление товарами для оператора.
type ProductUseCase struct {
	tm          TxManager
	productRepo ProductRepository
	cache       CatalogCache
	imageRepo   ImageRepository
	logger      logger.Logger
	// imageURLPrefix — базовый URL собственного хранилища изображений, допустимый помимо https.
	imageURLPrefix string

	// catalogLoads склеивает одновременные чтения каталога при промахе кэша
	catalogLoads singleflight.Group
}

func NewProductUC(
	tm TxManager,
	productRepo ProductRepository,
	cache CatalogCache,
	imageRepo ImageRepository,
	logger logger.Logger,
	imageURLPrefix string,
) *ProductUseCase {
	return &ProductUseCase{
		tm:             tm,
		productRepo:    productRepo,
		cache:          cache,
		imageRepo:      imageRepo,
		logger:         logger,
		imageURLPrefix: imageURLPrefix,
	}
}

// ListCatalog возвращает активные товары. Сначала смотрит в кэш, при промахе читает хранилище
// и в фоне кладёт результат в кэш.
func (p *ProductUseCase) ListCatalog(ctx context.Context) ([]domain.Product, error) {
	const op = "ProductUseCase.ListCatalog"

	cached, ok, err := p.cache.GetActive(ctx)
	if err != nil {
		p.logger.Warnf("catalog cache read failed: %v", e.Wrap(op, err))
	} else if ok {
		return cached, nil
	}

	v, err, _ := p.catalogLoads.Do(catalogKey, func() (any, error) {
		products, err := p.productRepo.ListActive(ctx)
		if err != nil {
			return nil, err
		}

		// Фоновое сохранение каталога в кэш
		go func() {
			bgCtx, cancel := context.WithTimeout(context.Background(), 500*time.Millisecond)
			defer cancel()

			if err := p.cache.SetActive(bgCtx, products); err != nil {
				p.logger.Warnf("Failed to cache catalog in background: %v", e.Wrap(op, err))
			}
		}()

		return products, nil
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return v.([]domain.Product), nil
}

func (p *ProductUseCase) ListProducts(ctx context.Context) ([]domain.Product, error) {
	const op = "ProductUseCase.ListProducts"

	products, err := p.productRepo.ListAll(ctx)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return products, nil
}

func (p *ProductUseCase) GetProduct(ctx context.Context, id int64) (*domain.Product, error) {
	const op = "ProductUseCase.GetProduct"

	product, err := p.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return product, nil
}

// CreateProduct создаёт товар с уникальным slug: при совпадении добавляется суффикс -1, -2 и т.д.
func (p *ProductUseCase) CreateProduct(ctx context.Context, req *ProductReq) (*domain.Product, error) {
	const op = "ProductUseCase.CreateProduct"

	if err := p.validateProduct(req); err != nil {
		return nil, e.Wrap(op, err)
	}

	var created *domain.Product
	err := p.tm.Do(ctx, func(ctx context.Context) error {
		slug, err := p.allocateSlug(ctx, req.Name)
		if err != nil {
			return err
		}

		product := domain.NewProduct(strings.TrimSpace(req.Name), req.Description, req.Price, req.Stock, req.ImageURL, req.IsActive)
		product.Slug = slug

		created, err = p.productRepo.Create(ctx, product)
		return err
	})
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	p.invalidateCatalog(ctx, op)
	p.logger.Infof("product created: id=%d slug=%s", created.ID, created.Slug)

	return created, nil
}

// UpdateProduct полностью обновляет товар. Slug не меняется.
func (p *ProductUseCase) UpdateProduct(ctx context.Context, id int64, req *ProductReq) (*domain.Product, error) {
	const op = "ProductUseCase.UpdateProduct"

	if err := p.validateProduct(req); err != nil {
		return nil, e.Wrap(op, err)
	}

	product := domain.NewProduct(strings.TrimSpace(req.Name), req.Description, req.Price, req.Stock, req.ImageURL, req.IsActive)
	product.ID = id

	updated, err := p.productRepo.Update(ctx, product)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	p.invalidateCatalog(ctx, op)

	return updated, nil
}

// SetProductActive включает или снимает товар с продажи. Товары не удаляются физически.
func (p *ProductUseCase) SetProductActive(ctx context.Context, id int64, active bool) error {
	const op = "ProductUseCase.SetProductActive"

	if err := p.productRepo.SetActive(ctx, id, active); err != nil {
		return e.Wrap(op, err)
	}

	p.invalidateCatalog(ctx, op)

	return nil
}

// SignImageUpload выдаёт подписанную ссылку для прямой загрузки изображения товара.
func (p *ProductUseCase) SignImageUpload(ctx context.Context, req *SignUploadReq) (*PresignedUpload, error) {
	const op = "ProductUseCase.SignImageUpload"

	ext, err := domain.ImageExtension(req.ContentType)
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	upload, err := p.imageRepo.PresignUpload(ctx, domain.ImageObjectKey(req.FileName, uuid.NewString(), ext))
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	return upload, nil
}

// allocateSlug подбирает свободный slug для названия.
func (p *ProductUseCase) allocateSlug(ctx context.Context, name string) (string, error) {
	base := domain.Slugify(name)
	if base == "" {
		base = "product"
	}

	for attempt := 0; attempt < maxSlugAttempts; attempt++ {
		candidate := domain.SlugCandidate(base, attempt)
		exists, err := p.productRepo.SlugExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
	}

	return "", e.Wrap(base, e.ErrSlugConflict)
}

// invalidateCatalog удаляет каталог из кэша. Ошибка только логируется.
func (p *ProductUseCase) invalidateCatalog(ctx context.Context, op string) {
	if err := p.cache.Invalidate(ctx); err != nil {
		p.logger.Warnf("Failed to invalidate catalog cache: %v", e.Wrap(op, err))
	}
}

// validateProduct проверяет данные товара.
func (p *ProductUseCase) validateProduct(req *ProductReq) error {
	var errs []error

	if strings.TrimSpace(req.Name) == "" {
		errs = append(errs, errors.New("name is required"))
	}
	if req.Price < 1 {
		errs = append(errs, errors.New("price must be greater than 0"))
	}
	if req.Stock < 0 {
		errs = append(errs, errors.New("stock cannot be negative"))
	}
	if !p.allowedImageURL(req.ImageURL) {
		errs = append(errs, errors.New("image url must be https"))
	}

	if len(errs) > 0 {
		return errors.Join(append([]error{e.ErrValidation}, errs...)...)
	}

	return nil
}

func (p *ProductUseCase) allowedImageURL(url string) bool {
	if strings.HasPrefix(url, "https://") && len(url) > len("https://") {
		return true
	}
	return p.imageURLPrefix != "" && strings.HasPrefix(url, p.imageURLPrefix+"/")
}
