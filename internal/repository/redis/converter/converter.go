package converter

import "github.com/DRSN-tech/storefront/internal/domain"

// CatalogConverter преобразует товары между domain и моделью кэша.
type CatalogConverter struct{}

func (CatalogConverter) ToRedisModel(p *domain.Product) CatalogProductModel {
	return CatalogProductModel{
		ID:          p.ID,
		Slug:        p.Slug,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price,
		ImageURL:    p.ImageURL,
		Stock:       p.Stock,
		CreatedAt:   p.CreatedAt,
	}
}

// ToEntity восстанавливает товар. В кэше лежат только активные товары.
func (CatalogConverter) ToEntity(m *CatalogProductModel) domain.Product {
	return domain.Product{
		ID:          m.ID,
		Slug:        m.Slug,
		Name:        m.Name,
		Description: m.Description,
		Price:       m.Price,
		ImageURL:    m.ImageURL,
		Stock:       m.Stock,
		IsActive:    true,
		CreatedAt:   m.CreatedAt,
	}
}

func (c CatalogConverter) ToArrRedisModel(products []domain.Product) []CatalogProductModel {
	res := make([]CatalogProductModel, 0, len(products))
	for i := range products {
		res = append(res, c.ToRedisModel(&products[i]))
	}
	return res
}

func (c CatalogConverter) ToArrEntity(models []CatalogProductModel) []domain.Product {
	res := make([]domain.Product, 0, len(models))
	for i := range models {
		res = append(res, c.ToEntity(&models[i]))
	}
	return res
}
