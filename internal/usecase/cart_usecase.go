package usecase

import (
	"context"
	"fmt"

	"github.com/DRSN-tech/storefront/internal/domain"
	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/DRSN-tech/storefront/pkg/logger"
)

// CartUseCase пересчитывает корзину по актуальным ценам и остаткам. Ничего не изменяет.
type CartUseCase struct {
	productRepo ProductRepository
	logger      logger.Logger
}

func NewCartUC(productRepo ProductRepository, logger logger.Logger) *CartUseCase {
	return &CartUseCase{
		productRepo: productRepo,
		logger:      logger,
	}
}

// ValidateCart подставляет живые цены, урезает количество до остатка с предупреждением
// и молча отбрасывает неизвестные или снятые с продажи товары.
func (c *CartUseCase) ValidateCart(ctx context.Context, req *ValidateCartReq) (*ValidateCartRes, error) {
	const op = "CartUseCase.ValidateCart"

	res := &ValidateCartRes{
		Items:    []ValidatedCartItem{},
		Warnings: []string{},
	}
	if len(req.Lines) == 0 {
		return res, nil
	}

	for _, l := range req.Lines {
		if l.Quantity <= 0 {
			return nil, e.Wrap(op, e.ErrInvalidQuantity)
		}
	}

	lines := domain.MergeLines(req.Lines)
	products, err := c.productRepo.GetByIDs(ctx, domain.ProductIDs(lines))
	if err != nil {
		return nil, e.Wrap(op, err)
	}

	byID := make(map[int64]domain.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	for _, l := range lines {
		p, ok := byID[l.ProductID]
		if !ok || !p.IsActive {
			c.logger.Debugf("%s: dropping unknown product %d", op, l.ProductID)
			continue
		}

		qty := l.Quantity
		if qty > p.Stock {
			qty = p.Stock
			res.Warnings = append(res.Warnings, fmt.Sprintf("Stock limited for %s: only %d available.", p.Name, p.Stock))
		}

		lineTotal := p.Price * int64(qty)
		res.Total += lineTotal
		res.Items = append(res.Items, ValidatedCartItem{
			ProductID: p.ID,
			Name:      p.Name,
			ImageURL:  p.ImageURL,
			Quantity:  qty,
			Price:     p.Price,
			LineTotal: lineTotal,
		})
	}

	return res, nil
}
