package usecase

import (
	"context"
	"testing"

	"github.com/DRSN-tech/storefront/internal/domain"
	"github.com/DRSN-tech/storefront/pkg/e"
	"github.com/DRSN-tech/storefront/pkg/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateCart(t *testing.T) {
	inactive := ghee(3, 999, 10)
	inactive.IsActive = false
	store := newMemStore(ghee(1, 15000, 5), ghee(2, 20000, 1), inactive)
	uc := NewCartUC(&fakeProductRepo{s: store}, logger.NewNop())

	res, err := uc.ValidateCart(context.Background(), &ValidateCartReq{Lines: []domain.CartLine{
		{ProductID: 1, Quantity: 1},
		{ProductID: 2, Quantity: 4},
		{ProductID: 3, Quantity: 1},
		{ProductID: 99, Quantity: 1},
		{ProductID: 1, Quantity: 1},
	}})
	require.NoError(t, err)

	require.Len(t, res.Items, 2)
	assert.Equal(t, ValidatedCartItem{
		ProductID: 1, Name: "Ghee B", ImageURL: "https://img.test/ghee.jpg",
		Quantity: 2, Price: 15000, LineTotal: 30000,
	}, res.Items[0])
	assert.Equal(t, 1, res.Items[1].Quantity)
	assert.Equal(t, int64(20000), res.Items[1].LineTotal)
	assert.Equal(t, int64(50000), res.Total)
	assert.Equal(t, []string{"Stock limited for Ghee C: only 1 available."}, res.Warnings)

	// ничего не изменено
	assert.Equal(t, 5, store.stock(1))
	assert.Equal(t, 1, store.stock(2))
}

func TestValidateCart_Empty(t *testing.T) {
	uc := NewCartUC(&fakeProductRepo{s: newMemStore()}, logger.NewNop())

	res, err := uc.ValidateCart(context.Background(), &ValidateCartReq{})
	require.NoError(t, err)
	assert.Zero(t, res.Total)
	assert.NotNil(t, res.Items)
	assert.Empty(t, res.Items)
	assert.NotNil(t, res.Warnings)
}

func TestValidateCart_InvalidQuantity(t *testing.T) {
	uc := NewCartUC(&fakeProductRepo{s: newMemStore(ghee(1, 100, 5))}, logger.NewNop())

	_, err := uc.ValidateCart(context.Background(), &ValidateCartReq{Lines: []domain.CartLine{{ProductID: 1, Quantity: 0}}})
	require.ErrorIs(t, err, e.ErrInvalidQuantity)
}

func TestValidateCart_OutOfStockLineKeptWithZeroQuantity(t *testing.T) {
	uc := NewCartUC(&fakeProductRepo{s: newMemStore(ghee(1, 15000, 0), ghee(2, 20000, 3))}, logger.NewNop())

	res, err := uc.ValidateCart(context.Background(), &ValidateCartReq{Lines: []domain.CartLine{
		{ProductID: 1, Quantity: 2},
		{ProductID: 2, Quantity: 1},
	}})
	require.NoError(t, err)

	require.Len(t, res.Items, 2)
	assert.Equal(t, ValidatedCartItem{
		ProductID: 1, Name: "Ghee B", ImageURL: "https://img.test/ghee.jpg",
		Quantity: 0, Price: 15000, LineTotal: 0,
	}, res.Items[0])
	assert.Equal(t, int64(20000), res.Total)
	assert.Equal(t, []string{"Stock limited for Ghee B: only 0 available."}, res.Warnings)
}
