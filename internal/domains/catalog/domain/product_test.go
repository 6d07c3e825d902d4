package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReserve_DecrementsTrackedStock(t *testing.T) {
	p, err := NewProduct("p1", "Panjabi", decimal.NewFromInt(1200), 5, true)
	require.NoError(t, err)

	require.NoError(t, p.Reserve(3))
	assert.Equal(t, 2, p.Stock)
	assert.Equal(t, 3, p.SoldCount)

	var stockErr *InsufficientStockError
	require.ErrorAs(t, p.Reserve(3), &stockErr)
	assert.Equal(t, 2, stockErr.Available)
	assert.Equal(t, 3, stockErr.Requested)
	assert.Equal(t, 2, p.Stock)

	p.Release(3)
	assert.Equal(t, 5, p.Stock)
	assert.Equal(t, 0, p.SoldCount)
}

func TestReserve_UntrackedIsUnlimited(t *testing.T) {
	p, err := NewProduct("p2", "Gift card", decimal.NewFromInt(500), 0, false)
	require.NoError(t, err)

	require.NoError(t, p.Reserve(100))
	assert.Equal(t, 0, p.Stock)
	assert.Equal(t, 0, p.SoldCount)
}

func TestNewProduct_Validation(t *testing.T) {
	_, err := NewProduct("", "x", decimal.Zero, 0, true)
	require.ErrorIs(t, err, ErrEmptyProductID)
	_, err = NewProduct("p", "x", decimal.NewFromInt(-1), 0, true)
	require.ErrorIs(t, err, ErrNegativePrice)
	p, _ := NewProduct("p", "x", decimal.Zero, 1, true)
	require.ErrorIs(t, p.CanFulfil(0), ErrInvalidQuantity)
}
