//go:build integration

package postgres

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-gin-storefront/internal/domains/catalog/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/catalog/ports"
	"github.com/Apurer/go-gin-storefront/internal/platform/postgres/pgtest"
)

func TestRepository_DecrementStockNeverOversells(t *testing.T) {
	repo := NewRepository(pgtest.Start(t, Models()...))
	ctx := context.Background()
	_, err := repo.Save(ctx, &domain.Product{ID: "saree", Name: "Jamdani saree", Price: decimal.NewFromInt(1200), Stock: 5, TrackInventory: true})
	require.NoError(t, err)

	var wg sync.WaitGroup
	var won atomic.Int32
	for i := 0; i < 12; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if repo.DecrementStock(ctx, "saree", 1) == nil {
				won.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(5), won.Load())
	product, err := repo.GetByID(ctx, "saree")
	require.NoError(t, err)
	assert.Equal(t, 0, product.Stock)
	assert.Equal(t, 5, product.SoldCount)

	err = repo.DecrementStock(ctx, "saree", 1)
	var stockErr *domain.InsufficientStockError
	require.ErrorAs(t, err, &stockErr)
	assert.Equal(t, 0, stockErr.Available)
}

func TestRepository_UntrackedProductsIgnoreStock(t *testing.T) {
	repo := NewRepository(pgtest.Start(t, Models()...))
	ctx := context.Background()
	_, err := repo.Save(ctx, &domain.Product{ID: "gift-card", Name: "Gift card", Price: decimal.NewFromInt(500)})
	require.NoError(t, err)

	require.NoError(t, repo.DecrementStock(ctx, "gift-card", 50))
	require.NoError(t, repo.IncrementStock(ctx, "gift-card", 50))

	product, err := repo.GetByID(ctx, "gift-card")
	require.NoError(t, err)
	assert.Equal(t, 0, product.Stock)
}

func TestRepository_IncrementStockRestores(t *testing.T) {
	repo := NewRepository(pgtest.Start(t, Models()...))
	ctx := context.Background()
	_, err := repo.Save(ctx, &domain.Product{ID: "saree", Name: "Jamdani saree", Price: decimal.NewFromInt(1200), Stock: 2, TrackInventory: true})
	require.NoError(t, err)

	require.NoError(t, repo.DecrementStock(ctx, "saree", 2))
	require.NoError(t, repo.IncrementStock(ctx, "saree", 2))

	product, err := repo.GetByID(ctx, "saree")
	require.NoError(t, err)
	assert.Equal(t, 2, product.Stock)
	assert.Equal(t, 0, product.SoldCount)
	assert.ErrorIs(t, repo.IncrementStock(ctx, "missing", 1), ports.ErrNotFound)
	_, err = repo.GetByID(ctx, "missing")
	assert.ErrorIs(t, err, ports.ErrNotFound)
}
