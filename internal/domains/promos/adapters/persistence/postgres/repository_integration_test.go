//go:build integration

package postgres

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-gin-storefront/internal/domains/promos/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/promos/ports"
	"github.com/Apurer/go-gin-storefront/internal/platform/postgres/pgtest"
)

func TestRepository_SaveAndLookupByCode(t *testing.T) {
	repo := NewRepository(pgtest.Start(t, Models()...))
	ctx := context.Background()
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)

	_, err := repo.Save(ctx, &domain.PromoCode{
		ID:                 "promo-eid",
		Code:               "eid10",
		Status:             domain.StatusActive,
		Type:               domain.TypePercentage,
		Value:              decimal.NewFromInt(10),
		StartDate:          start,
		MinimumOrderAmount: decimal.NewFromInt(500),
		ApplicableBrands:   []string{"aarong"},
		Priority:           2,
	})
	require.NoError(t, err)

	got, err := repo.GetByCode(ctx, " Eid10 ")
	require.NoError(t, err)
	assert.Equal(t, "EID10", got.Code)
	assert.True(t, got.Value.Equal(decimal.NewFromInt(10)))
	assert.True(t, got.StartDate.Equal(start))
	assert.True(t, got.EndDate.IsZero())
	assert.Equal(t, []string{"aarong"}, got.ApplicableBrands)
	assert.Equal(t, 2, got.Priority)

	_, err = repo.GetByCode(ctx, "NOPE")
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestRepository_IncrementUsageHonoursLimit(t *testing.T) {
	repo := NewRepository(pgtest.Start(t, Models()...))
	ctx := context.Background()
	_, err := repo.Save(ctx, &domain.PromoCode{
		ID:         "promo-flash",
		Code:       "FLASH",
		Status:     domain.StatusActive,
		Type:       domain.TypeFixed,
		Value:      decimal.NewFromInt(100),
		UsageLimit: 3,
	})
	require.NoError(t, err)

	var wg sync.WaitGroup
	errs := make(chan error, 8)
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			errs <- repo.IncrementUsage(ctx, "promo-flash")
		}()
	}
	wg.Wait()
	close(errs)
	var exhausted int
	for err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, ports.ErrUsageExhausted)
			exhausted++
		}
	}
	assert.Equal(t, 5, exhausted)

	require.NoError(t, repo.DecrementUsage(ctx, "promo-flash"))
	got, err := repo.GetByID(ctx, "promo-flash")
	require.NoError(t, err)
	assert.Equal(t, 2, got.UsageCount)
}

func TestRepository_DecrementUsageStopsAtZero(t *testing.T) {
	repo := NewRepository(pgtest.Start(t, Models()...))
	ctx := context.Background()
	_, err := repo.Save(ctx, &domain.PromoCode{ID: "promo-once", Code: "ONCE", Status: domain.StatusActive, Type: domain.TypeFixed, Value: decimal.NewFromInt(50)})
	require.NoError(t, err)

	require.NoError(t, repo.DecrementUsage(ctx, "promo-once"))

	got, err := repo.GetByID(ctx, "promo-once")
	require.NoError(t, err)
	assert.Equal(t, 0, got.UsageCount)
	assert.ErrorIs(t, repo.DecrementUsage(ctx, "missing"), ports.ErrNotFound)
}
