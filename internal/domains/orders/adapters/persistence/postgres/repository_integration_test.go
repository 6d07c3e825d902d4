//go:build integration

package postgres

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/orders/ports"
	"github.com/Apurer/go-gin-storefront/internal/platform/postgres/pgtest"
)

func newOrder(t *testing.T, id string, method domain.PaymentMethod, created time.Time) *domain.Order {
	t.Helper()
	pricing, err := domain.NewPricing(decimal.RequireFromString("1250.50"), decimal.Zero, decimal.NewFromInt(120), decimal.NewFromInt(50))
	require.NoError(t, err)
	order, err := domain.NewOrder(domain.NewOrderParams{
		ID:         id,
		CustomerID: "cust-1",
		Items: []domain.Item{
			{ProductID: "p1", Name: "Jamdani saree", Price: decimal.RequireFromString("1250.50"), Quantity: 1, StockReserved: true},
		},
		Shipping: domain.Shipping{Name: "Karim", Phone: "01811111111", Address: "Mirpur 10", Location: domain.LocationInsideDhaka},
		Method:   method,
		Pricing:  pricing,
		Now:      created,
	})
	require.NoError(t, err)
	return order
}

func TestRepository_CreateAndGetByID(t *testing.T) {
	repo := NewRepository(pgtest.Start(t, Models()...))
	ctx := context.Background()

	order := newOrder(t, "ORD-20260101-ABCDE12", domain.MethodOnline, time.Now().UTC())
	saved, err := repo.Create(ctx, order)
	require.NoError(t, err)
	assert.Equal(t, 1, saved.Version)
	assert.Equal(t, domain.PaymentProcessing, saved.Payment.Status)
	assert.True(t, saved.Pricing.Total.Equal(decimal.RequireFromString("1320.50")))
	require.Len(t, saved.Items, 1)
	assert.True(t, saved.Items[0].StockReserved)
	assert.Equal(t, domain.LocationInsideDhaka, saved.Shipping.Location)

	_, err = repo.Create(ctx, order)
	assert.ErrorIs(t, err, ports.ErrDuplicateOrderID)

	exists, err := repo.Exists(ctx, order.ID)
	require.NoError(t, err)
	assert.True(t, exists)

	_, err = repo.GetByID(ctx, "ORD-missing")
	assert.ErrorIs(t, err, ports.ErrNotFound)
}

func TestRepository_UpdateIsVersionChecked(t *testing.T) {
	repo := NewRepository(pgtest.Start(t, Models()...))
	ctx := context.Background()

	saved, err := repo.Create(ctx, newOrder(t, "ORD-20260101-VERSN01", domain.MethodOnline, time.Now().UTC()))
	require.NoError(t, err)

	first := *saved
	second := *saved

	_, err = first.ApplyOutcome(domain.PaymentOutcome{
		Gateway:        domain.ProviderBkash,
		Kind:           domain.OutcomeSucceeded,
		OrderReference: first.ID,
		RawPayload:     json.RawMessage(`{"statusCode":"0000"}`),
	}, time.Now().UTC())
	require.NoError(t, err)
	updated, err := repo.Update(ctx, &first)
	require.NoError(t, err)
	assert.Equal(t, 2, updated.Version)
	assert.Equal(t, domain.PaymentCompleted, updated.Payment.Status)
	assert.Equal(t, domain.StatusConfirmed, updated.Status)
	assert.NotNil(t, updated.Payment.PaidAt)
	assert.JSONEq(t, `{"statusCode":"0000"}`, string(updated.Payment.GatewayResponse))

	_, err = second.TransitionTo(domain.StatusCancelled, time.Now().UTC())
	require.NoError(t, err)
	_, err = repo.Update(ctx, &second)
	assert.ErrorIs(t, err, ports.ErrVersionConflict)
}

func TestRepository_ListFiltersAndPaginates(t *testing.T) {
	repo := NewRepository(pgtest.Start(t, Models()...))
	ctx := context.Background()
	base := time.Now().UTC().Add(-time.Hour)

	for i := 0; i < 5; i++ {
		method := domain.MethodCOD
		if i%2 == 1 {
			method = domain.MethodOnline
		}
		_, err := repo.Create(ctx, newOrder(t, fmt.Sprintf("ORD-20260101-LIST%03d", i), method, base.Add(time.Duration(i)*time.Minute)))
		require.NoError(t, err)
	}

	orders, total, err := repo.List(ctx, ports.Filter{PaymentStatus: domain.PaymentPending, Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, orders, 2)
	assert.Equal(t, "ORD-20260101-LIST004", orders[0].ID)

	orders, _, err = repo.List(ctx, ports.Filter{PaymentStatus: domain.PaymentPending, Page: 2, Limit: 2})
	require.NoError(t, err)
	require.Len(t, orders, 1)
	assert.Equal(t, "ORD-20260101-LIST000", orders[0].ID)
}
