//go:build integration

package postgres

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-gin-storefront/internal/domains/orders/ports"
	"github.com/Apurer/go-gin-storefront/internal/platform/postgres/pgtest"
)

func TestIdempotencyStore_SaveAndReplay(t *testing.T) {
	store := NewIdempotencyStore(pgtest.Start(t, Models()...))
	ctx := context.Background()

	missing, err := store.Get(ctx, "k-1")
	require.NoError(t, err)
	assert.Nil(t, missing)

	record := ports.IdempotencyRecord{Key: "k-1", RequestHash: "abc", OrderID: "ORD-20260101-ABCDE12"}
	saved, err := store.Save(ctx, record)
	require.NoError(t, err)
	assert.False(t, saved.CreatedAt.IsZero())

	again, err := store.Save(ctx, record)
	require.NoError(t, err)
	assert.Equal(t, record.OrderID, again.OrderID)

	record.RequestHash = "def"
	existing, err := store.Save(ctx, record)
	require.ErrorIs(t, err, ports.ErrIdempotencyConflict)
	assert.Equal(t, "abc", existing.RequestHash)
}
