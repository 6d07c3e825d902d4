package application

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Apurer/go-gin-storefront/internal/domains/orders/adapters/memory"
	"github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/orders/ports"
	apperrors "github.com/Apurer/go-gin-storefront/internal/shared/errors"
)

func withKeys(f *fixture) *fixture {
	f.svc.idempotency = memory.NewIdempotencyStore()
	return f
}

func TestCreateOrder_ReplayedKeyReturnsFirstOrder(t *testing.T) {
	f := withKeys(newFixture(t, nil))
	ctx := context.Background()
	input := checkout(domain.MethodCOD, "EID10", ports.ItemInput{ProductID: "saree", Quantity: 1})
	input.IdempotencyKey = "checkout-1"

	first, err := f.svc.CreateOrder(ctx, input)
	require.NoError(t, err)
	second, err := f.svc.CreateOrder(ctx, input)
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, 4, f.stock(t, "saree"))
	assert.Equal(t, 1, f.usage(t, "promo-eid"))
	_, total, err := f.orders.List(ctx, ports.Filter{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
}

func TestCreateOrder_ReusedKeyWithDifferentPayloadConflicts(t *testing.T) {
	f := withKeys(newFixture(t, nil))
	ctx := context.Background()
	input := checkout(domain.MethodCOD, "", ports.ItemInput{ProductID: "saree", Quantity: 1})
	input.IdempotencyKey = "checkout-2"
	_, err := f.svc.CreateOrder(ctx, input)
	require.NoError(t, err)

	input.Items = []ports.ItemInput{{ProductID: "saree", Quantity: 2}}
	_, err = f.svc.CreateOrder(ctx, input)

	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindConflict))
	assert.True(t, errors.Is(err, ports.ErrIdempotencyConflict))
	assert.Equal(t, 4, f.stock(t, "saree"))
}

func TestCreateOrder_FailedAttemptDoesNotConsumeKey(t *testing.T) {
	f := withKeys(newFixture(t, nil))
	ctx := context.Background()
	input := checkout(domain.MethodCOD, "", ports.ItemInput{ProductID: "panjabi", Quantity: 3})
	input.IdempotencyKey = "checkout-3"

	_, err := f.svc.CreateOrder(ctx, input)
	require.Error(t, err)

	input.Items = []ports.ItemInput{{ProductID: "panjabi", Quantity: 2}}
	order, err := f.svc.CreateOrder(ctx, input)
	require.NoError(t, err)
	assert.Equal(t, 0, f.stock(t, "panjabi"))
	assert.NotEmpty(t, order.ID)
}

func TestFingerprintCheckout_IgnoresLineOrderAndPromoCase(t *testing.T) {
	a := checkout(domain.MethodCOD, "eid10",
		ports.ItemInput{ProductID: "saree", Quantity: 1},
		ports.ItemInput{ProductID: "panjabi", Quantity: 2},
	)
	b := checkout(domain.MethodCOD, " EID10 ",
		ports.ItemInput{ProductID: "panjabi", Quantity: 1},
		ports.ItemInput{ProductID: "saree", Quantity: 1},
		ports.ItemInput{ProductID: "panjabi", Quantity: 1},
	)
	b.IdempotencyKey = "ignored"

	ha, err := FingerprintCheckout(a)
	require.NoError(t, err)
	hb, err := FingerprintCheckout(b)
	require.NoError(t, err)
	assert.Equal(t, ha, hb)

	b.Method = domain.MethodOnline
	hc, err := FingerprintCheckout(b)
	require.NoError(t, err)
	assert.NotEqual(t, ha, hc)
}

func TestFingerprintCheckout_AmountsCompareAsPriced(t *testing.T) {
	fingerprint := func(tax, shipping string) string {
		t.Helper()
		in := checkout(domain.MethodCOD, "", ports.ItemInput{ProductID: "saree", Quantity: 1})
		in.Tax = decimal.RequireFromString(tax)
		in.ShippingFee = decimal.RequireFromString(shipping)
		hash, err := FingerprintCheckout(in)
		require.NoError(t, err)
		return hash
	}
	priced := func(tax, shipping string) decimal.Decimal {
		t.Helper()
		p, err := domain.NewPricing(decimal.NewFromInt(1200), decimal.RequireFromString(tax), decimal.RequireFromString(shipping), decimal.Zero)
		require.NoError(t, err)
		return p.Total
	}

	cases := []struct {
		name      string
		a, b      [2]string
		samePrice bool
	}{
		{name: "half cent rounds up", a: [2]string{"0.005", "60"}, b: [2]string{"0.01", "60"}, samePrice: true},
		{name: "trailing zeros", a: [2]string{"0", "60.000"}, b: [2]string{"0.00", "60"}, samePrice: true},
		{name: "either side of half cent", a: [2]string{"0.004", "60"}, b: [2]string{"0.006", "60"}, samePrice: false},
		{name: "shipping cents differ", a: [2]string{"0", "59.994"}, b: [2]string{"0", "59.995"}, samePrice: false},
	}
	for _, tc := range cases {
		samePrice := priced(tc.a[0], tc.a[1]).Equal(priced(tc.b[0], tc.b[1]))
		sameHash := fingerprint(tc.a[0], tc.a[1]) == fingerprint(tc.b[0], tc.b[1])
		assert.Equal(t, tc.samePrice, samePrice, tc.name)
		assert.Equal(t, samePrice, sameHash, tc.name)
	}
}
