package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

var now = time.Date(2026, 5, 10, 9, 0, 0, 0, time.UTC)

func activePromo(typ Type, value int64) *PromoCode {
	return &PromoCode{
		ID:        "promo-1",
		Code:      "EID10",
		Status:    StatusActive,
		Type:      typ,
		Value:     decimal.NewFromInt(value),
		StartDate: now.Add(-24 * time.Hour),
		EndDate:   now.Add(24 * time.Hour),
	}
}

func amount(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestEvaluate_MinimumOrderAmount(t *testing.T) {
	promo := activePromo(TypeFixed, 50)
	promo.MinimumOrderAmount = amount(500)

	res := Evaluate(promo, Context{OrderAmount: amount(499), Now: now})
	assert.False(t, res.Valid)
	assert.Equal(t, ReasonBelowMinimum, res.Reason)

	res = Evaluate(promo, Context{OrderAmount: amount(500), Now: now})
	assert.True(t, res.Valid)
}

func TestEvaluate_DiscountTypes(t *testing.T) {
	res := Evaluate(activePromo(TypePercentage, 10), Context{OrderAmount: amount(1000), Now: now})
	assert.True(t, res.Valid)
	assert.True(t, res.DiscountAmount.Equal(amount(100)))

	res = Evaluate(activePromo(TypeFixed, 150), Context{OrderAmount: amount(1000), Now: now})
	assert.True(t, res.DiscountAmount.Equal(amount(150)))

	res = Evaluate(activePromo(TypeFixed, 1500), Context{OrderAmount: amount(1000), Now: now})
	assert.True(t, res.DiscountAmount.Equal(amount(1000)), "fixed discount is capped at the order amount")

	res = Evaluate(activePromo(TypePercentage, 150), Context{OrderAmount: amount(200), Now: now})
	assert.True(t, res.DiscountAmount.Equal(amount(200)))
}

func TestEvaluate_PercentageRoundsToCents(t *testing.T) {
	promo := activePromo(TypePercentage, 15)
	res := Evaluate(promo, Context{OrderAmount: decimal.RequireFromString("99.99"), Now: now})
	assert.Equal(t, "15", res.DiscountAmount.StringFixed(0))
	assert.Equal(t, "15.00", res.DiscountAmount.StringFixed(2))
}

func TestEvaluate_RejectionOrder(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*PromoCode)
		ctx    Context
		want   Reason
	}{
		{"inactive", func(p *PromoCode) { p.Status = StatusInactive }, Context{}, ReasonInactive},
		{"not started", func(p *PromoCode) { p.StartDate = now.Add(time.Hour) }, Context{}, ReasonNotStarted},
		{"expired", func(p *PromoCode) { p.EndDate = now.Add(-time.Hour) }, Context{}, ReasonExpired},
		{"exhausted", func(p *PromoCode) { p.UsageLimit = 3; p.UsageCount = 3 }, Context{}, ReasonUsageExhausted},
		{"user allow-list", func(p *PromoCode) { p.ApplicableUsers = []string{"u-2"} }, Context{UserID: "u-1"}, ReasonUserNotEligible},
		{"anonymous on new users only", func(p *PromoCode) { p.NewUsersOnly = true }, Context{}, ReasonAccountTooNew},
		{
			"expired wins over below minimum",
			func(p *PromoCode) { p.EndDate = now.Add(-time.Hour); p.MinimumOrderAmount = amount(10000) },
			Context{},
			ReasonExpired,
		},
		{"restriction miss", func(p *PromoCode) { p.ApplicableProducts = []string{"p-9"} }, Context{ProductIDs: []string{"p-1"}}, ReasonNotApplicable},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			promo := activePromo(TypeFixed, 10)
			tc.mutate(promo)
			tc.ctx.Now = now
			tc.ctx.OrderAmount = amount(1000)
			res := Evaluate(promo, tc.ctx)
			assert.False(t, res.Valid)
			assert.Equal(t, tc.want, res.Reason)
			assert.NotEmpty(t, res.Message)
			assert.True(t, res.DiscountAmount.IsZero())
		})
	}
}

func TestEvaluate_NewUsersOnlyRequiresAccountOlderThan30Days(t *testing.T) {
	promo := activePromo(TypeFixed, 10)
	promo.NewUsersOnly = true

	young := now.Add(-10 * 24 * time.Hour)
	res := Evaluate(promo, Context{AccountCreatedAt: &young, OrderAmount: amount(100), Now: now})
	assert.Equal(t, ReasonAccountTooNew, res.Reason)

	boundary := now.Add(-30 * 24 * time.Hour)
	res = Evaluate(promo, Context{AccountCreatedAt: &boundary, OrderAmount: amount(100), Now: now})
	assert.False(t, res.Valid)

	old := now.Add(-31 * 24 * time.Hour)
	res = Evaluate(promo, Context{AccountCreatedAt: &old, OrderAmount: amount(100), Now: now})
	assert.True(t, res.Valid)
}

func TestEvaluate_AnyRestrictionSetMayMatch(t *testing.T) {
	promo := activePromo(TypeFixed, 10)
	promo.ApplicableProducts = []string{"p-9"}
	promo.ApplicableBrands = []string{"brand-aarong"}

	res := Evaluate(promo, Context{
		ProductIDs:  []string{"p-1"},
		BrandIDs:    []string{"brand-aarong"},
		OrderAmount: amount(100),
		Now:         now,
	})
	assert.True(t, res.Valid)
}

func TestEvaluate_NilPromo(t *testing.T) {
	res := Evaluate(nil, Context{})
	assert.Equal(t, ReasonNotFound, res.Reason)
}
