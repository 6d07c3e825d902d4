package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Reason identifies why a promo was rejected.
type Reason string

const (
	ReasonNone            Reason = ""
	ReasonNotFound        Reason = "not_found"
	ReasonInactive        Reason = "inactive"
	ReasonNotStarted      Reason = "not_started"
	ReasonExpired         Reason = "expired"
	ReasonUsageExhausted  Reason = "usage_exhausted"
	ReasonUserNotEligible Reason = "user_not_eligible"
	ReasonAccountTooNew   Reason = "account_too_new"
	ReasonBelowMinimum    Reason = "below_minimum"
	ReasonNotApplicable   Reason = "not_applicable"
)

var reasonMessages = map[Reason]string{
	ReasonNotFound:        "Promo code not found",
	ReasonInactive:        "Promo code is not active",
	ReasonNotStarted:      "Promo code is not yet valid",
	ReasonExpired:         "Promo code has expired",
	ReasonUsageExhausted:  "Promo code usage limit reached",
	ReasonUserNotEligible: "Promo code is not available for this account",
	ReasonAccountTooNew:   "Promo code requires an account older than 30 days",
	ReasonBelowMinimum:    "Order amount is below the minimum for this promo code",
	ReasonNotApplicable:   "Promo code does not apply to the items in this order",
}

// Message returns the customer-facing text for r.
func (r Reason) Message() string { return reasonMessages[r] }

// accountAgeThreshold is the age an account must exceed for newUsersOnly promos.
const accountAgeThreshold = 30 * 24 * time.Hour

// Context is the order information a promo is evaluated against.
// AccountCreatedAt is nil when the user is anonymous or unknown.
type Context struct {
	UserID           string
	AccountCreatedAt *time.Time
	OrderAmount      decimal.Decimal
	ProductIDs       []string
	CategoryIDs      []string
	BrandIDs         []string
	Now              time.Time
}

// Result is the outcome of Evaluate.
type Result struct {
	Valid          bool
	DiscountAmount decimal.Decimal
	Reason         Reason
	Message        string
}

func reject(reason Reason) Result {
	return Result{Reason: reason, Message: reason.Message(), DiscountAmount: decimal.Zero}
}

// Evaluate applies the promo rules in order and stops at the first failure.
// It has no side effects; usage is counted only when an order is placed.
func Evaluate(promo *PromoCode, in Context) Result {
	if promo == nil {
		return reject(ReasonNotFound)
	}
	if promo.Status != StatusActive {
		return reject(ReasonInactive)
	}
	now := in.Now
	if now.IsZero() {
		now = time.Now()
	}
	if !promo.StartDate.IsZero() && now.Before(promo.StartDate) {
		return reject(ReasonNotStarted)
	}
	if !promo.EndDate.IsZero() && now.After(promo.EndDate) {
		return reject(ReasonExpired)
	}
	if promo.Exhausted() {
		return reject(ReasonUsageExhausted)
	}
	if len(promo.ApplicableUsers) > 0 && !contains(promo.ApplicableUsers, in.UserID) {
		return reject(ReasonUserNotEligible)
	}
	// newUsersOnly admits only accounts registered for more than 30 days.
	if promo.NewUsersOnly {
		if in.AccountCreatedAt == nil || now.Sub(*in.AccountCreatedAt) <= accountAgeThreshold {
			return reject(ReasonAccountTooNew)
		}
	}
	if in.OrderAmount.LessThan(promo.MinimumOrderAmount) {
		return reject(ReasonBelowMinimum)
	}
	if !applies(promo, in) {
		return reject(ReasonNotApplicable)
	}
	return Result{Valid: true, DiscountAmount: Discount(promo, in.OrderAmount), Message: "Promo code applied"}
}

// Discount computes the promo's discount on amount, never exceeding amount.
func Discount(promo *PromoCode, amount decimal.Decimal) decimal.Decimal {
	if !amount.IsPositive() {
		return decimal.Zero
	}
	var discount decimal.Decimal
	switch promo.Type {
	case TypePercentage:
		discount = amount.Mul(promo.Value).Div(decimal.NewFromInt(100))
	case TypeFixed:
		discount = promo.Value
	default:
		return decimal.Zero
	}
	if discount.GreaterThan(amount) {
		discount = amount
	}
	return discount.Round(2)
}

// applies is true when the promo is unrestricted or any supplied id falls in
// a non-empty restriction set.
func applies(promo *PromoCode, in Context) bool {
	sets := []struct {
		allowed []string
		given   []string
	}{
		{promo.ApplicableProducts, in.ProductIDs},
		{promo.ApplicableCategories, in.CategoryIDs},
		{promo.ApplicableBrands, in.BrandIDs},
	}
	restricted := false
	for _, set := range sets {
		if len(set.allowed) == 0 {
			continue
		}
		restricted = true
		if intersects(set.allowed, set.given) {
			return true
		}
	}
	return !restricted
}

func intersects(allowed, given []string) bool {
	for _, id := range given {
		if contains(allowed, id) {
			return true
		}
	}
	return false
}

func contains(list []string, v string) bool {
	if v == "" {
		return false
	}
	for _, item := range list {
		if item == v {
			return true
		}
	}
	return false
}
