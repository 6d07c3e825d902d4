package domain

import (
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusActive   Status = "active"
	StatusInactive Status = "inactive"
)

type Type string

const (
	TypePercentage Type = "percentage"
	TypeFixed      Type = "fixed"
)

var (
	ErrEmptyCode     = errors.New("promo code is required")
	ErrInvalidType   = errors.New("promo type must be percentage or fixed")
	ErrInvalidValue  = errors.New("promo value must be positive")
	ErrInvalidWindow = errors.New("promo end date precedes start date")
)

// PromoCode is a discount definition redeemable at checkout.
type PromoCode struct {
	ID                   string
	Code                 string
	Description          string
	Status               Status
	Type                 Type
	Value                decimal.Decimal
	StartDate            time.Time
	EndDate              time.Time
	UsageLimit           int // 0 means unlimited
	UsageCount           int
	MinimumOrderAmount   decimal.Decimal
	ApplicableUsers      []string
	ApplicableProducts   []string
	ApplicableCategories []string
	ApplicableBrands     []string
	NewUsersOnly         bool
	Stackable            bool
	Priority             int
}

// NormalizeCode is the canonical lookup form of a customer-entered code.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

func (p *PromoCode) Validate() error {
	if NormalizeCode(p.Code) == "" {
		return ErrEmptyCode
	}
	if p.Type != TypePercentage && p.Type != TypeFixed {
		return ErrInvalidType
	}
	if !p.Value.IsPositive() {
		return ErrInvalidValue
	}
	if !p.StartDate.IsZero() && !p.EndDate.IsZero() && p.EndDate.Before(p.StartDate) {
		return ErrInvalidWindow
	}
	return nil
}

// Exhausted reports whether the usage limit has been reached.
func (p *PromoCode) Exhausted() bool {
	return p.UsageLimit > 0 && p.UsageCount >= p.UsageLimit
}
