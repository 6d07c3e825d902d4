package ports

import (
	"context"
	"errors"

	"github.com/Apurer/go-gin-storefront/internal/domains/promos/domain"
)

var (
	ErrNotFound       = errors.New("promo code not found")
	ErrUsageExhausted = errors.New("promo code usage limit reached")
)

// Repository persists promo codes. Code lookups use the normalized form.
type Repository interface {
	Save(ctx context.Context, promo *domain.PromoCode) (*domain.PromoCode, error)
	GetByCode(ctx context.Context, code string) (*domain.PromoCode, error)
	GetByID(ctx context.Context, id string) (*domain.PromoCode, error)
	// IncrementUsage counts one redemption, failing with ErrUsageExhausted
	// when the limit was reached concurrently.
	IncrementUsage(ctx context.Context, id string) error
	DecrementUsage(ctx context.Context, id string) error
}
