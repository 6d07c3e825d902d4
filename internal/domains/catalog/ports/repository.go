package ports

import (
	"context"
	"errors"

	"github.com/Apurer/go-gin-storefront/internal/domains/catalog/domain"
)

var ErrNotFound = errors.New("product not found")

// Repository persists products and performs atomic stock adjustments.
type Repository interface {
	Save(ctx context.Context, product *domain.Product) (*domain.Product, error)
	GetByID(ctx context.Context, id string) (*domain.Product, error)
	// DecrementStock atomically reserves quantity for a tracked product only when
	// stock suffices, returning *domain.InsufficientStockError otherwise.
	DecrementStock(ctx context.Context, id string, quantity int) error
	// IncrementStock returns quantity to a tracked product's stock.
	IncrementStock(ctx context.Context, id string, quantity int) error
}
