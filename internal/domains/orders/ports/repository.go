package ports

import (
	"context"
	"errors"

	"github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
)

var (
	ErrNotFound         = errors.New("order not found")
	ErrDuplicateOrderID = errors.New("order id already exists")
	// ErrVersionConflict means the order changed since it was loaded.
	ErrVersionConflict = errors.New("order was modified concurrently")
)

// Filter narrows order listings. Zero values mean no constraint.
type Filter struct {
	Status        domain.Status
	PaymentStatus domain.PaymentStatus
	CustomerID    string
	Page          int
	Limit         int
}

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Normalized clamps paging to page >= 1 and 1 <= limit <= MaxPageSize.
func (f Filter) Normalized() Filter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = DefaultPageSize
	}
	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}
	return f
}

// Repository persists orders. Update is a compare-and-swap on Version and
// bumps it on success.
type Repository interface {
	Create(ctx context.Context, order *domain.Order) (*domain.Order, error)
	GetByID(ctx context.Context, id string) (*domain.Order, error)
	Exists(ctx context.Context, id string) (bool, error)
	Update(ctx context.Context, order *domain.Order) (*domain.Order, error)
	List(ctx context.Context, filter Filter) ([]*domain.Order, int64, error)
}
