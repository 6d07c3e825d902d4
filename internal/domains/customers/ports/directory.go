package ports

import (
	"context"
	"errors"

	"github.com/Apurer/go-gin-storefront/internal/domains/customers/domain"
)

var ErrNotFound = errors.New("customer not found")

// Directory resolves customer accounts.
type Directory interface {
	GetByID(ctx context.Context, id string) (*domain.Customer, error)
}

// Repository extends Directory with writes used by seeding and tests.
type Repository interface {
	Directory
	Save(ctx context.Context, customer *domain.Customer) (*domain.Customer, error)
}
