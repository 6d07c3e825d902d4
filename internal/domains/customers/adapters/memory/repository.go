package memory

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Apurer/go-gin-storefront/internal/domains/customers/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/customers/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository keeps customers in memory.
type Repository struct {
	mu        sync.RWMutex
	customers map[string]*domain.Customer
	now       func() time.Time
}

func NewRepository() *Repository {
	return &Repository{customers: map[string]*domain.Customer{}, now: time.Now}
}

func (r *Repository) Save(_ context.Context, customer *domain.Customer) (*domain.Customer, error) {
	if customer == nil {
		return nil, errors.New("customer is nil")
	}
	if err := customer.Validate(); err != nil {
		return nil, err
	}
	clone := *customer
	if clone.CreatedAt.IsZero() {
		clone.CreatedAt = r.now()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.customers[clone.ID] = &clone
	out := clone
	return &out, nil
}

func (r *Repository) GetByID(_ context.Context, id string) (*domain.Customer, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	customer, ok := r.customers[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	clone := *customer
	return &clone, nil
}
