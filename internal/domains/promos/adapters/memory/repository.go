package memory

import (
	"context"
	"errors"
	"sync"

	"github.com/Apurer/go-gin-storefront/internal/domains/promos/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/promos/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository keeps promo codes in memory.
type Repository struct {
	mu     sync.RWMutex
	promos map[string]*domain.PromoCode
	byCode map[string]string
}

func NewRepository() *Repository {
	return &Repository{promos: map[string]*domain.PromoCode{}, byCode: map[string]string{}}
}

func (r *Repository) Save(_ context.Context, promo *domain.PromoCode) (*domain.PromoCode, error) {
	if promo == nil {
		return nil, errors.New("promo is nil")
	}
	if promo.ID == "" {
		return nil, errors.New("promo id is required")
	}
	clone := clonePromo(promo)
	clone.Code = domain.NormalizeCode(clone.Code)
	r.mu.Lock()
	defer r.mu.Unlock()
	r.promos[clone.ID] = clone
	r.byCode[clone.Code] = clone.ID
	return clonePromo(clone), nil
}

func (r *Repository) GetByCode(_ context.Context, code string) (*domain.PromoCode, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	id, ok := r.byCode[domain.NormalizeCode(code)]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return clonePromo(r.promos[id]), nil
}

func (r *Repository) GetByID(_ context.Context, id string) (*domain.PromoCode, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	promo, ok := r.promos[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return clonePromo(promo), nil
}

func (r *Repository) IncrementUsage(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	promo, ok := r.promos[id]
	if !ok {
		return ports.ErrNotFound
	}
	if promo.Exhausted() {
		return ports.ErrUsageExhausted
	}
	promo.UsageCount++
	return nil
}

func (r *Repository) DecrementUsage(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	promo, ok := r.promos[id]
	if !ok {
		return ports.ErrNotFound
	}
	if promo.UsageCount > 0 {
		promo.UsageCount--
	}
	return nil
}

func clonePromo(p *domain.PromoCode) *domain.PromoCode {
	clone := *p
	clone.ApplicableUsers = append([]string(nil), p.ApplicableUsers...)
	clone.ApplicableProducts = append([]string(nil), p.ApplicableProducts...)
	clone.ApplicableCategories = append([]string(nil), p.ApplicableCategories...)
	clone.ApplicableBrands = append([]string(nil), p.ApplicableBrands...)
	return &clone
}
