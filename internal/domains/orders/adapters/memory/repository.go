package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/orders/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository is an in-memory order persistence adapter.
type Repository struct {
	mu     sync.RWMutex
	orders map[string]*domain.Order
	now    func() time.Time
}

func NewRepository() *Repository {
	return &Repository{orders: map[string]*domain.Order{}, now: time.Now}
}

func (r *Repository) Create(_ context.Context, order *domain.Order) (*domain.Order, error) {
	if order == nil {
		return nil, errors.New("order is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.orders[order.ID]; exists {
		return nil, ports.ErrDuplicateOrderID
	}
	clone := cloneOrder(order)
	clone.Version = 1
	if clone.CreatedAt.IsZero() {
		clone.CreatedAt = r.now().UTC()
	}
	clone.UpdatedAt = clone.CreatedAt
	r.orders[clone.ID] = clone
	return cloneOrder(clone), nil
}

func (r *Repository) GetByID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	order, ok := r.orders[id]
	if !ok {
		return nil, ports.ErrNotFound
	}
	return cloneOrder(order), nil
}

func (r *Repository) Exists(_ context.Context, id string) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.orders[id]
	return ok, nil
}

func (r *Repository) Update(_ context.Context, order *domain.Order) (*domain.Order, error) {
	if order == nil {
		return nil, errors.New("order is nil")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	current, ok := r.orders[order.ID]
	if !ok {
		return nil, ports.ErrNotFound
	}
	if current.Version != order.Version {
		return nil, ports.ErrVersionConflict
	}
	clone := cloneOrder(order)
	clone.Version = current.Version + 1
	clone.CreatedAt = current.CreatedAt
	r.orders[clone.ID] = clone
	return cloneOrder(clone), nil
}

func (r *Repository) List(_ context.Context, filter ports.Filter) ([]*domain.Order, int64, error) {
	r.mu.RLock()
	matched := make([]*domain.Order, 0, len(r.orders))
	for _, order := range r.orders {
		if filter.Status != "" && order.Status != filter.Status {
			continue
		}
		if filter.PaymentStatus != "" && order.Payment.Status != filter.PaymentStatus {
			continue
		}
		if filter.CustomerID != "" && order.CustomerID != filter.CustomerID {
			continue
		}
		matched = append(matched, cloneOrder(order))
	}
	r.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].ID > matched[j].ID
		}
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	total := int64(len(matched))
	if filter.Limit <= 0 {
		return matched, total, nil
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	start := (page - 1) * filter.Limit
	if start >= len(matched) {
		return []*domain.Order{}, total, nil
	}
	end := start + filter.Limit
	if end > len(matched) {
		end = len(matched)
	}
	return matched[start:end], total, nil
}

func cloneOrder(o *domain.Order) *domain.Order {
	clone := *o
	clone.ClearEvents()
	clone.Items = append([]domain.Item(nil), o.Items...)
	clone.Payment.PaidAt = cloneTime(o.Payment.PaidAt)
	if o.Payment.GatewayResponse != nil {
		clone.Payment.GatewayResponse = append([]byte(nil), o.Payment.GatewayResponse...)
	}
	clone.ConfirmedAt = cloneTime(o.ConfirmedAt)
	clone.ShippedAt = cloneTime(o.ShippedAt)
	clone.DeliveredAt = cloneTime(o.DeliveredAt)
	clone.CancelledAt = cloneTime(o.CancelledAt)
	clone.ReturnedAt = cloneTime(o.ReturnedAt)
	clone.StockReleasedAt = cloneTime(o.StockReleasedAt)
	clone.PromoReleasedAt = cloneTime(o.PromoReleasedAt)
	return &clone
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
