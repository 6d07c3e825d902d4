package orders

import (
	"context"
	"errors"

	"go.temporal.io/sdk/activity"

	"github.com/Apurer/go-gin-storefront/internal/domains/orders/ports"
)

const (
	// ReleaseStockActivityName restocks the reserved lines of a cancelled order.
	ReleaseStockActivityName = "orders.activities.ReleaseStock"
	// ReleasePromoActivityName gives back the promo usage of a cancelled order.
	ReleasePromoActivityName = "orders.activities.ReleasePromo"
)

// Activities groups activities that operate on the orders bounded context.
// Both are idempotent: the order records when each release happened.
type Activities struct {
	service ports.Service
}

func NewActivities(service ports.Service) *Activities {
	return &Activities{service: service}
}

// ReleaseStock restocks a cancelled order's reserved lines at most once.
func (a *Activities) ReleaseStock(ctx context.Context, orderID string) error {
	logger := activity.GetLogger(ctx)
	if a == nil || a.service == nil {
		logger.Error("release stock activity not initialized", "orderId", orderID)
		return errors.New("release stock activity not initialized")
	}
	logger.Info("ReleaseStock activity started", "orderId", orderID)
	if err := a.service.ReleaseStock(ctx, orderID); err != nil {
		logger.Error("ReleaseStock activity failed", "orderId", orderID, "error", err)
		return err
	}
	logger.Info("ReleaseStock activity completed", "orderId", orderID)
	return nil
}

// ReleasePromo decrements the promo usage of a cancelled order at most once.
func (a *Activities) ReleasePromo(ctx context.Context, orderID string) error {
	logger := activity.GetLogger(ctx)
	if a == nil || a.service == nil {
		logger.Error("release promo activity not initialized", "orderId", orderID)
		return errors.New("release promo activity not initialized")
	}
	logger.Info("ReleasePromo activity started", "orderId", orderID)
	if err := a.service.ReleasePromo(ctx, orderID); err != nil {
		logger.Error("ReleasePromo activity failed", "orderId", orderID, "error", err)
		return err
	}
	logger.Info("ReleasePromo activity completed", "orderId", orderID)
	return nil
}
