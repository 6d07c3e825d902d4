package ports

import (
	"context"
	"errors"
	"log/slog"

	"github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
)

// Locker serializes read-modify-write cycles on one order across requests.
type Locker interface {
	Lock(ctx context.Context, key string) (func(), error)
}

// EventPublisher ships domain events to other systems. Delivery is best effort.
type EventPublisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// NoopPublisher drops events. Used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, string, any) error { return nil }

// LoggingPublisher writes events to the log instead of a broker.
type LoggingPublisher struct {
	Logger *slog.Logger
}

func (p LoggingPublisher) Publish(ctx context.Context, routingKey string, _ any) error {
	if p.Logger != nil {
		p.Logger.DebugContext(ctx, "domain event", slog.String("event", routingKey))
	}
	return nil
}

// CompensationOrchestrator undoes the stock and promo side effects of a
// cancelled order, at most once per order.
type CompensationOrchestrator interface {
	CompensateCancelledOrder(ctx context.Context, orderID string) error
}

// Inventory is the subset of the catalog this context depends on.
type Inventory interface {
	// Snapshot is the read-only stock pre-check. It returns one priced item
	// per requested line, with StockReserved set for tracked products.
	Snapshot(ctx context.Context, lines []ItemInput) ([]domain.Item, error)
	// Reserve atomically decrements stock for tracked products and returns
	// the aggregated lines that were decremented.
	Reserve(ctx context.Context, lines []ItemInput) ([]ItemInput, error)
	Release(ctx context.Context, lines []ItemInput) error
}

// ErrPromoNotFound is returned by Promotions.Quote for unknown codes.
var ErrPromoNotFound = errors.New("promo code not found")

// Promotions is the subset of the promo context this context depends on.
type Promotions interface {
	Quote(ctx context.Context, req PromoQuoteRequest) (*PromoQuote, error)
	Redeem(ctx context.Context, promoID string) error
	Release(ctx context.Context, promoID string) error
}
