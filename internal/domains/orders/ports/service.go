package ports

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
)

// ItemInput is a requested line; price and name come from the catalog.
type ItemInput struct {
	ProductID string
	Quantity  int
}

// CreateOrderInput is an order placement request. Subtotal and discount are
// computed server side; tax and shipping are taken as quoted upstream.
type CreateOrderInput struct {
	CustomerID  string
	Items       []ItemInput
	Shipping    domain.Shipping
	Method      domain.PaymentMethod
	Tax         decimal.Decimal
	ShippingFee decimal.Decimal
	PromoCode   string
	Notes       string
	// IdempotencyKey makes retried checkouts return the order the first attempt placed.
	IdempotencyKey string
}

// PromoQuoteRequest is what promo evaluation needs from an order draft.
type PromoQuoteRequest struct {
	Code        string
	UserID      string
	OrderAmount decimal.Decimal
	ProductIDs  []string
	CategoryIDs []string
	BrandIDs    []string
}

// PromoQuote is an applicable discount.
type PromoQuote struct {
	PromoID  string
	Code     string
	Discount decimal.Decimal
}

// StatusUpdate is a staff lifecycle change.
type StatusUpdate struct {
	OrderID        string
	Status         domain.Status
	TrackingNumber string
	Notes          string
}

// GatewayStart records the gateway reference issued for an order's payment.
type GatewayStart struct {
	OrderID       string
	Provider      domain.Provider
	TransactionID string
	PaymentID     string
}

// Service exposes order use cases to adapters.
type Service interface {
	CreateOrder(ctx context.Context, input CreateOrderInput) (*domain.Order, error)
	GetOrder(ctx context.Context, id string) (*domain.Order, error)
	ListOrders(ctx context.Context, filter Filter) ([]*domain.Order, int64, error)
	UpdateStatus(ctx context.Context, update StatusUpdate) (*domain.Order, error)
	RefundPayment(ctx context.Context, orderID string) (*domain.Order, error)
	StartGatewayPayment(ctx context.Context, start GatewayStart) (*domain.Order, error)
	Reconcile(ctx context.Context, outcome domain.PaymentOutcome) (*domain.Order, domain.Change, error)
	ReleaseStock(ctx context.Context, orderID string) error
	ReleasePromo(ctx context.Context, orderID string) error
}
