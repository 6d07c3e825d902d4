package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Event is the base interface for all order domain events.
type Event interface {
	EventName() string
	OccurredAt() time.Time
}

// BaseEvent provides common event metadata.
type BaseEvent struct {
	Timestamp time.Time `json:"occurredAt"`
}

// OccurredAt returns when the event occurred.
func (e BaseEvent) OccurredAt() time.Time {
	return e.Timestamp
}

// OrderCreated is raised once the order is persisted with stock and promo applied.
type OrderCreated struct {
	BaseEvent
	OrderID   string          `json:"orderId"`
	Total     decimal.Decimal `json:"total"`
	Method    PaymentMethod   `json:"paymentMethod"`
	PromoCode string          `json:"promoCode,omitempty"`
}

func (e OrderCreated) EventName() string { return "order.created" }

// OrderPaid is raised on the first successful reconciliation.
type OrderPaid struct {
	BaseEvent
	OrderID       string          `json:"orderId"`
	Provider      Provider        `json:"provider"`
	TransactionID string          `json:"transactionId"`
	Amount        decimal.Decimal `json:"amount"`
	// OrderStatus is cancelled when money arrived for an order staff already cancelled.
	OrderStatus Status `json:"orderStatus"`
}

func (e OrderPaid) EventName() string { return "order.payment.completed" }

// OrderPaymentFailed is raised when a gateway reports failure or cancellation.
type OrderPaymentFailed struct {
	BaseEvent
	OrderID  string        `json:"orderId"`
	Provider Provider      `json:"provider"`
	Status   PaymentStatus `json:"paymentStatus"`
}

func (e OrderPaymentFailed) EventName() string { return "order.payment.failed" }

// OrderPaymentRefunded is raised when staff mark a completed payment as refunded.
type OrderPaymentRefunded struct {
	BaseEvent
	OrderID string `json:"orderId"`
}

func (e OrderPaymentRefunded) EventName() string { return "order.payment.refunded" }

// StatusChanged is raised on every lifecycle transition.
type StatusChanged struct {
	BaseEvent
	OrderID    string `json:"orderId"`
	FromStatus Status `json:"fromStatus"`
	ToStatus   Status `json:"toStatus"`
}

func (e StatusChanged) EventName() string { return "order.status.changed" }

// AggregateWithEvents is implemented by aggregates that track domain events.
type AggregateWithEvents interface {
	Events() []Event
	ClearEvents()
}

var _ AggregateWithEvents = (*Order)(nil)
