package domain

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Status enumerates the order lifecycle.
type Status string

const (
	StatusPending    Status = "pending"
	StatusConfirmed  Status = "confirmed"
	StatusProcessing Status = "processing"
	StatusShipped    Status = "shipped"
	StatusDelivered  Status = "delivered"
	StatusCancelled  Status = "cancelled"
	StatusReturned   Status = "returned"
)

// PaymentMethod is how the customer settles the order.
type PaymentMethod string

const (
	MethodCOD          PaymentMethod = "cod"
	MethodOnline       PaymentMethod = "online"
	MethodBankTransfer PaymentMethod = "bank_transfer"
)

// PaymentStatus tracks settlement independently of the lifecycle status.
type PaymentStatus string

const (
	PaymentPending    PaymentStatus = "pending"
	PaymentProcessing PaymentStatus = "processing"
	PaymentCompleted  PaymentStatus = "completed"
	PaymentFailed     PaymentStatus = "failed"
	PaymentRefunded   PaymentStatus = "refunded"
	PaymentCancelled  PaymentStatus = "cancelled"
)

// Provider names the gateway that handled an online payment.
type Provider string

const (
	ProviderEPS        Provider = "eps"
	ProviderBkash      Provider = "bkash"
	ProviderSSLCommerz Provider = "sslcommerz"
)

// Location drives upstream shipping cost.
type Location string

const (
	LocationInsideDhaka  Location = "insideDhaka"
	LocationOutsideDhaka Location = "outsideDhaka"
)

var (
	ErrNoItems              = errors.New("order must contain at least one item")
	ErrInvalidItem          = errors.New("order item requires a product and a positive quantity")
	ErrMissingShipping      = errors.New("shipping recipient, phone and address are required")
	ErrInvalidLocation      = errors.New("shipping location must be insideDhaka or outsideDhaka")
	ErrInvalidPaymentMethod = errors.New("payment method must be cod, online or bank_transfer")
	ErrNegativeAmount       = errors.New("pricing amounts must not be negative")
	ErrDiscountExceedsTotal = errors.New("discount exceeds the order amount")
	ErrInvalidStatus        = errors.New("order status is invalid")
	ErrEmptyOrderID         = errors.New("order id is required")
)

// Item is a line snapshot; price and name are captured at order time.
type Item struct {
	ProductID     string
	Name          string
	SKU           string
	Image         string
	CategoryID    string
	BrandID       string
	Price         decimal.Decimal
	Quantity      int
	StockReserved bool
}

// LineTotal is price times quantity.
func (i Item) LineTotal() decimal.Decimal {
	return i.Price.Mul(decimal.NewFromInt(int64(i.Quantity)))
}

// Shipping is the delivery contact and address.
type Shipping struct {
	Name       string
	Phone      string
	Email      string
	Address    string
	City       string
	Area       string
	PostalCode string
	Location   Location
}

func (s Shipping) Validate() error {
	if strings.TrimSpace(s.Name) == "" || strings.TrimSpace(s.Phone) == "" || strings.TrimSpace(s.Address) == "" {
		return ErrMissingShipping
	}
	if s.Location != LocationInsideDhaka && s.Location != LocationOutsideDhaka {
		return ErrInvalidLocation
	}
	return nil
}

// Payment is the settlement sub-state of an order.
type Payment struct {
	Method          PaymentMethod
	Status          PaymentStatus
	Provider        Provider
	TransactionID   string
	PaymentID       string
	PaidAt          *time.Time
	GatewayResponse json.RawMessage
}

// Order is the persisted purchase aggregate.
type Order struct {
	ID              string
	CustomerID      string
	Items           []Item
	Shipping        Shipping
	Payment         Payment
	Pricing         Pricing
	PromoCodeID     string
	PromoCode       string
	Status          Status
	TrackingNumber  string
	Notes           string
	ConfirmedAt     *time.Time
	ShippedAt       *time.Time
	DeliveredAt     *time.Time
	CancelledAt     *time.Time
	ReturnedAt      *time.Time
	StockReleasedAt *time.Time
	PromoReleasedAt *time.Time
	Version         int
	CreatedAt       time.Time
	UpdatedAt       time.Time

	events []Event
}

// NewOrderParams collects the inputs a new order is built from.
type NewOrderParams struct {
	ID          string
	CustomerID  string
	Items       []Item
	Shipping    Shipping
	Method      PaymentMethod
	Pricing     Pricing
	PromoCodeID string
	PromoCode   string
	Notes       string
	Now         time.Time
}

// NewOrder builds a pending order. COD orders seed payment as pending and
// online methods as processing.
func NewOrder(p NewOrderParams) (*Order, error) {
	if strings.TrimSpace(p.ID) == "" {
		return nil, ErrEmptyOrderID
	}
	if err := ValidateItems(p.Items); err != nil {
		return nil, err
	}
	if err := p.Shipping.Validate(); err != nil {
		return nil, err
	}
	if !p.Method.Valid() {
		return nil, ErrInvalidPaymentMethod
	}
	paymentStatus := PaymentProcessing
	if p.Method == MethodCOD {
		paymentStatus = PaymentPending
	}
	now := p.Now
	if now.IsZero() {
		now = time.Now().UTC()
	}
	order := &Order{
		ID:          p.ID,
		CustomerID:  p.CustomerID,
		Items:       append([]Item(nil), p.Items...),
		Shipping:    p.Shipping,
		Payment:     Payment{Method: p.Method, Status: paymentStatus},
		Pricing:     p.Pricing,
		PromoCodeID: p.PromoCodeID,
		PromoCode:   p.PromoCode,
		Status:      StatusPending,
		Notes:       p.Notes,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	order.record(OrderCreated{
		BaseEvent: BaseEvent{Timestamp: now},
		OrderID:   order.ID,
		Total:     order.Pricing.Total,
		Method:    order.Payment.Method,
		PromoCode: order.PromoCode,
	})
	return order, nil
}

// ValidateItems checks the line list before any stock is touched.
func ValidateItems(items []Item) error {
	if len(items) == 0 {
		return ErrNoItems
	}
	for _, item := range items {
		if strings.TrimSpace(item.ProductID) == "" || item.Quantity <= 0 {
			return ErrInvalidItem
		}
	}
	return nil
}

// Valid reports whether m is a known payment method.
func (m PaymentMethod) Valid() bool {
	switch m {
	case MethodCOD, MethodOnline, MethodBankTransfer:
		return true
	default:
		return false
	}
}

// Valid reports whether s is a known lifecycle status.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusProcessing, StatusShipped, StatusDelivered, StatusCancelled, StatusReturned:
		return true
	default:
		return false
	}
}

// Valid reports whether s is a known payment status.
func (s PaymentStatus) Valid() bool {
	switch s {
	case PaymentPending, PaymentProcessing, PaymentCompleted, PaymentFailed, PaymentRefunded, PaymentCancelled:
		return true
	default:
		return false
	}
}

// ReservedLines returns the items whose stock was decremented at creation.
func (o *Order) ReservedLines() []Item {
	var lines []Item
	for _, item := range o.Items {
		if item.StockReserved {
			lines = append(lines, item)
		}
	}
	return lines
}

// NeedsStockRelease reports whether cancellation still has to restock items.
func (o *Order) NeedsStockRelease() bool {
	return o.StockReleasedAt == nil && len(o.ReservedLines()) > 0
}

// NeedsPromoRelease reports whether cancellation still has to give back promo usage.
func (o *Order) NeedsPromoRelease() bool {
	return o.PromoReleasedAt == nil && o.PromoCodeID != ""
}

// Compensated reports whether every cancellation side effect has been undone.
func (o *Order) Compensated() bool {
	return !o.NeedsStockRelease() && !o.NeedsPromoRelease()
}

// Events returns events recorded since the last ClearEvents.
func (o *Order) Events() []Event {
	return append([]Event(nil), o.events...)
}

// ClearEvents drops recorded events once they have been published.
func (o *Order) ClearEvents() {
	o.events = nil
}

func (o *Order) record(e Event) {
	o.events = append(o.events, e)
}

func (o *Order) touch(now time.Time) {
	o.UpdatedAt = now
}
