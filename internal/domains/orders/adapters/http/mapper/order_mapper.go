package mapper

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/orders/ports"
)

// ItemRequest is one requested line. Name and price are ignored if sent;
// the catalog snapshot is authoritative.
type ItemRequest struct {
	Product  string `json:"product" binding:"required"`
	Quantity int    `json:"quantity" binding:"required,gt=0"`
}

// ShippingPayload is the delivery block in both directions.
type ShippingPayload struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Email      string `json:"email,omitempty"`
	Address    string `json:"address"`
	City       string `json:"city,omitempty"`
	Area       string `json:"area,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
	Location   string `json:"location"`
}

// PaymentRequest selects how the order is paid.
type PaymentRequest struct {
	Method string `json:"method" binding:"required"`
}

// PricingRequest carries the upstream-quoted charges. Subtotal, discount and
// total are computed by the server.
type PricingRequest struct {
	Tax      decimal.Decimal `json:"tax"`
	Shipping decimal.Decimal `json:"shipping"`
}

// CreateOrderRequest is the checkout payload.
type CreateOrderRequest struct {
	Items     []ItemRequest   `json:"items" binding:"required"`
	Shipping  ShippingPayload `json:"shipping"`
	Payment   PaymentRequest  `json:"payment"`
	Pricing   PricingRequest  `json:"pricing"`
	PromoCode string          `json:"promoCode,omitempty"`
	Notes     string          `json:"notes,omitempty"`
}

// StatusUpdateRequest is a staff lifecycle change.
type StatusUpdateRequest struct {
	Status         string `json:"status" binding:"required"`
	TrackingNumber string `json:"trackingNumber,omitempty"`
	Notes          string `json:"notes,omitempty"`
}

type Item struct {
	Product    string          `json:"product"`
	Name       string          `json:"name"`
	SKU        string          `json:"sku,omitempty"`
	Image      string          `json:"image,omitempty"`
	Price      decimal.Decimal `json:"price"`
	Quantity   int             `json:"quantity"`
	LineTotal  decimal.Decimal `json:"lineTotal"`
	CategoryID string          `json:"category,omitempty"`
	BrandID    string          `json:"brand,omitempty"`
}

type Payment struct {
	Method          string          `json:"method"`
	Status          string          `json:"status"`
	Provider        string          `json:"provider,omitempty"`
	TransactionID   string          `json:"transactionId,omitempty"`
	PaymentID       string          `json:"paymentID,omitempty"`
	PaidAt          *time.Time      `json:"paidAt,omitempty"`
	GatewayResponse json.RawMessage `json:"gatewayResponse,omitempty"`
}

type Pricing struct {
	Subtotal decimal.Decimal `json:"subtotal"`
	Tax      decimal.Decimal `json:"tax"`
	Shipping decimal.Decimal `json:"shipping"`
	Discount decimal.Decimal `json:"discount"`
	Total    decimal.Decimal `json:"total"`
}

// Order is the HTTP representation of the order aggregate.
type Order struct {
	OrderID         string          `json:"orderId"`
	Customer        string          `json:"customer,omitempty"`
	Items           []Item          `json:"items"`
	Shipping        ShippingPayload `json:"shipping"`
	Payment         Payment         `json:"payment"`
	Pricing         Pricing         `json:"pricing"`
	PromoCode       string          `json:"promoCode,omitempty"`
	PromoCodeString string          `json:"promoCodeString,omitempty"`
	Status          string          `json:"status"`
	TrackingNumber  string          `json:"trackingNumber,omitempty"`
	Notes           string          `json:"notes,omitempty"`
	ConfirmedAt     *time.Time      `json:"confirmedAt,omitempty"`
	ShippedAt       *time.Time      `json:"shippedAt,omitempty"`
	DeliveredAt     *time.Time      `json:"deliveredAt,omitempty"`
	CancelledAt     *time.Time      `json:"cancelledAt,omitempty"`
	ReturnedAt      *time.Time      `json:"returnedAt,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// OrderList is a paginated listing.
type OrderList struct {
	Orders []Order `json:"orders"`
	Total  int64   `json:"total"`
	Page   int     `json:"page"`
	Limit  int     `json:"limit"`
}

// ToCreateInput converts the checkout payload. customerID comes from the
// authentication layer.
func ToCreateInput(in CreateOrderRequest, customerID string) ports.CreateOrderInput {
	items := make([]ports.ItemInput, 0, len(in.Items))
	for _, item := range in.Items {
		items = append(items, ports.ItemInput{ProductID: item.Product, Quantity: item.Quantity})
	}
	return ports.CreateOrderInput{
		CustomerID: customerID,
		Items:      items,
		Shipping: domain.Shipping{
			Name:       in.Shipping.Name,
			Phone:      in.Shipping.Phone,
			Email:      in.Shipping.Email,
			Address:    in.Shipping.Address,
			City:       in.Shipping.City,
			Area:       in.Shipping.Area,
			PostalCode: in.Shipping.PostalCode,
			Location:   domain.Location(in.Shipping.Location),
		},
		Method:      domain.PaymentMethod(in.Payment.Method),
		Tax:         in.Pricing.Tax,
		ShippingFee: in.Pricing.Shipping,
		PromoCode:   in.PromoCode,
		Notes:       in.Notes,
	}
}

// ToStatusUpdate converts a staff status change for orderID.
func ToStatusUpdate(orderID string, in StatusUpdateRequest) ports.StatusUpdate {
	return ports.StatusUpdate{
		OrderID:        orderID,
		Status:         domain.Status(in.Status),
		TrackingNumber: in.TrackingNumber,
		Notes:          in.Notes,
	}
}

// FromDomainOrder converts a domain order to the transport representation.
func FromDomainOrder(order *domain.Order) Order {
	if order == nil {
		return Order{}
	}
	items := make([]Item, 0, len(order.Items))
	for _, item := range order.Items {
		items = append(items, Item{
			Product:    item.ProductID,
			Name:       item.Name,
			SKU:        item.SKU,
			Image:      item.Image,
			Price:      item.Price,
			Quantity:   item.Quantity,
			LineTotal:  item.LineTotal(),
			CategoryID: item.CategoryID,
			BrandID:    item.BrandID,
		})
	}
	return Order{
		OrderID:  order.ID,
		Customer: order.CustomerID,
		Items:    items,
		Shipping: ShippingPayload{
			Name:       order.Shipping.Name,
			Phone:      order.Shipping.Phone,
			Email:      order.Shipping.Email,
			Address:    order.Shipping.Address,
			City:       order.Shipping.City,
			Area:       order.Shipping.Area,
			PostalCode: order.Shipping.PostalCode,
			Location:   string(order.Shipping.Location),
		},
		Payment: Payment{
			Method:          string(order.Payment.Method),
			Status:          string(order.Payment.Status),
			Provider:        string(order.Payment.Provider),
			TransactionID:   order.Payment.TransactionID,
			PaymentID:       order.Payment.PaymentID,
			PaidAt:          order.Payment.PaidAt,
			GatewayResponse: order.Payment.GatewayResponse,
		},
		Pricing: Pricing{
			Subtotal: order.Pricing.Subtotal,
			Tax:      order.Pricing.Tax,
			Shipping: order.Pricing.Shipping,
			Discount: order.Pricing.Discount,
			Total:    order.Pricing.Total,
		},
		PromoCode:       order.PromoCodeID,
		PromoCodeString: order.PromoCode,
		Status:          string(order.Status),
		TrackingNumber:  order.TrackingNumber,
		Notes:           order.Notes,
		ConfirmedAt:     order.ConfirmedAt,
		ShippedAt:       order.ShippedAt,
		DeliveredAt:     order.DeliveredAt,
		CancelledAt:     order.CancelledAt,
		ReturnedAt:      order.ReturnedAt,
		CreatedAt:       order.CreatedAt,
		UpdatedAt:       order.UpdatedAt,
	}
}

// FromDomainOrders builds a listing page.
func FromDomainOrders(orders []*domain.Order, total int64, filter ports.Filter) OrderList {
	out := OrderList{Orders: make([]Order, 0, len(orders)), Total: total, Page: filter.Page, Limit: filter.Limit}
	for _, order := range orders {
		out.Orders = append(out.Orders, FromDomainOrder(order))
	}
	return out
}
