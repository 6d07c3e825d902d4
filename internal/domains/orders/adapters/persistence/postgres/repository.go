package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/orders/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists orders in PostgreSQL using GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed repository. Caller manages DB lifecycle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Models lists the tables owned by this adapter.
func Models() []any { return []any{&orderRecord{}, &idempotencyRecord{}} }

// orderRecord maps the order aggregate to a relational row. Line items and the
// shipping block are stored as JSON documents.
type orderRecord struct {
	ID               string          `gorm:"primaryKey;column:id;size:40"`
	CustomerID       string          `gorm:"column:customer_id;size:64;index"`
	Items            []itemRecord    `gorm:"column:items;type:jsonb;serializer:json"`
	Shipping         shippingRecord  `gorm:"column:shipping;type:jsonb;serializer:json"`
	ShippingLocation string          `gorm:"column:shipping_location;type:varchar(16)"`
	PaymentMethod    string          `gorm:"column:payment_method;type:varchar(16)"`
	PaymentStatus    string          `gorm:"column:payment_status;type:varchar(16);index:idx_orders_status_payment"`
	PaymentProvider  string          `gorm:"column:payment_provider;type:varchar(16)"`
	TransactionID    string          `gorm:"column:transaction_id;index"`
	PaymentID        string          `gorm:"column:payment_id"`
	PaidAt           *time.Time      `gorm:"column:paid_at"`
	GatewayResponse  string          `gorm:"column:gateway_response;type:text"`
	Subtotal         decimal.Decimal `gorm:"column:subtotal;type:numeric(12,2)"`
	Tax              decimal.Decimal `gorm:"column:tax;type:numeric(12,2)"`
	ShippingFee      decimal.Decimal `gorm:"column:shipping_fee;type:numeric(12,2)"`
	Discount         decimal.Decimal `gorm:"column:discount;type:numeric(12,2)"`
	Total            decimal.Decimal `gorm:"column:total;type:numeric(12,2)"`
	PromoCodeID      string          `gorm:"column:promo_code_id;size:64"`
	PromoCode        string          `gorm:"column:promo_code;size:64"`
	Status           string          `gorm:"column:status;type:varchar(16);index:idx_orders_status_payment"`
	TrackingNumber   string          `gorm:"column:tracking_number"`
	Notes            string          `gorm:"column:notes;type:text"`
	ConfirmedAt      *time.Time      `gorm:"column:confirmed_at"`
	ShippedAt        *time.Time      `gorm:"column:shipped_at"`
	DeliveredAt      *time.Time      `gorm:"column:delivered_at"`
	CancelledAt      *time.Time      `gorm:"column:cancelled_at"`
	ReturnedAt       *time.Time      `gorm:"column:returned_at"`
	StockReleasedAt  *time.Time      `gorm:"column:stock_released_at"`
	PromoReleasedAt  *time.Time      `gorm:"column:promo_released_at"`
	Version          int             `gorm:"column:version;not null;default:1"`
	CreatedAt        time.Time       `gorm:"column:created_at;index"`
	UpdatedAt        time.Time       `gorm:"column:updated_at"`
}

func (orderRecord) TableName() string { return "orders" }

type itemRecord struct {
	ProductID     string          `json:"productId"`
	Name          string          `json:"name"`
	SKU           string          `json:"sku,omitempty"`
	Image         string          `json:"image,omitempty"`
	CategoryID    string          `json:"categoryId,omitempty"`
	BrandID       string          `json:"brandId,omitempty"`
	Price         decimal.Decimal `json:"price"`
	Quantity      int             `json:"quantity"`
	StockReserved bool            `json:"stockReserved"`
}

type shippingRecord struct {
	Name       string `json:"name"`
	Phone      string `json:"phone"`
	Email      string `json:"email,omitempty"`
	Address    string `json:"address"`
	City       string `json:"city,omitempty"`
	Area       string `json:"area,omitempty"`
	PostalCode string `json:"postalCode,omitempty"`
}

// Create inserts a new order at version 1.
func (r *Repository) Create(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if order == nil {
		return nil, errors.New("order is nil")
	}
	record := toRecord(order)
	record.Version = 1
	if err := r.db.WithContext(ctx).Create(&record).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, ports.ErrDuplicateOrderID
		}
		return nil, err
	}
	return r.GetByID(ctx, record.ID)
}

// GetByID fetches an order by its external id.
func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record orderRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

// Exists reports whether an order id is taken.
func (r *Repository) Exists(ctx context.Context, id string) (bool, error) {
	if err := r.ensureDB(); err != nil {
		return false, err
	}
	var count int64
	if err := r.db.WithContext(ctx).Model(&orderRecord{}).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// Update writes the order only if its version is unchanged since it was read.
func (r *Repository) Update(ctx context.Context, order *domain.Order) (*domain.Order, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if order == nil {
		return nil, errors.New("order is nil")
	}
	record := toRecord(order)
	record.Version = order.Version + 1
	record.UpdatedAt = time.Now().UTC()
	result := r.db.WithContext(ctx).
		Model(&orderRecord{}).
		Where("id = ? AND version = ?", order.ID, order.Version).
		Select("*").
		Omit("id", "created_at").
		Updates(&record)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		exists, err := r.Exists(ctx, order.ID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, ports.ErrNotFound
		}
		return nil, ports.ErrVersionConflict
	}
	return r.GetByID(ctx, order.ID)
}

// List returns a page of orders, newest first, with the total match count.
func (r *Repository) List(ctx context.Context, filter ports.Filter) ([]*domain.Order, int64, error) {
	if err := r.ensureDB(); err != nil {
		return nil, 0, err
	}
	query := r.db.WithContext(ctx).Model(&orderRecord{})
	if filter.Status != "" {
		query = query.Where("status = ?", string(filter.Status))
	}
	if filter.PaymentStatus != "" {
		query = query.Where("payment_status = ?", string(filter.PaymentStatus))
	}
	if filter.CustomerID != "" {
		query = query.Where("customer_id = ?", filter.CustomerID)
	}
	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	query = query.Order("created_at DESC").Order("id DESC")
	if filter.Limit > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query = query.Offset((page - 1) * filter.Limit).Limit(filter.Limit)
	}
	var records []orderRecord
	if err := query.Find(&records).Error; err != nil {
		return nil, 0, err
	}
	orders := make([]*domain.Order, 0, len(records))
	for i := range records {
		orders = append(orders, records[i].toDomain())
	}
	return orders, total, nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres order repository not configured")
	}
	return nil
}

func toRecord(o *domain.Order) orderRecord {
	items := make([]itemRecord, 0, len(o.Items))
	for _, item := range o.Items {
		items = append(items, itemRecord{
			ProductID:     item.ProductID,
			Name:          item.Name,
			SKU:           item.SKU,
			Image:         item.Image,
			CategoryID:    item.CategoryID,
			BrandID:       item.BrandID,
			Price:         item.Price,
			Quantity:      item.Quantity,
			StockReserved: item.StockReserved,
		})
	}
	return orderRecord{
		ID:         o.ID,
		CustomerID: o.CustomerID,
		Items:      items,
		Shipping: shippingRecord{
			Name:       o.Shipping.Name,
			Phone:      o.Shipping.Phone,
			Email:      o.Shipping.Email,
			Address:    o.Shipping.Address,
			City:       o.Shipping.City,
			Area:       o.Shipping.Area,
			PostalCode: o.Shipping.PostalCode,
		},
		ShippingLocation: string(o.Shipping.Location),
		PaymentMethod:    string(o.Payment.Method),
		PaymentStatus:    string(o.Payment.Status),
		PaymentProvider:  string(o.Payment.Provider),
		TransactionID:    o.Payment.TransactionID,
		PaymentID:        o.Payment.PaymentID,
		PaidAt:           o.Payment.PaidAt,
		GatewayResponse:  string(o.Payment.GatewayResponse),
		Subtotal:         o.Pricing.Subtotal,
		Tax:              o.Pricing.Tax,
		ShippingFee:      o.Pricing.Shipping,
		Discount:         o.Pricing.Discount,
		Total:            o.Pricing.Total,
		PromoCodeID:      o.PromoCodeID,
		PromoCode:        o.PromoCode,
		Status:           string(o.Status),
		TrackingNumber:   o.TrackingNumber,
		Notes:            o.Notes,
		ConfirmedAt:      o.ConfirmedAt,
		ShippedAt:        o.ShippedAt,
		DeliveredAt:      o.DeliveredAt,
		CancelledAt:      o.CancelledAt,
		ReturnedAt:       o.ReturnedAt,
		StockReleasedAt:  o.StockReleasedAt,
		PromoReleasedAt:  o.PromoReleasedAt,
		Version:          o.Version,
		CreatedAt:        o.CreatedAt,
		UpdatedAt:        o.UpdatedAt,
	}
}

func (r orderRecord) toDomain() *domain.Order {
	items := make([]domain.Item, 0, len(r.Items))
	for _, item := range r.Items {
		items = append(items, domain.Item{
			ProductID:     item.ProductID,
			Name:          item.Name,
			SKU:           item.SKU,
			Image:         item.Image,
			CategoryID:    item.CategoryID,
			BrandID:       item.BrandID,
			Price:         item.Price,
			Quantity:      item.Quantity,
			StockReserved: item.StockReserved,
		})
	}
	var gatewayResponse json.RawMessage
	if r.GatewayResponse != "" {
		gatewayResponse = json.RawMessage(r.GatewayResponse)
	}
	return &domain.Order{
		ID:         r.ID,
		CustomerID: r.CustomerID,
		Items:      items,
		Shipping: domain.Shipping{
			Name:       r.Shipping.Name,
			Phone:      r.Shipping.Phone,
			Email:      r.Shipping.Email,
			Address:    r.Shipping.Address,
			City:       r.Shipping.City,
			Area:       r.Shipping.Area,
			PostalCode: r.Shipping.PostalCode,
			Location:   domain.Location(r.ShippingLocation),
		},
		Payment: domain.Payment{
			Method:          domain.PaymentMethod(r.PaymentMethod),
			Status:          domain.PaymentStatus(r.PaymentStatus),
			Provider:        domain.Provider(r.PaymentProvider),
			TransactionID:   r.TransactionID,
			PaymentID:       r.PaymentID,
			PaidAt:          r.PaidAt,
			GatewayResponse: gatewayResponse,
		},
		Pricing: domain.Pricing{
			Subtotal: r.Subtotal,
			Tax:      r.Tax,
			Shipping: r.ShippingFee,
			Discount: r.Discount,
			Total:    r.Total,
		},
		PromoCodeID:     r.PromoCodeID,
		PromoCode:       r.PromoCode,
		Status:          domain.Status(r.Status),
		TrackingNumber:  r.TrackingNumber,
		Notes:           r.Notes,
		ConfirmedAt:     r.ConfirmedAt,
		ShippedAt:       r.ShippedAt,
		DeliveredAt:     r.DeliveredAt,
		CancelledAt:     r.CancelledAt,
		ReturnedAt:      r.ReturnedAt,
		StockReleasedAt: r.StockReleasedAt,
		PromoReleasedAt: r.PromoReleasedAt,
		Version:         r.Version,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
	}
}
