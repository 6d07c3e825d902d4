package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/go-gin-storefront/internal/domains/catalog/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/catalog/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists products in PostgreSQL using GORM.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed repository. The caller owns the DB
// lifecycle and runs migrations.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Models lists the tables owned by this adapter.
func Models() []any { return []any{&productRecord{}} }

type productRecord struct {
	ID             string          `gorm:"primaryKey;column:id;size:64"`
	Name           string          `gorm:"column:name"`
	SKU            string          `gorm:"column:sku;index"`
	Price          decimal.Decimal `gorm:"column:price;type:numeric(12,2)"`
	Image          string          `gorm:"column:image"`
	CategoryID     string          `gorm:"column:category_id;size:64;index"`
	BrandID        string          `gorm:"column:brand_id;size:64;index"`
	Stock          int             `gorm:"column:stock"`
	SoldCount      int             `gorm:"column:sold_count"`
	TrackInventory bool            `gorm:"column:track_inventory"`
	CreatedAt      time.Time       `gorm:"column:created_at"`
	UpdatedAt      time.Time       `gorm:"column:updated_at"`
}

func (productRecord) TableName() string { return "products" }

// Save inserts or updates a product.
func (r *Repository) Save(ctx context.Context, product *domain.Product) (*domain.Product, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if product == nil {
		return nil, errors.New("product is nil")
	}
	if err := product.Validate(); err != nil {
		return nil, err
	}
	record := toRecord(product)
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.Assignments(map[string]any{
				"name":            record.Name,
				"sku":             record.SKU,
				"price":           record.Price,
				"image":           record.Image,
				"category_id":     record.CategoryID,
				"brand_id":        record.BrandID,
				"stock":           record.Stock,
				"sold_count":      record.SoldCount,
				"track_inventory": record.TrackInventory,
				"updated_at":      gorm.Expr("NOW()"),
			}),
		}).Create(&record).Error; err != nil {
		return nil, err
	}
	return r.GetByID(ctx, record.ID)
}

// GetByID fetches a product by identifier.
func (r *Repository) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record productRecord
	if err := r.db.WithContext(ctx).First(&record, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

// DecrementStock is a single conditional UPDATE so two checkouts cannot both
// take the last unit.
func (r *Repository) DecrementStock(ctx context.Context, id string, quantity int) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	if quantity <= 0 {
		return domain.ErrInvalidQuantity
	}
	result := r.db.WithContext(ctx).
		Model(&productRecord{}).
		Where("id = ? AND track_inventory AND stock >= ?", id, quantity).
		Updates(map[string]any{
			"stock":      gorm.Expr("stock - ?", quantity),
			"sold_count": gorm.Expr("sold_count + ?", quantity),
			"updated_at": gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 1 {
		return nil
	}
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !current.TrackInventory {
		return nil
	}
	return &domain.InsufficientStockError{
		ProductID:   current.ID,
		ProductName: current.Name,
		Available:   current.Stock,
		Requested:   quantity,
	}
}

// IncrementStock returns quantity to a tracked product.
func (r *Repository) IncrementStock(ctx context.Context, id string, quantity int) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	if quantity <= 0 {
		return nil
	}
	result := r.db.WithContext(ctx).
		Model(&productRecord{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"stock":      gorm.Expr("CASE WHEN track_inventory THEN stock + ? ELSE stock END", quantity),
			"sold_count": gorm.Expr("CASE WHEN track_inventory THEN GREATEST(sold_count - ?, 0) ELSE sold_count END", quantity),
			"updated_at": gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres product repository not configured")
	}
	return nil
}

func toRecord(p *domain.Product) productRecord {
	return productRecord{
		ID:             p.ID,
		Name:           p.Name,
		SKU:            p.SKU,
		Price:          p.Price,
		Image:          p.Image,
		CategoryID:     p.CategoryID,
		BrandID:        p.BrandID,
		Stock:          p.Stock,
		SoldCount:      p.SoldCount,
		TrackInventory: p.TrackInventory,
	}
}

func (r productRecord) toDomain() *domain.Product {
	return &domain.Product{
		ID:             r.ID,
		Name:           r.Name,
		SKU:            r.SKU,
		Price:          r.Price,
		Image:          r.Image,
		CategoryID:     r.CategoryID,
		BrandID:        r.BrandID,
		Stock:          r.Stock,
		SoldCount:      r.SoldCount,
		TrackInventory: r.TrackInventory,
	}
}
