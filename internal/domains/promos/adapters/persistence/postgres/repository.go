package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Apurer/go-gin-storefront/internal/domains/promos/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/promos/ports"
)

var _ ports.Repository = (*Repository)(nil)

// Repository persists promo codes in PostgreSQL using GORM-mapped columns.
type Repository struct {
	db *gorm.DB
}

// NewRepository wires a PostgreSQL-backed repository. The caller owns the DB lifecycle.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Models lists the tables owned by this adapter.
func Models() []any { return []any{&promoRecord{}} }

type promoRecord struct {
	ID                   string          `gorm:"primaryKey;column:id;size:64"`
	Code                 string          `gorm:"column:code;size:64;uniqueIndex"`
	Description          string          `gorm:"column:description"`
	Status               string          `gorm:"column:status;type:varchar(16);index"`
	Type                 string          `gorm:"column:type;type:varchar(16)"`
	Value                decimal.Decimal `gorm:"column:value;type:numeric(12,2)"`
	StartDate            *time.Time      `gorm:"column:start_date"`
	EndDate              *time.Time      `gorm:"column:end_date"`
	UsageLimit           int             `gorm:"column:usage_limit"`
	UsageCount           int             `gorm:"column:usage_count"`
	MinimumOrderAmount   decimal.Decimal `gorm:"column:minimum_order_amount;type:numeric(12,2)"`
	ApplicableUsers      pq.StringArray  `gorm:"column:applicable_users;type:text[]"`
	ApplicableProducts   pq.StringArray  `gorm:"column:applicable_products;type:text[]"`
	ApplicableCategories pq.StringArray  `gorm:"column:applicable_categories;type:text[]"`
	ApplicableBrands     pq.StringArray  `gorm:"column:applicable_brands;type:text[]"`
	NewUsersOnly         bool            `gorm:"column:new_users_only"`
	Stackable            bool            `gorm:"column:stackable"`
	Priority             int             `gorm:"column:priority"`
	CreatedAt            time.Time       `gorm:"column:created_at"`
	UpdatedAt            time.Time       `gorm:"column:updated_at"`
}

func (promoRecord) TableName() string { return "promo_codes" }

// Save inserts or updates a promo definition. The usage counter is owned by
// IncrementUsage/DecrementUsage and is not overwritten on update.
func (r *Repository) Save(ctx context.Context, promo *domain.PromoCode) (*domain.PromoCode, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	if promo == nil {
		return nil, errors.New("promo is nil")
	}
	record := toRecord(promo)
	if err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"code", "description", "status", "type", "value", "start_date", "end_date",
				"usage_limit", "minimum_order_amount", "applicable_users", "applicable_products",
				"applicable_categories", "applicable_brands", "new_users_only", "stackable",
				"priority", "updated_at",
			}),
		}).
		Create(&record).Error; err != nil {
		return nil, err
	}
	return r.GetByID(ctx, record.ID)
}

// GetByCode fetches a promo by its normalized code.
func (r *Repository) GetByCode(ctx context.Context, code string) (*domain.PromoCode, error) {
	return r.first(ctx, "code = ?", domain.NormalizeCode(code))
}

// GetByID fetches a promo by identifier.
func (r *Repository) GetByID(ctx context.Context, id string) (*domain.PromoCode, error) {
	return r.first(ctx, "id = ?", id)
}

// IncrementUsage is a conditional UPDATE so concurrent orders cannot exceed the limit.
func (r *Repository) IncrementUsage(ctx context.Context, id string) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	result := r.db.WithContext(ctx).
		Model(&promoRecord{}).
		Where("id = ? AND (usage_limit = 0 OR usage_count < usage_limit)", id).
		Updates(map[string]any{
			"usage_count": gorm.Expr("usage_count + 1"),
			"updated_at":  gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 1 {
		return nil
	}
	if _, err := r.GetByID(ctx, id); err != nil {
		return err
	}
	return ports.ErrUsageExhausted
}

// DecrementUsage reverses one redemption, never going below zero.
func (r *Repository) DecrementUsage(ctx context.Context, id string) error {
	if err := r.ensureDB(); err != nil {
		return err
	}
	result := r.db.WithContext(ctx).
		Model(&promoRecord{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"usage_count": gorm.Expr("GREATEST(usage_count - 1, 0)"),
			"updated_at":  gorm.Expr("NOW()"),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func (r *Repository) first(ctx context.Context, query string, arg any) (*domain.PromoCode, error) {
	if err := r.ensureDB(); err != nil {
		return nil, err
	}
	var record promoRecord
	if err := r.db.WithContext(ctx).First(&record, query, arg).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ports.ErrNotFound
		}
		return nil, err
	}
	return record.toDomain(), nil
}

func (r *Repository) ensureDB() error {
	if r == nil || r.db == nil {
		return errors.New("postgres promo repository not configured")
	}
	return nil
}

func toRecord(p *domain.PromoCode) promoRecord {
	return promoRecord{
		ID:                   p.ID,
		Code:                 domain.NormalizeCode(p.Code),
		Description:          p.Description,
		Status:               string(p.Status),
		Type:                 string(p.Type),
		Value:                p.Value,
		StartDate:            timePtr(p.StartDate),
		EndDate:              timePtr(p.EndDate),
		UsageLimit:           p.UsageLimit,
		UsageCount:           p.UsageCount,
		MinimumOrderAmount:   p.MinimumOrderAmount,
		ApplicableUsers:      pq.StringArray(p.ApplicableUsers),
		ApplicableProducts:   pq.StringArray(p.ApplicableProducts),
		ApplicableCategories: pq.StringArray(p.ApplicableCategories),
		ApplicableBrands:     pq.StringArray(p.ApplicableBrands),
		NewUsersOnly:         p.NewUsersOnly,
		Stackable:            p.Stackable,
		Priority:             p.Priority,
	}
}

func (r promoRecord) toDomain() *domain.PromoCode {
	p := &domain.PromoCode{
		ID:                   r.ID,
		Code:                 r.Code,
		Description:          r.Description,
		Status:               domain.Status(r.Status),
		Type:                 domain.Type(r.Type),
		Value:                r.Value,
		UsageLimit:           r.UsageLimit,
		UsageCount:           r.UsageCount,
		MinimumOrderAmount:   r.MinimumOrderAmount,
		ApplicableUsers:      []string(r.ApplicableUsers),
		ApplicableProducts:   []string(r.ApplicableProducts),
		ApplicableCategories: []string(r.ApplicableCategories),
		ApplicableBrands:     []string(r.ApplicableBrands),
		NewUsersOnly:         r.NewUsersOnly,
		Stackable:            r.Stackable,
		Priority:             r.Priority,
	}
	if r.StartDate != nil {
		p.StartDate = *r.StartDate
	}
	if r.EndDate != nil {
		p.EndDate = *r.EndDate
	}
	return p
}

func timePtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
