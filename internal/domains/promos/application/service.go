package application

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	customerports "github.com/Apurer/go-gin-storefront/internal/domains/customers/ports"
	"github.com/Apurer/go-gin-storefront/internal/domains/promos/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/promos/ports"
	apperrors "github.com/Apurer/go-gin-storefront/internal/shared/errors"
)

// ErrNotFound is returned by Quote when the code does not exist.
var ErrNotFound = ports.ErrNotFound

// Request carries the checkout context a code is validated against.
type Request struct {
	Code        string
	UserID      string
	OrderAmount decimal.Decimal
	ProductIDs  []string
	CategoryIDs []string
	BrandIDs    []string
}

// Quote is a validated discount ready to be redeemed by an order.
type Quote struct {
	PromoID   string
	Code      string
	Discount  decimal.Decimal
	Stackable bool
	Priority  int
}

// Service evaluates and redeems promo codes.
type Service struct {
	repo      ports.Repository
	customers customerports.Directory
	logger    *slog.Logger
	now       func() time.Time
}

// Option configures the service.
type Option func(*Service)

// WithClock overrides the time source for deterministic testing.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewService wires the promo service. customers may be nil, in which case
// every user is treated as unknown.
func NewService(repo ports.Repository, customers customerports.Directory, opts ...Option) *Service {
	s := &Service{repo: repo, customers: customers, logger: slog.Default(), now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Validate evaluates a code without side effects. A missing code is a
// NotFound error; any other rejection is reported in the result.
func (s *Service) Validate(ctx context.Context, req Request) (*domain.PromoCode, domain.Result, error) {
	code := domain.NormalizeCode(req.Code)
	if code == "" {
		return nil, domain.Result{}, apperrors.Validation("promo code is required")
	}
	if req.OrderAmount.IsNegative() {
		return nil, domain.Result{}, apperrors.Validation("order amount must not be negative")
	}
	promo, err := s.repo.GetByCode(ctx, code)
	if err != nil {
		return nil, domain.Result{}, mapError(err)
	}
	evalCtx := domain.Context{
		UserID:      req.UserID,
		OrderAmount: req.OrderAmount,
		ProductIDs:  req.ProductIDs,
		CategoryIDs: req.CategoryIDs,
		BrandIDs:    req.BrandIDs,
		Now:         s.now(),
	}
	if promo.NewUsersOnly {
		createdAt, err := s.accountCreatedAt(ctx, req.UserID)
		if err != nil {
			return nil, domain.Result{}, err
		}
		evalCtx.AccountCreatedAt = createdAt
	}
	return promo, domain.Evaluate(promo, evalCtx), nil
}

// Quote validates a code for order placement. It returns ErrNotFound (wrapped)
// for unknown codes and a validation error for codes that do not apply.
func (s *Service) Quote(ctx context.Context, req Request) (*Quote, error) {
	promo, result, err := s.Validate(ctx, req)
	if err != nil {
		return nil, err
	}
	if !result.Valid {
		return nil, apperrors.Validation(result.Message).WithDetails(map[string]any{
			"code":   promo.Code,
			"reason": result.Reason,
		})
	}
	return &Quote{
		PromoID:   promo.ID,
		Code:      promo.Code,
		Discount:  result.DiscountAmount,
		Stackable: promo.Stackable,
		Priority:  promo.Priority,
	}, nil
}

// Redeem counts one use of the promo. Called exactly once per placed order.
func (s *Service) Redeem(ctx context.Context, promoID string) error {
	return mapError(s.repo.IncrementUsage(ctx, promoID))
}

// Release reverses a redemption for a failed or cancelled order.
func (s *Service) Release(ctx context.Context, promoID string) error {
	return mapError(s.repo.DecrementUsage(ctx, promoID))
}

// Create stores a new promo definition.
func (s *Service) Create(ctx context.Context, promo *domain.PromoCode) (*domain.PromoCode, error) {
	if promo == nil {
		return nil, apperrors.Validation("promo is required")
	}
	promo.Code = domain.NormalizeCode(promo.Code)
	if err := promo.Validate(); err != nil {
		return nil, mapError(err)
	}
	saved, err := s.repo.Save(ctx, promo)
	return saved, mapError(err)
}

func (s *Service) accountCreatedAt(ctx context.Context, userID string) (*time.Time, error) {
	if userID == "" || s.customers == nil {
		return nil, nil
	}
	customer, err := s.customers.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, customerports.ErrNotFound) {
			s.logger.DebugContext(ctx, "promo evaluated for unknown customer", slog.String("user_id", userID))
			return nil, nil
		}
		return nil, err
	}
	createdAt := customer.CreatedAt
	return &createdAt, nil
}
