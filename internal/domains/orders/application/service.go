package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/orders/ports"
	"github.com/Apurer/go-gin-storefront/internal/platform/locking"
	apperrors "github.com/Apurer/go-gin-storefront/internal/shared/errors"
)

const (
	maxIDAttempts     = 10
	maxUpdateAttempts = 3
)

// Service orchestrates order placement, payment reconciliation and staff actions.
type Service struct {
	repo        ports.Repository
	inventory   ports.Inventory
	promos      ports.Promotions
	locker      ports.Locker
	publisher   ports.EventPublisher
	compensator ports.CompensationOrchestrator
	idempotency ports.IdempotencyStore
	logger      *slog.Logger
	now         func() time.Time
	newID       func(time.Time) string
}

// Option configures the service.
type Option func(*Service)

// WithLocker replaces the in-process per-order lock, e.g. with a Redis lock.
func WithLocker(locker ports.Locker) Option {
	return func(s *Service) {
		if locker != nil {
			s.locker = locker
		}
	}
}

// WithPublisher sets where domain events go.
func WithPublisher(publisher ports.EventPublisher) Option {
	return func(s *Service) {
		if publisher != nil {
			s.publisher = publisher
		}
	}
}

// WithIdempotencyStore enables Idempotency-Key handling on CreateOrder.
func WithIdempotencyStore(store ports.IdempotencyStore) Option {
	return func(s *Service) {
		s.idempotency = store
	}
}

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithClock overrides the time source for deterministic testing.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		if now != nil {
			s.now = now
		}
	}
}

// WithIDGenerator overrides order id generation.
func WithIDGenerator(gen func(time.Time) string) Option {
	return func(s *Service) {
		if gen != nil {
			s.newID = gen
		}
	}
}

// NewService wires the orders application service. promos may be nil when
// promo codes are not offered.
func NewService(repo ports.Repository, inventory ports.Inventory, promos ports.Promotions, opts ...Option) *Service {
	s := &Service{
		repo:      repo,
		inventory: inventory,
		promos:    promos,
		locker:    locking.NewKeyedMutex(),
		publisher: ports.NoopPublisher{},
		logger:    slog.Default(),
		now:       func() time.Time { return time.Now().UTC() },
		newID:     domain.GenerateOrderID,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// UseCompensator sets the cancellation compensator. It is set after
// construction because the inline compensator calls back into the service.
func (s *Service) UseCompensator(c ports.CompensationOrchestrator) {
	s.compensator = c
}

// CreateOrder validates the request, checks stock for every line, applies the
// promo and then runs redeem-promo, reserve-stock and persist as a saga.
func (s *Service) CreateOrder(ctx context.Context, input ports.CreateOrderInput) (*domain.Order, error) {
	if s.idempotency == nil || input.IdempotencyKey == "" {
		return s.createOrder(ctx, input)
	}
	return s.createOrderIdempotent(ctx, input)
}

func (s *Service) createOrder(ctx context.Context, input ports.CreateOrderInput) (*domain.Order, error) {
	if err := validateCreate(input); err != nil {
		return nil, mapError(err)
	}

	items, err := s.inventory.Snapshot(ctx, input.Items)
	if err != nil {
		return nil, mapError(err)
	}
	subtotal := domain.Subtotal(items)

	quote, err := s.quotePromo(ctx, input, items, subtotal)
	if err != nil {
		return nil, err
	}
	discount := decimal.Zero
	if quote != nil {
		discount = quote.Discount
	}
	pricing, err := domain.NewPricing(subtotal, input.Tax, input.ShippingFee, discount)
	if err != nil {
		return nil, mapError(err)
	}

	id, err := s.allocateID(ctx)
	if err != nil {
		return nil, err
	}
	params := domain.NewOrderParams{
		ID:         id,
		CustomerID: input.CustomerID,
		Items:      items,
		Shipping:   input.Shipping,
		Method:     input.Method,
		Pricing:    pricing,
		Notes:      input.Notes,
		Now:        s.now(),
	}
	if quote != nil {
		params.PromoCodeID = quote.PromoID
		params.PromoCode = quote.Code
	}
	order, err := domain.NewOrder(params)
	if err != nil {
		return nil, mapError(err)
	}

	var saved *domain.Order
	steps := make([]Step, 0, 3)
	if quote != nil {
		steps = append(steps, funcStep{
			name:       "redeem_promo",
			execute:    func(ctx context.Context) error { return s.promos.Redeem(ctx, quote.PromoID) },
			compensate: func(ctx context.Context) error { return s.promos.Release(ctx, quote.PromoID) },
		})
	}
	var reserved []ports.ItemInput
	steps = append(steps,
		funcStep{
			name: "reserve_stock",
			execute: func(ctx context.Context) error {
				lines, err := s.inventory.Reserve(ctx, input.Items)
				if err != nil {
					return err
				}
				reserved = lines
				markReserved(order, lines)
				return nil
			},
			compensate: func(ctx context.Context) error { return s.inventory.Release(ctx, reserved) },
		},
		funcStep{
			name: "persist_order",
			execute: func(ctx context.Context) error {
				out, err := s.repo.Create(ctx, order)
				if err != nil {
					return err
				}
				saved = out
				return nil
			},
		},
	)
	if err := (&saga{steps: steps, logger: s.logger}).run(ctx); err != nil {
		return nil, mapError(err)
	}

	s.logger.InfoContext(ctx, "order created",
		slog.String("order_id", saved.ID),
		slog.String("payment_method", string(saved.Payment.Method)),
		slog.String("total", saved.Pricing.Total.StringFixed(2)),
	)
	s.publish(ctx, order)
	return saved, nil
}

func validateCreate(input ports.CreateOrderInput) error {
	if len(input.Items) == 0 {
		return domain.ErrNoItems
	}
	for _, item := range input.Items {
		if item.ProductID == "" || item.Quantity <= 0 {
			return domain.ErrInvalidItem
		}
	}
	if err := input.Shipping.Validate(); err != nil {
		return err
	}
	if !input.Method.Valid() {
		return domain.ErrInvalidPaymentMethod
	}
	if input.Tax.IsNegative() || input.ShippingFee.IsNegative() {
		return domain.ErrNegativeAmount
	}
	return nil
}

// quotePromo resolves the promo code. An unknown code is not fatal and the
// order proceeds without a discount; a code that does not apply is rejected.
func (s *Service) quotePromo(ctx context.Context, input ports.CreateOrderInput, items []domain.Item, subtotal decimal.Decimal) (*ports.PromoQuote, error) {
	if input.PromoCode == "" || s.promos == nil {
		return nil, nil
	}
	req := ports.PromoQuoteRequest{Code: input.PromoCode, UserID: input.CustomerID, OrderAmount: subtotal}
	for _, item := range items {
		req.ProductIDs = appendUnique(req.ProductIDs, item.ProductID)
		req.CategoryIDs = appendUnique(req.CategoryIDs, item.CategoryID)
		req.BrandIDs = appendUnique(req.BrandIDs, item.BrandID)
	}
	quote, err := s.promos.Quote(ctx, req)
	if err != nil {
		if errors.Is(err, ports.ErrPromoNotFound) {
			s.logger.WarnContext(ctx, "promo code not found, placing order without discount", slog.String("promo_code", input.PromoCode))
			return nil, nil
		}
		return nil, mapError(err)
	}
	return quote, nil
}

func (s *Service) allocateID(ctx context.Context) (string, error) {
	for attempt := 0; attempt < maxIDAttempts; attempt++ {
		id := s.newID(s.now())
		exists, err := s.repo.Exists(ctx, id)
		if err != nil {
			return "", err
		}
		if !exists {
			return id, nil
		}
	}
	return domain.FallbackOrderID(s.now()), nil
}

func markReserved(order *domain.Order, lines []ports.ItemInput) {
	reserved := make(map[string]bool, len(lines))
	for _, line := range lines {
		reserved[line.ProductID] = true
	}
	for i := range order.Items {
		order.Items[i].StockReserved = reserved[order.Items[i].ProductID]
	}
}

// GetOrder loads an order by its external id.
func (s *Service) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	order, err := s.repo.GetByID(ctx, id)
	return order, mapError(err)
}

// ListOrders returns a page of orders, newest first, and the total match count.
func (s *Service) ListOrders(ctx context.Context, filter ports.Filter) ([]*domain.Order, int64, error) {
	if filter.Status != "" && !filter.Status.Valid() {
		return nil, 0, mapError(domain.ErrInvalidStatus)
	}
	if filter.PaymentStatus != "" && !filter.PaymentStatus.Valid() {
		return nil, 0, apperrors.Validation("invalid payment status filter")
	}
	orders, total, err := s.repo.List(ctx, filter.Normalized())
	return orders, total, mapError(err)
}

// Reconcile applies a gateway outcome to its order under the per-order lock.
// Duplicate and out-of-order outcomes leave the order unchanged.
func (s *Service) Reconcile(ctx context.Context, outcome domain.PaymentOutcome) (*domain.Order, domain.Change, error) {
	if err := outcome.Validate(); err != nil {
		return nil, domain.ChangeNone, mapError(err)
	}
	unlock, err := s.lock(ctx, outcome.OrderReference)
	if err != nil {
		return nil, domain.ChangeNone, err
	}
	defer unlock()

	change := domain.ChangeNone
	order, _, err := s.mutate(ctx, outcome.OrderReference, func(o *domain.Order) (bool, error) {
		if outcome.Succeeded() && !outcome.Amount.IsZero() && !outcome.Amount.Equal(o.Pricing.Total) {
			s.logger.WarnContext(ctx, "gateway amount differs from order total",
				slog.String("order_id", o.ID),
				slog.String("gateway", string(outcome.Gateway)),
				slog.String("amount", outcome.Amount.StringFixed(2)),
				slog.String("total", o.Pricing.Total.StringFixed(2)),
			)
		}
		applied, err := o.ApplyOutcome(outcome, s.now())
		if err != nil {
			return false, err
		}
		change = applied
		return applied != domain.ChangeNone, nil
	})
	if err != nil {
		return nil, domain.ChangeNone, err
	}
	if change == domain.ChangeNone {
		s.logger.InfoContext(ctx, "payment outcome already reconciled",
			slog.String("order_id", order.ID),
			slog.String("gateway", string(outcome.Gateway)),
			slog.String("outcome", string(outcome.Kind)),
			slog.String("payment_status", string(order.Payment.Status)),
		)
	}
	if change == domain.ChangePaymentCompleted && order.Status == domain.StatusCancelled {
		s.logger.WarnContext(ctx, "payment completed for a cancelled order, refund required", slog.String("order_id", order.ID))
	}
	return order, change, nil
}

// UpdateStatus applies a staff lifecycle change. Entering cancelled starts
// compensation; re-sending cancelled retries compensation that did not finish.
func (s *Service) UpdateStatus(ctx context.Context, update ports.StatusUpdate) (*domain.Order, error) {
	if !update.Status.Valid() {
		return nil, mapError(domain.ErrInvalidStatus)
	}
	order, err := s.locked(ctx, update.OrderID, func() (*domain.Order, error) {
		order, _, err := s.mutate(ctx, update.OrderID, func(o *domain.Order) (bool, error) {
			changed, err := o.TransitionTo(update.Status, s.now())
			if err != nil {
				return false, err
			}
			annotated := o.Annotate(update.TrackingNumber, update.Notes, s.now())
			return changed || annotated, nil
		})
		return order, err
	})
	if err != nil {
		return nil, err
	}
	if order.Status == domain.StatusCancelled && !order.Compensated() {
		s.compensate(ctx, order.ID)
	}
	return order, nil
}

// RefundPayment marks a completed payment as refunded.
func (s *Service) RefundPayment(ctx context.Context, orderID string) (*domain.Order, error) {
	return s.locked(ctx, orderID, func() (*domain.Order, error) {
		order, _, err := s.mutate(ctx, orderID, func(o *domain.Order) (bool, error) {
			return o.MarkRefunded(s.now())
		})
		return order, err
	})
}

// StartGatewayPayment records the gateway reference before the customer is
// sent to the gateway.
func (s *Service) StartGatewayPayment(ctx context.Context, start ports.GatewayStart) (*domain.Order, error) {
	return s.locked(ctx, start.OrderID, func() (*domain.Order, error) {
		order, _, err := s.mutate(ctx, start.OrderID, func(o *domain.Order) (bool, error) {
			if err := o.StartGatewayPayment(start.Provider, start.TransactionID, start.PaymentID, s.now()); err != nil {
				return false, err
			}
			return true, nil
		})
		return order, err
	})
}

// ReleaseStock returns reserved stock of a cancelled order. It is safe to
// call repeatedly; only the first successful call restocks.
func (s *Service) ReleaseStock(ctx context.Context, orderID string) error {
	_, err := s.locked(ctx, orderID, func() (*domain.Order, error) {
		order, err := s.repo.GetByID(ctx, orderID)
		if err != nil {
			return nil, mapError(err)
		}
		if order.Status != domain.StatusCancelled || !order.NeedsStockRelease() {
			return order, nil
		}
		if err := s.inventory.Release(ctx, aggregate(order.ReservedLines())); err != nil {
			return nil, fmt.Errorf("release stock for %s: %w", orderID, err)
		}
		order, _, err = s.mutate(ctx, orderID, func(o *domain.Order) (bool, error) {
			if o.StockReleasedAt != nil {
				return false, nil
			}
			o.MarkStockReleased(s.now())
			return true, nil
		})
		return order, err
	})
	return err
}

// ReleasePromo gives back the promo usage of a cancelled order, at most once.
func (s *Service) ReleasePromo(ctx context.Context, orderID string) error {
	_, err := s.locked(ctx, orderID, func() (*domain.Order, error) {
		order, err := s.repo.GetByID(ctx, orderID)
		if err != nil {
			return nil, mapError(err)
		}
		if order.Status != domain.StatusCancelled || !order.NeedsPromoRelease() || s.promos == nil {
			return order, nil
		}
		if err := s.promos.Release(ctx, order.PromoCodeID); err != nil {
			return nil, fmt.Errorf("release promo for %s: %w", orderID, err)
		}
		order, _, err = s.mutate(ctx, orderID, func(o *domain.Order) (bool, error) {
			if o.PromoReleasedAt != nil {
				return false, nil
			}
			o.MarkPromoReleased(s.now())
			return true, nil
		})
		return order, err
	})
	return err
}

func (s *Service) compensate(ctx context.Context, orderID string) {
	if s.compensator == nil {
		s.logger.WarnContext(ctx, "no compensator configured, cancelled order keeps its stock and promo usage", slog.String("order_id", orderID))
		return
	}
	if err := s.compensator.CompensateCancelledOrder(ctx, orderID); err != nil {
		s.logger.ErrorContext(ctx, "order compensation failed, resend the cancelled status to retry",
			slog.String("order_id", orderID),
			slog.String("error", err.Error()),
		)
	}
}

func (s *Service) lock(ctx context.Context, orderID string) (func(), error) {
	unlock, err := s.locker.Lock(ctx, "order:"+orderID)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindConflict, "order is busy, retry shortly", err)
	}
	return unlock, nil
}

func (s *Service) locked(ctx context.Context, orderID string, fn func() (*domain.Order, error)) (*domain.Order, error) {
	unlock, err := s.lock(ctx, orderID)
	if err != nil {
		return nil, err
	}
	defer unlock()
	return fn()
}

// mutate loads the order, applies fn and persists the result, reloading and
// reapplying on version conflicts. fn reports whether it changed anything.
func (s *Service) mutate(ctx context.Context, id string, fn func(*domain.Order) (bool, error)) (*domain.Order, bool, error) {
	for attempt := 0; attempt < maxUpdateAttempts; attempt++ {
		order, err := s.repo.GetByID(ctx, id)
		if err != nil {
			return nil, false, mapError(err)
		}
		changed, err := fn(order)
		if err != nil {
			return nil, false, mapError(err)
		}
		if !changed {
			return order, false, nil
		}
		saved, err := s.repo.Update(ctx, order)
		if errors.Is(err, ports.ErrVersionConflict) {
			s.logger.DebugContext(ctx, "order version conflict, retrying", slog.String("order_id", id), slog.Int("attempt", attempt+1))
			continue
		}
		if err != nil {
			return nil, false, mapError(err)
		}
		s.publish(ctx, order)
		return saved, true, nil
	}
	return nil, false, mapError(ports.ErrVersionConflict)
}

func (s *Service) publish(ctx context.Context, order *domain.Order) {
	for _, event := range order.Events() {
		if err := s.publisher.Publish(ctx, event.EventName(), event); err != nil {
			s.logger.WarnContext(ctx, "failed to publish order event",
				slog.String("order_id", order.ID),
				slog.String("event", event.EventName()),
				slog.String("error", err.Error()),
			)
		}
	}
	order.ClearEvents()
}

func aggregate(items []domain.Item) []ports.ItemInput {
	totals := map[string]int{}
	order := []string{}
	for _, item := range items {
		if _, seen := totals[item.ProductID]; !seen {
			order = append(order, item.ProductID)
		}
		totals[item.ProductID] += item.Quantity
	}
	lines := make([]ports.ItemInput, 0, len(order))
	for _, id := range order {
		lines = append(lines, ports.ItemInput{ProductID: id, Quantity: totals[id]})
	}
	return lines
}

func appendUnique(list []string, v string) []string {
	if v == "" {
		return list
	}
	for _, existing := range list {
		if existing == v {
			return list
		}
	}
	return append(list, v)
}

var _ ports.Service = (*Service)(nil)
