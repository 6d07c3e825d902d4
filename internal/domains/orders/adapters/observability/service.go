package observability

import (
	"context"
	"io"
	"log/slog"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	nooptrace "go.opentelemetry.io/otel/trace/noop"

	"github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/orders/ports"
)

const tracerName = "github.com/Apurer/go-gin-storefront/internal/domains/orders/adapters/observability/service"

// Service decorates the orders service with tracing, logging, and metrics.
type Service struct {
	inner   ports.Service
	tracer  trace.Tracer
	logger  *slog.Logger
	metrics serviceMetrics
}

type Option func(*Service)

func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) {
		s.logger = logger
	}
}

func WithTracer(tr trace.Tracer) Option {
	return func(s *Service) {
		s.tracer = tr
	}
}

func WithMeter(m metric.Meter) Option {
	return func(s *Service) {
		s.metrics = newServiceMetrics(m)
	}
}

// New wraps the core orders service.
func New(inner ports.Service, opts ...Option) ports.Service {
	s := &Service{
		inner:   inner,
		tracer:  nooptrace.NewTracerProvider().Tracer(tracerName),
		logger:  slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics: newServiceMetrics(nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	if s.tracer == nil {
		s.tracer = nooptrace.NewTracerProvider().Tracer(tracerName)
	}
	return s
}

func (s *Service) CreateOrder(ctx context.Context, input ports.CreateOrderInput) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.CreateOrder", trace.WithAttributes(
		attribute.String("order.customer_id", input.CustomerID),
		attribute.String("order.payment_method", string(input.Method)),
		attribute.Int("order.lines", len(input.Items)),
	))
	defer span.End()

	result, err := s.inner.CreateOrder(ctx, input)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to create order", slog.String("customer_id", input.CustomerID))
	}
	span.SetAttributes(attribute.String("order.id", result.ID))
	s.metrics.recordCreated(ctx, result.Payment.Method)
	s.logInfo(ctx, "order created", slog.String("order_id", result.ID), slog.String("total", result.Pricing.Total.StringFixed(2)))
	return result, nil
}

func (s *Service) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.GetOrder", trace.WithAttributes(attribute.String("order.id", id)))
	defer span.End()

	result, err := s.inner.GetOrder(ctx, id)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to load order", slog.String("order_id", id))
	}
	return result, nil
}

func (s *Service) ListOrders(ctx context.Context, filter ports.Filter) ([]*domain.Order, int64, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.ListOrders", trace.WithAttributes(
		attribute.String("filter.status", string(filter.Status)),
		attribute.String("filter.payment_status", string(filter.PaymentStatus)),
		attribute.Int("filter.page", filter.Page),
	))
	defer span.End()

	orders, total, err := s.inner.ListOrders(ctx, filter)
	if err != nil {
		return nil, 0, s.handleError(ctx, span, err, "failed to list orders")
	}
	span.SetAttributes(attribute.Int64("orders.total", total))
	return orders, total, nil
}

func (s *Service) UpdateStatus(ctx context.Context, update ports.StatusUpdate) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.UpdateStatus", trace.WithAttributes(
		attribute.String("order.id", update.OrderID),
		attribute.String("order.status", string(update.Status)),
	))
	defer span.End()

	s.logInfo(ctx, "updating order status", slog.String("order_id", update.OrderID), slog.String("status", string(update.Status)))
	result, err := s.inner.UpdateStatus(ctx, update)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to update order status", slog.String("order_id", update.OrderID))
	}
	s.metrics.recordStatusChanged(ctx, result.Status)
	return result, nil
}

func (s *Service) RefundPayment(ctx context.Context, orderID string) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.RefundPayment", trace.WithAttributes(attribute.String("order.id", orderID)))
	defer span.End()

	result, err := s.inner.RefundPayment(ctx, orderID)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to refund payment", slog.String("order_id", orderID))
	}
	s.logInfo(ctx, "payment refunded", slog.String("order_id", orderID))
	return result, nil
}

func (s *Service) StartGatewayPayment(ctx context.Context, start ports.GatewayStart) (*domain.Order, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.StartGatewayPayment", trace.WithAttributes(
		attribute.String("order.id", start.OrderID),
		attribute.String("payment.provider", string(start.Provider)),
	))
	defer span.End()

	result, err := s.inner.StartGatewayPayment(ctx, start)
	if err != nil {
		return nil, s.handleError(ctx, span, err, "failed to record gateway payment", slog.String("order_id", start.OrderID))
	}
	return result, nil
}

func (s *Service) Reconcile(ctx context.Context, outcome domain.PaymentOutcome) (*domain.Order, domain.Change, error) {
	ctx, span := s.tracer.Start(ctx, "OrderService.Reconcile", trace.WithAttributes(
		attribute.String("order.id", outcome.OrderReference),
		attribute.String("payment.provider", string(outcome.Gateway)),
		attribute.String("payment.outcome", string(outcome.Kind)),
	))
	defer span.End()

	result, change, err := s.inner.Reconcile(ctx, outcome)
	if err != nil {
		return nil, domain.ChangeNone, s.handleError(ctx, span, err, "failed to reconcile payment",
			slog.String("order_id", outcome.OrderReference),
			slog.String("gateway", string(outcome.Gateway)),
		)
	}
	span.SetAttributes(attribute.String("payment.change", string(change)))
	s.metrics.recordReconciled(ctx, outcome.Gateway, change)
	return result, change, nil
}

func (s *Service) ReleaseStock(ctx context.Context, orderID string) error {
	ctx, span := s.tracer.Start(ctx, "OrderService.ReleaseStock", trace.WithAttributes(attribute.String("order.id", orderID)))
	defer span.End()

	if err := s.inner.ReleaseStock(ctx, orderID); err != nil {
		return s.handleError(ctx, span, err, "failed to release stock", slog.String("order_id", orderID))
	}
	return nil
}

func (s *Service) ReleasePromo(ctx context.Context, orderID string) error {
	ctx, span := s.tracer.Start(ctx, "OrderService.ReleasePromo", trace.WithAttributes(attribute.String("order.id", orderID)))
	defer span.End()

	if err := s.inner.ReleasePromo(ctx, orderID); err != nil {
		return s.handleError(ctx, span, err, "failed to release promo usage", slog.String("order_id", orderID))
	}
	return nil
}

func (s *Service) logInfo(ctx context.Context, msg string, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	s.logger.LogAttrs(ctx, slog.LevelInfo, msg, attrs...)
}

func (s *Service) logError(ctx context.Context, msg string, err error, attrs ...slog.Attr) {
	if s.logger == nil {
		return
	}
	if err != nil {
		attrs = append(attrs, slog.String("error", err.Error()))
	}
	s.logger.LogAttrs(ctx, slog.LevelError, msg, attrs...)
}

func (s *Service) handleError(ctx context.Context, span trace.Span, err error, msg string, attrs ...slog.Attr) error {
	if span != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}
	s.logError(ctx, msg, err, attrs...)
	return err
}

type serviceMetrics struct {
	created       metric.Int64Counter
	reconciled    metric.Int64Counter
	statusChanged metric.Int64Counter
}

func newServiceMetrics(m metric.Meter) serviceMetrics {
	if m == nil {
		return serviceMetrics{}
	}
	created, _ := m.Int64Counter("orders.created", metric.WithDescription("Number of orders placed"))
	reconciled, _ := m.Int64Counter("orders.payment_reconciled", metric.WithDescription("Gateway outcomes applied to orders"))
	statusChanged, _ := m.Int64Counter("orders.status_changed", metric.WithDescription("Staff status updates"))
	return serviceMetrics{created: created, reconciled: reconciled, statusChanged: statusChanged}
}

func (m serviceMetrics) recordCreated(ctx context.Context, method domain.PaymentMethod) {
	if m.created != nil {
		m.created.Add(ctx, 1, metric.WithAttributes(attribute.String("payment.method", string(method))))
	}
}

func (m serviceMetrics) recordReconciled(ctx context.Context, gateway domain.Provider, change domain.Change) {
	if m.reconciled != nil {
		m.reconciled.Add(ctx, 1, metric.WithAttributes(
			attribute.String("payment.provider", string(gateway)),
			attribute.String("outcome", string(change)),
		))
	}
}

func (m serviceMetrics) recordStatusChanged(ctx context.Context, status domain.Status) {
	if m.statusChanged != nil {
		m.statusChanged.Add(ctx, 1, metric.WithAttributes(attribute.String("order.status", string(status))))
	}
}

var _ ports.Service = (*Service)(nil)
