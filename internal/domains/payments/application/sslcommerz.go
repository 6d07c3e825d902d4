package application

import (
	"context"
	"log/slog"
	"strings"

	orderdomain "github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
	orderports "github.com/Apurer/go-gin-storefront/internal/domains/orders/ports"
	"github.com/Apurer/go-gin-storefront/internal/domains/payments/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/payments/ports"
	apperrors "github.com/Apurer/go-gin-storefront/internal/shared/errors"
)

const (
	sslSuccessPath = "/api/payments/sslcommerz/success"
	sslFailPath    = "/api/payments/sslcommerz/fail"
	sslCancelPath  = "/api/payments/sslcommerz/cancel"
	sslIPNPath     = "/api/payments/sslcommerz/ipn"

	sslStatusFailed    = "FAILED"
	sslStatusCancelled = "CANCELLED"
)

// SSLCommerzService drives SSLCommerz hosted checkout payments for orders.
type SSLCommerzService struct {
	orders    ports.Orders
	gateway   ports.SSLCommerzGateway
	redirects domain.Redirects
	callbacks CallbackURLs
	logger    *slog.Logger
}

func NewSSLCommerzService(orders ports.Orders, gateway ports.SSLCommerzGateway, redirects domain.Redirects, callbacks CallbackURLs, logger *slog.Logger) *SSLCommerzService {
	if logger == nil {
		logger = slog.Default()
	}
	return &SSLCommerzService{orders: orders, gateway: gateway, redirects: redirects, callbacks: callbacks, logger: logger}
}

// Init opens a hosted session for the order total. The order id is the tran_id.
func (s *SSLCommerzService) Init(ctx context.Context, orderID string) (*domain.SSLCommerzSession, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return nil, apperrors.Validation("orderId is required")
	}
	order, err := s.orders.StartGatewayPayment(ctx, orderports.GatewayStart{
		OrderID:       orderID,
		Provider:      orderdomain.ProviderSSLCommerz,
		TransactionID: orderID,
	})
	if err != nil {
		return nil, err
	}
	numItems := 0
	for _, item := range order.Items {
		numItems += item.Quantity
	}
	session, err := s.gateway.InitSession(ctx, domain.SSLCommerzInitRequest{
		OrderID:       order.ID,
		Amount:        order.Pricing.Total,
		ProductName:   productName(order),
		CustomerName:  order.Shipping.Name,
		CustomerEmail: order.Shipping.Email,
		CustomerPhone: order.Shipping.Phone,
		Address:       order.Shipping.Address,
		City:          order.Shipping.City,
		Postcode:      order.Shipping.PostalCode,
		ShippingName:  order.Shipping.Name,
		NumItems:      numItems,
		SuccessURL:    s.callbacks.url(sslSuccessPath, order.ID),
		FailURL:       s.callbacks.url(sslFailPath, order.ID),
		CancelURL:     s.callbacks.url(sslCancelPath, order.ID),
		IPNURL:        s.callbacks.url(sslIPNPath, order.ID),
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "sslcommerz session created",
		slog.String("order_id", order.ID),
		slog.String("session_key", session.SessionKey),
	)
	return session, nil
}

// NotifyIPN handles a server-to-server notification. The orderId carried on
// the IPN URL stands in when the body yields no tran_id.
func (s *SSLCommerzService) NotifyIPN(ctx context.Context, orderID string, n domain.SSLCommerzNotification) (*Result, error) {
	if strings.TrimSpace(n.TranID) == "" {
		n.TranID = strings.TrimSpace(orderID)
	}
	return s.Notify(ctx, n)
}

// Notify validates an IPN or callback and reconciles it. A payload with neither
// a val_id nor a status says nothing about the payment and is rejected.
func (s *SSLCommerzService) Notify(ctx context.Context, n domain.SSLCommerzNotification) (*Result, error) {
	if strings.TrimSpace(n.TranID) == "" {
		return nil, mapError(ErrMissingReference)
	}
	if strings.TrimSpace(n.ValID) == "" && strings.TrimSpace(n.Status) == "" {
		return nil, mapError(ErrMissingReference)
	}
	validation, err := s.validate(ctx, n)
	if err != nil {
		return nil, err
	}
	if validation != nil && validation.TranID != "" && validation.TranID != n.TranID {
		return nil, mapError(ErrReferenceMismatch)
	}
	order, change, err := s.orders.Reconcile(ctx, domain.SSLCommerzOutcome(n, validation))
	if err != nil {
		return nil, err
	}
	return &Result{Order: order, Change: change}, nil
}

// Callback handles the browser's return from SSLCommerz and always yields a
// checkout URL. The route's orderId stands in when the post carries no
// tran_id, and the route kind stands in for a missing fail or cancel status.
func (s *SSLCommerzService) Callback(ctx context.Context, route orderdomain.OutcomeKind, orderID string, n domain.SSLCommerzNotification) string {
	if n.TranID == "" {
		n.TranID = strings.TrimSpace(orderID)
	}
	if strings.TrimSpace(n.Status) == "" {
		switch route {
		case orderdomain.OutcomeFailed:
			n.Status = sslStatusFailed
		case orderdomain.OutcomeCancelled:
			n.Status = sslStatusCancelled
		default:
			return failureRedirect(ctx, s.logger, s.redirects, orderdomain.ProviderSSLCommerz, n.TranID, ErrMissingReference)
		}
	}
	res, err := s.Notify(ctx, n)
	if err != nil {
		return failureRedirect(ctx, s.logger, s.redirects, orderdomain.ProviderSSLCommerz, n.TranID, err)
	}
	return redirectFor(s.redirects, res.Order)
}

// validate asks the validator about val_id. A nil result with a nil error
// means the validator was unreachable and the callback's status decides.
func (s *SSLCommerzService) validate(ctx context.Context, n domain.SSLCommerzNotification) (*domain.SSLCommerzValidation, error) {
	if n.ValID == "" {
		if n.CallbackValid() {
			return nil, mapError(ErrMissingReference)
		}
		return &domain.SSLCommerzValidation{Status: n.Status, TranID: n.TranID}, nil
	}
	validation, err := s.gateway.Validate(ctx, n.ValID)
	if err == nil {
		return validation, nil
	}
	if !apperrors.Is(err, apperrors.KindUpstream) {
		return nil, err
	}
	s.logger.WarnContext(ctx, "sslcommerz validation unavailable, trusting callback status",
		slog.String("order_id", n.TranID),
		slog.String("val_id", n.ValID),
		slog.String("status", n.Status),
		slog.String("error", err.Error()),
	)
	return nil, nil
}
