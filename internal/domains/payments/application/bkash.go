package application

import (
	"context"
	"encoding/json"
	"log/slog"
	"strings"

	orderdomain "github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
	orderports "github.com/Apurer/go-gin-storefront/internal/domains/orders/ports"
	"github.com/Apurer/go-gin-storefront/internal/domains/payments/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/payments/ports"
	"github.com/Apurer/go-gin-storefront/internal/platform/httpclient"
	apperrors "github.com/Apurer/go-gin-storefront/internal/shared/errors"
)

const bkashCallbackPath = "/api/payments/bkash/callback"

// BkashCreateInput starts a bKash payment for an order.
type BkashCreateInput struct {
	OrderID        string
	PayerReference string
}

// BkashExecuteInput settles a payment. OrderID is optional; bKash echoes it
// back as merchantInvoiceNumber.
type BkashExecuteInput struct {
	OrderID   string
	PaymentID string
}

// BkashExecution is an executed payment and its effect on the order.
type BkashExecution struct {
	Payment *domain.BkashPayment
	Result
}

// BkashCallback is what bKash appends to the callback URL.
type BkashCallback struct {
	OrderID   string
	PaymentID string
	Status    string
}

// BkashService drives bKash tokenized checkout payments for orders.
type BkashService struct {
	orders    ports.Orders
	gateway   ports.BkashGateway
	redirects domain.Redirects
	callbacks CallbackURLs
	logger    *slog.Logger
}

func NewBkashService(orders ports.Orders, gateway ports.BkashGateway, redirects domain.Redirects, callbacks CallbackURLs, logger *slog.Logger) *BkashService {
	if logger == nil {
		logger = slog.Default()
	}
	return &BkashService{orders: orders, gateway: gateway, redirects: redirects, callbacks: callbacks, logger: logger}
}

func (s *BkashService) GrantToken(ctx context.Context) (*domain.BkashToken, error) {
	return s.gateway.GrantToken(ctx)
}

// Create opens a checkout for the order total and records the paymentID.
func (s *BkashService) Create(ctx context.Context, in BkashCreateInput) (*domain.BkashPayment, error) {
	orderID := strings.TrimSpace(in.OrderID)
	if orderID == "" {
		return nil, apperrors.Validation("orderId is required")
	}
	order, err := s.orders.StartGatewayPayment(ctx, orderports.GatewayStart{OrderID: orderID, Provider: orderdomain.ProviderBkash})
	if err != nil {
		return nil, err
	}
	payerReference := in.PayerReference
	if payerReference == "" {
		payerReference = order.Shipping.Phone
	}
	payment, err := s.gateway.CreatePayment(ctx, domain.BkashCreateRequest{
		OrderID:        order.ID,
		Amount:         order.Pricing.Total,
		PayerReference: payerReference,
		CallbackURL:    s.callbacks.url(bkashCallbackPath, order.ID),
	})
	if err != nil {
		return nil, err
	}
	if _, err := s.orders.StartGatewayPayment(ctx, orderports.GatewayStart{
		OrderID:   order.ID,
		Provider:  orderdomain.ProviderBkash,
		PaymentID: payment.PaymentID,
	}); err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "bkash payment created",
		slog.String("order_id", order.ID),
		slog.String("payment_id", payment.PaymentID),
	)
	return payment, nil
}

// Execute settles the payment and reconciles the result. A payment bKash
// reports as already settled is confirmed through the status query, so a
// repeated execute for a paid order stays a success.
func (s *BkashService) Execute(ctx context.Context, in BkashExecuteInput) (*BkashExecution, error) {
	paymentID := strings.TrimSpace(in.PaymentID)
	if paymentID == "" {
		return nil, apperrors.Validation("paymentID is required")
	}
	payment, err := s.gateway.ExecutePayment(ctx, paymentID)
	if err != nil {
		if !httpclient.IsTimeout(err) {
			return nil, err
		}
		// No answer counts as a failed attempt; a later callback or status
		// query can still complete the payment.
		s.logger.WarnContext(ctx, "bkash execute timed out", slog.String("payment_id", paymentID), slog.String("order_id", in.OrderID))
		raw, _ := json.Marshal(map[string]string{"error": err.Error()})
		payment = &domain.BkashPayment{PaymentID: paymentID, Raw: raw}
	} else if !payment.Completed() {
		if queried, qerr := s.gateway.QueryPayment(ctx, paymentID); qerr == nil && queried.Completed() {
			payment = queried
		}
	}
	order, err := s.resolve(ctx, in.OrderID, payment.MerchantInvoiceNumber, paymentID)
	if err != nil {
		return nil, err
	}
	reconciled, change, err := s.orders.Reconcile(ctx, domain.BkashOutcome(order.ID, *payment))
	if err != nil {
		return nil, err
	}
	return &BkashExecution{Payment: payment, Result: Result{Order: reconciled, Change: change}}, nil
}

// Callback handles the customer's return from bKash. Success executes the
// payment; failure and cancel reconcile directly.
func (s *BkashService) Callback(ctx context.Context, cb BkashCallback) string {
	paymentID := strings.TrimSpace(cb.PaymentID)
	if paymentID == "" {
		return failureRedirect(ctx, s.logger, s.redirects, orderdomain.ProviderBkash, cb.OrderID, ErrMissingReference)
	}
	var kind orderdomain.OutcomeKind
	switch strings.ToLower(strings.TrimSpace(cb.Status)) {
	case domain.BkashCallbackSuccess:
		res, err := s.Execute(ctx, BkashExecuteInput{OrderID: cb.OrderID, PaymentID: paymentID})
		if err != nil {
			return failureRedirect(ctx, s.logger, s.redirects, orderdomain.ProviderBkash, cb.OrderID, err)
		}
		return redirectFor(s.redirects, res.Order)
	case domain.BkashCallbackFailure:
		kind = orderdomain.OutcomeFailed
	case domain.BkashCallbackCancel:
		kind = orderdomain.OutcomeCancelled
	default:
		return failureRedirect(ctx, s.logger, s.redirects, orderdomain.ProviderBkash, cb.OrderID, ErrUnknownCallback)
	}

	invoice := ""
	if strings.TrimSpace(cb.OrderID) == "" {
		payment, err := s.gateway.QueryPayment(ctx, paymentID)
		if err != nil {
			return failureRedirect(ctx, s.logger, s.redirects, orderdomain.ProviderBkash, "", err)
		}
		invoice = payment.MerchantInvoiceNumber
	}
	order, err := s.resolve(ctx, cb.OrderID, invoice, paymentID)
	if err != nil {
		return failureRedirect(ctx, s.logger, s.redirects, orderdomain.ProviderBkash, cb.OrderID, err)
	}
	raw, _ := json.Marshal(map[string]string{"paymentID": paymentID, "status": cb.Status})
	reconciled, _, err := s.orders.Reconcile(ctx, orderdomain.PaymentOutcome{
		Gateway:        orderdomain.ProviderBkash,
		Kind:           kind,
		OrderReference: order.ID,
		PaymentID:      paymentID,
		RawPayload:     raw,
	})
	if err != nil {
		return failureRedirect(ctx, s.logger, s.redirects, orderdomain.ProviderBkash, order.ID, err)
	}
	return redirectFor(s.redirects, reconciled)
}

// resolve finds the order a payment belongs to. merchantInvoiceNumber is
// authoritative when bKash returned one.
func (s *BkashService) resolve(ctx context.Context, orderID, invoice, paymentID string) (*orderdomain.Order, error) {
	orderID = strings.TrimSpace(orderID)
	switch {
	case invoice != "" && orderID != "" && invoice != orderID:
		return nil, mapError(ErrReferenceMismatch)
	case invoice != "":
		orderID = invoice
	case orderID == "":
		return nil, mapError(ErrMissingReference)
	}
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Payment.PaymentID != "" && order.Payment.PaymentID != paymentID {
		return nil, mapError(ErrReferenceMismatch)
	}
	return order, nil
}
