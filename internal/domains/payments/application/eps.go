package application

import (
	"context"
	"log/slog"
	"strings"
	"time"

	orderdomain "github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
	orderports "github.com/Apurer/go-gin-storefront/internal/domains/orders/ports"
	"github.com/Apurer/go-gin-storefront/internal/domains/payments/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/payments/ports"
	apperrors "github.com/Apurer/go-gin-storefront/internal/shared/errors"
)

const (
	epsSuccessPath = "/api/payments/eps/success"
	epsFailPath    = "/api/payments/eps/fail"
	epsCancelPath  = "/api/payments/eps/cancel"
)

// EPSInitInput starts an EPS payment. TransactionID is generated when empty.
type EPSInitInput struct {
	OrderID       string
	TransactionID string
}

// EPSInitOutput is where the customer goes next.
type EPSInitOutput struct {
	OrderID       string
	TransactionID string
	RedirectURL   string
}

// EPSVerification is a verified EPS status and its effect on the order.
type EPSVerification struct {
	Status *domain.EPSTransactionStatus
	Result
}

// EPSCallback is the query of an EPS browser redirect. Kind comes from the
// route the browser landed on.
type EPSCallback struct {
	Kind                  orderdomain.OutcomeKind
	OrderID               string
	MerchantTransactionID string
}

// EPSService drives EPS payments for orders.
type EPSService struct {
	orders    ports.Orders
	gateway   ports.EPSGateway
	redirects domain.Redirects
	callbacks CallbackURLs
	logger    *slog.Logger
	now       func() time.Time
}

func NewEPSService(orders ports.Orders, gateway ports.EPSGateway, redirects domain.Redirects, callbacks CallbackURLs, logger *slog.Logger) *EPSService {
	if logger == nil {
		logger = slog.Default()
	}
	return &EPSService{
		orders:    orders,
		gateway:   gateway,
		redirects: redirects,
		callbacks: callbacks,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *EPSService) Token(ctx context.Context) (string, error) {
	return s.gateway.GetToken(ctx)
}

// Init records the transaction on the order and asks EPS for the hosted page.
// The amount charged is always the order's total.
func (s *EPSService) Init(ctx context.Context, in EPSInitInput) (*EPSInitOutput, error) {
	orderID := strings.TrimSpace(in.OrderID)
	if orderID == "" {
		return nil, apperrors.Validation("orderId is required")
	}
	txID := strings.TrimSpace(in.TransactionID)
	if txID == "" {
		txID = domain.NewEPSTransactionID(s.now())
	}
	order, err := s.orders.StartGatewayPayment(ctx, orderports.GatewayStart{
		OrderID:       orderID,
		Provider:      orderdomain.ProviderEPS,
		TransactionID: txID,
	})
	if err != nil {
		return nil, err
	}
	res, err := s.gateway.Initialize(ctx, domain.EPSInitRequest{
		TransactionID: txID,
		OrderID:       order.ID,
		Amount:        order.Pricing.Total,
		ProductName:   productName(order),
		Customer: domain.EPSCustomer{
			Name:     order.Shipping.Name,
			Email:    order.Shipping.Email,
			Phone:    order.Shipping.Phone,
			Address:  order.Shipping.Address,
			City:     order.Shipping.City,
			State:    order.Shipping.Area,
			Postcode: order.Shipping.PostalCode,
		},
		SuccessURL: s.callbacks.url(epsSuccessPath, order.ID),
		FailURL:    s.callbacks.url(epsFailPath, order.ID),
		CancelURL:  s.callbacks.url(epsCancelPath, order.ID),
	})
	if err != nil {
		return nil, err
	}
	s.logger.InfoContext(ctx, "eps payment initialized",
		slog.String("order_id", order.ID),
		slog.String("transaction_id", txID),
	)
	return &EPSInitOutput{OrderID: order.ID, TransactionID: txID, RedirectURL: res.RedirectURL}, nil
}

// Verify polls EPS for the transaction and reconciles a settled status.
func (s *EPSService) Verify(ctx context.Context, transactionID string) (*EPSVerification, error) {
	return s.verify(ctx, "", transactionID, "")
}

// Callback verifies a browser redirect with EPS and reconciles it. It always
// returns a checkout URL.
func (s *EPSService) Callback(ctx context.Context, cb EPSCallback) string {
	txID := strings.TrimSpace(cb.MerchantTransactionID)
	if txID == "" {
		return failureRedirect(ctx, s.logger, s.redirects, orderdomain.ProviderEPS, cb.OrderID, ErrMissingReference)
	}
	fallback := cb.Kind
	if fallback == orderdomain.OutcomeSucceeded {
		fallback = ""
	}
	v, err := s.verify(ctx, cb.OrderID, txID, fallback)
	if err != nil {
		return failureRedirect(ctx, s.logger, s.redirects, orderdomain.ProviderEPS, cb.OrderID, err)
	}
	return redirectFor(s.redirects, v.Order)
}

// verify resolves the order from orderID or the status payload, checks the
// transaction belongs to it and reconciles. When EPS reports a status that is
// not final, fallback (failed or cancelled from the callback route) is
// applied instead; success is only ever taken from EPS.
func (s *EPSService) verify(ctx context.Context, orderID, txID string, fallback orderdomain.OutcomeKind) (*EPSVerification, error) {
	status, err := s.gateway.TransactionStatus(ctx, txID)
	if err != nil {
		return nil, err
	}
	if orderID == "" {
		orderID = status.CustomerOrderID
	}
	if orderID == "" {
		return nil, mapError(ErrMissingReference)
	}
	order, err := s.orders.GetOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.Payment.TransactionID != txID {
		return nil, mapError(ErrReferenceMismatch)
	}
	outcome, final := domain.EPSOutcome(order.ID, *status)
	if !final {
		if fallback == "" {
			return &EPSVerification{Status: status, Result: Result{Order: order, Change: orderdomain.ChangeNone}}, nil
		}
		outcome = orderdomain.PaymentOutcome{
			Gateway:              orderdomain.ProviderEPS,
			Kind:                 fallback,
			OrderReference:       order.ID,
			GatewayTransactionID: txID,
			RawPayload:           status.Raw,
		}
	}
	reconciled, change, err := s.orders.Reconcile(ctx, outcome)
	if err != nil {
		return nil, err
	}
	return &EPSVerification{Status: status, Result: Result{Order: reconciled, Change: change}}, nil
}
