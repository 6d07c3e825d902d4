package ports

import (
	"context"

	orderdomain "github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
	orderports "github.com/Apurer/go-gin-storefront/internal/domains/orders/ports"
	"github.com/Apurer/go-gin-storefront/internal/domains/payments/domain"
)

// Orders is the part of the orders context gateways drive. Every gateway
// result reaches the order through Reconcile.
type Orders interface {
	GetOrder(ctx context.Context, id string) (*orderdomain.Order, error)
	StartGatewayPayment(ctx context.Context, start orderports.GatewayStart) (*orderdomain.Order, error)
	Reconcile(ctx context.Context, outcome orderdomain.PaymentOutcome) (*orderdomain.Order, orderdomain.Change, error)
}

// EPSGateway is the EPS merchant API.
type EPSGateway interface {
	GetToken(ctx context.Context) (string, error)
	Initialize(ctx context.Context, req domain.EPSInitRequest) (*domain.EPSInitResult, error)
	TransactionStatus(ctx context.Context, transactionID string) (*domain.EPSTransactionStatus, error)
}

// BkashGateway is the bKash tokenized checkout API.
type BkashGateway interface {
	GrantToken(ctx context.Context) (*domain.BkashToken, error)
	CreatePayment(ctx context.Context, req domain.BkashCreateRequest) (*domain.BkashPayment, error)
	ExecutePayment(ctx context.Context, paymentID string) (*domain.BkashPayment, error)
	QueryPayment(ctx context.Context, paymentID string) (*domain.BkashPayment, error)
}

// SSLCommerzGateway is the SSLCommerz session and validator API.
type SSLCommerzGateway interface {
	InitSession(ctx context.Context, req domain.SSLCommerzInitRequest) (*domain.SSLCommerzSession, error)
	Validate(ctx context.Context, valID string) (*domain.SSLCommerzValidation, error)
}
