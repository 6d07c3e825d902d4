package application

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	orderdomain "github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
	orderports "github.com/Apurer/go-gin-storefront/internal/domains/orders/ports"
	"github.com/Apurer/go-gin-storefront/internal/domains/payments/domain"
	apperrors "github.com/Apurer/go-gin-storefront/internal/shared/errors"
)

var (
	testRedirects = domain.Redirects{FrontendURL: "https://shop.test"}
	testCallbacks = CallbackURLs{BaseURL: "https://api.shop.test"}
	testNow       = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
)

// fakeOrders applies outcomes with the real order state machine.
type fakeOrders struct {
	mu         sync.Mutex
	orders     map[string]*orderdomain.Order
	reconciled []orderdomain.PaymentOutcome
}

func newFakeOrders(orders ...*orderdomain.Order) *fakeOrders {
	f := &fakeOrders{orders: map[string]*orderdomain.Order{}}
	for _, o := range orders {
		f.orders[o.ID] = o
	}
	return f
}

func (f *fakeOrders) GetOrder(_ context.Context, id string) (*orderdomain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[id]
	if !ok {
		return nil, apperrors.NotFound("order not found")
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrders) StartGatewayPayment(_ context.Context, start orderports.GatewayStart) (*orderdomain.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[start.OrderID]
	if !ok {
		return nil, apperrors.NotFound("order not found")
	}
	if err := o.StartGatewayPayment(start.Provider, start.TransactionID, start.PaymentID, testNow); err != nil {
		return nil, apperrors.Wrap(apperrors.KindConflict, "order state conflict", err)
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrders) Reconcile(_ context.Context, outcome orderdomain.PaymentOutcome) (*orderdomain.Order, orderdomain.Change, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	o, ok := f.orders[outcome.OrderReference]
	if !ok {
		return nil, orderdomain.ChangeNone, apperrors.NotFound("order not found")
	}
	change, err := o.ApplyOutcome(outcome, testNow)
	if err != nil {
		return nil, orderdomain.ChangeNone, err
	}
	f.reconciled = append(f.reconciled, outcome)
	cp := *o
	return &cp, change, nil
}

func (f *fakeOrders) order(id string) *orderdomain.Order {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.orders[id]
}

func newOnlineOrder(t *testing.T, id string) *orderdomain.Order {
	t.Helper()
	pricing, err := orderdomain.NewPricing(decimal.NewFromInt(1200), decimal.Zero, decimal.NewFromInt(60), decimal.Zero)
	require.NoError(t, err)
	order, err := orderdomain.NewOrder(orderdomain.NewOrderParams{
		ID:         id,
		CustomerID: "cust-1",
		Items: []orderdomain.Item{
			{ProductID: "p-1", Name: "Jamdani Saree", Price: decimal.NewFromInt(1200), Quantity: 1},
		},
		Shipping: orderdomain.Shipping{
			Name:     "Karim",
			Phone:    "01811111111",
			Email:    "karim@example.com",
			Address:  "House 1, Road 2",
			City:     "Dhaka",
			Location: orderdomain.LocationInsideDhaka,
		},
		Method:  orderdomain.MethodOnline,
		Pricing: pricing,
		Now:     testNow,
	})
	require.NoError(t, err)
	return order
}

type epsGatewayMock struct{ mock.Mock }

func (m *epsGatewayMock) GetToken(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

func (m *epsGatewayMock) Initialize(ctx context.Context, req domain.EPSInitRequest) (*domain.EPSInitResult, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*domain.EPSInitResult)
	return res, args.Error(1)
}

func (m *epsGatewayMock) TransactionStatus(ctx context.Context, transactionID string) (*domain.EPSTransactionStatus, error) {
	args := m.Called(ctx, transactionID)
	res, _ := args.Get(0).(*domain.EPSTransactionStatus)
	return res, args.Error(1)
}

type bkashGatewayMock struct{ mock.Mock }

func (m *bkashGatewayMock) GrantToken(ctx context.Context) (*domain.BkashToken, error) {
	args := m.Called(ctx)
	res, _ := args.Get(0).(*domain.BkashToken)
	return res, args.Error(1)
}

func (m *bkashGatewayMock) CreatePayment(ctx context.Context, req domain.BkashCreateRequest) (*domain.BkashPayment, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*domain.BkashPayment)
	return res, args.Error(1)
}

func (m *bkashGatewayMock) ExecutePayment(ctx context.Context, paymentID string) (*domain.BkashPayment, error) {
	args := m.Called(ctx, paymentID)
	res, _ := args.Get(0).(*domain.BkashPayment)
	return res, args.Error(1)
}

func (m *bkashGatewayMock) QueryPayment(ctx context.Context, paymentID string) (*domain.BkashPayment, error) {
	args := m.Called(ctx, paymentID)
	res, _ := args.Get(0).(*domain.BkashPayment)
	return res, args.Error(1)
}

type sslGatewayMock struct{ mock.Mock }

func (m *sslGatewayMock) InitSession(ctx context.Context, req domain.SSLCommerzInitRequest) (*domain.SSLCommerzSession, error) {
	args := m.Called(ctx, req)
	res, _ := args.Get(0).(*domain.SSLCommerzSession)
	return res, args.Error(1)
}

func (m *sslGatewayMock) Validate(ctx context.Context, valID string) (*domain.SSLCommerzValidation, error) {
	args := m.Called(ctx, valID)
	res, _ := args.Get(0).(*domain.SSLCommerzValidation)
	return res, args.Error(1)
}
