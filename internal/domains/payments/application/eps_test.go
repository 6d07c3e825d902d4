package application

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	orderdomain "github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/payments/domain"
	apperrors "github.com/Apurer/go-gin-storefront/internal/shared/errors"
)

func newEPSFixture(t *testing.T) (*EPSService, *fakeOrders, *epsGatewayMock) {
	t.Helper()
	orders := newFakeOrders(newOnlineOrder(t, "ORD-EPS-1"))
	gateway := &epsGatewayMock{}
	return NewEPSService(orders, gateway, testRedirects, testCallbacks, nil), orders, gateway
}

func TestEPSService_InitChargesOrderTotalAndRecordsTransaction(t *testing.T) {
	svc, orders, gateway := newEPSFixture(t)
	gateway.On("Initialize", mock.Anything, mock.MatchedBy(func(req domain.EPSInitRequest) bool {
		return req.OrderID == "ORD-EPS-1" &&
			req.TransactionID == "EPS-1-AAAAAA" &&
			req.Amount.Equal(decimal.NewFromInt(1260)) &&
			req.SuccessURL == "https://api.shop.test/api/payments/eps/success?orderId=ORD-EPS-1" &&
			req.Customer.Phone == "01811111111"
	})).Return(&domain.EPSInitResult{TransactionID: "EPS-1-AAAAAA", RedirectURL: "https://pg.eps.test/pay"}, nil).Once()

	out, err := svc.Init(context.Background(), EPSInitInput{OrderID: "ORD-EPS-1", TransactionID: "EPS-1-AAAAAA"})
	require.NoError(t, err)
	assert.Equal(t, "https://pg.eps.test/pay", out.RedirectURL)

	order := orders.order("ORD-EPS-1")
	assert.Equal(t, orderdomain.ProviderEPS, order.Payment.Provider)
	assert.Equal(t, "EPS-1-AAAAAA", order.Payment.TransactionID)
	gateway.AssertExpectations(t)
}

func TestEPSService_InitGeneratesTransactionID(t *testing.T) {
	svc, _, gateway := newEPSFixture(t)
	gateway.On("Initialize", mock.Anything, mock.Anything).Return(&domain.EPSInitResult{RedirectURL: "https://pg.eps.test/pay"}, nil).Once()

	out, err := svc.Init(context.Background(), EPSInitInput{OrderID: "ORD-EPS-1"})
	require.NoError(t, err)
	assert.Regexp(t, `^EPS-\d+-[0-9A-Z]{6}$`, out.TransactionID)
}

func TestEPSService_InitRejectsCODBeforeCallingGateway(t *testing.T) {
	order := newOnlineOrder(t, "ORD-COD")
	order.Payment.Method = orderdomain.MethodCOD
	gateway := &epsGatewayMock{}
	svc := NewEPSService(newFakeOrders(order), gateway, testRedirects, testCallbacks, nil)

	_, err := svc.Init(context.Background(), EPSInitInput{OrderID: "ORD-COD"})
	require.Error(t, err)
	gateway.AssertNotCalled(t, "Initialize", mock.Anything, mock.Anything)
}

func TestEPSService_SuccessCallbackReconcilesOnce(t *testing.T) {
	svc, orders, gateway := newEPSFixture(t)
	orders.order("ORD-EPS-1").Payment.TransactionID = "EPS-1-AAAAAA"
	gateway.On("TransactionStatus", mock.Anything, "EPS-1-AAAAAA").Return(&domain.EPSTransactionStatus{
		MerchantTransactionID: "EPS-1-AAAAAA",
		EPSTransactionID:      "E-77",
		CustomerOrderID:       "ORD-EPS-1",
		Status:                "Success",
		Amount:                decimal.NewFromInt(1260),
	}, nil)

	cb := EPSCallback{Kind: orderdomain.OutcomeSucceeded, OrderID: "ORD-EPS-1", MerchantTransactionID: "EPS-1-AAAAAA"}
	first := svc.Callback(context.Background(), cb)
	paidAt := *orders.order("ORD-EPS-1").Payment.PaidAt
	second := svc.Callback(context.Background(), cb)

	assert.Equal(t, "https://shop.test/checkout/success?orderId=ORD-EPS-1", first)
	assert.Equal(t, first, second)
	order := orders.order("ORD-EPS-1")
	assert.Equal(t, orderdomain.PaymentCompleted, order.Payment.Status)
	assert.Equal(t, orderdomain.StatusConfirmed, order.Status)
	assert.Equal(t, paidAt, *order.Payment.PaidAt)
}

func TestEPSService_CallbackResolvesOrderFromStatus(t *testing.T) {
	svc, orders, gateway := newEPSFixture(t)
	orders.order("ORD-EPS-1").Payment.TransactionID = "EPS-1-AAAAAA"
	gateway.On("TransactionStatus", mock.Anything, "EPS-1-AAAAAA").Return(&domain.EPSTransactionStatus{
		MerchantTransactionID: "EPS-1-AAAAAA",
		CustomerOrderID:       "ORD-EPS-1",
		Status:                "Failed",
	}, nil)

	url := svc.Callback(context.Background(), EPSCallback{Kind: orderdomain.OutcomeFailed, MerchantTransactionID: "EPS-1-AAAAAA"})

	assert.Equal(t, "https://shop.test/checkout?error=payment_failed&orderId=ORD-EPS-1", url)
	assert.Equal(t, orderdomain.PaymentFailed, orders.order("ORD-EPS-1").Payment.Status)
}

func TestEPSService_CancelRouteAppliesWhenStatusNotFinal(t *testing.T) {
	svc, orders, gateway := newEPSFixture(t)
	orders.order("ORD-EPS-1").Payment.TransactionID = "EPS-1-AAAAAA"
	gateway.On("TransactionStatus", mock.Anything, "EPS-1-AAAAAA").Return(&domain.EPSTransactionStatus{Status: "Pending"}, nil)

	url := svc.Callback(context.Background(), EPSCallback{Kind: orderdomain.OutcomeCancelled, OrderID: "ORD-EPS-1", MerchantTransactionID: "EPS-1-AAAAAA"})

	assert.Equal(t, "https://shop.test/checkout?error=payment_cancelled&orderId=ORD-EPS-1", url)
	assert.Equal(t, orderdomain.PaymentCancelled, orders.order("ORD-EPS-1").Payment.Status)
}

func TestEPSService_SuccessRouteNeverTrustedWithoutEPS(t *testing.T) {
	svc, orders, gateway := newEPSFixture(t)
	orders.order("ORD-EPS-1").Payment.TransactionID = "EPS-1-AAAAAA"
	gateway.On("TransactionStatus", mock.Anything, "EPS-1-AAAAAA").Return(&domain.EPSTransactionStatus{Status: "Pending"}, nil)

	url := svc.Callback(context.Background(), EPSCallback{Kind: orderdomain.OutcomeSucceeded, OrderID: "ORD-EPS-1", MerchantTransactionID: "EPS-1-AAAAAA"})

	assert.Equal(t, "https://shop.test/checkout?error=payment_pending&orderId=ORD-EPS-1", url)
	assert.Equal(t, orderdomain.PaymentProcessing, orders.order("ORD-EPS-1").Payment.Status)
	assert.Empty(t, orders.reconciled)
}

func TestEPSService_ForeignTransactionIsVerificationFailure(t *testing.T) {
	svc, orders, gateway := newEPSFixture(t)
	orders.order("ORD-EPS-1").Payment.TransactionID = "EPS-1-AAAAAA"
	gateway.On("TransactionStatus", mock.Anything, "EPS-9-ZZZZZZ").Return(&domain.EPSTransactionStatus{Status: "Success"}, nil)

	url := svc.Callback(context.Background(), EPSCallback{Kind: orderdomain.OutcomeSucceeded, OrderID: "ORD-EPS-1", MerchantTransactionID: "EPS-9-ZZZZZZ"})

	assert.Equal(t, "https://shop.test/checkout?error=verification_failed&orderId=ORD-EPS-1", url)
	assert.Empty(t, orders.reconciled)
}

func TestEPSService_CallbackRedirectCodes(t *testing.T) {
	cases := []struct {
		name      string
		cb        EPSCallback
		statusErr error
		want      string
	}{
		{
			name: "missing transaction id",
			cb:   EPSCallback{Kind: orderdomain.OutcomeSucceeded, OrderID: "ORD-EPS-1"},
			want: "https://shop.test/checkout?error=invalid_callback&orderId=ORD-EPS-1",
		},
		{
			name:      "gateway timeout",
			cb:        EPSCallback{Kind: orderdomain.OutcomeSucceeded, OrderID: "ORD-EPS-1", MerchantTransactionID: "EPS-1-AAAAAA"},
			statusErr: apperrors.Upstream("EPS transaction status timed out", nil, errors.New("deadline")),
			want:      "https://shop.test/checkout?error=verification_failed&orderId=ORD-EPS-1",
		},
		{
			name:      "not configured",
			cb:        EPSCallback{Kind: orderdomain.OutcomeSucceeded, OrderID: "ORD-EPS-1", MerchantTransactionID: "EPS-1-AAAAAA"},
			statusErr: apperrors.Configuration("EPS gateway is not configured"),
			want:      "https://shop.test/checkout?error=configuration_error&orderId=ORD-EPS-1",
		},
		{
			name: "unknown order",
			cb:   EPSCallback{Kind: orderdomain.OutcomeSucceeded, OrderID: "ORD-NOPE", MerchantTransactionID: "EPS-1-AAAAAA"},
			want: "https://shop.test/checkout?error=order_not_found&orderId=ORD-NOPE",
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc, orders, gateway := newEPSFixture(t)
			if tc.statusErr != nil {
				gateway.On("TransactionStatus", mock.Anything, mock.Anything).Return(nil, tc.statusErr)
			} else {
				gateway.On("TransactionStatus", mock.Anything, mock.Anything).Return(&domain.EPSTransactionStatus{Status: "Success"}, nil)
			}

			assert.Equal(t, tc.want, svc.Callback(context.Background(), tc.cb))
			assert.Empty(t, orders.reconciled)
		})
	}
}

func TestEPSService_VerifyReturnsStatusAndReconciles(t *testing.T) {
	svc, orders, gateway := newEPSFixture(t)
	orders.order("ORD-EPS-1").Payment.TransactionID = "EPS-1-AAAAAA"
	gateway.On("TransactionStatus", mock.Anything, "EPS-1-AAAAAA").Return(&domain.EPSTransactionStatus{
		MerchantTransactionID: "EPS-1-AAAAAA",
		CustomerOrderID:       "ORD-EPS-1",
		Status:                "Success",
	}, nil)

	v, err := svc.Verify(context.Background(), "EPS-1-AAAAAA")
	require.NoError(t, err)
	assert.Equal(t, "Success", v.Status.Status)
	assert.Equal(t, orderdomain.ChangePaymentCompleted, v.Change)
	assert.Equal(t, orderdomain.PaymentCompleted, v.Order.Payment.Status)
}

func TestEPSService_VerifyWithoutOrderReferenceIsValidation(t *testing.T) {
	svc, _, gateway := newEPSFixture(t)
	gateway.On("TransactionStatus", mock.Anything, "EPS-1-AAAAAA").Return(&domain.EPSTransactionStatus{Status: "Success"}, nil)

	_, err := svc.Verify(context.Background(), "EPS-1-AAAAAA")
	require.Error(t, err)
	assert.True(t, apperrors.Is(err, apperrors.KindValidation))
}
