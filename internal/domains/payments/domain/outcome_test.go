package domain

import (
	"regexp"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"

	orderdomain "github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
)

func TestNewEPSTransactionID_Format(t *testing.T) {
	now := time.UnixMilli(1767225600123)
	id := NewEPSTransactionID(now)
	assert.Regexp(t, regexp.MustCompile(`^EPS-1767225600123-[0-9A-Z]{6}$`), id)
}

func TestEPSOutcome(t *testing.T) {
	cases := []struct {
		status string
		kind   orderdomain.OutcomeKind
		ok     bool
	}{
		{"Success", orderdomain.OutcomeSucceeded, true},
		{"Failed", orderdomain.OutcomeFailed, true},
		{"Cancel", orderdomain.OutcomeCancelled, true},
		{"Pending", "", false},
		{"", "", false},
	}
	for _, tc := range cases {
		t.Run(tc.status, func(t *testing.T) {
			out, ok := EPSOutcome("ORD-1", EPSTransactionStatus{MerchantTransactionID: "EPS-1-ABCDEF", Status: tc.status})
			assert.Equal(t, tc.ok, ok)
			if ok {
				assert.Equal(t, tc.kind, out.Kind)
				assert.Equal(t, "ORD-1", out.OrderReference)
				assert.Equal(t, orderdomain.ProviderEPS, out.Gateway)
				assert.Equal(t, "EPS-1-ABCDEF", out.GatewayTransactionID)
			}
		})
	}
}

func TestBkashOutcome_RequiresBothSuccessFields(t *testing.T) {
	cases := []struct {
		name   string
		code   string
		status string
		kind   orderdomain.OutcomeKind
	}{
		{"completed", "0000", "Completed", orderdomain.OutcomeSucceeded},
		{"initiated", "0000", "Initiated", orderdomain.OutcomeFailed},
		{"error code", "2062", "Completed", orderdomain.OutcomeFailed},
		{"empty", "", "", orderdomain.OutcomeFailed},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			out := BkashOutcome("ORD-1", BkashPayment{PaymentID: "TR001", TrxID: "9ABC", StatusCode: tc.code, TransactionStatus: tc.status})
			assert.Equal(t, tc.kind, out.Kind)
			assert.Equal(t, "TR001", out.PaymentID)
			assert.Equal(t, "9ABC", out.GatewayTransactionID)
		})
	}
}

func TestSSLCommerzOutcome(t *testing.T) {
	n := SSLCommerzNotification{TranID: "ORD-1", ValID: "val-1", Status: "VALID", Amount: decimal.NewFromInt(500)}

	validated := SSLCommerzOutcome(n, &SSLCommerzValidation{Status: "VALIDATED", Amount: decimal.RequireFromString("500.00"), BankTranID: "BANK-1"})
	assert.Equal(t, orderdomain.OutcomeSucceeded, validated.Kind)
	assert.Equal(t, "BANK-1", validated.GatewayTransactionID)
	assert.Equal(t, "ORD-1", validated.OrderReference)

	rejected := SSLCommerzOutcome(n, &SSLCommerzValidation{Status: "INVALID_TRANSACTION"})
	assert.Equal(t, orderdomain.OutcomeFailed, rejected.Kind, "validator verdict wins over the callback")

	degraded := SSLCommerzOutcome(n, nil)
	assert.Equal(t, orderdomain.OutcomeSucceeded, degraded.Kind)

	cancelled := SSLCommerzOutcome(SSLCommerzNotification{TranID: "ORD-1", Status: "CANCELLED"}, nil)
	assert.Equal(t, orderdomain.OutcomeCancelled, cancelled.Kind)

	failed := SSLCommerzOutcome(SSLCommerzNotification{TranID: "ORD-1", Status: "FAILED"}, nil)
	assert.Equal(t, orderdomain.OutcomeFailed, failed.Kind)
}

func TestRedirects(t *testing.T) {
	r := Redirects{FrontendURL: "https://shop.example.com/"}
	assert.Equal(t, "https://shop.example.com/checkout/success?orderId=ORD-1", r.Success("ORD-1"))
	assert.Equal(t, "https://shop.example.com/checkout?error=payment_failed&orderId=ORD-1", r.Failure(CodePaymentFailed, "ORD-1"))
	assert.Equal(t, "https://shop.example.com/checkout?error=invalid_callback", r.Failure(CodeInvalidCallback, ""))
}
