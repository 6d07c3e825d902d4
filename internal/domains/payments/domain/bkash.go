package domain

import (
	"encoding/json"

	"github.com/shopspring/decimal"

	orderdomain "github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
)

const (
	BkashSuccessCode     = "0000"
	BkashCompletedStatus = "Completed"
	BkashCallbackSuccess = "success"
	BkashCallbackFailure = "failure"
	BkashCallbackCancel  = "cancel"
)

// BkashToken is a granted id_token.
type BkashToken struct {
	IDToken      string
	RefreshToken string
	ExpiresIn    int
	Raw          json.RawMessage
}

// BkashCreateRequest creates a tokenized checkout payment.
type BkashCreateRequest struct {
	OrderID        string
	Amount         decimal.Decimal
	PayerReference string
	CallbackURL    string
}

// BkashPayment is the payment state bKash returns from create, execute and query.
type BkashPayment struct {
	PaymentID             string
	BkashURL              string
	StatusCode            string
	StatusMessage         string
	TransactionStatus     string
	TrxID                 string
	MerchantInvoiceNumber string
	Amount                decimal.Decimal
	Raw                   json.RawMessage
}

// Completed is the only success condition bKash offers.
func (p BkashPayment) Completed() bool {
	return p.StatusCode == BkashSuccessCode && p.TransactionStatus == BkashCompletedStatus
}

// BkashOutcome translates an executed payment. Anything other than a
// completed payment is a failure.
func BkashOutcome(orderID string, p BkashPayment) orderdomain.PaymentOutcome {
	kind := orderdomain.OutcomeFailed
	if p.Completed() {
		kind = orderdomain.OutcomeSucceeded
	}
	return orderdomain.PaymentOutcome{
		Gateway:              orderdomain.ProviderBkash,
		Kind:                 kind,
		OrderReference:       orderID,
		GatewayTransactionID: p.TrxID,
		PaymentID:            p.PaymentID,
		Amount:               p.Amount,
		RawPayload:           p.Raw,
	}
}
