package domain

import (
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"

	orderdomain "github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
)

// SSLCommerzInitRequest opens an SSLCommerz hosted checkout session.
type SSLCommerzInitRequest struct {
	OrderID       string
	Amount        decimal.Decimal
	ProductName   string
	CustomerName  string
	CustomerEmail string
	CustomerPhone string
	Address       string
	City          string
	Postcode      string
	ShippingName  string
	NumItems      int
	SuccessURL    string
	FailURL       string
	CancelURL     string
	IPNURL        string
}

// SSLCommerzSession is the init response.
type SSLCommerzSession struct {
	Status         string
	FailedReason   string
	SessionKey     string
	GatewayPageURL string
	Raw            json.RawMessage
}

// SSLCommerzNotification is an IPN or browser callback payload.
type SSLCommerzNotification struct {
	TranID     string
	ValID      string
	Status     string
	Amount     decimal.Decimal
	BankTranID string
	CardType   string
	Raw        json.RawMessage
}

// SSLCommerzValidation is the validator API's verdict on a val_id.
type SSLCommerzValidation struct {
	Status     string
	TranID     string
	ValID      string
	Amount     decimal.Decimal
	BankTranID string
	Raw        json.RawMessage
}

// Valid reports whether the validator accepted the transaction.
func (v SSLCommerzValidation) Valid() bool {
	return sslValidStatus(v.Status)
}

// CallbackValid reports whether the callback itself claims a valid payment.
func (n SSLCommerzNotification) CallbackValid() bool {
	return sslValidStatus(n.Status)
}

// Cancelled reports a customer-cancelled session.
func (n SSLCommerzNotification) Cancelled() bool {
	return strings.EqualFold(strings.TrimSpace(n.Status), "CANCELLED")
}

func sslValidStatus(status string) bool {
	switch strings.ToUpper(strings.TrimSpace(status)) {
	case "VALID", "VALIDATED":
		return true
	default:
		return false
	}
}

// SSLCommerzOutcome builds the outcome for a notification. validation is nil
// when the validator could not be reached; the callback's own status decides then.
func SSLCommerzOutcome(n SSLCommerzNotification, validation *SSLCommerzValidation) orderdomain.PaymentOutcome {
	out := orderdomain.PaymentOutcome{
		Gateway:              orderdomain.ProviderSSLCommerz,
		Kind:                 orderdomain.OutcomeFailed,
		OrderReference:       n.TranID,
		GatewayTransactionID: n.BankTranID,
		PaymentID:            n.ValID,
		Amount:               n.Amount,
		RawPayload:           n.Raw,
	}
	switch {
	case validation != nil && validation.Valid():
		out.Kind = orderdomain.OutcomeSucceeded
		if !validation.Amount.IsZero() {
			out.Amount = validation.Amount
		}
		if validation.BankTranID != "" {
			out.GatewayTransactionID = validation.BankTranID
		}
		if len(validation.Raw) > 0 {
			out.RawPayload = validation.Raw
		}
	case validation == nil && n.CallbackValid():
		out.Kind = orderdomain.OutcomeSucceeded
	case n.Cancelled():
		out.Kind = orderdomain.OutcomeCancelled
	}
	return out
}
