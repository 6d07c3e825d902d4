package domain

import (
	"encoding/json"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	orderdomain "github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
)

// EPSCustomer is the payer block EPS requires on initialization.
type EPSCustomer struct {
	Name     string
	Email    string
	Phone    string
	Address  string
	City     string
	State    string
	Postcode string
	Country  string
}

// EPSInitRequest starts an EPS hosted payment.
type EPSInitRequest struct {
	TransactionID string
	OrderID       string
	Amount        decimal.Decimal
	ProductName   string
	Customer      EPSCustomer
	SuccessURL    string
	FailURL       string
	CancelURL     string
}

// EPSInitResult carries the hosted page the customer is redirected to.
type EPSInitResult struct {
	TransactionID string
	RedirectURL   string
	Raw           json.RawMessage
}

// EPSTransactionStatus is the merchant transaction status EPS reports.
type EPSTransactionStatus struct {
	MerchantTransactionID string
	EPSTransactionID      string
	CustomerOrderID       string
	Status                string
	Amount                decimal.Decimal
	Raw                   json.RawMessage
}

const base36 = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// NewEPSTransactionID returns EPS-<epoch-ms>-<6 base36 upper>.
func NewEPSTransactionID(now time.Time) string {
	var suffix strings.Builder
	for i := 0; i < 6; i++ {
		suffix.WriteByte(base36[rand.IntN(len(base36))])
	}
	return fmt.Sprintf("EPS-%s-%s", strconv.FormatInt(now.UnixMilli(), 10), suffix.String())
}

// EPSOutcomeKind maps an EPS status word. ok is false while EPS still reports
// the payment as in flight.
func EPSOutcomeKind(status string) (orderdomain.OutcomeKind, bool) {
	switch strings.ToLower(strings.TrimSpace(status)) {
	case "success", "successful", "completed":
		return orderdomain.OutcomeSucceeded, true
	case "fail", "failed", "failure", "declined":
		return orderdomain.OutcomeFailed, true
	case "cancel", "cancelled", "canceled":
		return orderdomain.OutcomeCancelled, true
	default:
		return "", false
	}
}

// EPSOutcome translates a verified status for orderID. ok is false for
// non-terminal statuses.
func EPSOutcome(orderID string, status EPSTransactionStatus) (orderdomain.PaymentOutcome, bool) {
	kind, ok := EPSOutcomeKind(status.Status)
	if !ok {
		return orderdomain.PaymentOutcome{}, false
	}
	return orderdomain.PaymentOutcome{
		Gateway:              orderdomain.ProviderEPS,
		Kind:                 kind,
		OrderReference:       orderID,
		GatewayTransactionID: status.MerchantTransactionID,
		PaymentID:            status.EPSTransactionID,
		Amount:               status.Amount,
		RawPayload:           status.Raw,
	}, true
}
