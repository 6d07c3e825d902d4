package domain

import (
	"encoding/json"
	"errors"
	"strings"

	"github.com/shopspring/decimal"
)

// OutcomeKind tags what a gateway reported.
type OutcomeKind string

const (
	OutcomeSucceeded OutcomeKind = "succeeded"
	OutcomeFailed    OutcomeKind = "failed"
	OutcomeCancelled OutcomeKind = "cancelled"
)

var ErrInvalidOutcome = errors.New("payment outcome requires a gateway, a kind and an order reference")

// PaymentOutcome is the normalized result every gateway adapter produces. It
// is the only input reconciliation accepts and is never persisted as-is.
type PaymentOutcome struct {
	Gateway              Provider
	Kind                 OutcomeKind
	OrderReference       string
	GatewayTransactionID string
	// PaymentID is the provider's payment handle where it differs from the
	// transaction id, such as bKash's paymentID.
	PaymentID  string
	Amount     decimal.Decimal
	RawPayload json.RawMessage
}

// Succeeded reports whether the gateway collected the money.
func (o PaymentOutcome) Succeeded() bool { return o.Kind == OutcomeSucceeded }

func (o PaymentOutcome) Validate() error {
	if o.Gateway == "" || strings.TrimSpace(o.OrderReference) == "" {
		return ErrInvalidOutcome
	}
	switch o.Kind {
	case OutcomeSucceeded, OutcomeFailed, OutcomeCancelled:
		return nil
	default:
		return ErrInvalidOutcome
	}
}
