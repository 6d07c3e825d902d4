package domain

import (
	"errors"
	"time"
)

var (
	ErrStatusRegression  = errors.New("order status cannot move backwards")
	ErrOrderClosed       = errors.New("order is cancelled or returned")
	ErrRefundNotAllowed  = errors.New("only completed payments can be refunded")
	ErrAlreadyPaid       = errors.New("order payment is already completed")
	ErrNotOnlinePayment  = errors.New("cash on delivery orders are not paid through a gateway")
	ErrReferenceMismatch = errors.New("payment outcome does not reference this order")
)

// Change describes what reconciliation did to an order.
type Change string

const (
	ChangeNone             Change = "none"
	ChangePaymentCompleted Change = "completed"
	ChangePaymentFailed    Change = "failed"
	ChangePaymentCancelled Change = "cancelled"
)

// progression ranks the forward lifecycle; cancelled and returned sit outside it.
var progression = map[Status]int{
	StatusPending:    0,
	StatusConfirmed:  1,
	StatusProcessing: 2,
	StatusShipped:    3,
	StatusDelivered:  4,
}

// ApplyOutcome reconciles a gateway outcome into the order. Applying the same
// outcome any number of times leaves the order as after the first time.
func (o *Order) ApplyOutcome(out PaymentOutcome, now time.Time) (Change, error) {
	if err := out.Validate(); err != nil {
		return ChangeNone, err
	}
	if out.OrderReference != o.ID {
		return ChangeNone, ErrReferenceMismatch
	}
	switch out.Kind {
	case OutcomeSucceeded:
		return o.completePayment(out, now), nil
	case OutcomeFailed:
		return o.endPayment(out, PaymentFailed, ChangePaymentFailed, now), nil
	default:
		return o.endPayment(out, PaymentCancelled, ChangePaymentCancelled, now), nil
	}
}

func (o *Order) completePayment(out PaymentOutcome, now time.Time) Change {
	if o.Payment.Status == PaymentCompleted || o.Payment.Status == PaymentRefunded {
		return ChangeNone
	}
	o.Payment.Status = PaymentCompleted
	if o.Payment.PaidAt == nil {
		paidAt := now
		o.Payment.PaidAt = &paidAt
	}
	o.recordGateway(out)
	if o.Status == StatusPending {
		o.setStatus(StatusConfirmed, now)
	}
	o.record(OrderPaid{
		BaseEvent:     BaseEvent{Timestamp: now},
		OrderID:       o.ID,
		Provider:      out.Gateway,
		TransactionID: o.Payment.TransactionID,
		Amount:        out.Amount,
		OrderStatus:   o.Status,
	})
	o.touch(now)
	return ChangePaymentCompleted
}

// endPayment moves an unsettled payment into a terminal failure state.
// Completed, refunded and already-ended payments are left alone.
func (o *Order) endPayment(out PaymentOutcome, status PaymentStatus, change Change, now time.Time) Change {
	if o.Payment.Status != PaymentPending && o.Payment.Status != PaymentProcessing {
		return ChangeNone
	}
	o.Payment.Status = status
	o.recordGateway(out)
	o.record(OrderPaymentFailed{
		BaseEvent: BaseEvent{Timestamp: now},
		OrderID:   o.ID,
		Provider:  out.Gateway,
		Status:    status,
	})
	o.touch(now)
	return change
}

func (o *Order) recordGateway(out PaymentOutcome) {
	o.Payment.Provider = out.Gateway
	if out.GatewayTransactionID != "" {
		o.Payment.TransactionID = out.GatewayTransactionID
	}
	if out.PaymentID != "" {
		o.Payment.PaymentID = out.PaymentID
	}
	if len(out.RawPayload) > 0 {
		o.Payment.GatewayResponse = append([]byte(nil), out.RawPayload...)
	}
}

// TransitionTo applies a staff status change. It returns false when the order
// is already in target. Forward jumps are allowed; cancelled is reachable from
// any state before delivered and returned from any state up to delivered.
func (o *Order) TransitionTo(target Status, now time.Time) (bool, error) {
	if !target.Valid() {
		return false, ErrInvalidStatus
	}
	if target == o.Status {
		return false, nil
	}
	if o.Status == StatusCancelled || o.Status == StatusReturned {
		return false, ErrOrderClosed
	}
	switch target {
	case StatusCancelled:
		if o.Status == StatusDelivered {
			return false, ErrStatusRegression
		}
	case StatusReturned:
	default:
		if progression[target] < progression[o.Status] {
			return false, ErrStatusRegression
		}
	}
	o.setStatus(target, now)
	o.touch(now)
	return true, nil
}

func (o *Order) setStatus(target Status, now time.Time) {
	from := o.Status
	o.Status = target
	stamp := func(field **time.Time) {
		if *field == nil {
			t := now
			*field = &t
		}
	}
	switch target {
	case StatusConfirmed:
		stamp(&o.ConfirmedAt)
	case StatusShipped:
		stamp(&o.ShippedAt)
	case StatusDelivered:
		stamp(&o.DeliveredAt)
	case StatusCancelled:
		stamp(&o.CancelledAt)
	case StatusReturned:
		stamp(&o.ReturnedAt)
	}
	o.record(StatusChanged{BaseEvent: BaseEvent{Timestamp: now}, OrderID: o.ID, FromStatus: from, ToStatus: target})
}

// MarkRefunded moves a completed payment to refunded. Refunding twice is a no-op.
func (o *Order) MarkRefunded(now time.Time) (bool, error) {
	switch o.Payment.Status {
	case PaymentRefunded:
		return false, nil
	case PaymentCompleted:
		o.Payment.Status = PaymentRefunded
		o.record(OrderPaymentRefunded{BaseEvent: BaseEvent{Timestamp: now}, OrderID: o.ID})
		o.touch(now)
		return true, nil
	default:
		return false, ErrRefundNotAllowed
	}
}

// StartGatewayPayment records which gateway is collecting the payment and the
// reference it issued. Payment status moves from pending to processing.
func (o *Order) StartGatewayPayment(provider Provider, transactionID, paymentID string, now time.Time) error {
	if o.Payment.Method == MethodCOD {
		return ErrNotOnlinePayment
	}
	if o.Status == StatusCancelled || o.Status == StatusReturned {
		return ErrOrderClosed
	}
	if o.Payment.Status == PaymentCompleted || o.Payment.Status == PaymentRefunded {
		return ErrAlreadyPaid
	}
	o.Payment.Provider = provider
	if transactionID != "" {
		o.Payment.TransactionID = transactionID
	}
	if paymentID != "" {
		o.Payment.PaymentID = paymentID
	}
	if o.Payment.Status == PaymentPending {
		o.Payment.Status = PaymentProcessing
	}
	o.touch(now)
	return nil
}

// MarkStockReleased records that reserved stock was returned.
func (o *Order) MarkStockReleased(now time.Time) {
	if o.StockReleasedAt == nil {
		t := now
		o.StockReleasedAt = &t
		o.touch(now)
	}
}

// MarkPromoReleased records that promo usage was given back.
func (o *Order) MarkPromoReleased(now time.Time) {
	if o.PromoReleasedAt == nil {
		t := now
		o.PromoReleasedAt = &t
		o.touch(now)
	}
}

// Annotate sets staff tracking number and notes. Empty values leave the
// current ones in place.
func (o *Order) Annotate(trackingNumber, notes string, now time.Time) bool {
	changed := false
	if trackingNumber != "" && trackingNumber != o.TrackingNumber {
		o.TrackingNumber = trackingNumber
		changed = true
	}
	if notes != "" && notes != o.Notes {
		o.Notes = notes
		changed = true
	}
	if changed {
		o.touch(now)
	}
	return changed
}
