package domain

import (
	"net/url"
	"strings"
)

// RedirectCode is the error code a browser callback hands to the checkout page.
type RedirectCode string

const (
	CodePaymentFailed      RedirectCode = "payment_failed"
	CodePaymentCancelled   RedirectCode = "payment_cancelled"
	CodePaymentPending     RedirectCode = "payment_pending"
	CodeOrderNotFound      RedirectCode = "order_not_found"
	CodeInvalidCallback    RedirectCode = "invalid_callback"
	CodeVerificationFailed RedirectCode = "verification_failed"
	CodeConfiguration      RedirectCode = "configuration_error"
	CodeInternal           RedirectCode = "internal_error"
)

// Redirects builds the checkout page URLs browsers are sent back to.
type Redirects struct {
	FrontendURL string
}

// Success points at the order confirmation page.
func (r Redirects) Success(orderID string) string {
	q := url.Values{}
	q.Set("orderId", orderID)
	return r.base() + "/checkout/success?" + q.Encode()
}

// Failure points at the checkout page with an error code. orderID may be empty.
func (r Redirects) Failure(code RedirectCode, orderID string) string {
	q := url.Values{}
	q.Set("error", string(code))
	if orderID != "" {
		q.Set("orderId", orderID)
	}
	return r.base() + "/checkout?" + q.Encode()
}

func (r Redirects) base() string {
	return strings.TrimRight(r.FrontendURL, "/")
}
