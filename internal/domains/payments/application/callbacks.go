package application

import (
	"context"
	"log/slog"
	"net/url"
	"strings"

	orderdomain "github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/payments/domain"
)

// CallbackURLs builds the URLs gateways send browsers and IPNs back to.
type CallbackURLs struct {
	BaseURL string
}

func (c CallbackURLs) url(path, orderID string) string {
	q := url.Values{}
	q.Set("orderId", orderID)
	return strings.TrimRight(c.BaseURL, "/") + path + "?" + q.Encode()
}

// Result is what a verification did to the order.
type Result struct {
	Order  *orderdomain.Order
	Change orderdomain.Change
}

// redirectFor sends the browser to the page matching the reconciled payment.
// The order's state decides, not the outcome, so a late failure callback for
// a paid order still lands on the success page.
func redirectFor(r domain.Redirects, order *orderdomain.Order) string {
	switch order.Payment.Status {
	case orderdomain.PaymentCompleted:
		return r.Success(order.ID)
	case orderdomain.PaymentFailed:
		return r.Failure(domain.CodePaymentFailed, order.ID)
	case orderdomain.PaymentCancelled:
		return r.Failure(domain.CodePaymentCancelled, order.ID)
	default:
		return r.Failure(domain.CodePaymentPending, order.ID)
	}
}

func failureRedirect(ctx context.Context, logger *slog.Logger, r domain.Redirects, gateway orderdomain.Provider, orderID string, err error) string {
	code := redirectCode(err)
	logger.WarnContext(ctx, "payment callback rejected",
		slog.String("gateway", string(gateway)),
		slog.String("order_id", orderID),
		slog.String("code", string(code)),
		slog.String("error", err.Error()),
	)
	return r.Failure(code, orderID)
}

func productName(order *orderdomain.Order) string {
	if len(order.Items) == 1 {
		return order.Items[0].Name
	}
	return "Order " + order.ID
}
