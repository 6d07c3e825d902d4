package storefrontserver

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	orderdomain "github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/payments/adapters/gateways/sslcommerz"
	paymenthttpmapper "github.com/Apurer/go-gin-storefront/internal/domains/payments/adapters/http/mapper"
	paymentsapp "github.com/Apurer/go-gin-storefront/internal/domains/payments/application"
	"github.com/Apurer/go-gin-storefront/internal/domains/payments/domain"
)

const maxNotificationBytes = 64 << 10

// SSLCommerzAPI serves SSLCommerz session init, IPN and browser callbacks.
type SSLCommerzAPI struct {
	service *paymentsapp.SSLCommerzService
}

func NewSSLCommerzAPI(service *paymentsapp.SSLCommerzService) *SSLCommerzAPI {
	return &SSLCommerzAPI{service: service}
}

// Post /api/payments/sslcommerz/init
func (api *SSLCommerzAPI) Init(c *gin.Context) {
	var payload paymenthttpmapper.OrderPaymentRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBindError(c, err)
		return
	}
	session, err := api.service.Init(c.Request.Context(), payload.OrderID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, paymenthttpmapper.FromSSLCommerzSession(session))
}

// Post /api/payments/sslcommerz/ipn
func (api *SSLCommerzAPI) IPN(c *gin.Context) {
	n, err := readNotification(c)
	if err != nil {
		respondBindError(c, err)
		return
	}
	res, err := api.service.NotifyIPN(c.Request.Context(), c.Query("orderId"), n)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, paymenthttpmapper.FromResult(*res, nil))
}

// Get|Post /api/payments/sslcommerz/success
func (api *SSLCommerzAPI) Success(c *gin.Context) { api.callback(c, orderdomain.OutcomeSucceeded) }

// Get|Post /api/payments/sslcommerz/fail
func (api *SSLCommerzAPI) Fail(c *gin.Context) { api.callback(c, orderdomain.OutcomeFailed) }

// Get|Post /api/payments/sslcommerz/cancel
func (api *SSLCommerzAPI) Cancel(c *gin.Context) { api.callback(c, orderdomain.OutcomeCancelled) }

// callback lets the payload decide the outcome. The route kind only fills in
// a missing status.
func (api *SSLCommerzAPI) callback(c *gin.Context, route orderdomain.OutcomeKind) {
	n, err := readNotification(c)
	if err != nil {
		n = domain.SSLCommerzNotification{}
	}
	target := api.service.Callback(c.Request.Context(), route, c.Query("orderId"), n)
	c.Redirect(http.StatusFound, target)
}

// readNotification decodes a POST body, or the query for GET callbacks.
func readNotification(c *gin.Context) (domain.SSLCommerzNotification, error) {
	if c.Request.Method == http.MethodGet {
		return sslcommerz.FromValues(c.Request.URL.Query()), nil
	}
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxNotificationBytes))
	if err != nil {
		return domain.SSLCommerzNotification{}, err
	}
	return sslcommerz.DecodeNotification(c.ContentType(), body), nil
}
