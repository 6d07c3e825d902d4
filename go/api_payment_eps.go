package storefrontserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	orderdomain "github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
	paymenthttpmapper "github.com/Apurer/go-gin-storefront/internal/domains/payments/adapters/http/mapper"
	paymentsapp "github.com/Apurer/go-gin-storefront/internal/domains/payments/application"
)

// EPSAPI serves the EPS payment endpoints and browser callbacks.
type EPSAPI struct {
	service *paymentsapp.EPSService
}

func NewEPSAPI(service *paymentsapp.EPSService) *EPSAPI {
	return &EPSAPI{service: service}
}

// Post /api/payments/eps/token
func (api *EPSAPI) Token(c *gin.Context) {
	token, err := api.service.Token(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, paymenthttpmapper.FromToken(token))
}

// Post /api/payments/eps/init
func (api *EPSAPI) Init(c *gin.Context) {
	var payload paymenthttpmapper.OrderPaymentRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBindError(c, err)
		return
	}
	out, err := api.service.Init(c.Request.Context(), paymentsapp.EPSInitInput{
		OrderID:       payload.OrderID,
		TransactionID: payload.TransactionID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, paymenthttpmapper.FromEPSInit(out))
}

// Get /api/payments/eps/verify/:transactionId
func (api *EPSAPI) Verify(c *gin.Context) {
	v, err := api.service.Verify(c.Request.Context(), c.Param("transactionId"))
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, paymenthttpmapper.FromEPSVerification(v))
}

// Get /api/payments/eps/success
func (api *EPSAPI) Success(c *gin.Context) { api.callback(c, orderdomain.OutcomeSucceeded) }

// Get /api/payments/eps/fail
func (api *EPSAPI) Fail(c *gin.Context) { api.callback(c, orderdomain.OutcomeFailed) }

// Get /api/payments/eps/cancel
func (api *EPSAPI) Cancel(c *gin.Context) { api.callback(c, orderdomain.OutcomeCancelled) }

func (api *EPSAPI) callback(c *gin.Context, kind orderdomain.OutcomeKind) {
	target := api.service.Callback(c.Request.Context(), paymentsapp.EPSCallback{
		Kind:                  kind,
		OrderID:               c.Query("orderId"),
		MerchantTransactionID: firstQuery(c, "MerchantTransactionId", "merchantTransactionId", "transactionId"),
	})
	c.Redirect(http.StatusFound, target)
}

func firstQuery(c *gin.Context, keys ...string) string {
	for _, key := range keys {
		if v := c.Query(key); v != "" {
			return v
		}
	}
	return ""
}
