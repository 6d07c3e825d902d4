package storefrontserver

import (
	"net/http"

	"github.com/gin-gonic/gin"

	paymenthttpmapper "github.com/Apurer/go-gin-storefront/internal/domains/payments/adapters/http/mapper"
	paymentsapp "github.com/Apurer/go-gin-storefront/internal/domains/payments/application"
)

// BkashAPI serves the bKash tokenized checkout endpoints.
type BkashAPI struct {
	service *paymentsapp.BkashService
}

func NewBkashAPI(service *paymentsapp.BkashService) *BkashAPI {
	return &BkashAPI{service: service}
}

// Post /api/payments/bkash/grant-token
func (api *BkashAPI) GrantToken(c *gin.Context) {
	token, err := api.service.GrantToken(c.Request.Context())
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, paymenthttpmapper.FromBkashToken(token))
}

// Post /api/payments/bkash/create
func (api *BkashAPI) Create(c *gin.Context) {
	var payload paymenthttpmapper.OrderPaymentRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBindError(c, err)
		return
	}
	payment, err := api.service.Create(c.Request.Context(), paymentsapp.BkashCreateInput{
		OrderID:        payload.OrderID,
		PayerReference: payload.PayerReference,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, paymenthttpmapper.FromBkashCreate(payment))
}

// Post /api/payments/bkash/execute
func (api *BkashAPI) Execute(c *gin.Context) {
	var payload paymenthttpmapper.BkashExecuteRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBindError(c, err)
		return
	}
	res, err := api.service.Execute(c.Request.Context(), paymentsapp.BkashExecuteInput{
		OrderID:   payload.OrderID,
		PaymentID: payload.PaymentID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, paymenthttpmapper.FromBkashExecution(res))
}

// Get|Post /api/payments/bkash/callback
// bKash appends paymentID and status to the callback URL; form fields are
// accepted too for the POST variant.
func (api *BkashAPI) Callback(c *gin.Context) {
	target := api.service.Callback(c.Request.Context(), paymentsapp.BkashCallback{
		OrderID:   c.Query("orderId"),
		PaymentID: firstNonEmpty(c.Query("paymentID"), c.PostForm("paymentID")),
		Status:    firstNonEmpty(c.Query("status"), c.PostForm("status")),
	})
	c.Redirect(http.StatusFound, target)
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
