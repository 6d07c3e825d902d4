package storefrontserver

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	orderhttpmapper "github.com/Apurer/go-gin-storefront/internal/domains/orders/adapters/http/mapper"
	orderdomain "github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
	orderports "github.com/Apurer/go-gin-storefront/internal/domains/orders/ports"
)

// envelope wraps successful JSON payloads.
type envelope struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

func respondData(c *gin.Context, status int, data any) {
	c.JSON(status, envelope{Success: true, Data: data})
}

// OrderAPI serves order placement, reads and staff actions.
type OrderAPI struct {
	service orderports.Service
}

func NewOrderAPI(service orderports.Service) *OrderAPI {
	return &OrderAPI{service: service}
}

// Post /api/orders
// Place an order
func (api *OrderAPI) CreateOrder(c *gin.Context) {
	var payload orderhttpmapper.CreateOrderRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBindError(c, err)
		return
	}
	input := orderhttpmapper.ToCreateInput(payload, callerID(c))
	input.IdempotencyKey = idempotencyKey(c)
	order, err := api.service.CreateOrder(c.Request.Context(), input)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusCreated, orderhttpmapper.FromDomainOrder(order))
}

// Get /api/orders/:orderId
func (api *OrderAPI) GetOrder(c *gin.Context) {
	order, err := api.service.GetOrder(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, orderhttpmapper.FromDomainOrder(order))
}

// Get /api/orders
// List orders, newest first
func (api *OrderAPI) ListOrders(c *gin.Context) {
	filter := orderports.Filter{
		Status:        orderdomain.Status(c.Query("status")),
		PaymentStatus: orderdomain.PaymentStatus(c.Query("paymentStatus")),
		CustomerID:    c.Query("customer"),
		Page:          queryInt(c, "page"),
		Limit:         queryInt(c, "limit"),
	}.Normalized()
	orders, total, err := api.service.ListOrders(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, orderhttpmapper.FromDomainOrders(orders, total, filter))
}

// Patch /api/orders/:orderId/status
// Staff lifecycle change
func (api *OrderAPI) UpdateOrderStatus(c *gin.Context) {
	var payload orderhttpmapper.StatusUpdateRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBindError(c, err)
		return
	}
	order, err := api.service.UpdateStatus(c.Request.Context(), orderhttpmapper.ToStatusUpdate(c.Param("orderId"), payload))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, orderhttpmapper.FromDomainOrder(order))
}

// Post /api/orders/:orderId/refund
func (api *OrderAPI) RefundOrder(c *gin.Context) {
	order, err := api.service.RefundPayment(c.Request.Context(), c.Param("orderId"))
	if err != nil {
		respondError(c, err)
		return
	}
	respondData(c, http.StatusOK, orderhttpmapper.FromDomainOrder(order))
}

// queryInt reads a positive integer query value; anything else is zero.
func queryInt(c *gin.Context, key string) int {
	n, err := strconv.Atoi(c.Query(key))
	if err != nil || n < 0 {
		return 0
	}
	return n
}
