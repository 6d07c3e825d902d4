package storefrontserver

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Route is the information for every URI.
type Route struct {
	// Name is the name of this Route.
	Name string
	// Method is the string for the HTTP method. ex) GET, POST etc..
	Method string
	// Pattern is the pattern of the URI.
	Pattern string
	// HandlerFunc is the handler function of this route.
	HandlerFunc gin.HandlerFunc
}

// NewRouter returns a new router.
func NewRouter(handleFunctions ApiHandleFunctions) *gin.Engine {
	return NewRouterWithGinEngine(gin.Default(), handleFunctions)
}

// NewRouterWithGinEngine adds the storefront routes to an existing engine.
func NewRouterWithGinEngine(router *gin.Engine, handleFunctions ApiHandleFunctions) *gin.Engine {
	router.Use(RequestID())
	for _, route := range getRoutes(handleFunctions) {
		if route.HandlerFunc == nil {
			route.HandlerFunc = DefaultHandleFunc
		}
		switch route.Method {
		case http.MethodGet:
			router.GET(route.Pattern, route.HandlerFunc)
		case http.MethodPost:
			router.POST(route.Pattern, route.HandlerFunc)
		case http.MethodPut:
			router.PUT(route.Pattern, route.HandlerFunc)
		case http.MethodPatch:
			router.PATCH(route.Pattern, route.HandlerFunc)
		case http.MethodDelete:
			router.DELETE(route.Pattern, route.HandlerFunc)
		}
	}
	return router
}

// DefaultHandleFunc answers routes whose API was not wired.
func DefaultHandleFunc(c *gin.Context) {
	c.String(http.StatusNotImplemented, "501 not implemented")
}

// ApiHandleFunctions groups the handlers of every API section. A nil section
// registers no routes.
type ApiHandleFunctions struct {
	OrderAPI      *OrderAPI
	PromoAPI      *PromoAPI
	EPSAPI        *EPSAPI
	BkashAPI      *BkashAPI
	SSLCommerzAPI *SSLCommerzAPI
}

func getRoutes(h ApiHandleFunctions) []Route {
	routes := []Route{
		{"HealthCheck", http.MethodGet, "/healthz", HealthCheck},
	}
	if h.PromoAPI != nil {
		routes = append(routes,
			Route{"ValidatePromo", http.MethodPost, "/api/promos/validate", h.PromoAPI.ValidatePromo},
		)
	}
	if h.OrderAPI != nil {
		routes = append(routes,
			Route{"CreateOrder", http.MethodPost, "/api/orders", h.OrderAPI.CreateOrder},
			Route{"ListOrders", http.MethodGet, "/api/orders", h.OrderAPI.ListOrders},
			Route{"GetOrder", http.MethodGet, "/api/orders/:orderId", h.OrderAPI.GetOrder},
			Route{"UpdateOrderStatus", http.MethodPatch, "/api/orders/:orderId/status", h.OrderAPI.UpdateOrderStatus},
			Route{"RefundOrder", http.MethodPost, "/api/orders/:orderId/refund", h.OrderAPI.RefundOrder},
		)
	}
	if h.EPSAPI != nil {
		routes = append(routes,
			Route{"EPSToken", http.MethodPost, "/api/payments/eps/token", h.EPSAPI.Token},
			Route{"EPSInit", http.MethodPost, "/api/payments/eps/init", h.EPSAPI.Init},
			Route{"EPSVerify", http.MethodGet, "/api/payments/eps/verify/:transactionId", h.EPSAPI.Verify},
			Route{"EPSSuccess", http.MethodGet, "/api/payments/eps/success", h.EPSAPI.Success},
			Route{"EPSFail", http.MethodGet, "/api/payments/eps/fail", h.EPSAPI.Fail},
			Route{"EPSCancel", http.MethodGet, "/api/payments/eps/cancel", h.EPSAPI.Cancel},
		)
	}
	if h.BkashAPI != nil {
		routes = append(routes,
			Route{"BkashGrantToken", http.MethodPost, "/api/payments/bkash/grant-token", h.BkashAPI.GrantToken},
			Route{"BkashCreate", http.MethodPost, "/api/payments/bkash/create", h.BkashAPI.Create},
			Route{"BkashExecute", http.MethodPost, "/api/payments/bkash/execute", h.BkashAPI.Execute},
			Route{"BkashCallback", http.MethodGet, "/api/payments/bkash/callback", h.BkashAPI.Callback},
			Route{"BkashCallbackPost", http.MethodPost, "/api/payments/bkash/callback", h.BkashAPI.Callback},
		)
	}
	if h.SSLCommerzAPI != nil {
		routes = append(routes,
			Route{"SSLCommerzInit", http.MethodPost, "/api/payments/sslcommerz/init", h.SSLCommerzAPI.Init},
			Route{"SSLCommerzIPN", http.MethodPost, "/api/payments/sslcommerz/ipn", h.SSLCommerzAPI.IPN},
			Route{"SSLCommerzSuccess", http.MethodGet, "/api/payments/sslcommerz/success", h.SSLCommerzAPI.Success},
			Route{"SSLCommerzSuccessPost", http.MethodPost, "/api/payments/sslcommerz/success", h.SSLCommerzAPI.Success},
			Route{"SSLCommerzFail", http.MethodGet, "/api/payments/sslcommerz/fail", h.SSLCommerzAPI.Fail},
			Route{"SSLCommerzFailPost", http.MethodPost, "/api/payments/sslcommerz/fail", h.SSLCommerzAPI.Fail},
			Route{"SSLCommerzCancel", http.MethodGet, "/api/payments/sslcommerz/cancel", h.SSLCommerzAPI.Cancel},
			Route{"SSLCommerzCancelPost", http.MethodPost, "/api/payments/sslcommerz/cancel", h.SSLCommerzAPI.Cancel},
		)
	}
	return routes
}

// HealthCheck reports liveness.
func HealthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}
