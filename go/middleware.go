package storefrontserver

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	requestIDHeader   = "X-Request-ID"
	// callerHeader carries the identity the upstream authentication layer resolved.
	callerHeader      = "X-User-ID"
	idempotencyHeader = "Idempotency-Key"
)

// RequestID propagates or assigns a request id.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDHeader, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

func callerID(c *gin.Context) string {
	return strings.TrimSpace(c.GetHeader(callerHeader))
}

func idempotencyKey(c *gin.Context) string {
	return strings.TrimSpace(c.GetHeader(idempotencyHeader))
}
