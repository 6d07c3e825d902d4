package storefrontserver

import (
	"github.com/gin-gonic/gin"

	apperrors "github.com/Apurer/go-gin-storefront/internal/shared/errors"
)

// respondError renders err as {success:false, error, details}.
func respondError(c *gin.Context, err error) {
	apperrors.Respond(c, err)
}

// respondBindError reports a malformed request body.
func respondBindError(c *gin.Context, err error) {
	apperrors.Respond(c, apperrors.Validation(err.Error()))
}
