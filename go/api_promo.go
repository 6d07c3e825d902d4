package storefrontserver

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	promohttpmapper "github.com/Apurer/go-gin-storefront/internal/domains/promos/adapters/http/mapper"
	promoapp "github.com/Apurer/go-gin-storefront/internal/domains/promos/application"
	promodomain "github.com/Apurer/go-gin-storefront/internal/domains/promos/domain"
	apperrors "github.com/Apurer/go-gin-storefront/internal/shared/errors"
)

// PromoValidator evaluates a code without redeeming it.
type PromoValidator interface {
	Validate(ctx context.Context, req promoapp.Request) (*promodomain.PromoCode, promodomain.Result, error)
}

// PromoAPI serves the checkout promo check.
type PromoAPI struct {
	service PromoValidator
}

func NewPromoAPI(service PromoValidator) *PromoAPI {
	return &PromoAPI{service: service}
}

// Post /api/promos/validate
// A code that does not apply answers 200 with valid=false; an unknown code
// answers 404.
func (api *PromoAPI) ValidatePromo(c *gin.Context) {
	var payload promohttpmapper.ValidateRequest
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBindError(c, err)
		return
	}
	promo, result, err := api.service.Validate(c.Request.Context(), promohttpmapper.ToRequest(payload, callerID(c)))
	if err != nil {
		if apperrors.Is(err, apperrors.KindNotFound) {
			c.JSON(http.StatusNotFound, promohttpmapper.FromResult(nil, promodomain.Result{Reason: promodomain.ReasonNotFound, Message: promodomain.ReasonNotFound.Message()}))
			return
		}
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, promohttpmapper.FromResult(promo, result))
}
