package mapper

import (
	"github.com/shopspring/decimal"

	promoapp "github.com/Apurer/go-gin-storefront/internal/domains/promos/application"
	promodomain "github.com/Apurer/go-gin-storefront/internal/domains/promos/domain"
)

// ValidateRequest is the checkout UI's promo check payload.
type ValidateRequest struct {
	Code        string          `json:"code" binding:"required"`
	OrderAmount decimal.Decimal `json:"orderAmount"`
	ProductIDs  []string        `json:"productIds"`
	CategoryIDs []string        `json:"categoryIds"`
	BrandIDs    []string        `json:"brandIds"`
	UserID      string          `json:"userId"`
}

// ValidateResponse reports whether the code applies and the discount it yields.
type ValidateResponse struct {
	Valid          bool            `json:"valid"`
	DiscountAmount decimal.Decimal `json:"discountAmount"`
	Message        string          `json:"message"`
	Reason         string          `json:"reason,omitempty"`
	Code           string          `json:"code,omitempty"`
	Type           string          `json:"type,omitempty"`
	Value          decimal.Decimal `json:"value"`
	Stackable      bool            `json:"stackable"`
	Priority       int             `json:"priority"`
}

// ToRequest converts the transport payload. callerID, when set, wins over the
// body's userId since it comes from the authentication layer.
func ToRequest(in ValidateRequest, callerID string) promoapp.Request {
	userID := in.UserID
	if callerID != "" {
		userID = callerID
	}
	return promoapp.Request{
		Code:        in.Code,
		UserID:      userID,
		OrderAmount: in.OrderAmount,
		ProductIDs:  in.ProductIDs,
		CategoryIDs: in.CategoryIDs,
		BrandIDs:    in.BrandIDs,
	}
}

// FromResult builds the response for an evaluated promo.
func FromResult(promo *promodomain.PromoCode, result promodomain.Result) ValidateResponse {
	resp := ValidateResponse{
		Valid:          result.Valid,
		DiscountAmount: result.DiscountAmount.Round(2),
		Message:        result.Message,
		Reason:         string(result.Reason),
	}
	if promo != nil {
		resp.Code = promo.Code
		resp.Type = string(promo.Type)
		resp.Value = promo.Value
		resp.Stackable = promo.Stackable
		resp.Priority = promo.Priority
	}
	return resp
}
