// Package promos adapts the promo service to the orders context.
package promos

import (
	"context"
	"errors"

	"github.com/Apurer/go-gin-storefront/internal/domains/orders/ports"
	promoapp "github.com/Apurer/go-gin-storefront/internal/domains/promos/application"
)

var _ ports.Promotions = (*Promotions)(nil)

type Promotions struct {
	svc *promoapp.Service
}

func NewPromotions(svc *promoapp.Service) *Promotions {
	return &Promotions{svc: svc}
}

func (p *Promotions) Quote(ctx context.Context, req ports.PromoQuoteRequest) (*ports.PromoQuote, error) {
	quote, err := p.svc.Quote(ctx, promoapp.Request{
		Code:        req.Code,
		UserID:      req.UserID,
		OrderAmount: req.OrderAmount,
		ProductIDs:  req.ProductIDs,
		CategoryIDs: req.CategoryIDs,
		BrandIDs:    req.BrandIDs,
	})
	if err != nil {
		if errors.Is(err, promoapp.ErrNotFound) {
			return nil, ports.ErrPromoNotFound
		}
		return nil, err
	}
	return &ports.PromoQuote{PromoID: quote.PromoID, Code: quote.Code, Discount: quote.Discount}, nil
}

func (p *Promotions) Redeem(ctx context.Context, promoID string) error {
	return p.svc.Redeem(ctx, promoID)
}

func (p *Promotions) Release(ctx context.Context, promoID string) error {
	return p.svc.Release(ctx, promoID)
}
