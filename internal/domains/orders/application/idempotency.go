package application

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"log/slog"
	"sort"
	"strings"

	"github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/orders/ports"
	apperrors "github.com/Apurer/go-gin-storefront/internal/shared/errors"
)

type normalizedCheckout struct {
	CustomerID string           `json:"customerId"`
	Items      []normalizedLine `json:"items"`
	Shipping   domain.Shipping  `json:"shipping"`
	Method     string           `json:"method"`
	Tax        string           `json:"tax"`
	Shipment   string           `json:"shippingFee"`
	PromoCode  string           `json:"promoCode"`
	Notes      string           `json:"notes"`
}

type normalizedLine struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

// FingerprintCheckout hashes a checkout request, excluding the idempotency key.
// Line order and promo code case do not change the fingerprint. Amounts are
// compared in cents, the precision NewPricing prices them at.
func FingerprintCheckout(input ports.CreateOrderInput) (string, error) {
	lines := make([]normalizedLine, 0, len(input.Items))
	for _, item := range aggregateInputs(input.Items) {
		lines = append(lines, normalizedLine{ProductID: item.ProductID, Quantity: item.Quantity})
	}
	payload, err := json.Marshal(normalizedCheckout{
		CustomerID: input.CustomerID,
		Items:      lines,
		Shipping:   input.Shipping,
		Method:     string(input.Method),
		Tax:        input.Tax.StringFixed(2),
		Shipment:   input.ShippingFee.StringFixed(2),
		PromoCode:  strings.ToUpper(strings.TrimSpace(input.PromoCode)),
		Notes:      input.Notes,
	})
	if err != nil {
		return "", err
	}
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:]), nil
}

func aggregateInputs(items []ports.ItemInput) []ports.ItemInput {
	totals := map[string]int{}
	for _, item := range items {
		totals[item.ProductID] += item.Quantity
	}
	out := make([]ports.ItemInput, 0, len(totals))
	for id, qty := range totals {
		out = append(out, ports.ItemInput{ProductID: id, Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}

// createOrderIdempotent serializes checkouts sharing a key. A replay returns
// the stored order; a different payload under the same key is a conflict.
func (s *Service) createOrderIdempotent(ctx context.Context, input ports.CreateOrderInput) (*domain.Order, error) {
	key := input.IdempotencyKey
	hash, err := FingerprintCheckout(input)
	if err != nil {
		return nil, err
	}
	unlock, err := s.locker.Lock(ctx, "checkout:"+key)
	if err != nil {
		return nil, apperrors.Wrap(apperrors.KindConflict, "checkout already in progress, retry shortly", err)
	}
	defer unlock()

	existing, err := s.idempotency.Get(ctx, key)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.RequestHash != hash {
			return nil, idempotencyConflict(key)
		}
		s.logger.InfoContext(ctx, "checkout replayed", slog.String("order_id", existing.OrderID))
		return s.GetOrder(ctx, existing.OrderID)
	}

	order, err := s.createOrder(ctx, input)
	if err != nil {
		return nil, err
	}
	if _, err := s.idempotency.Save(ctx, ports.IdempotencyRecord{Key: key, RequestHash: hash, OrderID: order.ID}); err != nil {
		s.logger.WarnContext(ctx, "failed to record idempotency key",
			slog.String("order_id", order.ID),
			slog.String("error", err.Error()),
		)
	}
	return order, nil
}

func idempotencyConflict(key string) error {
	return &apperrors.Error{
		Kind:    apperrors.KindConflict,
		Message: "Idempotency-Key was already used for a different checkout",
		Details: map[string]any{"idempotencyKey": key},
		Err:     ports.ErrIdempotencyConflict,
	}
}
