// Package catalog adapts the catalog inventory service to the orders context.
package catalog

import (
	"context"
	"strings"

	catalogapp "github.com/Apurer/go-gin-storefront/internal/domains/catalog/application"
	"github.com/Apurer/go-gin-storefront/internal/domains/orders/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/orders/ports"
)

var _ ports.Inventory = (*Inventory)(nil)

type Inventory struct {
	svc *catalogapp.Inventory
}

func NewInventory(svc *catalogapp.Inventory) *Inventory {
	return &Inventory{svc: svc}
}

// Snapshot pre-checks stock and captures name, price and classification per line.
func (i *Inventory) Snapshot(ctx context.Context, lines []ports.ItemInput) ([]domain.Item, error) {
	products, err := i.svc.Check(ctx, toCatalogLines(lines))
	if err != nil {
		return nil, err
	}
	items := make([]domain.Item, 0, len(lines))
	for _, line := range lines {
		p := products[strings.TrimSpace(line.ProductID)]
		items = append(items, domain.Item{
			ProductID:     p.ID,
			Name:          p.Name,
			SKU:           p.SKU,
			Image:         p.Image,
			CategoryID:    p.CategoryID,
			BrandID:       p.BrandID,
			Price:         p.Price,
			Quantity:      line.Quantity,
			StockReserved: p.TrackInventory,
		})
	}
	return items, nil
}

func (i *Inventory) Reserve(ctx context.Context, lines []ports.ItemInput) ([]ports.ItemInput, error) {
	reserved, err := i.svc.Reserve(ctx, toCatalogLines(lines))
	if err != nil {
		return nil, err
	}
	out := make([]ports.ItemInput, 0, len(reserved))
	for _, line := range reserved {
		out = append(out, ports.ItemInput{ProductID: line.ProductID, Quantity: line.Quantity})
	}
	return out, nil
}

func (i *Inventory) Release(ctx context.Context, lines []ports.ItemInput) error {
	return i.svc.Release(ctx, toCatalogLines(lines))
}

func toCatalogLines(lines []ports.ItemInput) []catalogapp.Line {
	out := make([]catalogapp.Line, 0, len(lines))
	for _, line := range lines {
		out = append(out, catalogapp.Line{ProductID: strings.TrimSpace(line.ProductID), Quantity: line.Quantity})
	}
	return out
}
