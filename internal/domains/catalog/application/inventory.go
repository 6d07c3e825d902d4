package application

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Apurer/go-gin-storefront/internal/domains/catalog/domain"
	"github.com/Apurer/go-gin-storefront/internal/domains/catalog/ports"
)

// Line is a requested product quantity.
type Line struct {
	ProductID string
	Quantity  int
}

// Inventory checks and reserves stock for order lines.
type Inventory struct {
	repo   ports.Repository
	logger *slog.Logger
}

// NewInventory wires the inventory service.
func NewInventory(repo ports.Repository, logger *slog.Logger) *Inventory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Inventory{repo: repo, logger: logger}
}

// Check is the read-only pre-check pass: it loads every product and verifies the
// aggregated requested quantity against stock. Nothing is mutated.
func (s *Inventory) Check(ctx context.Context, lines []Line) (map[string]*domain.Product, error) {
	if len(lines) == 0 {
		return nil, mapError(errNoLines)
	}
	totals, order, err := aggregate(lines)
	if err != nil {
		return nil, mapError(err)
	}
	products := make(map[string]*domain.Product, len(totals))
	for _, id := range order {
		product, err := s.repo.GetByID(ctx, id)
		if err != nil {
			if errors.Is(err, ports.ErrNotFound) {
				return nil, mapError(fmt.Errorf("%w: %s", ports.ErrNotFound, id))
			}
			return nil, err
		}
		if err := product.CanFulfil(totals[id]); err != nil {
			return nil, mapError(err)
		}
		products[id] = product
	}
	return products, nil
}

// Reserve runs the pre-check and then the mutating pass. Each decrement is an
// atomic decrement-if-sufficient; if a concurrent checkout wins a race midway,
// the decrements already applied are released before returning the error.
// It returns the lines that were actually decremented (tracked products only).
func (s *Inventory) Reserve(ctx context.Context, lines []Line) ([]Line, error) {
	products, err := s.Check(ctx, lines)
	if err != nil {
		return nil, err
	}
	totals, order, _ := aggregate(lines)
	reserved := make([]Line, 0, len(order))
	for _, id := range order {
		if !products[id].TrackInventory {
			continue
		}
		if err := s.repo.DecrementStock(ctx, id, totals[id]); err != nil {
			if releaseErr := s.Release(ctx, reserved); releaseErr != nil {
				s.logger.ErrorContext(ctx, "failed to roll back partial stock reservation", slog.String("error", releaseErr.Error()))
			}
			return nil, mapError(err)
		}
		reserved = append(reserved, Line{ProductID: id, Quantity: totals[id]})
	}
	return reserved, nil
}

// Release returns reserved quantities to stock. It attempts every line and
// reports the joined errors.
func (s *Inventory) Release(ctx context.Context, lines []Line) error {
	var errs []error
	for _, line := range lines {
		if err := s.repo.IncrementStock(ctx, line.ProductID, line.Quantity); err != nil {
			errs = append(errs, fmt.Errorf("release %s: %w", line.ProductID, err))
		}
	}
	return errors.Join(errs...)
}

// aggregate sums quantities per product, preserving first-seen order.
func aggregate(lines []Line) (map[string]int, []string, error) {
	totals := make(map[string]int, len(lines))
	order := make([]string, 0, len(lines))
	for _, line := range lines {
		id := strings.TrimSpace(line.ProductID)
		if id == "" {
			return nil, nil, domain.ErrEmptyProductID
		}
		if line.Quantity <= 0 {
			return nil, nil, domain.ErrInvalidQuantity
		}
		if _, seen := totals[id]; !seen {
			order = append(order, id)
		}
		totals[id] += line.Quantity
	}
	return totals, order, nil
}
