package domain

import (
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var (
	ErrEmptyProductID  = errors.New("product id is required")
	ErrEmptyName       = errors.New("product name is required")
	ErrNegativePrice   = errors.New("product price must not be negative")
	ErrNegativeStock   = errors.New("product stock must not be negative")
	ErrInvalidQuantity = errors.New("quantity must be greater than zero")
)

// InsufficientStockError reports a tracked product that cannot cover a requested quantity.
type InsufficientStockError struct {
	ProductID   string
	ProductName string
	Available   int
	Requested   int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("insufficient stock for %s: available %d, requested %d", e.ProductName, e.Available, e.Requested)
}

// Product is the catalog entry consulted and mutated at checkout.
type Product struct {
	ID             string
	Name           string
	SKU            string
	Price          decimal.Decimal
	Image          string
	CategoryID     string
	BrandID        string
	Stock          int
	SoldCount      int
	TrackInventory bool
}

// NewProduct validates the invariants and builds a Product.
func NewProduct(id, name string, price decimal.Decimal, stock int, trackInventory bool) (*Product, error) {
	p := &Product{
		ID:             strings.TrimSpace(id),
		Name:           strings.TrimSpace(name),
		Price:          price,
		Stock:          stock,
		TrackInventory: trackInventory,
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// Validate enforces product invariants.
func (p *Product) Validate() error {
	if p.ID == "" {
		return ErrEmptyProductID
	}
	if p.Name == "" {
		return ErrEmptyName
	}
	if p.Price.IsNegative() {
		return ErrNegativePrice
	}
	if p.Stock < 0 {
		return ErrNegativeStock
	}
	return nil
}

// CanFulfil checks availability without mutating. Untracked products are unlimited.
func (p *Product) CanFulfil(quantity int) error {
	if quantity <= 0 {
		return ErrInvalidQuantity
	}
	if !p.TrackInventory {
		return nil
	}
	if p.Stock < quantity {
		return &InsufficientStockError{ProductID: p.ID, ProductName: p.Name, Available: p.Stock, Requested: quantity}
	}
	return nil
}

// Reserve decrements stock and increments the sold count for tracked products.
func (p *Product) Reserve(quantity int) error {
	if err := p.CanFulfil(quantity); err != nil {
		return err
	}
	if !p.TrackInventory {
		return nil
	}
	p.Stock -= quantity
	p.SoldCount += quantity
	return nil
}

// Release returns previously reserved quantity to stock.
func (p *Product) Release(quantity int) {
	if quantity <= 0 || !p.TrackInventory {
		return
	}
	p.Stock += quantity
	p.SoldCount -= quantity
	if p.SoldCount < 0 {
		p.SoldCount = 0
	}
}
