package domain

import (
	"errors"
	"strings"
	"time"
)

var ErrEmptyCustomerID = errors.New("customer id is required")

// Customer is the shopper account promo eligibility is checked against.
type Customer struct {
	ID        string
	Email     string
	Name      string
	CreatedAt time.Time
}

func (c *Customer) Validate() error {
	if strings.TrimSpace(c.ID) == "" {
		return ErrEmptyCustomerID
	}
	return nil
}
