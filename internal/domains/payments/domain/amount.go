package domain

import (
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount reads a provider amount that may be quoted, blank or padded.
// Unparseable input yields zero, which reconciliation treats as unknown.
func ParseAmount(raw string) decimal.Decimal {
	value := strings.Trim(strings.TrimSpace(raw), `"`)
	if value == "" || value == "null" {
		return decimal.Zero
	}
	amount, err := decimal.NewFromString(strings.ReplaceAll(value, ",", ""))
	if err != nil {
		return decimal.Zero
	}
	return amount
}
