package sslcommerz

import (
	"sort"
	"strings"
	"time"

	apperrors "github.com/Apurer/go-gin-storefront/internal/shared/errors"
)

// Config holds the SSLCommerz store credentials.
type Config struct {
	BaseURL       string
	StoreID       string
	StorePassword string
	Timeout       time.Duration
}

func (c Config) Validate() error {
	var missing []string
	for key, value := range map[string]string{
		"SSLCOMMERZ_BASE_URL":       c.BaseURL,
		"SSLCOMMERZ_STORE_ID":       c.StoreID,
		"SSLCOMMERZ_STORE_PASSWORD": c.StorePassword,
	} {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return apperrors.Configuration("SSLCommerz gateway is not configured").WithDetails(map[string]any{"missing": missing})
}
