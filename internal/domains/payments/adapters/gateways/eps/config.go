package eps

import (
	"strings"
	"time"

	apperrors "github.com/Apurer/go-gin-storefront/internal/shared/errors"
)

// Config holds the EPS merchant credentials. It is built once at startup.
type Config struct {
	BaseURL    string
	Username   string
	Password   string
	HashKey    string
	MerchantID string
	StoreID    string
	Timeout    time.Duration
}

// Validate fails when any credential is missing.
func (c Config) Validate() error {
	var missing []string
	for key, value := range map[string]string{
		"EPS_BASE_URL":    c.BaseURL,
		"EPS_USERNAME":    c.Username,
		"EPS_PASSWORD":    c.Password,
		"EPS_HASH_KEY":    c.HashKey,
		"EPS_MERCHANT_ID": c.MerchantID,
		"EPS_STORE_ID":    c.StoreID,
	} {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return apperrors.Configuration("EPS gateway is not configured").WithDetails(map[string]any{"missing": sortStrings(missing)})
	}
	return nil
}
