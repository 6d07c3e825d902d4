package bkash

import (
	"sort"
	"strings"
	"time"

	apperrors "github.com/Apurer/go-gin-storefront/internal/shared/errors"
)

// Config holds the bKash tokenized checkout credentials.
type Config struct {
	BaseURL   string
	AppKey    string
	AppSecret string
	Username  string
	Password  string
	Timeout   time.Duration
}

func (c Config) Validate() error {
	var missing []string
	for key, value := range map[string]string{
		"BKASH_BASE_URL":   c.BaseURL,
		"BKASH_APP_KEY":    c.AppKey,
		"BKASH_APP_SECRET": c.AppSecret,
		"BKASH_USERNAME":   c.Username,
		"BKASH_PASSWORD":   c.Password,
	} {
		if strings.TrimSpace(value) == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) == 0 {
		return nil
	}
	sort.Strings(missing)
	return apperrors.Configuration("bKash gateway is not configured").WithDetails(map[string]any{"missing": missing})
}
