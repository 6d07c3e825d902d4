package api

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"go.temporal.io/sdk/client"

	"github.com/Apurer/go-gin-storefront/internal/domains/payments/adapters/gateways/bkash"
	"github.com/Apurer/go-gin-storefront/internal/domains/payments/adapters/gateways/eps"
	"github.com/Apurer/go-gin-storefront/internal/domains/payments/adapters/gateways/sslcommerz"
)

const (
	defaultGatewayTimeout = 30 * time.Second
	defaultExchange       = "storefront.events"
)

// Config carries environment-driven settings for the API process.
type Config struct {
	Port              string
	PostgresDSN       string
	RedisAddr         string
	RabbitMQURL       string
	RabbitMQExchange  string
	TemporalAddress   string
	TemporalNamespace string
	TemporalDisabled  bool
	FrontendURL       string
	PublicBaseURL     string
	GatewayTimeout    time.Duration

	EPS        eps.Config
	Bkash      bkash.Config
	SSLCommerz sslcommerz.Config
}

// LoadConfig reads environment variables, applies defaults, and validates basic constraints.
// Gateway credentials are not required here; each gateway validates its own
// config when it is first used.
func LoadConfig() (Config, error) {
	cfg := Config{
		Port:              envDefault("PORT", "8080"),
		PostgresDSN:       strings.TrimSpace(os.Getenv("POSTGRES_DSN")),
		RedisAddr:         strings.TrimSpace(os.Getenv("REDIS_ADDR")),
		RabbitMQURL:       strings.TrimSpace(os.Getenv("RABBITMQ_URL")),
		RabbitMQExchange:  envDefault("RABBITMQ_EXCHANGE", defaultExchange),
		TemporalAddress:   envDefault("TEMPORAL_ADDRESS", client.DefaultHostPort),
		TemporalNamespace: envDefault("TEMPORAL_NAMESPACE", client.DefaultNamespace),
		TemporalDisabled:  isTruthy(os.Getenv("TEMPORAL_DISABLED")),
		FrontendURL:       envDefault("FRONTEND_URL", "http://localhost:3000"),
		PublicBaseURL:     envDefault("PUBLIC_BASE_URL", "http://localhost:8080"),
		GatewayTimeout:    defaultGatewayTimeout,
	}
	if raw := strings.TrimSpace(os.Getenv("GATEWAY_TIMEOUT_SECONDS")); raw != "" {
		seconds, err := strconv.Atoi(raw)
		if err != nil || seconds <= 0 {
			return Config{}, fmt.Errorf("GATEWAY_TIMEOUT_SECONDS must be a positive integer")
		}
		cfg.GatewayTimeout = time.Duration(seconds) * time.Second
	}
	cfg.EPS = eps.Config{
		BaseURL:    strings.TrimSpace(os.Getenv("EPS_BASE_URL")),
		Username:   strings.TrimSpace(os.Getenv("EPS_USERNAME")),
		Password:   os.Getenv("EPS_PASSWORD"),
		HashKey:    os.Getenv("EPS_HASH_KEY"),
		MerchantID: strings.TrimSpace(os.Getenv("EPS_MERCHANT_ID")),
		StoreID:    strings.TrimSpace(os.Getenv("EPS_STORE_ID")),
		Timeout:    cfg.GatewayTimeout,
	}
	cfg.Bkash = bkash.Config{
		BaseURL:   strings.TrimSpace(os.Getenv("BKASH_BASE_URL")),
		AppKey:    strings.TrimSpace(os.Getenv("BKASH_APP_KEY")),
		AppSecret: os.Getenv("BKASH_APP_SECRET"),
		Username:  strings.TrimSpace(os.Getenv("BKASH_USERNAME")),
		Password:  os.Getenv("BKASH_PASSWORD"),
		Timeout:   cfg.GatewayTimeout,
	}
	cfg.SSLCommerz = sslcommerz.Config{
		BaseURL:       strings.TrimSpace(os.Getenv("SSLCOMMERZ_BASE_URL")),
		StoreID:       strings.TrimSpace(os.Getenv("SSLCOMMERZ_STORE_ID")),
		StorePassword: os.Getenv("SSLCOMMERZ_STORE_PASSWORD"),
		Timeout:       cfg.GatewayTimeout,
	}
	return cfg, nil
}

func envDefault(key, fallback string) string {
	if val := strings.TrimSpace(os.Getenv(key)); val != "" {
		return val
	}
	return fallback
}

func isTruthy(value string) bool {
	value = strings.TrimSpace(strings.ToLower(value))
	return value == "1" || value == "true" || value == "yes"
}
