// Package config reads the runtime settings from the environment.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

// Config holds every setting of the API and the worker.
type Config struct {
	POSBaseURL string
	POSTimeout time.Duration
	// POSServiceToken authenticates the worker against the backend.
	POSServiceToken string

	IdempotencyTable string
	JournalTable     string
	CheckoutQueueURL string
	MetricsNamespace string
	GuardTTL         time.Duration

	RedisAddr       string
	CatalogCacheTTL time.Duration

	DeliveryCharge  decimal.Decimal
	RequireCustomer bool

	HTTPAddr string
	RunLocal bool
}

// Load reads the environment, applying defaults for unset values.
func Load() (Config, error) {
	cfg := Config{
		POSBaseURL:       getenv("POS_API_BASE_URL", "http://restaurent-pos.test"),
		POSServiceToken:  os.Getenv("POS_API_TOKEN"),
		IdempotencyTable: os.Getenv("IDEMPOTENCY_TABLE"),
		JournalTable:     os.Getenv("JOURNAL_TABLE"),
		CheckoutQueueURL: os.Getenv("CHECKOUT_QUEUE_URL"),
		MetricsNamespace: getenv("METRICS_NAMESPACE", "POS/Checkout"),
		RedisAddr:        os.Getenv("REDIS_ADDR"),
		HTTPAddr:         getenv("HTTP_ADDR", ":8080"),
	}

	var err error
	if cfg.POSTimeout, err = duration("POS_API_TIMEOUT", 10*time.Second); err != nil {
		return Config{}, err
	}
	if cfg.GuardTTL, err = duration("GUARD_TTL", 48*time.Hour); err != nil {
		return Config{}, err
	}
	if cfg.CatalogCacheTTL, err = duration("CATALOG_CACHE_TTL", 5*time.Minute); err != nil {
		return Config{}, err
	}
	if cfg.RunLocal, err = boolean("RUN_LOCAL"); err != nil {
		return Config{}, err
	}
	if cfg.RequireCustomer, err = boolean("REQUIRE_CUSTOMER"); err != nil {
		return Config{}, err
	}

	cfg.DeliveryCharge = decimal.Zero
	if v := os.Getenv("DELIVERY_CHARGE"); v != "" {
		d, err := decimal.NewFromString(v)
		if err != nil {
			return Config{}, fmt.Errorf("DELIVERY_CHARGE: %w", err)
		}
		if d.IsNegative() {
			return Config{}, fmt.Errorf("DELIVERY_CHARGE: must not be negative, got %s", v)
		}
		cfg.DeliveryCharge = d
	}
	return cfg, nil
}

// Validate reports settings the submission gate needs.
func (c Config) Validate() error {
	if c.IdempotencyTable == "" {
		return fmt.Errorf("IDEMPOTENCY_TABLE is required")
	}
	if c.JournalTable == "" {
		return fmt.Errorf("JOURNAL_TABLE is required")
	}
	return nil
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func duration(key string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", key, err)
	}
	return d, nil
}

func boolean(key string) (bool, error) {
	v := os.Getenv(key)
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, fmt.Errorf("%s: %w", key, err)
	}
	return b, nil
}
