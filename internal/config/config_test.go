package config

import (
	"testing"
	"time"
)

func clearEnv(t *testing.T) {
	for _, k := range []string{
		"POS_API_BASE_URL", "POS_API_TIMEOUT", "POS_API_TOKEN", "IDEMPOTENCY_TABLE", "JOURNAL_TABLE",
		"CHECKOUT_QUEUE_URL", "METRICS_NAMESPACE", "REDIS_ADDR", "CATALOG_CACHE_TTL",
		"DELIVERY_CHARGE", "GUARD_TTL", "HTTP_ADDR", "RUN_LOCAL", "REQUIRE_CUSTOMER",
	} {
		t.Setenv(k, "")
	}
}

func TestLoad_Defaults(t *testing.T) {
	clearEnv(t)
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.POSBaseURL != "http://restaurent-pos.test" || cfg.POSTimeout != 10*time.Second {
		t.Fatalf("unexpected backend defaults %+v", cfg)
	}
	if cfg.GuardTTL != 48*time.Hour || cfg.CatalogCacheTTL != 5*time.Minute {
		t.Fatalf("unexpected ttl defaults %+v", cfg)
	}
	if cfg.MetricsNamespace != "POS/Checkout" || cfg.HTTPAddr != ":8080" || cfg.RunLocal {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if !cfg.DeliveryCharge.IsZero() {
		t.Fatalf("expected zero delivery charge, got %s", cfg.DeliveryCharge)
	}
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected Validate to require tables")
	}
}

func TestLoad_Overrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("POS_API_TIMEOUT", "3s")
	t.Setenv("DELIVERY_CHARGE", "50.00")
	t.Setenv("RUN_LOCAL", "true")
	t.Setenv("IDEMPOTENCY_TABLE", "guard")
	t.Setenv("JOURNAL_TABLE", "journal")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load error: %v", err)
	}
	if cfg.POSTimeout != 3*time.Second || !cfg.RunLocal || cfg.DeliveryCharge.String() != "50" {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Validate error: %v", err)
	}
}

func TestLoad_Invalid(t *testing.T) {
	cases := map[string]string{
		"POS_API_TIMEOUT": "soon",
		"DELIVERY_CHARGE": "-5",
		"RUN_LOCAL":       "maybe",
	}
	for key, val := range cases {
		clearEnv(t)
		t.Setenv(key, val)
		if _, err := Load(); err == nil {
			t.Fatalf("expected error for %s=%s", key, val)
		}
	}
}
