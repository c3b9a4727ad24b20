package app

import (
	"testing"
	"time"

	"github.com/yungbote/coursemarket-backend/internal/clients/redis"
	"github.com/yungbote/coursemarket-backend/internal/platform/logger"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "CURRENCY", "CURRENCY_MINOR_UNITS", "WEBHOOK_TIMEOUT_SECONDS", "CORS_ALLOWED_ORIGINS", "OTEL_ENABLED"} {
		t.Setenv(k, "")
	}
	cfg, err := LoadConfig(logger.Nop())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("port: got %q", cfg.Port)
	}
	if cfg.Checkout.Currency != "IDR" || cfg.Checkout.MinorUnits != 0 {
		t.Fatalf("checkout defaults: %+v", cfg.Checkout)
	}
	if cfg.WebhookTimeout != 10*time.Second {
		t.Fatalf("webhook timeout: got %s", cfg.WebhookTimeout)
	}
	if cfg.CORSOrigins != nil || cfg.TracingEnabled {
		t.Fatalf("unexpected defaults: %+v", cfg)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("CURRENCY", "usd")
	t.Setenv("CURRENCY_MINOR_UNITS", "0")
	t.Setenv("WEBHOOK_TIMEOUT_SECONDS", "3")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example.com, ,https://b.example.com ")
	t.Setenv("AUTH_JWT_SECRET", "s3cret")

	cfg, err := LoadConfig(logger.Nop())
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if cfg.Port != "9090" || cfg.Checkout.Currency != "USD" || cfg.Checkout.MinorUnits != 0 {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.WebhookTimeout != 3*time.Second {
		t.Fatalf("webhook timeout: got %s", cfg.WebhookTimeout)
	}
	if len(cfg.CORSOrigins) != 2 || cfg.CORSOrigins[1] != "https://b.example.com" {
		t.Fatalf("cors origins: %#v", cfg.CORSOrigins)
	}
	if cfg.Auth.HMACSecret != "s3cret" {
		t.Fatal("auth secret not loaded")
	}
}

func TestLoadConfigRejectsUnchargeableMinorUnits(t *testing.T) {
	for _, mu := range []string{"2", "4", "-1"} {
		t.Setenv("CURRENCY_MINOR_UNITS", mu)
		if _, err := LoadConfig(logger.Nop()); err == nil {
			t.Fatalf("CURRENCY_MINOR_UNITS=%s should be refused", mu)
		}
	}
}

func TestClientsRedisIsNilForMemoryGuard(t *testing.T) {
	c := Clients{Replay: redis.NewMemoryReplayGuard(time.Minute)}
	if c.Redis() != nil {
		t.Fatal("memory guard should not expose a redis connection")
	}
	var nilClients *Clients
	if nilClients.Redis() != nil {
		t.Fatal("nil clients should report no redis")
	}
}
