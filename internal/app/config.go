package app

import (
	"fmt"
	"strings"
	"time"

	"github.com/yungbote/coursemarket-backend/internal/clients/identity"
	"github.com/yungbote/coursemarket-backend/internal/clients/midtrans"
	"github.com/yungbote/coursemarket-backend/internal/data/db"
	types "github.com/yungbote/coursemarket-backend/internal/domain"
	"github.com/yungbote/coursemarket-backend/internal/observability"
	"github.com/yungbote/coursemarket-backend/internal/platform/envutil"
	"github.com/yungbote/coursemarket-backend/internal/platform/logger"
	"github.com/yungbote/coursemarket-backend/internal/platform/sendgrid"
	"github.com/yungbote/coursemarket-backend/internal/services"
)

type Config struct {
	Port        string
	LogMode     string
	Environment string
	CORSOrigins []string

	Postgres db.PostgresConfig
	Auth     services.AuthConfig
	Checkout services.CheckoutConfig

	IdentityWebhookSecret string
	Identity              identity.Config
	Midtrans              midtrans.Config
	SendGrid              sendgrid.Config

	MetricsEnabled bool
	MetricsAddr    string
	TracingEnabled bool
	Otel           observability.OtelConfig

	WebhookTimeout  time.Duration
	ShutdownTimeout time.Duration
}

// LoadConfig reads the environment. It fails when the configured currency
// precision cannot be charged through the payment processor or stored.
func LoadConfig(log *logger.Logger) (Config, error) {
	cfg := Config{
		Port:        envutil.String("PORT", "8080"),
		LogMode:     envutil.String("LOG_MODE", "development"),
		Environment: envutil.String("APP_ENV", "development"),
		CORSOrigins: splitList(envutil.String("CORS_ALLOWED_ORIGINS", "")),

		Postgres: db.PostgresConfigFromEnv(),
		Auth: services.AuthConfig{
			HMACSecret:   envutil.String("AUTH_JWT_SECRET", ""),
			PublicKeyPEM: envutil.String("AUTH_JWT_PUBLIC_KEY", ""),
			Issuer:       envutil.String("AUTH_JWT_ISSUER", ""),
			Leeway:       envutil.Seconds("AUTH_JWT_LEEWAY_SECONDS", 30*time.Second),
		},
		Checkout: services.CheckoutConfig{
			Currency:   strings.ToUpper(envutil.String("CURRENCY", "IDR")),
			MinorUnits: int32(envutil.Int("CURRENCY_MINOR_UNITS", int(midtrans.MinorUnits))),
			FinishURL:  envutil.String("CHECKOUT_FINISH_URL", ""),
			SessionTTL: envutil.Seconds("CHECKOUT_SESSION_TTL_SECONDS", 23*time.Hour),
		},

		IdentityWebhookSecret: envutil.String("IDENTITY_WEBHOOK_SECRET", ""),
		Identity:              identity.ConfigFromEnv(),
		Midtrans:              midtrans.ConfigFromEnv(),
		SendGrid:              sendgrid.ConfigFromEnv(),

		MetricsEnabled: envutil.Bool("METRICS_ENABLED", false),
		MetricsAddr:    envutil.String("METRICS_ADDR", ""),
		TracingEnabled: envutil.Bool("OTEL_ENABLED", false),
		Otel:           observability.OtelConfigFromEnv(),

		WebhookTimeout:  envutil.Seconds("WEBHOOK_TIMEOUT_SECONDS", 10*time.Second),
		ShutdownTimeout: envutil.Seconds("SHUTDOWN_TIMEOUT_SECONDS", 15*time.Second),
	}
	if cfg.Checkout.FinishURL == "" {
		log.Warn("CHECKOUT_FINISH_URL not set; buyers land on the processor's default page")
	}
	if cfg.Auth.HMACSecret == "" && cfg.Auth.PublicKeyPEM == "" {
		log.Warn("neither AUTH_JWT_SECRET nor AUTH_JWT_PUBLIC_KEY is set")
	}
	if mu := cfg.Checkout.MinorUnits; mu < 0 || mu > midtrans.MinorUnits || mu > types.AmountScale {
		return cfg, fmt.Errorf("CURRENCY_MINOR_UNITS=%d unsupported: payment processor charges %d decimal places", mu, midtrans.MinorUnits)
	}
	return cfg, nil
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
