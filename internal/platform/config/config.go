package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config is centralized process configuration.
// Keep infra values here and pass typed config into builders.
type Config struct {
	ServiceName string
	HTTPPort    string
	PostgresDSN string

	StripeSecretKey     string
	StripeWebhookSecret string
	GatewayTimeout      time.Duration

	MembershipPeriodDays int
	TeamTierPriceCents   int64
	InvoiceDueDays       int
	WorkerPollInterval   time.Duration
}

func Load() (Config, error) {
	// Local development keeps secrets in .env; absence is not an error.
	_ = godotenv.Load()

	service := os.Getenv("SERVICE_NAME")
	if service == "" {
		service = "memberhub"
	}

	port := os.Getenv("HTTP_PORT")
	if port == "" {
		port = "8080"
	}

	return Config{
		ServiceName: service,
		HTTPPort:    port,
		PostgresDSN: os.Getenv("POSTGRES_DSN"),

		StripeSecretKey:     os.Getenv("STRIPE_SECRET_KEY"),
		StripeWebhookSecret: os.Getenv("STRIPE_WEBHOOK_SECRET"),
		GatewayTimeout:      envDuration("GATEWAY_TIMEOUT", 15*time.Second),

		MembershipPeriodDays: envInt("MEMBERSHIP_PERIOD_DAYS", 365),
		TeamTierPriceCents:   envInt64("TEAM_TIER_PRICE_CENTS", 5000),
		InvoiceDueDays:       envInt("INVOICE_DUE_DAYS", 30),
		WorkerPollInterval:   envDuration("WORKER_POLL_INTERVAL", 2*time.Second),
	}, nil
}

func envInt(name string, fallback int) int {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func envInt64(name string, fallback int64) int64 {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func envDuration(name string, fallback time.Duration) time.Duration {
	raw := strings.TrimSpace(os.Getenv(name))
	if raw == "" {
		return fallback
	}
	value, err := time.ParseDuration(raw)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}
