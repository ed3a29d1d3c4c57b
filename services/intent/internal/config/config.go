package config

import (
	"errors"
	"fmt"
	"net"
	"os"
	"strings"

	pkgconfig "github.com/jiaorenyu/stripe-demo/pkg/config"
	"github.com/jiaorenyu/stripe-demo/pkg/tracing"
	"github.com/jiaorenyu/stripe-demo/pkg/validator"
)

// ServiceName identifies the intent service in logs, metrics and traces.
const ServiceName = "intent"

// EnvSecretKey names the variable holding the Stripe secret key.
const EnvSecretKey = "STRIPE_SECRET_KEY"

// ErrMissingSecretKey is returned by Load when no secret key is configured.
var ErrMissingSecretKey = errors.New(EnvSecretKey + " is not set")

// Key modes reported at startup.
const (
	KeyModeLive = "LIVE"
	KeyModeTest = "TEST"
)

// Config holds all configuration for the intent service.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"info"`

	// HTTP server
	HTTPPort  int    `env:"PORT" envDefault:"3001" validate:"min=1,max=65535"`
	ClientURL string `env:"CLIENT_URL" validate:"omitempty,http_url"`

	// Payment provider
	StripeSecretKey string `env:"STRIPE_SECRET_KEY,required,notEmpty"`
	StripeAPIBase   string `env:"STRIPE_API_BASE" validate:"omitempty,http_url"`
	PaymentProvider string `env:"PAYMENT_PROVIDER" envDefault:"stripe" validate:"oneof=stripe mock"`

	// Per-IP limit on intent creation. RPS <= 0 disables it.
	RateLimitRPS   float64 `env:"RATE_LIMIT_RPS" envDefault:"10"`
	RateLimitBurst int     `env:"RATE_LIMIT_BURST" envDefault:"20" validate:"min=1"`

	// OpenTelemetry
	Tracing tracing.Config

	// Pprof debug endpoints (IP allowlist in CIDR notation)
	PprofEnabled      bool     `env:"PPROF_ENABLED" envDefault:"false"`
	PprofAllowedCIDRs []string `env:"PPROF_ALLOWED_CIDRS" envDefault:"127.0.0.0/8,::1/128" envSeparator:","`
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	if strings.TrimSpace(os.Getenv(EnvSecretKey)) == "" {
		return nil, ErrMissingSecretKey
	}

	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load intent config: %w", err)
	}
	cfg.Tracing.ServiceName = ServiceName
	cfg.Tracing.Environment = cfg.Environment
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// validate checks configuration invariants.
func (c *Config) validate() error {
	if err := validator.Validate(c); err != nil {
		return fmt.Errorf("invalid intent config: %w", err)
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.Tracing.SampleRate)
	}
	if c.PprofEnabled {
		for _, cidr := range c.PprofAllowedCIDRs {
			if _, _, err := net.ParseCIDR(strings.TrimSpace(cidr)); err != nil {
				return fmt.Errorf("invalid PPROF_ALLOWED_CIDRS entry %q: %w", cidr, err)
			}
		}
	}
	return nil
}

// KeyMode reports whether the configured secret key is a live or test key.
func (c *Config) KeyMode() string {
	if strings.HasPrefix(c.StripeSecretKey, "sk_live_") || strings.HasPrefix(c.StripeSecretKey, "rk_live_") {
		return KeyModeLive
	}
	return KeyModeTest
}

// Addr returns the listen address for the HTTP server.
func (c *Config) Addr() string {
	return fmt.Sprintf(":%d", c.HTTPPort)
}
