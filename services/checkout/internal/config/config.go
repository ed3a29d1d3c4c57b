package config

import (
	"fmt"
	"strings"
	"time"

	pkgconfig "github.com/jiaorenyu/stripe-demo/pkg/config"
	"github.com/jiaorenyu/stripe-demo/pkg/httpclient"
	"github.com/jiaorenyu/stripe-demo/pkg/tracing"
	"github.com/jiaorenyu/stripe-demo/pkg/validator"
)

// ServiceName identifies the checkout client in logs, metrics and traces.
const ServiceName = "checkout"

// Config holds all configuration for the checkout form.
type Config struct {
	Environment string `env:"ENVIRONMENT" envDefault:"development"`
	LogLevel    string `env:"LOG_LEVEL" envDefault:"warn"`

	// Intent service
	APIURL string `env:"API_URL" envDefault:"http://localhost:3001" validate:"required,http_url"`

	// Stripe, client side. Only the publishable key is ever used here.
	StripePublishableKey string `env:"STRIPE_PUBLISHABLE_KEY" envDefault:"pk_test_TYooMQauvdEDq54NiTphI7jx" validate:"required,startswith=pk_"`
	StripeAPIBase        string `env:"STRIPE_API_BASE" validate:"omitempty,http_url"`

	// Form
	Language string `env:"LANGUAGE" envDefault:"en"`
	Currency string `env:"CURRENCY" envDefault:"usd" validate:"len=3"`

	// Circuit breaker settings for intent service calls
	CBMaxRequests  uint32  `env:"CB_MAX_REQUESTS" envDefault:"1"`
	CBInterval     int     `env:"CB_INTERVAL_SECONDS" envDefault:"60" validate:"min=0"`
	CBTimeout      int     `env:"CB_TIMEOUT_SECONDS" envDefault:"30" validate:"min=1"`
	CBFailureRatio float64 `env:"CB_FAILURE_RATIO" envDefault:"0.5" validate:"gt=0,lte=1"`
	CBMinRequests  uint32  `env:"CB_MIN_REQUESTS" envDefault:"5"`

	// OpenTelemetry
	Tracing tracing.Config
}

// Load reads configuration from environment variables.
func Load() (*Config, error) {
	cfg := &Config{}
	if err := pkgconfig.Load(cfg); err != nil {
		return nil, fmt.Errorf("load checkout config: %w", err)
	}
	cfg.APIURL = strings.TrimRight(cfg.APIURL, "/")
	cfg.Currency = strings.ToLower(cfg.Currency)
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
		return fmt.Errorf("invalid checkout config: %w", err)
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1.0 {
		return fmt.Errorf("OTEL_SAMPLE_RATE must be between 0.0 and 1.0, got %f", c.Tracing.SampleRate)
	}
	return nil
}

// CircuitBreaker returns the breaker settings for intent service calls.
func (c *Config) CircuitBreaker() httpclient.CircuitBreakerConfig {
	return httpclient.CircuitBreakerConfig{
		Name:         "intent",
		MaxRequests:  c.CBMaxRequests,
		Interval:     time.Duration(c.CBInterval) * time.Second,
		Timeout:      time.Duration(c.CBTimeout) * time.Second,
		FailureRatio: c.CBFailureRatio,
		MinRequests:  c.CBMinRequests,
	}
}
