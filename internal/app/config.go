package app

import (
	"os"
	"time"

	"github.com/cristalhq/aconfig"
	"github.com/cristalhq/aconfig/aconfigyaml"
	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"

	"github.com/baazardost/billing/internal/billing"
)

// Config holds the complete application configuration, loadable from
// environment variables (BAAZAR_ prefix), flags, or YAML config files.
type Config struct {
	Addr        string `default:"0.0.0.0:8080" usage:"API server listen address"`
	DatabaseURL string `usage:"PostgreSQL connection URL (BAAZAR_DATABASE_URL or DATABASE_URL)" flag:"database-url"`
	Billing     BillingConfig
	RateLimit   RateLimitConfig
	CORS        CORSConfig
	Graceful    GracefulConfig
}

// BillingConfig carries the billing fractions as decimal strings so they
// survive config round-trips without float drift.
type BillingConfig struct {
	TaxRate        string `default:"0.18" usage:"Tax fraction applied to invoice subtotals" flag:"tax-rate"`
	CommissionRate string `default:"0.15" usage:"Commission fraction applied to supplier sales" flag:"commission-rate"`
}

// Rates parses and validates the configured billing fractions.
func (c BillingConfig) Rates() (billing.Rates, error) {
	tax, err := decimal.NewFromString(c.TaxRate)
	if err != nil {
		return billing.Rates{}, errors.Wrap(err, "parse tax rate")
	}
	commission, err := decimal.NewFromString(c.CommissionRate)
	if err != nil {
		return billing.Rates{}, errors.Wrap(err, "parse commission rate")
	}

	one := decimal.NewFromInt(1)
	if tax.IsNegative() || !tax.LessThan(one) {
		return billing.Rates{}, errors.Errorf("tax rate %s must be in [0, 1)", tax)
	}
	if commission.IsNegative() || !commission.LessThan(one) {
		return billing.Rates{}, errors.Errorf("commission rate %s must be in [0, 1)", commission)
	}

	return billing.Rates{Tax: tax, Commission: commission}, nil
}

// RateLimitConfig controls the per-client sliding window rate limiter.
type RateLimitConfig struct {
	Max    int           `default:"100" usage:"Max requests per window"`
	Window time.Duration `default:"1m"  usage:"Rate limit window duration"`
}

// CORSConfig controls Cross-Origin Resource Sharing headers.
type CORSConfig struct {
	Origins          []string `default:"*" usage:"Allowed CORS origins"`
	AllowCredentials bool     `default:"false" usage:"Allow credentials (cookies, auth headers)" flag:"cors-credentials"`
}

// GracefulConfig controls graceful shutdown timing.
type GracefulConfig struct {
	ReadinessDelay  time.Duration `default:"3s"  usage:"Delay after readiness=false before shutdown" flag:"readiness-delay"`
	ShutdownTimeout time.Duration `default:"15s" usage:"Maximum shutdown duration" flag:"shutdown-timeout"`
}

// LoadConfig loads configuration from environment variables, YAML config
// files, and applies platform-specific defaults.
func LoadConfig() (*Config, error) {
	var cfg Config
	loader := aconfig.LoaderFor(&cfg, aconfig.Config{
		EnvPrefix: "BAAZAR",
		Files:     []string{"config.yaml", "/etc/baazardost/config.yaml"},
		FileDecoders: map[string]aconfig.FileDecoder{
			".yaml": aconfigyaml.New(),
		},
	})
	if err := loader.Load(); err != nil {
		return nil, errors.Wrap(err, "load config")
	}
	cfg.applyPlatformDefaults()

	if cfg.DatabaseURL == "" {
		return nil, errors.New("database URL is required: set BAAZAR_DATABASE_URL or DATABASE_URL")
	}

	return &cfg, nil
}

// applyPlatformDefaults maps platform-provided environment variables that
// use standard names like DATABASE_URL and PORT to the application's
// BAAZAR_-prefixed configuration.
func (c *Config) applyPlatformDefaults() {
	if c.DatabaseURL == "" {
		if v := os.Getenv("DATABASE_URL"); v != "" {
			c.DatabaseURL = v
		}
	}
	if port := os.Getenv("PORT"); port != "" && c.Addr == "0.0.0.0:8080" {
		c.Addr = "0.0.0.0:" + port
	}
}
