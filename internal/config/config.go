package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/viper"
)

// DefaultCountryCodes are the destination codes with carrier configuration.
// Anything else is priced as DefaultCountry.
var DefaultCountryCodes = []string{
	"AT", "DE", "BE", "BG", "CZ", "DK", "EE", "ES", "FI", "FR", "GB", "GR", "HR",
	"HU", "IE", "IT", "LT", "LU", "LV", "NL", "PL", "PT", "RO", "SE", "SI", "SK",
}

type Config struct {
	Port        string
	Environment string
	LogLevel    string
	Version     string

	DatabaseURL  string
	CarrierStore string // "postgres" or "memory"

	Rates RatesConfig

	// ShopifyAPISecret verifies X-Shopify-Hmac-Sha256 on rate callbacks when set
	ShopifyAPISecret string
}

type RatesConfig struct {
	Currency       string
	DefaultCountry string
	CountryCodes   []string
	Mode           string // "all" or "best"
	SplitStrategy  string // "per_carrier" or "shared"

	NoCarriersCents int64
	InfeasibleCents int64
	ErrorCents      int64

	// MaxCartUnits caps the units priced per request
	MaxCartUnits int
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("env")
	v.SetConfigName(".env")
	v.AddConfigPath(".")
	v.AddConfigPath("..")

	v.SetDefault("PORT", "8080")
	v.SetDefault("ENVIRONMENT", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("APP_VERSION", "1.0.0")
	v.SetDefault("CARRIER_STORE", "postgres")
	v.SetDefault("CURRENCY", "EUR")
	v.SetDefault("DEFAULT_COUNTRY", "AT")
	v.SetDefault("COUNTRY_CODES", strings.Join(DefaultCountryCodes, ","))
	v.SetDefault("RATE_MODE", "all")
	v.SetDefault("SPLIT_STRATEGY", "per_carrier")
	v.SetDefault("FALLBACK_NO_CARRIERS_CENTS", 1000)
	v.SetDefault("FALLBACK_INFEASIBLE_CENTS", 1500)
	v.SetDefault("FALLBACK_ERROR_CENTS", 1000)
	v.SetDefault("MAX_CART_UNITS", 5000)

	v.AutomaticEnv()

	// .env is optional, environment variables win anyway
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{
		Port:             strings.TrimSpace(v.GetString("PORT")),
		Environment:      strings.TrimSpace(v.GetString("ENVIRONMENT")),
		LogLevel:         strings.TrimSpace(v.GetString("LOG_LEVEL")),
		Version:          strings.TrimSpace(v.GetString("APP_VERSION")),
		DatabaseURL:      strings.TrimSpace(v.GetString("DATABASE_URL")),
		CarrierStore:     strings.ToLower(strings.TrimSpace(v.GetString("CARRIER_STORE"))),
		ShopifyAPISecret: strings.TrimSpace(v.GetString("SHOPIFY_API_SECRET")),
		Rates: RatesConfig{
			Currency:        strings.ToUpper(strings.TrimSpace(v.GetString("CURRENCY"))),
			DefaultCountry:  strings.ToUpper(strings.TrimSpace(v.GetString("DEFAULT_COUNTRY"))),
			CountryCodes:    splitCodes(v.GetString("COUNTRY_CODES")),
			Mode:            strings.TrimSpace(v.GetString("RATE_MODE")),
			SplitStrategy:   strings.TrimSpace(v.GetString("SPLIT_STRATEGY")),
			NoCarriersCents: v.GetInt64("FALLBACK_NO_CARRIERS_CENTS"),
			InfeasibleCents: v.GetInt64("FALLBACK_INFEASIBLE_CENTS"),
			ErrorCents:      v.GetInt64("FALLBACK_ERROR_CENTS"),
			MaxCartUnits:    v.GetInt("MAX_CART_UNITS"),
		},
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) validate() error {
	switch c.CarrierStore {
	case "postgres":
		if c.DatabaseURL == "" {
			return fmt.Errorf("DATABASE_URL is required when CARRIER_STORE=postgres")
		}
	case "memory":
	default:
		return fmt.Errorf("CARRIER_STORE must be postgres or memory, got %q", c.CarrierStore)
	}
	if len(c.Rates.DefaultCountry) != 2 {
		return fmt.Errorf("DEFAULT_COUNTRY must be a two letter code, got %q", c.Rates.DefaultCountry)
	}
	if c.Rates.Currency == "" {
		return fmt.Errorf("CURRENCY is required")
	}
	if c.Rates.NoCarriersCents < 0 || c.Rates.InfeasibleCents < 0 || c.Rates.ErrorCents < 0 {
		return fmt.Errorf("fallback prices must not be negative")
	}
	if c.Rates.MaxCartUnits <= 0 {
		return fmt.Errorf("MAX_CART_UNITS must be positive, got %d", c.Rates.MaxCartUnits)
	}
	return nil
}

// IsProduction reports whether the service runs with production defaults.
func (c *Config) IsProduction() bool {
	return strings.EqualFold(c.Environment, "production")
}

func splitCodes(raw string) []string {
	var codes []string
	for _, part := range strings.FieldsFunc(raw, func(r rune) bool { return r == ',' || r == ' ' }) {
		codes = append(codes, strings.ToUpper(part))
	}
	return codes
}
