package config

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("CARRIER_STORE", "memory")
	t.Setenv("DATABASE_URL", "")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "8080", cfg.Port)
	require.Equal(t, "EUR", cfg.Rates.Currency)
	require.Equal(t, "AT", cfg.Rates.DefaultCountry)
	require.Equal(t, DefaultCountryCodes, cfg.Rates.CountryCodes)
	require.Equal(t, int64(1000), cfg.Rates.NoCarriersCents)
	require.Equal(t, int64(1500), cfg.Rates.InfeasibleCents)
	require.Equal(t, "all", cfg.Rates.Mode)
	require.Equal(t, 5000, cfg.Rates.MaxCartUnits)
	require.False(t, cfg.IsProduction())
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("CARRIER_STORE", "memory")
	t.Setenv("DEFAULT_COUNTRY", "de")
	t.Setenv("COUNTRY_CODES", "de, at,ch")
	t.Setenv("CURRENCY", "usd")
	t.Setenv("FALLBACK_INFEASIBLE_CENTS", "2500")
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("MAX_CART_UNITS", "250")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "DE", cfg.Rates.DefaultCountry)
	require.Equal(t, []string{"DE", "AT", "CH"}, cfg.Rates.CountryCodes)
	require.Equal(t, "USD", cfg.Rates.Currency)
	require.Equal(t, int64(2500), cfg.Rates.InfeasibleCents)
	require.Equal(t, 250, cfg.Rates.MaxCartUnits)
	require.True(t, cfg.IsProduction())
}

func TestLoadRejectsNonPositiveCartLimit(t *testing.T) {
	t.Setenv("CARRIER_STORE", "memory")
	t.Setenv("MAX_CART_UNITS", "0")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRequiresDatabaseForPostgres(t *testing.T) {
	t.Setenv("CARRIER_STORE", "postgres")
	t.Setenv("DATABASE_URL", "")

	_, err := Load()
	require.Error(t, err)
}

func TestLoadRejectsUnknownStore(t *testing.T) {
	t.Setenv("CARRIER_STORE", "redis")

	_, err := Load()
	require.Error(t, err)
}
