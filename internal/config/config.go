package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/pebble-dev/rebble-weather/internal/weather"
)

type AppConfig struct {
	// Auth service used to verify access tokens.
	AuthURL string `validate:"required,url"`

	// Weather provider.
	WeatherAPIRoot string         `validate:"required,url"`
	WeatherAPIKey  string         `validate:"required"`
	ProviderSchema weather.Schema `validate:"oneof=v1 v2 v3"`
	ForecastDays   int            `validate:"oneof=7 15"`

	// Optional observability sink; empty key disables it.
	HoneycombKey           string
	HoneycombDataset       string        `validate:"required"`
	HoneycombAPIRoot       string        `validate:"required,url"`
	TelemetryFlushInterval time.Duration `validate:"gte=0"`
	TelemetryMaxEvents     int           `validate:"gte=0"`

	// HTTPTimeout applies to outbound calls; 0 leaves them unbounded.
	HTTPTimeout time.Duration `validate:"gte=0"`

	Port string `validate:"required,numeric"`
}

var validate = validator.New()

// Load reads configuration from environment with sensible defaults.
func Load() (*AppConfig, error) {
	cfg := &AppConfig{}

	cfg.AuthURL = os.Getenv("REBBLE_AUTH_URL_INT")
	cfg.WeatherAPIRoot = getenvDefault("IBM_API_ROOT", "https://api.weather.com")
	cfg.WeatherAPIKey = os.Getenv("IBM_API_KEY")

	schema, err := weather.ParseSchema(getenvDefault("PROVIDER_SCHEMA", string(weather.SchemaV3)))
	if err != nil {
		return nil, fmt.Errorf("invalid PROVIDER_SCHEMA: %w", err)
	}
	cfg.ProviderSchema = schema

	cfg.ForecastDays, err = getenvInt("FORECAST_DAYS", 15)
	if err != nil {
		return nil, fmt.Errorf("invalid FORECAST_DAYS: %w", err)
	}

	cfg.HoneycombKey = os.Getenv("HONEYCOMB_KEY")
	cfg.HoneycombDataset = getenvDefault("HONEYCOMB_DATASET", "rws")
	cfg.HoneycombAPIRoot = getenvDefault("HONEYCOMB_API_ROOT", "https://api.honeycomb.io")

	cfg.TelemetryFlushInterval, err = time.ParseDuration(getenvDefault("TELEMETRY_FLUSH_INTERVAL", "10s"))
	if err != nil {
		return nil, fmt.Errorf("invalid TELEMETRY_FLUSH_INTERVAL: %w", err)
	}
	cfg.TelemetryMaxEvents, err = getenvInt("TELEMETRY_MAX_EVENTS", 1000)
	if err != nil {
		return nil, fmt.Errorf("invalid TELEMETRY_MAX_EVENTS: %w", err)
	}

	cfg.HTTPTimeout, err = time.ParseDuration(getenvDefault("HTTP_TIMEOUT", "0s"))
	if err != nil {
		return nil, fmt.Errorf("invalid HTTP_TIMEOUT: %w", err)
	}

	cfg.Port = getenvDefault("PORT", "8080")

	if err := validate.Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// TelemetryEnabled reports whether events should be shipped to Honeycomb.
func (c *AppConfig) TelemetryEnabled() bool {
	return c.HoneycombKey != ""
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getenvInt(key string, def int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}
