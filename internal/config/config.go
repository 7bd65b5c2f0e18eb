package config

import (
	"errors"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"parcelops/internal/gl"
	ledger "parcelops/internal/ledger/domain"
	settlement "parcelops/internal/settlement/domain"
)

// MaterialityConfig holds the per-currency minimum payable amounts.
type MaterialityConfig struct {
	USD float64 `yaml:"usd"`
	KHR float64 `yaml:"khr"`
}

// AgingConfig holds aging report settings.
type AgingConfig struct {
	BaseCurrency string `yaml:"base_currency"`
}

// RouteConfig is one chart-of-accounts route.
type RouteConfig struct {
	Kind     string `yaml:"kind"`
	Currency string `yaml:"currency"`
	Debit    string `yaml:"debit"`
	Credit   string `yaml:"credit"`
}

// Config is the application configuration, loaded from a YAML file named
// by WALLET_CONFIG with env-var fallbacks for the deployment knobs.
type Config struct {
	DatabaseURL string            `yaml:"database_url"`
	HTTPAddr    string            `yaml:"http_addr"`
	JWTSecret   string            `yaml:"jwt_secret"`
	Materiality MaterialityConfig `yaml:"materiality"`
	Aging       AgingConfig       `yaml:"aging"`
	Routes      []RouteConfig     `yaml:"routes"`
}

// Load builds the configuration from env defaults overlaid by the YAML
// file when one is configured.
func Load() (Config, error) {
	cfg := Config{
		DatabaseURL: getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:    getenvDefault("HTTP_ADDR", ":8080"),
		JWTSecret:   getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
		Materiality: MaterialityConfig{
			USD: getenvFloatDefault("MATERIALITY_USD", settlement.DefaultMateriality().USD),
			KHR: getenvFloatDefault("MATERIALITY_KHR", settlement.DefaultMateriality().KHR),
		},
		Aging: AgingConfig{
			BaseCurrency: getenvDefault("AGING_BASE_CURRENCY", string(ledger.USD)),
		},
	}

	if path := os.Getenv("WALLET_CONFIG"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return cfg, err
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, err
		}
	}

	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = ":8080"
	}
	if cfg.DatabaseURL == "" {
		return cfg, errors.New("config: database url required")
	}
	if cfg.JWTSecret == "" {
		return cfg, errors.New("config: jwt secret required")
	}
	return cfg, nil
}

// MaterialityThresholds converts the configured thresholds for the selector.
func (c Config) MaterialityThresholds() settlement.Materiality {
	return settlement.Materiality{USD: c.Materiality.USD, KHR: c.Materiality.KHR}
}

// Routing builds the chart-of-accounts routing table.
func (c Config) Routing() (*gl.Routing, error) {
	routes := make([]gl.Route, 0, len(c.Routes))
	for _, r := range c.Routes {
		routes = append(routes, gl.Route{
			Kind:     ledger.TransactionKind(r.Kind),
			Currency: ledger.Currency(r.Currency),
			Debit:    r.Debit,
			Credit:   r.Credit,
		})
	}
	return gl.NewRouting(routes)
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvFloatDefault(key string, fallback float64) float64 {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fallback
	}
	return parsed
}
