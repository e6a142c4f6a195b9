// Package config holds process-wide setup fixed once at startup: the
// reporting currency, the reserved system-account names and the FX rate
// table. The struct exposes read accessors only; nothing mutates it after
// Load/New, so the base currency cannot change post-setup by construction.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// RateEntry is one date-keyed exchange rate in the setup file.
type RateEntry struct {
	Currency string  `yaml:"currency"`
	Date     string  `yaml:"date"` // YYYY-MM-DD
	Rate     float64 `yaml:"rate"`
}

// file mirrors the YAML layout of the setup file.
type file struct {
	BaseCurrency   string      `yaml:"base_currency"`
	SystemAccounts []string    `yaml:"system_accounts"`
	Rates          []RateEntry `yaml:"rates"`
	Addr           string      `yaml:"addr"`
	DatabaseURL    string      `yaml:"database_url"`
	LogLevel       string      `yaml:"log_level"`
	LogFormat      string      `yaml:"log_format"`
}

// Config is the immutable runtime configuration.
type Config struct {
	baseCurrency   string
	systemAccounts map[string]struct{}
	rates          []RateEntry
	addr           string
	databaseURL    string
	logLevel       string
	logFormat      string
}

// DefaultSystemAccounts is the reserved account set protected from deletion.
var DefaultSystemAccounts = []string{
	"Accounts Receivable",
	"Accounts Payable",
	"Sales Tax",
	"Capital",
	"Retained Earnings",
	"FX Gain/Loss",
	"Bank",
}

// New builds a configuration from explicit values. The base currency is
// required; an empty system-account list falls back to the default set.
func New(baseCurrency string, systemAccounts []string) (*Config, error) {
	base := strings.ToUpper(strings.TrimSpace(baseCurrency))
	if base == "" {
		return nil, fmt.Errorf("base currency is required")
	}
	if len(systemAccounts) == 0 {
		systemAccounts = DefaultSystemAccounts
	}
	sys := make(map[string]struct{}, len(systemAccounts))
	for _, name := range systemAccounts {
		sys[strings.ToLower(strings.TrimSpace(name))] = struct{}{}
	}
	return &Config{
		baseCurrency:   base,
		systemAccounts: sys,
		addr:           ":8080",
		logFormat:      "json",
	}, nil
}

// Load reads the YAML setup file at path and applies environment overrides
// (ADDR, DATABASE_URL, LOG_LEVEL, LOG_FORMAT). An empty path loads from
// environment only, with BASE_CURRENCY supplying the reporting currency.
func Load(path string) (*Config, error) {
	var f file
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(b, &f); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}
	if f.BaseCurrency == "" {
		f.BaseCurrency = os.Getenv("BASE_CURRENCY")
	}
	cfg, err := New(f.BaseCurrency, f.SystemAccounts)
	if err != nil {
		return nil, err
	}
	for _, r := range f.Rates {
		if _, err := time.Parse("2006-01-02", r.Date); err != nil {
			return nil, fmt.Errorf("rate for %s: bad date %q", r.Currency, r.Date)
		}
	}
	cfg.rates = f.Rates
	if f.Addr != "" {
		cfg.addr = f.Addr
	}
	cfg.databaseURL = f.DatabaseURL
	cfg.logLevel = f.LogLevel
	if f.LogFormat != "" {
		cfg.logFormat = strings.ToLower(f.LogFormat)
	}
	if v := os.Getenv("ADDR"); v != "" {
		cfg.addr = v
	}
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.databaseURL = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		cfg.logLevel = v
	}
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		cfg.logFormat = strings.ToLower(v)
	}
	return cfg, nil
}

// BaseCurrency returns the reporting currency every journal balances in.
func (c *Config) BaseCurrency() string { return c.baseCurrency }

// SystemAccount reports whether the account name is in the reserved set.
func (c *Config) SystemAccount(name string) bool {
	_, ok := c.systemAccounts[strings.ToLower(strings.TrimSpace(name))]
	return ok
}

// SystemAccountNames returns the reserved names in no particular order.
func (c *Config) SystemAccountNames() []string {
	out := make([]string, 0, len(c.systemAccounts))
	for name := range c.systemAccounts {
		out = append(out, name)
	}
	return out
}

// Rates returns the configured date-keyed exchange rates.
func (c *Config) Rates() []RateEntry { return c.rates }

// Addr returns the HTTP listen address.
func (c *Config) Addr() string { return c.addr }

// DatabaseURL returns the postgres DSN; empty selects the in-memory store.
func (c *Config) DatabaseURL() string { return c.databaseURL }

// LogLevel returns the configured log level string.
func (c *Config) LogLevel() string { return c.logLevel }

// LogFormat returns "json" or "text".
func (c *Config) LogFormat() string { return c.logFormat }
