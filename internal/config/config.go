package config

import (
	"cmp"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/STTM-NSU/financeel/internal/model"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

type StorageDriver string

const (
	Postgres StorageDriver = "postgres"
	SQLite   StorageDriver = "sqlite"
	Memory   StorageDriver = "memory"
)

type ServerConfig struct {
	Port        string   `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type QuotesConfig struct {
	Address          string             `yaml:"address"`
	APIKey           string             `yaml:"-"`
	Timeout          time.Duration      `yaml:"timeout"`
	SymbolInterval   time.Duration      `yaml:"symbol_interval"` // spacing between per-symbol fallback requests
	StaticFallback   *bool              `yaml:"static_fallback"`
	PlaceholderPrice float64            `yaml:"placeholder_price"`
	FallbackPrices   map[string]float64 `yaml:"fallback_prices"`
}

type SymbolsConfig struct {
	Known   map[string]model.SymbolInfo `yaml:"known"`
	Palette []string                    `yaml:"palette"`
}

type StorageConfig struct {
	Driver     StorageDriver `yaml:"driver"`
	SQLitePath string        `yaml:"sqlite_path"`
}

type RefreshConfig struct {
	Schedule  string `yaml:"schedule"` // cron spec, empty disables periodic refresh
	OnStartup bool   `yaml:"on_startup"`
}

type DisplayConfig struct {
	NotApplicable  string `yaml:"not_applicable"`
	CurrencySymbol string `yaml:"currency_symbol"`
}

type Config struct {
	LogLevel string        `yaml:"log_level"`
	Server   ServerConfig  `yaml:"server"`
	Quotes   QuotesConfig  `yaml:"quotes"`
	Symbols  SymbolsConfig `yaml:"symbols"`
	Storage  StorageConfig `yaml:"storage"`
	Refresh  RefreshConfig `yaml:"refresh"`
	Display  DisplayConfig `yaml:"display"`
}

const (
	_portDefault             = "8080"
	_quotesAddressDefault    = "https://api.hgbrasil.com"
	_quotesTimeoutDefault    = 10 * time.Second
	_symbolIntervalDefault   = 100 * time.Millisecond
	_storageDriverDefault    = SQLite
	_sqlitePathDefault       = "./financeel.db"
	_notApplicableDefault    = "N/A"
	_currencySymbolDefault   = "R$"
	_logLevelDefault         = "info"
	_placeholderPriceDefault = 1.0
)

func (c *Config) Setup() {
	c.LogLevel = cmp.Or(c.LogLevel, _logLevelDefault)
	c.Server.Port = cmp.Or(c.Server.Port, _portDefault)

	c.Quotes.Address = cmp.Or(c.Quotes.Address, _quotesAddressDefault)
	if c.Quotes.Timeout <= 0 {
		c.Quotes.Timeout = _quotesTimeoutDefault
	}
	if c.Quotes.SymbolInterval <= 0 {
		c.Quotes.SymbolInterval = _symbolIntervalDefault
	}
	if c.Quotes.StaticFallback == nil {
		enabled := true
		c.Quotes.StaticFallback = &enabled
	}
	if c.Quotes.PlaceholderPrice <= 0 {
		c.Quotes.PlaceholderPrice = _placeholderPriceDefault
	}

	if len(c.Symbols.Known) == 0 {
		c.Symbols.Known = model.KnownSymbols
	} else {
		known := make(map[string]model.SymbolInfo, len(c.Symbols.Known))
		for symbol, info := range c.Symbols.Known {
			known[strings.ToUpper(strings.TrimSpace(symbol))] = info
		}
		c.Symbols.Known = known
	}
	if len(c.Symbols.Palette) == 0 {
		c.Symbols.Palette = model.Palette
	}

	c.Storage.Driver = cmp.Or(c.Storage.Driver, _storageDriverDefault)
	c.Storage.SQLitePath = cmp.Or(c.Storage.SQLitePath, _sqlitePathDefault)

	c.Display.NotApplicable = cmp.Or(c.Display.NotApplicable, _notApplicableDefault)
	c.Display.CurrencySymbol = cmp.Or(c.Display.CurrencySymbol, _currencySymbolDefault)
}

// ApplyEnv overrides file values with environment variables.
func (c *Config) ApplyEnv() {
	c.Quotes.APIKey = cmp.Or(os.Getenv("HG_BRASIL_API_KEY"), c.Quotes.APIKey)
	if driver := os.Getenv("FINANCEEL_STORAGE"); driver != "" {
		c.Storage.Driver = StorageDriver(strings.ToLower(driver))
	}
	c.Server.Port = cmp.Or(os.Getenv("FINANCEEL_PORT"), c.Server.Port)
	c.LogLevel = cmp.Or(os.Getenv("FINANCEEL_LOG_LEVEL"), c.LogLevel)
}

func (c *Config) Validate() error {
	if _, err := url.ParseRequestURI(c.Quotes.Address); err != nil {
		return fmt.Errorf("%w: invalid quotes address", err)
	}

	switch c.Storage.Driver {
	case Postgres, SQLite, Memory:
	default:
		return fmt.Errorf("unknown storage driver %q", c.Storage.Driver)
	}

	for symbol, price := range c.Quotes.FallbackPrices {
		if price <= 0 {
			return fmt.Errorf("fallback price for %s must be positive", symbol)
		}
	}

	return nil
}

// FallbackPrices returns the configured static table, the built-in one when nothing is configured.
func (c *Config) FallbackPrices() map[string]decimal.Decimal {
	if len(c.Quotes.FallbackPrices) == 0 {
		return model.FallbackPrices
	}
	prices := make(map[string]decimal.Decimal, len(c.Quotes.FallbackPrices))
	for symbol, price := range c.Quotes.FallbackPrices {
		prices[strings.ToUpper(symbol)] = decimal.NewFromFloat(price)
	}
	return prices
}

func (c *Config) Placeholder() decimal.Decimal {
	return decimal.NewFromFloat(c.Quotes.PlaceholderPrice)
}

// Default returns a fully set up config without reading any file.
func Default() Config {
	var cfg Config
	cfg.Setup()
	return cfg
}

func LoadConfig(filename string) (Config, error) {
	var cfg Config
	input, err := os.ReadFile(filename)
	if err != nil {
		return cfg, fmt.Errorf("%w: can't read file", err)
	}

	if err := yaml.Unmarshal(input, &cfg); err != nil {
		return cfg, fmt.Errorf("%w: can't unmarshal config", err)
	}

	cfg.ApplyEnv()
	cfg.Setup()
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("%w: can't setup cfg", err)
	}

	return cfg, nil
}
