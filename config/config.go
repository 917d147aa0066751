package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/backtester/pricing"
)

// Config represents a complete simulation configuration.
type Config struct {
	Account  AccountConfig  `json:"account" yaml:"account"`
	Pricing  PricingConfig  `json:"pricing" yaml:"pricing"`
	Sim      SimConfig      `json:"sim" yaml:"sim"`
	Data     DataConfig     `json:"data" yaml:"data"`
	Strategy StrategyConfig `json:"strategy" yaml:"strategy"`
	Journal  JournalConfig  `json:"journal" yaml:"journal"`
}

// AccountConfig sets the strategy's starting state.
type AccountConfig struct {
	Funds float64 `json:"funds" yaml:"funds"`
}

// PricingConfig tunes the execution-price model.
type PricingConfig struct {
	SlippageK  float64 `json:"slippage_k" yaml:"slippage_k"`
	SpreadMode string  `json:"spread_mode" yaml:"spread_mode"` // "fixed" or "rolling"
}

// SimConfig tunes the simulation loop.
type SimConfig struct {
	MaxEpochs int `json:"max_epochs,omitempty" yaml:"max_epochs,omitempty"`
}

// DataConfig locates the market data: a directory of CSV files, a zip
// archive of them, or an explicit ticker -> filepath mapping. The sources
// combine, later ones overriding earlier tickers.
type DataConfig struct {
	Dir     string            `json:"dir,omitempty" yaml:"dir,omitempty"`
	Archive string            `json:"archive,omitempty" yaml:"archive,omitempty"`
	Files   map[string]string `json:"files,omitempty" yaml:"files,omitempty"`
}

// StrategyConfig selects and parameterizes the strategy.
type StrategyConfig struct {
	Name     string `json:"name" yaml:"name"`
	Ticker   string `json:"ticker" yaml:"ticker"`
	Quantity int    `json:"quantity,omitempty" yaml:"quantity,omitempty"`
	Fast     int    `json:"fast,omitempty" yaml:"fast,omitempty"`
	Slow     int    `json:"slow,omitempty" yaml:"slow,omitempty"`
}

// JournalConfig selects where run results are written.
type JournalConfig struct {
	Type          string `json:"type" yaml:"type"` // "csv", "sqlite" or "none"
	OrdersFile    string `json:"orders_file,omitempty" yaml:"orders_file,omitempty"`
	PositionsFile string `json:"positions_file,omitempty" yaml:"positions_file,omitempty"`
	DBPath        string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON
	if err = yaml.Unmarshal(data, cfg); err != nil {
		if err = json.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file, YAML or JSON by extension.
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if strings.HasSuffix(path, ".yaml") || strings.HasSuffix(path, ".yml") {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.Account.Funds <= 0 {
		return fmt.Errorf("account.funds must be positive")
	}
	switch pricing.SpreadMode(c.Pricing.SpreadMode) {
	case pricing.SpreadFixed, pricing.SpreadRolling, "":
	default:
		return fmt.Errorf("pricing.spread_mode must be 'fixed' or 'rolling'")
	}
	if c.Pricing.SlippageK < 0 {
		return fmt.Errorf("pricing.slippage_k must not be negative")
	}
	if c.Sim.MaxEpochs < 0 {
		return fmt.Errorf("sim.max_epochs must not be negative")
	}
	if c.Data.Dir == "" && c.Data.Archive == "" && len(c.Data.Files) == 0 {
		return fmt.Errorf("data.dir, data.archive or data.files is required")
	}
	if c.Strategy.Name == "" {
		return fmt.Errorf("strategy.name is required")
	}
	if c.Strategy.Ticker == "" {
		return fmt.Errorf("strategy.ticker is required")
	}
	switch c.Journal.Type {
	case "csv":
		if c.Journal.OrdersFile == "" || c.Journal.PositionsFile == "" {
			return fmt.Errorf("journal orders_file and positions_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	case "none", "":
	default:
		return fmt.Errorf("journal.type must be 'csv', 'sqlite' or 'none'")
	}
	return nil
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Account: AccountConfig{
			Funds: 10000,
		},
		Pricing: PricingConfig{
			SlippageK:  pricing.DefaultSlippageK,
			SpreadMode: string(pricing.SpreadFixed),
		},
		Data: DataConfig{
			Dir: "./data",
		},
		Strategy: StrategyConfig{
			Name:     "ma-cross",
			Ticker:   "GOOG",
			Quantity: 1,
			Fast:     10,
			Slow:     60,
		},
		Journal: JournalConfig{
			Type:          "csv",
			OrdersFile:    "./orders.csv",
			PositionsFile: "./positions.csv",
		},
	}
}
