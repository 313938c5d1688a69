// Package config loads the session configuration file and the broker
// credentials from the environment.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rdholakia/kaagaz/market"
)

// Config is the complete paper-trading session configuration.
type Config struct {
	Session  SessionConfig  `yaml:"session"`
	Data     DataConfig     `yaml:"data"`
	Strategy StrategyConfig `yaml:"strategy"`
	Journal  JournalConfig  `yaml:"journal"`
}

// SessionConfig sets the portfolio and execution-model parameters.
type SessionConfig struct {
	InitialCash float64 `yaml:"initial_cash"`

	// Commission is "flat", "percent" or "none".
	Commission     string  `yaml:"commission"`
	CommissionFlat float64 `yaml:"commission_flat"`    // rupees per order
	CommissionRate float64 `yaml:"commission_rate"`    // 0.001 = 0.1%
	SlippagePct    float64 `yaml:"slippage_pct"`       // 0.05 = 0.05%, 0 disables
	SnapshotEvery  int     `yaml:"snapshot_every_bars"`
}

// DataConfig picks the bar source and universe.
type DataConfig struct {
	// Source is "zerodha", "dhan" or "synthetic".
	Source            string   `yaml:"source"`
	Symbols           []string `yaml:"symbols"`
	Interval          string   `yaml:"interval"`
	HistoricalDays    int      `yaml:"historical_days"`
	SyntheticFallback bool     `yaml:"synthetic_fallback"`
	SyntheticBars     int      `yaml:"synthetic_bars"`
	Seed              int64    `yaml:"seed"`

	// Live switches the session from a historical batch to quote polling.
	Live            bool `yaml:"live"`
	PollSeconds     int  `yaml:"poll_seconds"`
	LiveMaxBars     int  `yaml:"live_max_bars"`
}

// StrategyConfig names the strategy and its tuning.
type StrategyConfig struct {
	Name         string  `yaml:"name"`
	FastPeriod   int     `yaml:"fast_period"`
	SlowPeriod   int     `yaml:"slow_period"`
	RSIPeriod    int     `yaml:"rsi_period"`
	RSIEntryMax  float64 `yaml:"rsi_entry_max"`
	RSIExitMin   float64 `yaml:"rsi_exit_min"`
	Quantity     int     `yaml:"quantity"`
	MaxPositions int     `yaml:"max_positions"`
}

// JournalConfig picks where session records go.
type JournalConfig struct {
	Type          string `yaml:"type"` // "sqlite", "csv" or "none"
	DBPath        string `yaml:"db_path,omitempty"`
	TradesFile    string `yaml:"trades_file,omitempty"`
	SignalsFile   string `yaml:"signals_file,omitempty"`
	SnapshotsFile string `yaml:"snapshots_file,omitempty"`
}

// LoadFromFile reads and validates a YAML config.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile writes the config as YAML.
func (c *Config) SaveToFile(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate checks the configuration is runnable.
func (c *Config) Validate() error {
	if c.Session.InitialCash <= 0 {
		return fmt.Errorf("session.initial_cash must be positive")
	}

	switch c.Session.Commission {
	case "flat":
		if c.Session.CommissionFlat < 0 {
			return fmt.Errorf("session.commission_flat must not be negative")
		}
	case "percent":
		if c.Session.CommissionRate < 0 || c.Session.CommissionRate >= 1 {
			return fmt.Errorf("session.commission_rate must be in [0, 1)")
		}
	case "none", "":
	default:
		return fmt.Errorf("session.commission must be 'flat', 'percent' or 'none'")
	}

	if c.Session.SlippagePct < 0 {
		return fmt.Errorf("session.slippage_pct must not be negative")
	}

	switch c.Data.Source {
	case "zerodha", "dhan", "synthetic", "":
	default:
		return fmt.Errorf("data.source must be 'zerodha', 'dhan' or 'synthetic'")
	}

	if len(c.Data.Symbols) == 0 {
		return fmt.Errorf("data.symbols must name at least one instrument")
	}
	for _, sym := range c.Data.Symbols {
		if _, err := market.Lookup(sym); err != nil {
			return err
		}
	}

	switch c.Journal.Type {
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal.db_path required for sqlite")
		}
	case "csv":
		if c.Journal.TradesFile == "" || c.Journal.SignalsFile == "" || c.Journal.SnapshotsFile == "" {
			return fmt.Errorf("journal trades_file, signals_file and snapshots_file required for csv")
		}
	case "none", "":
	default:
		return fmt.Errorf("journal.type must be 'sqlite', 'csv' or 'none'")
	}

	return nil
}

// Interval resolves the configured bar interval, defaulting to 5 minutes.
func (c *Config) Interval() market.Interval {
	switch c.Data.Interval {
	case "minute", "1minute":
		return market.Minute
	case "15minute":
		return market.FifteenMinute
	case "60minute", "hour":
		return market.Hour
	case "day":
		return market.Day
	default:
		return market.FiveMinute
	}
}

// Default returns the configuration a fresh `kaagaz config init` writes.
func Default() *Config {
	return &Config{
		Session: SessionConfig{
			InitialCash:    500000,
			Commission:     "percent",
			CommissionRate: 0.001,
			SnapshotEvery:  10,
		},
		Data: DataConfig{
			Source:            "synthetic",
			Symbols:           []string{"RELIANCE", "TCS", "INFY"},
			Interval:          "5minute",
			HistoricalDays:    5,
			SyntheticFallback: true,
			SyntheticBars:     200,
			Seed:              42,
			PollSeconds:       30,
		},
		Strategy: StrategyConfig{
			Name:         "ma-cross-rsi",
			FastPeriod:   10,
			SlowPeriod:   30,
			RSIPeriod:    14,
			RSIEntryMax:  70,
			RSIExitMin:   80,
			Quantity:     10,
			MaxPositions: 3,
		},
		Journal: JournalConfig{
			Type:   "sqlite",
			DBPath: "./kaagaz.db",
		},
	}
}
