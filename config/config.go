package config

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rustyeddy/stager/risk"
	"gopkg.in/yaml.v3"
)

// Config represents the complete staging-pipeline configuration
type Config struct {
	Actor   string        `json:"actor" yaml:"actor"`
	Risk    RiskConfig    `json:"risk" yaml:"risk"`
	Journal JournalConfig `json:"journal" yaml:"journal"`
}

// RiskConfig contains the risk limits applied to every candidate
type RiskConfig struct {
	MaxPositionSize      float64 `json:"max_position_size" yaml:"max_position_size"`
	MaxPortfolioExposure float64 `json:"max_portfolio_exposure" yaml:"max_portfolio_exposure"`
	MaxLossPerTrade      float64 `json:"max_loss_per_trade" yaml:"max_loss_per_trade"`
	MaxLossPerDay        float64 `json:"max_loss_per_day" yaml:"max_loss_per_day"`
	ContractMultiplier   float64 `json:"contract_multiplier" yaml:"contract_multiplier"`
}

// JournalConfig contains audit-journal parameters
type JournalConfig struct {
	Type      string `json:"type" yaml:"type"` // "none", "csv" or "sqlite"
	AuditFile string `json:"audit_file,omitempty" yaml:"audit_file,omitempty"`
	FillsFile string `json:"fills_file,omitempty" yaml:"fills_file,omitempty"`
	DBPath    string `json:"db_path,omitempty" yaml:"db_path,omitempty"`
}

// Limits converts the risk section into the assessor's limit set.
func (c *Config) Limits() risk.Limits {
	return risk.Limits{
		MaxPositionSize:      c.Risk.MaxPositionSize,
		MaxPortfolioExposure: c.Risk.MaxPortfolioExposure,
		MaxLossPerTrade:      c.Risk.MaxLossPerTrade,
		MaxLossPerDay:        c.Risk.MaxLossPerDay,
		ContractMultiplier:   c.Risk.ContractMultiplier,
	}
}

// LoadFromFile loads configuration from a file (JSON or YAML based on content)
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := &Config{}

	// Try YAML first, fall back to JSON
	err = yaml.Unmarshal(data, cfg)
	if err != nil {
		err = json.Unmarshal(data, cfg)
		if err != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// SaveToFile saves configuration to a file (JSON or YAML based on extension)
func (c *Config) SaveToFile(path string) error {
	var data []byte
	var err error

	if (len(path) > 5 && path[len(path)-5:] == ".yaml") || (len(path) > 4 && path[len(path)-4:] == ".yml") {
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

// Validate checks if the configuration is valid. Limits must be positive:
// a zero limit fails every check at assessment time, which is safe but never
// what a config file intends.
func (c *Config) Validate() error {
	if c.Actor == "" {
		return fmt.Errorf("actor is required")
	}
	if c.Risk.MaxPositionSize <= 0 {
		return fmt.Errorf("risk.max_position_size must be positive")
	}
	if c.Risk.MaxPortfolioExposure <= 0 {
		return fmt.Errorf("risk.max_portfolio_exposure must be positive")
	}
	if c.Risk.MaxLossPerTrade <= 0 {
		return fmt.Errorf("risk.max_loss_per_trade must be positive")
	}
	if c.Risk.MaxLossPerDay <= 0 {
		return fmt.Errorf("risk.max_loss_per_day must be positive")
	}
	if c.Risk.ContractMultiplier <= 0 {
		return fmt.Errorf("risk.contract_multiplier must be positive")
	}
	switch c.Journal.Type {
	case "none":
	case "csv":
		if c.Journal.AuditFile == "" || c.Journal.FillsFile == "" {
			return fmt.Errorf("journal audit_file and fills_file required for CSV type")
		}
	case "sqlite":
		if c.Journal.DBPath == "" {
			return fmt.Errorf("journal db_path required for SQLite type")
		}
	default:
		return fmt.Errorf("journal.type must be 'none', 'csv' or 'sqlite'")
	}
	return nil
}

// Default returns a configuration with sensible defaults
func Default() *Config {
	return &Config{
		Actor: "desk",
		Risk: RiskConfig{
			MaxPositionSize:      5000,
			MaxPortfolioExposure: 20000,
			MaxLossPerTrade:      1000,
			MaxLossPerDay:        2000,
			ContractMultiplier:   100,
		},
		Journal: JournalConfig{
			Type:      "csv",
			AuditFile: "./audit.csv",
			FillsFile: "./fills.csv",
		},
	}
}
