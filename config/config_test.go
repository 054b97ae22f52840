package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultIsValid(t *testing.T) {
	t.Parallel()

	assert.NoError(t, Default().Validate())
}

func TestValidateRejectsBadLimits(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"no actor", func(c *Config) { c.Actor = "" }, "actor is required"},
		{"zero position size", func(c *Config) { c.Risk.MaxPositionSize = 0 }, "max_position_size"},
		{"negative portfolio", func(c *Config) { c.Risk.MaxPortfolioExposure = -1 }, "max_portfolio_exposure"},
		{"zero trade loss", func(c *Config) { c.Risk.MaxLossPerTrade = 0 }, "max_loss_per_trade"},
		{"zero day loss", func(c *Config) { c.Risk.MaxLossPerDay = 0 }, "max_loss_per_day"},
		{"zero multiplier", func(c *Config) { c.Risk.ContractMultiplier = 0 }, "contract_multiplier"},
		{"bad journal type", func(c *Config) { c.Journal.Type = "parquet" }, "journal.type"},
		{"csv missing files", func(c *Config) { c.Journal = JournalConfig{Type: "csv"} }, "audit_file"},
		{"sqlite missing path", func(c *Config) { c.Journal = JournalConfig{Type: "sqlite"} }, "db_path"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestLoadYAMLRoundTrip(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "stager.yaml")
	orig := Default()
	orig.Actor = "ops"
	orig.Risk.MaxLossPerDay = 3000
	require.NoError(t, orig.SaveToFile(path))

	got, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, orig, got)
	assert.InDelta(t, 3000, got.Limits().MaxLossPerDay, 1e-9)
}

func TestLoadJSON(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "stager.json")
	orig := Default()
	orig.Journal = JournalConfig{Type: "sqlite", DBPath: "./stager.db"}
	require.NoError(t, orig.SaveToFile(path))

	got, err := LoadFromFile(path)
	require.NoError(t, err)
	assert.Equal(t, orig, got)
}

func TestLoadRejectsInvalid(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("actor: ops\nrisk:\n  max_position_size: -5\n"), 0644))

	_, err := LoadFromFile(path)
	assert.Error(t, err)
}
