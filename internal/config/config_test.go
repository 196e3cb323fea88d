package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/andriyanb/autotrader/internal/mode"
)

func validConfig() Config {
	return Config{
		Gateway:           "simulated",
		Symbols:           []string{"XAUUSDm"},
		Mode:              "normal",
		BaseLot:           0.01,
		StartBalance:      1_000_000,
		SlippagePips:      1,
		MinBalance:        10_000,
		DailyLossLimitPct: 5,
		MaxDrawdownPct:    20,
		ConfirmTimeout:    10 * time.Second,
		TradingHoursOpen:  -1,
		TradingHoursClose: -1,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"valid simulated", func(c *Config) {}, false},
		{"valid wallex", func(c *Config) { c.Gateway = "wallex"; c.WallexAPIKey = "k" }, false},
		{"wallex without key", func(c *Config) { c.Gateway = "wallex" }, true},
		{"unknown gateway", func(c *Config) { c.Gateway = "mt5" }, true},
		{"no symbols", func(c *Config) { c.Symbols = nil }, true},
		{"blank symbol", func(c *Config) { c.Symbols = []string{" "} }, true},
		{"unknown mode", func(c *Config) { c.Mode = "turbo" }, true},
		{"zero base lot", func(c *Config) { c.BaseLot = 0 }, true},
		{"negative slippage", func(c *Config) { c.SlippagePips = -1 }, true},
		{"loss limit over 100", func(c *Config) { c.DailyLossLimitPct = 150 }, true},
		{"zero drawdown", func(c *Config) { c.MaxDrawdownPct = 0 }, true},
		{"valid trading hours", func(c *Config) { c.TradingHoursOpen = 8; c.TradingHoursClose = 17 }, false},
		{"half-set trading hours", func(c *Config) { c.TradingHoursOpen = 8 }, true},
		{"inverted trading hours", func(c *Config) { c.TradingHoursOpen = 17; c.TradingHoursClose = 8 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validConfig()
			tt.mutate(&cfg)
			err := cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestTradingMode(t *testing.T) {
	cfg := validConfig()
	cfg.Mode = "hft"
	assert.Equal(t, mode.HFT, cfg.TradingMode())
	assert.True(t, cfg.AroundTheClock())

	cfg.TradingHoursOpen = 8
	assert.False(t, cfg.AroundTheClock())
}
