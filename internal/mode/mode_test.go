package mode

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	for _, s := range []string{"hft", "normal", "scalping"} {
		m, err := Parse(s)
		require.NoError(t, err)
		assert.Equal(t, Mode(s), m)
	}

	_, err := Parse("swing")
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	tests := []struct {
		mode         Mode
		interval     time.Duration
		tpPct, slPct float64
		sessionCap   int
	}{
		{HFT, time.Second, 0.3, 1.5, 100},
		{Normal, 8 * time.Second, 1.0, 3.0, 50},
		{Scalping, 3 * time.Second, 0.5, 2.0, 80},
	}

	for _, tt := range tests {
		t.Run(string(tt.mode), func(t *testing.T) {
			cfg, err := Resolve(tt.mode)
			require.NoError(t, err)
			assert.Equal(t, tt.interval, cfg.ScanInterval)
			assert.Equal(t, tt.tpPct, cfg.TakeProfitPct)
			assert.Equal(t, tt.slPct, cfg.StopLossPct)
			assert.Equal(t, tt.sessionCap, cfg.MaxOrdersPerSession)
			assert.NoError(t, Validate(cfg), "resolved config must validate")
		})
	}

	_, err := Resolve(Mode("arbitrage"))
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base, err := Resolve(Normal)
	require.NoError(t, err)

	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"zero interval", func(c *Config) { c.ScanInterval = 0 }},
		{"negative interval", func(c *Config) { c.ScanInterval = -time.Second }},
		{"zero take profit", func(c *Config) { c.TakeProfitPct = 0 }},
		{"take profit above 100", func(c *Config) { c.TakeProfitPct = 120 }},
		{"zero stop loss", func(c *Config) { c.StopLossPct = 0 }},
		{"stop loss above 100", func(c *Config) { c.StopLossPct = 101 }},
		{"zero concurrent orders", func(c *Config) { c.MaxConcurrentOrders = 0 }},
		{"zero session orders", func(c *Config) { c.MaxOrdersPerSession = 0 }},
		{"confidence above 1", func(c *Config) { c.MinConfidence = 1.5 }},
		{"boost above cap", func(c *Config) { c.SignalBoost = 3.0 }},
		{"zero loss ceiling", func(c *Config) { c.MaxConsecutiveLosses = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := base
			tt.mutate(&cfg)
			assert.Error(t, Validate(cfg))
		})
	}

	assert.NoError(t, Validate(base))
}
