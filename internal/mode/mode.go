// Package mode defines the engine's operating profiles and resolves each
// one to a fixed parameter set.
package mode

import (
	"fmt"
	"time"
)

// Mode selects one of the engine's operating profiles.
type Mode string

const (
	HFT      Mode = "hft"
	Normal   Mode = "normal"
	Scalping Mode = "scalping"
)

// Parse maps a config string to a Mode.
func Parse(s string) (Mode, error) {
	switch Mode(s) {
	case HFT, Normal, Scalping:
		return Mode(s), nil
	default:
		return "", fmt.Errorf("mode: unknown mode %q", s)
	}
}

// Config carries the timing and risk envelope of an operating mode. All
// percent fields are percent-of-balance values (1.0 means 1%). A Config is
// immutable once handed to the engine; switching modes replaces it
// wholesale so no tunable leaks across modes.
type Config struct {
	Mode          Mode          `yaml:"mode"`
	ScanInterval  time.Duration `yaml:"scan_interval"`
	MinConfidence float64       `yaml:"min_confidence"`
	MinScore      int           `yaml:"min_score"`
	TakeProfitPct float64       `yaml:"take_profit_pct"`
	StopLossPct   float64       `yaml:"stop_loss_pct"`

	MaxConcurrentOrders int `yaml:"max_concurrent_orders"`
	MaxOrdersPerSession int `yaml:"max_orders_per_session"`

	// Confidence boosting. A score at or above StrongSignalScore multiplies
	// confidence by SignalBoost; agreement with the trailing trend
	// multiplies by TrendBoost. Combined boost is capped at 2.5x and the
	// boosted confidence at 1.0.
	StrongSignalScore int     `yaml:"strong_signal_score"`
	SignalBoost       float64 `yaml:"signal_boost"`
	TrendBoost        float64 `yaml:"trend_boost"`

	MaxConsecutiveLosses int           `yaml:"max_consecutive_losses"`
	Cooldown             time.Duration `yaml:"cooldown"`
}

// Resolve returns the parameter set for a mode.
func Resolve(m Mode) (Config, error) {
	switch m {
	case HFT:
		return Config{
			Mode:                 HFT,
			ScanInterval:         time.Second,
			MinConfidence:        0.8,
			MinScore:             5,
			TakeProfitPct:        0.3,
			StopLossPct:          1.5,
			MaxConcurrentOrders:  20,
			MaxOrdersPerSession:  100,
			StrongSignalScore:    8,
			SignalBoost:          1.5,
			TrendBoost:           1.2,
			MaxConsecutiveLosses: 3,
			Cooldown:             15 * time.Minute,
		}, nil
	case Normal:
		return Config{
			Mode:                 Normal,
			ScanInterval:         8 * time.Second,
			MinConfidence:        0.6,
			MinScore:             3,
			TakeProfitPct:        1.0,
			StopLossPct:          3.0,
			MaxConcurrentOrders:  3,
			MaxOrdersPerSession:  50,
			StrongSignalScore:    8,
			SignalBoost:          1.5,
			TrendBoost:           1.2,
			MaxConsecutiveLosses: 5,
			Cooldown:             30 * time.Minute,
		}, nil
	case Scalping:
		return Config{
			Mode:                 Scalping,
			ScanInterval:         3 * time.Second,
			MinConfidence:        0.7,
			MinScore:             4,
			TakeProfitPct:        0.5,
			StopLossPct:          2.0,
			MaxConcurrentOrders:  5,
			MaxOrdersPerSession:  80,
			StrongSignalScore:    8,
			SignalBoost:          1.5,
			TrendBoost:           1.2,
			MaxConsecutiveLosses: 4,
			Cooldown:             20 * time.Minute,
		}, nil
	default:
		return Config{}, fmt.Errorf("mode: unknown mode %q", m)
	}
}

// Validate rejects configs that would make the engine misbehave. Called at
// startup and on every SetMode; a rejected config never enters a cycle.
func Validate(c Config) error {
	if c.ScanInterval <= 0 {
		return fmt.Errorf("mode %s: non-positive scan interval %v", c.Mode, c.ScanInterval)
	}
	if c.MinConfidence < 0 || c.MinConfidence > 1 {
		return fmt.Errorf("mode %s: min confidence %v outside [0,1]", c.Mode, c.MinConfidence)
	}
	if c.MinScore < 0 {
		return fmt.Errorf("mode %s: negative min score %d", c.Mode, c.MinScore)
	}
	if c.TakeProfitPct <= 0 || c.TakeProfitPct > 100 {
		return fmt.Errorf("mode %s: take profit percent %v outside (0,100]", c.Mode, c.TakeProfitPct)
	}
	if c.StopLossPct <= 0 || c.StopLossPct > 100 {
		return fmt.Errorf("mode %s: stop loss percent %v outside (0,100]", c.Mode, c.StopLossPct)
	}
	if c.MaxConcurrentOrders <= 0 {
		return fmt.Errorf("mode %s: max concurrent orders must be positive, got %d", c.Mode, c.MaxConcurrentOrders)
	}
	if c.MaxOrdersPerSession <= 0 {
		return fmt.Errorf("mode %s: max orders per session must be positive, got %d", c.Mode, c.MaxOrdersPerSession)
	}
	if c.SignalBoost < 1 || c.SignalBoost > 2.5 {
		return fmt.Errorf("mode %s: signal boost %v outside [1,2.5]", c.Mode, c.SignalBoost)
	}
	if c.TrendBoost < 1 || c.TrendBoost > 2.5 {
		return fmt.Errorf("mode %s: trend boost %v outside [1,2.5]", c.Mode, c.TrendBoost)
	}
	if c.MaxConsecutiveLosses <= 0 {
		return fmt.Errorf("mode %s: max consecutive losses must be positive, got %d", c.Mode, c.MaxConsecutiveLosses)
	}
	return nil
}
