// Package config
package config

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"github.com/andriyanb/autotrader/internal/mode"
)

/*
YAML config example:
gateway: "simulated"
wallex_api_key: "..."
quote_asset: "USDT"
symbols: ["XAUUSDm", "EURUSD"]
mode: "normal"
base_lot: 0.01
start_balance: 1000000
slippage_pips: 1.0
min_balance: 10000
daily_loss_limit_pct: 5.0
max_drawdown_pct: 20.0
confirm_timeout: 10s
trading_hours_open: -1
trading_hours_close: -1
db_conn_str: "postgres://..."
telegram_token: "..."
telegram_chat_id: "..."
metrics_addr: ":6060"
*/

type Config struct {
	Gateway      string   `yaml:"gateway"`
	WallexAPIKey string   `yaml:"wallex_api_key"`
	QuoteAsset   string   `yaml:"quote_asset"`
	Symbols      []string `yaml:"symbols"`
	Mode         string   `yaml:"mode"`

	BaseLot           float64 `yaml:"base_lot"`
	StartBalance      float64 `yaml:"start_balance"`
	SlippagePips      float64 `yaml:"slippage_pips"`
	MinBalance        float64 `yaml:"min_balance"`
	DailyLossLimitPct float64 `yaml:"daily_loss_limit_pct"`
	MaxDrawdownPct    float64 `yaml:"max_drawdown_pct"`

	ConfirmTimeout time.Duration `yaml:"confirm_timeout"`

	// Trading window in UTC hours; -1 for both trades around the clock.
	TradingHoursOpen  int `yaml:"trading_hours_open"`
	TradingHoursClose int `yaml:"trading_hours_close"`

	DBConnStr      string `yaml:"db_conn_str"`
	TelegramToken  string `yaml:"telegram_token"`
	TelegramChatID string `yaml:"telegram_chat_id"`
	MetricsAddr    string `yaml:"metrics_addr"`
}

// Load reads flags, then an optional YAML file, then env fallbacks for
// secrets. Flags win over the file for the values they set explicitly.
func Load() (Config, error) {
	gatewayName := flag.String("gateway", "simulated", "Execution gateway: simulated or wallex")
	symbolsFlag := flag.String("symbols", "XAUUSDm", "Comma-separated list of trading symbols")
	modeName := flag.String("trading-mode", "normal", "Trading mode: hft, normal or scalping")
	baseLot := flag.Float64("base-lot", 0.01, "Base lot size before risk scaling")
	startBalance := flag.Float64("start-balance", 1_000_000, "Paper account starting balance")
	slippagePips := flag.Float64("slippage-pips", 1.0, "Simulated slippage per fill, in pips")
	minBalance := flag.Float64("min-balance", 10_000, "Balance floor below which no order is sized")
	dailyLossLimit := flag.Float64("daily-loss-limit", 5.0, "Daily realized loss limit, percent of day-start balance")
	maxDrawdown := flag.Float64("max-drawdown", 20.0, "Max drawdown from peak equity, percent")
	confirmTimeout := flag.Duration("confirm-timeout", 10*time.Second, "Gateway confirmation timeout")
	hoursOpen := flag.Int("trading-hours-open", -1, "Trading window open hour UTC, -1 for 24/7")
	hoursClose := flag.Int("trading-hours-close", -1, "Trading window close hour UTC, -1 for 24/7")
	telegramToken := flag.String("telegram-token", "", "Telegram bot token for notifications")
	telegramChatID := flag.String("telegram-chat", "", "Telegram chat ID for notifications")
	metricsAddr := flag.String("metrics-addr", "", "Prometheus listen address, empty disables")
	configFile := flag.String("config", "", "Path to YAML config file")
	flag.Parse()

	if *configFile != "" {
		data, err := os.ReadFile(*configFile)
		if err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
		var fileCfg Config
		if err := yaml.Unmarshal(data, &fileCfg); err != nil {
			return Config{}, fmt.Errorf("parsing config file: %w", err)
		}
		if fileCfg.WallexAPIKey == "" {
			fileCfg.WallexAPIKey = os.Getenv("WALLEX_API_KEY")
		}
		if fileCfg.DBConnStr == "" {
			fileCfg.DBConnStr = os.Getenv("DB_CONN_STR")
		}
		return fileCfg, fileCfg.Validate()
	}

	cfg := Config{
		Gateway:           *gatewayName,
		WallexAPIKey:      os.Getenv("WALLEX_API_KEY"),
		QuoteAsset:        "USDT",
		Symbols:           strings.Split(*symbolsFlag, ","),
		Mode:              *modeName,
		BaseLot:           *baseLot,
		StartBalance:      *startBalance,
		SlippagePips:      *slippagePips,
		MinBalance:        *minBalance,
		DailyLossLimitPct: *dailyLossLimit,
		MaxDrawdownPct:    *maxDrawdown,
		ConfirmTimeout:    *confirmTimeout,
		TradingHoursOpen:  *hoursOpen,
		TradingHoursClose: *hoursClose,
		DBConnStr:         os.Getenv("DB_CONN_STR"),
		TelegramToken:     *telegramToken,
		TelegramChatID:    *telegramChatID,
		MetricsAddr:       *metricsAddr,
	}
	return cfg, cfg.Validate()
}

// MustLoad is Load with a fatal exit on any validation failure. A config
// that fails validation never enters a cycle.
func MustLoad() Config {
	cfg, err := Load()
	if err != nil {
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	return cfg
}

// Validate rejects configurations the engine cannot safely run with.
func (c Config) Validate() error {
	switch c.Gateway {
	case "simulated":
	case "wallex":
		if c.WallexAPIKey == "" {
			return fmt.Errorf("config: wallex gateway needs an API key")
		}
	default:
		return fmt.Errorf("config: unknown gateway %q", c.Gateway)
	}

	if len(c.Symbols) == 0 {
		return fmt.Errorf("config: at least one symbol is required")
	}
	for _, s := range c.Symbols {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("config: empty symbol in list")
		}
	}

	m, err := mode.Parse(c.Mode)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	mc, err := mode.Resolve(m)
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	if err := mode.Validate(mc); err != nil {
		return fmt.Errorf("config: %w", err)
	}

	if c.BaseLot <= 0 {
		return fmt.Errorf("config: base lot must be positive, got %v", c.BaseLot)
	}
	if c.Gateway == "simulated" && c.StartBalance <= 0 {
		return fmt.Errorf("config: start balance must be positive, got %v", c.StartBalance)
	}
	if c.SlippagePips < 0 {
		return fmt.Errorf("config: slippage cannot be negative, got %v", c.SlippagePips)
	}
	if c.DailyLossLimitPct <= 0 || c.DailyLossLimitPct > 100 {
		return fmt.Errorf("config: daily loss limit must be in (0,100], got %v", c.DailyLossLimitPct)
	}
	if c.MaxDrawdownPct <= 0 || c.MaxDrawdownPct > 100 {
		return fmt.Errorf("config: max drawdown must be in (0,100], got %v", c.MaxDrawdownPct)
	}
	if c.ConfirmTimeout < 0 {
		return fmt.Errorf("config: confirm timeout cannot be negative")
	}

	open, close := c.TradingHoursOpen, c.TradingHoursClose
	if (open == -1) != (close == -1) {
		return fmt.Errorf("config: trading hours must set both open and close, or neither")
	}
	if open != -1 && (open < 0 || open > 23 || close < 1 || close > 24 || open >= close) {
		return fmt.Errorf("config: invalid trading hours %d-%d", open, close)
	}
	return nil
}

// TradingMode returns the parsed mode. Call after Validate.
func (c Config) TradingMode() mode.Mode {
	m, _ := mode.Parse(c.Mode)
	return m
}

// AroundTheClock reports whether no trading-hours window is configured.
func (c Config) AroundTheClock() bool {
	return c.TradingHoursOpen == -1
}
