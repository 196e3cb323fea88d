package main

import (
	"context"
	"os"
	ossignal "os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/andriyanb/autotrader/internal/config"
	"github.com/andriyanb/autotrader/internal/db"
	"github.com/andriyanb/autotrader/internal/engine"
	"github.com/andriyanb/autotrader/internal/gateway"
	"github.com/andriyanb/autotrader/internal/marketdata"
	"github.com/andriyanb/autotrader/internal/metrics"
	"github.com/andriyanb/autotrader/internal/notifier"
	"github.com/andriyanb/autotrader/internal/order"
	"github.com/andriyanb/autotrader/internal/risk"
	"github.com/andriyanb/autotrader/internal/signal"
	"github.com/andriyanb/autotrader/internal/sizing"
)

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})

	cfg := config.MustLoad()
	log.Info().Str("gateway", cfg.Gateway).Str("mode", cfg.Mode).
		Strs("symbols", cfg.Symbols).Msg("starting autotrader")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	ossignal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		log.Info().Str("signal", sig.String()).Msg("shutting down")
		cancel()
	}()

	// Storage: Postgres when configured, in-memory otherwise.
	var store db.Storage
	if cfg.DBConnStr != "" {
		pg, err := db.NewPostgres(cfg.DBConnStr)
		if err != nil {
			log.Fatal().Err(err).Msg("connecting to postgres")
		}
		defer pg.Close()
		store = pg
		log.Info().Msg("connected to postgres")
	} else {
		store = db.NewMemory()
		log.Info().Msg("using in-memory storage")
	}

	var notify notifier.Notifier = notifier.Noop{}
	if cfg.TelegramToken != "" {
		notify = notifier.NewTelegramNotifier(cfg.TelegramToken, cfg.TelegramChatID)
	}

	gw := buildGateway(cfg)
	guard := newGuard(ctx, cfg, gw)
	scorer := signal.NewScorer(signal.ScorerConfig{})
	sizer := sizing.Sizer{
		BaseLot:           cfg.BaseLot,
		MinBalance:        cfg.MinBalance,
		DailyLossLimitPct: cfg.DailyLossLimitPct,
	}

	opts := []engine.Option{
		engine.WithOrderListener(func(o order.Order) {
			if o.State == order.Closed {
				log.Info().Str("symbol", o.Symbol).Float64("pnl", o.RealizedPnL).Msg("trade closed")
			}
		}),
		engine.WithNotifier(notify),
	}
	if cfg.ConfirmTimeout > 0 {
		opts = append(opts, engine.WithConfirmTimeout(cfg.ConfirmTimeout))
	}
	if !cfg.AroundTheClock() {
		opts = append(opts, engine.WithWindow(engine.TradingHours(cfg.TradingHoursOpen, cfg.TradingHoursClose)))
	}

	eng, err := engine.New(cfg.Symbols, cfg.TradingMode(), gw, guard, scorer, sizer, store, opts...)
	if err != nil {
		log.Fatal().Err(err).Msg("building engine")
	}

	if cfg.MetricsAddr != "" {
		go metrics.Serve(cfg.MetricsAddr)
	}

	notify.SendWithRetry("Autotrader started in " + cfg.Mode + " mode")
	eng.Run(ctx)
	notify.SendWithRetry("Autotrader stopped")
}

func buildGateway(cfg config.Config) gateway.Gateway {
	switch cfg.Gateway {
	case "wallex":
		return gateway.NewWallex(cfg.WallexAPIKey, cfg.QuoteAsset)
	default:
		start := make(map[string]float64, len(cfg.Symbols))
		for _, symbol := range cfg.Symbols {
			start[symbol] = startPrice(symbol)
		}
		walk := marketdata.NewRandomWalk(start, 0.05, time.Now().UnixNano())
		return gateway.NewSimulated(walk, cfg.StartBalance, cfg.SlippagePips)
	}
}

// startPrice seeds the synthetic walk with a plausible level per family.
func startPrice(symbol string) float64 {
	up := strings.ToUpper(symbol)
	switch {
	case strings.Contains(up, "XAU"):
		return 2400
	case strings.Contains(up, "BTC"):
		return 60_000
	case strings.Contains(up, "JPY"):
		return 150
	default:
		return 1.1
	}
}

// newGuard sizes the risk limits off the live balance when available,
// falling back to the configured start balance.
func newGuard(ctx context.Context, cfg config.Config, gw gateway.Gateway) *risk.Guard {
	balance := cfg.StartBalance
	if b, err := gw.Balance(ctx); err == nil && b > 0 {
		balance = b
	} else if err != nil {
		log.Warn().Err(err).Msg("balance unavailable at startup, using configured start balance")
	}
	return risk.NewGuard(risk.Limits{
		DailyLossLimitPct: cfg.DailyLossLimitPct,
		MaxDrawdownPct:    cfg.MaxDrawdownPct,
	}, balance)
}
