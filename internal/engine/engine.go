// Package engine runs the evaluation loop: one repeating cycle per
// instrument, paced by the active mode's scan interval, each cycle going
// snapshot, score, risk, size, submit.
package engine

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/andriyanb/autotrader/internal/gateway"
	"github.com/andriyanb/autotrader/internal/instrument"
	"github.com/andriyanb/autotrader/internal/journal"
	"github.com/andriyanb/autotrader/internal/marketdata"
	"github.com/andriyanb/autotrader/internal/metrics"
	"github.com/andriyanb/autotrader/internal/mode"
	"github.com/andriyanb/autotrader/internal/notifier"
	"github.com/andriyanb/autotrader/internal/order"
	"github.com/andriyanb/autotrader/internal/position"
	"github.com/andriyanb/autotrader/internal/risk"
	"github.com/andriyanb/autotrader/internal/signal"
	"github.com/andriyanb/autotrader/internal/sizing"
)

// Window decides whether new orders may be proposed at a given time.
// Monitoring of live orders continues regardless.
type Window func(time.Time) bool

// Always trades around the clock.
func Always(time.Time) bool { return true }

// TradingHours restricts proposals to [open, close) UTC hours.
func TradingHours(open, close int) Window {
	return func(t time.Time) bool {
		h := t.UTC().Hour()
		return h >= open && h < close
	}
}

// Scorer turns an indicator snapshot into a scored signal.
type Scorer interface {
	Score(snap signal.Snapshot, mc mode.Config) signal.Signal
}

// Engine coordinates the per-instrument cycles against the shared risk
// guard and gateway.
type Engine struct {
	symbols  []string
	gw       gateway.Gateway
	guard    *risk.Guard
	scorer   Scorer
	sizer    sizing.Sizer
	history  *marketdata.History
	managers map[string]*position.Manager
	store    position.Store
	window   Window

	modeCfg atomic.Value // mode.Config
	halted  atomic.Bool

	onSignal       func(string, signal.Signal)
	onRiskDenied   func(string, risk.Reason)
	orderListener  position.Listener
	notify         notifier.Notifier
	confirmTimeout time.Duration

	wg sync.WaitGroup
}

// Option configures the engine.
type Option func(*Engine)

// WithWindow installs the evaluation-window predicate.
func WithWindow(w Window) Option {
	return func(g *Engine) { g.window = w }
}

// WithSignalListener observes every evaluated signal.
func WithSignalListener(fn func(symbol string, sig signal.Signal)) Option {
	return func(g *Engine) { g.onSignal = fn }
}

// WithRiskDeniedListener observes every risk refusal.
func WithRiskDeniedListener(fn func(symbol string, reason risk.Reason)) Option {
	return func(g *Engine) { g.onRiskDenied = fn }
}

// WithOrderListener observes every order state change.
func WithOrderListener(fn position.Listener) Option {
	return func(g *Engine) { g.orderListener = fn }
}

// WithNotifier forwards fills, closures and emergencies to a notifier.
func WithNotifier(n notifier.Notifier) Option {
	return func(g *Engine) { g.notify = n }
}

// WithConfirmTimeout bounds the wait for gateway confirmations.
func WithConfirmTimeout(d time.Duration) Option {
	return func(g *Engine) { g.confirmTimeout = d }
}

// New builds an engine over the given instruments. The initial mode must
// resolve and validate or New fails.
func New(symbols []string, m mode.Mode, gw gateway.Gateway, guard *risk.Guard,
	scorer Scorer, sizer sizing.Sizer, store position.Store, opts ...Option) (*Engine, error) {

	cfg, err := mode.Resolve(m)
	if err != nil {
		return nil, err
	}
	if err := mode.Validate(cfg); err != nil {
		return nil, err
	}

	eng := &Engine{
		symbols:  symbols,
		gw:       gw,
		guard:    guard,
		scorer:   scorer,
		sizer:    sizer,
		history:  marketdata.NewHistory(4 * signal.MinDataPoints),
		managers: make(map[string]*position.Manager, len(symbols)),
		store:    store,
		window:   Always,
	}
	eng.modeCfg.Store(cfg)
	for _, opt := range opts {
		opt(eng)
	}

	for _, symbol := range symbols {
		mopts := []position.Option{}
		if eng.orderListener != nil {
			mopts = append(mopts, position.WithListener(eng.orderListener))
		}
		if eng.notify != nil {
			mopts = append(mopts, position.WithNotifier(eng.notify))
		}
		if eng.confirmTimeout > 0 {
			mopts = append(mopts, position.WithConfirmTimeout(eng.confirmTimeout))
		}
		eng.managers[symbol] = position.NewManager(symbol, gw, guard, store, mopts...)
	}
	return eng, nil
}

// Run starts one cycle goroutine per instrument and blocks until ctx is
// cancelled and every cycle has drained.
func (g *Engine) Run(ctx context.Context) {
	g.logEvent(journal.EngineEvent("engine started", map[string]any{
		"mode": string(g.ModeConfig().Mode), "symbols": g.symbols,
	}))

	for _, symbol := range g.symbols {
		g.wg.Add(1)
		go g.loop(ctx, symbol)
	}
	g.wg.Wait()

	g.logEvent(journal.EngineEvent("engine stopped", nil))
}

// loop is the per-instrument cycle. The interval is re-read every pass so
// a mode switch repaces the loop without restarting it.
func (g *Engine) loop(ctx context.Context, symbol string) {
	defer g.wg.Done()

	timer := time.NewTimer(g.ModeConfig().ScanInterval)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-timer.C:
		}

		g.cycle(ctx, symbol)
		timer.Reset(g.ModeConfig().ScanInterval)
	}
}

// cycle runs one evaluation pass for the instrument. Unavailable data
// skips the pass without touching any state; risk refusals are expected
// outcomes, not errors.
func (g *Engine) cycle(ctx context.Context, symbol string) {
	if g.halted.Load() {
		return
	}

	mc := g.ModeConfig()
	man := g.managers[symbol]

	price, err := g.gw.CurrentPrice(ctx, symbol)
	if err != nil {
		log.Warn().Err(err).Str("symbol", symbol).Msg("price unavailable, skipping cycle")
		return
	}
	g.history.Append(symbol, price)

	// Live orders first so TP/SL hits are not starved by scoring work.
	man.CheckTargets(ctx)

	if !g.window(time.Now()) {
		return
	}

	snap, err := signal.BuildSnapshot(symbol, time.Now().UTC(), g.history.Prices(symbol))
	if err != nil {
		log.Debug().Err(err).Str("symbol", symbol).Msg("not enough data for a snapshot")
		return
	}

	sig := g.scorer.Score(snap, mc)
	metrics.Observer.Signal(symbol, sig.Direction.String())
	if g.onSignal != nil {
		g.onSignal(symbol, sig)
	}

	if !sig.Qualifies(mc) {
		return
	}

	if err := g.guard.Authorize(symbol, mc); err != nil {
		var denial *risk.Denial
		if errors.As(err, &denial) {
			metrics.Observer.RiskDenial(symbol, string(denial.Reason))
			g.logEvent(journal.RiskEvent(symbol, denial.Error(), map[string]any{
				"reason": string(denial.Reason),
			}))
			if g.onRiskDenied != nil {
				g.onRiskDenied(symbol, denial.Reason)
			}
		} else {
			log.Error().Err(err).Str("symbol", symbol).Msg("authorize failed")
		}
		return
	}

	// A stop raised since the cycle began must win before any order
	// leaves the building.
	if g.halted.Load() {
		g.guard.Release(symbol)
		return
	}

	balance, err := g.gw.Balance(ctx)
	if err != nil {
		g.guard.Release(symbol)
		log.Warn().Err(err).Str("symbol", symbol).Msg("balance unavailable, skipping cycle")
		return
	}

	req, err := g.sizer.Build(sig, balance, instrument.Resolve(symbol), mc, g.guard.RiskScale())
	if err != nil {
		g.guard.Release(symbol)
		log.Warn().Err(err).Str("symbol", symbol).Msg("sizing refused the signal")
		return
	}

	// Submit owns the reservation from here: it is handed back inside on
	// rejection, timeout or a halt that landed since authorization.
	if _, err := man.Submit(ctx, req); err != nil {
		if errors.Is(err, position.ErrHalted) {
			log.Info().Str("symbol", symbol).Msg("submission refused, trading halted")
		} else {
			log.Warn().Err(err).Str("symbol", symbol).Str("order", req.ID).Msg("submission failed")
		}
	}
}

// SetMode swaps the active parameter set. In-flight orders keep the
// targets they were built with; only newly proposed orders see the new
// mode.
func (g *Engine) SetMode(m mode.Mode) error {
	cfg, err := mode.Resolve(m)
	if err != nil {
		return err
	}
	if err := mode.Validate(cfg); err != nil {
		return err
	}

	prev := g.ModeConfig().Mode
	g.modeCfg.Store(cfg)
	log.Info().Str("from", string(prev)).Str("to", string(m)).Msg("mode switched")
	g.logEvent(journal.EngineEvent("mode switched", map[string]any{
		"from": string(prev), "to": string(m),
	}))
	return nil
}

// ModeConfig returns the active parameter set.
func (g *Engine) ModeConfig() mode.Config {
	return g.modeCfg.Load().(mode.Config)
}

// TriggerEmergencyStop halts all proposals and force-cancels every live
// order at market. Realized results, even negative, are recorded against
// the session. Proposals stay halted until Resume.
func (g *Engine) TriggerEmergencyStop(ctx context.Context) {
	if !g.halted.CompareAndSwap(false, true) {
		return
	}
	log.Error().Msg("emergency stop triggered")
	g.logEvent(journal.EngineEvent("emergency stop", nil))

	// Latch every manager before sweeping so a cycle that already passed
	// the engine-level check is refused at the manager instead.
	for _, man := range g.managers {
		man.Halt()
	}
	for _, man := range g.managers {
		man.CancelAll(ctx)
	}
}

// Resume lifts an emergency stop.
func (g *Engine) Resume() {
	if g.halted.CompareAndSwap(true, false) {
		for _, man := range g.managers {
			man.Resume()
		}
		log.Info().Msg("trading resumed")
		g.logEvent(journal.EngineEvent("resumed", nil))
	}
}

// Halted reports whether an emergency stop is in force.
func (g *Engine) Halted() bool { return g.halted.Load() }

// RiskSummary exposes the session risk snapshot for display layers.
func (g *Engine) RiskSummary() risk.State { return g.guard.Summary() }

// ActiveOrders returns the live orders across all instruments.
func (g *Engine) ActiveOrders() []order.Order {
	var out []order.Order
	for _, man := range g.managers {
		out = append(out, man.Active()...)
	}
	return out
}

func (g *Engine) logEvent(e journal.Event) {
	if g.store == nil {
		return
	}
	if err := g.store.LogEvent(e); err != nil {
		log.Error().Err(err).Str("type", e.Type).Msg("journaling engine event")
	}
}
