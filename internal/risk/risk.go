// Package risk maintains session-level risk state and decides whether new
// exposure is allowed. Authorize and RecordClosure are serialized by one
// mutex so two cycles can never both be granted a budget sized for one.
package risk

import (
	"fmt"
	"sync"
	"time"

	"github.com/andriyanb/autotrader/internal/mode"
	"github.com/andriyanb/autotrader/internal/order"
)

// Reason explains a denial. Not an error in the operational sense: a
// denial is an expected outcome of a working circuit breaker.
type Reason string

const (
	ReasonDailyLoss         Reason = "daily_loss_limit"
	ReasonDrawdown          Reason = "max_drawdown"
	ReasonConsecutiveLosses Reason = "consecutive_losses"
	ReasonSessionLimit      Reason = "session_order_limit"
	ReasonConcurrentLimit   Reason = "concurrent_order_limit"
)

// Denial is the error returned by Authorize when a check fails. The first
// failing check wins.
type Denial struct {
	Reason Reason
	Detail string
}

func (d *Denial) Error() string {
	return fmt.Sprintf("risk denied (%s): %s", d.Reason, d.Detail)
}

// Limits are the session-wide circuit breakers, independent of mode.
type Limits struct {
	DailyLossLimitPct float64 // realized daily loss, percent of day-start balance
	MaxDrawdownPct    float64 // drawdown from peak equity, percent
}

// State is a snapshot of the session risk bookkeeping.
type State struct {
	Day               time.Time
	DayStartBalance   float64
	RealizedPnL       float64
	Equity            float64
	PeakEquity        float64
	DrawdownPct       float64
	OrdersToday       int
	ConsecutiveLosses int
	OpenOrders        map[string]int
	CooldownUntil     time.Time
}

// Guard holds the mutable session risk state.
type Guard struct {
	mu     sync.Mutex
	limits Limits

	day             time.Time
	dayStartBalance float64
	realizedPnL     float64
	peakEquity      float64
	ordersToday     int
	lossStreak      int
	cooldownUntil   time.Time

	open          map[string]int      // non-terminal orders per instrument
	closedTickets map[string]struct{} // closure idempotence

	now func() time.Time
}

// Option configures a Guard.
type Option func(*Guard)

// WithClock injects a clock, used by tests to steer day rollover and
// cooldown expiry.
func WithClock(now func() time.Time) Option {
	return func(g *Guard) { g.now = now }
}

// NewGuard starts a session with the given day-start balance.
func NewGuard(limits Limits, dayStartBalance float64, opts ...Option) *Guard {
	g := &Guard{
		limits:          limits,
		dayStartBalance: dayStartBalance,
		peakEquity:      dayStartBalance,
		open:            make(map[string]int),
		closedTickets:   make(map[string]struct{}),
		now:             time.Now,
	}
	for _, opt := range opts {
		opt(g)
	}
	g.day = dateOf(g.now())
	return g
}

func dateOf(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Authorize runs the circuit-breaker checks in order and, when all pass,
// reserves one slot in the session and per-instrument budgets. A failed
// submission must hand the reservation back via Release.
func (g *Guard) Authorize(symbol string, mc mode.Config) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	g.rollover(now)

	equity := g.dayStartBalance + g.realizedPnL

	// (a) daily realized loss against day-start balance
	if g.limits.DailyLossLimitPct > 0 {
		limit := g.dayStartBalance * g.limits.DailyLossLimitPct / 100
		if -g.realizedPnL > limit {
			return &Denial{ReasonDailyLoss, fmt.Sprintf("realized %.2f exceeds limit %.2f", g.realizedPnL, limit)}
		}
	}

	// (b) drawdown from peak equity
	if g.limits.MaxDrawdownPct > 0 && g.peakEquity > 0 {
		dd := (g.peakEquity - equity) / g.peakEquity * 100
		if dd > g.limits.MaxDrawdownPct {
			return &Denial{ReasonDrawdown, fmt.Sprintf("drawdown %.2f%% exceeds limit %.2f%%", dd, g.limits.MaxDrawdownPct)}
		}
	}

	// (c) consecutive-loss circuit breaker with cooldown
	if g.lossStreak >= mc.MaxConsecutiveLosses {
		if g.cooldownUntil.IsZero() {
			g.cooldownUntil = now.Add(mc.Cooldown)
		}
		if now.Before(g.cooldownUntil) {
			return &Denial{ReasonConsecutiveLosses, fmt.Sprintf("%d straight losses, cooling down until %s", g.lossStreak, g.cooldownUntil.Format(time.RFC3339))}
		}
		// Cooldown served; arm the breaker again.
		g.lossStreak = 0
		g.cooldownUntil = time.Time{}
	}

	// (d) session order budget
	if g.ordersToday >= mc.MaxOrdersPerSession {
		return &Denial{ReasonSessionLimit, fmt.Sprintf("%d of %d session orders used", g.ordersToday, mc.MaxOrdersPerSession)}
	}

	// (e) per-instrument concurrency
	if g.open[symbol] >= mc.MaxConcurrentOrders {
		return &Denial{ReasonConcurrentLimit, fmt.Sprintf("%s has %d of %d open orders", symbol, g.open[symbol], mc.MaxConcurrentOrders)}
	}

	g.ordersToday++
	g.open[symbol]++
	return nil
}

// Release hands back a reservation after a submission that never became an
// order (gateway rejection or timeout).
func (g *Guard) Release(symbol string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.open[symbol] > 0 {
		g.open[symbol]--
	}
	if g.ordersToday > 0 {
		g.ordersToday--
	}
}

// RecordClosure folds a terminal order into the session state. Duplicate
// closure events for the same ticket are ignored so gateway replays cannot
// double-count P/L.
func (g *Guard) RecordClosure(o order.Order) {
	g.mu.Lock()
	defer g.mu.Unlock()

	key := o.Ticket
	if key == "" {
		key = o.ID
	}
	if _, dup := g.closedTickets[key]; dup {
		return
	}
	g.closedTickets[key] = struct{}{}

	g.rollover(g.now())

	if g.open[o.Symbol] > 0 {
		g.open[o.Symbol]--
	}

	g.realizedPnL += o.RealizedPnL
	if o.RealizedPnL > 0 {
		g.lossStreak = 0
		g.cooldownUntil = time.Time{}
	} else if o.RealizedPnL < 0 {
		g.lossStreak++
	}

	if equity := g.dayStartBalance + g.realizedPnL; equity > g.peakEquity {
		g.peakEquity = equity
	}
}

// RiskScale returns the lot scaling factor for the next order: reduced
// after a losing streak, reduced hard when the day is already deep in the
// red.
func (g *Guard) RiskScale() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.dayStartBalance > 0 && -g.realizedPnL > g.dayStartBalance*0.05 {
		return 0.3
	}
	if g.lossStreak > 2 {
		return 0.5
	}
	return 1.0
}

// Summary returns a copy of the session risk state for display layers.
func (g *Guard) Summary() State {
	g.mu.Lock()
	defer g.mu.Unlock()

	equity := g.dayStartBalance + g.realizedPnL
	var dd float64
	if g.peakEquity > 0 {
		dd = (g.peakEquity - equity) / g.peakEquity * 100
	}

	open := make(map[string]int, len(g.open))
	for k, v := range g.open {
		if v > 0 {
			open[k] = v
		}
	}

	return State{
		Day:               g.day,
		DayStartBalance:   g.dayStartBalance,
		RealizedPnL:       g.realizedPnL,
		Equity:            equity,
		PeakEquity:        g.peakEquity,
		DrawdownPct:       dd,
		OrdersToday:       g.ordersToday,
		ConsecutiveLosses: g.lossStreak,
		OpenOrders:        open,
		CooldownUntil:     g.cooldownUntil,
	}
}

// rollover resets the daily budgets when the date changes. The new
// day-start balance is the carried equity; open-order counts survive
// since the positions themselves do. Callers hold the mutex.
func (g *Guard) rollover(now time.Time) {
	today := dateOf(now)
	if today.Equal(g.day) {
		return
	}
	equity := g.dayStartBalance + g.realizedPnL
	g.day = today
	g.dayStartBalance = equity
	g.realizedPnL = 0
	g.ordersToday = 0
	g.lossStreak = 0
	g.cooldownUntil = time.Time{}
	g.peakEquity = equity
}
