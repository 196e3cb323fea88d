// Package position drives orders through their lifecycle: submission to
// the execution gateway, target monitoring against the current price, and
// closure back into the risk guard.
package position

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/andriyanb/autotrader/internal/gateway"
	"github.com/andriyanb/autotrader/internal/instrument"
	"github.com/andriyanb/autotrader/internal/journal"
	"github.com/andriyanb/autotrader/internal/metrics"
	"github.com/andriyanb/autotrader/internal/notifier"
	"github.com/andriyanb/autotrader/internal/order"
	"github.com/andriyanb/autotrader/internal/risk"
	"github.com/andriyanb/autotrader/internal/signal"
)

// Store persists order snapshots and journaled events.
type Store interface {
	SaveOrder(ctx context.Context, o order.Order) error
	LogEvent(event journal.Event) error
}

// Listener observes every order state change.
type Listener func(o order.Order)

// ErrHalted is returned by Submit while an emergency stop is in force.
var ErrHalted = errors.New("position: submissions halted")

const defaultConfirmTimeout = 10 * time.Second

// Manager owns the orders of one instrument. Submission and target
// polling are mutually exclusive; an order's state is never read and
// mutated by two cycles at once.
type Manager struct {
	symbol         string
	gw             gateway.Gateway
	guard          *risk.Guard
	store          Store
	notify         notifier.Notifier
	meta           instrument.Metadata
	confirmTimeout time.Duration
	onChange       Listener
	halted         atomic.Bool

	mu     sync.Mutex
	active map[string]*order.Order
}

// Option configures a Manager.
type Option func(*Manager)

func WithNotifier(n notifier.Notifier) Option {
	return func(m *Manager) { m.notify = n }
}

func WithListener(l Listener) Option {
	return func(m *Manager) { m.onChange = l }
}

func WithConfirmTimeout(d time.Duration) Option {
	return func(m *Manager) { m.confirmTimeout = d }
}

func NewManager(symbol string, gw gateway.Gateway, guard *risk.Guard, store Store, opts ...Option) *Manager {
	m := &Manager{
		symbol:         symbol,
		gw:             gw,
		guard:          guard,
		store:          store,
		notify:         notifier.Noop{},
		meta:           instrument.Resolve(symbol),
		confirmTimeout: defaultConfirmTimeout,
		active:         make(map[string]*order.Order),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Halt refuses all further submissions until Resume. Set before an
// emergency cancel sweep so a submission racing the sweep cannot slip a
// fresh order past it.
func (m *Manager) Halt() { m.halted.Store(true) }

// Resume lifts a halt.
func (m *Manager) Resume() { m.halted.Store(false) }

// Submit takes an authorized request through Submitted into Monitoring.
// On gateway rejection or confirmation timeout the order ends Failed, the
// risk reservation is handed back and the error is returned for reporting;
// the same request is never retried within the cycle.
func (m *Manager) Submit(ctx context.Context, req order.Request) (order.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	// Checked under the mutex: once CancelAll has run, no submission that
	// waited out the sweep may still go live.
	if m.halted.Load() {
		m.guard.Release(m.symbol)
		return order.Order{Request: req, State: order.Proposed}, ErrHalted
	}

	o := &order.Order{Request: req, State: order.Proposed}

	m.transition(ctx, o, order.Submitted, "submitting to "+m.gw.Name())

	placeCtx, cancel := context.WithTimeout(ctx, m.confirmTimeout)
	defer cancel()

	fill, err := m.gw.PlaceOrder(placeCtx, req)
	if err != nil {
		if placeCtx.Err() != nil && !errors.Is(err, gateway.ErrRejected) {
			err = fmt.Errorf("%w: no confirmation within %s", gateway.ErrTimeout, m.confirmTimeout)
		}
		m.transition(ctx, o, order.Failed, err.Error())
		m.guard.Release(m.symbol)
		m.send(fmt.Sprintf("Order %s %s failed: %v", m.symbol, req.Direction, err))
		return *o, err
	}

	o.Ticket = fill.Ticket
	o.FillPrice = fill.Price
	o.OpenedAt = fill.Time
	m.transition(ctx, o, order.Open, "filled at "+fmt.Sprintf("%.5f", fill.Price))
	m.transition(ctx, o, order.Monitoring, "watching targets")

	m.active[o.ID] = o
	m.send(fmt.Sprintf("Order %s %s %.2f lots filled at %.5f (ticket %s)",
		m.symbol, req.Direction, req.Lots, fill.Price, fill.Ticket))
	return *o, nil
}

// CheckTargets polls the current price once and closes every monitored
// order whose TP or SL has been crossed. An unavailable price skips the
// poll without touching any state.
func (m *Manager) CheckTargets(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.active) == 0 {
		return
	}

	price, err := m.gw.CurrentPrice(ctx, m.symbol)
	if err != nil {
		log.Warn().Err(err).Str("symbol", m.symbol).Msg("price unavailable, skipping target check")
		return
	}

	for _, o := range m.active {
		if o.State != order.Monitoring {
			continue
		}
		if hit, target := targetHit(o, price); hit {
			m.close(ctx, o, fmt.Sprintf("%s hit at %.5f", target, price))
		} else {
			o.UnrealizedPnL = o.PnLAt(price, m.meta.PipValue(o.Lots), m.meta.PipSize)
		}
	}
}

// targetHit reports whether price has crossed the order's TP or SL.
func targetHit(o *order.Order, price float64) (bool, string) {
	if o.Direction == signal.Long {
		switch {
		case price >= o.TakeProfit:
			return true, "take-profit"
		case price <= o.StopLoss:
			return true, "stop-loss"
		}
	} else {
		switch {
		case price <= o.TakeProfit:
			return true, "take-profit"
		case price >= o.StopLoss:
			return true, "stop-loss"
		}
	}
	return false, ""
}

// close requests closure from the gateway and folds the confirmed result
// into the risk guard. A ticket unknown to the gateway is fatal to this
// order only: it is forced out as Cancelled and flagged for
// reconciliation.
func (m *Manager) close(ctx context.Context, o *order.Order, why string) {
	res, err := m.gw.CloseOrder(ctx, o.Ticket)
	if err != nil {
		if errors.Is(err, gateway.ErrUnknownTicket) {
			log.Error().Str("symbol", m.symbol).Str("ticket", o.Ticket).
				Msg("gateway lost track of ticket, needs reconciliation")
			m.transition(ctx, o, order.Cancelled, "ticket unknown to gateway: "+o.Ticket)
			m.guard.Release(m.symbol)
			delete(m.active, o.ID)
			m.send(fmt.Sprintf("RECONCILE %s: ticket %s unknown to gateway", m.symbol, o.Ticket))
			return
		}
		// Transient failure: the order stays monitored, next poll retries.
		log.Warn().Err(err).Str("symbol", m.symbol).Str("ticket", o.Ticket).Msg("close failed")
		return
	}

	o.RealizedPnL = res.RealizedPnL
	o.ClosedAt = res.Time
	m.transition(ctx, o, order.Closed, why)
	m.guard.RecordClosure(*o)
	delete(m.active, o.ID)
	m.send(fmt.Sprintf("Order %s closed (%s), P/L %.2f", m.symbol, why, res.RealizedPnL))
}

// CancelAll force-closes every live order at market. Used by the
// emergency stop: every order ends Cancelled and its realized result,
// however bad, is recorded against the session.
func (m *Manager) CancelAll(ctx context.Context) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, o := range m.active {
		res, err := m.gw.CloseOrder(ctx, o.Ticket)
		if err != nil {
			log.Error().Err(err).Str("symbol", m.symbol).Str("ticket", o.Ticket).
				Msg("emergency close failed, recording at last known price")
			if price, perr := m.gw.CurrentPrice(ctx, m.symbol); perr == nil {
				o.RealizedPnL = o.PnLAt(price, m.meta.PipValue(o.Lots), m.meta.PipSize)
			}
		} else {
			o.RealizedPnL = res.RealizedPnL
			o.ClosedAt = res.Time
		}
		m.transition(ctx, o, order.Cancelled, "emergency stop")
		m.guard.RecordClosure(*o)
		delete(m.active, o.ID)
	}
	m.send(fmt.Sprintf("Emergency stop: %s positions cancelled", m.symbol))
}

// send delivers a notification without holding up the caller. The
// notifier's retry backoff must never stall submission or target polling,
// so delivery runs off the lock.
func (m *Manager) send(msg string) {
	go func() {
		if err := m.notify.SendWithRetry(msg); err != nil {
			log.Warn().Err(err).Str("symbol", m.symbol).Msg("notification delivery failed")
		}
	}()
}

// Active returns a snapshot of the live orders.
func (m *Manager) Active() []order.Order {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make([]order.Order, 0, len(m.active))
	for _, o := range m.active {
		out = append(out, *o)
	}
	return out
}

// transition applies a state change, persists it and fans it out. Illegal
// transitions are logged and dropped rather than corrupting the order.
func (m *Manager) transition(ctx context.Context, o *order.Order, to order.State, why string) {
	if !o.State.CanTransition(to) {
		log.Error().Str("symbol", m.symbol).Str("order", o.ID).
			Str("from", o.State.String()).Str("to", to.String()).
			Msg("illegal state transition dropped")
		return
	}
	from := o.State
	o.State = to

	log.Info().Str("symbol", m.symbol).Str("order", o.ID).
		Str("from", from.String()).Str("to", to.String()).Str("why", why).
		Msg("order transition")

	metrics.Observer.Order(m.symbol, to.String())

	if m.store != nil {
		if err := m.store.SaveOrder(ctx, *o); err != nil {
			log.Error().Err(err).Str("order", o.ID).Msg("saving order")
		}
		if err := m.store.LogEvent(journal.OrderEvent(m.symbol, why, map[string]any{
			"order": o.ID, "from": from.String(), "to": to.String(),
		})); err != nil {
			log.Error().Err(err).Str("order", o.ID).Msg("journaling order event")
		}
	}
	if m.onChange != nil {
		m.onChange(*o)
	}
}
