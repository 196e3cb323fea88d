package gateway

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/andriyanb/autotrader/internal/instrument"
	"github.com/andriyanb/autotrader/internal/order"
	"github.com/andriyanb/autotrader/internal/signal"
)

// PriceSource yields the current price for a symbol.
type PriceSource interface {
	Price(symbol string) (float64, error)
}

type simPosition struct {
	symbol    string
	direction signal.Direction
	lots      float64
	fillPrice float64
}

// Simulated fills orders at the source price plus slippage and settles
// closures against the account balance. Tickets are generated from a
// counter so runs are reproducible.
type Simulated struct {
	source       PriceSource
	slippagePips float64

	mu        sync.Mutex
	balance   float64
	counter   int64
	positions map[string]simPosition
}

// NewSimulated starts a paper account with the given balance. slippagePips
// worsens every fill by that many pips in the adverse direction.
func NewSimulated(source PriceSource, startBalance, slippagePips float64) *Simulated {
	return &Simulated{
		source:       source,
		slippagePips: slippagePips,
		balance:      startBalance,
		counter:      1000,
		positions:    make(map[string]simPosition),
	}
}

func (s *Simulated) Name() string { return "simulated" }

func (s *Simulated) PlaceOrder(ctx context.Context, req order.Request) (Fill, error) {
	if err := ctx.Err(); err != nil {
		return Fill{}, fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	if req.Direction == signal.None {
		return Fill{}, fmt.Errorf("%w: directionless request %s", ErrRejected, req.ID)
	}
	if req.Lots <= 0 {
		return Fill{}, fmt.Errorf("%w: non-positive lot %v", ErrRejected, req.Lots)
	}

	price, err := s.source.Price(req.Symbol)
	if err != nil {
		return Fill{}, fmt.Errorf("%w: %s: %v", ErrUnavailable, req.Symbol, err)
	}

	md := instrument.Resolve(req.Symbol)
	slip := s.slippagePips * md.PipSize
	if req.Direction == signal.Long {
		price += slip
	} else {
		price -= slip
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.counter++
	ticket := fmt.Sprintf("SIM-%d", s.counter)
	s.positions[ticket] = simPosition{
		symbol:    req.Symbol,
		direction: req.Direction,
		lots:      req.Lots,
		fillPrice: price,
	}

	log.Debug().Str("ticket", ticket).Str("symbol", req.Symbol).
		Float64("price", price).Float64("lots", req.Lots).
		Msg("simulated fill")

	return Fill{Ticket: ticket, Price: price, Time: time.Now().UTC()}, nil
}

func (s *Simulated) CloseOrder(ctx context.Context, ticket string) (CloseResult, error) {
	if err := ctx.Err(); err != nil {
		return CloseResult{}, fmt.Errorf("%w: %v", ErrTimeout, err)
	}

	s.mu.Lock()
	pos, ok := s.positions[ticket]
	s.mu.Unlock()
	if !ok {
		return CloseResult{}, fmt.Errorf("%w: %s", ErrUnknownTicket, ticket)
	}

	price, err := s.source.Price(pos.symbol)
	if err != nil {
		return CloseResult{}, fmt.Errorf("%w: %s: %v", ErrUnavailable, pos.symbol, err)
	}

	md := instrument.Resolve(pos.symbol)
	slip := s.slippagePips * md.PipSize
	if pos.direction == signal.Long {
		price -= slip
	} else {
		price += slip
	}

	pips := (price - pos.fillPrice) / md.PipSize
	if pos.direction == signal.Short {
		pips = -pips
	}
	pnl := pips * md.PipValue(pos.lots)

	s.mu.Lock()
	delete(s.positions, ticket)
	s.balance += pnl
	s.mu.Unlock()

	log.Debug().Str("ticket", ticket).Float64("price", price).
		Float64("pnl", pnl).Msg("simulated close")

	return CloseResult{Ticket: ticket, Price: price, RealizedPnL: pnl, Time: time.Now().UTC()}, nil
}

func (s *Simulated) Balance(ctx context.Context) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.balance, nil
}

func (s *Simulated) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	price, err := s.source.Price(symbol)
	if err != nil {
		return 0, fmt.Errorf("%w: %s: %v", ErrUnavailable, symbol, err)
	}
	return price, nil
}

// OpenPositions reports the number of unclosed simulated positions.
func (s *Simulated) OpenPositions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.positions)
}
