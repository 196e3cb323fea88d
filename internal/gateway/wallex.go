package gateway

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
	wallex "github.com/wallexchange/wallex-go"

	"github.com/andriyanb/autotrader/internal/order"
	"github.com/andriyanb/autotrader/internal/signal"
)

// Wallex executes against the Wallex spot API. Positions are emulated on
// top of spot orders: a close places the opposite-side market order for
// the same quantity and reports the price difference as the realized
// result.
type Wallex struct {
	client *wallex.Client
	quote  string

	mu        sync.Mutex
	positions map[string]simPosition
}

// NewWallex connects with the given API key. quote is the quote asset the
// balance is read in, e.g. "TMN" or "USDT".
func NewWallex(apiKey, quote string) *Wallex {
	return &Wallex{
		client:    wallex.New(wallex.ClientOptions{APIKey: apiKey}),
		quote:     quote,
		positions: make(map[string]simPosition),
	}
}

func (w *Wallex) Name() string { return "wallex" }

// retryCall wraps transient API errors with exponential backoff capped at
// one minute.
func retryCall(attempts int, delay time.Duration, fn func() error) error {
	backoff := delay
	var err error
	for i := 1; i <= attempts; i++ {
		if err = fn(); err == nil {
			return nil
		}
		log.Warn().Err(err).Int("attempt", i).Int("max", attempts).
			Dur("backoff", backoff).Msg("wallex call failed, backing off")
		time.Sleep(backoff)
		if backoff < time.Minute {
			backoff *= 2
			if backoff > time.Minute {
				backoff = time.Minute
			}
		}
	}
	return err
}

func sideFor(d signal.Direction) string {
	if d == signal.Short {
		return "SELL"
	}
	return "BUY"
}

func flip(side string) string {
	if side == "BUY" {
		return "SELL"
	}
	return "BUY"
}

func (w *Wallex) PlaceOrder(ctx context.Context, req order.Request) (Fill, error) {
	select {
	case <-ctx.Done():
		return Fill{}, fmt.Errorf("%w: %v", ErrTimeout, ctx.Err())
	default:
	}

	params := &wallex.OrderParams{
		Symbol:   normalizeSymbol(req.Symbol),
		Type:     "MARKET",
		Side:     sideFor(req.Direction),
		Quantity: wallex.Number(strconv.FormatFloat(req.Lots, 'f', 8, 64)),
	}

	var resp *wallex.Order
	err := retryCall(3, 2*time.Second, func() error {
		var err error
		resp, err = w.client.PlaceOrder(params)
		return err
	})
	if err != nil {
		return Fill{}, fmt.Errorf("%w: %v", ErrRejected, err)
	}

	price := number(resp.ExecutedPrice)
	ticket := resp.ClientOrderID

	w.mu.Lock()
	w.positions[ticket] = simPosition{
		symbol:    req.Symbol,
		direction: req.Direction,
		lots:      req.Lots,
		fillPrice: price,
	}
	w.mu.Unlock()

	return Fill{Ticket: ticket, Price: price, Time: resp.CreatedAt.UTC()}, nil
}

func (w *Wallex) CloseOrder(ctx context.Context, ticket string) (CloseResult, error) {
	select {
	case <-ctx.Done():
		return CloseResult{}, fmt.Errorf("%w: %v", ErrTimeout, ctx.Err())
	default:
	}

	w.mu.Lock()
	pos, ok := w.positions[ticket]
	w.mu.Unlock()
	if !ok {
		return CloseResult{}, fmt.Errorf("%w: %s", ErrUnknownTicket, ticket)
	}

	params := &wallex.OrderParams{
		Symbol:   normalizeSymbol(pos.symbol),
		Type:     "MARKET",
		Side:     flip(sideFor(pos.direction)),
		Quantity: wallex.Number(strconv.FormatFloat(pos.lots, 'f', 8, 64)),
	}

	var resp *wallex.Order
	err := retryCall(3, 2*time.Second, func() error {
		var err error
		resp, err = w.client.PlaceOrder(params)
		return err
	})
	if err != nil {
		return CloseResult{}, fmt.Errorf("%w: closing %s: %v", ErrRejected, ticket, err)
	}

	price := number(resp.ExecutedPrice)
	diff := price - pos.fillPrice
	if pos.direction == signal.Short {
		diff = -diff
	}
	pnl := diff * pos.lots

	w.mu.Lock()
	delete(w.positions, ticket)
	w.mu.Unlock()

	return CloseResult{Ticket: ticket, Price: price, RealizedPnL: pnl, Time: resp.CreatedAt.UTC()}, nil
}

func (w *Wallex) Balance(ctx context.Context) (float64, error) {
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
	default:
	}

	var balances map[string]*wallex.Balance
	err := retryCall(3, 2*time.Second, func() error {
		var err error
		balances, err = w.client.Balances()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("%w: balances: %v", ErrUnavailable, err)
	}

	b, ok := balances[w.quote]
	if !ok {
		return 0, fmt.Errorf("%w: no %s balance", ErrUnavailable, w.quote)
	}
	available, parseErr := strconv.ParseFloat(string(b.Value), 64)
	if parseErr != nil {
		return 0, fmt.Errorf("%w: parsing %s balance: %v", ErrUnavailable, w.quote, parseErr)
	}
	return available, nil
}

func (w *Wallex) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%w: %v", ErrUnavailable, ctx.Err())
	default:
	}

	var trades []*wallex.MarketTrade
	err := retryCall(3, 2*time.Second, func() error {
		var err error
		trades, err = w.client.MarketTrades(normalizeSymbol(symbol))
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("%w: trades for %s: %v", ErrUnavailable, symbol, err)
	}
	if len(trades) == 0 {
		return 0, fmt.Errorf("%w: no trades for %s", ErrUnavailable, symbol)
	}
	return number(&trades[0].Price), nil
}

// normalizeSymbol strips the hyphen the rest of the system uses, e.g.
// "BTC-USDT" becomes "BTCUSDT".
func normalizeSymbol(symbol string) string {
	return strings.ReplaceAll(strings.ToUpper(symbol), "-", "")
}

func number(n *wallex.Number) float64 {
	if n == nil {
		return 0
	}
	v, err := strconv.ParseFloat(string(*n), 64)
	if err != nil {
		return 0
	}
	return v
}

var _ Gateway = (*Wallex)(nil)
var _ Gateway = (*Simulated)(nil)
