package gateway

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andriyanb/autotrader/internal/order"
	"github.com/andriyanb/autotrader/internal/signal"
)

type stubPrices map[string]float64

func (s stubPrices) Price(symbol string) (float64, error) {
	p, ok := s[symbol]
	if !ok {
		return 0, fmt.Errorf("no price for %s", symbol)
	}
	return p, nil
}

func longRequest(symbol string, lots float64) order.Request {
	return order.Request{
		ID:        "req-1",
		Symbol:    symbol,
		Direction: signal.Long,
		Lots:      lots,
	}
}

func TestSimulated_FillAndClose(t *testing.T) {
	prices := stubPrices{"XAUUSDm": 2400.0}
	sim := NewSimulated(prices, 1_000_000, 0)
	ctx := context.Background()

	fill, err := sim.PlaceOrder(ctx, longRequest("XAUUSDm", 0.01))
	require.NoError(t, err)
	assert.Equal(t, "SIM-1001", fill.Ticket)
	assert.Equal(t, 2400.0, fill.Price)
	assert.Equal(t, 1, sim.OpenPositions())

	// Gold moves up 5.0, which is 50 pips of 0.1. Pip value for 0.01 lots
	// of a 100 oz contract is 0.1, so the position made 5 money units.
	prices["XAUUSDm"] = 2405.0
	res, err := sim.CloseOrder(ctx, fill.Ticket)
	require.NoError(t, err)
	assert.InDelta(t, 5.0, res.RealizedPnL, 1e-9)
	assert.Equal(t, 0, sim.OpenPositions())

	balance, err := sim.Balance(ctx)
	require.NoError(t, err)
	assert.InDelta(t, 1_000_005, balance, 1e-9)
}

func TestSimulated_SlippageWorsensBothSides(t *testing.T) {
	prices := stubPrices{"XAUUSDm": 2400.0}
	sim := NewSimulated(prices, 1_000_000, 2) // 2 pips of 0.1

	fill, err := sim.PlaceOrder(context.Background(), longRequest("XAUUSDm", 0.01))
	require.NoError(t, err)
	assert.InDelta(t, 2400.2, fill.Price, 1e-9, "long fills above market")

	res, err := sim.CloseOrder(context.Background(), fill.Ticket)
	require.NoError(t, err)
	assert.InDelta(t, 2399.8, res.Price, 1e-9, "long closes below market")
	assert.InDelta(t, -0.4, res.RealizedPnL, 1e-9)
}

func TestSimulated_ShortPnL(t *testing.T) {
	prices := stubPrices{"EURUSD": 1.1000}
	sim := NewSimulated(prices, 100_000, 0)

	req := longRequest("EURUSD", 0.01)
	req.Direction = signal.Short
	fill, err := sim.PlaceOrder(context.Background(), req)
	require.NoError(t, err)

	// 10 pip drop in the short's favor at 0.1 per pip for 0.01 lots.
	prices["EURUSD"] = 1.0990
	res, err := sim.CloseOrder(context.Background(), fill.Ticket)
	require.NoError(t, err)
	assert.InDelta(t, 1.0, res.RealizedPnL, 1e-9)
}

func TestSimulated_Rejections(t *testing.T) {
	prices := stubPrices{"EURUSD": 1.1}
	sim := NewSimulated(prices, 100_000, 0)
	ctx := context.Background()

	_, err := sim.PlaceOrder(ctx, order.Request{ID: "x", Symbol: "EURUSD", Direction: signal.None, Lots: 0.01})
	assert.ErrorIs(t, err, ErrRejected)

	_, err = sim.PlaceOrder(ctx, order.Request{ID: "x", Symbol: "EURUSD", Direction: signal.Long, Lots: 0})
	assert.ErrorIs(t, err, ErrRejected)

	_, err = sim.PlaceOrder(ctx, longRequest("GBPUSD", 0.01))
	assert.ErrorIs(t, err, ErrUnavailable)

	_, err = sim.CloseOrder(ctx, "SIM-9999")
	assert.ErrorIs(t, err, ErrUnknownTicket)
}

func TestSimulated_CancelledContext(t *testing.T) {
	sim := NewSimulated(stubPrices{"EURUSD": 1.1}, 100_000, 0)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := sim.PlaceOrder(ctx, longRequest("EURUSD", 0.01))
	assert.ErrorIs(t, err, ErrTimeout)

	_, err = sim.Balance(ctx)
	assert.ErrorIs(t, err, ErrUnavailable)
}
