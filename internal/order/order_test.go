package order

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/andriyanb/autotrader/internal/signal"
)

func TestCanTransition(t *testing.T) {
	tests := []struct {
		from, to State
		ok       bool
	}{
		{Proposed, Submitted, true},
		{Proposed, Rejected, true},
		{Proposed, Open, false},
		{Submitted, Open, true},
		{Submitted, Failed, true},
		{Submitted, Closed, false},
		{Open, Monitoring, true},
		{Open, Closed, false},
		{Monitoring, Closed, true},
		{Monitoring, Open, false},
		// Emergency stop can force any live order out.
		{Proposed, Cancelled, true},
		{Submitted, Cancelled, true},
		{Open, Cancelled, true},
		{Monitoring, Cancelled, true},
		// Terminal states are final.
		{Closed, Cancelled, false},
		{Rejected, Submitted, false},
		{Failed, Open, false},
		{Cancelled, Monitoring, false},
	}
	for _, tt := range tests {
		t.Run(tt.from.String()+"_to_"+tt.to.String(), func(t *testing.T) {
			assert.Equal(t, tt.ok, tt.from.CanTransition(tt.to))
		})
	}
}

func TestTerminal(t *testing.T) {
	assert.False(t, Proposed.Terminal())
	assert.False(t, Submitted.Terminal())
	assert.False(t, Open.Terminal())
	assert.False(t, Monitoring.Terminal())
	assert.True(t, Closed.Terminal())
	assert.True(t, Rejected.Terminal())
	assert.True(t, Failed.Terminal())
	assert.True(t, Cancelled.Terminal())
}

func TestParseState(t *testing.T) {
	for st := Proposed; st <= Cancelled; st++ {
		assert.Equal(t, st, ParseState(st.String()))
	}
	assert.Equal(t, Proposed, ParseState("garbage"))
}

func TestPnLAt(t *testing.T) {
	long := Order{
		Request:   Request{Direction: signal.Long},
		FillPrice: 2400,
	}
	// 50 pips of 0.1 at 0.1 per pip.
	assert.InDelta(t, 5.0, long.PnLAt(2405, 0.1, 0.1), 1e-9)
	assert.InDelta(t, -5.0, long.PnLAt(2395, 0.1, 0.1), 1e-9)

	short := Order{
		Request:   Request{Direction: signal.Short},
		FillPrice: 2400,
	}
	assert.InDelta(t, -5.0, short.PnLAt(2405, 0.1, 0.1), 1e-9)
	assert.InDelta(t, 5.0, short.PnLAt(2395, 0.1, 0.1), 1e-9)

	assert.Zero(t, long.PnLAt(2405, 0.1, 0))
}
