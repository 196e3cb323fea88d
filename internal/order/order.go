// Package order
package order

import (
	"time"

	"github.com/andriyanb/autotrader/internal/mode"
	"github.com/andriyanb/autotrader/internal/signal"
)

// Request is a fully sized order proposal: direction, lots and the TP/SL
// prices already derived from the account balance. Owned by the lifecycle
// manager from proposal to a terminal state.
type Request struct {
	ID         string // client-side id, assigned at build time
	Symbol     string
	Direction  signal.Direction
	Lots       float64
	EntryPrice float64
	TakeProfit float64
	StopLoss   float64
	Mode       mode.Mode
	CreatedAt  time.Time
}

// State of an order in its lifecycle.
type State int8

const (
	Proposed State = iota
	Submitted
	Open
	Monitoring
	Closed
	Rejected
	Failed
	Cancelled
)

func (s State) String() string {
	switch s {
	case Proposed:
		return "proposed"
	case Submitted:
		return "submitted"
	case Open:
		return "open"
	case Monitoring:
		return "monitoring"
	case Closed:
		return "closed"
	case Rejected:
		return "rejected"
	case Failed:
		return "failed"
	case Cancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// ParseState is the inverse of String. Unknown values map to Proposed.
func ParseState(s string) State {
	for st := Proposed; st <= Cancelled; st++ {
		if st.String() == s {
			return st
		}
	}
	return Proposed
}

// Terminal reports whether no further transition may leave the state.
func (s State) Terminal() bool {
	switch s {
	case Closed, Rejected, Failed, Cancelled:
		return true
	}
	return false
}

// CanTransition encodes the legal state machine. Cancelled is reachable
// from every non-terminal state so an emergency stop can always force an
// order out.
func (s State) CanTransition(to State) bool {
	if s.Terminal() {
		return false
	}
	if to == Cancelled {
		return true
	}
	switch s {
	case Proposed:
		return to == Submitted || to == Rejected
	case Submitted:
		return to == Open || to == Failed
	case Open:
		return to == Monitoring
	case Monitoring:
		return to == Closed
	}
	return false
}

// Order wraps a Request with its lifecycle state and, once filled, the
// gateway ticket and running P/L.
type Order struct {
	Request

	State         State
	Ticket        string
	FillPrice     float64
	UnrealizedPnL float64
	RealizedPnL   float64
	OpenedAt      time.Time
	ClosedAt      time.Time
}

// PnLAt returns the money result of the position against the given price.
func (o Order) PnLAt(price float64, pipValue, pipSize float64) float64 {
	if pipSize <= 0 {
		return 0
	}
	pips := (price - o.FillPrice) / pipSize
	if o.Direction == signal.Short {
		pips = -pips
	}
	return pips * pipValue
}
