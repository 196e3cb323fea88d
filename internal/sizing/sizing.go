// Package sizing turns a qualifying signal plus the current account
// balance into a concrete order request with balance-derived TP/SL prices.
package sizing

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/andriyanb/autotrader/internal/instrument"
	"github.com/andriyanb/autotrader/internal/mode"
	"github.com/andriyanb/autotrader/internal/order"
	"github.com/andriyanb/autotrader/internal/signal"
)

var (
	// ErrInsufficientBalance means the account is below the configured
	// floor. The cycle is skipped; the instrument stays enabled.
	ErrInsufficientBalance = errors.New("sizing: insufficient balance")

	// ErrInvalidInstrument means pip value or lot step could not be
	// resolved for the instrument.
	ErrInvalidInstrument = errors.New("sizing: invalid instrument metadata")
)

// Sizer builds order requests. BaseLot is the starting lot before risk
// scaling; MinBalance is the account floor below which no order is sized;
// DailyLossLimitPct caps the single-trade loss target so one stop-out can
// never blow the whole daily budget.
type Sizer struct {
	BaseLot           float64
	MinBalance        float64
	DailyLossLimitPct float64
}

// Build produces an order request for the signal. riskScale shrinks the
// lot after losing streaks (1.0 means full size); the final lot is snapped
// down to the instrument's lot step and clamped to its bounds.
func (s Sizer) Build(sig signal.Signal, balance float64, md instrument.Metadata, mc mode.Config, riskScale float64) (order.Request, error) {
	if sig.Direction == signal.None {
		return order.Request{}, fmt.Errorf("sizing: cannot size a directionless signal for %s", sig.Symbol)
	}
	if balance < s.MinBalance || balance <= 0 {
		return order.Request{}, fmt.Errorf("%w: balance %.2f below floor %.2f", ErrInsufficientBalance, balance, s.MinBalance)
	}
	if err := md.Validate(); err != nil {
		return order.Request{}, fmt.Errorf("%w: %v", ErrInvalidInstrument, err)
	}

	lots := s.lot(md, riskScale)

	pipValue := md.PipValue(lots)
	if pipValue <= 0 {
		return order.Request{}, fmt.Errorf("%w: pip value resolves to %v for %s", ErrInvalidInstrument, pipValue, md.Symbol)
	}

	targetProfit := balance * mc.TakeProfitPct / 100
	maxLoss := balance * mc.StopLossPct / 100
	if s.DailyLossLimitPct > 0 {
		if limit := balance * s.DailyLossLimitPct / 100; maxLoss > limit {
			maxLoss = limit
		}
	}

	tpDelta := targetProfit / pipValue * md.PipSize
	slDelta := maxLoss / pipValue * md.PipSize

	req := order.Request{
		ID:         uuid.NewString(),
		Symbol:     sig.Symbol,
		Direction:  sig.Direction,
		Lots:       lots,
		EntryPrice: sig.Price,
		Mode:       mc.Mode,
		CreatedAt:  time.Now().UTC(),
	}
	if sig.Direction == signal.Long {
		req.TakeProfit = sig.Price + tpDelta
		req.StopLoss = sig.Price - slDelta
	} else {
		req.TakeProfit = sig.Price - tpDelta
		req.StopLoss = sig.Price + slDelta
	}

	return req, nil
}

// lot applies the bounded sizing rule: base lot scaled by the risk factor,
// snapped down to the lot step, clamped to [step, cap].
func (s Sizer) lot(md instrument.Metadata, riskScale float64) float64 {
	if riskScale <= 0 || riskScale > 1 {
		riskScale = 1
	}
	lots := s.BaseLot * riskScale
	steps := math.Floor(lots / md.MinLotStep)
	lots = steps * md.MinLotStep
	if lots < md.MinLotStep {
		lots = md.MinLotStep
	}
	if lots > md.MaxLot {
		lots = md.MaxLot
	}
	return lots
}
