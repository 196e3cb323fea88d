package signal

import (
	"fmt"
	"time"

	"github.com/andriyanb/autotrader/internal/indicator"
)

// Indicator periods. The EMA triplet doubles as the MACD input.
const (
	maShortPeriod  = 7
	maLongPeriod   = 20
	emaFastPeriod  = 12
	emaMidPeriod   = 26
	emaSlowPeriod  = 55
	wmaFastPeriod  = 5
	wmaSlowPeriod  = 13
	rsiPeriod      = 14
	bbPeriod       = 20
	bbDeviation    = 2.0
	macdFastPeriod = 12
	macdSlowPeriod = 26
	macdSignal     = 9
)

// MinDataPoints is the price-history floor below which no snapshot can be
// built. Sized for the slowest indicator (EMA 55) plus headroom for the
// MACD signal line.
const MinDataPoints = emaSlowPeriod + macdSignal

// Snapshot is one immutable set of indicator readings for an instrument,
// produced once per evaluation tick.
type Snapshot struct {
	Symbol string
	Time   time.Time
	Price  float64

	MAShort float64
	MALong  float64

	EMAFast float64
	EMAMid  float64
	EMASlow float64

	WMAFast float64
	WMASlow float64

	RSI float64

	BBUpper float64
	BBLower float64

	MACD       float64
	MACDSignal float64
}

// BuildSnapshot computes the full indicator battery from a rolling price
// window, oldest price first. It fails as a whole when the window is too
// short for any indicator: a partial snapshot is never produced.
func BuildSnapshot(symbol string, now time.Time, prices []float64) (Snapshot, error) {
	if len(prices) < MinDataPoints {
		return Snapshot{}, fmt.Errorf("snapshot %s: %d prices below minimum %d: %w",
			symbol, len(prices), MinDataPoints, indicator.ErrNotEnoughData)
	}

	snap := Snapshot{
		Symbol: symbol,
		Time:   now,
		Price:  prices[len(prices)-1],
	}

	var err error
	if snap.MAShort, err = indicator.SMA(prices, maShortPeriod); err != nil {
		return Snapshot{}, err
	}
	if snap.MALong, err = indicator.SMA(prices, maLongPeriod); err != nil {
		return Snapshot{}, err
	}
	if snap.EMAFast, err = indicator.EMA(prices, emaFastPeriod); err != nil {
		return Snapshot{}, err
	}
	if snap.EMAMid, err = indicator.EMA(prices, emaMidPeriod); err != nil {
		return Snapshot{}, err
	}
	if snap.EMASlow, err = indicator.EMA(prices, emaSlowPeriod); err != nil {
		return Snapshot{}, err
	}
	if snap.WMAFast, err = indicator.WMA(prices, wmaFastPeriod); err != nil {
		return Snapshot{}, err
	}
	if snap.WMASlow, err = indicator.WMA(prices, wmaSlowPeriod); err != nil {
		return Snapshot{}, err
	}
	if snap.RSI, err = indicator.RSI(prices, rsiPeriod); err != nil {
		return Snapshot{}, err
	}
	if snap.BBUpper, _, snap.BBLower, err = indicator.Bollinger(prices, bbPeriod, bbDeviation); err != nil {
		return Snapshot{}, err
	}
	if snap.MACD, snap.MACDSignal, err = indicator.MACD(prices, macdFastPeriod, macdSlowPeriod, macdSignal); err != nil {
		return Snapshot{}, err
	}

	return snap, nil
}
