// Package indicator implements the technical indicator math used by the
// signal scorer. All functions evaluate over the tail of the given price
// window and return the latest value only.
package indicator

import "errors"

// ErrNotEnoughData is returned when the price window is shorter than the
// indicator's period.
var ErrNotEnoughData = errors.New("indicator: not enough data")

// SMA returns the simple moving average of the last period prices.
func SMA(prices []float64, period int) (float64, error) {
	if period <= 0 || len(prices) < period {
		return 0, ErrNotEnoughData
	}
	var sum float64
	for _, p := range prices[len(prices)-period:] {
		sum += p
	}
	return sum / float64(period), nil
}

// EMA returns the exponential moving average over the full window, seeded
// with an SMA of the first period prices.
func EMA(prices []float64, period int) (float64, error) {
	if period <= 0 || len(prices) < period {
		return 0, ErrNotEnoughData
	}
	seed, _ := SMA(prices[:period], period)
	k := 2.0 / float64(period+1)
	ema := seed
	for _, p := range prices[period:] {
		ema = p*k + ema*(1-k)
	}
	return ema, nil
}

// WMA returns the linearly weighted moving average of the last period
// prices, most recent price weighted highest.
func WMA(prices []float64, period int) (float64, error) {
	if period <= 0 || len(prices) < period {
		return 0, ErrNotEnoughData
	}
	tail := prices[len(prices)-period:]
	var sum, weights float64
	for i, p := range tail {
		w := float64(i + 1)
		sum += p * w
		weights += w
	}
	return sum / weights, nil
}
