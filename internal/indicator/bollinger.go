package indicator

import "math"

// Bollinger returns the upper, middle and lower band over the last period
// prices using the given standard deviation multiplier.
func Bollinger(prices []float64, period int, deviation float64) (upper, middle, lower float64, err error) {
	if period <= 0 || len(prices) < period {
		return 0, 0, 0, ErrNotEnoughData
	}
	middle, _ = SMA(prices, period)

	var variance float64
	for _, p := range prices[len(prices)-period:] {
		d := p - middle
		variance += d * d
	}
	std := math.Sqrt(variance / float64(period))

	return middle + deviation*std, middle, middle - deviation*std, nil
}
