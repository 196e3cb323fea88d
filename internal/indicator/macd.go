package indicator

// MACD returns the latest MACD line and its signal line for the standard
// fast/slow/signal EMA periods. The signal line is an EMA of the MACD
// series, so the window must cover slow+signal samples.
func MACD(prices []float64, fast, slow, signal int) (line, signalLine float64, err error) {
	if fast <= 0 || slow <= fast || signal <= 0 {
		return 0, 0, ErrNotEnoughData
	}
	if len(prices) < slow+signal {
		return 0, 0, ErrNotEnoughData
	}

	// Build the MACD series over the last signal+1 points so the signal
	// EMA has data to smooth.
	series := make([]float64, 0, signal+1)
	for i := len(prices) - signal - 1; i < len(prices); i++ {
		window := prices[:i+1]
		if len(window) < slow {
			continue
		}
		f, _ := EMA(window, fast)
		s, _ := EMA(window, slow)
		series = append(series, f-s)
	}
	if len(series) < signal {
		return 0, 0, ErrNotEnoughData
	}

	line = series[len(series)-1]

	k := 2.0 / float64(signal+1)
	sig := series[0]
	for _, v := range series[1:] {
		sig = v*k + sig*(1-k)
	}
	return line, sig, nil
}
