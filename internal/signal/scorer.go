package signal

import (
	"sync"

	"github.com/andriyanb/autotrader/internal/mode"
)

// MaxScore is the highest score the battery can award to one side.
const MaxScore = 12

// RSI bands and trend window defaults.
const (
	defaultOversold   = 25.0
	defaultOverbought = 75.0
	defaultTrendLen   = 10
)

// ScorerConfig tunes the RSI bands and the trailing window used for trend
// confirmation.
type ScorerConfig struct {
	Oversold   float64
	Overbought float64
	TrendLen   int
}

// Scorer evaluates snapshots against a fixed battery of indicator
// conditions. It remembers a trailing window of snapshot prices per
// instrument for the trend-confirmation boost.
type Scorer struct {
	cfg ScorerConfig

	mu      sync.Mutex
	history map[string][]float64
}

// NewScorer creates a Scorer, filling zero config fields with defaults.
func NewScorer(cfg ScorerConfig) *Scorer {
	if cfg.Oversold <= 0 {
		cfg.Oversold = defaultOversold
	}
	if cfg.Overbought <= 0 {
		cfg.Overbought = defaultOverbought
	}
	if cfg.TrendLen <= 0 {
		cfg.TrendLen = defaultTrendLen
	}
	return &Scorer{
		cfg:     cfg,
		history: make(map[string][]float64),
	}
}

// Score runs the battery over one snapshot. Each category contributes to
// the long side or the short side; the direction is the strictly stronger
// side and ties yield None. Confidence is score/MaxScore, boosted for
// strong scores and for agreement with the trailing trend, multiplied
// together and capped at 2.5x before clamping to 1.0.
func (s *Scorer) Score(snap Snapshot, mc mode.Config) Signal {
	var longScore, shortScore int
	var longWhy, shortWhy []string

	// Price against the moving-average stack.
	switch {
	case snap.Price > snap.MAShort && snap.MAShort > snap.MALong:
		longScore += 3
		longWhy = append(longWhy, "ma_stack")
	case snap.Price < snap.MAShort && snap.MAShort < snap.MALong:
		shortScore += 3
		shortWhy = append(shortWhy, "ma_stack")
	case snap.Price > snap.MAShort && snap.MAShort > snap.MALong*0.999:
		longScore++
		longWhy = append(longWhy, "ma_cross")
	case snap.Price < snap.MAShort && snap.MAShort < snap.MALong*1.001:
		shortScore++
		shortWhy = append(shortWhy, "ma_cross")
	}

	// EMA triplet ordering.
	switch {
	case snap.EMAFast > snap.EMAMid && snap.EMAMid > snap.EMASlow && snap.Price > snap.EMAFast:
		longScore += 2
		longWhy = append(longWhy, "ema_order")
	case snap.EMAFast < snap.EMAMid && snap.EMAMid < snap.EMASlow && snap.Price < snap.EMAFast:
		shortScore += 2
		shortWhy = append(shortWhy, "ema_order")
	case snap.EMAFast > snap.EMAMid*1.001:
		longScore++
		longWhy = append(longWhy, "ema_momentum")
	case snap.EMAFast < snap.EMAMid*0.999:
		shortScore++
		shortWhy = append(shortWhy, "ema_momentum")
	}

	// Weighted moving average cross.
	if snap.WMAFast > snap.WMASlow {
		longScore++
		longWhy = append(longWhy, "wma_cross")
	} else if snap.WMAFast < snap.WMASlow {
		shortScore++
		shortWhy = append(shortWhy, "wma_cross")
	}

	// RSI bands, with a softer midline tilt.
	switch {
	case snap.RSI <= s.cfg.Oversold:
		longScore += 3
		longWhy = append(longWhy, "rsi_oversold")
	case snap.RSI >= s.cfg.Overbought:
		shortScore += 3
		shortWhy = append(shortWhy, "rsi_overbought")
	case snap.RSI < 45:
		longScore += 2
		longWhy = append(longWhy, "rsi_low")
	case snap.RSI > 55:
		shortScore += 2
		shortWhy = append(shortWhy, "rsi_high")
	}

	// Bollinger band touch.
	if snap.Price <= snap.BBLower {
		longScore += 2
		longWhy = append(longWhy, "bb_lower")
	} else if snap.Price >= snap.BBUpper {
		shortScore += 2
		shortWhy = append(shortWhy, "bb_upper")
	}

	// MACD line against its signal.
	if snap.MACD > snap.MACDSignal {
		longScore++
		longWhy = append(longWhy, "macd")
	} else if snap.MACD < snap.MACDSignal {
		shortScore++
		shortWhy = append(shortWhy, "macd")
	}

	sig := Signal{
		Symbol: snap.Symbol,
		Time:   snap.Time,
		Price:  snap.Price,
	}

	switch {
	case longScore > shortScore:
		sig.Direction = Long
		sig.Score = longScore
		sig.Contributors = longWhy
	case shortScore > longScore:
		sig.Direction = Short
		sig.Score = shortScore
		sig.Contributors = shortWhy
	default:
		// Tie, including the all-quiet zero/zero case.
		sig.Direction = None
		sig.Score = longScore
		s.remember(snap)
		return sig
	}

	confidence := float64(sig.Score) / float64(MaxScore)
	boost := 1.0
	if sig.Score >= mc.StrongSignalScore {
		boost *= mc.SignalBoost
	}
	if s.trendAgrees(snap.Symbol, sig.Direction) {
		boost *= mc.TrendBoost
	}
	if boost > 2.5 {
		boost = 2.5
	}
	confidence *= boost
	if confidence > 1 {
		confidence = 1
	}
	sig.Confidence = confidence

	s.remember(snap)
	return sig
}

// trendAgrees checks the trailing snapshot prices for a drift in the
// signal's direction. With too little history there is no boost.
func (s *Scorer) trendAgrees(symbol string, dir Direction) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	hist := s.history[symbol]
	if len(hist) < s.cfg.TrendLen {
		return false
	}
	first, last := hist[0], hist[len(hist)-1]
	switch dir {
	case Long:
		return last > first
	case Short:
		return last < first
	}
	return false
}

func (s *Scorer) remember(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	hist := append(s.history[snap.Symbol], snap.Price)
	if len(hist) > s.cfg.TrendLen {
		hist = hist[len(hist)-s.cfg.TrendLen:]
	}
	s.history[snap.Symbol] = hist
}
