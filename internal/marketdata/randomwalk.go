package marketdata

import (
	"fmt"
	"math/rand"
	"sync"
)

// RandomWalk is a synthetic price source for paper trading: each Price
// call advances the symbol's last price by a bounded relative step.
type RandomWalk struct {
	stepPct float64
	rng     *rand.Rand

	mu   sync.Mutex
	last map[string]float64
}

// NewRandomWalk seeds a walk over the given start prices. stepPct bounds
// each tick's move as a percentage of the current price, e.g. 0.05 moves
// at most 0.05% per tick.
func NewRandomWalk(start map[string]float64, stepPct float64, seed int64) *RandomWalk {
	last := make(map[string]float64, len(start))
	for symbol, price := range start {
		last[symbol] = price
	}
	return &RandomWalk{
		stepPct: stepPct,
		rng:     rand.New(rand.NewSource(seed)),
		last:    last,
	}
}

// Price advances and returns the symbol's walk.
func (w *RandomWalk) Price(symbol string) (float64, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	price, ok := w.last[symbol]
	if !ok {
		return 0, fmt.Errorf("marketdata: unknown symbol %s", symbol)
	}

	step := (w.rng.Float64()*2 - 1) * w.stepPct / 100
	price *= 1 + step
	w.last[symbol] = price
	return price, nil
}
