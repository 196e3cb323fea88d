// Package marketdata keeps the rolling per-instrument price history that
// indicator snapshots are computed from, and provides a synthetic feed for
// paper trading.
package marketdata

import (
	"fmt"
	"sync"
)

// History holds a bounded price window per symbol. Appends past capacity
// evict the oldest price.
type History struct {
	capacity int

	mu     sync.RWMutex
	prices map[string][]float64
}

// NewHistory bounds each symbol's window to capacity prices.
func NewHistory(capacity int) *History {
	if capacity < 1 {
		capacity = 1
	}
	return &History{
		capacity: capacity,
		prices:   make(map[string][]float64),
	}
}

// Append records the latest price for a symbol.
func (h *History) Append(symbol string, price float64) {
	h.mu.Lock()
	defer h.mu.Unlock()

	window := append(h.prices[symbol], price)
	if len(window) > h.capacity {
		window = window[len(window)-h.capacity:]
	}
	h.prices[symbol] = window
}

// Prices returns a copy of the symbol's window, oldest first.
func (h *History) Prices(symbol string) []float64 {
	h.mu.RLock()
	defer h.mu.RUnlock()

	window := h.prices[symbol]
	out := make([]float64, len(window))
	copy(out, window)
	return out
}

// Len reports how many prices the symbol's window holds.
func (h *History) Len(symbol string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.prices[symbol])
}

// Latest returns the most recent price for the symbol.
func (h *History) Latest(symbol string) (float64, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	window := h.prices[symbol]
	if len(window) == 0 {
		return 0, fmt.Errorf("marketdata: no prices for %s", symbol)
	}
	return window[len(window)-1], nil
}
