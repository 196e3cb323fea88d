package marketdata

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHistory_BoundedWindow(t *testing.T) {
	h := NewHistory(3)
	for _, p := range []float64{1, 2, 3, 4, 5} {
		h.Append("EURUSD", p)
	}

	assert.Equal(t, []float64{3, 4, 5}, h.Prices("EURUSD"))
	assert.Equal(t, 3, h.Len("EURUSD"))

	latest, err := h.Latest("EURUSD")
	require.NoError(t, err)
	assert.Equal(t, 5.0, latest)
}

func TestHistory_IndependentSymbols(t *testing.T) {
	h := NewHistory(10)
	h.Append("EURUSD", 1.1)
	h.Append("XAUUSD", 2400)

	assert.Equal(t, []float64{1.1}, h.Prices("EURUSD"))
	assert.Equal(t, []float64{2400}, h.Prices("XAUUSD"))

	_, err := h.Latest("GBPUSD")
	assert.Error(t, err)
	assert.Empty(t, h.Prices("GBPUSD"))
}

func TestHistory_PricesReturnsCopy(t *testing.T) {
	h := NewHistory(5)
	h.Append("EURUSD", 1.1)

	got := h.Prices("EURUSD")
	got[0] = 99

	assert.Equal(t, []float64{1.1}, h.Prices("EURUSD"))
}

func TestRandomWalk(t *testing.T) {
	w := NewRandomWalk(map[string]float64{"XAUUSD": 2400}, 0.05, 42)

	prev := 2400.0
	for i := 0; i < 100; i++ {
		p, err := w.Price("XAUUSD")
		require.NoError(t, err)
		// Each tick moves at most 0.05% from the previous price.
		assert.InDelta(t, prev, p, prev*0.0005+1e-9)
		prev = p
	}

	_, err := w.Price("GBPUSD")
	assert.Error(t, err)
}

func TestRandomWalk_Deterministic(t *testing.T) {
	a := NewRandomWalk(map[string]float64{"EURUSD": 1.1}, 0.1, 7)
	b := NewRandomWalk(map[string]float64{"EURUSD": 1.1}, 0.1, 7)

	for i := 0; i < 10; i++ {
		pa, err := a.Price("EURUSD")
		require.NoError(t, err)
		pb, err := b.Price("EURUSD")
		require.NoError(t, err)
		assert.Equal(t, pa, pb)
	}
}
