package indicator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSMA(t *testing.T) {
	tests := []struct {
		name     string
		prices   []float64
		period   int
		expected float64
		wantErr  bool
	}{
		{
			name:     "Basic average",
			prices:   []float64{1, 2, 3, 4, 5},
			period:   5,
			expected: 3,
		},
		{
			name:     "Uses only the tail",
			prices:   []float64{100, 100, 2, 4, 6},
			period:   3,
			expected: 4,
		},
		{
			name:    "Not enough data",
			prices:  []float64{1, 2},
			period:  3,
			wantErr: true,
		},
		{
			name:    "Zero period",
			prices:  []float64{1, 2, 3},
			period:  0,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := SMA(tt.prices, tt.period)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNotEnoughData)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, got, 1e-9)
		})
	}
}

func TestEMA(t *testing.T) {
	// Seed SMA of first 3 = 2, k = 0.5: 2 -> 4*0.5+2*0.5=3 -> 5*0.5+3*0.5=4
	got, err := EMA([]float64{1, 2, 3, 4, 5}, 3)
	require.NoError(t, err)
	assert.InDelta(t, 4.0, got, 1e-9)

	_, err = EMA([]float64{1, 2}, 3)
	assert.ErrorIs(t, err, ErrNotEnoughData)
}

func TestWMA(t *testing.T) {
	// (1*1 + 2*2 + 3*3) / 6 = 14/6
	got, err := WMA([]float64{1, 2, 3}, 3)
	require.NoError(t, err)
	assert.InDelta(t, 14.0/6.0, got, 1e-9)

	// Flat prices stay flat regardless of weighting.
	got, err = WMA([]float64{7, 7, 7, 7}, 4)
	require.NoError(t, err)
	assert.InDelta(t, 7.0, got, 1e-9)
}

func TestRSI(t *testing.T) {
	tests := []struct {
		name     string
		prices   []float64
		period   int
		expected float64
		wantErr  bool
	}{
		{
			name:     "All increasing prices",
			prices:   []float64{10, 11, 12, 13, 14, 15},
			period:   3,
			expected: 100,
		},
		{
			name:     "All decreasing prices",
			prices:   []float64{15, 14, 13, 12, 11, 10},
			period:   3,
			expected: 0,
		},
		{
			name:   "Mixed prices stay inside bands",
			prices: []float64{10, 11, 12, 11, 10, 9, 10, 11, 12, 13, 14, 13, 12, 11, 12},
			period: 5,
			// Wilder smoothing over the same series as the reference
			// implementation.
			expected: 52.91,
		},
		{
			name:    "Not enough data",
			prices:  []float64{10, 11, 12},
			period:  5,
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RSI(tt.prices, tt.period)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrNotEnoughData)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tt.expected, got, 0.01)
		})
	}
}

func TestBollinger(t *testing.T) {
	prices := []float64{2, 4, 6, 8, 10}
	upper, middle, lower, err := Bollinger(prices, 5, 2.0)
	require.NoError(t, err)

	assert.InDelta(t, 6.0, middle, 1e-9)
	// std of {2,4,6,8,10} (population) = sqrt(8)
	assert.InDelta(t, 6.0+2*2.8284271247, upper, 1e-6)
	assert.InDelta(t, 6.0-2*2.8284271247, lower, 1e-6)

	_, _, _, err = Bollinger(prices, 10, 2.0)
	assert.ErrorIs(t, err, ErrNotEnoughData)
}

func TestMACD(t *testing.T) {
	prices := make([]float64, 0, 60)
	for i := 0; i < 60; i++ {
		prices = append(prices, 100+float64(i))
	}

	line, signal, err := MACD(prices, 12, 26, 9)
	require.NoError(t, err)
	// A steady uptrend keeps the fast EMA above the slow one.
	assert.Greater(t, line, 0.0)
	assert.Greater(t, signal, 0.0)

	_, _, err = MACD(prices[:20], 12, 26, 9)
	assert.ErrorIs(t, err, ErrNotEnoughData)

	_, _, err = MACD(prices, 26, 12, 9)
	assert.ErrorIs(t, err, ErrNotEnoughData)
}
