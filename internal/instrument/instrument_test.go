package instrument

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		symbol       string
		contractSize float64
		pipSize      float64
	}{
		{"XAUUSD", 100, 0.1},
		{"XAUUSDm", 100, 0.1},
		{"USDJPY", 100_000, 0.01},
		{"EURUSD", 100_000, 0.0001},
		{"BTCUSD", 1, 1},
		{"GBPCHF", 100_000, 0.0001},
	}
	for _, tt := range tests {
		t.Run(tt.symbol, func(t *testing.T) {
			md := Resolve(tt.symbol)
			assert.Equal(t, tt.symbol, md.Symbol)
			assert.Equal(t, tt.contractSize, md.ContractSize)
			assert.Equal(t, tt.pipSize, md.PipSize)
			assert.NoError(t, md.Validate())
		})
	}
}

func TestPipValue(t *testing.T) {
	gold := Resolve("XAUUSDm")
	// 0.01 lots of a 100 oz contract with 0.1 pips.
	assert.InDelta(t, 0.1, gold.PipValue(0.01), 1e-9)

	eur := Resolve("EURUSD")
	assert.InDelta(t, 10, eur.PipValue(1), 1e-9)
}

func TestValidate(t *testing.T) {
	md := Resolve("EURUSD")
	assert.NoError(t, md.Validate())

	bad := md
	bad.PipSize = 0
	assert.Error(t, bad.Validate())

	bad = md
	bad.MaxLot = 0.001
	assert.Error(t, bad.Validate())

	assert.Error(t, Metadata{}.Validate())
}
