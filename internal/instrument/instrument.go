// Package instrument resolves per-symbol contract metadata: pip size,
// contract size and lot bounds. Sizing math depends on these numbers, so
// unknown symbols fall back to conservative forex defaults rather than
// failing the cycle.
package instrument

import (
	"fmt"
	"strings"
)

// Metadata describes one tradeable instrument.
type Metadata struct {
	Symbol       string
	PipSize      float64
	ContractSize float64
	MinLotStep   float64
	MaxLot       float64
}

// Validate checks that the metadata can drive sizing arithmetic.
func (m Metadata) Validate() error {
	if m.Symbol == "" {
		return fmt.Errorf("instrument: empty symbol")
	}
	if m.PipSize <= 0 {
		return fmt.Errorf("instrument %s: pip size must be positive, got %v", m.Symbol, m.PipSize)
	}
	if m.ContractSize <= 0 {
		return fmt.Errorf("instrument %s: contract size must be positive, got %v", m.Symbol, m.ContractSize)
	}
	if m.MinLotStep <= 0 {
		return fmt.Errorf("instrument %s: lot step must be positive, got %v", m.Symbol, m.MinLotStep)
	}
	if m.MaxLot < m.MinLotStep {
		return fmt.Errorf("instrument %s: max lot %v below lot step %v", m.Symbol, m.MaxLot, m.MinLotStep)
	}
	return nil
}

// PipValue is the money value of a one-pip move for the given lot count.
func (m Metadata) PipValue(lots float64) float64 {
	return lots * m.ContractSize * m.PipSize
}

// Resolve returns metadata for a symbol by instrument family. Broker
// suffixes like the trailing "m" on XAUUSDm are tolerated because matching
// is by substring.
func Resolve(symbol string) Metadata {
	up := strings.ToUpper(symbol)
	md := Metadata{
		Symbol:     symbol,
		MinLotStep: 0.01,
		MaxLot:     100,
	}

	switch {
	case strings.Contains(up, "XAU"):
		md.ContractSize = 100
		md.PipSize = 0.1
	case strings.Contains(up, "BTC"):
		md.ContractSize = 1
		md.PipSize = 1
	case strings.Contains(up, "JPY"):
		md.ContractSize = 100_000
		md.PipSize = 0.01
	default:
		// Standard forex lot.
		md.ContractSize = 100_000
		md.PipSize = 0.0001
	}
	return md
}
