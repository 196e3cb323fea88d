// Package signal converts indicator snapshots into directional trading
// signals with a score and a confidence.
package signal

import (
	"time"

	"github.com/andriyanb/autotrader/internal/mode"
)

// Direction of a signal.
type Direction int8

const (
	None  Direction = 0
	Long  Direction = 1
	Short Direction = -1
)

func (d Direction) String() string {
	switch d {
	case Long:
		return "long"
	case Short:
		return "short"
	default:
		return "none"
	}
}

// ParseDirection is the inverse of String. Unknown values map to None.
func ParseDirection(s string) Direction {
	switch s {
	case "long":
		return Long
	case "short":
		return Short
	default:
		return None
	}
}

// Signal is the scored outcome of one snapshot evaluation. It lives only
// for the cycle that produced it.
type Signal struct {
	Symbol       string
	Time         time.Time
	Direction    Direction
	Score        int
	Confidence   float64
	Price        float64
	Contributors []string
}

// Qualifies reports whether the signal clears both of the mode's gates.
// The score gate and the confidence gate are independent; a high
// confidence never compensates for a thin score.
func (s Signal) Qualifies(cfg mode.Config) bool {
	if s.Direction == None {
		return false
	}
	return s.Score >= cfg.MinScore && s.Confidence >= cfg.MinConfidence
}
