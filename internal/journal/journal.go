// Package journal
package journal

import (
	"time"
)

// Event represents a journaled engine event.
type Event struct {
	Time        time.Time
	Type        string // "signal", "order", "risk", "engine"
	Symbol      string
	Description string
	Data        map[string]any
}

// Journaler interface for journaling events.
type Journaler interface {
	LogEvent(event Event) error
	GetEvents(eventType string, start, end time.Time) ([]Event, error)
}

// OrderEvent builds an order lifecycle event.
func OrderEvent(symbol, description string, data map[string]any) Event {
	return Event{
		Time:        time.Now().UTC(),
		Type:        "order",
		Symbol:      symbol,
		Description: description,
		Data:        data,
	}
}

// SignalEvent builds a signal evaluation event.
func SignalEvent(symbol, description string, data map[string]any) Event {
	return Event{
		Time:        time.Now().UTC(),
		Type:        "signal",
		Symbol:      symbol,
		Description: description,
		Data:        data,
	}
}

// RiskEvent builds a risk denial or circuit breaker event.
func RiskEvent(symbol, description string, data map[string]any) Event {
	return Event{
		Time:        time.Now().UTC(),
		Type:        "risk",
		Symbol:      symbol,
		Description: description,
		Data:        data,
	}
}

// EngineEvent builds a lifecycle event for the engine itself, e.g. start,
// stop, mode switches.
func EngineEvent(description string, data map[string]any) Event {
	return Event{
		Time:        time.Now().UTC(),
		Type:        "engine",
		Description: description,
		Data:        data,
	}
}
