// Package db persists orders and journaled events, with an in-memory
// store for simulation and a Postgres store for live runs.
package db

import (
	"context"

	"github.com/andriyanb/autotrader/internal/journal"
	"github.com/andriyanb/autotrader/internal/order"
)

// Storage is the interface for all persistent storage.
type Storage interface {
	SaveOrder(ctx context.Context, o order.Order) error
	GetOrder(ctx context.Context, id string) (*order.Order, error)
	GetOrders(ctx context.Context, symbol string) ([]order.Order, error)

	journal.Journaler
}
