// Package gateway is the execution boundary: placing and closing orders
// against a broker and reading the account balance and current prices.
package gateway

import (
	"context"
	"errors"
	"time"

	"github.com/andriyanb/autotrader/internal/order"
)

var (
	// ErrRejected is a broker-side refusal: bad price, insufficient
	// margin, unknown symbol. Terminal for the submission.
	ErrRejected = errors.New("gateway: order rejected")

	// ErrTimeout means no confirmation arrived within the bound. Treated
	// the same as a rejection; success must never be assumed.
	ErrTimeout = errors.New("gateway: confirmation timeout")

	// ErrUnavailable means balance or price could not be retrieved.
	ErrUnavailable = errors.New("gateway: data unavailable")

	// ErrUnknownTicket means the broker has no position for the ticket.
	ErrUnknownTicket = errors.New("gateway: unknown ticket")
)

// Fill is the confirmation of an accepted order.
type Fill struct {
	Ticket string
	Price  float64
	Time   time.Time
}

// CloseResult is the confirmation of a closed position with its realized
// money result.
type CloseResult struct {
	Ticket      string
	Price       float64
	RealizedPnL float64
	Time        time.Time
}

// Gateway is the interface for all supported execution venues.
type Gateway interface {
	Name() string
	PlaceOrder(ctx context.Context, req order.Request) (Fill, error)
	CloseOrder(ctx context.Context, ticket string) (CloseResult, error)
	Balance(ctx context.Context) (float64, error)
	CurrentPrice(ctx context.Context, symbol string) (float64, error)
}
