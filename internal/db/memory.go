package db

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/andriyanb/autotrader/internal/journal"
	"github.com/andriyanb/autotrader/internal/order"
)

type MemoryStorage struct {
	mu sync.RWMutex

	// Orders by client id
	orders map[string]order.Order

	// Events (append-only)
	events []journal.Event
}

func NewMemory() *MemoryStorage {
	return &MemoryStorage{
		orders: make(map[string]order.Order),
		events: make([]journal.Event, 0, 1024),
	}
}

func (m *MemoryStorage) SaveOrder(ctx context.Context, o order.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[o.ID] = o
	return nil
}

func (m *MemoryStorage) GetOrder(ctx context.Context, id string) (*order.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if o, ok := m.orders[id]; ok {
		oo := o
		return &oo, nil
	}
	return nil, nil
}

func (m *MemoryStorage) GetOrders(ctx context.Context, symbol string) ([]order.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []order.Order
	for _, o := range m.orders {
		if symbol != "" && o.Symbol != symbol {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *MemoryStorage) LogEvent(event journal.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if event.Time.IsZero() {
		event.Time = time.Now().UTC()
	}
	m.events = append(m.events, event)
	return nil
}

func (m *MemoryStorage) GetEvents(eventType string, start, end time.Time) ([]journal.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []journal.Event
	for _, e := range m.events {
		if eventType != "" && e.Type != eventType {
			continue
		}
		if !start.IsZero() && e.Time.Before(start) {
			continue
		}
		if !end.IsZero() && e.Time.After(end) {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}
