package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/lib/pq"

	"github.com/andriyanb/autotrader/internal/journal"
	"github.com/andriyanb/autotrader/internal/mode"
	"github.com/andriyanb/autotrader/internal/order"
	"github.com/andriyanb/autotrader/internal/signal"
)

type PostgresStorage struct {
	db *sql.DB
}

// NewPostgres opens the connection and ensures the schema exists.
func NewPostgres(connStr string) (*PostgresStorage, error) {
	db, err := sql.Open("postgres", connStr)
	if err != nil {
		return nil, fmt.Errorf("opening postgres: %w", err)
	}
	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}

	p := &PostgresStorage{db: db}
	if err := p.initSchema(); err != nil {
		return nil, fmt.Errorf("initializing schema: %w", err)
	}
	return p, nil
}

func (p *PostgresStorage) initSchema() error {
	_, err := p.db.Exec(`
		CREATE TABLE IF NOT EXISTS orders (
			id TEXT PRIMARY KEY,
			symbol TEXT NOT NULL,
			direction TEXT NOT NULL,
			lots DOUBLE PRECISION NOT NULL,
			entry_price DOUBLE PRECISION NOT NULL,
			take_profit DOUBLE PRECISION NOT NULL,
			stop_loss DOUBLE PRECISION NOT NULL,
			mode TEXT NOT NULL,
			state TEXT NOT NULL,
			ticket TEXT,
			fill_price DOUBLE PRECISION,
			realized_pnl DOUBLE PRECISION,
			created_at TIMESTAMPTZ NOT NULL,
			opened_at TIMESTAMPTZ,
			closed_at TIMESTAMPTZ
		);
		CREATE INDEX IF NOT EXISTS idx_orders_symbol ON orders(symbol);

		CREATE TABLE IF NOT EXISTS events (
			id BIGSERIAL PRIMARY KEY,
			time TIMESTAMPTZ NOT NULL,
			type TEXT NOT NULL,
			symbol TEXT,
			description TEXT,
			data JSONB
		);
		CREATE INDEX IF NOT EXISTS idx_events_type_time ON events(type, time);
	`)
	return err
}

func (p *PostgresStorage) Close() error { return p.db.Close() }

func (p *PostgresStorage) SaveOrder(ctx context.Context, o order.Order) error {
	_, err := p.db.ExecContext(ctx, `
		INSERT INTO orders
			(id, symbol, direction, lots, entry_price, take_profit, stop_loss,
			 mode, state, ticket, fill_price, realized_pnl, created_at, opened_at, closed_at)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
		ON CONFLICT (id) DO UPDATE SET
			state = EXCLUDED.state,
			ticket = EXCLUDED.ticket,
			fill_price = EXCLUDED.fill_price,
			realized_pnl = EXCLUDED.realized_pnl,
			opened_at = EXCLUDED.opened_at,
			closed_at = EXCLUDED.closed_at`,
		o.ID, o.Symbol, o.Direction.String(), o.Lots, o.EntryPrice, o.TakeProfit, o.StopLoss,
		string(o.Mode), o.State.String(), nullable(o.Ticket), o.FillPrice, o.RealizedPnL,
		o.CreatedAt, nullTime(o.OpenedAt), nullTime(o.ClosedAt))
	if err != nil {
		return fmt.Errorf("saving order %s: %w", o.ID, err)
	}
	return nil
}

func (p *PostgresStorage) GetOrder(ctx context.Context, id string) (*order.Order, error) {
	rows, err := p.db.QueryContext(ctx, orderQuery+` WHERE id = $1`, id)
	if err != nil {
		return nil, fmt.Errorf("querying order %s: %w", id, err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	o, err := scanOrder(rows)
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (p *PostgresStorage) GetOrders(ctx context.Context, symbol string) ([]order.Order, error) {
	query := orderQuery + ` ORDER BY created_at`
	args := []any{}
	if symbol != "" {
		query = orderQuery + ` WHERE symbol = $1 ORDER BY created_at`
		args = append(args, symbol)
	}

	rows, err := p.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying orders: %w", err)
	}
	defer rows.Close()

	var out []order.Order
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

const orderQuery = `
	SELECT id, symbol, direction, lots, entry_price, take_profit, stop_loss,
	       mode, state, ticket, fill_price, realized_pnl, created_at, opened_at, closed_at
	FROM orders`

func scanOrder(rows *sql.Rows) (order.Order, error) {
	var (
		o                  order.Order
		direction, st, mod string
		ticket             sql.NullString
		openedAt, closedAt sql.NullTime
	)
	err := rows.Scan(&o.ID, &o.Symbol, &direction, &o.Lots, &o.EntryPrice, &o.TakeProfit,
		&o.StopLoss, &mod, &st, &ticket, &o.FillPrice, &o.RealizedPnL,
		&o.CreatedAt, &openedAt, &closedAt)
	if err != nil {
		return order.Order{}, fmt.Errorf("scanning order: %w", err)
	}

	o.Direction = signal.ParseDirection(direction)
	o.Mode = mode.Mode(mod)
	o.State = order.ParseState(st)
	o.Ticket = ticket.String
	if openedAt.Valid {
		o.OpenedAt = openedAt.Time
	}
	if closedAt.Valid {
		o.ClosedAt = closedAt.Time
	}
	return o, nil
}

func (p *PostgresStorage) LogEvent(event journal.Event) error {
	data, err := json.Marshal(event.Data)
	if err != nil {
		return fmt.Errorf("marshaling event data: %w", err)
	}
	if event.Time.IsZero() {
		event.Time = time.Now().UTC()
	}
	_, err = p.db.Exec(`
		INSERT INTO events (time, type, symbol, description, data)
		VALUES ($1,$2,$3,$4,$5)`,
		event.Time, event.Type, event.Symbol, event.Description, data)
	if err != nil {
		return fmt.Errorf("logging event: %w", err)
	}
	return nil
}

func (p *PostgresStorage) GetEvents(eventType string, start, end time.Time) ([]journal.Event, error) {
	rows, err := p.db.Query(`
		SELECT time, type, symbol, description, data
		FROM events
		WHERE ($1 = '' OR type = $1)
		  AND ($2::timestamptz IS NULL OR time >= $2)
		  AND ($3::timestamptz IS NULL OR time <= $3)
		ORDER BY time`,
		eventType, nullTime(start), nullTime(end))
	if err != nil {
		return nil, fmt.Errorf("querying events: %w", err)
	}
	defer rows.Close()

	var out []journal.Event
	for rows.Next() {
		var (
			e      journal.Event
			symbol sql.NullString
			data   []byte
		)
		if err := rows.Scan(&e.Time, &e.Type, &symbol, &e.Description, &data); err != nil {
			return nil, fmt.Errorf("scanning event: %w", err)
		}
		e.Symbol = symbol.String
		if len(data) > 0 {
			if err := json.Unmarshal(data, &e.Data); err != nil {
				return nil, fmt.Errorf("unmarshaling event data: %w", err)
			}
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func nullable(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullTime(t time.Time) sql.NullTime {
	return sql.NullTime{Time: t, Valid: !t.IsZero()}
}
