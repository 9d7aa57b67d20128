package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

var ErrNotFound = errors.New("record not found")

// Trade is one settled binary option position.
type Trade struct {
	ID        string
	Strategy  string
	Asset     string
	Direction string
	Amount    float64
	Duration  int
	Status    string
	PnL       float64
	OpenedAt  time.Time
	SettledAt time.Time
}

// DailyMetrics is one UTC day's risk accounting.
type DailyMetrics struct {
	Day             string
	StartingBalance float64
	PnL             float64
	Trades          int
	UpdatedAt       time.Time
}

// Queries wraps the read/write statements used by the bot.
type Queries struct {
	db *sql.DB
}

func (d *Database) Queries() *Queries {
	return &Queries{db: d.DB}
}

// RecordTrade upserts a trade row. It is called once when the trade
// opens (status active) and again at settlement with the terminal
// status and realized pnl.
func (q *Queries) RecordTrade(ctx context.Context, t Trade) error {
	var settled any
	if !t.SettledAt.IsZero() {
		settled = t.SettledAt.UTC().Format(time.RFC3339)
	}
	_, err := q.db.ExecContext(ctx, `
		INSERT INTO trades (id, strategy, asset, direction, amount, duration, status, pnl, opened_at, settled_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status = excluded.status,
			pnl = excluded.pnl,
			settled_at = excluded.settled_at
	`, t.ID, t.Strategy, t.Asset, t.Direction, t.Amount, t.Duration, t.Status, t.PnL,
		t.OpenedAt.UTC().Format(time.RFC3339), settled)
	if err != nil {
		return fmt.Errorf("record trade: %w", err)
	}
	return nil
}

// ListTrades returns the most recent trades, newest first.
func (q *Queries) ListTrades(ctx context.Context, limit int) ([]Trade, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := q.db.QueryContext(ctx, `
		SELECT id, strategy, asset, direction, amount, duration, status, pnl, opened_at, COALESCE(settled_at, '')
		FROM trades
		ORDER BY opened_at DESC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	defer rows.Close()

	var out []Trade
	for rows.Next() {
		var t Trade
		var opened, settled string
		if err := rows.Scan(&t.ID, &t.Strategy, &t.Asset, &t.Direction, &t.Amount, &t.Duration, &t.Status, &t.PnL, &opened, &settled); err != nil {
			return nil, fmt.Errorf("scan trade: %w", err)
		}
		t.OpenedAt, _ = time.Parse(time.RFC3339, opened)
		if settled != "" {
			t.SettledAt, _ = time.Parse(time.RFC3339, settled)
		}
		out = append(out, t)
	}
	return out, rows.Err()
}

// GetDailyMetrics returns the risk accounting row for a UTC day
// formatted as 2006-01-02.
func (q *Queries) GetDailyMetrics(ctx context.Context, day string) (DailyMetrics, error) {
	var m DailyMetrics
	var updated string
	err := q.db.QueryRowContext(ctx, `
		SELECT day, starting_balance, pnl, trades, updated_at
		FROM risk_metrics
		WHERE day = ?
	`, day).Scan(&m.Day, &m.StartingBalance, &m.PnL, &m.Trades, &updated)
	if err == sql.ErrNoRows {
		return DailyMetrics{}, ErrNotFound
	}
	if err != nil {
		return DailyMetrics{}, fmt.Errorf("query daily metrics: %w", err)
	}
	m.UpdatedAt, _ = time.Parse(time.RFC3339, updated)
	return m, nil
}
