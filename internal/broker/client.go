package broker

import (
	"context"
	"errors"
	"time"

	"qbot-core/internal/market"
)

// Account selects which balance the broker trades against.
type Account string

const (
	AccountPractice Account = "PRACTICE"
	AccountReal     Account = "REAL"
)

var (
	ErrNotConnected = errors.New("broker: not connected")
	ErrMarketClosed = errors.New("broker: asset market closed")
	ErrUnknownTrade = errors.New("broker: unknown trade id")
)

// Order is a single binary option entry.
type Order struct {
	Asset     string
	Direction string // "call" or "put"
	Amount    float64
	Duration  time.Duration
	// TimeMode "TIME" means Duration is a fixed expiry length rather
	// than a target clock time.
	TimeMode string
}

// Receipt identifies an accepted order at the broker.
type Receipt struct {
	TradeID  string
	OpenedAt time.Time
}

// Client is the narrow broker capability the trading core depends on.
// Implementations must be safe for use from a single engine goroutine
// plus its settlement monitors.
type Client interface {
	Connect(ctx context.Context) error
	// Balance returns the current balance of the selected account.
	Balance(ctx context.Context) (float64, error)
	// Candles returns up to count candles of the given timeframe for
	// asset, ending at end. Candles are ordered oldest first.
	Candles(ctx context.Context, asset string, end time.Time, timeframe time.Duration, count int) ([]market.Candle, error)
	// Payout reports the current payout for asset. A zero-value Payout
	// with a nil error means the broker exposes no quote for it.
	Payout(ctx context.Context, asset string) (Payout, error)
	Buy(ctx context.Context, o Order) (Receipt, error)
	// CheckWin blocks until the trade settles, then reports the
	// realized profit (negative on a loss).
	CheckWin(ctx context.Context, tradeID string) (won bool, pnl float64, err error)
	Close() error
}
