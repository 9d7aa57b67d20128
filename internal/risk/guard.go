// Package risk enforces the daily profit and loss limits that halt a
// trading run.
package risk

import (
	"database/sql"
	"fmt"
	"log"
	"sync"
	"time"

	"qbot-core/pkg/i18n"
)

// Limits is the operator-configured daily risk envelope. A zero limit
// disables that side.
type Limits struct {
	ProfitLimit     float64
	ProfitIsPercent bool
	LossLimit       float64
	LossIsPercent   bool
}

// Verdict is the outcome of a guard evaluation.
type Verdict struct {
	Halt   bool
	Reason string
}

// Guard accumulates realized P&L for the current UTC day and reports
// when a configured limit is breached. The day and starting balance
// roll over at UTC midnight.
type Guard struct {
	mu       sync.Mutex
	db       *sql.DB
	limits   Limits
	day      string
	baseline float64
	pnl      float64
	trades   int
	now      func() time.Time
}

// NewGuard creates a guard anchored at the given starting balance.
// db may be nil; when set, daily metrics are upserted on every Record.
func NewGuard(limits Limits, startingBalance float64, db *sql.DB) *Guard {
	g := &Guard{
		db:       db,
		limits:   limits,
		baseline: startingBalance,
		now:      time.Now,
	}
	g.day = g.now().UTC().Format("2006-01-02")
	log.Printf("risk guard: day=%s baseline=%.2f profit_limit=%.2f(pct=%v) loss_limit=%.2f(pct=%v)",
		g.day, startingBalance, limits.ProfitLimit, limits.ProfitIsPercent, limits.LossLimit, limits.LossIsPercent)
	return g
}

// Record folds one settled trade's realized P&L into the day total.
func (g *Guard) Record(pnl float64) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rolloverLocked(g.baseline + g.pnl)
	g.pnl += pnl
	g.trades++
	g.persistLocked()
}

// Evaluate checks the limits against the accumulated day total.
// balance is only consulted on a day rollover, where it becomes the
// new baseline for percent limits.
func (g *Guard) Evaluate(balance float64) Verdict {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.rolloverLocked(balance)

	if g.limits.ProfitLimit > 0 {
		threshold := g.limits.ProfitLimit
		if g.limits.ProfitIsPercent {
			threshold = g.limits.ProfitLimit / 100 * g.baseline
		}
		if g.pnl >= threshold {
			return Verdict{Halt: true, Reason: fmt.Sprintf("daily profit target reached: %.2f >= %.2f", g.pnl, threshold)}
		}
	}
	if g.limits.LossLimit > 0 {
		threshold := g.limits.LossLimit
		if g.limits.LossIsPercent {
			threshold = g.limits.LossLimit / 100 * g.baseline
		}
		if g.pnl <= -threshold {
			return Verdict{Halt: true, Reason: fmt.Sprintf("daily loss limit hit: %.2f <= -%.2f", g.pnl, threshold)}
		}
	}
	return Verdict{}
}

// DayPnL reports the accumulated total for the current UTC day.
func (g *Guard) DayPnL() float64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.pnl
}

func (g *Guard) rolloverLocked(balance float64) {
	day := g.now().UTC().Format("2006-01-02")
	if day == g.day {
		return
	}
	log.Printf("risk guard: UTC day rollover %s -> %s, rebasing at %.2f", g.day, day, balance)
	g.day = day
	g.baseline = balance
	g.pnl = 0
	g.trades = 0
	g.persistLocked()
}

func (g *Guard) persistLocked() {
	if g.db == nil {
		return
	}
	_, err := g.db.Exec(`
		INSERT INTO risk_metrics (day, starting_balance, pnl, trades, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(day) DO UPDATE SET
			starting_balance = excluded.starting_balance,
			pnl = excluded.pnl,
			trades = excluded.trades,
			updated_at = excluded.updated_at
	`, g.day, g.baseline, g.pnl, g.trades, g.now().UTC().Format(time.RFC3339))
	if err != nil {
		log.Printf(i18n.Get("RiskMetricsPersist"), err)
	}
}
