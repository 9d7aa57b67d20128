package broker

import (
	"context"
	"log"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"qbot-core/internal/market"
)

// SimConfig tunes the practice simulator.
type SimConfig struct {
	StartBalance float64
	// PayoutPercent is quoted for every asset unless overridden.
	PayoutPercent float64
	Payouts       map[string]float64
	// WinRate is the probability a simulated trade settles in the
	// money. 0 falls back to 0.5.
	WinRate float64
	// ClosedAssets report ErrMarketClosed on candle fetches.
	ClosedAssets []string
	Seed         int64
}

type simTrade struct {
	order    Order
	openedAt time.Time
	settled  bool
	won      bool
	pnl      float64
}

// Sim is an in-memory broker for practice runs. It tracks a single
// balance, quotes payouts, synthesizes candle history as a bounded
// random walk and settles trades at expiry with a configured win rate.
type Sim struct {
	mu      sync.Mutex
	cfg     SimConfig
	rng     *rand.Rand
	online  bool
	balance float64
	trades  map[string]*simTrade
	closed  map[string]bool
	// last synthetic close per asset, so successive candle fetches
	// stay continuous.
	lastClose map[string]float64
}

func NewSim(cfg SimConfig) *Sim {
	if cfg.StartBalance <= 0 {
		cfg.StartBalance = 10000
	}
	if cfg.PayoutPercent <= 0 {
		cfg.PayoutPercent = 85
	}
	if cfg.WinRate <= 0 || cfg.WinRate > 1 {
		cfg.WinRate = 0.5
	}
	seed := cfg.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	closed := make(map[string]bool, len(cfg.ClosedAssets))
	for _, a := range cfg.ClosedAssets {
		closed[a] = true
	}
	return &Sim{
		cfg:       cfg,
		rng:       rand.New(rand.NewSource(seed)),
		balance:   cfg.StartBalance,
		trades:    make(map[string]*simTrade),
		closed:    closed,
		lastClose: make(map[string]float64),
	}
}

func (s *Sim) Connect(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.online = true
	return nil
}

func (s *Sim) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.online = false
	return nil
}

func (s *Sim) Balance(ctx context.Context) (float64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.online {
		return 0, ErrNotConnected
	}
	return s.balance, nil
}

func (s *Sim) Payout(ctx context.Context, asset string) (Payout, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.online {
		return Payout{}, ErrNotConnected
	}
	if v, ok := s.cfg.Payouts[asset]; ok {
		return KeyedPayout(map[string]float64{"1M": v}), nil
	}
	return KeyedPayout(map[string]float64{"1M": s.cfg.PayoutPercent}), nil
}

func (s *Sim) Candles(ctx context.Context, asset string, end time.Time, timeframe time.Duration, count int) ([]market.Candle, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.online {
		return nil, ErrNotConnected
	}
	if s.closed[asset] {
		return nil, ErrMarketClosed
	}
	price, ok := s.lastClose[asset]
	if !ok {
		price = 1 + s.rng.Float64()*0.2
	}
	sec := int64(timeframe / time.Second)
	if sec <= 0 {
		sec = 60
	}
	start := end.Unix() - end.Unix()%sec - int64(count-1)*sec
	out := make([]market.Candle, 0, count)
	for i := 0; i < count; i++ {
		open := price
		drift := (s.rng.Float64() - 0.5) * 0.002 * open
		cls := open + drift
		high := math.Max(open, cls) + s.rng.Float64()*0.0005*open
		low := math.Min(open, cls) - s.rng.Float64()*0.0005*open
		out = append(out, market.Candle{
			Open:      open,
			High:      high,
			Low:       low,
			Close:     cls,
			Timestamp: start + int64(i)*sec,
		})
		price = cls
	}
	s.lastClose[asset] = price
	return out, nil
}

func (s *Sim) Buy(ctx context.Context, o Order) (Receipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.online {
		return Receipt{}, ErrNotConnected
	}
	if s.closed[o.Asset] {
		return Receipt{}, ErrMarketClosed
	}
	id := uuid.NewString()
	now := time.Now()
	s.balance -= o.Amount
	s.trades[id] = &simTrade{order: o, openedAt: now}
	log.Printf("sim broker: opened %s %s amount=%.2f duration=%s id=%s",
		o.Asset, o.Direction, o.Amount, o.Duration, id)
	return Receipt{TradeID: id, OpenedAt: now}, nil
}

// CheckWin blocks until the trade's expiry has passed, then settles it.
// Settlement is idempotent.
func (s *Sim) CheckWin(ctx context.Context, tradeID string) (bool, float64, error) {
	s.mu.Lock()
	t, ok := s.trades[tradeID]
	if !ok {
		s.mu.Unlock()
		return false, 0, ErrUnknownTrade
	}
	expiry := t.openedAt.Add(t.order.Duration)
	s.mu.Unlock()

	if wait := time.Until(expiry); wait > 0 {
		select {
		case <-ctx.Done():
			return false, 0, ctx.Err()
		case <-time.After(wait):
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if !t.settled {
		t.settled = true
		t.won = s.rng.Float64() < s.cfg.WinRate
		payout := s.cfg.PayoutPercent
		if v, ok := s.cfg.Payouts[t.order.Asset]; ok {
			payout = v
		}
		if t.won {
			t.pnl = t.order.Amount * payout / 100
			s.balance += t.order.Amount + t.pnl
		} else {
			t.pnl = -t.order.Amount
		}
	}
	return t.won, t.pnl, nil
}
