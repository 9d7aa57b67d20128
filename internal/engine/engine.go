// Package engine runs the worker's trading loop: scan candle windows
// for detector signals, size and place trades, and settle them against
// the daily risk guard until a stop condition fires.
package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"qbot-core/internal/assets"
	"qbot-core/internal/broker"
	"qbot-core/internal/market"
	"qbot-core/internal/risk"
	"qbot-core/internal/sizing"
	"qbot-core/internal/stopfile"
	"qbot-core/internal/strategy"
	"qbot-core/internal/tradelog"
	"qbot-core/pkg/config"
	"qbot-core/pkg/db"
	"qbot-core/pkg/i18n"
)

const (
	// candleCount is the history depth fetched per scan.
	candleCount = 300
	// settleBuffer pads the expiry before asking the broker for the
	// result, covering broker-side settlement lag.
	settleBuffer = 5 * time.Second
	// checkWinTimeout bounds one settlement query.
	checkWinTimeout = 10 * time.Second
	// probeInterval is how often the connection is verified with a
	// balance fetch.
	probeInterval = 30 * time.Second
	// marketClosedCooldown keeps an asset out of scans after the
	// broker reported it closed.
	marketClosedCooldown = 2 * time.Minute
)

// StopCause says why a run ended. Risk halts are graceful, not errors.
type StopCause string

const (
	StopRequested StopCause = "stop_requested"
	StopDeadline  StopCause = "run_duration_elapsed"
	StopRiskHalt  StopCause = "risk_halt"
	StopContext   StopCause = "context_canceled"
)

// Config wires the engine's collaborators.
type Config struct {
	Settings  config.Run
	Broker    broker.Client
	Detectors []strategy.Detector
	Journal   *tradelog.Writer
	DB        *db.Database // optional
	Stop      stopfile.Marker
}

// Engine is one worker run. Not reusable after Run returns.
type Engine struct {
	cfg     Config
	limiter *rate.Limiter
	guard   *risk.Guard

	mu       sync.Mutex
	active   map[string]string // asset -> trade id
	cooldown map[string]time.Time
	settlers sync.WaitGroup

	// align waits for the next candle open; replaced in tests so a
	// pass doesn't take a real timeframe.
	align func(ctx context.Context, timeframe time.Duration) bool
	now   func() time.Time
}

func New(cfg Config) *Engine {
	e := &Engine{
		cfg: cfg,
		// Brokers throttle candle endpoints; pace requests the same
		// way a polite client would.
		limiter:  rate.NewLimiter(rate.Every(200*time.Millisecond), 1),
		active:   make(map[string]string),
		cooldown: make(map[string]time.Time),
		now:      time.Now,
	}
	e.align = e.waitNextOpen
	return e
}

// Run executes the trading loop until a stop condition fires. The
// returned cause distinguishes graceful ends; only broker connection
// failure is an error.
func (e *Engine) Run(ctx context.Context) (StopCause, error) {
	s := e.cfg.Settings
	timeframe := time.Duration(s.Timeframe) * time.Second

	log.Printf(i18n.Get("ConnectingBroker"), s.Account)
	if err := e.cfg.Broker.Connect(ctx); err != nil {
		return "", fmt.Errorf("connect broker: %w", err)
	}
	defer e.cfg.Broker.Close()
	log.Print(i18n.Get("BrokerConnected"))

	balance, err := e.cfg.Broker.Balance(ctx)
	if err != nil {
		return "", fmt.Errorf("initial balance: %w", err)
	}
	log.Printf(i18n.Get("BalanceFetched"), balance)

	var guardDB *sql.DB
	if e.cfg.DB != nil {
		guardDB = e.cfg.DB.DB
	}
	e.guard = risk.NewGuard(risk.Limits{
		ProfitLimit:     s.DailyProfitLimit,
		ProfitIsPercent: s.DailyProfitIsPercent,
		LossLimit:       s.DailyLossLimit,
		LossIsPercent:   s.DailyLossIsPercent,
	}, balance, guardDB)

	var deadline time.Time
	if s.RunMinutes > 0 {
		deadline = e.now().Add(time.Duration(s.RunMinutes) * time.Minute)
	}

	tradable := assets.Filter(ctx, e.cfg.Broker, s.Assets, s.PayoutThreshold)
	log.Printf(i18n.Get("AssetsFiltered"), len(tradable), len(s.Assets), s.PayoutThreshold)
	lastRefresh := e.now()
	lastProbe := e.now()

	if !e.align(ctx, timeframe) {
		return e.abortCause(ctx, deadline, balance), nil
	}

	for {
		if cause, done := e.stopCheck(ctx, deadline, balance); done {
			e.settlers.Wait()
			return cause, nil
		}

		if e.now().Sub(lastProbe) >= probeInterval {
			lastProbe = e.now()
			if b, err := e.cfg.Broker.Balance(ctx); err != nil {
				log.Printf("engine: connection probe failed: %v, reconnecting", err)
				if err := e.cfg.Broker.Connect(ctx); err == nil {
					tradable = assets.Filter(ctx, e.cfg.Broker, s.Assets, s.PayoutThreshold)
					lastRefresh = e.now()
				} else {
					log.Printf(i18n.Get("BrokerConnectFailed"), err)
				}
			} else {
				balance = b
			}
		}

		if e.now().Sub(lastRefresh) >= time.Duration(s.PayoutRefresh)*time.Minute || len(tradable) == 0 {
			// An empty result stands: the pass is skipped below
			// rather than trading a stale list.
			tradable = assets.Filter(ctx, e.cfg.Broker, s.Assets, s.PayoutThreshold)
			lastRefresh = e.now()
			log.Printf(i18n.Get("AssetsFiltered"), len(tradable), len(s.Assets), s.PayoutThreshold)
		}

		if len(tradable) == 0 {
			log.Print(i18n.Get("NoTradableAssets"))
		} else {
			e.scan(ctx, tradable)
		}

		if !e.align(ctx, timeframe) {
			e.settlers.Wait()
			return e.abortCause(ctx, deadline, balance), nil
		}
	}
}

// scan evaluates every eligible asset and places at most one new trade.
func (e *Engine) scan(ctx context.Context, tradable []string) {
	s := e.cfg.Settings
	timeframe := time.Duration(s.Timeframe) * time.Second

	for _, asset := range tradable {
		if !e.eligible(asset) {
			continue
		}
		if err := e.limiter.Wait(ctx); err != nil {
			return
		}
		candles, err := e.cfg.Broker.Candles(ctx, asset, e.now(), timeframe, candleCount)
		if err != nil {
			if errors.Is(err, broker.ErrMarketClosed) {
				log.Printf(i18n.Get("MarketClosedSkip"), asset)
				e.benchAsset(asset)
			}
			continue
		}

		window := market.Window(candles)
		for _, det := range e.cfg.Detectors {
			signal, ok := det.Detect(window)
			if !ok {
				continue
			}
			log.Printf(i18n.Get("SignalDetected"), det.Name(), signal, asset)
			if e.place(ctx, det.Name(), asset, signal) {
				// One new position per pass; the rest of the list
				// waits for the next candle.
				return
			}
			break
		}
	}
}

// place aligns to the next candle open and submits the order.
func (e *Engine) place(ctx context.Context, detector, asset string, signal strategy.Signal) bool {
	s := e.cfg.Settings
	timeframe := time.Duration(s.Timeframe) * time.Second

	if !e.align(ctx, timeframe) {
		return false
	}

	balance, err := e.cfg.Broker.Balance(ctx)
	if err != nil {
		log.Printf(i18n.Get("TradeRejected"), asset, err)
		return false
	}
	stake := sizing.Stake(balance, s.TradeFraction())

	rcpt, err := e.cfg.Broker.Buy(ctx, broker.Order{
		Asset:     asset,
		Direction: string(signal),
		Amount:    stake,
		Duration:  timeframe,
		TimeMode:  "TIME",
	})
	if err != nil {
		log.Printf(i18n.Get("TradeRejected"), asset, err)
		if errors.Is(err, broker.ErrMarketClosed) {
			e.benchAsset(asset)
		}
		return false
	}
	log.Printf(i18n.Get("TradePlaced"), asset, signal, stake, rcpt.TradeID)

	record := tradelog.Record{
		ID:        rcpt.TradeID,
		Strategy:  detector,
		Asset:     asset,
		Direction: string(signal),
		Amount:    stake,
		Duration:  s.Timeframe,
		Status:    tradelog.StatusActive,
	}
	record.Stamp(e.now())
	if err := e.cfg.Journal.Append(record); err != nil {
		log.Printf(i18n.Get("TradeLogOpenFailed"), err)
	}
	e.persistTrade(ctx, record, time.Time{})

	e.mu.Lock()
	e.active[asset] = rcpt.TradeID
	e.mu.Unlock()

	e.settlers.Add(1)
	go e.settle(ctx, record)
	return true
}

// settle waits out the trade and appends the terminal record.
func (e *Engine) settle(ctx context.Context, record tradelog.Record) {
	defer e.settlers.Done()
	defer func() {
		e.mu.Lock()
		delete(e.active, record.Asset)
		e.mu.Unlock()
	}()

	wait := time.Duration(record.Duration)*time.Second + settleBuffer
	select {
	case <-ctx.Done():
		return
	case <-time.After(wait):
	}

	checkCtx, cancel := context.WithTimeout(ctx, checkWinTimeout)
	defer cancel()
	won, pnl, err := e.cfg.Broker.CheckWin(checkCtx, record.ID)

	terminal := record
	terminal.Stamp(e.now())
	switch {
	case err != nil:
		terminal.Status = tradelog.StatusError
		terminal.PnL = 0
		log.Printf("engine: settle %s: %v", record.ID, err)
	case won:
		terminal.Status = tradelog.StatusWon
		terminal.PnL = pnl
	default:
		terminal.Status = tradelog.StatusLost
		terminal.PnL = pnl
	}
	log.Printf(i18n.Get("TradeSettled"), terminal.ID, terminal.Status, terminal.PnL)

	if err := e.cfg.Journal.Append(terminal); err != nil {
		log.Printf(i18n.Get("TradeLogOpenFailed"), err)
	}
	e.persistTrade(context.Background(), terminal, e.now())
	if terminal.Status != tradelog.StatusError {
		e.guard.Record(terminal.PnL)
	}
}

// abortCause classifies an interrupted candle wait so a stop marker is
// reported as an operator stop, not a cancelled context.
func (e *Engine) abortCause(ctx context.Context, deadline time.Time, balance float64) StopCause {
	if cause, done := e.stopCheck(ctx, deadline, balance); done {
		return cause
	}
	return StopContext
}

func (e *Engine) stopCheck(ctx context.Context, deadline time.Time, balance float64) (StopCause, bool) {
	if ctx.Err() != nil {
		return StopContext, true
	}
	if e.cfg.Stop.Present() {
		return StopRequested, true
	}
	if !deadline.IsZero() && !e.now().Before(deadline) {
		log.Print(i18n.Get("RunDurationElapsed"))
		return StopDeadline, true
	}
	if v := e.guard.Evaluate(balance); v.Halt {
		log.Printf(i18n.Get("RiskHalt"), v.Reason)
		return StopRiskHalt, true
	}
	return "", false
}

func (e *Engine) eligible(asset string) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	if len(e.active) >= e.cfg.Settings.MaxConcurrent {
		return false
	}
	if _, open := e.active[asset]; open {
		return false
	}
	if until, benched := e.cooldown[asset]; benched {
		if e.now().Before(until) {
			return false
		}
		delete(e.cooldown, asset)
	}
	return true
}

func (e *Engine) benchAsset(asset string) {
	e.mu.Lock()
	e.cooldown[asset] = e.now().Add(marketClosedCooldown)
	e.mu.Unlock()
}

func (e *Engine) persistTrade(ctx context.Context, r tradelog.Record, settledAt time.Time) {
	if e.cfg.DB == nil {
		return
	}
	// The upsert never rewrites opened_at, so passing now on the
	// terminal write is harmless.
	err := e.cfg.DB.Queries().RecordTrade(ctx, db.Trade{
		ID:        r.ID,
		Strategy:  r.Strategy,
		Asset:     r.Asset,
		Direction: r.Direction,
		Amount:    r.Amount,
		Duration:  r.Duration,
		Status:    r.Status,
		PnL:       r.PnL,
		OpenedAt:  e.now(),
		SettledAt: settledAt,
	})
	if err != nil {
		log.Printf("engine: persist trade %s: %v", r.ID, err)
	}
}

// waitNextOpen sleeps to the next candle boundary in one second slices
// so a stop request is seen promptly.
func (e *Engine) waitNextOpen(ctx context.Context, timeframe time.Duration) bool {
	remaining := market.NextOpen(e.now(), timeframe)
	log.Printf(i18n.Get("AwaitingCandleClose"), remaining.Round(time.Millisecond))
	deadline := e.now().Add(remaining)
	for {
		if ctx.Err() != nil || e.cfg.Stop.Present() {
			return false
		}
		left := deadline.Sub(e.now())
		if left <= 0 {
			return true
		}
		if left > time.Second {
			left = time.Second
		}
		select {
		case <-ctx.Done():
			return false
		case <-time.After(left):
		}
	}
}
