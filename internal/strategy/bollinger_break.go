package strategy

import (
	"qbot-core/internal/indicators"
	"qbot-core/internal/market"
)

// BollingerBreakDetector trades full-candle Bollinger Band breakouts:
// the current candle must open inside the band and close entirely
// beyond it. Counter-trend signals and high-volatility periods are
// filtered out.
type BollingerBreakDetector struct {
	period    int
	deviation float64
	// maxATRPercent caps ATR as a percentage of the average close;
	// beyond it the market is too erratic for a one-candle breakout.
	maxATRPercent float64
}

func NewBollingerBreakDetector(period int, deviation float64) *BollingerBreakDetector {
	if period <= 0 {
		period = 14
	}
	if deviation <= 0 {
		deviation = 1.0
	}
	return &BollingerBreakDetector{
		period:        period,
		deviation:     deviation,
		maxATRPercent: 1.5,
	}
}

func (d *BollingerBreakDetector) Name() string {
	return "bollinger_break"
}

func (d *BollingerBreakDetector) Detect(w market.Window) (Signal, bool) {
	if !w.Valid() || len(w) < d.period+1 {
		return SignalNone, false
	}

	// Bands are computed on the closes up to the previous candle so the
	// current candle is judged against levels it did not influence.
	closes := make([]float64, 0, len(w)-1)
	sum := 0.0
	for _, c := range w[:len(w)-1] {
		closes = append(closes, c.Close)
		sum += c.Close
	}
	upper, _, lower := indicators.Bollinger(closes, d.period, d.deviation)
	if upper == 0 || lower == 0 {
		return SignalNone, false
	}

	// Volatility guard.
	avgClose := sum / float64(len(closes))
	if avgClose > 0 {
		atrPercent := indicators.ATR(w, 14) / avgClose * 100
		if atrPercent > d.maxATRPercent {
			return SignalNone, false
		}
	}

	trend := indicators.TrendDirection(w[:len(w)-1])
	curr := w.Current()

	if curr.Open < upper && curr.Close > upper && trend != indicators.TrendBearish {
		return SignalCall, true
	}
	if curr.Open > lower && curr.Close < lower && trend != indicators.TrendBullish {
		return SignalPut, true
	}
	return SignalNone, false
}
