package strategy

import (
	"math"

	"qbot-core/internal/market"
)

// EngulfingDetector trades engulfing bars: the current candle's range
// completely covers the previous candle's range and the two bodies
// point in opposite directions.
type EngulfingDetector struct {
	// minBodyRatio rejects weak engulfing candles whose body is a
	// small fraction of the total range.
	minBodyRatio float64
}

func NewEngulfingDetector() *EngulfingDetector {
	return &EngulfingDetector{minBodyRatio: 0.3}
}

func (d *EngulfingDetector) Name() string {
	return "engulfing"
}

func (d *EngulfingDetector) Detect(w market.Window) (Signal, bool) {
	if !w.Valid() {
		return SignalNone, false
	}

	prev := w.Previous()
	curr := w.Current()

	// Engulfing bar definition: current range covers previous range.
	if !(curr.High > prev.High && curr.Low < prev.Low) {
		return SignalNone, false
	}

	totalRange := curr.High - curr.Low
	if totalRange == 0 {
		return SignalNone, false
	}
	body := math.Abs(curr.Close - curr.Open)

	// Bullish engulfing: current bullish body covers a bearish one.
	if curr.Close > curr.Open && prev.Close < prev.Open {
		// Close-at-extreme candles carry weak conviction.
		if prev.Close == prev.Low || curr.Close == curr.High {
			return SignalNone, false
		}
		if body <= d.minBodyRatio*totalRange {
			return SignalNone, false
		}
		return SignalCall, true
	}

	// Bearish engulfing: current bearish body covers a bullish one.
	if curr.Close < curr.Open && prev.Close > prev.Open {
		if prev.Close == prev.High || curr.Close == curr.Low {
			return SignalNone, false
		}
		if body <= d.minBodyRatio*totalRange {
			return SignalNone, false
		}
		return SignalPut, true
	}

	return SignalNone, false
}
