package strategy

import "qbot-core/internal/market"

// BreakoutDetector trades breakouts after a fresh extreme: the previous
// candle must be the exact extreme of the five candles ending at it,
// and the current close must break beyond the previous candle's range.
type BreakoutDetector struct{}

func NewBreakoutDetector() *BreakoutDetector {
	return &BreakoutDetector{}
}

func (d *BreakoutDetector) Name() string {
	return "breakout"
}

// Detect evaluates the breakout-after-extreme-retest pattern.
// Call: prev.low is the lowest low of the extrema window AND the
// current close exceeds prev.high. Put is the mirror on the high side.
// The extreme comparison is exact equality on purpose: the previous
// candle must BE the extreme, not merely near it.
func (d *BreakoutDetector) Detect(w market.Window) (Signal, bool) {
	if !w.Valid() {
		return SignalNone, false
	}

	prev := w.Previous()
	curr := w.Current()
	extrema := w.Extrema()

	if prev.Low == market.LowestLow(extrema) && curr.Close > prev.High {
		return SignalCall, true
	}
	if prev.High == market.HighestHigh(extrema) && curr.Close < prev.Low {
		return SignalPut, true
	}
	return SignalNone, false
}
