package strategy

import "qbot-core/internal/market"

// Signal is a directional trade intent emitted by a detector.
type Signal string

const (
	SignalNone Signal = ""
	SignalCall Signal = "call"
	SignalPut  Signal = "put"
)

// Detector evaluates a candle window and reports a signal. The boolean
// is the validity flag: a Signal is only meaningful when it is true.
type Detector interface {
	// Name returns the detector identifier used in trade records.
	Name() string
	// Detect is pure: same window, same answer, no side effects.
	Detect(w market.Window) (Signal, bool)
}
