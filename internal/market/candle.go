package market

import "time"

// Candle represents a single OHLC candlestick for one instrument.
type Candle struct {
	Open      float64 `json:"open"`
	High      float64 `json:"high"`
	Low       float64 `json:"low"`
	Close     float64 `json:"close"`
	Timestamp int64   `json:"time"` // unix seconds of the candle open
}

// MinWindow is the minimum number of candles a window must hold before
// any detector may evaluate it.
const MinWindow = 6

// Window is the most recent candles for one asset, ordered oldest to
// newest. The last element is the current (still forming or just
// closed) candle, the second-to-last is the fully closed reference.
type Window []Candle

// Valid reports whether the window holds enough candles for evaluation.
func (w Window) Valid() bool {
	return len(w) >= MinWindow
}

// Current returns the newest candle. Call only on a valid window.
func (w Window) Current() Candle {
	return w[len(w)-1]
}

// Previous returns the fully closed candle before the current one.
func (w Window) Previous() Candle {
	return w[len(w)-2]
}

// Extrema returns the five candles ending at the previous candle, the
// sub-window used for breakout extreme detection.
func (w Window) Extrema() []Candle {
	return w[len(w)-6 : len(w)-1]
}

// LowestLow returns the minimum low over the given candles.
func LowestLow(candles []Candle) float64 {
	low := candles[0].Low
	for _, c := range candles[1:] {
		if c.Low < low {
			low = c.Low
		}
	}
	return low
}

// HighestHigh returns the maximum high over the given candles.
func HighestHigh(candles []Candle) float64 {
	high := candles[0].High
	for _, c := range candles[1:] {
		if c.High > high {
			high = c.High
		}
	}
	return high
}

// NextOpen returns how long to wait until the next candle-open boundary
// for the given timeframe, plus a small safety margin so the first tick
// of the new candle is already in.
func NextOpen(now time.Time, timeframe time.Duration) time.Duration {
	sec := int64(timeframe / time.Second)
	if sec <= 0 {
		return 0
	}
	remaining := sec - now.Unix()%sec
	return time.Duration(remaining)*time.Second + 50*time.Millisecond
}
