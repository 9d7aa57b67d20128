package strategy

import (
	"testing"

	"qbot-core/internal/market"
)

func TestBollingerBreakDetect(t *testing.T) {
	flat := candle(1.0, 1.001, 0.999, 1.0)

	base := make(market.Window, 0, 16)
	for i := 0; i < 15; i++ {
		base = append(base, flat)
	}

	t.Run("upside breakout yields call", func(t *testing.T) {
		w := append(append(market.Window{}, base...), candle(0.999, 1.012, 0.998, 1.01))
		d := NewBollingerBreakDetector(14, 1.0)
		sig, ok := d.Detect(w)
		if !ok || sig != SignalCall {
			t.Fatalf("Detect() = (%q, %v), expected (call, true)", sig, ok)
		}
	})

	t.Run("downside breakout yields put", func(t *testing.T) {
		w := append(append(market.Window{}, base...), candle(1.001, 1.002, 0.988, 0.99))
		d := NewBollingerBreakDetector(14, 1.0)
		sig, ok := d.Detect(w)
		if !ok || sig != SignalPut {
			t.Fatalf("Detect() = (%q, %v), expected (put, true)", sig, ok)
		}
	})

	t.Run("close inside band yields nothing", func(t *testing.T) {
		w := append(append(market.Window{}, base...), flat)
		d := NewBollingerBreakDetector(14, 1.0)
		sig, ok := d.Detect(w)
		if ok || sig != SignalNone {
			t.Fatalf("Detect() = (%q, %v), expected (none, false)", sig, ok)
		}
	})

	t.Run("short window yields nothing", func(t *testing.T) {
		d := NewBollingerBreakDetector(14, 1.0)
		sig, ok := d.Detect(base[:10])
		if ok || sig != SignalNone {
			t.Fatalf("Detect() = (%q, %v), expected (none, false)", sig, ok)
		}
	})
}
